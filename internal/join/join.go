// Package join combines two logical tables: a row-identity fast path for
// tables sharing one underlying relation, and a general equality-key join
// that composes both sides' total orders instead of re-sorting globally.
package join

import (
	"github.com/roach88/sqlframe/internal/core"
)

// How is the join mode.
type How string

const (
	HowInner How = "inner"
	HowLeft  How = "left"
	HowRight How = "right"
	HowOuter How = "outer"
)

// Descriptor describes one requested join. It is constructed per call and
// consumed immediately; the engine does not retain it. Empty key slices
// request a row-identity combine.
type Descriptor struct {
	How       How
	LeftKeys  []string
	RightKeys []string
}

// Resolver maps a pre-join column id from one side to the corresponding
// post-join column, applying the collision suffix convention.
type Resolver func(id string) (core.ColumnExpression, error)

var supportedHow = map[How]bool{
	HowInner: true,
	HowLeft:  true,
	HowRight: true,
	HowOuter: true,
}

func checkHow(how How, supported map[How]bool) error {
	if !supported[how] {
		return &JoinError{
			Code:    ErrCodeUnsupportedJoinMode,
			How:     string(how),
			Message: "join mode is not supported by this algorithm",
		}
	}
	return nil
}

// suffix conventions shared by both algorithms.
func mapLeftID(id string) string  { return id + "_x" }
func mapRightID(id string) string { return id + "_y" }
