package join

import (
	"errors"
	"fmt"
)

// JoinErrorCode categorizes join planning errors.
type JoinErrorCode string

const (
	// ErrCodeAmbiguousJoin indicates two tables with different row
	// identities combined without an explicit key.
	ErrCodeAmbiguousJoin JoinErrorCode = "AMBIGUOUS_JOIN"

	// ErrCodeUnsupportedJoinMode indicates a join mode outside the
	// supported set.
	ErrCodeUnsupportedJoinMode JoinErrorCode = "UNSUPPORTED_JOIN_MODE"

	// ErrCodeIncompatibleJoinPartner indicates an index-based table joined
	// against a non-index-based one.
	ErrCodeIncompatibleJoinPartner JoinErrorCode = "INCOMPATIBLE_JOIN_PARTNER"
)

// JoinError is raised at graph construction time when a join cannot be
// planned. How carries the requested mode for actionable messages.
type JoinError struct {
	Code    JoinErrorCode
	How     string
	Message string
}

// Error implements the error interface.
func (e *JoinError) Error() string {
	if e.How != "" {
		return fmt.Sprintf("%s: %s (how=%s)", e.Code, e.Message, e.How)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsAmbiguous reports whether err is an ambiguous-join error, the signal to
// fall back from the row-identity fast path to an explicit join.
// Uses errors.As to handle wrapped errors.
func IsAmbiguous(err error) bool {
	var je *JoinError
	return errors.As(err, &je) && je.Code == ErrCodeAmbiguousJoin
}
