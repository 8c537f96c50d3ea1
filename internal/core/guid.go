package core

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"
)

var guidCounter atomic.Int64

// GenerateGUID returns a process-unique column id with the given prefix.
// The counter is deterministic within a process, which keeps generated SQL
// stable for snapshot comparison.
func GenerateGUID(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, guidCounter.Add(1))
}

// CanonicalID normalizes a user-supplied column id to NFC so that visually
// identical identifiers with different Unicode encodings resolve to the
// same column.
func CanonicalID(id string) string {
	return norm.NFC.String(id)
}
