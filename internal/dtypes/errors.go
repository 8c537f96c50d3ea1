package dtypes

import (
	"errors"
	"fmt"
)

// TypeErrorCode categorizes type mapping errors.
type TypeErrorCode string

const (
	// ErrCodeUnsupportedBackendType indicates a backend type outside the
	// supported enumeration.
	ErrCodeUnsupportedBackendType TypeErrorCode = "UNSUPPORTED_BACKEND_TYPE"

	// ErrCodeUnsupportedUserType indicates a user-facing type or type name
	// with no backend mapping.
	ErrCodeUnsupportedUserType TypeErrorCode = "UNSUPPORTED_USER_TYPE"

	// ErrCodeUnsupportedCast indicates a cast outside the allow-list.
	ErrCodeUnsupportedCast TypeErrorCode = "UNSUPPORTED_CAST"

	// ErrCodeUnsupportedLiteral indicates a literal value that cannot be
	// coerced to a supported scalar.
	ErrCodeUnsupportedLiteral TypeErrorCode = "UNSUPPORTED_LITERAL"
)

// TypeError is raised at graph construction time for type mapping failures.
// It carries the types involved so callers can build actionable messages.
type TypeError struct {
	Code    TypeErrorCode
	Message string

	// From and To are set for cast errors.
	From string
	To   string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if e.From != "" && e.To != "" {
		return fmt.Sprintf("%s: %s (%s -> %s)", e.Code, e.Message, e.From, e.To)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnsupportedCast reports whether err is a cast allow-list violation.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedCast(err error) bool {
	var te *TypeError
	return errors.As(err, &te) && te.Code == ErrCodeUnsupportedCast
}
