package ops

import (
	"errors"
	"fmt"
)

// OpErrorCode categorizes operator compilation errors.
type OpErrorCode string

const (
	// ErrCodeTypeMismatch indicates an operand outside the operator's
	// declared domain (e.g. a string operator applied to an integer).
	ErrCodeTypeMismatch OpErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnsupportedOperandType indicates an operand that a numeric
	// operator could not coerce (booleans coerce to integers, nothing else
	// does).
	ErrCodeUnsupportedOperandType OpErrorCode = "UNSUPPORTED_OPERAND_TYPE"

	// ErrCodeMissingWindow indicates a window-only operator applied without
	// ordering context.
	ErrCodeMissingWindow OpErrorCode = "MISSING_WINDOW"
)

// OpError is raised at graph construction time when an operator rejects its
// operands. Op and Operand identify the operator and the offending type so
// callers can build an actionable message.
type OpError struct {
	Code    OpErrorCode
	Op      string
	Operand string
	Message string
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Operand != "" {
		return fmt.Sprintf("%s: %s: %s (operand type %s)", e.Code, e.Op, e.Message, e.Operand)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
}

// IsTypeMismatch reports whether err rejects an operand domain.
// Uses errors.As to handle wrapped errors.
func IsTypeMismatch(err error) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code == ErrCodeTypeMismatch || oe.Code == ErrCodeUnsupportedOperandType
	}
	return false
}
