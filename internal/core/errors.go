package core

import (
	"errors"
	"fmt"
)

// ExprErrorCode categorizes logical table construction errors.
type ExprErrorCode string

const (
	// ErrCodeUnknownColumn indicates a reference to a column id the table
	// does not contain.
	ErrCodeUnknownColumn ExprErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeDanglingOrderingReference indicates an ordering spec that
	// references a dropped column.
	ErrCodeDanglingOrderingReference ExprErrorCode = "DANGLING_ORDERING_REFERENCE"

	// ErrCodeDuplicateColumn indicates two columns sharing one id.
	ErrCodeDuplicateColumn ExprErrorCode = "DUPLICATE_COLUMN"

	// ErrCodeOrderRequired indicates a row-positional operation on a table
	// with no total order.
	ErrCodeOrderRequired ExprErrorCode = "ORDER_REQUIRED"
)

// ExprError is raised at graph construction time. Column carries the
// offending column id so callers can build an actionable message.
type ExprError struct {
	Code    ExprErrorCode
	Column  string
	Message string
}

// Error implements the error interface.
func (e *ExprError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s (column=%s)", e.Code, e.Message, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownColumn reports whether err is an unknown column reference.
// Uses errors.As to handle wrapped errors.
func IsUnknownColumn(err error) bool {
	var ee *ExprError
	return errors.As(err, &ee) && ee.Code == ErrCodeUnknownColumn
}

// IsOrderRequired reports whether err rejects a row-positional operation
// for lack of a total order.
func IsOrderRequired(err error) bool {
	var ee *ExprError
	return errors.As(err, &ee) && ee.Code == ErrCodeOrderRequired
}

func unknownColumn(id string) *ExprError {
	return &ExprError{
		Code:    ErrCodeUnknownColumn,
		Column:  id,
		Message: "column is not present in this table expression",
	}
}
