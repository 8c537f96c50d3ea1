package ops

import (
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// UnaryOp compiles a single operand into a new column expression.
type UnaryOp interface {
	OpName() string
	Apply(x sqlexpr.Expr) (sqlexpr.Expr, error)
}

// BinaryOp compiles two operands into a new column expression.
type BinaryOp interface {
	OpName() string
	Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error)
}

// TernaryOp compiles three operands into a new column expression.
type TernaryOp interface {
	OpName() string
	Apply(x, y, z sqlexpr.Expr) (sqlexpr.Expr, error)
}

// Window carries the windowing context for aggregate and window operators:
// grouping keys, ordering within each group, and optional frame bounds.
// A nil *Window means a plain (whole-input) aggregate.
type Window struct {
	GroupingKeys []sqlexpr.Expr
	Ordering     []sqlexpr.OrderKey
	Frame        *sqlexpr.Frame

	// Filter excludes rows before the window function applies. Set by the
	// caller from the operator's SkipsNulls flag; aggregate functions only.
	Filter sqlexpr.Expr
}

// WindowOp compiles an input column plus optional window into a column
// expression.
//
// SkipsNulls governs whether null input rows are excluded before the window
// function applies: most aggregates skip them, while rank, shift, first and
// cumulative positional operators must see every row.
type WindowOp interface {
	OpName() string
	Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error)
	SkipsNulls() bool
}

// AggregateOp is a WindowOp that is also meaningful as a plain aggregate
// with no window at all.
type AggregateOp interface {
	WindowOp
	aggregateOp() // Marker method - seals plain-aggregate capability
}

// applyWindowIfPresent wraps a raw aggregate call in an OVER clause when a
// window is given. Scalar post-processing (null fills, sign fixes) must wrap
// the result of this call, never the bare aggregate.
func applyWindowIfPresent(inner sqlexpr.Expr, w *Window) sqlexpr.Expr {
	if w == nil {
		return inner
	}
	return &sqlexpr.Window{
		Fn:          inner,
		Filter:      w.Filter,
		PartitionBy: w.GroupingKeys,
		OrderBy:     w.Ordering,
		Frame:       w.Frame,
	}
}

// overWindow wraps a window-only function (rank, lag, ...) in an OVER
// clause. Unlike applyWindowIfPresent it emits the clause even for a nil
// window, with the given fallback ordering.
func overWindow(fn sqlexpr.Expr, w *Window, fallbackOrder []sqlexpr.OrderKey) sqlexpr.Expr {
	win := &sqlexpr.Window{Fn: fn}
	if w != nil {
		win.PartitionBy = w.GroupingKeys
		win.OrderBy = w.Ordering
		win.Frame = w.Frame
	}
	if len(win.OrderBy) == 0 {
		win.OrderBy = fallbackOrder
	}
	return win
}

// asNumeric coerces an operand for a numeric operator. Booleans cast to
// integers; every other non-numeric type is rejected.
func asNumeric(opName string, x sqlexpr.Expr) (sqlexpr.Expr, error) {
	t := x.ExprType()
	if t == sqlexpr.TypeBool {
		return sqlexpr.NewCast(x, sqlexpr.TypeInt64), nil
	}
	if t.IsNumeric() {
		return x, nil
	}
	return nil, &OpError{
		Code:    ErrCodeUnsupportedOperandType,
		Op:      opName,
		Operand: t.String(),
		Message: "numeric operation cannot be applied to this type",
	}
}

// requireString rejects non-string operands of string-only operators.
func requireString(opName string, x sqlexpr.Expr) error {
	if x.ExprType() != sqlexpr.TypeString {
		return &OpError{
			Code:    ErrCodeTypeMismatch,
			Op:      opName,
			Operand: x.ExprType().String(),
			Message: "string operation cannot be applied to this type",
		}
	}
	return nil
}

// requireBool rejects non-boolean operands of logical operators.
func requireBool(opName string, x sqlexpr.Expr) error {
	if x.ExprType() != sqlexpr.TypeBool {
		return &OpError{
			Code:    ErrCodeTypeMismatch,
			Op:      opName,
			Operand: x.ExprType().String(),
			Message: "logical operation requires boolean operands",
		}
	}
	return nil
}

// numericResultType picks the widened result type of binary arithmetic.
func numericResultType(x, y sqlexpr.Expr) sqlexpr.Type {
	if x.ExprType() == sqlexpr.TypeFloat64 || y.ExprType() == sqlexpr.TypeFloat64 {
		return sqlexpr.TypeFloat64
	}
	if x.ExprType() == sqlexpr.TypeNumeric || y.ExprType() == sqlexpr.TypeNumeric {
		return sqlexpr.TypeNumeric
	}
	return sqlexpr.TypeInt64
}

// zeroTimes builds the 0 * x dummy term used by the zero-divisor paths: it
// evaluates to zero for non-null x and to null when x is null, keeping the
// result's nullity tied to the dividend.
func zeroTimes(x sqlexpr.Expr) sqlexpr.Expr {
	return sqlexpr.NewBinary(sqlexpr.OpMul, sqlexpr.Int(0), x, x.ExprType())
}

// isNullLiteral reports whether an operand is a typed or untyped NULL
// scalar, which the ternary operators treat as "bound absent".
func isNullLiteral(e sqlexpr.Expr) bool {
	lit, ok := e.(*sqlexpr.Literal)
	return ok && lit.Val == nil
}
