package core

import (
	"github.com/roach88/sqlframe/internal/dtypes"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// ColumnExpression is a typed, named computation over zero or more backend
// columns. Immutable; produced by the operator library or by direct column
// reference.
type ColumnExpression struct {
	id   string
	expr sqlexpr.Expr
}

// NewColumn wraps a backend expression under a (NFC-normalized) column id.
func NewColumn(id string, expr sqlexpr.Expr) ColumnExpression {
	return ColumnExpression{id: CanonicalID(id), expr: expr}
}

// ID returns the column's generated name, unique within its owning table.
func (c ColumnExpression) ID() string { return c.id }

// Expr returns the opaque backend expression payload.
func (c ColumnExpression) Expr() sqlexpr.Expr { return c.expr }

// BackendType returns the backend type of the expression.
func (c ColumnExpression) BackendType() sqlexpr.Type { return c.expr.ExprType() }

// DType returns the user-facing type of the column.
func (c ColumnExpression) DType() (dtypes.UserType, error) {
	return dtypes.ToUserType(c.expr.ExprType())
}

// WithID returns the same computation under a different id.
func (c ColumnExpression) WithID(id string) ColumnExpression {
	return ColumnExpression{id: CanonicalID(id), expr: c.expr}
}

// Ref returns a reference to this column as materialized output, typed the
// same as the computation. Used when a derived relation replaces the
// column's defining expression.
func (c ColumnExpression) Ref() ColumnExpression {
	return ColumnExpression{
		id:   c.id,
		expr: &sqlexpr.ColumnRef{Name: c.id, Typ: c.expr.ExprType()},
	}
}
