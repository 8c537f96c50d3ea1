package ops

import (
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// WhereOp keeps the original value where the condition holds and takes the
// replacement elsewhere.
type WhereOp struct{}

func (WhereOp) OpName() string { return "where" }

func (op WhereOp) Apply(original, condition, replacement sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireBool(op.OpName(), condition); err != nil {
		return nil, err
	}
	return sqlexpr.NewCase(original.ExprType(),
		[]sqlexpr.When{{Cond: condition, Result: original}},
		replacement,
	), nil
}

// ClipOp bounds a value between lower and upper. A null scalar bound means
// unbounded on that side; when both bounds are null scalars the input passes
// through structurally unchanged. Requires lower <= upper; bounds are not
// reordered.
type ClipOp struct{}

func (ClipOp) OpName() string { return "clip" }

func (op ClipOp) Apply(original, lower, upper sqlexpr.Expr) (sqlexpr.Expr, error) {
	lowerUnbounded := isNullLiteral(lower)
	upperUnbounded := isNullLiteral(upper)
	typ := original.ExprType()

	switch {
	case lowerUnbounded && upperUnbounded:
		return original, nil
	case lowerUnbounded:
		return sqlexpr.NewCase(typ,
			[]sqlexpr.When{{Cond: boundExceeded(original, upper, sqlexpr.OpGt), Result: upper}},
			original,
		), nil
	case upperUnbounded:
		return sqlexpr.NewCase(typ,
			[]sqlexpr.When{{Cond: boundExceeded(original, lower, sqlexpr.OpLt), Result: lower}},
			original,
		), nil
	default:
		return sqlexpr.NewCase(typ,
			[]sqlexpr.When{
				{Cond: boundExceeded(original, lower, sqlexpr.OpLt), Result: lower},
				{Cond: boundExceeded(original, upper, sqlexpr.OpGt), Result: upper},
			},
			original,
		), nil
	}
}

// boundExceeded is true when the bound column is null or the value crosses
// it, matching how a null element inside a bound column clips to null.
func boundExceeded(value, bound sqlexpr.Expr, cmp sqlexpr.BinaryOperator) sqlexpr.Expr {
	return sqlexpr.NewBinary(sqlexpr.OpOr,
		sqlexpr.NewBinary(sqlexpr.OpIs, bound, sqlexpr.Null(sqlexpr.TypeUnknown), sqlexpr.TypeBool),
		sqlexpr.NewBinary(cmp, value, bound, sqlexpr.TypeBool),
		sqlexpr.TypeBool)
}
