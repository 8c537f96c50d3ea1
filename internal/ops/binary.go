package ops

import (
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// AndOp is logical conjunction.
type AndOp struct{}

func (AndOp) OpName() string { return "and" }

func (op AndOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireBool(op.OpName(), x); err != nil {
		return nil, err
	}
	if err := requireBool(op.OpName(), y); err != nil {
		return nil, err
	}
	return sqlexpr.NewBinary(sqlexpr.OpAnd, x, y, sqlexpr.TypeBool), nil
}

// OrOp is logical disjunction.
type OrOp struct{}

func (OrOp) OpName() string { return "or" }

func (op OrOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireBool(op.OpName(), x); err != nil {
		return nil, err
	}
	if err := requireBool(op.OpName(), y); err != nil {
		return nil, err
	}
	return sqlexpr.NewBinary(sqlexpr.OpOr, x, y, sqlexpr.TypeBool), nil
}

// AddOp is addition.
type AddOp struct{}

func (AddOp) OpName() string { return "add" }

func (op AddOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return arith(op.OpName(), sqlexpr.OpAdd, x, y)
}

// SubOp is subtraction.
type SubOp struct{}

func (SubOp) OpName() string { return "sub" }

func (op SubOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return arith(op.OpName(), sqlexpr.OpSub, x, y)
}

// MulOp is multiplication.
type MulOp struct{}

func (MulOp) OpName() string { return "mul" }

func (op MulOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return arith(op.OpName(), sqlexpr.OpMul, x, y)
}

// DivOp is true division; the result is always floating point.
type DivOp struct{}

func (DivOp) OpName() string { return "div" }

func (op DivOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	xn, err := asNumeric(op.OpName(), x)
	if err != nil {
		return nil, err
	}
	yn, err := asNumeric(op.OpName(), y)
	if err != nil {
		return nil, err
	}
	return sqlexpr.NewBinary(sqlexpr.OpDiv,
		sqlexpr.NewCast(xn, sqlexpr.TypeFloat64), yn, sqlexpr.TypeFloat64), nil
}

func arith(name string, tok sqlexpr.BinaryOperator, x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	xn, err := asNumeric(name, x)
	if err != nil {
		return nil, err
	}
	yn, err := asNumeric(name, y)
	if err != nil {
		return nil, err
	}
	return sqlexpr.NewBinary(tok, xn, yn, numericResultType(xn, yn)), nil
}

// Comparison operators. Operands are compared as-is; the backend's
// comparison rules apply, so mismatched domains surface there.

// LtOp is the less-than comparison.
type LtOp struct{}

func (LtOp) OpName() string { return "lt" }

func (LtOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewBinary(sqlexpr.OpLt, x, y, sqlexpr.TypeBool), nil
}

// LeOp is the less-or-equal comparison.
type LeOp struct{}

func (LeOp) OpName() string { return "le" }

func (LeOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewBinary(sqlexpr.OpLe, x, y, sqlexpr.TypeBool), nil
}

// GtOp is the greater-than comparison.
type GtOp struct{}

func (GtOp) OpName() string { return "gt" }

func (GtOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewBinary(sqlexpr.OpGt, x, y, sqlexpr.TypeBool), nil
}

// GeOp is the greater-or-equal comparison.
type GeOp struct{}

func (GeOp) OpName() string { return "ge" }

func (GeOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewBinary(sqlexpr.OpGe, x, y, sqlexpr.TypeBool), nil
}

// EqOp is the equality comparison.
type EqOp struct{}

func (EqOp) OpName() string { return "eq" }

func (EqOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewBinary(sqlexpr.OpEq, x, y, sqlexpr.TypeBool), nil
}

// NeOp is the inequality comparison.
type NeOp struct{}

func (NeOp) OpName() string { return "ne" }

func (NeOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewBinary(sqlexpr.OpNe, x, y, sqlexpr.TypeBool), nil
}

// FloorDivOp is floor division. Division by zero does not raise: the zero
// divisor branch yields 0 * x, which is zero for non-null dividends and null
// for null ones.
type FloorDivOp struct{}

func (FloorDivOp) OpName() string { return "floordiv" }

func (op FloorDivOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	xn, err := asNumeric(op.OpName(), x)
	if err != nil {
		return nil, err
	}
	yn, err := asNumeric(op.OpName(), y)
	if err != nil {
		return nil, err
	}
	resultType := numericResultType(xn, yn)
	// Integer division in the backend truncates toward zero; route through
	// floating point and floor to get floored division for negatives too.
	floatDiv := sqlexpr.NewBinary(sqlexpr.OpDiv,
		sqlexpr.NewCast(xn, sqlexpr.TypeFloat64), yn, sqlexpr.TypeFloat64)
	var floored sqlexpr.Expr = sqlexpr.NewFunc("floor", sqlexpr.TypeFloat64, floatDiv)
	if resultType != sqlexpr.TypeFloat64 {
		floored = sqlexpr.NewCast(floored, resultType)
	}
	return sqlexpr.NewCase(resultType,
		[]sqlexpr.When{{
			Cond:   sqlexpr.NewBinary(sqlexpr.OpEq, yn, sqlexpr.Int(0), sqlexpr.TypeBool),
			Result: zeroTimes(xn),
		}},
		floored,
	), nil
}

// ModOp is modulo with the divisor's sign, as the dataframe surface defines
// it. The backend keeps the dividend's sign, so results are flipped whenever
// divisor and raw remainder disagree in sign. A zero divisor yields 0 * x
// rather than an error.
type ModOp struct{}

func (ModOp) OpName() string { return "mod" }

func (op ModOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	xn, err := asNumeric(op.OpName(), x)
	if err != nil {
		return nil, err
	}
	yn, err := asNumeric(op.OpName(), y)
	if err != nil {
		return nil, err
	}
	// A literal zero divisor never reaches the backend at all.
	if lit, ok := yn.(*sqlexpr.Literal); ok {
		if lit.Val == int64(0) || lit.Val == float64(0) {
			return zeroTimes(xn), nil
		}
	}

	resultType := numericResultType(xn, yn)
	rawMod := sqlexpr.NewBinary(sqlexpr.OpMod, xn, yn, resultType)
	zero := sqlexpr.Int(0)
	return sqlexpr.NewCase(resultType,
		[]sqlexpr.When{
			{
				Cond:   sqlexpr.NewBinary(sqlexpr.OpEq, yn, zero, sqlexpr.TypeBool),
				Result: zeroTimes(xn),
			},
			{
				// Negative divisor, positive remainder: shift down.
				Cond: sqlexpr.NewBinary(sqlexpr.OpAnd,
					sqlexpr.NewBinary(sqlexpr.OpLt, yn, zero, sqlexpr.TypeBool),
					sqlexpr.NewBinary(sqlexpr.OpGt, rawMod, zero, sqlexpr.TypeBool),
					sqlexpr.TypeBool),
				Result: sqlexpr.NewBinary(sqlexpr.OpAdd, yn, rawMod, resultType),
			},
			{
				// Positive divisor, negative remainder: shift up.
				Cond: sqlexpr.NewBinary(sqlexpr.OpAnd,
					sqlexpr.NewBinary(sqlexpr.OpGt, yn, zero, sqlexpr.TypeBool),
					sqlexpr.NewBinary(sqlexpr.OpLt, rawMod, zero, sqlexpr.TypeBool),
					sqlexpr.TypeBool),
				Result: sqlexpr.NewBinary(sqlexpr.OpAdd, yn, rawMod, resultType),
			},
		},
		rawMod,
	), nil
}

// FillNaOp replaces nulls in x with y.
type FillNaOp struct{}

func (FillNaOp) OpName() string { return "fillna" }

func (FillNaOp) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewFunc("coalesce", x.ExprType(), x, y), nil
}

// Reversed swaps the operands of a binary operator (the "r" variants of the
// dataframe surface: radd, rsub, ...).
type Reversed struct {
	Op BinaryOp
}

func (r Reversed) OpName() string { return "r" + r.Op.OpName() }

func (r Reversed) Apply(x, y sqlexpr.Expr) (sqlexpr.Expr, error) {
	return r.Op.Apply(y, x)
}
