package ops

import (
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// AbsOp is the absolute value operator.
type AbsOp struct{}

func (AbsOp) OpName() string { return "abs" }

func (op AbsOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	num, err := asNumeric(op.OpName(), x)
	if err != nil {
		return nil, err
	}
	return sqlexpr.NewFunc("abs", num.ExprType(), num), nil
}

// NegOp is arithmetic negation.
type NegOp struct{}

func (NegOp) OpName() string { return "neg" }

func (op NegOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	num, err := asNumeric(op.OpName(), x)
	if err != nil {
		return nil, err
	}
	return sqlexpr.NewBinary(sqlexpr.OpSub, sqlexpr.Int(0), num, num.ExprType()), nil
}

// NotOp is logical negation.
type NotOp struct{}

func (NotOp) OpName() string { return "not" }

func (op NotOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireBool(op.OpName(), x); err != nil {
		return nil, err
	}
	// x = FALSE negates with null propagation, without a dedicated NOT node.
	return sqlexpr.NewBinary(sqlexpr.OpEq, x, sqlexpr.Bool(false), sqlexpr.TypeBool), nil
}

// IsNullOp tests for null.
type IsNullOp struct{}

func (IsNullOp) OpName() string { return "isnull" }

func (IsNullOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewBinary(sqlexpr.OpIs, x, sqlexpr.Null(sqlexpr.TypeUnknown), sqlexpr.TypeBool), nil
}

// NotNullOp tests for non-null.
type NotNullOp struct{}

func (NotNullOp) OpName() string { return "notnull" }

func (NotNullOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	return sqlexpr.NewBinary(sqlexpr.OpIsNot, x, sqlexpr.Null(sqlexpr.TypeUnknown), sqlexpr.TypeBool), nil
}

// LenOp is string length.
type LenOp struct{}

func (LenOp) OpName() string { return "len" }

func (op LenOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireString(op.OpName(), x); err != nil {
		return nil, err
	}
	return sqlexpr.NewFunc("length", sqlexpr.TypeInt64, x), nil
}

// ReverseOp reverses a string.
type ReverseOp struct{}

func (ReverseOp) OpName() string { return "reverse" }

func (op ReverseOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireString(op.OpName(), x); err != nil {
		return nil, err
	}
	return sqlexpr.NewFunc("reverse", sqlexpr.TypeString, x), nil
}

// LowerOp lowercases a string.
type LowerOp struct{}

func (LowerOp) OpName() string { return "lower" }

func (op LowerOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireString(op.OpName(), x); err != nil {
		return nil, err
	}
	return sqlexpr.NewFunc("lower", sqlexpr.TypeString, x), nil
}

// UpperOp uppercases a string.
type UpperOp struct{}

func (UpperOp) OpName() string { return "upper" }

func (op UpperOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireString(op.OpName(), x); err != nil {
		return nil, err
	}
	return sqlexpr.NewFunc("upper", sqlexpr.TypeString, x), nil
}

// StripOp trims surrounding whitespace.
type StripOp struct{}

func (StripOp) OpName() string { return "strip" }

func (op StripOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireString(op.OpName(), x); err != nil {
		return nil, err
	}
	return sqlexpr.NewFunc("trim", sqlexpr.TypeString, x), nil
}

// FindOp locates a substring, returning the zero-based position of the first
// match at or after Start, or -1 when absent. A nil End searches to the end
// of the string.
type FindOp struct {
	Sub   string
	Start int
	End   *int
}

func (FindOp) OpName() string { return "find" }

func (op FindOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireString(op.OpName(), x); err != nil {
		return nil, err
	}
	haystack := x
	if op.Start > 0 || op.End != nil {
		args := []sqlexpr.Expr{x, sqlexpr.Int(int64(op.Start) + 1)}
		if op.End != nil {
			args = append(args, sqlexpr.Int(int64(*op.End-op.Start)))
		}
		haystack = sqlexpr.NewFunc("substr", sqlexpr.TypeString, args...)
	}
	pos := sqlexpr.NewFunc("instr", sqlexpr.TypeInt64, haystack, sqlexpr.Str(op.Sub))
	// instr is 1-based with 0 for no match; shift to 0-based with -1.
	return sqlexpr.NewCase(sqlexpr.TypeInt64,
		[]sqlexpr.When{{
			Cond:   sqlexpr.NewBinary(sqlexpr.OpEq, pos, sqlexpr.Int(0), sqlexpr.TypeBool),
			Result: sqlexpr.Int(-1),
		}},
		sqlexpr.NewBinary(sqlexpr.OpAdd, pos, sqlexpr.Int(int64(op.Start)-1), sqlexpr.TypeInt64),
	), nil
}

// SliceOp extracts the substring [Start, Stop). A nil Stop slices to the end.
type SliceOp struct {
	Start int
	Stop  *int
}

func (SliceOp) OpName() string { return "slice" }

func (op SliceOp) Apply(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := requireString(op.OpName(), x); err != nil {
		return nil, err
	}
	if op.Stop == nil {
		return sqlexpr.NewFunc("substr", sqlexpr.TypeString, x, sqlexpr.Int(int64(op.Start)+1)), nil
	}
	length := *op.Stop - op.Start
	if length < 0 {
		length = 0
	}
	return sqlexpr.NewFunc("substr", sqlexpr.TypeString,
		x, sqlexpr.Int(int64(op.Start)+1), sqlexpr.Int(int64(length))), nil
}
