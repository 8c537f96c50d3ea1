package ops

import (
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// SumOp sums a numeric column. The backend yields null when every input is
// null; the dataframe surface expects 0, so the aggregate is null-filled.
type SumOp struct{}

func (SumOp) OpName() string   { return "sum" }
func (SumOp) SkipsNulls() bool { return true }
func (SumOp) aggregateOp()     {}

func (op SumOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	num, err := asNumeric(op.OpName(), column)
	if err != nil {
		return nil, err
	}
	raw := applyWindowIfPresent(sqlexpr.NewAgg("sum", num, num.ExprType()), w)
	return sqlexpr.NewCase(num.ExprType(),
		[]sqlexpr.When{{
			Cond:   sqlexpr.NewBinary(sqlexpr.OpIs, raw, sqlexpr.Null(sqlexpr.TypeUnknown), sqlexpr.TypeBool),
			Result: sqlexpr.Int(0),
		}},
		raw,
	), nil
}

// MeanOp averages a numeric column.
type MeanOp struct{}

func (MeanOp) OpName() string   { return "mean" }
func (MeanOp) SkipsNulls() bool { return true }
func (MeanOp) aggregateOp()     {}

func (op MeanOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	num, err := asNumeric(op.OpName(), column)
	if err != nil {
		return nil, err
	}
	return applyWindowIfPresent(sqlexpr.NewAgg("avg", num, sqlexpr.TypeFloat64), w), nil
}

// ProductOp multiplies a numeric column. The backend has no product
// aggregate, so the magnitude is computed as 2^(sum of log2 |x|) and the
// sign recovered from the parity of the negative-input count. Zero inputs
// short-circuit the whole product to zero, because log2(0) is undefined in
// the generated SQL.
type ProductOp struct{}

func (ProductOp) OpName() string   { return "product" }
func (ProductOp) SkipsNulls() bool { return true }
func (ProductOp) aggregateOp()     {}

func (op ProductOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	num, err := asNumeric(op.OpName(), column)
	if err != nil {
		return nil, err
	}
	isZero := sqlexpr.NewBinary(sqlexpr.OpEq, num, sqlexpr.Int(0), sqlexpr.TypeBool)

	logs := sqlexpr.NewCase(sqlexpr.TypeFloat64,
		[]sqlexpr.When{{Cond: isZero, Result: sqlexpr.Float(0)}},
		sqlexpr.NewFunc("log2", sqlexpr.TypeFloat64,
			sqlexpr.NewFunc("abs", num.ExprType(), num)),
	)
	logsSum := applyWindowIfPresent(sqlexpr.NewAgg("sum", logs, sqlexpr.TypeFloat64), w)
	magnitude := sqlexpr.NewFunc("pow", sqlexpr.TypeFloat64, sqlexpr.Float(2), logsSum)

	// Sign is unknowable from logs of absolute values; count negatives and
	// take the parity.
	isNegative := sqlexpr.NewCase(sqlexpr.TypeInt64,
		[]sqlexpr.When{{
			Cond: sqlexpr.NewBinary(sqlexpr.OpEq,
				sqlexpr.NewFunc("sign", sqlexpr.TypeInt64, num),
				sqlexpr.Int(-1), sqlexpr.TypeBool),
			Result: sqlexpr.Int(1),
		}},
		sqlexpr.Int(0),
	)
	negativeCount := applyWindowIfPresent(sqlexpr.NewAgg("sum", isNegative, sqlexpr.TypeInt64), w)
	parity := sqlexpr.NewBinary(sqlexpr.OpMod, negativeCount, sqlexpr.Int(2), sqlexpr.TypeInt64)
	signFactor := sqlexpr.NewFunc("pow", sqlexpr.TypeFloat64, sqlexpr.Float(-1), parity)

	zeroFlags := sqlexpr.NewCase(sqlexpr.TypeInt64,
		[]sqlexpr.When{{Cond: isZero, Result: sqlexpr.Int(1)}},
		sqlexpr.Int(0),
	)
	anyZero := applyWindowIfPresent(sqlexpr.NewAgg("max", zeroFlags, sqlexpr.TypeInt64), w)

	floatResult := sqlexpr.NewCase(sqlexpr.TypeFloat64,
		[]sqlexpr.When{{
			Cond:   sqlexpr.NewBinary(sqlexpr.OpEq, anyZero, sqlexpr.Int(1), sqlexpr.TypeBool),
			Result: sqlexpr.Float(0),
		}},
		sqlexpr.NewBinary(sqlexpr.OpMul, magnitude, signFactor, sqlexpr.TypeFloat64),
	)
	return sqlexpr.NewCast(floatResult, num.ExprType()), nil
}

// MaxOp takes the maximum of any orderable column.
type MaxOp struct{}

func (MaxOp) OpName() string   { return "max" }
func (MaxOp) SkipsNulls() bool { return true }
func (MaxOp) aggregateOp()     {}

func (MaxOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	return applyWindowIfPresent(sqlexpr.NewAgg("max", column, column.ExprType()), w), nil
}

// MinOp takes the minimum of any orderable column.
type MinOp struct{}

func (MinOp) OpName() string   { return "min" }
func (MinOp) SkipsNulls() bool { return true }
func (MinOp) aggregateOp()     {}

func (MinOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	return applyWindowIfPresent(sqlexpr.NewAgg("min", column, column.ExprType()), w), nil
}

// StdOp is sample standard deviation.
type StdOp struct{}

func (StdOp) OpName() string   { return "std" }
func (StdOp) SkipsNulls() bool { return true }
func (StdOp) aggregateOp()     {}

func (op StdOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	num, err := asNumeric(op.OpName(), column)
	if err != nil {
		return nil, err
	}
	return applyWindowIfPresent(sqlexpr.NewAgg("stdev", num, sqlexpr.TypeFloat64), w), nil
}

// VarOp is sample variance.
type VarOp struct{}

func (VarOp) OpName() string   { return "var" }
func (VarOp) SkipsNulls() bool { return true }
func (VarOp) aggregateOp()     {}

func (op VarOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	num, err := asNumeric(op.OpName(), column)
	if err != nil {
		return nil, err
	}
	return applyWindowIfPresent(sqlexpr.NewAgg("variance", num, sqlexpr.TypeFloat64), w), nil
}

// CountOp counts non-null values. It must see null rows (they are what make
// count differ from size), so it never skips them before windowing.
type CountOp struct{}

func (CountOp) OpName() string   { return "count" }
func (CountOp) SkipsNulls() bool { return false }
func (CountOp) aggregateOp()     {}

func (CountOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	return applyWindowIfPresent(sqlexpr.NewAgg("count", column, sqlexpr.TypeInt64), w), nil
}

// AllOp reports whether every value in the group is truthy. The backend
// yields null for an empty or all-null group; the dataframe surface expects
// true, so the result is null-filled with TRUE.
type AllOp struct{}

func (AllOp) OpName() string   { return "all" }
func (AllOp) SkipsNulls() bool { return true }
func (AllOp) aggregateOp()     {}

func (op AllOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	return boolReduce(op.OpName(), "min", column, w)
}

// AnyOp reports whether any value in the group is truthy, with the same
// empty-group TRUE convention as AllOp.
type AnyOp struct{}

func (AnyOp) OpName() string   { return "any" }
func (AnyOp) SkipsNulls() bool { return true }
func (AnyOp) aggregateOp()     {}

func (op AnyOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	return boolReduce(op.OpName(), "max", column, w)
}

// boolReduce folds x <> 0 truth flags through min (logical and) or max
// (logical or), then fills the null empty-group result with TRUE.
func boolReduce(opName, agg string, column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	num, err := asNumeric(opName, column)
	if err != nil {
		return nil, err
	}
	truthy := sqlexpr.NewBinary(sqlexpr.OpNe, num, sqlexpr.Int(0), sqlexpr.TypeBool)
	reduced := applyWindowIfPresent(sqlexpr.NewAgg(agg, truthy, sqlexpr.TypeBool), w)
	return sqlexpr.NewFunc("coalesce", sqlexpr.TypeBool, reduced, sqlexpr.Bool(true)), nil
}

// RankOp assigns competition ranks ordered by the input column itself when
// the window carries no ordering. Null rows are ranked too.
type RankOp struct{}

func (RankOp) OpName() string   { return "rank" }
func (RankOp) SkipsNulls() bool { return false }

func (RankOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	fn := sqlexpr.NewFunc("rank", sqlexpr.TypeInt64)
	fallback := []sqlexpr.OrderKey{{Expr: column}}
	return overWindow(fn, w, fallback), nil
}

// FirstOp takes the first value of the window.
type FirstOp struct{}

func (FirstOp) OpName() string   { return "first" }
func (FirstOp) SkipsNulls() bool { return false }

func (FirstOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	fn := sqlexpr.NewFunc("first_value", column.ExprType(), column)
	fallback := []sqlexpr.OrderKey{{Expr: column}}
	return overWindow(fn, w, fallback), nil
}

// ShiftOp moves values down (positive periods) or up (negative periods)
// within the window's order. A zero shift is a structural no-op: the input
// column is returned unchanged rather than wrapped in a degenerate window.
type ShiftOp struct {
	Periods int
}

func (ShiftOp) OpName() string   { return "shift" }
func (ShiftOp) SkipsNulls() bool { return false }

func (op ShiftOp) Apply(column sqlexpr.Expr, w *Window) (sqlexpr.Expr, error) {
	if op.Periods == 0 {
		return column, nil
	}
	if w == nil || len(w.Ordering) == 0 {
		return nil, &OpError{
			Code:    ErrCodeMissingWindow,
			Op:      op.OpName(),
			Message: "shift requires a window with an ordering",
		}
	}
	name := "lag"
	periods := int64(op.Periods)
	if op.Periods < 0 {
		name = "lead"
		periods = -periods
	}
	fn := sqlexpr.NewFunc(name, column.ExprType(), column, sqlexpr.Int(periods))
	// Frame clauses do not apply to navigation functions.
	shifted := &sqlexpr.Window{Fn: fn, PartitionBy: w.GroupingKeys, OrderBy: w.Ordering}
	return shifted, nil
}
