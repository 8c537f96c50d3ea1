package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlframe/internal/sqlexpr"
)

func floatCol(name string) sqlexpr.Expr {
	return &sqlexpr.ColumnRef{Name: name, Typ: sqlexpr.TypeFloat64}
}

func TestArithmeticOps(t *testing.T) {
	cases := []struct {
		op   BinaryOp
		want string
	}{
		{AddOp{}, "(a + b)"},
		{SubOp{}, "(a - b)"},
		{MulOp{}, "(a * b)"},
	}
	for _, tc := range cases {
		t.Run(tc.op.OpName(), func(t *testing.T) {
			got, err := tc.op.Apply(intCol("a"), intCol("b"))
			require.NoError(t, err)
			assert.Equal(t, tc.want, renderSQL(t, got))
			assert.Equal(t, sqlexpr.TypeInt64, got.ExprType())
		})
	}
}

func TestArithmetic_WidensToFloat(t *testing.T) {
	got, err := AddOp{}.Apply(intCol("a"), floatCol("f"))
	require.NoError(t, err)
	assert.Equal(t, sqlexpr.TypeFloat64, got.ExprType())
}

func TestArithmetic_CoercesBool(t *testing.T) {
	got, err := AddOp{}.Apply(boolCol("flag"), intCol("b"))
	require.NoError(t, err)
	assert.Equal(t, "(CAST(flag AS INTEGER) + b)", renderSQL(t, got))
}

func TestArithmetic_RejectsString(t *testing.T) {
	_, err := AddOp{}.Apply(strCol("s"), intCol("a"))
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}

func TestDivOp_AlwaysFloat(t *testing.T) {
	got, err := DivOp{}.Apply(intCol("a"), intCol("b"))
	require.NoError(t, err)
	assert.Equal(t, "(CAST(a AS REAL) / b)", renderSQL(t, got))
	assert.Equal(t, sqlexpr.TypeFloat64, got.ExprType())
}

func TestLogicalOps(t *testing.T) {
	got, err := AndOp{}.Apply(boolCol("p"), boolCol("q"))
	require.NoError(t, err)
	assert.Equal(t, "(p AND q)", renderSQL(t, got))

	got, err = OrOp{}.Apply(boolCol("p"), boolCol("q"))
	require.NoError(t, err)
	assert.Equal(t, "(p OR q)", renderSQL(t, got))

	_, err = AndOp{}.Apply(intCol("a"), boolCol("q"))
	assert.True(t, IsTypeMismatch(err))
}

func TestComparisonOps(t *testing.T) {
	cases := []struct {
		op   BinaryOp
		want string
	}{
		{LtOp{}, "(a < b)"},
		{LeOp{}, "(a <= b)"},
		{GtOp{}, "(a > b)"},
		{GeOp{}, "(a >= b)"},
		{EqOp{}, "(a = b)"},
		{NeOp{}, "(a <> b)"},
	}
	for _, tc := range cases {
		t.Run(tc.op.OpName(), func(t *testing.T) {
			got, err := tc.op.Apply(intCol("a"), intCol("b"))
			require.NoError(t, err)
			assert.Equal(t, tc.want, renderSQL(t, got))
			assert.Equal(t, sqlexpr.TypeBool, got.ExprType())
		})
	}
}

func TestFloorDivOp_ZeroDivisorYieldsDummy(t *testing.T) {
	got, err := FloorDivOp{}.Apply(intCol("a"), intCol("b"))
	require.NoError(t, err)
	assert.Equal(t,
		"CASE WHEN (b = 0) THEN (0 * a) ELSE CAST(floor((CAST(a AS REAL) / b)) AS INTEGER) END",
		renderSQL(t, got))
}

func TestFloorDivOp_FloatResultSkipsCast(t *testing.T) {
	got, err := FloorDivOp{}.Apply(floatCol("a"), intCol("b"))
	require.NoError(t, err)
	assert.Equal(t,
		"CASE WHEN (b = 0) THEN (0 * a) ELSE floor((CAST(a AS REAL) / b)) END",
		renderSQL(t, got))
}

func TestModOp_LiteralZeroDivisorShortCircuits(t *testing.T) {
	got, err := ModOp{}.Apply(intCol("a"), sqlexpr.Int(0))
	require.NoError(t, err)
	// Never reaches the backend's % operator at all.
	assert.Equal(t, "(0 * a)", renderSQL(t, got))
}

func TestModOp_SignCorrection(t *testing.T) {
	got, err := ModOp{}.Apply(intCol("a"), intCol("b"))
	require.NoError(t, err)

	sql := renderSQL(t, got)
	// Zero-divisor guard comes first, then both sign-disagreement branches
	// shift the raw remainder by the divisor.
	assert.Contains(t, sql, "WHEN (b = 0) THEN (0 * a)")
	assert.Contains(t, sql, "WHEN ((b < 0) AND ((a % b) > 0)) THEN (b + (a % b))")
	assert.Contains(t, sql, "WHEN ((b > 0) AND ((a % b) < 0)) THEN (b + (a % b))")
	assert.Contains(t, sql, "ELSE (a % b) END")
}

func TestFillNaOp(t *testing.T) {
	got, err := FillNaOp{}.Apply(intCol("a"), sqlexpr.Int(0))
	require.NoError(t, err)
	assert.Equal(t, "coalesce(a, 0)", renderSQL(t, got))
}

func TestReversed_SwapsOperands(t *testing.T) {
	op := Reversed{Op: SubOp{}}
	assert.Equal(t, "rsub", op.OpName())

	got, err := op.Apply(intCol("a"), intCol("b"))
	require.NoError(t, err)
	assert.Equal(t, "(b - a)", renderSQL(t, got))
}
