package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlframe/internal/ops"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// testTable builds a logical table over a two-column base table, the shape
// most tests start from.
func testTable(t *testing.T) *TableExpression {
	t.Helper()
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{
		{Name: "a", Typ: sqlexpr.TypeInt64},
		{Name: "b", Typ: sqlexpr.TypeInt64},
	}}
	te, err := FromTable(nil, base)
	require.NoError(t, err)
	return te
}

func TestFromTable_ExposesEveryColumn(t *testing.T) {
	te := testTable(t)
	assert.Equal(t, []string{"a", "b"}, te.ColumnNames())
	assert.Empty(t, te.Predicates())
	assert.False(t, te.Ordering().IsTotal())

	rows, cols := te.Shape()
	assert.Equal(t, int64(-1), rows) // unknown until execution
	assert.Equal(t, 2, cols)
}

func TestNewTableExpression_RejectsDuplicateColumns(t *testing.T) {
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{{Name: "a", Typ: sqlexpr.TypeInt64}}}
	col := NewColumn("a", &sqlexpr.ColumnRef{Name: "a", Typ: sqlexpr.TypeInt64})

	_, err := NewTableExpression(nil, base, []ColumnExpression{col}, []ColumnExpression{col}, nil, ordering.Spec{})
	require.Error(t, err)

	var exprErr *ExprError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, ErrCodeDuplicateColumn, exprErr.Code)
}

func TestNewTableExpression_RejectsDanglingOrderingReference(t *testing.T) {
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{{Name: "a", Typ: sqlexpr.TypeInt64}}}
	col := NewColumn("a", &sqlexpr.ColumnRef{Name: "a", Typ: sqlexpr.TypeInt64})
	ord := ordering.Spec{TotalOrderIDColumn: "missing"}

	_, err := NewTableExpression(nil, base, []ColumnExpression{col}, nil, nil, ord)
	require.Error(t, err)

	var exprErr *ExprError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, ErrCodeDanglingOrderingReference, exprErr.Code)
}

func TestColumn_UnknownColumn(t *testing.T) {
	te := testTable(t)
	_, err := te.Column("nope")
	require.Error(t, err)
	assert.True(t, IsUnknownColumn(err))
}

func TestColumn_NormalizesLookupToNFC(t *testing.T) {
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{
		{Name: "café", Typ: sqlexpr.TypeInt64}, // precomposed
	}}
	te, err := FromTable(nil, base)
	require.NoError(t, err)

	// Decomposed form of the same identifier resolves to the same column.
	c, err := te.Column("café")
	require.NoError(t, err)
	assert.Equal(t, "café", c.ID())
}

func TestFilter_AppendsPredicateWithoutRemovingRows(t *testing.T) {
	te := testTable(t)
	te, err := te.ApplyBinary(ops.GtOp{}, ColOperand("a"), ScalarOperand(sqlexpr.Int(1)), "a_gt")
	require.NoError(t, err)

	filtered, err := te.Filter("a_gt")
	require.NoError(t, err)
	assert.Len(t, filtered.Predicates(), 1)

	// The receiver is unchanged: transformations allocate new tables.
	assert.Empty(t, te.Predicates())
}

func TestFilter_RejectsNonBooleanColumn(t *testing.T) {
	te := testTable(t)
	_, err := te.Filter("a")
	require.Error(t, err)
	assert.True(t, ops.IsTypeMismatch(err))
}

func TestProject_CarriesOrderingColumnsAsHidden(t *testing.T) {
	te := testTable(t)
	te, err := te.WithOrdering(ordering.Spec{
		OrderingValueColumns: []ordering.ColumnReference{ordering.Asc("b")},
	})
	require.NoError(t, err)

	projected, err := te.Project("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, projected.ColumnNames())

	// b is gone from the visible set but survives as hidden metadata
	// because the ordering still references it.
	require.Len(t, projected.HiddenColumns(), 1)
	assert.Equal(t, "b", projected.HiddenColumns()[0].ID())
}

func TestProject_RejectsDuplicateSelection(t *testing.T) {
	te := testTable(t)
	_, err := te.Project("a", "a")
	require.Error(t, err)

	var exprErr *ExprError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, ErrCodeDuplicateColumn, exprErr.Code)
}

func TestApplyBinary_ColumnAndScalar(t *testing.T) {
	te := testTable(t)
	te, err := te.ApplyBinary(ops.AddOp{}, ColOperand("a"), ScalarOperand(sqlexpr.Int(5)), "a_plus")
	require.NoError(t, err)

	c, err := te.Column("a_plus")
	require.NoError(t, err)

	sql, err := sqlexpr.Render(c.Expr())
	require.NoError(t, err)
	assert.Equal(t, "(a + 5)", sql)
}

func TestApplyUnary_ReplacesSameIDColumn(t *testing.T) {
	te := testTable(t)
	te, err := te.ApplyUnary(ops.AbsOp{}, "a", "a")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, te.ColumnNames())
	c, err := te.Column("a")
	require.NoError(t, err)
	sql, err := sqlexpr.Render(c.Expr())
	require.NoError(t, err)
	assert.Equal(t, "abs(a)", sql)
}

func TestApplyAggregate_GroupedSum(t *testing.T) {
	te := testTable(t)
	agg, err := te.ApplyAggregate(ops.SumOp{}, "a", "a_sum", "b")
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a_sum"}, agg.ColumnNames())
	// Aggregation derives a new relation; the old ordering cannot survive.
	assert.False(t, agg.Ordering().IsTotal())

	sql, err := agg.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, "GROUP BY b")
	assert.Contains(t, sql, "sum(a)")
}

func TestApplyAggregate_PredicatesFilterInputRows(t *testing.T) {
	te := testTable(t)
	te, err := te.ApplyBinary(ops.GtOp{}, ColOperand("a"), ScalarOperand(sqlexpr.Int(1)), "keep")
	require.NoError(t, err)
	te, err = te.Filter("keep")
	require.NoError(t, err)

	agg, err := te.ApplyAggregate(ops.SumOp{}, "a", "a_sum")
	require.NoError(t, err)
	assert.Empty(t, agg.Predicates())

	sql, err := agg.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE (a > 1)")
}

func TestApplyWindow_RequiresTotalOrder(t *testing.T) {
	te := testTable(t)
	_, err := te.ApplyWindow(ops.RankOp{}, "a", nil, "a_rank")
	require.Error(t, err)
	assert.True(t, IsOrderRequired(err))
}

func TestApplyWindow_SkipsNullsViaFilterClause(t *testing.T) {
	te := orderedTestTable(t)

	te, err := te.ApplyWindow(ops.SumOp{}, "a", &ops.Window{}, "a_cum")
	require.NoError(t, err)

	c, err := te.Column("a_cum")
	require.NoError(t, err)
	sql, err := sqlexpr.Render(c.Expr())
	require.NoError(t, err)
	assert.Contains(t, sql, "FILTER (WHERE (a IS NOT NULL))")
	assert.Contains(t, sql, "ORDER BY oid ASC NULLS FIRST")
}

func TestApplyWindow_PositionalOpsSeeNullRows(t *testing.T) {
	te := orderedTestTable(t)

	te, err := te.ApplyWindow(ops.RankOp{}, "a", &ops.Window{}, "a_rank")
	require.NoError(t, err)

	c, err := te.Column("a_rank")
	require.NoError(t, err)
	sql, err := sqlexpr.Render(c.Expr())
	require.NoError(t, err)
	assert.NotContains(t, sql, "FILTER")
}

// orderedTestTable is testTable plus a hidden total order id column.
func orderedTestTable(t *testing.T) *TableExpression {
	t.Helper()
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{
		{Name: "a", Typ: sqlexpr.TypeInt64},
		{Name: "b", Typ: sqlexpr.TypeInt64},
		{Name: "oid", Typ: sqlexpr.TypeInt64},
	}}
	visible := []ColumnExpression{
		NewColumn("a", &sqlexpr.ColumnRef{Name: "a", Typ: sqlexpr.TypeInt64}),
		NewColumn("b", &sqlexpr.ColumnRef{Name: "b", Typ: sqlexpr.TypeInt64}),
	}
	hidden := []ColumnExpression{
		NewColumn("oid", &sqlexpr.ColumnRef{Name: "oid", Typ: sqlexpr.TypeInt64}),
	}
	ord := ordering.Spec{TotalOrderIDColumn: "oid", Sequential: true}
	te, err := NewTableExpression(nil, base, visible, hidden, nil, ord)
	require.NoError(t, err)
	return te
}

func TestMaterializePredicates_DerivesFilteredRelation(t *testing.T) {
	te := testTable(t)
	te, err := te.ApplyBinary(ops.GtOp{}, ColOperand("a"), ScalarOperand(sqlexpr.Int(1)), "keep")
	require.NoError(t, err)
	te, err = te.Filter("keep")
	require.NoError(t, err)

	mat, err := te.MaterializePredicates()
	require.NoError(t, err)
	assert.Empty(t, mat.Predicates())
	assert.False(t, sqlexpr.Same(te.Relation(), mat.Relation()))

	sql, err := mat.ToSQL()
	require.NoError(t, err)
	// The filter moved into the derived relation.
	assert.Contains(t, sql, "WHERE (a > 1)")
}

func TestMaterializePredicates_NoOpWithoutPredicates(t *testing.T) {
	te := testTable(t)
	mat, err := te.MaterializePredicates()
	require.NoError(t, err)
	assert.Same(t, te, mat)
}

func TestGenerateGUID_UniqueAndPrefixed(t *testing.T) {
	a := GenerateGUID("col")
	b := GenerateGUID("col")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "col")
}
