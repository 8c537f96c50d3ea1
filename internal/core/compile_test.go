package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlframe/internal/ops"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

func TestToSQL_UnorderedTable(t *testing.T) {
	te := testTable(t)
	sql, err := te.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a AS a, b AS b FROM t", sql)
}

func TestToSQL_PredicatesBecomeWhereClause(t *testing.T) {
	te := testTable(t)
	te, err := te.ApplyBinary(ops.GtOp{}, ColOperand("a"), ScalarOperand(sqlexpr.Int(1)), "keep")
	require.NoError(t, err)
	te, err = te.Filter("keep")
	require.NoError(t, err)
	projected, err := te.Project("a", "b")
	require.NoError(t, err)

	sql, err := projected.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a AS a, b AS b FROM t WHERE (a > 1)", sql)
}

func TestToSQL_ValueOrderingWithoutTotalOrder(t *testing.T) {
	te := testTable(t)
	te, err := te.WithOrdering(ordering.Spec{
		OrderingValueColumns: []ordering.ColumnReference{ordering.Desc("b")},
	})
	require.NoError(t, err)

	sql, err := te.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a AS a, b AS b FROM t ORDER BY b DESC NULLS LAST", sql)
}

func TestToSQL_TotalOrderAppendsTiebreaker(t *testing.T) {
	te := orderedTestTable(t)
	te, err := te.WithOrdering(te.Ordering().WithOrderingColumns(
		[]ordering.ColumnReference{ordering.Asc("b")},
	))
	require.NoError(t, err)

	sql, err := te.ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT a AS a, b AS b FROM t ORDER BY b ASC NULLS FIRST, oid ASC NULLS FIRST",
		sql)
}

func TestToSQL_Deterministic(t *testing.T) {
	build := func() string {
		te := testTable(t)
		te, err := te.ApplyBinary(ops.MulOp{}, ColOperand("a"), ColOperand("b"), "ab")
		require.NoError(t, err)
		sql, err := te.ToSQL()
		require.NoError(t, err)
		return sql
	}
	assert.Equal(t, build(), build())
}

func TestOrderedRelation_RequiresTotalOrder(t *testing.T) {
	te := testTable(t)
	_, err := te.OrderedRelation("lhs", "oid")
	require.Error(t, err)
	assert.True(t, IsOrderRequired(err))
}

func TestOrderedRelation_ExposesOrderColumn(t *testing.T) {
	te := orderedTestTable(t)
	sel, err := te.OrderedRelation("lhs", "sf_order")
	require.NoError(t, err)

	sql, err := sqlexpr.RenderRelation(sel)
	require.NoError(t, err)
	assert.Contains(t, sql, "oid AS sf_order")
	assert.Equal(t, "lhs", sel.Alias)
}

func TestSnapshotRelation_AppliesPredicates(t *testing.T) {
	te := testTable(t)
	te, err := te.ApplyBinary(ops.GtOp{}, ColOperand("a"), ScalarOperand(sqlexpr.Int(1)), "keep")
	require.NoError(t, err)
	te, err = te.Filter("keep")
	require.NoError(t, err)

	sql, err := sqlexpr.RenderRelation(te.SnapshotRelation())
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE (a > 1)")
}
