package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlframe/internal/core"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

func baseTable(t *testing.T) *core.TableExpression {
	t.Helper()
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{
		{Name: "a", Typ: sqlexpr.TypeInt64},
		{Name: "b", Typ: sqlexpr.TypeInt64},
	}}
	te, err := core.FromTable(nil, base)
	require.NoError(t, err)
	return te
}

// predicate builds a comparison over one of the table's columns.
func predicate(t *testing.T, te *core.TableExpression, col string, op sqlexpr.BinaryOperator, lit int64) sqlexpr.Expr {
	t.Helper()
	c, err := te.Column(col)
	require.NoError(t, err)
	return sqlexpr.NewBinary(op, c.Expr(), sqlexpr.Int(lit), sqlexpr.TypeBool)
}

func filtered(t *testing.T, te *core.TableExpression, preds ...sqlexpr.Expr) *core.TableExpression {
	t.Helper()
	var err error
	for _, p := range preds {
		te, err = te.FilterExpr(p)
		require.NoError(t, err)
	}
	return te
}

func renderColumn(t *testing.T, te *core.TableExpression, id string) string {
	t.Helper()
	c, err := te.AnyColumn(id)
	require.NoError(t, err)
	sql, err := sqlexpr.Render(c.Expr())
	require.NoError(t, err)
	return sql
}

func TestByRowIdentity_RejectsDifferentRelations(t *testing.T) {
	left := baseTable(t)
	right := baseTable(t)

	_, _, _, err := ByRowIdentity(left, right, HowInner)
	require.Error(t, err)
	assert.True(t, IsAmbiguous(err))
}

func TestByRowIdentity_RejectsRightMode(t *testing.T) {
	te := baseTable(t)
	_, _, _, err := ByRowIdentity(te, te, HowRight)
	require.Error(t, err)

	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, ErrCodeUnsupportedJoinMode, je.Code)
}

func TestByRowIdentity_SuffixesColumns(t *testing.T) {
	te := baseTable(t)
	result, getLeft, getRight, err := ByRowIdentity(te, te, HowInner)
	require.NoError(t, err)

	assert.Equal(t, []string{"a_x", "b_x", "a_y", "b_y"}, result.ColumnNames())

	lc, err := getLeft("a")
	require.NoError(t, err)
	assert.Equal(t, "a_x", lc.ID())
	rc, err := getRight("a")
	require.NoError(t, err)
	assert.Equal(t, "a_y", rc.ID())
}

func TestByRowIdentity_SharesRelation(t *testing.T) {
	te := baseTable(t)
	result, _, _, err := ByRowIdentity(te, te, HowInner)
	require.NoError(t, err)
	assert.True(t, sqlexpr.Same(te.Relation(), result.Relation()))
}

func TestByRowIdentity_InnerIntersectsPredicates(t *testing.T) {
	te := baseTable(t)
	p1 := predicate(t, te, "a", sqlexpr.OpGt, 1)
	p2 := predicate(t, te, "b", sqlexpr.OpLt, 25)
	left := filtered(t, te, p1)
	right := filtered(t, te, p2)

	result, _, _, err := ByRowIdentity(left, right, HowInner)
	require.NoError(t, err)

	preds := result.Predicates()
	require.Len(t, preds, 2)
	got := make([]string, len(preds))
	for i, p := range preds {
		sql, err := sqlexpr.Render(p)
		require.NoError(t, err)
		got[i] = sql
	}
	assert.Equal(t, []string{"(a > 1)", "(b < 25)"}, got)

	// No row is missing from either side of an inner result, so no column
	// is masked.
	assert.Equal(t, "a", renderColumn(t, result, "a_x"))
	assert.Equal(t, "a", renderColumn(t, result, "a_y"))
}

func TestByRowIdentity_LeftKeepsLeftView(t *testing.T) {
	te := baseTable(t)
	p1 := predicate(t, te, "a", sqlexpr.OpGt, 1)
	p2 := predicate(t, te, "b", sqlexpr.OpLt, 25)
	left := filtered(t, te, p1)
	right := filtered(t, te, p2)

	result, _, _, err := ByRowIdentity(left, right, HowLeft)
	require.NoError(t, err)

	preds := result.Predicates()
	require.Len(t, preds, 1)
	sql, err := sqlexpr.Render(preds[0])
	require.NoError(t, err)
	assert.Equal(t, "(a > 1)", sql)

	// Left columns come through untouched; right columns go null where the
	// right side's own predicate fails.
	assert.Equal(t, "a", renderColumn(t, result, "a_x"))
	assert.Equal(t,
		"CASE WHEN (b < 25) THEN a ELSE CAST(NULL AS INTEGER) END",
		renderColumn(t, result, "a_y"))
}

func TestByRowIdentity_OuterUnionsPredicates(t *testing.T) {
	te := baseTable(t)
	p1 := predicate(t, te, "a", sqlexpr.OpGt, 1)
	p2 := predicate(t, te, "b", sqlexpr.OpLt, 25)
	left := filtered(t, te, p1)
	right := filtered(t, te, p2)

	result, _, _, err := ByRowIdentity(left, right, HowOuter)
	require.NoError(t, err)

	preds := result.Predicates()
	require.Len(t, preds, 1)
	sql, err := sqlexpr.Render(preds[0])
	require.NoError(t, err)
	assert.Equal(t, "((a > 1) OR (b < 25))", sql)

	// Both sides mask with their own predicate.
	assert.Equal(t,
		"CASE WHEN (a > 1) THEN a ELSE CAST(NULL AS INTEGER) END",
		renderColumn(t, result, "a_x"))
	assert.Equal(t,
		"CASE WHEN (b < 25) THEN a ELSE CAST(NULL AS INTEGER) END",
		renderColumn(t, result, "a_y"))
}

func TestByRowIdentity_OuterWithOneUnfilteredSideKeepsAllRows(t *testing.T) {
	te := baseTable(t)
	p2 := predicate(t, te, "b", sqlexpr.OpLt, 25)
	right := filtered(t, te, p2)

	result, _, _, err := ByRowIdentity(te, right, HowOuter)
	require.NoError(t, err)

	// The unfiltered left side already covers every row.
	assert.Empty(t, result.Predicates())
	assert.Equal(t, "a", renderColumn(t, result, "a_x"))
	assert.Equal(t,
		"CASE WHEN (b < 25) THEN a ELSE CAST(NULL AS INTEGER) END",
		renderColumn(t, result, "a_y"))
}

func TestByRowIdentity_SharedPredicateDoesNotMask(t *testing.T) {
	te := baseTable(t)
	p1 := predicate(t, te, "a", sqlexpr.OpGt, 1)
	p2 := predicate(t, te, "b", sqlexpr.OpLt, 25)
	left := filtered(t, te, p1, p2)
	right := filtered(t, te, p2)

	result, _, _, err := ByRowIdentity(left, right, HowOuter)
	require.NoError(t, err)

	// p2 holds on both sides: only p1 distinguishes them, so the right
	// side never lacks a row the left side has beyond p1.
	assert.Equal(t,
		"CASE WHEN (a > 1) THEN a ELSE CAST(NULL AS INTEGER) END",
		renderColumn(t, result, "a_x"))
	assert.Equal(t, "a", renderColumn(t, result, "a_y"))
}

func TestByRowIdentity_MergesOrdering(t *testing.T) {
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{
		{Name: "a", Typ: sqlexpr.TypeInt64},
		{Name: "oid", Typ: sqlexpr.TypeInt64},
	}}
	visible := []core.ColumnExpression{
		core.NewColumn("a", &sqlexpr.ColumnRef{Name: "a", Typ: sqlexpr.TypeInt64}),
	}
	hidden := []core.ColumnExpression{
		core.NewColumn("oid", &sqlexpr.ColumnRef{Name: "oid", Typ: sqlexpr.TypeInt64}),
	}
	ord := ordering.Spec{TotalOrderIDColumn: "oid", Sequential: true}
	te, err := core.NewTableExpression(nil, base, visible, hidden, nil, ord)
	require.NoError(t, err)

	result, _, _, err := ByRowIdentity(te, te, HowInner)
	require.NoError(t, err)

	// Shared row identity means shared order: the left id carries over.
	merged := result.Ordering()
	assert.Equal(t, "oid_x", merged.TotalOrderIDColumn)
	assert.True(t, merged.Sequential)
	assert.True(t, merged.IsTotal())
}

func TestByRowIdentity_OrderingDroppedWhenOneSideUnordered(t *testing.T) {
	te := baseTable(t)
	ordered, err := te.WithOrdering(ordering.Spec{
		OrderingValueColumns: []ordering.ColumnReference{ordering.Asc("a")},
	})
	require.NoError(t, err)

	result, _, _, err := ByRowIdentity(ordered, te, HowInner)
	require.NoError(t, err)
	assert.False(t, result.Ordering().IsTotal())
	assert.Empty(t, result.Ordering().OrderingValueColumns)
}
