package join

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlframe/internal/core"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// stubSession attaches a constant order column. The real session derives a
// row_number over the relation; the joins under test only care that a total
// ordering comes back.
type stubSession struct{}

func (stubSession) SequentialOrdering(rel sqlexpr.Relation) (sqlexpr.Relation, ordering.Spec, error) {
	sel, ok := rel.(*sqlexpr.Select)
	if !ok {
		sel = &sqlexpr.Select{From: rel}
	}
	orderID := core.GenerateGUID("order")
	cols := append([]sqlexpr.SelectColumn(nil), sel.Columns...)
	cols = append(cols, sqlexpr.SelectColumn{Alias: orderID, Expr: sqlexpr.Int(0)})
	derived := &sqlexpr.Select{From: sel.From, Columns: cols, Where: sel.Where}
	return derived, ordering.Spec{TotalOrderIDColumn: orderID, Sequential: true}, nil
}

func orderedTable(t *testing.T, name string, cols ...string) *core.TableExpression {
	t.Helper()
	tableCols := make([]sqlexpr.Column, 0, len(cols)+1)
	visible := make([]core.ColumnExpression, 0, len(cols))
	for _, c := range cols {
		tableCols = append(tableCols, sqlexpr.Column{Name: c, Typ: sqlexpr.TypeInt64})
		visible = append(visible, core.NewColumn(c, &sqlexpr.ColumnRef{Name: c, Typ: sqlexpr.TypeInt64}))
	}
	orderID := name + "_oid"
	tableCols = append(tableCols, sqlexpr.Column{Name: orderID, Typ: sqlexpr.TypeInt64})
	hidden := []core.ColumnExpression{
		core.NewColumn(orderID, &sqlexpr.ColumnRef{Name: orderID, Typ: sqlexpr.TypeInt64}),
	}
	base := &sqlexpr.Table{Name: name, Columns: tableCols}
	ord := ordering.Spec{TotalOrderIDColumn: orderID, Sequential: true}
	te, err := core.NewTableExpression(nil, base, visible, hidden, nil, ord)
	require.NoError(t, err)
	return te
}

func TestByKeys_RejectsMismatchedKeyCounts(t *testing.T) {
	left := orderedTable(t, "l", "k", "v")
	right := orderedTable(t, "r", "k", "w")

	cases := []Descriptor{
		{How: HowInner},
		{How: HowInner, LeftKeys: []string{"k"}},
		{How: HowInner, LeftKeys: []string{"k"}, RightKeys: []string{"k", "w"}},
	}
	for _, desc := range cases {
		_, _, _, err := ByKeys(left, right, desc)
		require.Error(t, err)
		var je *JoinError
		require.ErrorAs(t, err, &je)
		assert.Equal(t, ErrCodeIncompatibleJoinPartner, je.Code)
	}
}

func TestByKeys_RejectsUnknownMode(t *testing.T) {
	left := orderedTable(t, "l", "k")
	right := orderedTable(t, "r", "k")

	_, _, _, err := ByKeys(left, right, Descriptor{How: "cross", LeftKeys: []string{"k"}, RightKeys: []string{"k"}})
	require.Error(t, err)
	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, ErrCodeUnsupportedJoinMode, je.Code)
}

func TestByKeys_SuffixesCollidingColumns(t *testing.T) {
	left := orderedTable(t, "l", "k", "v")
	right := orderedTable(t, "r", "k", "v")

	result, getLeft, getRight, err := ByKeys(left, right, Descriptor{
		How: HowLeft, LeftKeys: []string{"k"}, RightKeys: []string{"k"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"k_x", "v_x", "k_y", "v_y"}, result.ColumnNames())

	lv, err := getLeft("v")
	require.NoError(t, err)
	assert.Equal(t, "v_x", lv.ID())
	rv, err := getRight("v")
	require.NoError(t, err)
	assert.Equal(t, "v_y", rv.ID())
}

func TestByKeys_InnerEmitsSharedKeyOnce(t *testing.T) {
	left := orderedTable(t, "l", "k", "v")
	right := orderedTable(t, "r", "k", "w")

	result, getLeft, getRight, err := ByKeys(left, right, Descriptor{
		How: HowInner, LeftKeys: []string{"k"}, RightKeys: []string{"k"},
	})
	require.NoError(t, err)

	// Inner equality on the same column name: both sides see identical
	// values, so a single unsuffixed column serves both.
	assert.Equal(t, []string{"k", "v_x", "w_y"}, result.ColumnNames())

	lk, err := getLeft("k")
	require.NoError(t, err)
	assert.Equal(t, "k", lk.ID())
	rk, err := getRight("k")
	require.NoError(t, err)
	assert.Equal(t, "k", rk.ID())
}

func TestByKeys_OuterKeepsBothKeyColumns(t *testing.T) {
	left := orderedTable(t, "l", "k")
	right := orderedTable(t, "r", "k")

	result, _, _, err := ByKeys(left, right, Descriptor{
		How: HowOuter, LeftKeys: []string{"k"}, RightKeys: []string{"k"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"k_x", "k_y"}, result.ColumnNames())
}

func TestByKeys_RightDelegatesToFlippedLeft(t *testing.T) {
	left := orderedTable(t, "l", "k", "v")
	right := orderedTable(t, "r", "k", "w")

	result, getLeft, getRight, err := ByKeys(left, right, Descriptor{
		How: HowRight, LeftKeys: []string{"k"}, RightKeys: []string{"k"},
	})
	require.NoError(t, err)

	// Operands swap internally, but the naming convention holds: left
	// columns still get _x, right columns _y.
	lv, err := getLeft("v")
	require.NoError(t, err)
	assert.Equal(t, "v_x", lv.ID())
	rw, err := getRight("w")
	require.NoError(t, err)
	assert.Equal(t, "w_y", rw.ID())

	sql, err := result.ToSQL()
	require.NoError(t, err)
	// A right join becomes a left join with the sides exchanged, so the
	// right table anchors the join.
	assert.Contains(t, sql, "FROM r")
	assert.Contains(t, sql, "LEFT JOIN")
}

func TestByKeys_ComposesOrderEncodings(t *testing.T) {
	left := orderedTable(t, "l", "k")
	right := orderedTable(t, "r", "k")

	result, _, _, err := ByKeys(left, right, Descriptor{
		How: HowInner, LeftKeys: []string{"k"}, RightKeys: []string{"k"},
	})
	require.NoError(t, err)

	merged := result.Ordering()
	assert.True(t, merged.IsTotal())
	assert.False(t, merged.Sequential)
	assert.Equal(t, 2*ordering.DefaultEncodingSize, merged.EncodingSize)

	require.Len(t, result.HiddenColumns(), 1)
	sql, err := sqlexpr.Render(result.HiddenColumns()[0].Expr())
	require.NoError(t, err)
	// Fixed-width encodings of both sides, concatenated, coalescing an
	// absent side to the empty string.
	assert.Equal(t, 2, strings.Count(sql, "printf('%019d'"))
	assert.Equal(t, 2, strings.Count(sql, "coalesce("))
	assert.Contains(t, sql, "||")
}

func TestByKeys_JoinSQLShape(t *testing.T) {
	left := orderedTable(t, "l", "k")
	right := orderedTable(t, "r", "k")

	result, _, _, err := ByKeys(left, right, Descriptor{
		How: HowInner, LeftKeys: []string{"k"}, RightKeys: []string{"k"},
	})
	require.NoError(t, err)

	sql, err := result.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, ") AS lhs INNER JOIN (")
	assert.Contains(t, sql, ") AS rhs ON (lhs.k = rhs.k)")
}

func TestByKeys_MaterializesOrderThroughSession(t *testing.T) {
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{
		{Name: "k", Typ: sqlexpr.TypeInt64},
	}}
	left, err := core.FromTable(stubSession{}, base)
	require.NoError(t, err)
	right := orderedTable(t, "r", "k")

	result, _, _, err := ByKeys(left, right, Descriptor{
		How: HowInner, LeftKeys: []string{"k"}, RightKeys: []string{"k"},
	})
	require.NoError(t, err)
	assert.True(t, result.Ordering().IsTotal())
}

func TestByKeys_UnorderedWithoutSession(t *testing.T) {
	base := &sqlexpr.Table{Name: "t", Columns: []sqlexpr.Column{
		{Name: "k", Typ: sqlexpr.TypeInt64},
	}}
	left, err := core.FromTable(nil, base)
	require.NoError(t, err)
	right := orderedTable(t, "r", "k")

	_, _, _, err = ByKeys(left, right, Descriptor{
		How: HowInner, LeftKeys: []string{"k"}, RightKeys: []string{"k"},
	})
	require.Error(t, err)
	assert.True(t, core.IsOrderRequired(err))
}

func TestByIndex_RequiresIndexColumns(t *testing.T) {
	left := orderedTable(t, "l", "idx")
	right := orderedTable(t, "r", "idx")

	_, _, _, err := ByIndex(left, right, "", "idx", HowInner, false)
	require.Error(t, err)
	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, ErrCodeIncompatibleJoinPartner, je.Code)
}

func TestByIndex_CoalescesIndexes(t *testing.T) {
	left := orderedTable(t, "l", "idx", "v")
	right := orderedTable(t, "r", "idx", "w")

	result, getLeft, getRight, err := ByIndex(left, right, "idx", "idx", HowOuter, false)
	require.NoError(t, err)

	c, err := result.Column("idx_z")
	require.NoError(t, err)
	sql, err := sqlexpr.Render(c.Expr())
	require.NoError(t, err)
	assert.Contains(t, sql, "coalesce(")

	lIdx, err := getLeft("idx")
	require.NoError(t, err)
	assert.Equal(t, "idx_x", lIdx.ID())
	rIdx, err := getRight("idx")
	require.NoError(t, err)
	assert.Equal(t, "idx_y", rIdx.ID())
}

func TestByIndex_SortOrdersByCombinedIndex(t *testing.T) {
	left := orderedTable(t, "l", "idx")
	right := orderedTable(t, "r", "idx")

	result, _, _, err := ByIndex(left, right, "idx", "idx", HowOuter, true)
	require.NoError(t, err)

	refs := result.Ordering().OrderingValueColumns
	require.Len(t, refs, 1)
	assert.Equal(t, "idx_z", refs[0].ColumnID)
	assert.Equal(t, ordering.Ascending, refs[0].Direction)
}

func TestByIndex_UsesRowIdentityForSharedRelation(t *testing.T) {
	te := orderedTable(t, "l", "idx", "v")

	result, _, _, err := ByIndex(te, te, "idx", "idx", HowInner, false)
	require.NoError(t, err)

	// Same relation on both sides: no relational join happens, the result
	// stays rooted at the shared relation.
	assert.True(t, sqlexpr.Same(te.Relation(), result.Relation()))
}

func TestByIndex_FallsBackToKeysForDistinctRelations(t *testing.T) {
	left := orderedTable(t, "l", "idx")
	right := orderedTable(t, "r", "idx")

	result, _, _, err := ByIndex(left, right, "idx", "idx", HowInner, false)
	require.NoError(t, err)
	assert.False(t, sqlexpr.Same(left.Relation(), result.Relation()))
}
