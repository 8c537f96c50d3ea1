package join

import (
	"github.com/roach88/sqlframe/internal/core"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// Aliases of the two ordered snapshots inside the join relation. They only
// scope the ON condition and the output column references; the result's own
// column ids carry the _x/_y suffixes.
const (
	leftAlias  = "lhs"
	rightAlias = "rhs"
)

var joinKinds = map[How]sqlexpr.JoinKind{
	HowInner: sqlexpr.JoinInner,
	HowLeft:  sqlexpr.JoinLeft,
	HowOuter: sqlexpr.JoinFull,
}

// ByKeys joins two tables on equality of the given key columns. Each side is
// snapshotted with its total order id exposed, and the result's order id is
// the concatenation of both sides' fixed-width encoded ids, so the output
// sorts by the left side's original order first without a global re-sort.
//
// how="right" delegates to the left path with the operands swapped, keeping
// the algorithm single-sided.
func ByKeys(left, right *core.TableExpression, desc Descriptor) (*core.TableExpression, Resolver, Resolver, error) {
	if err := checkHow(desc.How, supportedHow); err != nil {
		return nil, nil, nil, err
	}
	if len(desc.LeftKeys) == 0 || len(desc.LeftKeys) != len(desc.RightKeys) {
		return nil, nil, nil, &JoinError{
			Code:    ErrCodeIncompatibleJoinPartner,
			How:     string(desc.How),
			Message: "join requires equally many key columns on both sides",
		}
	}
	if desc.How == HowRight {
		flipped := Descriptor{
			How:       HowLeft,
			LeftKeys:  append([]string(nil), desc.RightKeys...),
			RightKeys: append([]string(nil), desc.LeftKeys...),
		}
		result, getRight, getLeft, err := byKeys(right, left, flipped, mapRightID, mapLeftID)
		return result, getLeft, getRight, err
	}
	return byKeys(left, right, desc, mapLeftID, mapRightID)
}

func byKeys(
	left, right *core.TableExpression,
	desc Descriptor,
	leftMap, rightMap func(string) string,
) (*core.TableExpression, Resolver, Resolver, error) {
	left, err := ensureTotalOrder(left)
	if err != nil {
		return nil, nil, nil, err
	}
	right, err = ensureTotalOrder(right)
	if err != nil {
		return nil, nil, nil, err
	}

	leftOrderCol := core.GenerateGUID("order")
	rightOrderCol := core.GenerateGUID("order")
	leftRel, err := left.OrderedRelation(leftAlias, leftOrderCol)
	if err != nil {
		return nil, nil, nil, err
	}
	rightRel, err := right.OrderedRelation(rightAlias, rightOrderCol)
	if err != nil {
		return nil, nil, nil, err
	}

	cond, err := keyCondition(left, right, desc)
	if err != nil {
		return nil, nil, nil, err
	}
	joinRel := &sqlexpr.Join{
		Left:  leftRel,
		Right: rightRel,
		Kind:  joinKinds[desc.How],
		On:    cond,
	}

	// Inner joins emit a key that is identical on both sides once, under
	// its unsuffixed name.
	shared := make(map[string]bool)
	if desc.How == HowInner {
		for i, k := range desc.LeftKeys {
			if k == desc.RightKeys[i] {
				shared[k] = true
			}
		}
	}

	leftIDs := make(map[string]string, len(left.VisibleColumns()))
	rightIDs := make(map[string]string, len(right.VisibleColumns()))
	var joined []core.ColumnExpression
	for _, c := range left.VisibleColumns() {
		outID := leftMap(c.ID())
		if shared[c.ID()] {
			outID = c.ID()
		}
		leftIDs[c.ID()] = outID
		joined = append(joined, core.NewColumn(outID, &sqlexpr.ColumnRef{
			Rel: leftAlias, Name: c.ID(), Typ: c.BackendType(),
		}))
	}
	for _, c := range right.VisibleColumns() {
		if shared[c.ID()] {
			rightIDs[c.ID()] = c.ID()
			continue
		}
		outID := rightMap(c.ID())
		rightIDs[c.ID()] = outID
		joined = append(joined, core.NewColumn(outID, &sqlexpr.ColumnRef{
			Rel: rightAlias, Name: c.ID(), Typ: c.BackendType(),
		}))
	}

	leftWidth := left.Ordering().EncodingWidth()
	rightWidth := right.Ordering().EncodingWidth()
	mergedID := core.GenerateGUID("order")
	mergedExpr := sqlexpr.NewBinary(sqlexpr.OpConcat,
		encodeOrderID(&sqlexpr.ColumnRef{Rel: leftAlias, Name: leftOrderCol, Typ: sqlexpr.TypeInt64}, leftWidth),
		encodeOrderID(&sqlexpr.ColumnRef{Rel: rightAlias, Name: rightOrderCol, Typ: sqlexpr.TypeInt64}, rightWidth),
		sqlexpr.TypeString)
	hidden := []core.ColumnExpression{core.NewColumn(mergedID, mergedExpr)}

	ord := left.Ordering().Compose(right.Ordering(), mergedID)

	result, err := core.NewTableExpression(left.Session(), joinRel, joined, hidden, nil, ord)
	if err != nil {
		return nil, nil, nil, err
	}

	getLeft := func(id string) (core.ColumnExpression, error) {
		if out, ok := leftIDs[id]; ok {
			return result.AnyColumn(out)
		}
		return result.AnyColumn(id)
	}
	getRight := func(id string) (core.ColumnExpression, error) {
		if out, ok := rightIDs[id]; ok {
			return result.AnyColumn(out)
		}
		return result.AnyColumn(id)
	}
	return result, getLeft, getRight, nil
}

// ByIndex aligns two index-carrying tables on their index columns, then
// coalesces the two index columns into one logical index. When both sides
// share a row identity the combine happens without a relational join.
func ByIndex(
	left, right *core.TableExpression,
	leftIndex, rightIndex string,
	how How,
	sort bool,
) (*core.TableExpression, Resolver, Resolver, error) {
	if leftIndex == "" || rightIndex == "" {
		return nil, nil, nil, &JoinError{
			Code:    ErrCodeIncompatibleJoinPartner,
			How:     string(how),
			Message: "both sides must carry an index column to align on",
		}
	}

	joined, getLeft, getRight, err := joinForIndex(left, right, leftIndex, rightIndex, how)
	if err != nil {
		return nil, nil, nil, err
	}

	lIdx, err := getLeft(leftIndex)
	if err != nil {
		return nil, nil, nil, err
	}
	rIdx, err := getRight(rightIndex)
	if err != nil {
		return nil, nil, nil, err
	}

	// "_z" keeps the combined index clear of the _x/_y value columns.
	indexID := leftIndex + "_z"
	coalesced := sqlexpr.NewFunc("coalesce", lIdx.BackendType(), lIdx.Expr(), rIdx.Expr())
	joined, err = joined.WithColumn(indexID, coalesced)
	if err != nil {
		return nil, nil, nil, err
	}

	if sort {
		ord := joined.Ordering().WithOrderingColumns(
			[]ordering.ColumnReference{ordering.Asc(indexID)})
		joined, err = joined.WithOrdering(ord)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return joined, getLeft, getRight, nil
}

// joinForIndex tries the row-identity fast path, falling back to the
// general join when the sides do not share a relation.
func joinForIndex(
	left, right *core.TableExpression,
	leftIndex, rightIndex string,
	how How,
) (*core.TableExpression, Resolver, Resolver, error) {
	if how != HowRight {
		result, getLeft, getRight, err := ByRowIdentity(left, right, how)
		if err == nil {
			return result, getLeft, getRight, nil
		}
		if !IsAmbiguous(err) {
			return nil, nil, nil, err
		}
	}
	desc := Descriptor{
		How:       how,
		LeftKeys:  []string{leftIndex},
		RightKeys: []string{rightIndex},
	}
	return ByKeys(left, right, desc)
}

// ensureTotalOrder returns a table carrying a total order, asking the
// session to materialize a dense sequential one when none exists. A
// session-less table without a total order cannot be joined.
func ensureTotalOrder(t *core.TableExpression) (*core.TableExpression, error) {
	if t.Ordering().IsTotal() {
		return t, nil
	}
	sess := t.Session()
	if sess == nil {
		return nil, &core.ExprError{
			Code:    core.ErrCodeOrderRequired,
			Message: "joining an unordered table requires a session to materialize an order",
		}
	}
	rel, spec, err := sess.SequentialOrdering(t.SnapshotRelation())
	if err != nil {
		return nil, err
	}

	visible := make([]core.ColumnExpression, 0, len(t.VisibleColumns()))
	for _, c := range t.VisibleColumns() {
		visible = append(visible, core.NewColumn(c.ID(), &sqlexpr.ColumnRef{
			Name: c.ID(), Typ: c.BackendType(),
		}))
	}
	hidden := make([]core.ColumnExpression, 0, len(t.HiddenColumns())+1)
	for _, c := range t.HiddenColumns() {
		hidden = append(hidden, core.NewColumn(c.ID(), &sqlexpr.ColumnRef{
			Name: c.ID(), Typ: c.BackendType(),
		}))
	}
	hidden = append(hidden, core.NewColumn(spec.TotalOrderIDColumn, &sqlexpr.ColumnRef{
		Name: spec.TotalOrderIDColumn, Typ: sqlexpr.TypeInt64,
	}))
	return core.NewTableExpression(sess, rel, visible, hidden, nil, spec)
}

// keyCondition conjoins one equality per key pair, qualified by the
// snapshot aliases. NULL keys match nothing, as plain equality requires.
func keyCondition(left, right *core.TableExpression, desc Descriptor) (sqlexpr.Expr, error) {
	var cond sqlexpr.Expr
	for i, lk := range desc.LeftKeys {
		rk := desc.RightKeys[i]
		lc, err := left.AnyColumn(lk)
		if err != nil {
			return nil, err
		}
		rc, err := right.AnyColumn(rk)
		if err != nil {
			return nil, err
		}
		eq := sqlexpr.NewBinary(sqlexpr.OpEq,
			&sqlexpr.ColumnRef{Rel: leftAlias, Name: lk, Typ: lc.BackendType()},
			&sqlexpr.ColumnRef{Rel: rightAlias, Name: rk, Typ: rc.BackendType()},
			sqlexpr.TypeBool)
		if cond == nil {
			cond = eq
		} else {
			cond = sqlexpr.NewBinary(sqlexpr.OpAnd, cond, eq, sqlexpr.TypeBool)
		}
	}
	return cond, nil
}

// encodeOrderID renders an order id as a fixed-width sortable string.
// Unmatched outer-join rows have a NULL id on the missing side; the empty
// string keeps the concatenation non-null and sorts them first among rows
// sharing the present side's id.
func encodeOrderID(id sqlexpr.Expr, width int) sqlexpr.Expr {
	encoded := ordering.StringifyOrderID(id, width)
	return sqlexpr.NewFunc("coalesce", sqlexpr.TypeString, encoded, sqlexpr.Str(""))
}
