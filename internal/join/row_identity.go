package join

import (
	"github.com/roach88/sqlframe/internal/core"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

var rowIdentityHow = map[How]bool{
	HowOuter: true,
	HowLeft:  true,
	HowInner: true,
}

// ByRowIdentity combines two tables known to share the same underlying
// relation. No relational join runs: the result is a column-set union over
// the shared relation, with predicate masking emulating the missing rows of
// each side.
func ByRowIdentity(left, right *core.TableExpression, how How) (*core.TableExpression, Resolver, Resolver, error) {
	if err := checkHow(how, rowIdentityHow); err != nil {
		return nil, nil, nil, err
	}
	if !sqlexpr.Same(left.Relation(), right.Relation()) {
		return nil, nil, nil, &JoinError{
			Code:    ErrCodeAmbiguousJoin,
			How:     string(how),
			Message: "cannot combine tables with different row identities without an explicit join key",
		}
	}

	leftPredicates := left.Predicates()
	rightPredicates := right.Predicates()
	leftRelative, rightRelative, err := relativePredicates(leftPredicates, rightPredicates)
	if err != nil {
		return nil, nil, nil, err
	}

	var combined []sqlexpr.Expr
	if len(leftPredicates) > 0 || len(rightPredicates) > 0 {
		combined, err = combinePredicates(leftPredicates, rightPredicates, rightRelative, how)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	// Rows excluded by only one side's predicates still exist in the result
	// for outer-style modes; that side's columns go null there instead.
	// Right mode is rejected up front, so only outer masks the left side.
	var leftMask, rightMask sqlexpr.Expr
	if how == HowOuter {
		leftMask = core.ReducePredicates(leftRelative)
	}
	if how == HowLeft || how == HowOuter {
		rightMask = core.ReducePredicates(rightRelative)
	}

	joined := make([]core.ColumnExpression, 0, len(left.VisibleColumns())+len(right.VisibleColumns()))
	for _, c := range left.VisibleColumns() {
		joined = append(joined, core.NewColumn(mapLeftID(c.ID()), maskValue(c.Expr(), leftMask)))
	}
	for _, c := range right.VisibleColumns() {
		joined = append(joined, core.NewColumn(mapRightID(c.ID()), maskValue(c.Expr(), rightMask)))
	}

	var hidden []core.ColumnExpression
	newOrdering := ordering.Spec{}
	if hasOrdering(left) && hasOrdering(right) {
		for _, c := range left.HiddenColumns() {
			hidden = append(hidden, c.WithID(mapLeftID(c.ID())))
		}
		for _, c := range right.HiddenColumns() {
			hidden = append(hidden, c.WithID(mapRightID(c.ID())))
		}
		refs := make([]ordering.ColumnReference, 0,
			len(left.Ordering().OrderingValueColumns)+len(right.Ordering().OrderingValueColumns))
		for _, ref := range left.Ordering().OrderingValueColumns {
			refs = append(refs, ref.WithName(mapLeftID(ref.ColumnID)))
		}
		for _, ref := range right.Ordering().OrderingValueColumns {
			refs = append(refs, ref.WithName(mapRightID(ref.ColumnID)))
		}
		newOrdering = left.Ordering().WithOrderingColumns(refs)
		// Both sides share row identity, hence the same order: the left
		// side's order id serves the combined table.
		if id := left.Ordering().TotalOrderIDColumn; id != "" {
			newOrdering = newOrdering.WithOrderingID(mapLeftID(id), left.Ordering().Sequential)
		} else {
			newOrdering.TotalOrderIDColumn = ""
		}
	}

	result, err := core.NewTableExpression(
		left.Session(), left.Relation(), joined, hidden, combined, newOrdering)
	if err != nil {
		return nil, nil, nil, err
	}

	getLeft := func(id string) (core.ColumnExpression, error) {
		return result.AnyColumn(mapLeftID(id))
	}
	getRight := func(id string) (core.ColumnExpression, error) {
		return result.AnyColumn(mapRightID(id))
	}
	return result, getLeft, getRight, nil
}

// combinePredicates merges both sides' predicate lists per join mode.
// Outer keeps rows passing either side (their disjunction); left keeps the
// left side's view; inner intersects, re-adding only right-relative
// predicates because the left ones already gate the shared row set.
func combinePredicates(leftPreds, rightPreds, rightRelative []sqlexpr.Expr, how How) ([]sqlexpr.Expr, error) {
	switch how {
	case HowOuter:
		if len(leftPreds) == 0 || len(rightPreds) == 0 {
			return nil, nil
		}
		disjunction := sqlexpr.NewBinary(sqlexpr.OpOr,
			core.ReducePredicates(leftPreds),
			core.ReducePredicates(rightPreds),
			sqlexpr.TypeBool)
		return []sqlexpr.Expr{disjunction}, nil
	case HowLeft:
		return append([]sqlexpr.Expr(nil), leftPreds...), nil
	case HowInner:
		return append(append([]sqlexpr.Expr(nil), leftPreds...), rightRelative...), nil
	default:
		return nil, &JoinError{
			Code:    ErrCodeUnsupportedJoinMode,
			How:     string(how),
			Message: "cannot combine predicates for join mode",
		}
	}
}

// relativePredicates returns the predicates present on only one side.
// Predicates common to both sides need not mask anything. Equality is by
// rendered SQL, which is deterministic per expression tree.
func relativePredicates(leftPreds, rightPreds []sqlexpr.Expr) ([]sqlexpr.Expr, []sqlexpr.Expr, error) {
	if len(leftPreds) == 0 || len(rightPreds) == 0 {
		return leftPreds, rightPreds, nil
	}
	leftKeys, err := predicateKeys(leftPreds)
	if err != nil {
		return nil, nil, err
	}
	rightKeys, err := predicateKeys(rightPreds)
	if err != nil {
		return nil, nil, err
	}
	leftSet := keySet(leftKeys)
	rightSet := keySet(rightKeys)

	var leftRelative, rightRelative []sqlexpr.Expr
	for i, p := range leftPreds {
		if !rightSet[leftKeys[i]] {
			leftRelative = append(leftRelative, p)
		}
	}
	for i, p := range rightPreds {
		if !leftSet[rightKeys[i]] {
			rightRelative = append(rightRelative, p)
		}
	}
	return leftRelative, rightRelative, nil
}

func predicateKeys(preds []sqlexpr.Expr) ([]string, error) {
	keys := make([]string, len(preds))
	for i, p := range preds {
		sql, err := sqlexpr.Render(p)
		if err != nil {
			return nil, err
		}
		keys[i] = sql
	}
	return keys, nil
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// maskValue nulls a column wherever the masking predicates fail, emulating
// the absence of a row without removing it.
func maskValue(value sqlexpr.Expr, mask sqlexpr.Expr) sqlexpr.Expr {
	if mask == nil {
		return value
	}
	return sqlexpr.NewCase(value.ExprType(),
		[]sqlexpr.When{{Cond: mask, Result: value}},
		sqlexpr.Null(value.ExprType()),
	)
}

func hasOrdering(t *core.TableExpression) bool {
	ord := t.Ordering()
	return ord.IsTotal() || len(ord.OrderingValueColumns) > 0
}
