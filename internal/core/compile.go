package core

import (
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// ToSQL compiles the table to its final SQL statement: visible columns over
// the relation, pending predicates as the WHERE clause, and the ordering
// spec as ORDER BY. This is the only boundary where the core produces SQL
// text.
func (t *TableExpression) ToSQL() (string, error) {
	keys, err := t.finalOrderKeys()
	if err != nil {
		return "", err
	}
	sel := &sqlexpr.Select{
		From:    t.relation,
		Columns: selectColumns(t.columns),
		Where:   reducePredicates(t.predicates),
		OrderBy: keys,
	}
	return sqlexpr.RenderRelation(sel)
}

// finalOrderKeys builds the statement-level ORDER BY: the readable sort keys
// first, then the total order id as the deterministic tiebreaker. An
// unordered table compiles with no ORDER BY at all.
func (t *TableExpression) finalOrderKeys() ([]sqlexpr.OrderKey, error) {
	if !t.ord.IsTotal() && len(t.ord.OrderingValueColumns) == 0 {
		return nil, nil
	}
	if t.ord.IsTotal() {
		return t.orderingKeys()
	}
	keys := make([]sqlexpr.OrderKey, 0, len(t.ord.OrderingValueColumns))
	for _, ref := range t.ord.OrderingValueColumns {
		c, err := t.AnyColumn(ref.ColumnID)
		if err != nil {
			return nil, err
		}
		keys = append(keys, sqlexpr.OrderKey{
			Expr:      c.Expr(),
			Desc:      ref.Direction == ordering.Descending,
			NullsLast: ref.Nulls == ordering.NullsLast,
		})
	}
	return keys, nil
}

// SnapshotRelation derives a plain relation exposing every visible and
// hidden column with pending predicates applied. Used by the session to
// attach a sequential ordering to a table that has none.
func (t *TableExpression) SnapshotRelation() *sqlexpr.Select {
	all := append(append([]ColumnExpression{}, t.columns...), t.hidden...)
	return &sqlexpr.Select{
		From:    t.relation,
		Columns: selectColumns(all),
		Where:   reducePredicates(t.predicates),
	}
}

// OrderedRelation derives an aliased relation exposing every visible and
// hidden column plus the total order id under orderColName. The join engine
// uses this to take an ordered snapshot of each side before a relational
// join; a table without a total order must be given one first (see
// Session.SequentialOrdering).
func (t *TableExpression) OrderedRelation(alias, orderColName string) (*sqlexpr.Select, error) {
	if !t.ord.IsTotal() {
		return nil, &ExprError{
			Code:    ErrCodeOrderRequired,
			Message: "ordered relation requires a total order",
		}
	}
	idCol, err := t.AnyColumn(t.ord.TotalOrderIDColumn)
	if err != nil {
		return nil, err
	}

	all := append(append([]ColumnExpression{}, t.columns...), t.hidden...)
	cols := selectColumns(all)
	cols = append(cols, sqlexpr.SelectColumn{Alias: orderColName, Expr: idCol.Expr()})

	return &sqlexpr.Select{
		From:    t.relation,
		Alias:   alias,
		Columns: cols,
		Where:   reducePredicates(t.predicates),
	}, nil
}
