package core

import (
	"github.com/roach88/sqlframe/internal/ops"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// Session is the core's view of the query-submission layer. It answers the
// one question the core cannot answer from its own data: how to force a
// deterministic materialized order onto an unordered relation. The core
// never calls anything blocking through this interface.
type Session interface {
	// SequentialOrdering derives a relation with a dense 0..N-1 integer
	// order column and returns it with the resulting total ordering.
	SequentialOrdering(rel sqlexpr.Relation) (sqlexpr.Relation, ordering.Spec, error)
}

// TableExpression is an immutable logical table: a backend relation, the
// visible column expressions computed over it, hidden metadata columns,
// pending predicates, and an ordering spec. All transformation methods
// return a new TableExpression.
type TableExpression struct {
	session    Session
	relation   sqlexpr.Relation
	columns    []ColumnExpression
	hidden     []ColumnExpression
	predicates []sqlexpr.Expr
	ord        ordering.Spec
}

// NewTableExpression builds a logical table and checks its invariants:
// column ids unique across visible and hidden, and every ordering reference
// resolvable.
func NewTableExpression(
	sess Session,
	rel sqlexpr.Relation,
	visible []ColumnExpression,
	hidden []ColumnExpression,
	predicates []sqlexpr.Expr,
	ord ordering.Spec,
) (*TableExpression, error) {
	if rel == nil {
		return nil, &ExprError{Code: ErrCodeUnknownColumn, Message: "table expression requires a relation"}
	}
	if len(visible) == 0 {
		return nil, &ExprError{Code: ErrCodeUnknownColumn, Message: "table expression requires at least one visible column"}
	}

	seen := make(map[string]bool, len(visible)+len(hidden))
	for _, c := range append(append([]ColumnExpression{}, visible...), hidden...) {
		if seen[c.ID()] {
			return nil, &ExprError{
				Code:    ErrCodeDuplicateColumn,
				Column:  c.ID(),
				Message: "column id appears twice in one table expression",
			}
		}
		seen[c.ID()] = true
	}
	for _, id := range ord.Referenced() {
		if !seen[id] {
			return nil, &ExprError{
				Code:    ErrCodeDanglingOrderingReference,
				Column:  id,
				Message: "ordering references a column the table does not carry",
			}
		}
	}

	return &TableExpression{
		session:    sess,
		relation:   rel,
		columns:    append([]ColumnExpression(nil), visible...),
		hidden:     append([]ColumnExpression(nil), hidden...),
		predicates: append([]sqlexpr.Expr(nil), predicates...),
		ord:        ord,
	}, nil
}

// FromTable builds a logical table exposing every column of a base table,
// with no predicates and no ordering yet.
func FromTable(sess Session, table *sqlexpr.Table) (*TableExpression, error) {
	cols := make([]ColumnExpression, 0, len(table.Columns))
	for _, c := range table.Columns {
		cols = append(cols, NewColumn(c.Name, &sqlexpr.ColumnRef{Name: c.Name, Typ: c.Typ}))
	}
	return NewTableExpression(sess, table, cols, nil, nil, ordering.Spec{})
}

// Session returns the non-owning session reference shared by all tables of
// one user session. May be nil for session-less tables built in tests.
func (t *TableExpression) Session() Session { return t.session }

// Relation returns the backend relation this table computes over.
func (t *TableExpression) Relation() sqlexpr.Relation { return t.relation }

// Ordering returns the table's ordering spec.
func (t *TableExpression) Ordering() ordering.Spec { return t.ord }

// ColumnNames returns the visible column ids in order.
func (t *TableExpression) ColumnNames() []string {
	names := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		names = append(names, c.ID())
	}
	return names
}

// VisibleColumns returns the visible column expressions in order.
func (t *TableExpression) VisibleColumns() []ColumnExpression {
	return append([]ColumnExpression(nil), t.columns...)
}

// HiddenColumns returns the hidden metadata columns.
func (t *TableExpression) HiddenColumns() []ColumnExpression {
	return append([]ColumnExpression(nil), t.hidden...)
}

// Predicates returns the pending (not yet applied) row predicates.
func (t *TableExpression) Predicates() []sqlexpr.Expr {
	return append([]sqlexpr.Expr(nil), t.predicates...)
}

// Shape returns the row count (-1, unknown before execution) and the
// visible column count.
func (t *TableExpression) Shape() (int64, int) {
	return -1, len(t.columns)
}

// Column resolves a visible column id.
func (t *TableExpression) Column(id string) (ColumnExpression, error) {
	id = CanonicalID(id)
	for _, c := range t.columns {
		if c.ID() == id {
			return c, nil
		}
	}
	return ColumnExpression{}, unknownColumn(id)
}

// AnyColumn resolves a visible or hidden column id.
func (t *TableExpression) AnyColumn(id string) (ColumnExpression, error) {
	if c, err := t.Column(id); err == nil {
		return c, nil
	}
	id = CanonicalID(id)
	for _, c := range t.hidden {
		if c.ID() == id {
			return c, nil
		}
	}
	return ColumnExpression{}, unknownColumn(id)
}

// Operand is one input of an operator application: either a column of this
// table or a scalar expression (typically from dtypes.LiteralToScalar).
type Operand struct {
	column string
	scalar sqlexpr.Expr
}

// ColOperand references a column by id.
func ColOperand(id string) Operand { return Operand{column: id} }

// ScalarOperand wraps a scalar expression operand.
func ScalarOperand(e sqlexpr.Expr) Operand { return Operand{scalar: e} }

func (t *TableExpression) resolveOperand(o Operand) (sqlexpr.Expr, error) {
	if o.scalar != nil {
		return o.scalar, nil
	}
	c, err := t.AnyColumn(o.column)
	if err != nil {
		return nil, err
	}
	return c.Expr(), nil
}

// Project returns a table exposing exactly the given column ids (visible or
// hidden today), in the given order. Columns the ordering still references
// are carried along as hidden metadata.
func (t *TableExpression) Project(ids ...string) (*TableExpression, error) {
	selected := make(map[string]bool, len(ids))
	visible := make([]ColumnExpression, 0, len(ids))
	for _, id := range ids {
		c, err := t.AnyColumn(id)
		if err != nil {
			return nil, err
		}
		if selected[c.ID()] {
			return nil, &ExprError{
				Code:    ErrCodeDuplicateColumn,
				Column:  c.ID(),
				Message: "column selected twice in projection",
			}
		}
		selected[c.ID()] = true
		visible = append(visible, c)
	}

	needed := make(map[string]bool)
	for _, id := range t.ord.Referenced() {
		needed[id] = true
	}
	var hidden []ColumnExpression
	for _, c := range append(append([]ColumnExpression{}, t.columns...), t.hidden...) {
		if !selected[c.ID()] && needed[c.ID()] {
			hidden = append(hidden, c)
		}
	}

	return NewTableExpression(t.session, t.relation, visible, hidden, t.predicates, t.ord)
}

// WithOrdering returns a table sorted by the given spec. Referencing a
// column the table does not carry is a dangling reference.
func (t *TableExpression) WithOrdering(ord ordering.Spec) (*TableExpression, error) {
	return NewTableExpression(t.session, t.relation, t.columns, t.hidden, t.predicates, ord)
}

// Filter appends a boolean column's computation to the pending predicates.
// Rows are not removed eagerly; the predicate is ANDed with the existing
// ones at materialization.
func (t *TableExpression) Filter(predicateColumnID string) (*TableExpression, error) {
	c, err := t.AnyColumn(predicateColumnID)
	if err != nil {
		return nil, err
	}
	if c.BackendType() != sqlexpr.TypeBool {
		return nil, &ops.OpError{
			Code:    ops.ErrCodeTypeMismatch,
			Op:      "filter",
			Operand: c.BackendType().String(),
			Message: "filter predicate must be boolean",
		}
	}
	preds := append(t.Predicates(), c.Expr())
	return NewTableExpression(t.session, t.relation, t.columns, t.hidden, preds, t.ord)
}

// FilterExpr appends a boolean expression directly. Used by the join engine
// for combined predicates that are not named columns.
func (t *TableExpression) FilterExpr(pred sqlexpr.Expr) (*TableExpression, error) {
	preds := append(t.Predicates(), pred)
	return NewTableExpression(t.session, t.relation, t.columns, t.hidden, preds, t.ord)
}

// ApplyUnary adds resultID computed by a unary operator over one column.
// An existing column with the same id is replaced.
func (t *TableExpression) ApplyUnary(op ops.UnaryOp, columnID, resultID string) (*TableExpression, error) {
	x, err := t.resolveOperand(ColOperand(columnID))
	if err != nil {
		return nil, err
	}
	expr, err := op.Apply(x)
	if err != nil {
		return nil, err
	}
	return t.withColumn(NewColumn(resultID, expr))
}

// ApplyBinary adds resultID computed by a binary operator.
func (t *TableExpression) ApplyBinary(op ops.BinaryOp, x, y Operand, resultID string) (*TableExpression, error) {
	xe, err := t.resolveOperand(x)
	if err != nil {
		return nil, err
	}
	ye, err := t.resolveOperand(y)
	if err != nil {
		return nil, err
	}
	expr, err := op.Apply(xe, ye)
	if err != nil {
		return nil, err
	}
	return t.withColumn(NewColumn(resultID, expr))
}

// ApplyTernary adds resultID computed by a ternary operator.
func (t *TableExpression) ApplyTernary(op ops.TernaryOp, x, y, z Operand, resultID string) (*TableExpression, error) {
	xe, err := t.resolveOperand(x)
	if err != nil {
		return nil, err
	}
	ye, err := t.resolveOperand(y)
	if err != nil {
		return nil, err
	}
	ze, err := t.resolveOperand(z)
	if err != nil {
		return nil, err
	}
	expr, err := op.Apply(xe, ye, ze)
	if err != nil {
		return nil, err
	}
	return t.withColumn(NewColumn(resultID, expr))
}

// ApplyAggregate reduces one column to a single value per group (or one
// overall value with no groupBy). Pending predicates filter rows before the
// aggregate sees them. The result is a new table over a derived relation;
// whatever ordering existed does not survive aggregation.
func (t *TableExpression) ApplyAggregate(op ops.AggregateOp, columnID, resultID string, groupBy ...string) (*TableExpression, error) {
	c, err := t.AnyColumn(columnID)
	if err != nil {
		return nil, err
	}
	aggExpr, err := op.Apply(c.Expr(), nil)
	if err != nil {
		return nil, err
	}

	outCols := make([]ColumnExpression, 0, len(groupBy)+1)
	groupExprs := make([]sqlexpr.Expr, 0, len(groupBy))
	for _, id := range groupBy {
		key, err := t.AnyColumn(id)
		if err != nil {
			return nil, err
		}
		outCols = append(outCols, key)
		groupExprs = append(groupExprs, key.Expr())
	}
	outCols = append(outCols, NewColumn(resultID, aggExpr))

	rel := &sqlexpr.Select{
		From:    t.relation,
		Columns: selectColumns(outCols),
		Where:   reducePredicates(t.predicates),
		GroupBy: groupExprs,
	}
	refs := make([]ColumnExpression, 0, len(outCols))
	for _, c := range outCols {
		refs = append(refs, c.Ref())
	}
	return NewTableExpression(t.session, rel, refs, nil, nil, ordering.Spec{})
}

// ApplyWindow adds resultID computed by a window operator over one column.
// When the window carries no explicit ordering the table's own total order
// is used; a table without one rejects the operation.
func (t *TableExpression) ApplyWindow(op ops.WindowOp, columnID string, w *ops.Window, resultID string) (*TableExpression, error) {
	c, err := t.AnyColumn(columnID)
	if err != nil {
		return nil, err
	}

	win := ops.Window{}
	if w != nil {
		win = *w
	}
	if len(win.Ordering) == 0 {
		keys, err := t.orderingKeys()
		if err != nil {
			return nil, err
		}
		win.Ordering = keys
	}
	if op.SkipsNulls() {
		win.Filter = &sqlexpr.Binary{
			Op:    sqlexpr.OpIsNot,
			Left:  c.Expr(),
			Right: sqlexpr.Null(sqlexpr.TypeUnknown),
			Typ:   sqlexpr.TypeBool,
		}
	}

	expr, err := op.Apply(c.Expr(), &win)
	if err != nil {
		return nil, err
	}
	return t.withColumn(NewColumn(resultID, expr))
}

// orderingKeys converts the table's ordering spec into window order keys.
func (t *TableExpression) orderingKeys() ([]sqlexpr.OrderKey, error) {
	if !t.ord.IsTotal() {
		return nil, &ExprError{
			Code:    ErrCodeOrderRequired,
			Message: "row-positional operation requires a total order",
		}
	}
	keys := make([]sqlexpr.OrderKey, 0, len(t.ord.OrderingValueColumns)+1)
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
	idCol, err := t.AnyColumn(t.ord.TotalOrderIDColumn)
	if err != nil {
		return nil, err
	}
	keys = append(keys, sqlexpr.OrderKey{Expr: idCol.Expr()})
	return keys, nil
}

// MaterializePredicates realizes pending predicates as an actual row filter
// by deriving a new relation. Needed before operations that must see a
// filtered row count.
func (t *TableExpression) MaterializePredicates() (*TableExpression, error) {
	if len(t.predicates) == 0 {
		return t, nil
	}
	all := append(append([]ColumnExpression{}, t.columns...), t.hidden...)
	rel := &sqlexpr.Select{
		From:    t.relation,
		Columns: selectColumns(all),
		Where:   reducePredicates(t.predicates),
	}
	visible := make([]ColumnExpression, 0, len(t.columns))
	for _, c := range t.columns {
		visible = append(visible, c.Ref())
	}
	hidden := make([]ColumnExpression, 0, len(t.hidden))
	for _, c := range t.hidden {
		hidden = append(hidden, c.Ref())
	}
	return NewTableExpression(t.session, rel, visible, hidden, nil, t.ord)
}

// WithColumn returns a table carrying expr as a visible column under id,
// replacing any existing column of that id. The join engine uses this to
// attach coalesced index columns.
func (t *TableExpression) WithColumn(id string, expr sqlexpr.Expr) (*TableExpression, error) {
	return t.withColumn(NewColumn(id, expr))
}

// withColumn replaces a same-id column or appends a new one.
func (t *TableExpression) withColumn(col ColumnExpression) (*TableExpression, error) {
	cols := t.VisibleColumns()
	replaced := false
	for i, c := range cols {
		if c.ID() == col.ID() {
			cols[i] = col
			replaced = true
			break
		}
	}
	if !replaced {
		cols = append(cols, col)
	}
	return NewTableExpression(t.session, t.relation, cols, t.hidden, t.predicates, t.ord)
}

func selectColumns(cols []ColumnExpression) []sqlexpr.SelectColumn {
	out := make([]sqlexpr.SelectColumn, 0, len(cols))
	for _, c := range cols {
		out = append(out, sqlexpr.SelectColumn{Alias: c.ID(), Expr: c.Expr()})
	}
	return out
}

// reducePredicates folds predicates into one conjunction, nil when empty.
func reducePredicates(preds []sqlexpr.Expr) sqlexpr.Expr {
	if len(preds) == 0 {
		return nil
	}
	combined := preds[0]
	for _, p := range preds[1:] {
		combined = sqlexpr.NewBinary(sqlexpr.OpAnd, combined, p, sqlexpr.TypeBool)
	}
	return combined
}

// ReducePredicates is the exported form used by the join engine.
func ReducePredicates(preds []sqlexpr.Expr) sqlexpr.Expr {
	return reducePredicates(preds)
}
