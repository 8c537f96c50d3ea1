package sqlexpr

// Relation is a sealed interface over backend relations.
//
// Relation nodes:
//   - Table:  a named base table with a declared column schema
//   - Select: a derived relation (projection, filter, ordering, grouping)
//   - Join:   an equality join of two aliased relations
//
// Relations are always handled by pointer. Two logical tables share a row
// identity exactly when they hold the same Relation pointer, which is what
// the join engine's fast path checks via Same.
type Relation interface {
	relationNode() // Marker method - seals interface to this package
}

// Column is one column of a base table schema.
type Column struct {
	Name string
	Typ  Type
}

// Table is a named base table.
type Table struct {
	Name    string
	Columns []Column
}

func (*Table) relationNode() {}

// ColumnType returns the declared type of the named column, or TypeUnknown
// if the table has no such column.
func (t *Table) ColumnType(name string) Type {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Typ
		}
	}
	return TypeUnknown
}

// SelectColumn is one output column of a Select relation.
type SelectColumn struct {
	Alias string
	Expr  Expr
}

// Select is a derived relation. Where may be nil, OrderBy and GroupBy may be
// empty. Alias is required when the Select appears as a join operand.
type Select struct {
	From    Relation
	Alias   string
	Columns []SelectColumn
	Where   Expr
	GroupBy []Expr
	OrderBy []OrderKey
}

func (*Select) relationNode() {}

// JoinKind is the join mode of a Join relation.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinFull  JoinKind = "FULL"
	JoinCross JoinKind = "CROSS"
)

// Join combines two relations on an equality condition. Both operands must
// carry aliases so the condition can qualify its column references.
type Join struct {
	Left  Relation
	Right Relation
	Kind  JoinKind
	On    Expr
}

func (*Join) relationNode() {}

// Same reports whether two relations are the identical node. Interface
// equality on pointer-only implementations compares pointers, so this is a
// row-identity check, not a structural one.
func Same(a, b Relation) bool {
	return a == b
}
