// Package ordering models how a logical table's rows are totally (or only
// partially) ordered. The backend has no native row order, so every
// row-positional operation checks an explicit OrderingSpec instead of
// assuming one.
package ordering

import (
	"fmt"

	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// Direction is the sort direction of one ordering key.
type Direction uint8

const (
	Ascending Direction = iota
	Descending
)

// String returns the SQL keyword for the direction.
func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// NullPosition places null values relative to non-null values in a key.
type NullPosition uint8

const (
	NullsFirst NullPosition = iota
	NullsLast
)

// String returns the SQL clause for the null placement.
func (p NullPosition) String() string {
	if p == NullsLast {
		return "NULLS LAST"
	}
	return "NULLS FIRST"
}

// ColumnReference is one sort key of an ordering.
type ColumnReference struct {
	ColumnID  string
	Direction Direction
	Nulls     NullPosition
}

// Asc returns an ascending, nulls-first reference to a column.
func Asc(columnID string) ColumnReference {
	return ColumnReference{ColumnID: columnID}
}

// Desc returns a descending, nulls-last reference to a column.
func Desc(columnID string) ColumnReference {
	return ColumnReference{ColumnID: columnID, Direction: Descending, Nulls: NullsLast}
}

// WithName returns the same key pointed at a renamed column. Used when join
// sides rename their columns with collision suffixes.
func (r ColumnReference) WithName(columnID string) ColumnReference {
	r.ColumnID = columnID
	return r
}

// StringKey returns a stable textual encoding of the key, used when ordering
// metadata from two join sides has to be compared or logged.
func (r ColumnReference) StringKey() string {
	return fmt.Sprintf("%s %s %s", r.ColumnID, r.Direction, r.Nulls)
}

// Spec describes the row order of a logical table.
//
// If TotalOrderIDColumn is set, rows are totally and deterministically
// ordered by that single column and OrderingValueColumns are a readable
// prefix of the same order. If it is empty the value columns define only a
// partial order, which row-positional operators reject.
type Spec struct {
	OrderingValueColumns []ColumnReference

	// TotalOrderIDColumn names a column whose values rank every row
	// deterministically. Empty means no total order exists yet.
	TotalOrderIDColumn string

	// Sequential marks a total order id known to be a dense 0..N-1 integer
	// sequence, enabling offset arithmetic (head, iloc).
	Sequential bool

	// EncodingSize is the fixed width needed to encode the order id as a
	// lexicographically sortable string. Zero means DefaultEncodingSize.
	EncodingSize int
}

// DefaultEncodingSize is the decimal digit count of the largest int64,
// enough to encode any integer order id without truncation.
const DefaultEncodingSize = 19

// IsTotal reports whether a usable total order is present.
func (s Spec) IsTotal() bool {
	return s.TotalOrderIDColumn != ""
}

// EncodingWidth returns the effective fixed width for string-encoding the
// order id.
func (s Spec) EncodingWidth() int {
	if s.EncodingSize > 0 {
		return s.EncodingSize
	}
	return DefaultEncodingSize
}

// WithOrderingColumns returns a spec with replaced sort keys, preserving the
// total order id column and its properties.
func (s Spec) WithOrderingColumns(cols []ColumnReference) Spec {
	s.OrderingValueColumns = append([]ColumnReference(nil), cols...)
	return s
}

// WithOrderingID returns a spec ordered totally by the named column.
func (s Spec) WithOrderingID(columnID string, sequential bool) Spec {
	s.TotalOrderIDColumn = columnID
	s.Sequential = sequential
	return s
}

// Compose merges this spec with a join partner's into the spec of the join
// result, totally ordered by the named merged id column. The merged id is
// the fixed-width concatenation of both sides' encoded ids, so the composed
// width is the sum of the inputs' widths. Concatenated ids are strings, not
// dense integers, so the result is never sequential.
func (s Spec) Compose(other Spec, idColumn string) Spec {
	return Spec{
		TotalOrderIDColumn: idColumn,
		EncodingSize:       s.EncodingWidth() + other.EncodingWidth(),
	}
}

// Referenced returns every column id the spec mentions, sort keys first.
func (s Spec) Referenced() []string {
	ids := make([]string, 0, len(s.OrderingValueColumns)+1)
	for _, c := range s.OrderingValueColumns {
		ids = append(ids, c.ColumnID)
	}
	if s.TotalOrderIDColumn != "" {
		ids = append(ids, s.TotalOrderIDColumn)
	}
	return ids
}

// StringifyOrderID encodes an integer order id expression as a fixed-width,
// zero-padded string. Fixed-width encodings concatenate into keys that sort
// lexicographically the same way the (left, right) pair sorts, which is how
// the join engine composes two total orders without a global re-sort.
func StringifyOrderID(id sqlexpr.Expr, width int) sqlexpr.Expr {
	format := fmt.Sprintf("%%0%dd", width)
	return sqlexpr.NewFunc("printf", sqlexpr.TypeString, sqlexpr.Str(format), id)
}
