package sqlexpr

// Type enumerates the backend column types the compiler can produce.
//
// The enumeration is closed: the type mapping layer and the operator library
// both assume every value a backend relation can hold is one of these.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeBool
	TypeInt64
	TypeFloat64
	TypeString
	TypeBytes
	TypeDate
	TypeTime
	TypeTimestamp
	TypeTimestampTZ
	TypeNumeric
)

// String returns the backend name of the type.
func (t Type) String() string {
	switch t {
	case TypeBool:
		return "BOOLEAN"
	case TypeInt64:
		return "INTEGER"
	case TypeFloat64:
		return "REAL"
	case TypeString:
		return "TEXT"
	case TypeBytes:
		return "BLOB"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeTimestampTZ:
		return "TIMESTAMPTZ"
	case TypeNumeric:
		return "NUMERIC"
	default:
		return "UNKNOWN"
	}
}

// IsNumeric reports whether the type participates in arithmetic.
// Booleans are not numeric; the operator library coerces them explicitly.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeInt64, TypeFloat64, TypeNumeric:
		return true
	default:
		return false
	}
}

// Expr is a sealed interface over backend column expressions.
//
// Node types:
//   - ColumnRef: reference to a column of the enclosing relation
//   - Literal:   inline scalar constant (nil value means NULL)
//   - Binary:    infix operator application
//   - Func:      scalar function call
//   - Agg:       aggregate function call
//   - Case:      searched CASE expression
//   - Cast:      explicit type conversion
//   - Window:    windowed application of an aggregate or ranking function
type Expr interface {
	exprNode() // Marker method - seals interface to this package

	// ExprType returns the backend type the expression evaluates to.
	ExprType() Type
}

// ColumnRef references a column of the enclosing relation, optionally
// qualified by a relation alias (used inside join conditions).
type ColumnRef struct {
	Rel  string // Relation alias; empty when unambiguous
	Name string
	Typ  Type
}

func (*ColumnRef) exprNode() {}

func (c *ColumnRef) ExprType() Type { return c.Typ }

// Literal is an inline scalar constant. A nil Val renders as NULL (cast to
// Typ when Typ is known, so NULLs stay typed through joins and masking).
type Literal struct {
	Val any // nil, bool, int64, float64, string
	Typ Type
}

func (*Literal) exprNode() {}

func (l *Literal) ExprType() Type { return l.Typ }

// Null returns a NULL literal of the given type.
func Null(t Type) *Literal { return &Literal{Val: nil, Typ: t} }

// Bool returns a boolean literal.
func Bool(v bool) *Literal { return &Literal{Val: v, Typ: TypeBool} }

// Int returns an integer literal.
func Int(v int64) *Literal { return &Literal{Val: v, Typ: TypeInt64} }

// Float returns a floating-point literal.
func Float(v float64) *Literal { return &Literal{Val: v, Typ: TypeFloat64} }

// Str returns a string literal.
func Str(v string) *Literal { return &Literal{Val: v, Typ: TypeString} }

// BinaryOperator is the infix operator token of a Binary node.
type BinaryOperator string

const (
	OpAdd    BinaryOperator = "+"
	OpSub    BinaryOperator = "-"
	OpMul    BinaryOperator = "*"
	OpDiv    BinaryOperator = "/"
	OpMod    BinaryOperator = "%"
	OpConcat BinaryOperator = "||"
	OpEq     BinaryOperator = "="
	OpNe     BinaryOperator = "<>"
	OpLt     BinaryOperator = "<"
	OpLe     BinaryOperator = "<="
	OpGt     BinaryOperator = ">"
	OpGe     BinaryOperator = ">="
	OpAnd    BinaryOperator = "AND"
	OpOr     BinaryOperator = "OR"
	OpIs     BinaryOperator = "IS"
	OpIsNot  BinaryOperator = "IS NOT"
)

// Binary applies an infix operator to two operands.
type Binary struct {
	Op    BinaryOperator
	Left  Expr
	Right Expr
	Typ   Type
}

func (*Binary) exprNode() {}

func (b *Binary) ExprType() Type { return b.Typ }

// NewBinary builds a Binary node with an explicit result type.
func NewBinary(op BinaryOperator, left, right Expr, typ Type) *Binary {
	return &Binary{Op: op, Left: left, Right: right, Typ: typ}
}

// Func is a scalar function call, e.g. abs(x) or printf('%019d', id).
type Func struct {
	Name string
	Args []Expr
	Typ  Type
}

func (*Func) exprNode() {}

func (f *Func) ExprType() Type { return f.Typ }

// NewFunc builds a scalar function call node.
func NewFunc(name string, typ Type, args ...Expr) *Func {
	return &Func{Name: name, Args: args, Typ: typ}
}

// Agg is an aggregate function call, e.g. sum(x). Rendering an Agg outside a
// SELECT list or Window node produces invalid SQL; the operator library is
// the only producer and keeps that invariant.
type Agg struct {
	Name string
	Arg  Expr // nil renders as *
	Typ  Type
}

func (*Agg) exprNode() {}

func (a *Agg) ExprType() Type { return a.Typ }

// NewAgg builds an aggregate function call node.
func NewAgg(name string, arg Expr, typ Type) *Agg {
	return &Agg{Name: name, Arg: arg, Typ: typ}
}

// When is one branch of a searched CASE expression.
type When struct {
	Cond   Expr
	Result Expr
}

// Case is a searched CASE expression. Else may be nil (renders as no ELSE
// clause, evaluating to NULL when no branch matches).
type Case struct {
	Whens []When
	Else  Expr
	Typ   Type
}

func (*Case) exprNode() {}

func (c *Case) ExprType() Type { return c.Typ }

// NewCase builds a searched CASE expression with the given result type.
func NewCase(typ Type, whens []When, elseExpr Expr) *Case {
	return &Case{Whens: whens, Else: elseExpr, Typ: typ}
}

// Cast converts its argument to another backend type.
type Cast struct {
	Arg Expr
	To  Type
}

func (*Cast) exprNode() {}

func (c *Cast) ExprType() Type { return c.To }

// NewCast builds an explicit type conversion node.
func NewCast(arg Expr, to Type) *Cast { return &Cast{Arg: arg, To: to} }

// Tuple is a parenthesized value list, usable only on the right-hand side of
// an IN comparison. Produced by the type mapping layer for list literals when
// validation is disabled.
type Tuple struct {
	Elems []Expr
}

func (*Tuple) exprNode() {}

func (t *Tuple) ExprType() Type { return TypeUnknown }

// OrderKey is one key of an ORDER BY clause (relation-level or window-level).
type OrderKey struct {
	Expr      Expr
	Desc      bool
	NullsLast bool
}

// Frame is a window frame specification in ROWS mode. A nil bound means
// UNBOUNDED in that direction.
type Frame struct {
	Preceding *int64
	Following *int64
}

// Window applies an aggregate or ranking function over a window. Filter,
// when set, excludes rows from the aggregate's input before the window
// function applies (FILTER is valid on aggregate functions only, not on
// ranking or navigation functions).
type Window struct {
	Fn          Expr // Agg, or Func for ranking/navigation functions
	Filter      Expr
	PartitionBy []Expr
	OrderBy     []OrderKey
	Frame       *Frame
}

func (*Window) exprNode() {}

func (w *Window) ExprType() Type { return w.Fn.ExprType() }
