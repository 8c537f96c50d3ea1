// Package ops is the stateless operator catalog: unary, binary, ternary,
// aggregate, and window operators that compile operand expressions into
// backend column expressions.
//
// Operators are pure value types. Applying one never mutates its operands;
// it returns a new expression tree. Several operators deliberately diverge
// from the raw backend semantics to match the desktop dataframe surface:
// sum over an all-null group yields 0, all/any over an empty group yield
// true, modulo takes the divisor's sign, and division by zero propagates the
// dividend's nullity instead of erroring.
package ops
