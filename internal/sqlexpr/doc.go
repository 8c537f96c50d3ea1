// Package sqlexpr defines the backend expression and relation AST that the
// rest of sqlframe compiles into, plus the renderer that turns it into SQL
// text for the generated-SQL target (SQLite).
//
// Both Expr and Relation are sealed interfaces: only types in this package
// implement them. The marker-method pattern prevents external implementations
// and enables exhaustive type switches in the renderer.
//
// Expressions are immutable after construction. The renderer is deterministic:
// rendering the same node twice yields byte-identical SQL, which the join
// engine relies on for predicate set-difference and the golden tests rely on
// for stable snapshots.
package sqlexpr
