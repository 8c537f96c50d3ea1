// Package core holds the immutable logical table expression: a backend
// relation, the visible column expressions computed over it, hidden metadata
// columns (ordering and join support), pending row predicates, and an
// ordering spec.
//
// Every transformation returns a new TableExpression; no operation mutates
// an existing one, which makes them safe to share read-only across
// independent computation graphs. Predicates are composed, not executed:
// they become an actual row filter only at materialization or final
// compilation, so the join engine can still reason about which predicate
// applies to which side.
package core
