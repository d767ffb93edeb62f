// Package algebra defines the SPARQL algebra: graph-pattern operators,
// scalar expressions, property paths, aggregations and window functions,
// and the Query that wraps them.
//
// Every type here is an immutable value. Transformations (Rewrite,
// ReplaceAlgebra, ReplaceExpression, Bind) always build new trees; a parent
// exclusively owns its children and nothing is shared or cyclic.
//
// Algebra, Expression, PropertyPath and Form are sealed interfaces. Only
// types in this package implement them, so type switches over them can be
// exhaustive:
//
//	switch n := a.(type) {
//	case algebra.BGP:
//	    ...
//	case algebra.Filter:
//	    ...
//	}
//
// Analyses:
//   - InScope: variables that may be bound in some result row
//   - NecessarilyBound: variables bound in every result row
//   - IsAggregation: whether a subtree aggregates
//   - ProjectableVariables: names an aggregating body can project
//
// Format renders a tree as an S-expression for tests and diagnostics.
// AlgebraTokens and QueryTokens render SPARQL tokens; see lexer.Render.
package algebra
