package algebra

import (
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// Algebra is a node of the graph-pattern operator tree.
//
// This is a sealed interface - only types in this package implement it.
//
// Leaves: UnionIdentity, JoinIdentity, Table, Quad, Triple, BGP, Path.
// Binary: InnerJoin, LeftOuterJoin, Union, Minus.
// Unary: Filter, Extend, Project, Distinct, Reduced, NamedGraph, Service,
// Slice, Order, Aggregate, Window.
// Nested: Subquery.
type Algebra interface {
	algebraNode()
}

// UnionIdentity matches no solutions. It is the identity of Union.
type UnionIdentity struct{}

// JoinIdentity matches exactly one empty solution. It is the identity of
// InnerJoin and the body of an empty group pattern.
type JoinIdentity struct{}

// Table is inline data. A nil cell is UNDEF.
type Table struct {
	Variables []string
	Rows      [][]*rdf.Term
}

// Quad matches one quad pattern.
type Quad struct {
	Pattern rdf.QuadPattern
}

// Triple matches one triple pattern.
type Triple struct {
	Pattern rdf.TriplePattern
}

// BGP matches a basic graph pattern.
type BGP struct {
	Triples []rdf.TriplePattern
}

// Path matches a property path between two nodes.
type Path struct {
	Subject rdf.Node
	Path    PropertyPath
	Object  rdf.Node
}

// InnerJoin joins two patterns.
type InnerJoin struct {
	Left  Algebra
	Right Algebra
}

// LeftOuterJoin is OPTIONAL: Right extends Left where Condition holds.
type LeftOuterJoin struct {
	Left      Algebra
	Right     Algebra
	Condition Expression
}

// Filter removes solutions of Child for which Condition is not true.
type Filter struct {
	Child     Algebra
	Condition Expression
}

// Union concatenates the solutions of both sides.
type Union struct {
	Left  Algebra
	Right Algebra
}

// NamedGraph evaluates Child against the named graph Graph.
type NamedGraph struct {
	Child Algebra
	Graph rdf.Node
}

// Extend binds Variable to the value of Expr.
type Extend struct {
	Child    Algebra
	Expr     Expression
	Variable string
}

// Minus removes solutions of Left compatible with a solution of Right.
type Minus struct {
	Left  Algebra
	Right Algebra
}

// Project restricts solutions to Variables.
type Project struct {
	Child     Algebra
	Variables []string
}

// Distinct removes duplicate solutions.
type Distinct struct {
	Child Algebra
}

// Reduced permits removal of duplicate solutions.
type Reduced struct {
	Child Algebra
}

// Service evaluates Child at a remote endpoint.
type Service struct {
	Endpoint string
	Child    Algebra
	Silent   bool
}

// Slice applies OFFSET and LIMIT. A nil bound is absent.
type Slice struct {
	Child  Algebra
	Offset *int
	Limit  *int
}

// Order sorts solutions by Comparators.
type Order struct {
	Child       Algebra
	Comparators []Comparator
}

// Aggregate groups Child by Groups and computes Aggregations per group.
type Aggregate struct {
	Child        Algebra
	Groups       []Expression
	Aggregations []AggregationMapping
}

// Window evaluates window functions over Child.
type Window struct {
	Child   Algebra
	Windows []WindowMapping
}

// Subquery is a nested SELECT.
type Subquery struct {
	Query *Query
}

func (UnionIdentity) algebraNode() {}
func (JoinIdentity) algebraNode()  {}
func (Table) algebraNode()         {}
func (Quad) algebraNode()          {}
func (Triple) algebraNode()        {}
func (BGP) algebraNode()           {}
func (Path) algebraNode()          {}
func (InnerJoin) algebraNode()     {}
func (LeftOuterJoin) algebraNode() {}
func (Filter) algebraNode()        {}
func (Union) algebraNode()         {}
func (NamedGraph) algebraNode()    {}
func (Extend) algebraNode()        {}
func (Minus) algebraNode()         {}
func (Project) algebraNode()       {}
func (Distinct) algebraNode()      {}
func (Reduced) algebraNode()       {}
func (Service) algebraNode()       {}
func (Slice) algebraNode()         {}
func (Order) algebraNode()         {}
func (Aggregate) algebraNode()     {}
func (Window) algebraNode()        {}
func (Subquery) algebraNode()      {}

// Children returns the direct algebra children of a in evaluation order.
// Patterns embedded in EXISTS expressions are not included.
func Children(a Algebra) []Algebra {
	switch a := a.(type) {
	case InnerJoin:
		return []Algebra{a.Left, a.Right}
	case LeftOuterJoin:
		return []Algebra{a.Left, a.Right}
	case Union:
		return []Algebra{a.Left, a.Right}
	case Minus:
		return []Algebra{a.Left, a.Right}
	case Filter:
		return []Algebra{a.Child}
	case NamedGraph:
		return []Algebra{a.Child}
	case Extend:
		return []Algebra{a.Child}
	case Project:
		return []Algebra{a.Child}
	case Distinct:
		return []Algebra{a.Child}
	case Reduced:
		return []Algebra{a.Child}
	case Service:
		return []Algebra{a.Child}
	case Slice:
		return []Algebra{a.Child}
	case Order:
		return []Algebra{a.Child}
	case Aggregate:
		return []Algebra{a.Child}
	case Window:
		return []Algebra{a.Child}
	case Subquery:
		return []Algebra{a.Query.Algebra}
	}
	return nil
}
