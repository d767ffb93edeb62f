package algebra

import (
	"maps"
	"slices"

	"github.com/roach88/sparqlsyntax/internal/rdf"
)

type varSet map[string]bool

func (s varSet) addNodes(nodes ...rdf.Node) {
	for _, n := range nodes {
		if n.Binds() {
			s[n.Name()] = true
		}
	}
}

func (s varSet) union(o varSet) varSet {
	for v := range o {
		s[v] = true
	}
	return s
}

func (s varSet) intersect(o varSet) varSet {
	out := varSet{}
	for v := range s {
		if o[v] {
			out[v] = true
		}
	}
	return out
}

func (s varSet) sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// InScope returns the sorted variables that may be bound in some solution
// of a. Non-binding variables are not in scope.
func InScope(a Algebra) []string {
	return inScope(a).sorted()
}

func inScope(a Algebra) varSet {
	s := varSet{}
	switch a := a.(type) {
	case UnionIdentity, JoinIdentity:
	case Table:
		for _, v := range a.Variables {
			s[v] = true
		}
	case Quad:
		s.addNodes(a.Pattern.Nodes()...)
	case Triple:
		s.addNodes(a.Pattern.Nodes()...)
	case BGP:
		for _, tp := range a.Triples {
			s.addNodes(tp.Nodes()...)
		}
	case Path:
		s.addNodes(a.Subject, a.Object)
	case InnerJoin:
		s.union(inScope(a.Left)).union(inScope(a.Right))
	case LeftOuterJoin:
		s.union(inScope(a.Left)).union(inScope(a.Right))
	case Union:
		s.union(inScope(a.Left)).union(inScope(a.Right))
	case Minus:
		s.union(inScope(a.Left))
	case NamedGraph:
		s.union(inScope(a.Child))
		s.addNodes(a.Graph)
	case Extend:
		s.union(inScope(a.Child))
		s[a.Variable] = true
	case Project:
		for _, v := range a.Variables {
			s[v] = true
		}
	case Aggregate:
		s.union(groupVariables(a.Groups))
		for _, m := range a.Aggregations {
			s[m.Variable] = true
		}
	case Window:
		s.union(inScope(a.Child))
		for _, m := range a.Windows {
			s[m.Variable] = true
		}
	case Subquery:
		for _, v := range a.Query.ProjectedVariables() {
			s[v] = true
		}
	default:
		for _, c := range Children(a) {
			s.union(inScope(c))
		}
	}
	return s
}

// NecessarilyBound returns the sorted variables bound in every solution
// of a. Union keeps only variables both branches guarantee; an optional
// right-hand side contributes nothing.
func NecessarilyBound(a Algebra) []string {
	return necessarilyBound(a).sorted()
}

func necessarilyBound(a Algebra) varSet {
	s := varSet{}
	switch a := a.(type) {
	case UnionIdentity, JoinIdentity:
	case Table:
		for i, v := range a.Variables {
			bound := true
			for _, row := range a.Rows {
				if i >= len(row) || row[i] == nil {
					bound = false
					break
				}
			}
			if bound {
				s[v] = true
			}
		}
	case Quad:
		s.addNodes(a.Pattern.Nodes()...)
	case Triple:
		s.addNodes(a.Pattern.Nodes()...)
	case BGP:
		for _, tp := range a.Triples {
			s.addNodes(tp.Nodes()...)
		}
	case Path:
		s.addNodes(a.Subject, a.Object)
	case InnerJoin:
		s.union(necessarilyBound(a.Left)).union(necessarilyBound(a.Right))
	case LeftOuterJoin:
		s.union(necessarilyBound(a.Left))
	case Union:
		return necessarilyBound(a.Left).intersect(necessarilyBound(a.Right))
	case Minus:
		s.union(necessarilyBound(a.Left))
	case NamedGraph:
		s.union(necessarilyBound(a.Child))
		s.addNodes(a.Graph)
	case Project:
		keep := varSet{}
		for _, v := range a.Variables {
			keep[v] = true
		}
		return necessarilyBound(a.Child).intersect(keep)
	case Aggregate:
		return groupVariables(a.Groups).intersect(necessarilyBound(a.Child))
	case Subquery:
		keep := varSet{}
		for _, v := range a.Query.ProjectedVariables() {
			keep[v] = true
		}
		return necessarilyBound(a.Query.Algebra).intersect(keep)
	default:
		for _, c := range Children(a) {
			s.union(necessarilyBound(c))
		}
	}
	return s
}

func groupVariables(groups []Expression) varSet {
	s := varSet{}
	for _, g := range groups {
		if n, ok := g.(NodeExpr); ok && n.Node.IsVariable() {
			s[n.Node.Name()] = true
		}
	}
	return s
}

// IsAggregation reports whether a contains an Aggregate node or an
// expression with a nested aggregate. Subqueries are not inspected.
func IsAggregation(a Algebra) bool {
	found := false
	Walk(a, func(node Algebra) bool {
		if found {
			return false
		}
		switch node := node.(type) {
		case Aggregate:
			found = true
		case Subquery:
			return false
		default:
			for _, e := range localExpressions(node) {
				if HasAggregate(e) {
					found = true
				}
			}
		}
		return !found
	})
	return found
}

// ProjectableVariables returns the sorted names an aggregating body can
// project: group keys, aggregate and window results, and names extended
// above the aggregation.
func ProjectableVariables(a Algebra) []string {
	return projectable(a).sorted()
}

func projectable(a Algebra) varSet {
	switch a := a.(type) {
	case Aggregate:
		s := groupVariables(a.Groups)
		for _, m := range a.Aggregations {
			s[m.Variable] = true
		}
		return s
	case Window:
		s := projectable(a.Child)
		for _, m := range a.Windows {
			s[m.Variable] = true
		}
		return s
	case Extend:
		s := projectable(a.Child)
		s[a.Variable] = true
		return s
	case InnerJoin:
		return projectable(a.Left).union(projectable(a.Right))
	case Filter:
		return projectable(a.Child)
	case Order:
		return projectable(a.Child)
	case Project:
		return projectable(a.Child)
	case Distinct:
		return projectable(a.Child)
	case Reduced:
		return projectable(a.Child)
	case Slice:
		return projectable(a.Child)
	default:
		return inScope(a)
	}
}

// HasAggregate reports whether e contains an aggregate call. EXISTS
// patterns are not inspected.
func HasAggregate(e Expression) bool {
	return exprContains(e, func(e Expression) bool {
		_, ok := e.(AggregateExpr)
		return ok
	})
}

// HasWindow reports whether e contains a window function call.
func HasWindow(e Expression) bool {
	return exprContains(e, func(e Expression) bool {
		_, ok := e.(WindowExpr)
		return ok
	})
}

func exprContains(e Expression, pred func(Expression) bool) bool {
	if e == nil {
		return false
	}
	if pred(e) {
		return true
	}
	for _, c := range exprChildren(e) {
		if exprContains(c, pred) {
			return true
		}
	}
	return false
}

// Variables returns the variables referenced by e in first-occurrence
// order. With skipAggregates set, variables that only occur inside
// aggregate or window calls are omitted. EXISTS patterns are not
// inspected.
func Variables(e Expression, skipAggregates bool) []string {
	var out []string
	seen := map[string]bool{}
	var visit func(Expression)
	visit = func(e Expression) {
		switch e := e.(type) {
		case nil:
			return
		case NodeExpr:
			if e.Node.IsVariable() && !seen[e.Node.Name()] {
				seen[e.Node.Name()] = true
				out = append(out, e.Node.Name())
			}
			return
		case AggregateExpr, WindowExpr:
			if skipAggregates {
				return
			}
		}
		for _, c := range exprChildren(e) {
			visit(c)
		}
	}
	visit(e)
	return out
}

// exprChildren returns the direct sub-expressions of e, including those
// inside aggregations and window applications.
func exprChildren(e Expression) []Expression {
	switch e := e.(type) {
	case AggregateExpr:
		return aggregationExprs(e.Aggregation)
	case WindowExpr:
		return windowExprs(e.Application)
	case Unary:
		return []Expression{e.Expr}
	case Binary:
		return []Expression{e.Left, e.Right}
	case Cast:
		return []Expression{e.Expr}
	case Call:
		return e.Args
	case In:
		return append([]Expression{e.Expr}, e.List...)
	}
	return nil
}

func aggregationExprs(a Aggregation) []Expression {
	if a.Expr == nil {
		return nil
	}
	return []Expression{a.Expr}
}

func windowExprs(w WindowApplication) []Expression {
	var out []Expression
	if w.Function.Aggregation != nil {
		out = append(out, aggregationExprs(*w.Function.Aggregation)...)
	}
	out = append(out, w.Function.Args...)
	out = append(out, w.Partition...)
	for _, c := range w.Order {
		out = append(out, c.Expr)
	}
	for _, b := range []FrameBound{w.Frame.From, w.Frame.To} {
		if b.Expr != nil {
			out = append(out, b.Expr)
		}
	}
	return out
}

// localExpressions returns the expressions held directly by a node.
func localExpressions(a Algebra) []Expression {
	switch a := a.(type) {
	case LeftOuterJoin:
		return []Expression{a.Condition}
	case Filter:
		return []Expression{a.Condition}
	case Extend:
		return []Expression{a.Expr}
	case Order:
		out := make([]Expression, len(a.Comparators))
		for i, c := range a.Comparators {
			out[i] = c.Expr
		}
		return out
	case Aggregate:
		out := slices.Clone(a.Groups)
		for _, m := range a.Aggregations {
			out = append(out, aggregationExprs(m.Aggregation)...)
		}
		return out
	case Window:
		var out []Expression
		for _, m := range a.Windows {
			out = append(out, windowExprs(m.Application)...)
		}
		return out
	}
	return nil
}
