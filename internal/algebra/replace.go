package algebra

import (
	"fmt"
	"slices"

	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// Walk visits a and its descendants in pre-order. Returning false from
// visit skips the children of that node. Subquery bodies are visited;
// patterns inside EXISTS are not.
func Walk(a Algebra, visit func(Algebra) bool) {
	if !visit(a) {
		return
	}
	for _, c := range Children(a) {
		Walk(c, visit)
	}
}

type rewriteAction int

const (
	actionKeep rewriteAction = iota
	actionRewriteChildren
	actionRewrite
)

// RewriteResult tells Rewrite what to do with one node.
type RewriteResult struct {
	action rewriteAction
	node   Algebra
}

// Keep leaves the node and its whole subtree unchanged.
func Keep() RewriteResult {
	return RewriteResult{action: actionKeep}
}

// RewriteChildren replaces the node with a and continues into a's children.
func RewriteChildren(a Algebra) RewriteResult {
	return RewriteResult{action: actionRewriteChildren, node: a}
}

// Rewritten replaces the node with a without visiting a's children.
func Rewritten(a Algebra) RewriteResult {
	return RewriteResult{action: actionRewrite, node: a}
}

// Rewrite transforms a top-down. At every node f decides whether to keep
// the subtree, replace it outright, or replace the node and recurse into
// its (new) children.
func Rewrite(a Algebra, f func(Algebra) (RewriteResult, error)) (Algebra, error) {
	r, err := f(a)
	if err != nil {
		return nil, err
	}
	switch r.action {
	case actionKeep:
		return a, nil
	case actionRewrite:
		return r.node, nil
	}
	return mapChildren(r.node, func(c Algebra) (Algebra, error) {
		return Rewrite(c, f)
	})
}

// ReplaceAlgebra gives f first refusal at every node, depth first. When f
// reports a replacement the node's original children are not visited;
// otherwise the node is rebuilt from its transformed children.
func ReplaceAlgebra(a Algebra, f func(Algebra) (Algebra, bool, error)) (Algebra, error) {
	return Rewrite(a, func(node Algebra) (RewriteResult, error) {
		r, ok, err := f(node)
		if err != nil {
			return RewriteResult{}, err
		}
		if ok {
			return Rewritten(r), nil
		}
		return RewriteChildren(node), nil
	})
}

// ReplaceExpression gives f first refusal at every node of e, depth first,
// descending into aggregations, window applications and EXISTS patterns.
func ReplaceExpression(e Expression, f func(Expression) (Expression, bool, error)) (Expression, error) {
	if e == nil {
		return nil, nil
	}
	r, ok, err := f(e)
	if err != nil {
		return nil, err
	}
	if ok {
		return r, nil
	}
	return mapExprChildren(e,
		func(c Expression) (Expression, error) { return ReplaceExpression(c, f) },
		func(p Algebra) (Algebra, error) { return ReplaceExpressions(p, f) },
	)
}

// ReplaceExpressions applies ReplaceExpression to every expression held
// anywhere in a.
func ReplaceExpressions(a Algebra, f func(Expression) (Expression, bool, error)) (Algebra, error) {
	return Rewrite(a, func(node Algebra) (RewriteResult, error) {
		out, err := mapLocalExpressions(node, func(e Expression) (Expression, error) {
			return ReplaceExpression(e, f)
		})
		if err != nil {
			return RewriteResult{}, err
		}
		return RewriteChildren(out), nil
	})
}

// ReplaceNodes substitutes pattern nodes and node expressions throughout
// a, including inside EXISTS patterns. f reports whether it replaced n.
func ReplaceNodes(a Algebra, f func(n rdf.Node) (rdf.Node, bool)) Algebra {
	out, _ := Rewrite(a, func(node Algebra) (RewriteResult, error) {
		return RewriteChildren(substituteLocal(node, f)), nil
	})
	return out
}

// ReplaceExpressionNodes substitutes node expressions in e, including
// inside EXISTS patterns.
func ReplaceExpressionNodes(e Expression, f func(n rdf.Node) (rdf.Node, bool)) Expression {
	out, _ := ReplaceExpression(e, nodeReplacer(f))
	return out
}

func nodeReplacer(f func(rdf.Node) (rdf.Node, bool)) func(Expression) (Expression, bool, error) {
	return func(e Expression) (Expression, bool, error) {
		switch e := e.(type) {
		case NodeExpr:
			if n, ok := f(e.Node); ok {
				return NodeExpr{Node: n}, true, nil
			}
		case Exists:
			return Exists{Pattern: ReplaceNodes(e.Pattern, f), Not: e.Not}, true, nil
		}
		return nil, false, nil
	}
}

// substituteLocal applies f to the nodes and expressions held directly by
// a, leaving its algebra children untouched.
func substituteLocal(a Algebra, f func(rdf.Node) (rdf.Node, bool)) Algebra {
	sub := func(n rdf.Node) rdf.Node {
		if r, ok := f(n); ok {
			return r
		}
		return n
	}
	switch n := a.(type) {
	case Quad:
		a = Quad{Pattern: n.Pattern.Bind(sub)}
	case Triple:
		a = Triple{Pattern: n.Pattern.Bind(sub)}
	case BGP:
		triples := make([]rdf.TriplePattern, len(n.Triples))
		for i, tp := range n.Triples {
			triples[i] = tp.Bind(sub)
		}
		a = BGP{Triples: triples}
	case Path:
		a = Path{Subject: sub(n.Subject), Path: n.Path, Object: sub(n.Object)}
	case NamedGraph:
		a = NamedGraph{Child: n.Child, Graph: sub(n.Graph)}
	}
	replace := nodeReplacer(f)
	out, _ := mapLocalExpressions(a, func(e Expression) (Expression, error) {
		return ReplaceExpression(e, replace)
	})
	return out
}

// Bind substitutes to for every occurrence of variable in a.
//
// A Project that lists variable either drops it or, when
// preserveProjection is set, keeps it by extending its child with the
// bound value. Subqueries have their own scope and are left alone.
func Bind(a Algebra, variable string, to rdf.Node, preserveProjection bool) (Algebra, error) {
	subst := func(n rdf.Node) (rdf.Node, bool) {
		if n.IsVariable() && n.Name() == variable {
			return to, true
		}
		return n, false
	}
	return Rewrite(a, func(node Algebra) (RewriteResult, error) {
		switch node := node.(type) {
		case Subquery:
			return Keep(), nil
		case Extend:
			if node.Variable == variable {
				return RewriteResult{}, &ValidationError{
					Message: fmt.Sprintf("cannot bind ?%s: it is assigned by an extend", variable),
				}
			}
		case Project:
			child, err := Bind(node.Child, variable, to, preserveProjection)
			if err != nil {
				return RewriteResult{}, err
			}
			switch {
			case !slices.Contains(node.Variables, variable):
				return Rewritten(Project{Child: child, Variables: node.Variables}), nil
			case preserveProjection:
				return Rewritten(Project{
					Child:     Extend{Child: child, Expr: NodeExpr{Node: to}, Variable: variable},
					Variables: node.Variables,
				}), nil
			default:
				vars := slices.DeleteFunc(slices.Clone(node.Variables), func(v string) bool { return v == variable })
				return Rewritten(Project{Child: child, Variables: vars}), nil
			}
		}
		return RewriteChildren(substituteLocal(node, subst)), nil
	})
}

// mapChildren rebuilds a with each algebra child replaced by f(child).
func mapChildren(a Algebra, f func(Algebra) (Algebra, error)) (Algebra, error) {
	var err error
	apply := func(c Algebra) Algebra {
		if err != nil {
			return c
		}
		var out Algebra
		out, err = f(c)
		return out
	}
	switch n := a.(type) {
	case InnerJoin:
		a = InnerJoin{Left: apply(n.Left), Right: apply(n.Right)}
	case LeftOuterJoin:
		a = LeftOuterJoin{Left: apply(n.Left), Right: apply(n.Right), Condition: n.Condition}
	case Union:
		a = Union{Left: apply(n.Left), Right: apply(n.Right)}
	case Minus:
		a = Minus{Left: apply(n.Left), Right: apply(n.Right)}
	case Filter:
		a = Filter{Child: apply(n.Child), Condition: n.Condition}
	case NamedGraph:
		a = NamedGraph{Child: apply(n.Child), Graph: n.Graph}
	case Extend:
		a = Extend{Child: apply(n.Child), Expr: n.Expr, Variable: n.Variable}
	case Project:
		a = Project{Child: apply(n.Child), Variables: n.Variables}
	case Distinct:
		a = Distinct{Child: apply(n.Child)}
	case Reduced:
		a = Reduced{Child: apply(n.Child)}
	case Service:
		a = Service{Endpoint: n.Endpoint, Child: apply(n.Child), Silent: n.Silent}
	case Slice:
		a = Slice{Child: apply(n.Child), Offset: n.Offset, Limit: n.Limit}
	case Order:
		a = Order{Child: apply(n.Child), Comparators: n.Comparators}
	case Aggregate:
		a = Aggregate{Child: apply(n.Child), Groups: n.Groups, Aggregations: n.Aggregations}
	case Window:
		a = Window{Child: apply(n.Child), Windows: n.Windows}
	case Subquery:
		q := *n.Query
		q.Algebra = apply(q.Algebra)
		a = Subquery{Query: &q}
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// mapLocalExpressions rebuilds a with each directly held expression
// replaced by f(expr).
func mapLocalExpressions(a Algebra, f func(Expression) (Expression, error)) (Algebra, error) {
	m := exprMapper{f: f}
	switch n := a.(type) {
	case LeftOuterJoin:
		a = LeftOuterJoin{Left: n.Left, Right: n.Right, Condition: m.expr(n.Condition)}
	case Filter:
		a = Filter{Child: n.Child, Condition: m.expr(n.Condition)}
	case Extend:
		a = Extend{Child: n.Child, Expr: m.expr(n.Expr), Variable: n.Variable}
	case Order:
		a = Order{Child: n.Child, Comparators: m.comparators(n.Comparators)}
	case Aggregate:
		var aggs []AggregationMapping
		if n.Aggregations != nil {
			aggs = make([]AggregationMapping, len(n.Aggregations))
		}
		for i, am := range n.Aggregations {
			aggs[i] = AggregationMapping{Aggregation: m.aggregation(am.Aggregation), Variable: am.Variable}
		}
		a = Aggregate{Child: n.Child, Groups: m.exprs(n.Groups), Aggregations: aggs}
	case Window:
		var wins []WindowMapping
		if n.Windows != nil {
			wins = make([]WindowMapping, len(n.Windows))
		}
		for i, wm := range n.Windows {
			wins[i] = WindowMapping{Application: m.window(wm.Application), Variable: wm.Variable}
		}
		a = Window{Child: n.Child, Windows: wins}
	}
	if m.err != nil {
		return nil, m.err
	}
	return a, nil
}

// mapExprChildren rebuilds e with each sub-expression replaced by fe and
// each embedded pattern replaced by fa.
func mapExprChildren(e Expression, fe func(Expression) (Expression, error), fa func(Algebra) (Algebra, error)) (Expression, error) {
	m := exprMapper{f: fe}
	switch n := e.(type) {
	case AggregateExpr:
		e = AggregateExpr{Aggregation: m.aggregation(n.Aggregation)}
	case WindowExpr:
		e = WindowExpr{Application: m.window(n.Application)}
	case Unary:
		e = Unary{Op: n.Op, Expr: m.expr(n.Expr)}
	case Binary:
		e = Binary{Op: n.Op, Left: m.expr(n.Left), Right: m.expr(n.Right)}
	case Cast:
		e = Cast{Datatype: n.Datatype, Expr: m.expr(n.Expr)}
	case Call:
		e = Call{Function: n.Function, Args: m.exprs(n.Args)}
	case In:
		e = In{Expr: m.expr(n.Expr), List: m.exprs(n.List), Not: n.Not}
	case Exists:
		p, err := fa(n.Pattern)
		if err != nil {
			return nil, err
		}
		e = Exists{Pattern: p, Not: n.Not}
	}
	if m.err != nil {
		return nil, m.err
	}
	return e, nil
}

// exprMapper applies f across expression-bearing structures, remembering
// the first error.
type exprMapper struct {
	f   func(Expression) (Expression, error)
	err error
}

func (m *exprMapper) expr(e Expression) Expression {
	if e == nil || m.err != nil {
		return e
	}
	out, err := m.f(e)
	if err != nil {
		m.err = err
		return e
	}
	return out
}

func (m *exprMapper) exprs(es []Expression) []Expression {
	if es == nil {
		return nil
	}
	out := make([]Expression, len(es))
	for i, e := range es {
		out[i] = m.expr(e)
	}
	return out
}

func (m *exprMapper) comparators(cs []Comparator) []Comparator {
	if cs == nil {
		return nil
	}
	out := make([]Comparator, len(cs))
	for i, c := range cs {
		out[i] = Comparator{Ascending: c.Ascending, Expr: m.expr(c.Expr)}
	}
	return out
}

func (m *exprMapper) aggregation(a Aggregation) Aggregation {
	a.Expr = m.expr(a.Expr)
	return a
}

func (m *exprMapper) window(w WindowApplication) WindowApplication {
	fn := w.Function
	if fn.Aggregation != nil {
		agg := m.aggregation(*fn.Aggregation)
		fn.Aggregation = &agg
	}
	fn.Args = m.exprs(fn.Args)
	frame := w.Frame
	frame.From.Expr = m.expr(frame.From.Expr)
	frame.To.Expr = m.expr(frame.To.Expr)
	return WindowApplication{
		Function:  fn,
		Partition: m.exprs(w.Partition),
		Order:     m.comparators(w.Order),
		Frame:     frame,
	}
}
