package algebra

import "github.com/roach88/sparqlsyntax/internal/rdf"

var (
	x = rdf.Var("x")
	y = rdf.Var("y")
	z = rdf.Var("z")
	p = rdf.Bound(rdf.IRI("http://e/p"))
	q = rdf.Bound(rdf.IRI("http://e/q"))
)

func tp(s, pr, o rdf.Node) rdf.TriplePattern {
	return rdf.TriplePattern{Subject: s, Predicate: pr, Object: o}
}

func triple(s, pr, o rdf.Node) Triple {
	return Triple{Pattern: tp(s, pr, o)}
}

func intPtr(n int) *int { return &n }

// sampleTree touches every expression-bearing node. Each comparison in it
// uses op, so flipping op is observable as a whole-tree difference.
func sampleTree(op BinaryOp) Algebra {
	inner := &Query{
		Form:    Select{Variables: []string{"x"}},
		Algebra: Filter{Child: triple(x, q, z), Condition: Binary{Op: op, Left: Var("z"), Right: Const(rdf.Integer(2))}},
	}
	where := LeftOuterJoin{
		Left: BGP{Triples: []rdf.TriplePattern{tp(x, p, y), tp(y, q, z)}},
		Right: Union{
			Left:  Path{Subject: x, Path: ZeroOrMore{Path: Link{IRI: "http://e/p"}}, Object: y},
			Right: Subquery{Query: inner},
		},
		Condition: Binary{Op: op, Left: Var("x"), Right: Var("y")},
	}
	filtered := Filter{
		Child: Minus{Left: where, Right: triple(x, q, rdf.Bound(rdf.String("gone")))},
		Condition: Exists{Pattern: Filter{
			Child:     triple(z, p, x),
			Condition: Binary{Op: op, Left: Var("z"), Right: Var("x")},
		}},
	}
	agg := Aggregate{
		Child:        filtered,
		Groups:       []Expression{Var("x")},
		Aggregations: []AggregationMapping{{Aggregation: Aggregation{Kind: Count, Expr: Var("y")}, Variable: ".agg-1"}},
	}
	having := Filter{Child: agg, Condition: Binary{Op: op, Left: Var(".agg-1"), Right: Const(rdf.Integer(1))}}
	return Slice{
		Limit: intPtr(10),
		Child: Distinct{Child: Project{
			Variables: []string{"x", "n"},
			Child: Order{
				Comparators: []Comparator{{Ascending: true, Expr: Var("x")}},
				Child:       Extend{Child: having, Expr: Var(".agg-1"), Variable: "n"},
			},
		}},
	}
}

// countOps counts binary operators op in a, including EXISTS patterns and
// subqueries.
func countOps(a Algebra, op BinaryOp) int {
	n := 0
	var visit func(Expression)
	visit = func(e Expression) {
		switch e := e.(type) {
		case Binary:
			if e.Op == op {
				n++
			}
		case Exists:
			n += countOps(e.Pattern, op)
		}
		for _, c := range exprChildren(e) {
			visit(c)
		}
	}
	Walk(a, func(node Algebra) bool {
		if sq, ok := node.(Subquery); ok {
			n += countOps(sq.Query.Algebra, op)
			return false
		}
		for _, e := range localExpressions(node) {
			visit(e)
		}
		return true
	})
	return n
}
