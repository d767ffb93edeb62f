package rdf

// Triple is a ground RDF triple.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Quad is a ground RDF triple in a named graph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// TriplePattern is a triple whose positions may be variables.
type TriplePattern struct {
	Subject   Node
	Predicate Node
	Object    Node
}

// QuadPattern is a quad whose positions may be variables.
type QuadPattern struct {
	Subject   Node
	Predicate Node
	Object    Node
	Graph     Node
}

// Nodes returns the pattern positions in subject, predicate, object order.
func (tp TriplePattern) Nodes() []Node {
	return []Node{tp.Subject, tp.Predicate, tp.Object}
}

// Nodes returns the pattern positions in subject, predicate, object, graph order.
func (qp QuadPattern) Nodes() []Node {
	return []Node{qp.Subject, qp.Predicate, qp.Object, qp.Graph}
}

// Bind returns a copy of the pattern with every node passed through f.
func (tp TriplePattern) Bind(f func(Node) Node) TriplePattern {
	return TriplePattern{Subject: f(tp.Subject), Predicate: f(tp.Predicate), Object: f(tp.Object)}
}

// Bind returns a copy of the pattern with every node passed through f.
func (qp QuadPattern) Bind(f func(Node) Node) QuadPattern {
	return QuadPattern{Subject: f(qp.Subject), Predicate: f(qp.Predicate), Object: f(qp.Object), Graph: f(qp.Graph)}
}

// Match unifies the pattern with a ground triple.
// Repeated variables must bind to the same term; bound positions must be
// equal to the corresponding term. On success the variable bindings are
// returned (including non-binding variables).
func (tp TriplePattern) Match(t Triple) (map[string]Term, bool) {
	return match(tp.Nodes(), []Term{t.Subject, t.Predicate, t.Object})
}

// Match unifies the pattern with a ground quad. See TriplePattern.Match.
func (qp QuadPattern) Match(q Quad) (map[string]Term, bool) {
	return match(qp.Nodes(), []Term{q.Subject, q.Predicate, q.Object, q.Graph})
}

func match(nodes []Node, terms []Term) (map[string]Term, bool) {
	bindings := make(map[string]Term, len(nodes))
	for i, n := range nodes {
		t := terms[i]
		if !n.IsVariable() {
			if n.term != t {
				return nil, false
			}
			continue
		}
		if prev, ok := bindings[n.variable]; ok {
			if prev != t {
				return nil, false
			}
			continue
		}
		bindings[n.variable] = t
	}
	return bindings, true
}
