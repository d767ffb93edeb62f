package rdf

// Node is a position in a pattern: either a bound Term or a named variable.
//
// A variable carries a binding flag. Binding variables must appear in the
// output bindings; non-binding variables only constrain pattern matching
// (for example the variables blank nodes are rewritten into).
type Node struct {
	term     Term
	variable string
	isVar    bool
	binding  bool
}

// Bound creates a node holding a term.
func Bound(t Term) Node {
	return Node{term: t}
}

// Var creates a binding variable node.
func Var(name string) Node {
	return Node{variable: name, isVar: true, binding: true}
}

// HiddenVar creates a non-binding variable node.
func HiddenVar(name string) Node {
	return Node{variable: name, isVar: true}
}

// IsVariable reports whether the node is a variable.
func (n Node) IsVariable() bool { return n.isVar }

// IsBound reports whether the node holds a term.
func (n Node) IsBound() bool { return !n.isVar }

// Binds reports whether the node is a variable that binds into results.
func (n Node) Binds() bool { return n.isVar && n.binding }

// Name returns the variable name, or "" for a bound node.
func (n Node) Name() string { return n.variable }

// Term returns the bound term. The second result is false for variables.
func (n Node) Term() (Term, bool) {
	if n.isVar {
		return Term{}, false
	}
	return n.term, true
}

// String renders the node: ?name for variables, N-Triples form for terms.
func (n Node) String() string {
	if n.isVar {
		return "?" + n.variable
	}
	return n.term.String()
}
