package rewrite

import (
	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

var (
	s = rdf.Var("s")
	o = rdf.Var("o")
	p = rdf.Bound(rdf.IRI("http://e/p"))
	q = rdf.Bound(rdf.IRI("http://e/q"))
)

func tp(subj, pred, obj rdf.Node) rdf.TriplePattern {
	return rdf.TriplePattern{Subject: subj, Predicate: pred, Object: obj}
}

func triple(subj, pred, obj rdf.Node) algebra.Triple {
	return algebra.Triple{Pattern: tp(subj, pred, obj)}
}

func blank(label string) rdf.Node {
	return rdf.Bound(rdf.Blank(label))
}
