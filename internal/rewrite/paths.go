package rewrite

import (
	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// SimplifyPath turns a path over a single link into the equivalent
// triple pattern. Other fragments are returned unchanged.
func SimplifyPath(a algebra.Algebra) algebra.Algebra {
	p, ok := a.(algebra.Path)
	if !ok {
		return a
	}
	link, ok := p.Path.(algebra.Link)
	if !ok {
		return a
	}
	return algebra.Triple{Pattern: rdf.TriplePattern{
		Subject:   p.Subject,
		Predicate: rdf.Bound(rdf.IRI(link.IRI)),
		Object:    p.Object,
	}}
}

// SimplifyPaths simplifies each fragment of a property list and merges
// the result into as few nodes as join reduction allows.
func SimplifyPaths(fragments []algebra.Algebra) algebra.Algebra {
	out := make([]algebra.Algebra, len(fragments))
	for i, f := range fragments {
		out[i] = SimplifyPath(f)
	}
	return ReduceJoins(out)
}
