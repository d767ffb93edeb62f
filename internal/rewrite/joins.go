package rewrite

import (
	"slices"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// ReduceJoins folds fragments left to right with JoinReduce, starting from
// the join identity.
func ReduceJoins(fragments []algebra.Algebra) algebra.Algebra {
	var acc algebra.Algebra = algebra.JoinIdentity{}
	for _, f := range fragments {
		acc = JoinReduce(acc, f)
	}
	return acc
}

// JoinReduce joins two fragments. The join identity is dropped, two
// triple or BGP fragments merge into one BGP, and anything else becomes an
// InnerJoin.
func JoinReduce(left, right algebra.Algebra) algebra.Algebra {
	if _, ok := left.(algebra.JoinIdentity); ok {
		return right
	}
	if _, ok := right.(algebra.JoinIdentity); ok {
		return left
	}
	lt, lok := triplesOf(left)
	rt, rok := triplesOf(right)
	if lok && rok {
		return algebra.BGP{Triples: append(slices.Clone(lt), rt...)}
	}
	return algebra.InnerJoin{Left: left, Right: right}
}

func triplesOf(a algebra.Algebra) ([]rdf.TriplePattern, bool) {
	switch a := a.(type) {
	case algebra.Triple:
		return []rdf.TriplePattern{a.Pattern}, true
	case algebra.BGP:
		return a.Triples, true
	}
	return nil, false
}
