package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

func TestJoinReduce(t *testing.T) {
	path := algebra.Path{Subject: s, Path: algebra.OneOrMore{Path: algebra.Link{IRI: "http://e/p"}}, Object: o}

	tests := []struct {
		name        string
		left, right algebra.Algebra
		want        algebra.Algebra
	}{
		{name: "identity on the left", left: algebra.JoinIdentity{}, right: path, want: path},
		{name: "identity on the right", left: path, right: algebra.JoinIdentity{}, want: path},
		{
			name:  "triples merge",
			left:  triple(s, p, o),
			right: triple(o, q, s),
			want:  algebra.BGP{Triples: []rdf.TriplePattern{tp(s, p, o), tp(o, q, s)}},
		},
		{
			name:  "bgp absorbs triple",
			left:  algebra.BGP{Triples: []rdf.TriplePattern{tp(s, p, o)}},
			right: triple(o, q, s),
			want:  algebra.BGP{Triples: []rdf.TriplePattern{tp(s, p, o), tp(o, q, s)}},
		},
		{name: "path joins", left: triple(s, p, o), right: path, want: algebra.InnerJoin{Left: triple(s, p, o), Right: path}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinReduce(tt.left, tt.right))
		})
	}
}

func TestJoinReduce_DoesNotAliasInput(t *testing.T) {
	left := algebra.BGP{Triples: make([]rdf.TriplePattern, 1, 4)}
	left.Triples[0] = tp(s, p, o)

	first := JoinReduce(left, triple(o, q, s)).(algebra.BGP)
	second := JoinReduce(left, triple(s, q, o)).(algebra.BGP)

	assert.Equal(t, tp(o, q, s), first.Triples[1])
	assert.Equal(t, tp(s, q, o), second.Triples[1])
}

func TestReduceJoins(t *testing.T) {
	assert.Equal(t, algebra.JoinIdentity{}, ReduceJoins(nil))

	minus := algebra.Minus{Left: algebra.JoinIdentity{}, Right: triple(s, q, o)}
	got := ReduceJoins([]algebra.Algebra{triple(s, p, o), triple(o, p, s), minus, triple(s, q, s)})
	assert.Equal(t, algebra.InnerJoin{
		Left: algebra.InnerJoin{
			Left:  algebra.BGP{Triples: []rdf.TriplePattern{tp(s, p, o), tp(o, p, s)}},
			Right: minus,
		},
		Right: triple(s, q, s),
	}, got)
}
