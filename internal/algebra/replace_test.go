package algebra

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsyntax/internal/rdf"
)

func flipEquality(e Expression) (Expression, bool, error) {
	b, ok := e.(Binary)
	if !ok || b.Op != OpEq {
		return nil, false, nil
	}
	left, err := ReplaceExpression(b.Left, flipEquality)
	if err != nil {
		return nil, false, err
	}
	right, err := ReplaceExpression(b.Right, flipEquality)
	if err != nil {
		return nil, false, err
	}
	return Binary{Op: OpNe, Left: left, Right: right}, true, nil
}

func TestReplace_NoOpIsIdentity(t *testing.T) {
	tree := sampleTree(OpEq)

	got, err := ReplaceAlgebra(tree, func(Algebra) (Algebra, bool, error) { return nil, false, nil })
	require.NoError(t, err)
	assert.Equal(t, tree, got)

	got, err = ReplaceExpressions(tree, func(Expression) (Expression, bool, error) { return nil, false, nil })
	require.NoError(t, err)
	assert.Equal(t, tree, got)

	assert.Equal(t, tree, ReplaceNodes(tree, func(n rdf.Node) (rdf.Node, bool) { return n, false }))
}

func TestReplaceExpressions_FlipsEveryComparison(t *testing.T) {
	tree := sampleTree(OpEq)
	require.Equal(t, 4, countOps(tree, OpEq))

	got, err := ReplaceExpressions(tree, flipEquality)
	require.NoError(t, err)

	assert.Equal(t, sampleTree(OpNe), got)
	assert.Zero(t, countOps(got, OpEq))
	assert.Equal(t, 4, countOps(got, OpNe))
}

func TestReplaceAlgebra_StopsAtReplacement(t *testing.T) {
	tree := InnerJoin{Left: triple(x, p, y), Right: Filter{Child: triple(y, p, z), Condition: Var("z")}}

	got, err := ReplaceAlgebra(tree, func(a Algebra) (Algebra, bool, error) {
		if _, ok := a.(Filter); ok {
			return JoinIdentity{}, true, nil
		}
		return nil, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, InnerJoin{Left: triple(x, p, y), Right: JoinIdentity{}}, got)
}

func TestReplaceAlgebra_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := ReplaceAlgebra(sampleTree(OpEq), func(a Algebra) (Algebra, bool, error) {
		if _, ok := a.(Path); ok {
			return nil, false, boom
		}
		return nil, false, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestReplaceNodes_ReachesPatternsAndExpressions(t *testing.T) {
	tree := Filter{
		Child:     BGP{Triples: []rdf.TriplePattern{tp(x, p, y)}},
		Condition: Exists{Pattern: triple(y, q, x)},
	}
	renamed := ReplaceNodes(tree, func(n rdf.Node) (rdf.Node, bool) {
		if n.IsVariable() && n.Name() == "x" {
			return rdf.Var("w"), true
		}
		return n, false
	})

	w := rdf.Var("w")
	assert.Equal(t, Filter{
		Child:     BGP{Triples: []rdf.TriplePattern{tp(w, p, y)}},
		Condition: Exists{Pattern: triple(y, q, w)},
	}, renamed)
}

func TestBind(t *testing.T) {
	alice := rdf.Bound(rdf.IRI("http://e/alice"))

	tests := []struct {
		name     string
		input    Algebra
		preserve bool
		want     Algebra
	}{
		{
			name:  "substitutes patterns and filters",
			input: Filter{Child: triple(x, p, y), Condition: Binary{Op: OpEq, Left: Var("x"), Right: Var("y")}},
			want:  Filter{Child: triple(alice, p, y), Condition: Binary{Op: OpEq, Left: NodeExpr{Node: alice}, Right: Var("y")}},
		},
		{
			name:  "drops projected variable",
			input: Project{Child: triple(x, p, y), Variables: []string{"x", "y"}},
			want:  Project{Child: triple(alice, p, y), Variables: []string{"y"}},
		},
		{
			name:     "preserves projected variable",
			input:    Project{Child: triple(x, p, y), Variables: []string{"x", "y"}},
			preserve: true,
			want: Project{
				Child:     Extend{Child: triple(alice, p, y), Expr: NodeExpr{Node: alice}, Variable: "x"},
				Variables: []string{"x", "y"},
			},
		},
		{
			name:  "leaves subqueries alone",
			input: InnerJoin{Left: triple(x, p, y), Right: Subquery{Query: &Query{Form: Select{Star: true}, Algebra: triple(x, q, z)}}},
			want:  InnerJoin{Left: triple(alice, p, y), Right: Subquery{Query: &Query{Form: Select{Star: true}, Algebra: triple(x, q, z)}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Bind(tt.input, "x", alice, tt.preserve)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBind_RejectsExtendedVariable(t *testing.T) {
	_, err := Bind(Extend{Child: triple(y, p, z), Expr: Var("y"), Variable: "x"}, "x", p, false)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "?x")
}
