package algebra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

func TestExpressionTokens(t *testing.T) {
	tests := []struct {
		name  string
		input Expression
		want  string
	}{
		{name: "comparison", input: Binary{Op: OpGt, Left: Var("x"), Right: Const(rdf.Integer(1))}, want: "( ?x > 1 )"},
		{name: "builtin call", input: Call{Function: "STR", Args: []Expression{Var("y")}}, want: "STR ( ?y )"},
		{name: "function form", input: Binary{Op: OpSameTerm, Left: Var("x"), Right: Var("y")}, want: "SAMETERM ( ?x , ?y )"},
		{name: "negation", input: Unary{Op: OpNot, Expr: Unary{Op: OpBound, Expr: Var("x")}}, want: "( ! BOUND ( ?x ) )"},
		{name: "language literal", input: Const(rdf.LangLiteral("chat", "fr")), want: `"chat"@fr`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := ExpressionTokens(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lexer.Render(toks))
		})
	}
}

func TestQueryTokens_Ask(t *testing.T) {
	toks, err := QueryTokens(&Query{Form: Ask{}, Algebra: triple(x, p, y)})
	require.NoError(t, err)
	assert.Equal(t, "ASK WHERE { ?x <http://e/p> ?y . }", lexer.Render(toks))
}

func TestQueryTokens_BlankVariablesRenderAsLabels(t *testing.T) {
	toks, err := AlgebraTokens(triple(rdf.HiddenVar(BlankVariablePrefix+"b1"), p, y))
	require.NoError(t, err)
	assert.Equal(t, "_:b1 <http://e/p> ?y .", lexer.Render(toks))
}

func TestQueryTokens_AggregationWithoutProjection(t *testing.T) {
	q := &Query{
		Form: Select{Star: true},
		Algebra: Aggregate{
			Child:  triple(x, p, y),
			Groups: []Expression{Var("x")},
		},
	}

	_, err := QueryTokens(q)
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "serialization error")
}

func TestPathTokens(t *testing.T) {
	toks := PathTokens(Sequence{Left: Link{IRI: iriP}, Right: ZeroOrOne{Path: Link{IRI: iriQ}}})
	assert.Equal(t, "( <http://e/p> / <http://e/q> ? )", lexer.Render(toks))
}
