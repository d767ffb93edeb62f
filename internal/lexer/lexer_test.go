package lexer

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(t *testing.T, input string, opts ...Option) []Token {
	t.Helper()
	pts, err := Tokenize(input, opts...)
	require.NoError(t, err)
	out := make([]Token, len(pts))
	for i, pt := range pts {
		out[i] = pt.Token
	}
	return out
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func lexError(t *testing.T, input string) *LexicalError {
	t.Helper()
	_, err := Tokenize(input)
	require.Error(t, err)
	var le *LexicalError
	require.True(t, errors.As(err, &le), "expected LexicalError, got %T", err)
	return le
}

func TestSimpleQuery(t *testing.T) {
	got := tokens(t, "SELECT ?x WHERE { ?x a <http://example.org/T> . }")
	assert.Equal(t, []Token{
		{Kind: Keyword, Value: "SELECT"},
		{Kind: Variable, Value: "x"},
		{Kind: Keyword, Value: "WHERE"},
		{Kind: LBrace},
		{Kind: Variable, Value: "x"},
		{Kind: Keyword, Value: "A"},
		{Kind: IRI, Value: "http://example.org/T"},
		{Kind: Dot},
		{Kind: RBrace},
	}, got)
}

func TestNumericPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  []Token
	}{
		{"1.0e5", []Token{{Kind: Double, Value: "1.0e5"}}},
		{"1.e5", []Token{{Kind: Double, Value: "1.e5"}}},
		{".5E-3", []Token{{Kind: Double, Value: ".5E-3"}}},
		{"2e10", []Token{{Kind: Double, Value: "2e10"}}},
		{"1.5", []Token{{Kind: Decimal, Value: "1.5"}}},
		{".5", []Token{{Kind: Decimal, Value: ".5"}}},
		{"5", []Token{{Kind: Integer, Value: "5"}}},
		{"1.", []Token{{Kind: Integer, Value: "1"}, {Kind: Dot}}},
		{"-3", []Token{{Kind: Minus}, {Kind: Integer, Value: "3"}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tokens(t, tt.input))
		})
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Token
	}{
		{"double", `"abc"`, Token{Kind: String1D, Value: "abc"}},
		{"single", `'abc'`, Token{Kind: String1S, Value: "abc"}},
		{"empty", `""`, Token{Kind: String1D, Value: ""}},
		{"escapes", `"a\nb\t\"c\"\\"`, Token{Kind: String1D, Value: "a\nb\t\"c\"\\"}},
		{"escaped apostrophe", `'don\'t'`, Token{Kind: String1S, Value: "don't"}},
		{"long double", `"""a
b"""`, Token{Kind: String3D, Value: "a\nb"}},
		{"long embedded quotes", `"""a""b"""`, Token{Kind: String3D, Value: `a""b`}},
		{"long trailing apostrophes", `'''x''''''`, Token{Kind: String3S, Value: "x'''"}},
		{"eight quotes", `""""""""`, Token{Kind: String3D, Value: `""`}},
		{"codepoint escape", `"A\U0001F600"`, Token{Kind: String1D, Value: "A\U0001F600"}},
		{"escaped backslash before u", `"\\u0041"`, Token{Kind: String1D, Value: `\u0041`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []Token{tt.want}, tokens(t, tt.input))
		})
	}
}

func TestLanguageTag(t *testing.T) {
	got := tokens(t, `"chat"@fr-BE`)
	assert.Equal(t, []Token{
		{Kind: String1D, Value: "chat"},
		{Kind: LangTag, Value: "fr-BE"},
	}, got)
}

func TestComments(t *testing.T) {
	input := "# leading\n?x # trailing"
	assert.Equal(t, []Token{{Kind: Variable, Value: "x"}}, tokens(t, input))
	assert.Equal(t, []Token{
		{Kind: Comment, Value: " leading"},
		{Kind: Variable, Value: "x"},
		{Kind: Comment, Value: " trailing"},
	}, tokens(t, input, WithComments()))
}

func TestNilAndAnon(t *testing.T) {
	assert.Equal(t, []Kind{Nil, Anon, Nil}, kinds(tokens(t, "( ) [\n] ()")))
	assert.Equal(t, []Kind{LParen, Variable, RParen}, kinds(tokens(t, "(?x)")))
	assert.Equal(t, []Kind{LBracket, Keyword, Variable, RBracket}, kinds(tokens(t, "[ a ?t ]")))
}

func TestAngleBracketDisambiguation(t *testing.T) {
	tests := []struct {
		input string
		want  []Kind
	}{
		{"<http://example.org/>", []Kind{IRI}},
		{"<>", []Kind{IRI}},
		{"?a <= ?b", []Kind{Variable, LE, Variable}},
		{"?a < ?b", []Kind{Variable, LT, Variable}},
		{"?a<?b", []Kind{Variable, LT, Variable}},
		{"?a >= ?b", []Kind{Variable, GE, Variable}},
		{"?a > ?b", []Kind{Variable, GT, Variable}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(tokens(t, tt.input)))
		})
	}
}

func TestOperators(t *testing.T) {
	got := kinds(tokens(t, "^^ ^ && || | != ! = , ; + - * / ?"))
	assert.Equal(t, []Kind{
		HatHat, Hat, And, Or, Pipe, NotEquals, Bang, Equals,
		Comma, Semicolon, Plus, Minus, Star, Slash, Question,
	}, got)
}

func TestPrefixedNames(t *testing.T) {
	tests := []struct {
		input string
		want  []Token
	}{
		{"ex:foo", []Token{{Kind: PrefixedName, Prefix: "ex", Value: "foo"}}},
		{":bar", []Token{{Kind: PrefixedName, Prefix: "", Value: "bar"}}},
		{"ex:", []Token{{Kind: PrefixedName, Prefix: "ex", Value: ""}}},
		{"ex:a.b.", []Token{{Kind: PrefixedName, Prefix: "ex", Value: "a.b"}, {Kind: Dot}}},
		{"ex:a%20b", []Token{{Kind: PrefixedName, Prefix: "ex", Value: "a%20b"}}},
		{`ex:a\~b`, []Token{{Kind: PrefixedName, Prefix: "ex", Value: "a~b"}}},
		{"ex:1x", []Token{{Kind: PrefixedName, Prefix: "ex", Value: "1x"}}},
		{"ex:a:b", []Token{{Kind: PrefixedName, Prefix: "ex", Value: "a:b"}}},
		{"a.b:c", []Token{{Kind: PrefixedName, Prefix: "a.b", Value: "c"}}},
		{"ex:é", []Token{{Kind: PrefixedName, Prefix: "ex", Value: "é"}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tokens(t, tt.input))
		})
	}
}

func TestPercentBacktrack(t *testing.T) {
	l := NewString("ex:a%zz")
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, Token{Kind: PrefixedName, Prefix: "ex", Value: "a"}, tok)

	_, err = l.Next()
	require.Error(t, err)
	assert.True(t, IsLexicalError(err))
}

func TestKeywords(t *testing.T) {
	got := tokens(t, "select Where fIlTeR group_concat true FALSE a")
	assert.Equal(t, []Token{
		{Kind: Keyword, Value: "SELECT"},
		{Kind: Keyword, Value: "WHERE"},
		{Kind: Keyword, Value: "FILTER"},
		{Kind: Keyword, Value: "GROUP_CONCAT"},
		{Kind: Boolean, Value: "true"},
		{Kind: Boolean, Value: "false"},
		{Kind: Keyword, Value: "A"},
	}, got)

	assert.True(t, IsKeyword("optional"))
	assert.False(t, IsKeyword("frobnicate"))
}

func TestUnknownWords(t *testing.T) {
	assert.Equal(t, CodeUnknownKeyword, lexError(t, "frobnicate").Code)
	assert.Equal(t, CodeUnknownKeyword, lexError(t, "A").Code)
}

func TestBlankNodesAndVariables(t *testing.T) {
	got := tokens(t, "_:b1. $x ?y_2 ?")
	assert.Equal(t, []Token{
		{Kind: BlankNode, Value: "b1"},
		{Kind: Dot},
		{Kind: Variable, Value: "x"},
		{Kind: Variable, Value: "y_2"},
		{Kind: Question},
	}, got)
	assert.Equal(t, []Token{{Kind: BlankNode, Value: "a.b"}}, tokens(t, "_:a.b"))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  ErrorCode
	}{
		{"unterminated", `"abc`, CodeUnterminatedString},
		{"newline in short string", "'ab\ncd'", CodeUnterminatedString},
		{"unterminated long", `"""abc""`, CodeUnterminatedString},
		{"bad string escape", `"\q"`, CodeInvalidEscape},
		{"bad codepoint escape", `"\u00ZZ"`, CodeInvalidEscape},
		{"truncated codepoint escape", `"\u00`, CodeInvalidEscape},
		{"single ampersand", "&x", CodeUnexpectedCharacter},
		{"stray character", "~", CodeUnexpectedCharacter},
		{"lone dollar", "$ ", CodeUnexpectedCharacter},
		{"bad local escape", `ex:a\q`, CodeInvalidEscape},
		{"escape in iri", `<http://x/\q>`, CodeInvalidIRI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := lexError(t, tt.input)
			assert.Equal(t, tt.code, le.Code)
			assert.Contains(t, le.Error(), "lexical error at")
		})
	}
}

func TestErrorCarriesContext(t *testing.T) {
	le := lexError(t, "SELECT ?x\nWHERE { ?x ~ ?y }")
	assert.Equal(t, 2, le.Position.Line)
	assert.Equal(t, 12, le.Position.Column)
	assert.Equal(t, "~ ?y }", le.Context)
}

func TestPositions(t *testing.T) {
	pts, err := Tokenize("SELECT\n  ?x")
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, pts[0].Start)
	assert.Equal(t, Position{Line: 1, Column: 7, Offset: 6}, pts[0].End)
	assert.Equal(t, Position{Line: 2, Column: 3, Offset: 9}, pts[1].Start)
	assert.Equal(t, Position{Line: 2, Column: 5, Offset: 11}, pts[1].End)
}

func TestPositionsCountSourceCharacters(t *testing.T) {
	pts, err := Tokenize(`"\u0041" ?x`)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, 8, pts[0].End.Offset)
	assert.Equal(t, Position{Line: 1, Column: 10, Offset: 9}, pts[1].Start)
}

func TestEscapedNewlineCountsAsLine(t *testing.T) {
	pts, err := Tokenize(`"""a\u000Ab""" ?x`)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, "a\nb", pts[0].Value)
	assert.Equal(t, 2, pts[1].Start.Line)
}

func TestPositionsMonotonic(t *testing.T) {
	input := `PREFIX ex: <http://example.org/>
SELECT ?s (COUNT(?o) AS ?n)
WHERE {
  ?s ex:p/ex:q* ?o ; a ex:T .
  FILTER(?o != "x"@en && ?o <= 1.5e3)
  OPTIONAL { ?s ex:r [ ex:s (1 2 3) ] }
}
GROUP BY ?s ORDER BY DESC(?n) LIMIT 10`
	pts, err := Tokenize(input)
	require.NoError(t, err)
	require.NotEmpty(t, pts)
	prev := 0
	for _, pt := range pts {
		assert.Less(t, pt.Start.Offset, pt.End.Offset, "token %s", pt)
		assert.GreaterOrEqual(t, pt.Start.Offset, prev, "token %s", pt)
		prev = pt.End.Offset
	}
}

func TestPeekAndUnread(t *testing.T) {
	l := NewString("?a ?b")
	peeked, err := l.Peek()
	require.NoError(t, err)
	again, err := l.Peek()
	require.NoError(t, err)
	assert.Equal(t, peeked, again)

	first, err := l.NextPositioned()
	require.NoError(t, err)
	assert.Equal(t, peeked, first)

	second, err := l.NextPositioned()
	require.NoError(t, err)
	assert.Equal(t, "b", second.Value)

	l.Unread(second)
	assert.Panics(t, func() { l.Unread(first) })

	back, err := l.NextPositioned()
	require.NoError(t, err)
	assert.Equal(t, second, back)

	end, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, EOF, end.Kind)
}

func TestStreamingReader(t *testing.T) {
	src := iotest.OneByteReader(strings.NewReader(`"éé" ?x`))
	l := New(src)
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, Token{Kind: String1D, Value: "éé"}, tok)
	tok, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, Token{Kind: Variable, Value: "x"}, tok)
}

func TestEscapeAcrossBlockBoundary(t *testing.T) {
	input := strings.Repeat(" ", blockSize-5) + `"ab\u0041cd" ?x`
	got := tokens(t, input)
	assert.Equal(t, []Token{
		{Kind: String1D, Value: "abAcd"},
		{Kind: Variable, Value: "x"},
	}, got)
}

func TestLongInput(t *testing.T) {
	var b strings.Builder
	for range 2000 {
		b.WriteString("?s <http://example.org/p> \"value\" .\n")
	}
	pts, err := Tokenize(b.String())
	require.NoError(t, err)
	assert.Len(t, pts, 8000)
	assert.Equal(t, 2000, pts[len(pts)-1].Start.Line)
}

func TestRenderRoundTrip(t *testing.T) {
	input := `SELECT ?x WHERE { ?x ex:p "a\"b"@en , "1"^^xsd:int ; ex:q\~r 'don\'t' , ( ) . FILTER(?x <= 2.5) }`
	first := tokens(t, input)
	rendered := Render(first)
	assert.Equal(t, first, tokens(t, rendered))
	assert.Contains(t, rendered, `"a\"b"@en`)
	assert.Contains(t, rendered, `"1"^^xsd:int`)
	assert.Contains(t, rendered, `ex:q\~r`)
}

func TestTokenText(t *testing.T) {
	assert.Equal(t, "a", Token{Kind: Keyword, Value: "A"}.Text())
	assert.Equal(t, "<http://x/>", Token{Kind: IRI, Value: "http://x/"}.Text())
	assert.Equal(t, `"a\nb"`, Token{Kind: String3D, Value: "a\nb"}.Text())
	assert.Equal(t, `ex:\-a.b\.`, Token{Kind: PrefixedName, Prefix: "ex", Value: "-a.b."}.Text())
	assert.Equal(t, "keyword SELECT", Token{Kind: Keyword, Value: "SELECT"}.String())
	assert.Equal(t, "'<='", LE.String())
}

func TestFindBalanced(t *testing.T) {
	input := "SELECT * WHERE { ?s ?p (1 2) }"
	closer := strings.Index(input, ")")
	span, err := FindBalanced(input, closer, closer+1)
	require.NoError(t, err)
	assert.Equal(t, Span{Start: strings.Index(input, "("), End: closer + 1}, span)

	p := strings.Index(input, "?p")
	span, err = FindBalanced(input, p, p+2)
	require.NoError(t, err)
	assert.Equal(t, Span{Start: strings.Index(input, "{"), End: len(input)}, span)

	one := strings.Index(input, "1")
	span, err = FindBalanced(input, one, one+1)
	require.NoError(t, err)
	assert.Equal(t, Span{Start: strings.Index(input, "("), End: closer + 1}, span)
}

func TestFindBalancedErrors(t *testing.T) {
	_, err := FindBalanced("{ ( }", 0, 1)
	var le *LexicalError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, CodeUnbalanced, le.Code)

	_, err = FindBalanced("{ ?x", 0, 1)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, CodeUnbalanced, le.Code)

	_, err = FindBalanced("?x { }", 0, 2)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, CodeNoEnclosing, le.Code)
}

func TestIsPrefixName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"ex", true},
		{"foaf.v1", true},
		{"dc-terms", true},
		{"été", true},
		{"1ex", false},
		{"_ex", false},
		{"ex.", false},
		{"ex:", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPrefixName(tt.input))
		})
	}
}
