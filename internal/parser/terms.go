package parser

import (
	"strings"

	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

var numericDatatypes = map[lexer.Kind]string{
	lexer.Integer: rdf.XSDInteger,
	lexer.Decimal: rdf.XSDDecimal,
	lexer.Double:  rdf.XSDDouble,
}

// startsTerm reports whether t can begin a VarOrTerm.
func startsTerm(t lexer.PositionedToken) bool {
	switch t.Kind {
	case lexer.Variable, lexer.IRI, lexer.PrefixedName, lexer.BlankNode, lexer.Anon, lexer.Nil,
		lexer.Boolean, lexer.Plus, lexer.Minus:
		return true
	}
	return t.Kind.IsString() || t.Kind.IsNumeric()
}

// parseVarOrTerm consumes a variable or an RDF term.
func (p *Parser) parseVarOrTerm() (rdf.Node, error) {
	t, err := p.peek()
	if err != nil {
		return rdf.Node{}, err
	}
	if t.Kind == lexer.Variable {
		_, err := p.next()
		return rdf.Var(t.Value), err
	}
	term, err := p.parseTerm()
	if err != nil {
		return rdf.Node{}, err
	}
	return rdf.Bound(term), nil
}

// parseVarOrIRI consumes a variable or an IRI.
func (p *Parser) parseVarOrIRI() (rdf.Node, error) {
	t, err := p.next()
	if err != nil {
		return rdf.Node{}, err
	}
	if t.Kind == lexer.Variable {
		return rdf.Var(t.Value), nil
	}
	v, err := p.iriFromToken(t)
	if err != nil {
		return rdf.Node{}, err
	}
	return rdf.Bound(rdf.IRI(v)), nil
}

// parseTerm consumes a GraphTerm: an IRI, literal, blank node or NIL.
func (p *Parser) parseTerm() (rdf.Term, error) {
	t, err := p.next()
	if err != nil {
		return rdf.Term{}, err
	}
	switch {
	case t.Kind == lexer.IRI || t.Kind == lexer.PrefixedName:
		v, err := p.iriFromToken(t)
		return rdf.IRI(v), err
	case t.Kind == lexer.BlankNode:
		return p.blankNode(t.Value), nil
	case t.Kind == lexer.Anon:
		return p.freshBlank(), nil
	case t.Kind == lexer.Nil:
		return rdf.IRI(rdf.RDFNil), nil
	case t.Kind == lexer.Boolean:
		return rdf.TypedLiteral(t.Value, rdf.XSDBoolean), nil
	case t.Kind.IsString():
		return p.parseLiteralSuffix(t.Value)
	case t.Kind.IsNumeric():
		return rdf.TypedLiteral(t.Value, numericDatatypes[t.Kind]), nil
	case t.Kind == lexer.Plus || t.Kind == lexer.Minus:
		n, err := p.next()
		if err != nil {
			return rdf.Term{}, err
		}
		if !n.Kind.IsNumeric() {
			return rdf.Term{}, p.unexpected(n, "numeric literal")
		}
		value := n.Value
		if t.Kind == lexer.Minus {
			value = "-" + value
		}
		return rdf.TypedLiteral(value, numericDatatypes[n.Kind]), nil
	}
	return rdf.Term{}, p.unexpected(t, "RDF term")
}

// parseLiteralSuffix reads an optional language tag or datatype after a
// string literal's lexical form.
func (p *Parser) parseLiteralSuffix(lexical string) (rdf.Term, error) {
	t, err := p.peek()
	if err != nil {
		return rdf.Term{}, err
	}
	switch t.Kind {
	case lexer.LangTag:
		if _, err := p.next(); err != nil {
			return rdf.Term{}, err
		}
		return rdf.LangLiteral(lexical, t.Value), nil
	case lexer.HatHat:
		if _, err := p.next(); err != nil {
			return rdf.Term{}, err
		}
		dt, err := p.parseIRI()
		if err != nil {
			return rdf.Term{}, err
		}
		return rdf.TypedLiteral(lexical, dt), nil
	}
	return rdf.String(lexical), nil
}

// negate folds a unary minus into a numeric literal's lexical form.
func negate(t rdf.Term) rdf.Term {
	if v, ok := strings.CutPrefix(t.Value, "-"); ok {
		t.Value = v
	} else {
		t.Value = "-" + strings.TrimPrefix(t.Value, "+")
	}
	return t
}
