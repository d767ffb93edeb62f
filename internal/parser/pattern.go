package parser

import (
	"errors"
	"slices"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/rdf"
	"github.com/roach88/sparqlsyntax/internal/rewrite"
)

// groupBuilder accumulates the elements of one group graph pattern.
type groupBuilder struct {
	fragments []algebra.Algebra
	filters   []algebra.Expression
	blocks    [][]algebra.Algebra
}

// reduce collapses the accumulated fragments into one.
func (g *groupBuilder) reduce() algebra.Algebra {
	acc := rewrite.ReduceJoins(g.fragments)
	g.fragments = nil
	return acc
}

func (g *groupBuilder) add(block algebra.Algebra, fragment algebra.Algebra) {
	g.blocks = append(g.blocks, []algebra.Algebra{block})
	g.fragments = append(g.fragments, fragment)
}

// startsTriples reports whether t can begin a triples block.
func startsTriples(t lexer.PositionedToken) bool {
	return startsTerm(t) || t.Kind == lexer.LBracket || t.Kind == lexer.LParen
}

// startsVerb reports whether t can begin a predicate.
func startsVerb(t lexer.PositionedToken, allowPaths bool) bool {
	switch t.Kind {
	case lexer.Variable, lexer.IRI, lexer.PrefixedName:
		return true
	case lexer.Keyword:
		return t.Value == "A"
	case lexer.Hat, lexer.Bang, lexer.LParen:
		return allowPaths
	}
	return false
}

// parseGroupGraphPattern parses "{ ... }" into algebra. A group holding a
// sub-select becomes a Subquery.
func (p *Parser) parseGroupGraphPattern() (algebra.Algebra, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	sub, err := p.peekKeyword("SELECT")
	if err != nil {
		return nil, err
	}
	if sub {
		q, err := p.parseSelectQuery(true)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBrace); err != nil {
			return nil, err
		}
		return algebra.Subquery{Query: q}, nil
	}

	var g groupBuilder
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind == lexer.RBrace {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			return p.finishGroup(&g)
		}
		if startsTriples(t) {
			frags, err := p.parseTriplesBlock(true)
			if err != nil {
				return nil, err
			}
			block := rewrite.SimplifyPaths(frags)
			g.add(block, block)
			continue
		}
		if err := p.parseGraphPatternNotTriples(t, &g); err != nil {
			return nil, err
		}
		if _, err := p.attempt(lexer.Dot); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseGraphPatternNotTriples(t lexer.PositionedToken, g *groupBuilder) error {
	switch {
	case t.Kind == lexer.LBrace:
		u, err := p.parseUnion()
		if err != nil {
			return err
		}
		g.add(u, u)
		return nil
	case t.Kind != lexer.Keyword:
		if _, err := p.next(); err != nil {
			return err
		}
		return p.unexpected(t, "graph pattern")
	}
	if _, err := p.next(); err != nil {
		return err
	}
	switch t.Value {
	case "FILTER":
		cond, err := p.parseConstraint()
		if err != nil {
			return err
		}
		g.filters = append(g.filters, cond)
		g.blocks = append(g.blocks, []algebra.Algebra{algebra.Filter{Child: algebra.JoinIdentity{}, Condition: cond}})
	case "OPTIONAL":
		opt, err := p.parseGroupGraphPattern()
		if err != nil {
			return err
		}
		cond := algebra.True
		if f, ok := opt.(algebra.Filter); ok {
			opt, cond = f.Child, f.Condition
		}
		left := g.reduce()
		g.blocks = append(g.blocks, []algebra.Algebra{opt, algebra.Filter{Child: algebra.JoinIdentity{}, Condition: cond}})
		g.fragments = append(g.fragments, algebra.LeftOuterJoin{Left: left, Right: opt, Condition: cond})
	case "MINUS":
		right, err := p.parseGroupGraphPattern()
		if err != nil {
			return err
		}
		left := g.reduce()
		g.blocks = append(g.blocks, []algebra.Algebra{right})
		g.fragments = append(g.fragments, algebra.Minus{Left: left, Right: right})
	case "BIND":
		return p.parseBind(g)
	case "GRAPH":
		graph, err := p.parseVarOrIRI()
		if err != nil {
			return err
		}
		child, err := p.parseGroupGraphPattern()
		if err != nil {
			return err
		}
		ng := algebra.NamedGraph{Child: child, Graph: graph}
		g.add(ng, ng)
	case "SERVICE":
		silent, err := p.attemptKeyword("SILENT")
		if err != nil {
			return err
		}
		et, err := p.next()
		if err != nil {
			return err
		}
		if et.Kind == lexer.Variable {
			return p.errorAt(et, CodeUnexpectedToken, "SERVICE endpoint must be an IRI")
		}
		endpoint, err := p.iriFromToken(et)
		if err != nil {
			return err
		}
		child, err := p.parseGroupGraphPattern()
		if err != nil {
			return err
		}
		s := algebra.Service{Endpoint: endpoint, Child: child, Silent: silent}
		g.add(s, s)
	case "VALUES":
		table, err := p.parseDataBlock()
		if err != nil {
			return err
		}
		g.add(table, table)
	default:
		return p.unexpected(t, "graph pattern")
	}
	return nil
}

// parseBind parses "BIND ( expr AS ?v )". The variable must not already
// be in scope in the group so far.
func (p *Parser) parseBind(g *groupBuilder) error {
	if _, err := p.expect(lexer.LParen); err != nil {
		return err
	}
	e, err := p.parseExpression()
	if err != nil {
		return err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return err
	}
	v, err := p.expect(lexer.Variable)
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return err
	}
	left := g.reduce()
	if slices.Contains(algebra.InScope(left), v.Value) {
		return p.errorAt(v, CodeScope, "variable ?%s is already in scope and cannot be bound by BIND", v.Value)
	}
	g.blocks = append(g.blocks, []algebra.Algebra{algebra.Extend{Child: algebra.JoinIdentity{}, Expr: e, Variable: v.Value}})
	g.fragments = append(g.fragments, algebra.Extend{Child: left, Expr: e, Variable: v.Value})
	return nil
}

// parseUnion parses one or more groups joined by UNION.
func (p *Parser) parseUnion() (algebra.Algebra, error) {
	left, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.attemptKeyword("UNION")
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		if err := p.checkBlanks([][]algebra.Algebra{{left}, {right}}); err != nil {
			return nil, err
		}
		left = algebra.Union{Left: left, Right: right}
	}
}

// finishGroup joins the group's fragments, applies its filters to the
// whole group and checks blank node labels across its blocks.
func (p *Parser) finishGroup(g *groupBuilder) (algebra.Algebra, error) {
	body := rewrite.ReduceJoins(g.fragments)
	if len(g.filters) > 0 {
		cond := algebra.And(g.filters...)
		if f, ok := body.(algebra.Filter); ok {
			body = algebra.Filter{Child: f.Child, Condition: algebra.And(f.Condition, cond)}
		} else {
			body = algebra.Filter{Child: body, Condition: cond}
		}
	}
	if err := p.checkBlanks(g.blocks); err != nil {
		return nil, err
	}
	if p.blanksAsVars {
		body = rewrite.BlankNodesToVariables(body)
	}
	return body, nil
}

func (p *Parser) checkBlanks(blocks [][]algebra.Algebra) error {
	_, err := rewrite.CheckBlankNodeReuse(blocks)
	var reuse *rewrite.BlankReuseError
	if errors.As(err, &reuse) {
		label := p.userLabel(reuse.Label)
		pe := p.fail(CodeBlankNodeReuse, "blank node label _:%s used in more than one block", label).(*ParsingError)
		pe.Err = err
		return pe
	}
	return err
}

// parseTriplesBlock parses dot-separated triples and returns one fragment
// per triple or path.
func (p *Parser) parseTriplesBlock(allowPaths bool) ([]algebra.Algebra, error) {
	var frags []algebra.Algebra
	for {
		f, err := p.parseTriplesSameSubject(allowPaths)
		if err != nil {
			return nil, err
		}
		frags = append(frags, f...)
		dot, err := p.attempt(lexer.Dot)
		if err != nil {
			return nil, err
		}
		if !dot {
			return frags, nil
		}
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !startsTriples(t) {
			return frags, nil
		}
	}
}

func (p *Parser) parseTriplesSameSubject(allowPaths bool) ([]algebra.Algebra, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.Kind == lexer.LBracket || t.Kind == lexer.LParen {
		subject, frags, err := p.parseTriplesNode(allowPaths)
		if err != nil {
			return nil, err
		}
		nt, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !startsVerb(nt, allowPaths) {
			return frags, nil
		}
		more, err := p.parsePropertyList(subject, allowPaths)
		if err != nil {
			return nil, err
		}
		return append(frags, more...), nil
	}
	subject, err := p.parseVarOrTerm()
	if err != nil {
		return nil, err
	}
	return p.parsePropertyList(subject, allowPaths)
}

// verb is a predicate: a plain node or, in patterns, a property path.
type verb struct {
	node rdf.Node
	path algebra.PropertyPath
}

func (v verb) pattern(s, o rdf.Node) algebra.Algebra {
	if v.path != nil {
		return algebra.Path{Subject: s, Path: v.path, Object: o}
	}
	return algebra.Triple{Pattern: rdf.TriplePattern{Subject: s, Predicate: v.node, Object: o}}
}

// parsePropertyList parses a non-empty predicate-object list for subject.
func (p *Parser) parsePropertyList(subject rdf.Node, allowPaths bool) ([]algebra.Algebra, error) {
	var frags []algebra.Algebra
	for {
		v, err := p.parseVerb(allowPaths)
		if err != nil {
			return nil, err
		}
		for {
			object, objFrags, err := p.parseGraphNode(allowPaths)
			if err != nil {
				return nil, err
			}
			frags = append(frags, v.pattern(subject, object))
			frags = append(frags, objFrags...)
			comma, err := p.attempt(lexer.Comma)
			if err != nil {
				return nil, err
			}
			if !comma {
				break
			}
		}
		semi := false
		for {
			ok, err := p.attempt(lexer.Semicolon)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			semi = true
		}
		if !semi {
			return frags, nil
		}
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !startsVerb(t, allowPaths) {
			return frags, nil
		}
	}
}

func (p *Parser) parseVerb(allowPaths bool) (verb, error) {
	t, err := p.peek()
	if err != nil {
		return verb{}, err
	}
	if t.Kind == lexer.Variable {
		_, err := p.next()
		return verb{node: rdf.Var(t.Value)}, err
	}
	if allowPaths {
		path, err := p.parsePath()
		return verb{path: path}, err
	}
	if _, err := p.next(); err != nil {
		return verb{}, err
	}
	if t.Is("A") {
		return verb{node: rdf.Bound(rdf.IRI(rdf.RDFType))}, nil
	}
	v, err := p.iriFromToken(t)
	if err != nil {
		return verb{}, err
	}
	return verb{node: rdf.Bound(rdf.IRI(v))}, nil
}

// parseGraphNode parses an object: a term, a variable, or a blank node
// property list or collection together with the fragments it generates.
func (p *Parser) parseGraphNode(allowPaths bool) (rdf.Node, []algebra.Algebra, error) {
	t, err := p.peek()
	if err != nil {
		return rdf.Node{}, nil, err
	}
	if t.Kind == lexer.LBracket || t.Kind == lexer.LParen {
		return p.parseTriplesNode(allowPaths)
	}
	n, err := p.parseVarOrTerm()
	return n, nil, err
}

// parseTriplesNode parses "[ propertyList ]" or "( items )" and returns
// the node standing for it.
func (p *Parser) parseTriplesNode(allowPaths bool) (rdf.Node, []algebra.Algebra, error) {
	t, err := p.next()
	if err != nil {
		return rdf.Node{}, nil, err
	}
	if t.Kind == lexer.LBracket {
		subject := rdf.Bound(p.freshBlank())
		frags, err := p.parsePropertyList(subject, allowPaths)
		if err != nil {
			return rdf.Node{}, nil, err
		}
		if _, err := p.expect(lexer.RBracket); err != nil {
			return rdf.Node{}, nil, err
		}
		return subject, frags, nil
	}

	var items []rdf.Node
	var itemFrags []algebra.Algebra
	for {
		end, err := p.attempt(lexer.RParen)
		if err != nil {
			return rdf.Node{}, nil, err
		}
		if end {
			break
		}
		n, f, err := p.parseGraphNode(allowPaths)
		if err != nil {
			return rdf.Node{}, nil, err
		}
		items = append(items, n)
		itemFrags = append(itemFrags, f...)
	}
	if len(items) == 0 {
		return rdf.Bound(rdf.IRI(rdf.RDFNil)), nil, nil
	}
	heads := make([]rdf.Node, len(items))
	for i := range heads {
		heads[i] = rdf.Bound(p.freshBlank())
	}
	first := rdf.Bound(rdf.IRI(rdf.RDFFirst))
	rest := rdf.Bound(rdf.IRI(rdf.RDFRest))
	var frags []algebra.Algebra
	for i, item := range items {
		next := rdf.Bound(rdf.IRI(rdf.RDFNil))
		if i+1 < len(heads) {
			next = heads[i+1]
		}
		frags = append(frags,
			algebra.Triple{Pattern: rdf.TriplePattern{Subject: heads[i], Predicate: first, Object: item}},
			algebra.Triple{Pattern: rdf.TriplePattern{Subject: heads[i], Predicate: rest, Object: next}},
		)
	}
	return heads[0], append(frags, itemFrags...), nil
}

// parsePath parses a property path: alternatives of sequences of
// optionally inverted, optionally modified primaries.
func (p *Parser) parsePath() (algebra.PropertyPath, error) {
	left, err := p.parsePathSequence()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.attempt(lexer.Pipe)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parsePathSequence()
		if err != nil {
			return nil, err
		}
		left = algebra.Alternative{Left: left, Right: right}
	}
}

func (p *Parser) parsePathSequence() (algebra.PropertyPath, error) {
	left, err := p.parsePathEltOrInverse()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.attempt(lexer.Slash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parsePathEltOrInverse()
		if err != nil {
			return nil, err
		}
		left = algebra.Sequence{Left: left, Right: right}
	}
}

func (p *Parser) parsePathEltOrInverse() (algebra.PropertyPath, error) {
	inverse, err := p.attempt(lexer.Hat)
	if err != nil {
		return nil, err
	}
	elt, err := p.parsePathElt()
	if err != nil {
		return nil, err
	}
	if inverse {
		return algebra.Inverse{Path: elt}, nil
	}
	return elt, nil
}

func (p *Parser) parsePathElt() (algebra.PropertyPath, error) {
	primary, err := p.parsePathPrimary()
	if err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	var out algebra.PropertyPath
	switch t.Kind {
	case lexer.Question:
		out = algebra.ZeroOrOne{Path: primary}
	case lexer.Star:
		out = algebra.ZeroOrMore{Path: primary}
	case lexer.Plus:
		out = algebra.OneOrMore{Path: primary}
	default:
		return primary, nil
	}
	_, err = p.next()
	return out, err
}

func (p *Parser) parsePathPrimary() (algebra.PropertyPath, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	switch {
	case t.Is("A"):
		return algebra.Link{IRI: rdf.RDFType}, nil
	case t.Kind == lexer.IRI || t.Kind == lexer.PrefixedName:
		v, err := p.iriFromToken(t)
		return algebra.Link{IRI: v}, err
	case t.Kind == lexer.Bang:
		return p.parseNegatedSet()
	case t.Kind == lexer.LParen:
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return path, nil
	}
	return nil, p.unexpected(t, "property path")
}

// parseNegatedSet parses the operand of "!". Forward and inverse members
// are split into two sets; when both are present the result is their
// alternative.
func (p *Parser) parseNegatedSet() (algebra.PropertyPath, error) {
	var forward, inverse []string
	member := func() error {
		inv, err := p.attempt(lexer.Hat)
		if err != nil {
			return err
		}
		t, err := p.next()
		if err != nil {
			return err
		}
		var v string
		if t.Is("A") {
			v = rdf.RDFType
		} else if v, err = p.iriFromToken(t); err != nil {
			return err
		}
		if inv {
			inverse = append(inverse, v)
		} else {
			forward = append(forward, v)
		}
		return nil
	}

	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case lexer.Nil:
		if _, err := p.next(); err != nil {
			return nil, err
		}
	case lexer.LParen:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		for {
			if err := member(); err != nil {
				return nil, err
			}
			sep, err := p.next()
			if err != nil {
				return nil, err
			}
			if sep.Kind == lexer.RParen {
				break
			}
			if sep.Kind != lexer.Pipe {
				return nil, p.unexpected(sep, "'|' or ')'")
			}
		}
	default:
		if err := member(); err != nil {
			return nil, err
		}
	}

	switch {
	case inverse == nil:
		return algebra.NegatedSet{IRIs: forward}, nil
	case forward == nil:
		return algebra.Inverse{Path: algebra.NegatedSet{IRIs: inverse}}, nil
	}
	return algebra.Alternative{
		Left:  algebra.NegatedSet{IRIs: forward},
		Right: algebra.Inverse{Path: algebra.NegatedSet{IRIs: inverse}},
	}, nil
}

// parseDataBlock parses the body of VALUES into a Table.
func (p *Parser) parseDataBlock() (algebra.Table, error) {
	t, err := p.next()
	if err != nil {
		return algebra.Table{}, err
	}
	switch t.Kind {
	case lexer.Variable:
		table := algebra.Table{Variables: []string{t.Value}}
		if _, err := p.expect(lexer.LBrace); err != nil {
			return table, err
		}
		for {
			end, err := p.attempt(lexer.RBrace)
			if err != nil || end {
				return table, err
			}
			cell, err := p.parseDataValue()
			if err != nil {
				return table, err
			}
			table.Rows = append(table.Rows, []*rdf.Term{cell})
		}
	case lexer.Nil, lexer.LParen:
	default:
		return algebra.Table{}, p.unexpected(t, "VALUES variables")
	}

	table := algebra.Table{Variables: []string{}}
	if t.Kind == lexer.LParen {
		for {
			v, err := p.next()
			if err != nil {
				return table, err
			}
			if v.Kind == lexer.RParen {
				break
			}
			if v.Kind != lexer.Variable {
				return table, p.unexpected(v, "variable")
			}
			table.Variables = append(table.Variables, v.Value)
		}
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return table, err
	}
	for {
		r, err := p.next()
		if err != nil {
			return table, err
		}
		row := []*rdf.Term{}
		switch r.Kind {
		case lexer.RBrace:
			return table, nil
		case lexer.Nil:
		case lexer.LParen:
			for {
				end, err := p.attempt(lexer.RParen)
				if err != nil {
					return table, err
				}
				if end {
					break
				}
				cell, err := p.parseDataValue()
				if err != nil {
					return table, err
				}
				row = append(row, cell)
			}
		default:
			return table, p.unexpected(r, "VALUES row")
		}
		if len(row) != len(table.Variables) {
			return table, p.errorAt(r, CodeArity, "VALUES row has %d values for %d variables", len(row), len(table.Variables))
		}
		table.Rows = append(table.Rows, row)
	}
}

// parseDataValue parses one VALUES cell. UNDEF yields nil.
func (p *Parser) parseDataValue() (*rdf.Term, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case t.Is("UNDEF"):
		_, err := p.next()
		return nil, err
	case t.Kind == lexer.Variable || t.Kind == lexer.BlankNode || t.Kind == lexer.Anon:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return nil, p.unexpected(t, "VALUES data value")
	}
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return &term, nil
}
