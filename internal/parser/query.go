package parser

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/rdf"
	"github.com/roach88/sparqlsyntax/internal/rewrite"
)

// ParseQuery parses a complete query: prologue, query form, dataset,
// WHERE clause, solution modifiers and a trailing VALUES block. Any token
// left over is an error.
func (p *Parser) ParseQuery() (*algebra.Query, error) {
	if err := p.parsePrologue(); err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	var q *algebra.Query
	switch {
	case t.Is("SELECT"):
		q, err = p.parseSelectQuery(false)
	case t.Is("CONSTRUCT"):
		q, err = p.parseConstructQuery()
	case t.Is("DESCRIBE"):
		q, err = p.parseDescribeQuery()
	case t.Is("ASK"):
		q, err = p.parseAskQuery()
	default:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return nil, p.unexpected(t, "SELECT, CONSTRUCT, DESCRIBE or ASK")
	}
	if err != nil {
		return nil, err
	}
	end, err := p.peek()
	if err != nil {
		return nil, err
	}
	if end.Kind != lexer.EOF {
		return nil, p.errorAt(end, CodeTrailingInput, "unexpected %s after end of query", end.Token)
	}
	p.log.Debug("parsed query",
		"form", strings.ToLower(t.Value),
		"variables", len(q.ProjectedVariables()),
		"base", q.Base,
	)
	return q, nil
}

// parsePrologue reads BASE and PREFIX declarations. Prefix IRIs are
// resolved against the base in effect when they are declared.
func (p *Parser) parsePrologue() error {
	for {
		t, err := p.peek()
		if err != nil {
			return err
		}
		switch {
		case t.Is("BASE"):
			if _, err := p.next(); err != nil {
				return err
			}
			ref, err := p.expect(lexer.IRI)
			if err != nil {
				return err
			}
			base, err := p.resolve(ref.Value)
			if err != nil {
				return err
			}
			p.base = base
		case t.Is("PREFIX"):
			if _, err := p.next(); err != nil {
				return err
			}
			name, err := p.expect(lexer.PrefixedName)
			if err != nil {
				return err
			}
			if name.Value != "" {
				return p.errorAt(name, CodeUnexpectedToken, "expected prefix declaration but found %s", name.Token)
			}
			ref, err := p.expect(lexer.IRI)
			if err != nil {
				return err
			}
			ns, err := p.resolve(ref.Value)
			if err != nil {
				return err
			}
			p.prefixes[name.Prefix] = ns
			p.log.Debug("declared prefix", "prefix", name.Prefix, "iri", ns)
		default:
			return nil
		}
	}
}

// parseDataset reads FROM and FROM NAMED clauses.
func (p *Parser) parseDataset() (*algebra.Dataset, error) {
	d := &algebra.Dataset{}
	for {
		from, err := p.attemptKeyword("FROM")
		if err != nil {
			return nil, err
		}
		if !from {
			return d, nil
		}
		named, err := p.attemptKeyword("NAMED")
		if err != nil {
			return nil, err
		}
		graph, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		if named {
			d.Named = append(d.Named, graph)
		} else {
			d.Default = append(d.Default, graph)
		}
	}
}

func (p *Parser) parseWhereClause() (algebra.Algebra, error) {
	if _, err := p.attemptKeyword("WHERE"); err != nil {
		return nil, err
	}
	return p.parseGroupGraphPattern()
}

// selectItem is one projection: a plain variable or (expr AS ?v).
type selectItem struct {
	variable string
	expr     algebra.Expression
}

type selectClause struct {
	distinct bool
	reduced  bool
	star     bool
	items    []selectItem
}

// variables returns the projected names, keeping the first occurrence
// of a repeated name.
func (c *selectClause) variables() []string {
	out := make([]string, 0, len(c.items))
	for _, item := range c.items {
		if !slices.Contains(out, item.variable) {
			out = append(out, item.variable)
		}
	}
	return out
}

func (p *Parser) parseSelectClause() (*selectClause, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	c := &selectClause{}
	var err error
	if c.distinct, err = p.attemptKeyword("DISTINCT"); err != nil {
		return nil, err
	}
	if !c.distinct {
		if c.reduced, err = p.attemptKeyword("REDUCED"); err != nil {
			return nil, err
		}
	}
	if c.star, err = p.attempt(lexer.Star); err != nil || c.star {
		return c, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case lexer.Variable:
			if _, err := p.next(); err != nil {
				return nil, err
			}
			c.items = append(c.items, selectItem{variable: t.Value})
			continue
		case lexer.LParen:
			if _, err := p.next(); err != nil {
				return nil, err
			}
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectKeyword("AS"); err != nil {
				return nil, err
			}
			v, err := p.expect(lexer.Variable)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RParen); err != nil {
				return nil, err
			}
			if e, err = p.extractor.Extract(e); err != nil {
				return nil, p.wrap(CodeInvalidQuery, err)
			}
			c.items = append(c.items, selectItem{variable: v.Value, expr: e})
			continue
		}
		if len(c.items) == 0 {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			return nil, p.unexpected(t, "variable, expression or '*'")
		}
		return c, nil
	}
}

// groupExtend is a GROUP BY (expr AS ?v) key.
type groupExtend struct {
	expr     algebra.Expression
	variable string
}

// modifiers holds the parsed solution modifiers and trailing VALUES.
type modifiers struct {
	grouped bool
	groups  []algebra.Expression
	extends []groupExtend
	having  []algebra.Expression
	order   []algebra.Comparator
	offset  *int
	limit   *int
	values  *algebra.Table
}

func (p *Parser) parseSolutionModifiers() (modifiers, error) {
	var m modifiers
	group, err := p.attemptKeyword("GROUP")
	if err != nil {
		return m, err
	}
	if group {
		if err := p.parseGroupClause(&m); err != nil {
			return m, err
		}
	}
	having, err := p.attemptKeyword("HAVING")
	if err != nil {
		return m, err
	}
	if having {
		for {
			t, err := p.peek()
			if err != nil {
				return m, err
			}
			if !startsConstraint(t) {
				break
			}
			e, err := p.parseConstraint()
			if err != nil {
				return m, err
			}
			if e, err = p.extractor.Extract(e); err != nil {
				return m, p.wrap(CodeInvalidQuery, err)
			}
			m.having = append(m.having, e)
		}
		if len(m.having) == 0 {
			t, _ := p.next()
			return m, p.unexpected(t, "HAVING condition")
		}
	}
	order, err := p.attemptKeyword("ORDER")
	if err != nil {
		return m, err
	}
	if order {
		if err := p.expectKeyword("BY"); err != nil {
			return m, err
		}
		for {
			t, err := p.peek()
			if err != nil {
				return m, err
			}
			if !startsOrderCondition(t) {
				break
			}
			c, err := p.parseOrderCondition()
			if err != nil {
				return m, err
			}
			if c.Expr, err = p.extractor.Extract(c.Expr); err != nil {
				return m, p.wrap(CodeInvalidQuery, err)
			}
			m.order = append(m.order, c)
		}
		if len(m.order) == 0 {
			t, _ := p.next()
			return m, p.unexpected(t, "ORDER BY condition")
		}
	}
	if err := p.parseLimitOffset(&m); err != nil {
		return m, err
	}
	values, err := p.attemptKeyword("VALUES")
	if err != nil {
		return m, err
	}
	if values {
		table, err := p.parseDataBlock()
		if err != nil {
			return m, err
		}
		m.values = &table
	}
	return m, nil
}

func (p *Parser) parseGroupClause(m *modifiers) error {
	if err := p.expectKeyword("BY"); err != nil {
		return err
	}
	m.grouped = true
	for {
		t, err := p.peek()
		if err != nil {
			return err
		}
		var key algebra.Expression
		switch {
		case t.Kind == lexer.Variable:
			if _, err := p.next(); err != nil {
				return err
			}
			key = algebra.Var(t.Value)
		case t.Kind == lexer.LParen:
			if _, err := p.next(); err != nil {
				return err
			}
			e, err := p.parseExpression()
			if err != nil {
				return err
			}
			as, err := p.attemptKeyword("AS")
			if err != nil {
				return err
			}
			if as {
				v, err := p.expect(lexer.Variable)
				if err != nil {
					return err
				}
				m.extends = append(m.extends, groupExtend{expr: e, variable: v.Value})
				e = algebra.Var(v.Value)
			}
			if _, err := p.expect(lexer.RParen); err != nil {
				return err
			}
			key = e
		case startsConstraint(t):
			if key, err = p.parsePrimary(); err != nil {
				return err
			}
		default:
			if len(m.groups) == 0 {
				if _, err := p.next(); err != nil {
					return err
				}
				return p.unexpected(t, "GROUP BY condition")
			}
			return nil
		}
		if key, err = p.extractor.Extract(key); err != nil {
			return p.wrap(CodeInvalidQuery, err)
		}
		m.groups = append(m.groups, key)
	}
}

func (p *Parser) parseLimitOffset(m *modifiers) error {
	for range 2 {
		t, err := p.peek()
		if err != nil {
			return err
		}
		var dst **int
		switch {
		case t.Is("LIMIT") && m.limit == nil:
			dst = &m.limit
		case t.Is("OFFSET") && m.offset == nil:
			dst = &m.offset
		default:
			return nil
		}
		if _, err := p.next(); err != nil {
			return err
		}
		n, err := p.expect(lexer.Integer)
		if err != nil {
			return err
		}
		v, err := strconv.Atoi(n.Value)
		if err != nil {
			return p.errorAt(n, CodeUnexpectedToken, "%s value %s out of range", t.Value, n.Value)
		}
		*dst = &v
	}
	return nil
}

// parseSelectQuery parses a SELECT query. A sub-select has no dataset
// clause and gets its own aggregate extractor.
func (p *Parser) parseSelectQuery(sub bool) (*algebra.Query, error) {
	saved := p.extractor
	p.extractor = &rewrite.Extractor{}
	defer func() { p.extractor = saved }()

	clause, err := p.parseSelectClause()
	if err != nil {
		return nil, err
	}
	var dataset *algebra.Dataset
	if !sub {
		if dataset, err = p.parseDataset(); err != nil {
			return nil, err
		}
	}
	where, err := p.parseWhereClause()
	if err != nil {
		return nil, err
	}
	mods, err := p.parseSolutionModifiers()
	if err != nil {
		return nil, err
	}
	body, err := p.assemble(where, mods, clause)
	if err != nil {
		return nil, err
	}
	form := algebra.Select{Star: clause.star}
	if !clause.star {
		form.Variables = clause.variables()
	}
	return p.newQuery(form, body, dataset)
}

func (p *Parser) parseConstructQuery() (*algebra.Query, error) {
	p.extractor = &rewrite.Extractor{}
	if err := p.expectKeyword("CONSTRUCT"); err != nil {
		return nil, err
	}
	brace, err := p.peekIs(lexer.LBrace)
	if err != nil {
		return nil, err
	}
	var template []rdf.TriplePattern
	var where algebra.Algebra
	var dataset *algebra.Dataset
	if brace {
		if template, err = p.parseTemplate(); err != nil {
			return nil, err
		}
		// template labels denote fresh nodes per solution, not pattern nodes
		p.resetBlankLabels()
		if dataset, err = p.parseDataset(); err != nil {
			return nil, err
		}
		if where, err = p.parseWhereClause(); err != nil {
			return nil, err
		}
	} else {
		if dataset, err = p.parseDataset(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("WHERE"); err != nil {
			return nil, err
		}
		if template, err = p.parseTemplate(); err != nil {
			return nil, err
		}
		where = rewrite.ReduceJoins(triplesToAlgebra(template))
		if p.blanksAsVars {
			where = rewrite.BlankNodesToVariables(where)
		}
	}
	mods, err := p.parseSolutionModifiers()
	if err != nil {
		return nil, err
	}
	body, err := p.assemble(where, mods, nil)
	if err != nil {
		return nil, err
	}
	return p.newQuery(algebra.Construct{Template: template}, body, dataset)
}

// parseTemplate parses "{ triples }" without property paths.
func (p *Parser) parseTemplate() ([]rdf.TriplePattern, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var template []rdf.TriplePattern
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if startsTriples(t) {
		frags, err := p.parseTriplesBlock(false)
		if err != nil {
			return nil, err
		}
		for _, f := range frags {
			template = append(template, f.(algebra.Triple).Pattern)
		}
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return template, nil
}

func triplesToAlgebra(tps []rdf.TriplePattern) []algebra.Algebra {
	out := make([]algebra.Algebra, len(tps))
	for i, tp := range tps {
		out[i] = algebra.Triple{Pattern: tp}
	}
	return out
}

func (p *Parser) parseDescribeQuery() (*algebra.Query, error) {
	p.extractor = &rewrite.Extractor{}
	if err := p.expectKeyword("DESCRIBE"); err != nil {
		return nil, err
	}
	form := algebra.Describe{}
	var err error
	if form.Star, err = p.attempt(lexer.Star); err != nil {
		return nil, err
	}
	for !form.Star {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind != lexer.Variable && t.Kind != lexer.IRI && t.Kind != lexer.PrefixedName {
			break
		}
		n, err := p.parseVarOrIRI()
		if err != nil {
			return nil, err
		}
		form.Nodes = append(form.Nodes, n)
	}
	if !form.Star && len(form.Nodes) == 0 {
		t, _ := p.next()
		return nil, p.unexpected(t, "variable, IRI or '*'")
	}
	dataset, err := p.parseDataset()
	if err != nil {
		return nil, err
	}
	var where algebra.Algebra = algebra.JoinIdentity{}
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.Is("WHERE") || t.Kind == lexer.LBrace {
		if where, err = p.parseWhereClause(); err != nil {
			return nil, err
		}
	}
	mods, err := p.parseSolutionModifiers()
	if err != nil {
		return nil, err
	}
	body, err := p.assemble(where, mods, nil)
	if err != nil {
		return nil, err
	}
	return p.newQuery(form, body, dataset)
}

func (p *Parser) parseAskQuery() (*algebra.Query, error) {
	p.extractor = &rewrite.Extractor{}
	if err := p.expectKeyword("ASK"); err != nil {
		return nil, err
	}
	dataset, err := p.parseDataset()
	if err != nil {
		return nil, err
	}
	where, err := p.parseWhereClause()
	if err != nil {
		return nil, err
	}
	mods, err := p.parseSolutionModifiers()
	if err != nil {
		return nil, err
	}
	body, err := p.assemble(where, mods, nil)
	if err != nil {
		return nil, err
	}
	return p.newQuery(algebra.Ask{}, body, dataset)
}

func (p *Parser) newQuery(form algebra.Form, body algebra.Algebra, dataset *algebra.Dataset) (*algebra.Query, error) {
	q, err := algebra.NewQuery(form, body, dataset, p.base)
	var invalid *algebra.ValidationError
	if errors.As(err, &invalid) {
		return nil, p.wrap(CodeInvalidQuery, err)
	}
	return q, err
}

// assemble stacks the solution modifiers over the WHERE pattern:
// GROUP BY bindings, aggregation, windows, HAVING, trailing VALUES,
// SELECT expressions, ORDER BY, projection, DISTINCT or REDUCED, and
// finally OFFSET and LIMIT.
func (p *Parser) assemble(where algebra.Algebra, mods modifiers, sel *selectClause) (algebra.Algebra, error) {
	x := p.extractor
	body := where
	for _, ge := range mods.extends {
		if slices.Contains(algebra.InScope(body), ge.variable) {
			return nil, p.fail(CodeScope, "variable ?%s is already in scope and cannot be bound by GROUP BY", ge.variable)
		}
		body = algebra.Extend{Child: body, Expr: ge.expr, Variable: ge.variable}
	}
	// HAVING without GROUP BY groups the whole solution sequence.
	aggregating := mods.grouped || x.HasAggregations() || len(mods.having) > 0
	if aggregating {
		body = algebra.Aggregate{Child: body, Groups: mods.groups, Aggregations: x.Aggregations}
		p.log.Debug("hoisted aggregations", "count", len(x.Aggregations), "groups", len(mods.groups))
	}

	collapsed := map[int]bool{}
	renamed := map[string]bool{}
	if x.HasWindows() {
		if sel != nil {
			for i, item := range sel.items {
				n, ok := item.expr.(algebra.NodeExpr)
				if !ok || !n.Node.IsVariable() || !strings.HasPrefix(n.Node.Name(), rewrite.WindowPrefix) {
					continue
				}
				if slices.Contains(algebra.InScope(body), item.variable) || renamed[item.variable] {
					return nil, p.fail(CodeScope, "variable ?%s is already in scope and cannot be bound in SELECT", item.variable)
				}
				if x.RenameWindow(n.Node.Name(), item.variable) {
					collapsed[i] = true
					renamed[item.variable] = true
				}
			}
		}
		body = algebra.Window{Child: body, Windows: x.Windows}
		p.log.Debug("hoisted windows", "count", len(x.Windows), "renamed", len(collapsed))
	}
	if len(mods.having) > 0 {
		body = algebra.Filter{Child: body, Condition: algebra.And(mods.having...)}
	}
	if mods.values != nil {
		body = algebra.InnerJoin{Left: body, Right: *mods.values}
	}

	if sel != nil {
		for i, item := range sel.items {
			if item.expr == nil || collapsed[i] {
				continue
			}
			if aggregating {
				projectable := algebra.ProjectableVariables(body)
				for _, v := range algebra.Variables(item.expr, true) {
					if !slices.Contains(projectable, v) {
						return nil, p.fail(CodeInvalidQuery, "non-grouped variable ?%s used in SELECT expression", v)
					}
				}
			}
			if slices.Contains(algebra.InScope(body), item.variable) {
				return nil, p.fail(CodeScope, "variable ?%s is already in scope and cannot be bound in SELECT", item.variable)
			}
			body = algebra.Extend{Child: body, Expr: item.expr, Variable: item.variable}
		}
	}
	if len(mods.order) > 0 {
		body = algebra.Order{Child: body, Comparators: mods.order}
	}
	if sel != nil {
		if !sel.star {
			body = algebra.Project{Child: body, Variables: sel.variables()}
		}
		switch {
		case sel.distinct:
			body = algebra.Distinct{Child: body}
		case sel.reduced:
			body = algebra.Reduced{Child: body}
		}
	}
	if mods.offset != nil || mods.limit != nil {
		body = algebra.Slice{Child: body, Offset: mods.offset, Limit: mods.limit}
	}
	return body, nil
}
