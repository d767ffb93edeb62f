package parser

import (
	"strconv"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// arity bounds the argument count of a built-in call; max < 0 is
// unbounded.
type arity struct{ min, max int }

var builtinArity = map[string]arity{
	"STR": {1, 1}, "LANG": {1, 1}, "LANGMATCHES": {2, 2}, "DATATYPE": {1, 1},
	"BOUND": {1, 1}, "IRI": {1, 1}, "URI": {1, 1}, "BNODE": {0, 1},
	"RAND": {0, 0}, "ABS": {1, 1}, "CEIL": {1, 1}, "FLOOR": {1, 1},
	"ROUND": {1, 1}, "CONCAT": {0, -1}, "STRLEN": {1, 1}, "UCASE": {1, 1},
	"LCASE": {1, 1}, "ENCODE_FOR_URI": {1, 1}, "CONTAINS": {2, 2},
	"STRSTARTS": {2, 2}, "STRENDS": {2, 2}, "STRBEFORE": {2, 2},
	"STRAFTER": {2, 2}, "YEAR": {1, 1}, "MONTH": {1, 1}, "DAY": {1, 1},
	"HOURS": {1, 1}, "MINUTES": {1, 1}, "SECONDS": {1, 1},
	"TIMEZONE": {1, 1}, "TZ": {1, 1}, "NOW": {0, 0}, "UUID": {0, 0},
	"STRUUID": {0, 0}, "MD5": {1, 1}, "SHA1": {1, 1}, "SHA256": {1, 1},
	"SHA384": {1, 1}, "SHA512": {1, 1}, "COALESCE": {0, -1}, "IF": {3, 3},
	"STRLANG": {2, 2}, "STRDT": {2, 2}, "SAMETERM": {2, 2}, "ISIRI": {1, 1},
	"ISURI": {1, 1}, "ISBLANK": {1, 1}, "ISLITERAL": {1, 1},
	"ISNUMERIC": {1, 1}, "REGEX": {2, 3}, "SUBSTR": {2, 3}, "REPLACE": {3, 4},
}

var unaryBuiltins = map[string]algebra.UnaryOp{
	"BOUND":     algebra.OpBound,
	"DATATYPE":  algebra.OpDatatype,
	"LANG":      algebra.OpLang,
	"ISIRI":     algebra.OpIsIRI,
	"ISURI":     algebra.OpIsIRI,
	"ISLITERAL": algebra.OpIsLiteral,
	"ISBLANK":   algebra.OpIsBlank,
	"ISNUMERIC": algebra.OpIsNumeric,
}

var binaryBuiltins = map[string]algebra.BinaryOp{
	"SAMETERM":    algebra.OpSameTerm,
	"LANGMATCHES": algebra.OpLangMatches,
}

var castDatatypes = map[string]bool{
	rdf.XSDBoolean:  true,
	rdf.XSDDouble:   true,
	rdf.XSDFloat:    true,
	rdf.XSDDecimal:  true,
	rdf.XSDInteger:  true,
	rdf.XSDDateTime: true,
	rdf.XSDString:   true,
}

var windowKeywords = map[string]bool{
	"RANK": true, "DENSE_RANK": true, "ROW_NUMBER": true, "NTILE": true,
}

// canonicalCall maps a call by name to its dedicated expression variant
// when the name is reserved. Anything else stays a Call.
func (p *Parser) canonicalCall(name string, args []algebra.Expression) (algebra.Expression, error) {
	if a, ok := builtinArity[name]; ok {
		if len(args) < a.min || (a.max >= 0 && len(args) > a.max) {
			return nil, p.fail(CodeArity, "%s called with %d arguments", name, len(args))
		}
	}
	if op, ok := unaryBuiltins[name]; ok {
		return algebra.Unary{Op: op, Expr: args[0]}, nil
	}
	if op, ok := binaryBuiltins[name]; ok {
		return algebra.Binary{Op: op, Left: args[0], Right: args[1]}, nil
	}
	if castDatatypes[name] {
		if len(args) != 1 {
			return nil, p.fail(CodeArity, "cast to <%s> takes one argument", name)
		}
		return algebra.Cast{Datatype: name, Expr: args[0]}, nil
	}
	return algebra.Call{Function: name, Args: args}, nil
}

func (p *Parser) parseExpression() (algebra.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (algebra.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.attempt(lexer.Or)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = algebra.Binary{Op: algebra.OpOr, Left: left, Right: right}
	}
}

func (p *Parser) parseAnd() (algebra.Expression, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.attempt(lexer.And)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = algebra.Binary{Op: algebra.OpAnd, Left: left, Right: right}
	}
}

var relationalOps = map[lexer.Kind]algebra.BinaryOp{
	lexer.Equals:    algebra.OpEq,
	lexer.NotEquals: algebra.OpNe,
	lexer.LT:        algebra.OpLt,
	lexer.LE:        algebra.OpLe,
	lexer.GT:        algebra.OpGt,
	lexer.GE:        algebra.OpGe,
}

func (p *Parser) parseRelational() (algebra.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if op, ok := relationalOps[t.Kind]; ok {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return algebra.Binary{Op: op, Left: left, Right: right}, nil
	}
	not := false
	switch {
	case t.Is("NOT"):
		if _, err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("IN"); err != nil {
			return nil, err
		}
		not = true
	case t.Is("IN"):
		if _, err := p.next(); err != nil {
			return nil, err
		}
	default:
		return left, nil
	}
	list, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	return algebra.In{Expr: left, List: list, Not: not}, nil
}

func (p *Parser) parseAdditive() (algebra.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		var op algebra.BinaryOp
		switch t.Kind {
		case lexer.Plus:
			op = algebra.OpAdd
		case lexer.Minus:
			op = algebra.OpSub
		default:
			return left, nil
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = algebra.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (algebra.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		var op algebra.BinaryOp
		switch t.Kind {
		case lexer.Star:
			op = algebra.OpMul
		case lexer.Slash:
			op = algebra.OpDiv
		default:
			return left, nil
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = algebra.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (algebra.Expression, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case lexer.Bang:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return algebra.Unary{Op: algebra.OpNot, Expr: e}, nil
	case lexer.Plus:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	case lexer.Minus:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if n, ok := e.(algebra.NodeExpr); ok {
			if term, ok := n.Node.Term(); ok && term.IsNumeric() {
				return algebra.Const(negate(term)), nil
			}
		}
		return algebra.Unary{Op: algebra.OpNeg, Expr: e}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (algebra.Expression, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case t.Kind == lexer.LParen:
		return p.parseBracketted()
	case t.Kind == lexer.Variable:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return algebra.Var(t.Value), nil
	case t.Kind == lexer.IRI || t.Kind == lexer.PrefixedName:
		return p.parseIRIOrFunction()
	case t.Kind == lexer.Keyword:
		return p.parseBuiltin(t)
	case t.Kind.IsString() || t.Kind.IsNumeric() || t.Kind == lexer.Boolean:
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return algebra.Const(term), nil
	}
	if _, err := p.next(); err != nil {
		return nil, err
	}
	return nil, p.unexpected(t, "expression")
}

func (p *Parser) parseBracketted() (algebra.Expression, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return e, nil
}

// parseConstraint parses a FILTER or HAVING constraint: a bracketted
// expression, a built-in call or a function call.
func (p *Parser) parseConstraint() (algebra.Expression, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case lexer.LParen:
		return p.parseBracketted()
	case lexer.IRI, lexer.PrefixedName, lexer.Keyword:
		return p.parsePrimary()
	}
	if _, err := p.next(); err != nil {
		return nil, err
	}
	return nil, p.unexpected(t, "constraint")
}

// startsConstraint reports whether t can begin a constraint.
func startsConstraint(t lexer.PositionedToken) bool {
	switch t.Kind {
	case lexer.LParen, lexer.IRI, lexer.PrefixedName:
		return true
	case lexer.Keyword:
		_, builtin := builtinArity[t.Value]
		_, aggregate := algebra.AggregationKindFor(t.Value)
		return builtin || aggregate || windowKeywords[t.Value] || t.Value == "EXISTS" || t.Value == "NOT"
	}
	return false
}

// parseArgList parses NIL or a parenthesized, comma-separated list.
func (p *Parser) parseArgList() ([]algebra.Expression, error) {
	nilList, err := p.attempt(lexer.Nil)
	if err != nil {
		return nil, err
	}
	if nilList {
		return nil, nil
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var args []algebra.Expression
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case lexer.Comma:
			continue
		case lexer.RParen:
			return args, nil
		}
		return nil, p.unexpected(t, "',' or ')'")
	}
}

func (p *Parser) parseIRIOrFunction() (algebra.Expression, error) {
	v, err := p.parseIRI()
	if err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.Kind != lexer.Nil && t.Kind != lexer.LParen {
		return algebra.Const(rdf.IRI(v)), nil
	}
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	over, err := p.peekKeyword("OVER")
	if err != nil {
		return nil, err
	}
	if over {
		return p.parseOver(algebra.WindowFunction{Kind: algebra.CustomWindow, IRI: v, Args: args})
	}
	return p.canonicalCall(v, args)
}

func (p *Parser) parseBuiltin(t lexer.PositionedToken) (algebra.Expression, error) {
	kw := t.Value
	if kind, ok := algebra.AggregationKindFor(kw); ok {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		agg, err := p.parseAggregate(kind)
		if err != nil {
			return nil, err
		}
		over, err := p.peekKeyword("OVER")
		if err != nil {
			return nil, err
		}
		if over {
			return p.parseOver(algebra.WindowFunction{Kind: algebra.WindowAggregation, Aggregation: &agg})
		}
		return algebra.AggregateExpr{Aggregation: agg}, nil
	}
	if windowKeywords[kw] {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		fn, err := p.parseWindowFunction(kw)
		if err != nil {
			return nil, err
		}
		if over, err := p.peekKeyword("OVER"); err != nil {
			return nil, err
		} else if !over {
			next, err := p.next()
			if err != nil {
				return nil, err
			}
			return nil, p.unexpected(next, "OVER")
		}
		return p.parseOver(fn)
	}
	switch kw {
	case "NOT":
		if _, err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		pattern, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return algebra.Exists{Pattern: pattern, Not: true}, nil
	case "EXISTS":
		if _, err := p.next(); err != nil {
			return nil, err
		}
		pattern, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return algebra.Exists{Pattern: pattern}, nil
	}
	if _, ok := builtinArity[kw]; !ok {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return nil, p.unexpected(t, "expression")
	}
	if _, err := p.next(); err != nil {
		return nil, err
	}
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	return p.canonicalCall(kw, args)
}

func (p *Parser) parseAggregate(kind algebra.AggregationKind) (algebra.Aggregation, error) {
	agg := algebra.Aggregation{Kind: kind}
	if _, err := p.expect(lexer.LParen); err != nil {
		return agg, err
	}
	distinct, err := p.attemptKeyword("DISTINCT")
	if err != nil {
		return agg, err
	}
	agg.Distinct = distinct
	star := false
	if kind == algebra.Count {
		if star, err = p.attempt(lexer.Star); err != nil {
			return agg, err
		}
	}
	if star {
		agg.Kind = algebra.CountAll
	} else if agg.Expr, err = p.parseExpression(); err != nil {
		return agg, err
	}
	if kind == algebra.GroupConcat {
		agg.Separator = algebra.DefaultSeparator
		semi, err := p.attempt(lexer.Semicolon)
		if err != nil {
			return agg, err
		}
		if semi {
			if err := p.expectKeyword("SEPARATOR"); err != nil {
				return agg, err
			}
			if _, err := p.expect(lexer.Equals); err != nil {
				return agg, err
			}
			s, err := p.next()
			if err != nil {
				return agg, err
			}
			if !s.Kind.IsString() {
				return agg, p.unexpected(s, "separator string")
			}
			agg.Separator = s.Value
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return agg, err
	}
	return agg, nil
}

func (p *Parser) parseWindowFunction(kw string) (algebra.WindowFunction, error) {
	if kw == "NTILE" {
		if _, err := p.expect(lexer.LParen); err != nil {
			return algebra.WindowFunction{}, err
		}
		t, err := p.expect(lexer.Integer)
		if err != nil {
			return algebra.WindowFunction{}, err
		}
		n, err := strconv.ParseInt(t.Value, 10, 64)
		if err != nil || n <= 0 {
			return algebra.WindowFunction{}, p.errorAt(t, CodeUnexpectedToken, "NTILE needs a positive bucket count")
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return algebra.WindowFunction{}, err
		}
		return algebra.WindowFunction{Kind: algebra.Ntile, N: n}, nil
	}
	if err := p.expectEmptyArgs(); err != nil {
		return algebra.WindowFunction{}, err
	}
	switch kw {
	case "RANK":
		return algebra.WindowFunction{Kind: algebra.Rank}, nil
	case "DENSE_RANK":
		return algebra.WindowFunction{Kind: algebra.DenseRank}, nil
	default:
		return algebra.WindowFunction{Kind: algebra.RowNumber}, nil
	}
}

// expectEmptyArgs consumes "()" written either as NIL or as two tokens.
func (p *Parser) expectEmptyArgs() error {
	ok, err := p.attempt(lexer.Nil)
	if err != nil || ok {
		return err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return err
	}
	_, err = p.expect(lexer.RParen)
	return err
}

// parseOver parses an OVER clause for fn. Without an explicit frame the
// window is unbounded on both ends.
func (p *Parser) parseOver(fn algebra.WindowFunction) (algebra.Expression, error) {
	if err := p.expectKeyword("OVER"); err != nil {
		return nil, err
	}
	app := algebra.WindowApplication{Function: fn, Frame: algebra.DefaultFrame()}
	empty, err := p.attempt(lexer.Nil)
	if err != nil {
		return nil, err
	}
	if empty {
		return algebra.WindowExpr{Application: app}, nil
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	partition, err := p.attemptKeyword("PARTITION")
	if err != nil {
		return nil, err
	}
	if partition {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			stop, err := p.atWindowClauseEnd()
			if err != nil {
				return nil, err
			}
			if stop {
				break
			}
			e, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			app.Partition = append(app.Partition, e)
		}
	}
	order, err := p.attemptKeyword("ORDER")
	if err != nil {
		return nil, err
	}
	if order {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			stop, err := p.atWindowClauseEnd()
			if err != nil {
				return nil, err
			}
			if stop {
				break
			}
			c, err := p.parseOrderCondition()
			if err != nil {
				return nil, err
			}
			app.Order = append(app.Order, c)
		}
	}
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.Is("ROWS") || t.Is("RANGE") {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		if t.Is("RANGE") {
			app.Frame.Type = algebra.FrameRange
		}
		if err := p.expectKeyword("BETWEEN"); err != nil {
			return nil, err
		}
		if app.Frame.From, err = p.parseFrameBound(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		if app.Frame.To, err = p.parseFrameBound(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return algebra.WindowExpr{Application: app}, nil
}

func (p *Parser) atWindowClauseEnd() (bool, error) {
	t, err := p.peek()
	if err != nil {
		return false, err
	}
	return t.Kind == lexer.RParen || t.Kind == lexer.EOF || t.Is("ORDER") || t.Is("ROWS") || t.Is("RANGE"), nil
}

func (p *Parser) parseFrameBound() (algebra.FrameBound, error) {
	unbounded, err := p.attemptKeyword("UNBOUNDED")
	if err != nil {
		return algebra.FrameBound{}, err
	}
	if unbounded {
		if ok, err := p.attemptKeyword("PRECEDING"); err != nil || ok {
			return algebra.FrameBound{Kind: algebra.Unbounded}, err
		}
		_, err := p.attemptKeyword("FOLLOWING")
		return algebra.FrameBound{Kind: algebra.Unbounded}, err
	}
	current, err := p.attemptKeyword("CURRENT")
	if err != nil {
		return algebra.FrameBound{}, err
	}
	if current {
		return algebra.FrameBound{Kind: algebra.CurrentRow}, p.expectKeyword("ROW")
	}
	e, err := p.parseExpression()
	if err != nil {
		return algebra.FrameBound{}, err
	}
	t, err := p.next()
	if err != nil {
		return algebra.FrameBound{}, err
	}
	switch {
	case t.Is("PRECEDING"):
		return algebra.FrameBound{Kind: algebra.Preceding, Expr: e}, nil
	case t.Is("FOLLOWING"):
		return algebra.FrameBound{Kind: algebra.Following, Expr: e}, nil
	}
	return algebra.FrameBound{}, p.unexpected(t, "PRECEDING or FOLLOWING")
}

// parseOrderCondition parses one ORDER BY key.
func (p *Parser) parseOrderCondition() (algebra.Comparator, error) {
	t, err := p.peek()
	if err != nil {
		return algebra.Comparator{}, err
	}
	switch {
	case t.Is("ASC") || t.Is("DESC"):
		if _, err := p.next(); err != nil {
			return algebra.Comparator{}, err
		}
		e, err := p.parseBracketted()
		return algebra.Comparator{Ascending: t.Is("ASC"), Expr: e}, err
	case t.Kind == lexer.Variable:
		if _, err := p.next(); err != nil {
			return algebra.Comparator{}, err
		}
		return algebra.Comparator{Ascending: true, Expr: algebra.Var(t.Value)}, nil
	}
	e, err := p.parseConstraint()
	return algebra.Comparator{Ascending: true, Expr: e}, err
}

// startsOrderCondition reports whether t can begin an ORDER BY key.
func startsOrderCondition(t lexer.PositionedToken) bool {
	return t.Is("ASC") || t.Is("DESC") || t.Kind == lexer.Variable || startsConstraint(t)
}
