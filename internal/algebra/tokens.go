package algebra

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// SerializationError reports a tree with no SPARQL text form, such as a
// window or aggregate node without an enclosing projection.
type SerializationError struct {
	Message string
}

func (e *SerializationError) Error() string {
	return "serialization error: " + e.Message
}

// BlankVariablePrefix marks non-binding variables that stand in for blank
// nodes. They render back as blank node labels.
const BlankVariablePrefix = ".blank."

// QueryTokens renders q as a SPARQL token sequence.
func QueryTokens(q *Query) ([]lexer.Token, error) {
	var w tokenWriter
	w.query(q)
	return w.toks, w.err
}

// AlgebraTokens renders the contents of a group graph pattern for a,
// without the enclosing braces.
func AlgebraTokens(a Algebra) ([]lexer.Token, error) {
	var w tokenWriter
	w.group(a)
	return w.toks, w.err
}

// ExpressionTokens renders e as a fully parenthesized SPARQL expression.
func ExpressionTokens(e Expression) ([]lexer.Token, error) {
	var w tokenWriter
	w.expr(e)
	return w.toks, w.err
}

// PathTokens renders p in SPARQL property path syntax.
func PathTokens(p PropertyPath) []lexer.Token {
	var w tokenWriter
	w.path(p)
	return w.toks
}

type tokenWriter struct {
	toks []lexer.Token
	err  error
}

func (w *tokenWriter) fail(format string, args ...any) {
	if w.err == nil {
		w.err = &SerializationError{Message: fmt.Sprintf(format, args...)}
	}
}

func (w *tokenWriter) add(kinds ...lexer.Kind) {
	for _, k := range kinds {
		w.toks = append(w.toks, lexer.Token{Kind: k})
	}
}

func (w *tokenWriter) kw(words ...string) {
	for _, word := range words {
		w.toks = append(w.toks, lexer.Token{Kind: lexer.Keyword, Value: word})
	}
}

func (w *tokenWriter) iri(iri string) {
	w.toks = append(w.toks, lexer.Token{Kind: lexer.IRI, Value: iri})
}

func (w *tokenWriter) variable(name string) {
	w.toks = append(w.toks, lexer.Token{Kind: lexer.Variable, Value: name})
}

func (w *tokenWriter) integer(n int) {
	w.toks = append(w.toks, lexer.Token{Kind: lexer.Integer, Value: strconv.Itoa(n)})
}

func (w *tokenWriter) node(n rdf.Node) {
	if n.IsVariable() {
		if label, ok := strings.CutPrefix(n.Name(), BlankVariablePrefix); ok {
			w.toks = append(w.toks, lexer.Token{Kind: lexer.BlankNode, Value: label})
			return
		}
		w.variable(n.Name())
		return
	}
	t, _ := n.Term()
	w.term(t)
}

func (w *tokenWriter) term(t rdf.Term) {
	switch t.Kind {
	case rdf.KindIRI:
		w.iri(t.Value)
		return
	case rdf.KindBlank:
		w.toks = append(w.toks, lexer.Token{Kind: lexer.BlankNode, Value: t.Value})
		return
	}
	str := lexer.Token{Kind: lexer.String1D, Value: t.Value}
	switch {
	case t.Language != "":
		w.toks = append(w.toks, str, lexer.Token{Kind: lexer.LangTag, Value: t.Language})
	case t.Datatype == rdf.XSDString || t.Datatype == "":
		w.toks = append(w.toks, str)
	case t.Datatype == rdf.XSDBoolean && (t.Value == "true" || t.Value == "false"):
		w.toks = append(w.toks, lexer.Token{Kind: lexer.Boolean, Value: t.Value})
	default:
		if w.numeric(t) {
			return
		}
		w.toks = append(w.toks, str)
		w.add(lexer.HatHat)
		w.iri(t.Datatype)
	}
}

var numericKinds = map[string]lexer.Kind{
	rdf.XSDInteger: lexer.Integer,
	rdf.XSDDecimal: lexer.Decimal,
	rdf.XSDDouble:  lexer.Double,
}

// numeric writes t as a bare numeric token when its lexical form is the
// one the lexer would produce for its datatype.
func (w *tokenWriter) numeric(t rdf.Term) bool {
	want, ok := numericKinds[t.Datatype]
	if !ok {
		return false
	}
	value := t.Value
	sign := lexer.Kind(-1)
	switch {
	case strings.HasPrefix(value, "-"):
		sign, value = lexer.Minus, value[1:]
	case strings.HasPrefix(value, "+"):
		sign, value = lexer.Plus, value[1:]
	}
	toks, err := lexer.Tokenize(value)
	if err != nil || len(toks) != 1 || toks[0].Kind != want {
		return false
	}
	if sign >= 0 {
		w.add(sign)
	}
	w.toks = append(w.toks, toks[0].Token)
	return true
}

func (w *tokenWriter) triple(tp rdf.TriplePattern) {
	w.node(tp.Subject)
	w.node(tp.Predicate)
	w.node(tp.Object)
	w.add(lexer.Dot)
}

// simple reports whether a can be written inline in a group without
// changing the scope of surrounding filters.
func simple(a Algebra) bool {
	switch a.(type) {
	case JoinIdentity, Triple, BGP, Path, Quad, Table, NamedGraph, Service, Subquery, InnerJoin:
		return true
	}
	return false
}

func (w *tokenWriter) braced(a Algebra) {
	w.add(lexer.LBrace)
	w.group(a)
	w.add(lexer.RBrace)
}

func (w *tokenWriter) inline(a Algebra) {
	if simple(a) {
		w.group(a)
		return
	}
	w.braced(a)
}

func (w *tokenWriter) group(a Algebra) {
	switch a := a.(type) {
	case JoinIdentity:
	case UnionIdentity:
		w.kw("FILTER")
		w.add(lexer.LParen)
		w.toks = append(w.toks, lexer.Token{Kind: lexer.Boolean, Value: "false"})
		w.add(lexer.RParen)
	case Triple:
		w.triple(a.Pattern)
	case BGP:
		for _, tp := range a.Triples {
			w.triple(tp)
		}
	case Quad:
		w.kw("GRAPH")
		w.node(a.Pattern.Graph)
		w.add(lexer.LBrace)
		w.triple(rdf.TriplePattern{Subject: a.Pattern.Subject, Predicate: a.Pattern.Predicate, Object: a.Pattern.Object})
		w.add(lexer.RBrace)
	case Path:
		w.node(a.Subject)
		w.path(a.Path)
		w.node(a.Object)
		w.add(lexer.Dot)
	case Table:
		w.values(a)
	case InnerJoin:
		w.inline(a.Left)
		w.inline(a.Right)
	case LeftOuterJoin:
		w.inline(a.Left)
		w.kw("OPTIONAL")
		w.add(lexer.LBrace)
		w.group(a.Right)
		if !isTrue(a.Condition) {
			w.filter(a.Condition)
		}
		w.add(lexer.RBrace)
	case Filter:
		w.group(a.Child)
		w.filter(a.Condition)
	case Union:
		w.braced(a.Left)
		w.kw("UNION")
		w.braced(a.Right)
	case Minus:
		w.inline(a.Left)
		w.kw("MINUS")
		w.braced(a.Right)
	case NamedGraph:
		w.kw("GRAPH")
		w.node(a.Graph)
		w.braced(a.Child)
	case Extend:
		w.group(a.Child)
		w.kw("BIND")
		w.add(lexer.LParen)
		w.expr(a.Expr)
		w.kw("AS")
		w.variable(a.Variable)
		w.add(lexer.RParen)
	case Service:
		w.kw("SERVICE")
		if a.Silent {
			w.kw("SILENT")
		}
		w.iri(a.Endpoint)
		w.braced(a.Child)
	case Subquery:
		w.add(lexer.LBrace)
		w.query(a.Query)
		w.add(lexer.RBrace)
	case Project:
		w.add(lexer.LBrace)
		w.selectQuery(Select{Variables: a.Variables}, a, nil)
		w.add(lexer.RBrace)
	case Distinct, Reduced, Slice, Order, Aggregate, Window:
		w.add(lexer.LBrace)
		w.selectQuery(Select{Star: true}, a, nil)
		w.add(lexer.RBrace)
	default:
		w.fail("unsupported algebra node %T", a)
	}
}

func isTrue(e Expression) bool {
	n, ok := e.(NodeExpr)
	if !ok {
		return false
	}
	t, ok := n.Node.Term()
	return ok && t == rdf.True
}

func (w *tokenWriter) filter(e Expression) {
	w.kw("FILTER")
	w.add(lexer.LParen)
	w.expr(e)
	w.add(lexer.RParen)
}

func (w *tokenWriter) values(t Table) {
	w.kw("VALUES")
	if len(t.Variables) == 0 {
		w.add(lexer.Nil)
	} else {
		w.add(lexer.LParen)
		for _, v := range t.Variables {
			w.variable(v)
		}
		w.add(lexer.RParen)
	}
	w.add(lexer.LBrace)
	for _, row := range t.Rows {
		if len(row) == 0 {
			w.add(lexer.Nil)
			continue
		}
		w.add(lexer.LParen)
		for _, cell := range row {
			if cell == nil {
				w.kw("UNDEF")
			} else {
				w.term(*cell)
			}
		}
		w.add(lexer.RParen)
	}
	w.add(lexer.RBrace)
}

func (w *tokenWriter) query(q *Query) {
	if q.Base != "" {
		w.kw("BASE")
		w.iri(q.Base)
	}
	switch f := q.Form.(type) {
	case Select:
		w.selectQuery(f, q.Algebra, q.Dataset)
	case Ask:
		w.kw("ASK")
		w.dataset(q.Dataset)
		w.kw("WHERE")
		w.braced(q.Algebra)
	case Construct:
		body, mods := peelModifiers(q.Algebra)
		w.kw("CONSTRUCT")
		w.add(lexer.LBrace)
		for _, tp := range f.Template {
			w.triple(tp)
		}
		w.add(lexer.RBrace)
		w.dataset(q.Dataset)
		w.kw("WHERE")
		w.braced(body)
		w.modifiers(mods, nil)
	case Describe:
		body, mods := peelModifiers(q.Algebra)
		w.kw("DESCRIBE")
		if f.Star {
			w.add(lexer.Star)
		}
		for _, n := range f.Nodes {
			w.node(n)
		}
		w.dataset(q.Dataset)
		if _, empty := body.(JoinIdentity); !empty {
			w.kw("WHERE")
			w.braced(body)
		}
		w.modifiers(mods, nil)
	default:
		w.fail("unsupported query form %T", q.Form)
	}
}

func (w *tokenWriter) dataset(d *Dataset) {
	if d == nil {
		return
	}
	for _, g := range d.Default {
		w.kw("FROM")
		w.iri(g)
	}
	for _, g := range d.Named {
		w.kw("FROM", "NAMED")
		w.iri(g)
	}
}

// solutionModifiers are the ORDER BY and slice clauses peeled off a body.
type solutionModifiers struct {
	order []Comparator
	slice *Slice
}

func peelModifiers(a Algebra) (Algebra, solutionModifiers) {
	var mods solutionModifiers
	if s, ok := a.(Slice); ok {
		mods.slice = &s
		a = s.Child
	}
	if o, ok := a.(Order); ok {
		mods.order = o.Comparators
		a = o.Child
	}
	return a, mods
}

func (w *tokenWriter) modifiers(mods solutionModifiers, subst func(Expression) Expression) {
	if subst == nil {
		subst = func(e Expression) Expression { return e }
	}
	if len(mods.order) > 0 {
		w.kw("ORDER", "BY")
		for _, c := range mods.order {
			if c.Ascending {
				w.kw("ASC")
			} else {
				w.kw("DESC")
			}
			w.add(lexer.LParen)
			w.expr(subst(c.Expr))
			w.add(lexer.RParen)
		}
	}
	if mods.slice != nil {
		if mods.slice.Limit != nil {
			w.kw("LIMIT")
			w.integer(*mods.slice.Limit)
		}
		if mods.slice.Offset != nil {
			w.kw("OFFSET")
			w.integer(*mods.slice.Offset)
		}
	}
}

// selectParts is a SELECT body taken apart into its clauses.
type selectParts struct {
	mods      solutionModifiers
	distinct  bool
	reduced   bool
	project   []string
	extends   map[string]Expression
	having    []Expression
	values    *Table
	aggregate *Aggregate
	windows   []WindowMapping
	groupAs   map[string]Expression
	where     Algebra
}

func aggregating(a Algebra) bool {
	if f, ok := a.(Filter); ok {
		a = f.Child
	}
	switch a.(type) {
	case Aggregate, Window:
		return true
	}
	return false
}

func splitSelect(a Algebra) selectParts {
	p := selectParts{extends: map[string]Expression{}, groupAs: map[string]Expression{}}
	if s, ok := a.(Slice); ok {
		p.mods.slice = &s
		a = s.Child
	}
	switch d := a.(type) {
	case Distinct:
		p.distinct, a = true, d.Child
	case Reduced:
		p.reduced, a = true, d.Child
	}
	if pr, ok := a.(Project); ok {
		p.project, a = pr.Variables, pr.Child
	}
	if o, ok := a.(Order); ok {
		p.mods.order, a = o.Comparators, o.Child
	}
	for {
		e, ok := a.(Extend)
		if !ok || !slices.Contains(p.project, e.Variable) {
			break
		}
		p.extends[e.Variable] = e.Expr
		a = e.Child
	}
	if j, ok := a.(InnerJoin); ok && aggregating(j.Left) {
		if t, ok := j.Right.(Table); ok {
			p.values, a = &t, j.Left
		}
	}
	if f, ok := a.(Filter); ok && aggregating(f.Child) {
		p.having, a = splitAnd(f.Condition), f.Child
	}
	if win, ok := a.(Window); ok {
		p.windows, a = win.Windows, win.Child
	}
	if agg, ok := a.(Aggregate); ok {
		p.aggregate, a = &agg, agg.Child
		groups := groupVariables(agg.Groups)
		for {
			e, ok := a.(Extend)
			if !ok || !groups[e.Variable] {
				break
			}
			p.groupAs[e.Variable] = e.Expr
			a = e.Child
		}
	}
	p.where = a
	return p
}

func splitAnd(e Expression) []Expression {
	if b, ok := e.(Binary); ok && b.Op == OpAnd {
		return append(splitAnd(b.Left), splitAnd(b.Right)...)
	}
	return []Expression{e}
}

func (w *tokenWriter) selectQuery(form Select, body Algebra, dataset *Dataset) {
	p := splitSelect(body)
	hidden := map[string]Expression{}
	if p.aggregate != nil {
		for _, m := range p.aggregate.Aggregations {
			hidden[m.Variable] = AggregateExpr{Aggregation: m.Aggregation}
		}
	}
	for _, m := range p.windows {
		hidden[m.Variable] = WindowExpr{Application: m.Application}
	}
	subst := func(e Expression) Expression {
		out, _ := ReplaceExpression(e, func(e Expression) (Expression, bool, error) {
			if n, ok := e.(NodeExpr); ok && n.Node.IsVariable() {
				if h, ok := hidden[n.Node.Name()]; ok {
					return h, true, nil
				}
			}
			return nil, false, nil
		})
		return out
	}
	if (p.aggregate != nil || len(p.windows) > 0) && p.project == nil {
		w.fail("aggregation without a projection has no SELECT form")
		return
	}

	w.kw("SELECT")
	switch {
	case p.distinct:
		w.kw("DISTINCT")
	case p.reduced:
		w.kw("REDUCED")
	}
	vars := p.project
	if vars == nil && !form.Star {
		vars = form.Variables
	}
	if vars == nil {
		w.add(lexer.Star)
	}
	for _, v := range vars {
		expr, ok := p.extends[v]
		if !ok {
			expr, ok = hidden[v]
		}
		if !ok {
			w.variable(v)
			continue
		}
		w.add(lexer.LParen)
		w.expr(subst(expr))
		w.kw("AS")
		w.variable(v)
		w.add(lexer.RParen)
	}
	w.dataset(dataset)
	w.kw("WHERE")
	w.braced(p.where)
	if p.aggregate != nil && len(p.aggregate.Groups) > 0 {
		w.kw("GROUP", "BY")
		for _, g := range p.aggregate.Groups {
			if n, ok := g.(NodeExpr); ok && n.Node.IsVariable() {
				if e, ok := p.groupAs[n.Node.Name()]; ok {
					w.add(lexer.LParen)
					w.expr(e)
					w.kw("AS")
					w.variable(n.Node.Name())
					w.add(lexer.RParen)
					continue
				}
				w.variable(n.Node.Name())
				continue
			}
			w.add(lexer.LParen)
			w.expr(g)
			w.add(lexer.RParen)
		}
	}
	if len(p.having) > 0 {
		w.kw("HAVING")
		for _, h := range p.having {
			w.add(lexer.LParen)
			w.expr(subst(h))
			w.add(lexer.RParen)
		}
	}
	w.modifiers(p.mods, subst)
	if p.values != nil {
		w.values(*p.values)
	}
}

var unaryKeywords = map[UnaryOp]string{
	OpBound:     "BOUND",
	OpIsIRI:     "ISIRI",
	OpIsBlank:   "ISBLANK",
	OpIsLiteral: "ISLITERAL",
	OpIsNumeric: "ISNUMERIC",
	OpLang:      "LANG",
	OpDatatype:  "DATATYPE",
}

var binaryKinds = map[BinaryOp]lexer.Kind{
	OpOr:  lexer.Or,
	OpAnd: lexer.And,
	OpEq:  lexer.Equals,
	OpNe:  lexer.NotEquals,
	OpLt:  lexer.LT,
	OpLe:  lexer.LE,
	OpGt:  lexer.GT,
	OpGe:  lexer.GE,
	OpAdd: lexer.Plus,
	OpSub: lexer.Minus,
	OpMul: lexer.Star,
	OpDiv: lexer.Slash,
}

func (w *tokenWriter) args(es []Expression) {
	if len(es) == 0 {
		w.add(lexer.Nil)
		return
	}
	w.add(lexer.LParen)
	for i, e := range es {
		if i > 0 {
			w.add(lexer.Comma)
		}
		w.expr(e)
	}
	w.add(lexer.RParen)
}

func (w *tokenWriter) expr(e Expression) {
	switch e := e.(type) {
	case NodeExpr:
		w.node(e.Node)
	case AggregateExpr:
		w.aggregation(e.Aggregation)
	case WindowExpr:
		w.window(e.Application)
	case Unary:
		switch e.Op {
		case OpNeg:
			w.add(lexer.LParen, lexer.Minus)
			w.expr(e.Expr)
			w.add(lexer.RParen)
		case OpNot:
			w.add(lexer.LParen, lexer.Bang)
			w.expr(e.Expr)
			w.add(lexer.RParen)
		default:
			w.kw(unaryKeywords[e.Op])
			w.args([]Expression{e.Expr})
		}
	case Binary:
		if e.Op.IsFunction() {
			w.kw(strings.ToUpper(e.Op.String()))
			w.args([]Expression{e.Left, e.Right})
			return
		}
		w.add(lexer.LParen)
		w.expr(e.Left)
		w.add(binaryKinds[e.Op])
		w.expr(e.Right)
		w.add(lexer.RParen)
	case Cast:
		w.iri(e.Datatype)
		w.args([]Expression{e.Expr})
	case Call:
		if lexer.IsKeyword(e.Function) {
			w.kw(e.Function)
		} else {
			w.iri(e.Function)
		}
		w.args(e.Args)
	case In:
		w.add(lexer.LParen)
		w.expr(e.Expr)
		if e.Not {
			w.kw("NOT")
		}
		w.kw("IN")
		w.args(e.List)
		w.add(lexer.RParen)
	case Exists:
		if e.Not {
			w.kw("NOT")
		}
		w.kw("EXISTS")
		w.braced(e.Pattern)
	default:
		w.fail("unsupported expression %T", e)
	}
}

func (w *tokenWriter) aggregation(a Aggregation) {
	w.kw(a.Kind.Keyword())
	w.add(lexer.LParen)
	if a.Distinct {
		w.kw("DISTINCT")
	}
	if a.Kind == CountAll {
		w.add(lexer.Star)
	} else {
		w.expr(a.Expr)
	}
	if a.Kind == GroupConcat && a.Separator != DefaultSeparator {
		w.add(lexer.Semicolon)
		w.kw("SEPARATOR")
		w.add(lexer.Equals)
		w.toks = append(w.toks, lexer.Token{Kind: lexer.String1D, Value: a.Separator})
	}
	w.add(lexer.RParen)
}

func (w *tokenWriter) window(app WindowApplication) {
	fn := app.Function
	switch fn.Kind {
	case RowNumber:
		w.kw("ROW_NUMBER")
		w.add(lexer.Nil)
	case Rank:
		w.kw("RANK")
		w.add(lexer.Nil)
	case DenseRank:
		w.kw("DENSE_RANK")
		w.add(lexer.Nil)
	case Ntile:
		w.kw("NTILE")
		w.add(lexer.LParen)
		w.toks = append(w.toks, lexer.Token{Kind: lexer.Integer, Value: strconv.FormatInt(fn.N, 10)})
		w.add(lexer.RParen)
	case WindowAggregation:
		w.aggregation(*fn.Aggregation)
	case CustomWindow:
		w.iri(fn.IRI)
		w.args(fn.Args)
	}
	w.kw("OVER")
	if len(app.Partition) == 0 && len(app.Order) == 0 && app.Frame.IsDefault() {
		w.add(lexer.Nil)
		return
	}
	w.add(lexer.LParen)
	if len(app.Partition) > 0 {
		w.kw("PARTITION", "BY")
		for _, e := range app.Partition {
			w.add(lexer.LParen)
			w.expr(e)
			w.add(lexer.RParen)
		}
	}
	if len(app.Order) > 0 {
		w.kw("ORDER", "BY")
		for _, c := range app.Order {
			if c.Ascending {
				w.kw("ASC")
			} else {
				w.kw("DESC")
			}
			w.add(lexer.LParen)
			w.expr(c.Expr)
			w.add(lexer.RParen)
		}
	}
	if !app.Frame.IsDefault() {
		if app.Frame.Type == FrameRange {
			w.kw("RANGE")
		} else {
			w.kw("ROWS")
		}
		w.kw("BETWEEN")
		w.bound(app.Frame.From, "PRECEDING")
		w.kw("AND")
		w.bound(app.Frame.To, "FOLLOWING")
	}
	w.add(lexer.RParen)
}

func (w *tokenWriter) bound(b FrameBound, unboundedDirection string) {
	switch b.Kind {
	case Unbounded:
		w.kw("UNBOUNDED", unboundedDirection)
	case CurrentRow:
		w.kw("CURRENT", "ROW")
	case Preceding:
		w.expr(b.Expr)
		w.kw("PRECEDING")
	case Following:
		w.expr(b.Expr)
		w.kw("FOLLOWING")
	}
}

func (w *tokenWriter) path(p PropertyPath) {
	switch p := p.(type) {
	case Link:
		w.iri(p.IRI)
	case Inverse:
		w.add(lexer.Hat)
		w.pathPrimary(p.Path)
	case NegatedSet:
		w.add(lexer.Bang, lexer.LParen)
		for i, iri := range p.IRIs {
			if i > 0 {
				w.add(lexer.Pipe)
			}
			w.iri(iri)
		}
		w.add(lexer.RParen)
	case Alternative:
		w.add(lexer.LParen)
		w.path(p.Left)
		w.add(lexer.Pipe)
		w.path(p.Right)
		w.add(lexer.RParen)
	case Sequence:
		w.add(lexer.LParen)
		w.path(p.Left)
		w.add(lexer.Slash)
		w.path(p.Right)
		w.add(lexer.RParen)
	case OneOrMore:
		w.pathPrimary(p.Path)
		w.add(lexer.Plus)
	case ZeroOrMore:
		w.pathPrimary(p.Path)
		w.add(lexer.Star)
	case ZeroOrOne:
		w.pathPrimary(p.Path)
		w.add(lexer.Question)
	}
}

// pathPrimary writes p so that a following modifier applies to all of it.
func (w *tokenWriter) pathPrimary(p PropertyPath) {
	switch p.(type) {
	case Link, NegatedSet, Alternative, Sequence:
		w.path(p)
	default:
		w.add(lexer.LParen)
		w.path(p)
		w.add(lexer.RParen)
	}
}
