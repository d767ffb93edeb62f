package algebra

import (
	"fmt"
	"strings"

	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// Format renders a as an indented S-expression, one algebra node per line.
func Format(a Algebra) string {
	var f formatter
	f.algebra(a, 0)
	return f.String()
}

// FormatQuery renders q as an S-expression headed by its query form.
func FormatQuery(q *Query) string {
	var f formatter
	f.query(q, 0)
	return f.String()
}

// FormatExpression renders e on a single line.
func FormatExpression(e Expression) string {
	return expressionString(e)
}

// FormatPath renders p in SPARQL path syntax with full IRIs, fully
// parenthesized.
func FormatPath(p PropertyPath) string {
	switch p := p.(type) {
	case Link:
		return "<" + p.IRI + ">"
	case Inverse:
		return "^" + FormatPath(p.Path)
	case NegatedSet:
		iris := make([]string, len(p.IRIs))
		for i, iri := range p.IRIs {
			iris[i] = "<" + iri + ">"
		}
		return "!(" + strings.Join(iris, "|") + ")"
	case Alternative:
		return "(" + FormatPath(p.Left) + "|" + FormatPath(p.Right) + ")"
	case Sequence:
		return "(" + FormatPath(p.Left) + "/" + FormatPath(p.Right) + ")"
	case OneOrMore:
		return FormatPath(p.Path) + "+"
	case ZeroOrMore:
		return FormatPath(p.Path) + "*"
	case ZeroOrOne:
		return FormatPath(p.Path) + "?"
	}
	return fmt.Sprintf("%v", p)
}

type formatter struct {
	strings.Builder
}

func (f *formatter) open(depth int, header string) {
	if depth > 0 {
		f.WriteByte('\n')
		f.WriteString(strings.Repeat("  ", depth))
	}
	f.WriteString("(")
	f.WriteString(header)
}

func (f *formatter) query(q *Query, depth int) {
	header := formString(q.Form)
	if q.Dataset != nil {
		for _, g := range q.Dataset.Default {
			header += " (from <" + g + ">)"
		}
		for _, g := range q.Dataset.Named {
			header += " (from-named <" + g + ">)"
		}
	}
	if q.Base != "" {
		header += " (base <" + q.Base + ">)"
	}
	f.open(depth, header)
	f.algebra(q.Algebra, depth+1)
	f.WriteString(")")
}

func formString(form Form) string {
	switch form := form.(type) {
	case Select:
		if form.Star {
			return "select *"
		}
		return "select " + varList(form.Variables)
	case Ask:
		return "ask"
	case Construct:
		parts := make([]string, len(form.Template))
		for i, tp := range form.Template {
			parts[i] = tripleString(tp)
		}
		return "construct (" + strings.Join(parts, " ") + ")"
	case Describe:
		if form.Star {
			return "describe *"
		}
		parts := make([]string, len(form.Nodes))
		for i, n := range form.Nodes {
			parts[i] = n.String()
		}
		return "describe (" + strings.Join(parts, " ") + ")"
	}
	return fmt.Sprintf("%T", form)
}

func varList(vars []string) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = "?" + v
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func tripleString(tp rdf.TriplePattern) string {
	return "(triple " + tp.Subject.String() + " " + tp.Predicate.String() + " " + tp.Object.String() + ")"
}

func (f *formatter) algebra(a Algebra, depth int) {
	switch a := a.(type) {
	case UnionIdentity:
		f.open(depth, "union-identity)")
		return
	case JoinIdentity:
		f.open(depth, "join-identity)")
		return
	case Table:
		var b strings.Builder
		b.WriteString("table " + varList(a.Variables))
		for _, row := range a.Rows {
			b.WriteString(" (row")
			for _, cell := range row {
				if cell == nil {
					b.WriteString(" undef")
				} else {
					b.WriteString(" " + cell.String())
				}
			}
			b.WriteString(")")
		}
		f.open(depth, b.String()+")")
		return
	case Quad:
		p := a.Pattern
		f.open(depth, fmt.Sprintf("quad %s %s %s %s)", p.Graph, p.Subject, p.Predicate, p.Object))
		return
	case Triple:
		f.open(depth, strings.TrimPrefix(tripleString(a.Pattern), "("))
		return
	case BGP:
		f.open(depth, "bgp")
		for _, tp := range a.Triples {
			f.WriteString("\n" + strings.Repeat("  ", depth+1) + tripleString(tp))
		}
		f.WriteString(")")
		return
	case Path:
		f.open(depth, fmt.Sprintf("path %s %s %s)", a.Subject, FormatPath(a.Path), a.Object))
		return
	case Subquery:
		f.open(depth, "subquery")
		f.query(a.Query, depth+1)
		f.WriteString(")")
		return
	}
	f.open(depth, nodeHeader(a))
	for _, c := range Children(a) {
		f.algebra(c, depth+1)
	}
	f.WriteString(")")
}

func nodeHeader(a Algebra) string {
	switch a := a.(type) {
	case InnerJoin:
		return "join"
	case LeftOuterJoin:
		return "leftjoin " + expressionString(a.Condition)
	case Union:
		return "union"
	case Minus:
		return "minus"
	case Filter:
		return "filter " + expressionString(a.Condition)
	case NamedGraph:
		return "graph " + a.Graph.String()
	case Extend:
		return "extend ?" + a.Variable + " " + expressionString(a.Expr)
	case Project:
		return "project " + varList(a.Variables)
	case Distinct:
		return "distinct"
	case Reduced:
		return "reduced"
	case Service:
		if a.Silent {
			return "service silent <" + a.Endpoint + ">"
		}
		return "service <" + a.Endpoint + ">"
	case Slice:
		return "slice " + optInt(a.Offset) + " " + optInt(a.Limit)
	case Order:
		return "order " + comparatorsString(a.Comparators)
	case Aggregate:
		parts := []string{"aggregate", "(group" + exprList(a.Groups) + ")"}
		for _, m := range a.Aggregations {
			parts = append(parts, "(?"+m.Variable+" "+aggregationString(m.Aggregation)+")")
		}
		return strings.Join(parts, " ")
	case Window:
		parts := []string{"window"}
		for _, m := range a.Windows {
			parts = append(parts, "(?"+m.Variable+" "+windowString(m.Application)+")")
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf("%T", a)
}

func optInt(n *int) string {
	if n == nil {
		return "_"
	}
	return fmt.Sprint(*n)
}

func exprList(es []Expression) string {
	var b strings.Builder
	for _, e := range es {
		b.WriteString(" " + expressionString(e))
	}
	return b.String()
}

func comparatorsString(cs []Comparator) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		dir := "asc"
		if !c.Ascending {
			dir = "desc"
		}
		parts[i] = "(" + dir + " " + expressionString(c.Expr) + ")"
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func aggregationString(a Aggregation) string {
	var b strings.Builder
	b.WriteString("(" + strings.ToLower(a.Kind.Keyword()))
	if a.Distinct {
		b.WriteString(" distinct")
	}
	if a.Kind == CountAll {
		b.WriteString(" *")
	} else {
		b.WriteString(" " + expressionString(a.Expr))
	}
	if a.Kind == GroupConcat && a.Separator != DefaultSeparator {
		b.WriteString(" " + rdf.String(a.Separator).String())
	}
	b.WriteString(")")
	return b.String()
}

func windowString(w WindowApplication) string {
	var fn string
	switch w.Function.Kind {
	case RowNumber:
		fn = "(row_number)"
	case Rank:
		fn = "(rank)"
	case DenseRank:
		fn = "(dense_rank)"
	case Ntile:
		fn = fmt.Sprintf("(ntile %d)", w.Function.N)
	case WindowAggregation:
		fn = aggregationString(*w.Function.Aggregation)
	case CustomWindow:
		fn = "(<" + w.Function.IRI + ">" + exprList(w.Function.Args) + ")"
	}
	parts := []string{"over", fn}
	if len(w.Partition) > 0 {
		parts = append(parts, "(partition"+exprList(w.Partition)+")")
	}
	if len(w.Order) > 0 {
		parts = append(parts, "(order "+comparatorsString(w.Order)+")")
	}
	if !w.Frame.IsDefault() {
		typ := "rows"
		if w.Frame.Type == FrameRange {
			typ = "range"
		}
		parts = append(parts, "(frame "+typ+" "+boundString(w.Frame.From)+" "+boundString(w.Frame.To)+")")
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func boundString(b FrameBound) string {
	switch b.Kind {
	case Unbounded:
		return "unbounded"
	case CurrentRow:
		return "current"
	case Preceding:
		return "(preceding " + expressionString(b.Expr) + ")"
	default:
		return "(following " + expressionString(b.Expr) + ")"
	}
}

func expressionString(e Expression) string {
	switch e := e.(type) {
	case nil:
		return "_"
	case NodeExpr:
		return e.Node.String()
	case AggregateExpr:
		return aggregationString(e.Aggregation)
	case WindowExpr:
		return windowString(e.Application)
	case Unary:
		return "(" + e.Op.String() + " " + expressionString(e.Expr) + ")"
	case Binary:
		return "(" + e.Op.String() + " " + expressionString(e.Left) + " " + expressionString(e.Right) + ")"
	case Cast:
		return "(cast <" + e.Datatype + "> " + expressionString(e.Expr) + ")"
	case Call:
		name := e.Function
		if strings.Contains(name, ":") {
			name = "<" + name + ">"
		}
		return "(call " + name + exprList(e.Args) + ")"
	case In:
		op := "in"
		if e.Not {
			op = "notin"
		}
		return "(" + op + " " + expressionString(e.Expr) + " (" + strings.TrimPrefix(exprList(e.List), " ") + "))"
	case Exists:
		op := "exists"
		if e.Not {
			op = "notexists"
		}
		return "(" + op + " " + strings.Join(strings.Fields(Format(e.Pattern)), " ") + ")"
	}
	return fmt.Sprintf("%T", e)
}
