package rdf

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// TermKind identifies RDF term types.
// The declaration order is the ordering used by Compare.
type TermKind uint8

const (
	// KindBlank represents a blank node.
	KindBlank TermKind = iota
	// KindIRI represents an IRI.
	KindIRI
	// KindLiteral represents a literal.
	KindLiteral
)

// String returns a short name for the kind.
func (k TermKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	default:
		return fmt.Sprintf("TermKind(%d)", uint8(k))
	}
}

// Term is an RDF value: an IRI, a blank node, or a literal.
//
// Value holds the IRI string, the blank node label, or the lexical form.
// Datatype is set for every literal (xsd:string for plain literals,
// rdf:langString for language-tagged literals). Language is set only for
// language-tagged literals and is always lower case.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Language string
}

// IRI creates an IRI term.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// Blank creates a blank node term with the given label.
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// String creates a simple literal (datatype xsd:string).
func String(value string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: XSDString}
}

// LangLiteral creates a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: RDFLangString, Language: strings.ToLower(lang)}
}

// TypedLiteral creates a literal with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// Integer creates an xsd:integer literal.
func Integer(n int64) Term {
	return TypedLiteral(strconv.FormatInt(n, 10), XSDInteger)
}

// Boolean creates an xsd:boolean literal.
func Boolean(b bool) Term {
	return TypedLiteral(strconv.FormatBool(b), XSDBoolean)
}

// True and False are the canonical boolean literals.
var (
	True  = Boolean(true)
	False = Boolean(false)
)

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool { return t.Kind == KindBlank }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// IsNumeric reports whether the term is a literal with a numeric datatype
// and a lexical form valid for that datatype.
func (t Term) IsNumeric() bool {
	_, ok := t.NumericValue()
	return ok
}

// NumericValue returns the numeric value of a numeric literal.
// The second result is false for non-numeric terms and for numeric
// literals whose lexical form is not valid.
func (t Term) NumericValue() (*apd.Decimal, bool) {
	if t.Kind != KindLiteral {
		return nil, false
	}
	switch {
	case integerDatatypes[t.Datatype]:
		if !isIntegerLexical(t.Value) {
			return nil, false
		}
	case t.Datatype == XSDDecimal:
		if !isDecimalLexical(t.Value) {
			return nil, false
		}
	case t.Datatype == XSDDouble || t.Datatype == XSDFloat:
		switch t.Value {
		case "INF", "+INF":
			return &apd.Decimal{Form: apd.Infinite}, true
		case "-INF":
			return &apd.Decimal{Form: apd.Infinite, Negative: true}, true
		case "NaN":
			return &apd.Decimal{Form: apd.NaN}, true
		}
		if !isDoubleLexical(t.Value) {
			return nil, false
		}
	default:
		return nil, false
	}
	d, _, err := apd.NewFromString(strings.TrimPrefix(t.Value, "+"))
	if err != nil {
		return nil, false
	}
	return d, true
}

// Canonical returns the term with its lexical form rewritten to the
// canonical form for its datatype. Non-numeric terms and invalid
// numeric literals are returned unchanged.
func (t Term) Canonical() Term {
	d, ok := t.NumericValue()
	if !ok {
		return t
	}
	switch {
	case integerDatatypes[t.Datatype]:
		if d.IsZero() {
			return TypedLiteral("0", t.Datatype)
		}
		return TypedLiteral(d.Text('f'), t.Datatype)
	case t.Datatype == XSDDecimal:
		var r apd.Decimal
		r.Reduce(d)
		s := r.Text('f')
		if r.IsZero() {
			s = "0"
		}
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return TypedLiteral(s, XSDDecimal)
	default:
		if d.Form != apd.Finite {
			return t
		}
		f, err := d.Float64()
		if err != nil || math.IsInf(f, 0) {
			return t
		}
		return TypedLiteral(canonicalDouble(f), t.Datatype)
	}
}

// canonicalDouble renders f in the xsd:double canonical form, e.g. 1.0E5.
func canonicalDouble(f float64) string {
	s := strconv.FormatFloat(f, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(exp, "+-")
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	if neg {
		exp = "-" + exp
	}
	return mantissa + "E" + exp
}

// Equal reports whether two terms denote the same value. Numeric literals
// are equal when their values are equal; all other terms compare by kind,
// lexical form, datatype and language.
func (t Term) Equal(other Term) bool {
	return Compare(t, other) == 0
}

// Compare orders terms: blank nodes, then IRIs, then literals. Numeric
// literals sort before other literals and compare by value.
func Compare(a, b Term) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	if a.Kind == KindLiteral {
		an, aok := a.NumericValue()
		bn, bok := b.NumericValue()
		switch {
		case aok && bok && an.Form != apd.NaN && bn.Form != apd.NaN:
			return an.Cmp(bn)
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		}
	}
	if c := strings.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	if c := strings.Compare(a.Datatype, b.Datatype); c != 0 {
		return c
	}
	return strings.Compare(a.Language, b.Language)
}

// String returns the N-Triples form of the term.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	default:
		quoted := strconv.Quote(t.Value)
		switch {
		case t.Language != "":
			return quoted + "@" + t.Language
		case t.Datatype == "" || t.Datatype == XSDString:
			return quoted
		default:
			return quoted + "^^<" + t.Datatype + ">"
		}
	}
}

func isIntegerLexical(s string) bool {
	s = trimSign(s)
	if s == "" {
		return false
	}
	return allDigits(s)
}

func isDecimalLexical(s string) bool {
	s = trimSign(s)
	whole, frac, found := strings.Cut(s, ".")
	if !found {
		return whole != "" && allDigits(whole)
	}
	if whole == "" && frac == "" {
		return false
	}
	return allDigits(whole) && allDigits(frac)
}

func isDoubleLexical(s string) bool {
	mantissa, exp, found := strings.Cut(strings.ToLower(s), "e")
	if !isDecimalLexical(mantissa) {
		return false
	}
	if !found {
		return true
	}
	return isIntegerLexical(exp)
}

func trimSign(s string) string {
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return s[1:]
	}
	return s
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
