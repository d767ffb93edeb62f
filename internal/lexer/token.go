package lexer

import (
	"fmt"
	"strings"
)

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	Comment
	Nil  // ( )
	Anon // [ ]
	Double
	Decimal
	Integer
	Hat
	HatHat
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Equals
	NotEquals
	Bang
	IRI
	LangTag
	LT
	GT
	LE
	GE
	PrefixedName
	BlankNode
	String1D
	String1S
	String3D
	String3S
	Variable
	Keyword
	Boolean
	Dot
	Comma
	Semicolon
	Or
	And
	Pipe
	Plus
	Minus
	Star
	Slash
	Question
)

var kindNames = [...]string{
	EOF:          "EOF",
	Comment:      "comment",
	Nil:          "NIL",
	Anon:         "ANON",
	Double:       "double",
	Decimal:      "decimal",
	Integer:      "integer",
	Hat:          "'^'",
	HatHat:       "'^^'",
	LParen:       "'('",
	RParen:       "')'",
	LBrace:       "'{'",
	RBrace:       "'}'",
	LBracket:     "'['",
	RBracket:     "']'",
	Equals:       "'='",
	NotEquals:    "'!='",
	Bang:         "'!'",
	IRI:          "IRI",
	LangTag:      "language tag",
	LT:           "'<'",
	GT:           "'>'",
	LE:           "'<='",
	GE:           "'>='",
	PrefixedName: "prefixed name",
	BlankNode:    "blank node",
	String1D:     "string",
	String1S:     "string",
	String3D:     "long string",
	String3S:     "long string",
	Variable:     "variable",
	Keyword:      "keyword",
	Boolean:      "boolean",
	Dot:          "'.'",
	Comma:        "','",
	Semicolon:    "';'",
	Or:           "'||'",
	And:          "'&&'",
	Pipe:         "'|'",
	Plus:         "'+'",
	Minus:        "'-'",
	Star:         "'*'",
	Slash:        "'/'",
	Question:     "'?'",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsString reports whether k is one of the four string literal kinds.
func (k Kind) IsString() bool {
	return k == String1D || k == String1S || k == String3D || k == String3S
}

// IsNumeric reports whether k is a numeric literal kind.
func (k Kind) IsNumeric() bool {
	return k == Integer || k == Decimal || k == Double
}

// Token is a single lexical unit.
//
// Value holds the decoded payload: the IRI text without brackets, the
// unescaped string content, the variable name without its sigil, the
// local part of a prefixed name, or the uppercased keyword. Prefix is
// only set for PrefixedName.
type Token struct {
	Kind   Kind
	Value  string
	Prefix string
}

// Is reports whether t is the keyword kw (uppercase).
func (t Token) Is(kw string) bool {
	return t.Kind == Keyword && t.Value == kw
}

// Text renders t back into SPARQL source form.
func (t Token) Text() string {
	switch t.Kind {
	case EOF:
		return ""
	case Comment:
		return "#" + t.Value
	case Nil:
		return "()"
	case Anon:
		return "[]"
	case Double, Decimal, Integer, Boolean:
		return t.Value
	case IRI:
		return "<" + t.Value + ">"
	case LangTag:
		return "@" + t.Value
	case PrefixedName:
		return t.Prefix + ":" + escapeLocal(t.Value)
	case BlankNode:
		return "_:" + t.Value
	case String1D, String3D:
		return quoteString(t.Value, '"')
	case String1S, String3S:
		return quoteString(t.Value, '\'')
	case Variable:
		return "?" + t.Value
	case Keyword:
		if t.Value == "A" {
			return "a"
		}
		return t.Value
	}
	if s, ok := punctuation[t.Kind]; ok {
		return s
	}
	return t.Value
}

func (t Token) String() string {
	switch {
	case t.Kind == EOF:
		return "EOF"
	case t.Kind == Keyword:
		return "keyword " + t.Value
	default:
		return t.Kind.String() + " " + t.Text()
	}
}

var punctuation = map[Kind]string{
	Hat:       "^",
	HatHat:    "^^",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	LBracket:  "[",
	RBracket:  "]",
	Equals:    "=",
	NotEquals: "!=",
	Bang:      "!",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	Dot:       ".",
	Comma:     ",",
	Semicolon: ";",
	Or:        "||",
	And:       "&&",
	Pipe:      "|",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Question:  "?",
}

func quoteString(s string, quote byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)
	for _, c := range s {
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case rune(quote):
			b.WriteByte('\\')
			b.WriteByte(quote)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func escapeLocal(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, c := range runes {
		plain := isPNChars(c) || c == ':'
		if c == '%' {
			plain = i+2 < len(runes) && isHex(runes[i+1]) && isHex(runes[i+2])
		}
		if c == '.' && i > 0 && i < len(runes)-1 {
			plain = true
		}
		if i == 0 && c == '-' {
			plain = false
		}
		if !plain && isLocalEscapable(c) {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Position locates a character in the source. Line and Column are
// 1-based; Offset counts source characters from the start of input.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// PositionedToken is a Token with its source span. End is exclusive.
type PositionedToken struct {
	Token
	Start Position
	End   Position
}

// Render joins tokens into SPARQL text separated by single spaces.
func Render(tokens []Token) string {
	var b strings.Builder
	for i, t := range tokens {
		if t.Kind == EOF {
			continue
		}
		if i > 0 && b.Len() > 0 && !gluedToPrevious(tokens[i-1], t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text())
		if t.Kind == Comment {
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func gluedToPrevious(prev, t Token) bool {
	return prev.Kind == Comment || t.Kind == LangTag || t.Kind == HatHat || prev.Kind == HatHat
}
