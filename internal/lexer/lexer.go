// Package lexer turns SPARQL 1.1 query text into a stream of tokens.
package lexer

import (
	"io"
	"strings"
)

// Option configures a Lexer.
type Option func(*Lexer)

// WithComments makes the lexer emit Comment tokens instead of skipping them.
func WithComments() Option {
	return func(l *Lexer) { l.comments = true }
}

// Lexer is a pull tokenizer over a character stream. It holds one slot of
// token push-back shared by Peek and Unread.
type Lexer struct {
	r        *reader
	comments bool

	line   int
	column int
	offset int

	pushed *PositionedToken
}

// New returns a Lexer reading from r.
func New(r io.Reader, opts ...Option) *Lexer {
	l := &Lexer{r: newReader(r), line: 1, column: 1}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewString returns a Lexer over s.
func NewString(s string, opts ...Option) *Lexer {
	return New(strings.NewReader(s), opts...)
}

// Position returns the position of the next unconsumed character.
func (l *Lexer) Position() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.offset}
}

// Remaining returns up to n characters of unconsumed input. A token held
// for push-back is not included.
func (l *Lexer) Remaining(n int) string {
	return l.r.snippet(n)
}

// Next returns the next token. At end of input it returns an EOF token.
func (l *Lexer) Next() (Token, error) {
	t, err := l.NextPositioned()
	return t.Token, err
}

// NextPositioned returns the next token with its source span.
func (l *Lexer) NextPositioned() (PositionedToken, error) {
	if l.pushed != nil {
		t := *l.pushed
		l.pushed = nil
		return t, nil
	}
	for {
		t, err := l.scan()
		if err != nil {
			return PositionedToken{}, err
		}
		if t.Kind == Comment && !l.comments {
			continue
		}
		return t, nil
	}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (PositionedToken, error) {
	if l.pushed != nil {
		return *l.pushed, nil
	}
	t, err := l.NextPositioned()
	if err != nil {
		return PositionedToken{}, err
	}
	l.pushed = &t
	return t, nil
}

// Unread pushes t back so the next call to Next returns it. Only one
// token may be pushed back at a time.
func (l *Lexer) Unread(t PositionedToken) {
	if l.pushed != nil {
		panic("lexer: Unread called with a token already pushed back")
	}
	l.pushed = &t
}

// Tokenize lexes all of s, excluding the final EOF token.
func Tokenize(s string, opts ...Option) ([]PositionedToken, error) {
	l := NewString(s, opts...)
	var out []PositionedToken
	for {
		t, err := l.NextPositioned()
		if err != nil {
			return out, err
		}
		if t.Kind == EOF {
			return out, nil
		}
		out = append(out, t)
	}
}

func (l *Lexer) peek(k int) rune {
	c, ok := l.r.peek(k)
	if !ok {
		return -1
	}
	return c
}

func (l *Lexer) advance() rune {
	c, w, ok := l.r.next()
	if !ok {
		return -1
	}
	l.offset += w
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column += w
	}
	return c
}

func (l *Lexer) skip(n int) {
	for range n {
		l.advance()
	}
}

// fail builds a LexicalError at the current position. A pending reader
// failure takes precedence since it explains why input ran out.
func (l *Lexer) fail(code ErrorCode, msg string) error {
	if l.r.err != nil && l.r.available() == 0 {
		return l.readerError()
	}
	return &LexicalError{
		Code:     code,
		Message:  msg,
		Position: l.Position(),
		Context:  l.r.snippet(24),
	}
}

func (l *Lexer) readerError() error {
	le, ok := l.r.err.(*LexicalError)
	if !ok {
		return l.r.err
	}
	out := *le
	out.Position = l.Position()
	return &out
}

func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.peek(0)) {
		l.advance()
	}
}

func (l *Lexer) scan() (PositionedToken, error) {
	l.skipWhitespace()
	start := l.Position()
	tok, err := l.scanToken()
	if err != nil {
		return PositionedToken{}, err
	}
	end := l.Position()
	if tok.Kind != EOF && end.Offset <= start.Offset {
		panic("lexer: zero-width token " + tok.Kind.String())
	}
	return PositionedToken{Token: tok, Start: start, End: end}, nil
}

func (l *Lexer) scanToken() (Token, error) {
	c := l.peek(0)
	switch {
	case c < 0:
		if l.r.err != nil {
			return Token{}, l.readerError()
		}
		return Token{Kind: EOF}, nil
	case c == '#':
		return l.scanComment(), nil
	case c == '(':
		if l.skipEmptyPair(')') {
			return Token{Kind: Nil}, nil
		}
		return l.single(LParen), nil
	case c == '[':
		if l.skipEmptyPair(']') {
			return Token{Kind: Anon}, nil
		}
		return l.single(LBracket), nil
	case c == '<':
		if tok, ok, err := l.scanIRI(); err != nil || ok {
			return tok, err
		}
		return l.oneOrTwo('=', LE, LT), nil
	case c == '>':
		return l.oneOrTwo('=', GE, GT), nil
	case c == '^':
		return l.oneOrTwo('^', HatHat, Hat), nil
	case c == '!':
		return l.oneOrTwo('=', NotEquals, Bang), nil
	case c == '|':
		return l.oneOrTwo('|', Or, Pipe), nil
	case c == '&':
		if l.peek(1) == '&' {
			l.skip(2)
			return Token{Kind: And}, nil
		}
		return Token{}, l.fail(CodeUnexpectedCharacter, "expected '&&'")
	case c == '"' || c == '\'':
		return l.scanString(c)
	case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
		return l.scanNumber(), nil
	case c == '?' || c == '$':
		if isVarNameStart(l.peek(1)) {
			return l.scanVariable(), nil
		}
		if c == '?' {
			return l.single(Question), nil
		}
		return Token{}, l.fail(CodeUnexpectedCharacter, "expected variable name after '$'")
	case c == '@':
		return l.scanLangTag()
	case c == '_':
		if l.peek(1) == ':' {
			return l.scanBlankNode()
		}
		return Token{}, l.fail(CodeUnexpectedCharacter, "unexpected '_'")
	case c == ':' || isPNCharsBase(c):
		return l.scanName()
	}
	if k, ok := singles[c]; ok {
		return l.single(k), nil
	}
	return Token{}, l.fail(CodeUnexpectedCharacter, "unexpected character "+quoteRune(c))
}

var singles = map[rune]Kind{
	')': RParen,
	']': RBracket,
	'{': LBrace,
	'}': RBrace,
	'=': Equals,
	'.': Dot,
	',': Comma,
	';': Semicolon,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
}

func quoteRune(c rune) string {
	return "'" + string(c) + "'"
}

func (l *Lexer) single(k Kind) Token {
	l.advance()
	return Token{Kind: k}
}

func (l *Lexer) oneOrTwo(second rune, two, one Kind) Token {
	if l.peek(1) == second {
		l.skip(2)
		return Token{Kind: two}
	}
	l.skip(1)
	return Token{Kind: one}
}

// skipEmptyPair consumes an opening bracket, optional whitespace and the
// closing bracket when they form NIL or ANON.
func (l *Lexer) skipEmptyPair(close rune) bool {
	i := 1
	for isWhitespace(l.peek(i)) {
		i++
	}
	if l.peek(i) != close {
		return false
	}
	l.skip(i + 1)
	return true
}

func (l *Lexer) scanComment() Token {
	l.advance()
	var b strings.Builder
	for {
		c := l.peek(0)
		if c < 0 || c == '\n' || c == '\r' {
			break
		}
		b.WriteRune(l.advance())
	}
	return Token{Kind: Comment, Value: b.String()}
}

// scanIRI matches an IRIREF. It reports false, consuming nothing, when the
// '<' does not open an IRI so that it can be lexed as an operator.
func (l *Lexer) scanIRI() (Token, bool, error) {
	i := 1
	escaped := false
	for {
		c := l.peek(i)
		if c == '>' {
			break
		}
		if c < 0 || !isIRIChar(c) {
			return Token{}, false, nil
		}
		if c == '\\' {
			escaped = true
		}
		i++
	}
	l.advance()
	var b strings.Builder
	for range i - 1 {
		b.WriteRune(l.advance())
	}
	l.advance()
	value := b.String()
	if escaped {
		// codepoint escapes were decoded by the reader; anything left is invalid
		return Token{}, false, &LexicalError{
			Code:     CodeInvalidIRI,
			Message:  "invalid escape in IRI",
			Position: l.Position(),
			Context:  "<" + value + ">",
		}
	}
	return Token{Kind: IRI, Value: value}, true, nil
}

func (l *Lexer) scanString(quote rune) (Token, error) {
	if l.peek(1) == quote && l.peek(2) == quote {
		return l.scanLongString(quote)
	}
	kind := String1D
	if quote == '\'' {
		kind = String1S
	}
	// fast path: no escapes before the closing quote
	i := 1
	for {
		c := l.peek(i)
		if c == quote {
			l.advance()
			var b strings.Builder
			for range i - 1 {
				b.WriteRune(l.advance())
			}
			l.advance()
			return Token{Kind: kind, Value: b.String()}, nil
		}
		if c < 0 || c == '\\' || c == '\n' || c == '\r' {
			break
		}
		i++
	}
	l.advance()
	var b strings.Builder
	for {
		c := l.peek(0)
		switch {
		case c < 0 || c == '\n' || c == '\r':
			return Token{}, l.fail(CodeUnterminatedString, "unterminated string literal")
		case c == quote:
			l.advance()
			return Token{Kind: kind, Value: b.String()}, nil
		case c == '\\':
			if err := l.scanEscape(&b); err != nil {
				return Token{}, err
			}
		default:
			b.WriteRune(l.advance())
		}
	}
}

// scanLongString reads a triple-quoted literal. In a run of three or
// more quotes, the final three close the literal and any before them are
// content.
func (l *Lexer) scanLongString(quote rune) (Token, error) {
	kind := String3D
	if quote == '\'' {
		kind = String3S
	}
	l.skip(3)
	var b strings.Builder
	for {
		c := l.peek(0)
		switch {
		case c < 0:
			return Token{}, l.fail(CodeUnterminatedString, "unterminated long string literal")
		case c == quote:
			n := 0
			for l.peek(n) == quote {
				n++
			}
			if n >= 3 {
				b.WriteString(strings.Repeat(string(quote), n-3))
				l.skip(n)
				return Token{Kind: kind, Value: b.String()}, nil
			}
			b.WriteString(strings.Repeat(string(quote), n))
			l.skip(n)
		case c == '\\':
			if err := l.scanEscape(&b); err != nil {
				return Token{}, err
			}
		default:
			b.WriteRune(l.advance())
		}
	}
}

func (l *Lexer) scanEscape(b *strings.Builder) error {
	var out rune
	switch l.peek(1) {
	case 't':
		out = '\t'
	case 'b':
		out = '\b'
	case 'n':
		out = '\n'
	case 'r':
		out = '\r'
	case 'f':
		out = '\f'
	case '"':
		out = '"'
	case '\'':
		out = '\''
	case '\\':
		out = '\\'
	default:
		return l.fail(CodeInvalidEscape, "invalid escape sequence in string")
	}
	l.skip(2)
	b.WriteRune(out)
	return nil
}

func (l *Lexer) digitsAt(i int) int {
	n := 0
	for isDigit(l.peek(i + n)) {
		n++
	}
	return n
}

// exponentAt returns the length of an EXPONENT starting at i, or 0.
func (l *Lexer) exponentAt(i int) int {
	if c := l.peek(i); c != 'e' && c != 'E' {
		return 0
	}
	j := i + 1
	if c := l.peek(j); c == '+' || c == '-' {
		j++
	}
	n := l.digitsAt(j)
	if n == 0 {
		return 0
	}
	return j + n - i
}

// matchDouble returns the rune length of a DOUBLE at the cursor, or 0.
func (l *Lexer) matchDouble() int {
	whole := l.digitsAt(0)
	if whole > 0 {
		if l.peek(whole) == '.' {
			frac := l.digitsAt(whole + 1)
			if e := l.exponentAt(whole + 1 + frac); e > 0 {
				return whole + 1 + frac + e
			}
		}
		if e := l.exponentAt(whole); e > 0 {
			return whole + e
		}
		return 0
	}
	if l.peek(0) == '.' {
		frac := l.digitsAt(1)
		if frac > 0 {
			if e := l.exponentAt(1 + frac); e > 0 {
				return 1 + frac + e
			}
		}
	}
	return 0
}

// matchDecimal returns the rune length of a DECIMAL at the cursor, or 0.
func (l *Lexer) matchDecimal() int {
	whole := l.digitsAt(0)
	if l.peek(whole) != '.' {
		return 0
	}
	frac := l.digitsAt(whole + 1)
	if frac == 0 {
		return 0
	}
	return whole + 1 + frac
}

func (l *Lexer) scanNumber() Token {
	kind, n := Double, l.matchDouble()
	if n == 0 {
		kind, n = Decimal, l.matchDecimal()
	}
	if n == 0 {
		kind, n = Integer, l.digitsAt(0)
	}
	var b strings.Builder
	for range n {
		b.WriteRune(l.advance())
	}
	return Token{Kind: kind, Value: b.String()}
}

func (l *Lexer) scanVariable() Token {
	l.advance()
	var b strings.Builder
	for isVarNameChar(l.peek(0)) {
		b.WriteRune(l.advance())
	}
	return Token{Kind: Variable, Value: b.String()}
}

func (l *Lexer) scanLangTag() (Token, error) {
	if !isASCIILetter(l.peek(1)) {
		return Token{}, l.fail(CodeUnexpectedCharacter, "expected language tag after '@'")
	}
	l.advance()
	var b strings.Builder
	for isASCIILetter(l.peek(0)) {
		b.WriteRune(l.advance())
	}
	for l.peek(0) == '-' && (isASCIILetter(l.peek(1)) || isDigit(l.peek(1))) {
		b.WriteRune(l.advance())
		for c := l.peek(0); isASCIILetter(c) || isDigit(c); c = l.peek(0) {
			b.WriteRune(l.advance())
		}
	}
	return Token{Kind: LangTag, Value: b.String()}, nil
}

func (l *Lexer) scanBlankNode() (Token, error) {
	if c := l.peek(2); !isPNCharsU(c) && !isDigit(c) {
		return Token{}, l.fail(CodeUnexpectedCharacter, "expected blank node label after '_:'")
	}
	// the label may contain dots but may not end with one
	n := 1
	last := 1
	for {
		c := l.peek(2 + n)
		if c == '.' {
			n++
			continue
		}
		if !isPNChars(c) {
			break
		}
		n++
		last = n
	}
	l.skip(2)
	var b strings.Builder
	for range last {
		b.WriteRune(l.advance())
	}
	return Token{Kind: BlankNode, Value: b.String()}, nil
}

// scanName lexes a prefixed name, a keyword, a boolean or 'a'.
func (l *Lexer) scanName() (Token, error) {
	n := 0
	for c := l.peek(0); c != ':' && (isPNChars(c) || c == '.'); c = l.peek(n) {
		n++
	}
	if l.peek(n) == ':' && (n == 0 || l.peek(n-1) != '.') {
		var prefix strings.Builder
		for range n {
			prefix.WriteRune(l.advance())
		}
		l.advance()
		local, err := l.scanLocal()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: PrefixedName, Prefix: prefix.String(), Value: local}, nil
	}
	for n > 0 && l.peek(n-1) == '.' {
		n--
	}
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = l.peek(i)
	}
	word := string(runes)
	tok, ok := wordToken(word)
	if !ok {
		return Token{}, l.fail(CodeUnknownKeyword, "unknown keyword "+quoteWord(word))
	}
	l.skip(n)
	return tok, nil
}

func quoteWord(w string) string {
	return "'" + w + "'"
}

func wordToken(word string) (Token, bool) {
	if word == "a" {
		return Token{Kind: Keyword, Value: "A"}, true
	}
	if kw, ok := lookupKeyword(word); ok {
		return Token{Kind: Keyword, Value: kw}, true
	}
	switch {
	case equalFoldASCII(word, "TRUE"):
		return Token{Kind: Boolean, Value: "true"}, true
	case equalFoldASCII(word, "FALSE"):
		return Token{Kind: Boolean, Value: "false"}, true
	}
	return Token{}, false
}

// scanLocal reads PN_LOCAL after the colon. Escapes are decoded, percent
// encodings are kept verbatim, and trailing dots are left unconsumed.
func (l *Lexer) scanLocal() (string, error) {
	var b strings.Builder
	first := true
	for {
		c := l.peek(0)
		switch {
		case c == '.' && !first:
			// only part of the name if something follows
			n := 1
			for l.peek(n) == '.' {
				n++
			}
			if !l.localContinuesAt(n) {
				return b.String(), nil
			}
			for range n {
				b.WriteRune(l.advance())
			}
			continue
		case c == '%':
			if !isHex(l.peek(1)) || !isHex(l.peek(2)) {
				return b.String(), nil
			}
			for range 3 {
				b.WriteRune(l.advance())
			}
		case c == '\\':
			if !isLocalEscapable(l.peek(1)) {
				return "", l.fail(CodeInvalidEscape, "invalid escape in local name")
			}
			l.advance()
			b.WriteRune(l.advance())
		case c == ':' || isPNCharsU(c) || isDigit(c):
			b.WriteRune(l.advance())
		case !first && isPNChars(c):
			b.WriteRune(l.advance())
		default:
			return b.String(), nil
		}
		first = false
	}
}

// localContinuesAt reports whether the rune at k can continue PN_LOCAL
// after a run of dots.
func (l *Lexer) localContinuesAt(k int) bool {
	c := l.peek(k)
	switch {
	case c == ':' || isPNChars(c):
		return true
	case c == '%':
		return isHex(l.peek(k+1)) && isHex(l.peek(k+2))
	case c == '\\':
		return isLocalEscapable(l.peek(k + 1))
	}
	return false
}
