// Package parser is a recursive-descent SPARQL 1.1 query parser. It drives
// the lexer, applies the translation rules in package rewrite, and
// assembles a validated algebra.Query.
package parser

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/iri"
	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/rdf"
	"github.com/roach88/sparqlsyntax/internal/rewrite"
)

// Option configures a Parser.
type Option func(*Parser)

// WithPrefixes predeclares prefixes. Later PREFIX declarations override
// them.
func WithPrefixes(prefixes map[string]string) Option {
	return func(p *Parser) { maps.Copy(p.prefixes, prefixes) }
}

// WithBase sets the initial base IRI.
func WithBase(base string) Option {
	return func(p *Parser) { p.base = base }
}

// WithBlankNodesAsVariables makes every blank node in a graph pattern a
// non-binding variable.
func WithBlankNodesAsVariables(enabled bool) Option {
	return func(p *Parser) { p.blanksAsVars = enabled }
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.log = logger }
}

// WithLexerOptions passes options to the underlying lexer.
func WithLexerOptions(opts ...lexer.Option) Option {
	return func(p *Parser) { p.lexOpts = append(p.lexOpts, opts...) }
}

// Parser holds the state of one parse: the live prefix table and base
// IRI, the blank node label table, and the aggregate extractor of the
// SELECT being parsed. A Parser is not safe for concurrent use; separate
// Parsers share nothing.
type Parser struct {
	lex     *lexer.Lexer
	lexOpts []lexer.Option
	log     *slog.Logger

	prefixes     map[string]string
	base         string
	blanksAsVars bool

	blankIDs   map[string]string // user label -> internal label
	blankNames map[string]string // internal label -> user label
	blankCount int

	extractor *rewrite.Extractor

	last lexer.PositionedToken
}

// New returns a Parser reading query text from r.
func New(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		log:        slog.New(slog.DiscardHandler),
		prefixes:   map[string]string{},
		blankIDs:   map[string]string{},
		blankNames: map[string]string{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lex = lexer.New(r, p.lexOpts...)
	return p
}

// NewString returns a Parser over s.
func NewString(s string, opts ...Option) *Parser {
	return New(strings.NewReader(s), opts...)
}

// ParseQuery parses s as a complete query.
func ParseQuery(s string, opts ...Option) (*algebra.Query, error) {
	return NewString(s, opts...).ParseQuery()
}

// ParseAlgebra parses a complete query and returns only its algebra.
func (p *Parser) ParseAlgebra() (algebra.Algebra, error) {
	q, err := p.ParseQuery()
	if err != nil {
		return nil, err
	}
	return q.Algebra, nil
}

// Prefixes returns a copy of the prefix table as it stands.
func (p *Parser) Prefixes() map[string]string {
	return maps.Clone(p.prefixes)
}

// Base returns the current base IRI.
func (p *Parser) Base() string {
	return p.base
}

func (p *Parser) peek() (lexer.PositionedToken, error) {
	return p.lex.Peek()
}

func (p *Parser) next() (lexer.PositionedToken, error) {
	t, err := p.lex.NextPositioned()
	if err != nil {
		return t, err
	}
	p.last = t
	return t, nil
}

// peekIs reports whether the next token has kind k.
func (p *Parser) peekIs(k lexer.Kind) (bool, error) {
	t, err := p.peek()
	if err != nil {
		return false, err
	}
	return t.Kind == k, nil
}

// peekKeyword reports whether the next token is one of the keywords.
func (p *Parser) peekKeyword(kws ...string) (bool, error) {
	t, err := p.peek()
	if err != nil {
		return false, err
	}
	for _, kw := range kws {
		if t.Is(kw) {
			return true, nil
		}
	}
	return false, nil
}

// attempt consumes the next token if it has kind k.
func (p *Parser) attempt(k lexer.Kind) (bool, error) {
	ok, err := p.peekIs(k)
	if err != nil || !ok {
		return false, err
	}
	_, err = p.next()
	return true, err
}

// attemptKeyword consumes the next token if it is the keyword kw.
func (p *Parser) attemptKeyword(kw string) (bool, error) {
	ok, err := p.peekKeyword(kw)
	if err != nil || !ok {
		return false, err
	}
	_, err = p.next()
	return true, err
}

// expect consumes a token of kind k or fails.
func (p *Parser) expect(k lexer.Kind) (lexer.PositionedToken, error) {
	t, err := p.next()
	if err != nil {
		return t, err
	}
	if t.Kind != k {
		return t, p.unexpected(t, k.String())
	}
	return t, nil
}

// expectKeyword consumes the keyword kw or fails.
func (p *Parser) expectKeyword(kw string) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if !t.Is(kw) {
		return p.unexpected(t, kw)
	}
	return nil
}

func (p *Parser) unexpected(t lexer.PositionedToken, want string) error {
	if t.Kind == lexer.EOF {
		return p.errorAt(t, CodeUnexpectedToken, "unexpected end of input, expected %s", want)
	}
	return p.errorAt(t, CodeUnexpectedToken, "expected %s but found %s", want, t.Token)
}

// errorAt builds a ParsingError located at t.
func (p *Parser) errorAt(t lexer.PositionedToken, code ErrorCode, format string, args ...any) error {
	return &ParsingError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    t.Start.Line,
		Column:  t.Start.Column,
		Offset:  t.Start.Offset,
		Context: strings.TrimSpace(t.Text() + " " + p.lex.Remaining(24)),
	}
}

// fail builds a ParsingError at the last consumed token.
func (p *Parser) fail(code ErrorCode, format string, args ...any) error {
	return p.errorAt(p.last, code, format, args...)
}

// wrap converts an error from a collaborator into a ParsingError at the
// last consumed token.
func (p *Parser) wrap(code ErrorCode, err error) error {
	pe := p.fail(code, "%s", err.Error()).(*ParsingError)
	pe.Err = err
	return pe
}

// resolve resolves an IRI reference against the current base.
func (p *Parser) resolve(ref string) (string, error) {
	out, err := iri.Resolve(ref, p.base)
	if err != nil {
		return "", p.wrap(CodeInvalidIRI, err)
	}
	return out, nil
}

// expandPrefixed expands a prefixed name token into an IRI.
func (p *Parser) expandPrefixed(t lexer.PositionedToken) (string, error) {
	ns, ok := p.prefixes[t.Prefix]
	if !ok {
		return "", p.errorAt(t, CodeUndefinedPrefix, "undefined prefix %q", t.Prefix)
	}
	return ns + t.Value, nil
}

// iriFromToken returns the IRI denoted by an IRI or prefixed name token.
func (p *Parser) iriFromToken(t lexer.PositionedToken) (string, error) {
	switch t.Kind {
	case lexer.IRI:
		return p.resolve(t.Value)
	case lexer.PrefixedName:
		return p.expandPrefixed(t)
	}
	return "", p.unexpected(t, "IRI")
}

// parseIRI consumes an IRI or prefixed name.
func (p *Parser) parseIRI() (string, error) {
	t, err := p.next()
	if err != nil {
		return "", err
	}
	return p.iriFromToken(t)
}

// blankNode returns the term for a user blank node label. Labels are
// mapped to internal identifiers shared with anonymous blank nodes so the
// two can never collide.
func (p *Parser) blankNode(label string) rdf.Term {
	if id, ok := p.blankIDs[label]; ok {
		return rdf.Blank(id)
	}
	t := p.freshBlank()
	p.blankIDs[label] = t.Value
	p.blankNames[t.Value] = label
	return t
}

// resetBlankLabels starts a new label scope. Internal identifiers keep
// counting, so labels in the new scope never map to earlier nodes.
func (p *Parser) resetBlankLabels() {
	p.blankIDs = map[string]string{}
	p.blankNames = map[string]string{}
}

func (p *Parser) freshBlank() rdf.Term {
	p.blankCount++
	return rdf.Blank("b" + strconv.Itoa(p.blankCount))
}

// userLabel maps an internal blank node label back to the label the
// query used, if any.
func (p *Parser) userLabel(id string) string {
	if label, ok := p.blankNames[id]; ok {
		return label
	}
	return id
}
