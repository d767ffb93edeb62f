package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/parser"
)

// Harness executes manifests.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for run progress. Parser diagnostics are
// logged through it too.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// New creates a Harness. It logs nothing unless given a logger.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Pass bool   `json:"pass"`

	// Code is the error code the parser reported, if any.
	Code string `json:"code,omitempty"`

	// Errors explains why the case failed. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Algebra is the S-expression of a parsed query.
	Algebra string `json:"algebra,omitempty"`
}

// Report is the outcome of a manifest run.
type Report struct {
	Manifest string       `json:"manifest"`
	Cases    []CaseResult `json:"cases"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
}

// Pass reports whether every case passed.
func (r *Report) Pass() bool {
	return r.Failed == 0
}

// Summary renders one line per case and a closing tally.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "manifest %s\n", r.Manifest)
	for _, c := range r.Cases {
		status := "PASS"
		if !c.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%s %s %s", status, c.Type, c.Name)
		if c.Code != "" {
			fmt.Fprintf(&b, " [%s]", c.Code)
		}
		b.WriteByte('\n')
		for _, e := range c.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	fmt.Fprintf(&b, "%d passed, %d failed", r.Passed, r.Failed)
	return b.String()
}

// Run executes every case of m in order. It stops early only when ctx is
// cancelled.
func (h *Harness) Run(ctx context.Context, m *Manifest) (*Report, error) {
	report := &Report{Manifest: m.Name, Cases: []CaseResult{}}
	h.logger.Info("running manifest", "manifest", m.Name, "cases", len(m.Cases))

	for _, c := range m.Cases {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run manifest %s: %w", m.Name, err)
		}
		res := h.runCase(m, c)
		if res.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
		h.logger.Debug("case finished", "case", c.Name, "pass", res.Pass, "code", res.Code)
		report.Cases = append(report.Cases, res)
	}

	h.logger.Info("manifest finished", "manifest", m.Name, "passed", report.Passed, "failed", report.Failed)
	return report, nil
}

func (h *Harness) runCase(m *Manifest, c Case) CaseResult {
	res := CaseResult{Name: c.Name, Type: c.Type}
	opts := []parser.Option{
		parser.WithPrefixes(m.Prefixes),
		parser.WithBlankNodesAsVariables(c.BlankNodesAsVariables),
		parser.WithLogger(h.logger),
	}
	if m.Base != "" {
		opts = append(opts, parser.WithBase(m.Base))
	}

	q, err := parser.ParseQuery(c.Query, opts...)
	if err != nil {
		res.Code = ErrorCode(err)
	} else {
		res.Algebra = algebra.FormatQuery(q)
	}

	switch c.Type {
	case Positive:
		if err != nil {
			res.Errors = append(res.Errors, "unexpected error: "+err.Error())
			break
		}
		if c.Variables != nil && !slices.Equal(c.Variables, q.ProjectedVariables()) {
			res.Errors = append(res.Errors, fmt.Sprintf("variables: want %v, got %v", c.Variables, q.ProjectedVariables()))
		}
		if c.Algebra != "" && strings.TrimSpace(c.Algebra) != res.Algebra {
			res.Errors = append(res.Errors, fmt.Sprintf("algebra mismatch:\nwant:\n%s\ngot:\n%s", strings.TrimSpace(c.Algebra), res.Algebra))
		}
	case Negative:
		switch {
		case err == nil:
			res.Errors = append(res.Errors, "expected a syntax error, query parsed")
		case c.Code != "" && c.Code != res.Code:
			res.Errors = append(res.Errors, fmt.Sprintf("error code: want %s, got %s (%v)", c.Code, res.Code, err))
		}
	}
	res.Pass = len(res.Errors) == 0
	return res
}

// ErrorCode returns the code of a lexical or parsing error, or "" for
// any other error.
func ErrorCode(err error) string {
	var le *lexer.LexicalError
	if errors.As(err, &le) {
		return string(le.Code)
	}
	var pe *parser.ParsingError
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return ""
}
