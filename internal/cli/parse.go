package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/encoding"
	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/parser"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Query  string // inline query text instead of a file
	SPARQL bool   // print the query regenerated from its algebra
}

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Source      string   `json:"source"`
	Form        string   `json:"form"`
	Variables   []string `json:"variables"`
	Algebra     string   `json:"algebra"`
	Fingerprint string   `json:"fingerprint"`
	SPARQL      string   `json:"sparql,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse [query-file]",
		Short: "Parse a query and print its algebra",
		Long: `Parse a SPARQL 1.1 query and print its algebra as an S-expression.

The query is read from the file argument, from --query, or from stdin.

Exit codes:
  0 - Query parsed
  1 - Lexical or parsing error
  2 - Command error (unreadable file, bad profile, etc.)

Examples:
  sparqlc parse query.rq
  sparqlc parse -q 'SELECT * { ?s ?p ?o }'
  sparqlc parse --sparql --prefix ex=http://example.org/ query.rq
  sparqlc parse --format json query.rq`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "query text")
	cmd.Flags().BoolVar(&opts.SPARQL, "sparql", false, "print the query regenerated from its algebra")

	return cmd
}

func runParse(opts *ParseOptions, args []string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	source, text := "<query>", opts.Query
	if opts.Query == "" {
		source, text, err = readSource(cmd, args)
		if err != nil {
			return s.out.readFailure(source, err)
		}
	}

	q, err := parser.ParseQuery(text, s.profile.ParserOptions(s.logger)...)
	if err != nil {
		return s.out.reportSyntaxError(source, err)
	}

	fp, err := encoding.Fingerprint(q)
	if err != nil {
		_ = s.out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "fingerprint", err)
	}

	result := ParseResult{
		Source:      source,
		Form:        algebra.FormName(q.Form),
		Variables:   q.ProjectedVariables(),
		Algebra:     algebra.FormatQuery(q),
		Fingerprint: fp,
	}
	if result.Variables == nil {
		result.Variables = []string{}
	}
	if opts.SPARQL {
		tokens, err := algebra.QueryTokens(q)
		if err != nil {
			_ = s.out.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, "serialize query", err)
		}
		result.SPARQL = lexer.Render(tokens)
	}

	s.out.VerboseLog("Parsed %s query from %s (%s)", result.Form, source, fp)

	if s.out.Format == "json" {
		return s.out.Success(result)
	}
	if opts.SPARQL {
		fmt.Fprintln(s.out.Writer, result.SPARQL)
		return nil
	}
	fmt.Fprintln(s.out.Writer, result.Algebra)
	return nil
}
