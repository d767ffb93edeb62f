package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsyntax/internal/lexer"
)

// TokenInfo is one token in the lex command output.
type TokenInfo struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

// NewLexCommand creates the lex command.
func NewLexCommand(rootOpts *RootOptions) *cobra.Command {
	var comments bool

	cmd := &cobra.Command{
		Use:   "lex [query-file]",
		Short: "Print the tokens of a query",
		Long: `Tokenize a query and print one token per line with its position.

Comments are included when --comments is set or the profile enables
include_comments.

Examples:
  sparqlc lex query.rq
  echo 'ASK { ?s a ?o }' | sparqlc lex --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLex(rootOpts, comments, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&comments, "comments", false, "emit comment tokens")

	return cmd
}

func runLex(opts *RootOptions, comments bool, args []string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	source, text, err := readSource(cmd, args)
	if err != nil {
		return s.out.readFailure(source, err)
	}

	lexOpts := s.profile.LexerOptions()
	if comments && !s.profile.IncludeComments {
		lexOpts = append(lexOpts, lexer.WithComments())
	}
	tokens, err := lexer.Tokenize(text, lexOpts...)
	if err != nil {
		return s.out.reportSyntaxError(source, err)
	}

	infos := make([]TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		infos = append(infos, TokenInfo{
			Kind:   t.Kind.String(),
			Text:   t.Text(),
			Line:   t.Start.Line,
			Column: t.Start.Column,
			Offset: t.Start.Offset,
		})
	}
	s.logger.Debug("tokenized", "source", source, "tokens", len(infos))

	if s.out.Format == "json" {
		return s.out.Success(infos)
	}
	for _, info := range infos {
		fmt.Fprintf(s.out.Writer, "%d:%d\t%s\t%s\n", info.Line, info.Column, info.Kind, info.Text)
	}
	return nil
}
