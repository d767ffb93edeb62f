package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsyntax/internal/lexer"
)

// BalanceResult is the JSON payload of the balance command.
type BalanceResult struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	var start, end int

	cmd := &cobra.Command{
		Use:   "balance [query-file]",
		Short: "Find the smallest bracketed group around a range",
		Long: `Find the smallest balanced (), {} or [] group that encloses the
character range [start, end) of a query. Offsets count characters.

Examples:
  sparqlc balance --start 12 --end 14 query.rq`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(rootOpts, start, end, args, cmd)
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "start offset of the range")
	cmd.Flags().IntVar(&end, "end", 0, "end offset of the range (exclusive)")

	return cmd
}

func runBalance(opts *RootOptions, start, end int, args []string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	if start < 0 || end < start {
		_ = s.out.Error(ErrCodeInput, fmt.Sprintf("invalid range [%d, %d)", start, end), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: invalid range", ErrCodeInput))
	}
	source, text, err := readSource(cmd, args)
	if err != nil {
		return s.out.readFailure(source, err)
	}

	span, err := lexer.FindBalanced(text, start, end)
	if err != nil {
		return s.out.reportSyntaxError(source, err)
	}

	runes := []rune(text)
	result := BalanceResult{Start: span.Start, End: span.End}
	if span.Start >= 0 && span.End <= len(runes) && span.Start <= span.End {
		result.Text = string(runes[span.Start:span.End])
	}

	if s.out.Format == "json" {
		return s.out.Success(result)
	}
	fmt.Fprintf(s.out.Writer, "%d %d\n%s\n", result.Start, result.End, result.Text)
	return nil
}
