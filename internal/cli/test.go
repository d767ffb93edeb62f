package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsyntax/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // case filter (glob pattern)
}

// TestResult holds the overall test result.
type TestResult struct {
	Manifests []*harness.Report `json:"manifests"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <manifest>...",
		Short: "Run syntax test manifests",
		Long: `Run positive and negative syntax cases from YAML manifests.

Positive cases must parse, and match any expected variables and algebra.
Negative cases must be rejected, with the expected error code if given.
Manifests declare their own prefixes and base; the profile does not apply.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (unreadable or invalid manifest, etc.)

Examples:
  sparqlc test manifests/basic.yaml
  sparqlc test manifests/*.yaml --filter "blank-*"
  sparqlc test manifests/basic.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			_ = s.out.Error(ErrCodeInput, fmt.Sprintf("invalid filter %q: %v", opts.Filter, err), nil)
			return WrapExitError(ExitCommandError, "invalid filter", err)
		}
	}

	h := harness.New(harness.WithLogger(s.logger))
	result := TestResult{Manifests: []*harness.Report{}}
	for _, path := range paths {
		m, err := harness.LoadManifest(path)
		if err != nil {
			return s.out.readFailure(path, err)
		}
		if opts.Filter != "" {
			m.Cases = filterCases(m.Cases, opts.Filter)
		}
		s.out.VerboseLog("Running %d case(s) from %s", len(m.Cases), path)

		report, err := h.Run(cmd.Context(), m)
		if err != nil {
			_ = s.out.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run manifest", err)
		}
		result.Manifests = append(result.Manifests, report)
		result.Passed += report.Passed
		result.Failed += report.Failed
	}
	result.Total = result.Passed + result.Failed

	if s.out.Format == "json" {
		if result.Failed > 0 {
			msg := fmt.Sprintf("%d of %d cases failed", result.Failed, result.Total)
			if err := s.out.Failure(ErrCodeGeneric, msg, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return s.out.Success(result)
	}

	for i, report := range result.Manifests {
		if i > 0 {
			fmt.Fprintln(s.out.Writer)
		}
		fmt.Fprintln(s.out.Writer, report.Summary())
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d cases failed", result.Failed, result.Total))
	}
	return nil
}

// filterCases keeps the cases whose name matches pattern. pattern has
// already been validated.
func filterCases(cases []harness.Case, pattern string) []harness.Case {
	var out []harness.Case
	for _, c := range cases {
		if ok, _ := filepath.Match(pattern, c.Name); ok {
			out = append(out, c)
		}
	}
	return out
}
