package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsyntax/internal/parser"
)

// CheckFileResult is the outcome of checking one file.
type CheckFileResult struct {
	Source string              `json:"source"`
	Valid  bool                `json:"valid"`
	Code   string              `json:"code,omitempty"`
	Error  string              `json:"error,omitempty"`
	Where  *SyntaxErrorDetails `json:"where,omitempty"`
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Files   []CheckFileResult `json:"files"`
	Valid   int               `json:"valid"`
	Invalid int               `json:"invalid"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <query-file>...",
		Short: "Check that queries parse",
		Long: `Parse every query file and report the ones that are rejected.

Exit codes:
  0 - Every query parsed
  1 - One or more queries were rejected
  2 - Command error (unreadable file, bad profile, etc.)

Examples:
  sparqlc check queries/*.rq
  sparqlc check --format json a.rq b.rq`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, files []string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}

	result := CheckResult{Files: []CheckFileResult{}}
	for _, file := range files {
		source, text, err := readSource(cmd, []string{file})
		if err != nil {
			return s.out.readFailure(source, err)
		}
		res := CheckFileResult{Source: source, Valid: true}
		if _, err := parser.ParseQuery(text, s.profile.ParserOptions(s.logger)...); err != nil {
			res.Valid = false
			res.Error = err.Error()
			res.Code, res.Where, _ = syntaxError(source, err)
		}
		s.out.VerboseLog("Checked %s: valid=%t", source, res.Valid)
		if res.Valid {
			result.Valid++
		} else {
			result.Invalid++
		}
		result.Files = append(result.Files, res)
	}

	if s.out.Format == "json" {
		if result.Invalid > 0 {
			msg := fmt.Sprintf("%d of %d queries rejected", result.Invalid, len(files))
			if err := s.out.Failure(firstCode(result.Files), msg, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return s.out.Success(result)
	}

	for _, res := range result.Files {
		if res.Valid {
			fmt.Fprintf(s.out.Writer, "ok   %s\n", res.Source)
			continue
		}
		fmt.Fprintf(s.out.Writer, "FAIL %s [%s]\n  %s\n", res.Source, res.Code, res.Error)
	}
	fmt.Fprintf(s.out.Writer, "%d valid, %d invalid\n", result.Valid, result.Invalid)
	if result.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries rejected", result.Invalid, len(files)))
	}
	return nil
}

func firstCode(files []CheckFileResult) string {
	for _, f := range files {
		if !f.Valid && f.Code != "" {
			return f.Code
		}
	}
	return ErrCodeGeneric
}
