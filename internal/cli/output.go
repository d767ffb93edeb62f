package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/parser"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query rejected or manifest cases failed
	ExitCommandError = 2 // Command error (bad flags, unreadable files, catalog unavailable, etc.)
)

// CLI error codes. Syntax errors are reported with the lexer or parser
// code instead.
const (
	ErrCodeGeneric  = "E001"
	ErrCodeConfig   = "E002"
	ErrCodeNotFound = "E003"
	ErrCodeInput    = "E004"
	ErrCodeCatalog  = "E005"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "UNEXPECTED_TOKEN", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Failure outputs a result that carries data but did not succeed, such as
// a check with rejected queries. Text output is left to the caller.
func (f *OutputFormatter) Failure(code, message string, data interface{}) error {
	if f.Format != "json" {
		return nil
	}
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{
		Status: "error",
		Data:   data,
		Error:  &CLIError{Code: code, Message: message},
	})
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// SyntaxErrorDetails locates a lexical or parsing error in its source.
type SyntaxErrorDetails struct {
	Source  string `json:"source"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Offset  int    `json:"offset"`
	Context string `json:"context,omitempty"`
}

// syntaxError extracts the code and location of a lexer or parser error.
// The lexical error wins when a parsing error wraps one.
func syntaxError(source string, err error) (string, *SyntaxErrorDetails, bool) {
	var le *lexer.LexicalError
	if errors.As(err, &le) {
		return string(le.Code), &SyntaxErrorDetails{
			Source:  source,
			Line:    le.Position.Line,
			Column:  le.Position.Column,
			Offset:  le.Position.Offset,
			Context: le.Context,
		}, true
	}
	var pe *parser.ParsingError
	if errors.As(err, &pe) {
		return string(pe.Code), &SyntaxErrorDetails{
			Source:  source,
			Line:    pe.Line,
			Column:  pe.Column,
			Offset:  pe.Offset,
			Context: pe.Context,
		}, true
	}
	return "", nil, false
}

// reportSyntaxError writes err and returns the matching exit error.
// Syntax errors fail the command (exit 1); anything else is a command
// error (exit 2).
func (f *OutputFormatter) reportSyntaxError(source string, err error) error {
	code, details, ok := syntaxError(source, err)
	if !ok {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, source, err)
	}
	_ = f.Error(code, err.Error(), details)
	return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", source, code), err)
}

// readFailure reports an input that could not be read.
func (f *OutputFormatter) readFailure(source string, err error) error {
	code := ErrCodeInput
	if errors.Is(err, fs.ErrNotExist) {
		code = ErrCodeNotFound
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: cannot read %s", code, source), err)
}
