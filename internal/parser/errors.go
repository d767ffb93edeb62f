package parser

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a ParsingError.
type ErrorCode string

const (
	CodeUnexpectedToken ErrorCode = "UNEXPECTED_TOKEN"
	CodeUndefinedPrefix ErrorCode = "UNDEFINED_PREFIX"
	CodeInvalidIRI      ErrorCode = "INVALID_IRI"
	CodeBlankNodeReuse  ErrorCode = "BLANK_NODE_REUSE"
	CodeInvalidQuery    ErrorCode = "INVALID_QUERY"
	CodeScope           ErrorCode = "VARIABLE_SCOPE"
	CodeArity           ErrorCode = "ARITY"
	CodeTrailingInput   ErrorCode = "TRAILING_INPUT"
)

// ParsingError reports a grammar or legality violation.
type ParsingError struct {
	Code    ErrorCode
	Message string
	Line    int
	Column  int
	Offset  int
	// Context is the offending token followed by trailing input.
	Context string
	Err     error
}

func (e *ParsingError) Error() string {
	msg := fmt.Sprintf("parsing error at %d:%d: %s", e.Line, e.Column, e.Message)
	if e.Context != "" {
		msg += fmt.Sprintf(" (near %q)", e.Context)
	}
	return msg
}

func (e *ParsingError) Unwrap() error {
	return e.Err
}

// IsParsingError reports whether err is or wraps a *ParsingError.
func IsParsingError(err error) bool {
	var pe *ParsingError
	return errors.As(err, &pe)
}
