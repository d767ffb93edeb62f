package lexer

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a LexicalError.
type ErrorCode string

const (
	CodeUnexpectedCharacter ErrorCode = "UNEXPECTED_CHARACTER"
	CodeUnterminatedString  ErrorCode = "UNTERMINATED_STRING"
	CodeInvalidEscape       ErrorCode = "INVALID_ESCAPE"
	CodeInvalidIRI          ErrorCode = "INVALID_IRI"
	CodeUnknownKeyword      ErrorCode = "UNKNOWN_KEYWORD"
	CodeUnbalanced          ErrorCode = "UNBALANCED"
	CodeNoEnclosing         ErrorCode = "NO_ENCLOSING_PAIR"
	CodeReadFailed          ErrorCode = "READ_FAILED"
)

// LexicalError reports input that cannot be tokenized.
type LexicalError struct {
	Code     ErrorCode
	Message  string
	Position Position
	// Context is a snippet of the unconsumed input at the failure point.
	Context string
}

func (e *LexicalError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("lexical error at %s: %s", e.Position, e.Message)
	}
	return fmt.Sprintf("lexical error at %s: %s (near %q)", e.Position, e.Message, e.Context)
}

// IsLexicalError reports whether err is or wraps a *LexicalError.
func IsLexicalError(err error) bool {
	var le *LexicalError
	return errors.As(err, &le)
}
