package config

import (
	"io"
	"log/slog"

	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/parser"
)

// ParserOptions converts the profile into parser options. logger may be
// nil, in which case the parser stays silent.
func (p Profile) ParserOptions(logger *slog.Logger) []parser.Option {
	opts := []parser.Option{
		parser.WithPrefixes(p.Prefixes),
		parser.WithBlankNodesAsVariables(p.BlankNodesAsVariables),
	}
	if p.Base != "" {
		opts = append(opts, parser.WithBase(p.Base))
	}
	if logger != nil {
		opts = append(opts, parser.WithLogger(logger))
	}
	return opts
}

// LexerOptions converts the profile into options for standalone
// tokenizing. Comments are never passed to the parser.
func (p Profile) LexerOptions() []lexer.Option {
	if p.IncludeComments {
		return []lexer.Option{lexer.WithComments()}
	}
	return nil
}

// Logger builds the logger the profile describes, writing to w.
func (p Profile) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: p.level()}
	if p.Log.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (p Profile) level() slog.Level {
	switch p.Log.Level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}
