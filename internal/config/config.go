// Package config loads parser profiles: predeclared prefixes, a base IRI,
// blank node handling, comment emission and logging settings.
//
// Profiles are written in YAML or CUE. CUE profiles are unified with the
// embedded schema before decoding, so type and enum errors surface with
// CUE positions.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/sparqlsyntax/internal/iri"
	"github.com/roach88/sparqlsyntax/internal/lexer"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// Log levels and formats accepted in a profile.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatText = "text"
	FormatJSON = "json"
)

// Profile configures how queries are parsed.
type Profile struct {
	Base                  string            `yaml:"base" json:"base,omitempty"`
	Prefixes              map[string]string `yaml:"prefixes" json:"prefixes,omitempty"`
	BlankNodesAsVariables bool              `yaml:"blank_nodes_as_variables" json:"blank_nodes_as_variables,omitempty"`
	IncludeComments       bool              `yaml:"include_comments" json:"include_comments,omitempty"`
	Log                   LogConfig         `yaml:"log" json:"log,omitempty"`
}

// LogConfig selects the process logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level,omitempty"`
	Format string `yaml:"format" json:"format,omitempty"`
}

// Default returns the profile used when no file is given: the standard
// rdf, rdfs, xsd and owl prefixes, no base, info-level text logs.
func Default() Profile {
	return Profile{
		Prefixes: rdf.StandardPrefixes(),
		Log:      LogConfig{Level: LevelInfo, Format: FormatText},
	}
}

// Load reads the profile at path. An empty path yields Default. Settings
// in the file are applied over the defaults; its prefixes are added to
// the standard ones.
func Load(path string) (Profile, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}

	var loaded Profile
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		loaded, err = decodeYAML(data)
	case ".cue":
		loaded, err = decodeCUE(path, data)
	default:
		return Profile{}, fmt.Errorf("load profile %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile %s: %w", path, err)
	}

	p := merge(Default(), loaded)
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("load profile %s: %w", path, err)
	}
	return p, nil
}

func merge(base, over Profile) Profile {
	out := base
	if over.Base != "" {
		out.Base = over.Base
	}
	out.Prefixes = maps.Clone(base.Prefixes)
	if out.Prefixes == nil {
		out.Prefixes = map[string]string{}
	}
	maps.Copy(out.Prefixes, over.Prefixes)
	out.BlankNodesAsVariables = over.BlankNodesAsVariables
	out.IncludeComments = over.IncludeComments
	if over.Log.Level != "" {
		out.Log.Level = over.Log.Level
	}
	if over.Log.Format != "" {
		out.Log.Format = over.Log.Format
	}
	return out
}

// ValidationError reports an unusable profile setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate rejects a relative base IRI, malformed prefix labels, relative
// namespace IRIs and unknown log settings.
func (p Profile) Validate() error {
	if p.Base != "" && !iri.IsAbsolute(p.Base) {
		return &ValidationError{Field: "base", Message: fmt.Sprintf("%q is not an absolute IRI", p.Base)}
	}
	for _, prefix := range slices.Sorted(maps.Keys(p.Prefixes)) {
		if !lexer.IsPrefixName(prefix) {
			return &ValidationError{Field: "prefixes", Message: fmt.Sprintf("%q is not a valid prefix label", prefix)}
		}
		if ns := p.Prefixes[prefix]; !iri.IsAbsolute(ns) {
			return &ValidationError{Field: "prefixes", Message: fmt.Sprintf("namespace %q for %q is not an absolute IRI", ns, prefix)}
		}
	}
	switch p.Log.Level {
	case "", LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return &ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", p.Log.Level)}
	}
	switch p.Log.Format {
	case "", FormatText, FormatJSON:
	default:
		return &ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", p.Log.Format)}
	}
	return nil
}
