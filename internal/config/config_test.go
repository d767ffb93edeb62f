package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/parser"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

func TestDefault(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
	assert.Equal(t, rdf.XSDNamespace, p.Prefixes["xsd"])
	assert.NoError(t, p.Validate())
}

func TestLoad_YAML(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "profile.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/base/", p.Base)
	assert.Equal(t, "http://example.org/ns#", p.Prefixes["ex"])
	assert.Equal(t, "http://example.org/not-rdf#", p.Prefixes["rdf"])
	assert.Equal(t, rdf.OWLNamespace, p.Prefixes["owl"])
	assert.True(t, p.BlankNodesAsVariables)
	assert.True(t, p.IncludeComments)
	assert.Equal(t, LogConfig{Level: LevelDebug, Format: FormatJSON}, p.Log)
}

func TestLoad_CUE(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "profile.cue"))
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/base/", p.Base)
	assert.Equal(t, "http://example.org/ns#", p.Prefixes["ex"])
	assert.True(t, p.BlankNodesAsVariables)
	assert.False(t, p.IncludeComments)
	assert.Equal(t, LogConfig{Level: LevelWarn, Format: FormatText}, p.Log)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "missing file", path: filepath.Join("testdata", "absent.yaml"), want: "load profile"},
		{name: "unknown extension", path: filepath.Join("testdata", "profile.toml"), want: "load profile"},
		{name: "unknown yaml field", path: filepath.Join("testdata", "unknown_field.yaml"), want: "bsae"},
		{name: "enum violation", path: filepath.Join("testdata", "bad_level.cue"), want: "validate cue"},
		{name: "relative base", path: filepath.Join("testdata", "relative_base.yaml"), want: "invalid base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(path, []byte(`base = "x"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported extension ".toml"`)
}

func TestLoad_EmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		field   string
	}{
		{name: "bad prefix label", profile: Profile{Prefixes: map[string]string{"1x": "http://e/"}}, field: "prefixes"},
		{name: "relative namespace", profile: Profile{Prefixes: map[string]string{"ex": "ns#"}}, field: "prefixes"},
		{name: "unknown level", profile: Profile{Log: LogConfig{Level: "loud"}}, field: "log.level"},
		{name: "unknown format", profile: Profile{Log: LogConfig{Format: "xml"}}, field: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			require.ErrorAs(t, tt.profile.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParserOptions(t *testing.T) {
	p := Default()
	p.Base = "http://example.org/"
	p.Prefixes["ex"] = "http://example.org/ns#"
	p.BlankNodesAsVariables = true

	q, err := parser.ParseQuery(`SELECT ?s WHERE { ?s ex:p _:b . ?s rdf:type <Thing> }`, p.ParserOptions(nil)...)
	require.NoError(t, err)

	text := algebra.FormatQuery(q)
	assert.Contains(t, text, "<http://example.org/ns#p>")
	assert.Contains(t, text, "<http://example.org/Thing>")
	assert.Contains(t, text, "?.blank.")
	assert.Equal(t, []string{"s"}, algebra.InScope(q.Algebra))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	p := Default()
	p.Log = LogConfig{Level: LevelDebug, Format: FormatJSON}

	p.Logger(&buf).Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	p.Log = LogConfig{Level: LevelWarn, Format: FormatText}
	p.Logger(&buf).Info("quiet")
	assert.Empty(t, buf.String())
}
