package iri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 3986 §5.4 reference resolution examples.
func TestResolve_RFC3986Examples(t *testing.T) {
	base := "http://a/b/c/d;p?q"
	tests := map[string]string{
		"g:h":        "g:h",
		"g":          "http://a/b/c/g",
		"./g":        "http://a/b/c/g",
		"g/":         "http://a/b/c/g/",
		"/g":         "http://a/g",
		"//g":        "http://g",
		"?y":         "http://a/b/c/d;p?y",
		"g?y":        "http://a/b/c/g?y",
		"#s":         "http://a/b/c/d;p?q#s",
		"g#s":        "http://a/b/c/g#s",
		";x":         "http://a/b/c/;x",
		"":           "http://a/b/c/d;p?q",
		".":          "http://a/b/c/",
		"./":         "http://a/b/c/",
		"..":         "http://a/b/",
		"../":        "http://a/b/",
		"../g":       "http://a/b/g",
		"../..":      "http://a/",
		"../../g":    "http://a/g",
		"../../../g": "http://a/g",
		"/./g":       "http://a/g",
		"/../g":      "http://a/g",
		"g.":         "http://a/b/c/g.",
		"..g":        "http://a/b/c/..g",
		"./../g":     "http://a/b/g",
		"g/./h":      "http://a/b/c/g/h",
		"g/../h":     "http://a/b/c/h",
	}

	for ref, want := range tests {
		t.Run(ref, func(t *testing.T) {
			got, err := Resolve(ref, base)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestResolve_NoBase(t *testing.T) {
	got, err := Resolve("x", "")
	require.NoError(t, err)
	assert.Equal(t, "x", got, "relative references survive without a base")

	got, err = Resolve("http://example.org/a/../b", "")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/b", got)
}

func TestResolve_RelativeBase(t *testing.T) {
	_, err := Resolve("x", "relative/base")
	require.Error(t, err)

	var re *ResolveError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), "not absolute")
}

func TestResolve_UnicodeIRI(t *testing.T) {
	got, err := Resolve("ümlaut", "http://example.org/ns/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/ns/ümlaut", got)
}

func TestIsAbsolute(t *testing.T) {
	assert.True(t, IsAbsolute("urn:isbn:123"))
	assert.False(t, IsAbsolute("/path"))
	assert.False(t, IsAbsolute("#frag"))
}
