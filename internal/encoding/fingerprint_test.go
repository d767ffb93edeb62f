package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsyntax/internal/parser"
)

func fingerprint(t *testing.T, text string) string {
	t.Helper()
	q, err := parser.ParseQuery(text)
	require.NoError(t, err)
	fp, err := Fingerprint(q)
	require.NoError(t, err)
	return fp
}

func TestFingerprint_IgnoresSurfaceSyntax(t *testing.T) {
	a := fingerprint(t, `PREFIX e: <http://e/> SELECT ?s WHERE { ?s e:p ?o ; e:q ?o }`)
	b := fingerprint(t, "select ?s {\n  ?s <http://e/p> ?o .\n  ?s <http://e/q> ?o # same\n}")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprint_Distinguishes(t *testing.T) {
	base := `SELECT ?s WHERE { ?s <http://e/p> ?o }`

	tests := []struct {
		name  string
		other string
	}{
		{name: "projection", other: `SELECT ?o WHERE { ?s <http://e/p> ?o }`},
		{name: "form", other: `ASK WHERE { ?s <http://e/p> ?o }`},
		{name: "dataset", other: `SELECT ?s FROM <http://e/g> WHERE { ?s <http://e/p> ?o }`},
		{name: "base", other: `BASE <http://e/> SELECT ?s WHERE { ?s <http://e/p> ?o }`},
		{name: "modifier", other: `SELECT DISTINCT ?s WHERE { ?s <http://e/p> ?o }`},
	}

	want := fingerprint(t, base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, want, fingerprint(t, tt.other))
		})
	}
}

func TestQueryDocument(t *testing.T) {
	q, err := parser.ParseQuery(`ASK FROM NAMED <http://e/g> { ?s ?p ?o }`)
	require.NoError(t, err)

	doc := QueryDocument(q)
	assert.Equal(t, String("ask"), doc["form"])
	assert.Equal(t, Array{}, doc["variables"])
	assert.Equal(t, Object{"default": Array{}, "named": Array{String("http://e/g")}}, doc["dataset"])
	assert.NotContains(t, doc, "base")

	data, err := MarshalCanonical(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"form":"ask"`)
}
