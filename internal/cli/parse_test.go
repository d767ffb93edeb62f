package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectQuery = "SELECT ?s WHERE { ?s <http://e/p> ?o }"

func writeQuery(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestParse_Text(t *testing.T) {
	path := writeQuery(t, "q.rq", selectQuery)

	out, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}), "", path)
	require.NoError(t, err)
	assert.Equal(t, "(select (?s)\n  (project (?s)\n    (triple ?s <http://e/p> ?o)))\n", out)
}

func TestParse_Stdin(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}), selectQuery)
	require.NoError(t, err)
	assert.Contains(t, out, "(triple ?s <http://e/p> ?o)")

	out, err = execute(t, NewParseCommand(&RootOptions{Format: "text"}), selectQuery, "-")
	require.NoError(t, err)
	assert.Contains(t, out, "(project (?s)")
}

func TestParse_SPARQL(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "text"}), "", "--sparql", "-q", selectQuery)
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT ?s")
	assert.Contains(t, out, "<http://e/p>")
	assert.NotContains(t, out, "(project")
}

func TestParse_JSON(t *testing.T) {
	out, err := execute(t, NewParseCommand(&RootOptions{Format: "json"}), "", "-q", selectQuery)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "<query>", resp.Data.Source)
	assert.Equal(t, "select", resp.Data.Form)
	assert.Equal(t, []string{"s"}, resp.Data.Variables)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.Empty(t, resp.Data.SPARQL)
}

func TestParse_EquivalentQueriesShareFingerprint(t *testing.T) {
	fingerprint := func(args ...string) string {
		out, err := execute(t, NewParseCommand(&RootOptions{Format: "json"}), "", args...)
		require.NoError(t, err)
		var resp struct {
			Data ParseResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.Fingerprint
	}

	a := fingerprint("-q", selectQuery)
	b := fingerprint("-q", "PREFIX ex: <http://e/>\nselect ?s { ?s ex:p ?o . }")
	assert.Equal(t, a, b)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{name: "unexpected token", args: []string{"-q", "ASK {"}, wantExit: ExitFailure, wantCode: "UNEXPECTED_TOKEN"},
		{name: "unterminated string", args: []string{"-q", `ASK { ?s ?p "abc }`}, wantExit: ExitFailure, wantCode: "UNTERMINATED_STRING"},
		{name: "undefined prefix", args: []string{"-q", "ASK { ?s ex:p ?o }"}, wantExit: ExitFailure, wantCode: "UNDEFINED_PREFIX"},
		{name: "missing file", args: []string{filepath.Join("testdata", "missing.rq")}, wantExit: ExitCommandError, wantCode: ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewParseCommand(&RootOptions{Format: "json"}), "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestParse_ProfileBlankNodes(t *testing.T) {
	profile := writeQuery(t, "profile.yaml", "blank_nodes_as_variables: true\n")

	out, err := execute(t, NewParseCommand(&RootOptions{Format: "json", Config: profile}), "", "-q", "SELECT * { _:a <http://e/p> ?o }")
	require.NoError(t, err)

	var resp struct {
		Data ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"o"}, resp.Data.Variables)
	assert.NotContains(t, resp.Data.Algebra, "_:")
}
