package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex_Text(t *testing.T) {
	out, err := execute(t, NewLexCommand(&RootOptions{Format: "text"}), "ASK { ?s a ?o }")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "1:1\tkeyword\tASK", lines[0])
	assert.Equal(t, "1:7\tvariable\t?s", lines[2])
	assert.Equal(t, "1:10\tkeyword\ta", lines[3])
	assert.Equal(t, "1:15\t'}'\t}", lines[5])
}

func TestLex_Comments(t *testing.T) {
	query := "# header\nASK {}"

	out, err := execute(t, NewLexCommand(&RootOptions{Format: "text"}), query)
	require.NoError(t, err)
	assert.NotContains(t, out, "comment")

	out, err = execute(t, NewLexCommand(&RootOptions{Format: "text"}), query, "--comments")
	require.NoError(t, err)
	assert.Contains(t, out, "1:1\tcomment\t# header")
}

func TestLex_JSON(t *testing.T) {
	out, err := execute(t, NewLexCommand(&RootOptions{Format: "json"}), "SELECT ?x")
	require.NoError(t, err)

	var resp struct {
		Data []TokenInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, TokenInfo{Kind: "variable", Text: "?x", Line: 1, Column: 8, Offset: 7}, resp.Data[1])
}

func TestLex_Error(t *testing.T) {
	out, err := execute(t, NewLexCommand(&RootOptions{Format: "text"}), `ASK { "open }`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNTERMINATED_STRING]")
}

func TestBalance(t *testing.T) {
	query := "SELECT * { ?s ?p (1) }"

	out, err := execute(t, NewBalanceCommand(&RootOptions{Format: "text"}), query, "--start", "18", "--end", "19")
	require.NoError(t, err)
	assert.Equal(t, "17 20\n(1)\n", out)

	out, err = execute(t, NewBalanceCommand(&RootOptions{Format: "json"}), query, "--start", "11", "--end", "13")
	require.NoError(t, err)
	var resp struct {
		Data BalanceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, BalanceResult{Start: 9, End: 22, Text: "{ ?s ?p (1) }"}, resp.Data)
}

func TestBalance_Errors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		args     []string
		wantExit int
		wantOut  string
	}{
		{name: "unbalanced", query: "{ ( }", args: []string{"--start", "0", "--end", "1"}, wantExit: ExitFailure, wantOut: "UNBALANCED"},
		{name: "no group", query: "?x { }", args: []string{"--start", "0", "--end", "2"}, wantExit: ExitFailure, wantOut: "NO_ENCLOSING_PAIR"},
		{name: "bad range", query: "{ }", args: []string{"--start", "2", "--end", "1"}, wantExit: ExitCommandError, wantOut: "invalid range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewBalanceCommand(&RootOptions{Format: "text"}), tt.query, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestCheck(t *testing.T) {
	good := writeQuery(t, "good.rq", selectQuery)
	bad := writeQuery(t, "bad.rq", "SELECT * { ?s ?p ?o } LIMIT")

	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}), "", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+good)
	assert.Contains(t, out, "1 valid, 0 invalid")

	out, err = execute(t, NewCheckCommand(&RootOptions{Format: "text"}), "", good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL "+bad+" [UNEXPECTED_TOKEN]")
	assert.Contains(t, out, "1 valid, 1 invalid")
}

func TestCheck_JSON(t *testing.T) {
	good := writeQuery(t, "good.rq", selectQuery)
	bad := writeQuery(t, "bad.rq", "ASK { _:a <http://e/p> ?o . FILTER(?o) _:a <http://e/q> ?o }")

	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "json"}), "", good, bad)
	require.Error(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "BLANK_NODE_REUSE", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Invalid)
	require.Len(t, resp.Data.Files, 2)
	assert.True(t, resp.Data.Files[0].Valid)
	assert.False(t, resp.Data.Files[1].Valid)
	require.NotNil(t, resp.Data.Files[1].Where)
	assert.Equal(t, bad, resp.Data.Files[1].Where.Source)
}

func TestCheck_MissingFile(t *testing.T) {
	_, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}), "", filepath.Join(t.TempDir(), "none.rq"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
