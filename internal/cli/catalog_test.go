package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsyntax/internal/catalog"
)

func TestCatalog_AddListShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")
	first := writeQuery(t, "first.rq", selectQuery)
	same := writeQuery(t, "same.rq", "PREFIX ex: <http://e/> SELECT ?s { ?s ex:p ?o }")
	other := writeQuery(t, "other.rq", "ASK { ?s <http://e/q> ?o }")

	out, err := execute(t, NewCatalogCommand(&RootOptions{Format: "text"}), "", "add", "--db", db, first, same, other)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "added\t"))
	assert.True(t, strings.HasPrefix(lines[1], "exists\t"))
	assert.True(t, strings.HasPrefix(lines[2], "added\t"))

	out, err = execute(t, NewCatalogCommand(&RootOptions{Format: "json"}), "", "list", "--db", db)
	require.NoError(t, err)
	var list struct {
		Data []catalog.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Data, 2)
	assert.Equal(t, "select", list.Data[0].Form)
	assert.Equal(t, "ask", list.Data[1].Form)
	assert.Equal(t, selectQuery, list.Data[0].Source)

	out, err = execute(t, NewCatalogCommand(&RootOptions{Format: "text"}), "", "show", "--db", db, list.Data[1].Fingerprint)
	require.NoError(t, err)
	assert.Contains(t, out, "id:          "+list.Data[1].ID)
	assert.Contains(t, out, "form:        ask")
	assert.Contains(t, out, "ASK { ?s <http://e/q> ?o }")
}

func TestCatalog_ShowMissing(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")

	out, err := execute(t, NewCatalogCommand(&RootOptions{Format: "text"}), "", "show", "--db", db, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestCatalog_AddRejectsBadQueryAtomically(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")
	good := writeQuery(t, "good.rq", selectQuery)
	bad := writeQuery(t, "bad.rq", "SELECT")

	_, err := execute(t, NewCatalogCommand(&RootOptions{Format: "text"}), "", "add", "--db", db, good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := execute(t, NewCatalogCommand(&RootOptions{Format: "text"}), "", "list", "--db", db)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCatalog_OpenFailure(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing-dir", "catalog.db")

	out, err := execute(t, NewCatalogCommand(&RootOptions{Format: "text"}), "", "list", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
