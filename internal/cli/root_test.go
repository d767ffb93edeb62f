package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsyntax/internal/config"
)

// execute runs cmd with args and stdin, returning what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sparqlc", cmd.Use)
	assert.Contains(t, cmd.Long, "SPARQL 1.1")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"parse"}, {"lex"}, {"check"}, {"balance"}, {"test"},
		{"catalog"}, {"catalog", "add"}, {"catalog", "list"}, {"catalog", "show"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "base", "prefix"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestCatalogDBFlag(t *testing.T) {
	cmd := NewRootCommand()
	listCmd, _, err := cmd.Find([]string{"catalog", "list"})
	require.NoError(t, err)

	dbFlag := listCmd.InheritedFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "sparqlsyntax.db", dbFlag.DefValue)
}

func TestRootCommand_RejectsFormat(t *testing.T) {
	_, err := execute(t, NewRootCommand(), "ASK {}", "parse", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestRootCommand_ParseThroughRoot(t *testing.T) {
	out, err := execute(t, NewRootCommand(), "", "parse", "--prefix", "ex=http://e/", "-q", "ASK { ?s ex:p ?o }")
	require.NoError(t, err)
	assert.Contains(t, out, "<http://e/p>")
}

func TestRootOptions_Profile(t *testing.T) {
	tests := []struct {
		name    string
		opts    RootOptions
		wantErr string
		check   func(t *testing.T, p config.Profile)
	}{
		{
			name: "defaults",
			opts: RootOptions{},
			check: func(t *testing.T, p config.Profile) {
				assert.Equal(t, config.LevelInfo, p.Log.Level)
				assert.Contains(t, p.Prefixes, "xsd")
			},
		},
		{
			name: "overrides",
			opts: RootOptions{Base: "http://base/", Prefixes: []string{"ex=http://e/"}, Verbose: true},
			check: func(t *testing.T, p config.Profile) {
				assert.Equal(t, "http://base/", p.Base)
				assert.Equal(t, "http://e/", p.Prefixes["ex"])
				assert.Contains(t, p.Prefixes, "rdf")
				assert.Equal(t, config.LevelDebug, p.Log.Level)
			},
		},
		{
			name: "profile file",
			opts: RootOptions{Config: filepath.Join("..", "config", "testdata", "profile.yaml")},
			check: func(t *testing.T, p config.Profile) {
				assert.NotEmpty(t, p.Prefixes)
			},
		},
		{name: "prefix without namespace", opts: RootOptions{Prefixes: []string{"ex"}}, wantErr: "want label=namespace"},
		{name: "relative base", opts: RootOptions{Base: "relative/"}, wantErr: "invalid base"},
		{name: "relative namespace", opts: RootOptions{Prefixes: []string{"ex=e/"}}, wantErr: "invalid prefixes"},
		{name: "missing profile", opts: RootOptions{Config: "nope.yaml"}, wantErr: "load profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.opts.Profile()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestRootOptions_ProfileDoesNotShareDefaults(t *testing.T) {
	opts := RootOptions{Prefixes: []string{"ex=http://e/"}}
	_, err := opts.Profile()
	require.NoError(t, err)

	assert.NotContains(t, config.Default().Prefixes, "ex")
}

func TestSession_BadConfigIsCommandError(t *testing.T) {
	opts := &RootOptions{Format: "text", Base: "relative/"}
	out, err := execute(t, NewParseCommand(opts), "", "-q", "ASK {}")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}
