package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsyntax/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string   // "json" | "text"
	Config   string   // profile path, YAML or CUE
	Base     string   // overrides the profile base IRI
	Prefixes []string // label=namespace, added to the profile prefixes
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sparqlc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "sparqlc",
		Short:         "sparqlc - SPARQL 1.1 syntax toolkit",
		Long:          "Tokenize, parse and translate SPARQL 1.1 queries into algebra, and keep a catalog of compiled queries.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "parser profile (.yaml or .cue)")
	cmd.PersistentFlags().StringVar(&opts.Base, "base", "", "base IRI for relative references")
	cmd.PersistentFlags().StringArrayVarP(&opts.Prefixes, "prefix", "p", nil, "predeclared prefix as label=namespace (repeatable)")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewLexCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// Profile loads the configured profile and applies the flag overrides.
// --verbose raises the log level to debug.
func (o *RootOptions) Profile() (config.Profile, error) {
	profile, err := config.Load(o.Config)
	if err != nil {
		return config.Profile{}, err
	}
	if o.Base != "" {
		profile.Base = o.Base
	}
	if len(o.Prefixes) > 0 {
		profile.Prefixes = maps.Clone(profile.Prefixes)
		if profile.Prefixes == nil {
			profile.Prefixes = map[string]string{}
		}
		for _, decl := range o.Prefixes {
			label, ns, ok := strings.Cut(decl, "=")
			if !ok {
				return config.Profile{}, fmt.Errorf("invalid prefix %q: want label=namespace", decl)
			}
			profile.Prefixes[label] = ns
		}
	}
	if o.Verbose {
		profile.Log.Level = config.LevelDebug
	}
	if err := profile.Validate(); err != nil {
		return config.Profile{}, err
	}
	return profile, nil
}

// session bundles what every command needs once flags are resolved.
type session struct {
	profile config.Profile
	logger  *slog.Logger
	out     *OutputFormatter
}

func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	profile, err := opts.Profile()
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return &session{
		profile: profile,
		logger:  profile.Logger(out.GetErrWriter()),
		out:     out,
	}, nil
}

// readSource returns the query text named by args: a file path, or
// stdin when args is empty or "-".
func readSource(cmd *cobra.Command, args []string) (name, text string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return args[0], "", err
	}
	return args[0], string(data), nil
}
