package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/catalog"
	"github.com/roach88/sparqlsyntax/internal/parser"
)

// CatalogOptions holds flags shared by the catalog subcommands.
type CatalogOptions struct {
	*RootOptions
	DB string // path to the SQLite catalog
}

// AddedEntry is one line of catalog add output.
type AddedEntry struct {
	Source  string        `json:"source"`
	Created bool          `json:"created"`
	Entry   catalog.Entry `json:"entry"`
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Store and look up compiled queries",
		Long: `Keep a SQLite catalog of compiled queries, keyed by the fingerprint of
their algebra. Adding a query that differs only in surface syntax from a
stored one returns the stored entry.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "sparqlsyntax.db", "path to the catalog database")

	cmd.AddCommand(newCatalogAddCommand(opts))
	cmd.AddCommand(newCatalogListCommand(opts))
	cmd.AddCommand(newCatalogShowCommand(opts))

	return cmd
}

func newCatalogAddCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <query-file>...",
		Short: "Parse queries and add them to the catalog",
		Example: `  sparqlc catalog add --db queries.db q1.rq q2.rq
  sparqlc catalog add --prefix ex=http://example.org/ q.rq`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogAdd(opts, args, cmd)
		},
	}
}

func newCatalogListCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List catalog entries in insertion order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(opts, cmd)
		},
	}
}

func newCatalogShowCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id-or-fingerprint>",
		Short:         "Show one catalog entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(opts, args[0], cmd)
		},
	}
}

func openCatalog(s *session, path string) (*catalog.Catalog, error) {
	c, err := catalog.Open(path)
	if err != nil {
		_ = s.out.Error(ErrCodeCatalog, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: cannot open catalog %s", ErrCodeCatalog, path), err)
	}
	s.logger.Debug("opened catalog", "path", path)
	return c, nil
}

func runCatalogAdd(opts *CatalogOptions, files []string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	// Parse everything first so a bad file leaves the catalog untouched.
	type parsed struct {
		source string
		text   string
		query  *algebra.Query
	}
	var inputs []parsed
	for _, file := range files {
		source, text, err := readSource(cmd, []string{file})
		if err != nil {
			return s.out.readFailure(source, err)
		}
		q, err := parser.ParseQuery(text, s.profile.ParserOptions(s.logger)...)
		if err != nil {
			return s.out.reportSyntaxError(source, err)
		}
		inputs = append(inputs, parsed{source: source, text: text, query: q})
	}

	c, err := openCatalog(s, opts.DB)
	if err != nil {
		return err
	}
	defer c.Close()

	added := make([]AddedEntry, 0, len(inputs))
	for _, in := range inputs {
		entry, created, err := c.Add(cmd.Context(), in.text, in.query)
		if err != nil {
			_ = s.out.Error(ErrCodeCatalog, err.Error(), nil)
			return WrapExitError(ExitCommandError, "catalog add", err)
		}
		s.logger.Info("catalog add", "source", in.source, "id", entry.ID, "created", created)
		added = append(added, AddedEntry{Source: in.source, Created: created, Entry: entry})
	}

	if s.out.Format == "json" {
		return s.out.Success(added)
	}
	for _, a := range added {
		status := "added"
		if !a.Created {
			status = "exists"
		}
		fmt.Fprintf(s.out.Writer, "%s\t%s\t%s\t%s\n", status, a.Entry.ID, shortFingerprint(a.Entry.Fingerprint), a.Source)
	}
	return nil
}

func runCatalogList(opts *CatalogOptions, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	c, err := openCatalog(s, opts.DB)
	if err != nil {
		return err
	}
	defer c.Close()

	entries, err := c.List(cmd.Context())
	if err != nil {
		_ = s.out.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "catalog list", err)
	}

	if s.out.Format == "json" {
		return s.out.Success(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(s.out.Writer, "%d\t%s\t%s\t%s\n", e.Seq, e.ID, e.Form, shortFingerprint(e.Fingerprint))
	}
	return nil
}

func runCatalogShow(opts *CatalogOptions, key string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	c, err := openCatalog(s, opts.DB)
	if err != nil {
		return err
	}
	defer c.Close()

	entry, err := c.Get(cmd.Context(), key)
	if errors.Is(err, catalog.ErrNotFound) {
		_ = s.out.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("%s: no entry %s", ErrCodeNotFound, key), err)
	}
	if err != nil {
		_ = s.out.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "catalog show", err)
	}

	if s.out.Format == "json" {
		return s.out.Success(entry)
	}
	fmt.Fprintf(s.out.Writer, "id:          %s\n", entry.ID)
	fmt.Fprintf(s.out.Writer, "fingerprint: %s\n", entry.Fingerprint)
	fmt.Fprintf(s.out.Writer, "form:        %s\n", entry.Form)
	fmt.Fprintf(s.out.Writer, "\n%s\n\n%s\n", entry.Source, entry.Algebra)
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
