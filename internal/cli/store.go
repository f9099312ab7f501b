package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qbdsl/internal/store"
)

// DefaultDBPath is the store used when --db is not given.
const DefaultDBPath = "qbdsl.db"

// StoreOptions holds flags shared by the store commands.
type StoreOptions struct {
	*RootOptions
	DBPath string
}

func (o *StoreOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.DBPath, "db", DefaultDBPath, "path to the saved query database")
}

// openStore opens --db, reporting failures (exit code 2).
func openStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, fmt.Sprintf("opening %s: %v", path, err), nil)
		return nil, WrapExitError(ExitCommandError, "opening store", err)
	}
	formatter.VerboseLog("Opened store %s", path)
	return st, nil
}

// storeError reports a store failure. A missing query is a check failure,
// anything else a command error.
func storeError(formatter *OutputFormatter, op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitFailure, op, err)
	}
	_ = formatter.Error(ErrCodeStore, fmt.Sprintf("%s: %v", op, err), nil)
	return WrapExitError(ExitCommandError, op, err)
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <name> <tree-file>",
		Short: "Compile a rule tree and store the result",
		Long: `Compile a rule tree and store the tree, query and warnings under a name.

Saving the same name and query again returns the existing entry.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, opts, args[0], args[1])
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func runSave(cmd *cobra.Command, opts *StoreOptions, name, treePath string) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	c, err := loadCompiler(opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	tree, source, err := readTree(formatter, treePath)
	if err != nil {
		return err
	}

	result := c.Compile(tree)
	q, err := store.FromResult(name, source, result)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "rendering query", err)
	}

	st, err := openStore(formatter, opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	saved, err := st.SaveQuery(cmd.Context(), q)
	if err != nil {
		return storeError(formatter, "saving query", err)
	}

	if opts.Format == "json" {
		return formatter.Success(saved)
	}
	for _, w := range result.Warnings {
		formatter.Warn("%s", w.Error())
	}
	return formatter.Success(fmt.Sprintf("✓ Saved %s as %s (hash %s)", saved.Name, saved.ID, shortHash(saved.QueryHash)))
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved queries in insertion order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func runList(cmd *cobra.Command, opts *StoreOptions) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	st, err := openStore(formatter, opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	queries, err := st.ListQueries(cmd.Context())
	if err != nil {
		return storeError(formatter, "listing queries", err)
	}

	if opts.Format == "json" {
		return formatter.Success(queries)
	}
	if len(queries) == 0 {
		return formatter.Success("No saved queries.")
	}

	var b strings.Builder
	for _, q := range queries {
		warnings, _ := q.DecodeWarnings()
		fmt.Fprintf(&b, "%4d  %s  %-20s  %s  %d warning(s)\n",
			q.Seq, q.ID, q.Name, shortHash(q.QueryHash), len(warnings))
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show a saved query",
		Long: `Show a saved query by ID. When no ID matches, the argument is taken
as a name and the most recently saved query of that name is shown.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args[0])
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func runShow(cmd *cobra.Command, opts *StoreOptions, ref string) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	st, err := openStore(formatter, opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	q, err := st.GetQuery(cmd.Context(), ref)
	if errors.Is(err, store.ErrNotFound) {
		q, err = st.LatestByName(cmd.Context(), ref)
	}
	if err != nil {
		return storeError(formatter, fmt.Sprintf("showing %s", ref), err)
	}

	if opts.Format == "json" {
		return formatter.Success(q)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ID:    %s\n", q.ID)
	fmt.Fprintf(w, "Name:  %s\n", q.Name)
	fmt.Fprintf(w, "Seq:   %d\n", q.Seq)
	fmt.Fprintf(w, "Hash:  %s\n", q.QueryHash)
	warnings, err := q.DecodeWarnings()
	if err != nil {
		return storeError(formatter, "decoding warnings", err)
	}
	for _, wn := range warnings {
		fmt.Fprintf(w, "Warn:  %s\n", wn.Error())
	}
	return formatter.Success(string(indent(q.Query)))
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a saved query",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, opts, args[0])
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func runDelete(cmd *cobra.Command, opts *StoreOptions, id string) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	st, err := openStore(formatter, opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteQuery(cmd.Context(), id); err != nil {
		return storeError(formatter, fmt.Sprintf("deleting %s", id), err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]string{"deleted": id})
	}
	return formatter.Success(fmt.Sprintf("✓ Deleted %s", id))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
