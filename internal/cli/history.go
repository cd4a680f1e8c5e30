package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowerfulfort/scurl/internal/config"
	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/history"
	"github.com/flowerfulfort/scurl/internal/report"
)

// historyOptions holds the history command's flag values.
type historyOptions struct {
	configPath *string
	db         string
	format     string
	limit      int
	olderThan  time.Duration
}

func historyCmd(configPath *string) *cobra.Command {
	o := &historyOptions{configPath: configPath}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and manage recorded exchanges",
		Long: `History reads the SQLite database that exchanges are recorded in when
--history or the "history" config key is set.

The database is taken from --db, then the config file, then
$XDG_DATA_HOME/scurl/history.db (default ~/.local/share/scurl/history.db).`,
	}
	cmd.PersistentFlags().StringVar(&o.db, "db", "", "History database path")
	cmd.PersistentFlags().StringVarP(&o.format, "format", "f", "text", "Output format (text, json)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded exchanges, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(cmd, func(ctx context.Context, store history.Store) error {
				entries, err := store.List(ctx, o.limit)
				if err != nil {
					return errdef.Wrap(errdef.CodeHistory, err, "list")
				}
				return o.render(cmd, entries, false)
			})
		},
	}
	list.Flags().IntVarP(&o.limit, "limit", "n", 20, "Maximum entries to show (0 = all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded exchange (a unique ID prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(cmd, func(ctx context.Context, store history.Store) error {
				id, err := resolveID(ctx, store, args[0])
				if err != nil {
					return err
				}
				e, err := store.LoadByID(ctx, id)
				if err != nil {
					return errdef.Wrap(errdef.CodeHistory, err, "show %s", args[0])
				}
				return o.render(cmd, []*history.Entry{e}, true)
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete one recorded exchange",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(cmd, func(ctx context.Context, store history.Store) error {
				id, err := resolveID(ctx, store, args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(ctx, id); err != nil {
					return errdef.Wrap(errdef.CodeHistory, err, "rm %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete exchanges older than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.olderThan <= 0 {
				return errdef.New(errdef.CodeUsage, "--older-than must be positive")
			}
			return o.withStore(cmd, func(ctx context.Context, store history.Store) error {
				n, err := store.Cleanup(ctx, o.olderThan)
				if err != nil {
					return errdef.Wrap(errdef.CodeHistory, err, "prune")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d exchange(s)\n", n)
				return nil
			})
		},
	}
	prune.Flags().DurationVar(&o.olderThan, "older-than", 30*24*time.Hour, "Minimum age of deleted exchanges")

	cmd.AddCommand(list, show, rm, prune)
	return cmd
}

// withStore opens the history database for the duration of fn.
func (o *historyOptions) withStore(cmd *cobra.Command, fn func(ctx context.Context, store history.Store) error) error {
	path, err := o.dbPath()
	if err != nil {
		return err
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "open %s", path)
	}
	defer store.Close()
	return fn(cmd.Context(), store)
}

func (o *historyOptions) render(cmd *cobra.Command, entries []*history.Entry, detail bool) error {
	r, err := report.New(o.format)
	if err != nil {
		return errdef.Wrap(errdef.CodeUsage, err, "--format")
	}
	if tr, ok := r.(*report.TextReporter); ok {
		tr.Detail = detail
	}
	return r.Generate(cmd.Context(), entries, cmd.OutOrStdout())
}

// dbPath picks the database from --db, the config file, or the default
// data directory.
func (o *historyOptions) dbPath() (string, error) {
	if o.db != "" {
		return o.db, nil
	}
	var configPath string
	if o.configPath != nil {
		configPath = *o.configPath
	}
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if cfg.History != "" {
		return cfg.History, nil
	}
	return DefaultHistoryPath()
}

// DefaultHistoryPath returns $XDG_DATA_HOME/scurl/history.db, falling back
// to ~/.local/share/scurl/history.db.
func DefaultHistoryPath() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "scurl", "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errdef.Wrap(errdef.CodeHistory, err, "locate home directory")
	}
	return filepath.Join(home, ".local", "share", "scurl", "history.db"), nil
}

func resolveID(ctx context.Context, store history.Store, prefix string) (string, error) {
	id, err := store.ResolveID(ctx, prefix)
	switch {
	case errors.Is(err, history.ErrNotFound):
		return "", errdef.New(errdef.CodeHistory, "no exchange with id %q", prefix)
	case err != nil:
		return "", errdef.Wrap(errdef.CodeHistory, err, "resolve %q", prefix)
	}
	return id, nil
}
