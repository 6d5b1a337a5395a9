package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/atb/internal/engine"
	"github.com/roach88/atb/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	LogLines int
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored battle",
		Long: `Print the battle stored in a database: the clock, the roster in
display order, the current unit and the most recent log entries.

The battle is not modified.

Examples:
  atb show --db ./battle.db
  atb show --db ./battle.db --log 20
  atb show --db ./battle.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.LogLines, "log", defaultLogLines, "number of log entries to print")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Open would create an empty database; a typo should not.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	state, found, err := st.Load(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load battle", err)
	}
	if !found {
		_ = formatter.Error(ErrCodeNotFound, "database holds no battle", nil)
		return NewExitError(ExitCommandError, "database holds no battle")
	}

	// A manual scheduler keeps the restored engine inert.
	e := engine.New(
		engine.WithScheduler(engine.NewManualScheduler()),
		engine.WithLogger(slog.Default()),
	)
	defer e.Stop()
	if err := e.Restore(state); err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "stored battle is invalid", err)
	}

	view := battleView(e, opts.LogLines)
	if opts.Format == "json" {
		return formatter.Success(view)
	}
	writeBattle(formatter.Writer, view)
	return nil
}
