// Package cli is the workouts command line: the HTTP server, the MCP
// server and a few commands that work on the local store directly.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/workouts/internal/config"
	"github.com/mrlokans/workouts/internal/entrypoint"
)

// state is shared by the subcommands of one invocation.
type state struct {
	version string
	dbPath  string

	cfg *config.Config
	app *entrypoint.App
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the HTTP server.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&state{version: version})
}

func newRootCommand(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "workouts",
		Short: "Local workout planner",
		Long: `Workouts keeps an exercise library, workout templates, their
recurring schedules and the history of completed sessions in a local
SQLite database.

QUICK START:

  $ workouts serve                   # HTTP API on :8188
  $ workouts today                   # What is planned today
  $ workouts today --watch           # Keep the plan on screen as it changes
  $ workouts done 3                  # Mark workout 3 done for today
  $ workouts export --format yaml    # Snapshot the whole store

CONFIGURATION:

  Settings come from the environment or a .env file in the working
  directory: DATABASE_PATH, PORT, HOST, TIMEZONE, LOG_LEVEL, LOG_FILE,
  REMINDER_ENABLED, REMINDER_SCHEDULE, TASKS_ENABLED, EXPORT_DIR.`,
		Version:       st.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			return st.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return st.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, st)
		},
	}
	root.PersistentFlags().StringVar(&st.dbPath, "db", "", "Path to the database file (overrides DATABASE_PATH)")

	root.AddCommand(
		newServeCommand(st),
		newTodayCommand(st),
		newDoneCommand(st),
		newExportCommand(st),
		newMCPCommand(st),
	)
	return root
}

func (st *state) open() error {
	if st.app != nil {
		return nil
	}
	if st.cfg == nil {
		cfg, err := entrypoint.LoadConfig()
		if err != nil {
			return err
		}
		st.cfg = cfg
	}
	if st.dbPath != "" {
		st.cfg.Database.Path = st.dbPath
	}

	app, err := entrypoint.Open(st.cfg)
	if err != nil {
		return err
	}
	st.app = app
	return nil
}

func (st *state) close() error {
	if st.app == nil {
		return nil
	}
	err := st.app.Close()
	st.app = nil
	return err
}

// Execute runs the command line and exits non-zero on failure.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
