package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/workouts/internal/entrypoint"
)

func newServeCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP API together with the background task queue and the
daily plan reminder. Live queries are served as server-sent events under
/api/events. Stop with Ctrl+C; in-flight requests get
SHUTDOWN_TIMEOUT_IN_SECONDS to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, st)
		},
	}
}

func runServe(cmd *cobra.Command, st *state) error {
	return entrypoint.Run(cmd.Context(), st.app, st.version)
}
