package cli

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mrlokans/workouts/internal/logging"
	workoutsmcp "github.com/mrlokans/workouts/internal/mcp"
)

func newMCPCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server so an assistant can read the
plan and mark workouts done. The server talks over stdin/stdout; logs go
to stderr.

AVAILABLE TOOLS:

  list_exercises     The exercise library
  list_workouts      Workout templates with their lines
  get_plan           Workouts planned on a day
  complete_workout   Mark a planned workout done
  is_completed       Whether a workout was done on a day

AVAILABLE RESOURCES:

  plan://today       Today's plan`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol.
			var logOut io.Writer = os.Stderr
			if logCfg := st.app.Config.Log; logCfg.File != "" {
				logOut = io.MultiWriter(os.Stderr, logging.Output(logging.LoggerSetupParams{
					LogFileName: logCfg.File,
					MaxSizeMB:   logCfg.MaxSizeMB,
				}))
			}
			logrus.SetOutput(logOut)

			server := workoutsmcp.NewServer(workoutsmcp.Deps{
				Exercises:   st.app.Exercises,
				Workouts:    st.app.Workouts,
				Completions: st.app.Completions,
				Planner:     st.app.Planner,
				Today:       st.app.Clock().Today,
			}, st.version)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}
