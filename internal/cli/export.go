package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mrlokans/workouts/internal/exporters"
)

const formatMarkdown = "markdown"

func newExportCommand(st *state) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the store",
		Long: `Export the store as a JSON or YAML snapshot, or the completion history
as markdown with one file per training day.

EXAMPLES:

  workouts export                              # JSON snapshot to stdout
  workouts export --format yaml -o backup.yaml # YAML snapshot to a file
  workouts export --format markdown -o ./log   # One file per day into ./log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if format == formatMarkdown {
				dir := output
				if dir == "" {
					dir = st.app.Config.Export.Dir
				}
				exporter := st.app.NewMarkdownExporter(dir)
				paths, err := exporter.Export(cmd.Context())
				if err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(out, "✓ Exported %d training days to %s\n", len(paths), dir)
				if exporter.Result.CompletionsFailed > 0 {
					color.New(color.FgYellow).Fprintf(out, "⚠ %d completions skipped\n", exporter.Result.CompletionsFailed)
				}
				return nil
			}

			f, err := exporters.ParseFormat(format)
			if err != nil {
				return err
			}

			var w io.Writer = out
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}

			result, err := st.app.NewExporter(f).Export(cmd.Context(), w)
			if err != nil {
				return err
			}
			if w != out {
				color.New(color.FgGreen).Fprintf(out, "✓ Exported %d exercises, %d workouts, %d schedules, %d completions to %s\n",
					result.ExercisesProcessed, result.WorkoutsProcessed, result.SchedulesProcessed, result.CompletionsProcessed, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (snapshots) or directory (markdown)")
	return cmd
}
