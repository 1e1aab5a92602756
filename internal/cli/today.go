package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mrlokans/workouts/internal/exporters"
	"github.com/mrlokans/workouts/internal/planner"
)

func (st *state) day(value string) (time.Time, error) {
	if value == "" {
		return st.app.Clock().Today(), nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", value)
	}
	return day, nil
}

func newTodayCommand(st *state) *cobra.Command {
	var (
		date  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:     "today",
		Aliases: []string{"plan"},
		Short:   "Show the workouts planned for a day",
		Long: `Show every workout planned for a day, the exercises it runs and whether
it is already done. A day with an override shows the overridden lines.

EXAMPLES:

  workouts today                     # Today in TIMEZONE
  workouts today --date 2024-06-03   # Any other day
  workouts today --watch             # Redraw whenever the plan changes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := st.day(date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !watch {
				plan, err := st.app.Planner.PlanFor(cmd.Context(), day)
				if err != nil {
					return err
				}
				printPlan(out, plan)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchPlan(ctx, out, st.app.Planner.Watch(ctx, st.app.DB.Hub, day))
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Day to show (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and print the plan again after every change")
	return cmd
}

type planStream interface {
	Updates() <-chan *planner.Plan
	Done() <-chan struct{}
	Err() error
	Close()
}

func watchPlan(ctx context.Context, out io.Writer, stream planStream) error {
	defer stream.Close()
	for {
		select {
		case plan, ok := <-stream.Updates():
			if !ok {
				<-stream.Done()
				if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}
			printPlan(out, plan)
			fmt.Fprintln(out)
		case <-ctx.Done():
			return nil
		}
	}
}

func printPlan(out io.Writer, plan *planner.Plan) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	green := color.New(color.FgGreen)

	bold.Fprintf(out, "%s  %s\n", plan.Date.Format("Mon 2006-01-02"), plan.Summary())
	for _, entry := range plan.Entries {
		marker := "•"
		if entry.IsCompleted() {
			marker = green.Sprint("✓")
		}
		name := entry.Workout.Name
		if entry.Overridden {
			name += faint.Sprint(" (override)")
		}
		fmt.Fprintf(out, "%s %s %s\n", marker, faint.Sprint("#"+strconv.FormatUint(uint64(entry.Workout.ID), 10)), name)
		for _, pe := range entry.Exercises {
			fmt.Fprintf(out, "    %-16s %s\n", pe.Exercise.Name, exporters.FormatSets(pe.Line))
		}
	}
}

func newDoneCommand(st *state) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "done <workout-id>",
		Short: "Mark a planned workout as completed",
		Long: `Record a workout planned for the day as done. The exercises it was
planned with are copied into the history. Completing it again is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid workout id %q", args[0])
			}
			day, err := st.day(date)
			if err != nil {
				return err
			}

			completed, err := st.app.Planner.Complete(cmd.Context(), uint(id), day)
			if errors.Is(err, planner.ErrNotPlanned) {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "✗ Workout %d is not planned on %s\n", id, day.Format(time.DateOnly))
				return err
			}
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Completed workout %d on %s %s\n",
				completed.WorkoutID,
				day.Format(time.DateOnly),
				color.New(color.Faint).Sprintf("(record %d)", completed.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Day of the occurrence (YYYY-MM-DD), defaults to today")
	return cmd
}
