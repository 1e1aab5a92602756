package exporters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/workouts/internal/entities"
)

type LoggedExercise struct {
	Name string
	Line entities.ExerciseLine
}

type LoggedWorkout struct {
	Name        string
	CompletedAt time.Time
	Exercises   []LoggedExercise
}

// MarkdownExporter writes the training history as one markdown file per
// day into Dir.
type MarkdownExporter struct {
	Dir         string
	exercises   ExerciseLister
	workouts    WorkoutLister
	completions CompletionLister
	Result      ExportResult
}

func NewMarkdownExporter(dir string, exercises ExerciseLister, workouts WorkoutLister, completions CompletionLister) *MarkdownExporter {
	return &MarkdownExporter{
		Dir:         dir,
		exercises:   exercises,
		workouts:    workouts,
		completions: completions,
	}
}

func (exporter *MarkdownExporter) ensureDir() error {
	if err := os.MkdirAll(exporter.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}

func (exporter *MarkdownExporter) names(ctx context.Context) (map[uint]string, map[uint]string, error) {
	exercises, err := exporter.exercises.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list exercises: %w", err)
	}
	exerciseNames := make(map[uint]string, len(exercises))
	for _, e := range exercises {
		exerciseNames[e.ID] = e.Name
	}

	workouts, err := exporter.workouts.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list workouts: %w", err)
	}
	workoutNames := make(map[uint]string, len(workouts))
	for _, w := range workouts {
		workoutNames[w.ID] = w.Name
	}
	return exerciseNames, workoutNames, nil
}

// Export writes a file per completed day and returns the file paths in
// date order.
func (exporter *MarkdownExporter) Export(ctx context.Context) ([]string, error) {
	exporter.Result = ExportResult{}

	if err := exporter.ensureDir(); err != nil {
		return nil, err
	}

	exerciseNames, workoutNames, err := exporter.names(ctx)
	if err != nil {
		return nil, err
	}

	completions, err := exporter.completions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}

	byDay := map[string][]LoggedWorkout{}
	for _, c := range completions {
		lines, err := exporter.completions.ListExercises(ctx, c.ID)
		if err != nil {
			logrus.WithError(err).WithField("completion_id", c.ID).Warn("skipping completion")
			exporter.Result.CompletionsFailed++
			continue
		}

		logged := LoggedWorkout{Name: workoutNames[c.WorkoutID], CompletedAt: c.CompletedAt}
		for _, line := range lines {
			logged.Exercises = append(logged.Exercises, LoggedExercise{Name: exerciseNames[line.ExerciseID], Line: line.ExerciseLine})
		}
		day := time.Time(c.ScheduledDate).Format(time.DateOnly)
		byDay[day] = append(byDay[day], logged)
		exporter.Result.CompletionsProcessed++
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	paths := make([]string, 0, len(days))
	for _, day := range days {
		workouts := byDay[day]
		sort.SliceStable(workouts, func(i, j int) bool {
			return workouts[i].CompletedAt.Before(workouts[j].CompletedAt)
		})

		outputPath := filepath.Join(exporter.Dir, day+".md")
		if err := os.WriteFile(outputPath, []byte(GenerateMarkdown(day, workouts)), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", outputPath, err)
		}
		logrus.WithField("path", outputPath).Debug("exported training day")
		paths = append(paths, outputPath)
	}

	return paths, nil
}

// GenerateMarkdown renders one training day with a front matter header.
func GenerateMarkdown(day string, workouts []LoggedWorkout) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_type: training_log\n")
	fmt.Fprintf(&builder, "date: %s\n", day)
	fmt.Fprintf(&builder, "workouts: %d\n", len(workouts))
	fmt.Fprintf(&builder, "tags: training, workouts\n")
	fmt.Fprintf(&builder, "---\n\n")

	for _, w := range workouts {
		name := w.Name
		if name == "" {
			name = "Unnamed workout"
		}
		fmt.Fprintf(&builder, "## %s\n\n", name)
		if !w.CompletedAt.IsZero() {
			fmt.Fprintf(&builder, "Completed at %s\n\n", w.CompletedAt.UTC().Format("15:04"))
		}
		for _, e := range w.Exercises {
			fmt.Fprintf(&builder, "- **%s**: %s\n", e.Name, FormatSets(e.Line))
		}
		fmt.Fprintf(&builder, "\n")
	}

	return builder.String()
}

// FormatSets renders a line's sets, e.g. "8, 8 @ 5kg, 6" or "30s, 30s".
func FormatSets(line entities.ExerciseLine) string {
	parts := make([]string, 0, len(line.Sets))
	for _, s := range line.Sets {
		part := strconv.Itoa(s.Value)
		if line.Mode == entities.ExerciseModeStatic {
			part += "s"
		}
		if s.Weight != 0 {
			part += " @ " + strconv.FormatFloat(s.Weight, 'f', -1, 64) + "kg"
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return "no sets"
	}
	return strings.Join(parts, ", ")
}
