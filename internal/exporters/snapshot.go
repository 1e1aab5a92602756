package exporters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/workouts/internal/entities"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension returns the file extension for the format, without a dot.
func (f Format) Extension() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

type ExerciseLister interface {
	ListAll(ctx context.Context) ([]entities.Exercise, error)
}

type WorkoutLister interface {
	ListAll(ctx context.Context) ([]entities.Workout, error)
	ListExercises(ctx context.Context, workoutID uint) ([]entities.WorkoutExercise, error)
}

type ScheduleLister interface {
	ListAll(ctx context.Context) ([]entities.Schedule, error)
	ListOverridesForSchedule(ctx context.Context, scheduleID uint) ([]entities.ScheduleOverride, error)
	ListOverrideExercises(ctx context.Context, overrideID uint) ([]entities.OverrideExercise, error)
}

type CompletionLister interface {
	ListAll(ctx context.Context) ([]entities.CompletedWorkout, error)
	ListExercises(ctx context.Context, completedWorkoutID uint) ([]entities.CompletedExercise, error)
}

// Document is the portable form of the whole store. Dates are calendar
// days in YYYY-MM-DD form.
type Document struct {
	ExportedAt  time.Time      `json:"exported_at" yaml:"exported_at"`
	Exercises   []ExerciseDoc  `json:"exercises" yaml:"exercises"`
	Workouts    []WorkoutDoc   `json:"workouts" yaml:"workouts"`
	Schedules   []ScheduleDoc  `json:"schedules" yaml:"schedules"`
	Completions []CompletedDoc `json:"completions" yaml:"completions"`
}

type SetDoc struct {
	Value  int     `json:"value" yaml:"value"`
	Weight float64 `json:"weight" yaml:"weight"`
	Rest   *int    `json:"rest,omitempty" yaml:"rest,omitempty"`
}

type LineDoc struct {
	ExerciseID        uint     `json:"exercise_id,omitempty" yaml:"exercise_id,omitempty"`
	WorkoutExerciseID uint     `json:"workout_exercise_id,omitempty" yaml:"workout_exercise_id,omitempty"`
	Mode              string   `json:"mode" yaml:"mode"`
	Sets              []SetDoc `json:"sets" yaml:"sets"`
	RestAfter         *int     `json:"rest_after,omitempty" yaml:"rest_after,omitempty"`
}

type ExerciseDoc struct {
	ID         uint     `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Mode       string   `json:"mode" yaml:"mode"`
	Sets       []SetDoc `json:"sets" yaml:"sets"`
	RestAfter  *int     `json:"rest_after,omitempty" yaml:"rest_after,omitempty"`
	IsDefault  bool     `json:"is_default" yaml:"is_default"`
	IsDisabled bool     `json:"is_disabled" yaml:"is_disabled"`
}

type WorkoutDoc struct {
	ID         uint      `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Icon       string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	IsDisabled bool      `json:"is_disabled" yaml:"is_disabled"`
	Exercises  []LineDoc `json:"exercises" yaml:"exercises"`
}

type OverrideDoc struct {
	Date      string    `json:"date" yaml:"date"`
	Exercises []LineDoc `json:"exercises" yaml:"exercises"`
}

type ScheduleDoc struct {
	ID         uint          `json:"id" yaml:"id"`
	WorkoutID  uint          `json:"workout_id" yaml:"workout_id"`
	StartDate  string        `json:"start_date" yaml:"start_date"`
	Recurrence string        `json:"recurrence" yaml:"recurrence"`
	OffsetDays *int          `json:"offset_days,omitempty" yaml:"offset_days,omitempty"`
	Overrides  []OverrideDoc `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

type CompletedDoc struct {
	ID            uint      `json:"id" yaml:"id"`
	WorkoutID     uint      `json:"workout_id" yaml:"workout_id"`
	ScheduledDate string    `json:"scheduled_date" yaml:"scheduled_date"`
	CompletedAt   time.Time `json:"completed_at" yaml:"completed_at"`
	Exercises     []LineDoc `json:"exercises" yaml:"exercises"`
}

// SnapshotExporter writes the whole store as one JSON or YAML document.
type SnapshotExporter struct {
	Format      Format
	exercises   ExerciseLister
	workouts    WorkoutLister
	schedules   ScheduleLister
	completions CompletionLister
	now         func() time.Time
}

func NewSnapshotExporter(format Format, exercises ExerciseLister, workouts WorkoutLister, schedules ScheduleLister, completions CompletionLister) *SnapshotExporter {
	return &SnapshotExporter{
		Format:      format,
		exercises:   exercises,
		workouts:    workouts,
		schedules:   schedules,
		completions: completions,
		now:         time.Now,
	}
}

// Collect reads the store into a Document.
func (e *SnapshotExporter) Collect(ctx context.Context) (*Document, ExportResult, error) {
	result := ExportResult{}
	doc := &Document{ExportedAt: e.now().UTC()}

	exercises, err := e.exercises.ListAll(ctx)
	if err != nil {
		return nil, result, fmt.Errorf("list exercises: %w", err)
	}
	for _, ex := range exercises {
		doc.Exercises = append(doc.Exercises, ExerciseDoc{
			ID:         ex.ID,
			Name:       ex.Name,
			Mode:       string(ex.Mode),
			Sets:       setDocs(ex.Sets),
			RestAfter:  entities.NormalizeRest(ex.DefaultRestAfter),
			IsDefault:  ex.IsDefault,
			IsDisabled: ex.IsDisabled,
		})
		result.ExercisesProcessed++
	}

	workouts, err := e.workouts.ListAll(ctx)
	if err != nil {
		return nil, result, fmt.Errorf("list workouts: %w", err)
	}
	for _, w := range workouts {
		lines, err := e.workouts.ListExercises(ctx, w.ID)
		if err != nil {
			return nil, result, fmt.Errorf("list exercises of workout %d: %w", w.ID, err)
		}
		wd := WorkoutDoc{ID: w.ID, Name: w.Name, Icon: w.Icon, IsDisabled: w.IsDisabled, Exercises: []LineDoc{}}
		for _, line := range lines {
			wd.Exercises = append(wd.Exercises, lineDoc(line.ExerciseLine, line.ExerciseID, 0))
		}
		doc.Workouts = append(doc.Workouts, wd)
		result.WorkoutsProcessed++
	}

	schedules, err := e.schedules.ListAll(ctx)
	if err != nil {
		return nil, result, fmt.Errorf("list schedules: %w", err)
	}
	for _, s := range schedules {
		sd := ScheduleDoc{
			ID:         s.ID,
			WorkoutID:  s.WorkoutID,
			StartDate:  s.Start().Format(time.DateOnly),
			Recurrence: string(s.Recurrence),
			OffsetDays: s.OffsetDays,
		}
		overrides, err := e.schedules.ListOverridesForSchedule(ctx, s.ID)
		if err != nil {
			return nil, result, fmt.Errorf("list overrides of schedule %d: %w", s.ID, err)
		}
		for _, o := range overrides {
			lines, err := e.schedules.ListOverrideExercises(ctx, o.ID)
			if err != nil {
				return nil, result, fmt.Errorf("list exercises of override %d: %w", o.ID, err)
			}
			od := OverrideDoc{Date: time.Time(o.Date).Format(time.DateOnly), Exercises: []LineDoc{}}
			for _, line := range lines {
				od.Exercises = append(od.Exercises, lineDoc(line.ExerciseLine, deref(line.ExerciseID), deref(line.WorkoutExerciseID)))
			}
			sd.Overrides = append(sd.Overrides, od)
			result.OverridesProcessed++
		}
		doc.Schedules = append(doc.Schedules, sd)
		result.SchedulesProcessed++
	}

	completions, err := e.completions.ListAll(ctx)
	if err != nil {
		return nil, result, fmt.Errorf("list completions: %w", err)
	}
	for _, c := range completions {
		lines, err := e.completions.ListExercises(ctx, c.ID)
		if err != nil {
			return nil, result, fmt.Errorf("list exercises of completion %d: %w", c.ID, err)
		}
		cd := CompletedDoc{
			ID:            c.ID,
			WorkoutID:     c.WorkoutID,
			ScheduledDate: time.Time(c.ScheduledDate).Format(time.DateOnly),
			CompletedAt:   c.CompletedAt.UTC(),
			Exercises:     []LineDoc{},
		}
		for _, line := range lines {
			cd.Exercises = append(cd.Exercises, lineDoc(line.ExerciseLine, line.ExerciseID, 0))
		}
		doc.Completions = append(doc.Completions, cd)
		result.CompletionsProcessed++
	}

	return doc, result, nil
}

func (e *SnapshotExporter) Export(ctx context.Context, w io.Writer) (ExportResult, error) {
	doc, result, err := e.Collect(ctx)
	if err != nil {
		return result, err
	}

	switch e.Format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return result, fmt.Errorf("encode yaml: %w", err)
		}
		err = enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	}
	if err != nil {
		return result, fmt.Errorf("write snapshot: %w", err)
	}
	return result, nil
}

// ReadDocument parses a snapshot written in either format.
func ReadDocument(r io.Reader, format Format) (*Document, error) {
	var doc Document
	var err error
	if format == FormatYAML {
		err = yaml.NewDecoder(r).Decode(&doc)
	} else {
		err = json.NewDecoder(r).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return &doc, nil
}

func setDocs(sets entities.SetList) []SetDoc {
	out := make([]SetDoc, 0, len(sets))
	for _, s := range sets {
		out = append(out, SetDoc{Value: s.Value, Weight: s.Weight, Rest: entities.NormalizeRest(s.Rest)})
	}
	return out
}

func lineDoc(line entities.ExerciseLine, exerciseID, workoutExerciseID uint) LineDoc {
	return LineDoc{
		ExerciseID:        exerciseID,
		WorkoutExerciseID: workoutExerciseID,
		Mode:              string(line.Mode),
		Sets:              setDocs(line.Sets),
		RestAfter:         entities.NormalizeRest(line.RestAfter),
	}
}

func deref(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}
