// Package planner assembles what is due on a calendar day: every schedule
// that occurs or is overridden on that day, the exercise lines it will run
// and whether it has already been completed.
//
// An override replaces the template's lines for its day only. A day with
// an override is planned even if the schedule's rule would not produce it.
package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/recurrence"
)

type ScheduleReader interface {
	ListOccurringOn(ctx context.Context, date time.Time) ([]entities.Schedule, error)
	ListOverridesOn(ctx context.Context, date time.Time) ([]entities.ScheduleOverride, error)
	Get(ctx context.Context, id uint) (*entities.Schedule, error)
}

type WorkoutReader interface {
	Get(ctx context.Context, id uint) (*entities.Workout, error)
}

type ExerciseReader interface {
	Get(ctx context.Context, id uint) (*entities.Exercise, error)
}

type CompletionStore interface {
	FindByWorkoutAndDate(ctx context.Context, workoutID uint, date time.Time) (*entities.CompletedWorkout, error)
	InsertWithExercises(ctx context.Context, completed *entities.CompletedWorkout, exercises []entities.CompletedExercise) error
}

// PlannedExercise is one line of a planned workout, resolved to its exercise.
type PlannedExercise struct {
	Exercise          entities.Exercise     `json:"exercise"`
	Line              entities.ExerciseLine `json:"line"`
	WorkoutExerciseID *uint                 `json:"workout_exercise_id,omitempty"`
}

type Entry struct {
	Schedule   entities.Schedule          `json:"schedule"`
	Workout    entities.Workout           `json:"workout"`
	Overridden bool                       `json:"overridden"`
	Exercises  []PlannedExercise          `json:"exercises"`
	Completed  *entities.CompletedWorkout `json:"completed,omitempty"`
}

func (e Entry) IsCompleted() bool {
	return e.Completed != nil
}

type Plan struct {
	Date    time.Time `json:"date"`
	Entries []Entry   `json:"entries"`
}

// Pending returns the entries not completed yet.
func (p Plan) Pending() []Entry {
	var pending []Entry
	for _, entry := range p.Entries {
		if !entry.IsCompleted() {
			pending = append(pending, entry)
		}
	}
	return pending
}

type Planner struct {
	schedules   ScheduleReader
	workouts    WorkoutReader
	exercises   ExerciseReader
	completions CompletionStore
}

func New(schedules ScheduleReader, workouts WorkoutReader, exercises ExerciseReader, completions CompletionStore) *Planner {
	return &Planner{
		schedules:   schedules,
		workouts:    workouts,
		exercises:   exercises,
		completions: completions,
	}
}

// PlanFor builds the plan of the calendar day of date.
func (p *Planner) PlanFor(ctx context.Context, date time.Time) (*Plan, error) {
	day := recurrence.Day(date)

	occurring, err := p.schedules.ListOccurringOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list occurring schedules: %w", err)
	}
	overrides, err := p.schedules.ListOverridesOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}

	byScheduleID := make(map[uint]entities.ScheduleOverride, len(overrides))
	for _, override := range overrides {
		byScheduleID[override.ScheduleID] = override
	}

	schedules := occurring
	seen := make(map[uint]struct{}, len(occurring))
	for _, schedule := range occurring {
		seen[schedule.ID] = struct{}{}
	}
	for _, override := range overrides {
		if _, ok := seen[override.ScheduleID]; ok {
			continue
		}
		schedule, err := p.schedules.Get(ctx, override.ScheduleID)
		if err != nil {
			return nil, fmt.Errorf("get schedule %d: %w", override.ScheduleID, err)
		}
		if schedule != nil {
			schedules = append(schedules, *schedule)
			seen[schedule.ID] = struct{}{}
		}
	}

	plan := &Plan{Date: day, Entries: make([]Entry, 0, len(schedules))}
	cache := exerciseCache{reader: p.exercises, byID: map[uint]*entities.Exercise{}}

	for _, schedule := range schedules {
		workout, err := p.workouts.Get(ctx, schedule.WorkoutID)
		if err != nil {
			return nil, fmt.Errorf("get workout %d: %w", schedule.WorkoutID, err)
		}
		if workout == nil || workout.IsDisabled {
			continue
		}

		entry := Entry{Schedule: schedule, Workout: *workout}
		if override, ok := byScheduleID[schedule.ID]; ok {
			entry.Overridden = true
			entry.Exercises, err = resolveOverride(ctx, &cache, workout.Exercises, override.Exercises)
		} else {
			entry.Exercises, err = resolveTemplate(ctx, &cache, workout.Exercises)
		}
		if err != nil {
			return nil, err
		}
		entry.Workout.Exercises = nil

		entry.Completed, err = p.completions.FindByWorkoutAndDate(ctx, workout.ID, day)
		if err != nil {
			return nil, fmt.Errorf("find completion: %w", err)
		}

		plan.Entries = append(plan.Entries, entry)
	}

	sort.SliceStable(plan.Entries, func(i, j int) bool {
		return plan.Entries[i].Workout.Name < plan.Entries[j].Workout.Name
	})
	return plan, nil
}

// Complete records the planned workout of the day as done, snapshotting
// the lines it was planned with. It returns the existing record if the
// occurrence is already complete.
func (p *Planner) Complete(ctx context.Context, workoutID uint, date time.Time) (*entities.CompletedWorkout, error) {
	plan, err := p.PlanFor(ctx, date)
	if err != nil {
		return nil, err
	}

	for _, entry := range plan.Entries {
		if entry.Workout.ID != workoutID {
			continue
		}
		if entry.Completed != nil {
			return entry.Completed, nil
		}

		completed := &entities.CompletedWorkout{
			WorkoutID:     workoutID,
			ScheduledDate: datatypes.Date(plan.Date),
		}
		if err := p.completions.InsertWithExercises(ctx, completed, Snapshot(entry.Exercises)); err != nil {
			return nil, fmt.Errorf("complete workout %d: %w", workoutID, err)
		}
		return completed, nil
	}

	return nil, fmt.Errorf("%w: workout %d on %s", ErrNotPlanned, workoutID, plan.Date.Format(time.DateOnly))
}

// Snapshot copies planned lines into completion records, positioned in
// plan order.
func Snapshot(planned []PlannedExercise) []entities.CompletedExercise {
	snapshot := make([]entities.CompletedExercise, 0, len(planned))
	for i, pe := range planned {
		line := pe.Line
		line.OrderIndex = i
		line.Sets = append(entities.SetList(nil), pe.Line.Sets...)
		snapshot = append(snapshot, entities.CompletedExercise{
			ExerciseID:   pe.Exercise.ID,
			ExerciseLine: line,
		})
	}
	return snapshot
}

func resolveTemplate(ctx context.Context, cache *exerciseCache, lines []entities.WorkoutExercise) ([]PlannedExercise, error) {
	planned := make([]PlannedExercise, 0, len(lines))
	for _, line := range lines {
		exercise, err := cache.get(ctx, line.ExerciseID)
		if err != nil {
			return nil, err
		}
		id := line.ID
		planned = append(planned, PlannedExercise{Exercise: *exercise, Line: line.ExerciseLine, WorkoutExerciseID: &id})
	}
	return planned, nil
}

func resolveOverride(ctx context.Context, cache *exerciseCache, template []entities.WorkoutExercise, lines []entities.OverrideExercise) ([]PlannedExercise, error) {
	templateByID := make(map[uint]entities.WorkoutExercise, len(template))
	for _, line := range template {
		templateByID[line.ID] = line
	}

	planned := make([]PlannedExercise, 0, len(lines))
	for _, line := range lines {
		var exerciseID uint
		var workoutExerciseID *uint
		switch {
		case line.ExerciseID != nil:
			exerciseID = *line.ExerciseID
		case line.WorkoutExerciseID != nil:
			source, ok := templateByID[*line.WorkoutExerciseID]
			if !ok {
				return nil, fmt.Errorf("override line %d: template line %d is not part of the workout", line.ID, *line.WorkoutExerciseID)
			}
			exerciseID = source.ExerciseID
			id := source.ID
			workoutExerciseID = &id
		default:
			continue
		}

		exercise, err := cache.get(ctx, exerciseID)
		if err != nil {
			return nil, err
		}
		planned = append(planned, PlannedExercise{Exercise: *exercise, Line: line.ExerciseLine, WorkoutExerciseID: workoutExerciseID})
	}
	return planned, nil
}

type exerciseCache struct {
	reader ExerciseReader
	byID   map[uint]*entities.Exercise
}

func (c *exerciseCache) get(ctx context.Context, id uint) (*entities.Exercise, error) {
	if exercise, ok := c.byID[id]; ok {
		return exercise, nil
	}
	exercise, err := c.reader.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get exercise %d: %w", id, err)
	}
	if exercise == nil {
		return nil, fmt.Errorf("get exercise %d: %w", id, ErrMissingExercise)
	}
	c.byID[id] = exercise
	return exercise, nil
}

// Summary renders the plan as one line, e.g. "2 planned, 1 done: Pull (done), Push".
func (p Plan) Summary() string {
	if len(p.Entries) == 0 {
		return "rest day"
	}

	done := 0
	names := make([]string, 0, len(p.Entries))
	for _, entry := range p.Entries {
		name := entry.Workout.Name
		if entry.IsCompleted() {
			done++
			name += " (done)"
		}
		names = append(names, name)
	}
	return fmt.Sprintf("%d planned, %d done: %s", len(p.Entries), done, strings.Join(names, ", "))
}
