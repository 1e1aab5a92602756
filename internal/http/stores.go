package http

import (
	"context"
	"time"

	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/watch"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends only on the methods it calls; the repositories in
// internal/database satisfy them.

// ExerciseStore is the exercise library.
type ExerciseStore interface {
	ListEnabled(ctx context.Context) ([]entities.Exercise, error)
	ListAll(ctx context.Context) ([]entities.Exercise, error)
	ListCustom(ctx context.Context) ([]entities.Exercise, error)
	Get(ctx context.Context, id uint) (*entities.Exercise, error)
	NameExists(ctx context.Context, name string, excludeID *uint) (bool, error)
	Insert(ctx context.Context, exercise *entities.Exercise) error
	Update(ctx context.Context, exercise *entities.Exercise) error
	Disable(ctx context.Context, id uint) error
	Enable(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	WatchEnabled(ctx context.Context) *watch.Stream[[]entities.Exercise]
}

// WorkoutStore manages workout templates and their exercise lines.
type WorkoutStore interface {
	ListEnabled(ctx context.Context) ([]entities.Workout, error)
	ListAll(ctx context.Context) ([]entities.Workout, error)
	Get(ctx context.Context, id uint) (*entities.Workout, error)
	NameExists(ctx context.Context, name string, excludeID *uint) (bool, error)
	InsertWithExercises(ctx context.Context, workout *entities.Workout, exercises []entities.WorkoutExercise) error
	Update(ctx context.Context, workout *entities.Workout) error
	Disable(ctx context.Context, id uint) error
	Enable(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	DeleteWithExercises(ctx context.Context, id uint) error

	ListExercises(ctx context.Context, workoutID uint) ([]entities.WorkoutExercise, error)
	GetExercise(ctx context.Context, id uint) (*entities.WorkoutExercise, error)
	AddExercise(ctx context.Context, exercise *entities.WorkoutExercise) error
	UpdateExercise(ctx context.Context, exercise *entities.WorkoutExercise) error
	RemoveExercise(ctx context.Context, id uint) error
	ClearExercises(ctx context.Context, workoutID uint) error
	ReorderExercises(ctx context.Context, workoutID uint, lineIDs []uint) error
}

// ScheduleStore manages schedules, per-day overrides and override lines.
type ScheduleStore interface {
	ListAll(ctx context.Context) ([]entities.Schedule, error)
	Get(ctx context.Context, id uint) (*entities.Schedule, error)
	ListForWorkout(ctx context.Context, workoutID uint) ([]entities.Schedule, error)
	ListOccurringOn(ctx context.Context, date time.Time) ([]entities.Schedule, error)
	Insert(ctx context.Context, schedule *entities.Schedule) error
	Update(ctx context.Context, schedule *entities.Schedule) error
	Delete(ctx context.Context, id uint) error

	GetOverride(ctx context.Context, scheduleID uint, date time.Time) (*entities.ScheduleOverride, error)
	ListOverridesForSchedule(ctx context.Context, scheduleID uint) ([]entities.ScheduleOverride, error)
	InsertOverrideWithExercises(ctx context.Context, override *entities.ScheduleOverride, exercises []entities.OverrideExercise) error
	DeleteOverride(ctx context.Context, scheduleID uint, date time.Time) error

	ListOverrideExercises(ctx context.Context, overrideID uint) ([]entities.OverrideExercise, error)
	AddFromWorkoutExercise(ctx context.Context, overrideID, workoutExerciseID uint, line entities.ExerciseLine) (*entities.OverrideExercise, error)
	AddAsNew(ctx context.Context, overrideID, exerciseID uint, line entities.ExerciseLine) (*entities.OverrideExercise, error)
	UpdateOverrideExercise(ctx context.Context, exercise *entities.OverrideExercise) error
	RemoveOverrideExercise(ctx context.Context, id uint) error

	WatchOccurringOn(ctx context.Context, date time.Time) *watch.Stream[[]entities.Schedule]
}

// CompletionStore manages the history of completed workouts.
type CompletionStore interface {
	ListAll(ctx context.Context) ([]entities.CompletedWorkout, error)
	Get(ctx context.Context, id uint) (*entities.CompletedWorkout, error)
	ListForDate(ctx context.Context, date time.Time) ([]entities.CompletedWorkout, error)
	IsCompleted(ctx context.Context, workoutID uint, date time.Time) (bool, error)
	InsertWithExercises(ctx context.Context, completed *entities.CompletedWorkout, exercises []entities.CompletedExercise) error
	Delete(ctx context.Context, id uint) error

	ListExercises(ctx context.Context, completedWorkoutID uint) ([]entities.CompletedExercise, error)
	AddExercise(ctx context.Context, exercise *entities.CompletedExercise) error
	UpdateExercise(ctx context.Context, exercise *entities.CompletedExercise) error
	RemoveExercise(ctx context.Context, id uint) error

	WatchForDate(ctx context.Context, date time.Time) *watch.Stream[[]entities.CompletedWorkout]
	WatchIsCompleted(ctx context.Context, workoutID uint, date time.Time) *watch.Stream[bool]
}

// DayPlanner assembles and completes the plan of a day.
type DayPlanner interface {
	PlanFor(ctx context.Context, date time.Time) (*planner.Plan, error)
	Complete(ctx context.Context, workoutID uint, date time.Time) (*entities.CompletedWorkout, error)
}
