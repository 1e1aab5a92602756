package entities

import (
	"time"
)

// Table names, also used as change-notification topics.
const (
	TableExercises          = "exercises"
	TableWorkouts           = "workouts"
	TableWorkoutExercises   = "workout_exercises"
	TableSchedules          = "schedules"
	TableScheduleOverrides  = "schedule_overrides"
	TableOverrideExercises  = "override_exercises"
	TableCompletedWorkouts  = "completed_workouts"
	TableCompletedExercises = "completed_exercises"
	TableSettings           = "settings"
)

type Exercise struct {
	ID                     uint         `gorm:"primaryKey" json:"id"`
	Name                   string       `json:"name"`
	Mode                   ExerciseMode `json:"mode"`
	DefaultSets            *int         `json:"default_sets,omitempty"`
	DefaultReps            *int         `json:"default_reps,omitempty"`
	DefaultPyramidTop      *int         `json:"default_pyramid_top,omitempty"`
	DefaultDurationSeconds *int         `json:"default_duration_seconds,omitempty"`
	DefaultWeight          float64      `json:"default_weight"`
	DefaultRestAfter       *int         `json:"default_rest_after,omitempty"`
	Sets                   SetList      `json:"sets"`
	IsDefault              bool         `json:"is_default"`
	IsDisabled             bool         `json:"is_disabled"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`
}

func (Exercise) TableName() string {
	return TableExercises
}

// Defaults returns the mode-specific defaults stored on the exercise.
// Missing values read as zero.
func (e *Exercise) Defaults() ModeDefaults {
	switch e.Mode {
	case ExerciseModeReps:
		return RepsDefaults{Sets: intOrZero(e.DefaultSets), Reps: intOrZero(e.DefaultReps)}
	case ExerciseModePyramid:
		return PyramidDefaults{Top: intOrZero(e.DefaultPyramidTop)}
	case ExerciseModeStatic:
		return StaticDefaults{Sets: intOrZero(e.DefaultSets), DurationSeconds: intOrZero(e.DefaultDurationSeconds)}
	default:
		return VariableSetsDefaults{}
	}
}

// ApplyDefaults sets the mode and its payload, clearing every default
// column the mode does not use.
func (e *Exercise) ApplyDefaults(d ModeDefaults) {
	e.DefaultSets = nil
	e.DefaultReps = nil
	e.DefaultPyramidTop = nil
	e.DefaultDurationSeconds = nil
	e.Mode = d.Mode()

	switch v := d.(type) {
	case RepsDefaults:
		e.DefaultSets = intPtr(v.Sets)
		e.DefaultReps = intPtr(v.Reps)
	case PyramidDefaults:
		e.DefaultPyramidTop = intPtr(v.Top)
	case StaticDefaults:
		e.DefaultSets = intPtr(v.Sets)
		e.DefaultDurationSeconds = intPtr(v.DurationSeconds)
	}
}

// NormalizeDefaults drops default columns that do not belong to the
// current mode. Unknown modes are left untouched.
func (e *Exercise) NormalizeDefaults() {
	if !e.Mode.IsValid() {
		return
	}
	keepSets, keepReps, keepTop, keepDuration := e.DefaultSets, e.DefaultReps, e.DefaultPyramidTop, e.DefaultDurationSeconds
	e.DefaultSets, e.DefaultReps, e.DefaultPyramidTop, e.DefaultDurationSeconds = nil, nil, nil, nil

	switch e.Mode {
	case ExerciseModeReps:
		e.DefaultSets, e.DefaultReps = keepSets, keepReps
	case ExerciseModePyramid:
		e.DefaultPyramidTop = keepTop
	case ExerciseModeStatic:
		e.DefaultSets, e.DefaultDurationSeconds = keepSets, keepDuration
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func intPtr(v int) *int {
	return &v
}

const (
	defaultSetCount    = 4
	defaultRepCount    = 10
	defaultHoldSeconds = 30
	defaultSetRest     = 90
)

var defaultRepsExercises = []string{"Pull Ups", "Push Ups", "Dips", "Leg Press", "Bench Press", "Dead Lift"}

var defaultStaticExercises = []string{"Planche", "Dead Hang", "Front Lever", "Back Lever"}

// DefaultExercises returns the exercises seeded into an empty store.
func DefaultExercises() []Exercise {
	exercises := make([]Exercise, 0, len(defaultRepsExercises)+len(defaultStaticExercises))
	for _, name := range defaultRepsExercises {
		e := Exercise{
			Name:      name,
			Sets:      UniformSets(defaultSetCount, defaultRepCount, 0, defaultSetRest),
			IsDefault: true,
		}
		e.ApplyDefaults(RepsDefaults{Sets: defaultSetCount, Reps: defaultRepCount})
		exercises = append(exercises, e)
	}
	for _, name := range defaultStaticExercises {
		e := Exercise{
			Name:      name,
			Sets:      UniformSets(defaultSetCount, defaultHoldSeconds, 0, defaultSetRest),
			IsDefault: true,
		}
		e.ApplyDefaults(StaticDefaults{Sets: defaultSetCount, DurationSeconds: defaultHoldSeconds})
		exercises = append(exercises, e)
	}
	return exercises
}
