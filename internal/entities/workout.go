package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ExerciseLine is the positioned, mode-snapshotted part shared by every
// exercise row owned by a workout, an override or a completion.
type ExerciseLine struct {
	Mode       ExerciseMode `json:"mode"`
	OrderIndex int          `json:"order_index"`
	Sets       SetList      `json:"sets"`
	RestAfter  *int         `json:"rest_after,omitempty"`
}

// LineFor snapshots an exercise's current mode, sets and rest.
func LineFor(e *Exercise, orderIndex int) ExerciseLine {
	sets := make(SetList, len(e.Sets))
	copy(sets, e.Sets)
	return ExerciseLine{
		Mode:       e.Mode,
		OrderIndex: orderIndex,
		Sets:       sets,
		RestAfter:  NormalizeRest(e.DefaultRestAfter),
	}
}

type Workout struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Name       string            `json:"name"`
	Icon       string            `json:"icon"`
	IsDisabled bool              `json:"is_disabled"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Exercises  []WorkoutExercise `gorm:"-" json:"exercises,omitempty"`
}

func (Workout) TableName() string {
	return TableWorkouts
}

type WorkoutExercise struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	WorkoutID  uint `json:"workout_id"`
	ExerciseID uint `json:"exercise_id"`
	ExerciseLine
}

func (WorkoutExercise) TableName() string {
	return TableWorkoutExercises
}

type Schedule struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	WorkoutID  uint               `json:"workout_id"`
	StartDate  datatypes.Date     `json:"start_date"`
	Recurrence RecurrenceKind     `json:"recurrence"`
	OffsetDays *int               `json:"offset_days,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Overrides  []ScheduleOverride `gorm:"-" json:"overrides,omitempty"`
}

func (Schedule) TableName() string {
	return TableSchedules
}

func (s *Schedule) Start() time.Time {
	return time.Time(s.StartDate)
}

type ScheduleOverride struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	ScheduleID uint               `json:"schedule_id"`
	Date       datatypes.Date     `json:"date"`
	CreatedAt  time.Time          `json:"created_at"`
	Exercises  []OverrideExercise `gorm:"-" json:"exercises,omitempty"`
}

func (ScheduleOverride) TableName() string {
	return TableScheduleOverrides
}

// OverrideExercise references either a template line (carried over) or an
// exercise added only for the overridden date, never both.
type OverrideExercise struct {
	ID                uint  `gorm:"primaryKey" json:"id"`
	OverrideID        uint  `json:"override_id"`
	ExerciseID        *uint `json:"exercise_id,omitempty"`
	WorkoutExerciseID *uint `json:"workout_exercise_id,omitempty"`
	ExerciseLine
}

func (OverrideExercise) TableName() string {
	return TableOverrideExercises
}

type CompletedWorkout struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	WorkoutID     uint                `json:"workout_id"`
	ScheduledDate datatypes.Date      `json:"scheduled_date"`
	CompletedAt   time.Time           `json:"completed_at"`
	Exercises     []CompletedExercise `gorm:"-" json:"exercises,omitempty"`
}

func (CompletedWorkout) TableName() string {
	return TableCompletedWorkouts
}

type CompletedExercise struct {
	ID                 uint `gorm:"primaryKey" json:"id"`
	CompletedWorkoutID uint `json:"completed_workout_id"`
	ExerciseID         uint `json:"exercise_id"`
	ExerciseLine
}

func (CompletedExercise) TableName() string {
	return TableCompletedExercises
}
