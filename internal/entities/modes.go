package entities

type ExerciseMode string

const (
	ExerciseModeReps         ExerciseMode = "reps"
	ExerciseModeVariableSets ExerciseMode = "variable_sets"
	ExerciseModePyramid      ExerciseMode = "pyramid"
	ExerciseModeStatic       ExerciseMode = "static"
)

func (m ExerciseMode) IsValid() bool {
	switch m {
	case ExerciseModeReps, ExerciseModeVariableSets, ExerciseModePyramid, ExerciseModeStatic:
		return true
	}
	return false
}

type RecurrenceKind string

const (
	RecurrenceOneOff     RecurrenceKind = "one_off"
	RecurrenceWeekly     RecurrenceKind = "weekly"
	RecurrenceEveryNDays RecurrenceKind = "every_n_days"
)

func (k RecurrenceKind) IsValid() bool {
	switch k {
	case RecurrenceOneOff, RecurrenceWeekly, RecurrenceEveryNDays:
		return true
	}
	return false
}

// ModeDefaults is the mode-specific default payload of an exercise.
// Exactly one implementation exists per ExerciseMode.
type ModeDefaults interface {
	Mode() ExerciseMode
	isModeDefaults()
}

type RepsDefaults struct {
	Sets int `json:"sets"`
	Reps int `json:"reps"`
}

type VariableSetsDefaults struct{}

type PyramidDefaults struct {
	Top int `json:"top"`
}

type StaticDefaults struct {
	Sets            int `json:"sets"`
	DurationSeconds int `json:"duration_seconds"`
}

func (RepsDefaults) Mode() ExerciseMode         { return ExerciseModeReps }
func (VariableSetsDefaults) Mode() ExerciseMode { return ExerciseModeVariableSets }
func (PyramidDefaults) Mode() ExerciseMode      { return ExerciseModePyramid }
func (StaticDefaults) Mode() ExerciseMode       { return ExerciseModeStatic }

func (RepsDefaults) isModeDefaults()         {}
func (VariableSetsDefaults) isModeDefaults() {}
func (PyramidDefaults) isModeDefaults()      {}
func (StaticDefaults) isModeDefaults()       {}
