package planner

import "errors"

var (
	// ErrNotPlanned is returned when completing a workout that is not due
	// on the requested day.
	ErrNotPlanned = errors.New("workout is not planned on that day")

	// ErrMissingExercise means a line points at an exercise that is gone.
	ErrMissingExercise = errors.New("exercise not found")
)
