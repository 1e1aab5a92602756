// Package validation holds the field checks every repository mutation runs
// before touching storage.
//
// Each check fails with an *Error naming the offending field, so callers can
// point at the exact input that needs correcting:
//
//	if err := validation.ValidateName("name", w.Name); err != nil {
//	    var verr *validation.Error
//	    errors.As(err, &verr) // verr.Field == "name"
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/workouts/internal/entities"
)

// MaxNameLength is the longest accepted name, in characters.
const MaxNameLength = 100

// Error reports a single invalid field.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newError(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsError returns the validation failure wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

func ValidateName(field, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return newError(field, "must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return newError(field, "must be at most %d characters", MaxNameLength)
	}
	return nil
}

// ValidateSets requires at least one set and a positive rest wherever one is given.
func ValidateSets(sets entities.SetList) error {
	if len(sets) == 0 {
		return newError("sets", "must contain at least one set")
	}
	for i, s := range sets {
		if s.Rest != nil && *s.Rest < 1 {
			return newError(fmt.Sprintf("sets[%d].rest", i), "must be at least 1 second")
		}
	}
	return nil
}

// ValidateRest returns rest normalized: nil and 0 both mean no rest.
func ValidateRest(rest *int) (*int, error) {
	if rest == nil || *rest == 0 {
		return nil, nil
	}
	if *rest < 1 {
		return nil, newError("rest", "must be at least 1 second")
	}
	return rest, nil
}

func ValidateOrderIndex(i int) error {
	if i < 0 {
		return newError("orderIndex", "must not be negative")
	}
	return nil
}

// ValidateOffsetDays only constrains every-N-days schedules; other kinds may
// carry any offset.
func ValidateOffsetDays(kind entities.RecurrenceKind, offsetDays *int) error {
	if kind != entities.RecurrenceEveryNDays {
		return nil
	}
	if offsetDays == nil || *offsetDays < 1 {
		return newError("offsetDays", "must be at least 1 for every-N-days schedules")
	}
	return nil
}

// ValidateXor requires exactly one of a and b to be set.
func ValidateXor(aField string, a *uint, bField string, b *uint) error {
	if (a == nil) == (b == nil) {
		return newError(aField+"/"+bField, "exactly one of %s/%s must be set", aField, bField)
	}
	return nil
}

func ValidateMode(mode entities.ExerciseMode) error {
	if !mode.IsValid() {
		return newError("mode", "unknown exercise mode %q", mode)
	}
	return nil
}

func ValidateRecurrence(kind entities.RecurrenceKind) error {
	if !kind.IsValid() {
		return newError("recurrence", "unknown recurrence kind %q", kind)
	}
	return nil
}

// ValidateLine checks a positioned exercise line and normalizes its rest.
func ValidateLine(line *entities.ExerciseLine) error {
	if err := ValidateMode(line.Mode); err != nil {
		return err
	}
	if err := ValidateSets(line.Sets); err != nil {
		return err
	}
	if err := ValidateOrderIndex(line.OrderIndex); err != nil {
		return err
	}
	rest, err := ValidateRest(line.RestAfter)
	if err != nil {
		return err
	}
	line.RestAfter = rest
	return nil
}
