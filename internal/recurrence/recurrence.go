// Package recurrence decides on which calendar days a schedule produces a
// workout.
//
// All comparisons happen on whole days: Day maps any instant to midnight UTC
// of the calendar date it carries in its own location, so 23:30 in Berlin and
// 00:10 in Berlin on the next day are different days even though they are
// less than an hour apart.
package recurrence

import (
	"iter"
	"time"

	"github.com/mrlokans/workouts/internal/entities"
)

const week = 7

// Day truncates t to its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// OccursOn reports whether a schedule starting on start occurs on target.
func OccursOn(start time.Time, kind entities.RecurrenceKind, offsetDays *int, target time.Time) bool {
	start, target = Day(start), Day(target)
	if target.Before(start) {
		return false
	}

	switch kind {
	case entities.RecurrenceOneOff:
		return target.Equal(start)
	case entities.RecurrenceWeekly:
		return target.Weekday() == start.Weekday()
	case entities.RecurrenceEveryNDays:
		if offsetDays == nil || *offsetDays <= 0 {
			return false
		}
		return DaysBetween(start, target)%*offsetDays == 0
	default:
		return false
	}
}

// Occurrences yields every day in [from, to] on which the schedule occurs,
// in ascending order. The sequence is recomputed on each iteration.
func Occurrences(start time.Time, kind entities.RecurrenceKind, offsetDays *int, from, to time.Time) iter.Seq[time.Time] {
	from, to = Day(from), Day(to)
	return func(yield func(time.Time) bool) {
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if OccursOn(start, kind, offsetDays, day) && !yield(day) {
				return
			}
		}
	}
}

// OccurrencesInRange collects Occurrences into a slice.
func OccurrencesInRange(start time.Time, kind entities.RecurrenceKind, offsetDays *int, from, to time.Time) []time.Time {
	var days []time.Time
	for day := range Occurrences(start, kind, offsetDays, from, to) {
		days = append(days, day)
	}
	return days
}

// NextOccurrence returns the first occurrence on or after after, looking at
// most horizonDays ahead.
func NextOccurrence(start time.Time, kind entities.RecurrenceKind, offsetDays *int, after time.Time, horizonDays int) (time.Time, bool) {
	from := Day(after)
	if s := Day(start); from.Before(s) {
		from = s
	}

	// Weekly and one-off rules repeat with a period of at most a week, so
	// there is no point scanning further.
	if kind != entities.RecurrenceEveryNDays && horizonDays > week {
		horizonDays = week
	}
	if horizonDays < 1 {
		return time.Time{}, false
	}

	for day := range Occurrences(start, kind, offsetDays, from, from.AddDate(0, 0, horizonDays-1)) {
		return day, true
	}
	return time.Time{}, false
}
