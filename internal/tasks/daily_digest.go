package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/recurrence"
)

// DayPlanner computes what is due on a calendar day.
type DayPlanner interface {
	PlanFor(ctx context.Context, date time.Time) (*planner.Plan, error)
}

// SettingsWriter stores the outcome of the last digest.
type SettingsWriter interface {
	SetSetting(ctx context.Context, key, value string) error
}

// DailyDigestTask computes the plan of a day and records its summary.
// An empty Date means today in the digest's location.
type DailyDigestTask struct {
	Date string `json:"date,omitempty"`
}

// Config returns the queue configuration for digest tasks.
func (t DailyDigestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "daily_digest",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

type DigestDeps struct {
	Planner  DayPlanner
	Settings SettingsWriter
	// Digests counts runs by outcome. Optional.
	Digests  *prometheus.CounterVec
	Location *time.Location
	Now      func() time.Time
}

// Day resolves the calendar day the task refers to.
func (t DailyDigestTask) Day(now time.Time, loc *time.Location) (time.Time, error) {
	if t.Date == "" {
		if loc == nil {
			loc = time.UTC
		}
		return recurrence.Day(now.In(loc)), nil
	}
	day, err := time.Parse(time.DateOnly, t.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid digest date %q: %w", t.Date, err)
	}
	return day, nil
}

// DailyDigestProcessor creates a processor function for DailyDigestTask.
func DailyDigestProcessor(deps DigestDeps) backlite.QueueProcessor[DailyDigestTask] {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	observe := func(outcome string) {
		if deps.Digests != nil {
			deps.Digests.WithLabelValues(outcome).Inc()
		}
	}

	return func(ctx context.Context, task DailyDigestTask) error {
		if deps.Planner == nil || deps.Settings == nil {
			return fmt.Errorf("daily digest not configured")
		}

		day, err := task.Day(now(), deps.Location)
		if err != nil {
			observe("invalid")
			return err
		}

		plan, err := deps.Planner.PlanFor(ctx, day)
		if err != nil {
			observe("failed")
			return fmt.Errorf("plan %s: %w", day.Format(time.DateOnly), err)
		}
		summary := plan.Summary()

		values := []struct{ key, value string }{
			{entities.SettingKeyDigestLastAt, now().UTC().Format(time.RFC3339)},
			{entities.SettingKeyDigestLastDate, day.Format(time.DateOnly)},
			{entities.SettingKeyDigestLastSummary, summary},
		}
		for _, kv := range values {
			if err := deps.Settings.SetSetting(ctx, kv.key, kv.value); err != nil {
				observe("failed")
				return fmt.Errorf("record digest: %w", err)
			}
		}

		outcome := "rest"
		if len(plan.Entries) > 0 {
			outcome = "planned"
		}
		observe(outcome)

		logrus.WithFields(logrus.Fields{
			"date":    day.Format(time.DateOnly),
			"planned": len(plan.Entries),
			"pending": len(plan.Pending()),
		}).Infof("[TASK] Daily plan: %s", summary)
		return nil
	}
}

// NewDailyDigestQueue creates a backlite queue for digest tasks.
func NewDailyDigestQueue(deps DigestDeps) backlite.Queue {
	return backlite.NewQueue(DailyDigestProcessor(deps))
}
