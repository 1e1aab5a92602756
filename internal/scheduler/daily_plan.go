package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/workouts/internal/recurrence"
	"github.com/mrlokans/workouts/internal/settingsstore"
)

// ReminderSettings provides the effective reminder configuration.
type ReminderSettings interface {
	GetReminderConfig(ctx context.Context) (settingsstore.ReminderConfig, error)
}

// DigestEnqueuer queues the daily digest of a date.
type DigestEnqueuer interface {
	EnqueueDailyDigest(ctx context.Context, date string) (string, error)
}

// DailyPlanScheduler queues the daily plan digest on the reminder schedule.
// The schedule is evaluated in the configured location so "0 7 * * *"
// fires at 07:00 local time.
type DailyPlanScheduler struct {
	settings ReminderSettings
	enqueuer DigestEnqueuer
	location *time.Location
	now      func() time.Time

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewDailyPlanScheduler(settings ReminderSettings, enqueuer DigestEnqueuer, location *time.Location) *DailyPlanScheduler {
	if location == nil {
		location = time.UTC
	}
	return &DailyPlanScheduler{
		settings: settings,
		enqueuer: enqueuer,
		location: location,
		now:      time.Now,
	}
}

func (s *DailyPlanScheduler) newCron() *cron.Cron {
	return cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
		cron.WithLocation(s.location),
	)
}

// Start begins the scheduler if the reminder is enabled
func (s *DailyPlanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config, err := s.settings.GetReminderConfig(ctx)
	if err != nil {
		return fmt.Errorf("load reminder settings: %w", err)
	}

	if !config.Enabled {
		logrus.Info("daily plan scheduler: disabled")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	s.cron = s.newCron()
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runDigest(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule digest job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule, s.now().In(s.location))
	logrus.WithFields(logrus.Fields{
		"schedule":    config.Schedule,
		"description": settingsstore.GetCronDescription(config.Schedule),
		"next_run":    nextRun,
	}).Info("daily plan scheduler: started")

	running := s.cron
	go func() {
		<-cancelCtx.Done()
		s.stop(running)
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler
func (s *DailyPlanScheduler) Stop() {
	s.stop(nil)
}

// stop stops the scheduler, or only the given cron instance when set, so a
// stale cancellation does not stop a rescheduled run.
func (s *DailyPlanScheduler) stop(only *cron.Cron) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning || (only != nil && s.cron != only) {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	cancel := s.cancelFunc
	s.isRunning = false
	s.cancelFunc = nil
	if cancel != nil {
		cancel()
	}

	logrus.Info("daily plan scheduler: stopped")
}

// Reschedule applies changed reminder settings.
func (s *DailyPlanScheduler) Reschedule(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// RunNow queues the digest of today immediately.
func (s *DailyPlanScheduler) RunNow(ctx context.Context) (string, error) {
	return s.enqueue(ctx)
}

func (s *DailyPlanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next digest will be queued
func (s *DailyPlanScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// Today returns the current calendar day in the scheduler's location.
func (s *DailyPlanScheduler) Today() string {
	return recurrence.Day(s.now().In(s.location)).Format(time.DateOnly)
}

func (s *DailyPlanScheduler) enqueue(ctx context.Context) (string, error) {
	if s.enqueuer == nil {
		return "", fmt.Errorf("task queue not configured")
	}
	return s.enqueuer.EnqueueDailyDigest(ctx, s.Today())
}

func (s *DailyPlanScheduler) runDigest(ctx context.Context) {
	id, err := s.enqueue(ctx)
	if err != nil {
		logrus.WithError(err).Error("daily plan scheduler: failed to queue digest")
		return
	}
	logrus.WithField("task_id", id).Debug("daily plan scheduler: digest queued")
}
