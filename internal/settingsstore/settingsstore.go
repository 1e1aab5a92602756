package settingsstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/workouts/internal/config"
	"github.com/mrlokans/workouts/internal/entities"
)

const (
	SourceDatabase = "database"
	SourceConfig   = "config"
)

type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (*entities.Setting, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Priority: database > configuration (environment or default)
type SettingsStore struct {
	repo     SettingsRepository
	defaults config.Reminder
}

func New(repo SettingsRepository, defaults config.Reminder) *SettingsStore {
	return &SettingsStore{repo: repo, defaults: defaults}
}

// ReminderConfig is the effective configuration of the daily plan reminder.
type ReminderConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// ReminderConfigInfo includes source information for each field
type ReminderConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule            string     `json:"schedule"`
	ScheduleSource      string     `json:"schedule_source"`
	ScheduleDescription string     `json:"schedule_description"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`
}

// DigestStatus is the outcome of the last daily digest.
type DigestStatus struct {
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Date      string     `json:"date,omitempty"`
	Summary   string     `json:"summary,omitempty"`
}

func (s *SettingsStore) lookup(ctx context.Context, key string) (string, bool, error) {
	setting, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	if setting == nil || setting.Value == "" {
		return "", false, nil
	}
	return setting.Value, true, nil
}

func (s *SettingsStore) reminderEnabled(ctx context.Context) (bool, string, error) {
	value, ok, err := s.lookup(ctx, entities.SettingKeyReminderEnabled)
	if err != nil {
		return false, "", err
	}
	if ok {
		return value == "true" || value == "1", SourceDatabase, nil
	}
	return s.defaults.Enabled, SourceConfig, nil
}

func (s *SettingsStore) reminderSchedule(ctx context.Context) (string, string, error) {
	value, ok, err := s.lookup(ctx, entities.SettingKeyReminderSchedule)
	if err != nil {
		return "", "", err
	}
	if ok {
		return value, SourceDatabase, nil
	}
	return s.defaults.Schedule, SourceConfig, nil
}

func (s *SettingsStore) GetReminderConfig(ctx context.Context) (ReminderConfig, error) {
	enabled, _, err := s.reminderEnabled(ctx)
	if err != nil {
		return ReminderConfig{}, err
	}
	schedule, _, err := s.reminderSchedule(ctx)
	if err != nil {
		return ReminderConfig{}, err
	}
	return ReminderConfig{Enabled: enabled, Schedule: schedule}, nil
}

func (s *SettingsStore) GetReminderConfigInfo(ctx context.Context) (ReminderConfigInfo, error) {
	enabled, enabledSource, err := s.reminderEnabled(ctx)
	if err != nil {
		return ReminderConfigInfo{}, err
	}
	schedule, scheduleSource, err := s.reminderSchedule(ctx)
	if err != nil {
		return ReminderConfigInfo{}, err
	}

	info := ReminderConfigInfo{
		Enabled:             enabled,
		EnabledSource:       enabledSource,
		Schedule:            schedule,
		ScheduleSource:      scheduleSource,
		ScheduleDescription: GetCronDescription(schedule),
	}
	if enabled {
		if next, err := GetNextRunTime(schedule, time.Now()); err == nil {
			info.NextRunAt = next
		}
	}
	return info, nil
}

func (s *SettingsStore) SetReminderEnabled(ctx context.Context, enabled bool) error {
	return s.repo.SetSetting(ctx, entities.SettingKeyReminderEnabled, strconv.FormatBool(enabled))
}

// SetReminderSchedule validates and stores a cron schedule.
func (s *SettingsStore) SetReminderSchedule(ctx context.Context, schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return s.repo.SetSetting(ctx, entities.SettingKeyReminderSchedule, schedule)
}

// ClearReminderSettings removes the database overrides, reverting to the
// configured values.
func (s *SettingsStore) ClearReminderSettings(ctx context.Context) error {
	for _, key := range []string{entities.SettingKeyReminderEnabled, entities.SettingKeyReminderSchedule} {
		if err := s.repo.DeleteSetting(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsStore) GetDigestStatus(ctx context.Context) (DigestStatus, error) {
	status := DigestStatus{}

	lastAt, ok, err := s.lookup(ctx, entities.SettingKeyDigestLastAt)
	if err != nil {
		return status, err
	}
	if ok {
		if t, err := time.Parse(time.RFC3339, lastAt); err == nil {
			status.LastRunAt = &t
		}
	}

	if status.Date, _, err = s.lookup(ctx, entities.SettingKeyDigestLastDate); err != nil {
		return status, err
	}
	if status.Summary, _, err = s.lookup(ctx, entities.SettingKeyDigestLastSummary); err != nil {
		return status, err
	}
	return status, nil
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five-field cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 6 * * *":
		return "Daily at 06:00"
	case "0 7 * * *":
		return "Daily at 07:00"
	case "0 8 * * *":
		return "Daily at 08:00"
	case "0 7 * * 1-5":
		return "Weekdays at 07:00"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the schedule fires next after from.
func GetNextRunTime(schedule string, from time.Time) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(from)
	return &next, nil
}
