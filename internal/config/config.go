package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mrlokans/workouts/internal/tasks"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Log
		Reminder
		Tasks
		Metrics
		Export
		Demo
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
		Timezone                 string // IANA name used to decide what "today" is
	}
	Database struct {
		Path          string
		SlowThreshold time.Duration
		SeedDefaults  bool
	}
	Log struct {
		Level      string
		File       string
		ToStdout   bool
		FormatJSON bool
		MaxSizeMB  int
	}
	Reminder struct {
		Enabled  bool
		Schedule string // Cron format: "0 7 * * *" = every day at 07:00
	}
	Tasks struct {
		Enabled bool
		Queue   tasks.Config
	}
	Metrics struct {
		Enabled   bool
		Namespace string
		Subsystem string
	}
	Export struct {
		Dir string
	}
	Demo struct {
		Enabled bool // serve the store read-only
	}
)

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. Variables already set in the environment win. A missing file
// is not an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		logrus.Debug("no .env file found, using environment only")
		return nil
	}
	return err
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("timezone", "UTC")

	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_slow_threshold", "200ms")
	v.SetDefault("database_seed_defaults", true)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_to_stdout", true)
	v.SetDefault("log_format_json", false)
	v.SetDefault("log_max_size_mb", 50)

	v.SetDefault("reminder_enabled", false)
	v.SetDefault("reminder_schedule", "0 7 * * *") // Daily at 07:00

	// Task queue defaults
	queue := tasks.DefaultConfig()
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", queue.Workers)
	v.SetDefault("task_release_after", queue.ReleaseAfter)
	v.SetDefault("task_cleanup_interval", queue.CleanupInterval)

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_namespace", "workouts")
	v.SetDefault("metrics_subsystem", "server")

	v.SetDefault("export_dir", "./exports")

	v.SetDefault("demo_mode", false)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			Timezone:                 v.GetString("TIMEZONE"),
		},
		Database: Database{
			Path:          v.GetString("DATABASE_PATH"),
			SlowThreshold: v.GetDuration("DATABASE_SLOW_THRESHOLD"),
			SeedDefaults:  v.GetBool("DATABASE_SEED_DEFAULTS"),
		},
		Log: Log{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			ToStdout:   v.GetBool("LOG_TO_STDOUT"),
			FormatJSON: v.GetBool("LOG_FORMAT_JSON"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		},
		Reminder: Reminder{
			Enabled:  v.GetBool("REMINDER_ENABLED"),
			Schedule: v.GetString("REMINDER_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled: v.GetBool("TASKS_ENABLED"),
			Queue: tasks.Config{
				Workers:         v.GetInt("TASK_WORKERS"),
				ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
				CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
			},
		},
		Metrics: Metrics{
			Enabled:   v.GetBool("METRICS_ENABLED"),
			Namespace: v.GetString("METRICS_NAMESPACE"),
			Subsystem: v.GetString("METRICS_SUBSYSTEM"),
		},
		Export: Export{
			Dir: v.GetString("EXPORT_DIR"),
		},
		Demo: Demo{
			Enabled: v.GetBool("DEMO_MODE"),
		},
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (g Global) Location() *time.Location {
	if g.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		logrus.WithError(err).WithField("timezone", g.Timezone).Warn("unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}
