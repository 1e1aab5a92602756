package entrypoint

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/workouts/internal/config"
	"github.com/mrlokans/workouts/internal/database"
	"github.com/mrlokans/workouts/internal/database/completions"
	"github.com/mrlokans/workouts/internal/database/exercises"
	"github.com/mrlokans/workouts/internal/database/schedules"
	"github.com/mrlokans/workouts/internal/database/settings"
	"github.com/mrlokans/workouts/internal/database/workouts"
	"github.com/mrlokans/workouts/internal/exporters"
	http_controllers "github.com/mrlokans/workouts/internal/http"
	"github.com/mrlokans/workouts/internal/logging"
	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/settingsstore"
)

// App holds the open store and everything built directly on top of it.
// Commands share it so the server, the MCP server and one-off commands
// see the same repositories.
type App struct {
	Config *config.Config
	DB     *database.Database

	Exercises   *exercises.Repository
	Workouts    *workouts.Repository
	Schedules   *schedules.Repository
	Completions *completions.Repository
	Settings    *settings.Repository
	Reminders   *settingsstore.SettingsStore
	Planner     *planner.Planner

	Location *time.Location
}

// SetupLogging configures logrus from the log section of cfg.
func SetupLogging(cfg *config.Config) {
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.ToStdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.FormatJSON,
		MaxSizeMB:     cfg.Log.MaxSizeMB,
	})
}

// Open opens the database at cfg.Database.Path, migrating and seeding it,
// and builds the repositories.
func Open(cfg *config.Config) (*App, error) {
	opts := []database.Option{
		database.WithLogger(logging.NewGormLogger(logging.GormLevel(cfg.Log.Level), cfg.Database.SlowThreshold)),
	}
	if !cfg.Database.SeedDefaults {
		opts = append(opts, database.WithoutSeed())
	}

	db, err := database.NewDatabase(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{
		Config:      cfg,
		DB:          db,
		Exercises:   exercises.NewRepository(db.DB, db.Hub),
		Workouts:    workouts.NewRepository(db.DB, db.Hub),
		Schedules:   schedules.NewRepository(db.DB, db.Hub),
		Completions: completions.NewRepository(db.DB, db.Hub),
		Settings:    settings.NewRepository(db.DB),
		Location:    cfg.Global.Location(),
	}
	app.Reminders = settingsstore.New(app.Settings, cfg.Reminder)
	app.Planner = planner.New(app.Schedules, app.Workouts, app.Exercises, app.Completions)
	return app, nil
}

// Clock resolves "today" in the configured timezone.
func (a *App) Clock() http_controllers.Clock {
	return http_controllers.Clock{Location: a.Location, Now: time.Now}
}

// NewExporter builds a snapshot exporter over the app's repositories.
func (a *App) NewExporter(format exporters.Format) exporters.Exporter {
	return exporters.NewSnapshotExporter(format, a.Exercises, a.Workouts, a.Schedules, a.Completions)
}

// NewMarkdownExporter builds the per-day history exporter writing into dir.
func (a *App) NewMarkdownExporter(dir string) *exporters.MarkdownExporter {
	return exporters.NewMarkdownExporter(dir, a.Exercises, a.Workouts, a.Completions)
}

func (a *App) Close() error {
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	logrus.Debug("database closed")
	return nil
}
