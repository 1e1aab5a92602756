package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/workouts/internal/database/settings"
	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/watch"
)

// connectionParams enable foreign keys on every connection the pool opens,
// so cascade and restrict rules hold from the first statement onwards.
const connectionParams = "_foreign_keys=on&_busy_timeout=5000&_journal=WAL"

type Database struct {
	DB  *gorm.DB
	Hub *watch.Hub

	path string
}

type options struct {
	logger logger.Interface
	hub    *watch.Hub
	seed   bool
}

type Option func(*options)

// WithLogger replaces the default gorm logger.
func WithLogger(l logger.Interface) Option {
	return func(o *options) { o.logger = l }
}

// WithHub shares an existing change hub instead of creating one.
func WithHub(h *watch.Hub) Option {
	return func(o *options) { o.hub = h }
}

// WithoutSeed skips seeding the default exercises.
func WithoutSeed() Option {
	return func(o *options) { o.seed = false }
}

// DSN appends the connection parameters to a SQLite path.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + connectionParams
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	o := options{
		logger: logger.Default.LogMode(logger.Warn),
		seed:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hub == nil {
		o.hub = watch.NewHub()
	}

	db, err := gorm.Open(sqlite.Open(DSN(dbPath)), &gorm.Config{
		Logger: o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	// One writer, one connection: transactions and the reads that follow a
	// commit always observe the same state.
	sqlDB.SetMaxOpenConns(1)

	database := &Database{DB: db, Hub: o.hub, path: dbPath}

	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if o.seed {
		if err := database.SeedDefaults(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to seed default exercises: %w", err)
		}
	}

	logrus.WithField("path", dbPath).Info("database initialized")

	return database, nil
}

func (d *Database) Path() string {
	return d.path
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the store is reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ForeignKeysEnabled reports whether the connection enforces foreign keys.
func (d *Database) ForeignKeysEnabled(ctx context.Context) (bool, error) {
	var enabled int
	if err := d.DB.WithContext(ctx).Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		return false, err
	}
	return enabled == 1, nil
}

// SeedDefaults inserts the default exercises on first run. A settings
// marker records that seeding happened, so defaults the user later renamed
// or deleted stay that way.
func (d *Database) SeedDefaults(ctx context.Context) error {
	var created int
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settingsRepo := settings.NewRepository(tx)

		seeded, err := settingsRepo.GetSetting(ctx, entities.SettingKeyDefaultsSeeded)
		if err != nil {
			return err
		}
		if seeded != nil {
			return nil
		}

		for _, exercise := range entities.DefaultExercises() {
			var count int64
			err := tx.Model(&entities.Exercise{}).
				Where("name = ? COLLATE NOCASE AND is_disabled = ?", exercise.Name, false).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&exercise).Error; err != nil {
				return fmt.Errorf("failed to create exercise %s: %w", exercise.Name, err)
			}
			created++
		}

		return settingsRepo.SetSetting(ctx, entities.SettingKeyDefaultsSeeded, "true")
	})
	if err != nil {
		return err
	}

	if created > 0 {
		logrus.WithField("count", created).Info("seeded default exercises")
		d.Hub.Notify(entities.TableExercises)
	}
	return nil
}
