package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// schemaStatements create the store. Every statement is idempotent so the
// list runs unchanged against new and existing databases.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS exercises (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 100),
		mode TEXT NOT NULL CHECK (mode IN ('reps', 'variable_sets', 'pyramid', 'static')),
		default_sets INTEGER,
		default_reps INTEGER,
		default_pyramid_top INTEGER,
		default_duration_seconds INTEGER,
		default_weight REAL NOT NULL DEFAULT 0,
		default_rest_after INTEGER CHECK (default_rest_after IS NULL OR default_rest_after >= 1),
		sets TEXT NOT NULL DEFAULT '[]',
		is_default INTEGER NOT NULL DEFAULT 0,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_exercises_active_name
		ON exercises (name COLLATE NOCASE) WHERE is_disabled = 0`,

	`CREATE TABLE IF NOT EXISTS workouts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 100),
		icon TEXT NOT NULL DEFAULT '',
		is_disabled INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_workouts_active_name
		ON workouts (name COLLATE NOCASE) WHERE is_disabled = 0`,

	`CREATE TABLE IF NOT EXISTS workout_exercises (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workout_id INTEGER NOT NULL REFERENCES workouts (id) ON DELETE RESTRICT,
		exercise_id INTEGER NOT NULL REFERENCES exercises (id) ON DELETE RESTRICT,
		mode TEXT NOT NULL,
		order_index INTEGER NOT NULL CHECK (order_index >= 0),
		sets TEXT NOT NULL,
		rest_after INTEGER CHECK (rest_after IS NULL OR rest_after >= 1)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workout_exercises_workout ON workout_exercises (workout_id, order_index)`,
	`CREATE INDEX IF NOT EXISTS idx_workout_exercises_exercise ON workout_exercises (exercise_id)`,

	`CREATE TABLE IF NOT EXISTS schedules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workout_id INTEGER NOT NULL REFERENCES workouts (id) ON DELETE RESTRICT,
		start_date DATE NOT NULL,
		recurrence TEXT NOT NULL CHECK (recurrence IN ('one_off', 'weekly', 'every_n_days')),
		offset_days INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_workout ON schedules (workout_id)`,

	`CREATE TABLE IF NOT EXISTS schedule_overrides (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		schedule_id INTEGER NOT NULL REFERENCES schedules (id) ON DELETE CASCADE,
		date DATE NOT NULL,
		created_at DATETIME,
		UNIQUE (schedule_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS override_exercises (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		override_id INTEGER NOT NULL REFERENCES schedule_overrides (id) ON DELETE CASCADE,
		exercise_id INTEGER REFERENCES exercises (id) ON DELETE RESTRICT,
		workout_exercise_id INTEGER REFERENCES workout_exercises (id) ON DELETE RESTRICT,
		mode TEXT NOT NULL,
		order_index INTEGER NOT NULL CHECK (order_index >= 0),
		sets TEXT NOT NULL,
		rest_after INTEGER CHECK (rest_after IS NULL OR rest_after >= 1),
		CHECK ((exercise_id IS NULL) <> (workout_exercise_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_override_exercises_override ON override_exercises (override_id, order_index)`,
	`CREATE INDEX IF NOT EXISTS idx_override_exercises_exercise ON override_exercises (exercise_id)`,
	`CREATE INDEX IF NOT EXISTS idx_override_exercises_workout_exercise ON override_exercises (workout_exercise_id)`,

	`CREATE TABLE IF NOT EXISTS completed_workouts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workout_id INTEGER NOT NULL REFERENCES workouts (id) ON DELETE RESTRICT,
		scheduled_date DATE NOT NULL,
		completed_at DATETIME NOT NULL,
		UNIQUE (workout_id, scheduled_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_completed_workouts_date ON completed_workouts (scheduled_date)`,

	`CREATE TABLE IF NOT EXISTS completed_exercises (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		completed_workout_id INTEGER NOT NULL REFERENCES completed_workouts (id) ON DELETE CASCADE,
		exercise_id INTEGER NOT NULL REFERENCES exercises (id) ON DELETE RESTRICT,
		mode TEXT NOT NULL,
		order_index INTEGER NOT NULL CHECK (order_index >= 0),
		sets TEXT NOT NULL,
		rest_after INTEGER CHECK (rest_after IS NULL OR rest_after >= 1)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_completed_exercises_parent ON completed_exercises (completed_workout_id, order_index)`,
	`CREATE INDEX IF NOT EXISTS idx_completed_exercises_exercise ON completed_exercises (exercise_id)`,

	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range schemaStatements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		return nil
	})
}
