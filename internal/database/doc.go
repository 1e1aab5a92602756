// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, foreign keys, seeding
//	├── schema.go        # Tables, indexes and constraints
//	├── dberr/           # Classification of constraint failures
//	├── exercises/       # Exercise library
//	├── workouts/        # Workout templates and their exercise lines
//	├── schedules/       # Recurring schedules and per-date overrides
//	├── completions/     # Completed workouts with exercise snapshots
//	└── settings/        # Key/value application settings
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./workouts.db")
//
//	exercisesRepo := exercises.NewRepository(db.DB, db.Hub)
//	workoutsRepo := workouts.NewRepository(db.DB, db.Hub)
//
//	enabled, err := exercisesRepo.ListEnabled(ctx)
//	stream := workoutsRepo.WatchEnabled(ctx)
//
// Repositories notify db.Hub with the tables they changed after each
// committed write; watch streams re-run their query on every notification.
//
// # Integrity
//
// Foreign keys are switched on for every connection. Deleting a row that is
// still referenced fails with dberr.ErrInUse; cascades remove overrides with
// their schedule and exercise snapshots with their completion.
package database
