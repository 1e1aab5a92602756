// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interface they need next to the code that
// uses it; the repositories in internal/database and the planner satisfy
// them. This package only holds the compile-time checks tying the two sides
// together.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - ExerciseStore, WorkoutStore, ScheduleStore, CompletionStore: HTTP
//     controllers (internal/http/stores.go)
//   - ScheduleReader, WorkoutReader, ExerciseReader, CompletionStore: the
//     day planner (internal/planner/planner.go)
//   - ExerciseLister, WorkoutLister, ScheduleLister, CompletionLister:
//     snapshot and markdown export (internal/exporters/snapshot.go)
//   - SettingsRepository: layered reminder settings
//     (internal/settingsstore/settingsstore.go)
//
// ## Planning Interfaces
//
//   - DayPlanner: resolves what is due on a day; declared separately by
//     internal/http, internal/mcp and internal/tasks
//
// ## Background Work Interfaces
//
//   - TaskQueue: enqueue digests and exports (internal/http/tasks.go)
//   - ReminderSettings, DigestEnqueuer: the cron scheduler
//     (internal/scheduler/daily_plan.go)
//   - Observer: change hub activity for metrics (internal/watch/hub.go)
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., body measurements):
//
//  1. Create sub-package: internal/database/measurements/
//
//  2. Define repository:
//
//     type Repository struct {
//         db  *gorm.DB
//         hub *watch.Hub
//     }
//
//     func NewRepository(db *gorm.DB, hub *watch.Hub) *Repository
//
//  3. Add the table to schemaStatements in internal/database/schema.go and
//     notify the hub after every committed write
//
//  4. Add compile-time check:
//
//     var _ http.MeasurementStore = (*measurements.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
