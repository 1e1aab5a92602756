package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/workouts/internal/database"
	"github.com/mrlokans/workouts/internal/database/completions"
	"github.com/mrlokans/workouts/internal/database/exercises"
	"github.com/mrlokans/workouts/internal/database/schedules"
	"github.com/mrlokans/workouts/internal/database/settings"
	"github.com/mrlokans/workouts/internal/database/workouts"
	"github.com/mrlokans/workouts/internal/exporters"
	"github.com/mrlokans/workouts/internal/http"
	"github.com/mrlokans/workouts/internal/mcp"
	"github.com/mrlokans/workouts/internal/metrics"
	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/scheduler"
	"github.com/mrlokans/workouts/internal/settingsstore"
	"github.com/mrlokans/workouts/internal/tasks"
	"github.com/mrlokans/workouts/internal/watch"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.ExerciseStore = (*exercises.Repository)(nil)
var _ http.WorkoutStore = (*workouts.Repository)(nil)
var _ http.ScheduleStore = (*schedules.Repository)(nil)
var _ http.CompletionStore = (*completions.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

var _ settingsstore.SettingsRepository = (*settings.Repository)(nil)

// =============================================================================
// Planning
// =============================================================================

var _ planner.ScheduleReader = (*schedules.Repository)(nil)
var _ planner.WorkoutReader = (*workouts.Repository)(nil)
var _ planner.ExerciseReader = (*exercises.Repository)(nil)
var _ planner.CompletionStore = (*completions.Repository)(nil)

var _ http.DayPlanner = (*planner.Planner)(nil)
var _ tasks.DayPlanner = (*planner.Planner)(nil)

// =============================================================================
// MCP
// =============================================================================

var _ mcp.ExerciseLister = (*exercises.Repository)(nil)
var _ mcp.WorkoutReader = (*workouts.Repository)(nil)
var _ mcp.CompletionChecker = (*completions.Repository)(nil)
var _ mcp.DayPlanner = (*planner.Planner)(nil)

// =============================================================================
// Export
// =============================================================================

var _ exporters.ExerciseLister = (*exercises.Repository)(nil)
var _ exporters.WorkoutLister = (*workouts.Repository)(nil)
var _ exporters.ScheduleLister = (*schedules.Repository)(nil)
var _ exporters.CompletionLister = (*completions.Repository)(nil)
var _ exporters.Exporter = (*exporters.SnapshotExporter)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.ReminderStore = (*settingsstore.SettingsStore)(nil)
var _ http.ReminderScheduler = (*scheduler.DailyPlanScheduler)(nil)
var _ scheduler.ReminderSettings = (*settingsstore.SettingsStore)(nil)
var _ scheduler.DigestEnqueuer = (*tasks.Client)(nil)
var _ tasks.SettingsWriter = (*settings.Repository)(nil)

var _ watch.Observer = (*metrics.Manager)(nil)
