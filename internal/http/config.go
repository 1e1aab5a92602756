package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrlokans/workouts/internal/demo"
	"github.com/mrlokans/workouts/internal/metrics"
	"github.com/mrlokans/workouts/internal/watch"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Exercises   ExerciseStore
	Workouts    WorkoutStore
	Schedules   ScheduleStore
	Completions CompletionStore
	Planner     DayPlanner
	Hub         *watch.Hub
	Database    Pinger

	// Reminder settings and the digest scheduler (optional)
	Reminders ReminderStore
	Scheduler ReminderScheduler

	// Task queue (optional)
	Tasks TaskQueue

	// Snapshot export (optional)
	NewExporter ExporterFactory

	// Metrics (optional); Gatherer serves /metrics
	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer

	// Demo mode blocks writes (optional)
	Demo *demo.Middleware

	// Clock resolves "today" for requests without a date
	Clock Clock

	// Application info
	Version string
}
