package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(SecurityHeadersMiddleware())
	if cfg.Metrics != nil {
		router.Use(MetricsMiddleware(cfg.Metrics))
	}
	if cfg.Demo != nil {
		router.Use(cfg.Demo.Handler())
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")

	// Exercise library
	exercises := NewExercisesController(cfg.Exercises)
	api.GET("/exercises", exercises.ListExercises)
	api.GET("/exercises/name-available", exercises.NameAvailable)
	api.GET("/exercises/:id", exercises.GetExercise)
	api.POST("/exercises", exercises.CreateExercise)
	api.PUT("/exercises/:id", exercises.UpdateExercise)
	api.POST("/exercises/:id/disable", exercises.DisableExercise)
	api.POST("/exercises/:id/enable", exercises.EnableExercise)
	api.DELETE("/exercises/:id", exercises.DeleteExercise)

	// Workout templates
	workouts := NewWorkoutsController(cfg.Workouts, cfg.Schedules)
	api.GET("/workouts", workouts.ListWorkouts)
	api.GET("/workouts/name-available", workouts.NameAvailable)
	api.GET("/workouts/:id", workouts.GetWorkout)
	api.POST("/workouts", workouts.CreateWorkout)
	api.PUT("/workouts/:id", workouts.UpdateWorkout)
	api.POST("/workouts/:id/disable", workouts.DisableWorkout)
	api.POST("/workouts/:id/enable", workouts.EnableWorkout)
	api.DELETE("/workouts/:id", workouts.DeleteWorkout)
	api.GET("/workouts/:id/schedules", workouts.ListSchedules)
	api.GET("/workouts/:id/exercises", workouts.ListExercises)
	api.POST("/workouts/:id/exercises", workouts.AddExercise)
	api.DELETE("/workouts/:id/exercises", workouts.ClearExercises)
	api.PUT("/workouts/:id/exercises/order", workouts.ReorderExercises)
	api.PUT("/workouts/:id/exercises/:lineId", workouts.UpdateExercise)
	api.DELETE("/workouts/:id/exercises/:lineId", workouts.RemoveExercise)

	// Schedules and overrides
	schedules := NewSchedulesController(cfg.Schedules, cfg.Clock)
	api.GET("/schedules", schedules.ListSchedules)
	api.GET("/schedules/:id", schedules.GetSchedule)
	api.POST("/schedules", schedules.CreateSchedule)
	api.PUT("/schedules/:id", schedules.UpdateSchedule)
	api.DELETE("/schedules/:id", schedules.DeleteSchedule)
	api.GET("/schedules/:id/occurrences", schedules.ListOccurrences)
	api.GET("/schedules/:id/overrides", schedules.ListOverrides)
	api.POST("/schedules/:id/overrides", schedules.CreateOverride)
	api.GET("/schedules/:id/overrides/:date", schedules.GetOverride)
	api.DELETE("/schedules/:id/overrides/:date", schedules.DeleteOverride)
	api.GET("/overrides/:id/exercises", schedules.ListOverrideExercises)
	api.POST("/overrides/:id/exercises", schedules.AddOverrideExercise)
	api.PUT("/overrides/:id/exercises/:lineId", schedules.UpdateOverrideExercise)
	api.DELETE("/overrides/:id/exercises/:lineId", schedules.RemoveOverrideExercise)

	// Completion history
	completions := NewCompletionsController(cfg.Completions, cfg.Clock)
	api.GET("/completions", completions.ListCompletions)
	api.GET("/completions/status", completions.Status)
	api.GET("/completions/:id", completions.GetCompletion)
	api.POST("/completions", completions.CreateCompletion)
	api.DELETE("/completions/:id", completions.DeleteCompletion)
	api.GET("/completions/:id/exercises", completions.ListExercises)
	api.POST("/completions/:id/exercises", completions.AddExercise)
	api.PUT("/completions/:id/exercises/:lineId", completions.UpdateExercise)
	api.DELETE("/completions/:id/exercises/:lineId", completions.RemoveExercise)

	// Day plan
	if cfg.Planner != nil {
		plan := NewPlanController(cfg.Planner, cfg.Clock, cfg.Metrics)
		api.GET("/plan", plan.GetPlan)
		api.POST("/plan/complete", plan.Complete)
	}

	// Live queries
	if cfg.Hub != nil {
		events := NewEventsController(cfg.Hub, cfg.Exercises, cfg.Schedules, cfg.Completions, cfg.Planner, cfg.Clock)
		api.GET("/events/exercises", events.Exercises)
		api.GET("/events/schedules", events.Schedules)
		api.GET("/events/completions", events.Completions)
		api.GET("/events/completions/status", events.CompletionStatus)
		if cfg.Planner != nil {
			api.GET("/events/plan", events.Plan)
		}
	}

	// Reminder settings
	if cfg.Reminders != nil {
		reminder := NewReminderController(cfg.Reminders, cfg.Scheduler)
		api.GET("/settings/reminder", reminder.GetSettings)
		api.PUT("/settings/reminder", reminder.UpdateSettings)
		api.DELETE("/settings/reminder", reminder.ResetSettings)
		api.POST("/settings/reminder/run", reminder.RunNow)
		api.GET("/settings/digest", reminder.GetDigestStatus)
	}

	// Task management endpoints
	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	// Snapshot download
	if cfg.NewExporter != nil {
		export := NewExportController(cfg.NewExporter)
		api.GET("/export", export.Download)
	}

	return router
}
