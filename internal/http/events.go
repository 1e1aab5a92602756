package http

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/watch"
)

// EventsController serves live queries as server-sent events. Each stream
// sends the current result first and then every change until the client
// disconnects.
type EventsController struct {
	hub         *watch.Hub
	exercises   ExerciseStore
	schedules   ScheduleStore
	completions CompletionStore
	planner     DayPlanner
	clock       Clock
}

func NewEventsController(hub *watch.Hub, exercises ExerciseStore, schedules ScheduleStore, completions CompletionStore, p DayPlanner, clock Clock) *EventsController {
	return &EventsController{
		hub:         hub,
		exercises:   exercises,
		schedules:   schedules,
		completions: completions,
		planner:     p,
		clock:       clock,
	}
}

// streamEvents forwards every value of s as an event named name.
func streamEvents[T any](c *gin.Context, name string, s *watch.Stream[T]) {
	defer s.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		v, ok := <-s.Updates()
		if !ok {
			if err := s.Err(); err != nil && c.Request.Context().Err() == nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"stream":     name,
					"request_id": c.GetString(ContextKeyRequestID),
				}).Error("live query failed")
				c.SSEvent("error", gin.H{"error": "live query failed"})
			}
			return false
		}
		c.SSEvent(name, v)
		return true
	})
}

// GET /api/events/exercises
func (ec *EventsController) Exercises(c *gin.Context) {
	streamEvents(c, "exercises", ec.exercises.WatchEnabled(c.Request.Context()))
}

// GET /api/events/schedules?date=...
func (ec *EventsController) Schedules(c *gin.Context) {
	day, ok := parseDate(c, "date", c.Query("date"), ec.clock.Today)
	if !ok {
		return
	}
	streamEvents(c, "schedules", ec.schedules.WatchOccurringOn(c.Request.Context(), day))
}

// GET /api/events/completions?date=...
func (ec *EventsController) Completions(c *gin.Context) {
	day, ok := parseDate(c, "date", c.Query("date"), ec.clock.Today)
	if !ok {
		return
	}
	streamEvents(c, "completions", ec.completions.WatchForDate(c.Request.Context(), day))
}

// GET /api/events/completions/status?workout_id=...&date=...
func (ec *EventsController) CompletionStatus(c *gin.Context) {
	workoutID, ok := parseQueryID(c, "workout_id")
	if !ok {
		return
	}
	day, ok := parseDate(c, "date", c.Query("date"), ec.clock.Today)
	if !ok {
		return
	}
	streamEvents(c, "completed", ec.completions.WatchIsCompleted(c.Request.Context(), workoutID, day))
}

// Plan streams the plan of a day, re-planning after any write to the
// tables it is built from.
// GET /api/events/plan?date=...
func (ec *EventsController) Plan(c *gin.Context) {
	day, ok := parseDate(c, "date", c.Query("date"), ec.clock.Today)
	if !ok {
		return
	}
	stream := watch.Query(c.Request.Context(), ec.hub, planner.Tables, func(ctx context.Context) (PlanResponse, error) {
		plan, err := ec.planner.PlanFor(ctx, day)
		if err != nil {
			return PlanResponse{}, err
		}
		return newPlanResponse(plan), nil
	})
	streamEvents(c, "plan", stream)
}
