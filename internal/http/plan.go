package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/workouts/internal/metrics"
	"github.com/mrlokans/workouts/internal/planner"
)

type PlanController struct {
	planner DayPlanner
	clock   Clock
	metrics *metrics.Manager
}

func NewPlanController(p DayPlanner, clock Clock, m *metrics.Manager) *PlanController {
	return &PlanController{planner: p, clock: clock, metrics: m}
}

// PlanResponse is a day's plan with its dates rendered as YYYY-MM-DD.
type PlanResponse struct {
	Date    string          `json:"date"`
	Summary string          `json:"summary"`
	Pending int             `json:"pending"`
	Entries []planner.Entry `json:"entries"`
}

func newPlanResponse(plan *planner.Plan) PlanResponse {
	entries := plan.Entries
	if entries == nil {
		entries = []planner.Entry{}
	}
	return PlanResponse{
		Date:    plan.Date.Format(time.DateOnly),
		Summary: plan.Summary(),
		Pending: len(plan.Pending()),
		Entries: entries,
	}
}

// GetPlan returns what is due on ?date, today by default.
// GET /api/plan
func (pc *PlanController) GetPlan(c *gin.Context) {
	day, ok := parseDate(c, "date", c.Query("date"), pc.clock.Today)
	if !ok {
		return
	}

	plan, err := pc.planner.PlanFor(c.Request.Context(), day)
	if err != nil {
		respondInternalError(c, err, "plan day")
		return
	}
	c.JSON(http.StatusOK, newPlanResponse(plan))
}

// CompleteRequest is the body of POST /api/plan/complete.
type CompleteRequest struct {
	WorkoutID uint   `json:"workout_id" binding:"required"`
	Date      string `json:"date"`
}

// Complete marks a planned workout done with the lines it was planned with.
// Completing an already completed occurrence returns the existing record.
// POST /api/plan/complete
func (pc *PlanController) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "workout_id is required")
		return
	}
	day, ok := parseDate(c, "date", req.Date, pc.clock.Today)
	if !ok {
		return
	}

	completed, err := pc.planner.Complete(c.Request.Context(), req.WorkoutID, day)
	if err != nil {
		respondStoreError(c, err, "complete workout")
		return
	}
	if pc.metrics != nil {
		pc.metrics.CounterCompletedWorkouts.Inc()
	}
	c.JSON(http.StatusOK, completed)
}
