package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/mrlokans/workouts/internal/entities"
)

type CompletionsController struct {
	store CompletionStore
	clock Clock
}

func NewCompletionsController(store CompletionStore, clock Clock) *CompletionsController {
	return &CompletionsController{store: store, clock: clock}
}

// CompletionRequest is the body of a completion create call. CompletedAt
// defaults to now.
type CompletionRequest struct {
	WorkoutID   uint                         `json:"workout_id" binding:"required"`
	Date        string                       `json:"date"`
	CompletedAt *time.Time                   `json:"completed_at"`
	Exercises   []entities.CompletedExercise `json:"exercises"`
}

// ListCompletions returns the history, or with ?date=YYYY-MM-DD the
// completions scheduled for that day.
// GET /api/completions
func (cc *CompletionsController) ListCompletions(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		completed []entities.CompletedWorkout
		err       error
	)
	if value := c.Query("date"); value != "" {
		day, ok := parseDate(c, "date", value, cc.clock.Today)
		if !ok {
			return
		}
		completed, err = cc.store.ListForDate(ctx, day)
	} else {
		completed, err = cc.store.ListAll(ctx)
	}
	if err != nil {
		respondInternalError(c, err, "list completions")
		return
	}
	if completed == nil {
		completed = []entities.CompletedWorkout{}
	}
	c.JSON(http.StatusOK, completed)
}

// GET /api/completions/:id
func (cc *CompletionsController) GetCompletion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	completed, err := cc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get completion")
		return
	}
	respondFound(c, completed, "completed workout")
}

// Status reports whether a workout was completed for a day.
// GET /api/completions/status?workout_id=...&date=...
func (cc *CompletionsController) Status(c *gin.Context) {
	workoutID, ok := parseQueryID(c, "workout_id")
	if !ok {
		return
	}
	day, ok := parseDate(c, "date", c.Query("date"), cc.clock.Today)
	if !ok {
		return
	}

	done, err := cc.store.IsCompleted(c.Request.Context(), workoutID, day)
	if err != nil {
		respondInternalError(c, err, "check completion")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workout_id": workoutID,
		"date":       day.Format(time.DateOnly),
		"completed":  done,
	})
}

// CreateCompletion records a completion with its exercise snapshot in one
// transaction. A second completion of the same workout and day is rejected.
// POST /api/completions
func (cc *CompletionsController) CreateCompletion(c *gin.Context) {
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "workout_id is required")
		return
	}
	day, ok := parseDate(c, "date", req.Date, cc.clock.Today)
	if !ok {
		return
	}

	completed := &entities.CompletedWorkout{
		WorkoutID:     req.WorkoutID,
		ScheduledDate: datatypes.Date(day),
	}
	if req.CompletedAt != nil {
		completed.CompletedAt = *req.CompletedAt
	}

	ctx := c.Request.Context()
	if err := cc.store.InsertWithExercises(ctx, completed, req.Exercises); err != nil {
		respondStoreError(c, err, "create completion")
		return
	}

	created, err := cc.store.Get(ctx, completed.ID)
	if err != nil || created == nil {
		respondCreated(c, completed)
		return
	}
	respondCreated(c, created)
}

// DELETE /api/completions/:id
func (cc *CompletionsController) DeleteCompletion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete completion")
		return
	}
	respondSuccess(c, "completion deleted")
}

// --- Exercise lines ---

// GET /api/completions/:id/exercises
func (cc *CompletionsController) ListExercises(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	lines, err := cc.store.ListExercises(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "list completed exercises")
		return
	}
	if lines == nil {
		lines = []entities.CompletedExercise{}
	}
	c.JSON(http.StatusOK, lines)
}

// POST /api/completions/:id/exercises
func (cc *CompletionsController) AddExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var line entities.CompletedExercise
	if err := c.ShouldBindJSON(&line); err != nil {
		respondBadRequest(c, "invalid exercise line payload")
		return
	}
	line.CompletedWorkoutID = id

	if err := cc.store.AddExercise(c.Request.Context(), &line); err != nil {
		respondStoreError(c, err, "add completed exercise")
		return
	}
	respondCreated(c, line)
}

// PUT /api/completions/:id/exercises/:lineId
func (cc *CompletionsController) UpdateExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId")
	if !ok {
		return
	}

	var line entities.CompletedExercise
	if err := c.ShouldBindJSON(&line); err != nil {
		respondBadRequest(c, "invalid exercise line payload")
		return
	}
	line.ID = lineID
	line.CompletedWorkoutID = id

	if err := cc.store.UpdateExercise(c.Request.Context(), &line); err != nil {
		respondStoreError(c, err, "update completed exercise")
		return
	}
	c.JSON(http.StatusOK, line)
}

// DELETE /api/completions/:id/exercises/:lineId
func (cc *CompletionsController) RemoveExercise(c *gin.Context) {
	if _, ok := parseIDParam(c, "id"); !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId")
	if !ok {
		return
	}

	if err := cc.store.RemoveExercise(c.Request.Context(), lineID); err != nil {
		respondStoreError(c, err, "remove completed exercise")
		return
	}
	respondSuccess(c, "exercise removed")
}
