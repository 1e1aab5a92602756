package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/workouts/internal/entities"
)

type WorkoutsController struct {
	store     WorkoutStore
	schedules ScheduleStore
}

func NewWorkoutsController(store WorkoutStore, schedules ScheduleStore) *WorkoutsController {
	return &WorkoutsController{store: store, schedules: schedules}
}

// GET /api/workouts
func (wc *WorkoutsController) ListWorkouts(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		workouts []entities.Workout
		err      error
	)
	if queryBool(c, "all") {
		workouts, err = wc.store.ListAll(ctx)
	} else {
		workouts, err = wc.store.ListEnabled(ctx)
	}
	if err != nil {
		respondInternalError(c, err, "list workouts")
		return
	}
	if workouts == nil {
		workouts = []entities.Workout{}
	}
	c.JSON(http.StatusOK, workouts)
}

// GetWorkout returns a workout with its exercise lines.
// GET /api/workouts/:id
func (wc *WorkoutsController) GetWorkout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	workout, err := wc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get workout")
		return
	}
	respondFound(c, workout, "workout")
}

// GET /api/workouts/name-available?name=...&exclude_id=...
func (wc *WorkoutsController) NameAvailable(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		respondBadRequest(c, "name is required")
		return
	}

	var exclude *uint
	if c.Query("exclude_id") != "" {
		id, ok := parseQueryID(c, "exclude_id")
		if !ok {
			return
		}
		exclude = &id
	}

	exists, err := wc.store.NameExists(c.Request.Context(), name, exclude)
	if err != nil {
		respondInternalError(c, err, "check workout name")
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "available": !exists})
}

// CreateWorkout stores a workout and its exercise lines in one transaction.
// POST /api/workouts
func (wc *WorkoutsController) CreateWorkout(c *gin.Context) {
	var workout entities.Workout
	if err := c.ShouldBindJSON(&workout); err != nil {
		respondBadRequest(c, "invalid workout payload")
		return
	}
	lines := workout.Exercises
	workout.Exercises = nil

	ctx := c.Request.Context()
	if err := wc.store.InsertWithExercises(ctx, &workout, lines); err != nil {
		respondStoreError(c, err, "create workout")
		return
	}

	created, err := wc.store.Get(ctx, workout.ID)
	if err != nil || created == nil {
		respondCreated(c, workout)
		return
	}
	respondCreated(c, created)
}

// UpdateWorkout replaces the workout's own fields; lines are managed through
// the exercises endpoints.
// PUT /api/workouts/:id
func (wc *WorkoutsController) UpdateWorkout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var workout entities.Workout
	if err := c.ShouldBindJSON(&workout); err != nil {
		respondBadRequest(c, "invalid workout payload")
		return
	}
	workout.ID = id
	workout.Exercises = nil

	if err := wc.store.Update(c.Request.Context(), &workout); err != nil {
		respondStoreError(c, err, "update workout")
		return
	}
	c.JSON(http.StatusOK, workout)
}

// POST /api/workouts/:id/disable
func (wc *WorkoutsController) DisableWorkout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := wc.store.Disable(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "disable workout")
		return
	}
	respondSuccess(c, "workout disabled")
}

// POST /api/workouts/:id/enable
func (wc *WorkoutsController) EnableWorkout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := wc.store.Enable(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "enable workout")
		return
	}
	respondSuccess(c, "workout enabled")
}

// DeleteWorkout removes a workout. With ?with_exercises=true its lines are
// removed in the same transaction; otherwise existing lines block the delete.
// DELETE /api/workouts/:id
func (wc *WorkoutsController) DeleteWorkout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var err error
	if queryBool(c, "with_exercises") {
		err = wc.store.DeleteWithExercises(c.Request.Context(), id)
	} else {
		err = wc.store.Delete(c.Request.Context(), id)
	}
	if err != nil {
		respondStoreError(c, err, "delete workout")
		return
	}
	respondSuccess(c, "workout deleted")
}

// GET /api/workouts/:id/schedules
func (wc *WorkoutsController) ListSchedules(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	schedules, err := wc.schedules.ListForWorkout(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "list workout schedules")
		return
	}
	if schedules == nil {
		schedules = []entities.Schedule{}
	}
	c.JSON(http.StatusOK, schedules)
}

// --- Exercise lines ---

// GET /api/workouts/:id/exercises
func (wc *WorkoutsController) ListExercises(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	lines, err := wc.store.ListExercises(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "list workout exercises")
		return
	}
	if lines == nil {
		lines = []entities.WorkoutExercise{}
	}
	c.JSON(http.StatusOK, lines)
}

// POST /api/workouts/:id/exercises
func (wc *WorkoutsController) AddExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var line entities.WorkoutExercise
	if err := c.ShouldBindJSON(&line); err != nil {
		respondBadRequest(c, "invalid exercise line payload")
		return
	}
	line.WorkoutID = id

	if err := wc.store.AddExercise(c.Request.Context(), &line); err != nil {
		respondStoreError(c, err, "add workout exercise")
		return
	}
	respondCreated(c, line)
}

// lineOf loads a line and checks it belongs to the workout in the path.
func (wc *WorkoutsController) lineOf(c *gin.Context) (*entities.WorkoutExercise, bool) {
	workoutID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	lineID, ok := parseIDParam(c, "lineId")
	if !ok {
		return nil, false
	}

	line, err := wc.store.GetExercise(c.Request.Context(), lineID)
	if err != nil {
		respondInternalError(c, err, "get workout exercise")
		return nil, false
	}
	if line == nil || line.WorkoutID != workoutID {
		respondNotFound(c, "workout exercise")
		return nil, false
	}
	return line, true
}

// PUT /api/workouts/:id/exercises/:lineId
func (wc *WorkoutsController) UpdateExercise(c *gin.Context) {
	existing, ok := wc.lineOf(c)
	if !ok {
		return
	}

	var line entities.WorkoutExercise
	if err := c.ShouldBindJSON(&line); err != nil {
		respondBadRequest(c, "invalid exercise line payload")
		return
	}
	line.ID = existing.ID
	line.WorkoutID = existing.WorkoutID
	if line.ExerciseID == 0 {
		line.ExerciseID = existing.ExerciseID
	}

	if err := wc.store.UpdateExercise(c.Request.Context(), &line); err != nil {
		respondStoreError(c, err, "update workout exercise")
		return
	}
	c.JSON(http.StatusOK, line)
}

// DELETE /api/workouts/:id/exercises/:lineId
func (wc *WorkoutsController) RemoveExercise(c *gin.Context) {
	line, ok := wc.lineOf(c)
	if !ok {
		return
	}
	if err := wc.store.RemoveExercise(c.Request.Context(), line.ID); err != nil {
		respondStoreError(c, err, "remove workout exercise")
		return
	}
	respondSuccess(c, "exercise removed")
}

// DELETE /api/workouts/:id/exercises
func (wc *WorkoutsController) ClearExercises(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := wc.store.ClearExercises(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "clear workout exercises")
		return
	}
	respondSuccess(c, "exercises cleared")
}

// ReorderExercises assigns positions in the order of line_ids.
// PUT /api/workouts/:id/exercises/order
func (wc *WorkoutsController) ReorderExercises(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		LineIDs []uint `json:"line_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "line_ids is required")
		return
	}

	ctx := c.Request.Context()
	if err := wc.store.ReorderExercises(ctx, id, req.LineIDs); err != nil {
		respondStoreError(c, err, "reorder workout exercises")
		return
	}

	lines, err := wc.store.ListExercises(ctx, id)
	if err != nil {
		respondInternalError(c, err, "list workout exercises")
		return
	}
	c.JSON(http.StatusOK, lines)
}
