package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/workouts/internal/entities"
)

type ExercisesController struct {
	store ExerciseStore
}

func NewExercisesController(store ExerciseStore) *ExercisesController {
	return &ExercisesController{store: store}
}

// ListExercises returns the enabled exercises; ?all=true includes disabled
// ones and ?custom=true only the user-created ones.
// GET /api/exercises
func (ec *ExercisesController) ListExercises(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		exercises []entities.Exercise
		err       error
	)
	switch {
	case queryBool(c, "custom"):
		exercises, err = ec.store.ListCustom(ctx)
	case queryBool(c, "all"):
		exercises, err = ec.store.ListAll(ctx)
	default:
		exercises, err = ec.store.ListEnabled(ctx)
	}
	if err != nil {
		respondInternalError(c, err, "list exercises")
		return
	}
	if exercises == nil {
		exercises = []entities.Exercise{}
	}
	c.JSON(http.StatusOK, exercises)
}

// GET /api/exercises/:id
func (ec *ExercisesController) GetExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exercise, err := ec.store.Get(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get exercise")
		return
	}
	respondFound(c, exercise, "exercise")
}

// NameAvailable reports whether a name is free among enabled exercises.
// GET /api/exercises/name-available?name=...&exclude_id=...
func (ec *ExercisesController) NameAvailable(c *gin.Context) {
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

	exists, err := ec.store.NameExists(c.Request.Context(), name, exclude)
	if err != nil {
		respondInternalError(c, err, "check exercise name")
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "available": !exists})
}

// POST /api/exercises
func (ec *ExercisesController) CreateExercise(c *gin.Context) {
	var exercise entities.Exercise
	if err := c.ShouldBindJSON(&exercise); err != nil {
		respondBadRequest(c, "invalid exercise payload")
		return
	}
	exercise.IsDefault = false

	if err := ec.store.Insert(c.Request.Context(), &exercise); err != nil {
		respondStoreError(c, err, "create exercise")
		return
	}
	respondCreated(c, exercise)
}

// UpdateExercise replaces an exercise's fields.
// PUT /api/exercises/:id
func (ec *ExercisesController) UpdateExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	existing, err := ec.store.Get(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get exercise")
		return
	}
	if existing == nil {
		respondNotFound(c, "exercise")
		return
	}

	var exercise entities.Exercise
	if err := c.ShouldBindJSON(&exercise); err != nil {
		respondBadRequest(c, "invalid exercise payload")
		return
	}
	exercise.ID = id
	exercise.IsDefault = existing.IsDefault
	exercise.CreatedAt = existing.CreatedAt

	if err := ec.store.Update(ctx, &exercise); err != nil {
		respondStoreError(c, err, "update exercise")
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// POST /api/exercises/:id/disable
func (ec *ExercisesController) DisableExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ec.store.Disable(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "disable exercise")
		return
	}
	respondSuccess(c, "exercise disabled")
}

// POST /api/exercises/:id/enable
func (ec *ExercisesController) EnableExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ec.store.Enable(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "enable exercise")
		return
	}
	respondSuccess(c, "exercise enabled")
}

// DeleteExercise removes an exercise that no workout, override or history
// row references.
// DELETE /api/exercises/:id
func (ec *ExercisesController) DeleteExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ec.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete exercise")
		return
	}
	respondSuccess(c, "exercise deleted")
}
