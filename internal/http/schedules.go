package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/recurrence"
	"github.com/mrlokans/workouts/internal/validation"
)

// maxOccurrenceRange bounds the span of an occurrences query, in days.
const maxOccurrenceRange = 366

type SchedulesController struct {
	store ScheduleStore
	clock Clock
}

func NewSchedulesController(store ScheduleStore, clock Clock) *SchedulesController {
	return &SchedulesController{store: store, clock: clock}
}

// ScheduleRequest is the body of schedule create and update calls.
type ScheduleRequest struct {
	WorkoutID  uint                    `json:"workout_id" binding:"required"`
	StartDate  string                  `json:"start_date" binding:"required"`
	Recurrence entities.RecurrenceKind `json:"recurrence" binding:"required"`
	OffsetDays *int                    `json:"offset_days"`
}

// OverrideRequest is the body of an override create call.
type OverrideRequest struct {
	Date      string                      `json:"date" binding:"required"`
	Exercises []entities.OverrideExercise `json:"exercises"`
}

func (sc *SchedulesController) bindSchedule(c *gin.Context) (*entities.Schedule, bool) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "workout_id, start_date and recurrence are required")
		return nil, false
	}
	start, ok := parseDate(c, "start_date", req.StartDate, sc.clock.Today)
	if !ok {
		return nil, false
	}
	return &entities.Schedule{
		WorkoutID:  req.WorkoutID,
		StartDate:  datatypes.Date(start),
		Recurrence: req.Recurrence,
		OffsetDays: req.OffsetDays,
	}, true
}

// ListSchedules returns every schedule, or with ?date=YYYY-MM-DD only those
// occurring on that day.
// GET /api/schedules
func (sc *SchedulesController) ListSchedules(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		schedules []entities.Schedule
		err       error
	)
	if value := c.Query("date"); value != "" {
		day, ok := parseDate(c, "date", value, sc.clock.Today)
		if !ok {
			return
		}
		schedules, err = sc.store.ListOccurringOn(ctx, day)
	} else {
		schedules, err = sc.store.ListAll(ctx)
	}
	if err != nil {
		respondInternalError(c, err, "list schedules")
		return
	}
	if schedules == nil {
		schedules = []entities.Schedule{}
	}
	c.JSON(http.StatusOK, schedules)
}

// GET /api/schedules/:id
func (sc *SchedulesController) GetSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	schedule, err := sc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get schedule")
		return
	}
	respondFound(c, schedule, "schedule")
}

// POST /api/schedules
func (sc *SchedulesController) CreateSchedule(c *gin.Context) {
	schedule, ok := sc.bindSchedule(c)
	if !ok {
		return
	}
	if err := sc.store.Insert(c.Request.Context(), schedule); err != nil {
		respondStoreError(c, err, "create schedule")
		return
	}
	respondCreated(c, schedule)
}

// PUT /api/schedules/:id
func (sc *SchedulesController) UpdateSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	schedule, ok := sc.bindSchedule(c)
	if !ok {
		return
	}
	schedule.ID = id

	ctx := c.Request.Context()
	existing, err := sc.store.Get(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get schedule")
		return
	}
	if existing == nil {
		respondNotFound(c, "schedule")
		return
	}
	schedule.CreatedAt = existing.CreatedAt

	if err := sc.store.Update(ctx, schedule); err != nil {
		respondStoreError(c, err, "update schedule")
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// DeleteSchedule removes a schedule with its overrides.
// DELETE /api/schedules/:id
func (sc *SchedulesController) DeleteSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := sc.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete schedule")
		return
	}
	respondSuccess(c, "schedule deleted")
}

// ListOccurrences returns the days in [from, to] the schedule occurs on,
// and the first one after to. from defaults to today and to to 30 days later.
// GET /api/schedules/:id/occurrences?from=...&to=...
func (sc *SchedulesController) ListOccurrences(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	from, ok := parseDate(c, "from", c.Query("from"), sc.clock.Today)
	if !ok {
		return
	}
	to, ok := parseDate(c, "to", c.Query("to"), func() time.Time { return from.AddDate(0, 0, 30) })
	if !ok {
		return
	}
	if to.Before(from) || recurrence.DaysBetween(from, to) > maxOccurrenceRange {
		respondBadRequest(c, "to must be on or after from and at most a year later")
		return
	}

	schedule, err := sc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get schedule")
		return
	}
	if schedule == nil {
		respondNotFound(c, "schedule")
		return
	}

	days := make([]string, 0)
	for day := range recurrence.Occurrences(schedule.Start(), schedule.Recurrence, schedule.OffsetDays, from, to) {
		days = append(days, day.Format(time.DateOnly))
	}
	resp := gin.H{"schedule_id": id, "from": from.Format(time.DateOnly), "to": to.Format(time.DateOnly), "dates": days, "next": nil}
	if next, ok := recurrence.NextOccurrence(schedule.Start(), schedule.Recurrence, schedule.OffsetDays, to.AddDate(0, 0, 1), maxOccurrenceRange); ok {
		resp["next"] = next.Format(time.DateOnly)
	}
	c.JSON(http.StatusOK, resp)
}

// --- Overrides ---

// GET /api/schedules/:id/overrides
func (sc *SchedulesController) ListOverrides(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	overrides, err := sc.store.ListOverridesForSchedule(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "list overrides")
		return
	}
	if overrides == nil {
		overrides = []entities.ScheduleOverride{}
	}
	c.JSON(http.StatusOK, overrides)
}

// GetOverride returns the override of a day with its lines.
// GET /api/schedules/:id/overrides/:date
func (sc *SchedulesController) GetOverride(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	day, err := ParseDate(c.Param("date"))
	if err != nil {
		respondBadRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}

	override, err := sc.store.GetOverride(c.Request.Context(), id, day)
	if err != nil {
		respondInternalError(c, err, "get override")
		return
	}
	respondFound(c, override, "override")
}

// CreateOverride replaces the template's lines for one day.
// POST /api/schedules/:id/overrides
func (sc *SchedulesController) CreateOverride(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "date is required")
		return
	}
	day, err := ParseDate(req.Date)
	if err != nil {
		respondBadRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}

	override := &entities.ScheduleOverride{ScheduleID: id, Date: datatypes.Date(day)}
	if err := sc.store.InsertOverrideWithExercises(c.Request.Context(), override, req.Exercises); err != nil {
		respondStoreError(c, err, "create override")
		return
	}
	respondCreated(c, override)
}

// DELETE /api/schedules/:id/overrides/:date
func (sc *SchedulesController) DeleteOverride(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	day, err := ParseDate(c.Param("date"))
	if err != nil {
		respondBadRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}

	if err := sc.store.DeleteOverride(c.Request.Context(), id, day); err != nil {
		respondStoreError(c, err, "delete override")
		return
	}
	respondSuccess(c, "override deleted")
}

// GET /api/overrides/:id/exercises
func (sc *SchedulesController) ListOverrideExercises(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	lines, err := sc.store.ListOverrideExercises(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "list override exercises")
		return
	}
	if lines == nil {
		lines = []entities.OverrideExercise{}
	}
	c.JSON(http.StatusOK, lines)
}

// AddOverrideExercise adds a line carried over from the template
// (workout_exercise_id) or a new exercise for that day only (exercise_id).
// POST /api/overrides/:id/exercises
func (sc *SchedulesController) AddOverrideExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var line entities.OverrideExercise
	if err := c.ShouldBindJSON(&line); err != nil {
		respondBadRequest(c, "invalid exercise line payload")
		return
	}
	if err := validation.ValidateXor("exerciseId", line.ExerciseID, "workoutExerciseId", line.WorkoutExerciseID); err != nil {
		respondStoreError(c, err, "add override exercise")
		return
	}

	var (
		created *entities.OverrideExercise
		err     error
	)
	ctx := c.Request.Context()
	if line.WorkoutExerciseID != nil {
		created, err = sc.store.AddFromWorkoutExercise(ctx, id, *line.WorkoutExerciseID, line.ExerciseLine)
	} else {
		created, err = sc.store.AddAsNew(ctx, id, *line.ExerciseID, line.ExerciseLine)
	}
	if err != nil {
		respondStoreError(c, err, "add override exercise")
		return
	}
	respondCreated(c, created)
}

// PUT /api/overrides/:id/exercises/:lineId
func (sc *SchedulesController) UpdateOverrideExercise(c *gin.Context) {
	overrideID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId")
	if !ok {
		return
	}

	var line entities.OverrideExercise
	if err := c.ShouldBindJSON(&line); err != nil {
		respondBadRequest(c, "invalid exercise line payload")
		return
	}
	line.ID = lineID
	line.OverrideID = overrideID

	if err := sc.store.UpdateOverrideExercise(c.Request.Context(), &line); err != nil {
		respondStoreError(c, err, "update override exercise")
		return
	}
	c.JSON(http.StatusOK, line)
}

// DELETE /api/overrides/:id/exercises/:lineId
func (sc *SchedulesController) RemoveOverrideExercise(c *gin.Context) {
	if _, ok := parseIDParam(c, "id"); !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId")
	if !ok {
		return
	}

	if err := sc.store.RemoveOverrideExercise(c.Request.Context(), lineID); err != nil {
		respondStoreError(c, err, "remove override exercise")
		return
	}
	respondSuccess(c, "exercise removed")
}
