package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/workouts/internal/config"
	"github.com/mrlokans/workouts/internal/database"
	"github.com/mrlokans/workouts/internal/database/completions"
	"github.com/mrlokans/workouts/internal/database/exercises"
	"github.com/mrlokans/workouts/internal/database/schedules"
	"github.com/mrlokans/workouts/internal/database/settings"
	"github.com/mrlokans/workouts/internal/database/workouts"
	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/exporters"
	"github.com/mrlokans/workouts/internal/metrics"
	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/settingsstore"
)

// monday is the fixed "today" of the API tests.
var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

type fakeTaskQueue struct {
	digests []string
	exports []string
}

func (q *fakeTaskQueue) Status(context.Context, string) (backlite.TaskStatus, error) {
	return backlite.TaskStatusPending, nil
}

func (q *fakeTaskQueue) EnqueueDailyDigest(_ context.Context, date string) (string, error) {
	q.digests = append(q.digests, date)
	return "digest-1", nil
}

func (q *fakeTaskQueue) EnqueueExportSnapshot(_ context.Context, format string) (string, error) {
	q.exports = append(q.exports, format)
	return "export-1", nil
}

type apiFixture struct {
	router    *gin.Engine
	db        *database.Database
	exercises *exercises.Repository
	workouts  *workouts.Repository
	metrics   *metrics.Manager
	tasks     *fakeTaskQueue
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "api.db"), database.WithLogger(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exerciseRepo := exercises.NewRepository(db.DB, db.Hub)
	workoutRepo := workouts.NewRepository(db.DB, db.Hub)
	scheduleRepo := schedules.NewRepository(db.DB, db.Hub)
	completionRepo := completions.NewRepository(db.DB, db.Hub)
	m, reg := metrics.NewTestManagerAndRegistry()
	queue := &fakeTaskQueue{}

	router := NewRouter(RouterConfig{
		Exercises:   exerciseRepo,
		Workouts:    workoutRepo,
		Schedules:   scheduleRepo,
		Completions: completionRepo,
		Planner:     planner.New(scheduleRepo, workoutRepo, exerciseRepo, completionRepo),
		Hub:         db.Hub,
		Database:    db,
		Reminders:   settingsstore.New(settings.NewRepository(db.DB), config.Reminder{Schedule: "0 7 * * *"}),
		Tasks:       queue,
		NewExporter: func(format exporters.Format) exporters.Exporter {
			return exporters.NewSnapshotExporter(format, exerciseRepo, workoutRepo, scheduleRepo, completionRepo)
		},
		Metrics:  m,
		Gatherer: reg,
		Clock:    Clock{Location: time.UTC, Now: func() time.Time { return monday.Add(9 * time.Hour) }},
		Version:  "test",
	})

	return &apiFixture{
		router:    router,
		db:        db,
		exercises: exerciseRepo,
		workouts:  workoutRepo,
		metrics:   m,
		tasks:     queue,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *apiFixture) exerciseID(t *testing.T, name string) uint {
	t.Helper()
	e, err := f.exercises.FindByName(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, e, name)
	return e.ID
}

// createWorkout posts a workout built from seeded exercises.
func (f *apiFixture) createWorkout(t *testing.T, name string, exerciseNames ...string) entities.Workout {
	t.Helper()
	lines := make([]entities.WorkoutExercise, 0, len(exerciseNames))
	for i, exerciseName := range exerciseNames {
		e, err := f.exercises.Get(context.Background(), f.exerciseID(t, exerciseName))
		require.NoError(t, err)
		lines = append(lines, entities.WorkoutExercise{ExerciseID: e.ID, ExerciseLine: entities.LineFor(e, i)})
	}

	w := f.do(t, http.MethodPost, "/api/workouts", entities.Workout{Name: name, Exercises: lines})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[entities.Workout](t, w)
}

func TestAPI_Exercises(t *testing.T) {
	f := setupAPI(t)

	t.Run("lists the seeded library", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/exercises", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]entities.Exercise](t, w), len(entities.DefaultExercises()))
	})

	t.Run("creates a custom exercise", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/exercises", entities.Exercise{
			Name:      "Ring Rows",
			Mode:      entities.ExerciseModeReps,
			Sets:      entities.UniformSets(3, 12, 0, 60),
			IsDefault: true,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created := decode[entities.Exercise](t, w)
		assert.NotZero(t, created.ID)
		assert.False(t, created.IsDefault)

		w = f.do(t, http.MethodGet, "/api/exercises?custom=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		custom := decode[[]entities.Exercise](t, w)
		require.Len(t, custom, 1)
		assert.Equal(t, "Ring Rows", custom[0].Name)
	})

	t.Run("rejects a duplicate name regardless of case", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/exercises", entities.Exercise{
			Name: "pull ups",
			Mode: entities.ExerciseModeReps,
			Sets: entities.UniformSets(3, 5, 0, 60),
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeDuplicate, decode[ErrorResponse](t, w).Code)

		w = f.do(t, http.MethodGet, "/api/exercises/name-available?name=PULL%20UPS", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decode[map[string]any](t, w)["available"])
	})

	t.Run("reports the invalid field", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/exercises", entities.Exercise{
			Name: "  ",
			Mode: entities.ExerciseModeReps,
			Sets: entities.UniformSets(3, 5, 0, 60),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, CodeValidation, resp.Code)
		assert.Equal(t, "name", resp.Field)
	})

	t.Run("returns 404 for a missing exercise", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/exercises/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = f.do(t, http.MethodPost, "/api/exercises/9999/disable", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/exercises/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAPI_DeleteReferencedExercise(t *testing.T) {
	f := setupAPI(t)
	f.createWorkout(t, "Back", "Pull Ups")

	w := f.do(t, http.MethodDelete, "/api/exercises/"+itoa(f.exerciseID(t, "Pull Ups")), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeInUse, decode[ErrorResponse](t, w).Code)

	w = f.do(t, http.MethodDelete, "/api/exercises/"+itoa(f.exerciseID(t, "Planche")), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_WorkoutLines(t *testing.T) {
	f := setupAPI(t)
	push := f.createWorkout(t, "Push", "Push Ups", "Dips", "Bench Press")
	require.Len(t, push.Exercises, 3)

	base := "/api/workouts/" + itoa(push.ID)

	order := []uint{push.Exercises[2].ID, push.Exercises[0].ID, push.Exercises[1].ID}
	w := f.do(t, http.MethodPut, base+"/exercises/order", gin.H{"line_ids": order})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lines := decode[[]entities.WorkoutExercise](t, w)
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Equal(t, order[i], line.ID)
		assert.Equal(t, i, line.OrderIndex)
	}

	other := f.createWorkout(t, "Pull", "Pull Ups")
	w = f.do(t, http.MethodDelete, "/api/workouts/"+itoa(other.ID)+"/exercises/"+itoa(push.Exercises[0].ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodDelete, base+"?with_exercises=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_SchedulePlanComplete(t *testing.T) {
	f := setupAPI(t)
	legs := f.createWorkout(t, "Legs", "Leg Press", "Dead Lift")

	w := f.do(t, http.MethodPost, "/api/schedules", ScheduleRequest{
		WorkoutID:  legs.ID,
		StartDate:  "2024-06-03",
		Recurrence: entities.RecurrenceWeekly,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	schedule := decode[entities.Schedule](t, w)

	t.Run("lists occurrences in a range", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/schedules/"+itoa(schedule.ID)+"/occurrences?from=2024-06-01&to=2024-06-20", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string]any](t, w)
		assert.Equal(t, []any{"2024-06-03", "2024-06-10", "2024-06-17"}, resp["dates"])
		assert.Equal(t, "2024-06-24", resp["next"])

		w = f.do(t, http.MethodGet, "/api/schedules/"+itoa(schedule.ID)+"/occurrences?from=2024-06-20&to=2024-06-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("plans today by default", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/plan", nil)
		require.Equal(t, http.StatusOK, w.Code)
		plan := decode[PlanResponse](t, w)
		assert.Equal(t, "2024-06-03", plan.Date)
		require.Len(t, plan.Entries, 1)
		assert.Equal(t, "Legs", plan.Entries[0].Workout.Name)
		assert.Equal(t, 1, plan.Pending)

		w = f.do(t, http.MethodGet, "/api/plan?date=2024-06-04", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "rest day", decode[PlanResponse](t, w).Summary)
	})

	t.Run("completes a planned workout once", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/plan/complete", CompleteRequest{WorkoutID: legs.ID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		completed := decode[entities.CompletedWorkout](t, w)
		assert.NotZero(t, completed.ID)

		w = f.do(t, http.MethodGet, "/api/completions/status?workout_id="+itoa(legs.ID)+"&date=2024-06-03", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode[map[string]any](t, w)["completed"])

		w = f.do(t, http.MethodGet, "/api/completions/"+itoa(completed.ID)+"/exercises", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]entities.CompletedExercise](t, w), 2)

		w = f.do(t, http.MethodPost, "/api/completions", CompletionRequest{WorkoutID: legs.ID, Date: "2024-06-03"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeDuplicate, decode[ErrorResponse](t, w).Code)

		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterCompletedWorkouts))
	})

	t.Run("rejects completing an unplanned day", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/plan/complete", CompleteRequest{WorkoutID: legs.ID, Date: "2024-06-04"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeNotPlanned, decode[ErrorResponse](t, w).Code)
	})

	t.Run("rejects a schedule for a missing workout", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/schedules", ScheduleRequest{
			WorkoutID:  9999,
			StartDate:  "2024-06-03",
			Recurrence: entities.RecurrenceOneOff,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, CodeMissingReference, decode[ErrorResponse](t, w).Code)
	})

	t.Run("rejects a malformed start date", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/schedules", ScheduleRequest{
			WorkoutID:  legs.ID,
			StartDate:  "03/06/2024",
			Recurrence: entities.RecurrenceWeekly,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAPI_Overrides(t *testing.T) {
	f := setupAPI(t)
	pull := f.createWorkout(t, "Pull", "Pull Ups", "Dead Hang")

	w := f.do(t, http.MethodPost, "/api/schedules", ScheduleRequest{
		WorkoutID:  pull.ID,
		StartDate:  "2024-06-03",
		Recurrence: entities.RecurrenceWeekly,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	schedule := decode[entities.Schedule](t, w)
	base := "/api/schedules/" + itoa(schedule.ID)

	w = f.do(t, http.MethodPost, base+"/overrides", OverrideRequest{Date: "2024-06-10"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	override := decode[entities.ScheduleOverride](t, w)
	lines := "/api/overrides/" + itoa(override.ID) + "/exercises"

	t.Run("requires exactly one reference", func(t *testing.T) {
		w := f.do(t, http.MethodPost, lines, entities.OverrideExercise{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "exerciseId/workoutExerciseId", decode[ErrorResponse](t, w).Field)
	})

	t.Run("carries a template line over", func(t *testing.T) {
		templateLine := pull.Exercises[0]
		w := f.do(t, http.MethodPost, lines, entities.OverrideExercise{
			WorkoutExerciseID: &templateLine.ID,
			ExerciseLine:      templateLine.ExerciseLine,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("adds an exercise for the day", func(t *testing.T) {
		e, err := f.exercises.Get(context.Background(), f.exerciseID(t, "Front Lever"))
		require.NoError(t, err)
		w := f.do(t, http.MethodPost, lines, entities.OverrideExercise{
			ExerciseID:   &e.ID,
			ExerciseLine: entities.LineFor(e, 1),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("plans the override instead of the template", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/plan?date=2024-06-10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		plan := decode[PlanResponse](t, w)
		require.Len(t, plan.Entries, 1)
		entry := plan.Entries[0]
		assert.True(t, entry.Overridden)
		require.Len(t, entry.Exercises, 2)
		assert.Equal(t, "Pull Ups", entry.Exercises[0].Exercise.Name)
		assert.Equal(t, "Front Lever", entry.Exercises[1].Exercise.Name)
	})

	t.Run("removes the override", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, base+"/overrides/2024-06-10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodGet, base+"/overrides/2024-06-10", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAPI_SettingsAndTasks(t *testing.T) {
	f := setupAPI(t)

	w := f.do(t, http.MethodGet, "/api/settings/reminder", nil)
	require.Equal(t, http.StatusOK, w.Code)
	settingsResp := decode[ReminderSettingsResponse](t, w)
	assert.Equal(t, settingsstore.SourceConfig, settingsResp.Config.ScheduleSource)

	w = f.do(t, http.MethodPut, "/api/settings/reminder", gin.H{"schedule": "not cron"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "schedule", decode[ErrorResponse](t, w).Field)

	w = f.do(t, http.MethodPut, "/api/settings/reminder", gin.H{"enabled": true, "schedule": "0 6 * * *"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settingsResp = decode[ReminderSettingsResponse](t, w)
	assert.True(t, settingsResp.Config.Enabled)
	assert.Equal(t, "Daily at 06:00", settingsResp.Config.ScheduleDescription)
	assert.Equal(t, settingsstore.SourceDatabase, settingsResp.Config.ScheduleSource)

	w = f.do(t, http.MethodDelete, "/api/settings/reminder", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, settingsstore.SourceConfig, decode[ReminderSettingsResponse](t, w).Config.ScheduleSource)

	w = f.do(t, http.MethodPost, "/api/tasks/daily_digest/run", RunTaskRequest{Date: "2024-06-03"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"2024-06-03"}, f.tasks.digests)

	w = f.do(t, http.MethodPost, "/api/tasks/export_snapshot/run", RunTaskRequest{Format: "yml"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"yaml"}, f.tasks.exports)

	w = f.do(t, http.MethodPost, "/api/tasks/export_snapshot/run", RunTaskRequest{Format: "xml"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/tasks/unknown/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/tasks/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode[map[string]any](t, w)["status"])
}

func TestAPI_Export(t *testing.T) {
	f := setupAPI(t)
	f.createWorkout(t, "Back", "Pull Ups")

	w := f.do(t, http.MethodGet, "/api/export?format=json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".json")
	assert.Equal(t, "1", w.Header().Get("X-Export-Workouts"))

	doc, err := exporters.ReadDocument(bytes.NewReader(w.Body.Bytes()), exporters.FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Workouts, 1)
	assert.Equal(t, "Back", doc.Workouts[0].Name)

	w = f.do(t, http.MethodGet, "/api/export?format=csv", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_MiddlewareAndMetrics(t *testing.T) {
	f := setupAPI(t)

	w := f.do(t, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "6f1c2b7e-3a0d-4e5f-9b8a-1c2d3e4f5a6b")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, "6f1c2b7e-3a0d-4e5f-9b8a-1c2d3e4f5a6b", w.Header().Get(HeaderRequestID))

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.CounterRequests.WithLabelValues("GET", "/ping", "200")))

	w = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "workouts_test_server_request")
}
