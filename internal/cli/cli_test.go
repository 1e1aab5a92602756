package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/mrlokans/workouts/internal/config"
	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/entrypoint"
	"github.com/mrlokans/workouts/internal/exporters"
	"github.com/mrlokans/workouts/internal/planner"
)

var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "cli.db")
	cfg.Database.SeedDefaults = true
	cfg.Log.Level = "error"
	cfg.Export.Dir = filepath.Join(t.TempDir(), "exports")
	return cfg
}

// seedPull creates a "Pull" workout planned once on monday.
func seedPull(t *testing.T, cfg *config.Config) *entities.Workout {
	t.Helper()
	ctx := context.Background()

	app, err := entrypoint.Open(cfg)
	require.NoError(t, err)
	defer app.Close()

	e, err := app.Exercises.FindByName(ctx, "Pull Ups")
	require.NoError(t, err)
	w := &entities.Workout{Name: "Pull"}
	require.NoError(t, app.Workouts.InsertWithExercises(ctx, w, []entities.WorkoutExercise{
		{ExerciseID: e.ID, ExerciseLine: entities.LineFor(e, 0)},
	}))
	require.NoError(t, app.Schedules.Insert(ctx, &entities.Schedule{
		WorkoutID:  w.ID,
		StartDate:  datatypes.Date(monday),
		Recurrence: entities.RecurrenceOneOff,
	}))
	return w
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&state{version: "test", cfg: cfg})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestToday(t *testing.T) {
	cfg := testConfig(t)
	seedPull(t, cfg)

	out, err := run(t, cfg, "today", "--date", "2024-06-03")
	require.NoError(t, err)
	assert.Contains(t, out, "Mon 2024-06-03")
	assert.Contains(t, out, "1 planned, 0 done: Pull")
	assert.Contains(t, out, "Pull Ups")

	out, err = run(t, cfg, "today", "--date", "2024-06-04")
	require.NoError(t, err)
	assert.Contains(t, out, "rest day")

	_, err = run(t, cfg, "today", "--date", "June 3rd")
	assert.Error(t, err)
}

func TestDone(t *testing.T) {
	cfg := testConfig(t)
	pull := seedPull(t, cfg)
	id := strconv.FormatUint(uint64(pull.ID), 10)

	out, err := run(t, cfg, "done", id, "--date", "2024-06-03")
	require.NoError(t, err)
	assert.Contains(t, out, "Completed workout "+id+" on 2024-06-03")

	out, err = run(t, cfg, "today", "--date", "2024-06-03")
	require.NoError(t, err)
	assert.Contains(t, out, "1 planned, 1 done: Pull (done)")

	_, err = run(t, cfg, "done", id, "--date", "2024-06-05")
	assert.ErrorIs(t, err, planner.ErrNotPlanned)

	_, err = run(t, cfg, "done", "abc")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	cfg := testConfig(t)
	pull := seedPull(t, cfg)
	_, err := run(t, cfg, "done", strconv.FormatUint(uint64(pull.ID), 10), "--date", "2024-06-03")
	require.NoError(t, err)

	t.Run("yaml snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backup.yaml")
		out, err := run(t, cfg, "export", "--format", "yaml", "-o", path)
		require.NoError(t, err)
		assert.Contains(t, out, "1 workouts, 1 schedules, 1 completions")

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		doc, err := exporters.ReadDocument(f, exporters.FormatYAML)
		require.NoError(t, err)
		require.Len(t, doc.Workouts, 1)
		assert.Equal(t, "Pull", doc.Workouts[0].Name)
	})

	t.Run("json to stdout", func(t *testing.T) {
		out, err := run(t, cfg, "export")
		require.NoError(t, err)
		doc, err := exporters.ReadDocument(bytes.NewBufferString(out), exporters.FormatJSON)
		require.NoError(t, err)
		assert.Len(t, doc.Completions, 1)
	})

	t.Run("markdown", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "log")
		out, err := run(t, cfg, "export", "--format", "markdown", "-o", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "Exported 1 training days")
		assert.FileExists(t, filepath.Join(dir, "2024-06-03.md"))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := run(t, cfg, "export", "--format", "csv")
		assert.Error(t, err)
	})
}

// signalWriter buffers output and signals every write.
type signalWriter struct {
	bytes.Buffer
	wrote chan struct{}
}

func (w *signalWriter) Write(p []byte) (int, error) {
	n, err := w.Buffer.Write(p)
	select {
	case w.wrote <- struct{}{}:
	default:
	}
	return n, err
}

func TestWatchPlan(t *testing.T) {
	cfg := testConfig(t)
	seedPull(t, cfg)

	app, err := entrypoint.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &signalWriter{wrote: make(chan struct{}, 1)}
	done := make(chan error, 1)
	stream := app.Planner.Watch(ctx, app.DB.Hub, monday)
	go func() { done <- watchPlan(ctx, out, stream) }()

	select {
	case <-out.wrote:
	case <-time.After(5 * time.Second):
		t.Fatal("no plan printed")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Contains(t, out.String(), "1 planned, 0 done: Pull")
}
