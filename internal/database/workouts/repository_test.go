package workouts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/workouts/internal/database"
	"github.com/mrlokans/workouts/internal/database/dberr"
	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/validation"
)

type fixture struct {
	repo      *Repository
	db        *database.Database
	exercises []entities.Exercise
}

func setupTestDB(t *testing.T) *fixture {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "workouts.db")

	db, err := database.NewDatabase(dbPath, database.WithLogger(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var seeded []entities.Exercise
	require.NoError(t, db.DB.Order("id").Find(&seeded).Error)
	require.NotEmpty(t, seeded)

	return &fixture{repo: NewRepository(db.DB, db.Hub), db: db, exercises: seeded}
}

func (f *fixture) line(i, order int) entities.WorkoutExercise {
	e := f.exercises[i]
	return entities.WorkoutExercise{ExerciseID: e.ID, ExerciseLine: entities.LineFor(&e, order)}
}

func (f *fixture) countLines(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.DB.Model(&entities.WorkoutExercise{}).Count(&count).Error)
	return count
}

func TestRepository_InsertWithExercises(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	workout := &entities.Workout{Name: "Push Day", Icon: "dumbbell"}
	lines := []entities.WorkoutExercise{f.line(1, 0), f.line(2, 1), f.line(4, 2)}

	require.NoError(t, f.repo.InsertWithExercises(ctx, workout, lines))
	assert.NotZero(t, workout.ID)

	stored, err := f.repo.Get(ctx, workout.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Push Day", stored.Name)
	require.Len(t, stored.Exercises, 3)
	for i, line := range stored.Exercises {
		assert.Equal(t, i, line.OrderIndex)
		assert.Equal(t, workout.ID, line.WorkoutID)
		assert.Equal(t, lines[i].ExerciseID, line.ExerciseID)
	}
	assert.Equal(t, entities.ExerciseModeReps, stored.Exercises[0].Mode)
}

func TestRepository_InsertWithExercises_IsAtomic(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	broken := f.line(1, 1)
	broken.ExerciseID = 999999

	workout := &entities.Workout{Name: "Half Built"}
	lines := []entities.WorkoutExercise{f.line(0, 0), broken, f.line(2, 2)}

	err := f.repo.InsertWithExercises(ctx, workout, lines)
	require.ErrorIs(t, err, dberr.ErrMissingReference)

	assert.Zero(t, workout.ID)
	for _, line := range lines {
		assert.Zero(t, line.ID)
	}
	assert.Zero(t, f.countLines(t))

	found, err := f.repo.FindByName(ctx, "Half Built")
	require.NoError(t, err)
	assert.Nil(t, found)

	all, err := f.repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepository_InsertWithExercises_ValidatesFirst(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	bad := f.line(0, 1)
	bad.Sets = nil

	err := f.repo.InsertWithExercises(ctx, &entities.Workout{Name: "Legs"}, []entities.WorkoutExercise{f.line(1, 0), bad})
	verr, ok := validation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "sets", verr.Field)

	err = f.repo.InsertWithExercises(ctx, &entities.Workout{Name: ""}, nil)
	verr, ok = validation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "name", verr.Field)

	assert.Zero(t, f.countLines(t))
}

func TestRepository_CRUD(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	workout := &entities.Workout{Name: "Pull"}
	require.NoError(t, f.repo.Insert(ctx, workout))

	assert.ErrorIs(t, f.repo.Insert(ctx, &entities.Workout{Name: "pull"}), dberr.ErrDuplicate)

	exists, err := f.repo.NameExists(ctx, "PULL", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.repo.NameExists(ctx, "PULL", &workout.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	workout.Name = "Pull Heavy"
	workout.Icon = "bar"
	require.NoError(t, f.repo.Update(ctx, workout))
	stored, err := f.repo.Get(ctx, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, "bar", stored.Icon)

	assert.ErrorIs(t, f.repo.Update(ctx, &entities.Workout{ID: 777, Name: "Ghost"}), dberr.ErrNotFound)

	require.NoError(t, f.repo.Disable(ctx, workout.ID))
	enabled, err := f.repo.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Empty(t, enabled)
	require.NoError(t, f.repo.Enable(ctx, workout.ID))
	enabled, err = f.repo.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Len(t, enabled, 1)

	require.NoError(t, f.repo.Delete(ctx, workout.ID))
	gone, err := f.repo.Get(ctx, workout.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRepository_Delete_Restricted(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	t.Run("by its own exercise lines", func(t *testing.T) {
		workout := &entities.Workout{Name: "Lined"}
		require.NoError(t, f.repo.InsertWithExercises(ctx, workout, []entities.WorkoutExercise{f.line(0, 0)}))

		assert.ErrorIs(t, f.repo.Delete(ctx, workout.ID), dberr.ErrInUse)

		require.NoError(t, f.repo.DeleteWithExercises(ctx, workout.ID))
		gone, err := f.repo.Get(ctx, workout.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("by a schedule", func(t *testing.T) {
		workout := &entities.Workout{Name: "Scheduled"}
		require.NoError(t, f.repo.InsertWithExercises(ctx, workout, []entities.WorkoutExercise{f.line(0, 0)}))

		schedule := entities.Schedule{
			WorkoutID:  workout.ID,
			StartDate:  datatypes.Date(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)),
			Recurrence: entities.RecurrenceWeekly,
		}
		require.NoError(t, f.db.DB.Create(&schedule).Error)

		assert.ErrorIs(t, f.repo.DeleteWithExercises(ctx, workout.ID), dberr.ErrInUse)

		stored, err := f.repo.Get(ctx, workout.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Len(t, stored.Exercises, 1, "lines must survive the aborted delete")
	})
}

func TestRepository_ExerciseLines(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	workout := &entities.Workout{Name: "Full Body"}
	require.NoError(t, f.repo.Insert(ctx, workout))

	var ids []uint
	for i := 0; i < 3; i++ {
		line := f.line(i, i)
		line.WorkoutID = workout.ID
		require.NoError(t, f.repo.AddExercise(ctx, &line))
		ids = append(ids, line.ID)
	}

	t.Run("add validates", func(t *testing.T) {
		line := f.line(0, -1)
		line.WorkoutID = workout.ID
		verr, ok := validation.AsError(f.repo.AddExercise(ctx, &line))
		require.True(t, ok)
		assert.Equal(t, "orderIndex", verr.Field)

		line = f.line(0, 3)
		line.WorkoutID = workout.ID
		rest := -3
		line.RestAfter = &rest
		verr, ok = validation.AsError(f.repo.AddExercise(ctx, &line))
		require.True(t, ok)
		assert.Equal(t, "rest", verr.Field)
	})

	t.Run("update", func(t *testing.T) {
		line, err := f.repo.GetExercise(ctx, ids[1])
		require.NoError(t, err)
		zero := 0
		line.RestAfter = &zero
		line.Sets = entities.UniformSets(5, 5, 100, 180)
		require.NoError(t, f.repo.UpdateExercise(ctx, line))

		stored, err := f.repo.GetExercise(ctx, ids[1])
		require.NoError(t, err)
		assert.Nil(t, stored.RestAfter)
		assert.Len(t, stored.Sets, 5)

		line.ID = 98765
		assert.ErrorIs(t, f.repo.UpdateExercise(ctx, line), dberr.ErrNotFound)
	})

	t.Run("reorder", func(t *testing.T) {
		require.NoError(t, f.repo.ReorderExercises(ctx, workout.ID, []uint{ids[2], ids[0], ids[1]}))

		lines, err := f.repo.ListExercises(ctx, workout.ID)
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Equal(t, []uint{ids[2], ids[0], ids[1]}, []uint{lines[0].ID, lines[1].ID, lines[2].ID})
		for i, line := range lines {
			assert.Equal(t, i, line.OrderIndex)
		}
	})

	t.Run("reorder is atomic", func(t *testing.T) {
		other := &entities.Workout{Name: "Other"}
		stranger := f.line(5, 0)
		require.NoError(t, f.repo.InsertWithExercises(ctx, other, []entities.WorkoutExercise{stranger}))

		err := f.repo.ReorderExercises(ctx, workout.ID, []uint{ids[0], other.Exercises[0].ID, ids[1]})
		verr, ok := validation.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "order", verr.Field)

		err = f.repo.ReorderExercises(ctx, workout.ID, []uint{ids[0], ids[1], ids[2], other.Exercises[0].ID})
		verr, ok = validation.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "order", verr.Field)

		lines, err := f.repo.ListExercises(ctx, workout.ID)
		require.NoError(t, err)
		assert.Equal(t, ids[2], lines[0].ID, "positions must be unchanged")

		_, ok = validation.AsError(f.repo.ReorderExercises(ctx, workout.ID, []uint{ids[0], ids[0]}))
		assert.True(t, ok)
	})

	t.Run("reorder must list every line", func(t *testing.T) {
		err := f.repo.ReorderExercises(ctx, workout.ID, []uint{ids[2]})
		verr, ok := validation.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "order", verr.Field)

		lines, err := f.repo.ListExercises(ctx, workout.ID)
		require.NoError(t, err)
		require.Len(t, lines, 3)
		for i, line := range lines {
			assert.Equal(t, i, line.OrderIndex)
		}
		assert.Equal(t, []uint{ids[2], ids[0], ids[1]}, []uint{lines[0].ID, lines[1].ID, lines[2].ID})

		empty := &entities.Workout{Name: "Empty"}
		require.NoError(t, f.repo.Insert(ctx, empty))
		assert.NoError(t, f.repo.ReorderExercises(ctx, empty.ID, nil))
	})

	t.Run("remove and clear", func(t *testing.T) {
		require.NoError(t, f.repo.RemoveExercise(ctx, ids[0]))
		lines, err := f.repo.ListExercises(ctx, workout.ID)
		require.NoError(t, err)
		assert.Len(t, lines, 2)

		require.NoError(t, f.repo.ClearExercises(ctx, workout.ID))
		lines, err = f.repo.ListExercises(ctx, workout.ID)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestRepository_WatchExercises(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	workout := &entities.Workout{Name: "Watched"}
	require.NoError(t, f.repo.Insert(ctx, workout))

	stream := f.repo.WatchExercises(ctx, workout.ID)
	defer stream.Close()
	assert.Empty(t, <-stream.Updates())

	line := f.line(3, 0)
	line.WorkoutID = workout.ID
	require.NoError(t, f.repo.AddExercise(ctx, &line))

	select {
	case lines := <-stream.Updates():
		require.Len(t, lines, 1)
		assert.Equal(t, line.ID, lines[0].ID)
	case <-time.After(time.Second):
		t.Fatal("no update after add")
	}
}
