// Package completions provides database operations for the workout history:
// completed workouts and the exercise snapshots recorded with them.
//
// A workout occurrence counts as completed when exactly one record exists
// for its workout and scheduled day. Deleting a record removes its exercise
// snapshots through a cascading foreign key.
//
// # Usage
//
//	repo := completions.NewRepository(db.DB, db.Hub)
//	err := repo.InsertWithExercises(ctx, &completed, performed)
//	done, err := repo.IsCompleted(ctx, workoutID, day)
package completions

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mrlokans/workouts/internal/database/dberr"
	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/recurrence"
	"github.com/mrlokans/workouts/internal/validation"
	"github.com/mrlokans/workouts/internal/watch"
)

// Repository handles all completion history operations.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
}

// NewRepository creates a new completion repository.
func NewRepository(db *gorm.DB, hub *watch.Hub) *Repository {
	return &Repository{db: db, hub: hub}
}

// dayRange returns the bounds of the calendar day of t, end exclusive.
func dayRange(t time.Time) (datatypes.Date, datatypes.Date) {
	day := recurrence.Day(t)
	return datatypes.Date(day), datatypes.Date(day.AddDate(0, 0, 1))
}

// ListAll returns the history, most recent day first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.CompletedWorkout, error) {
	var completed []entities.CompletedWorkout
	err := r.db.WithContext(ctx).
		Order("scheduled_date DESC, completed_at DESC, id DESC").
		Find(&completed).Error
	return completed, err
}

// Get returns the record with its exercise snapshots, or nil if there is none.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.CompletedWorkout, error) {
	var completed entities.CompletedWorkout
	err := r.db.WithContext(ctx).First(&completed, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	completed.Exercises, err = r.ListExercises(ctx, id)
	if err != nil {
		return nil, err
	}
	return &completed, nil
}

// ListForDate returns the workouts completed for the calendar day of date.
func (r *Repository) ListForDate(ctx context.Context, date time.Time) ([]entities.CompletedWorkout, error) {
	from, to := dayRange(date)

	var completed []entities.CompletedWorkout
	err := r.db.WithContext(ctx).
		Where("scheduled_date >= ? AND scheduled_date < ?", from, to).
		Order("completed_at ASC, id ASC").
		Find(&completed).Error
	return completed, err
}

// FindByWorkoutAndDate returns the record of one occurrence, or nil.
func (r *Repository) FindByWorkoutAndDate(ctx context.Context, workoutID uint, date time.Time) (*entities.CompletedWorkout, error) {
	from, to := dayRange(date)

	var completed entities.CompletedWorkout
	err := r.db.WithContext(ctx).
		Where("workout_id = ? AND scheduled_date >= ? AND scheduled_date < ?", workoutID, from, to).
		First(&completed).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &completed, nil
}

// IsCompleted reports whether the occurrence of workoutID on date has a record.
func (r *Repository) IsCompleted(ctx context.Context, workoutID uint, date time.Time) (bool, error) {
	completed, err := r.FindByWorkoutAndDate(ctx, workoutID, date)
	if err != nil {
		return false, err
	}
	return completed != nil, nil
}

func prepareCompleted(completed *entities.CompletedWorkout) {
	completed.ScheduledDate = datatypes.Date(recurrence.Day(time.Time(completed.ScheduledDate)))
	if completed.CompletedAt.IsZero() {
		completed.CompletedAt = time.Now().UTC()
	}
}

// Insert stores a bare record without exercises. A second record for the
// same workout and day fails with dberr.ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, completed *entities.CompletedWorkout) error {
	prepareCompleted(completed)

	completed.ID = 0
	if err := r.db.WithContext(ctx).Create(completed).Error; err != nil {
		completed.ID = 0
		return dberr.Write("insert completed workout", err)
	}

	r.hub.Notify(entities.TableCompletedWorkouts)
	return nil
}

// InsertWithExercises stores the record and every snapshot in one
// transaction. Snapshots are positioned 0..n-1 in slice order, whatever
// order index the caller supplied.
func (r *Repository) InsertWithExercises(ctx context.Context, completed *entities.CompletedWorkout, exercises []entities.CompletedExercise) error {
	for i := range exercises {
		exercises[i].OrderIndex = i
		if err := validation.ValidateLine(&exercises[i].ExerciseLine); err != nil {
			return err
		}
	}
	prepareCompleted(completed)

	completed.ID = 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(completed).Error; err != nil {
			return dberr.Write("insert completed workout", err)
		}
		for i := range exercises {
			exercises[i].ID = 0
			exercises[i].CompletedWorkoutID = completed.ID
			if err := tx.Create(&exercises[i]).Error; err != nil {
				return dberr.Write("insert completed exercise", err)
			}
		}
		return nil
	})
	if err != nil {
		completed.ID = 0
		for i := range exercises {
			exercises[i].ID = 0
			exercises[i].CompletedWorkoutID = 0
		}
		return err
	}

	completed.Exercises = exercises
	r.hub.Notify(entities.TableCompletedWorkouts, entities.TableCompletedExercises)
	return nil
}

// Delete removes a record and its snapshots.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.CompletedWorkout{}, id)
	if result.Error != nil {
		return dberr.Delete("delete completed workout", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(entities.TableCompletedWorkouts, entities.TableCompletedExercises)
	}
	return nil
}

// ListExercises returns a record's snapshots by position.
func (r *Repository) ListExercises(ctx context.Context, completedWorkoutID uint) ([]entities.CompletedExercise, error) {
	var exercises []entities.CompletedExercise
	err := r.db.WithContext(ctx).
		Where("completed_workout_id = ?", completedWorkoutID).
		Order("order_index ASC, id ASC").
		Find(&exercises).Error
	return exercises, err
}

func (r *Repository) AddExercise(ctx context.Context, exercise *entities.CompletedExercise) error {
	if err := validation.ValidateLine(&exercise.ExerciseLine); err != nil {
		return err
	}

	exercise.ID = 0
	if err := r.db.WithContext(ctx).Create(exercise).Error; err != nil {
		exercise.ID = 0
		return dberr.Write("add completed exercise", err)
	}

	r.hub.Notify(entities.TableCompletedExercises)
	return nil
}

func (r *Repository) UpdateExercise(ctx context.Context, exercise *entities.CompletedExercise) error {
	if err := validation.ValidateLine(&exercise.ExerciseLine); err != nil {
		return err
	}
	if exercise.ID == 0 {
		return dberr.NotFound("update completed exercise")
	}

	result := r.db.WithContext(ctx).
		Model(exercise).
		Select("*").
		Omit("id").
		Updates(exercise)
	if result.Error != nil {
		return dberr.Write("update completed exercise", result.Error)
	}
	if result.RowsAffected == 0 {
		return dberr.NotFound("update completed exercise")
	}

	r.hub.Notify(entities.TableCompletedExercises)
	return nil
}

func (r *Repository) RemoveExercise(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.CompletedExercise{}, id)
	if result.Error != nil {
		return dberr.Delete("remove completed exercise", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(entities.TableCompletedExercises)
	}
	return nil
}

// WatchAll streams ListAll.
func (r *Repository) WatchAll(ctx context.Context) *watch.Stream[[]entities.CompletedWorkout] {
	return watch.Query(ctx, r.hub, []string{entities.TableCompletedWorkouts}, r.ListAll)
}

// WatchForDate streams ListForDate for a fixed date.
func (r *Repository) WatchForDate(ctx context.Context, date time.Time) *watch.Stream[[]entities.CompletedWorkout] {
	day := recurrence.Day(date)
	return watch.Query(ctx, r.hub, []string{entities.TableCompletedWorkouts}, func(ctx context.Context) ([]entities.CompletedWorkout, error) {
		return r.ListForDate(ctx, day)
	})
}

// WatchIsCompleted streams IsCompleted for one occurrence.
func (r *Repository) WatchIsCompleted(ctx context.Context, workoutID uint, date time.Time) *watch.Stream[bool] {
	day := recurrence.Day(date)
	return watch.Query(ctx, r.hub, []string{entities.TableCompletedWorkouts}, func(ctx context.Context) (bool, error) {
		return r.IsCompleted(ctx, workoutID, day)
	})
}
