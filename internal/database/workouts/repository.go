// Package workouts provides database operations for workout templates and
// their ordered exercise lines.
//
// A workout cannot be deleted while exercise lines, schedules or completions
// reference it. Use Disable to retire a template, or DeleteWithExercises to
// remove an unscheduled template together with its lines.
//
// # Usage
//
//	repo := workouts.NewRepository(db.DB, db.Hub)
//	err := repo.InsertWithExercises(ctx, &workout, lines)
//	err = repo.ReorderExercises(ctx, workout.ID, []uint{third, first, second})
package workouts

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/workouts/internal/database/dberr"
	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/validation"
	"github.com/mrlokans/workouts/internal/watch"
)

// Repository handles all workout database operations.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
}

// NewRepository creates a new workout repository.
func NewRepository(db *gorm.DB, hub *watch.Hub) *Repository {
	return &Repository{db: db, hub: hub}
}

// ListEnabled returns the workouts that are not disabled, by name.
func (r *Repository) ListEnabled(ctx context.Context) ([]entities.Workout, error) {
	var workouts []entities.Workout
	err := r.db.WithContext(ctx).
		Where("is_disabled = ?", false).
		Order("name COLLATE NOCASE ASC").
		Find(&workouts).Error
	return workouts, err
}

// ListAll returns every workout, disabled ones included, by name.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Workout, error) {
	var workouts []entities.Workout
	err := r.db.WithContext(ctx).
		Order("name COLLATE NOCASE ASC").
		Find(&workouts).Error
	return workouts, err
}

// Get returns the workout with its exercise lines, or nil if there is none.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Workout, error) {
	var workout entities.Workout
	err := r.db.WithContext(ctx).First(&workout, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	workout.Exercises, err = r.ListExercises(ctx, id)
	if err != nil {
		return nil, err
	}
	return &workout, nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (*entities.Workout, error) {
	var workout entities.Workout
	err := r.db.WithContext(ctx).
		Where("name = ? COLLATE NOCASE", strings.TrimSpace(name)).
		Order("is_disabled ASC, id ASC").
		First(&workout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workout, nil
}

// NameExists reports whether an enabled workout already uses name,
// optionally ignoring the workout being edited.
func (r *Repository) NameExists(ctx context.Context, name string, excludeID *uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&entities.Workout{}).
		Where("name = ? COLLATE NOCASE AND is_disabled = ?", strings.TrimSpace(name), false)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func prepareWorkout(workout *entities.Workout) error {
	if err := validation.ValidateName("name", workout.Name); err != nil {
		return err
	}
	workout.Name = strings.TrimSpace(workout.Name)
	return nil
}

func (r *Repository) Insert(ctx context.Context, workout *entities.Workout) error {
	if err := prepareWorkout(workout); err != nil {
		return err
	}

	workout.ID = 0
	if err := r.db.WithContext(ctx).Create(workout).Error; err != nil {
		workout.ID = 0
		return dberr.Write("insert workout", err)
	}

	r.hub.Notify(entities.TableWorkouts)
	return nil
}

// InsertWithExercises creates a workout and all of its lines atomically.
// On failure neither the workout nor any line is stored, and IDs assigned
// during the attempt are reset.
func (r *Repository) InsertWithExercises(ctx context.Context, workout *entities.Workout, exercises []entities.WorkoutExercise) error {
	if err := prepareWorkout(workout); err != nil {
		return err
	}
	for i := range exercises {
		if err := validation.ValidateLine(&exercises[i].ExerciseLine); err != nil {
			return err
		}
	}

	workout.ID = 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workout).Error; err != nil {
			return dberr.Write("insert workout", err)
		}
		for i := range exercises {
			exercises[i].ID = 0
			exercises[i].WorkoutID = workout.ID
			if err := tx.Create(&exercises[i]).Error; err != nil {
				return dberr.Write("insert workout exercise", err)
			}
		}
		return nil
	})
	if err != nil {
		workout.ID = 0
		for i := range exercises {
			exercises[i].ID = 0
			exercises[i].WorkoutID = 0
		}
		return err
	}

	workout.Exercises = exercises
	r.hub.Notify(entities.TableWorkouts, entities.TableWorkoutExercises)
	return nil
}

// Update replaces the workout's own columns; its lines are left alone.
func (r *Repository) Update(ctx context.Context, workout *entities.Workout) error {
	if err := prepareWorkout(workout); err != nil {
		return err
	}
	if workout.ID == 0 {
		return dberr.NotFound("update workout")
	}

	result := r.db.WithContext(ctx).
		Model(workout).
		Select("*").
		Omit("id", "created_at").
		Updates(workout)
	if result.Error != nil {
		return dberr.Write("update workout", result.Error)
	}
	if result.RowsAffected == 0 {
		return dberr.NotFound("update workout")
	}

	r.hub.Notify(entities.TableWorkouts)
	return nil
}

func (r *Repository) Disable(ctx context.Context, id uint) error {
	return r.setDisabled(ctx, id, true, "disable workout")
}

func (r *Repository) Enable(ctx context.Context, id uint) error {
	return r.setDisabled(ctx, id, false, "enable workout")
}

func (r *Repository) setDisabled(ctx context.Context, id uint, disabled bool, op string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Workout{}).
		Where("id = ?", id).
		Update("is_disabled", disabled)
	if result.Error != nil {
		return dberr.Write(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return dberr.NotFound(op)
	}

	r.hub.Notify(entities.TableWorkouts)
	return nil
}

// Delete removes a workout that nothing references. Lines, schedules and
// completions all block it with dberr.ErrInUse.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Workout{}, id)
	if result.Error != nil {
		return dberr.Delete("delete workout", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(entities.TableWorkouts)
	}
	return nil
}

// DeleteWithExercises removes the workout's lines and then the workout in
// one transaction. Schedules, completions or overrides that still point at
// the workout or its lines abort the whole operation.
func (r *Repository) DeleteWithExercises(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workout_id = ?", id).Delete(&entities.WorkoutExercise{}).Error; err != nil {
			return dberr.Delete("delete workout exercises", err)
		}
		if err := tx.Delete(&entities.Workout{}, id).Error; err != nil {
			return dberr.Delete("delete workout", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.hub.Notify(entities.TableWorkouts, entities.TableWorkoutExercises)
	return nil
}

// ListExercises returns the workout's lines by position.
func (r *Repository) ListExercises(ctx context.Context, workoutID uint) ([]entities.WorkoutExercise, error) {
	var exercises []entities.WorkoutExercise
	err := r.db.WithContext(ctx).
		Where("workout_id = ?", workoutID).
		Order("order_index ASC, id ASC").
		Find(&exercises).Error
	return exercises, err
}

// GetExercise returns a single line, or nil if there is none.
func (r *Repository) GetExercise(ctx context.Context, id uint) (*entities.WorkoutExercise, error) {
	var exercise entities.WorkoutExercise
	err := r.db.WithContext(ctx).First(&exercise, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// AddExercise appends a line at its OrderIndex.
func (r *Repository) AddExercise(ctx context.Context, exercise *entities.WorkoutExercise) error {
	if err := validation.ValidateLine(&exercise.ExerciseLine); err != nil {
		return err
	}

	exercise.ID = 0
	if err := r.db.WithContext(ctx).Create(exercise).Error; err != nil {
		exercise.ID = 0
		return dberr.Write("add workout exercise", err)
	}

	r.hub.Notify(entities.TableWorkoutExercises)
	return nil
}

// UpdateExercise replaces every column of an existing line.
func (r *Repository) UpdateExercise(ctx context.Context, exercise *entities.WorkoutExercise) error {
	if err := validation.ValidateLine(&exercise.ExerciseLine); err != nil {
		return err
	}
	if exercise.ID == 0 {
		return dberr.NotFound("update workout exercise")
	}

	result := r.db.WithContext(ctx).
		Model(exercise).
		Select("*").
		Omit("id").
		Updates(exercise)
	if result.Error != nil {
		return dberr.Write("update workout exercise", result.Error)
	}
	if result.RowsAffected == 0 {
		return dberr.NotFound("update workout exercise")
	}

	r.hub.Notify(entities.TableWorkoutExercises)
	return nil
}

// RemoveExercise deletes one line. Overrides that carried it over block the
// delete with dberr.ErrInUse.
func (r *Repository) RemoveExercise(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.WorkoutExercise{}, id)
	if result.Error != nil {
		return dberr.Delete("remove workout exercise", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(entities.TableWorkoutExercises)
	}
	return nil
}

// ClearExercises deletes every line of a workout.
func (r *Repository) ClearExercises(ctx context.Context, workoutID uint) error {
	result := r.db.WithContext(ctx).Where("workout_id = ?", workoutID).Delete(&entities.WorkoutExercise{})
	if result.Error != nil {
		return dberr.Delete("clear workout exercises", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(entities.TableWorkoutExercises)
	}
	return nil
}

// ReorderExercises assigns positions 0..n-1 to lineIDs in the given order,
// in one transaction. lineIDs must name every line of workoutID exactly once.
func (r *Repository) ReorderExercises(ctx context.Context, workoutID uint, lineIDs []uint) error {
	seen := make(map[uint]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		if _, dup := seen[id]; dup {
			return &validation.Error{Field: "order", Message: "each exercise may appear only once"}
		}
		seen[id] = struct{}{}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uint
		if err := tx.Model(&entities.WorkoutExercise{}).
			Where("workout_id = ?", workoutID).
			Pluck("id", &existing).Error; err != nil {
			return err
		}
		if err := sameLines(existing, seen); err != nil {
			return err
		}

		for position, id := range lineIDs {
			result := tx.Model(&entities.WorkoutExercise{}).
				Where("id = ? AND workout_id = ?", id, workoutID).
				Update("order_index", position)
			if result.Error != nil {
				return dberr.Write("reorder workout exercises", result.Error)
			}
			if result.RowsAffected == 0 {
				return dberr.NotFound("reorder workout exercises")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.hub.Notify(entities.TableWorkoutExercises)
	return nil
}

func sameLines(existing []uint, requested map[uint]struct{}) error {
	for _, id := range existing {
		if _, ok := requested[id]; !ok {
			return &validation.Error{Field: "order", Message: "every exercise of the workout must be listed"}
		}
	}
	if len(requested) != len(existing) {
		return &validation.Error{Field: "order", Message: "exercise does not belong to this workout"}
	}
	return nil
}

// WatchEnabled streams ListEnabled.
func (r *Repository) WatchEnabled(ctx context.Context) *watch.Stream[[]entities.Workout] {
	return watch.Query(ctx, r.hub, []string{entities.TableWorkouts}, r.ListEnabled)
}

// WatchExercises streams the lines of one workout.
func (r *Repository) WatchExercises(ctx context.Context, workoutID uint) *watch.Stream[[]entities.WorkoutExercise] {
	return watch.Query(ctx, r.hub, []string{entities.TableWorkoutExercises}, func(ctx context.Context) ([]entities.WorkoutExercise, error) {
		return r.ListExercises(ctx, workoutID)
	})
}
