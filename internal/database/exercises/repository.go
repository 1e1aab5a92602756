// Package exercises provides database operations for exercise definitions.
//
// Disabling an exercise hides it from pickers but keeps it available to the
// templates and history that reference it. Hard deletes are refused by the
// store while anything still points at the exercise.
//
// # Usage
//
//	repo := exercises.NewRepository(db.DB, db.Hub)
//	list, err := repo.ListEnabled(ctx)
//	err = repo.Delete(ctx, id) // errors.Is(err, dberr.ErrInUse) when referenced
package exercises

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

var tables = []string{entities.TableExercises}

// Repository handles all exercise database operations.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
}

// NewRepository creates a new exercise repository.
func NewRepository(db *gorm.DB, hub *watch.Hub) *Repository {
	return &Repository{db: db, hub: hub}
}

// ListEnabled returns exercises that are not disabled, by name.
func (r *Repository) ListEnabled(ctx context.Context) ([]entities.Exercise, error) {
	var exercises []entities.Exercise
	err := r.db.WithContext(ctx).
		Where("is_disabled = ?", false).
		Order("name COLLATE NOCASE ASC").
		Find(&exercises).Error
	return exercises, err
}

// ListAll returns every exercise, disabled ones included, by name.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Exercise, error) {
	var exercises []entities.Exercise
	err := r.db.WithContext(ctx).
		Order("name COLLATE NOCASE ASC").
		Find(&exercises).Error
	return exercises, err
}

// ListCustom returns user-created exercises only.
func (r *Repository) ListCustom(ctx context.Context) ([]entities.Exercise, error) {
	var exercises []entities.Exercise
	err := r.db.WithContext(ctx).
		Where("is_default = ?", false).
		Order("name COLLATE NOCASE ASC").
		Find(&exercises).Error
	return exercises, err
}

// Get returns the exercise with id, or nil if there is none.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Exercise, error) {
	var exercise entities.Exercise
	err := r.db.WithContext(ctx).First(&exercise, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// FindByName looks an exercise up case-insensitively, preferring an enabled
// one over disabled namesakes.
func (r *Repository) FindByName(ctx context.Context, name string) (*entities.Exercise, error) {
	var exercise entities.Exercise
	err := r.db.WithContext(ctx).
		Where("name = ? COLLATE NOCASE", strings.TrimSpace(name)).
		Order("is_disabled ASC, id ASC").
		First(&exercise).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// NameExists reports whether an enabled exercise already uses name.
// excludeID, when set, skips that exercise so it can keep its own name.
func (r *Repository) NameExists(ctx context.Context, name string, excludeID *uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&entities.Exercise{}).
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

func prepare(exercise *entities.Exercise) error {
	if err := validation.ValidateName("name", exercise.Name); err != nil {
		return err
	}
	if err := validation.ValidateMode(exercise.Mode); err != nil {
		return err
	}
	if err := validation.ValidateSets(exercise.Sets); err != nil {
		return err
	}
	rest, err := validation.ValidateRest(exercise.DefaultRestAfter)
	if err != nil {
		return err
	}

	exercise.Name = strings.TrimSpace(exercise.Name)
	exercise.DefaultRestAfter = rest
	exercise.NormalizeDefaults()
	return nil
}

// Insert validates and stores a new exercise, setting its ID.
func (r *Repository) Insert(ctx context.Context, exercise *entities.Exercise) error {
	if err := prepare(exercise); err != nil {
		return err
	}

	exercise.ID = 0
	if err := r.db.WithContext(ctx).Create(exercise).Error; err != nil {
		exercise.ID = 0
		return dberr.Write("insert exercise", err)
	}

	r.hub.Notify(tables...)
	return nil
}

// Update replaces every column of an existing exercise.
func (r *Repository) Update(ctx context.Context, exercise *entities.Exercise) error {
	if err := prepare(exercise); err != nil {
		return err
	}
	if exercise.ID == 0 {
		return dberr.NotFound("update exercise")
	}

	result := r.db.WithContext(ctx).
		Model(exercise).
		Select("*").
		Omit("id", "created_at").
		Updates(exercise)
	if result.Error != nil {
		return dberr.Write("update exercise", result.Error)
	}
	if result.RowsAffected == 0 {
		return dberr.NotFound("update exercise")
	}

	r.hub.Notify(tables...)
	return nil
}

// Disable hides an exercise without deleting it.
func (r *Repository) Disable(ctx context.Context, id uint) error {
	return r.setDisabled(ctx, id, true, "disable exercise")
}

// Enable makes a disabled exercise available again. It fails with
// dberr.ErrDuplicate if another enabled exercise took its name meanwhile.
func (r *Repository) Enable(ctx context.Context, id uint) error {
	return r.setDisabled(ctx, id, false, "enable exercise")
}

func (r *Repository) setDisabled(ctx context.Context, id uint, disabled bool, op string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Exercise{}).
		Where("id = ?", id).
		Update("is_disabled", disabled)
	if result.Error != nil {
		return dberr.Write(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return dberr.NotFound(op)
	}

	r.hub.Notify(tables...)
	return nil
}

// Delete removes an exercise for good. The store rejects the delete with
// dberr.ErrInUse while any workout, override or completion references it.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Exercise{}, id)
	if result.Error != nil {
		return dberr.Delete("delete exercise", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(tables...)
	}
	return nil
}

// WatchEnabled streams ListEnabled.
func (r *Repository) WatchEnabled(ctx context.Context) *watch.Stream[[]entities.Exercise] {
	return watch.Query(ctx, r.hub, tables, r.ListEnabled)
}

// WatchAll streams ListAll.
func (r *Repository) WatchAll(ctx context.Context) *watch.Stream[[]entities.Exercise] {
	return watch.Query(ctx, r.hub, tables, r.ListAll)
}
