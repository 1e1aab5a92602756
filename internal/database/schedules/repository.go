// Package schedules provides database operations for schedules, their
// per-date overrides and the exercise lines those overrides carry.
//
// Which schedules occur on a date is computed by the recurrence package over
// every stored schedule, not by a stored query. Overrides are keyed by
// schedule and calendar day; deleting a schedule removes its overrides and
// their exercise lines through cascading foreign keys.
//
// # Usage
//
//	repo := schedules.NewRepository(db.DB, db.Hub)
//	today, err := repo.ListOccurringOn(ctx, time.Now())
//	line, err := repo.AddAsNew(ctx, override.ID, exerciseID, entities.LineFor(&exercise, 2))
package schedules

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

// Repository handles schedule, override and override exercise operations.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
}

// NewRepository creates a new schedule repository.
func NewRepository(db *gorm.DB, hub *watch.Hub) *Repository {
	return &Repository{db: db, hub: hub}
}

func dateOf(t time.Time) datatypes.Date {
	return datatypes.Date(recurrence.Day(t))
}

// ListAll returns every schedule by start date.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Schedule, error) {
	var schedules []entities.Schedule
	err := r.db.WithContext(ctx).
		Order("start_date ASC, id ASC").
		Find(&schedules).Error
	return schedules, err
}

// Get returns the schedule with id, or nil if there is none.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Schedule, error) {
	var schedule entities.Schedule
	err := r.db.WithContext(ctx).First(&schedule, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *Repository) ListForWorkout(ctx context.Context, workoutID uint) ([]entities.Schedule, error) {
	var schedules []entities.Schedule
	err := r.db.WithContext(ctx).
		Where("workout_id = ?", workoutID).
		Order("start_date ASC, id ASC").
		Find(&schedules).Error
	return schedules, err
}

// ListOccurringOn returns the schedules whose recurrence produces an
// occurrence on the calendar day of date.
func (r *Repository) ListOccurringOn(ctx context.Context, date time.Time) ([]entities.Schedule, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	occurring := make([]entities.Schedule, 0, len(all))
	for _, schedule := range all {
		if recurrence.OccursOn(schedule.Start(), schedule.Recurrence, schedule.OffsetDays, date) {
			occurring = append(occurring, schedule)
		}
	}
	return occurring, nil
}

func prepareSchedule(schedule *entities.Schedule) error {
	if err := validation.ValidateRecurrence(schedule.Recurrence); err != nil {
		return err
	}
	if err := validation.ValidateOffsetDays(schedule.Recurrence, schedule.OffsetDays); err != nil {
		return err
	}
	schedule.StartDate = dateOf(schedule.Start())
	return nil
}

// Insert validates and stores a new schedule. Offset days are kept as given
// for recurrence kinds that ignore them.
func (r *Repository) Insert(ctx context.Context, schedule *entities.Schedule) error {
	if err := prepareSchedule(schedule); err != nil {
		return err
	}

	schedule.ID = 0
	if err := r.db.WithContext(ctx).Create(schedule).Error; err != nil {
		schedule.ID = 0
		return dberr.Write("insert schedule", err)
	}

	r.hub.Notify(entities.TableSchedules)
	return nil
}

func (r *Repository) Update(ctx context.Context, schedule *entities.Schedule) error {
	if err := prepareSchedule(schedule); err != nil {
		return err
	}
	if schedule.ID == 0 {
		return dberr.NotFound("update schedule")
	}

	result := r.db.WithContext(ctx).
		Model(schedule).
		Select("*").
		Omit("id", "created_at").
		Updates(schedule)
	if result.Error != nil {
		return dberr.Write("update schedule", result.Error)
	}
	if result.RowsAffected == 0 {
		return dberr.NotFound("update schedule")
	}

	r.hub.Notify(entities.TableSchedules)
	return nil
}

// Delete removes a schedule together with its overrides and their lines.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Schedule{}, id)
	if result.Error != nil {
		return dberr.Delete("delete schedule", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(entities.TableSchedules, entities.TableScheduleOverrides, entities.TableOverrideExercises)
	}
	return nil
}

// GetOverride returns the override of scheduleID for the day of date with
// its exercise lines, or nil if that day is not overridden.
func (r *Repository) GetOverride(ctx context.Context, scheduleID uint, date time.Time) (*entities.ScheduleOverride, error) {
	var override entities.ScheduleOverride
	err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND date = ?", scheduleID, dateOf(date)).
		First(&override).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	override.Exercises, err = r.ListOverrideExercises(ctx, override.ID)
	if err != nil {
		return nil, err
	}
	return &override, nil
}

// ListOverridesForSchedule returns every override of a schedule by date,
// without their lines.
func (r *Repository) ListOverridesForSchedule(ctx context.Context, scheduleID uint) ([]entities.ScheduleOverride, error) {
	var overrides []entities.ScheduleOverride
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("date ASC").
		Find(&overrides).Error
	return overrides, err
}

// ListOverridesOn returns every override for the calendar day of date with
// its lines, whichever schedule it belongs to.
func (r *Repository) ListOverridesOn(ctx context.Context, date time.Time) ([]entities.ScheduleOverride, error) {
	var overrides []entities.ScheduleOverride
	err := r.db.WithContext(ctx).
		Where("date = ?", dateOf(date)).
		Order("schedule_id ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}

	for i := range overrides {
		overrides[i].Exercises, err = r.ListOverrideExercises(ctx, overrides[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return overrides, nil
}

// InsertOverride stores an empty override. A second override for the same
// schedule and day fails with dberr.ErrDuplicate.
func (r *Repository) InsertOverride(ctx context.Context, override *entities.ScheduleOverride) error {
	override.ID = 0
	override.Date = dateOf(time.Time(override.Date))
	if err := r.db.WithContext(ctx).Create(override).Error; err != nil {
		override.ID = 0
		return dberr.Write("insert schedule override", err)
	}

	r.hub.Notify(entities.TableScheduleOverrides)
	return nil
}

// InsertOverrideWithExercises stores an override and all of its lines in
// one transaction.
func (r *Repository) InsertOverrideWithExercises(ctx context.Context, override *entities.ScheduleOverride, exercises []entities.OverrideExercise) error {
	for i := range exercises {
		if err := prepareOverrideExercise(&exercises[i]); err != nil {
			return err
		}
	}

	override.ID = 0
	override.Date = dateOf(time.Time(override.Date))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(override).Error; err != nil {
			return dberr.Write("insert schedule override", err)
		}
		for i := range exercises {
			exercises[i].ID = 0
			exercises[i].OverrideID = override.ID
			if err := tx.Create(&exercises[i]).Error; err != nil {
				return dberr.Write("insert override exercise", err)
			}
		}
		return nil
	})
	if err != nil {
		override.ID = 0
		for i := range exercises {
			exercises[i].ID = 0
			exercises[i].OverrideID = 0
		}
		return err
	}

	override.Exercises = exercises
	r.hub.Notify(entities.TableScheduleOverrides, entities.TableOverrideExercises)
	return nil
}

// DeleteOverride removes the override of scheduleID for the day of date,
// if any, along with its lines.
func (r *Repository) DeleteOverride(ctx context.Context, scheduleID uint, date time.Time) error {
	result := r.db.WithContext(ctx).
		Where("schedule_id = ? AND date = ?", scheduleID, dateOf(date)).
		Delete(&entities.ScheduleOverride{})
	if result.Error != nil {
		return dberr.Delete("delete schedule override", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(entities.TableScheduleOverrides, entities.TableOverrideExercises)
	}
	return nil
}

func prepareOverrideExercise(exercise *entities.OverrideExercise) error {
	if err := validation.ValidateLine(&exercise.ExerciseLine); err != nil {
		return err
	}
	return validation.ValidateXor("exerciseId", exercise.ExerciseID, "workoutExerciseId", exercise.WorkoutExerciseID)
}

func (r *Repository) addOverrideExercise(ctx context.Context, exercise *entities.OverrideExercise) error {
	if err := prepareOverrideExercise(exercise); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(exercise).Error; err != nil {
		exercise.ID = 0
		return dberr.Write("add override exercise", err)
	}

	r.hub.Notify(entities.TableOverrideExercises)
	return nil
}

// AddFromWorkoutExercise carries a template line over into an override.
func (r *Repository) AddFromWorkoutExercise(ctx context.Context, overrideID, workoutExerciseID uint, line entities.ExerciseLine) (*entities.OverrideExercise, error) {
	exercise := &entities.OverrideExercise{
		OverrideID:        overrideID,
		WorkoutExerciseID: &workoutExerciseID,
		ExerciseLine:      line,
	}
	if err := r.addOverrideExercise(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// AddAsNew adds an exercise that exists only on the overridden day.
func (r *Repository) AddAsNew(ctx context.Context, overrideID, exerciseID uint, line entities.ExerciseLine) (*entities.OverrideExercise, error) {
	exercise := &entities.OverrideExercise{
		OverrideID:   overrideID,
		ExerciseID:   &exerciseID,
		ExerciseLine: line,
	}
	if err := r.addOverrideExercise(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// UpdateOverrideExercise re-validates the whole line, including which of
// its two references is set, and replaces it.
func (r *Repository) UpdateOverrideExercise(ctx context.Context, exercise *entities.OverrideExercise) error {
	if err := prepareOverrideExercise(exercise); err != nil {
		return err
	}
	if exercise.ID == 0 {
		return dberr.NotFound("update override exercise")
	}

	result := r.db.WithContext(ctx).
		Model(exercise).
		Select("*").
		Omit("id").
		Updates(exercise)
	if result.Error != nil {
		return dberr.Write("update override exercise", result.Error)
	}
	if result.RowsAffected == 0 {
		return dberr.NotFound("update override exercise")
	}

	r.hub.Notify(entities.TableOverrideExercises)
	return nil
}

func (r *Repository) RemoveOverrideExercise(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.OverrideExercise{}, id)
	if result.Error != nil {
		return dberr.Delete("remove override exercise", result.Error)
	}
	if result.RowsAffected > 0 {
		r.hub.Notify(entities.TableOverrideExercises)
	}
	return nil
}

// ListOverrideExercises returns an override's lines by position.
func (r *Repository) ListOverrideExercises(ctx context.Context, overrideID uint) ([]entities.OverrideExercise, error) {
	var exercises []entities.OverrideExercise
	err := r.db.WithContext(ctx).
		Where("override_id = ?", overrideID).
		Order("order_index ASC, id ASC").
		Find(&exercises).Error
	return exercises, err
}

// WatchAll streams ListAll.
func (r *Repository) WatchAll(ctx context.Context) *watch.Stream[[]entities.Schedule] {
	return watch.Query(ctx, r.hub, []string{entities.TableSchedules}, r.ListAll)
}

// WatchOccurringOn streams ListOccurringOn for a fixed date.
func (r *Repository) WatchOccurringOn(ctx context.Context, date time.Time) *watch.Stream[[]entities.Schedule] {
	day := recurrence.Day(date)
	return watch.Query(ctx, r.hub, []string{entities.TableSchedules}, func(ctx context.Context) ([]entities.Schedule, error) {
		return r.ListOccurringOn(ctx, day)
	})
}

// WatchOverrideExercises streams the lines of one override.
func (r *Repository) WatchOverrideExercises(ctx context.Context, overrideID uint) *watch.Stream[[]entities.OverrideExercise] {
	return watch.Query(ctx, r.hub, []string{entities.TableOverrideExercises}, func(ctx context.Context) ([]entities.OverrideExercise, error) {
		return r.ListOverrideExercises(ctx, overrideID)
	})
}
