package planner

import (
	"context"
	"time"

	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/watch"
)

// Tables are the tables a day's plan is read from.
var Tables = []string{
	entities.TableExercises,
	entities.TableWorkouts,
	entities.TableWorkoutExercises,
	entities.TableSchedules,
	entities.TableScheduleOverrides,
	entities.TableOverrideExercises,
	entities.TableCompletedWorkouts,
	entities.TableCompletedExercises,
}

// Watch streams the plan of date, re-planning after every committed write
// to Tables.
func (p *Planner) Watch(ctx context.Context, hub *watch.Hub, date time.Time) *watch.Stream[*Plan] {
	day := date
	return watch.Query(ctx, hub, Tables, func(ctx context.Context) (*Plan, error) {
		return p.PlanFor(ctx, day)
	})
}
