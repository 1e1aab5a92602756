// Command generate_demo creates a demo database with a push/pull/legs split
// and a few weeks of training history.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db] [-weeks 4]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"

	"github.com/mrlokans/workouts/internal/database"
	"github.com/mrlokans/workouts/internal/database/completions"
	"github.com/mrlokans/workouts/internal/database/exercises"
	"github.com/mrlokans/workouts/internal/database/schedules"
	"github.com/mrlokans/workouts/internal/database/workouts"
	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/recurrence"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type workoutConfig struct {
	Name      string
	Icon      string
	Exercises []string
	// Weekday offset from the first monday of the history.
	Offset     int
	Recurrence entities.RecurrenceKind
	EveryDays  int
}

func getSplit() []workoutConfig {
	return []workoutConfig{
		{Name: "Push", Icon: "💪", Exercises: []string{"Push Ups", "Dips", "Bench Press"}, Offset: 0, Recurrence: entities.RecurrenceWeekly},
		{Name: "Pull", Icon: "🧗", Exercises: []string{"Pull Ups", "Dead Hang", "Front Lever"}, Offset: 2, Recurrence: entities.RecurrenceWeekly},
		{Name: "Legs", Icon: "🦵", Exercises: []string{"Leg Press", "Dead Lift"}, Offset: 4, Recurrence: entities.RecurrenceWeekly},
		{Name: "Skills", Icon: "🤸", Exercises: []string{"Planche", "Back Lever"}, Offset: 1, Recurrence: entities.RecurrenceEveryNDays, EveryDays: 3},
	}
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	weeks := flag.Int("weeks", 4, "weeks of history to generate")
	seed := flag.Int64("seed", 42, "random seed for the generated history")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	exerciseRepo := exercises.NewRepository(db.DB, db.Hub)
	workoutRepo := workouts.NewRepository(db.DB, db.Hub)
	scheduleRepo := schedules.NewRepository(db.DB, db.Hub)
	completionRepo := completions.NewRepository(db.DB, db.Hub)
	plans := planner.New(scheduleRepo, workoutRepo, exerciseRepo, completionRepo)

	today := recurrence.Day(time.Now())
	start := today.AddDate(0, 0, -7**weeks)
	for start.Weekday() != time.Monday {
		start = start.AddDate(0, 0, -1)
	}

	for _, cfg := range getSplit() {
		w := &entities.Workout{Name: cfg.Name, Icon: cfg.Icon}
		lines := make([]entities.WorkoutExercise, 0, len(cfg.Exercises))
		for i, name := range cfg.Exercises {
			e, err := exerciseRepo.FindByName(ctx, name)
			if err != nil || e == nil {
				log.Fatalf("Failed to find exercise %s: %v", name, err)
			}
			lines = append(lines, entities.WorkoutExercise{ExerciseID: e.ID, ExerciseLine: entities.LineFor(e, i)})
		}
		if err := workoutRepo.InsertWithExercises(ctx, w, lines); err != nil {
			log.Fatalf("Failed to save workout %s: %v", cfg.Name, err)
		}

		schedule := &entities.Schedule{
			WorkoutID:  w.ID,
			StartDate:  datatypes.Date(start.AddDate(0, 0, cfg.Offset)),
			Recurrence: cfg.Recurrence,
		}
		if cfg.Recurrence == entities.RecurrenceEveryNDays {
			every := cfg.EveryDays
			schedule.OffsetDays = &every
		}
		if err := scheduleRepo.Insert(ctx, schedule); err != nil {
			log.Fatalf("Failed to schedule workout %s: %v", cfg.Name, err)
		}
		log.Printf("Saved: %s (%d exercises, %s)", cfg.Name, len(lines), cfg.Recurrence)
	}

	completed := addHistory(ctx, gofakeit.New(*seed), plans, completionRepo, start, today)
	log.Printf("Demo database generated successfully with %d completed workouts", completed)
}

// addHistory completes most of the planned workouts between from and
// until (exclusive), varying the reps a little from session to session.
func addHistory(ctx context.Context, faker *gofakeit.Faker, plans *planner.Planner, store *completions.Repository, from, until time.Time) int {
	count := 0
	for day := from; day.Before(until); day = day.AddDate(0, 0, 1) {
		plan, err := plans.PlanFor(ctx, day)
		if err != nil {
			log.Fatalf("Failed to plan %s: %v", day.Format(time.DateOnly), err)
		}

		for _, entry := range plan.Entries {
			// Skip roughly one session in five.
			if faker.Float64() < 0.2 {
				continue
			}

			snapshot := planner.Snapshot(entry.Exercises)
			for i := range snapshot {
				for j := range snapshot[i].Sets {
					set := &snapshot[i].Sets[j]
					set.Value = max(1, set.Value+faker.IntRange(-2, 2))
				}
			}

			record := &entities.CompletedWorkout{
				WorkoutID:     entry.Workout.ID,
				ScheduledDate: datatypes.Date(day),
				CompletedAt:   day.Add(time.Duration(faker.IntRange(6*60, 21*60)) * time.Minute).UTC(),
			}
			if err := store.InsertWithExercises(ctx, record, snapshot); err != nil {
				log.Printf("Failed to complete %s on %s: %v", entry.Workout.Name, day.Format(time.DateOnly), err)
				continue
			}
			count++
		}
	}
	return count
}
