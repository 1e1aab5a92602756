// Package mcp exposes the workout plan to MCP clients: the exercise library,
// the workout templates and the plan of a day, plus marking a planned
// workout as done.
package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/planner"
)

type ExerciseLister interface {
	ListEnabled(ctx context.Context) ([]entities.Exercise, error)
	ListAll(ctx context.Context) ([]entities.Exercise, error)
}

type WorkoutReader interface {
	ListEnabled(ctx context.Context) ([]entities.Workout, error)
	Get(ctx context.Context, id uint) (*entities.Workout, error)
}

type CompletionChecker interface {
	IsCompleted(ctx context.Context, workoutID uint, date time.Time) (bool, error)
}

type DayPlanner interface {
	PlanFor(ctx context.Context, date time.Time) (*planner.Plan, error)
	Complete(ctx context.Context, workoutID uint, date time.Time) (*entities.CompletedWorkout, error)
}

// Deps are the stores the tools read from and write to.
type Deps struct {
	Exercises   ExerciseLister
	Workouts    WorkoutReader
	Completions CompletionChecker
	Planner     DayPlanner
	// Today resolves the calendar day used when a tool gets no date.
	Today func() time.Time
}

// NewServer builds an MCP server with the workout tools and the
// plan://today resource.
func NewServer(deps Deps, version string) *mcp.Server {
	h := NewHandler(deps)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "workouts",
		Version: version,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_exercises",
		Description: "Returns the exercise library (id, name, mode, default sets). Disabled exercises are left out unless include_disabled is set.",
	}, h.ListExercisesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_workouts",
		Description: "Returns the enabled workout templates with their ordered exercise lines.",
	}, h.ListWorkoutsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_plan",
		Description: "Returns the workouts planned on a day (YYYY-MM-DD, default today), the exercises each will run and whether it is already done.",
	}, h.GetPlanTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "complete_workout",
		Description: "Marks a workout planned on a day (YYYY-MM-DD, default today) as done, recording the exercises it was planned with.",
	}, h.CompleteWorkoutTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "is_completed",
		Description: "Reports whether a workout was completed on a day (YYYY-MM-DD, default today).",
	}, h.IsCompletedTool())

	s.AddResource(&mcp.Resource{
		URI:         TodayPlanURI,
		Name:        "Today's plan",
		Description: "Workouts planned today and their exercises",
		MIMEType:    "application/json",
	}, h.TodayPlanResource())

	return s
}
