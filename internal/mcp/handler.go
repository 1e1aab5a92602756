package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/recurrence"
)

const TodayPlanURI = "plan://today"

// Handler turns tool calls into store reads and writes and renders the
// results as JSON text.
type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Today == nil {
		deps.Today = func() time.Time { return recurrence.Day(time.Now()) }
	}
	return &Handler{deps: deps}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

// day parses a YYYY-MM-DD date, defaulting to today.
func (h *Handler) day(value string) (time.Time, error) {
	if value == "" {
		return h.deps.Today(), nil
	}
	return time.Parse(time.DateOnly, value)
}

// PlanView is the plan of a day as tools and resources render it.
type PlanView struct {
	Date    string          `json:"date"`
	Summary string          `json:"summary"`
	Pending int             `json:"pending"`
	Entries []planner.Entry `json:"entries"`
}

func newPlanView(plan *planner.Plan) PlanView {
	return PlanView{
		Date:    plan.Date.Format(time.DateOnly),
		Summary: plan.Summary(),
		Pending: len(plan.Pending()),
		Entries: plan.Entries,
	}
}

// ListExercisesInput is the input for list_exercises.
type ListExercisesInput struct {
	IncludeDisabled bool `json:"include_disabled,omitempty" jsonschema:"Also return disabled exercises"`
}

func (h *Handler) ListExercisesTool() func(context.Context, *mcp.CallToolRequest, ListExercisesInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ListExercisesInput) (*mcp.CallToolResult, any, error) {
		list := h.deps.Exercises.ListEnabled
		if in.IncludeDisabled {
			list = h.deps.Exercises.ListAll
		}
		exercises, err := list(ctx)
		if err != nil {
			return errorResult("Error listing exercises: %v", err), nil, nil
		}
		return jsonResult(exercises), nil, nil
	}
}

func (h *Handler) ListWorkoutsTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		workouts, err := h.deps.Workouts.ListEnabled(ctx)
		if err != nil {
			return errorResult("Error listing workouts: %v", err), nil, nil
		}
		for i := range workouts {
			full, err := h.deps.Workouts.Get(ctx, workouts[i].ID)
			if err != nil {
				return errorResult("Error loading workout %d: %v", workouts[i].ID, err), nil, nil
			}
			if full != nil {
				workouts[i] = *full
			}
		}
		return jsonResult(workouts), nil, nil
	}
}

// PlanInput is the input for get_plan.
type PlanInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day to plan (YYYY-MM-DD), defaults to today"`
}

func (h *Handler) GetPlanTool() func(context.Context, *mcp.CallToolRequest, PlanInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in PlanInput) (*mcp.CallToolResult, any, error) {
		day, err := h.day(in.Date)
		if err != nil {
			return errorResult("Invalid date: use YYYY-MM-DD"), nil, nil
		}
		plan, err := h.deps.Planner.PlanFor(ctx, day)
		if err != nil {
			return errorResult("Error planning %s: %v", day.Format(time.DateOnly), err), nil, nil
		}
		return jsonResult(newPlanView(plan)), nil, nil
	}
}

// WorkoutDayInput names a workout on a day.
type WorkoutDayInput struct {
	WorkoutID uint   `json:"workout_id" jsonschema:"Workout template id"`
	Date      string `json:"date,omitempty" jsonschema:"Day (YYYY-MM-DD), defaults to today"`
}

func (h *Handler) CompleteWorkoutTool() func(context.Context, *mcp.CallToolRequest, WorkoutDayInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WorkoutDayInput) (*mcp.CallToolResult, any, error) {
		day, err := h.day(in.Date)
		if err != nil {
			return errorResult("Invalid date: use YYYY-MM-DD"), nil, nil
		}
		completed, err := h.deps.Planner.Complete(ctx, in.WorkoutID, day)
		if errors.Is(err, planner.ErrNotPlanned) {
			return errorResult("Workout %d is not planned on %s", in.WorkoutID, day.Format(time.DateOnly)), nil, nil
		}
		if err != nil {
			return errorResult("Error completing workout: %v", err), nil, nil
		}
		return jsonResult(completed), nil, nil
	}
}

// CompletionStatus is the result of is_completed.
type CompletionStatus struct {
	WorkoutID uint   `json:"workout_id"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

func (h *Handler) IsCompletedTool() func(context.Context, *mcp.CallToolRequest, WorkoutDayInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WorkoutDayInput) (*mcp.CallToolResult, any, error) {
		day, err := h.day(in.Date)
		if err != nil {
			return errorResult("Invalid date: use YYYY-MM-DD"), nil, nil
		}
		done, err := h.deps.Completions.IsCompleted(ctx, in.WorkoutID, day)
		if err != nil {
			return errorResult("Error checking completion: %v", err), nil, nil
		}
		return jsonResult(CompletionStatus{
			WorkoutID: in.WorkoutID,
			Date:      day.Format(time.DateOnly),
			Completed: done,
		}), nil, nil
	}
}

func (h *Handler) TodayPlanResource() mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		plan, err := h.deps.Planner.PlanFor(ctx, h.deps.Today())
		if err != nil {
			return nil, fmt.Errorf("failed to plan today: %w", err)
		}
		data, err := json.MarshalIndent(newPlanView(plan), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal plan: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      TodayPlanURI,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	}
}
