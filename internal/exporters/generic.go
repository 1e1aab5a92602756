package exporters

import (
	"context"
	"io"
)

type Exporter interface {
	Export(ctx context.Context, w io.Writer) (ExportResult, error)
}

type ExportResult struct {
	ExercisesProcessed   int `json:"exercises_processed"`
	WorkoutsProcessed    int `json:"workouts_processed"`
	SchedulesProcessed   int `json:"schedules_processed"`
	OverridesProcessed   int `json:"overrides_processed"`
	CompletionsProcessed int `json:"completions_processed"`
	CompletionsFailed    int `json:"completions_failed"`
}
