package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/workouts/internal/exporters"
)

// ExportSnapshotTask writes a full store snapshot into the export directory.
type ExportSnapshotTask struct {
	Format string `json:"format,omitempty"`
}

// Config returns the queue configuration for snapshot exports.
func (t ExportSnapshotTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_snapshot",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExporterFactory builds a snapshot exporter for a format.
type ExporterFactory func(format exporters.Format) exporters.Exporter

// SnapshotFileName names a snapshot taken at t.
func SnapshotFileName(t time.Time, format exporters.Format) string {
	return fmt.Sprintf("workouts-%s.%s", t.UTC().Format("20060102T150405Z"), format.Extension())
}

// ExportSnapshotProcessor creates a processor function for ExportSnapshotTask.
func ExportSnapshotProcessor(dir string, newExporter ExporterFactory) backlite.QueueProcessor[ExportSnapshotTask] {
	return func(ctx context.Context, task ExportSnapshotTask) error {
		if newExporter == nil || dir == "" {
			return fmt.Errorf("snapshot export not configured")
		}

		format, err := exporters.ParseFormat(task.Format)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}

		path := filepath.Join(dir, SnapshotFileName(time.Now(), format))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create snapshot file: %w", err)
		}
		defer f.Close()

		result, err := newExporter(format).Export(ctx, f)
		if err != nil {
			os.Remove(path)
			return fmt.Errorf("export snapshot: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"path":        path,
			"exercises":   result.ExercisesProcessed,
			"workouts":    result.WorkoutsProcessed,
			"schedules":   result.SchedulesProcessed,
			"completions": result.CompletionsProcessed,
		}).Info("[TASK] Snapshot exported")
		return f.Sync()
	}
}

// NewExportSnapshotQueue creates a backlite queue for snapshot exports.
func NewExportSnapshotQueue(dir string, newExporter ExporterFactory) backlite.Queue {
	return backlite.NewQueue(ExportSnapshotProcessor(dir, newExporter))
}
