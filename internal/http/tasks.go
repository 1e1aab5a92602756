package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/workouts/internal/exporters"
)

// TaskQueue queues background tasks and reports on them.
type TaskQueue interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
	EnqueueDailyDigest(ctx context.Context, date string) (string, error)
	EnqueueExportSnapshot(ctx context.Context, format string) (string, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue TaskQueue
}

func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "daily_digest",
			Description: "Compute the plan summary of a day (date, default today)",
			Queue:       "daily_digest",
		},
		{
			Type:        "export_snapshot",
			Description: "Write a full snapshot of the store to the export directory (format json or yaml)",
			Queue:       "export_snapshot",
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "get task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// Date is the day of a daily_digest, YYYY-MM-DD
	Date string `json:"date,omitempty"`
	// Format is the format of an export_snapshot
	Format string `json:"format,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid task payload")
			return
		}
	}

	var (
		id  string
		err error
	)
	ctx := c.Request.Context()
	switch taskType {
	case "daily_digest":
		if req.Date != "" {
			if _, perr := ParseDate(req.Date); perr != nil {
				respondBadRequest(c, "invalid date, expected YYYY-MM-DD")
				return
			}
		}
		id, err = tc.queue.EnqueueDailyDigest(ctx, req.Date)

	case "export_snapshot":
		format, perr := exporters.ParseFormat(req.Format)
		if perr != nil {
			respondBadRequest(c, perr.Error())
			return
		}
		id, err = tc.queue.EnqueueExportSnapshot(ctx, string(format))

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
