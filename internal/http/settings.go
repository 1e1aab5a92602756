package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/workouts/internal/settingsstore"
)

// ReminderStore reads and writes the layered reminder settings.
type ReminderStore interface {
	GetReminderConfigInfo(ctx context.Context) (settingsstore.ReminderConfigInfo, error)
	SetReminderEnabled(ctx context.Context, enabled bool) error
	SetReminderSchedule(ctx context.Context, schedule string) error
	ClearReminderSettings(ctx context.Context) error
	GetDigestStatus(ctx context.Context) (settingsstore.DigestStatus, error)
}

// ReminderScheduler runs the daily digest on the reminder schedule.
type ReminderScheduler interface {
	Reschedule(ctx context.Context) error
	RunNow(ctx context.Context) (string, error)
	IsRunning() bool
	GetNextRunTime() *time.Time
}

// ReminderController manages the daily plan reminder.
type ReminderController struct {
	store     ReminderStore
	scheduler ReminderScheduler
}

func NewReminderController(store ReminderStore, scheduler ReminderScheduler) *ReminderController {
	return &ReminderController{store: store, scheduler: scheduler}
}

// ReminderSettingsResponse is the response for GET /api/settings/reminder
type ReminderSettingsResponse struct {
	Config    settingsstore.ReminderConfigInfo `json:"config"`
	NextRun   *time.Time                       `json:"next_run,omitempty"`
	IsRunning bool                             `json:"is_running"`
	Presets   []SchedulePreset                 `json:"presets"`
}

// SchedulePreset is a predefined schedule option
type SchedulePreset struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var reminderPresets = []SchedulePreset{
	{Label: "Daily at 06:00", Value: "0 6 * * *"},
	{Label: "Daily at 07:00", Value: "0 7 * * *"},
	{Label: "Daily at 08:00", Value: "0 8 * * *"},
	{Label: "Weekdays at 07:00", Value: "0 7 * * 1-5"},
}

// UpdateReminderRequest changes either or both reminder fields.
type UpdateReminderRequest struct {
	Enabled  *bool   `json:"enabled"`
	Schedule *string `json:"schedule"`
}

// GET /api/settings/reminder
func (rc *ReminderController) GetSettings(c *gin.Context) {
	info, err := rc.store.GetReminderConfigInfo(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "get reminder settings")
		return
	}

	response := ReminderSettingsResponse{Config: info, Presets: reminderPresets}
	if rc.scheduler != nil {
		response.NextRun = rc.scheduler.GetNextRunTime()
		response.IsRunning = rc.scheduler.IsRunning()
	}
	c.JSON(http.StatusOK, response)
}

// UpdateSettings stores the reminder overrides and reschedules the digest.
// PUT /api/settings/reminder
func (rc *ReminderController) UpdateSettings(c *gin.Context) {
	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid reminder payload")
		return
	}
	if req.Enabled == nil && req.Schedule == nil {
		respondBadRequest(c, "enabled or schedule is required")
		return
	}

	ctx := c.Request.Context()
	if req.Schedule != nil {
		if err := settingsstore.ValidateCronSchedule(*req.Schedule); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid cron schedule: " + err.Error(), Code: CodeValidation, Field: "schedule"})
			return
		}
		if err := rc.store.SetReminderSchedule(ctx, *req.Schedule); err != nil {
			respondInternalError(c, err, "save reminder schedule")
			return
		}
	}
	if req.Enabled != nil {
		if err := rc.store.SetReminderEnabled(ctx, *req.Enabled); err != nil {
			respondInternalError(c, err, "save reminder enabled")
			return
		}
	}

	if rc.reschedule(c) {
		rc.GetSettings(c)
	}
}

// ResetSettings drops the database overrides, reverting to configuration.
// DELETE /api/settings/reminder
func (rc *ReminderController) ResetSettings(c *gin.Context) {
	if err := rc.store.ClearReminderSettings(c.Request.Context()); err != nil {
		respondInternalError(c, err, "reset reminder settings")
		return
	}
	if rc.reschedule(c) {
		rc.GetSettings(c)
	}
}

// reschedule applies new settings; the scheduler outlives the request.
func (rc *ReminderController) reschedule(c *gin.Context) bool {
	if rc.scheduler == nil {
		return true
	}
	if err := rc.scheduler.Reschedule(context.WithoutCancel(c.Request.Context())); err != nil {
		respondInternalError(c, err, "reschedule reminder")
		return false
	}
	return true
}

// RunNow queues today's digest immediately.
// POST /api/settings/reminder/run
func (rc *ReminderController) RunNow(c *gin.Context) {
	if rc.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "scheduler not available"})
		return
	}

	id, err := rc.scheduler.RunNow(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "queue digest")
		return
	}
	respondAccepted(c, "digest queued", gin.H{"task_id": id})
}

// GET /api/settings/digest
func (rc *ReminderController) GetDigestStatus(c *gin.Context) {
	status, err := rc.store.GetDigestStatus(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "get digest status")
		return
	}
	c.JSON(http.StatusOK, status)
}
