package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/workouts/internal/database/dberr"
	"github.com/mrlokans/workouts/internal/planner"
	"github.com/mrlokans/workouts/internal/recurrence"
	"github.com/mrlokans/workouts/internal/validation"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`  // machine-readable error code
	Field string `json:"field,omitempty"` // set for validation errors
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error codes
const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodeDuplicate        = "duplicate"
	CodeInUse            = "in_use"
	CodeMissingReference = "missing_reference"
	CodeConstraint       = "constraint"
	CodeNotPlanned       = "not_planned"
)

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: CodeNotFound})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"context":    context,
		"request_id": c.GetString(ContextKeyRequestID),
	}).Error("internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondStoreError maps repository and planner failures to responses:
// validation 400, not found 404, integrity 409 (422 for a dangling
// reference), anything else 500.
func respondStoreError(c *gin.Context, err error, context string) {
	if verr, ok := validation.AsError(err); ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Message, Code: CodeValidation, Field: verr.Field})
		return
	}

	switch {
	case errors.Is(err, dberr.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeNotFound})
	case errors.Is(err, dberr.ErrDuplicate):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeDuplicate})
	case errors.Is(err, dberr.ErrInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeInUse})
	case errors.Is(err, dberr.ErrMissingReference):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: CodeMissingReference})
	case errors.Is(err, dberr.ErrIntegrity):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeConstraint})
	case errors.Is(err, planner.ErrNotPlanned):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeNotPlanned})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// respondFound sends v, or 404 when the lookup returned nil.
func respondFound[T any](c *gin.Context, v *T, resource string) {
	if v == nil {
		respondNotFound(c, resource)
		return
	}
	c.JSON(http.StatusOK, v)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseQueryID extracts and validates an unsigned integer ID from query parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseQueryID(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		respondBadRequest(c, paramName+" is required")
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}

// parseDate parses value as a calendar day, or returns today when empty.
// Responds with a 400 error and returns false when malformed.
func parseDate(c *gin.Context, name, value string, today func() time.Time) (time.Time, bool) {
	if value == "" {
		return today(), true
	}
	day, err := ParseDate(value)
	if err != nil {
		respondBadRequest(c, "invalid "+name+", expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

// queryBool reads a boolean query flag, false when absent or malformed.
func queryBool(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}

// Clock returns the current calendar day in a location.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func (k Clock) Today() time.Time {
	now := time.Now
	if k.Now != nil {
		now = k.Now
	}
	loc := k.Location
	if loc == nil {
		loc = time.UTC
	}
	return recurrence.Day(now().In(loc))
}
