package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/workouts/internal/metrics"
)

const (
	// ContextKeyRequestID is the Gin context key of the request ID.
	ContextKeyRequestID = "request_id"

	HeaderRequestID = "X-Request-ID"
)

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns a new
// one, and echoes it in the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request. Server errors log at error
// level, client errors at warn, everything else at debug.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(ContextKeyRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

// MetricsMiddleware counts requests by route and status and records their
// duration. Unmatched routes are labelled "unmatched".
func MetricsMiddleware(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.GaugeRequests.Inc()
		defer m.GaugeRequests.Dec()

		defer func(begin time.Time) {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			m.HistRequestDuration.WithLabelValues(route).Observe(time.Since(begin).Seconds())
			m.CounterRequests.With(prometheus.Labels{
				"method": c.Request.Method,
				"route":  route,
				"status": strconv.Itoa(c.Writer.Status()),
			}).Inc()
		}(time.Now())

		c.Next()
	}
}

// SecurityHeadersMiddleware adds the headers a JSON API needs.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}
