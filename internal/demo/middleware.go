// Package demo serves a store read-only, e.g. one built by
// cmd/generate_demo, so it can be shown without being changed.
package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Middleware blocks write requests in demo mode.
// GET, HEAD and OPTIONS always pass, as do paths with an allowed prefix.
type Middleware struct {
	enabled bool
	allowed []string
}

// NewMiddleware creates a demo mode middleware. allowed lists path
// prefixes that accept writes even in demo mode.
func NewMiddleware(enabled bool, allowed ...string) *Middleware {
	return &Middleware{enabled: enabled, allowed: allowed}
}

func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Debug("write blocked in demo mode")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "This action is disabled in demo mode",
			"demo_mode": true,
		})
	}
}

func (m *Middleware) isAllowedPath(path string) bool {
	for _, allowed := range m.allowed {
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}
