package demo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(m *Middleware) *gin.Engine {
	router := gin.New()
	router.Use(m.Handler())
	ok := func(c *gin.Context) { c.String(http.StatusOK, "OK") }
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPost, http.MethodPut, http.MethodDelete} {
		router.Handle(method, "/api/workouts", ok)
		router.Handle(method, "/api/plan/complete", ok)
	}
	return router
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewMiddleware(t *testing.T) {
	assert.True(t, NewMiddleware(true).IsEnabled())
	assert.False(t, NewMiddleware(false).IsEnabled())
}

func TestMiddleware_Handler(t *testing.T) {
	router := newRouter(NewMiddleware(true))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodOptions, http.StatusOK},
		{http.MethodPost, http.StatusForbidden},
		{http.MethodPut, http.StatusForbidden},
		{http.MethodDelete, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(router, tt.method, "/api/workouts")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMiddleware_BlockedResponse(t *testing.T) {
	w := serve(newRouter(NewMiddleware(true)), http.MethodPost, "/api/workouts")
	require.Equal(t, http.StatusForbidden, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["demo_mode"])
	assert.NotEmpty(t, response["error"])
}

func TestMiddleware_AllowedPrefix(t *testing.T) {
	router := newRouter(NewMiddleware(true, "/api/plan/"))

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/plan/complete").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/api/workouts").Code)
}

func TestMiddleware_DisabledAllowsAllRequests(t *testing.T) {
	router := newRouter(NewMiddleware(false))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		assert.Equal(t, http.StatusOK, serve(router, method, "/api/workouts").Code, method)
	}
}
