package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(m *Monitor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/denied", func(c *gin.Context) { c.Status(http.StatusForbidden) })
	router.GET("/health", m.HealthHandler())
	router.GET("/ready", m.ReadinessHandler())
	router.GET("/live", m.LivenessHandler())
	router.GET("/metrics", m.MetricsHandler())
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMonitor_CountsRequests(t *testing.T) {
	m := NewMonitor()
	router := newTestRouter(m)

	get(router, "/ok")
	get(router, "/denied")
	get(router, "/nowhere")

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.RequestCount)
	assert.Equal(t, int64(2), snap.ErrorCount)
	assert.Equal(t, int64(1), snap.DeniedCount)
	assert.Equal(t, int64(0), snap.ActiveRequests)
	assert.Equal(t, int64(1), snap.Endpoints["GET /ok"])
	assert.Equal(t, int64(1), snap.Endpoints["GET unmatched"])
	assert.Equal(t, int64(1), snap.StatusCodes["Forbidden"])
}

func TestMonitor_HealthStates(t *testing.T) {
	m := NewMonitor()
	router := newTestRouter(m)

	m.RegisterHealthCheck("database", true, func(ctx context.Context) error { return nil })
	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	m.RegisterHealthCheck("cache", false, func(ctx context.Context) error { return errors.New("redis down") })
	w = get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string        `json:"status"`
		Checks []HealthCheck `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	require.Len(t, body.Checks, 2)
	assert.Equal(t, "cache", body.Checks[0].Name)
	assert.Equal(t, "redis down", body.Checks[0].Message)
	assert.Equal(t, http.StatusOK, get(router, "/ready").Code)

	m.RegisterHealthCheck("database", true, func(ctx context.Context) error { return errors.New("no connection") })
	assert.Equal(t, http.StatusServiceUnavailable, get(router, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(router, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(router, "/live").Code)
}

func TestMonitor_MetricsIncludesComponents(t *testing.T) {
	m := NewMonitor()
	m.RegisterStats("cache", func() map[string]interface{} {
		return map[string]interface{}{"hit_rate": 50.0}
	})
	router := newTestRouter(m)

	w := get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "application")
	assert.Contains(t, body, "system")
	assert.JSONEq(t, `{"cache":{"hit_rate":50}}`, string(body["components"]))
}
