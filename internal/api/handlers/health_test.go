package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHealthHandler("recorder-test", "2.1.0")
	r.GET("/", h.WorkerInfo)
	r.GET("/health", h.HealthCheck)
	r.GET("/system/stats", NewSystemHandler("recorder-test").GetStats)

	w := do(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, HealthResponse{Status: "healthy", WorkerID: "recorder-test"}, health)

	w = do(t, r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info WorkerInfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "2.1.0", info.Version)
	assert.Contains(t, info.Capabilities, "motion_recording")

	w = do(t, r, http.MethodGet, "/system/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"worker_id":"recorder-test"`)
}
