package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/status"
)

type fakeMonitor struct {
	mu        sync.Mutex
	startErr  error
	started   []models.StartRequest
	stopped   int
	enabled   []bool
	settings  models.MotionSettings
	snapshot  models.EngineSnapshot
	logs      []status.LogEntry
	lastApply models.MotionSettings
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{
		settings: models.DefaultMotionSettings(),
		snapshot: models.EngineSnapshot{State: models.StateIdle},
	}
}

func (f *fakeMonitor) StartMonitoring(_ context.Context, req models.StartRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, req)
	if f.startErr != nil {
		return f.startErr
	}
	f.snapshot.State = models.StateMonitoring
	f.snapshot.Bound = true
	return nil
}

func (f *fakeMonitor) StopMonitoring() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	f.snapshot = models.EngineSnapshot{State: models.StateIdle}
}

func (f *fakeMonitor) SetMonitoringEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = append(f.enabled, enabled)
}

func (f *fakeMonitor) Snapshot() models.EngineSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeMonitor) RecordingStatus() models.RecordingStatus { return models.RecordingStatus{} }

func (f *fakeMonitor) ServiceState() status.ServiceState {
	return status.ServiceState{Status: f.Snapshot().State}
}

func (f *fakeMonitor) Logs() []status.LogEntry { return f.logs }

func (f *fakeMonitor) Settings() models.MotionSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeMonitor) UpdateSettings(s models.MotionSettings) (models.MotionSettings, []models.SettingAdjustment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastApply = s
	clamped, adj, _ := s.Clamp()
	f.settings = clamped
	return clamped, adj
}

func newRouter(m Monitor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMonitoringHandler(m)
	r.GET("/monitoring/status", h.GetStatus)
	r.POST("/monitoring/start", h.Start)
	r.POST("/monitoring/stop", h.Stop)
	r.POST("/monitoring/enable", h.Enable)
	r.POST("/monitoring/disable", h.Disable)
	r.GET("/monitoring/settings", h.GetSettings)
	r.PUT("/monitoring/settings", h.UpdateSettings)
	r.GET("/monitoring/logs", h.GetLogs)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartMonitoring(t *testing.T) {
	m := newFakeMonitor()
	r := newRouter(m)

	w := do(t, r, http.MethodPost, "/monitoring/start", `{"use_back_camera":false,"record_audio":false,"target":"2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StateMonitoring, resp.Engine.State)
	assert.True(t, resp.Engine.Bound)

	require.Len(t, m.started, 1)
	assert.Equal(t, models.StartRequest{UseBackCamera: false, RecordAudio: false, Target: "2"}, m.started[0])
}

func TestStartMonitoringEmptyBodyUsesDefaults(t *testing.T) {
	m := newFakeMonitor()
	r := newRouter(m)

	w := do(t, r, http.MethodPost, "/monitoring/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, m.started, 1)
	assert.True(t, m.started[0].UseBackCamera)
	assert.True(t, m.started[0].RecordAudio)
}

func TestStartMonitoringErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{
			name: "bind failure",
			err:  models.NewEngineError(models.ErrorBindFailure, "failed to bind frame source", nil),
			code: http.StatusBadGateway,
			kind: "bind_failure",
		},
		{
			name: "bind timeout",
			err:  models.NewEngineError(models.ErrorBindFailure, "failed to bind frame source", context.DeadlineExceeded),
			code: http.StatusGatewayTimeout,
			kind: "bind_failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeMonitor()
			m.startErr = tt.err
			r := newRouter(m)

			w := do(t, r, http.MethodPost, "/monitoring/start", `{}`)
			assert.Equal(t, tt.code, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp.Kind)
		})
	}
}

func TestStartMonitoringMalformedBody(t *testing.T) {
	m := newFakeMonitor()
	w := do(t, newRouter(m), http.MethodPost, "/monitoring/start", `{"use_back_camera":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, m.started)
}

func TestStopEnableDisable(t *testing.T) {
	m := newFakeMonitor()
	r := newRouter(m)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/monitoring/disable", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/monitoring/enable", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/monitoring/stop", "").Code)

	assert.Equal(t, []bool{false, true}, m.enabled)
	assert.Equal(t, 1, m.stopped)
}

func TestUpdateSettingsPartial(t *testing.T) {
	m := newFakeMonitor()
	r := newRouter(m)

	w := do(t, r, http.MethodPut, "/monitoring/settings", `{"pixel_diff_threshold":40,"stop_delay_ms":90000}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 40, resp.Settings.PixelDiffThreshold)
	assert.Equal(t, 90*time.Second, resp.Settings.StopDelay)
	assert.Empty(t, resp.Adjustments)

	// untouched fields keep their previous values
	assert.Equal(t, models.DefaultMotionSettings().DownsampleStride, m.lastApply.DownsampleStride)
}

func TestUpdateSettingsReportsClamping(t *testing.T) {
	m := newFakeMonitor()
	r := newRouter(m)

	w := do(t, r, http.MethodPut, "/monitoring/settings", `{"downsample_stride":64,"motion_ratio_threshold":0.9}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.MaxDownsampleStride, resp.Settings.DownsampleStride)
	assert.Equal(t, models.MaxMotionRatioThreshold, resp.Settings.MotionRatioThreshold)
	assert.Len(t, resp.Adjustments, 2)
}

func TestGetSettingsAndLogs(t *testing.T) {
	m := newFakeMonitor()
	m.logs = []status.LogEntry{{Time: time.Now(), Message: "Motion detected"}}
	r := newRouter(m)

	w := do(t, r, http.MethodGet, "/monitoring/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var settings SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.Equal(t, models.DefaultMotionSettings(), settings.Settings)

	w = do(t, r, http.MethodGet, "/monitoring/logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var logs LogsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Equal(t, 1, logs.Count)
	assert.Equal(t, "Motion detected", logs.Lines[0].Message)
}
