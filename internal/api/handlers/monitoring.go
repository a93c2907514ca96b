package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"motion-recorder-go/internal/logging"
	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/status"
)

// Monitor is the control surface the monitoring endpoints drive
type Monitor interface {
	StartMonitoring(ctx context.Context, req models.StartRequest) error
	StopMonitoring()
	SetMonitoringEnabled(enabled bool)
	Snapshot() models.EngineSnapshot
	RecordingStatus() models.RecordingStatus
	ServiceState() status.ServiceState
	Logs() []status.LogEntry
	Settings() models.MotionSettings
	UpdateSettings(s models.MotionSettings) (models.MotionSettings, []models.SettingAdjustment)
}

type MonitoringHandler struct {
	monitor Monitor
}

func NewMonitoringHandler(monitor Monitor) *MonitoringHandler {
	return &MonitoringHandler{monitor: monitor}
}

type ErrorResponse struct {
	Error string `json:"error" example:"bind_failure: failed to bind frame source"`
	Kind  string `json:"kind,omitempty" example:"bind_failure"`
}

type StatusResponse struct {
	Engine    models.EngineSnapshot  `json:"engine"`
	Recording models.RecordingStatus `json:"recording"`
	Service   status.ServiceState    `json:"service"`
}

// SettingsRequest is a partial settings update; omitted fields keep their value
type SettingsRequest struct {
	MotionRatioThreshold    *float64 `json:"motion_ratio_threshold,omitempty" example:"0.03"`
	PixelDiffThreshold      *int     `json:"pixel_diff_threshold,omitempty" example:"25"`
	ConsecutiveMotionFrames *int     `json:"consecutive_motion_frames,omitempty" example:"2"`
	AnalyzeEveryNthFrame    *int     `json:"analyze_every_nth_frame,omitempty" example:"2"`
	DownsampleStride        *int     `json:"downsample_stride,omitempty" example:"4"`
	StopDelayMs             *int64   `json:"stop_delay_ms,omitempty" example:"60000"`
	CooldownMs              *int64   `json:"cooldown_ms,omitempty" example:"2000"`
	RecordAudio             *bool    `json:"record_audio,omitempty" example:"true"`
	UseBackCamera           *bool    `json:"use_back_camera,omitempty" example:"true"`
	AutoExposureLock        *bool    `json:"auto_exposure_lock,omitempty" example:"true"`
	StorageMode             *string  `json:"storage_mode,omitempty" example:"app_private"`
	StorageFolderName       *string  `json:"storage_folder_name,omitempty" example:"MotionRecorder"`
}

func (r SettingsRequest) apply(s models.MotionSettings) models.MotionSettings {
	if r.MotionRatioThreshold != nil {
		s.MotionRatioThreshold = *r.MotionRatioThreshold
	}
	if r.PixelDiffThreshold != nil {
		s.PixelDiffThreshold = *r.PixelDiffThreshold
	}
	if r.ConsecutiveMotionFrames != nil {
		s.ConsecutiveMotionFrames = *r.ConsecutiveMotionFrames
	}
	if r.AnalyzeEveryNthFrame != nil {
		s.AnalyzeEveryNthFrame = *r.AnalyzeEveryNthFrame
	}
	if r.DownsampleStride != nil {
		s.DownsampleStride = *r.DownsampleStride
	}
	if r.StopDelayMs != nil {
		s.StopDelay = time.Duration(*r.StopDelayMs) * time.Millisecond
	}
	if r.CooldownMs != nil {
		s.Cooldown = time.Duration(*r.CooldownMs) * time.Millisecond
	}
	if r.RecordAudio != nil {
		s.RecordAudio = *r.RecordAudio
	}
	if r.UseBackCamera != nil {
		s.UseBackCamera = *r.UseBackCamera
	}
	if r.AutoExposureLock != nil {
		s.AutoExposureLock = *r.AutoExposureLock
	}
	if r.StorageMode != nil {
		s.StorageMode = models.StorageMode(*r.StorageMode)
	}
	if r.StorageFolderName != nil {
		s.StorageFolderName = *r.StorageFolderName
	}
	return s
}

type SettingsResponse struct {
	Settings    models.MotionSettings      `json:"settings"`
	Adjustments []models.SettingAdjustment `json:"adjustments,omitempty"`
}

type LogsResponse struct {
	Lines []status.LogEntry `json:"lines"`
	Count int               `json:"count"`
}

// @Summary Monitoring status
// @Description Engine snapshot, active recording and service state
// @Tags monitoring
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /monitoring/status [get]
func (h *MonitoringHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Engine:    h.monitor.Snapshot(),
		Recording: h.monitor.RecordingStatus(),
		Service:   h.monitor.ServiceState(),
	})
}

// @Summary Start monitoring
// @Description Bind the selected camera and start motion analysis
// @Tags monitoring
// @Accept json
// @Produce json
// @Param request body models.StartRequest false "Camera and audio selection"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /monitoring/start [post]
func (h *MonitoringHandler) Start(c *gin.Context) {
	req := models.StartRequest{UseBackCamera: true, RecordAudio: true}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logging.Warn(c).Err(err).Msg("Invalid start request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.monitor.StartMonitoring(c.Request.Context(), req); err != nil {
		logging.Error(c).Err(err).Bool("use_back_camera", req.UseBackCamera).Msg("Failed to start monitoring")
		c.JSON(errorStatus(err), errorBody(err))
		return
	}

	logging.Info(c).Bool("use_back_camera", req.UseBackCamera).Bool("audio", req.RecordAudio).Msg("Monitoring started")
	h.GetStatus(c)
}

// @Summary Stop monitoring
// @Description Release the camera, finish any recording and return to idle
// @Tags monitoring
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /monitoring/stop [post]
func (h *MonitoringHandler) Stop(c *gin.Context) {
	h.monitor.StopMonitoring()
	logging.Info(c).Msg("Monitoring stopped")
	h.GetStatus(c)
}

// @Summary Enable motion analysis
// @Tags monitoring
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /monitoring/enable [post]
func (h *MonitoringHandler) Enable(c *gin.Context) {
	h.monitor.SetMonitoringEnabled(true)
	h.GetStatus(c)
}

// @Summary Disable motion analysis
// @Description Keeps the camera bound and stops any active recording
// @Tags monitoring
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /monitoring/disable [post]
func (h *MonitoringHandler) Disable(c *gin.Context) {
	h.monitor.SetMonitoringEnabled(false)
	h.GetStatus(c)
}

// @Summary Get settings
// @Tags monitoring
// @Produce json
// @Success 200 {object} SettingsResponse
// @Router /monitoring/settings [get]
func (h *MonitoringHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, SettingsResponse{Settings: h.monitor.Settings()})
}

// @Summary Update settings
// @Description Out-of-range values are clamped and reported as adjustments
// @Tags monitoring
// @Accept json
// @Produce json
// @Param request body SettingsRequest true "Fields to change"
// @Success 200 {object} SettingsResponse
// @Failure 400 {object} ErrorResponse
// @Router /monitoring/settings [put]
func (h *MonitoringHandler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Warn(c).Err(err).Msg("Invalid settings request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	applied, adj := h.monitor.UpdateSettings(req.apply(h.monitor.Settings()))
	if len(adj) > 0 {
		logging.Warn(c).Int("adjusted", len(adj)).Msg("Settings clamped")
	}
	c.JSON(http.StatusOK, SettingsResponse{Settings: applied, Adjustments: adj})
}

// @Summary Service log
// @Description Most recent service log lines, oldest first
// @Tags monitoring
// @Produce json
// @Success 200 {object} LogsResponse
// @Router /monitoring/logs [get]
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	lines := h.monitor.Logs()
	c.JSON(http.StatusOK, LogsResponse{Lines: lines, Count: len(lines)})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	var engErr *models.EngineError
	if errors.As(err, &engErr) && engErr.Kind == models.ErrorBindFailure {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorBody(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error()}
	var engErr *models.EngineError
	if errors.As(err, &engErr) {
		resp.Kind = engErr.Kind.String()
	}
	return resp
}
