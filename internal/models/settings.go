package models

import (
	"fmt"
	"strings"
	"time"
)

// StorageMode selects where recordings are written
type StorageMode string

const (
	StorageModePrivate StorageMode = "app_private"  // Private application directory
	StorageModePublic  StorageMode = "public_media" // Shared media library directory
)

// String returns the string representation of StorageMode
func (m StorageMode) String() string {
	return string(m)
}

// IsValid checks if the storage mode is valid
func (m StorageMode) IsValid() bool {
	switch m {
	case StorageModePrivate, StorageModePublic:
		return true
	default:
		return false
	}
}

// Slider bounds for MotionSettings. Values outside are clamped, never rejected.
const (
	MinMotionRatioThreshold = 0.001
	MaxMotionRatioThreshold = 0.2

	MinPixelDiffThreshold = 5
	MaxPixelDiffThreshold = 80

	MinConsecutiveMotionFrames = 1
	MaxConsecutiveMotionFrames = 5

	MinAnalyzeEveryNthFrame = 1
	MaxAnalyzeEveryNthFrame = 5

	MinDownsampleStride = 1
	MaxDownsampleStride = 8

	MinStopDelay = time.Second
	MaxStopDelay = 10 * time.Minute

	MinCooldown = time.Duration(0)
	MaxCooldown = 10 * time.Minute
)

// MotionSettings is an immutable snapshot of detector and recording tuning
type MotionSettings struct {
	MotionRatioThreshold    float64       `json:"motion_ratio_threshold"`
	PixelDiffThreshold      int           `json:"pixel_diff_threshold"`
	ConsecutiveMotionFrames int           `json:"consecutive_motion_frames"`
	AnalyzeEveryNthFrame    int           `json:"analyze_every_nth_frame"`
	DownsampleStride        int           `json:"downsample_stride"`
	StopDelay               time.Duration `json:"stop_delay"`
	Cooldown                time.Duration `json:"cooldown"`

	// Recording & camera behavior
	RecordAudio       bool        `json:"record_audio"`
	UseBackCamera     bool        `json:"use_back_camera"`
	AutoExposureLock  bool        `json:"auto_exposure_lock"`
	StorageMode       StorageMode `json:"storage_mode"`
	StorageFolderName string      `json:"storage_folder_name"`
}

// DefaultMotionSettings returns the stock tuning
func DefaultMotionSettings() MotionSettings {
	return MotionSettings{
		MotionRatioThreshold:    0.03,
		PixelDiffThreshold:      25,
		ConsecutiveMotionFrames: 2,
		AnalyzeEveryNthFrame:    2,
		DownsampleStride:        4,
		StopDelay:               60 * time.Second,
		Cooldown:                2 * time.Second,
		RecordAudio:             true,
		UseBackCamera:           true,
		AutoExposureLock:        true,
		StorageMode:             StorageModePrivate,
		StorageFolderName:       "MotionRecorder",
	}
}

// SettingAdjustment describes one value that was moved into range
type SettingAdjustment struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Clamp returns a copy with every field inside its valid range. The error is
// non-nil (ConfigurationInvalid) when something was adjusted; the returned
// settings are usable either way.
func (s MotionSettings) Clamp() (MotionSettings, []SettingAdjustment, error) {
	var adj []SettingAdjustment
	out := s

	out.MotionRatioThreshold = clampFloat(&adj, "motion_ratio_threshold", s.MotionRatioThreshold, MinMotionRatioThreshold, MaxMotionRatioThreshold)
	out.PixelDiffThreshold = clampInt(&adj, "pixel_diff_threshold", s.PixelDiffThreshold, MinPixelDiffThreshold, MaxPixelDiffThreshold)
	out.ConsecutiveMotionFrames = clampInt(&adj, "consecutive_motion_frames", s.ConsecutiveMotionFrames, MinConsecutiveMotionFrames, MaxConsecutiveMotionFrames)
	out.AnalyzeEveryNthFrame = clampInt(&adj, "analyze_every_nth_frame", s.AnalyzeEveryNthFrame, MinAnalyzeEveryNthFrame, MaxAnalyzeEveryNthFrame)
	out.DownsampleStride = clampInt(&adj, "downsample_stride", s.DownsampleStride, MinDownsampleStride, MaxDownsampleStride)
	out.StopDelay = clampDuration(&adj, "stop_delay", s.StopDelay, MinStopDelay, MaxStopDelay)
	out.Cooldown = clampDuration(&adj, "cooldown", s.Cooldown, MinCooldown, MaxCooldown)

	if !out.StorageMode.IsValid() {
		adj = append(adj, SettingAdjustment{Field: "storage_mode", From: string(s.StorageMode), To: string(StorageModePrivate)})
		out.StorageMode = StorageModePrivate
	}
	out.StorageFolderName = strings.TrimSpace(s.StorageFolderName)

	if len(adj) == 0 {
		return out, nil, nil
	}

	fields := make([]string, 0, len(adj))
	for _, a := range adj {
		fields = append(fields, fmt.Sprintf("%s %s->%s", a.Field, a.From, a.To))
	}
	return out, adj, &EngineError{
		Kind:    ErrorConfigurationInvalid,
		Message: "settings clamped: " + strings.Join(fields, ", "),
	}
}

func clampInt(adj *[]SettingAdjustment, field string, v, lo, hi int) int {
	c := v
	if c < lo {
		c = lo
	}
	if c > hi {
		c = hi
	}
	if c != v {
		*adj = append(*adj, SettingAdjustment{Field: field, From: fmt.Sprint(v), To: fmt.Sprint(c)})
	}
	return c
}

func clampFloat(adj *[]SettingAdjustment, field string, v, lo, hi float64) float64 {
	c := v
	if c < lo || c != c { // NaN falls to the lower bound
		c = lo
	}
	if c > hi {
		c = hi
	}
	if c != v {
		*adj = append(*adj, SettingAdjustment{Field: field, From: fmt.Sprint(v), To: fmt.Sprint(c)})
	}
	return c
}

func clampDuration(adj *[]SettingAdjustment, field string, v, lo, hi time.Duration) time.Duration {
	c := v
	if c < lo {
		c = lo
	}
	if c > hi {
		c = hi
	}
	if c != v {
		*adj = append(*adj, SettingAdjustment{Field: field, From: v.String(), To: c.String()})
	}
	return c
}
