package models

import "time"

// OrchestratorState is the reported state of the recording engine
type OrchestratorState string

const (
	StateIdle       OrchestratorState = "idle"
	StateMonitoring OrchestratorState = "monitoring"
	StateRecording  OrchestratorState = "recording"
	StateCooldown   OrchestratorState = "cooldown" // Monitoring while the re-trigger guard is active
)

// String returns the string representation of OrchestratorState
func (s OrchestratorState) String() string {
	return string(s)
}

// RecordingHandle identifies the single active recording
type RecordingHandle struct {
	ID           string      `json:"id"`
	Location     string      `json:"location"`
	AudioEnabled bool        `json:"audio_enabled"`
	StorageMode  StorageMode `json:"storage_mode"`
	CreatedAt    time.Time   `json:"created_at"`
}

// RecordingStatus is a point-in-time view of the session manager
type RecordingStatus struct {
	Active       bool          `json:"active"`
	ID           string        `json:"id,omitempty"`
	Location     string        `json:"location,omitempty"`
	AudioEnabled bool          `json:"audio_enabled"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	Duration     time.Duration `json:"duration"`
	LastLocation string        `json:"last_location,omitempty"`
}

// EngineSnapshot is the orchestrator view exposed to status consumers
type EngineSnapshot struct {
	State          OrchestratorState `json:"state"`
	Bound          bool              `json:"bound"`
	Facing         CameraFacing      `json:"facing,omitempty"`
	Target         string            `json:"target,omitempty"`
	LastReading    MotionReading     `json:"last_reading"`
	LastMotionAt   *time.Time        `json:"last_motion_at,omitempty"`
	CooldownUntil  *time.Time        `json:"cooldown_until,omitempty"`
	LastSaved      string            `json:"last_saved,omitempty"`
	Recording      *RecordingHandle  `json:"recording,omitempty"`
	FramesAnalyzed uint64            `json:"frames_analyzed"`
	FramesDropped  uint64            `json:"frames_dropped"`
	Settings       MotionSettings    `json:"settings"`
}
