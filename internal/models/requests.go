package models

// StartRequest selects the camera and audio mode for a monitoring session
type StartRequest struct {
	UseBackCamera bool   `json:"use_back_camera" example:"true"`
	RecordAudio   bool   `json:"record_audio" example:"true"`
	Target        string `json:"target,omitempty" example:"0"`
}
