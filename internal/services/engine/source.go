package engine

import (
	"context"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/recorder"
)

// BindRequest selects the camera to bind. Two requests are equal when they would
// produce the same stream.
type BindRequest struct {
	Facing models.CameraFacing `json:"facing"`
	Target string              `json:"target,omitempty"` // Device index, file or stream URL; empty selects by facing
}

// FrameSource opens camera streams. Bind blocks until the stream is ready or fails.
type FrameSource interface {
	Bind(ctx context.Context, req BindRequest) (Binding, error)
}

// Binding is an open camera stream
type Binding interface {
	// SetAnalyzer installs the frame callback. The source calls it from its
	// delivery goroutine and must not invoke it concurrently with itself.
	SetAnalyzer(fn func(*models.Frame))

	// ClearAnalyzer removes the callback; no frames are delivered afterwards
	ClearAnalyzer()

	// Sink returns the storage sink recording this stream
	Sink() recorder.Sink

	// Lost delivers at most one error when the stream fails on its own and is
	// closed once the stream has ended
	Lost() <-chan error

	Close() error
}

// ExposureLocker is implemented by bindings that can freeze auto exposure
type ExposureLocker interface {
	SetExposureLock(locked bool) error
}
