package models

import (
	"sync"
	"time"
)

// CameraFacing selects which physical camera the frame source binds to
type CameraFacing string

const (
	CameraFacingBack  CameraFacing = "back"
	CameraFacingFront CameraFacing = "front"
)

// String returns the string representation of CameraFacing
func (f CameraFacing) String() string {
	return string(f)
}

// IsValid checks if the camera facing is valid
func (f CameraFacing) IsValid() bool {
	switch f {
	case CameraFacingBack, CameraFacingFront:
		return true
	default:
		return false
	}
}

// FacingFor maps the back-camera flag used by settings and requests to a facing
func FacingFor(useBackCamera bool) CameraFacing {
	if useBackCamera {
		return CameraFacingBack
	}
	return CameraFacingFront
}

// Frame is a single luminance plane delivered by a frame source.
// Plane is only valid until Release is called; the source may reuse it afterwards.
type Frame struct {
	Seq         uint64
	Timestamp   time.Time
	Width       int
	Height      int
	RowStride   int // Bytes between the start of two consecutive rows
	PixelStride int // Bytes between two horizontally adjacent luminance values
	Plane       []byte

	release     func()
	releaseOnce sync.Once
}

// NewFrame wraps a luminance plane. release is invoked once when the consumer is done with the plane.
func NewFrame(seq uint64, ts time.Time, width, height, rowStride, pixelStride int, plane []byte, release func()) *Frame {
	return &Frame{
		Seq:         seq,
		Timestamp:   ts,
		Width:       width,
		Height:      height,
		RowStride:   rowStride,
		PixelStride: pixelStride,
		Plane:       plane,
		release:     release,
	}
}

// Release hands the plane back to the source. Safe to call more than once.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	f.releaseOnce.Do(func() {
		if f.release != nil {
			f.release()
		}
	})
}

// FrameSample is a strided luminance grid taken from one frame
type FrameSample struct {
	Width   int // Samples per row
	Height  int // Sample rows
	Stride  int
	Samples []byte // Row-major, len == Width*Height
}

// Len returns the number of samples
func (s *FrameSample) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Samples)
}

// Empty reports whether the sample has no data
func (s *FrameSample) Empty() bool {
	return s.Len() == 0
}

// MotionReading is the output of one analysis pass
type MotionReading struct {
	Ratio          float64 `json:"ratio"`
	RatioAvg       float64 `json:"ratio_avg"`
	MotionDetected bool    `json:"motion_detected"`
}
