package motion

import "motion-recorder-go/internal/models"

// Sample takes every stride-th luminance value in both directions, row-major.
// The result is a copy; it never aliases the frame plane. Degenerate frames and
// planes too short for their declared geometry yield an empty sample.
func Sample(frame *models.Frame, stride int) *models.FrameSample {
	if stride < 1 {
		stride = 1
	}
	empty := &models.FrameSample{Stride: stride}
	if frame == nil || frame.Width <= 0 || frame.Height <= 0 {
		return empty
	}

	pixelStride := frame.PixelStride
	if pixelStride < 1 {
		pixelStride = 1
	}
	rowStride := frame.RowStride
	if rowStride <= 0 {
		rowStride = frame.Width * pixelStride
	}

	cols := (frame.Width + stride - 1) / stride
	rows := (frame.Height + stride - 1) / stride

	// Furthest index that will be read
	lastY := (rows - 1) * stride
	lastX := (cols - 1) * stride
	if lastY*rowStride+lastX*pixelStride >= len(frame.Plane) {
		return empty
	}

	out := make([]byte, 0, cols*rows)
	for y := 0; y < frame.Height; y += stride {
		base := y * rowStride
		for x := 0; x < frame.Width; x += stride {
			out = append(out, frame.Plane[base+x*pixelStride])
		}
	}

	return &models.FrameSample{
		Width:   cols,
		Height:  rows,
		Stride:  stride,
		Samples: out,
	}
}
