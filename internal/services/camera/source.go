package camera

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/engine"
)

// Config holds capture and writer settings for OpenCV devices
type Config struct {
	BackDevice  string // Device index, file path or stream URL
	FrontDevice string

	Width  int
	Height int
	FPS    int

	Codec                string // FourCC for the video writer
	MaxConsecutiveErrors int
}

// Source opens OpenCV captures for the engine
type Source struct {
	cfg    Config
	logger zerolog.Logger
}

// NewSource creates a new OpenCV frame source
func NewSource(cfg Config, logger zerolog.Logger) *Source {
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = 10
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 15
	}
	if cfg.Codec == "" {
		cfg.Codec = "mp4v"
	}
	return &Source{cfg: cfg, logger: logger}
}

// Bind opens the device for req and starts the capture loop. Opening runs in
// its own goroutine so ctx can abandon a device that never answers.
func (s *Source) Bind(ctx context.Context, req engine.BindRequest) (engine.Binding, error) {
	target := req.Target
	if target == "" {
		target = s.cfg.BackDevice
		if req.Facing == models.CameraFacingFront {
			target = s.cfg.FrontDevice
		}
	}
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("no device configured for %s camera", req.Facing)
	}

	type opened struct {
		cap *gocv.VideoCapture
		err error
	}
	ch := make(chan opened, 1)
	go func() {
		cap, err := openCapture(target)
		ch <- opened{cap: cap, err: err}
	}()

	var res opened
	select {
	case <-ctx.Done():
		go func() {
			if late := <-ch; late.cap != nil {
				late.cap.Close()
			}
		}()
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.err != nil {
		return nil, fmt.Errorf("failed to open capture %s: %w", target, res.err)
	}

	cap := res.cap
	cap.Set(gocv.VideoCaptureBufferSize, 1)
	if s.cfg.Width > 0 && s.cfg.Height > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(s.cfg.Width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(s.cfg.Height))
	}

	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("video capture is not opened for %s", target)
	}

	width := int(cap.Get(gocv.VideoCaptureFrameWidth))
	height := int(cap.Get(gocv.VideoCaptureFrameHeight))
	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || fps > float64(s.cfg.FPS) {
		fps = float64(s.cfg.FPS)
	}

	logger := s.logger.With().Str("device", target).Str("facing", req.Facing.String()).Logger()
	logger.Info().
		Int("width", width).
		Int("height", height).
		Float64("fps", fps).
		Msg("VideoCapture opened")

	b := newBinding(cap, logger, bindingConfig{
		width:     width,
		height:    height,
		fps:       fps,
		interval:  time.Duration(float64(time.Second) / fps),
		codec:     s.cfg.Codec,
		maxErrors: s.cfg.MaxConsecutiveErrors,
	})
	b.start()
	return b, nil
}

// openCapture treats numeric targets as device indices
func openCapture(target string) (*gocv.VideoCapture, error) {
	if idx, err := strconv.Atoi(target); err == nil {
		return gocv.OpenVideoCapture(idx)
	}
	return gocv.OpenVideoCapture(target)
}
