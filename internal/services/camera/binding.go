package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/recorder"
)

// V4L2 encodes auto exposure as 0.25 (manual) and 0.75 (aperture priority)
const (
	exposureManual = 0.25
	exposureAuto   = 0.75
)

type bindingConfig struct {
	width     int
	height    int
	fps       float64
	interval  time.Duration
	codec     string
	maxErrors int
}

// Binding is an open OpenCV capture delivering gray frames to the analyzer
// and color frames to the video sink.
type Binding struct {
	cfg    bindingConfig
	logger zerolog.Logger
	sink   *VideoSink

	capMu sync.Mutex // VideoCapture is not safe for concurrent use
	cap   *gocv.VideoCapture

	mu       sync.Mutex
	analyzer func(*models.Frame)

	planes sync.Pool
	seq    uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	lost   chan error
	once   sync.Once
}

func newBinding(cap *gocv.VideoCapture, logger zerolog.Logger, cfg bindingConfig) *Binding {
	ctx, cancel := context.WithCancel(context.Background())
	size := cfg.width * cfg.height
	b := &Binding{
		cfg:    cfg,
		logger: logger,
		cap:    cap,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		lost:   make(chan error, 1),
	}
	b.planes.New = func() any { return make([]byte, size) }
	b.sink = newVideoSink(cfg.codec, cfg.fps, cfg.width, cfg.height, logger)
	return b
}

func (b *Binding) start() {
	go b.readLoop()
}

// SetAnalyzer installs the gray frame callback
func (b *Binding) SetAnalyzer(fn func(*models.Frame)) {
	b.mu.Lock()
	b.analyzer = fn
	b.mu.Unlock()
}

// ClearAnalyzer stops gray frame delivery
func (b *Binding) ClearAnalyzer() {
	b.mu.Lock()
	b.analyzer = nil
	b.mu.Unlock()
}

// Sink returns the video writer sink fed by this capture
func (b *Binding) Sink() recorder.Sink {
	return b.sink
}

// Lost reports a capture that stopped on read errors. It is closed when the
// read loop exits.
func (b *Binding) Lost() <-chan error {
	return b.lost
}

// SetExposureLock switches the capture between manual and automatic exposure
func (b *Binding) SetExposureLock(locked bool) error {
	value := exposureAuto
	if locked {
		value = exposureManual
	}
	b.capMu.Lock()
	defer b.capMu.Unlock()
	b.cap.Set(gocv.VideoCaptureAutoExposure, value)
	b.logger.Debug().Bool("locked", locked).Msg("Auto exposure updated")
	return nil
}

// Close stops the read loop, finalizes any recording and releases the device
func (b *Binding) Close() error {
	b.once.Do(func() {
		b.cancel()
		<-b.done
		b.sink.closeActive()
		b.capMu.Lock()
		b.cap.Close()
		b.capMu.Unlock()
		b.logger.Info().Msg("VideoCapture closed")
	})
	return nil
}

func (b *Binding) readLoop() {
	defer close(b.done)
	defer close(b.lost)

	img := gocv.NewMat()
	defer img.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	consecutiveErrors := 0
	for {
		select {
		case <-b.ctx.Done():
			return
		default:
		}

		started := time.Now()
		b.capMu.Lock()
		ok := b.cap.Read(&img)
		b.capMu.Unlock()

		if !ok || img.Empty() {
			consecutiveErrors++
			b.logger.Warn().
				Int("consecutive_errors", consecutiveErrors).
				Msg("Failed to read frame from VideoCapture")
			if consecutiveErrors >= b.cfg.maxErrors {
				b.logger.Error().Int("consecutive_errors", consecutiveErrors).Msg("Too many consecutive read errors, capture loop stopped")
				b.lost <- fmt.Errorf("capture stopped after %d consecutive read errors", consecutiveErrors)
				return
			}
			if !b.sleep(100 * time.Millisecond) {
				return
			}
			continue
		}
		consecutiveErrors = 0

		b.sink.write(img)
		b.deliverGray(img, &gray)

		if wait := b.cfg.interval - time.Since(started); wait > 0 {
			if !b.sleep(wait) {
				return
			}
		}
	}
}

// deliverGray converts img to a luminance plane in a pooled buffer
func (b *Binding) deliverGray(img gocv.Mat, gray *gocv.Mat) {
	b.mu.Lock()
	fn := b.analyzer
	b.mu.Unlock()
	if fn == nil {
		return
	}

	gocv.CvtColor(img, gray, gocv.ColorBGRToGray)
	data, err := gray.DataPtrUint8()
	if err != nil || len(data) == 0 {
		return
	}

	plane := b.planes.Get().([]byte)
	if cap(plane) < len(data) {
		plane = make([]byte, len(data))
	}
	plane = plane[:len(data)]
	copy(plane, data)

	b.seq++
	frame := models.NewFrame(
		b.seq,
		time.Now(),
		gray.Cols(),
		gray.Rows(),
		gray.Cols(),
		1,
		plane,
		func() { b.planes.Put(plane[:cap(plane)]) },
	)
	fn(frame)
}

func (b *Binding) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-b.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
