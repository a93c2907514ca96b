package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"motion-recorder-go/internal/services/recorder"
)

var errWriterBusy = errors.New("video writer already recording")

// VideoSink writes capture frames to an OpenCV VideoWriter. OpenCV has no
// audio path, so audio requests fail with recorder.ErrAudioCapture.
type VideoSink struct {
	codec  string
	fps    float64
	width  int
	height int
	logger zerolog.Logger

	mu     sync.Mutex
	active *videoRecording
}

func newVideoSink(codec string, fps float64, width, height int, logger zerolog.Logger) *VideoSink {
	return &VideoSink{
		codec:  codec,
		fps:    fps,
		width:  width,
		height: height,
		logger: logger,
	}
}

// RequestRecording opens the output file. Finalize is reported from a separate goroutine.
func (s *VideoSink) RequestRecording(dest recorder.Destination, audioEnabled bool, onFinalize func(recorder.FinalizeResult)) (recorder.ActiveRecording, error) {
	if audioEnabled {
		return nil, fmt.Errorf("opencv writer: %w", recorder.ErrAudioCapture)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, errWriterBusy
	}

	vw, err := gocv.VideoWriterFile(dest.Path, s.codec, s.fps, s.width, s.height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open video writer: %w", err)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("video writer not opened for %s", dest.Path)
	}

	rec := &videoRecording{
		sink:       s,
		path:       dest.Path,
		writer:     vw,
		onFinalize: onFinalize,
	}
	s.active = rec

	s.logger.Info().
		Str("location", dest.Path).
		Str("codec", s.codec).
		Float64("fps", s.fps).
		Msg("Video writer opened")
	return rec, nil
}

// write appends img to the active recording, if any
func (s *VideoSink) write(img gocv.Mat) {
	s.mu.Lock()
	rec := s.active
	s.mu.Unlock()
	if rec != nil {
		rec.write(img)
	}
}

// closeActive finalizes the active recording when the capture goes away
func (s *VideoSink) closeActive() {
	s.mu.Lock()
	rec := s.active
	s.mu.Unlock()
	if rec != nil {
		rec.Stop()
	}
}

func (s *VideoSink) release(rec *videoRecording) {
	s.mu.Lock()
	if s.active == rec {
		s.active = nil
	}
	s.mu.Unlock()
}

type videoRecording struct {
	sink       *VideoSink
	path       string
	onFinalize func(recorder.FinalizeResult)

	mu       sync.Mutex
	writer   *gocv.VideoWriter
	frames   int
	writeErr error
	stopOnce sync.Once
}

func (r *videoRecording) write(img gocv.Mat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writer == nil {
		return
	}
	if err := r.writer.Write(img); err != nil {
		if r.writeErr == nil {
			r.writeErr = err
		}
		return
	}
	r.frames++
}

// Stop detaches the recording from the capture and closes the file in the background
func (r *videoRecording) Stop() {
	r.stopOnce.Do(func() {
		r.sink.release(r)
		go r.finalize()
	})
}

func (r *videoRecording) finalize() {
	r.mu.Lock()
	vw := r.writer
	r.writer = nil
	frames := r.frames
	writeErr := r.writeErr
	r.mu.Unlock()

	closeErr := vw.Close()

	res := recorder.FinalizeResult{Location: r.path, Success: true}
	switch {
	case writeErr != nil:
		res.Success = false
		res.Error = writeErr.Error()
	case closeErr != nil:
		res.Success = false
		res.Error = closeErr.Error()
	case frames == 0:
		res.Success = false
		res.Error = "no frames written"
	}

	r.sink.logger.Info().
		Str("location", r.path).
		Int("frames", frames).
		Bool("success", res.Success).
		Msg("Video writer closed")

	if r.onFinalize != nil {
		r.onFinalize(res)
	}
}
