package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/recorder"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sinkRequest struct {
	dest       recorder.Destination
	audio      bool
	onFinalize func(recorder.FinalizeResult)
	stopped    bool
}

type fakeRecording struct {
	sink *fakeSink
	req  *sinkRequest
}

func (r *fakeRecording) Stop() {
	r.sink.mu.Lock()
	r.req.stopped = true
	r.sink.mu.Unlock()
}

type fakeSink struct {
	mu           sync.Mutex
	requests     []*sinkRequest
	audioFails   bool  // Requests with audio fail with ErrAudioCapture
	err          error // Every request fails with err
	attemptAudio []bool
}

func (s *fakeSink) RequestRecording(dest recorder.Destination, audio bool, onFinalize func(recorder.FinalizeResult)) (recorder.ActiveRecording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attemptAudio = append(s.attemptAudio, audio)
	if s.err != nil {
		return nil, s.err
	}
	if audio && s.audioFails {
		return nil, fmt.Errorf("open microphone: %w", recorder.ErrAudioCapture)
	}
	req := &sinkRequest{dest: dest, audio: audio, onFinalize: onFinalize}
	s.requests = append(s.requests, req)
	return &fakeRecording{sink: s, req: req}, nil
}

func (s *fakeSink) last() *sinkRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

func (s *fakeSink) attempts() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.attemptAudio...)
}

type fakeBinding struct {
	mu       sync.Mutex
	req      BindRequest
	sink     *fakeSink
	analyzer func(*models.Frame)
	closed   bool
	locks    []bool
	lost     chan error
	lostOnce sync.Once
}

func newFakeBinding(req BindRequest, sink *fakeSink) *fakeBinding {
	return &fakeBinding{req: req, sink: sink, lost: make(chan error, 1)}
}

func (b *fakeBinding) SetAnalyzer(fn func(*models.Frame)) {
	b.mu.Lock()
	b.analyzer = fn
	b.mu.Unlock()
}

func (b *fakeBinding) ClearAnalyzer() {
	b.mu.Lock()
	b.analyzer = nil
	b.mu.Unlock()
}

func (b *fakeBinding) Sink() recorder.Sink { return b.sink }

func (b *fakeBinding) Lost() <-chan error { return b.lost }

func (b *fakeBinding) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.lostOnce.Do(func() { close(b.lost) })
	return nil
}

// fail ends the stream the way a camera that stopped answering would
func (b *fakeBinding) fail(err error) {
	b.lostOnce.Do(func() {
		b.lost <- err
		close(b.lost)
	})
}

func (b *fakeBinding) SetExposureLock(locked bool) error {
	b.mu.Lock()
	b.locks = append(b.locks, locked)
	b.mu.Unlock()
	return nil
}

// deliver pushes a frame the way a camera delivery goroutine would
func (b *fakeBinding) deliver(f *models.Frame) bool {
	b.mu.Lock()
	fn := b.analyzer
	b.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(f)
	return true
}

func (b *fakeBinding) exposureCalls() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.locks...)
}

func (b *fakeBinding) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type fakeSource struct {
	mu       sync.Mutex
	sink     *fakeSink
	err      error
	bindings []*fakeBinding
}

func (s *fakeSource) Bind(ctx context.Context, req BindRequest) (Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	b := newFakeBinding(req, s.sink)
	s.bindings = append(s.bindings, b)
	return b, nil
}

// blockingSource holds every Bind until release is closed. With honorCtx it
// also returns early when the bind context is cancelled.
type blockingSource struct {
	sink     *fakeSink
	honorCtx bool
	entered  chan struct{}
	release  chan struct{}

	mu       sync.Mutex
	bindings []*fakeBinding
}

func newBlockingSource(sink *fakeSink, honorCtx bool) *blockingSource {
	return &blockingSource{
		sink:     sink,
		honorCtx: honorCtx,
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
}

func (s *blockingSource) Bind(ctx context.Context, req BindRequest) (Binding, error) {
	s.entered <- struct{}{}
	if s.honorCtx {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.release:
		}
	} else {
		<-s.release
	}
	b := newFakeBinding(req, s.sink)
	s.mu.Lock()
	s.bindings = append(s.bindings, b)
	s.mu.Unlock()
	return b, nil
}

func (s *blockingSource) current() *fakeBinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bindings) == 0 {
		return nil
	}
	return s.bindings[len(s.bindings)-1]
}

func (s *fakeSource) binds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bindings)
}

func (s *fakeSource) current() *fakeBinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bindings) == 0 {
		return nil
	}
	return s.bindings[len(s.bindings)-1]
}

type recordedEvents struct {
	mu       sync.Mutex
	motions  int
	triggers int
	started  []string
	stopped  []string
	errs     []error
}

func (r *recordedEvents) OnMotion(float64, float64) {
	r.mu.Lock()
	r.motions++
	r.mu.Unlock()
}

func (r *recordedEvents) OnMotionTrigger() {
	r.mu.Lock()
	r.triggers++
	r.mu.Unlock()
}

func (r *recordedEvents) OnRecordingStarted(loc string) {
	r.mu.Lock()
	r.started = append(r.started, loc)
	r.mu.Unlock()
}

func (r *recordedEvents) OnRecordingStopped(loc string) {
	r.mu.Lock()
	r.stopped = append(r.stopped, loc)
	r.mu.Unlock()
}

func (r *recordedEvents) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recordedEvents) errorKinds() []models.ErrorKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []models.ErrorKind
	for _, err := range r.errs {
		var engErr *models.EngineError
		if errors.As(err, &engErr) {
			kinds = append(kinds, engErr.Kind)
		}
	}
	return kinds
}

func (r *recordedEvents) counts() (triggers, started, stopped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.triggers, len(r.started), len(r.stopped)
}

// scene produces frames that either repeat (still) or flip a quarter of the pixels (moving)
type scene struct {
	lit bool
}

const sceneSide = 8

func (s *scene) frame() *models.Frame {
	plane := make([]byte, sceneSide*sceneSide)
	if s.lit {
		for y := 0; y < sceneSide/2; y++ {
			for x := 0; x < sceneSide/2; x++ {
				plane[y*sceneSide+x] = 200
			}
		}
	}
	return models.NewFrame(0, time.Time{}, sceneSide, sceneSide, sceneSide, 1, plane, nil)
}

func (s *scene) moving() *models.Frame {
	s.lit = !s.lit
	return s.frame()
}

func (s *scene) still() *models.Frame {
	return s.frame()
}
