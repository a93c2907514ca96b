package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/models"
)

var (
	// ErrAlreadyActive is returned by StartRecording while a recording exists
	ErrAlreadyActive = errors.New("recording already active")

	// ErrAudioCapture is returned by sinks when the audio path cannot be opened
	ErrAudioCapture = errors.New("audio capture unavailable")

	// ErrNoSink is returned when no storage sink is bound
	ErrNoSink = errors.New("no storage sink bound")
)

// FinalizeResult is reported by a sink once the output is closed
type FinalizeResult struct {
	Location string
	Success  bool
	Error    string
}

// ActiveRecording is the sink-side handle of an in-flight recording
type ActiveRecording interface {
	// Stop asks the sink to finish the recording. It must not wait for finalize.
	Stop()
}

// Sink writes recordings. onFinalize is invoked exactly once per recording and
// never from inside RequestRecording.
type Sink interface {
	RequestRecording(dest Destination, audioEnabled bool, onFinalize func(FinalizeResult)) (ActiveRecording, error)
}

// AudioPermission reports whether audio capture is currently allowed
type AudioPermission interface {
	AudioGranted() bool
}

// AudioPermissionFunc adapts a function to AudioPermission
type AudioPermissionFunc func() bool

func (f AudioPermissionFunc) AudioGranted() bool { return f() }

// Finalized is delivered to the finalize handler for every sink finalize
type Finalized struct {
	Handle   models.RecordingHandle
	Location string
	Success  bool
	Error    string
	Stale    bool // Handle was already stopped or replaced when finalize arrived
}

type session struct {
	handle models.RecordingHandle
	rec    ActiveRecording
}

// Service owns the single active recording
type Service struct {
	mu           sync.Mutex
	active       *session
	lastLocation string

	permission AudioPermission
	onFinalize func(Finalized)
	now        func() time.Time
	logger     zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithAudioPermission sets the permission gate for audio capture
func WithAudioPermission(p AudioPermission) Option {
	return func(s *Service) { s.permission = p }
}

// WithClock replaces time.Now for file naming and handle timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		now:    time.Now,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnFinalize registers the handler notified after each sink finalize
func (s *Service) OnFinalize(fn func(Finalized)) {
	s.mu.Lock()
	s.onFinalize = fn
	s.mu.Unlock()
}

// StartRecording opens a new recording on sink. Audio is enabled only when
// requested and permitted. Returns ErrAlreadyActive while another recording exists.
func (s *Service) StartRecording(sink Sink, audioRequested bool, storage StorageConfig) (*models.RecordingHandle, error) {
	if sink == nil {
		return nil, ErrNoSink
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return nil, ErrAlreadyActive
	}

	now := s.now()
	dest, err := ResolveDestination(storage, now)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare storage: %w", err)
	}

	audio := audioRequested && s.audioGranted()
	if audioRequested && !audio {
		s.logger.Warn().Msg("Audio permission not granted, recording video only")
	}

	handle := models.RecordingHandle{
		ID:           uuid.NewString(),
		Location:     dest.Path,
		AudioEnabled: audio,
		StorageMode:  dest.Mode,
		CreatedAt:    now,
	}

	rec, err := sink.RequestRecording(dest, audio, s.finalizer(handle))
	if err != nil {
		return nil, fmt.Errorf("failed to request recording: %w", err)
	}

	s.active = &session{handle: handle, rec: rec}

	s.logger.Info().
		Str("recording_id", handle.ID).
		Str("location", handle.Location).
		Str("storage_mode", dest.Mode.String()).
		Bool("audio", audio).
		Msg("Recording started")

	out := handle
	return &out, nil
}

// StopRecording clears the active recording and asks the sink to stop it.
// It returns the location of the stopped recording; finalize arrives later.
func (s *Service) StopRecording() (string, bool) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return "", false
	}
	sess := s.active
	s.active = nil
	s.lastLocation = sess.handle.Location
	s.mu.Unlock()

	if sess.rec != nil {
		sess.rec.Stop()
	}

	s.logger.Info().
		Str("recording_id", sess.handle.ID).
		Str("location", sess.handle.Location).
		Dur("duration", s.now().Sub(sess.handle.CreatedAt)).
		Msg("Recording stop requested")
	return sess.handle.Location, true
}

// Active returns a copy of the active handle
func (s *Service) Active() (models.RecordingHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.RecordingHandle{}, false
	}
	return s.active.handle, true
}

// IsRecording reports whether a recording is active
func (s *Service) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Status returns a snapshot for status consumers
func (s *Service) Status() models.RecordingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.RecordingStatus{LastLocation: s.lastLocation}
	if s.active == nil {
		return st
	}
	h := s.active.handle
	started := h.CreatedAt
	st.Active = true
	st.ID = h.ID
	st.Location = h.Location
	st.AudioEnabled = h.AudioEnabled
	st.StartedAt = &started
	st.Duration = s.now().Sub(started)
	return st
}

func (s *Service) audioGranted() bool {
	if s.permission == nil {
		return true
	}
	return s.permission.AudioGranted()
}

// finalizer builds the once-only finalize callback for handle
func (s *Service) finalizer(handle models.RecordingHandle) func(FinalizeResult) {
	var once sync.Once
	return func(res FinalizeResult) {
		once.Do(func() { s.finalize(handle, res) })
	}
}

func (s *Service) finalize(handle models.RecordingHandle, res FinalizeResult) {
	location := res.Location
	if location == "" {
		location = handle.Location
	}

	s.mu.Lock()
	stale := s.active == nil || s.active.handle.ID != handle.ID
	if !stale {
		s.active = nil
	}
	if res.Success {
		s.lastLocation = location
	}
	handler := s.onFinalize
	s.mu.Unlock()

	event := s.logger.Info()
	if !res.Success {
		event = s.logger.Error().Str("error", res.Error)
	}
	event.
		Str("recording_id", handle.ID).
		Str("location", location).
		Bool("success", res.Success).
		Bool("stale", stale).
		Msg("Recording finalized")

	if handler != nil {
		handler(Finalized{
			Handle:   handle,
			Location: location,
			Success:  res.Success,
			Error:    res.Error,
			Stale:    stale,
		})
	}
}
