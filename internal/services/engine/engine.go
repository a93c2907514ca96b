package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/motion"
	"motion-recorder-go/internal/services/recorder"
)

// ErrBindSuperseded is returned by a Start whose bind was cancelled by Stop or a later Start
var ErrBindSuperseded = fmt.Errorf("bind superseded: %w", context.Canceled)

// StorageRoots are the directories recordings are written under
type StorageRoots struct {
	Private string
	Public  string // Empty when no shared media directory is available
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEventSink sets the consumer of engine events
func WithEventSink(sink models.EventSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.events = sink
		}
	}
}

// WithStorageRoots sets the recording directories
func WithStorageRoots(roots StorageRoots) Option {
	return func(e *Engine) { e.roots = roots }
}

// WithDetectorOptions passes options to the motion detector
func WithDetectorOptions(opts ...motion.Option) Option {
	return func(e *Engine) { e.detectorOpts = append(e.detectorOpts, opts...) }
}

// Engine drives the Idle, Monitoring, Recording and Cooldown transitions from
// motion readings and recording outcomes.
type Engine struct {
	source FrameSource
	rec    *recorder.Service
	events models.EventSink
	logger zerolog.Logger
	now    func() time.Time
	roots  StorageRoots

	detectorOpts []motion.Option

	// mu is never held across a Bind call. generation changes whenever a
	// binding is detached or installed, which invalidates pending binds and
	// frames from old workers.
	mu             sync.Mutex
	pendingCancel  context.CancelFunc
	settings       models.MotionSettings
	detector       *motion.Detector
	binding        Binding
	bindReq        BindRequest
	generation     uint64
	worker         *analysisWorker
	monitoring     bool
	recording      *models.RecordingHandle
	lastMotion     time.Time
	cooldownUntil  time.Time
	lastReading    models.MotionReading
	lastSaved      string
	exposureLocked bool

	analyzed atomic.Uint64
	dropped  atomic.Uint64
}

// New creates an engine in the Idle state
func New(source FrameSource, rec *recorder.Service, settings models.MotionSettings, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		rec:    rec,
		events: models.NopEventSink{},
		logger: log.Logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	clamped, _, err := settings.Clamp()
	if err != nil {
		e.logger.Warn().Err(err).Msg("Initial settings adjusted")
	}
	e.settings = clamped
	e.detector = motion.NewDetector(clamped, e.detectorOpts...)

	rec.OnFinalize(e.handleFinalize)
	return e
}

// Start binds the frame source and blocks until the bind resolves. Binding
// again with the same request only refreshes the detector settings. A Stop or
// a later Start cancels a pending bind; Start then returns ErrBindSuperseded.
func (e *Engine) Start(ctx context.Context, req BindRequest) error {
	if !req.Facing.IsValid() {
		req.Facing = models.CameraFacingBack
	}

	e.mu.Lock()
	if e.binding != nil && e.bindReq == req {
		e.detector.UpdateSettings(e.settings)
		e.mu.Unlock()
		e.logger.Debug().Str("facing", req.Facing.String()).Str("target", req.Target).Msg("Already bound, settings refreshed")
		return nil
	}
	var q eventQueue
	e.cancelPendingLocked()
	old, oldWorker := e.detachLocked(&q)
	gen := e.generation
	bindCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.pendingCancel = cancel
	e.mu.Unlock()

	e.closeBinding(old, oldWorker)
	q.dispatch(e.events)

	e.logger.Info().Str("facing", req.Facing.String()).Str("target", req.Target).Msg("Binding frame source")

	b, err := e.source.Bind(bindCtx, req)
	if err == nil && b == nil {
		err = errors.New("frame source returned no binding")
	}

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		if b != nil {
			e.closeBinding(b, nil)
		}
		e.logger.Info().Str("facing", req.Facing.String()).Msg("Pending bind superseded")
		return ErrBindSuperseded
	}
	e.pendingCancel = nil
	if err != nil {
		e.mu.Unlock()
		bindErr := models.NewEngineError(models.ErrorBindFailure, "failed to bind frame source", err)
		e.logger.Error().Err(err).Str("facing", req.Facing.String()).Msg("Frame source bind failed")
		e.events.OnError(bindErr)
		return bindErr
	}

	e.generation++
	gen = e.generation
	e.binding = b
	e.bindReq = req
	e.exposureLocked = false
	e.detector.UpdateSettings(e.settings)
	e.detector.Reset()
	w := startWorker(func() { e.dropped.Add(1) }, func(f *models.Frame) { e.handleFrame(gen, f) })
	e.worker = w
	e.applyExposureLocked()
	b.SetAnalyzer(w.offer)
	e.mu.Unlock()

	go e.watchBinding(gen, b)

	e.logger.Info().Str("facing", req.Facing.String()).Msg("Frame source bound")
	return nil
}

// Stop cancels a pending bind, releases the binding, stops any recording and
// returns to Idle without waiting for the source. A finalize arriving
// afterwards is tolerated.
func (e *Engine) Stop() {
	var q eventQueue
	e.mu.Lock()
	e.monitoring = false
	e.cancelPendingLocked()
	old, oldWorker := e.detachLocked(&q)
	e.cooldownUntil = time.Time{}
	e.mu.Unlock()

	e.closeBinding(old, oldWorker)
	q.dispatch(e.events)

	if old != nil {
		e.logger.Info().Msg("Engine stopped")
	}
}

func (e *Engine) cancelPendingLocked() {
	if e.pendingCancel != nil {
		e.pendingCancel()
		e.pendingCancel = nil
	}
}

// watchBinding waits for the stream of generation gen to end on its own
func (e *Engine) watchBinding(gen uint64, b Binding) {
	err, ok := <-b.Lost()
	if !ok || err == nil {
		return
	}
	e.handleLoss(gen, err)
}

// handleLoss finalizes any recording and returns to Idle after the source
// dropped the stream. Start binds again.
func (e *Engine) handleLoss(gen uint64, cause error) {
	var q eventQueue

	e.mu.Lock()
	if gen != e.generation || e.binding == nil {
		e.mu.Unlock()
		return
	}
	e.logger.Error().Err(cause).Str("facing", e.bindReq.Facing.String()).Msg("Frame source lost")
	e.monitoring = false
	old, oldWorker := e.detachLocked(&q)
	e.cooldownUntil = time.Time{}
	lossErr := models.NewEngineError(models.ErrorBindFailure, "frame source lost", cause)
	q.add(func(s models.EventSink) { s.OnError(lossErr) })
	e.mu.Unlock()

	e.closeBinding(old, oldWorker)
	q.dispatch(e.events)
}

// SetMonitoringEnabled toggles analysis. Enabling resets the detector;
// disabling stops an active recording.
func (e *Engine) SetMonitoringEnabled(enabled bool) {
	var q eventQueue

	e.mu.Lock()
	switch {
	case enabled && !e.monitoring:
		e.monitoring = true
		e.detector.Reset()
		e.logger.Info().Msg("Monitoring enabled")
	case !enabled && e.monitoring:
		e.monitoring = false
		e.stopRecordingLocked(&q)
		e.cooldownUntil = time.Time{}
		e.logger.Info().Msg("Monitoring disabled")
	}
	e.applyExposureLocked()
	e.mu.Unlock()

	q.dispatch(e.events)
}

// UpdateSettings clamps and installs a new settings snapshot without resetting
// detector history. Adjustments are reported as ConfigurationInvalid.
func (e *Engine) UpdateSettings(settings models.MotionSettings) (models.MotionSettings, []models.SettingAdjustment) {
	clamped, adj, err := settings.Clamp()

	e.mu.Lock()
	e.settings = clamped
	e.detector.UpdateSettings(clamped)
	e.applyExposureLocked()
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn().Err(err).Int("adjusted", len(adj)).Msg("Settings clamped to valid range")
		e.events.OnError(err)
	}
	return clamped, adj
}

// Settings returns the active snapshot
func (e *Engine) Settings() models.MotionSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// State returns the reported orchestrator state
func (e *Engine) State() models.OrchestratorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked(e.now())
}

// Snapshot returns a status view of the engine
func (e *Engine) Snapshot() models.EngineSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	snap := models.EngineSnapshot{
		State:          e.stateLocked(now),
		Bound:          e.binding != nil,
		LastReading:    e.lastReading,
		LastSaved:      e.lastSaved,
		FramesAnalyzed: e.analyzed.Load(),
		FramesDropped:  e.dropped.Load(),
		Settings:       e.settings,
	}
	if e.binding != nil {
		snap.Facing = e.bindReq.Facing
		snap.Target = e.bindReq.Target
	}
	if !e.lastMotion.IsZero() {
		t := e.lastMotion
		snap.LastMotionAt = &t
	}
	if now.Before(e.cooldownUntil) {
		t := e.cooldownUntil
		snap.CooldownUntil = &t
	}
	if e.recording != nil {
		h := *e.recording
		snap.Recording = &h
	}
	return snap
}

func (e *Engine) stateLocked(now time.Time) models.OrchestratorState {
	switch {
	case e.binding == nil || !e.monitoring:
		return models.StateIdle
	case e.recording != nil:
		return models.StateRecording
	case now.Before(e.cooldownUntil):
		return models.StateCooldown
	default:
		return models.StateMonitoring
	}
}

// handleFrame runs on the analysis goroutine of binding generation gen
func (e *Engine) handleFrame(gen uint64, frame *models.Frame) {
	defer frame.Release()

	var q eventQueue

	e.mu.Lock()
	if gen != e.generation || e.binding == nil || !e.monitoring {
		e.mu.Unlock()
		return
	}

	reading := e.detector.Analyze(frame)
	e.analyzed.Add(1)
	e.lastReading = reading
	q.add(func(s models.EventSink) { s.OnMotion(reading.Ratio, reading.RatioAvg) })

	now := e.now()
	switch {
	case reading.MotionDetected:
		e.lastMotion = now
		if e.recording == nil && !now.Before(e.cooldownUntil) {
			e.logger.Info().
				Float64("ratio", reading.Ratio).
				Float64("avg", reading.RatioAvg).
				Msg("Motion trigger")
			q.add(func(s models.EventSink) { s.OnMotionTrigger() })
			e.startRecordingLocked(&q, now)
		}
	case e.recording != nil && now.Sub(e.lastMotion) > e.settings.StopDelay:
		e.logger.Info().
			Dur("idle", now.Sub(e.lastMotion)).
			Dur("stop_delay", e.settings.StopDelay).
			Msg("No motion within stop delay")
		e.stopRecordingLocked(&q)
		e.cooldownUntil = now.Add(e.settings.Cooldown)
	}
	e.mu.Unlock()

	q.dispatch(e.events)
}

// startRecordingLocked tries with the requested audio, then once muted on an audio failure
func (e *Engine) startRecordingLocked(q *eventQueue, now time.Time) {
	if e.binding == nil {
		return
	}
	sink := e.binding.Sink()
	storage := e.storageLocked()
	audio := e.settings.RecordAudio

	handle, err := e.rec.StartRecording(sink, audio, storage)
	if err != nil && audio && errors.Is(err, recorder.ErrAudioCapture) {
		e.logger.Warn().Err(err).Msg("Audio capture failed, retrying without audio")
		handle, err = e.rec.StartRecording(sink, false, storage)
	}

	switch {
	case errors.Is(err, recorder.ErrAlreadyActive):
		active, ok := e.rec.Active()
		e.logger.Debug().Str("location", active.Location).Msg("Already recording")
		if !ok {
			return
		}
		handle = &active
	case err != nil:
		startErr := models.NewEngineError(models.ErrorRecordingStartFailure, "failed to start recording", err)
		e.logger.Error().Err(err).Msg("Recording start failed")
		q.add(func(s models.EventSink) { s.OnError(startErr) })
		return
	}

	e.recording = handle
	e.lastMotion = now
	location := handle.Location
	e.logger.Info().
		Str("location", location).
		Bool("audio", handle.AudioEnabled).
		Str("state", models.StateRecording.String()).
		Msg("Recording started")
	q.add(func(s models.EventSink) { s.OnRecordingStarted(location) })
}

// stopRecordingLocked stops the active recording and queues recording-stopped
func (e *Engine) stopRecordingLocked(q *eventQueue) {
	if e.recording == nil {
		return
	}
	location := e.recording.Location
	if loc, ok := e.rec.StopRecording(); ok && loc != "" {
		location = loc
	}
	e.recording = nil
	e.lastSaved = location

	e.logger.Info().Str("location", location).Msg("Recording stopped")
	q.add(func(s models.EventSink) { s.OnRecordingStopped(location) })
}

// handleFinalize is called by the session manager outside its lock
func (e *Engine) handleFinalize(f recorder.Finalized) {
	var q eventQueue

	e.mu.Lock()
	if f.Success {
		e.lastSaved = f.Location
	}

	current := e.recording != nil && e.recording.ID == f.Handle.ID
	switch {
	case !current && f.Success:
		// Finalize of a recording already stopped or discarded
	case !current:
		finErr := models.NewEngineError(models.ErrorRecordingFinalizeFailure, "recording finalize failed", errors.New(f.Error))
		e.logger.Error().Str("location", f.Location).Str("error", f.Error).Msg("Recording finalize failed")
		q.add(func(s models.EventSink) { s.OnError(finErr) })
	case f.Success:
		// The sink ended the recording on its own
		now := e.now()
		e.recording = nil
		e.cooldownUntil = now.Add(e.settings.Cooldown)
		location := f.Location
		e.logger.Info().Str("location", location).Msg("Recording ended by sink")
		q.add(func(s models.EventSink) { s.OnRecordingStopped(location) })
	default:
		now := e.now()
		e.recording = nil
		finErr := models.NewEngineError(models.ErrorRecordingFinalizeFailure, "recording finalize failed", errors.New(f.Error))
		e.logger.Error().Str("location", f.Location).Str("error", f.Error).Bool("audio", f.Handle.AudioEnabled).Msg("Recording finalize failed")
		q.add(func(s models.EventSink) { s.OnError(finErr) })

		if f.Handle.AudioEnabled && e.monitoring && e.binding != nil {
			e.retryMutedLocked(&q, now)
		}
		if e.recording == nil {
			e.cooldownUntil = now.Add(e.settings.Cooldown)
		}
	}
	e.mu.Unlock()

	q.dispatch(e.events)
}

// retryMutedLocked restarts a recording that failed to finalize with audio enabled
func (e *Engine) retryMutedLocked(q *eventQueue, now time.Time) {
	e.logger.Warn().Msg("Retrying recording without audio")
	handle, err := e.rec.StartRecording(e.binding.Sink(), false, e.storageLocked())
	if err != nil {
		startErr := models.NewEngineError(models.ErrorRecordingStartFailure, "failed to restart recording without audio", err)
		q.add(func(s models.EventSink) { s.OnError(startErr) })
		return
	}
	e.recording = handle
	e.lastMotion = now
	location := handle.Location
	q.add(func(s models.EventSink) { s.OnRecordingStarted(location) })
}

// detachLocked stops recording and takes the current binding out of the engine
func (e *Engine) detachLocked(q *eventQueue) (Binding, *analysisWorker) {
	e.stopRecordingLocked(q)
	if e.exposureLocked {
		if locker, ok := e.binding.(ExposureLocker); ok {
			if err := locker.SetExposureLock(false); err != nil {
				e.logger.Warn().Err(err).Msg("Failed to release exposure lock")
			}
		}
		e.exposureLocked = false
	}
	b, w := e.binding, e.worker
	e.binding = nil
	e.worker = nil
	e.generation++
	return b, w
}

func (e *Engine) closeBinding(b Binding, w *analysisWorker) {
	if b == nil {
		return
	}
	b.ClearAnalyzer()
	if w != nil {
		w.stop()
	}
	if err := b.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to close frame source")
	}
}

// applyExposureLocked holds exposure while monitoring with the lock enabled
func (e *Engine) applyExposureLocked() {
	locker, ok := e.binding.(ExposureLocker)
	if !ok {
		return
	}
	want := e.monitoring && e.settings.AutoExposureLock
	if want == e.exposureLocked {
		return
	}
	if err := locker.SetExposureLock(want); err != nil {
		e.logger.Warn().Err(err).Bool("locked", want).Msg("Failed to set exposure lock")
		return
	}
	e.exposureLocked = want
}

func (e *Engine) storageLocked() recorder.StorageConfig {
	return recorder.StorageConfig{
		Mode:        e.settings.StorageMode,
		FolderName:  e.settings.StorageFolderName,
		PrivateRoot: e.roots.Private,
		PublicRoot:  e.roots.Public,
	}
}

// eventQueue defers sink calls until the engine lock is released
type eventQueue []func(models.EventSink)

func (q *eventQueue) add(fn func(models.EventSink)) {
	*q = append(*q, fn)
}

func (q eventQueue) dispatch(sink models.EventSink) {
	for _, fn := range q {
		fn(sink)
	}
}
