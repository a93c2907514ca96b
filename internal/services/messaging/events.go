package messaging

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"motion-recorder-go/internal/models"
)

// Event types published under the subject prefix
const (
	EventMotionTrigger    = "motion_trigger"
	EventRecordingStarted = "recording_started"
	EventRecordingStopped = "recording_stopped"
	EventError            = "error"
)

// EngineEvent is the JSON payload published for each engine event
type EngineEvent struct {
	Type      string    `json:"type"`
	WorkerID  string    `json:"worker_id"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Ratio     float64   `json:"ratio,omitempty"`
	RatioAvg  float64   `json:"ratio_avg,omitempty"`
}

// EventPublisher forwards engine events to NATS subjects <prefix>.<type>.
// Per-frame motion readings are not published; the last one rides along with the trigger.
type EventPublisher struct {
	pub      Publisher
	prefix   string
	workerID string
	logger   zerolog.Logger
	now      func() time.Time

	lastRatio float64
	lastAvg   float64
}

func NewEventPublisher(pub Publisher, prefix, workerID string, logger zerolog.Logger) *EventPublisher {
	return &EventPublisher{
		pub:      pub,
		prefix:   prefix,
		workerID: workerID,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *EventPublisher) OnMotion(ratio, avg float64) {
	p.lastRatio = ratio
	p.lastAvg = avg
}

func (p *EventPublisher) OnMotionTrigger() {
	p.publish(EngineEvent{Type: EventMotionTrigger, Ratio: p.lastRatio, RatioAvg: p.lastAvg})
}

func (p *EventPublisher) OnRecordingStarted(location string) {
	p.publish(EngineEvent{Type: EventRecordingStarted, Location: location})
}

func (p *EventPublisher) OnRecordingStopped(location string) {
	p.publish(EngineEvent{Type: EventRecordingStopped, Location: location})
}

func (p *EventPublisher) OnError(err error) {
	ev := EngineEvent{Type: EventError, Message: err.Error()}
	var engErr *models.EngineError
	if errors.As(err, &engErr) {
		ev.ErrorKind = engErr.Kind.String()
	}
	p.publish(ev)
}

func (p *EventPublisher) publish(ev EngineEvent) {
	ev.WorkerID = p.workerID
	ev.Timestamp = p.now()
	subject := p.prefix + "." + ev.Type
	if err := p.pub.Publish(subject, ev); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("Failed to publish engine event")
	}
}
