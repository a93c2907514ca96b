package status

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"motion-recorder-go/internal/models"
)

// ServiceState is the coarse, human-facing view of the recorder service
type ServiceState struct {
	Status         models.OrchestratorState `json:"status"`
	MotionRatio    float64                  `json:"motion_ratio"`
	MotionRatioAvg float64                  `json:"motion_ratio_avg"`
	LastSavedFile  string                   `json:"last_saved_file,omitempty"`
	Message        string                   `json:"message,omitempty"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// Repository tracks ServiceState and the service log from engine events.
// Status only distinguishes idle, monitoring and recording.
type Repository struct {
	mu     sync.RWMutex
	state  ServiceState
	logs   *LogBuffer
	logger zerolog.Logger
	now    func() time.Time
}

func NewRepository(logLines int, logger zerolog.Logger) *Repository {
	r := &Repository{
		logs:   NewLogBuffer(logLines),
		logger: logger.With().Str("component", "status").Logger(),
		now:    time.Now,
	}
	r.state = ServiceState{Status: models.StateIdle, UpdatedAt: r.now()}
	return r
}

func (r *Repository) State() ServiceState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Repository) Logs() []LogEntry {
	return r.logs.Lines()
}

func (r *Repository) SetStatus(s models.OrchestratorState) {
	if s == models.StateCooldown {
		s = models.StateMonitoring
	}
	r.update(func(st *ServiceState) { st.Status = s })
}

// SetMessage records a user-facing message and mirrors it into the log
func (r *Repository) SetMessage(message string) {
	r.update(func(st *ServiceState) { st.Message = message })
	if message != "" {
		r.AddLog("Message: " + message)
	}
}

func (r *Repository) AddLog(message string) {
	r.logs.Add(r.now(), message)
	r.logger.Debug().Str("line", message).Msg("Service log")
}

func (r *Repository) update(fn func(*ServiceState)) {
	r.mu.Lock()
	fn(&r.state)
	r.state.UpdatedAt = r.now()
	r.mu.Unlock()
}

func (r *Repository) OnMotion(ratio, avg float64) {
	r.update(func(st *ServiceState) {
		st.MotionRatio = ratio
		st.MotionRatioAvg = avg
	})
}

func (r *Repository) OnMotionTrigger() {
	r.AddLog("Motion detected")
}

func (r *Repository) OnRecordingStarted(location string) {
	r.SetStatus(models.StateRecording)
	r.AddLog("Recording started: " + location)
}

func (r *Repository) OnRecordingStopped(location string) {
	r.update(func(st *ServiceState) {
		if st.Status == models.StateRecording {
			st.Status = models.StateMonitoring
		}
		st.LastSavedFile = location
	})
	r.AddLog("Recording stopped: " + location)
}

// OnError records err. A bind failure means the camera is gone, so the
// service is idle until monitoring is started again.
func (r *Repository) OnError(err error) {
	var engErr *models.EngineError
	if errors.As(err, &engErr) && engErr.Kind == models.ErrorBindFailure {
		r.SetStatus(models.StateIdle)
	}
	r.SetMessage("Error: " + err.Error())
}
