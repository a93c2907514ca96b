package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"motion-recorder-go/internal/models"
)

// SnapshotFunc returns the current engine view for state gauges
type SnapshotFunc func() models.EngineSnapshot

// Metrics holds the recorder's Prometheus collectors. It doubles as an
// engine event sink so counters move without extra plumbing.
type Metrics struct {
	registry *prometheus.Registry

	motionRatio    prometheus.Gauge
	motionRatioAvg prometheus.Gauge
	triggers       prometheus.Counter
	started        prometheus.Counter
	stopped        prometheus.Counter
	errors         *prometheus.CounterVec

	mu       sync.RWMutex
	snapshot SnapshotFunc
}

// New creates a new Metrics instance with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		motionRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "motion_ratio",
			Help: "Changed-sample ratio of the last analyzed frame",
		}),
		motionRatioAvg: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "motion_ratio_avg",
			Help: "Rolling mean of recent motion ratios",
		}),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "motion_triggers_total",
			Help: "Motion triggers that reached the orchestrator",
		}),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recordings_started_total",
			Help: "Recordings started",
		}),
		stopped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recordings_stopped_total",
			Help: "Recordings stopped",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_errors_total",
			Help: "Errors reported by the engine, by kind",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(m.motionRatio, m.motionRatioAvg, m.triggers, m.started, m.stopped, m.errors)
	m.registerStateGauges()

	return m
}

// SetSnapshotSource attaches the engine view read by the state gauges
func (m *Metrics) SetSnapshotSource(fn SnapshotFunc) {
	m.mu.Lock()
	m.snapshot = fn
	m.mu.Unlock()
}

func (m *Metrics) read() (models.EngineSnapshot, bool) {
	m.mu.RLock()
	fn := m.snapshot
	m.mu.RUnlock()
	if fn == nil {
		return models.EngineSnapshot{}, false
	}
	return fn(), true
}

func (m *Metrics) registerStateGauges() {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "engine_bound",
			Help: "Camera binding active (0=unbound, 1=bound)",
		},
		func() float64 {
			s, ok := m.read()
			return boolGauge(ok && s.Bound)
		},
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "recording_active",
			Help: "Recording active (0=inactive, 1=active)",
		},
		func() float64 {
			s, ok := m.read()
			return boolGauge(ok && s.Recording != nil)
		},
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "engine_cooldown_active",
			Help: "Re-trigger guard active (0=no, 1=yes)",
		},
		func() float64 {
			s, ok := m.read()
			return boolGauge(ok && s.State == models.StateCooldown)
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "frames_analyzed_total",
			Help: "Frames handed to the motion detector",
		},
		func() float64 {
			s, _ := m.read()
			return float64(s.FramesAnalyzed)
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "frames_dropped_total",
			Help: "Frames replaced in the analysis inbox before being analyzed",
		},
		func() float64 {
			s, _ := m.read()
			return float64(s.FramesDropped)
		},
	))
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func (m *Metrics) OnMotion(ratio, avg float64) {
	m.motionRatio.Set(ratio)
	m.motionRatioAvg.Set(avg)
}

func (m *Metrics) OnMotionTrigger() { m.triggers.Inc() }

func (m *Metrics) OnRecordingStarted(string) { m.started.Inc() }

func (m *Metrics) OnRecordingStopped(string) { m.stopped.Inc() }

func (m *Metrics) OnError(err error) {
	kind := "unknown"
	var engErr *models.EngineError
	if errors.As(err, &engErr) {
		kind = engErr.Kind.String()
	}
	m.errors.WithLabelValues(kind).Inc()
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
