package motion

import "motion-recorder-go/internal/models"

const (
	// DefaultWarmupFrames is the number of analyze calls after start or reset during which motion is never reported
	DefaultWarmupFrames = 20

	// SpikeRatio is the raw ratio above which a frame is treated as a sensor or exposure spike
	SpikeRatio = 0.6

	// spikeSuppressCount is the spike-guard count below which a spike is zeroed instead of clamped
	spikeSuppressCount = 2

	ratioWindowSize = 3
)

// Option configures a Detector
type Option func(*Detector)

// WithWarmupFrames overrides the warmup length. Negative values are treated as zero.
func WithWarmupFrames(n int) Option {
	return func(d *Detector) {
		if n < 0 {
			n = 0
		}
		d.initialWarmup = n
		d.warmup = n
	}
}

// Detector compares successive frames and debounces the change ratio into a motion decision.
// It is not safe for concurrent use; the engine calls it from a single goroutine.
type Detector struct {
	settings models.MotionSettings

	previous      *models.FrameSample
	window        *ratioWindow
	frameCounter  uint64
	consecutive   int
	spikeGuard    int
	warmup        int
	initialWarmup int
}

// NewDetector creates a detector using the given settings snapshot
func NewDetector(settings models.MotionSettings, opts ...Option) *Detector {
	d := &Detector{
		settings:      settings,
		window:        newRatioWindow(ratioWindowSize),
		warmup:        DefaultWarmupFrames,
		initialWarmup: DefaultWarmupFrames,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// UpdateSettings swaps the settings snapshot. History is kept.
func (d *Detector) UpdateSettings(settings models.MotionSettings) {
	d.settings = settings
}

// Settings returns the current snapshot
func (d *Detector) Settings() models.MotionSettings {
	return d.settings
}

// Reset clears all frame history and restores warmup. Settings are kept.
func (d *Detector) Reset() {
	d.previous = nil
	d.window.reset()
	d.frameCounter = 0
	d.consecutive = 0
	d.spikeGuard = 0
	d.warmup = d.initialWarmup
}

// Analyze runs one detection pass over frame. It does not release the frame.
func (d *Detector) Analyze(frame *models.Frame) models.MotionReading {
	// Motion may only be reported once warmup has already reached zero on entry
	warmedUp := d.warmup <= 0
	defer func() {
		if d.warmup > 0 {
			d.warmup--
		}
	}()

	d.frameCounter++
	nth := d.settings.AnalyzeEveryNthFrame
	if nth < 1 {
		nth = 1
	}
	if d.frameCounter%uint64(nth) != 0 {
		return d.noop()
	}

	current := Sample(frame, d.settings.DownsampleStride)
	if current.Empty() {
		return d.noop()
	}

	prev := d.previous
	d.previous = current
	if prev == nil || prev.Width != current.Width || prev.Height != current.Height {
		// First frame, or geometry changed: this frame is the new baseline
		return d.noop()
	}

	ratio := changedRatio(prev.Samples, current.Samples, d.settings.PixelDiffThreshold)
	ratio = d.guardSpike(ratio)

	d.window.push(ratio)
	avg := d.window.mean()

	if avg >= d.settings.MotionRatioThreshold {
		d.consecutive++
	} else {
		d.consecutive = 0
	}

	return models.MotionReading{
		Ratio:          ratio,
		RatioAvg:       avg,
		MotionDetected: d.consecutive >= d.settings.ConsecutiveMotionFrames && warmedUp,
	}
}

// guardSpike zeroes the first extreme frame of a run and clamps the rest
func (d *Detector) guardSpike(ratio float64) float64 {
	if ratio > SpikeRatio {
		d.spikeGuard++
	} else {
		d.spikeGuard = 0
	}
	if ratio > SpikeRatio && d.spikeGuard < spikeSuppressCount {
		return 0
	}
	if ratio > SpikeRatio {
		return SpikeRatio
	}
	return ratio
}

func (d *Detector) noop() models.MotionReading {
	return models.MotionReading{Ratio: 0, RatioAvg: d.window.mean()}
}

func changedRatio(prev, cur []byte, threshold int) float64 {
	if len(cur) == 0 {
		return 0
	}
	changed := 0
	for i := range cur {
		diff := int(cur[i]) - int(prev[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > threshold {
			changed++
		}
	}
	return float64(changed) / float64(len(cur))
}
