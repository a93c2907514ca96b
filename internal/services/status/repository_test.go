package status

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motion-recorder-go/internal/models"
)

func TestLogBufferKeepsMostRecent(t *testing.T) {
	t.Parallel()

	b := NewLogBuffer(3)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		b.Add(base.Add(time.Duration(i)*time.Second), fmt.Sprintf("line %d", i))
	}

	lines := b.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "line 2", lines[0].Message)
	assert.Equal(t, "line 4", lines[2].Message)
	assert.True(t, lines[0].Time.Before(lines[2].Time))
}

func TestLogBufferPartial(t *testing.T) {
	t.Parallel()

	b := NewLogBuffer(0)
	assert.Empty(t, b.Lines())

	b.Add(time.Now(), "only")
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, "only", b.Lines()[0].Message)
}

func TestRepositoryTracksEvents(t *testing.T) {
	t.Parallel()

	r := NewRepository(10, zerolog.Nop())
	assert.Equal(t, models.StateIdle, r.State().Status)

	r.SetStatus(models.StateMonitoring)
	r.OnMotion(0.2, 0.1)
	r.OnMotionTrigger()
	r.OnRecordingStarted("/rec/a.mp4")
	assert.Equal(t, models.StateRecording, r.State().Status)

	r.OnRecordingStopped("/rec/a.mp4")
	st := r.State()
	assert.Equal(t, models.StateMonitoring, st.Status)
	assert.Equal(t, "/rec/a.mp4", st.LastSavedFile)
	assert.InDelta(t, 0.2, st.MotionRatio, 1e-9)
	assert.InDelta(t, 0.1, st.MotionRatioAvg, 1e-9)

	msgs := make([]string, 0)
	for _, l := range r.Logs() {
		msgs = append(msgs, l.Message)
	}
	assert.Equal(t, []string{
		"Motion detected",
		"Recording started: /rec/a.mp4",
		"Recording stopped: /rec/a.mp4",
	}, msgs)
}

func TestRepositoryErrorsBecomeMessages(t *testing.T) {
	t.Parallel()

	r := NewRepository(10, zerolog.Nop())
	r.OnError(models.NewEngineError(models.ErrorBindFailure, "camera busy", nil))

	assert.Equal(t, "Error: bind_failure: camera busy", r.State().Message)
	logs := r.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "Message: Error: bind_failure: camera busy", logs[0].Message)
}

func TestRepositoryLostCameraReportsIdle(t *testing.T) {
	t.Parallel()

	r := NewRepository(10, zerolog.Nop())
	r.SetStatus(models.StateMonitoring)
	r.OnRecordingStarted("/rec/b.mp4")

	r.OnRecordingStopped("/rec/b.mp4")
	r.OnError(models.NewEngineError(models.ErrorBindFailure, "frame source lost", nil))

	st := r.State()
	assert.Equal(t, models.StateIdle, st.Status)
	assert.Equal(t, "/rec/b.mp4", st.LastSavedFile)
	assert.Equal(t, "Error: bind_failure: frame source lost", st.Message)

	// other failures leave monitoring running
	r.SetStatus(models.StateMonitoring)
	r.OnError(models.NewEngineError(models.ErrorRecordingStartFailure, "disk full", nil))
	assert.Equal(t, models.StateMonitoring, r.State().Status)
}

func TestRepositoryCooldownReportsMonitoring(t *testing.T) {
	t.Parallel()

	r := NewRepository(10, zerolog.Nop())
	r.SetStatus(models.StateCooldown)
	assert.Equal(t, models.StateMonitoring, r.State().Status)
}

func TestRepositoryStopAfterIdleKeepsIdle(t *testing.T) {
	t.Parallel()

	r := NewRepository(10, zerolog.Nop())
	r.OnRecordingStopped("/rec/late.mp4")

	st := r.State()
	assert.Equal(t, models.StateIdle, st.Status)
	assert.Equal(t, "/rec/late.mp4", st.LastSavedFile)
}
