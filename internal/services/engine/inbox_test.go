package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motion-recorder-go/internal/models"
)

func countedFrame(seq uint64, released *atomic.Int32) *models.Frame {
	return models.NewFrame(seq, time.Time{}, 1, 1, 1, 1, []byte{0}, func() { released.Add(1) })
}

func TestInboxKeepsLatest(t *testing.T) {
	t.Parallel()

	var drops atomic.Int32
	b := newInbox(func() { drops.Add(1) })

	var r1, r2 atomic.Int32
	b.offer(countedFrame(1, &r1))
	b.offer(countedFrame(2, &r2))

	assert.EqualValues(t, 1, r1.Load(), "overwritten frame is released")
	assert.EqualValues(t, 1, drops.Load(), "overwrite is reported as a drop")

	f, ok := b.take()
	require.True(t, ok)
	assert.EqualValues(t, 2, f.Seq)
	assert.Zero(t, r2.Load(), "consumer owns the taken frame")
}

func TestInboxClose(t *testing.T) {
	t.Parallel()

	b := newInbox(nil)

	var pending, late atomic.Int32
	b.offer(countedFrame(1, &pending))
	b.close()
	assert.EqualValues(t, 1, pending.Load())

	b.offer(countedFrame(2, &late))
	assert.EqualValues(t, 1, late.Load(), "frames offered after close are released")

	_, ok := b.take()
	assert.False(t, ok)

	b.close()
}

func TestInboxTakeBlocksUntilOffer(t *testing.T) {
	t.Parallel()

	b := newInbox(nil)
	got := make(chan uint64, 1)
	go func() {
		f, ok := b.take()
		if ok {
			got <- f.Seq
		}
	}()

	var released atomic.Int32
	b.offer(countedFrame(7, &released))

	select {
	case seq := <-got:
		assert.EqualValues(t, 7, seq)
	case <-time.After(2 * time.Second):
		t.Fatal("take did not return")
	}
}

func TestWorkerReleasesEveryFrame(t *testing.T) {
	t.Parallel()

	var handled, released, drops atomic.Int32
	w := startWorker(func() { drops.Add(1) }, func(f *models.Frame) {
		handled.Add(1)
		f.Release()
	})

	const frames = 200
	for i := 0; i < frames; i++ {
		w.offer(countedFrame(uint64(i), &released))
	}
	w.stop()
	<-w.done

	assert.EqualValues(t, frames, released.Load(), "every frame is released exactly once")
	assert.LessOrEqual(t, handled.Load(), int32(frames))
	// at most one frame is released by close without being handled or dropped
	assert.GreaterOrEqual(t, handled.Load()+drops.Load(), int32(frames-1))
}
