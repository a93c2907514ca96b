package engine

import (
	"sync"

	"motion-recorder-go/internal/models"
)

// inbox is a single-slot mailbox between the frame source and the analysis
// goroutine. A new frame overwrites an unconsumed one, which is released.
type inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  *models.Frame
	closed bool
	onDrop func()
}

func newInbox(onDrop func()) *inbox {
	b := &inbox{onDrop: onDrop}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// offer stores frame without blocking. Frames offered after close are released immediately.
func (b *inbox) offer(frame *models.Frame) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		frame.Release()
		return
	}
	evicted := b.frame
	b.frame = frame
	b.cond.Signal()
	b.mu.Unlock()

	if evicted != nil {
		evicted.Release()
		if b.onDrop != nil {
			b.onDrop()
		}
	}
}

// take blocks until a frame is available. It returns false once closed.
func (b *inbox) take() (*models.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.frame == nil && !b.closed {
		b.cond.Wait()
	}
	if b.closed {
		return nil, false
	}

	frame := b.frame
	b.frame = nil
	return frame, true
}

// close wakes the consumer and releases any pending frame
func (b *inbox) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	pending := b.frame
	b.frame = nil
	b.cond.Broadcast()
	b.mu.Unlock()

	if pending != nil {
		pending.Release()
	}
}

// analysisWorker runs handle on every frame taken from its inbox, one at a time
type analysisWorker struct {
	inbox *inbox
	done  chan struct{}
}

func startWorker(onDrop func(), handle func(*models.Frame)) *analysisWorker {
	w := &analysisWorker{
		inbox: newInbox(onDrop),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(w.done)
		for {
			frame, ok := w.inbox.take()
			if !ok {
				return
			}
			handle(frame)
		}
	}()
	return w
}

func (w *analysisWorker) offer(frame *models.Frame) {
	w.inbox.offer(frame)
}

// stop closes the inbox. The goroutine exits after the frame in progress.
func (w *analysisWorker) stop() {
	w.inbox.close()
}
