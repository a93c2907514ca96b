package status

import (
	"sync"
	"time"
)

const DefaultLogCapacity = 100

// LogEntry is one timestamped line of the service log
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// LogBuffer keeps the most recent log lines, oldest first
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogBuffer{entries: make([]LogEntry, capacity)}
}

func (b *LogBuffer) Add(at time.Time, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = LogEntry{Time: at, Message: message}
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// Lines returns a copy of the buffered entries in insertion order
func (b *LogBuffer) Lines() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		out := make([]LogEntry, b.next)
		copy(out, b.entries[:b.next])
		return out
	}

	out := make([]LogEntry, 0, len(b.entries))
	out = append(out, b.entries[b.next:]...)
	out = append(out, b.entries[:b.next]...)
	return out
}

func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}
