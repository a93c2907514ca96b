package models

// EventSink receives engine events. Calls arrive on the analysis goroutine or
// on the caller of a control method, never while the engine holds its lock.
type EventSink interface {
	OnMotion(ratio, avg float64)
	OnMotionTrigger()
	OnRecordingStarted(location string)
	OnRecordingStopped(location string)
	OnError(err error)
}

// EventSinks fans events out to every member in order
type EventSinks []EventSink

func (s EventSinks) OnMotion(ratio, avg float64) {
	for _, sink := range s {
		sink.OnMotion(ratio, avg)
	}
}

func (s EventSinks) OnMotionTrigger() {
	for _, sink := range s {
		sink.OnMotionTrigger()
	}
}

func (s EventSinks) OnRecordingStarted(location string) {
	for _, sink := range s {
		sink.OnRecordingStarted(location)
	}
}

func (s EventSinks) OnRecordingStopped(location string) {
	for _, sink := range s {
		sink.OnRecordingStopped(location)
	}
}

func (s EventSinks) OnError(err error) {
	for _, sink := range s {
		sink.OnError(err)
	}
}

// NopEventSink discards every event
type NopEventSink struct{}

func (NopEventSink) OnMotion(float64, float64) {}
func (NopEventSink) OnMotionTrigger() {}
func (NopEventSink) OnRecordingStarted(string) {}
func (NopEventSink) OnRecordingStopped(string) {}
func (NopEventSink) OnError(error) {}
