package models

import "fmt"

// ErrorKind classifies engine errors reported through the event sink
type ErrorKind string

const (
	ErrorBindFailure              ErrorKind = "bind_failure"
	ErrorRecordingStartFailure    ErrorKind = "recording_start_failure"
	ErrorRecordingFinalizeFailure ErrorKind = "recording_finalize_failure"
	ErrorConfigurationInvalid     ErrorKind = "configuration_invalid"
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	return string(k)
}

// EngineError is the typed error delivered to EventSink.OnError
type EngineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError builds an EngineError wrapping cause
func NewEngineError(kind ErrorKind, msg string, cause error) *EngineError {
	return &EngineError{Kind: kind, Message: msg, Err: cause}
}
