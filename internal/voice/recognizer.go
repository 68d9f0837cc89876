package voice

import (
	"errors"
	"fmt"
)

// Result is one recognition hypothesis from a continuous recognizer
type Result struct {
	Transcript string
	IsFinal    bool
	Confidence float64
}

// ErrorCode classifies recognizer errors
type ErrorCode string

const (
	ErrorNoSpeech     ErrorCode = "no-speech"
	ErrorAborted      ErrorCode = "aborted"
	ErrorNotAllowed   ErrorCode = "not-allowed"
	ErrorAudioCapture ErrorCode = "audio-capture"
	ErrorNetwork      ErrorCode = "network"
)

// Benign reports whether the error is part of normal operation
func (c ErrorCode) Benign() bool {
	return c == ErrorNoSpeech || c == ErrorAborted
}

// RecognitionError is reported through RecognizerEvents.OnError
type RecognitionError struct {
	Code    ErrorCode
	Message string
}

func (e RecognitionError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrUnsupported      = errors.New("speech recognition not supported")
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrAlreadyStarted   = errors.New("recognizer already started")
)

// RecognizerEvents are the callbacks a Recognizer reports through. Callbacks may
// arrive on any goroutine.
type RecognizerEvents struct {
	OnResult     func(Result)
	OnError      func(RecognitionError)
	OnEnd        func()
	OnAudioLevel func(level float64)
}

// Recognizer is a continuous speech recognition engine. The dispatcher never
// depends on anything engine specific beyond this.
type Recognizer interface {
	// Supported reports whether the engine can run on this machine
	Supported() bool
	// Start begins a recognition session. OnEnd fires when the session ends for
	// any reason, including Stop.
	Start(events RecognizerEvents) error
	// Stop ends the current session. Stopping an idle recognizer is a no-op.
	Stop() error
}
