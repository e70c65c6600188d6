package voice

import "context"

type CaptureEventType string

const (
	CaptureEventTranscript CaptureEventType = "transcript"
	CaptureEventError      CaptureEventType = "error"
	CaptureEventEnded      CaptureEventType = "ended"
)

// TranscriptEvent is one recognized utterance segment.
type TranscriptEvent struct {
	Text       string
	Confidence float64
	IsFinal    bool
	Timestamp  int64
}

// CaptureError carries a recognition error code. Codes follow the browser
// speech API vocabulary ("no-speech", "aborted", "not-allowed", ...).
type CaptureError struct {
	Code   string
	Detail string
}

type CaptureEvent struct {
	Type       CaptureEventType
	Transcript TranscriptEvent
	Err        CaptureError
}

type CaptureConfig struct {
	Language   string
	Continuous bool
}

type CaptureStream interface {
	// Stop releases the underlying recognizer. Safe to call more than once;
	// the recognizer is released exactly once.
	Stop() error
}

type CaptureProvider interface {
	Start(ctx context.Context, cfg CaptureConfig) (CaptureStream, <-chan CaptureEvent, error)
}

// EventDeliverer is implemented by capture providers whose events originate
// outside the process and are injected by the connection handler.
type EventDeliverer interface {
	Deliver(ev CaptureEvent)
}

type SynthOptions struct {
	Rate  float64
	Pitch float64
	Voice string
}

// SynthResult reports how an utterance finished. A zero value means it was
// spoken to completion.
type SynthResult struct {
	Canceled bool
	Code     string
	Detail   string
}

type Utterance interface {
	ID() string
	Done() <-chan SynthResult
	Cancel()
}

type SynthProvider interface {
	Speak(ctx context.Context, text string, opts SynthOptions) (Utterance, error)
}

// EmitFunc delivers a server-to-client protocol message and reports whether
// it was accepted.
type EmitFunc func(msg any) bool
