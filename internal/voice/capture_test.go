package voice

import (
	"context"
	"testing"
	"time"
)

func waitCaptureEvent(t *testing.T, events <-chan CaptureEvent) CaptureEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatalf("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for capture event")
	}
	return CaptureEvent{}
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

func TestAutoRestartCaptureForwardsTranscripts(t *testing.T) {
	mock := NewMockCaptureProvider()
	ar := NewAutoRestartCapture(mock, 10*time.Millisecond, nil)

	stream, events, err := ar.Start(context.Background(), CaptureConfig{Continuous: true})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer stream.Stop()

	mock.EmitFinal("hello there", 0.9)
	ev := waitCaptureEvent(t, events)
	if ev.Type != CaptureEventTranscript || ev.Transcript.Text != "hello there" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestAutoRestartCaptureRecoverableErrorRestarts(t *testing.T) {
	mock := NewMockCaptureProvider()
	restarts := 0
	ar := NewAutoRestartCapture(mock, 10*time.Millisecond, func() { restarts++ })

	stream, events, err := ar.Start(context.Background(), CaptureConfig{Continuous: true})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer stream.Stop()

	mock.EmitError("no-speech", "")
	waitUntil(t, func() bool { return mock.StartCount() == 2 }, "capture restarted")

	// The restarted stream keeps delivering.
	mock.EmitFinal("still listening", 0.8)
	ev := waitCaptureEvent(t, events)
	if ev.Type != CaptureEventTranscript {
		t.Fatalf("unexpected event after restart: %+v", ev)
	}
}

func TestAutoRestartCaptureEndedRestartsWhenContinuous(t *testing.T) {
	mock := NewMockCaptureProvider()
	ar := NewAutoRestartCapture(mock, 10*time.Millisecond, nil)

	stream, _, err := ar.Start(context.Background(), CaptureConfig{Continuous: true})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer stream.Stop()

	mock.EmitEnded()
	waitUntil(t, func() bool { return mock.StartCount() == 2 }, "capture restarted after end")
}

func TestAutoRestartCaptureFatalErrorForwardedAndTerminal(t *testing.T) {
	mock := NewMockCaptureProvider()
	ar := NewAutoRestartCapture(mock, 10*time.Millisecond, nil)

	_, events, err := ar.Start(context.Background(), CaptureConfig{Continuous: true})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mock.EmitError("not-allowed", "permission denied")
	ev := waitCaptureEvent(t, events)
	if ev.Type != CaptureEventError || ev.Err.Code != "not-allowed" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected channel close after fatal error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for channel close")
	}
	if mock.StartCount() != 1 {
		t.Fatalf("StartCount = %d, want 1 (no restart after fatal error)", mock.StartCount())
	}
}

func TestAutoRestartCaptureStopReleasesOnce(t *testing.T) {
	mock := NewMockCaptureProvider()
	ar := NewAutoRestartCapture(mock, 10*time.Millisecond, nil)

	stream, _, err := ar.Start(context.Background(), CaptureConfig{Continuous: true})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := stream.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := stream.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}

	waitUntil(t, func() bool { return mock.StopCount() == 1 }, "recognizer released")
	time.Sleep(20 * time.Millisecond)
	if mock.StopCount() != 1 {
		t.Fatalf("StopCount = %d, want 1 after double Stop", mock.StopCount())
	}
}
