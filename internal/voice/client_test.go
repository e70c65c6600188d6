package voice

import (
	"context"
	"testing"

	"github.com/faceprint/voicebridge/internal/protocol"
)

func collectEmits() (EmitFunc, *[]any) {
	var sent []any
	emit := func(msg any) bool {
		sent = append(sent, msg)
		return true
	}
	return emit, &sent
}

func TestClientCaptureProviderStartAndDeliver(t *testing.T) {
	emit, sent := collectEmits()
	p := NewClientCaptureProvider("sess-1", emit)

	stream, events, err := p.Start(context.Background(), CaptureConfig{Language: "en-US", Continuous: true})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	start, ok := (*sent)[0].(protocol.CaptureStart)
	if !ok {
		t.Fatalf("first emit = %T, want CaptureStart", (*sent)[0])
	}
	if start.Language != "en-US" || !start.Continuous {
		t.Fatalf("unexpected capture_start: %+v", start)
	}

	p.Deliver(CaptureEvent{
		Type:       CaptureEventTranscript,
		Transcript: TranscriptEvent{Text: "hello", IsFinal: true},
	})
	select {
	case ev := <-events:
		if ev.Transcript.Text != "hello" {
			t.Fatalf("delivered text = %q, want hello", ev.Transcript.Text)
		}
	default:
		t.Fatalf("expected delivered event")
	}

	if err := stream.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, ok := (*sent)[len(*sent)-1].(protocol.CaptureStop); !ok {
		t.Fatalf("last emit = %T, want CaptureStop", (*sent)[len(*sent)-1])
	}

	// After Stop, delivery is a no-op.
	p.Deliver(CaptureEvent{Type: CaptureEventEnded})
	select {
	case ev := <-events:
		t.Fatalf("unexpected event after Stop: %+v", ev)
	default:
	}
}

func TestClientSynthProviderSpeakAndComplete(t *testing.T) {
	emit, sent := collectEmits()
	registry := NewUtteranceRegistry()
	p := NewClientSynthProvider("sess-1", emit, registry)

	u, err := p.Speak(context.Background(), "Opening dashboard.", SynthOptions{Rate: 1.2, Pitch: 1})
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	req, ok := (*sent)[0].(protocol.SpeakRequest)
	if !ok {
		t.Fatalf("first emit = %T, want SpeakRequest", (*sent)[0])
	}
	if req.Text != "Opening dashboard." || req.Rate != 1.2 {
		t.Fatalf("unexpected speak_request: %+v", req)
	}
	if req.UtteranceID != u.ID() {
		t.Fatalf("utterance id mismatch: %q vs %q", req.UtteranceID, u.ID())
	}
	if registry.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", registry.PendingCount())
	}

	if !registry.Complete(u.ID(), "") {
		t.Fatalf("Complete() = false, want true")
	}
	select {
	case res := <-u.Done():
		if res.Canceled || res.Code != "" {
			t.Fatalf("unexpected result: %+v", res)
		}
	default:
		t.Fatalf("Done should be resolved after Complete")
	}
	if registry.PendingCount() != 0 {
		t.Fatalf("PendingCount = %d, want 0", registry.PendingCount())
	}
}

func TestClientSynthProviderCancelEmitsCancelSpeech(t *testing.T) {
	emit, sent := collectEmits()
	registry := NewUtteranceRegistry()
	p := NewClientSynthProvider("sess-1", emit, registry)

	u, err := p.Speak(context.Background(), "a long announcement", SynthOptions{})
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	u.Cancel()
	cancel, ok := (*sent)[len(*sent)-1].(protocol.CancelSpeech)
	if !ok {
		t.Fatalf("last emit = %T, want CancelSpeech", (*sent)[len(*sent)-1])
	}
	if cancel.UtteranceID != u.ID() {
		t.Fatalf("cancel utterance id = %q, want %q", cancel.UtteranceID, u.ID())
	}

	select {
	case res := <-u.Done():
		if !res.Canceled {
			t.Fatalf("result.Canceled = false, want true")
		}
	default:
		t.Fatalf("Done should be resolved after Cancel")
	}

	// A late client ack for the canceled utterance finds nothing.
	if registry.Complete(u.ID(), "") {
		t.Fatalf("Complete() after Cancel = true, want false")
	}

	// Cancel is idempotent: no second cancel_speech message.
	emits := len(*sent)
	u.Cancel()
	if len(*sent) != emits {
		t.Fatalf("second Cancel emitted %d extra messages", len(*sent)-emits)
	}
}

func TestClientSynthProviderRejectsEmptyText(t *testing.T) {
	emit, _ := collectEmits()
	p := NewClientSynthProvider("sess-1", emit, NewUtteranceRegistry())
	if _, err := p.Speak(context.Background(), "   ", SynthOptions{}); err == nil {
		t.Fatalf("Speak() expected error for empty text")
	}
}
