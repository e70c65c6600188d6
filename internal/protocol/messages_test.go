package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageTranscript(t *testing.T) {
	raw := []byte(`{"type":"transcript_event","session_id":"s1","text":"go to dashboard","confidence":0.92,"is_final":true,"ts_ms":123}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	tr, ok := msg.(TranscriptEvent)
	if !ok {
		t.Fatalf("message type = %T, want TranscriptEvent", msg)
	}
	if tr.SessionID != "s1" || tr.Text != "go to dashboard" || !tr.IsFinal {
		t.Fatalf("unexpected transcript event: %+v", tr)
	}
}

func TestParseClientMessageRejectsBadConfidence(t *testing.T) {
	raw := []byte(`{"type":"transcript_event","session_id":"s1","text":"hi","confidence":1.5,"is_final":true}`)
	if _, err := ParseClientMessage(raw); err == nil {
		t.Fatal("expected error for confidence > 1")
	}
}

func TestParseClientMessageCaptureError(t *testing.T) {
	raw := []byte(`{"type":"capture_error","session_id":"s1","code":"no-speech"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	ce, ok := msg.(CaptureError)
	if !ok {
		t.Fatalf("message type = %T, want CaptureError", msg)
	}
	if ce.Code != "no-speech" {
		t.Fatalf("code = %q, want no-speech", ce.Code)
	}
}

func TestParseClientMessageControl(t *testing.T) {
	raw := []byte(`{"type":"client_control","session_id":"s1","action":"synth_done","utterance_id":"u1"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	control, ok := msg.(ClientControl)
	if !ok {
		t.Fatalf("message type = %T, want ClientControl", msg)
	}
	if control.Action != ControlSynthDone || control.UtteranceID != "u1" {
		t.Fatalf("unexpected client control: %+v", control)
	}
}

func TestParseClientMessageRejectsUnknownControlAction(t *testing.T) {
	raw := []byte(`{"type":"client_control","session_id":"s1","action":"reboot"}`)
	if _, err := ParseClientMessage(raw); err == nil {
		t.Fatal("expected error for unknown control action")
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}
