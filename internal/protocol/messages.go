package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	// Client -> server. The browser implements the speech capture and
	// synthesis facilities and forwards their events here.
	TypeTranscriptEvent MessageType = "transcript_event"
	TypeCaptureError    MessageType = "capture_error"
	TypeCaptureEnded    MessageType = "capture_ended"
	TypeClientControl   MessageType = "client_control"

	// Server -> client.
	TypeCaptureStart   MessageType = "capture_start"
	TypeCaptureStop    MessageType = "capture_stop"
	TypeSpeakRequest   MessageType = "speak_request"
	TypeSpeakAudio     MessageType = "speak_audio"
	TypeCancelSpeech   MessageType = "cancel_speech"
	TypeModeChanged    MessageType = "mode_changed"
	TypeIntentEvent    MessageType = "intent_event"
	TypeSentimentEvent MessageType = "sentiment_event"
	TypeNavigate       MessageType = "navigate"
	TypeActionEvent    MessageType = "action_event"
	TypeSystemEvent    MessageType = "system_event"
	TypeErrorEvent     MessageType = "error_event"
)

// Client control actions.
const (
	ControlEnable    = "enable"
	ControlDisable   = "disable"
	ControlRoute     = "route"
	ControlSynthDone = "synth_done"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// TranscriptEvent is one recognized utterance segment from the capture
// facility.
type TranscriptEvent struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	IsFinal    bool        `json:"is_final"`
	TSMs       int64       `json:"ts_ms"`
}

// CaptureError reports a recognition error code from the capture facility.
// Codes follow the browser speech API vocabulary: "no-speech", "aborted",
// "not-allowed", "audio-capture", "service-not-allowed".
type CaptureError struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

// CaptureEnded signals that continuous recognition ended on its own, without
// an explicit stop from this engine.
type CaptureEnded struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

// ClientControl carries session control from the console: enable/disable
// voice mode, the current route, and synthesis completion acks.
type ClientControl struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	Action      string      `json:"action"`
	Route       string      `json:"route,omitempty"`
	UtteranceID string      `json:"utterance_id,omitempty"`
	Code        string      `json:"code,omitempty"`
}

// CaptureStart asks the client to (re)start continuous recognition.
type CaptureStart struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	Language   string      `json:"language"`
	Continuous bool        `json:"continuous"`
}

type CaptureStop struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

// SpeakRequest asks the client to synthesize text with its built-in voice.
type SpeakRequest struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	UtteranceID string      `json:"utterance_id"`
	Text        string      `json:"text"`
	Rate        float64     `json:"rate"`
	Pitch       float64     `json:"pitch"`
	Voice       string      `json:"voice,omitempty"`
}

// SpeakAudio carries pre-synthesized audio from a remote provider for the
// client to play.
type SpeakAudio struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	UtteranceID string      `json:"utterance_id"`
	Format      string      `json:"format"`
	AudioBase64 string      `json:"audio_base64"`
}

type CancelSpeech struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	UtteranceID string      `json:"utterance_id"`
}

type ModeChanged struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Mode      string      `json:"mode"`
}

type IntentEvent struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	Action     string      `json:"action"`
	Params     []string    `json:"params"`
	Transcript string      `json:"transcript"`
}

type SentimentEvent struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	Score      float64     `json:"score"`
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
}

// Navigate tells the console router to open a path.
type Navigate struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Path      string      `json:"path"`
}

// ActionEvent forwards an action the engine does not handle itself to the
// host console.
type ActionEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
	Params    []string    `json:"params"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeTranscriptEvent:
		var msg TranscriptEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Text == "" {
			return nil, errors.New("invalid transcript_event")
		}
		if msg.Confidence < 0 || msg.Confidence > 1 {
			return nil, errors.New("invalid transcript_event confidence")
		}
		return msg, nil
	case TypeCaptureError:
		var msg CaptureError
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Code == "" {
			return nil, errors.New("invalid capture_error")
		}
		return msg, nil
	case TypeCaptureEnded:
		var msg CaptureEnded
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" {
			return nil, errors.New("invalid capture_ended")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		switch msg.Action {
		case ControlEnable, ControlDisable, ControlRoute, ControlSynthDone:
		default:
			return nil, fmt.Errorf("invalid client_control action %q", msg.Action)
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
