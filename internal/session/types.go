package session

import "time"

// VoiceConfig is supplied at session start and immutable for the session's
// lifetime; changing it requires ending the session and starting a new one.
type VoiceConfig struct {
	WakeWord      string  `json:"wake_word"`
	Language      string  `json:"language"`
	Continuous    bool    `json:"continuous"`
	SynthProvider string  `json:"synth_provider"`
	SpeakingRate  float64 `json:"speaking_rate"`
	Pitch         float64 `json:"pitch"`
	Voice         string  `json:"voice,omitempty"`
}

// CreateRequest defines payload for creating a new voice session. Empty
// fields fall back to the service defaults.
type CreateRequest struct {
	UserID   string `json:"user_id"`
	Route    string `json:"route"`
	WakeWord string `json:"wake_word,omitempty"`
	Language string `json:"language,omitempty"`
	Voice    string `json:"voice,omitempty"`
}

// CreateResponse returns created session metadata.
type CreateResponse struct {
	SessionID       string      `json:"session_id"`
	UserID          string      `json:"user_id"`
	Status          Status      `json:"status"`
	Route           string      `json:"route"`
	Config          VoiceConfig `json:"config"`
	StartedAt       time.Time   `json:"started_at"`
	LastActivityAt  time.Time   `json:"last_activity_at"`
	InactivityTTLMS int64       `json:"inactivity_ttl_ms"`
}
