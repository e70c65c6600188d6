package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.WakeWord != "ayonix" {
		t.Fatalf("WakeWord = %q, want %q", cfg.WakeWord, "ayonix")
	}
	if !cfg.Continuous {
		t.Fatalf("Continuous = false, want true")
	}
	if cfg.CommandWindowTimeout != 8*time.Second {
		t.Fatalf("CommandWindowTimeout = %v, want 8s", cfg.CommandWindowTimeout)
	}
	if cfg.SynthProvider != "auto" {
		t.Fatalf("SynthProvider = %q, want auto", cfg.SynthProvider)
	}
}

func TestLoadExplicitOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("VOICE_WAKE_WORD", "console")
	t.Setenv("VOICE_COMMAND_WINDOW_TIMEOUT", "12s")
	t.Setenv("SYNTH_RATE", "1.4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WakeWord != "console" {
		t.Fatalf("WakeWord = %q, want console", cfg.WakeWord)
	}
	if cfg.CommandWindowTimeout != 12*time.Second {
		t.Fatalf("CommandWindowTimeout = %v, want 12s", cfg.CommandWindowTimeout)
	}
	if cfg.SpeakingRate != 1.4 {
		t.Fatalf("SpeakingRate = %v, want 1.4", cfg.SpeakingRate)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"VOICE_WAKE_WORD", "   "},
		{"VOICE_COMMAND_WINDOW_TIMEOUT", "100ms"},
		{"VOICE_CAPTURE_RESTART_DELAY", "1ms"},
		{"SYNTH_RATE", "9"},
		{"SYNTH_PITCH", "0.1"},
		{"SYNTH_PROVIDER", "tape-deck"},
		{"VOICE_WAKE_WORD_FUZZY_THRESHOLD", "1.5"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q expected error", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"VOICE_WAKE_WORD",
		"VOICE_WAKE_WORD_FUZZY",
		"VOICE_WAKE_WORD_FUZZY_THRESHOLD",
		"VOICE_LANGUAGE",
		"VOICE_CONTINUOUS",
		"VOICE_COMMAND_WINDOW_TIMEOUT",
		"VOICE_CAPTURE_RESTART_DELAY",
		"SYNTH_PROVIDER",
		"SYNTH_RATE",
		"SYNTH_PITCH",
		"SYNTH_VOICE",
		"REMOTE_SYNTH_URL",
		"REMOTE_SYNTH_API_KEY",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
