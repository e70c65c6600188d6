package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice command service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	WakeWord               string
	WakeWordFuzzy          bool
	WakeWordFuzzyThreshold float64
	Language               string
	Continuous             bool
	CommandWindowTimeout   time.Duration
	CaptureRestartDelay    time.Duration

	SynthProvider     string
	SpeakingRate      float64
	Pitch             float64
	Voice             string
	RemoteSynthURL    string
	RemoteSynthAPIKey string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "voicebridge"),
		AllowAnyOrigin:   false,
		// The console's assistant answers to "ayonix" by default.
		WakeWord:               envOrDefault("VOICE_WAKE_WORD", "ayonix"),
		WakeWordFuzzy:          true,
		WakeWordFuzzyThreshold: 0.84,
		Language:               envOrDefault("VOICE_LANGUAGE", "en-US"),
		Continuous:             true,
		SynthProvider:          envOrDefault("SYNTH_PROVIDER", "auto"),
		SpeakingRate:           1.0,
		Pitch:                  1.0,
		Voice:                  stringsTrimSpace("SYNTH_VOICE"),
		RemoteSynthURL:         stringsTrimSpace("REMOTE_SYNTH_URL"),
		RemoteSynthAPIKey:      stringsTrimSpace("REMOTE_SYNTH_API_KEY"),
		DatabaseURL:            stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:        15 * time.Second,
		// Long enough for a "wake word then think" pause, short enough that
		// a forgotten command window never lingers.
		CommandWindowTimeout:     8 * time.Second,
		CaptureRestartDelay:      250 * time.Millisecond,
		SessionInactivityTimeout: 2 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CommandWindowTimeout, err = durationFromEnv("VOICE_COMMAND_WINDOW_TIMEOUT", cfg.CommandWindowTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CaptureRestartDelay, err = durationFromEnv("VOICE_CAPTURE_RESTART_DELAY", cfg.CaptureRestartDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.WakeWordFuzzy, err = boolFromEnv("VOICE_WAKE_WORD_FUZZY", cfg.WakeWordFuzzy)
	if err != nil {
		return Config{}, err
	}
	cfg.WakeWordFuzzyThreshold, err = floatFromEnv("VOICE_WAKE_WORD_FUZZY_THRESHOLD", cfg.WakeWordFuzzyThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.Continuous, err = boolFromEnv("VOICE_CONTINUOUS", cfg.Continuous)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeakingRate, err = floatFromEnv("SYNTH_RATE", cfg.SpeakingRate)
	if err != nil {
		return Config{}, err
	}
	cfg.Pitch, err = floatFromEnv("SYNTH_PITCH", cfg.Pitch)
	if err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.WakeWord) == "" {
		return Config{}, fmt.Errorf("VOICE_WAKE_WORD must not be empty")
	}
	if cfg.WakeWordFuzzyThreshold < 0 || cfg.WakeWordFuzzyThreshold > 1 {
		return Config{}, fmt.Errorf("VOICE_WAKE_WORD_FUZZY_THRESHOLD must be in [0, 1]")
	}
	if cfg.CommandWindowTimeout < time.Second {
		return Config{}, fmt.Errorf("VOICE_COMMAND_WINDOW_TIMEOUT must be at least 1s")
	}
	if cfg.CaptureRestartDelay < 50*time.Millisecond {
		return Config{}, fmt.Errorf("VOICE_CAPTURE_RESTART_DELAY must be at least 50ms")
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.SpeakingRate < 0.5 || cfg.SpeakingRate > 2 {
		return Config{}, fmt.Errorf("SYNTH_RATE must be in [0.5, 2]")
	}
	if cfg.Pitch < 0.5 || cfg.Pitch > 2 {
		return Config{}, fmt.Errorf("SYNTH_PITCH must be in [0.5, 2]")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.SynthProvider)) {
	case "auto", "client", "remote", "mock":
	default:
		return Config{}, fmt.Errorf("invalid SYNTH_PROVIDER: %q (expected auto|client|remote|mock)", cfg.SynthProvider)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
