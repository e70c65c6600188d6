package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/faceprint/voicebridge/internal/config"
	"github.com/faceprint/voicebridge/internal/history"
	"github.com/faceprint/voicebridge/internal/httpapi"
	"github.com/faceprint/voicebridge/internal/intent"
	"github.com/faceprint/voicebridge/internal/observability"
	"github.com/faceprint/voicebridge/internal/protocol"
	"github.com/faceprint/voicebridge/internal/session"
	"github.com/faceprint/voicebridge/internal/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := history.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer store.Close()

	synthMode := strings.ToLower(strings.TrimSpace(cfg.SynthProvider))
	if synthMode == "" {
		synthMode = "auto"
	}
	remoteConfigured := strings.TrimSpace(cfg.RemoteSynthURL) != ""
	switch synthMode {
	case "remote":
		if !remoteConfigured {
			log.Fatalf("SYNTH_PROVIDER=remote but REMOTE_SYNTH_URL is not set")
		}
	case "auto":
		if remoteConfigured {
			synthMode = "remote"
		} else {
			synthMode = "client"
		}
	}

	synthFactory := func(sessionID string, emit voice.EmitFunc, registry *voice.UtteranceRegistry) voice.SynthProvider {
		client := voice.NewClientSynthProvider(sessionID, emit, registry)
		switch synthMode {
		case "mock":
			return voice.NewMockSynthProvider(true)
		case "remote":
			remote := voice.NewRemoteSynthProvider(sessionID, emit, registry, voice.RemoteSynthConfig{
				URL:      cfg.RemoteSynthURL,
				APIKey:   cfg.RemoteSynthAPIKey,
				Language: cfg.Language,
			})
			// Remote failures fall back to the browser's built-in voice; the
			// client is told once so the voice change is not a surprise.
			return voice.NewFailoverSynthProvider(remote, client, func() {
				emit(protocol.SystemEvent{
					Type:      protocol.TypeSystemEvent,
					SessionID: sessionID,
					Code:      "synth_fallback",
					Detail:    "remote synthesis unavailable, using the browser voice",
				})
			})
		default:
			return client
		}
	}
	log.Printf("synth provider: %s", synthMode)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	engine := voice.NewEngine(voice.EngineOptions{
		Catalog:                intent.NewCatalog(),
		Sessions:               sessions,
		History:                store,
		Metrics:                metrics,
		Logger:                 log.Default(),
		WakeWordFuzzy:          cfg.WakeWordFuzzy,
		WakeWordFuzzyThreshold: cfg.WakeWordFuzzyThreshold,
		CommandWindow:          cfg.CommandWindowTimeout,
		CaptureRestartDelay:    cfg.CaptureRestartDelay,
		SynthFactory:           synthFactory,
	})

	api := httpapi.New(cfg, sessions, engine, engine.Catalog(), store, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("wake word %q, listening on %s", cfg.WakeWord, cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
