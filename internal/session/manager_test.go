package session

import (
	"context"
	"testing"
	"time"
)

func TestManagerCreateGetEnd(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("u1", "/dashboard", VoiceConfig{WakeWord: "ayonix"})
	if s.ID == "" {
		t.Fatalf("session ID should not be empty")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "u1" || got.Route != "/dashboard" || got.Status != StatusActive {
		t.Fatalf("unexpected session state: %+v", got)
	}
	if got.Config.WakeWord != "ayonix" {
		t.Fatalf("wake word = %q, want ayonix", got.Config.WakeWord)
	}

	ended, err := m.End(s.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("ended status = %q, want %q", ended.Status, StatusEnded)
	}
}

func TestManagerOneSessionPerUser(t *testing.T) {
	m := NewManager(time.Minute)
	first := m.Create("u1", "/dashboard", VoiceConfig{})
	second := m.Create("u1", "/enrollment", VoiceConfig{})

	got, err := m.Get(first.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("first session status = %q, want %q", got.Status, StatusEnded)
	}
	if m.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", m.ActiveCount())
	}
	if _, err := m.Get(second.ID); err != nil {
		t.Fatalf("Get(second) error = %v", err)
	}
}

func TestManagerRouteAndBargeIn(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("u1", "/dashboard", VoiceConfig{})

	if err := m.SetRoute(s.ID, "/enrollment"); err != nil {
		t.Fatalf("SetRoute() error = %v", err)
	}
	if err := m.RecordBargeIn(s.ID); err != nil {
		t.Fatalf("RecordBargeIn() error = %v", err)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Route != "/enrollment" {
		t.Fatalf("route = %q, want /enrollment", got.Route)
	}
	if got.BargeIns != 1 {
		t.Fatalf("BargeIns = %d, want 1", got.BargeIns)
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	s := m.Create("u1", "/dashboard", VoiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	time.Sleep(90 * time.Millisecond)
	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("Status = %q, want %q", got.Status, StatusEnded)
	}
}
