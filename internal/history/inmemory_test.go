package history

import (
	"context"
	"testing"
)

func TestInMemoryStoreSaveAndRecent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, transcript := range []string{"show dashboard", "open settings", "search Alice"} {
		err := s.SaveCommand(ctx, CommandRecord{
			SessionID:  "sess-1",
			UserID:     "u1",
			Transcript: transcript,
			Action:     "nav_dashboard",
			Params:     []string{},
		})
		if err != nil {
			t.Fatalf("SaveCommand() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Recent) = %d, want 2", len(got))
	}
	if got[0].Transcript != "open settings" || got[1].Transcript != "search Alice" {
		t.Fatalf("unexpected order: %q, %q", got[0].Transcript, got[1].Transcript)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("SaveCommand should assign ID and CreatedAt")
	}
}

func TestInMemoryStoreRecentUnknownUser(t *testing.T) {
	s := NewInMemoryStore()
	got, err := s.Recent(context.Background(), "nobody", 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(Recent) = %d, want 0", len(got))
	}
}
