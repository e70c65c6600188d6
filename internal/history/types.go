package history

import (
	"context"
	"time"
)

// CommandRecord is one recognized voice command and its outcome.
type CommandRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Transcript string    `json:"transcript"`
	Action     string    `json:"action"`
	Params     []string  `json:"params"`
	Sentiment  string    `json:"sentiment"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists the command history surfaced by the admin console.
type Store interface {
	SaveCommand(ctx context.Context, record CommandRecord) error
	Recent(ctx context.Context, userID string, limit int) ([]CommandRecord, error)
	Close() error
}
