package memory

import (
	"context"
	"time"
)

// TurnRecord is one completed turn as archived for the history view.
// History is stored as opaque JSON; the archive never interprets it.
type TurnRecord struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Goal           string    `json:"goal"`
	Status         string    `json:"status"`
	Summary        string    `json:"summary,omitempty"`
	Iterations     int       `json:"iterations"`
	HistoryJSON    string    `json:"history_json,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Archive is the interface for persistent turn storage. Live loop state is
// never persisted; only finished turns land here.
type Archive interface {
	SaveTurn(ctx context.Context, rec TurnRecord) error
	ListTurns(ctx context.Context, conversationID string, limit int) ([]TurnRecord, error)
	Close() error
}
