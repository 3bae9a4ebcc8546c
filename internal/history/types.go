package history

import (
	"context"
	"errors"
	"time"
)

// Turn is one question/answer exchange in a session. Answer stays empty until
// the assistant response for it arrives, and is written exactly once.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNoPendingTurn reports an assistant answer arriving with no open user
// turn for the session. That is a protocol violation, not a storable state.
var ErrNoPendingTurn = errors.New("no pending turn to attach assistant answer")

// Store persists turns and the per-session rolling summary.
type Store interface {
	InsertTurn(ctx context.Context, turn Turn) error
	// SetAnswer writes the answer on the most recently created turn of the
	// session whose answer is still empty. Returns the turn ID, or
	// ErrNoPendingTurn.
	SetAnswer(ctx context.Context, sessionID, answer string) (string, error)
	// RecentTurns returns up to limit most recent turns, chronological.
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	// AllTurns returns every turn of the session in creation order.
	AllTurns(ctx context.Context, sessionID string) ([]Turn, error)
	DeleteTurns(ctx context.Context, ids []string) error
	UpsertSummary(ctx context.Context, sessionID, content string) error
	// Summary returns the stored summary text, "" when none exists.
	Summary(ctx context.Context, sessionID string) (string, error)
	Close() error
}
