package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dpaliy/staffql/internal/llm"
)

const summarizerPrompt = `You are a conversation summarizer. Summarize the following chat focusing on user's preferences, constraints, and relevant facts in 2-3 sentences.`

// Roles accepted by AppendTurn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Manager implements the conversational context protocol on top of a Store:
// turn-by-turn accumulation plus periodic compression of older turns into a
// rolling summary. The most recent keepRecent turns always survive
// compression verbatim.
type Manager struct {
	store      Store
	summarizer llm.Completer
	keepRecent int
	minTurns   int
	log        *slog.Logger
}

func NewManager(store Store, summarizer llm.Completer, keepRecent, minTurns int, log *slog.Logger) *Manager {
	if keepRecent <= 0 {
		keepRecent = 10
	}
	if minTurns <= 0 {
		minTurns = 10
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:      store,
		summarizer: summarizer,
		keepRecent: keepRecent,
		minTurns:   minTurns,
		log:        log,
	}
}

// AppendTurn records a user question as a new open turn, or attaches an
// assistant answer to the most recently created open turn. Returns the turn
// ID.
func (m *Manager) AppendTurn(ctx context.Context, sessionID, role, content string) (string, error) {
	switch role {
	case RoleUser:
		turn := Turn{ID: uuid.NewString(), SessionID: sessionID, Question: content}
		if err := m.store.InsertTurn(ctx, turn); err != nil {
			return "", err
		}
		return turn.ID, nil
	case RoleAssistant:
		return m.store.SetAnswer(ctx, sessionID, content)
	default:
		return "", fmt.Errorf("invalid role %q", role)
	}
}

// RecentTurns returns up to limit most recent turns in chronological order.
func (m *Manager) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	return m.store.RecentTurns(ctx, sessionID, limit)
}

// Summary returns the session's rolling summary, compressing on first read
// when none exists yet. Sessions with no turns get an empty string.
func (m *Manager) Summary(ctx context.Context, sessionID string) (string, error) {
	content, err := m.store.Summary(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if content != "" {
		return content, nil
	}

	if err := m.Compress(ctx, sessionID); err != nil {
		return "", err
	}
	return m.store.Summary(ctx, sessionID)
}

// Compress folds all turns except the most recent keepRecent into the
// session summary and deletes them. Compression is all-or-nothing: when the
// summarizer yields nothing, no history is deleted and any previous summary
// stays untouched.
func (m *Manager) Compress(ctx context.Context, sessionID string) error {
	turns, err := m.store.AllTurns(ctx, sessionID)
	if err != nil {
		return err
	}

	if len(turns) == 0 {
		return m.store.UpsertSummary(ctx, sessionID, "")
	}
	// Nothing to fold while every turn fits in the retention window; this
	// also covers keepRecent exceeding the compression threshold.
	if len(turns) < m.minTurns || len(turns) <= m.keepRecent {
		return nil
	}

	older := turns[:len(turns)-m.keepRecent]

	var b strings.Builder
	for i, t := range older {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Prompt: %s\nResult: %s", t.Question, t.Answer)
	}

	summary, err := m.summarizer.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: summarizerPrompt},
			{Role: llm.RoleUser, Content: b.String()},
		},
		Temperature: 0,
	})
	if err != nil {
		return fmt.Errorf("summarize turns: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		m.log.Warn("summarizer returned empty text, keeping raw turns", "session", sessionID, "turns", len(older))
		return nil
	}

	if err := m.store.UpsertSummary(ctx, sessionID, summary); err != nil {
		return err
	}

	ids := make([]string, 0, len(older))
	for _, t := range older {
		ids = append(ids, t.ID)
	}
	return m.store.DeleteTurns(ctx, ids)
}
