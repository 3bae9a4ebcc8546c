package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	turns     map[string][]Turn
	summaries map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		turns:     make(map[string][]Turn),
		summaries: make(map[string]string),
	}
}

func (s *InMemoryStore) InsertTurn(_ context.Context, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	return nil
}

func (s *InMemoryStore) SetAnswer(_ context.Context, sessionID, answer string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	arr := s.turns[sessionID]
	for i := len(arr) - 1; i >= 0; i-- {
		if arr[i].Answer == "" {
			arr[i].Answer = answer
			return arr[i].ID, nil
		}
	}
	return "", ErrNoPendingTurn
}

func (s *InMemoryStore) RecentTurns(_ context.Context, sessionID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[sessionID]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]Turn, 0, limit)
	for i := len(arr) - limit; i < len(arr); i++ {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) AllTurns(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[sessionID]
	out := make([]Turn, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) DeleteTurns(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for sessionID, arr := range s.turns {
		kept := arr[:0]
		for _, t := range arr {
			if _, gone := drop[t.ID]; !gone {
				kept = append(kept, t)
			}
		}
		s.turns[sessionID] = kept
	}
	return nil
}

func (s *InMemoryStore) UpsertSummary(_ context.Context, sessionID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[sessionID] = content
	return nil
}

func (s *InMemoryStore) Summary(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries[sessionID], nil
}

func (s *InMemoryStore) Close() error { return nil }
