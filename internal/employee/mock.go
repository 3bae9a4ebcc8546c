package employee

import (
	"context"
	"sync"
)

// MockQuerier returns canned rows; used in tests and when no employees
// database is configured.
type MockQuerier struct {
	mu      sync.Mutex
	rows    []map[string]any
	err     error
	lastSQL string
	params  []any
	calls   int
}

func NewMockQuerier(rows []map[string]any) *MockQuerier {
	return &MockQuerier{rows: rows}
}

func NewFailingQuerier(err error) *MockQuerier {
	return &MockQuerier{err: err}
}

func (q *MockQuerier) Search(_ context.Context, sql string, params []any) ([]map[string]any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	q.lastSQL = sql
	q.params = params
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func (q *MockQuerier) Close() error { return nil }

// LastQuery reports the most recent statement and parameters.
func (q *MockQuerier) LastQuery() (string, []any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastSQL, q.params
}

// Calls reports how many times Search ran.
func (q *MockQuerier) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}
