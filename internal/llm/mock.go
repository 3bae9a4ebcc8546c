package llm

import (
	"context"
	"sync"
)

// MockCompleter returns scripted responses for local development and tests.
type MockCompleter struct {
	mu        sync.Mutex
	responses []string
	calls     []Request
	err       error
}

func NewMockCompleter(responses ...string) *MockCompleter {
	return &MockCompleter{responses: responses}
}

// NewFailingCompleter always returns err.
func NewFailingCompleter(err error) *MockCompleter {
	return &MockCompleter{err: err}
}

func (m *MockCompleter) Complete(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	next := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return next, nil
}

// Calls returns every request seen so far.
func (m *MockCompleter) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}
