package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	mu       sync.Mutex
	lastUsed time.Time
}

// Locks serializes message handling per session so the append/compress
// sequence never races with itself. Sessions are independent; two locks for
// different sessions never contend. Idle entries are evicted by the janitor.
type Locks struct {
	mu          sync.Mutex
	entries     map[string]*entry
	idleTimeout time.Duration
}

func NewLocks(idleTimeout time.Duration) *Locks {
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}
	return &Locks{
		entries:     make(map[string]*entry),
		idleTimeout: idleTimeout,
	}
}

// Acquire blocks until the session's lock is held and returns the release
// function.
func (l *Locks) Acquire(sessionID string) func() {
	l.mu.Lock()
	e, ok := l.entries[sessionID]
	if !ok {
		e = &entry{}
		l.entries[sessionID] = e
	}
	e.lastUsed = time.Now().UTC()
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		l.mu.Lock()
		e.lastUsed = time.Now().UTC()
		l.mu.Unlock()
		e.mu.Unlock()
	}
}

// ActiveCount reports tracked sessions, for metrics.
func (l *Locks) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartJanitor evicts idle entries until ctx is done.
func (l *Locks) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
}

func (l *Locks) sweep() {
	cutoff := time.Now().UTC().Add(-l.idleTimeout)
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, e := range l.entries {
		if e.lastUsed.After(cutoff) {
			continue
		}
		// Skip entries whose lock is currently held.
		if !e.mu.TryLock() {
			continue
		}
		e.mu.Unlock()
		delete(l.entries, id)
	}
}
