// internal/store/memory.go
//
// In-memory registry of live game sessions for the HTTP server.
//
// Characteristics:
//   - Sessions keyed by ID in a map guarded by an RWMutex.
//   - Each entry has its own mutex; With runs a callback holding it, so two
//     requests for the same game never interleave while different games proceed.
//   - Finished sessions are kept until Delete or Sweep; nothing survives a restart.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/edit0rsky/NumberGame/internal/session"
)

var ErrNotFound = errors.New("store: session not found")

// Store holds live sessions. Implementations may be backed by memory (this
// package), Redis, SQL, etc.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *session.Session) error

	// With runs fn with exclusive access to the session id.
	With(ctx context.Context, id string, fn func(*session.Session) error) error

	// Delete forgets a session. Missing ids are ignored.
	Delete(ctx context.Context, id string) error
}

type entry struct {
	mu      sync.Mutex
	s       *session.Session
	touched time.Time
}

// Memory is a map-based Store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*entry), now: time.Now}
}

func (m *Memory) Save(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = &entry{s: s, touched: m.now()}
	return nil
}

func (m *Memory) With(ctx context.Context, id string, fn func(*session.Session) error) error {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touched = m.now()
	return fn(e.s)
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions not touched for longer than idle and returns how many
// were removed.
func (m *Memory) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		e.mu.Lock()
		stale := e.touched.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
