package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
)

// ErrNotFound is returned for an attempt id that is unknown, expired, or
// owned by another user.
var ErrNotFound = errors.New("attempt not found")

// State is one in-flight attempt held by the Manager.
type State struct {
	ID        string
	UserID    string
	ModuleID  string
	Title     string
	Level     progression.Level
	Order     []progression.Level
	CreatedAt time.Time

	mu        sync.Mutex
	attempt   *quiz.Attempt
	updatedAt time.Time
	outcome   *Outcome
}

// lock serializes access to the attempt.
func (s *State) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// Manager keeps in-flight attempts in memory, keyed by attempt id.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*State
	now    func() time.Time
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		states: make(map[string]*State),
		now:    time.Now,
	}
}

// Add registers a new attempt and returns its state.
func (m *Manager) Add(userID, moduleID, title string, level progression.Level, order []progression.Level, a *quiz.Attempt) *State {
	now := m.now()
	st := &State{
		ID:        uuid.NewString(),
		UserID:    userID,
		ModuleID:  moduleID,
		Title:     title,
		Level:     level,
		Order:     order,
		CreatedAt: now,
		attempt:   a,
		updatedAt: now,
	}

	m.mu.Lock()
	m.states[st.ID] = st
	m.mu.Unlock()
	return st
}

// Get returns the attempt if it exists and belongs to userID.
func (m *Manager) Get(userID, id string) (*State, error) {
	m.mu.RLock()
	st, ok := m.states[id]
	m.mu.RUnlock()
	if !ok || st.UserID != userID {
		return nil, ErrNotFound
	}
	return st, nil
}

// Remove discards the attempt.
func (m *Manager) Remove(userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok || st.UserID != userID {
		return ErrNotFound
	}
	delete(m.states, id)
	return nil
}

// touch records activity on the attempt. Callers hold the state lock.
func (m *Manager) touch(st *State) {
	st.updatedAt = m.now()
}

// Prune drops attempts with no activity for longer than maxAge and returns
// how many were removed.
func (m *Manager) Prune(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, st := range m.states {
		st.mu.Lock()
		idle := st.updatedAt.Before(cutoff)
		st.mu.Unlock()
		if idle {
			delete(m.states, id)
			n++
		}
	}
	return n
}

// Len returns the number of attempts held.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
