// Package conversation holds the in-memory transcript of a chat session.
//
// History is append-only: turns are never edited, merged or removed. The only
// way to shrink it is Reset, which clears everything. Nothing is persisted.
package conversation

import "sync"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store is an ordered, append-only sequence of turns.
type Store struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewStore() *Store {
	return &Store{}
}

// Append records t after every existing turn.
func (s *Store) Append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// Snapshot returns a point-in-time copy of the history.
func (s *Store) Snapshot() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Reset drops the whole history.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}
