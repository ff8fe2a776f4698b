package session

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps session state in process. Used by tests and the CLI.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Load returns a copy of the stored state.
func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &state, nil
}

// Save stores a copy of state.
func (s *MemoryStore) Save(ctx context.Context, state *State) error {
	if state == nil || state.SessionID == "" {
		return fmt.Errorf("session: state requires a session id")
	}
	s.mu.Lock()
	s.states[state.SessionID] = *state
	s.mu.Unlock()
	return nil
}

// Delete forgets the session.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
	return nil
}
