package conversation

import (
	"sync"
)

// Store holds conversation state in memory for the process lifetime.
//
// Reads return deep copies and Update commits atomically, but Store does not
// serialize a read-then-update sequence. Two ProcessMessage calls on the same
// project can both read the same history and both commit.
type Store struct {
	mu    sync.RWMutex
	items map[string]*State
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{items: make(map[string]*State)}
}

// Get returns a copy of the state for projectID.
func (s *Store) Get(projectID string) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.items[projectID]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// Put registers state, replacing any existing conversation for its project.
func (s *Store) Put(state *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[state.ProjectID] = state.Clone()
}

// Update applies fn to the stored state under the write lock. If fn returns
// an error the stored state is left unchanged.
func (s *Store) Update(projectID string, fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.items[projectID]
	if !ok {
		return ErrNotFound
	}
	next := st.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.items[projectID] = next
	return nil
}

// Len returns the number of registered conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
