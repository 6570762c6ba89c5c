package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process. Used by tests and single instance dev setups.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*State
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]*State),
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(ctx context.Context, st *State) (*State, error) {
	created, err := newState(st, s.now(), s.ttl)
	if err != nil {
		return nil, err
	}

	stored := *created
	s.mu.Lock()
	s.sessions[created.ID] = &stored
	s.mu.Unlock()

	return created, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*State, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || !s.now().Before(st.ExpiresAt) {
		return nil, ErrNotFound
	}
	found := *st
	return &found, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Purge(ctx context.Context) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, st := range s.sessions {
		if !now.Before(st.ExpiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
