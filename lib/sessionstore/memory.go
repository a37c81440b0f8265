package sessionstore

import (
	"context"
	"sync"
	"time"

	"seatfinder-backend/lib/timezone"
)

// MemoryStore is the same-process-only fallback backend. It is safe for
// concurrent use but its contents are invisible to other processes.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]envelope
	ttl      time.Duration

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: map[string]envelope{},
		ttl:      ttl,
		now:      timezone.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, initial Session) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = envelope{
		CreatedAt:    now,
		LastAccessed: now,
		Data:         initial,
	}
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, ok := s.getLocked(id)
	if !ok {
		return Session{}, false, nil
	}
	env.LastAccessed = s.now()
	s.sessions[id] = env
	return env.Data, true, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, partial Update) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, ok := s.getLocked(id)
	if !ok {
		return false, nil
	}
	env.Data.apply(partial)
	env.LastAccessed = s.now()
	s.sessions[id] = env
	return true, nil
}

func (s *MemoryStore) Extend(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, ok := s.getLocked(id)
	if !ok {
		return false, nil
	}
	env.LastAccessed = s.now()
	s.sessions[id] = env
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = map[string]envelope{}
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, env := range s.sessions {
		if now.Sub(env.LastAccessed) > s.ttl {
			delete(s.sessions, id)
		}
	}
	return len(s.sessions), nil
}

// getLocked returns the live envelope for id, deleting it when the
// sliding window has lapsed. Callers must hold s.mu.
func (s *MemoryStore) getLocked(id string) (envelope, bool) {
	env, ok := s.sessions[id]
	if !ok {
		return envelope{}, false
	}
	if s.now().Sub(env.LastAccessed) > s.ttl {
		delete(s.sessions, id)
		return envelope{}, false
	}
	return env, true
}

// put stores an envelope under an externally chosen id. It exists so the
// redis backend can mirror a failed write into the fallback without minting
// a new id.
func (s *MemoryStore) put(id string, env envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = env
}
