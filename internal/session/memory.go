package session

import (
	"context"
	"sync"
	"time"

	"gopherai-pdfchat/internal/model"
)

type memoryEntry struct {
	sess      *model.Session
	expiresAt time.Time
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore keeps sessions in process memory. A ttl of zero never expires them.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.expired(entry) {
		return nil, ErrSessionNotFound
	}
	return entry.sess.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *model.Session) error {
	entry := memoryEntry{sess: sess.Clone()}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.sessions[sess.ID] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// ReferencedPaths also evicts expired sessions so their files become sweepable.
func (s *MemoryStore) ReferencedPaths(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make(map[string]struct{})
	for id, entry := range s.sessions {
		if s.expired(entry) {
			delete(s.sessions, id)
			continue
		}
		for _, p := range entry.sess.StoragePaths() {
			paths[p] = struct{}{}
		}
	}
	return paths, nil
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)
}
