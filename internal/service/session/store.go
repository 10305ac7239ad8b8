package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

// Store keeps the in-progress form of every user. Get is total: a user
// that was never seen is idle with no fields.
type Store interface {
	Get(ctx context.Context, userID string) intake.Session
	Put(ctx context.Context, userID string, s intake.Session)
	Clear(ctx context.Context, userID string)
}

// MemoryStore implements Store with a map guarded by a RWMutex. Sessions do
// not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]intake.Session
	now      func() time.Time
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]intake.Session),
		now:      time.Now,
	}
}

// Get returns a copy of the user's session, or a fresh idle one.
func (s *MemoryStore) Get(_ context.Context, userID string) intake.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return intake.NewSession(userID)
	}
	return session.Clone()
}

// Put replaces the user's session. Idle sessions are dropped since they
// carry nothing Get would not synthesise.
func (s *MemoryStore) Put(_ context.Context, userID string, session intake.Session) {
	if session.IsIdle() {
		s.delete(userID)
		return
	}

	session = session.Clone()
	session.UserID = userID
	session.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	s.sessions[userID] = session
	s.mu.Unlock()
}

// Clear resets the user to idle.
func (s *MemoryStore) Clear(_ context.Context, userID string) {
	s.delete(userID)
}

// Len reports how many users have a form in progress.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Evict drops sessions not touched for longer than ttl and returns how many
// were removed.
func (s *MemoryStore) Evict(ttl time.Duration) int {
	cutoff := s.now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor evicts stale sessions every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval, ttl time.Duration, logger *zap.Logger) error {
	if interval <= 0 || ttl <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Evict(ttl); n > 0 {
				logger.Info("evicted stale sessions", zap.Int("count", n), zap.Duration("ttl", ttl))
			}
		}
	}
}

func (s *MemoryStore) delete(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}
