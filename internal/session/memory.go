package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/recipe-pages/backend/internal/types"
)

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *zap.Logger
	now      func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a new in-memory store. A positive cleanupInterval
// starts a janitor that evicts expired sessions until Close is called.
func NewMemoryStore(cleanupInterval time.Duration, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go runJanitor(cleanupInterval, s.stop, s.purgeExpired)
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[sess.State]; ok && !existing.Expired(s.now()) {
		return ErrDuplicateState
	}
	cp := *sess
	s.sessions[sess.State] = &cp
	return nil
}

func (s *MemoryStore) Attach(_ context.Context, state string, recipes []types.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[state]
	if !ok || sess.Expired(s.now()) {
		return ErrNotFound
	}
	sess.Recipes = append([]types.Recipe(nil), recipes...)
	return nil
}

func (s *MemoryStore) Take(_ context.Context, state string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[state]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.sessions, state)
	if sess.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, state string) error {
	s.mu.Lock()
	delete(s.sessions, state)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the janitor and drops every session
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.mu.Lock()
		s.sessions = make(map[string]*Session)
		s.mu.Unlock()
	})
	return nil
}

func (s *MemoryStore) purgeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for state, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, state)
			s.logger.Debug("Evicted expired session", zap.String("keyword", sess.Keyword))
		}
	}
}
