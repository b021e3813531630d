// Package session correlates a recipe search with its later OAuth callback.
//
// A session is keyed by an unguessable state token. It is created when a
// search arrives, has its recipes attached once they are fetched, and is
// consumed exactly once by a matching callback. Sessions expire after a TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pageza/recipe-pages/backend/internal/types"
)

// StateBytes is the amount of randomness in a state token
const StateBytes = 20

// maxCreateAttempts bounds retries when a generated state collides
const maxCreateAttempts = 3

var (
	// ErrNotFound is returned for unknown, expired or already consumed states
	ErrNotFound = errors.New("session not found")
	// ErrDuplicateState is returned when a live session already owns the state
	ErrDuplicateState = errors.New("state already in use")
)

// Session correlates one browser flow across requests
type Session struct {
	State     string         `json:"state"`
	Keyword   string         `json:"keyword"`
	Recipes   []types.Recipe `json:"recipes,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Expired reports whether the session is past its lifetime at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions keyed by state
type Store interface {
	// Save inserts a new session. It never overwrites a live session.
	Save(ctx context.Context, s *Session) error
	// Attach sets the recipes of a live session.
	Attach(ctx context.Context, state string, recipes []types.Recipe) error
	// Take returns and removes a live session.
	Take(ctx context.Context, state string) (*Session, error)
	// Delete removes a session if present.
	Delete(ctx context.Context, state string) error
	Close() error
}

// NewState returns a hex encoded random state token
func NewState() (string, error) {
	b := make([]byte, StateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create starts a new session for keyword with a fresh state token
func Create(ctx context.Context, store Store, keyword string, ttl time.Duration) (*Session, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		state, err := NewState()
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		s := &Session{
			State:     state,
			Keyword:   keyword,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}

		err = store.Save(ctx, s)
		if errors.Is(err, ErrDuplicateState) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("failed to create session: %w", ErrDuplicateState)
}

// runJanitor calls purge every interval until stop is closed
func runJanitor(interval time.Duration, stop <-chan struct{}, purge func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purge()
		case <-stop:
			return
		}
	}
}
