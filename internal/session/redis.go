package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/recipe-pages/backend/internal/types"
)

const redisKeyPrefix = "recipes:session:"

// RedisStore keeps sessions in Redis with a per-key TTL
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(state string) string {
	return redisKeyPrefix + state
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Already expired sessions are never visible, so there is nothing to store
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	ok, err := s.client.SetNX(ctx, redisKey(sess.State), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if !ok {
		return ErrDuplicateState
	}
	return nil
}

func (s *RedisStore) Attach(ctx context.Context, state string, recipes []types.Recipe) error {
	key := redisKey(state)

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return ErrNotFound
	}
	sess.Recipes = recipes

	updated, err := json.Marshal(&sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// XX keeps an expired key expired; KeepTTL preserves the original deadline
	err = s.client.SetArgs(ctx, key, updated, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, state string) (*Session, error) {
	data, err := s.client.GetDel(ctx, redisKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, state string) error {
	if err := s.client.Del(ctx, redisKey(state)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close is a no-op; the Redis client is owned by the caller
func (s *RedisStore) Close() error {
	return nil
}
