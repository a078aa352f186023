package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultReplayPrefix = "pharmacy:idempotency:"
	pendingMarker       = "pending"
	donePrefix          = "done:"
)

// RedisReplayStore implements shared.ReplayStore on Redis so every API instance
// sees the same idempotency keys.
type RedisReplayStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisReplayStore connects to Redis and verifies the connection
func NewRedisReplayStore(ctx context.Context, cfg RedisConfig) (*RedisReplayStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisReplayStoreWithClient(client, ""), nil
}

// NewRedisReplayStoreWithClient wraps an existing client
func NewRedisReplayStoreWithClient(client *redis.Client, keyPrefix string) *RedisReplayStore {
	if keyPrefix == "" {
		keyPrefix = defaultReplayPrefix
	}
	return &RedisReplayStore{client: client, keyPrefix: keyPrefix}
}

// Reserve claims the key with SETNX
func (s *RedisReplayStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Complete overwrites the reservation with the result reference
func (s *RedisReplayStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, donePrefix+result, ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Lookup reads the state of the key
func (s *RedisReplayStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, shared.ErrNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if result, ok := strings.CutPrefix(val, donePrefix); ok {
		return result, true, nil
	}
	return "", false, nil
}

// Release deletes the key
func (s *RedisReplayStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisReplayStore) Close() error {
	return s.client.Close()
}

var _ shared.ReplayStore = (*RedisReplayStore)(nil)
