package cache

import (
	"context"
	"fmt"

	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReplayStoreFactory picks the idempotency replay store for the sales endpoint
type ReplayStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReplayStoreFactoryOption is a functional option for configuring the factory
type ReplayStoreFactoryOption func(*ReplayStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReplayStoreFactoryOption {
	return func(f *ReplayStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the in-memory store.
// Default is true.
func WithInMemoryFallback(allow bool) ReplayStoreFactoryOption {
	return func(f *ReplayStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReplayStoreFactory creates a new factory
func NewReplayStoreFactory(cfg config.RedisConfig, opts ...ReplayStoreFactoryOption) *ReplayStoreFactory {
	f := &ReplayStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore connects a Redis-backed store
func (f *ReplayStoreFactory) CreateRedisStore(ctx context.Context) (shared.ReplayStore, error) {
	store, err := NewRedisReplayStore(ctx, RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis replay store: %w", err)
	}
	return store, nil
}

// CreateStore returns a Redis store when Redis is enabled and reachable, otherwise the in-memory one.
// In-memory keys are not shared between API instances.
func (f *ReplayStoreFactory) CreateStore(ctx context.Context) (shared.ReplayStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("redis disabled, using in-memory idempotency store")
		return NewInMemoryReplayStore(), nil
	}

	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewInMemoryReplayStore(), nil
}
