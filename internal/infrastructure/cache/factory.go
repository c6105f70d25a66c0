package cache

import (
	"context"
	"fmt"

	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Claim backends accepted in ingestion.claim_backend
const (
	ClaimBackendRedis  = "redis"
	ClaimBackendMemory = "memory"
)

// ClaimStoreFactory builds the ClaimStore selected by configuration
type ClaimStoreFactory struct {
	redisConfig           config.RedisConfig
	breakerConfig         config.BreakerConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ClaimStoreFactoryOption is a functional option for configuring the factory
type ClaimStoreFactoryOption func(*ClaimStoreFactory)

// WithLogger sets the logger for the factory and the stores it builds
func WithLogger(logger *zap.Logger) ClaimStoreFactoryOption {
	return func(f *ClaimStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store at startup. Default is true.
func WithInMemoryFallback(allow bool) ClaimStoreFactoryOption {
	return func(f *ClaimStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewClaimStoreFactory creates a new factory
func NewClaimStoreFactory(redisCfg config.RedisConfig, breakerCfg config.BreakerConfig, opts ...ClaimStoreFactoryOption) *ClaimStoreFactory {
	f := &ClaimStoreFactory{
		redisConfig:           redisCfg,
		breakerConfig:         breakerCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the store for backend. Redis stores are wrapped in a circuit breaker.
func (f *ClaimStoreFactory) Create(ctx context.Context, backend string) (shared.ClaimStore, error) {
	switch backend {
	case ClaimBackendMemory:
		f.logger.Info("Using in-memory claim store")
		return NewInMemoryClaimStore(), nil
	case ClaimBackendRedis, "":
	default:
		return nil, fmt.Errorf("unknown claim backend %q", backend)
	}

	store, err := NewRedisClaimStore(ctx, f.redisConfig, shared.DefaultClaimConfig().KeyPrefix)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required for ingestion claims but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory claim store. "+
			"Concurrent duplicate deliveries across instances will be settled by the database constraint.",
			zap.Error(err),
		)
		return NewInMemoryClaimStore(), nil
	}

	f.logger.Info("Using Redis claim store", zap.String("addr", f.redisConfig.Addr()))
	return NewBreakerClaimStore(store, f.breakerConfig, f.logger), nil
}
