package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisClaimStore implements ClaimStore on Redis SETNX.
// Claims are shared by every instance pointing at the same Redis.
type RedisClaimStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClaimStore connects to Redis and verifies the connection
func NewRedisClaimStore(ctx context.Context, cfg config.RedisConfig, keyPrefix string) (*RedisClaimStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return NewRedisClaimStoreWithClient(client, keyPrefix), nil
}

// NewRedisClaimStoreWithClient wraps an existing client
func NewRedisClaimStoreWithClient(client *redis.Client, keyPrefix string) *RedisClaimStore {
	if keyPrefix == "" {
		keyPrefix = shared.DefaultClaimConfig().KeyPrefix
	}
	return &RedisClaimStore{client: client, keyPrefix: keyPrefix}
}

// Claim takes the key with SET NX PX so claim and expiry are one atomic step
func (s *RedisClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

// Release deletes the claim key
func (s *RedisClaimStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

// IsClaimed checks whether the claim key exists
func (s *RedisClaimStore) IsClaimed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check claim %s: %w", key, err)
	}
	return n > 0, nil
}

// Ping checks Redis connectivity for health reporting
func (s *RedisClaimStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisClaimStore) Close() error {
	return s.client.Close()
}

var _ shared.ClaimStore = (*RedisClaimStore)(nil)
