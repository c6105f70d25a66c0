package cache

import (
	"context"
	"errors"
	"time"

	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/infrastructure/config"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrClaimStoreUnavailable is returned while the breaker is open
var ErrClaimStoreUnavailable = shared.ErrStoreUnavailable.Refine("CLAIM_STORE_UNAVAILABLE", "Claim store is temporarily unavailable")

// BreakerClaimStore guards a ClaimStore with a circuit breaker so a dead
// Redis costs one fast error per call instead of a dial timeout.
type BreakerClaimStore struct {
	inner  shared.ClaimStore
	cb     *gobreaker.CircuitBreaker[bool]
	logger *zap.Logger
}

// NewBreakerClaimStore wraps inner. The breaker opens after
// cfg.FailureThreshold consecutive failures and tries again after cfg.Timeout.
func NewBreakerClaimStore(inner shared.ClaimStore, cfg config.BreakerConfig, logger *zap.Logger) *BreakerClaimStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	s := &BreakerClaimStore{inner: inner, logger: logger}
	s.cb = gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "claim-store",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A context cancelled by the caller says nothing about the store's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return s
}

// Claim runs inner.Claim through the breaker
func (s *BreakerClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.execute(func() (bool, error) {
		return s.inner.Claim(ctx, key, ttl)
	})
}

// Release runs inner.Release through the breaker
func (s *BreakerClaimStore) Release(ctx context.Context, key string) error {
	_, err := s.execute(func() (bool, error) {
		return false, s.inner.Release(ctx, key)
	})
	return err
}

// IsClaimed runs inner.IsClaimed through the breaker
func (s *BreakerClaimStore) IsClaimed(ctx context.Context, key string) (bool, error) {
	return s.execute(func() (bool, error) {
		return s.inner.IsClaimed(ctx, key)
	})
}

// State returns the breaker state
func (s *BreakerClaimStore) State() gobreaker.State {
	return s.cb.State()
}

// Ping reports the open breaker as unavailable and otherwise pings the
// wrapped store when it supports pinging. Pings do not count toward the breaker.
func (s *BreakerClaimStore) Ping(ctx context.Context) error {
	if s.cb.State() == gobreaker.StateOpen {
		return ErrClaimStoreUnavailable
	}
	if p, ok := s.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the wrapped store
func (s *BreakerClaimStore) Close() error {
	return s.inner.Close()
}

func (s *BreakerClaimStore) execute(fn func() (bool, error)) (bool, error) {
	ok, err := s.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false, ErrClaimStoreUnavailable
	}
	return ok, err
}

var _ shared.ClaimStore = (*BreakerClaimStore)(nil)
