package cache

import (
	"context"
	"sync"
	"time"

	"github.com/marketsync/backend/internal/domain/shared"
)

type claimEntry struct {
	expiresAt time.Time
}

// InMemoryClaimStore implements ClaimStore with a process-local map.
// Claims are not visible to other instances; use it for tests and single-node setups.
type InMemoryClaimStore struct {
	mu        sync.Mutex
	entries   map[string]claimEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryClaimStore creates the store and starts its expiry sweeper
func NewInMemoryClaimStore() *InMemoryClaimStore {
	s := &InMemoryClaimStore{
		entries:  make(map[string]claimEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop(time.Minute)

	return s
}

// Claim takes the key unless an unexpired claim exists
func (s *InMemoryClaimStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = claimEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Release drops the claim
func (s *InMemoryClaimStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// IsClaimed reports whether an unexpired claim exists
func (s *InMemoryClaimStore) IsClaimed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && s.now().Before(e.expiresAt), nil
}

// Ping always succeeds
func (s *InMemoryClaimStore) Ping(context.Context) error {
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryClaimStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored entries, expired or not
func (s *InMemoryClaimStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InMemoryClaimStore) cleanupLoop(every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryClaimStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ shared.ClaimStore = (*InMemoryClaimStore)(nil)
