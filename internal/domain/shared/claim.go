package shared

import (
	"context"
	"time"
)

// ClaimStore hands out short-lived exclusive claims on string keys.
// Order ingestion uses it to keep two concurrent deliveries of the same
// external sale from doing the same work; the store's unique constraint
// remains the source of truth for deduplication.
type ClaimStore interface {
	// Claim atomically takes the key for ttl.
	// Returns true if the caller now holds the claim, false if someone else does.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives up a claim early. Releasing an unheld key is a no-op.
	Release(ctx context.Context, key string) error

	// IsClaimed reports whether the key is currently held.
	IsClaimed(ctx context.Context, key string) (bool, error)

	// Close releases resources used by the store.
	Close() error
}

// ClaimConfig holds configuration for claim stores
type ClaimConfig struct {
	// TTL is how long a claim is held if never released (default: 2 minutes)
	TTL time.Duration
	// KeyPrefix namespaces claim keys (default: "claim:")
	KeyPrefix string
}

// DefaultClaimConfig returns the default claim configuration
func DefaultClaimConfig() ClaimConfig {
	return ClaimConfig{
		TTL:       2 * time.Minute,
		KeyPrefix: "claim:",
	}
}
