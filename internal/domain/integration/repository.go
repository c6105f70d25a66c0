package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListingRepository is the Marketplace Listing Registry port
type ListingRepository interface {
	// FindByID returns ErrListingNotFound if missing
	FindByID(ctx context.Context, id uuid.UUID) (*MarketplaceListing, error)
	// FindByProductID returns every listing of a product, visible or not
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]MarketplaceListing, error)
	// FindByChannelAndMarketplaceID resolves a channel listing id to our listing
	FindByChannelAndMarketplaceID(ctx context.Context, channel Channel, marketplaceID string) (*MarketplaceListing, error)
	// Save creates or updates a listing.
	// Returns ErrListingAlreadyExists if the product is already listed on the channel.
	Save(ctx context.Context, listing *MarketplaceListing) error
	// Delete removes a listing. Deleting a missing listing is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
	// FindStranded returns visible listings of products sold before soldBefore
	// on channels that did not record the sale and that no open delist task covers
	FindStranded(ctx context.Context, soldBefore time.Time, limit int) ([]MarketplaceListing, error)
}

// DelistTaskRepository persists delist retry tasks
type DelistTaskRepository interface {
	Save(ctx context.Context, tasks ...*DelistTask) error
	// FindPending returns pending tasks, oldest first
	FindPending(ctx context.Context, limit int) ([]*DelistTask, error)
	// FindRetryable returns failed tasks due before the given time
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*DelistTask, error)
	FindByID(ctx context.Context, id uuid.UUID) (*DelistTask, error)
	// MarkProcessing atomically claims tasks; tasks claimed elsewhere are skipped
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*DelistTask, error)
	// ReleaseStale returns tasks claimed before the given time to PENDING
	ReleaseStale(ctx context.Context, claimedBefore time.Time) (int64, error)
	Update(ctx context.Context, task *DelistTask) error
	// DeleteOlderThan removes sent tasks created before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[DelistTaskStatus]int64, error)
}
