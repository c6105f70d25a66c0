package integration

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListingStatus is only tracked for channels with soft delisting
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
)

// MarketplaceListing ties an internal product to one listing on one channel.
// A product has at most one listing per channel.
type MarketplaceListing struct {
	// ID is the unique identifier of this listing row
	ID uuid.UUID
	// ProductID is the internal product being advertised
	ProductID uuid.UUID
	// Channel is where the listing lives
	Channel Channel
	// MarketplaceID is the channel-assigned listing identifier
	MarketplaceID string
	// Slug is the optional channel URL slug
	Slug *string
	// Status is set only for soft-delist channels; nil means visible
	Status    *ListingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMarketplaceListing creates a visible listing
func NewMarketplaceListing(productID uuid.UUID, channel Channel, marketplaceID string) (*MarketplaceListing, error) {
	if productID == uuid.Nil {
		return nil, ErrListingInvalidProduct
	}
	if !channel.IsValid() {
		return nil, ErrChannelNotSupported
	}
	marketplaceID = strings.TrimSpace(marketplaceID)
	if marketplaceID == "" {
		return nil, ErrListingInvalidID
	}

	now := time.Now()
	l := &MarketplaceListing{
		ID:            uuid.New(),
		ProductID:     productID,
		Channel:       channel,
		MarketplaceID: marketplaceID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if channel.DelistPolicy() == DelistSoft {
		active := ListingStatusActive
		l.Status = &active
	}
	return l, nil
}

// WithSlug sets the channel URL slug
func (l *MarketplaceListing) WithSlug(slug string) *MarketplaceListing {
	if slug != "" {
		l.Slug = &slug
	}
	return l
}

// IsVisible reports whether the listing still advertises the item
func (l *MarketplaceListing) IsVisible() bool {
	return l.Status == nil || *l.Status != ListingStatusInactive
}

// Deactivate soft-delists the listing. Returns false if it was already inactive.
func (l *MarketplaceListing) Deactivate() bool {
	if !l.IsVisible() {
		return false
	}
	inactive := ListingStatusInactive
	l.Status = &inactive
	l.UpdatedAt = time.Now()
	return true
}
