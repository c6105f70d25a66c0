package integration

import (
	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/shared"
)

const AggregateTypeListing = "MarketplaceListing"

const (
	EventTypeListingDelisted     = "ListingDelisted"
	EventTypeListingDelistFailed = "ListingDelistFailed"
)

// ListingDelistedEvent is published after a sibling listing stops advertising a sold product
type ListingDelistedEvent struct {
	shared.BaseDomainEvent
	ListingID     uuid.UUID    `json:"listing_id"`
	ProductID     uuid.UUID    `json:"product_id"`
	Channel       Channel      `json:"channel"`
	MarketplaceID string       `json:"marketplace_id"`
	Action        DelistPolicy `json:"action"`
}

// NewListingDelistedEvent creates a new ListingDelistedEvent
func NewListingDelistedEvent(l *MarketplaceListing, action DelistPolicy) *ListingDelistedEvent {
	return &ListingDelistedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeListingDelisted, AggregateTypeListing, l.ID),
		ListingID:       l.ID,
		ProductID:       l.ProductID,
		Channel:         l.Channel,
		MarketplaceID:   l.MarketplaceID,
		Action:          action,
	}
}

// ListingDelistFailedEvent is published when a delist attempt is queued for retry
type ListingDelistFailedEvent struct {
	shared.BaseDomainEvent
	TaskID    uuid.UUID `json:"task_id"`
	ListingID uuid.UUID `json:"listing_id"`
	ProductID uuid.UUID `json:"product_id"`
	Channel   Channel   `json:"channel"`
	Error     string    `json:"error"`
}

// NewListingDelistFailedEvent creates a new ListingDelistFailedEvent
func NewListingDelistFailedEvent(task *DelistTask) *ListingDelistFailedEvent {
	return &ListingDelistFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeListingDelistFailed, AggregateTypeListing, task.ListingID),
		TaskID:          task.ID,
		ListingID:       task.ListingID,
		ProductID:       task.ProductID,
		Channel:         task.Channel,
		Error:           task.LastError,
	}
}
