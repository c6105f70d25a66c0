package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
)

// MarketplaceListingModel is the persistence model for a product's presence on one channel.
// A product has at most one listing per channel, and a channel-native id maps to one listing.
type MarketplaceListingModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_listing_product_channel,priority:1"`
	Channel       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_listing_product_channel,priority:2;uniqueIndex:idx_listing_channel_marketplace,priority:1"`
	MarketplaceID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_listing_channel_marketplace,priority:2"`
	Slug          *string   `gorm:"type:varchar(500)"`
	Status        *string   `gorm:"type:varchar(20)"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MarketplaceListingModel) TableName() string {
	return "marketplace_listings"
}

// ToDomain converts the persistence model to a domain entity
func (m *MarketplaceListingModel) ToDomain() *integration.MarketplaceListing {
	l := &integration.MarketplaceListing{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Channel:       integration.Channel(m.Channel),
		MarketplaceID: m.MarketplaceID,
		Slug:          m.Slug,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.Status != nil {
		status := integration.ListingStatus(*m.Status)
		l.Status = &status
	}
	return l
}

// FromDomain populates the persistence model from a domain entity
func (m *MarketplaceListingModel) FromDomain(l *integration.MarketplaceListing) {
	m.ID = l.ID
	m.ProductID = l.ProductID
	m.Channel = string(l.Channel)
	m.MarketplaceID = l.MarketplaceID
	m.Slug = l.Slug
	m.Status = nil
	if l.Status != nil {
		status := string(*l.Status)
		m.Status = &status
	}
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
}

// MarketplaceListingModelFromDomain creates a new persistence model from a domain entity
func MarketplaceListingModelFromDomain(l *integration.MarketplaceListing) *MarketplaceListingModel {
	m := &MarketplaceListingModel{}
	m.FromDomain(l)
	return m
}

// DelistTaskModel is the persistence model for a pending channel delist retry
type DelistTaskModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	ListingID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Channel     string     `gorm:"type:varchar(20);not null"`
	Action      string     `gorm:"type:varchar(10);not null"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_delist_task_status_retry,priority:1"`
	RetryCount  int        `gorm:"not null;default:0"`
	MaxRetries  int        `gorm:"not null;default:5"`
	LastError   string     `gorm:"type:text"`
	NextRetryAt *time.Time `gorm:"index:idx_delist_task_status_retry,priority:2"`
	ProcessedAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DelistTaskModel) TableName() string {
	return "delist_tasks"
}

// ToDomain converts the persistence model to a domain entity
func (m *DelistTaskModel) ToDomain() *integration.DelistTask {
	return &integration.DelistTask{
		ID:          m.ID,
		ListingID:   m.ListingID,
		ProductID:   m.ProductID,
		Channel:     integration.Channel(m.Channel),
		Action:      integration.DelistPolicy(m.Action),
		Status:      integration.DelistTaskStatus(m.Status),
		RetryCount:  m.RetryCount,
		MaxRetries:  m.MaxRetries,
		LastError:   m.LastError,
		NextRetryAt: m.NextRetryAt,
		ProcessedAt: m.ProcessedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain entity
func (m *DelistTaskModel) FromDomain(t *integration.DelistTask) {
	m.ID = t.ID
	m.ListingID = t.ListingID
	m.ProductID = t.ProductID
	m.Channel = string(t.Channel)
	m.Action = string(t.Action)
	m.Status = string(t.Status)
	m.RetryCount = t.RetryCount
	m.MaxRetries = t.MaxRetries
	m.LastError = t.LastError
	m.NextRetryAt = t.NextRetryAt
	m.ProcessedAt = t.ProcessedAt
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
}

// DelistTaskModelFromDomain creates a new persistence model from a domain entity
func DelistTaskModelFromDomain(t *integration.DelistTask) *DelistTaskModel {
	m := &DelistTaskModel{}
	m.FromDomain(t)
	return m
}
