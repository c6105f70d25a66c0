package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormListingRepository implements integration.ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormListingRepository) WithTx(tx *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: tx}
}

// FindByID finds a listing by its ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.MarketplaceListing, error) {
	var model models.MarketplaceListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrListingNotFound
		}
		return nil, storeError("find listing", err)
	}
	return model.ToDomain(), nil
}

// FindByProductID returns every listing of a product ordered by channel
func (r *GormListingRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]integration.MarketplaceListing, error) {
	var rows []models.MarketplaceListingModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("channel ASC").
		Find(&rows).Error; err != nil {
		return nil, storeError("find product listings", err)
	}

	listings := make([]integration.MarketplaceListing, len(rows))
	for i := range rows {
		listings[i] = *rows[i].ToDomain()
	}
	return listings, nil
}

// FindByChannelAndMarketplaceID resolves a channel-native listing id
func (r *GormListingRepository) FindByChannelAndMarketplaceID(ctx context.Context, channel integration.Channel, marketplaceID string) (*integration.MarketplaceListing, error) {
	var model models.MarketplaceListingModel
	if err := r.db.WithContext(ctx).
		Where("channel = ? AND marketplace_id = ?", string(channel), marketplaceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrListingNotFound
		}
		return nil, storeError("find listing by marketplace id", err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a listing
func (r *GormListingRepository) Save(ctx context.Context, listing *integration.MarketplaceListing) error {
	listing.UpdatedAt = time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = listing.UpdatedAt
	}
	if err := r.db.WithContext(ctx).Save(models.MarketplaceListingModelFromDomain(listing)).Error; err != nil {
		if isUniqueViolation(err) {
			return integration.ErrListingAlreadyExists
		}
		return storeError("save listing", err)
	}
	return nil
}

// Delete removes a listing; deleting a missing listing is not an error
func (r *GormListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.MarketplaceListingModel{}).Error; err != nil {
		return storeError("delete listing", err)
	}
	return nil
}

// FindStranded finds visible listings left behind by a sale whose delist
// pass never completed. Listings on a channel that recorded an order for the
// product are the sale listings and are skipped, as are listings covered by
// an unfinished delist task of either kind.
func (r *GormListingRepository) FindStranded(ctx context.Context, soldBefore time.Time, limit int) ([]integration.MarketplaceListing, error) {
	var rows []models.MarketplaceListingModel
	if err := r.db.WithContext(ctx).
		Table("marketplace_listings AS l").
		Select("l.*").
		Joins("JOIN products p ON p.id = l.product_id").
		Where("p.status = ? AND p.updated_at < ?", string(catalog.ProductStatusSold), soldBefore).
		Where("(l.status IS NULL OR l.status <> ?)", string(integration.ListingStatusInactive)).
		Where("NOT EXISTS (SELECT 1 FROM orders o WHERE o.product_id = l.product_id AND o.channel = l.channel)").
		Where(`NOT EXISTS (SELECT 1 FROM delist_tasks t
			WHERE (t.listing_id = l.id OR (t.product_id = l.product_id AND t.action = ?))
			AND t.status <> ?)`, string(integration.DelistSweep), string(integration.DelistTaskSent)).
		Order("p.updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, storeError("find stranded listings", err)
	}

	listings := make([]integration.MarketplaceListing, len(rows))
	for i := range rows {
		listings[i] = *rows[i].ToDomain()
	}
	return listings, nil
}

var _ integration.ListingRepository = (*GormListingRepository)(nil)
