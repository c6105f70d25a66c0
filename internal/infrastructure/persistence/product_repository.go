package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: tx}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, storeError("find product", err)
	}
	return model.ToDomain(), nil
}

// FindBySeller returns the seller's products, newest first, optionally filtered by status
func (r *GormProductRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, status ...catalog.ProductStatus) ([]catalog.Product, error) {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	if len(status) > 0 {
		values := make([]string, len(status))
		for i, s := range status {
			values[i] = string(s)
		}
		query = query.Where("status IN ?", values)
	}

	var rows []models.ProductModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, storeError("find seller products", err)
	}

	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error; err != nil {
		return storeError("save product", err)
	}
	return nil
}

// GormSellerRepository implements catalog.SellerRepository using GORM
type GormSellerRepository struct {
	db *gorm.DB
}

// NewGormSellerRepository creates a new GormSellerRepository
func NewGormSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

// FindByID finds a seller by its ID
func (r *GormSellerRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Seller, error) {
	var model models.SellerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrSellerNotFound
		}
		return nil, storeError("find seller", err)
	}
	return model.ToDomain(), nil
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.SellerRepository  = (*GormSellerRepository)(nil)
)
