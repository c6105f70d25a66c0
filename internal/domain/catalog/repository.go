package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository is the catalog port used by ingestion and delisting
type ProductRepository interface {
	// FindByID returns ErrProductNotFound if the product does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindBySeller returns the seller's products, newest first
	FindBySeller(ctx context.Context, sellerID uuid.UUID, status ...ProductStatus) ([]Product, error)
	// Save creates or updates the product
	Save(ctx context.Context, product *Product) error
}

// SellerRepository is the read-only seller lookup
type SellerRepository interface {
	// FindByID returns ErrSellerNotFound if the seller does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Seller, error)
}
