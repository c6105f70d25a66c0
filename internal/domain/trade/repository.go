package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
)

// Pagination defaults for order search
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// OrderFilter narrows an order search. Zero values mean "any".
type OrderFilter struct {
	SellerID       *uuid.UUID
	ProductID      *uuid.UUID
	Channel        integration.Channel
	ShippingStatus ShippingStatus
	SoldFrom       *time.Time
	SoldTo         *time.Time
	// Search matches buyer name, buyer email or channel order id
	Search string
	// SortBy is a column name; the store falls back to sold_at when unknown
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Normalize applies pagination defaults and bounds
func (f *OrderFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// Offset returns the row offset of the current page
func (f OrderFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// OrderRepository is the Canonical Order Store port
type OrderRepository interface {
	// FindByID returns ErrOrderNotFound if missing
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByChannelOrderID looks an order up by its uniqueness anchor.
	// Returns ErrOrderNotFound if missing.
	FindByChannelOrderID(ctx context.Context, channel integration.Channel, channelOrderID string) (*Order, error)
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]Order, error)
	// Search returns one page of orders (newest sale first) and the total match count
	Search(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	// Save persists shipping field changes of an existing order
	Save(ctx context.Context, order *Order) error
}

// SaleRecorder persists a new order and its product's sold status atomically.
// It returns ErrDuplicateChannelOrder when (channel, channel_order_id) already exists,
// in which case nothing is written.
type SaleRecorder interface {
	RecordSale(ctx context.Context, order *Order, product *catalog.Product) error
}
