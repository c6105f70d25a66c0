package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: tx}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, trade.ErrOrderNotFound
		}
		return nil, storeError("find order", err)
	}
	return model.ToDomain(), nil
}

// FindByChannelOrderID finds an order by (channel, channel_order_id)
func (r *GormOrderRepository) FindByChannelOrderID(ctx context.Context, channel integration.Channel, channelOrderID string) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("channel = ? AND channel_order_id = ?", string(channel), channelOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, trade.ErrOrderNotFound
		}
		return nil, storeError("find order by channel order id", err)
	}
	return model.ToDomain(), nil
}

// FindByProductID returns the orders of a product, newest sale first
func (r *GormOrderRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]trade.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sold_at DESC").
		Find(&rows).Error; err != nil {
		return nil, storeError("find product orders", err)
	}
	return toDomainOrders(rows), nil
}

// Search returns one page of matching orders and the total match count
func (r *GormOrderRepository) Search(ctx context.Context, filter trade.OrderFilter) ([]trade.Order, int64, error) {
	filter.Normalize()
	// Session makes the filtered query safe to reuse for both count and page
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError("count orders", err)
	}
	if total == 0 {
		return []trade.Order{}, 0, nil
	}

	var rows []models.OrderModel
	sortBy := ValidateSortField(filter.SortBy, OrderSortFields, "sold_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)
	if err := query.
		Order(sortBy + " " + sortOrder).
		Order("id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, storeError("search orders", err)
	}
	return toDomainOrders(rows), total, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter trade.OrderFilter) *gorm.DB {
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Channel != "" {
		query = query.Where("channel = ?", string(filter.Channel))
	}
	if filter.ShippingStatus != "" {
		query = query.Where("shipping_status = ?", string(filter.ShippingStatus))
	}
	if filter.SoldFrom != nil {
		query = query.Where("sold_at >= ?", filter.SoldFrom.UTC())
	}
	if filter.SoldTo != nil {
		query = query.Where("sold_at < ?", filter.SoldTo.UTC())
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			"LOWER(buyer_name) LIKE ? ESCAPE '\\' OR LOWER(buyer_email) LIKE ? ESCAPE '\\' OR LOWER(channel_order_id) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}
	return query
}

// Save persists the shipping fields of an existing order
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	order.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"shipping_status": string(order.ShippingStatus),
			"shipping_method": order.ShippingMethod,
			"carrier":         order.Carrier,
			"tracking_number": order.TrackingNumber,
			"shipped_at":      order.ShippedAt,
			"updated_at":      order.UpdatedAt,
		})
	if result.Error != nil {
		return storeError("save order", result.Error)
	}
	if result.RowsAffected == 0 {
		return trade.ErrOrderNotFound
	}
	return nil
}

func toDomainOrders(rows []models.OrderModel) []trade.Order {
	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GormSaleRecorder writes a new order and its product's sold status in one transaction
type GormSaleRecorder struct {
	db *gorm.DB
}

// NewGormSaleRecorder creates a new GormSaleRecorder
func NewGormSaleRecorder(db *gorm.DB) *GormSaleRecorder {
	return &GormSaleRecorder{db: db}
}

// RecordSale inserts the order and updates the product status atomically.
// A (channel, channel_order_id) collision rolls back and returns trade.ErrDuplicateChannelOrder.
func (r *GormSaleRecorder) RecordSale(ctx context.Context, order *trade.Order, product *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.OrderModelFromDomain(order)).Error; err != nil {
			if isUniqueViolation(err) {
				return trade.ErrDuplicateChannelOrder
			}
			return storeError("insert order", err)
		}

		result := tx.Model(&models.ProductModel{}).
			Where("id = ?", product.ID).
			Updates(map[string]any{
				"status":     string(product.Status),
				"version":    product.Version,
				"updated_at": product.UpdatedAt,
			})
		if result.Error != nil {
			return storeError("update product status", result.Error)
		}
		if result.RowsAffected == 0 {
			return catalog.ErrProductNotFound
		}
		return nil
	})
}

var (
	_ trade.OrderRepository = (*GormOrderRepository)(nil)
	_ trade.SaleRecorder    = (*GormSaleRecorder)(nil)
)
