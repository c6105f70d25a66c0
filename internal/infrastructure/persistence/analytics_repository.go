package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/report"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// activeBuyerKey identifies a buyer by email, then username, then name
const activeBuyerKey = "COALESCE(NULLIF(buyer_email, ''), NULLIF(buyer_username, ''), buyer_name)"

// GormAnalyticsRepository implements report.AnalyticsRepository using GORM.
// Queries return raw rows or plain aggregates so they run unchanged on PostgreSQL and SQLite.
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewGormAnalyticsRepository creates a new GormAnalyticsRepository
func NewGormAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

func (r *GormAnalyticsRepository) sellerOrders(ctx context.Context, sellerID uuid.UUID, start, end time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("seller_id = ? AND sold_at >= ? AND sold_at < ?", sellerID, start.UTC(), end.UTC())
}

// OrderTotals sums seller proceeds, counts orders and distinct buyers in [start, end)
func (r *GormAnalyticsRepository) OrderTotals(ctx context.Context, sellerID uuid.UUID, start, end time.Time) (report.OrderTotals, error) {
	var row struct {
		Revenue      decimal.Decimal
		Orders       int64
		ActiveBuyers int64
	}
	if err := r.sellerOrders(ctx, sellerID, start, end).
		Select("COALESCE(SUM(seller_paid), 0) AS revenue, COUNT(*) AS orders, COUNT(DISTINCT " + activeBuyerKey + ") AS active_buyers").
		Scan(&row).Error; err != nil {
		return report.OrderTotals{}, storeError("order totals", err)
	}
	return report.OrderTotals{
		Revenue:      row.Revenue,
		Orders:       row.Orders,
		ActiveBuyers: row.ActiveBuyers,
	}, nil
}

// ListingTotals counts active products created before asOf and sums their prices
func (r *GormAnalyticsRepository) ListingTotals(ctx context.Context, sellerID uuid.UUID, asOf time.Time) (report.ListingTotals, error) {
	var row struct {
		ActiveListings int64
		InventoryValue decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Select("COUNT(*) AS active_listings, COALESCE(SUM(price), 0) AS inventory_value").
		Where("seller_id = ? AND status = ? AND created_at < ?", sellerID, string(catalog.ProductStatusActive), asOf.UTC()).
		Scan(&row).Error; err != nil {
		return report.ListingTotals{}, storeError("listing totals", err)
	}
	return report.ListingTotals{
		ActiveListings: row.ActiveListings,
		InventoryValue: row.InventoryValue,
	}, nil
}

// TurnoverSamples pairs each sale in [start, end) with its product's creation time
func (r *GormAnalyticsRepository) TurnoverSamples(ctx context.Context, sellerID uuid.UUID, start, end time.Time) ([]report.TurnoverSample, error) {
	var rows []struct {
		ListedAt time.Time
		SoldAt   time.Time
	}
	if err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("p.created_at AS listed_at, o.sold_at AS sold_at").
		Joins("JOIN products AS p ON p.id = o.product_id").
		Where("o.seller_id = ? AND o.sold_at >= ? AND o.sold_at < ?", sellerID, start.UTC(), end.UTC()).
		Scan(&rows).Error; err != nil {
		return nil, storeError("turnover samples", err)
	}

	samples := make([]report.TurnoverSample, len(rows))
	for i, row := range rows {
		samples[i] = report.TurnoverSample{ListedAt: row.ListedAt, SoldAt: row.SoldAt}
	}
	return samples, nil
}

// OrderPoints returns the sale time and seller proceeds of every order in [start, end)
func (r *GormAnalyticsRepository) OrderPoints(ctx context.Context, sellerID uuid.UUID, start, end time.Time) ([]report.OrderPoint, error) {
	var rows []struct {
		SoldAt time.Time
		Amount decimal.Decimal
	}
	if err := r.sellerOrders(ctx, sellerID, start, end).
		Select("sold_at, seller_paid AS amount").
		Order("sold_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, storeError("order points", err)
	}

	points := make([]report.OrderPoint, len(rows))
	for i, row := range rows {
		points[i] = report.OrderPoint{SoldAt: row.SoldAt, Amount: row.Amount}
	}
	return points, nil
}

// ListingCreations returns the creation times of products created in [start, end)
func (r *GormAnalyticsRepository) ListingCreations(ctx context.Context, sellerID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	var created []time.Time
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("seller_id = ? AND created_at >= ? AND created_at < ?", sellerID, start.UTC(), end.UTC()).
		Order("created_at ASC").
		Pluck("created_at", &created).Error; err != nil {
		return nil, storeError("listing creations", err)
	}
	return created, nil
}

// ChannelTotals splits seller proceeds and item counts by channel
func (r *GormAnalyticsRepository) ChannelTotals(ctx context.Context, sellerID uuid.UUID, start, end time.Time) ([]report.ChannelTotal, error) {
	var rows []struct {
		Channel string
		Revenue decimal.Decimal
		Items   int64
	}
	if err := r.sellerOrders(ctx, sellerID, start, end).
		Select("channel, COALESCE(SUM(seller_paid), 0) AS revenue, COUNT(*) AS items").
		Group("channel").
		Order("channel ASC").
		Scan(&rows).Error; err != nil {
		return nil, storeError("channel totals", err)
	}

	totals := make([]report.ChannelTotal, len(rows))
	for i, row := range rows {
		totals[i] = report.ChannelTotal{
			Channel: integration.Channel(row.Channel),
			Revenue: row.Revenue,
			Items:   row.Items,
		}
	}
	return totals, nil
}

// EarliestActivity returns the earlier of the first sale and the first product creation
func (r *GormAnalyticsRepository) EarliestActivity(ctx context.Context, sellerID uuid.UUID) (*time.Time, error) {
	var firstSale, firstListing []time.Time
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("seller_id = ?", sellerID).
		Order("sold_at ASC").
		Limit(1).
		Pluck("sold_at", &firstSale).Error; err != nil {
		return nil, storeError("earliest sale", err)
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("seller_id = ?", sellerID).
		Order("created_at ASC").
		Limit(1).
		Pluck("created_at", &firstListing).Error; err != nil {
		return nil, storeError("earliest listing", err)
	}

	var earliest *time.Time
	for _, candidates := range [][]time.Time{firstSale, firstListing} {
		if len(candidates) == 0 {
			continue
		}
		if t := candidates[0]; earliest == nil || t.Before(*earliest) {
			earliest = &t
		}
	}
	return earliest, nil
}

var _ report.AnalyticsRepository = (*GormAnalyticsRepository)(nil)
