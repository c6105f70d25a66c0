package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// OrderTotals are the order aggregates of a window
type OrderTotals struct {
	Revenue      decimal.Decimal
	Orders       int64
	ActiveBuyers int64
}

// ListingTotals are the active-inventory aggregates as of a point in time
type ListingTotals struct {
	ActiveListings int64
	InventoryValue decimal.Decimal
}

// TurnoverSample pairs a sale with the creation time of its product
type TurnoverSample struct {
	ListedAt time.Time
	SoldAt   time.Time
}

// ChannelTotal is one row of the per-channel split
type ChannelTotal struct {
	Channel integration.Channel
	Revenue decimal.Decimal
	Items   int64
}

// AnalyticsRepository reads raw analytics rows for one seller.
// Ranges are [start, end). Bucketing happens in Go, not in SQL.
type AnalyticsRepository interface {
	OrderTotals(ctx context.Context, sellerID uuid.UUID, start, end time.Time) (OrderTotals, error)
	ListingTotals(ctx context.Context, sellerID uuid.UUID, asOf time.Time) (ListingTotals, error)
	TurnoverSamples(ctx context.Context, sellerID uuid.UUID, start, end time.Time) ([]TurnoverSample, error)
	OrderPoints(ctx context.Context, sellerID uuid.UUID, start, end time.Time) ([]OrderPoint, error)
	ListingCreations(ctx context.Context, sellerID uuid.UUID, start, end time.Time) ([]time.Time, error)
	ChannelTotals(ctx context.Context, sellerID uuid.UUID, start, end time.Time) ([]ChannelTotal, error)
	// EarliestActivity returns the first order or product creation time, nil if none
	EarliestActivity(ctx context.Context, sellerID uuid.UUID) (*time.Time, error)
}

// AverageTurnoverDays returns the mean listed-to-sold duration in days
func AverageTurnoverDays(samples []TurnoverSample) decimal.Decimal {
	if len(samples) == 0 {
		return decimal.Zero
	}
	var total time.Duration
	for _, s := range samples {
		if d := s.SoldAt.Sub(s.ListedAt); d > 0 {
			total += d
		}
	}
	days := decimal.NewFromFloat(total.Hours()).Div(decimal.NewFromInt(24))
	return days.Div(decimal.NewFromInt(int64(len(samples)))).Round(2)
}
