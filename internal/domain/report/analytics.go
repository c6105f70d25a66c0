package report

import (
	"time"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Metric selects the primary metric of an analytics request
type Metric string

const (
	MetricRevenue  Metric = "revenue"
	MetricOrders   Metric = "orders"
	MetricListings Metric = "listings"
)

// IsValid checks if the metric is a known value
func (m Metric) IsValid() bool {
	switch m {
	case MetricRevenue, MetricOrders, MetricListings:
		return true
	}
	return false
}

var ErrInvalidMetric = shared.ErrValidation.Refine("INVALID_METRIC", "Invalid analytics metric")

// Summary holds the window-level aggregates for one seller
type Summary struct {
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	TotalOrders           int64           `json:"total_orders"`
	ActiveBuyers          int64           `json:"active_buyers"`
	ActiveListings        int64           `json:"active_listings"`
	AverageSalePrice      decimal.Decimal `json:"average_sale_price"`
	AverageInventoryValue decimal.Decimal `json:"average_inventory_value"`
	TotalInventoryValue   decimal.Decimal `json:"total_inventory_value"`
	AverageTurnoverDays   decimal.Decimal `json:"average_turnover_days"`
}

// ZeroSummary returns a summary with every decimal set to zero
func ZeroSummary() Summary {
	return Summary{
		TotalRevenue:          decimal.Zero,
		AverageSalePrice:      decimal.Zero,
		AverageInventoryValue: decimal.Zero,
		TotalInventoryValue:   decimal.Zero,
		AverageTurnoverDays:   decimal.Zero,
	}
}

// Changes holds the formatted percentage delta per summary metric
type Changes struct {
	Revenue          string `json:"revenue"`
	Orders           string `json:"orders"`
	ActiveBuyers     string `json:"active_buyers"`
	ActiveListings   string `json:"active_listings"`
	AverageSalePrice string `json:"average_sale_price"`
	InventoryValue   string `json:"inventory_value"`
	TurnoverDays     string `json:"turnover_days"`
}

// CompareSummaries formats the delta of every metric from previous to current
func CompareSummaries(previous, current Summary) Changes {
	return Changes{
		Revenue:          FormatDelta(previous.TotalRevenue, current.TotalRevenue),
		Orders:           FormatCountDelta(previous.TotalOrders, current.TotalOrders),
		ActiveBuyers:     FormatCountDelta(previous.ActiveBuyers, current.ActiveBuyers),
		ActiveListings:   FormatCountDelta(previous.ActiveListings, current.ActiveListings),
		AverageSalePrice: FormatDelta(previous.AverageSalePrice, current.AverageSalePrice),
		InventoryValue:   FormatDelta(previous.TotalInventoryValue, current.TotalInventoryValue),
		TurnoverDays:     FormatDelta(previous.AverageTurnoverDays, current.AverageTurnoverDays),
	}
}

// ChannelStats is the per-channel split of a window
type ChannelStats struct {
	Revenue      decimal.Decimal `json:"revenue"`
	ItemCount    int64           `json:"item_count"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

// Overview is the full analytics response for one seller and window
type Overview struct {
	SellerID    string                               `json:"seller_id"`
	TimeFrame   TimeFrame                            `json:"time_frame"`
	Metric      Metric                               `json:"metric"`
	Granularity Granularity                          `json:"granularity"`
	StartDate   time.Time                            `json:"start_date"`
	EndDate     time.Time                            `json:"end_date"`
	Summary     Summary                              `json:"summary"`
	Changes     *Changes                             `json:"changes,omitempty"`
	Series      []SeriesPoint                        `json:"series"`
	Channels    map[integration.Channel]ChannelStats `json:"channels"`
	// Degraded is set when part of the data could not be loaded
	Degraded bool `json:"degraded,omitempty"`
}

// MetricValue is one bucket of a single-metric series
type MetricValue struct {
	Bucket time.Time       `json:"bucket"`
	Value  decimal.Decimal `json:"value"`
}

// MetricReport is the analytics response for a single metric
type MetricReport struct {
	TimeFrame   TimeFrame       `json:"time_frame"`
	Metric      Metric          `json:"metric"`
	Granularity Granularity     `json:"granularity"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Total       decimal.Decimal `json:"total"`
	Change      string          `json:"change,omitempty"`
	Series      []MetricValue   `json:"series"`
	Degraded    bool            `json:"degraded,omitempty"`
}

// Project extracts a single metric from a merged series
func Project(series []SeriesPoint, m Metric) []MetricValue {
	out := make([]MetricValue, len(series))
	for i, p := range series {
		v := p.Revenue
		switch m {
		case MetricOrders:
			v = decimal.NewFromInt(p.Orders)
		case MetricListings:
			v = decimal.NewFromInt(p.Listings)
		}
		out[i] = MetricValue{Bucket: p.Bucket, Value: v}
	}
	return out
}
