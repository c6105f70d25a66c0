package report

import (
	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/report"
	"github.com/marketsync/backend/internal/domain/shared"
)

// Defaults applied when a query leaves the field empty
const (
	DefaultTimeFrame = report.TimeFrameLast30Days
	DefaultMetric    = report.MetricRevenue
)

// AnalyticsQuery is the query string of the analytics endpoints
type AnalyticsQuery struct {
	SellerID  string `form:"seller_id" binding:"required,uuid"`
	TimeFrame string `form:"time_frame" binding:"omitempty,oneof=today yesterday last7days last30days thisMonth thisYear lastYear allTime"`
	Metric    string `form:"metric" binding:"omitempty,oneof=revenue orders listings"`
}

// Seller returns the parsed seller id
func (q AnalyticsQuery) Seller() (uuid.UUID, error) {
	id, err := uuid.Parse(q.SellerID)
	if err != nil {
		return uuid.Nil, shared.NewValidationError("seller_id must be a UUID")
	}
	return id, nil
}

// Resolve returns the typed time frame and metric with defaults applied
func (q AnalyticsQuery) Resolve() (report.TimeFrame, report.Metric) {
	tf := report.TimeFrame(q.TimeFrame)
	if tf == "" {
		tf = DefaultTimeFrame
	}
	m := report.Metric(q.Metric)
	if m == "" {
		m = DefaultMetric
	}
	return tf, m
}
