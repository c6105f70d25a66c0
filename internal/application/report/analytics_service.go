package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalyticsService builds seller dashboards from the order and product stores.
// Read failures never reach the caller: the affected part of the response is
// zero-filled and the response is flagged Degraded.
type AnalyticsService struct {
	repo         report.AnalyticsRepository
	sellerRepo   catalog.SellerRepository
	location     *time.Location
	queryTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// AnalyticsOption configures an AnalyticsService
type AnalyticsOption func(*AnalyticsService)

// WithLocation sets the timezone buckets are cut in
func WithLocation(loc *time.Location) AnalyticsOption {
	return func(s *AnalyticsService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithQueryTimeout bounds the queries of one request
func WithQueryTimeout(d time.Duration) AnalyticsOption {
	return func(s *AnalyticsService) {
		s.queryTimeout = d
	}
}

// WithAnalyticsLogger sets the logger
func WithAnalyticsLogger(logger *zap.Logger) AnalyticsOption {
	return func(s *AnalyticsService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAnalyticsClock overrides the clock used to resolve time frames
func WithAnalyticsClock(now func() time.Time) AnalyticsOption {
	return func(s *AnalyticsService) {
		s.now = now
	}
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(repo report.AnalyticsRepository, sellerRepo catalog.SellerRepository, opts ...AnalyticsOption) *AnalyticsService {
	s := &AnalyticsService{
		repo:       repo,
		sellerRepo: sellerRepo,
		location:   time.UTC,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// query indexes the reads of one overview
const (
	qOrderTotals = iota
	qListingTotals
	qTurnover
	qOrderPoints
	qListingCreations
	qChannels
	qPrevOrderTotals
	qPrevListingTotals
	qPrevTurnover
	queryCount
)

var queryNames = [queryCount]string{
	"order_totals", "listing_totals", "turnover", "order_points", "listing_creations",
	"channel_totals", "prev_order_totals", "prev_listing_totals", "prev_turnover",
}

type overviewReads struct {
	orders     report.OrderTotals
	listings   report.ListingTotals
	turnover   []report.TurnoverSample
	points     []report.OrderPoint
	creations  []time.Time
	channels   []report.ChannelTotal
	prevOrders report.OrderTotals
	prevList   report.ListingTotals
	prevTurn   []report.TurnoverSample
	errs       [queryCount]error
}

func (r *overviewReads) failed(ids ...int) bool {
	for _, i := range ids {
		if r.errs[i] != nil {
			return true
		}
	}
	return false
}

// Overview returns the summary, comparison deltas, gap-filled series and
// per-channel split of one seller for a time frame. metric names the primary
// metric of the dashboard; every metric is always present.
func (s *AnalyticsService) Overview(ctx context.Context, sellerID uuid.UUID, tf report.TimeFrame, metric report.Metric) (*report.Overview, error) {
	w, err := s.prepare(ctx, sellerID, tf, metric)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	prev, hasPrev := w.Comparison()
	reads := &overviewReads{}
	s.loadOverview(ctx, sellerID, w, prev, hasPrev, reads)

	out := &report.Overview{
		SellerID:    sellerID.String(),
		TimeFrame:   tf,
		Metric:      metric,
		Granularity: w.Granularity,
		StartDate:   w.Start,
		EndDate:     w.End,
		Summary:     report.ZeroSummary(),
		Channels:    zeroChannels(),
	}

	if !reads.failed(qOrderTotals, qListingTotals, qTurnover) {
		out.Summary = buildSummary(reads.orders, reads.listings, reads.turnover)
	} else {
		out.Degraded = true
	}

	if !reads.failed(qOrderPoints, qListingCreations) {
		out.Series = report.FillSeries(w, reads.points, reads.creations)
	} else {
		out.Series = report.ZeroSeries(w)
		out.Degraded = true
	}

	if !reads.failed(qChannels) {
		for _, c := range reads.channels {
			out.Channels[c.Channel] = channelStats(c)
		}
	} else {
		out.Degraded = true
	}

	if hasPrev {
		if !reads.failed(qOrderTotals, qListingTotals, qTurnover, qPrevOrderTotals, qPrevListingTotals, qPrevTurnover) {
			previous := buildSummary(reads.prevOrders, reads.prevList, reads.prevTurn)
			changes := report.CompareSummaries(previous, out.Summary)
			out.Changes = &changes
		} else {
			out.Degraded = true
		}
	}

	if out.Degraded {
		failures := make(map[string]error)
		for i, err := range reads.errs {
			if err != nil {
				failures[queryNames[i]] = err
			}
		}
		s.logDegraded(sellerID, tf, failures)
	}
	return out, nil
}

func (s *AnalyticsService) loadOverview(ctx context.Context, sellerID uuid.UUID, w, prev report.Window, hasPrev bool, r *overviewReads) {
	var g errgroup.Group
	run := func(i int, fn func() error) {
		g.Go(func() error {
			r.errs[i] = fn()
			return nil
		})
	}

	run(qOrderTotals, func() (err error) {
		r.orders, err = s.repo.OrderTotals(ctx, sellerID, w.Start, w.End)
		return err
	})
	run(qListingTotals, func() (err error) {
		r.listings, err = s.repo.ListingTotals(ctx, sellerID, w.End)
		return err
	})
	run(qTurnover, func() (err error) {
		r.turnover, err = s.repo.TurnoverSamples(ctx, sellerID, w.Start, w.End)
		return err
	})
	run(qOrderPoints, func() (err error) {
		r.points, err = s.repo.OrderPoints(ctx, sellerID, w.Start, w.End)
		return err
	})
	run(qListingCreations, func() (err error) {
		r.creations, err = s.repo.ListingCreations(ctx, sellerID, w.Start, w.End)
		return err
	})
	run(qChannels, func() (err error) {
		r.channels, err = s.repo.ChannelTotals(ctx, sellerID, w.Start, w.End)
		return err
	})
	if hasPrev {
		run(qPrevOrderTotals, func() (err error) {
			r.prevOrders, err = s.repo.OrderTotals(ctx, sellerID, prev.Start, prev.End)
			return err
		})
		run(qPrevListingTotals, func() (err error) {
			r.prevList, err = s.repo.ListingTotals(ctx, sellerID, prev.End)
			return err
		})
		run(qPrevTurnover, func() (err error) {
			r.prevTurn, err = s.repo.TurnoverSamples(ctx, sellerID, prev.Start, prev.End)
			return err
		})
	}
	_ = g.Wait()
}

// MetricSeries returns the gap-filled series of a single metric with its
// window total and the delta against the comparison window.
func (s *AnalyticsService) MetricSeries(ctx context.Context, sellerID uuid.UUID, tf report.TimeFrame, metric report.Metric) (*report.MetricReport, error) {
	w, err := s.prepare(ctx, sellerID, tf, metric)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out := &report.MetricReport{
		TimeFrame:   tf,
		Metric:      metric,
		Granularity: w.Granularity,
		StartDate:   w.Start,
		EndDate:     w.End,
	}

	prev, hasPrev := w.Comparison()
	var (
		g               errgroup.Group
		series          []report.SeriesPoint
		prevTotal       decimal.Decimal
		curErr, prevErr error
	)
	g.Go(func() error {
		series, curErr = s.metricSeries(ctx, sellerID, w, metric)
		return nil
	})
	if hasPrev {
		g.Go(func() error {
			var prevSeries []report.SeriesPoint
			prevSeries, prevErr = s.metricSeries(ctx, sellerID, prev, metric)
			prevTotal = sum(report.Project(prevSeries, metric))
			return nil
		})
	}
	_ = g.Wait()

	if curErr != nil {
		series = report.ZeroSeries(w)
		out.Degraded = true
	}
	out.Series = report.Project(series, metric)
	out.Total = sum(out.Series)

	if hasPrev {
		if prevErr == nil && curErr == nil {
			out.Change = report.FormatDelta(prevTotal, out.Total)
		} else {
			out.Degraded = true
		}
	}

	if out.Degraded {
		s.logDegraded(sellerID, tf, map[string]error{"current": curErr, "comparison": prevErr})
	}
	return out, nil
}

// metricSeries reads only the rows the metric needs
func (s *AnalyticsService) metricSeries(ctx context.Context, sellerID uuid.UUID, w report.Window, metric report.Metric) ([]report.SeriesPoint, error) {
	if metric == report.MetricListings {
		creations, err := s.repo.ListingCreations(ctx, sellerID, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		return report.FillSeries(w, nil, creations), nil
	}
	points, err := s.repo.OrderPoints(ctx, sellerID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	return report.FillSeries(w, points, nil), nil
}

// prepare validates the request, checks the seller and resolves the window
func (s *AnalyticsService) prepare(ctx context.Context, sellerID uuid.UUID, tf report.TimeFrame, metric report.Metric) (report.Window, error) {
	if !tf.IsValid() {
		return report.Window{}, report.ErrInvalidTimeFrame
	}
	if !metric.IsValid() {
		return report.Window{}, report.ErrInvalidMetric
	}
	if _, err := s.sellerRepo.FindByID(ctx, sellerID); err != nil {
		return report.Window{}, err
	}

	var allTimeStart time.Time
	if tf == report.TimeFrameAllTime {
		earliest, err := s.repo.EarliestActivity(ctx, sellerID)
		if err != nil {
			s.logger.Warn("Earliest activity unavailable, using the last twelve months",
				zap.String("seller_id", sellerID.String()),
				zap.Error(err),
			)
		} else if earliest != nil {
			allTimeStart = *earliest
		}
	}
	return report.ResolveTimeFrame(tf, s.now(), s.location, allTimeStart)
}

func (s *AnalyticsService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *AnalyticsService) logDegraded(sellerID uuid.UUID, tf report.TimeFrame, failures map[string]error) {
	fields := []zap.Field{
		zap.String("seller_id", sellerID.String()),
		zap.String("time_frame", string(tf)),
	}
	for name, err := range failures {
		if err != nil {
			fields = append(fields, zap.NamedError(name, err))
		}
	}
	s.logger.Warn("Analytics served with zero-filled data", fields...)
}

func buildSummary(orders report.OrderTotals, listings report.ListingTotals, turnover []report.TurnoverSample) report.Summary {
	summary := report.ZeroSummary()
	summary.TotalRevenue = orders.Revenue
	summary.TotalOrders = orders.Orders
	summary.ActiveBuyers = orders.ActiveBuyers
	summary.ActiveListings = listings.ActiveListings
	summary.TotalInventoryValue = listings.InventoryValue
	summary.AverageTurnoverDays = report.AverageTurnoverDays(turnover)
	if orders.Orders > 0 {
		summary.AverageSalePrice = orders.Revenue.Div(decimal.NewFromInt(orders.Orders)).Round(2)
	}
	if listings.ActiveListings > 0 {
		summary.AverageInventoryValue = listings.InventoryValue.Div(decimal.NewFromInt(listings.ActiveListings)).Round(2)
	}
	return summary
}

func channelStats(c report.ChannelTotal) report.ChannelStats {
	stats := report.ChannelStats{Revenue: c.Revenue, ItemCount: c.Items, AveragePrice: decimal.Zero}
	if c.Items > 0 {
		stats.AveragePrice = c.Revenue.Div(decimal.NewFromInt(c.Items)).Round(2)
	}
	return stats
}

func zeroChannels() map[integration.Channel]report.ChannelStats {
	out := make(map[integration.Channel]report.ChannelStats, len(integration.AllChannels()))
	for _, c := range integration.AllChannels() {
		out[c] = report.ChannelStats{Revenue: decimal.Zero, AveragePrice: decimal.Zero}
	}
	return out
}

func sum(values []report.MetricValue) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.Value)
	}
	return total
}
