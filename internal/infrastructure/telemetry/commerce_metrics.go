package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/marketsync/backend/internal/domain/integration"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metric attribute keys
var (
	AttrChannel = attribute.Key("channel")
	AttrReason  = attribute.Key("reason")
	AttrAction  = attribute.Key("action")
	AttrStatus  = attribute.Key("status")
)

// DelistTaskCounter reports the delist retry queue depth by status
type DelistTaskCounter interface {
	CountByStatus(ctx context.Context) (map[integration.DelistTaskStatus]int64, error)
}

// CommerceMetrics records ingestion and delisting measurements.
// It satisfies the application IngestionMetrics and DelistMetrics ports.
type CommerceMetrics struct {
	ordersIngested  metric.Int64Counter
	ordersDuplicate metric.Int64Counter
	ingestFailures  metric.Int64Counter
	ingestDuration  metric.Float64Histogram
	delistOps       metric.Int64Counter
	delistFailures  metric.Int64Counter
	tasksDead       metric.Int64Counter
	tasksGauge      metric.Int64ObservableGauge

	registration metric.Registration
	logger       *zap.Logger
}

// NewCommerceMetrics creates the commerce instruments on meter. When tasks
// is non-nil the delist queue depth is observed on every collection.
func NewCommerceMetrics(meter metric.Meter, tasks DelistTaskCounter, logger *zap.Logger) (*CommerceMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &CommerceMetrics{logger: logger}

	var err error
	if m.ordersIngested, err = meter.Int64Counter("msync_orders_ingested_total",
		metric.WithDescription("Orders recorded from channel sales"),
		metric.WithUnit("{order}")); err != nil {
		return nil, &MetricsError{Metric: "msync_orders_ingested_total", Err: err}
	}
	if m.ordersDuplicate, err = meter.Int64Counter("msync_orders_duplicate_total",
		metric.WithDescription("Sale notifications for orders already recorded"),
		metric.WithUnit("{order}")); err != nil {
		return nil, &MetricsError{Metric: "msync_orders_duplicate_total", Err: err}
	}
	if m.ingestFailures, err = meter.Int64Counter("msync_ingest_failures_total",
		metric.WithDescription("Sale notifications that could not be recorded"),
		metric.WithUnit("{order}")); err != nil {
		return nil, &MetricsError{Metric: "msync_ingest_failures_total", Err: err}
	}
	if m.ingestDuration, err = meter.Float64Histogram("msync_ingest_duration_seconds",
		metric.WithDescription("Time to record a sale and delist its siblings"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10)); err != nil {
		return nil, &MetricsError{Metric: "msync_ingest_duration_seconds", Err: err}
	}
	if m.delistOps, err = meter.Int64Counter("msync_delist_operations_total",
		metric.WithDescription("Listings taken down on a channel"),
		metric.WithUnit("{listing}")); err != nil {
		return nil, &MetricsError{Metric: "msync_delist_operations_total", Err: err}
	}
	if m.delistFailures, err = meter.Int64Counter("msync_delist_failures_total",
		metric.WithDescription("Delist attempts that failed and were queued for retry"),
		metric.WithUnit("{listing}")); err != nil {
		return nil, &MetricsError{Metric: "msync_delist_failures_total", Err: err}
	}
	if m.tasksDead, err = meter.Int64Counter("msync_delist_tasks_dead_total",
		metric.WithDescription("Delist tasks that exhausted their retries"),
		metric.WithUnit("{task}")); err != nil {
		return nil, &MetricsError{Metric: "msync_delist_tasks_dead_total", Err: err}
	}

	if tasks != nil {
		if m.tasksGauge, err = meter.Int64ObservableGauge("msync_delist_tasks",
			metric.WithDescription("Delist retry tasks by status"),
			metric.WithUnit("{task}")); err != nil {
			return nil, &MetricsError{Metric: "msync_delist_tasks", Err: err}
		}
		m.registration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			counts, err := tasks.CountByStatus(ctx)
			if err != nil {
				m.logger.Warn("Failed to count delist tasks", zap.Error(err))
				return nil
			}
			for status, n := range counts {
				o.ObserveInt64(m.tasksGauge, n, metric.WithAttributes(AttrStatus.String(string(status))))
			}
			return nil
		}, m.tasksGauge)
		if err != nil {
			return nil, &MetricsError{Metric: "msync_delist_tasks", Err: err}
		}
	}

	return m, nil
}

// OrderIngested records a newly stored order
func (m *CommerceMetrics) OrderIngested(ctx context.Context, channel integration.Channel, duration time.Duration) {
	attrs := metric.WithAttributes(AttrChannel.String(string(channel)))
	m.ordersIngested.Add(ctx, 1, attrs)
	m.ingestDuration.Record(ctx, duration.Seconds(), attrs)
}

// OrderDuplicate records a notification for an order already stored
func (m *CommerceMetrics) OrderDuplicate(ctx context.Context, channel integration.Channel) {
	m.ordersDuplicate.Add(ctx, 1, metric.WithAttributes(AttrChannel.String(string(channel))))
}

// IngestFailed records a rejected or failed notification
func (m *CommerceMetrics) IngestFailed(ctx context.Context, channel integration.Channel, reason string) {
	m.ingestFailures.Add(ctx, 1, metric.WithAttributes(
		AttrChannel.String(string(channel)),
		AttrReason.String(reason),
	))
}

// ListingDelisted records a listing taken down on a channel
func (m *CommerceMetrics) ListingDelisted(ctx context.Context, channel integration.Channel, action integration.DelistPolicy) {
	m.delistOps.Add(ctx, 1, metric.WithAttributes(
		AttrChannel.String(string(channel)),
		AttrAction.String(string(action)),
	))
}

// DelistFailed records a delist that was queued for retry
func (m *CommerceMetrics) DelistFailed(ctx context.Context, channel integration.Channel) {
	m.delistFailures.Add(ctx, 1, metric.WithAttributes(AttrChannel.String(string(channel))))
}

// DelistTaskDead records a task that ran out of retries
func (m *CommerceMetrics) DelistTaskDead(ctx context.Context, channel integration.Channel) {
	m.tasksDead.Add(ctx, 1, metric.WithAttributes(AttrChannel.String(string(channel))))
}

// Stop unregisters the queue depth callback
func (m *CommerceMetrics) Stop() {
	if m.registration == nil {
		return
	}
	if err := m.registration.Unregister(); err != nil {
		m.logger.Warn("Failed to unregister delist task gauge", zap.Error(err))
	}
}

// MetricsError reports an instrument that could not be created
type MetricsError struct {
	Metric string
	Err    error
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("failed to create metric %s: %v", e.Metric, e.Err)
}

func (e *MetricsError) Unwrap() error {
	return e.Err
}
