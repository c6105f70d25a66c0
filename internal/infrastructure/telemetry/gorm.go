package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormConfig controls database instrumentation
type GormConfig struct {
	Tracing        bool          // register otelgorm spans
	LogFullSQL     bool          // include bound variables in spans
	SlowQueryThres time.Duration // queries slower than this are flagged
	DBName         string
}

// GormPlugin instruments a gorm.DB with spans, a query duration histogram,
// connection pool gauges and slow query flags.
type GormPlugin struct {
	cfg    GormConfig
	meter  metric.Meter
	logger *zap.Logger

	queryDuration metric.Float64Histogram
	slowQueries   metric.Int64Counter
	poolGauge     metric.Int64ObservableGauge
	registration  metric.Registration
}

// NewGormPlugin creates a GormPlugin. Pass it to db.Use.
func NewGormPlugin(cfg GormConfig, meter metric.Meter, logger *zap.Logger) *GormPlugin {
	if cfg.SlowQueryThres <= 0 {
		cfg.SlowQueryThres = 200 * time.Millisecond
	}
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormPlugin{cfg: cfg, meter: meter, logger: logger}
}

// Name implements gorm.Plugin
func (p *GormPlugin) Name() string {
	return "msync:telemetry"
}

// Initialize implements gorm.Plugin
func (p *GormPlugin) Initialize(db *gorm.DB) error {
	if p.cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBName)}
		if !p.cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	var err error
	if p.queryDuration, err = p.meter.Float64Histogram("db_client_query_duration_seconds",
		metric.WithDescription("Database query latency"),
		metric.WithUnit("s")); err != nil {
		return &MetricsError{Metric: "db_client_query_duration_seconds", Err: err}
	}
	if p.slowQueries, err = p.meter.Int64Counter("db_client_slow_queries_total",
		metric.WithDescription("Queries slower than the configured threshold"),
		metric.WithUnit("{query}")); err != nil {
		return &MetricsError{Metric: "db_client_slow_queries_total", Err: err}
	}
	if err := p.observePool(db); err != nil {
		return err
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("msync:before_create", p.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("msync:after_create", p.after("INSERT")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("msync:before_query", p.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("msync:after_query", p.after("SELECT")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("msync:before_update", p.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("msync:after_update", p.after("UPDATE")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("msync:before_delete", p.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("msync:after_delete", p.after("DELETE")); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("msync:before_row", p.before); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("msync:after_row", p.after("")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("msync:before_raw", p.before); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("msync:after_raw", p.after("")); err != nil {
		return err
	}

	p.logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", p.cfg.Tracing),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThres),
	)
	return nil
}

func (p *GormPlugin) observePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if p.poolGauge, err = p.meter.Int64ObservableGauge("db_client_connections",
		metric.WithDescription("Connection pool usage by state"),
		metric.WithUnit("{connection}")); err != nil {
		return &MetricsError{Metric: "db_client_connections", Err: err}
	}
	p.registration, err = p.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(p.poolGauge, int64(stats.InUse), metric.WithAttributes(AttrState.String("in_use")))
		o.ObserveInt64(p.poolGauge, int64(stats.Idle), metric.WithAttributes(AttrState.String("idle")))
		o.ObserveInt64(p.poolGauge, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrState.String("max")))
		return nil
	}, p.poolGauge)
	if err != nil {
		return &MetricsError{Metric: "db_client_connections", Err: err}
	}
	return nil
}

// Close unregisters the pool gauge callback
func (p *GormPlugin) Close() error {
	if p.registration == nil {
		return nil
	}
	return p.registration.Unregister()
}

type queryStartKey struct{}

// Database metric attribute keys
var (
	AttrState     = attribute.Key("state")
	AttrOperation = attribute.Key("operation")
	AttrTable     = attribute.Key("table")
)

func (p *GormPlugin) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (p *GormPlugin) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)

		op := operation
		if op == "" {
			op = detectOperation(db.Statement.SQL.String())
		}
		attrs := metric.WithAttributes(AttrOperation.String(op), AttrTable.String(db.Statement.Table))
		p.queryDuration.Record(ctx, elapsed.Seconds(), attrs)

		span := trace.SpanFromContext(ctx)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			RecordError(span, db.Error)
		}
		if elapsed <= p.cfg.SlowQueryThres {
			return
		}

		p.slowQueries.Add(ctx, 1, attrs)
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		p.logger.Warn("Slow query",
			zap.String("operation", op),
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.String("trace_id", TraceID(ctx)),
		)
	}
}

func detectOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"} {
		if strings.HasPrefix(sql, op) {
			if op == "WITH" {
				return "SELECT"
			}
			return op
		}
	}
	return "OTHER"
}
