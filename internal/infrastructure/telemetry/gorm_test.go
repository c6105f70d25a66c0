package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type channelRow struct {
	ID   int
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Exec("CREATE TABLE channel_rows (id INTEGER PRIMARY KEY, name TEXT)").Error)
	return db
}

func TestGormPlugin_RecordsQueries(t *testing.T) {
	reader, provider := newTestMeter(t)
	db := openTestDB(t)
	plugin := NewGormPlugin(GormConfig{}, provider.Meter("test"), nil)
	require.NoError(t, db.Use(plugin))
	defer plugin.Close()

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&channelRow{ID: 1, Name: "etsy"}).Error)
	var rows []channelRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)

	metrics := collect(t, reader)
	hist, ok := metrics["db_client_query_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	ops := map[string]uint64{}
	for _, dp := range hist.DataPoints {
		op, _ := dp.Attributes.Value(AttrOperation)
		ops[op.AsString()] += dp.Count
	}
	assert.Equal(t, uint64(1), ops["INSERT"])
	assert.Equal(t, uint64(1), ops["SELECT"])

	pool, ok := metrics["db_client_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, pool.DataPoints, 3)
}

func TestGormPlugin_SlowQuery(t *testing.T) {
	reader, provider := newTestMeter(t)
	core, logs := observer.New(zap.WarnLevel)
	db := openTestDB(t)
	plugin := NewGormPlugin(GormConfig{SlowQueryThres: 1}, provider.Meter("test"), zap.New(core))
	require.NoError(t, db.Use(plugin))

	var n int64
	require.NoError(t, db.Raw("SELECT count(*) FROM channel_rows").Scan(&n).Error)

	assert.GreaterOrEqual(t, logs.FilterMessage("Slow query").Len(), 1)
	slow, ok := collect(t, reader)["db_client_slow_queries_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range slow.DataPoints {
		total += dp.Value
	}
	assert.Positive(t, total)
}

func TestNewGormPlugin_Defaults(t *testing.T) {
	_, provider := newTestMeter(t)
	p := NewGormPlugin(GormConfig{}, provider.Meter("test"), nil)

	assert.Equal(t, "postgresql", p.cfg.DBName)
	assert.Equal(t, "msync:telemetry", p.Name())
	assert.NoError(t, p.Close())
}

func TestDetectOperation(t *testing.T) {
	tests := [][2]string{
		{"select 1", "SELECT"},
		{"  INSERT INTO orders VALUES (1)", "INSERT"},
		{"update listings set status = 'x'", "UPDATE"},
		{"DELETE FROM delist_tasks", "DELETE"},
		{"WITH days AS (SELECT 1) SELECT * FROM days", "SELECT"},
		{"VACUUM", "OTHER"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc[1], detectOperation(tc[0]), tc[0])
	}
}
