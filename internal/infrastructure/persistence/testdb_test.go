package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database with the marketsync schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	statements := []string{
		`CREATE TABLE sellers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE products (
			id TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL,
			title TEXT NOT NULL,
			price NUMERIC NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'draft',
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE marketplace_listings (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			marketplace_id TEXT NOT NULL,
			slug TEXT,
			status TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(product_id, channel),
			UNIQUE(channel, marketplace_id)
		)`,
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			channel_order_id TEXT NOT NULL,
			channel_listing_id TEXT,
			channel_transaction_id TEXT,
			buyer_paid NUMERIC NOT NULL DEFAULT 0,
			seller_paid NUMERIC NOT NULL DEFAULT 0,
			tax_amount NUMERIC NOT NULL DEFAULT 0,
			currency TEXT NOT NULL,
			sold_at DATETIME NOT NULL,
			buyer_name TEXT,
			buyer_email TEXT,
			buyer_username TEXT,
			ship_line1 TEXT,
			ship_line2 TEXT,
			ship_city TEXT,
			ship_state TEXT,
			ship_postal_code TEXT,
			ship_country TEXT,
			shipping_status TEXT NOT NULL DEFAULT 'pending',
			shipping_method TEXT,
			carrier TEXT,
			tracking_number TEXT,
			shipped_at DATETIME,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(channel, channel_order_id)
		)`,
		`CREATE TABLE delist_tasks (
			id TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			action TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			retry_count INTEGER NOT NULL DEFAULT 0,
			max_retries INTEGER NOT NULL DEFAULT 5,
			last_error TEXT,
			next_retry_at DATETIME,
			processed_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}
