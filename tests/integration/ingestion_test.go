//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	integrationapp "github.com/marketsync/backend/internal/application/integration"
	reportapp "github.com/marketsync/backend/internal/application/report"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/report"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/marketsync/backend/internal/infrastructure/cache"
	"github.com/marketsync/backend/internal/infrastructure/ecommerce"
	"github.com/marketsync/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain runs before any tests and handles cleanup
func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

type stack struct {
	orders    *persistence.GormOrderRepository
	listings  *persistence.GormListingRepository
	products  *persistence.GormProductRepository
	tasks     *persistence.GormDelistTaskRepository
	ingestion *integrationapp.OrderIngestionService
}

func newStack(tdb *TestDB, opts ...integrationapp.IngestionOption) *stack {
	s := &stack{
		orders:   persistence.NewGormOrderRepository(tdb.DB),
		listings: persistence.NewGormListingRepository(tdb.DB),
		products: persistence.NewGormProductRepository(tdb.DB),
		tasks:    persistence.NewGormDelistTaskRepository(tdb.DB),
	}
	coordinator := integrationapp.NewDelistingCoordinator(s.listings, s.products, s.tasks)
	s.ingestion = integrationapp.NewOrderIngestionService(
		ecommerce.NewDefaultRegistry(),
		s.orders, s.listings, s.products,
		persistence.NewGormSaleRecorder(tdb.DB),
		coordinator,
		opts...,
	)
	return s
}

func etsyReceipt(receiptID int64, listingID string, cents int64, soldAt time.Time) []byte {
	return fmt.Appendf(nil, `{
		"receipt_id": %d,
		"status": "paid",
		"buyer_email": "ada@example.com",
		"name": "Ada Lovelace",
		"country_iso": "GB",
		"create_timestamp": %d,
		"grandtotal": {"amount": %d, "divisor": 100, "currency_code": "USD"},
		"transactions": [{"transaction_id": 44, "listing_id": %s, "quantity": 1}]
	}`, receiptID, soldAt.Unix(), cents, listingID)
}

func depopSale(orderID, productID string, pence int64, soldAt time.Time) []byte {
	return fmt.Appendf(nil, `{
		"id": %q,
		"product_id": %q,
		"sold_at": %q,
		"currency": "USD",
		"total_amount": %d,
		"fees": {"marketplace_fee": 100},
		"buyer": {"username": "thrift_queen", "email": "mary@example.com"}
	}`, orderID, productID, soldAt.UTC().Format(time.RFC3339), pence)
}

func TestOrderIngestion_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	s := newStack(tdb)
	ctx := context.Background()

	sellerID := tdb.CreateTestSeller("Thrift Corner")

	t.Run("sale marks product sold and removes sibling listings", func(t *testing.T) {
		product := tdb.CreateTestProduct(sellerID, "Denim jacket", "50.00")
		tdb.CreateTestListing(product.ID, integration.ChannelEtsy, "1550001")
		tdb.CreateTestListing(product.ID, integration.ChannelEbay, "EB-1")
		tdb.CreateTestListing(product.ID, integration.ChannelDepop, "dp-1")

		result, err := s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{
			Channel: "etsy",
			Payload: etsyReceipt(3012345678, "1550001", 5000, time.Now().Add(-time.Hour)),
		})
		require.NoError(t, err)
		assert.False(t, result.Duplicate)
		assert.False(t, result.PartialFailure)
		require.NotNil(t, result.Delist)
		assert.Len(t, result.Delist.Listings, 2)
		assert.True(t, result.Delist.ChannelLess)

		stored, err := s.orders.FindByChannelOrderID(ctx, integration.ChannelEtsy, "3012345678")
		require.NoError(t, err)
		assert.Equal(t, result.Order.ID, stored.ID)
		assert.Equal(t, product.ID, stored.ProductID)
		assert.Equal(t, sellerID, stored.SellerID)
		assert.Equal(t, "50", stored.SellerPaid.String())

		p, err := s.products.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, catalog.ProductStatusSold, p.Status)

		remaining, err := s.listings.FindByProductID(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, integration.ChannelEtsy, remaining[0].Channel)
	})

	t.Run("soft delist keeps the etsy row inactive", func(t *testing.T) {
		product := tdb.CreateTestProduct(sellerID, "Wool scarf", "28.50")
		etsy := tdb.CreateTestListing(product.ID, integration.ChannelEtsy, "1550002")
		tdb.CreateTestListing(product.ID, integration.ChannelDepop, "dp-2")

		_, err := s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{
			Channel: "depop",
			Payload: depopSale("dp-ord-2", "dp-2", 2850, time.Now().Add(-time.Hour)),
		})
		require.NoError(t, err)

		l, err := s.listings.FindByID(ctx, etsy.ID)
		require.NoError(t, err)
		require.NotNil(t, l.Status)
		assert.Equal(t, integration.ListingStatusInactive, *l.Status)
	})

	t.Run("redelivery returns the stored order", func(t *testing.T) {
		product := tdb.CreateTestProduct(sellerID, "Leather boots", "80.00")
		tdb.CreateTestListing(product.ID, integration.ChannelEtsy, "1550003")
		payload := etsyReceipt(3012345679, "1550003", 8000, time.Now().Add(-time.Hour))

		first, err := s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{Channel: "etsy", Payload: payload})
		require.NoError(t, err)
		second, err := s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{Channel: "etsy", Payload: payload})
		require.NoError(t, err)

		assert.True(t, second.Duplicate)
		assert.Equal(t, first.Order.ID, second.Order.ID)

		orders, err := s.orders.FindByProductID(ctx, product.ID)
		require.NoError(t, err)
		assert.Len(t, orders, 1)
	})

	t.Run("unknown listing writes nothing", func(t *testing.T) {
		_, err := s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{
			Channel: "etsy",
			Payload: etsyReceipt(3012345680, "9999999", 1000, time.Now().Add(-time.Hour)),
		})
		require.ErrorIs(t, err, catalog.ErrProductNotFound)

		_, err = s.orders.FindByChannelOrderID(ctx, integration.ChannelEtsy, "3012345680")
		assert.ErrorIs(t, err, trade.ErrOrderNotFound)
	})
}

// Concurrent deliveries of one sale race on the order table's unique key.
// Exactly one wins and the rest come back as duplicates of it.
func TestOrderIngestion_ConcurrentDuplicates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	s := newStack(tdb)
	ctx := context.Background()

	sellerID := tdb.CreateTestSeller("Race Seller")
	product := tdb.CreateTestProduct(sellerID, "Silk shirt", "35.00")
	tdb.CreateTestListing(product.ID, integration.ChannelEtsy, "1660001")
	payload := etsyReceipt(4000000001, "1660001", 3500, time.Now().Add(-time.Hour))

	const deliveries = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*integrationapp.IngestResult
		errs    []error
	)
	start := make(chan struct{})
	for range deliveries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			r, err := s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{Channel: "etsy", Payload: payload})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, r)
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, results, deliveries)

	created := 0
	ids := map[uuid.UUID]struct{}{}
	for _, r := range results {
		if !r.Duplicate {
			created++
		}
		ids[r.Order.ID] = struct{}{}
	}
	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)

	var count int64
	require.NoError(t, tdb.DB.Table("orders").Where("channel_order_id = ?", "4000000001").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// With a claim store in front, overlapping deliveries either win, see the
// stored order, or are told the sale is in flight. Never two orders.
func TestOrderIngestion_ConcurrentWithClaims(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	s := newStack(tdb, integrationapp.WithClaimStore(cache.NewInMemoryClaimStore(), time.Minute))
	ctx := context.Background()

	sellerID := tdb.CreateTestSeller("Claim Seller")
	product := tdb.CreateTestProduct(sellerID, "Corduroy trousers", "42.00")
	tdb.CreateTestListing(product.ID, integration.ChannelEtsy, "1770001")
	payload := etsyReceipt(5000000001, "1770001", 4200, time.Now().Add(-time.Hour))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var created, duplicates, inProgress int
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{Channel: "etsy", Payload: payload})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				assert.ErrorIs(t, err, trade.ErrIngestionInProgress)
				inProgress++
			case r.Duplicate:
				duplicates++
			default:
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 6, created+duplicates+inProgress)

	var count int64
	require.NoError(t, tdb.DB.Table("orders").Where("channel_order_id = ?", "5000000001").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAnalytics_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	s := newStack(tdb)
	ctx := context.Background()

	sellerID := tdb.CreateTestSeller("Analytics Seller")
	a := tdb.CreateTestProduct(sellerID, "Denim jacket", "50.00")
	tdb.CreateTestListing(a.ID, integration.ChannelEtsy, "1880001")
	b := tdb.CreateTestProduct(sellerID, "Wool scarf", "30.00")
	tdb.CreateTestListing(b.ID, integration.ChannelDepop, "dp-88")
	tdb.CreateTestProduct(sellerID, "Unsold hat", "20.00")

	soldAt := time.Now().Add(-48 * time.Hour)
	_, err := s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{
		Channel: "etsy", Payload: etsyReceipt(6000000001, "1880001", 5000, soldAt),
	})
	require.NoError(t, err)
	_, err = s.ingestion.IngestOrder(ctx, integrationapp.IngestOrderInput{
		Channel: "depop", Payload: depopSale("dp-ord-88", "dp-88", 3000, soldAt),
	})
	require.NoError(t, err)

	svc := reportapp.NewAnalyticsService(
		persistence.NewGormAnalyticsRepository(tdb.DB),
		persistence.NewGormSellerRepository(tdb.DB),
	)
	overview, err := svc.Overview(ctx, sellerID, report.TimeFrameLast7Days, report.MetricRevenue)
	require.NoError(t, err)

	assert.False(t, overview.Degraded)
	assert.Equal(t, int64(2), overview.Summary.TotalOrders)
	// etsy pays out in full, depop takes its fee
	assert.Equal(t, "79", overview.Summary.TotalRevenue.String())
	assert.Equal(t, "50", overview.Channels[integration.ChannelEtsy].Revenue.String())
	assert.Equal(t, int64(1), overview.Channels[integration.ChannelDepop].ItemCount)
	assert.Equal(t, int64(0), overview.Channels[integration.ChannelEbay].ItemCount)

	_, err = svc.Overview(ctx, uuid.New(), report.TimeFrameLast7Days, report.MetricRevenue)
	assert.ErrorIs(t, err, catalog.ErrSellerNotFound)
}
