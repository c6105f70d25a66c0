package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// MockListingRepository is a mock implementation of integration.ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.MarketplaceListing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MarketplaceListing), args.Error(1)
}

func (m *MockListingRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]integration.MarketplaceListing, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.MarketplaceListing), args.Error(1)
}

func (m *MockListingRepository) FindByChannelAndMarketplaceID(ctx context.Context, channel integration.Channel, marketplaceID string) (*integration.MarketplaceListing, error) {
	args := m.Called(ctx, channel, marketplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MarketplaceListing), args.Error(1)
}

func (m *MockListingRepository) Save(ctx context.Context, listing *integration.MarketplaceListing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockListingRepository) FindStranded(ctx context.Context, soldBefore time.Time, limit int) ([]integration.MarketplaceListing, error) {
	args := m.Called(ctx, soldBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.MarketplaceListing), args.Error(1)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, status ...catalog.ProductStatus) ([]catalog.Product, error) {
	args := m.Called(ctx, sellerID, status)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

// MockDelistTaskRepository is a mock implementation of integration.DelistTaskRepository
type MockDelistTaskRepository struct {
	mock.Mock
}

func (m *MockDelistTaskRepository) Save(ctx context.Context, tasks ...*integration.DelistTask) error {
	return m.Called(ctx, tasks).Error(0)
}

func (m *MockDelistTaskRepository) FindPending(ctx context.Context, limit int) ([]*integration.DelistTask, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*integration.DelistTask), args.Error(1)
}

func (m *MockDelistTaskRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*integration.DelistTask, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]*integration.DelistTask), args.Error(1)
}

func (m *MockDelistTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.DelistTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.DelistTask), args.Error(1)
}

func (m *MockDelistTaskRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*integration.DelistTask, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*integration.DelistTask), args.Error(1)
}

func (m *MockDelistTaskRepository) ReleaseStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	args := m.Called(ctx, claimedBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDelistTaskRepository) Update(ctx context.Context, task *integration.DelistTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockDelistTaskRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDelistTaskRepository) CountByStatus(ctx context.Context) (map[integration.DelistTaskStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[integration.DelistTaskStatus]int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of trade.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByChannelOrderID(ctx context.Context, channel integration.Channel, channelOrderID string) (*trade.Order, error) {
	args := m.Called(ctx, channel, channelOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]trade.Order, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]trade.Order), args.Error(1)
}

func (m *MockOrderRepository) Search(ctx context.Context, filter trade.OrderFilter) ([]trade.Order, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]trade.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

// MockSaleRecorder is a mock implementation of trade.SaleRecorder
type MockSaleRecorder struct {
	mock.Mock
}

func (m *MockSaleRecorder) RecordSale(ctx context.Context, order *trade.Order, product *catalog.Product) error {
	return m.Called(ctx, order, product).Error(0)
}

// MockDelister is a mock implementation of Delister
type MockDelister struct {
	mock.Mock
}

func (m *MockDelister) Delist(ctx context.Context, productID uuid.UUID, soldChannel integration.Channel) (*DelistResult, error) {
	args := m.Called(ctx, productID, soldChannel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DelistResult), args.Error(1)
}

// MockClaimStore is a mock implementation of shared.ClaimStore
type MockClaimStore struct {
	mock.Mock
}

func (m *MockClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockClaimStore) IsClaimed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimStore) Close() error {
	return m.Called().Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

// stubAdapter returns a fixed result for every payload
type stubAdapter struct {
	channel integration.Channel
	data    *integration.CanonicalOrderData
	err     error
}

func (a *stubAdapter) Channel() integration.Channel { return a.channel }

func (a *stubAdapter) Normalize([]byte) (*integration.CanonicalOrderData, error) {
	if a.err != nil {
		return nil, a.err
	}
	copied := *a.data
	return &copied, nil
}

// stubRegistry serves a fixed set of adapters
type stubRegistry map[integration.Channel]integration.ChannelAdapter

func (r stubRegistry) Adapter(channel integration.Channel) (integration.ChannelAdapter, error) {
	if a, ok := r[channel]; ok {
		return a, nil
	}
	return nil, integration.ErrChannelNotSupported
}

func (r stubRegistry) Channels() []integration.Channel {
	out := make([]integration.Channel, 0, len(r))
	for c := range r {
		out = append(out, c)
	}
	return out
}

// recordingMetrics counts metric calls
type recordingMetrics struct {
	mock.Mock
}

func (m *recordingMetrics) OrderIngested(_ context.Context, channel integration.Channel, _ time.Duration) {
	m.MethodCalled("ingested", channel)
}

func (m *recordingMetrics) OrderDuplicate(_ context.Context, channel integration.Channel) {
	m.MethodCalled("duplicate", channel)
}

func (m *recordingMetrics) IngestFailed(_ context.Context, channel integration.Channel, reason string) {
	m.MethodCalled("failed", channel, reason)
}

func (m *recordingMetrics) ListingDelisted(_ context.Context, channel integration.Channel, action integration.DelistPolicy) {
	m.MethodCalled("delisted", channel, action)
}

func (m *recordingMetrics) DelistFailed(_ context.Context, channel integration.Channel) {
	m.MethodCalled("delist_failed", channel)
}

func (m *recordingMetrics) DelistTaskDead(_ context.Context, channel integration.Channel) {
	m.MethodCalled("dead", channel)
}
