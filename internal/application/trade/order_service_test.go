package trade

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]trade.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

func newTestOrder(t *testing.T) *trade.Order {
	t.Helper()
	order, err := trade.NewOrderFromCanonical(&integration.CanonicalOrderData{
		Channel:        integration.ChannelDepop,
		ChannelOrderID: "DP-77",
		BuyerPaid:      decimal.NewFromInt(40),
		SellerPaid:     decimal.RequireFromString("34.40"),
		Currency:       "GBP",
		SoldAt:         time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Buyer:          integration.BuyerInfo{Username: "thrift_queen"},
	}, uuid.New(), uuid.New())
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

func strPtr(s string) *string { return &s }

func TestOrderService_GetOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the order", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		order := newTestOrder(t)
		repo.On("FindByID", ctx, order.ID).Return(order, nil)

		resp, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, resp.ID)
		assert.Equal(t, "Depop", resp.ChannelName)
		assert.Equal(t, "DP-77", resp.ChannelOrderID)
	})

	t.Run("missing order", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, trade.ErrOrderNotFound)

		_, err := svc.GetOrder(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrderService_SearchOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("maps the filter and returns the page", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		sellerID := uuid.New()
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)
		order := newTestOrder(t)

		repo.On("Search", ctx, mock.MatchedBy(func(f trade.OrderFilter) bool {
			return *f.SellerID == sellerID &&
				f.Channel == integration.ChannelDepop &&
				f.ShippingStatus == trade.ShippingStatusPending &&
				f.SoldFrom.Equal(from) && f.SoldTo.Equal(to) &&
				f.Search == "thrift" && f.Page == 2 && f.PageSize == 10
		})).Return([]trade.Order{*order}, int64(11), nil)

		items, total, err := svc.SearchOrders(ctx, OrderListFilter{
			SellerID:       sellerID.String(),
			Channel:        "depop",
			ShippingStatus: "pending",
			StartDate:      &from,
			EndDate:        &to,
			Search:         "thrift",
			Page:           2,
			PageSize:       10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(11), total)
		require.Len(t, items, 1)
		assert.Equal(t, order.ID, items[0].ID)
	})

	t.Run("rejects an inverted date range", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, -1)

		_, _, err := svc.SearchOrders(ctx, OrderListFilter{StartDate: &from, EndDate: &to})
		assert.True(t, shared.IsValidation(err))
		repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown channel", func(t *testing.T) {
		svc := NewOrderService(new(MockOrderRepository), nil)
		_, _, err := svc.SearchOrders(ctx, OrderListFilter{Channel: "mercari"})
		assert.ErrorIs(t, err, integration.ErrChannelNotSupported)
	})

	t.Run("rejects a malformed seller id", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		_, _, err := svc.SearchOrders(ctx, OrderListFilter{SellerID: "not-a-uuid"})
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects unknown shipping status", func(t *testing.T) {
		svc := NewOrderService(new(MockOrderRepository), nil)
		_, _, err := svc.SearchOrders(ctx, OrderListFilter{ShippingStatus: "lost"})
		assert.ErrorIs(t, err, trade.ErrInvalidShippingStatus)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		repo.On("Search", ctx, mock.Anything).Return(nil, int64(0), shared.NewStoreError("search orders", nil))

		_, _, err := svc.SearchOrders(ctx, OrderListFilter{})
		assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	})
}

func TestOrderService_UpdateShipping(t *testing.T) {
	ctx := context.Background()

	t.Run("applies partial update", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		order := newTestOrder(t)
		repo.On("FindByID", ctx, order.ID).Return(order, nil)
		repo.On("Save", ctx, order).Return(nil).Once()

		resp, err := svc.UpdateShipping(ctx, order.ID, UpdateShippingRequest{
			Carrier:        strPtr("Royal Mail"),
			TrackingNumber: strPtr("RM123456789GB"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Royal Mail", resp.Carrier)
		assert.Equal(t, "RM123456789GB", resp.TrackingNumber)
		assert.Equal(t, trade.ShippingStatusPending, order.ShippingStatus)
		repo.AssertExpectations(t)
	})

	t.Run("rejects a disallowed transition", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		order := newTestOrder(t)
		repo.On("FindByID", ctx, order.ID).Return(order, nil)

		_, err := svc.UpdateShipping(ctx, order.ID, UpdateShippingRequest{Status: strPtr("delivered")})
		assert.ErrorIs(t, err, trade.ErrShippingTransition)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestOrderService_MarkShipped(t *testing.T) {
	ctx := context.Background()

	t.Run("ships and publishes once", func(t *testing.T) {
		repo := new(MockOrderRepository)
		publisher := new(MockEventPublisher)
		svc := NewOrderService(repo, nil)
		svc.SetEventPublisher(publisher)
		order := newTestOrder(t)
		at := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

		repo.On("FindByID", ctx, order.ID).Return(order, nil)
		repo.On("Save", ctx, order).Return(nil).Once()
		publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 1 && events[0].EventType() == trade.EventTypeOrderShipped
		})).Return(nil).Once()

		resp, err := svc.MarkShipped(ctx, order.ID, MarkShippedRequest{Carrier: "Evri", ShippedAt: &at})
		require.NoError(t, err)
		assert.Equal(t, string(trade.ShippingStatusShipped), resp.ShippingStatus)
		require.NotNil(t, resp.ShippedAt)
		assert.True(t, resp.ShippedAt.Equal(at))
		assert.Empty(t, order.GetDomainEvents())
		publisher.AssertExpectations(t)

		resp, err = svc.MarkShipped(ctx, order.ID, MarkShippedRequest{Carrier: "DHL"})
		require.NoError(t, err)
		assert.Equal(t, "Evri", resp.Carrier)
		repo.AssertNumberOfCalls(t, "Save", 1)
		publisher.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("cancelled order cannot ship", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, nil)
		order := newTestOrder(t)
		order.ShippingStatus = trade.ShippingStatusCancelled
		repo.On("FindByID", ctx, order.ID).Return(order, nil)

		_, err := svc.MarkShipped(ctx, order.ID, MarkShippedRequest{})
		assert.ErrorIs(t, err, trade.ErrShippingTransition)
	})
}
