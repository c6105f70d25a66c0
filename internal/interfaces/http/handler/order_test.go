package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	appintegration "github.com/marketsync/backend/internal/application/integration"
	apptrade "github.com/marketsync/backend/internal/application/trade"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrderIngester struct {
	mock.Mock
}

func (m *mockOrderIngester) IngestOrder(ctx context.Context, in appintegration.IngestOrderInput) (*appintegration.IngestResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appintegration.IngestResult), args.Error(1)
}

type mockOrderQueries struct {
	mock.Mock
}

func (m *mockOrderQueries) GetOrder(ctx context.Context, id uuid.UUID) (*apptrade.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.OrderResponse), args.Error(1)
}

func (m *mockOrderQueries) SearchOrders(ctx context.Context, filter apptrade.OrderListFilter) ([]apptrade.OrderListItemResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]apptrade.OrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderQueries) UpdateShipping(ctx context.Context, id uuid.UUID, req apptrade.UpdateShippingRequest) (*apptrade.OrderResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.OrderResponse), args.Error(1)
}

func (m *mockOrderQueries) MarkShipped(ctx context.Context, id uuid.UUID, req apptrade.MarkShippedRequest) (*apptrade.OrderResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.OrderResponse), args.Error(1)
}

func newOrderRouter(ingester *mockOrderIngester, orders *mockOrderQueries) http.Handler {
	return newTestRouter(NewOrderHandler(ingester, orders).Routes())
}

func sampleOrder() *trade.Order {
	o := &trade.Order{
		ProductID:      uuid.New(),
		SellerID:       uuid.New(),
		Channel:        integration.ChannelEtsy,
		ChannelOrderID: "3141592",
		BuyerPaid:      decimal.RequireFromString("42.00"),
		SellerPaid:     decimal.RequireFromString("36.87"),
		Currency:       "USD",
		SoldAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ShippingStatus: trade.ShippingStatusPending,
	}
	o.ID = uuid.New()
	return o
}

func TestOrderHandler_Ingest(t *testing.T) {
	payload := `{"receipt_id":3141592}`

	t.Run("new order answers 201", func(t *testing.T) {
		ingester := new(mockOrderIngester)
		order := sampleOrder()
		ingester.On("IngestOrder", mock.Anything, mock.MatchedBy(func(in appintegration.IngestOrderInput) bool {
			return in.Channel == "etsy" && string(in.Payload) == payload && in.ProductID == nil
		})).Return(&appintegration.IngestResult{
			Order: order,
			Delist: &appintegration.DelistResult{
				ProductID:   order.ProductID,
				SoldChannel: integration.ChannelEtsy,
				ChannelLess: true,
			},
		}, nil)

		w, env := doRequest(t, newOrderRouter(ingester, new(mockOrderQueries)), http.MethodPost, "/api/v1/orders",
			`{"channel":"etsy","payload":`+payload+`}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp appintegration.IngestOrderResponse
		decodeData(t, env, &resp)
		assert.Equal(t, order.ID, resp.Order.ID)
		assert.Equal(t, "36.87", resp.Order.SellerPaid.StringFixed(2))
		assert.False(t, resp.Duplicate)
		require.NotNil(t, resp.Delist)
		assert.True(t, resp.Delist.ChannelLess)
		ingester.AssertExpectations(t)
	})

	t.Run("duplicate answers 200", func(t *testing.T) {
		ingester := new(mockOrderIngester)
		ingester.On("IngestOrder", mock.Anything, mock.Anything).
			Return(&appintegration.IngestResult{Order: sampleOrder(), Duplicate: true}, nil)

		w, env := doRequest(t, newOrderRouter(ingester, new(mockOrderQueries)), http.MethodPost, "/api/v1/orders",
			`{"channel":"etsy","payload":`+payload+`}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp appintegration.IngestOrderResponse
		decodeData(t, env, &resp)
		assert.True(t, resp.Duplicate)
		assert.Nil(t, resp.Delist)
	})

	t.Run("explicit product id is forwarded", func(t *testing.T) {
		productID := uuid.New()
		ingester := new(mockOrderIngester)
		ingester.On("IngestOrder", mock.Anything, mock.MatchedBy(func(in appintegration.IngestOrderInput) bool {
			return in.ProductID != nil && *in.ProductID == productID
		})).Return(&appintegration.IngestResult{Order: sampleOrder()}, nil)

		w, _ := doRequest(t, newOrderRouter(ingester, new(mockOrderQueries)), http.MethodPost, "/api/v1/orders",
			`{"channel":"ebay","product_id":"`+productID.String()+`","payload":{"orderId":"1"}}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		ingester.AssertExpectations(t)
	})

	t.Run("unsupported channel is rejected before ingestion", func(t *testing.T) {
		ingester := new(mockOrderIngester)

		w, env := doRequest(t, newOrderRouter(ingester, new(mockOrderQueries)), http.MethodPost, "/api/v1/orders",
			`{"channel":"poshmark","payload":{}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "channel", env.Error.Details[0].Field)
		ingester.AssertNotCalled(t, "IngestOrder", mock.Anything, mock.Anything)
	})

	t.Run("missing payload", func(t *testing.T) {
		w, _ := doRequest(t, newOrderRouter(new(mockOrderIngester), new(mockOrderQueries)), http.MethodPost, "/api/v1/orders",
			`{"channel":"depop"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("concurrent ingestion answers 409", func(t *testing.T) {
		ingester := new(mockOrderIngester)
		ingester.On("IngestOrder", mock.Anything, mock.Anything).Return(nil, trade.ErrIngestionInProgress)

		w, env := doRequest(t, newOrderRouter(ingester, new(mockOrderQueries)), http.MethodPost, "/api/v1/orders",
			`{"channel":"etsy","payload":`+payload+`}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_INGESTION_IN_PROGRESS", env.Error.Code)
	})

	t.Run("malformed channel payload", func(t *testing.T) {
		ingester := new(mockOrderIngester)
		ingester.On("IngestOrder", mock.Anything, mock.Anything).Return(nil, integration.ErrPayloadMalformed)

		w, env := doRequest(t, newOrderRouter(ingester, new(mockOrderQueries)), http.MethodPost, "/api/v1/orders",
			`{"channel":"etsy","payload":{"receipt_id":"x"}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_PAYLOAD_MALFORMED", env.Error.Code)
	})
}

func TestOrderHandler_Search(t *testing.T) {
	t.Run("applies paging defaults", func(t *testing.T) {
		orders := new(mockOrderQueries)
		sellerID := uuid.New()
		orders.On("SearchOrders", mock.Anything, mock.MatchedBy(func(f apptrade.OrderListFilter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.SellerID == sellerID.String() && f.Channel == "ebay"
		})).Return([]apptrade.OrderListItemResponse{{ID: uuid.New()}}, int64(1), nil)

		w, env := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodGet,
			"/api/v1/orders?seller_id="+sellerID.String()+"&channel=ebay", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(1), env.Meta.Total)
		assert.Equal(t, 1, env.Meta.TotalPages)
		orders.AssertExpectations(t)
	})

	t.Run("rejects a malformed seller id", func(t *testing.T) {
		orders := new(mockOrderQueries)
		w, _ := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodGet,
			"/api/v1/orders?seller_id=abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		orders.AssertNotCalled(t, "SearchOrders", mock.Anything, mock.Anything)
	})

	t.Run("rejects an oversized page", func(t *testing.T) {
		w, _ := doRequest(t, newOrderRouter(new(mockOrderIngester), new(mockOrderQueries)), http.MethodGet,
			"/api/v1/orders?page_size=1000", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_Get(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		orders := new(mockOrderQueries)
		orders.On("GetOrder", mock.Anything, id).Return(&apptrade.OrderResponse{ID: id, ChannelOrderID: "A1"}, nil)

		w, env := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodGet, "/api/v1/orders/"+id.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp apptrade.OrderResponse
		decodeData(t, env, &resp)
		assert.Equal(t, "A1", resp.ChannelOrderID)
	})

	t.Run("not found", func(t *testing.T) {
		orders := new(mockOrderQueries)
		orders.On("GetOrder", mock.Anything, id).Return(nil, trade.ErrOrderNotFound)

		w, env := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodGet, "/api/v1/orders/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ERR_ORDER_NOT_FOUND", env.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w, _ := doRequest(t, newOrderRouter(new(mockOrderIngester), new(mockOrderQueries)), http.MethodGet, "/api/v1/orders/123", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_Shipping(t *testing.T) {
	id := uuid.New()

	t.Run("partial update", func(t *testing.T) {
		orders := new(mockOrderQueries)
		orders.On("UpdateShipping", mock.Anything, id, mock.MatchedBy(func(req apptrade.UpdateShippingRequest) bool {
			return req.Carrier != nil && *req.Carrier == "USPS" && req.Status == nil
		})).Return(&apptrade.OrderResponse{ID: id, Carrier: "USPS"}, nil)

		w, _ := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodPatch,
			"/api/v1/orders/"+id.String()+"/shipping", `{"carrier":"USPS"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		orders.AssertExpectations(t)
	})

	t.Run("illegal transition answers 409", func(t *testing.T) {
		orders := new(mockOrderQueries)
		orders.On("UpdateShipping", mock.Anything, id, mock.Anything).Return(nil, trade.ErrShippingTransition)

		w, _ := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodPatch,
			"/api/v1/orders/"+id.String()+"/shipping", `{"status":"pending"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("mark shipped without a body", func(t *testing.T) {
		orders := new(mockOrderQueries)
		orders.On("MarkShipped", mock.Anything, id, apptrade.MarkShippedRequest{}).
			Return(&apptrade.OrderResponse{ID: id, ShippingStatus: "shipped"}, nil)

		w, env := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodPost,
			"/api/v1/orders/"+id.String()+"/ship", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp apptrade.OrderResponse
		decodeData(t, env, &resp)
		assert.Equal(t, "shipped", resp.ShippingStatus)
	})

	t.Run("mark shipped with tracking", func(t *testing.T) {
		orders := new(mockOrderQueries)
		orders.On("MarkShipped", mock.Anything, id, mock.MatchedBy(func(req apptrade.MarkShippedRequest) bool {
			return req.Carrier == "UPS" && req.TrackingNumber == "1Z999"
		})).Return(&apptrade.OrderResponse{ID: id}, nil)

		w, _ := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodPost,
			"/api/v1/orders/"+id.String()+"/ship", `{"carrier":"UPS","tracking_number":"1Z999"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		orders.AssertExpectations(t)
	})

	t.Run("unexpected failure answers 500", func(t *testing.T) {
		orders := new(mockOrderQueries)
		orders.On("MarkShipped", mock.Anything, id, mock.Anything).Return(nil, errors.New("boom"))

		w, _ := doRequest(t, newOrderRouter(new(mockOrderIngester), orders), http.MethodPost,
			"/api/v1/orders/"+id.String()+"/ship", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
