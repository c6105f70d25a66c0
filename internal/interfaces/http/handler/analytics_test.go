package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAnalyticsReader struct {
	mock.Mock
}

func (m *mockAnalyticsReader) Overview(ctx context.Context, sellerID uuid.UUID, tf report.TimeFrame, metric report.Metric) (*report.Overview, error) {
	args := m.Called(ctx, sellerID, tf, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Overview), args.Error(1)
}

func (m *mockAnalyticsReader) MetricSeries(ctx context.Context, sellerID uuid.UUID, tf report.TimeFrame, metric report.Metric) (*report.MetricReport, error) {
	args := m.Called(ctx, sellerID, tf, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.MetricReport), args.Error(1)
}

func newAnalyticsRouter(analytics *mockAnalyticsReader) http.Handler {
	return newTestRouter(NewAnalyticsHandler(analytics).Routes())
}

func TestAnalyticsHandler_Overview(t *testing.T) {
	sellerID := uuid.New()

	t.Run("defaults to last 30 days of revenue", func(t *testing.T) {
		analytics := new(mockAnalyticsReader)
		analytics.On("Overview", mock.Anything, sellerID, report.TimeFrameLast30Days, report.MetricRevenue).
			Return(&report.Overview{SellerID: sellerID.String(), TimeFrame: report.TimeFrameLast30Days}, nil)

		w, env := doRequest(t, newAnalyticsRouter(analytics), http.MethodGet,
			"/api/v1/analytics/overview?seller_id="+sellerID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp report.Overview
		decodeData(t, env, &resp)
		assert.Equal(t, report.TimeFrameLast30Days, resp.TimeFrame)
		analytics.AssertExpectations(t)
	})

	t.Run("explicit time frame and metric", func(t *testing.T) {
		analytics := new(mockAnalyticsReader)
		analytics.On("Overview", mock.Anything, sellerID, report.TimeFrameLast7Days, report.MetricOrders).
			Return(&report.Overview{Degraded: true}, nil)

		w, env := doRequest(t, newAnalyticsRouter(analytics), http.MethodGet,
			"/api/v1/analytics/overview?seller_id="+sellerID.String()+"&time_frame=last7days&metric=orders", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp report.Overview
		decodeData(t, env, &resp)
		assert.True(t, resp.Degraded)
	})

	t.Run("seller id is required", func(t *testing.T) {
		analytics := new(mockAnalyticsReader)
		w, _ := doRequest(t, newAnalyticsRouter(analytics), http.MethodGet, "/api/v1/analytics/overview", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		analytics.AssertNotCalled(t, "Overview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown time frame", func(t *testing.T) {
		w, _ := doRequest(t, newAnalyticsRouter(new(mockAnalyticsReader)), http.MethodGet,
			"/api/v1/analytics/overview?seller_id="+sellerID.String()+"&time_frame=lastDecade", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown seller", func(t *testing.T) {
		analytics := new(mockAnalyticsReader)
		analytics.On("Overview", mock.Anything, sellerID, mock.Anything, mock.Anything).Return(nil, catalog.ErrSellerNotFound)

		w, env := doRequest(t, newAnalyticsRouter(analytics), http.MethodGet,
			"/api/v1/analytics/overview?seller_id="+sellerID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ERR_SELLER_NOT_FOUND", env.Error.Code)
	})
}

func TestAnalyticsHandler_Metric(t *testing.T) {
	sellerID := uuid.New()

	t.Run("metric comes from the path", func(t *testing.T) {
		analytics := new(mockAnalyticsReader)
		analytics.On("MetricSeries", mock.Anything, sellerID, report.TimeFrameLast30Days, report.MetricListings).
			Return(&report.MetricReport{Metric: report.MetricListings, Total: decimal.NewFromInt(4)}, nil)

		w, env := doRequest(t, newAnalyticsRouter(analytics), http.MethodGet,
			"/api/v1/analytics/metrics/listings?seller_id="+sellerID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp report.MetricReport
		decodeData(t, env, &resp)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(4)))
	})

	t.Run("unknown metric", func(t *testing.T) {
		analytics := new(mockAnalyticsReader)
		analytics.On("MetricSeries", mock.Anything, sellerID, mock.Anything, report.Metric("visits")).
			Return(nil, report.ErrInvalidMetric)

		w, env := doRequest(t, newAnalyticsRouter(analytics), http.MethodGet,
			"/api/v1/analytics/metrics/visits?seller_id="+sellerID.String(), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_INVALID_METRIC", env.Error.Code)
	})
}
