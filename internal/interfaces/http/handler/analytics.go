package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appreport "github.com/marketsync/backend/internal/application/report"
	"github.com/marketsync/backend/internal/domain/report"
	"github.com/marketsync/backend/internal/interfaces/http/router"
)

// AnalyticsReader builds seller analytics
type AnalyticsReader interface {
	Overview(ctx context.Context, sellerID uuid.UUID, tf report.TimeFrame, metric report.Metric) (*report.Overview, error)
	MetricSeries(ctx context.Context, sellerID uuid.UUID, tf report.TimeFrame, metric report.Metric) (*report.MetricReport, error)
}

// AnalyticsHandler handles analytics endpoints
type AnalyticsHandler struct {
	BaseHandler
	analytics AnalyticsReader
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analytics AnalyticsReader) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Routes returns the analytics route group
func (h *AnalyticsHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("analytics", "/analytics").
		GET("/overview", h.Overview).
		GET("/metrics/:metric", h.Metric)
}

// Overview godoc
// @Summary      Seller analytics overview
// @Description  Summary, period-over-period changes, a gap-filled series and per-channel totals
// @Tags         analytics
// @Produce      json
// @Param        seller_id  query string true  "Seller ID"
// @Param        time_frame query string false "Defaults to last30days"
// @Param        metric     query string false "revenue, orders or listings (default revenue)"
// @Success      200 {object} dto.Response{data=report.Overview}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	var q appreport.AnalyticsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	sellerID, err := q.Seller()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	tf, metric := q.Resolve()

	overview, err := h.analytics.Overview(c.Request.Context(), sellerID, tf, metric)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overview)
}

// Metric godoc
// @Summary      One analytics metric over time
// @Tags         analytics
// @Produce      json
// @Param        metric     path  string true  "revenue, orders or listings"
// @Param        seller_id  query string true  "Seller ID"
// @Param        time_frame query string false "Defaults to last30days"
// @Success      200 {object} dto.Response{data=report.MetricReport}
// @Router       /analytics/metrics/{metric} [get]
func (h *AnalyticsHandler) Metric(c *gin.Context) {
	var q appreport.AnalyticsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	sellerID, err := q.Seller()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	tf, _ := q.Resolve()

	result, err := h.analytics.MetricSeries(c.Request.Context(), sellerID, tf, report.Metric(c.Param("metric")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
