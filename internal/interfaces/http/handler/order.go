package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appintegration "github.com/marketsync/backend/internal/application/integration"
	apptrade "github.com/marketsync/backend/internal/application/trade"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
	"github.com/marketsync/backend/internal/interfaces/http/router"
)

// OrderIngester records channel sale notifications
type OrderIngester interface {
	IngestOrder(ctx context.Context, in appintegration.IngestOrderInput) (*appintegration.IngestResult, error)
}

// OrderQueries reads and updates stored orders
type OrderQueries interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*apptrade.OrderResponse, error)
	SearchOrders(ctx context.Context, filter apptrade.OrderListFilter) ([]apptrade.OrderListItemResponse, int64, error)
	UpdateShipping(ctx context.Context, id uuid.UUID, req apptrade.UpdateShippingRequest) (*apptrade.OrderResponse, error)
	MarkShipped(ctx context.Context, id uuid.UUID, req apptrade.MarkShippedRequest) (*apptrade.OrderResponse, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	BaseHandler
	ingester OrderIngester
	orders   OrderQueries
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(ingester OrderIngester, orders OrderQueries) *OrderHandler {
	return &OrderHandler{ingester: ingester, orders: orders}
}

// Routes returns the order route group
func (h *OrderHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("orders", "/orders").
		POST("", h.Ingest).
		GET("", h.Search).
		GET("/:id", h.Get).
		PATCH("/:id/shipping", h.UpdateShipping).
		POST("/:id/ship", h.MarkShipped)
}

// Ingest godoc
// @Summary      Record a channel sale
// @Description  Normalizes the channel payload, records the order once and delists the product elsewhere.
// @Description  A redelivered sale answers 200 with duplicate=true.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body appintegration.IngestOrderRequest true "Sale notification"
// @Success      201 {object} dto.Response{data=appintegration.IngestOrderResponse}
// @Success      200 {object} dto.Response{data=appintegration.IngestOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Ingest(c *gin.Context) {
	var req appintegration.IngestOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.ingester.IngestOrder(c.Request.Context(), appintegration.IngestOrderInput{
		Channel:   req.Channel,
		Payload:   req.Payload,
		ProductID: req.ProductID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := appintegration.ToIngestOrderResponse(result)
	if result.Duplicate {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// Search godoc
// @Summary      Search orders
// @Tags         orders
// @Produce      json
// @Param        seller_id        query string false "Seller ID"
// @Param        channel          query string false "etsy, ebay or depop"
// @Param        shipping_status  query string false "Shipping status"
// @Param        search           query string false "Buyer name, email or channel order id"
// @Param        sort_by          query string false "sold_at, buyer_paid, seller_paid or created_at"
// @Param        page             query int    false "Page"
// @Param        page_size        query int    false "Page size (max 100)"
// @Success      200 {object} dto.Response{data=[]apptrade.OrderListItemResponse,meta=dto.Meta}
// @Router       /orders [get]
func (h *OrderHandler) Search(c *gin.Context) {
	var filter apptrade.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = dto.DefaultPageSize
	}

	orders, total, err := h.orders.SearchOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Get godoc
// @Summary      Get order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UpdateShipping godoc
// @Summary      Update shipping fields
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Order ID"
// @Param        request body apptrade.UpdateShippingRequest true "Shipping fields"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/shipping [patch]
func (h *OrderHandler) UpdateShipping(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req apptrade.UpdateShippingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orders.UpdateShipping(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// MarkShipped godoc
// @Summary      Mark an order as shipped
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Order ID"
// @Param        request body apptrade.MarkShippedRequest true "Carrier and tracking"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Router       /orders/{id}/ship [post]
func (h *OrderHandler) MarkShipped(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req apptrade.MarkShippedRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orders.MarkShipped(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
