package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderService handles reads and shipping updates of canonical orders.
// Orders are only created by ingestion.
type OrderService struct {
	orderRepo      trade.OrderRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo trade.OrderRepository, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{orderRepo: orderRepo, logger: logger}
}

// SetEventPublisher sets the event publisher for shipping events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// SearchOrders returns one page of orders and the total match count
func (s *OrderService) SearchOrders(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	if filter.StartDate != nil && filter.EndDate != nil && !filter.StartDate.Before(*filter.EndDate) {
		return nil, 0, shared.NewValidationError("start_date must be before end_date")
	}

	sellerID, err := optionalID("seller_id", filter.SellerID)
	if err != nil {
		return nil, 0, err
	}
	productID, err := optionalID("product_id", filter.ProductID)
	if err != nil {
		return nil, 0, err
	}

	domainFilter := trade.OrderFilter{
		SellerID:       sellerID,
		ProductID:      productID,
		Channel:        integration.Channel(filter.Channel),
		ShippingStatus: trade.ShippingStatus(filter.ShippingStatus),
		SoldFrom:       filter.StartDate,
		SoldTo:         filter.EndDate,
		Search:         filter.Search,
		SortBy:         filter.SortBy,
		SortOrder:      filter.SortOrder,
		Page:           filter.Page,
		PageSize:       filter.PageSize,
	}
	if domainFilter.Channel != "" && !domainFilter.Channel.IsValid() {
		return nil, 0, integration.ErrChannelNotSupported
	}
	if domainFilter.ShippingStatus != "" && !domainFilter.ShippingStatus.IsValid() {
		return nil, 0, trade.ErrInvalidShippingStatus
	}

	orders, total, err := s.orderRepo.Search(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderListItemResponses(orders), total, nil
}

// UpdateShipping applies a partial shipping update
func (s *OrderService) UpdateShipping(ctx context.Context, id uuid.UUID, req UpdateShippingRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := trade.ShippingUpdate{
		Method:         req.Method,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
	}
	if req.Status != nil {
		status := trade.ShippingStatus(*req.Status)
		update.Status = &status
	}
	if err := order.UpdateShipping(update); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	resp := ToOrderResponse(order)
	return &resp, nil
}

// MarkShipped marks an order as shipped. Shipping an already shipped order
// returns it unchanged.
func (s *OrderService) MarkShipped(ctx context.Context, id uuid.UUID, req MarkShippedRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var at time.Time
	if req.ShippedAt != nil {
		at = *req.ShippedAt
	}
	changed, err := order.MarkShipped(req.Carrier, req.TrackingNumber, at)
	if err != nil {
		return nil, err
	}

	if changed {
		if err := s.orderRepo.Save(ctx, order); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, order)
		s.logger.Info("Order shipped",
			zap.String("order_id", order.ID.String()),
			zap.String("carrier", order.Carrier),
		)
	}

	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) publishEvents(ctx context.Context, order *trade.Order) {
	defer order.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, order.GetDomainEvents()...); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func optionalID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewValidationError(field + " must be a UUID")
	}
	return &id, nil
}
