package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const AggregateTypeOrder = "Order"

const (
	EventTypeOrderIngested = "OrderIngested"
	EventTypeOrderShipped  = "OrderShipped"
)

// OrderIngestedEvent is published once per external sale
type OrderIngestedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID           `json:"order_id"`
	ProductID      uuid.UUID           `json:"product_id"`
	SellerID       uuid.UUID           `json:"seller_id"`
	Channel        integration.Channel `json:"channel"`
	ChannelOrderID string              `json:"channel_order_id"`
	BuyerPaid      decimal.Decimal     `json:"buyer_paid"`
	SellerPaid     decimal.Decimal     `json:"seller_paid"`
	Currency       string              `json:"currency"`
	SoldAt         time.Time           `json:"sold_at"`
}

// NewOrderIngestedEvent creates a new OrderIngestedEvent
func NewOrderIngestedEvent(o *Order) *OrderIngestedEvent {
	return &OrderIngestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderIngested, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		ProductID:       o.ProductID,
		SellerID:        o.SellerID,
		Channel:         o.Channel,
		ChannelOrderID:  o.ChannelOrderID,
		BuyerPaid:       o.BuyerPaid,
		SellerPaid:      o.SellerPaid,
		Currency:        o.Currency,
		SoldAt:          o.SoldAt,
	}
}

// OrderShippedEvent is published when an order is marked shipped
type OrderShippedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	Carrier        string    `json:"carrier,omitempty"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	ShippedAt      time.Time `json:"shipped_at"`
}

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(o *Order) *OrderShippedEvent {
	e := &OrderShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderShipped, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Carrier:         o.Carrier,
		TrackingNumber:  o.TrackingNumber,
	}
	if o.ShippedAt != nil {
		e.ShippedAt = *o.ShippedAt
	}
	return e
}
