package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ShippingStatus represents the fulfillment state of an order
type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusDelivered ShippingStatus = "delivered"
	ShippingStatusCancelled ShippingStatus = "cancelled"
)

// IsValid checks if the shipping status is a known value
func (s ShippingStatus) IsValid() bool {
	switch s {
	case ShippingStatusPending, ShippingStatusShipped, ShippingStatusDelivered, ShippingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if moving to target is allowed
func (s ShippingStatus) CanTransitionTo(target ShippingStatus) bool {
	if s == target {
		return true
	}
	switch s {
	case ShippingStatusPending:
		return target == ShippingStatusShipped || target == ShippingStatusCancelled
	case ShippingStatusShipped:
		return target == ShippingStatusDelivered
	}
	return false
}

var (
	ErrOrderNotFound           = shared.ErrNotFound.Refine("ORDER_NOT_FOUND", "Order not found")
	ErrDuplicateChannelOrder   = shared.ErrConflict.Refine("DUPLICATE_CHANNEL_ORDER", "An order with this channel order ID already exists")
	ErrIngestionInProgress     = shared.ErrConflict.Refine("INGESTION_IN_PROGRESS", "This channel order is being ingested by another request")
	ErrInvalidShippingStatus   = shared.ErrInvalidInput.Refine("INVALID_SHIPPING_STATUS", "Invalid shipping status")
	ErrShippingTransition      = shared.ErrInvalidState.Refine("INVALID_SHIPPING_TRANSITION", "Shipping status transition is not allowed")
	ErrOrderMissingProduct     = shared.ErrValidation.Refine("ORDER_MISSING_PRODUCT", "Order must reference a product")
)

// Order is the canonical record of one external sale.
// After creation only the shipping fields change.
type Order struct {
	shared.BaseAggregateRoot
	ProductID            uuid.UUID
	SellerID             uuid.UUID
	Channel              integration.Channel
	ChannelOrderID       string
	ChannelListingID     *string
	ChannelTransactionID *string

	BuyerPaid  decimal.Decimal
	SellerPaid decimal.Decimal
	TaxAmount  decimal.Decimal
	Currency   string
	SoldAt     time.Time

	BuyerName     string
	BuyerEmail    string
	BuyerUsername string
	Address       integration.ShippingAddress

	ShippingStatus ShippingStatus
	ShippingMethod string
	Carrier        string
	TrackingNumber string
	ShippedAt      *time.Time
}

// NewOrderFromCanonical builds an order from normalized channel data
func NewOrderFromCanonical(data *integration.CanonicalOrderData, productID, sellerID uuid.UUID) (*Order, error) {
	if productID == uuid.Nil {
		return nil, ErrOrderMissingProduct
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		SellerID:          sellerID,
		Channel:           data.Channel,
		ChannelOrderID:    data.ChannelOrderID,
		ChannelListingID:  optional(data.ChannelListingID),
		ChannelTransactionID: optional(data.ChannelTransactionID),
		BuyerPaid:         data.BuyerPaid,
		SellerPaid:        data.SellerPaid,
		TaxAmount:         data.TaxAmount,
		Currency:          strings.ToUpper(data.Currency),
		SoldAt:            data.SoldAt.UTC(),
		BuyerName:         data.Buyer.Name,
		BuyerEmail:        data.Buyer.Email,
		BuyerUsername:     data.Buyer.Username,
		Address:           data.Address,
		ShippingStatus:    ShippingStatusPending,
		ShippingMethod:    data.Shipping.Method,
		Carrier:           data.Shipping.Carrier,
		TrackingNumber:    data.Shipping.TrackingNumber,
	}

	// Channels sometimes report a sale that is already in transit.
	if s := ShippingStatus(data.Shipping.Status); s.IsValid() {
		o.ShippingStatus = s
		if s == ShippingStatusShipped || s == ShippingStatusDelivered {
			shipped := o.SoldAt
			o.ShippedAt = &shipped
		}
	}

	o.AddDomainEvent(NewOrderIngestedEvent(o))
	return o, nil
}

// ShippingUpdate is a partial update of shipping fields; nil fields are left alone
type ShippingUpdate struct {
	Status         *ShippingStatus
	Method         *string
	Carrier        *string
	TrackingNumber *string
}

// UpdateShipping applies a partial shipping update
func (o *Order) UpdateShipping(u ShippingUpdate) error {
	if u.Status != nil {
		if !u.Status.IsValid() {
			return ErrInvalidShippingStatus
		}
		if !o.ShippingStatus.CanTransitionTo(*u.Status) {
			return ErrShippingTransition.Refine(ErrShippingTransition.Code,
				fmt.Sprintf("Cannot move shipping from %s to %s", o.ShippingStatus, *u.Status))
		}
	}

	if u.Method != nil {
		o.ShippingMethod = *u.Method
	}
	if u.Carrier != nil {
		o.Carrier = *u.Carrier
	}
	if u.TrackingNumber != nil {
		o.TrackingNumber = *u.TrackingNumber
	}
	if u.Status != nil && *u.Status != o.ShippingStatus {
		if *u.Status == ShippingStatusShipped && o.ShippedAt == nil {
			now := time.Now()
			o.ShippedAt = &now
		}
		o.ShippingStatus = *u.Status
	}
	o.UpdatedAt = time.Now()
	return nil
}

// MarkShipped records shipment. Returns false if the order was already shipped.
func (o *Order) MarkShipped(carrier, trackingNumber string, at time.Time) (bool, error) {
	switch o.ShippingStatus {
	case ShippingStatusShipped, ShippingStatusDelivered:
		return false, nil
	case ShippingStatusCancelled:
		return false, ErrShippingTransition.Refine(ErrShippingTransition.Code, "Cannot ship a cancelled order")
	}

	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	o.ShippingStatus = ShippingStatusShipped
	o.ShippedAt = &at
	if carrier != "" {
		o.Carrier = carrier
	}
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderShippedEvent(o))
	return true, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
