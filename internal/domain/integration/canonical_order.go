package integration

import (
	"strings"
	"time"

	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SoldAtSkewTolerance is how far in the future a sold timestamp may be
// before it is rejected. Channels stamp sales with their own clocks.
const SoldAtSkewTolerance = 5 * time.Minute

// CanonicalOrderData is a channel sale normalized into a single shape.
// Optional fields a channel does not provide are left empty, never guessed.
type CanonicalOrderData struct {
	Channel        Channel
	ChannelOrderID string
	// ChannelListingID resolves the product through the listing registry
	ChannelListingID     string
	ChannelTransactionID string

	BuyerPaid  decimal.Decimal
	SellerPaid decimal.Decimal
	TaxAmount  decimal.Decimal
	// Fees is the channel commission known to the adapter (may be zero)
	Fees     decimal.Decimal
	Currency string
	SoldAt   time.Time

	Buyer    BuyerInfo
	Address  ShippingAddress
	Shipping ShippingInfo
}

// BuyerInfo identifies the buyer as reported by the channel
type BuyerInfo struct {
	Name     string
	Email    string
	Username string
}

// ShippingAddress is the buyer's delivery address
type ShippingAddress struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// ShippingInfo carries the channel's view of fulfillment
type ShippingInfo struct {
	Status         string
	Method         string
	Carrier        string
	TrackingNumber string
}

// Validate checks the fields ingestion relies on.
// All failures are validation errors so nothing gets persisted.
func (d *CanonicalOrderData) Validate(now time.Time) error {
	if !d.Channel.IsValid() {
		return ErrChannelNotSupported
	}
	if strings.TrimSpace(d.ChannelOrderID) == "" {
		return shared.NewValidationError("channel order id is required")
	}
	if d.BuyerPaid.IsNegative() || d.SellerPaid.IsNegative() ||
		d.TaxAmount.IsNegative() || d.Fees.IsNegative() {
		return shared.NewValidationError("monetary amounts cannot be negative")
	}
	if d.Currency == "" {
		return shared.NewValidationError("currency is required")
	}
	if d.SoldAt.IsZero() {
		return shared.NewValidationError("sold timestamp is required")
	}
	if d.SoldAt.After(now.Add(SoldAtSkewTolerance)) {
		return shared.NewValidationError("sold timestamp is in the future")
	}
	return nil
}

// DedupKey is the stable key for the (channel, channel order id) pair
func (d *CanonicalOrderData) DedupKey() string {
	return string(d.Channel) + ":" + d.ChannelOrderID
}
