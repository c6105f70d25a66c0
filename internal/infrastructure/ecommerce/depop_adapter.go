package ecommerce

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/marketsync/backend/internal/domain/integration"
)

// DepopAdapter normalizes Depop sale notifications.
// Amounts are minor units scaled by the currency's standard digits;
// seller proceeds are total minus tax minus all fees.
type DepopAdapter struct{}

// NewDepopAdapter creates a new DepopAdapter
func NewDepopAdapter() *DepopAdapter {
	return &DepopAdapter{}
}

// Channel implements integration.ChannelAdapter
func (a *DepopAdapter) Channel() integration.Channel {
	return integration.ChannelDepop
}

// Normalize implements integration.ChannelAdapter
func (a *DepopAdapter) Normalize(raw []byte) (*integration.CanonicalOrderData, error) {
	var sale DepopSale
	if err := json.Unmarshal(raw, &sale); err != nil {
		return nil, malformed("depop sale: %v", err)
	}
	return convertDepopSale(&sale)
}

func convertDepopSale(s *DepopSale) (*integration.CanonicalOrderData, error) {
	if s.ID == "" {
		return nil, malformed("id is required")
	}
	if s.TotalAmount < 0 || s.TaxAmount < 0 || s.Fees.Total() < 0 {
		return nil, malformed("amounts cannot be negative")
	}

	currencyCode, err := normalizeCurrency(s.Currency)
	if err != nil {
		return nil, err
	}
	buyerPaid, err := FromMinorUnits(s.TotalAmount, currencyCode)
	if err != nil {
		return nil, err
	}
	tax, err := FromMinorUnits(s.TaxAmount, currencyCode)
	if err != nil {
		return nil, err
	}
	fees, err := FromMinorUnits(s.Fees.Total(), currencyCode)
	if err != nil {
		return nil, err
	}
	soldAt, err := parseISOTime("sold_at", s.SoldAt)
	if err != nil {
		return nil, err
	}

	data := &integration.CanonicalOrderData{
		Channel:              integration.ChannelDepop,
		ChannelOrderID:       s.ID,
		ChannelListingID:     s.ProductID,
		ChannelTransactionID: s.PurchaseID,
		BuyerPaid:            buyerPaid,
		SellerPaid:           nonNegative(buyerPaid.Sub(tax).Sub(fees)),
		TaxAmount:            tax,
		Fees:                 fees,
		Currency:             currencyCode,
		SoldAt:               soldAt,
		Buyer: integration.BuyerInfo{
			Name:     strings.TrimSpace(s.Buyer.FirstName + " " + s.Buyer.LastName),
			Email:    s.Buyer.Email,
			Username: s.Buyer.Username,
		},
	}

	if a := s.Address; a != nil {
		data.Address = integration.ShippingAddress{
			Line1:      a.Address1,
			Line2:      a.Address2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.Postcode,
			Country:    a.Country,
		}
	}
	if sh := s.Shipping; sh != nil {
		data.Shipping = integration.ShippingInfo{
			Status:         mapDepopShippingStatus(sh.Status),
			Method:         sh.Method,
			Carrier:        sh.Provider,
			TrackingNumber: sh.TrackingNumber,
		}
	}

	return data, nil
}

// mapDepopShippingStatus maps Depop shipping state to a canonical shipping status
func mapDepopShippingStatus(status string) string {
	switch status {
	case "shipped", "in_transit":
		return "shipped"
	case "delivered":
		return "delivered"
	case "cancelled", "refunded":
		return "cancelled"
	default:
		return "pending"
	}
}
