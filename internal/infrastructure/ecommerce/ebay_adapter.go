package ecommerce

import (
	json "github.com/goccy/go-json"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// EbayAdapter normalizes eBay Fulfillment API orders.
// Money arrives as decimal strings; timestamps are ISO-8601.
// Seller proceeds are total minus collected tax minus the marketplace fee.
type EbayAdapter struct{}

// NewEbayAdapter creates a new EbayAdapter
func NewEbayAdapter() *EbayAdapter {
	return &EbayAdapter{}
}

// Channel implements integration.ChannelAdapter
func (a *EbayAdapter) Channel() integration.Channel {
	return integration.ChannelEbay
}

// Normalize implements integration.ChannelAdapter
func (a *EbayAdapter) Normalize(raw []byte) (*integration.CanonicalOrderData, error) {
	var order EbayOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, malformed("ebay order: %v", err)
	}
	return convertEbayOrder(&order)
}

func convertEbayOrder(o *EbayOrder) (*integration.CanonicalOrderData, error) {
	if o.OrderID == "" {
		return nil, malformed("orderId is required")
	}
	if o.PricingSummary == nil || o.PricingSummary.Total == nil {
		return nil, malformed("pricingSummary.total is required")
	}

	buyerPaid, err := parseRequiredDecimal("pricingSummary.total.value", o.PricingSummary.Total.Value)
	if err != nil {
		return nil, err
	}
	currencyCode, err := normalizeCurrency(o.PricingSummary.Total.Currency)
	if err != nil {
		return nil, err
	}
	soldAt, err := parseISOTime("creationDate", o.CreationDate)
	if err != nil {
		return nil, err
	}

	tax := decimal.Zero
	for _, li := range o.LineItems {
		for _, t := range li.EbayCollectAndRemit {
			if t.Amount != nil {
				tax = tax.Add(ParseDecimal(t.Amount.Value))
			}
		}
	}
	if tax.IsZero() && o.PricingSummary.Tax != nil {
		tax = ParseDecimal(o.PricingSummary.Tax.Value)
	}
	fees := decimal.Zero
	if o.TotalMarketplaceFee != nil {
		fees = ParseDecimal(o.TotalMarketplaceFee.Value)
	}

	data := &integration.CanonicalOrderData{
		Channel:        integration.ChannelEbay,
		ChannelOrderID: o.OrderID,
		BuyerPaid:      buyerPaid,
		SellerPaid:     nonNegative(buyerPaid.Sub(tax).Sub(fees)),
		TaxAmount:      tax,
		Fees:           fees,
		Currency:       currencyCode,
		SoldAt:         soldAt,
		Shipping: integration.ShippingInfo{
			Status: mapEbayShippingStatus(o),
		},
	}

	if len(o.LineItems) > 0 {
		data.ChannelListingID = o.LineItems[0].LegacyItemID
		data.ChannelTransactionID = o.LineItems[0].LineItemID
	}

	if o.Buyer != nil {
		data.Buyer.Username = o.Buyer.Username
		if reg := o.Buyer.BuyerRegistrationAddress; reg != nil {
			data.Buyer.Name = reg.FullName
			data.Buyer.Email = reg.Email
		}
	}

	if len(o.FulfillmentStart) > 0 && o.FulfillmentStart[0].ShippingStep != nil {
		step := o.FulfillmentStart[0].ShippingStep
		data.Shipping.Method = step.ShippingServiceCode
		data.Shipping.Carrier = step.ShippingCarrierCode
		if to := step.ShipTo; to != nil {
			if data.Buyer.Name == "" {
				data.Buyer.Name = to.FullName
			}
			if data.Buyer.Email == "" {
				data.Buyer.Email = to.Email
			}
			if addr := to.ContactAddress; addr != nil {
				data.Address = integration.ShippingAddress{
					Line1:      addr.AddressLine1,
					Line2:      addr.AddressLine2,
					City:       addr.City,
					State:      addr.StateOrProvince,
					PostalCode: addr.PostalCode,
					Country:    addr.CountryCode,
				}
			}
		}
	}

	return data, nil
}

// mapEbayShippingStatus maps fulfillment and cancel state to a canonical shipping status
func mapEbayShippingStatus(o *EbayOrder) string {
	if o.CancelStatus != nil && o.CancelStatus.CancelState == "CANCELED" {
		return "cancelled"
	}
	switch o.OrderFulfillmentStatus {
	case "FULFILLED":
		return "shipped"
	default:
		return "pending"
	}
}
