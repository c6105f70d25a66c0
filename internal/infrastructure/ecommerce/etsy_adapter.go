package ecommerce

import (
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// EtsyAdapter normalizes Etsy shop receipts.
// Money arrives as {amount, divisor}; timestamps are epoch seconds.
// Seller proceeds are buyer_paid minus tax; Etsy's commission is not
// part of the receipt and is not modeled.
type EtsyAdapter struct{}

// NewEtsyAdapter creates a new EtsyAdapter
func NewEtsyAdapter() *EtsyAdapter {
	return &EtsyAdapter{}
}

// Channel implements integration.ChannelAdapter
func (a *EtsyAdapter) Channel() integration.Channel {
	return integration.ChannelEtsy
}

// Normalize implements integration.ChannelAdapter
func (a *EtsyAdapter) Normalize(raw []byte) (*integration.CanonicalOrderData, error) {
	var receipt EtsyReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, malformed("etsy receipt: %v", err)
	}
	return convertEtsyReceipt(&receipt)
}

func convertEtsyReceipt(r *EtsyReceipt) (*integration.CanonicalOrderData, error) {
	if r.ReceiptID <= 0 {
		return nil, malformed("receipt_id is required")
	}
	if r.Grandtotal == nil {
		return nil, malformed("grandtotal is required")
	}

	currencyCode, err := normalizeCurrency(r.Grandtotal.CurrencyCode)
	if err != nil {
		return nil, err
	}
	buyerPaid, err := etsyAmount(r.Grandtotal, currencyCode)
	if err != nil {
		return nil, err
	}
	tax := decimal.Zero
	for _, m := range []*EtsyMoney{r.TotalTaxCost, r.TotalVatCost} {
		if m == nil {
			continue
		}
		v, err := etsyAmount(m, currencyCode)
		if err != nil {
			return nil, err
		}
		tax = tax.Add(v)
	}

	created := r.CreateTimestamp
	if created == 0 {
		created = r.CreatedTimestamp
	}
	soldAt, err := parseEpochSeconds("create_timestamp", created)
	if err != nil {
		return nil, err
	}

	data := &integration.CanonicalOrderData{
		Channel:        integration.ChannelEtsy,
		ChannelOrderID: strconv.FormatInt(r.ReceiptID, 10),
		BuyerPaid:      buyerPaid,
		SellerPaid:     nonNegative(buyerPaid.Sub(tax)),
		TaxAmount:      tax,
		Fees:           decimal.Zero,
		Currency:       currencyCode,
		SoldAt:         soldAt,
		Buyer: integration.BuyerInfo{
			Name:  r.Name,
			Email: r.BuyerEmail,
		},
		Address: integration.ShippingAddress{
			Line1:      r.FirstLine,
			Line2:      r.SecondLine,
			City:       r.City,
			State:      r.State,
			PostalCode: r.Zip,
			Country:    r.CountryISO,
		},
		Shipping: integration.ShippingInfo{
			Status: mapEtsyShippingStatus(r),
		},
	}

	if len(r.Transactions) > 0 {
		tx := r.Transactions[0]
		if tx.ListingID > 0 {
			data.ChannelListingID = strconv.FormatInt(tx.ListingID, 10)
		}
		if tx.TransactionID > 0 {
			data.ChannelTransactionID = strconv.FormatInt(tx.TransactionID, 10)
		}
		data.Shipping.Method = tx.ShippingMethod
	}
	if len(r.Shipments) > 0 {
		s := r.Shipments[len(r.Shipments)-1]
		data.Shipping.Carrier = s.CarrierName
		data.Shipping.TrackingNumber = s.TrackingCode
	}

	return data, nil
}

func etsyAmount(m *EtsyMoney, receiptCurrency string) (decimal.Decimal, error) {
	code := m.CurrencyCode
	if code == "" {
		code = receiptCurrency
	}
	return FromDivisor(m.Amount, m.Divisor, code)
}

// mapEtsyShippingStatus maps receipt state to a canonical shipping status
func mapEtsyShippingStatus(r *EtsyReceipt) string {
	switch {
	case r.Status == "canceled" || r.Status == "fully refunded":
		return "cancelled"
	case r.IsShipped || r.Status == "completed":
		return "shipped"
	default:
		return "pending"
	}
}
