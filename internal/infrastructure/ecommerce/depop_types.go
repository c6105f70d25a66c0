package ecommerce

// ---------------------------------------------------------------------------
// Depop sale webhook payload
// ---------------------------------------------------------------------------

// DepopSale is the sold-item notification. All amounts are integer minor
// units of Currency.
type DepopSale struct {
	ID            string         `json:"id"`
	PurchaseID    string         `json:"purchase_id"`
	ProductID     string         `json:"product_id"` // Depop listing id
	ProductSlug   string         `json:"product_slug"`
	SoldAt        string         `json:"sold_at"` // ISO-8601
	Currency      string         `json:"currency"`
	TotalAmount   int64          `json:"total_amount"`
	TaxAmount     int64          `json:"tax_amount"`
	Fees          DepopFees      `json:"fees"`
	Buyer         DepopBuyer     `json:"buyer"`
	Address       *DepopAddress  `json:"shipping_address"`
	Shipping      *DepopShipping `json:"shipping"`
}

// DepopFees are the charges deducted from the seller's payout
type DepopFees struct {
	MarketplaceFee int64 `json:"marketplace_fee"`
	PaymentFee     int64 `json:"payment_fee"`
	BoostingFee    int64 `json:"boosting_fee"`
}

// Total returns the sum of all fees in minor units
func (f DepopFees) Total() int64 {
	return f.MarketplaceFee + f.PaymentFee + f.BoostingFee
}

// DepopBuyer identifies the buyer
type DepopBuyer struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// DepopAddress is the delivery address
type DepopAddress struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// DepopShipping is the fulfillment state
type DepopShipping struct {
	Status         string `json:"status"` // awaiting_shipping, shipped, delivered, cancelled
	Provider       string `json:"provider"`
	Method         string `json:"method"`
	TrackingNumber string `json:"tracking_number"`
}
