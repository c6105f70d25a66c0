package ecommerce

// ---------------------------------------------------------------------------
// Etsy receipt payload (Open API v3 shop receipt)
// ---------------------------------------------------------------------------

// EtsyMoney is Etsy's money object: amount / divisor in currency_code
type EtsyMoney struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

// EtsyReceipt is the subset of a shop receipt used for ingestion
type EtsyReceipt struct {
	ReceiptID        int64  `json:"receipt_id"`
	Status           string `json:"status"` // paid, completed, open, canceled
	BuyerEmail       string `json:"buyer_email"`
	Name             string `json:"name"` // shipping name
	FirstLine        string `json:"first_line"`
	SecondLine       string `json:"second_line"`
	City             string `json:"city"`
	State            string `json:"state"`
	Zip              string `json:"zip"`
	CountryISO       string `json:"country_iso"`
	IsShipped        bool   `json:"is_shipped"`
	CreateTimestamp  int64  `json:"create_timestamp"`  // epoch seconds
	CreatedTimestamp int64  `json:"created_timestamp"` // older alias of create_timestamp

	Grandtotal   *EtsyMoney `json:"grandtotal"`
	TotalTaxCost *EtsyMoney `json:"total_tax_cost"`
	TotalVatCost *EtsyMoney `json:"total_vat_cost"`

	Transactions []EtsyTransaction `json:"transactions"`
	Shipments    []EtsyShipment    `json:"shipments"`
}

// EtsyTransaction is one line of a receipt
type EtsyTransaction struct {
	TransactionID  int64      `json:"transaction_id"`
	ListingID      int64      `json:"listing_id"`
	Title          string     `json:"title"`
	Quantity       int        `json:"quantity"`
	Price          *EtsyMoney `json:"price"`
	ShippingMethod string     `json:"shipping_method"`
}

// EtsyShipment is a shipping label attached to a receipt
type EtsyShipment struct {
	CarrierName  string `json:"carrier_name"`
	TrackingCode string `json:"tracking_code"`
}
