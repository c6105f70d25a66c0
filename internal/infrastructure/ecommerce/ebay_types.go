package ecommerce

// ---------------------------------------------------------------------------
// eBay order payload (Sell Fulfillment API getOrder)
// ---------------------------------------------------------------------------

// EbayAmount is eBay's money object with a decimal string value
type EbayAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// EbayOrder is the subset of an eBay order used for ingestion
type EbayOrder struct {
	OrderID                string             `json:"orderId"`
	LegacyOrderID          string             `json:"legacyOrderId"`
	CreationDate           string             `json:"creationDate"` // ISO-8601
	OrderFulfillmentStatus string             `json:"orderFulfillmentStatus"`
	OrderPaymentStatus     string             `json:"orderPaymentStatus"`
	PricingSummary         *EbayPricing       `json:"pricingSummary"`
	TotalMarketplaceFee    *EbayAmount        `json:"totalMarketplaceFee"`
	Buyer                  *EbayBuyer         `json:"buyer"`
	LineItems              []EbayLineItem     `json:"lineItems"`
	FulfillmentStart       []EbayFulfillment  `json:"fulfillmentStartInstructions"`
	CancelStatus           *EbayCancelStatus  `json:"cancelStatus"`
}

// EbayPricing is the order-level price breakdown
type EbayPricing struct {
	Total         *EbayAmount `json:"total"`
	PriceSubtotal *EbayAmount `json:"priceSubtotal"`
	DeliveryCost  *EbayAmount `json:"deliveryCost"`
	Tax           *EbayAmount `json:"tax"`
}

// EbayBuyer identifies the buyer
type EbayBuyer struct {
	Username                 string               `json:"username"`
	BuyerRegistrationAddress *EbayRegisteredBuyer `json:"buyerRegistrationAddress"`
}

// EbayRegisteredBuyer is the buyer's registration contact
type EbayRegisteredBuyer struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// EbayLineItem is one purchased item
type EbayLineItem struct {
	LineItemID           string              `json:"lineItemId"`
	LegacyItemID         string              `json:"legacyItemId"`
	Title                string              `json:"title"`
	Total                *EbayAmount         `json:"total"`
	EbayCollectAndRemit  []EbayCollectedTax  `json:"ebayCollectAndRemitTaxes"`
}

// EbayCollectedTax is tax eBay collects on the seller's behalf
type EbayCollectedTax struct {
	TaxType string      `json:"taxType"`
	Amount  *EbayAmount `json:"amount"`
}

// EbayFulfillment describes where and how to ship
type EbayFulfillment struct {
	ShippingStep *EbayShippingStep `json:"shippingStep"`
}

// EbayShippingStep carries the ship-to contact and service
type EbayShippingStep struct {
	ShippingServiceCode string       `json:"shippingServiceCode"`
	ShippingCarrierCode string       `json:"shippingCarrierCode"`
	ShipTo              *EbayContact `json:"shipTo"`
}

// EbayContact is a named address
type EbayContact struct {
	FullName       string       `json:"fullName"`
	Email          string       `json:"email"`
	ContactAddress *EbayAddress `json:"contactAddress"`
}

// EbayAddress is a postal address
type EbayAddress struct {
	AddressLine1    string `json:"addressLine1"`
	AddressLine2    string `json:"addressLine2"`
	City            string `json:"city"`
	StateOrProvince string `json:"stateOrProvince"`
	PostalCode      string `json:"postalCode"`
	CountryCode     string `json:"countryCode"`
}

// EbayCancelStatus reports buyer or seller cancellation
type EbayCancelStatus struct {
	CancelState string `json:"cancelState"`
}
