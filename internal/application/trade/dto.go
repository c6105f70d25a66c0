package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderListFilter represents filter options for the order search
type OrderListFilter struct {
	SellerID       string     `form:"seller_id" binding:"omitempty,uuid"`
	ProductID      string     `form:"product_id" binding:"omitempty,uuid"`
	Channel        string     `form:"channel" binding:"omitempty,channel"`
	ShippingStatus string     `form:"shipping_status" binding:"omitempty,oneof=pending shipped delivered cancelled"`
	StartDate      *time.Time `form:"start_date" time_format:"2006-01-02T15:04:05Z07:00"`
	EndDate        *time.Time `form:"end_date" time_format:"2006-01-02T15:04:05Z07:00"`
	Search         string     `form:"search" binding:"max=200"`
	SortBy         string     `form:"sort_by" binding:"omitempty,oneof=sold_at buyer_paid seller_paid created_at"`
	SortOrder      string     `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UpdateShippingRequest is a partial update of an order's shipping fields
type UpdateShippingRequest struct {
	Status         *string `json:"status" binding:"omitempty,oneof=pending shipped delivered cancelled"`
	Method         *string `json:"method" binding:"omitempty,max=100"`
	Carrier        *string `json:"carrier" binding:"omitempty,max=100"`
	TrackingNumber *string `json:"tracking_number" binding:"omitempty,max=100"`
}

// MarkShippedRequest marks an order as shipped
type MarkShippedRequest struct {
	Carrier        string     `json:"carrier" binding:"max=100"`
	TrackingNumber string     `json:"tracking_number" binding:"max=100"`
	ShippedAt      *time.Time `json:"shipped_at"`
}

// AddressResponse is the buyer's shipping address
type AddressResponse struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	ProductID            uuid.UUID           `json:"product_id"`
	SellerID             uuid.UUID           `json:"seller_id"`
	Channel              integration.Channel `json:"channel"`
	ChannelName          string              `json:"channel_name"`
	ChannelOrderID       string              `json:"channel_order_id"`
	ChannelListingID     *string             `json:"channel_listing_id,omitempty"`
	ChannelTransactionID *string             `json:"channel_transaction_id,omitempty"`
	BuyerPaid            decimal.Decimal     `json:"buyer_paid"`
	SellerPaid           decimal.Decimal     `json:"seller_paid"`
	TaxAmount            decimal.Decimal     `json:"tax_amount"`
	Currency             string              `json:"currency"`
	SoldAt               time.Time           `json:"sold_at"`
	BuyerName            string              `json:"buyer_name,omitempty"`
	BuyerEmail           string              `json:"buyer_email,omitempty"`
	BuyerUsername        string              `json:"buyer_username,omitempty"`
	Address              AddressResponse     `json:"address"`
	ShippingStatus       string              `json:"shipping_status"`
	ShippingMethod       string              `json:"shipping_method,omitempty"`
	Carrier              string              `json:"carrier,omitempty"`
	TrackingNumber       string              `json:"tracking_number,omitempty"`
	ShippedAt            *time.Time          `json:"shipped_at,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// OrderListItemResponse is the condensed order shape used in search results
type OrderListItemResponse struct {
	ID             uuid.UUID           `json:"id"`
	ProductID      uuid.UUID           `json:"product_id"`
	Channel        integration.Channel `json:"channel"`
	ChannelOrderID string              `json:"channel_order_id"`
	BuyerName      string              `json:"buyer_name,omitempty"`
	BuyerPaid      decimal.Decimal     `json:"buyer_paid"`
	SellerPaid     decimal.Decimal     `json:"seller_paid"`
	Currency       string              `json:"currency"`
	SoldAt         time.Time           `json:"sold_at"`
	ShippingStatus string              `json:"shipping_status"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *trade.Order) OrderResponse {
	return OrderResponse{
		ID:                   o.ID,
		ProductID:            o.ProductID,
		SellerID:             o.SellerID,
		Channel:              o.Channel,
		ChannelName:          o.Channel.DisplayName(),
		ChannelOrderID:       o.ChannelOrderID,
		ChannelListingID:     o.ChannelListingID,
		ChannelTransactionID: o.ChannelTransactionID,
		BuyerPaid:            o.BuyerPaid,
		SellerPaid:           o.SellerPaid,
		TaxAmount:            o.TaxAmount,
		Currency:             o.Currency,
		SoldAt:               o.SoldAt,
		BuyerName:            o.BuyerName,
		BuyerEmail:           o.BuyerEmail,
		BuyerUsername:        o.BuyerUsername,
		Address: AddressResponse{
			Line1:      o.Address.Line1,
			Line2:      o.Address.Line2,
			City:       o.Address.City,
			State:      o.Address.State,
			PostalCode: o.Address.PostalCode,
			Country:    o.Address.Country,
		},
		ShippingStatus: string(o.ShippingStatus),
		ShippingMethod: o.ShippingMethod,
		Carrier:        o.Carrier,
		TrackingNumber: o.TrackingNumber,
		ShippedAt:      o.ShippedAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// ToOrderListItemResponses converts domain orders to list items
func ToOrderListItemResponses(orders []trade.Order) []OrderListItemResponse {
	out := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		out[i] = OrderListItemResponse{
			ID:             o.ID,
			ProductID:      o.ProductID,
			Channel:        o.Channel,
			ChannelOrderID: o.ChannelOrderID,
			BuyerName:      o.BuyerName,
			BuyerPaid:      o.BuyerPaid,
			SellerPaid:     o.SellerPaid,
			Currency:       o.Currency,
			SoldAt:         o.SoldAt,
			ShippingStatus: string(o.ShippingStatus),
		}
	}
	return out
}
