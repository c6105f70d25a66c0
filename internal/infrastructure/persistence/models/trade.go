package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ShippingAddressModel is embedded into orders with a ship_ column prefix
type ShippingAddressModel struct {
	Line1      string `gorm:"type:varchar(200)"`
	Line2      string `gorm:"type:varchar(200)"`
	City       string `gorm:"type:varchar(100)"`
	State      string `gorm:"type:varchar(100)"`
	PostalCode string `gorm:"type:varchar(20)"`
	Country    string `gorm:"type:varchar(2)"`
}

// OrderModel is the persistence model for a canonical order.
// (channel, channel_order_id) is unique so a retried ingestion cannot create a second row.
type OrderModel struct {
	AggregateModel
	ProductID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	SellerID             uuid.UUID            `gorm:"type:uuid;not null;index:idx_order_seller_sold,priority:1"`
	Channel              string               `gorm:"type:varchar(20);not null;uniqueIndex:idx_order_channel_order,priority:1"`
	ChannelOrderID       string               `gorm:"type:varchar(100);not null;uniqueIndex:idx_order_channel_order,priority:2"`
	ChannelListingID     *string              `gorm:"type:varchar(100)"`
	ChannelTransactionID *string              `gorm:"type:varchar(100)"`
	BuyerPaid            decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	SellerPaid           decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount            decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Currency             string               `gorm:"type:varchar(3);not null"`
	SoldAt               time.Time            `gorm:"not null;index:idx_order_seller_sold,priority:2"`
	BuyerName            string               `gorm:"type:varchar(200)"`
	BuyerEmail           string               `gorm:"type:varchar(200)"`
	BuyerUsername        string               `gorm:"type:varchar(100)"`
	Address              ShippingAddressModel `gorm:"embedded;embeddedPrefix:ship_"`
	ShippingStatus       string               `gorm:"type:varchar(20);not null;default:'pending'"`
	ShippingMethod       string               `gorm:"type:varchar(100)"`
	Carrier              string               `gorm:"type:varchar(100)"`
	TrackingNumber       string               `gorm:"type:varchar(100)"`
	ShippedAt            *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain entity
func (m *OrderModel) ToDomain() *trade.Order {
	return &trade.Order{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		ProductID:            m.ProductID,
		SellerID:             m.SellerID,
		Channel:              integration.Channel(m.Channel),
		ChannelOrderID:       m.ChannelOrderID,
		ChannelListingID:     m.ChannelListingID,
		ChannelTransactionID: m.ChannelTransactionID,
		BuyerPaid:            m.BuyerPaid,
		SellerPaid:           m.SellerPaid,
		TaxAmount:            m.TaxAmount,
		Currency:             m.Currency,
		SoldAt:               m.SoldAt,
		BuyerName:            m.BuyerName,
		BuyerEmail:           m.BuyerEmail,
		BuyerUsername:        m.BuyerUsername,
		Address: integration.ShippingAddress{
			Line1:      m.Address.Line1,
			Line2:      m.Address.Line2,
			City:       m.Address.City,
			State:      m.Address.State,
			PostalCode: m.Address.PostalCode,
			Country:    m.Address.Country,
		},
		ShippingStatus: trade.ShippingStatus(m.ShippingStatus),
		ShippingMethod: m.ShippingMethod,
		Carrier:        m.Carrier,
		TrackingNumber: m.TrackingNumber,
		ShippedAt:      m.ShippedAt,
	}
}

// FromDomain populates the persistence model from a domain entity
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.ProductID = o.ProductID
	m.SellerID = o.SellerID
	m.Channel = string(o.Channel)
	m.ChannelOrderID = o.ChannelOrderID
	m.ChannelListingID = o.ChannelListingID
	m.ChannelTransactionID = o.ChannelTransactionID
	m.BuyerPaid = o.BuyerPaid
	m.SellerPaid = o.SellerPaid
	m.TaxAmount = o.TaxAmount
	m.Currency = o.Currency
	m.SoldAt = o.SoldAt
	m.BuyerName = o.BuyerName
	m.BuyerEmail = o.BuyerEmail
	m.BuyerUsername = o.BuyerUsername
	m.Address = ShippingAddressModel{
		Line1:      o.Address.Line1,
		Line2:      o.Address.Line2,
		City:       o.Address.City,
		State:      o.Address.State,
		PostalCode: o.Address.PostalCode,
		Country:    o.Address.Country,
	}
	m.ShippingStatus = string(o.ShippingStatus)
	m.ShippingMethod = o.ShippingMethod
	m.Carrier = o.Carrier
	m.TrackingNumber = o.TrackingNumber
	m.ShippedAt = o.ShippedAt
}

// OrderModelFromDomain creates a new persistence model from a domain entity
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
