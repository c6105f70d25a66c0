package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// SellerModel is the persistence model for sellers
type SellerModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SellerModel) TableName() string {
	return "sellers"
}

// ToDomain converts the persistence model to a domain entity
func (m *SellerModel) ToDomain() *catalog.Seller {
	return &catalog.Seller{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

// ProductModel is the persistence model for the sellable item
type ProductModel struct {
	AggregateModel
	SellerID uuid.UUID       `gorm:"type:uuid;not null;index:idx_product_seller_status,priority:1"`
	Title    string          `gorm:"type:varchar(500);not null"`
	Price    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Status   string          `gorm:"type:varchar(20);not null;default:'draft';index:idx_product_seller_status,priority:2"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain entity
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SellerID:          m.SellerID,
		Title:             m.Title,
		Price:             m.Price,
		Currency:          m.Currency,
		Status:            catalog.ProductStatus(m.Status),
	}
}

// FromDomain populates the persistence model from a domain entity
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SellerID = p.SellerID
	m.Title = p.Title
	m.Price = p.Price
	m.Currency = p.Currency
	m.Status = string(p.Status)
}

// ProductModelFromDomain creates a new persistence model from a domain entity
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
