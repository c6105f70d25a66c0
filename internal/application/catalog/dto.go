package catalog

import (
	"time"

	"github.com/google/uuid"
	appintegration "github.com/marketsync/backend/internal/application/integration"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ChangeStatusRequest is an explicit status change requested by the seller
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft active sold deactivated pendingAction"`
}

// ProductListFilter narrows a seller's product list
type ProductListFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=draft active sold deactivated pendingAction"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ChangeStatusResponse reports the product after a status change
type ChangeStatusResponse struct {
	Product ProductResponse `json:"product"`
	Changed bool            `json:"changed"`
	// Delist is present when the change took the product off its channels
	Delist *appintegration.DelistResponse `json:"delist,omitempty"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		SellerID:  p.SellerID,
		Title:     p.Title,
		Price:     p.Price,
		Currency:  p.Currency,
		Status:    string(p.Status),
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}
