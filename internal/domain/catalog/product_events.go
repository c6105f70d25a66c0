package catalog

import (
	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/shared"
)

const AggregateTypeProduct = "Product"

const EventTypeProductStatusChanged = "ProductStatusChanged"

// ProductStatusChangedEvent is published whenever a product changes status
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID     `json:"product_id"`
	SellerID  uuid.UUID     `json:"seller_id"`
	OldStatus ProductStatus `json:"old_status"`
	NewStatus ProductStatus `json:"new_status"`
}

// NewProductStatusChangedEvent creates a new ProductStatusChangedEvent
func NewProductStatusChangedEvent(p *Product, from, to ProductStatus) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStatusChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		SellerID:        p.SellerID,
		OldStatus:       from,
		NewStatus:       to,
	}
}
