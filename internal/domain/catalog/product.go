package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the inventory status of a product
type ProductStatus string

const (
	ProductStatusDraft         ProductStatus = "draft"
	ProductStatusActive        ProductStatus = "active"
	ProductStatusSold          ProductStatus = "sold"
	ProductStatusDeactivated   ProductStatus = "deactivated"
	ProductStatusPendingAction ProductStatus = "pendingAction"
)

// IsValid checks if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusSold,
		ProductStatusDeactivated, ProductStatusPendingAction:
		return true
	}
	return false
}

func (s ProductStatus) String() string {
	return string(s)
}

// transitions lists every allowed edge. pendingAction -> draft is the only reverse edge.
var transitions = map[ProductStatus][]ProductStatus{
	ProductStatusDraft:         {ProductStatusActive, ProductStatusPendingAction},
	ProductStatusActive:        {ProductStatusSold, ProductStatusDeactivated},
	ProductStatusSold:          {ProductStatusDeactivated},
	ProductStatusDeactivated:   {ProductStatusPendingAction},
	ProductStatusPendingAction: {ProductStatusDraft},
}

var (
	ErrProductNotFound      = shared.ErrNotFound.Refine("PRODUCT_NOT_FOUND", "Product not found")
	ErrSellerNotFound       = shared.ErrNotFound.Refine("SELLER_NOT_FOUND", "Seller not found")
	ErrInvalidProductStatus = shared.ErrInvalidInput.Refine("INVALID_PRODUCT_STATUS", "Invalid product status")
	ErrInvalidTransition    = shared.ErrInvalidState.Refine("INVALID_STATUS_TRANSITION", "Product status transition is not allowed")
	ErrInvalidPrice         = shared.ErrInvalidInput.Refine("INVALID_PRICE", "Price cannot be negative")
)

// Product is a single sellable item owned by a seller.
// Its Status is only changed through the transition methods below.
type Product struct {
	shared.BaseAggregateRoot
	SellerID uuid.UUID
	Title    string
	Price    decimal.Decimal
	Currency string
	Status   ProductStatus
}

// NewProduct creates a draft product
func NewProduct(sellerID uuid.UUID, title string, price decimal.Decimal, currency string) (*Product, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewValidationError("Seller ID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewValidationError("Product title cannot be empty")
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if currency == "" {
		currency = "USD"
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SellerID:          sellerID,
		Title:             title,
		Price:             price,
		Currency:          strings.ToUpper(currency),
		Status:            ProductStatusDraft,
	}, nil
}

// CanTransitionTo reports whether target is reachable in one step.
// The current status is always reachable.
func (p *Product) CanTransitionTo(target ProductStatus) bool {
	if p.Status == target {
		return true
	}
	for _, next := range transitions[p.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the product to target.
// Re-applying the current status is a no-op and returns changed=false.
func (p *Product) TransitionTo(target ProductStatus) (changed bool, err error) {
	if !target.IsValid() {
		return false, ErrInvalidProductStatus
	}
	if p.Status == target {
		return false, nil
	}
	if !p.CanTransitionTo(target) {
		return false, ErrInvalidTransition.Refine(ErrInvalidTransition.Code,
			"Cannot move product from "+string(p.Status)+" to "+string(target))
	}
	p.apply(target)
	return true, nil
}

// Activate publishes a draft product
func (p *Product) Activate() (bool, error) {
	return p.TransitionTo(ProductStatusActive)
}

// MarkSold marks an active product as sold
func (p *Product) MarkSold() (bool, error) {
	return p.TransitionTo(ProductStatusSold)
}

// Deactivate hides an active or sold product
func (p *Product) Deactivate() (bool, error) {
	return p.TransitionTo(ProductStatusDeactivated)
}

// FlagForReview sends a draft or deactivated product to manual review
func (p *Product) FlagForReview() (bool, error) {
	return p.TransitionTo(ProductStatusPendingAction)
}

// ResetToDraft returns a reviewed product to draft
func (p *Product) ResetToDraft() (bool, error) {
	return p.TransitionTo(ProductStatusDraft)
}

// RecordSale applies a sale reported by a channel.
// A channel sale is a fact, so it moves the product to sold from any status;
// the previous status is returned so callers can flag unexpected sources.
func (p *Product) RecordSale() (changed bool, previous ProductStatus) {
	previous = p.Status
	if p.Status == ProductStatusSold {
		return false, previous
	}
	p.apply(ProductStatusSold)
	return true, previous
}

// IsSold returns true if the product is sold
func (p *Product) IsSold() bool {
	return p.Status == ProductStatusSold
}

func (p *Product) apply(target ProductStatus) {
	from := p.Status
	p.Status = target
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, from, target))
}
