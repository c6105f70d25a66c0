package catalog

import (
	"context"

	"github.com/google/uuid"
	appintegration "github.com/marketsync/backend/internal/application/integration"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductStatusService applies seller-initiated status changes.
// Sales reported by channels go through ingestion instead.
type ProductStatusService struct {
	productRepo    catalog.ProductRepository
	sellerRepo     catalog.SellerRepository
	delister       appintegration.Delister
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductStatusService creates a new ProductStatusService.
// delister may be nil, in which case status changes never touch listings.
func NewProductStatusService(
	productRepo catalog.ProductRepository,
	sellerRepo catalog.SellerRepository,
	delister appintegration.Delister,
	logger *zap.Logger,
) *ProductStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductStatusService{
		productRepo: productRepo,
		sellerRepo:  sellerRepo,
		delister:    delister,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for status events
func (s *ProductStatusService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetProduct retrieves a product by ID
func (s *ProductStatusService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// ListSellerProducts returns a seller's products, optionally narrowed to one status
func (s *ProductStatusService) ListSellerProducts(ctx context.Context, sellerID uuid.UUID, filter ProductListFilter) ([]ProductResponse, error) {
	if _, err := s.sellerRepo.FindByID(ctx, sellerID); err != nil {
		return nil, err
	}

	var statuses []catalog.ProductStatus
	if filter.Status != "" {
		status := catalog.ProductStatus(filter.Status)
		if !status.IsValid() {
			return nil, catalog.ErrInvalidProductStatus
		}
		statuses = append(statuses, status)
	}

	products, err := s.productRepo.FindBySeller(ctx, sellerID, statuses...)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// ChangeStatus moves a product to target along an allowed edge.
// Re-applying the current status returns the product with Changed=false.
// Moving to sold or deactivated takes the product off every channel.
func (s *ProductStatusService) ChangeStatus(ctx context.Context, productID uuid.UUID, target string) (*ChangeStatusResponse, error) {
	status := catalog.ProductStatus(target)
	if !status.IsValid() {
		return nil, catalog.ErrInvalidProductStatus
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	from := product.Status
	changed, err := product.TransitionTo(status)
	if err != nil {
		return nil, err
	}

	resp := &ChangeStatusResponse{Changed: changed}
	if changed {
		if err := s.productRepo.Save(ctx, product); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, product)
		s.logger.Info("Product status changed",
			zap.String("product_id", product.ID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
		)

		if s.delister != nil && withdrawsListings(status) {
			// An empty sale channel selects every channel
			result, err := s.delister.Delist(ctx, product.ID, integration.Channel(""))
			if err != nil {
				s.logger.Warn("Status changed but listings were not withdrawn",
					zap.String("product_id", product.ID.String()),
					zap.Error(err),
				)
			}
			if result != nil {
				delist := appintegration.ToDelistResponse(result)
				resp.Delist = &delist
			}
		}
	}

	resp.Product = ToProductResponse(product)
	return resp, nil
}

func withdrawsListings(status catalog.ProductStatus) bool {
	return status == catalog.ProductStatusSold || status == catalog.ProductStatusDeactivated
}

func (s *ProductStatusService) publishEvents(ctx context.Context, product *catalog.Product) {
	defer product.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, product.GetDomainEvents()...); err != nil {
		s.logger.Warn("Failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}
}
