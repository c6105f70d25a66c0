package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/domain/trade"
	"github.com/marketsync/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Delister is the part of the coordinator ingestion depends on
type Delister interface {
	Delist(ctx context.Context, productID uuid.UUID, soldChannel integration.Channel) (*DelistResult, error)
}

// IngestOrderInput is one sale notification from a channel
type IngestOrderInput struct {
	Channel string
	Payload []byte
	// ProductID skips listing resolution when the caller already knows the product
	ProductID *uuid.UUID
}

// IngestResult describes what ingestion did
type IngestResult struct {
	Order *trade.Order
	// Duplicate is true when the sale had already been recorded; nothing was written
	Duplicate bool
	Delist    *DelistResult
	// PartialFailure is true when the sale was recorded but some sibling
	// listings could not be delisted and were queued for retry
	PartialFailure bool
}

// OrderIngestionService records channel sales exactly once and drives the
// product to sold and its sibling listings off the other channels.
type OrderIngestionService struct {
	adapters       integration.AdapterRegistry
	orderRepo      trade.OrderRepository
	listingRepo    integration.ListingRepository
	productRepo    catalog.ProductRepository
	recorder       trade.SaleRecorder
	delister       Delister
	claims         shared.ClaimStore
	claimTTL       time.Duration
	eventPublisher shared.EventPublisher
	metrics        IngestionMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// IngestionOption configures an OrderIngestionService
type IngestionOption func(*OrderIngestionService)

// WithClaimStore enables the in-flight claim fast path
func WithClaimStore(claims shared.ClaimStore, ttl time.Duration) IngestionOption {
	return func(s *OrderIngestionService) {
		s.claims = claims
		if ttl > 0 {
			s.claimTTL = ttl
		}
	}
}

// WithIngestionMetrics sets the metrics sink
func WithIngestionMetrics(m IngestionMetrics) IngestionOption {
	return func(s *OrderIngestionService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithIngestionLogger sets the logger
func WithIngestionLogger(logger *zap.Logger) IngestionOption {
	return func(s *OrderIngestionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used to validate sold timestamps
func WithClock(now func() time.Time) IngestionOption {
	return func(s *OrderIngestionService) {
		s.now = now
	}
}

// NewOrderIngestionService creates a new OrderIngestionService
func NewOrderIngestionService(
	adapters integration.AdapterRegistry,
	orderRepo trade.OrderRepository,
	listingRepo integration.ListingRepository,
	productRepo catalog.ProductRepository,
	recorder trade.SaleRecorder,
	delister Delister,
	opts ...IngestionOption,
) *OrderIngestionService {
	s := &OrderIngestionService{
		adapters:    adapters,
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		productRepo: productRepo,
		recorder:    recorder,
		delister:    delister,
		claimTTL:    shared.DefaultClaimConfig().TTL,
		metrics:     noopMetrics{},
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for order and product events
func (s *OrderIngestionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// IngestOrder records one external sale.
//
// Redelivery of a recorded sale returns the stored order with Duplicate set and
// writes nothing. Malformed payloads and unresolvable products fail before any
// write. Once the order is stored, delisting problems never fail the call.
func (s *OrderIngestionService) IngestOrder(ctx context.Context, in IngestOrderInput) (*IngestResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_ingestion", "ingest",
		telemetry.WithAttribute(telemetry.SpanAttrChannel, in.Channel))
	defer span.End()

	result, err := s.ingest(ctx, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, result.Order.ID,
		telemetry.SpanAttrChannelOrderID, result.Order.ChannelOrderID,
		"duplicate", result.Duplicate,
		"partial_failure", result.PartialFailure,
	)
	return result, nil
}

func (s *OrderIngestionService) ingest(ctx context.Context, in IngestOrderInput) (*IngestResult, error) {
	started := s.now()

	channel, err := integration.ParseChannel(in.Channel)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("channel", string(channel)))

	data, err := s.normalize(channel, in.Payload)
	if err != nil {
		s.metrics.IngestFailed(ctx, channel, "invalid_payload")
		return nil, err
	}
	log = log.With(zap.String("channel_order_id", data.ChannelOrderID))

	if existing, err := s.findExisting(ctx, data); err != nil || existing != nil {
		if err != nil {
			s.metrics.IngestFailed(ctx, channel, "store")
			return nil, err
		}
		return s.duplicate(ctx, log, existing), nil
	}

	release, err := s.claim(ctx, log, data)
	if err != nil {
		return nil, err
	}
	defer release()

	product, err := s.resolveProduct(ctx, data, in.ProductID)
	if err != nil {
		reason := "store"
		if shared.IsNotFound(err) {
			reason = "product_not_found"
		}
		s.metrics.IngestFailed(ctx, channel, reason)
		return nil, err
	}

	order, err := trade.NewOrderFromCanonical(data, product.ID, product.SellerID)
	if err != nil {
		return nil, err
	}
	if _, previous := product.RecordSale(); previous != catalog.ProductStatusActive && previous != catalog.ProductStatusSold {
		log.Warn("Sale recorded for product that was not active",
			zap.String("product_id", product.ID.String()),
			zap.String("previous_status", string(previous)),
		)
	}

	if err := s.recorder.RecordSale(ctx, order, product); err != nil {
		if errors.Is(err, trade.ErrDuplicateChannelOrder) {
			// Lost the insert race to a concurrent delivery
			existing, ferr := s.orderRepo.FindByChannelOrderID(ctx, channel, data.ChannelOrderID)
			if ferr != nil {
				return nil, ferr
			}
			return s.duplicate(ctx, log, existing), nil
		}
		s.metrics.IngestFailed(ctx, channel, "store")
		return nil, err
	}

	result := &IngestResult{Order: order}
	s.publish(ctx, log, order.GetDomainEvents()...)
	s.publish(ctx, log, product.GetDomainEvents()...)
	order.ClearDomainEvents()
	product.ClearDomainEvents()

	delist, err := s.delister.Delist(ctx, product.ID, channel)
	result.Delist = delist
	switch {
	case err != nil:
		result.PartialFailure = true
		log.Error("Sale recorded but delisting did not complete",
			zap.String("order_id", order.ID.String()),
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	case delist != nil && delist.Failed > 0:
		result.PartialFailure = true
		log.Warn("Sale recorded with queued delist retries",
			zap.String("order_id", order.ID.String()),
			zap.Int("failed", delist.Failed),
		)
	}

	s.metrics.OrderIngested(ctx, channel, s.now().Sub(started))
	log.Info("Order ingested",
		zap.String("order_id", order.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("seller_paid", order.SellerPaid.StringFixed(2)),
	)
	return result, nil
}

func (s *OrderIngestionService) normalize(channel integration.Channel, payload []byte) (*integration.CanonicalOrderData, error) {
	adapter, err := s.adapters.Adapter(channel)
	if err != nil {
		return nil, err
	}
	data, err := adapter.Normalize(payload)
	if err != nil {
		return nil, err
	}
	if err := data.Validate(s.now()); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *OrderIngestionService) findExisting(ctx context.Context, data *integration.CanonicalOrderData) (*trade.Order, error) {
	existing, err := s.orderRepo.FindByChannelOrderID(ctx, data.Channel, data.ChannelOrderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}

func (s *OrderIngestionService) duplicate(ctx context.Context, log *zap.Logger, existing *trade.Order) *IngestResult {
	s.metrics.OrderDuplicate(ctx, existing.Channel)
	log.Info("Duplicate delivery ignored", zap.String("order_id", existing.ID.String()))
	return &IngestResult{Order: existing, Duplicate: true}
}

// claim takes the in-flight claim for the sale. A claim store failure is
// logged and ignored since the order table's unique key still decides.
func (s *OrderIngestionService) claim(ctx context.Context, log *zap.Logger, data *integration.CanonicalOrderData) (func(), error) {
	noop := func() {}
	if s.claims == nil {
		return noop, nil
	}

	key := "ingest:" + data.DedupKey()
	ok, err := s.claims.Claim(ctx, key, s.claimTTL)
	if err != nil {
		log.Warn("Claim store unavailable, relying on order uniqueness", zap.Error(err))
		return noop, nil
	}
	if !ok {
		s.metrics.IngestFailed(ctx, data.Channel, "in_progress")
		return nil, trade.ErrIngestionInProgress
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.claims.Release(rctx, key); err != nil {
			log.Warn("Failed to release ingestion claim", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *OrderIngestionService) resolveProduct(ctx context.Context, data *integration.CanonicalOrderData, productID *uuid.UUID) (*catalog.Product, error) {
	if productID != nil && *productID != uuid.Nil {
		return s.productRepo.FindByID(ctx, *productID)
	}
	if data.ChannelListingID == "" {
		return nil, catalog.ErrProductNotFound.Refine(catalog.ErrProductNotFound.Code,
			"Sale carries no listing id and no product id was given")
	}

	listing, err := s.listingRepo.FindByChannelAndMarketplaceID(ctx, data.Channel, data.ChannelListingID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, catalog.ErrProductNotFound.Refine(catalog.ErrProductNotFound.Code,
				"No product is listed under "+data.Channel.DisplayName()+" listing "+data.ChannelListingID)
		}
		return nil, err
	}
	return s.productRepo.FindByID(ctx, listing.ProductID)
}

func (s *OrderIngestionService) publish(ctx context.Context, log *zap.Logger, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		log.Warn("Failed to publish domain events", zap.Error(err))
	}
}
