package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/marketsync/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DelistOutcome is what happened to one sibling listing
type DelistOutcome string

const (
	OutcomeDeactivated DelistOutcome = "deactivated"
	OutcomeRemoved     DelistOutcome = "removed"
	OutcomeUnchanged   DelistOutcome = "unchanged"
	OutcomeQueued      DelistOutcome = "queued"
)

// ListingDelist reports the result for a single listing
type ListingDelist struct {
	Listing integration.MarketplaceListing
	Action  integration.DelistPolicy
	Outcome DelistOutcome
	// TaskID is set when the attempt failed and was queued for retry
	TaskID *uuid.UUID
	Err    error
}

// DelistResult is the joined result of delisting every sibling of a sale
type DelistResult struct {
	ProductID   uuid.UUID
	SoldChannel integration.Channel
	Listings    []ListingDelist
	// ChannelLess is true once no sibling listing advertises the product
	ChannelLess bool
	Failed      int
	// TaskID is set when the listings could not be read and the whole pass
	// was queued as a sweep task
	TaskID *uuid.UUID
}

// OtherListings are the listings of a product outside one channel
type OtherListings struct {
	ProductID uuid.UUID
	Listings  []integration.MarketplaceListing
}

// DelistingCoordinator takes sold products down from every channel
// other than the one that produced the sale.
type DelistingCoordinator struct {
	listingRepo    integration.ListingRepository
	productRepo    catalog.ProductRepository
	taskRepo       integration.DelistTaskRepository
	eventPublisher shared.EventPublisher
	metrics        DelistMetrics
	logger         *zap.Logger
	concurrency    int
	timeout        time.Duration
}

// CoordinatorOption configures a DelistingCoordinator
type CoordinatorOption func(*DelistingCoordinator)

// WithConcurrency bounds how many sibling listings are delisted at once
func WithConcurrency(n int) CoordinatorOption {
	return func(c *DelistingCoordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithDelistTimeout bounds one full delisting pass
func WithDelistTimeout(d time.Duration) CoordinatorOption {
	return func(c *DelistingCoordinator) {
		c.timeout = d
	}
}

// WithDelistMetrics sets the metrics sink
func WithDelistMetrics(m DelistMetrics) CoordinatorOption {
	return func(c *DelistingCoordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithCoordinatorLogger sets the logger
func WithCoordinatorLogger(logger *zap.Logger) CoordinatorOption {
	return func(c *DelistingCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewDelistingCoordinator creates a new DelistingCoordinator
func NewDelistingCoordinator(
	listingRepo integration.ListingRepository,
	productRepo catalog.ProductRepository,
	taskRepo integration.DelistTaskRepository,
	opts ...CoordinatorOption,
) *DelistingCoordinator {
	c := &DelistingCoordinator{
		listingRepo: listingRepo,
		productRepo: productRepo,
		taskRepo:    taskRepo,
		metrics:     noopMetrics{},
		logger:      zap.NewNop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetEventPublisher sets the event publisher for delist events
func (c *DelistingCoordinator) SetEventPublisher(publisher shared.EventPublisher) {
	c.eventPublisher = publisher
}

// FindOtherListings returns the visible listings of a product on channels other
// than soldChannel. id may be a product id or one of its listing ids.
// An empty soldChannel returns every visible listing.
func (c *DelistingCoordinator) FindOtherListings(ctx context.Context, id uuid.UUID, soldChannel integration.Channel) (*OtherListings, error) {
	productID, err := c.resolveProductID(ctx, id)
	if err != nil {
		return nil, err
	}

	listings, err := c.listingRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	others := make([]integration.MarketplaceListing, 0, len(listings))
	for _, l := range listings {
		if l.Channel != soldChannel && l.IsVisible() {
			others = append(others, l)
		}
	}
	return &OtherListings{ProductID: productID, Listings: others}, nil
}

func (c *DelistingCoordinator) resolveProductID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	product, err := c.productRepo.FindByID(ctx, id)
	if err == nil {
		return product.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	listing, lerr := c.listingRepo.FindByID(ctx, id)
	if lerr != nil {
		if errors.Is(lerr, shared.ErrNotFound) {
			return uuid.Nil, catalog.ErrProductNotFound
		}
		return uuid.Nil, lerr
	}
	return listing.ProductID, nil
}

// Delist stops every listing of productID outside soldChannel from advertising it.
// Siblings are processed concurrently and joined before the result is built.
// Per-listing failures do not fail the call: they are queued as DelistTasks
// and counted in Failed. When the listings cannot be read at all, a sweep task
// for the product is queued instead. Re-running Delist on a delisted product
// is a no-op.
func (c *DelistingCoordinator) Delist(ctx context.Context, productID uuid.UUID, soldChannel integration.Channel) (*DelistResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delisting", "delist",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID),
		telemetry.WithAttribute(telemetry.SpanAttrChannel, soldChannel),
	)
	defer span.End()

	result, err := c.delistSiblings(ctx, productID, soldChannel)
	if err == nil {
		return result, nil
	}
	telemetry.RecordError(span, err)
	if result != nil {
		// Listing-level retries could not be queued
		return result, err
	}

	c.metrics.DelistFailed(ctx, soldChannel)
	task := integration.NewSweepTask(productID, soldChannel, err)
	if qerr := c.queue(ctx, task); qerr != nil {
		c.logger.Error("Failed to queue delist sweep",
			zap.String("product_id", productID.String()),
			zap.Error(qerr),
		)
		return nil, errors.Join(err, qerr)
	}
	c.logger.Warn("Listings unreadable, delist sweep queued",
		zap.String("product_id", productID.String()),
		zap.String("task_id", task.ID.String()),
		zap.Error(err),
	)
	return &DelistResult{
		ProductID:   productID,
		SoldChannel: soldChannel,
		Listings:    []ListingDelist{},
		Failed:      1,
		TaskID:      &task.ID,
	}, nil
}

// delistSiblings runs one pass over the product's siblings. A nil result
// with an error means the listings could not be read.
func (c *DelistingCoordinator) delistSiblings(ctx context.Context, productID uuid.UUID, soldChannel integration.Channel) (*DelistResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	listings, err := c.listingRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	siblings := make([]integration.MarketplaceListing, 0, len(listings))
	for _, l := range listings {
		if l.Channel != soldChannel {
			siblings = append(siblings, l)
		}
	}

	result := &DelistResult{
		ProductID:   productID,
		SoldChannel: soldChannel,
		Listings:    c.delistAll(ctx, siblings),
	}
	for i := range result.Listings {
		if result.Listings[i].Outcome == OutcomeQueued {
			result.Failed++
		}
	}
	result.ChannelLess = result.Failed == 0

	if err := c.queueFailed(ctx, result.Listings); err != nil {
		return result, err
	}

	c.logger.Info("Sibling listings delisted",
		zap.String("product_id", productID.String()),
		zap.String("sold_channel", string(soldChannel)),
		zap.Int("siblings", len(siblings)),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// delistAll applies each listing's policy concurrently and joins on all of
// them. Failed listings come back with Outcome queued and a TaskID to save.
func (c *DelistingCoordinator) delistAll(ctx context.Context, listings []integration.MarketplaceListing) []ListingDelist {
	out := make([]ListingDelist, len(listings))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i := range listings {
		g.Go(func() error {
			out[i] = c.delistOne(ctx, listings[i])
			return nil
		})
	}
	_ = g.Wait()

	for i := range out {
		if out[i].Err != nil {
			out[i].Outcome = OutcomeQueued
		}
	}
	return out
}

// queueFailed saves a retry task for every queued listing and records the
// task ids on the results
func (c *DelistingCoordinator) queueFailed(ctx context.Context, results []ListingDelist) error {
	var failed []*integration.DelistTask
	for i := range results {
		if results[i].Outcome != OutcomeQueued {
			continue
		}
		task := integration.NewDelistTask(&results[i].Listing, results[i].Err)
		failed = append(failed, task)
		results[i].TaskID = &task.ID
	}
	if len(failed) == 0 {
		return nil
	}

	if err := c.queue(ctx, failed...); err != nil {
		c.logger.Error("Failed to queue delist retries",
			zap.String("product_id", failed[0].ProductID.String()),
			zap.Int("count", len(failed)),
			zap.Error(err),
		)
		return err
	}
	for _, task := range failed {
		c.publish(ctx, integration.NewListingDelistFailedEvent(task))
	}
	return nil
}

// queue saves tasks with a deadline of its own, since the caller's deadline
// may be what failed. Saving is attempted a few times before giving up.
func (c *DelistingCoordinator) queue(ctx context.Context, tasks ...*integration.DelistTask) error {
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var err error
	backoff := 100 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if err = c.taskRepo.Save(qctx, tasks...); err == nil {
			return nil
		}
		select {
		case <-qctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// delistOne applies the listing's channel policy. Safe to run concurrently
// for different listings.
func (c *DelistingCoordinator) delistOne(ctx context.Context, l integration.MarketplaceListing) ListingDelist {
	action := l.Channel.DelistPolicy()
	outcome, err := c.apply(ctx, &l, action)
	res := ListingDelist{Listing: l, Action: action, Outcome: outcome, Err: err}

	if err != nil {
		c.metrics.DelistFailed(ctx, l.Channel)
		c.logger.Warn("Delist failed, queueing retry",
			zap.String("listing_id", l.ID.String()),
			zap.String("channel", string(l.Channel)),
			zap.Error(err),
		)
		return res
	}
	if outcome != OutcomeUnchanged {
		c.metrics.ListingDelisted(ctx, l.Channel, action)
		c.publish(ctx, integration.NewListingDelistedEvent(&l, action))
	}
	return res
}

func (c *DelistingCoordinator) apply(ctx context.Context, l *integration.MarketplaceListing, action integration.DelistPolicy) (DelistOutcome, error) {
	if action == integration.DelistSoft {
		if !l.Deactivate() {
			return OutcomeUnchanged, nil
		}
		if err := c.listingRepo.Save(ctx, l); err != nil {
			return "", err
		}
		return OutcomeDeactivated, nil
	}

	if err := c.listingRepo.Delete(ctx, l.ID); err != nil {
		return "", err
	}
	return OutcomeRemoved, nil
}

// RemoveListing deletes the product's listing on channel.
// A product with no listing on that channel is left as is.
func (c *DelistingCoordinator) RemoveListing(ctx context.Context, productID uuid.UUID, channel integration.Channel) (*ListingDelist, error) {
	if !channel.IsValid() {
		return nil, integration.ErrChannelNotSupported
	}
	if _, err := c.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	listings, err := c.listingRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		if l.Channel != channel {
			continue
		}
		if err := c.listingRepo.Delete(ctx, l.ID); err != nil {
			return nil, err
		}
		c.metrics.ListingDelisted(ctx, channel, integration.DelistHard)
		c.publish(ctx, integration.NewListingDelistedEvent(&l, integration.DelistHard))
		return &ListingDelist{Listing: l, Action: integration.DelistHard, Outcome: OutcomeRemoved}, nil
	}

	return &ListingDelist{
		Listing: integration.MarketplaceListing{ProductID: productID, Channel: channel},
		Action:  integration.DelistHard,
		Outcome: OutcomeUnchanged,
	}, nil
}

// DelistChannel takes the product's listing on channel down using that
// channel's delist policy. A missing or already inactive listing is left as is.
func (c *DelistingCoordinator) DelistChannel(ctx context.Context, productID uuid.UUID, channel integration.Channel) (*ListingDelist, error) {
	if !channel.IsValid() {
		return nil, integration.ErrChannelNotSupported
	}
	if _, err := c.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	listings, err := c.listingRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		if l.Channel != channel {
			continue
		}
		action := channel.DelistPolicy()
		outcome, err := c.apply(ctx, &l, action)
		if err != nil {
			c.metrics.DelistFailed(ctx, channel)
			return nil, err
		}
		if outcome != OutcomeUnchanged {
			c.metrics.ListingDelisted(ctx, channel, action)
			c.publish(ctx, integration.NewListingDelistedEvent(&l, action))
		}
		return &ListingDelist{Listing: l, Action: action, Outcome: outcome}, nil
	}

	return &ListingDelist{
		Listing: integration.MarketplaceListing{ProductID: productID, Channel: channel},
		Action:  channel.DelistPolicy(),
		Outcome: OutcomeUnchanged,
	}, nil
}

// SweepStranded delists visible siblings of products sold before soldBefore
// whose own pass never finished. Failures are queued like any other sibling.
// It returns how many listings were taken down.
func (c *DelistingCoordinator) SweepStranded(ctx context.Context, soldBefore time.Time, limit int) (int, error) {
	stranded, err := c.listingRepo.FindStranded(ctx, soldBefore, limit)
	if err != nil {
		return 0, err
	}
	if len(stranded) == 0 {
		return 0, nil
	}

	results := c.delistAll(ctx, stranded)
	delisted := 0
	for _, r := range results {
		if r.Outcome == OutcomeDeactivated || r.Outcome == OutcomeRemoved {
			delisted++
		}
	}
	if err := c.queueFailed(ctx, results); err != nil {
		return delisted, err
	}

	c.logger.Warn("Stranded listings swept",
		zap.Int("found", len(stranded)),
		zap.Int("delisted", delisted),
	)
	return delisted, nil
}

// RetryTask re-applies a queued delist. A listing that no longer exists
// counts as delisted. A sweep task re-runs the sibling pass; listings that
// fail again are queued as tasks of their own.
func (c *DelistingCoordinator) RetryTask(ctx context.Context, task *integration.DelistTask) error {
	if task.IsSweep() {
		_, err := c.delistSiblings(ctx, task.ProductID, task.Channel)
		return err
	}

	listing, err := c.listingRepo.FindByID(ctx, task.ListingID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	outcome, err := c.apply(ctx, listing, task.Action)
	if err != nil {
		return err
	}
	if outcome != OutcomeUnchanged {
		c.metrics.ListingDelisted(ctx, listing.Channel, task.Action)
		c.publish(ctx, integration.NewListingDelistedEvent(listing, task.Action))
	}
	return nil
}

// RecordDeadTask reports a task that ran out of retries
func (c *DelistingCoordinator) RecordDeadTask(ctx context.Context, task *integration.DelistTask) {
	c.metrics.DelistTaskDead(ctx, task.Channel)
	c.logger.Error("Delist task exhausted its retries",
		zap.String("task_id", task.ID.String()),
		zap.String("listing_id", task.ListingID.String()),
		zap.String("channel", string(task.Channel)),
		zap.String("last_error", task.LastError),
	)
}

func (c *DelistingCoordinator) publish(ctx context.Context, event shared.DomainEvent) {
	if c.eventPublisher == nil {
		return
	}
	if err := c.eventPublisher.Publish(ctx, event); err != nil {
		c.logger.Warn("Failed to publish delist event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}
