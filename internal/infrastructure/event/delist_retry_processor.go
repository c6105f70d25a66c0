package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DelistRetrier re-applies a queued delist against the listing store
type DelistRetrier interface {
	RetryTask(ctx context.Context, task *integration.DelistTask) error
	RecordDeadTask(ctx context.Context, task *integration.DelistTask)
	// SweepStranded delists siblings of products sold before soldBefore that
	// no task covers, returning how many were taken down
	SweepStranded(ctx context.Context, soldBefore time.Time, limit int) (int, error)
}

// writeTimeout bounds task writes made after the poll context is done
const writeTimeout = 5 * time.Second

// DefaultDelistRetryConfig returns the settings used when none are configured
func DefaultDelistRetryConfig() config.DelistRetryConfig {
	return config.DelistRetryConfig{
		Enabled:          true,
		BatchSize:        50,
		PollInterval:     10 * time.Second,
		MaxRetries:       integration.DefaultDelistMaxRetries,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
		ClaimLease:       5 * time.Minute,
	}
}

// DelistRetryProcessor works the delist task queue in the background.
// It runs as a supervised service; Serve returns when ctx is cancelled.
type DelistRetryProcessor struct {
	repo    integration.DelistTaskRepository
	retrier DelistRetrier
	config  config.DelistRetryConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewDelistRetryProcessor creates a new delist retry processor
func NewDelistRetryProcessor(
	repo integration.DelistTaskRepository,
	retrier DelistRetrier,
	cfg config.DelistRetryConfig,
	logger *zap.Logger,
) *DelistRetryProcessor {
	def := DefaultDelistRetryConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = def.ClaimLease
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DelistRetryProcessor{
		repo:    repo,
		retrier: retrier,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Serve implements suture.Service
func (p *DelistRetryProcessor) Serve(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.processLoop(ctx)
	}()

	if p.config.CleanupRetention > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.cleanupLoop(ctx)
		}()
	}

	p.logger.Info("delist retry processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)

	wg.Wait()
	p.logger.Info("delist retry processor stopped")
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs
func (p *DelistRetryProcessor) String() string {
	return "delist-retry-processor"
}

func (p *DelistRetryProcessor) processLoop(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

// processBatch requeues expired claims, works pending tasks, then failed
// ones that are due, and finally sweeps listings no task covers
func (p *DelistRetryProcessor) processBatch(ctx context.Context) {
	p.releaseStale(ctx)

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending delist tasks", zap.Error(err))
		return
	}
	if len(pending) > 0 {
		p.processTasks(ctx, pending)
	}

	retryable, err := p.repo.FindRetryable(ctx, p.now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable delist tasks", zap.Error(err))
		return
	}
	if len(retryable) > 0 {
		p.processTasks(ctx, retryable)
	}

	p.sweepStranded(ctx)
}

// releaseStale hands tasks whose claim outlived the lease back to the queue
func (p *DelistRetryProcessor) releaseStale(ctx context.Context) {
	released, err := p.repo.ReleaseStale(ctx, p.now().Add(-p.config.ClaimLease))
	if err != nil {
		p.logger.Error("failed to release stale delist claims", zap.Error(err))
		return
	}
	if released > 0 {
		p.logger.Warn("released stale delist claims",
			zap.Int64("released", released),
			zap.Duration("lease", p.config.ClaimLease),
		)
	}
}

// sweepStranded catches sales whose delist pass and task queueing both
// failed. Sales younger than the lease may still be in their own pass.
func (p *DelistRetryProcessor) sweepStranded(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	delisted, err := p.retrier.SweepStranded(ctx, p.now().Add(-p.config.ClaimLease), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to sweep stranded listings", zap.Error(err))
		return
	}
	if delisted > 0 {
		p.logger.Info("swept stranded listings", zap.Int("delisted", delisted))
	}
}

func (p *DelistRetryProcessor) processTasks(ctx context.Context, tasks []*integration.DelistTask) {
	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to claim delist tasks", zap.Error(err))
		return
	}

	for i, task := range claimed {
		if ctx.Err() != nil {
			p.release(ctx, claimed[i:]...)
			return
		}
		p.processTask(ctx, task)
	}
}

func (p *DelistRetryProcessor) processTask(ctx context.Context, task *integration.DelistTask) {
	if p.config.MaxRetries > 0 {
		task.MaxRetries = p.config.MaxRetries
	}

	err := p.retrier.RetryTask(ctx, task)

	// The outcome is written even when ctx ended during the attempt
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err != nil {
		if ctx.Err() != nil {
			// Shutdown is not the task's fault
			p.release(wctx, task)
			return
		}
		task.MarkFailed(err.Error())
		if task.IsDead() {
			p.retrier.RecordDeadTask(wctx, task)
		} else {
			p.logger.Warn("delist retry failed",
				zap.String("task_id", task.ID.String()),
				zap.String("listing_id", task.ListingID.String()),
				zap.String("channel", string(task.Channel)),
				zap.Bool("sweep", task.IsSweep()),
				zap.Int("retry_count", task.RetryCount),
				zap.Error(err),
			)
		}
		if updateErr := p.repo.Update(wctx, task); updateErr != nil {
			p.logger.Error("failed to update delist task", zap.Error(updateErr))
		}
		return
	}

	task.MarkSent()
	if err := p.repo.Update(wctx, task); err != nil {
		p.logger.Error("failed to mark delist task as sent",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("delist task completed",
		zap.String("task_id", task.ID.String()),
		zap.String("channel", string(task.Channel)),
	)
}

// release returns claimed tasks to PENDING without counting an attempt.
// Tasks that cannot be written back are picked up by releaseStale later.
func (p *DelistRetryProcessor) release(ctx context.Context, tasks ...*integration.DelistTask) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	for _, task := range tasks {
		if err := task.Release(); err != nil {
			continue
		}
		if err := p.repo.Update(wctx, task); err != nil {
			p.logger.Error("failed to release delist task",
				zap.String("task_id", task.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (p *DelistRetryProcessor) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanup(ctx)
		}
	}
}

// cleanup removes completed tasks older than the retention window
func (p *DelistRetryProcessor) cleanup(ctx context.Context) {
	cutoff := p.now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up delist tasks", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up delist tasks",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
