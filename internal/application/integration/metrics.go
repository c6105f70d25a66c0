package integration

import (
	"context"
	"time"

	"github.com/marketsync/backend/internal/domain/integration"
)

// IngestionMetrics receives order ingestion measurements
type IngestionMetrics interface {
	OrderIngested(ctx context.Context, channel integration.Channel, duration time.Duration)
	OrderDuplicate(ctx context.Context, channel integration.Channel)
	IngestFailed(ctx context.Context, channel integration.Channel, reason string)
}

// DelistMetrics receives delisting measurements
type DelistMetrics interface {
	ListingDelisted(ctx context.Context, channel integration.Channel, action integration.DelistPolicy)
	DelistFailed(ctx context.Context, channel integration.Channel)
	DelistTaskDead(ctx context.Context, channel integration.Channel)
}

type noopMetrics struct{}

func (noopMetrics) OrderIngested(context.Context, integration.Channel, time.Duration)             {}
func (noopMetrics) OrderDuplicate(context.Context, integration.Channel)                           {}
func (noopMetrics) IngestFailed(context.Context, integration.Channel, string)                     {}
func (noopMetrics) ListingDelisted(context.Context, integration.Channel, integration.DelistPolicy) {}
func (noopMetrics) DelistFailed(context.Context, integration.Channel)                             {}
func (noopMetrics) DelistTaskDead(context.Context, integration.Channel)                           {}
