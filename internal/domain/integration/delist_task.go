package integration

import (
	"time"

	"github.com/google/uuid"
)

// DelistTaskStatus represents the status of a delist retry task
type DelistTaskStatus string

const (
	DelistTaskPending    DelistTaskStatus = "PENDING"
	DelistTaskProcessing DelistTaskStatus = "PROCESSING"
	DelistTaskSent       DelistTaskStatus = "SENT"
	DelistTaskFailed     DelistTaskStatus = "FAILED"
	DelistTaskDead       DelistTaskStatus = "DEAD"
)

// Retry defaults for delist tasks
const (
	DefaultDelistMaxRetries  = 5
	DefaultDelistBaseBackoff = 30 * time.Second
	MaxDelistBackoff         = time.Hour
)

// DelistSweep is the action of a product-level task. It is queued when the
// product's listings could not be read, and re-runs the whole sibling pass.
const DelistSweep DelistPolicy = "sweep"

// DelistTask records a sibling listing that could not be taken down while
// ingesting a sale. The retry processor works these until they succeed or die.
// A sweep task has no ListingID; Channel is then the sale channel.
type DelistTask struct {
	ID          uuid.UUID
	ListingID   uuid.UUID
	ProductID   uuid.UUID
	Channel     Channel
	Action      DelistPolicy
	Status      DelistTaskStatus
	RetryCount  int
	MaxRetries  int
	LastError   string
	NextRetryAt *time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewDelistTask creates a pending task for a listing whose delist failed
func NewDelistTask(listing *MarketplaceListing, cause error) *DelistTask {
	now := time.Now()
	t := &DelistTask{
		ID:         uuid.New(),
		ListingID:  listing.ID,
		ProductID:  listing.ProductID,
		Channel:    listing.Channel,
		Action:     listing.Channel.DelistPolicy(),
		Status:     DelistTaskPending,
		MaxRetries: DefaultDelistMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if cause != nil {
		t.LastError = cause.Error()
	}
	return t
}

// NewSweepTask creates a pending product-level task for a pass that could
// not enumerate the product's listings
func NewSweepTask(productID uuid.UUID, soldChannel Channel, cause error) *DelistTask {
	now := time.Now()
	t := &DelistTask{
		ID:         uuid.New(),
		ProductID:  productID,
		Channel:    soldChannel,
		Action:     DelistSweep,
		Status:     DelistTaskPending,
		MaxRetries: DefaultDelistMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if cause != nil {
		t.LastError = cause.Error()
	}
	return t
}

// IsSweep reports whether the task covers every sibling of the product
func (t *DelistTask) IsSweep() bool {
	return t.Action == DelistSweep
}

// CanRetry returns true if a failed task has attempts left
func (t *DelistTask) CanRetry() bool {
	return t.Status == DelistTaskFailed && t.RetryCount < t.MaxRetries
}

// MarkProcessing claims the task for a worker
func (t *DelistTask) MarkProcessing() error {
	if t.Status != DelistTaskPending && t.Status != DelistTaskFailed {
		return ErrDelistTaskInvalidState
	}
	t.Status = DelistTaskProcessing
	t.UpdatedAt = time.Now()
	return nil
}

// Release hands a claimed task back to the queue without counting an attempt
func (t *DelistTask) Release() error {
	if t.Status != DelistTaskProcessing {
		return ErrDelistTaskInvalidState
	}
	t.Status = DelistTaskPending
	t.UpdatedAt = time.Now()
	return nil
}

// MarkSent records a successful delist
func (t *DelistTask) MarkSent() {
	now := time.Now()
	t.Status = DelistTaskSent
	t.ProcessedAt = &now
	t.UpdatedAt = now
}

// MarkFailed records a failed attempt and schedules the next one.
// Backoff doubles from DefaultDelistBaseBackoff up to MaxDelistBackoff.
func (t *DelistTask) MarkFailed(errMsg string) {
	t.RetryCount++
	t.LastError = errMsg
	t.UpdatedAt = time.Now()

	if t.RetryCount >= t.MaxRetries {
		t.Status = DelistTaskDead
		t.NextRetryAt = nil
		return
	}

	t.Status = DelistTaskFailed
	next := t.UpdatedAt.Add(t.Backoff())
	t.NextRetryAt = &next
}

// Backoff returns the wait before the next attempt for the current retry count
func (t *DelistTask) Backoff() time.Duration {
	if t.RetryCount <= 0 {
		return 0
	}
	shift := t.RetryCount - 1
	if shift > 16 {
		return MaxDelistBackoff
	}
	d := DefaultDelistBaseBackoff * time.Duration(1<<uint(shift))
	if d > MaxDelistBackoff {
		return MaxDelistBackoff
	}
	return d
}

// IsDead returns true once the task has exhausted its retries
func (t *DelistTask) IsDead() bool {
	return t.Status == DelistTaskDead
}
