package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDelistTaskRepository struct {
	mock.Mock
}

func (m *MockDelistTaskRepository) Save(ctx context.Context, tasks ...*integration.DelistTask) error {
	return m.Called(ctx, tasks).Error(0)
}

func (m *MockDelistTaskRepository) FindPending(ctx context.Context, limit int) ([]*integration.DelistTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.DelistTask), args.Error(1)
}

func (m *MockDelistTaskRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*integration.DelistTask, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.DelistTask), args.Error(1)
}

func (m *MockDelistTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.DelistTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.DelistTask), args.Error(1)
}

func (m *MockDelistTaskRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*integration.DelistTask, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.DelistTask), args.Error(1)
}

func (m *MockDelistTaskRepository) ReleaseStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	args := m.Called(ctx, claimedBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDelistTaskRepository) Update(ctx context.Context, task *integration.DelistTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockDelistTaskRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDelistTaskRepository) CountByStatus(ctx context.Context) (map[integration.DelistTaskStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[integration.DelistTaskStatus]int64), args.Error(1)
}

type MockDelistRetrier struct {
	mock.Mock
}

func (m *MockDelistRetrier) RetryTask(ctx context.Context, task *integration.DelistTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockDelistRetrier) RecordDeadTask(ctx context.Context, task *integration.DelistTask) {
	m.Called(ctx, task)
}

func (m *MockDelistRetrier) SweepStranded(ctx context.Context, soldBefore time.Time, limit int) (int, error) {
	args := m.Called(ctx, soldBefore, limit)
	return args.Int(0), args.Error(1)
}

var processorNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func newTestTask(channel integration.Channel) *integration.DelistTask {
	return &integration.DelistTask{
		ID:         uuid.New(),
		ListingID:  uuid.New(),
		ProductID:  uuid.New(),
		Channel:    channel,
		Action:     channel.DelistPolicy(),
		Status:     integration.DelistTaskPending,
		MaxRetries: integration.DefaultDelistMaxRetries,
	}
}

// leaseCutoff is processorNow less the default claim lease
var leaseCutoff = processorNow.Add(-5 * time.Minute)

// expectHousekeeping allows the stale-claim release and stranded sweep that
// bracket every batch
func expectHousekeeping(repo *MockDelistTaskRepository, retrier *MockDelistRetrier) {
	repo.On("ReleaseStale", mock.Anything, leaseCutoff).Return(int64(0), nil).Maybe()
	retrier.On("SweepStranded", mock.Anything, leaseCutoff, 50).Return(0, nil).Maybe()
}

func newTestProcessor(repo *MockDelistTaskRepository, retrier *MockDelistRetrier, cfg config.DelistRetryConfig) *DelistRetryProcessor {
	p := NewDelistRetryProcessor(repo, retrier, cfg, zap.NewNop())
	p.now = func() time.Time { return processorNow }
	return p
}

func TestNewDelistRetryProcessor_Defaults(t *testing.T) {
	p := NewDelistRetryProcessor(new(MockDelistTaskRepository), new(MockDelistRetrier), config.DelistRetryConfig{}, nil)

	assert.Equal(t, 50, p.config.BatchSize)
	assert.Equal(t, 10*time.Second, p.config.PollInterval)
	assert.Equal(t, time.Hour, p.config.CleanupInterval)
	assert.Equal(t, 5*time.Minute, p.config.ClaimLease)
	assert.Equal(t, "delist-retry-processor", p.String())
}

func TestDelistRetryProcessor_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("completed retry is marked sent", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())
		expectHousekeeping(repo, retrier)
		task := newTestTask(integration.ChannelDepop)

		repo.On("FindPending", ctx, 50).Return([]*integration.DelistTask{task}, nil)
		repo.On("MarkProcessing", ctx, []uuid.UUID{task.ID}).Return([]*integration.DelistTask{task}, nil)
		repo.On("FindRetryable", ctx, processorNow, 50).Return([]*integration.DelistTask{}, nil)
		retrier.On("RetryTask", ctx, task).Return(nil).Once()
		repo.On("Update", mock.Anything, mock.MatchedBy(func(t *integration.DelistTask) bool {
			return t.Status == integration.DelistTaskSent && t.ProcessedAt != nil
		})).Return(nil).Once()

		p.processBatch(ctx)

		repo.AssertExpectations(t)
		retrier.AssertExpectations(t)
	})

	t.Run("failed retry is rescheduled", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())
		expectHousekeeping(repo, retrier)
		task := newTestTask(integration.ChannelEtsy)
		task.Status = integration.DelistTaskFailed
		task.RetryCount = 1

		repo.On("FindPending", ctx, 50).Return([]*integration.DelistTask{}, nil)
		repo.On("FindRetryable", ctx, processorNow, 50).Return([]*integration.DelistTask{task}, nil)
		repo.On("MarkProcessing", ctx, []uuid.UUID{task.ID}).Return([]*integration.DelistTask{task}, nil)
		retrier.On("RetryTask", ctx, task).Return(errors.New("etsy 503"))
		repo.On("Update", mock.Anything, task).Return(nil).Once()

		p.processBatch(ctx)

		assert.Equal(t, integration.DelistTaskFailed, task.Status)
		assert.Equal(t, 2, task.RetryCount)
		assert.Equal(t, "etsy 503", task.LastError)
		require.NotNil(t, task.NextRetryAt)
		retrier.AssertNotCalled(t, "RecordDeadTask", mock.Anything, mock.Anything)
	})

	t.Run("last attempt marks the task dead", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		cfg := DefaultDelistRetryConfig()
		cfg.MaxRetries = 2
		p := newTestProcessor(repo, retrier, cfg)
		expectHousekeeping(repo, retrier)
		task := newTestTask(integration.ChannelEbay)
		task.Status = integration.DelistTaskFailed
		task.RetryCount = 1

		repo.On("FindPending", ctx, 50).Return(nil, nil)
		repo.On("FindRetryable", ctx, processorNow, 50).Return([]*integration.DelistTask{task}, nil)
		repo.On("MarkProcessing", ctx, []uuid.UUID{task.ID}).Return([]*integration.DelistTask{task}, nil)
		retrier.On("RetryTask", ctx, task).Return(errors.New("listing locked"))
		retrier.On("RecordDeadTask", mock.Anything, task).Once()
		repo.On("Update", mock.Anything, task).Return(nil).Once()

		p.processBatch(ctx)

		assert.True(t, task.IsDead())
		assert.Nil(t, task.NextRetryAt)
		retrier.AssertExpectations(t)
	})

	t.Run("tasks claimed elsewhere are skipped", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())
		expectHousekeeping(repo, retrier)
		mine := newTestTask(integration.ChannelDepop)
		theirs := newTestTask(integration.ChannelEtsy)

		repo.On("FindPending", ctx, 50).Return([]*integration.DelistTask{mine, theirs}, nil)
		repo.On("MarkProcessing", ctx, []uuid.UUID{mine.ID, theirs.ID}).Return([]*integration.DelistTask{mine}, nil)
		repo.On("FindRetryable", ctx, processorNow, 50).Return(nil, nil)
		retrier.On("RetryTask", ctx, mine).Return(nil)
		repo.On("Update", mock.Anything, mine).Return(nil)

		p.processBatch(ctx)

		retrier.AssertNotCalled(t, "RetryTask", ctx, theirs)
	})

	t.Run("store error stops the batch", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())
		expectHousekeeping(repo, retrier)

		repo.On("FindPending", ctx, 50).Return(nil, errors.New("connection refused"))

		p.processBatch(ctx)

		repo.AssertNotCalled(t, "FindRetryable", mock.Anything, mock.Anything, mock.Anything)
		retrier.AssertNotCalled(t, "RetryTask", mock.Anything, mock.Anything)
	})
}

func TestDelistRetryProcessor_Housekeeping(t *testing.T) {
	ctx := context.Background()

	t.Run("expired claims are released before polling", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())

		repo.On("ReleaseStale", ctx, leaseCutoff).Return(int64(3), nil).Once()
		repo.On("FindPending", ctx, 50).Return(nil, nil)
		repo.On("FindRetryable", ctx, processorNow, 50).Return(nil, nil)
		retrier.On("SweepStranded", ctx, leaseCutoff, 50).Return(0, nil)

		p.processBatch(ctx)

		repo.AssertExpectations(t)
	})

	t.Run("stranded listings are swept after the queue", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())

		repo.On("ReleaseStale", ctx, leaseCutoff).Return(int64(0), nil)
		repo.On("FindPending", ctx, 50).Return(nil, nil)
		repo.On("FindRetryable", ctx, processorNow, 50).Return(nil, nil)
		retrier.On("SweepStranded", ctx, leaseCutoff, 50).Return(2, nil).Once()

		p.processBatch(ctx)

		retrier.AssertExpectations(t)
	})

	t.Run("release failure does not stop the batch", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())

		repo.On("ReleaseStale", ctx, leaseCutoff).Return(int64(0), errors.New("connection refused"))
		repo.On("FindPending", ctx, 50).Return(nil, nil).Once()
		repo.On("FindRetryable", ctx, processorNow, 50).Return(nil, nil)
		retrier.On("SweepStranded", ctx, leaseCutoff, 50).Return(0, nil)

		p.processBatch(ctx)

		repo.AssertExpectations(t)
	})
}

func TestDelistRetryProcessor_Cancellation(t *testing.T) {
	t.Run("attempt cut short by shutdown is released, not failed", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())
		task := newTestTask(integration.ChannelDepop)
		require.NoError(t, task.MarkProcessing())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		retrier.On("RetryTask", mock.Anything, task).
			Run(func(mock.Arguments) { cancel() }).
			Return(context.Canceled)
		repo.On("Update", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), task).
			Return(nil).Once()

		p.processTask(ctx, task)

		assert.Equal(t, integration.DelistTaskPending, task.Status)
		assert.Zero(t, task.RetryCount)
		repo.AssertExpectations(t)
		retrier.AssertNotCalled(t, "RecordDeadTask", mock.Anything, mock.Anything)
	})

	t.Run("claimed tasks left after shutdown go back to the queue", func(t *testing.T) {
		repo := new(MockDelistTaskRepository)
		retrier := new(MockDelistRetrier)
		p := newTestProcessor(repo, retrier, DefaultDelistRetryConfig())
		first := newTestTask(integration.ChannelEbay)
		second := newTestTask(integration.ChannelEtsy)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		repo.On("MarkProcessing", ctx, []uuid.UUID{first.ID, second.ID}).Run(func(mock.Arguments) {
			first.Status = integration.DelistTaskProcessing
			second.Status = integration.DelistTaskProcessing
		}).Return([]*integration.DelistTask{first, second}, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(t *integration.DelistTask) bool {
			return t.Status == integration.DelistTaskPending
		})).Return(nil).Twice()

		p.processTasks(ctx, []*integration.DelistTask{first, second})

		repo.AssertExpectations(t)
		retrier.AssertNotCalled(t, "RetryTask", mock.Anything, mock.Anything)
	})
}

func TestDelistRetryProcessor_Cleanup(t *testing.T) {
	ctx := context.Background()
	repo := new(MockDelistTaskRepository)
	p := newTestProcessor(repo, new(MockDelistRetrier), DefaultDelistRetryConfig())

	repo.On("DeleteOlderThan", ctx, processorNow.Add(-7*24*time.Hour)).Return(int64(3), nil).Once()

	p.cleanup(ctx)

	repo.AssertExpectations(t)
}

func TestDelistRetryProcessor_Serve(t *testing.T) {
	repo := new(MockDelistTaskRepository)
	cfg := DefaultDelistRetryConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.CleanupRetention = 0
	retrier := new(MockDelistRetrier)
	p := newTestProcessor(repo, retrier, cfg)

	polled := make(chan struct{}, 1)
	repo.On("FindPending", mock.Anything, 50).Return(nil, nil).Run(func(mock.Arguments) {
		select {
		case polled <- struct{}{}:
		default:
		}
	})
	repo.On("FindRetryable", mock.Anything, processorNow, 50).Return(nil, nil)
	repo.On("ReleaseStale", mock.Anything, leaseCutoff).Return(int64(0), nil)
	retrier.On("SweepStranded", mock.Anything, leaseCutoff, 50).Return(0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx) }()

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("processor never polled")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
