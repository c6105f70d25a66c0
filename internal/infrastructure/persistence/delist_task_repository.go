package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDelistTaskRepository implements integration.DelistTaskRepository using GORM
type GormDelistTaskRepository struct {
	db *gorm.DB
}

// NewGormDelistTaskRepository creates a new GORM-based delist task repository
func NewGormDelistTaskRepository(db *gorm.DB) *GormDelistTaskRepository {
	return &GormDelistTaskRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormDelistTaskRepository) WithTx(tx *gorm.DB) *GormDelistTaskRepository {
	return &GormDelistTaskRepository{db: tx}
}

// Save persists one or more tasks
func (r *GormDelistTaskRepository) Save(ctx context.Context, tasks ...*integration.DelistTask) error {
	if len(tasks) == 0 {
		return nil
	}

	rows := make([]*models.DelistTaskModel, len(tasks))
	for i, t := range tasks {
		rows[i] = models.DelistTaskModelFromDomain(t)
	}
	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		return storeError("save delist tasks", err)
	}
	return nil
}

// FindPending retrieves pending tasks up to the specified limit
func (r *GormDelistTaskRepository) FindPending(ctx context.Context, limit int) ([]*integration.DelistTask, error) {
	var rows []models.DelistTaskModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(integration.DelistTaskPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, storeError("find pending delist tasks", err)
	}
	return toDomainTasks(rows), nil
}

// FindRetryable retrieves failed tasks that are due for retry
func (r *GormDelistTaskRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*integration.DelistTask, error) {
	var rows []models.DelistTaskModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ?", string(integration.DelistTaskFailed), before).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, storeError("find retryable delist tasks", err)
	}
	return toDomainTasks(rows), nil
}

// FindByID retrieves a single task
func (r *GormDelistTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.DelistTask, error) {
	var model models.DelistTaskModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrDelistTaskNotFound
		}
		return nil, storeError("find delist task", err)
	}
	return model.ToDomain(), nil
}

// MarkProcessing atomically claims tasks and returns the ones this caller won
func (r *GormDelistTaskRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*integration.DelistTask, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []models.DelistTaskModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// FOR UPDATE SKIP LOCKED lets concurrent processors split the batch
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("id IN ? AND status IN ?", ids, []string{
				string(integration.DelistTaskPending),
				string(integration.DelistTaskFailed),
			}).
			Find(&rows).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}

		claimed := make([]uuid.UUID, len(rows))
		for i := range rows {
			claimed[i] = rows[i].ID
		}

		now := time.Now()
		if err := tx.Model(&models.DelistTaskModel{}).
			Where("id IN ?", claimed).
			Updates(map[string]any{
				"status":     string(integration.DelistTaskProcessing),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		for i := range rows {
			rows[i].Status = string(integration.DelistTaskProcessing)
			rows[i].UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, storeError("claim delist tasks", err)
	}

	return toDomainTasks(rows), nil
}

// ReleaseStale requeues tasks whose claim is older than claimedBefore.
// A worker that died mid-attempt leaves its tasks PROCESSING otherwise.
func (r *GormDelistTaskRepository) ReleaseStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DelistTaskModel{}).
		Where("status = ? AND updated_at < ?", string(integration.DelistTaskProcessing), claimedBefore).
		Updates(map[string]any{
			"status":     string(integration.DelistTaskPending),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, storeError("release stale delist tasks", result.Error)
	}
	return result.RowsAffected, nil
}

// Update writes back a task after an attempt
func (r *GormDelistTaskRepository) Update(ctx context.Context, task *integration.DelistTask) error {
	task.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(models.DelistTaskModelFromDomain(task)).Error; err != nil {
		return storeError("update delist task", err)
	}
	return nil
}

// DeleteOlderThan deletes sent tasks processed before the given time
func (r *GormDelistTaskRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND processed_at < ?", string(integration.DelistTaskSent), before).
		Delete(&models.DelistTaskModel{})
	if result.Error != nil {
		return 0, storeError("delete delist tasks", result.Error)
	}
	return result.RowsAffected, nil
}

// CountByStatus returns the number of tasks in each status
func (r *GormDelistTaskRepository) CountByStatus(ctx context.Context) (map[integration.DelistTaskStatus]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var results []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.DelistTaskModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&results).Error; err != nil {
		return nil, storeError("count delist tasks", err)
	}

	counts := make(map[integration.DelistTaskStatus]int64, len(results))
	for _, c := range results {
		counts[integration.DelistTaskStatus(c.Status)] = c.Count
	}
	return counts, nil
}

func toDomainTasks(rows []models.DelistTaskModel) []*integration.DelistTask {
	tasks := make([]*integration.DelistTask, len(rows))
	for i := range rows {
		tasks[i] = rows[i].ToDomain()
	}
	return tasks
}

var _ integration.DelistTaskRepository = (*GormDelistTaskRepository)(nil)
