package task

import (
	"context"
	"time"

	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/shared/dberror"

	"gorm.io/gorm"
)

//go:generate mockgen -source=task_repo.go -destination=mock/task_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*Task, error)
	Create(ctx context.Context, t *Task) error
	Save(ctx context.Context, t *Task, expectedVersion int64) error
	ListByAssignee(ctx context.Context, assigneeID string) ([]Task, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) Create(ctx context.Context, t *Task) error {
	return dberror.MapWriteError(r.db.WithContext(ctx).Create(t).Error)
}

// Save writes assignment and approval state if the row is still at
// expectedVersion, then bumps t.Version.
func (r *repository) Save(ctx context.Context, t *Task, expectedVersion int64) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Task{}).
		Where("id = ? AND version = ?", t.ID, expectedVersion).
		Updates(map[string]any{
			"assigned_to":        t.AssignedTo,
			"approval_history":   t.ApprovalHistory,
			"assignment_history": t.AssignmentHistory,
			"version":            expectedVersion + 1,
			"updated_at":         now,
		})
	if res.Error != nil {
		return dberror.MapWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrVersionConflict
	}
	t.Version = expectedVersion + 1
	t.UpdatedAt = now
	return nil
}

func (r *repository) ListByAssignee(ctx context.Context, assigneeID string) ([]Task, error) {
	var tasks []Task
	err := r.db.WithContext(ctx).
		Where("assigned_to @> ?", `["`+assigneeID+`"]`).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}
