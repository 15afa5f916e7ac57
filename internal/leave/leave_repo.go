package leave

import (
	"context"
	"time"

	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/shared/dberror"

	"gorm.io/gorm"
)

type ListFilter struct {
	EmployeeID      string
	IncludeInactive bool
	Page            int
	Limit           int
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	Create(ctx context.Context, l *LeaveRequest) error
	Save(ctx context.Context, l *LeaveRequest, expectedVersion int64) error
	List(ctx context.Context, filter ListFilter) ([]LeaveRequest, int64, error)
	HasOverlappingPeriod(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error)
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

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return dberror.MapWriteError(r.db.WithContext(ctx).Create(l).Error)
}

// Save writes the mutable workflow fields if the row is still at
// expectedVersion, then bumps l.Version.
func (r *repository) Save(ctx context.Context, l *LeaveRequest, expectedVersion int64) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND version = ?", l.ID, expectedVersion).
		Updates(map[string]any{
			"approval_workflow": l.ApprovalWorkflow,
			"is_active":         l.IsActive,
			"cancelled":         l.Cancelled,
			"cancelled_by":      l.CancelledBy,
			"cancelled_at":      l.CancelledAt,
			"version":           expectedVersion + 1,
			"updated_at":        now,
		})
	if res.Error != nil {
		return dberror.MapWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrVersionConflict
	}
	l.Version = expectedVersion + 1
	l.UpdatedAt = now
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]LeaveRequest, int64, error) {
	db := r.db.WithContext(ctx).Model(&LeaveRequest{})
	if filter.EmployeeID != "" {
		db = db.Where("employee_id = ?", filter.EmployeeID)
	}
	if !filter.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leaves []LeaveRequest
	err := db.Order("start_date DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&leaves).Error
	return leaves, total, err
}

// HasOverlappingPeriod reports whether the employee already holds a live
// (pending or approved) request overlapping the range.
func (r *repository) HasOverlappingPeriod(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("employee_id = ?", employeeID).
		Where("is_active = ? AND cancelled = ?", true, false).
		Where("NOT (approval_workflow @> ?)", `[{"status":"rejected"}]`).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate).
		Count(&count).Error
	return count > 0, err
}
