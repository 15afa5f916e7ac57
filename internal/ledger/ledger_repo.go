package ledger

import (
	"context"
	"time"

	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/shared/dberror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=ledger_repo.go -destination=mock/ledger_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBalance(ctx context.Context, employeeID uuid.UUID, leaveType string, year int) (*Balance, error)
	ListBalances(ctx context.Context, employeeID uuid.UUID, year int) ([]Balance, error)
	CreateBalance(ctx context.Context, b *Balance) error
	SaveBalance(ctx context.Context, b *Balance, expectedVersion int64) error
	AppendTransactions(ctx context.Context, txns []Transaction) error
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

func (r *repository) FindBalance(ctx context.Context, employeeID uuid.UUID, leaveType string, year int) (*Balance, error) {
	var b Balance
	err := r.db.WithContext(ctx).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, created_at ASC")
		}).
		Where("employee_id = ? AND leave_type = ? AND year = ?", employeeID, leaveType, year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListBalances(ctx context.Context, employeeID uuid.UUID, year int) ([]Balance, error) {
	var balances []Balance
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND year = ?", employeeID, year).
		Order("leave_type ASC").
		Find(&balances).Error
	return balances, err
}

// CreateBalance inserts the row without its transactions. Losing the race
// on the (employee, leave type, year) key is a version conflict.
func (r *repository) CreateBalance(ctx context.Context, b *Balance) error {
	err := r.db.WithContext(ctx).Omit("Transactions").Create(b).Error
	return dberror.MapWriteError(err)
}

// SaveBalance writes the scalar cache if the row is still at
// expectedVersion, then bumps b.Version.
func (r *repository) SaveBalance(ctx context.Context, b *Balance, expectedVersion int64) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Balance{}).
		Where("id = ? AND version = ?", b.ID, expectedVersion).
		Updates(map[string]any{
			"total_allocated": b.TotalAllocated,
			"used":            b.Used,
			"pending":         b.Pending,
			"carried_forward": b.CarriedForward,
			"remaining":       b.Remaining,
			"version":         expectedVersion + 1,
			"updated_at":      now,
		})
	if res.Error != nil {
		return dberror.MapWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrVersionConflict
	}
	b.Version = expectedVersion + 1
	b.UpdatedAt = now
	return nil
}

func (r *repository) AppendTransactions(ctx context.Context, txns []Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	return dberror.MapWriteError(r.db.WithContext(ctx).Create(&txns).Error)
}
