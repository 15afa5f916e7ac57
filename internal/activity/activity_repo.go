package activity

import (
	"context"

	"go-opsportal/internal/shared/dberror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=activity_repo.go -destination=mock/activity_repo_mock.go -package=mock
type Repository interface {
	// Insert stores e unless an entry with the same id exists. It reports
	// whether a row was written.
	Insert(ctx context.Context, e *Entry) (bool, error)
	ListByAggregate(ctx context.Context, aggregateType, aggregateID string, limit int) ([]Entry, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, e *Entry) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(e)
	if res.Error != nil {
		return false, dberror.MapWriteError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByAggregate(ctx context.Context, aggregateType, aggregateID string, limit int) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("aggregate_type = ? AND aggregate_id = ?", aggregateType, aggregateID).
		Order("occurred_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
