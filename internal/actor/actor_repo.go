package actor

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//go:generate mockgen -source=actor_repo.go -destination=mock/actor_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, id string) (*Actor, error)
	UpdateOverrides(ctx context.Context, id string, overrides map[string]bool) error
	UpdateStatus(ctx context.Context, id string, status string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Actor, error) {
	var a Actor
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) UpdateOverrides(ctx context.Context, id string, overrides map[string]bool) error {
	m := make(datatypes.JSONMap, len(overrides))
	for k, v := range overrides {
		m[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&Actor{}).
		Where("id = ?", id).
		Update("permission_overrides", m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status string) error {
	res := r.db.WithContext(ctx).
		Model(&Actor{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
