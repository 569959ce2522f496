package repository

import (
	"context"

	"gorm.io/gorm"

	"classhub/backend/internal/model"
)

// ClinicBatchRunRepository weekly batch run log
type ClinicBatchRunRepository interface {
	Create(ctx context.Context, run *model.ClinicBatchRun) error
	ListRecent(ctx context.Context, limit int) ([]model.ClinicBatchRun, error)
}

type clinicBatchRunRepo struct {
	db *gorm.DB
}

// NewClinicBatchRunRepo creates a ClinicBatchRunRepository
func NewClinicBatchRunRepo(db *gorm.DB) ClinicBatchRunRepository {
	return &clinicBatchRunRepo{db: db}
}

func (r *clinicBatchRunRepo) Create(ctx context.Context, run *model.ClinicBatchRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *clinicBatchRunRepo) ListRecent(ctx context.Context, limit int) ([]model.ClinicBatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []model.ClinicBatchRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
