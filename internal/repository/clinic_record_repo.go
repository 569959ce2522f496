package repository

import (
	"context"

	"gorm.io/gorm"

	"classhub/backend/internal/model"
	pkgerrors "classhub/backend/pkg/errors"
)

// ClinicRecordRepository clinic record data access
type ClinicRecordRepository interface {
	Create(ctx context.Context, rec *model.ClinicRecord) error
	GetByID(ctx context.Context, id string) (*model.ClinicRecord, error)
	GetByAttendance(ctx context.Context, attendanceID string) (*model.ClinicRecord, error)
	ListByAttendances(ctx context.Context, attendanceIDs []string) ([]model.ClinicRecord, error)
	Update(ctx context.Context, rec *model.ClinicRecord) error
	Delete(ctx context.Context, id string) error
	DeleteByAttendance(ctx context.Context, attendanceID string) error
}

type clinicRecordRepo struct {
	db *gorm.DB
}

// NewClinicRecordRepo creates a ClinicRecordRepository
func NewClinicRecordRepo(db *gorm.DB) ClinicRecordRepository {
	return &clinicRecordRepo{db: db}
}

func (r *clinicRecordRepo) Create(ctx context.Context, rec *model.ClinicRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *clinicRecordRepo) GetByID(ctx context.Context, id string) (*model.ClinicRecord, error) {
	var rec model.ClinicRecord
	err := r.db.WithContext(ctx).
		Where("clinic_record_id = ? AND "+notDeleted, id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *clinicRecordRepo) GetByAttendance(ctx context.Context, attendanceID string) (*model.ClinicRecord, error) {
	var rec model.ClinicRecord
	err := r.db.WithContext(ctx).
		Where("clinic_attendance_id = ? AND "+notDeleted, attendanceID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *clinicRecordRepo) ListByAttendances(ctx context.Context, attendanceIDs []string) ([]model.ClinicRecord, error) {
	if len(attendanceIDs) == 0 {
		return nil, nil
	}
	var list []model.ClinicRecord
	err := r.db.WithContext(ctx).
		Where("clinic_attendance_id IN ? AND "+notDeleted, attendanceIDs).
		Find(&list).Error
	return list, err
}

func (r *clinicRecordRepo) Update(ctx context.Context, rec *model.ClinicRecord) error {
	oldVersion := rec.Version
	result := r.db.WithContext(ctx).
		Model(&model.ClinicRecord{}).
		Where("clinic_record_id = ? AND version = ? AND "+notDeleted, rec.ClinicRecordID, oldVersion).
		Updates(map[string]interface{}{
			"title":             rec.Title,
			"content":           rec.Content,
			"homework_progress": rec.HomeworkProgress,
			"updated_at":        gorm.Expr("NOW()"),
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	rec.Version = oldVersion + 1
	return nil
}

func (r *clinicRecordRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.ClinicRecord{}).
		Where("clinic_record_id = ? AND "+notDeleted, id).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}

func (r *clinicRecordRepo) DeleteByAttendance(ctx context.Context, attendanceID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ClinicRecord{}).
		Where("clinic_attendance_id = ? AND "+notDeleted, attendanceID).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}
