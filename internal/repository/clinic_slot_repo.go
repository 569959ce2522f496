package repository

import (
	"context"

	"gorm.io/gorm"

	"classhub/backend/internal/model"
	pkgerrors "classhub/backend/pkg/errors"
)

// ClinicSlotFilter list filter; zero values are ignored
type ClinicSlotFilter struct {
	TeacherID  string
	BranchID   string
	ActiveOnly bool
}

// ClinicSlotRepository clinic slot data access
type ClinicSlotRepository interface {
	Create(ctx context.Context, slot *model.ClinicSlot) error
	GetByID(ctx context.Context, id string) (*model.ClinicSlot, error)
	List(ctx context.Context, filter ClinicSlotFilter) ([]model.ClinicSlot, error)
	Update(ctx context.Context, slot *model.ClinicSlot) error
	Delete(ctx context.Context, id string) error
}

type clinicSlotRepo struct {
	db *gorm.DB
}

// NewClinicSlotRepo creates a ClinicSlotRepository
func NewClinicSlotRepo(db *gorm.DB) ClinicSlotRepository {
	return &clinicSlotRepo{db: db}
}

func (r *clinicSlotRepo) Create(ctx context.Context, slot *model.ClinicSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *clinicSlotRepo) GetByID(ctx context.Context, id string) (*model.ClinicSlot, error) {
	var slot model.ClinicSlot
	err := r.db.WithContext(ctx).
		Where("clinic_slot_id = ? AND "+notDeleted, id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *clinicSlotRepo) List(ctx context.Context, filter ClinicSlotFilter) ([]model.ClinicSlot, error) {
	var slots []model.ClinicSlot
	db := r.db.WithContext(ctx).Where(notDeleted)

	if filter.TeacherID != "" {
		db = db.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.BranchID != "" {
		db = db.Where("branch_id = ?", filter.BranchID)
	}
	if filter.ActiveOnly {
		// a slot of a deleted branch is never active
		db = db.Where("is_active = ?", true).
			Where("branch_id IN (SELECT branch_id FROM branches WHERE deleted_at IS NULL)")
	}

	err := db.Order("day_of_week ASC, start_time ASC").Find(&slots).Error
	return slots, err
}

func (r *clinicSlotRepo) Update(ctx context.Context, slot *model.ClinicSlot) error {
	oldVersion := slot.Version
	result := r.db.WithContext(ctx).
		Model(&model.ClinicSlot{}).
		Where("clinic_slot_id = ? AND version = ? AND "+notDeleted, slot.ClinicSlotID, oldVersion).
		Updates(map[string]interface{}{
			"day_of_week":      slot.DayOfWeek,
			"start_time":       slot.StartTime,
			"end_time":         slot.EndTime,
			"default_capacity": slot.DefaultCapacity,
			"is_active":        slot.IsActive,
			"updated_at":       gorm.Expr("NOW()"),
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	slot.Version = oldVersion + 1
	return nil
}

// Delete soft deletes and deactivates the slot
func (r *clinicSlotRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.ClinicSlot{}).
		Where("clinic_slot_id = ? AND "+notDeleted, id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
