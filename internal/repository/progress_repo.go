package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"classhub/backend/internal/model"
)

// CourseProgressRepository course journal data access
type CourseProgressRepository interface {
	Create(ctx context.Context, p *model.CourseProgress) error
	GetByID(ctx context.Context, id string) (*model.CourseProgress, error)
	// ListByCourses entries of the courses with progress_date within [from, to]
	ListByCourses(ctx context.Context, courseIDs []string, from, to time.Time) ([]model.CourseProgress, error)
	Delete(ctx context.Context, id string) error
}

type courseProgressRepo struct {
	db *gorm.DB
}

// NewCourseProgressRepo creates a CourseProgressRepository
func NewCourseProgressRepo(db *gorm.DB) CourseProgressRepository {
	return &courseProgressRepo{db: db}
}

func (r *courseProgressRepo) Create(ctx context.Context, p *model.CourseProgress) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *courseProgressRepo) GetByID(ctx context.Context, id string) (*model.CourseProgress, error) {
	var p model.CourseProgress
	err := r.db.WithContext(ctx).
		Where("course_progress_id = ? AND "+notDeleted, id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *courseProgressRepo) ListByCourses(ctx context.Context, courseIDs []string, from, to time.Time) ([]model.CourseProgress, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var list []model.CourseProgress
	err := r.db.WithContext(ctx).
		Where("course_id IN ? AND "+notDeleted, courseIDs).
		Where("progress_date BETWEEN ? AND ?", dateArg(from), dateArg(to)).
		Order("progress_date ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *courseProgressRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.CourseProgress{}).
		Where("course_progress_id = ? AND "+notDeleted, id).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}

// ── PersonalProgress ──

// PersonalProgressRepository per-enrollment journal data access
type PersonalProgressRepository interface {
	Create(ctx context.Context, p *model.PersonalProgress) error
	GetByID(ctx context.Context, id string) (*model.PersonalProgress, error)
	ListByRecords(ctx context.Context, recordIDs []string, from, to time.Time) ([]model.PersonalProgress, error)
	Delete(ctx context.Context, id string) error
}

type personalProgressRepo struct {
	db *gorm.DB
}

// NewPersonalProgressRepo creates a PersonalProgressRepository
func NewPersonalProgressRepo(db *gorm.DB) PersonalProgressRepository {
	return &personalProgressRepo{db: db}
}

func (r *personalProgressRepo) Create(ctx context.Context, p *model.PersonalProgress) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *personalProgressRepo) GetByID(ctx context.Context, id string) (*model.PersonalProgress, error) {
	var p model.PersonalProgress
	err := r.db.WithContext(ctx).
		Where("personal_progress_id = ? AND "+notDeleted, id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *personalProgressRepo) ListByRecords(ctx context.Context, recordIDs []string, from, to time.Time) ([]model.PersonalProgress, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}
	var list []model.PersonalProgress
	err := r.db.WithContext(ctx).
		Where("student_course_record_id IN ? AND "+notDeleted, recordIDs).
		Where("progress_date BETWEEN ? AND ?", dateArg(from), dateArg(to)).
		Order("progress_date ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *personalProgressRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.PersonalProgress{}).
		Where("personal_progress_id = ? AND "+notDeleted, id).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}
