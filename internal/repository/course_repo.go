package repository

import (
	"context"

	"gorm.io/gorm"

	"classhub/backend/internal/model"
	pkgerrors "classhub/backend/pkg/errors"
)

// CourseRepository course data access
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Course, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo creates a CourseRepository
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("course_id = ? AND "+notDeleted, id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND "+notDeleted, teacherID).
		Order("start_date DESC, name ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("course_id IN ? AND "+notDeleted, ids).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	oldVersion := course.Version
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ? AND version = ? AND "+notDeleted, course.CourseID, oldVersion).
		Updates(map[string]interface{}{
			"name":        course.Name,
			"description": course.Description,
			"start_date":  dateArg(course.StartDate),
			"end_date":    dateArg(course.EndDate),
			"updated_at":  gorm.Expr("NOW()"),
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version = oldVersion + 1
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ? AND "+notDeleted, id).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}

// ── StudentCourseRecord ──

// StudentCourseRecordRepository enrollment data access
type StudentCourseRecordRepository interface {
	Create(ctx context.Context, rec *model.StudentCourseRecord) error
	GetByID(ctx context.Context, id string) (*model.StudentCourseRecord, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.StudentCourseRecord, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.StudentCourseRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.StudentCourseRecord, error)
	// ListByStudent and ListWithDefaultSlot skip enrollments of deleted courses
	// ListWithDefaultSlot enrollments that have a default clinic slot configured
	ListWithDefaultSlot(ctx context.Context) ([]model.StudentCourseRecord, error)
	// ExistsForTeacher reports whether the student is enrolled in any course of the teacher
	ExistsForTeacher(ctx context.Context, teacherID, studentID string) (bool, error)
	UpdateDefaultSlot(ctx context.Context, id string, slotID *string) error
	Delete(ctx context.Context, id string) error
	DeleteByCourse(ctx context.Context, courseID string) error
}

// joins enrollments to their course, alive rows only
const aliveCourseJoin = "JOIN courses c ON c.course_id = student_course_records.course_id AND c.deleted_at IS NULL"

type studentCourseRecordRepo struct {
	db *gorm.DB
}

// NewStudentCourseRecordRepo creates a StudentCourseRecordRepository
func NewStudentCourseRecordRepo(db *gorm.DB) StudentCourseRecordRepository {
	return &studentCourseRecordRepo{db: db}
}

func (r *studentCourseRecordRepo) Create(ctx context.Context, rec *model.StudentCourseRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *studentCourseRecordRepo) GetByID(ctx context.Context, id string) (*model.StudentCourseRecord, error) {
	var rec model.StudentCourseRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Course").
		Where("student_course_record_id = ? AND "+notDeleted, id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *studentCourseRecordRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.StudentCourseRecord, error) {
	var rec model.StudentCourseRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND "+notDeleted, studentID, courseID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *studentCourseRecordRepo) ListByCourse(ctx context.Context, courseID string) ([]model.StudentCourseRecord, error) {
	var list []model.StudentCourseRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ? AND "+notDeleted, courseID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *studentCourseRecordRepo) ListByStudent(ctx context.Context, studentID string) ([]model.StudentCourseRecord, error) {
	var list []model.StudentCourseRecord
	err := r.db.WithContext(ctx).
		Preload("Course").
		Joins(aliveCourseJoin).
		Where("student_course_records.student_id = ? AND student_course_records.deleted_at IS NULL", studentID).
		Order("student_course_records.created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *studentCourseRecordRepo) ListWithDefaultSlot(ctx context.Context) ([]model.StudentCourseRecord, error) {
	var list []model.StudentCourseRecord
	err := r.db.WithContext(ctx).
		Joins(aliveCourseJoin).
		Where("student_course_records.default_clinic_slot_id IS NOT NULL AND student_course_records.deleted_at IS NULL").
		Order("student_course_records.student_course_record_id ASC").
		Find(&list).Error
	return list, err
}

func (r *studentCourseRecordRepo) ExistsForTeacher(ctx context.Context, teacherID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.StudentCourseRecord{}).
		Joins(aliveCourseJoin).
		Where("student_course_records.student_id = ? AND student_course_records.deleted_at IS NULL", studentID).
		Where("c.teacher_id = ?", teacherID).
		Count(&count).Error
	return count > 0, err
}

func (r *studentCourseRecordRepo) UpdateDefaultSlot(ctx context.Context, id string, slotID *string) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentCourseRecord{}).
		Where("student_course_record_id = ? AND "+notDeleted, id).
		Updates(map[string]interface{}{
			"default_clinic_slot_id": slotID,
			"updated_at":             gorm.Expr("NOW()"),
		}).Error
}

func (r *studentCourseRecordRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentCourseRecord{}).
		Where("student_course_record_id = ? AND "+notDeleted, id).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}

func (r *studentCourseRecordRepo) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentCourseRecord{}).
		Where("course_id = ? AND "+notDeleted, courseID).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}
