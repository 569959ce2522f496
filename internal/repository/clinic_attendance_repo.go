package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classhub/backend/internal/model"
)

// ClinicAttendanceRepository clinic attendance data access
type ClinicAttendanceRepository interface {
	Create(ctx context.Context, att *model.ClinicAttendance) error
	// CreateIfAbsent inserts unless the enrollment is already bound to the session.
	// Returns false when the row was skipped.
	CreateIfAbsent(ctx context.Context, att *model.ClinicAttendance) (bool, error)
	GetByID(ctx context.Context, id string) (*model.ClinicAttendance, error)
	Exists(ctx context.Context, sessionID, recordID string) (bool, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int64, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.ClinicAttendance, error)
	ListBySessions(ctx context.Context, sessionIDs []string) ([]model.ClinicAttendance, error)
	// ListByRecordsInRange attendances of the enrollments whose session date is within [from, to]
	ListByRecordsInRange(ctx context.Context, recordIDs []string, from, to time.Time) ([]model.ClinicAttendance, error)
	MoveToSession(ctx context.Context, id, sessionID string) error
	Delete(ctx context.Context, id string) error
}

type clinicAttendanceRepo struct {
	db *gorm.DB
}

// NewClinicAttendanceRepo creates a ClinicAttendanceRepository
func NewClinicAttendanceRepo(db *gorm.DB) ClinicAttendanceRepository {
	return &clinicAttendanceRepo{db: db}
}

func (r *clinicAttendanceRepo) Create(ctx context.Context, att *model.ClinicAttendance) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *clinicAttendanceRepo) CreateIfAbsent(ctx context.Context, att *model.ClinicAttendance) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(att)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *clinicAttendanceRepo) GetByID(ctx context.Context, id string) (*model.ClinicAttendance, error) {
	var att model.ClinicAttendance
	err := r.db.WithContext(ctx).
		Preload("Session").
		Preload("StudentCourseRecord").
		Where("clinic_attendance_id = ? AND "+notDeleted, id).
		First(&att).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *clinicAttendanceRepo) Exists(ctx context.Context, sessionID, recordID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ClinicAttendance{}).
		Where("clinic_session_id = ? AND student_course_record_id = ? AND "+notDeleted, sessionID, recordID).
		Count(&count).Error
	return count > 0, err
}

func (r *clinicAttendanceRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ClinicAttendance{}).
		Where("clinic_session_id = ? AND "+notDeleted, sessionID).
		Count(&count).Error
	return count, err
}

func (r *clinicAttendanceRepo) CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ClinicSessionID string
		Count           int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.ClinicAttendance{}).
		Select("clinic_session_id, COUNT(*) AS count").
		Where("clinic_session_id IN ? AND "+notDeleted, sessionIDs).
		Group("clinic_session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ClinicSessionID] = row.Count
	}
	return result, nil
}

func (r *clinicAttendanceRepo) ListBySession(ctx context.Context, sessionID string) ([]model.ClinicAttendance, error) {
	return r.ListBySessions(ctx, []string{sessionID})
}

func (r *clinicAttendanceRepo) ListBySessions(ctx context.Context, sessionIDs []string) ([]model.ClinicAttendance, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var list []model.ClinicAttendance
	err := r.db.WithContext(ctx).
		Preload("StudentCourseRecord").
		Preload("StudentCourseRecord.Student").
		Where("clinic_session_id IN ? AND "+notDeleted, sessionIDs).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *clinicAttendanceRepo) ListByRecordsInRange(ctx context.Context, recordIDs []string, from, to time.Time) ([]model.ClinicAttendance, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}
	var list []model.ClinicAttendance
	err := r.db.WithContext(ctx).
		Preload("Session").
		Joins("JOIN clinic_sessions cs ON cs.clinic_session_id = clinic_attendances.clinic_session_id AND cs.deleted_at IS NULL").
		Where("clinic_attendances.student_course_record_id IN ? AND clinic_attendances.deleted_at IS NULL", recordIDs).
		Where("cs.session_date BETWEEN ? AND ?", dateArg(from), dateArg(to)).
		Order("cs.session_date ASC, cs.start_time ASC").
		Find(&list).Error
	return list, err
}

func (r *clinicAttendanceRepo) MoveToSession(ctx context.Context, id, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ClinicAttendance{}).
		Where("clinic_attendance_id = ? AND "+notDeleted, id).
		Updates(map[string]interface{}{
			"clinic_session_id": sessionID,
			"updated_at":        gorm.Expr("NOW()"),
		}).Error
}

func (r *clinicAttendanceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.ClinicAttendance{}).
		Where("clinic_attendance_id = ? AND "+notDeleted, id).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}
