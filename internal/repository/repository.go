package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository aggregate entry point for all repositories
type Repository struct {
	db *gorm.DB

	User             UserRepository
	TeacherAssistant TeacherAssistantRepository
	Company          CompanyRepository
	Branch           BranchRepository
	Invitation       InvitationRepository
	Course           CourseRepository
	Enrollment       StudentCourseRecordRepository
	ClinicSlot       ClinicSlotRepository
	ClinicSession    ClinicSessionRepository
	ClinicAttendance ClinicAttendanceRepository
	ClinicRecord     ClinicRecordRepository
	ClinicBatchRun   ClinicBatchRunRepository
	CourseProgress   CourseProgressRepository
	PersonalProgress PersonalProgressRepository
}

// NewRepository builds the aggregate on db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		User:             NewUserRepo(db),
		TeacherAssistant: NewTeacherAssistantRepo(db),
		Company:          NewCompanyRepo(db),
		Branch:           NewBranchRepo(db),
		Invitation:       NewInvitationRepo(db),
		Course:           NewCourseRepo(db),
		Enrollment:       NewStudentCourseRecordRepo(db),
		ClinicSlot:       NewClinicSlotRepo(db),
		ClinicSession:    NewClinicSessionRepo(db),
		ClinicAttendance: NewClinicAttendanceRepo(db),
		ClinicRecord:     NewClinicRecordRepo(db),
		ClinicBatchRun:   NewClinicBatchRunRepo(db),
		CourseProgress:   NewCourseProgressRepo(db),
		PersonalProgress: NewPersonalProgressRepo(db),
	}
}

// BeginTx starts a transaction. A Repository without a db (unit tests) returns nil, nil.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns a Repository bound to tx; a nil tx returns r itself
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// RunInTx runs fn inside one transaction, rolling back on error or panic
func (r *Repository) RunInTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}

// dateArg binds a calendar date as text so postgres compares it as DATE, not TIMESTAMPTZ
func dateArg(t time.Time) string {
	return t.Format("2006-01-02")
}

const notDeleted = "deleted_at IS NULL"
