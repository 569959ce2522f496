package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classhub/backend/internal/model"
)

// ClinicSessionFilter list filter; zero values are ignored
type ClinicSessionFilter struct {
	TeacherID       string
	BranchID        string
	SessionType     string
	From            *time.Time
	To              *time.Time
	IncludeCanceled bool
}

// ClinicSessionRepository clinic session data access
type ClinicSessionRepository interface {
	Create(ctx context.Context, session *model.ClinicSession) error
	// CreateIfAbsent inserts unless a REGULAR session already exists for the slot and date.
	// Returns false when the row was skipped.
	CreateIfAbsent(ctx context.Context, session *model.ClinicSession) (bool, error)
	GetByID(ctx context.Context, id string) (*model.ClinicSession, error)
	// GetByIDForUpdate SELECT ... FOR UPDATE; call on a transaction-bound repository
	GetByIDForUpdate(ctx context.Context, id string) (*model.ClinicSession, error)
	List(ctx context.Context, filter ClinicSessionFilter) ([]model.ClinicSession, error)
	Cancel(ctx context.Context, id string, at time.Time) error
}

type clinicSessionRepo struct {
	db *gorm.DB
}

// NewClinicSessionRepo creates a ClinicSessionRepository
func NewClinicSessionRepo(db *gorm.DB) ClinicSessionRepository {
	return &clinicSessionRepo{db: db}
}

func (r *clinicSessionRepo) Create(ctx context.Context, session *model.ClinicSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *clinicSessionRepo) CreateIfAbsent(ctx context.Context, session *model.ClinicSession) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(session)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *clinicSessionRepo) GetByID(ctx context.Context, id string) (*model.ClinicSession, error) {
	var session model.ClinicSession
	err := r.db.WithContext(ctx).
		Where("clinic_session_id = ? AND "+notDeleted, id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *clinicSessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ClinicSession, error) {
	var session model.ClinicSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("clinic_session_id = ? AND "+notDeleted, id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *clinicSessionRepo) List(ctx context.Context, filter ClinicSessionFilter) ([]model.ClinicSession, error) {
	var sessions []model.ClinicSession
	db := r.db.WithContext(ctx).Where(notDeleted)

	if filter.TeacherID != "" {
		db = db.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.BranchID != "" {
		db = db.Where("branch_id = ?", filter.BranchID)
	}
	if filter.SessionType != "" {
		db = db.Where("session_type = ?", filter.SessionType)
	}
	if filter.From != nil {
		db = db.Where("session_date >= ?", dateArg(*filter.From))
	}
	if filter.To != nil {
		db = db.Where("session_date <= ?", dateArg(*filter.To))
	}
	if !filter.IncludeCanceled {
		db = db.Where("canceled = ?", false)
	}

	err := db.Order("session_date ASC, start_time ASC").Find(&sessions).Error
	return sessions, err
}

func (r *clinicSessionRepo) Cancel(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ClinicSession{}).
		Where("clinic_session_id = ? AND "+notDeleted, id).
		Updates(map[string]interface{}{
			"canceled":    true,
			"canceled_at": at,
			"updated_at":  at,
		}).Error
}
