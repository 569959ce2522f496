package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classhub/backend/internal/model"
)

// InvitationRepository invitation code data access
type InvitationRepository interface {
	Create(ctx context.Context, inv *model.Invitation) error
	GetByCode(ctx context.Context, code string) (*model.Invitation, error)
	GetByCodeForUpdate(ctx context.Context, code string) (*model.Invitation, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Invitation, error)
	MarkUsed(ctx context.Context, invitationID, userID string) error
}

type invitationRepo struct {
	db *gorm.DB
}

// NewInvitationRepo creates an InvitationRepository
func NewInvitationRepo(db *gorm.DB) InvitationRepository {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invitationRepo) GetByCode(ctx context.Context, code string) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.db.WithContext(ctx).
		Where("code = ? AND "+notDeleted, code).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetByCodeForUpdate SELECT ... FOR UPDATE; call on a transaction-bound repository (Repository.WithTx)
func (r *invitationRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ? AND "+notDeleted, code).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.Invitation, error) {
	var list []model.Invitation
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND "+notDeleted, teacherID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *invitationRepo) MarkUsed(ctx context.Context, invitationID, userID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("invitation_id = ?", invitationID).
		Updates(map[string]interface{}{
			"used_at":    now,
			"used_by":    userID,
			"updated_at": now,
			"version":    gorm.Expr("version + 1"),
		}).Error
}
