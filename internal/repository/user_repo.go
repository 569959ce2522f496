package repository

import (
	"context"

	"gorm.io/gorm"

	"classhub/backend/internal/model"
)

// UserRepository user data access
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a UserRepository
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND "+notDeleted, id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND "+notDeleted, email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND "+notDeleted, ids).
		Find(&users).Error
	return users, err
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ? AND "+notDeleted, email).
		Count(&count).Error
	return count > 0, err
}

// ── TeacherAssistant ──

// TeacherAssistantRepository teacher/assistant assignment data access
type TeacherAssistantRepository interface {
	Create(ctx context.Context, ta *model.TeacherAssistant) error
	Exists(ctx context.Context, teacherID, assistantID string) (bool, error)
	ListTeacherIDs(ctx context.Context, assistantID string) ([]string, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.TeacherAssistant, error)
}

type teacherAssistantRepo struct {
	db *gorm.DB
}

// NewTeacherAssistantRepo creates a TeacherAssistantRepository
func NewTeacherAssistantRepo(db *gorm.DB) TeacherAssistantRepository {
	return &teacherAssistantRepo{db: db}
}

func (r *teacherAssistantRepo) Create(ctx context.Context, ta *model.TeacherAssistant) error {
	return r.db.WithContext(ctx).Create(ta).Error
}

func (r *teacherAssistantRepo) Exists(ctx context.Context, teacherID, assistantID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TeacherAssistant{}).
		Where("teacher_id = ? AND assistant_id = ? AND "+notDeleted, teacherID, assistantID).
		Count(&count).Error
	return count > 0, err
}

func (r *teacherAssistantRepo) ListTeacherIDs(ctx context.Context, assistantID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.TeacherAssistant{}).
		Where("assistant_id = ? AND "+notDeleted, assistantID).
		Pluck("teacher_id", &ids).Error
	return ids, err
}

func (r *teacherAssistantRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.TeacherAssistant, error) {
	var list []model.TeacherAssistant
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND "+notDeleted, teacherID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
