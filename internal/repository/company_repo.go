package repository

import (
	"context"

	"gorm.io/gorm"

	"classhub/backend/internal/model"
)

// CompanyRepository company data access
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	List(ctx context.Context, ownerID string) ([]model.Company, error)
	Delete(ctx context.Context, id string) error
}

type companyRepo struct {
	db *gorm.DB
}

// NewCompanyRepo creates a CompanyRepository
func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND "+notDeleted, id).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// List ownerID "" lists every company
func (r *companyRepo) List(ctx context.Context, ownerID string) ([]model.Company, error) {
	var companies []model.Company
	db := r.db.WithContext(ctx).Where(notDeleted)
	if ownerID != "" {
		db = db.Where("owner_id = ?", ownerID)
	}
	err := db.Order("name ASC").Find(&companies).Error
	return companies, err
}

func (r *companyRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Company{}).
		Where("company_id = ? AND "+notDeleted, id).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}

// ── Branch ──

// BranchRepository branch data access
type BranchRepository interface {
	Create(ctx context.Context, branch *model.Branch) error
	GetByID(ctx context.Context, id string) (*model.Branch, error)
	ListByCompany(ctx context.Context, companyID string) ([]model.Branch, error)
	Delete(ctx context.Context, id string) error
}

type branchRepo struct {
	db *gorm.DB
}

// NewBranchRepo creates a BranchRepository
func NewBranchRepo(db *gorm.DB) BranchRepository {
	return &branchRepo{db: db}
}

func (r *branchRepo) Create(ctx context.Context, branch *model.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *branchRepo) GetByID(ctx context.Context, id string) (*model.Branch, error) {
	var branch model.Branch
	err := r.db.WithContext(ctx).
		Preload("Company").
		Where("branch_id = ? AND "+notDeleted, id).
		First(&branch).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepo) ListByCompany(ctx context.Context, companyID string) ([]model.Branch, error) {
	var branches []model.Branch
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND "+notDeleted, companyID).
		Order("name ASC").
		Find(&branches).Error
	return branches, err
}

func (r *branchRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Branch{}).
		Where("branch_id = ? AND "+notDeleted, id).
		Update("deleted_at", gorm.Expr("NOW()")).Error
}
