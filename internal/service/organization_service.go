package service

import (
	"context"

	"go.uber.org/zap"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── organization business errors ──

var (
	ErrCompanyNotFound = pkgerrors.New(pkgerrors.KindNotFound, 12001, "company not found")
	ErrBranchNotFound  = pkgerrors.New(pkgerrors.KindNotFound, 12002, "branch not found")
)

// OrganizationService companies, branches and teacher assistants
type OrganizationService interface {
	CreateCompany(ctx context.Context, p Principal, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error)
	ListCompanies(ctx context.Context, p Principal) ([]dto.CompanyResponse, error)
	DeleteCompany(ctx context.Context, p Principal, id string) error
	CreateBranch(ctx context.Context, p Principal, companyID string, req *dto.CreateBranchRequest) (*dto.BranchResponse, error)
	ListBranches(ctx context.Context, companyID string) ([]dto.BranchResponse, error)
	DeleteBranch(ctx context.Context, p Principal, id string) error
	// ListAssistants assistants assigned to a teacher
	ListAssistants(ctx context.Context, p Principal, teacherID string) ([]dto.UserBrief, error)
}

type organizationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewOrganizationService creates an OrganizationService
func NewOrganizationService(repo *repository.Repository, logger *zap.Logger) OrganizationService {
	return &organizationService{repo: repo, logger: logger}
}

// ────────────────────── Company ──────────────────────

func (s *organizationService) CreateCompany(ctx context.Context, p Principal, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if p.Role != model.RoleAdmin && p.Role != model.RoleTeacher {
		return nil, ErrForbidden
	}

	company := &model.Company{Name: req.Name, OwnerID: p.UserID}
	if err := s.repo.Company.Create(ctx, company); err != nil {
		s.logger.Error("failed to create company", zap.Error(err))
		return nil, err
	}
	return toCompanyResponse(company), nil
}

// ListCompanies admin sees every company, anyone else the ones they own
func (s *organizationService) ListCompanies(ctx context.Context, p Principal) ([]dto.CompanyResponse, error) {
	ownerID := p.UserID
	if p.IsAdmin() {
		ownerID = ""
	}

	companies, err := s.repo.Company.List(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list companies", zap.Error(err))
		return nil, err
	}

	list := make([]dto.CompanyResponse, 0, len(companies))
	for i := range companies {
		list = append(list, *toCompanyResponse(&companies[i]))
	}
	return list, nil
}

func (s *organizationService) DeleteCompany(ctx context.Context, p Principal, id string) error {
	company, err := s.loadCompany(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin() && company.OwnerID != p.UserID {
		return ErrForbidden
	}

	if err := s.repo.Company.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete company", zap.String("company_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Branch ──────────────────────

func (s *organizationService) CreateBranch(ctx context.Context, p Principal, companyID string, req *dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	company, err := s.loadCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && company.OwnerID != p.UserID {
		return nil, ErrForbidden
	}

	branch := &model.Branch{CompanyID: companyID, Name: req.Name, Address: req.Address}
	if err := s.repo.Branch.Create(ctx, branch); err != nil {
		s.logger.Error("failed to create branch", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}
	return toBranchResponse(branch), nil
}

func (s *organizationService) ListBranches(ctx context.Context, companyID string) ([]dto.BranchResponse, error) {
	if _, err := s.loadCompany(ctx, companyID); err != nil {
		return nil, err
	}

	branches, err := s.repo.Branch.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("failed to list branches", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		list = append(list, *toBranchResponse(&branches[i]))
	}
	return list, nil
}

func (s *organizationService) DeleteBranch(ctx context.Context, p Principal, id string) error {
	branch, err := s.repo.Branch.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrBranchNotFound
		}
		s.logger.Error("failed to load branch", zap.String("branch_id", id), zap.Error(err))
		return err
	}

	if !p.IsAdmin() {
		company := branch.Company
		if company == nil {
			if company, err = s.loadCompany(ctx, branch.CompanyID); err != nil {
				return err
			}
		}
		if company.OwnerID != p.UserID {
			return ErrForbidden
		}
	}

	if err := s.repo.Branch.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete branch", zap.String("branch_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Assistants ──────────────────────

func (s *organizationService) ListAssistants(ctx context.Context, p Principal, teacherID string) ([]dto.UserBrief, error) {
	if !p.IsAdmin() && p.UserID != teacherID {
		return nil, ErrForbidden
	}

	links, err := s.repo.TeacherAssistant.ListByTeacher(ctx, teacherID)
	if err != nil {
		s.logger.Error("failed to list assistants", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	if len(links) == 0 {
		return []dto.UserBrief{}, nil
	}

	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.AssistantID)
	}
	users, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load assistants", zap.Error(err))
		return nil, err
	}

	list := make([]dto.UserBrief, 0, len(users))
	for _, u := range users {
		list = append(list, dto.UserBrief{ID: u.UserID, Name: u.Name})
	}
	return list, nil
}

// ── helpers ──

func (s *organizationService) loadCompany(ctx context.Context, id string) (*model.Company, error) {
	company, err := s.repo.Company.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCompanyNotFound
		}
		s.logger.Error("failed to load company", zap.String("company_id", id), zap.Error(err))
		return nil, err
	}
	return company, nil
}

func toCompanyResponse(c *model.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:        c.CompanyID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func toBranchResponse(b *model.Branch) *dto.BranchResponse {
	return &dto.BranchResponse{
		ID:        b.BranchID,
		CompanyID: b.CompanyID,
		Name:      b.Name,
		Address:   b.Address,
		CreatedAt: formatTime(b.CreatedAt),
	}
}
