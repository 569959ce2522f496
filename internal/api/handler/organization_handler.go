package handler

import (
	"github.com/gin-gonic/gin"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/service"
	"classhub/backend/pkg/response"
)

// OrganizationHandler companies, branches and teacher assistants
type OrganizationHandler struct {
	orgSvc service.OrganizationService
}

// NewOrganizationHandler creates an OrganizationHandler
func NewOrganizationHandler(orgSvc service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgSvc: orgSvc}
}

// CreateCompany
// POST /api/v1/companies
func (h *OrganizationHandler) CreateCompany(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	company, err := h.orgSvc.CreateCompany(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, company)
}

// ListCompanies admins see all, teachers their own
// GET /api/v1/companies
func (h *OrganizationHandler) ListCompanies(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.orgSvc.ListCompanies(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DeleteCompany
// DELETE /api/v1/companies/:id
func (h *OrganizationHandler) DeleteCompany(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.orgSvc.DeleteCompany(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}

// CreateBranch
// POST /api/v1/companies/:id/branches
func (h *OrganizationHandler) CreateBranch(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	branch, err := h.orgSvc.CreateBranch(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, branch)
}

// ListBranches
// GET /api/v1/companies/:id/branches
func (h *OrganizationHandler) ListBranches(c *gin.Context) {
	list, err := h.orgSvc.ListBranches(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DeleteBranch
// DELETE /api/v1/branches/:id
func (h *OrganizationHandler) DeleteBranch(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.orgSvc.DeleteBranch(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListAssistants
// GET /api/v1/teachers/:id/assistants
func (h *OrganizationHandler) ListAssistants(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.orgSvc.ListAssistants(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
