package handler

import (
	"github.com/gin-gonic/gin"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/service"
	"classhub/backend/pkg/response"
)

// ProgressHandler course and personal progress journals
type ProgressHandler struct {
	progressSvc service.ProgressService
}

// NewProgressHandler creates a ProgressHandler
func NewProgressHandler(progressSvc service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

// CreateCourseProgress
// POST /api/v1/courses/:id/progress
func (h *ProgressHandler) CreateCourseProgress(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entry, err := h.progressSvc.CreateCourseProgress(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, entry)
}

// ListCourseProgress
// GET /api/v1/courses/:id/progress?from=&to=
func (h *ProgressHandler) ListCourseProgress(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.progressSvc.ListCourseProgress(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DeleteCourseProgress
// DELETE /api/v1/course-progress/:id
func (h *ProgressHandler) DeleteCourseProgress(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.progressSvc.DeleteCourseProgress(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}

// CreatePersonalProgress
// POST /api/v1/enrollments/:id/progress
func (h *ProgressHandler) CreatePersonalProgress(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entry, err := h.progressSvc.CreatePersonalProgress(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, entry)
}

// ListPersonalProgress
// GET /api/v1/enrollments/:id/progress?from=&to=
func (h *ProgressHandler) ListPersonalProgress(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.progressSvc.ListPersonalProgress(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DeletePersonalProgress
// DELETE /api/v1/personal-progress/:id
func (h *ProgressHandler) DeletePersonalProgress(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.progressSvc.DeletePersonalProgress(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}
