package handler

import (
	"github.com/gin-gonic/gin"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/service"
	"classhub/backend/pkg/response"
)

// CourseHandler courses and enrollments
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler creates a CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// Create
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, course)
}

// Get
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, course)
}

// List courses of a teacher, the caller when teacher_id is omitted
// GET /api/v1/courses?teacher_id=
func (h *CourseHandler) List(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	teacherID := c.DefaultQuery("teacher_id", p.UserID)
	list, err := h.courseSvc.ListByTeacher(c.Request.Context(), teacherID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Update
// PUT /api/v1/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, course)
}

// Delete
// DELETE /api/v1/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}

// Enroll
// POST /api/v1/courses/:id/enrollments
func (h *CourseHandler) Enroll(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	enrollment, err := h.courseSvc.Enroll(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// ListEnrollments
// GET /api/v1/courses/:id/enrollments
func (h *CourseHandler) ListEnrollments(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.courseSvc.ListEnrollments(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListStudentEnrollments
// GET /api/v1/students/:id/enrollments
func (h *CourseHandler) ListStudentEnrollments(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.courseSvc.ListStudentEnrollments(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SetDefaultSlot sets or clears (null) the default clinic slot
// PUT /api/v1/enrollments/:id/default-slot
func (h *CourseHandler) SetDefaultSlot(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SetDefaultSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	enrollment, err := h.courseSvc.SetDefaultSlot(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, enrollment)
}

// Withdraw
// DELETE /api/v1/enrollments/:id
func (h *CourseHandler) Withdraw(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Withdraw(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}
