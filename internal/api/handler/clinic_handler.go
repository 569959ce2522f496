package handler

import (
	"github.com/gin-gonic/gin"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/service"
	"classhub/backend/pkg/response"
)

// ClinicHandler slots, sessions, attendances and clinic records
type ClinicHandler struct {
	slotSvc       service.ClinicSlotService
	sessionSvc    service.ClinicSessionService
	attendanceSvc service.ClinicAttendanceService
	recordSvc     service.ClinicRecordService
}

// NewClinicHandler creates a ClinicHandler
func NewClinicHandler(
	slotSvc service.ClinicSlotService,
	sessionSvc service.ClinicSessionService,
	attendanceSvc service.ClinicAttendanceService,
	recordSvc service.ClinicRecordService,
) *ClinicHandler {
	return &ClinicHandler{
		slotSvc:       slotSvc,
		sessionSvc:    sessionSvc,
		attendanceSvc: attendanceSvc,
		recordSvc:     recordSvc,
	}
}

// ────────────────────── slots ──────────────────────

// CreateSlot
// POST /api/v1/clinic/slots
func (h *ClinicHandler) CreateSlot(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateClinicSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	slot, err := h.slotSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, slot)
}

// GetSlot
// GET /api/v1/clinic/slots/:id
func (h *ClinicHandler) GetSlot(c *gin.Context) {
	slot, err := h.slotSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, slot)
}

// ListSlots
// GET /api/v1/clinic/slots?teacher_id=&branch_id=&active_only=
func (h *ClinicHandler) ListSlots(c *gin.Context) {
	var req dto.ClinicSlotListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.slotSvc.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateSlot
// PUT /api/v1/clinic/slots/:id
func (h *ClinicHandler) UpdateSlot(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateClinicSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	slot, err := h.slotSvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, slot)
}

// DeleteSlot generated sessions are kept
// DELETE /api/v1/clinic/slots/:id
func (h *ClinicHandler) DeleteSlot(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.slotSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── sessions ──────────────────────

// CreateEmergencySession
// POST /api/v1/clinic/sessions/emergency
func (h *ClinicHandler) CreateEmergencySession(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateEmergencySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	session, err := h.sessionSvc.CreateEmergency(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, session)
}

// GetSession session with attendees
// GET /api/v1/clinic/sessions/:id
func (h *ClinicHandler) GetSession(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.GetByID(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, session)
}

// ListSessions
// GET /api/v1/clinic/sessions?teacher_id=&branch_id=&from=&to=&include_canceled=
func (h *ClinicHandler) ListSessions(c *gin.Context) {
	var req dto.ClinicSessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.sessionSvc.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CancelSession attendances stay bound to the canceled session
// POST /api/v1/clinic/sessions/:id/cancel
func (h *ClinicHandler) CancelSession(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Cancel(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListSessionAttendances
// GET /api/v1/clinic/sessions/:id/attendances
func (h *ClinicHandler) ListSessionAttendances(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.ListBySession(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ────────────────────── attendances ──────────────────────

// CreateAttendance
// POST /api/v1/clinic/attendances
func (h *ClinicHandler) CreateAttendance(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	attendance, err := h.attendanceSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, attendance)
}

// CancelAttendance
// DELETE /api/v1/clinic/attendances/:id
func (h *ClinicHandler) CancelAttendance(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.Cancel(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}

// MoveAttendance
// POST /api/v1/clinic/attendances/:id/move
func (h *ClinicHandler) MoveAttendance(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.MoveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	attendance, err := h.attendanceSvc.Move(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, attendance)
}

// ListStudentAttendances a student's clinic events in a date range
// GET /api/v1/students/:id/clinic-attendances?from=&to=
func (h *ClinicHandler) ListStudentAttendances(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.attendanceSvc.ListByStudent(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ────────────────────── records ──────────────────────

// CreateRecord
// POST /api/v1/clinic/records
func (h *ClinicHandler) CreateRecord(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateClinicRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	record, err := h.recordSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, record)
}

// GetRecord
// GET /api/v1/clinic/records/:id
func (h *ClinicHandler) GetRecord(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	record, err := h.recordSvc.GetByID(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, record)
}

// UpdateRecord
// PUT /api/v1/clinic/records/:id
func (h *ClinicHandler) UpdateRecord(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateClinicRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	record, err := h.recordSvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, record)
}

// DeleteRecord
// DELETE /api/v1/clinic/records/:id
func (h *ClinicHandler) DeleteRecord(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.recordSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}
