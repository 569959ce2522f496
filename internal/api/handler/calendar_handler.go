package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/service"
	"classhub/backend/pkg/response"
)

// CalendarHandler student monthly calendar
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler creates a CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// GetStudentCalendar
// GET /api/v1/students/:id/calendar?year=&month=
func (h *CalendarHandler) GetStudentCalendar(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	cal, err := h.calendarSvc.GetStudentCalendar(c.Request.Context(), p, c.Param("id"), req.Year, req.Month)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, cal)
}

// ExportStudentCalendarICS the same month as an iCalendar download
// GET /api/v1/students/:id/calendar.ics?year=&month=
func (h *CalendarHandler) ExportStudentCalendarICS(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	body, filename, err := h.calendarSvc.ExportStudentCalendarICS(c.Request.Context(), p, c.Param("id"), req.Year, req.Month)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}
