package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"classhub/backend/internal/service"
	"classhub/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler spreadsheet downloads
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportWeeklyRoster xlsx roster of the week containing date, one sheet per day
// GET /api/v1/clinic/roster?teacher_id=&date=
func (h *ExportHandler) ExportWeeklyRoster(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	teacherID := c.DefaultQuery("teacher_id", p.UserID)
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, codeValidation, "date is required")
		return
	}

	buf, filename, err := h.exportSvc.ExportWeeklyRoster(c.Request.Context(), p, teacherID, date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
