package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classhub/backend/internal/api/validator"
	"classhub/backend/internal/service"
	pkgerrors "classhub/backend/pkg/errors"
	"classhub/backend/pkg/response"
)

// codeValidation envelope code for malformed or invalid request payloads
const codeValidation = 10001

// Handler aggregate of all HTTP handlers
type Handler struct {
	Auth         *AuthHandler
	Organization *OrganizationHandler
	Course       *CourseHandler
	Progress     *ProgressHandler
	Clinic       *ClinicHandler
	Batch        *BatchHandler
	Calendar     *CalendarHandler
	Export       *ExportHandler
}

// NewHandler builds the aggregate; today supplies the clinic-local date for manual batch runs
func NewHandler(svc *service.Service, today func() time.Time, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Organization: NewOrganizationHandler(svc.Organization),
		Course:       NewCourseHandler(svc.Course),
		Progress:     NewProgressHandler(svc.Progress),
		Clinic:       NewClinicHandler(svc.ClinicSlot, svc.ClinicSession, svc.ClinicAttendance, svc.ClinicRecord),
		Batch:        NewBatchHandler(svc.ClinicBatch, today, logger),
		Calendar:     NewCalendarHandler(svc.Calendar),
		Export:       NewExportHandler(svc.Export),
	}
}

// respondError typed business errors keep their code; everything else is logged by the
// access log as a 500
func respondError(c *gin.Context, err error) {
	if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
		_ = c.Error(err)
	}
	response.AppError(c, err)
}

// bindFailed writes a 400 for a ShouldBind* failure
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, "invalid request parameters", validator.Describe(err))
}
