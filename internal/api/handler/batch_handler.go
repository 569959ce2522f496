package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/service"
	"classhub/backend/pkg/response"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// BatchHandler manual weekly batch trigger and run history
type BatchHandler struct {
	batchSvc service.ClinicBatchService
	today    func() time.Time
	logger   *zap.Logger
}

// NewBatchHandler today supplies the clinic-local civil date used when no date is given
func NewBatchHandler(batchSvc service.ClinicBatchService, today func() time.Time, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{batchSvc: batchSvc, today: today, logger: logger}
}

// RunWeekly generates the sessions and default attendances of the week containing date
// POST /api/v1/clinic/batch/weekly
func (h *BatchHandler) RunWeekly(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.RunWeeklyBatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	ref := h.today()
	if req.Date != "" {
		d, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			respondError(c, service.ErrInvalidDate)
			return
		}
		ref = d
	}

	h.logger.Info("weekly batch triggered over http", zap.String("user_id", p.UserID), zap.Time("ref", ref))
	result, err := h.batchSvc.RunWeekly(c.Request.Context(), ref, "api:"+p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, result)
}

// ListRuns most recent runs first
// GET /api/v1/clinic/batch/runs?limit=
func (h *BatchHandler) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			response.BadRequest(c, codeValidation, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	runs, err := h.batchSvc.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": runs})
}
