package service

import (
	"go.uber.org/zap"

	"classhub/backend/config"
	"classhub/backend/internal/repository"
	"classhub/backend/pkg/jwt"
)

// Service aggregate entry point for all services
type Service struct {
	Auth             AuthService
	Organization     OrganizationService
	Course           CourseService
	Progress         ProgressService
	ClinicSlot       ClinicSlotService
	ClinicSession    ClinicSessionService
	ClinicAttendance ClinicAttendanceService
	ClinicRecord     ClinicRecordService
	ClinicBatch      ClinicBatchService
	Calendar         CalendarService
	Export           ExportService
}

// NewService builds the aggregate. blacklist and locker may be nil when redis is unavailable;
// pass untyped nils, never a nil *redis.Client.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	locker Locker,
	policy *ClinicPolicy,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:             NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Organization:     NewOrganizationService(repo, logger),
		Course:           NewCourseService(repo, logger),
		Progress:         NewProgressService(repo, logger),
		ClinicSlot:       NewClinicSlotService(repo, logger),
		ClinicSession:    NewClinicSessionService(repo, policy, logger),
		ClinicAttendance: NewClinicAttendanceService(repo, policy, logger),
		ClinicRecord:     NewClinicRecordService(repo, logger),
		ClinicBatch:      NewClinicBatchService(repo, policy, locker, cfg.Clinic.BatchLockTTL, logger),
		Calendar:         NewCalendarService(repo, policy, logger),
		Export:           NewExportService(repo, logger),
	}
}
