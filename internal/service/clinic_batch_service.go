package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
	"classhub/backend/pkg/redis"
)

// ── weekly batch business errors ──

var (
	ErrBatchRunning = pkgerrors.New(pkgerrors.KindConflict, 15016, "weekly batch for this week is already running")
)

const (
	batchStageSessions    = "sessions"
	batchStageAttendances = "attendances"
)

// Locker distributed mutual exclusion; *redis.Client implements it
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// ClinicBatchService materialises a week of REGULAR sessions and default-slot attendances
type ClinicBatchService interface {
	// GenerateWeeklySessions one REGULAR session per (active slot, matching date) of the week containing ref
	GenerateWeeklySessions(ctx context.Context, ref time.Time) (*dto.BatchResult, error)
	// GenerateWeeklyAttendances binds default-slot enrollments to that week's REGULAR sessions.
	// Sessions must already exist; nothing is created otherwise.
	GenerateWeeklyAttendances(ctx context.Context, ref time.Time) (*dto.BatchResult, error)
	// RunWeekly sessions then attendances, under the week lock, recorded as a ClinicBatchRun
	RunWeekly(ctx context.Context, ref time.Time, triggeredBy string) (*dto.WeeklyBatchResponse, error)
	ListRuns(ctx context.Context, limit int) ([]dto.ClinicBatchRunResponse, error)
}

type clinicBatchService struct {
	repo    *repository.Repository
	policy  *ClinicPolicy
	locker  Locker
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewClinicBatchService locker may be nil, in which case runs are not mutually excluded
func NewClinicBatchService(repo *repository.Repository, policy *ClinicPolicy, locker Locker, lockTTL time.Duration, logger *zap.Logger) ClinicBatchService {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &clinicBatchService{
		repo:    repo,
		policy:  policy,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// ────────────────────── GenerateWeeklySessions ──────────────────────

func (s *clinicBatchService) GenerateWeeklySessions(ctx context.Context, ref time.Time) (*dto.BatchResult, error) {
	weekStart, weekEnd := ResolveWeek(ref)
	result := newBatchResult()

	slots, err := s.repo.ClinicSlot.List(ctx, repository.ClinicSlotFilter{ActiveOnly: true})
	if err != nil {
		s.logger.Error("batch: failed to list active slots", zap.Error(err))
		return nil, err
	}

	for i := range slots {
		slot := &slots[i]

		if err := validateSlotShape(slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.DefaultCapacity); err != nil {
			s.fail(result, batchStageSessions, slot.ClinicSlotID, "", err.Error())
			continue
		}

		// exactly one date per ISO weekday in a Monday-Sunday week
		date := weekStart.AddDate(0, 0, slot.DayOfWeek-1)
		slotID := slot.ClinicSlotID
		session := &model.ClinicSession{
			ClinicSlotID: &slotID,
			TeacherID:    slot.TeacherID,
			BranchID:     slot.BranchID,
			SessionType:  model.SessionTypeRegular,
			SessionDate:  date,
			StartTime:    slot.StartTime,
			EndTime:      slot.EndTime,
			Capacity:     slot.DefaultCapacity,
		}

		created, err := s.repo.ClinicSession.CreateIfAbsent(ctx, session)
		if err != nil {
			s.fail(result, batchStageSessions, slot.ClinicSlotID, formatDate(date), err.Error())
			continue
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("batch: weekly sessions generated",
		zap.String("week_start", formatDate(weekStart)),
		zap.String("week_end", formatDate(weekEnd)),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ────────────────────── GenerateWeeklyAttendances ──────────────────────

func (s *clinicBatchService) GenerateWeeklyAttendances(ctx context.Context, ref time.Time) (*dto.BatchResult, error) {
	weekStart, weekEnd := ResolveWeek(ref)
	result := newBatchResult()

	sessions, err := s.repo.ClinicSession.List(ctx, repository.ClinicSessionFilter{
		SessionType:     model.SessionTypeRegular,
		From:            &weekStart,
		To:              &weekEnd,
		IncludeCanceled: true,
	})
	if err != nil {
		s.logger.Error("batch: failed to list week sessions", zap.Error(err))
		return nil, err
	}
	if len(sessions) == 0 {
		s.logger.Info("batch: no sessions for week, attendances not generated",
			zap.String("week_start", formatDate(weekStart)))
		return result, nil
	}

	bySlot := make(map[string][]*model.ClinicSession)
	for i := range sessions {
		cs := &sessions[i]
		if cs.ClinicSlotID == nil {
			continue
		}
		bySlot[*cs.ClinicSlotID] = append(bySlot[*cs.ClinicSlotID], cs)
	}

	enrollments, err := s.repo.Enrollment.ListWithDefaultSlot(ctx)
	if err != nil {
		s.logger.Error("batch: failed to list default-slot enrollments", zap.Error(err))
		return nil, err
	}

	now := s.policy.Now()
	for i := range enrollments {
		enrollment := &enrollments[i]
		if enrollment.DefaultClinicSlotID == nil {
			continue
		}

		for _, cs := range bySlot[*enrollment.DefaultClinicSlotID] {
			if cs.Canceled {
				result.Skipped++
				s.logger.Info("batch: session canceled, attendance skipped",
					zap.String("session_id", cs.ClinicSessionID),
					zap.String("enrollment_id", enrollment.StudentCourseRecordID))
				continue
			}
			if s.policy.IsLocked(cs, now) {
				result.Skipped++
				s.logger.Info("batch: session locked, attendance skipped",
					zap.String("reason", "locked"),
					zap.String("session_id", cs.ClinicSessionID),
					zap.String("enrollment_id", enrollment.StudentCourseRecordID))
				continue
			}

			created, err := s.bindDefault(ctx, cs.ClinicSessionID, enrollment.StudentCourseRecordID)
			switch {
			case errors.Is(err, ErrCapacityExceeded):
				result.Skipped++
				s.logger.Warn("batch: session full, attendance skipped",
					zap.String("reason", "capacity"),
					zap.String("session_id", cs.ClinicSessionID),
					zap.String("enrollment_id", enrollment.StudentCourseRecordID))
			case err != nil:
				s.fail(result, batchStageAttendances, enrollment.StudentCourseRecordID, formatDate(cs.SessionDate), err.Error())
			case created:
				result.Created++
			default:
				result.Skipped++
			}
		}
	}

	s.logger.Info("batch: weekly attendances generated",
		zap.String("week_start", formatDate(weekStart)),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// bindDefault creates the attendance under a lock on the session row; false when already bound
func (s *clinicBatchService) bindDefault(ctx context.Context, sessionID, recordID string) (bool, error) {
	var created bool
	err := s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		session, err := txRepo.ClinicSession.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		exists, err := txRepo.ClinicAttendance.Exists(ctx, sessionID, recordID)
		if err != nil || exists {
			return err
		}

		count, err := txRepo.ClinicAttendance.CountBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if count >= int64(session.Capacity) {
			return ErrCapacityExceeded
		}

		created, err = txRepo.ClinicAttendance.CreateIfAbsent(ctx, &model.ClinicAttendance{
			ClinicSessionID:       sessionID,
			StudentCourseRecordID: recordID,
		})
		return err
	})
	return created, err
}

// ────────────────────── RunWeekly ──────────────────────

func (s *clinicBatchService) RunWeekly(ctx context.Context, ref time.Time, triggeredBy string) (*dto.WeeklyBatchResponse, error) {
	weekStart, weekEnd := ResolveWeek(ref)

	if s.locker != nil {
		lockName := "clinic:batch:weekly:" + formatDate(weekStart)
		token, err := s.locker.AcquireLock(ctx, lockName, s.lockTTL)
		if err != nil {
			if errors.Is(err, redis.ErrLockHeld) {
				return nil, ErrBatchRunning
			}
			s.logger.Error("batch: failed to acquire lock", zap.String("lock", lockName), zap.Error(err))
			return nil, err
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), lockName, token); err != nil {
				s.logger.Warn("batch: failed to release lock", zap.String("lock", lockName), zap.Error(err))
			}
		}()
	}

	startedAt := s.policy.Now()

	sessions, err := s.GenerateWeeklySessions(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	attendances, err := s.GenerateWeeklyAttendances(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	resp := &dto.WeeklyBatchResponse{
		WeekStart:   formatDate(weekStart),
		WeekEnd:     formatDate(weekEnd),
		Sessions:    *sessions,
		Attendances: *attendances,
	}

	failures := make([]model.BatchFailure, 0, sessions.Failed+attendances.Failed)
	for _, f := range append(append([]dto.BatchFailure{}, sessions.Failures...), attendances.Failures...) {
		failures = append(failures, model.BatchFailure{Stage: f.Stage, EntityID: f.EntityID, Date: f.Date, Reason: f.Reason})
	}

	run := &model.ClinicBatchRun{
		WeekStart:          weekStart,
		WeekEnd:            weekEnd,
		TriggeredBy:        triggeredBy,
		SessionsCreated:    sessions.Created,
		SessionsSkipped:    sessions.Skipped,
		AttendancesCreated: attendances.Created,
		AttendancesSkipped: attendances.Skipped,
		FailedCount:        len(failures),
		Failures:           datatypes.NewJSONType(failures),
		StartedAt:          startedAt,
		FinishedAt:         s.policy.Now(),
	}
	if err := s.repo.ClinicBatchRun.Create(ctx, run); err != nil {
		// the generated rows are already committed; only the run log is lost
		s.logger.Error("batch: failed to persist run summary", zap.Error(err))
	} else {
		resp.RunID = run.ClinicBatchRunID
	}

	s.logger.Info("batch: weekly run finished",
		zap.String("triggered_by", triggeredBy),
		zap.String("week_start", resp.WeekStart),
		zap.Int("sessions_created", sessions.Created),
		zap.Int("attendances_created", attendances.Created),
		zap.Int("failed", len(failures)),
	)
	return resp, nil
}

// ────────────────────── ListRuns ──────────────────────

func (s *clinicBatchService) ListRuns(ctx context.Context, limit int) ([]dto.ClinicBatchRunResponse, error) {
	runs, err := s.repo.ClinicBatchRun.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list batch runs", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClinicBatchRunResponse, 0, len(runs))
	for _, run := range runs {
		failures := make([]dto.BatchFailure, 0, run.FailedCount)
		for _, f := range run.Failures.Data() {
			failures = append(failures, dto.BatchFailure{Stage: f.Stage, EntityID: f.EntityID, Date: f.Date, Reason: f.Reason})
		}
		result = append(result, dto.ClinicBatchRunResponse{
			ID:                 run.ClinicBatchRunID,
			WeekStart:          formatDate(run.WeekStart),
			WeekEnd:            formatDate(run.WeekEnd),
			TriggeredBy:        run.TriggeredBy,
			SessionsCreated:    run.SessionsCreated,
			SessionsSkipped:    run.SessionsSkipped,
			AttendancesCreated: run.AttendancesCreated,
			AttendancesSkipped: run.AttendancesSkipped,
			Failures:           failures,
			StartedAt:          formatTime(run.StartedAt),
			FinishedAt:         formatTime(run.FinishedAt),
		})
	}
	return result, nil
}

// ── helpers ──

func newBatchResult() *dto.BatchResult {
	return &dto.BatchResult{Failures: []dto.BatchFailure{}}
}

func (s *clinicBatchService) fail(result *dto.BatchResult, stage, entityID, date, reason string) {
	result.Failed++
	result.Failures = append(result.Failures, dto.BatchFailure{
		Stage:    stage,
		EntityID: entityID,
		Date:     date,
		Reason:   reason,
	})
	s.logger.Warn(fmt.Sprintf("batch: %s item failed", stage),
		zap.String("entity_id", entityID),
		zap.String("date", date),
		zap.String("reason", reason),
	)
}
