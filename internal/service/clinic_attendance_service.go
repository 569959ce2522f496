package service

import (
	"context"

	"go.uber.org/zap"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── clinic attendance business errors ──

var (
	ErrClinicSessionLocked = pkgerrors.New(pkgerrors.KindLockedSession, 15006, "clinic session is locked, attendance can no longer change")
	ErrMoveWindowExpired   = pkgerrors.New(pkgerrors.KindMoveWindowExpired, 15007, "move deadline for this clinic session has passed")
	ErrCapacityExceeded    = pkgerrors.New(pkgerrors.KindCapacityExceeded, 15008, "clinic session is full")
	ErrDuplicateAttendance = pkgerrors.New(pkgerrors.KindDuplicateBinding, 15009, "student is already booked into this clinic session")
	ErrAttendanceNotFound  = pkgerrors.New(pkgerrors.KindNotFound, 15010, "clinic attendance not found")
	ErrEnrollmentMismatch  = pkgerrors.New(pkgerrors.KindBadRequest, 15015, "enrollment does not belong to this session's teacher")
	ErrSameSession         = pkgerrors.New(pkgerrors.KindBadRequest, 15014, "attendance is already in the target session")
)

// ClinicAttendanceService student bookings with lock and move-window enforcement
type ClinicAttendanceService interface {
	Create(ctx context.Context, p Principal, req *dto.CreateAttendanceRequest) (*dto.ClinicAttendanceResponse, error)
	Cancel(ctx context.Context, p Principal, id string) error
	Move(ctx context.Context, p Principal, id string, req *dto.MoveAttendanceRequest) (*dto.ClinicAttendanceResponse, error)
	ListBySession(ctx context.Context, p Principal, sessionID string) ([]dto.ClinicAttendanceResponse, error)
	ListByStudent(ctx context.Context, p Principal, studentID string, req *dto.DateRangeRequest) ([]dto.ClinicEvent, error)
}

type clinicAttendanceService struct {
	repo   *repository.Repository
	access accessChecker
	policy *ClinicPolicy
	logger *zap.Logger
}

// NewClinicAttendanceService creates a ClinicAttendanceService
func NewClinicAttendanceService(repo *repository.Repository, policy *ClinicPolicy, logger *zap.Logger) ClinicAttendanceService {
	return &clinicAttendanceService{
		repo:   repo,
		access: accessChecker{repo: repo},
		policy: policy,
		logger: logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *clinicAttendanceService) Create(ctx context.Context, p Principal, req *dto.CreateAttendanceRequest) (*dto.ClinicAttendanceResponse, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, req.StudentCourseRecordID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("failed to load enrollment", zap.String("id", req.StudentCourseRecordID), zap.Error(err))
		return nil, err
	}

	session, err := s.loadSession(ctx, req.ClinicSessionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, enrollment, session); err != nil {
		return nil, err
	}
	if err := s.checkTeacher(ctx, enrollment, session); err != nil {
		return nil, err
	}

	att := &model.ClinicAttendance{
		ClinicSessionID:       session.ClinicSessionID,
		StudentCourseRecordID: enrollment.StudentCourseRecordID,
	}

	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		if _, err := s.lockBookable(ctx, txRepo, session.ClinicSessionID, enrollment.StudentCourseRecordID); err != nil {
			return err
		}
		if err := txRepo.ClinicAttendance.Create(ctx, att); err != nil {
			if isDuplicate(err) {
				return ErrDuplicateAttendance
			}
			return err
		}
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("failed to create attendance", zap.String("session_id", session.ClinicSessionID), zap.Error(err))
		}
		return nil, err
	}

	att.StudentCourseRecord = enrollment
	return toClinicAttendanceResponse(att), nil
}

// ────────────────────── Cancel ──────────────────────

// Cancel removes the attendance and its record unless the session is locked
func (s *clinicAttendanceService) Cancel(ctx context.Context, p Principal, id string) error {
	att, err := s.loadAttendance(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, p, att.StudentCourseRecord, att.Session); err != nil {
		return err
	}

	if s.policy.IsLocked(att.Session, s.policy.Now()) {
		return ErrClinicSessionLocked
	}

	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.ClinicAttendance.Delete(ctx, id); err != nil {
			return err
		}
		return txRepo.ClinicRecord.DeleteByAttendance(ctx, id)
	})
	if err != nil {
		s.logger.Error("failed to cancel attendance", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Move ──────────────────────

// Move re-binds the attendance to another session. The move deadline of the source
// session is checked first; the destination is locked FOR UPDATE while its capacity is counted.
func (s *clinicAttendanceService) Move(ctx context.Context, p Principal, id string, req *dto.MoveAttendanceRequest) (*dto.ClinicAttendanceResponse, error) {
	att, err := s.loadAttendance(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, att.StudentCourseRecord, att.Session); err != nil {
		return nil, err
	}

	if !s.policy.IsMoveAllowed(att.Session, s.policy.Now()) {
		return nil, ErrMoveWindowExpired
	}
	if req.TargetSessionID == att.ClinicSessionID {
		return nil, ErrSameSession
	}

	var target *model.ClinicSession
	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		dst, err := s.lockBookable(ctx, txRepo, req.TargetSessionID, att.StudentCourseRecordID)
		if err != nil {
			return err
		}
		if err := s.checkTeacher(ctx, att.StudentCourseRecord, dst); err != nil {
			return err
		}
		if err := txRepo.ClinicAttendance.MoveToSession(ctx, id, dst.ClinicSessionID); err != nil {
			if isDuplicate(err) {
				return ErrDuplicateAttendance
			}
			return err
		}
		target = dst
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("failed to move attendance", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	att.ClinicSessionID = target.ClinicSessionID
	att.Session = target
	return toClinicAttendanceResponse(att), nil
}

// ────────────────────── List ──────────────────────

func (s *clinicAttendanceService) ListBySession(ctx context.Context, p Principal, sessionID string) ([]dto.ClinicAttendanceResponse, error) {
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}

	list, err := s.repo.ClinicAttendance.ListBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to list attendances", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClinicAttendanceResponse, 0, len(list))
	for i := range list {
		result = append(result, *toClinicAttendanceResponse(&list[i]))
	}
	return result, nil
}

// ListByStudent clinic events of a student within [from, to]
func (s *clinicAttendanceService) ListByStudent(ctx context.Context, p Principal, studentID string, req *dto.DateRangeRequest) ([]dto.ClinicEvent, error) {
	from, err := parseDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrInvalidDate
	}

	ok, err := s.access.canViewStudent(ctx, p, studentID)
	if err != nil {
		s.logger.Error("failed to check student access", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to list enrollments", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	return collectClinicEvents(ctx, s.repo, enrollmentIDs(enrollments), from, to)
}

// ── helpers ──

// lockBookable locks the session row and verifies it can take recordID
func (s *clinicAttendanceService) lockBookable(ctx context.Context, txRepo *repository.Repository, sessionID, recordID string) (*model.ClinicSession, error) {
	session, err := txRepo.ClinicSession.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrClinicSessionNotFound
		}
		return nil, err
	}
	if session.Canceled {
		return nil, ErrClinicSessionCanceled
	}
	if s.policy.IsLocked(session, s.policy.Now()) {
		return nil, ErrClinicSessionLocked
	}

	exists, err := txRepo.ClinicAttendance.Exists(ctx, sessionID, recordID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAttendance
	}

	count, err := txRepo.ClinicAttendance.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if count >= int64(session.Capacity) {
		return nil, ErrCapacityExceeded
	}
	return session, nil
}

// authorize students act on their own enrollment; staff on their teacher's sessions
func (s *clinicAttendanceService) authorize(ctx context.Context, p Principal, enrollment *model.StudentCourseRecord, session *model.ClinicSession) error {
	if p.Role == model.RoleStudent {
		if enrollment == nil || enrollment.StudentID != p.UserID {
			return ErrForbidden
		}
		return nil
	}
	ok, err := s.access.isStaffOf(ctx, p, session.TeacherID)
	if err != nil {
		s.logger.Error("failed to check staff access", zap.String("teacher_id", session.TeacherID), zap.Error(err))
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// checkTeacher the enrollment's course must be taught by the session's teacher
func (s *clinicAttendanceService) checkTeacher(ctx context.Context, enrollment *model.StudentCourseRecord, session *model.ClinicSession) error {
	course := enrollment.Course
	if course == nil {
		c, err := s.repo.Course.GetByID(ctx, enrollment.CourseID)
		if err != nil {
			if isNotFound(err) {
				return ErrCourseNotFound
			}
			return err
		}
		course = c
	}
	if course.TeacherID != session.TeacherID {
		return ErrEnrollmentMismatch
	}
	return nil
}

func (s *clinicAttendanceService) loadSession(ctx context.Context, id string) (*model.ClinicSession, error) {
	session, err := s.repo.ClinicSession.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrClinicSessionNotFound
		}
		s.logger.Error("failed to load clinic session", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *clinicAttendanceService) loadAttendance(ctx context.Context, id string) (*model.ClinicAttendance, error) {
	att, err := s.repo.ClinicAttendance.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAttendanceNotFound
		}
		s.logger.Error("failed to load attendance", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if att.Session == nil {
		session, err := s.loadSession(ctx, att.ClinicSessionID)
		if err != nil {
			return nil, err
		}
		att.Session = session
	}
	if att.StudentCourseRecord == nil {
		rec, err := s.repo.Enrollment.GetByID(ctx, att.StudentCourseRecordID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrEnrollmentNotFound
			}
			return nil, err
		}
		att.StudentCourseRecord = rec
	}
	return att, nil
}

func toClinicAttendanceResponse(att *model.ClinicAttendance) *dto.ClinicAttendanceResponse {
	resp := &dto.ClinicAttendanceResponse{
		ID:                    att.ClinicAttendanceID,
		ClinicSessionID:       att.ClinicSessionID,
		StudentCourseRecordID: att.StudentCourseRecordID,
		CreatedAt:             formatTime(att.CreatedAt),
	}
	if att.StudentCourseRecord != nil && att.StudentCourseRecord.Student != nil {
		st := att.StudentCourseRecord.Student
		resp.Student = &dto.UserBrief{ID: st.UserID, Name: st.Name}
	}
	return resp
}
