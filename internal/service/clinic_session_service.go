package service

import (
	"context"

	"go.uber.org/zap"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── clinic session business errors ──

var (
	ErrClinicSessionNotFound = pkgerrors.New(pkgerrors.KindNotFound, 15004, "clinic session not found")
	ErrClinicSessionCanceled = pkgerrors.New(pkgerrors.KindConflict, 15005, "clinic session is canceled")
)

// ClinicSessionService dated clinic sessions
type ClinicSessionService interface {
	CreateEmergency(ctx context.Context, p Principal, req *dto.CreateEmergencySessionRequest) (*dto.ClinicSessionResponse, error)
	GetByID(ctx context.Context, p Principal, id string) (*dto.ClinicSessionDetailResponse, error)
	List(ctx context.Context, req *dto.ClinicSessionListRequest) ([]dto.ClinicSessionResponse, error)
	Cancel(ctx context.Context, p Principal, id string) error
}

type clinicSessionService struct {
	repo   *repository.Repository
	access accessChecker
	policy *ClinicPolicy
	logger *zap.Logger
}

// NewClinicSessionService creates a ClinicSessionService
func NewClinicSessionService(repo *repository.Repository, policy *ClinicPolicy, logger *zap.Logger) ClinicSessionService {
	return &clinicSessionService{repo: repo, access: accessChecker{repo: repo}, policy: policy, logger: logger}
}

// ────────────────────── CreateEmergency ──────────────────────

func (s *clinicSessionService) CreateEmergency(ctx context.Context, p Principal, req *dto.CreateEmergencySessionRequest) (*dto.ClinicSessionResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if !validTimeRange(req.StartTime, req.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	if req.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	if _, err := s.repo.Branch.GetByID(ctx, req.BranchID); err != nil {
		if isNotFound(err) {
			return nil, ErrBranchNotFound
		}
		s.logger.Error("failed to load branch", zap.String("branch_id", req.BranchID), zap.Error(err))
		return nil, err
	}

	session := &model.ClinicSession{
		TeacherID:   p.UserID,
		BranchID:    req.BranchID,
		SessionType: model.SessionTypeEmergency,
		SessionDate: date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
	}
	if err := s.repo.ClinicSession.Create(ctx, session); err != nil {
		s.logger.Error("failed to create emergency session", zap.Error(err))
		return nil, err
	}

	return toClinicSessionResponse(session, 0), nil
}

// ────────────────────── GetByID ──────────────────────

// GetByID staff of the session's teacher see every attendee; a student sees only their own bookings
func (s *clinicSessionService) GetByID(ctx context.Context, p Principal, id string) (*dto.ClinicSessionDetailResponse, error) {
	session, err := s.repo.ClinicSession.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrClinicSessionNotFound
		}
		s.logger.Error("failed to load clinic session", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	staff := false
	if p.Role != model.RoleStudent {
		if staff, err = s.access.isStaffOf(ctx, p, session.TeacherID); err != nil {
			return nil, err
		}
		if !staff {
			return nil, ErrForbidden
		}
	}

	attendances, err := s.repo.ClinicAttendance.ListBySession(ctx, id)
	if err != nil {
		s.logger.Error("failed to list attendances", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	attendees := make([]dto.ClinicAttendanceResponse, 0, len(attendances))
	for i := range attendances {
		att := toClinicAttendanceResponse(&attendances[i])
		if !staff && (att.Student == nil || att.Student.ID != p.UserID) {
			continue
		}
		attendees = append(attendees, *att)
	}

	return &dto.ClinicSessionDetailResponse{
		ClinicSessionResponse: *toClinicSessionResponse(session, len(attendances)),
		Attendees:             attendees,
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *clinicSessionService) List(ctx context.Context, req *dto.ClinicSessionListRequest) ([]dto.ClinicSessionResponse, error) {
	filter := repository.ClinicSessionFilter{
		TeacherID:       req.TeacherID,
		BranchID:        req.BranchID,
		IncludeCanceled: req.IncludeCanceled,
	}
	if req.From != "" {
		from, err := parseDate(req.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := parseDate(req.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	sessions, err := s.repo.ClinicSession.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list clinic sessions", zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(sessions))
	for _, cs := range sessions {
		ids = append(ids, cs.ClinicSessionID)
	}
	counts, err := s.repo.ClinicAttendance.CountBySessions(ctx, ids)
	if err != nil {
		s.logger.Error("failed to count attendances", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClinicSessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, *toClinicSessionResponse(&sessions[i], int(counts[sessions[i].ClinicSessionID])))
	}
	return result, nil
}

// ────────────────────── Cancel ──────────────────────

// Cancel flags the session canceled; the row and its attendances stay for history
func (s *clinicSessionService) Cancel(ctx context.Context, p Principal, id string) error {
	session, err := s.repo.ClinicSession.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrClinicSessionNotFound
		}
		s.logger.Error("failed to load clinic session", zap.String("id", id), zap.Error(err))
		return err
	}
	if !p.IsAdmin() && session.TeacherID != p.UserID {
		return ErrForbidden
	}
	if session.Canceled {
		return ErrClinicSessionCanceled
	}

	if err := s.repo.ClinicSession.Cancel(ctx, id, s.policy.Now()); err != nil {
		s.logger.Error("failed to cancel clinic session", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func toClinicSessionResponse(cs *model.ClinicSession, count int) *dto.ClinicSessionResponse {
	resp := &dto.ClinicSessionResponse{
		ID:              cs.ClinicSessionID,
		ClinicSlotID:    cs.ClinicSlotID,
		TeacherID:       cs.TeacherID,
		BranchID:        cs.BranchID,
		SessionType:     cs.SessionType,
		Date:            formatDate(cs.SessionDate),
		StartTime:       cs.StartTime,
		EndTime:         cs.EndTime,
		Capacity:        cs.Capacity,
		AttendanceCount: count,
		Canceled:        cs.Canceled,
	}
	if cs.CanceledAt != nil {
		resp.CanceledAt = formatTime(*cs.CanceledAt)
	}
	return resp
}
