package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── clinic record business errors ──

var (
	ErrClinicRecordNotFound = pkgerrors.New(pkgerrors.KindNotFound, 15012, "clinic record not found")
	ErrClinicRecordExists   = pkgerrors.New(pkgerrors.KindDuplicateBinding, 15013, "a record was already written for this attendance")
)

// ClinicRecordService teaching notes attached to attendances
type ClinicRecordService interface {
	Create(ctx context.Context, p Principal, req *dto.CreateClinicRecordRequest) (*dto.ClinicRecordResponse, error)
	GetByID(ctx context.Context, p Principal, id string) (*dto.ClinicRecordResponse, error)
	Update(ctx context.Context, p Principal, id string, req *dto.UpdateClinicRecordRequest) (*dto.ClinicRecordResponse, error)
	Delete(ctx context.Context, p Principal, id string) error
}

type clinicRecordService struct {
	repo   *repository.Repository
	access accessChecker
	logger *zap.Logger
}

// NewClinicRecordService creates a ClinicRecordService
func NewClinicRecordService(repo *repository.Repository, logger *zap.Logger) ClinicRecordService {
	return &clinicRecordService{repo: repo, access: accessChecker{repo: repo}, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *clinicRecordService) Create(ctx context.Context, p Principal, req *dto.CreateClinicRecordRequest) (*dto.ClinicRecordResponse, error) {
	att, err := s.loadAttendance(ctx, req.ClinicAttendanceID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWriter(ctx, p, att); err != nil {
		return nil, err
	}

	if _, err := s.repo.ClinicRecord.GetByAttendance(ctx, att.ClinicAttendanceID); err == nil {
		return nil, ErrClinicRecordExists
	} else if !isNotFound(err) {
		s.logger.Error("failed to check existing record", zap.String("attendance_id", att.ClinicAttendanceID), zap.Error(err))
		return nil, err
	}

	rec := &model.ClinicRecord{
		ClinicAttendanceID: att.ClinicAttendanceID,
		WriterID:           p.UserID,
		WriterRole:         p.Role,
		Title:              req.Title,
		Content:            req.Content,
		HomeworkProgress:   req.HomeworkProgress,
	}
	if err := s.repo.ClinicRecord.Create(ctx, rec); err != nil {
		if isDuplicate(err) {
			return nil, ErrClinicRecordExists
		}
		s.logger.Error("failed to create clinic record", zap.Error(err))
		return nil, err
	}

	return toClinicRecordResponse(rec), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *clinicRecordService) GetByID(ctx context.Context, p Principal, id string) (*dto.ClinicRecordResponse, error) {
	rec, att, err := s.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Role == model.RoleStudent {
		if att.StudentCourseRecord == nil || att.StudentCourseRecord.StudentID != p.UserID {
			return nil, ErrForbidden
		}
	} else if err := s.authorizeWriter(ctx, p, att); err != nil {
		return nil, err
	}

	return toClinicRecordResponse(rec), nil
}

// ────────────────────── Update ──────────────────────

func (s *clinicRecordService) Update(ctx context.Context, p Principal, id string, req *dto.UpdateClinicRecordRequest) (*dto.ClinicRecordResponse, error) {
	rec, att, err := s.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWriter(ctx, p, att); err != nil {
		return nil, err
	}

	if req.Title != nil {
		rec.Title = *req.Title
	}
	if req.Content != nil {
		rec.Content = *req.Content
	}
	if req.HomeworkProgress != nil {
		rec.HomeworkProgress = *req.HomeworkProgress
	}

	if err := s.repo.ClinicRecord.Update(ctx, rec); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("failed to update clinic record", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toClinicRecordResponse(rec), nil
}

// ────────────────────── Delete ──────────────────────

func (s *clinicRecordService) Delete(ctx context.Context, p Principal, id string) error {
	_, att, err := s.loadRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWriter(ctx, p, att); err != nil {
		return err
	}

	if err := s.repo.ClinicRecord.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete clinic record", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

// authorizeWriter only the session's teacher or that teacher's assistants write records
func (s *clinicRecordService) authorizeWriter(ctx context.Context, p Principal, att *model.ClinicAttendance) error {
	if p.Role != model.RoleTeacher && p.Role != model.RoleAssistant {
		return ErrForbidden
	}
	ok, err := s.access.isStaffOf(ctx, p, att.Session.TeacherID)
	if err != nil {
		s.logger.Error("failed to check staff access", zap.Error(err))
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *clinicRecordService) loadAttendance(ctx context.Context, id string) (*model.ClinicAttendance, error) {
	att, err := s.repo.ClinicAttendance.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAttendanceNotFound
		}
		s.logger.Error("failed to load attendance", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if att.Session == nil {
		session, err := s.repo.ClinicSession.GetByID(ctx, att.ClinicSessionID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrClinicSessionNotFound
			}
			return nil, err
		}
		att.Session = session
	}
	return att, nil
}

func (s *clinicRecordService) loadRecord(ctx context.Context, id string) (*model.ClinicRecord, *model.ClinicAttendance, error) {
	rec, err := s.repo.ClinicRecord.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrClinicRecordNotFound
		}
		s.logger.Error("failed to load clinic record", zap.String("id", id), zap.Error(err))
		return nil, nil, err
	}
	att, err := s.loadAttendance(ctx, rec.ClinicAttendanceID)
	if err != nil {
		return nil, nil, err
	}
	return rec, att, nil
}

func toClinicRecordResponse(rec *model.ClinicRecord) *dto.ClinicRecordResponse {
	return &dto.ClinicRecordResponse{
		ID:                 rec.ClinicRecordID,
		ClinicAttendanceID: rec.ClinicAttendanceID,
		WriterID:           rec.WriterID,
		WriterRole:         rec.WriterRole,
		Title:              rec.Title,
		Content:            rec.Content,
		HomeworkProgress:   rec.HomeworkProgress,
		Version:            rec.Version,
		CreatedAt:          formatTime(rec.CreatedAt),
		UpdatedAt:          formatTime(rec.UpdatedAt),
	}
}
