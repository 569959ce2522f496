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

// ── clinic slot business errors ──

var (
	ErrClinicSlotNotFound = pkgerrors.New(pkgerrors.KindNotFound, 15001, "clinic slot not found")
	ErrInvalidTimeRange   = pkgerrors.New(pkgerrors.KindBadRequest, 15002, "start time must be before end time (HH:MM)")
	ErrInvalidCapacity    = pkgerrors.New(pkgerrors.KindBadRequest, 15003, "capacity must be at least 1")
	ErrInvalidDayOfWeek   = pkgerrors.New(pkgerrors.KindBadRequest, 15017, "day of week must be 1 (Monday) to 7 (Sunday)")
)

// ClinicSlotService weekly clinic slot management
type ClinicSlotService interface {
	Create(ctx context.Context, p Principal, req *dto.CreateClinicSlotRequest) (*dto.ClinicSlotResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClinicSlotResponse, error)
	List(ctx context.Context, req *dto.ClinicSlotListRequest) ([]dto.ClinicSlotResponse, error)
	Update(ctx context.Context, p Principal, id string, req *dto.UpdateClinicSlotRequest) (*dto.ClinicSlotResponse, error)
	Delete(ctx context.Context, p Principal, id string) error
}

type clinicSlotService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClinicSlotService creates a ClinicSlotService
func NewClinicSlotService(repo *repository.Repository, logger *zap.Logger) ClinicSlotService {
	return &clinicSlotService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *clinicSlotService) Create(ctx context.Context, p Principal, req *dto.CreateClinicSlotRequest) (*dto.ClinicSlotResponse, error) {
	if err := validateSlotShape(req.DayOfWeek, req.StartTime, req.EndTime, req.DefaultCapacity); err != nil {
		return nil, err
	}

	if _, err := s.repo.Branch.GetByID(ctx, req.BranchID); err != nil {
		if isNotFound(err) {
			return nil, ErrBranchNotFound
		}
		s.logger.Error("failed to load branch", zap.String("branch_id", req.BranchID), zap.Error(err))
		return nil, err
	}

	slot := &model.ClinicSlot{
		TeacherID:       p.UserID,
		BranchID:        req.BranchID,
		DayOfWeek:       req.DayOfWeek,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DefaultCapacity: req.DefaultCapacity,
		IsActive:        true,
	}

	if err := s.repo.ClinicSlot.Create(ctx, slot); err != nil {
		s.logger.Error("failed to create clinic slot", zap.Error(err))
		return nil, err
	}

	return toClinicSlotResponse(slot), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *clinicSlotService) GetByID(ctx context.Context, id string) (*dto.ClinicSlotResponse, error) {
	slot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toClinicSlotResponse(slot), nil
}

// ────────────────────── List ──────────────────────

func (s *clinicSlotService) List(ctx context.Context, req *dto.ClinicSlotListRequest) ([]dto.ClinicSlotResponse, error) {
	slots, err := s.repo.ClinicSlot.List(ctx, repository.ClinicSlotFilter{
		TeacherID:  req.TeacherID,
		BranchID:   req.BranchID,
		ActiveOnly: req.ActiveOnly,
	})
	if err != nil {
		s.logger.Error("failed to list clinic slots", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClinicSlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, *toClinicSlotResponse(&slots[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *clinicSlotService) Update(ctx context.Context, p Principal, id string, req *dto.UpdateClinicSlotRequest) (*dto.ClinicSlotResponse, error) {
	slot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && slot.TeacherID != p.UserID {
		return nil, ErrForbidden
	}

	if req.DayOfWeek != nil {
		slot.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		slot.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		slot.EndTime = *req.EndTime
	}
	if req.DefaultCapacity != nil {
		slot.DefaultCapacity = *req.DefaultCapacity
	}
	if req.IsActive != nil {
		slot.IsActive = *req.IsActive
	}

	if err := validateSlotShape(slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.DefaultCapacity); err != nil {
		return nil, err
	}

	if err := s.repo.ClinicSlot.Update(ctx, slot); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("failed to update clinic slot", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toClinicSlotResponse(slot), nil
}

// ────────────────────── Delete ──────────────────────

// Delete soft deletes the slot. Sessions already generated from it stay.
func (s *clinicSlotService) Delete(ctx context.Context, p Principal, id string) error {
	slot, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin() && slot.TeacherID != p.UserID {
		return ErrForbidden
	}

	if err := s.repo.ClinicSlot.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete clinic slot", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *clinicSlotService) load(ctx context.Context, id string) (*model.ClinicSlot, error) {
	slot, err := s.repo.ClinicSlot.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrClinicSlotNotFound
		}
		s.logger.Error("failed to load clinic slot", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return slot, nil
}

func validateSlotShape(dayOfWeek int, start, end string, capacity int) error {
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return ErrInvalidDayOfWeek
	}
	if !validTimeRange(start, end) {
		return ErrInvalidTimeRange
	}
	if capacity < 1 {
		return ErrInvalidCapacity
	}
	return nil
}

func toClinicSlotResponse(slot *model.ClinicSlot) *dto.ClinicSlotResponse {
	return &dto.ClinicSlotResponse{
		ID:              slot.ClinicSlotID,
		TeacherID:       slot.TeacherID,
		BranchID:        slot.BranchID,
		DayOfWeek:       slot.DayOfWeek,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		DefaultCapacity: slot.DefaultCapacity,
		IsActive:        slot.IsActive,
		Version:         slot.Version,
	}
}
