package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── common business errors ──

var (
	ErrInvalidDate = pkgerrors.New(pkgerrors.KindBadRequest, 10007, "invalid date, expected YYYY-MM-DD")
	ErrForbidden   = pkgerrors.New(pkgerrors.KindForbidden, 10003, "permission denied")
)

// Principal authenticated caller
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin admin bypasses ownership checks
func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

// accessChecker relationship checks shared by services
type accessChecker struct {
	repo *repository.Repository
}

// isStaffOf true when p is the teacher or one of the teacher's assistants
func (a accessChecker) isStaffOf(ctx context.Context, p Principal, teacherID string) (bool, error) {
	switch p.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleTeacher:
		return p.UserID == teacherID, nil
	case model.RoleAssistant:
		return a.repo.TeacherAssistant.Exists(ctx, teacherID, p.UserID)
	}
	return false, nil
}

// canViewStudent ADMIN all; STUDENT self; TEACHER own students; ASSISTANT students of their teachers
func (a accessChecker) canViewStudent(ctx context.Context, p Principal, studentID string) (bool, error) {
	switch p.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleStudent:
		return p.UserID == studentID, nil
	case model.RoleTeacher:
		return a.repo.Enrollment.ExistsForTeacher(ctx, p.UserID, studentID)
	case model.RoleAssistant:
		teacherIDs, err := a.repo.TeacherAssistant.ListTeacherIDs(ctx, p.UserID)
		if err != nil {
			return false, err
		}
		for _, tid := range teacherIDs {
			ok, err := a.repo.Enrollment.ExistsForTeacher(ctx, tid, studentID)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
