package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── progress business errors ──

var (
	ErrProgressNotFound = pkgerrors.New(pkgerrors.KindNotFound, 14001, "progress entry not found")
	ErrInvalidDateRange = pkgerrors.New(pkgerrors.KindBadRequest, 14002, "from must not be after to")
)

// ProgressService course and personal progress journals
type ProgressService interface {
	CreateCourseProgress(ctx context.Context, p Principal, courseID string, req *dto.CreateProgressRequest) (*dto.CourseProgressResponse, error)
	ListCourseProgress(ctx context.Context, p Principal, courseID string, req *dto.DateRangeRequest) ([]dto.CourseProgressResponse, error)
	DeleteCourseProgress(ctx context.Context, p Principal, id string) error

	CreatePersonalProgress(ctx context.Context, p Principal, recordID string, req *dto.CreateProgressRequest) (*dto.PersonalProgressResponse, error)
	ListPersonalProgress(ctx context.Context, p Principal, recordID string, req *dto.DateRangeRequest) ([]dto.PersonalProgressResponse, error)
	DeletePersonalProgress(ctx context.Context, p Principal, id string) error
}

type progressService struct {
	repo   *repository.Repository
	access accessChecker
	logger *zap.Logger
}

// NewProgressService creates a ProgressService
func NewProgressService(repo *repository.Repository, logger *zap.Logger) ProgressService {
	return &progressService{repo: repo, access: accessChecker{repo: repo}, logger: logger}
}

// ────────────────────── Course progress ──────────────────────

func (s *progressService) CreateCourseProgress(ctx context.Context, p Principal, courseID string, req *dto.CreateProgressRequest) (*dto.CourseProgressResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return nil, err
	}

	cp := &model.CourseProgress{
		CourseID:     courseID,
		ProgressDate: date,
		Title:        req.Title,
		Content:      req.Content,
		WriterID:     p.UserID,
	}
	if err := s.repo.CourseProgress.Create(ctx, cp); err != nil {
		s.logger.Error("failed to create course progress", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return toCourseProgressResponse(cp), nil
}

// ListCourseProgress staff of the course, or a student enrolled in it
func (s *progressService) ListCourseProgress(ctx context.Context, p Principal, courseID string, req *dto.DateRangeRequest) ([]dto.CourseProgressResponse, error) {
	from, to, err := parseRange(req)
	if err != nil {
		return nil, err
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if p.Role == model.RoleStudent {
		if _, err := s.repo.Enrollment.GetByStudentAndCourse(ctx, p.UserID, courseID); err != nil {
			if isNotFound(err) {
				return nil, ErrForbidden
			}
			return nil, err
		}
	} else if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return nil, err
	}

	entries, err := s.repo.CourseProgress.ListByCourses(ctx, []string{courseID}, from, to)
	if err != nil {
		s.logger.Error("failed to list course progress", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.CourseProgressResponse, 0, len(entries))
	for i := range entries {
		list = append(list, *toCourseProgressResponse(&entries[i]))
	}
	return list, nil
}

func (s *progressService) DeleteCourseProgress(ctx context.Context, p Principal, id string) error {
	cp, err := s.repo.CourseProgress.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrProgressNotFound
		}
		s.logger.Error("failed to load course progress", zap.String("course_progress_id", id), zap.Error(err))
		return err
	}

	course, err := s.loadCourse(ctx, cp.CourseID)
	if err != nil {
		return err
	}
	if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return err
	}

	if err := s.repo.CourseProgress.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete course progress", zap.String("course_progress_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Personal progress ──────────────────────

func (s *progressService) CreatePersonalProgress(ctx context.Context, p Principal, recordID string, req *dto.CreateProgressRequest) (*dto.PersonalProgressResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	_, course, err := s.loadEnrollment(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return nil, err
	}

	pp := &model.PersonalProgress{
		StudentCourseRecordID: recordID,
		ProgressDate:          date,
		Title:                 req.Title,
		Content:               req.Content,
		WriterID:              p.UserID,
	}
	if err := s.repo.PersonalProgress.Create(ctx, pp); err != nil {
		s.logger.Error("failed to create personal progress", zap.String("student_course_record_id", recordID), zap.Error(err))
		return nil, err
	}
	return toPersonalProgressResponse(pp), nil
}

// ListPersonalProgress staff of the course, or the enrolled student
func (s *progressService) ListPersonalProgress(ctx context.Context, p Principal, recordID string, req *dto.DateRangeRequest) ([]dto.PersonalProgressResponse, error) {
	from, to, err := parseRange(req)
	if err != nil {
		return nil, err
	}

	rec, course, err := s.loadEnrollment(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if p.Role == model.RoleStudent {
		if rec.StudentID != p.UserID {
			return nil, ErrForbidden
		}
	} else if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return nil, err
	}

	entries, err := s.repo.PersonalProgress.ListByRecords(ctx, []string{recordID}, from, to)
	if err != nil {
		s.logger.Error("failed to list personal progress", zap.String("student_course_record_id", recordID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.PersonalProgressResponse, 0, len(entries))
	for i := range entries {
		list = append(list, *toPersonalProgressResponse(&entries[i]))
	}
	return list, nil
}

func (s *progressService) DeletePersonalProgress(ctx context.Context, p Principal, id string) error {
	pp, err := s.repo.PersonalProgress.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrProgressNotFound
		}
		s.logger.Error("failed to load personal progress", zap.String("personal_progress_id", id), zap.Error(err))
		return err
	}

	_, course, err := s.loadEnrollment(ctx, pp.StudentCourseRecordID)
	if err != nil {
		return err
	}
	if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return err
	}

	if err := s.repo.PersonalProgress.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete personal progress", zap.String("personal_progress_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *progressService) loadCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("failed to load course", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *progressService) loadEnrollment(ctx context.Context, id string) (*model.StudentCourseRecord, *model.Course, error) {
	rec, err := s.repo.Enrollment.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrEnrollmentNotFound
		}
		s.logger.Error("failed to load enrollment", zap.String("student_course_record_id", id), zap.Error(err))
		return nil, nil, err
	}
	if rec.Course != nil {
		return rec, rec.Course, nil
	}
	course, err := s.loadCourse(ctx, rec.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return rec, course, nil
}

func (s *progressService) requireStaff(ctx context.Context, p Principal, teacherID string) error {
	ok, err := s.access.isStaffOf(ctx, p, teacherID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func parseRange(req *dto.DateRangeRequest) (time.Time, time.Time, error) {
	from, err := parseDate(req.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(req.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

func toCourseProgressResponse(cp *model.CourseProgress) *dto.CourseProgressResponse {
	return &dto.CourseProgressResponse{
		ID:        cp.CourseProgressID,
		CourseID:  cp.CourseID,
		Date:      formatDate(cp.ProgressDate),
		Title:     cp.Title,
		Content:   cp.Content,
		WriterID:  cp.WriterID,
		CreatedAt: formatTime(cp.CreatedAt),
	}
}

func toPersonalProgressResponse(pp *model.PersonalProgress) *dto.PersonalProgressResponse {
	return &dto.PersonalProgressResponse{
		ID:                    pp.PersonalProgressID,
		StudentCourseRecordID: pp.StudentCourseRecordID,
		Date:                  formatDate(pp.ProgressDate),
		Title:                 pp.Title,
		Content:               pp.Content,
		WriterID:              pp.WriterID,
		CreatedAt:             formatTime(pp.CreatedAt),
	}
}
