package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── course business errors ──

var (
	ErrCourseNotFound     = pkgerrors.New(pkgerrors.KindNotFound, 13001, "course not found")
	ErrInvalidCourseDates = pkgerrors.New(pkgerrors.KindBadRequest, 13003, "course start date must not be after end date")
	ErrEnrollmentNotFound = pkgerrors.New(pkgerrors.KindNotFound, 13004, "enrollment not found")
	ErrAlreadyEnrolled    = pkgerrors.New(pkgerrors.KindDuplicateBinding, 13005, "student is already enrolled in this course")
	ErrNotAStudent        = pkgerrors.New(pkgerrors.KindBadRequest, 13006, "user is not a student")
	ErrDefaultSlotInvalid = pkgerrors.New(pkgerrors.KindBadRequest, 13007, "default clinic slot must be an active slot of the course teacher")
	ErrStudentNotFound    = pkgerrors.New(pkgerrors.KindNotFound, 13008, "student not found")
)

// CourseService courses and student enrollments
type CourseService interface {
	Create(ctx context.Context, p Principal, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]dto.CourseResponse, error)
	Update(ctx context.Context, p Principal, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, p Principal, id string) error

	Enroll(ctx context.Context, p Principal, courseID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error)
	ListEnrollments(ctx context.Context, p Principal, courseID string) ([]dto.EnrollmentResponse, error)
	ListStudentEnrollments(ctx context.Context, p Principal, studentID string) ([]dto.EnrollmentResponse, error)
	SetDefaultSlot(ctx context.Context, p Principal, recordID string, req *dto.SetDefaultSlotRequest) (*dto.EnrollmentResponse, error)
	Withdraw(ctx context.Context, p Principal, recordID string) error
}

type courseService struct {
	repo   *repository.Repository
	access accessChecker
	logger *zap.Logger
}

// NewCourseService creates a CourseService
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, access: accessChecker{repo: repo}, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, p Principal, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	if p.Role != model.RoleTeacher && !p.IsAdmin() {
		return nil, ErrForbidden
	}

	start, end, err := parseCourseDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Branch.GetByID(ctx, req.BranchID); err != nil {
		if isNotFound(err) {
			return nil, ErrBranchNotFound
		}
		s.logger.Error("failed to load branch", zap.String("branch_id", req.BranchID), zap.Error(err))
		return nil, err
	}

	course := &model.Course{
		TeacherID:   p.UserID,
		BranchID:    req.BranchID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
	}
	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("failed to create course", zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course), nil
}

// ────────────────────── Read ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) ListByTeacher(ctx context.Context, teacherID string) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.ListByTeacher(ctx, teacherID)
	if err != nil {
		s.logger.Error("failed to list courses", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		list = append(list, *toCourseResponse(&courses[i]))
	}
	return list, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, p Principal, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && course.TeacherID != p.UserID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	startStr, endStr := formatDate(course.StartDate), formatDate(course.EndDate)
	if req.StartDate != nil {
		startStr = *req.StartDate
	}
	if req.EndDate != nil {
		endStr = *req.EndDate
	}
	if course.StartDate, course.EndDate, err = parseCourseDates(startStr, endStr); err != nil {
		return nil, err
	}

	if err := s.repo.Course.Update(ctx, course); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("failed to update course", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course), nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, p Principal, id string) error {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin() && course.TeacherID != p.UserID {
		return ErrForbidden
	}

	// enrollments go with the course so the weekly batch stops binding them
	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Course.Delete(ctx, id); err != nil {
			return err
		}
		return txRepo.Enrollment.DeleteByCourse(ctx, id)
	})
	if err != nil {
		s.logger.Error("failed to delete course", zap.String("course_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Enroll ──────────────────────

// Enroll binds a student to a course; one alive record per (student, course)
func (s *courseService) Enroll(ctx context.Context, p Principal, courseID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return nil, err
	}

	student, err := s.repo.User.GetByID(ctx, req.StudentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("failed to load student", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, err
	}
	if student.Role != model.RoleStudent {
		return nil, ErrNotAStudent
	}

	existing, err := s.repo.Enrollment.GetByStudentAndCourse(ctx, req.StudentID, courseID)
	if err != nil && !isNotFound(err) {
		s.logger.Error("failed to check enrollment", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	rec := &model.StudentCourseRecord{StudentID: req.StudentID, CourseID: courseID}
	if err := s.repo.Enrollment.Create(ctx, rec); err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyEnrolled
		}
		s.logger.Error("failed to enroll student", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	rec.Student = student
	rec.Course = course

	return toEnrollmentResponse(rec), nil
}

// ────────────────────── Enrollment listing ──────────────────────

func (s *courseService) ListEnrollments(ctx context.Context, p Principal, courseID string) ([]dto.EnrollmentResponse, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return nil, err
	}

	records, err := s.repo.Enrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to list enrollments", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.EnrollmentResponse, 0, len(records))
	for i := range records {
		if records[i].Course == nil {
			records[i].Course = course
		}
		list = append(list, *toEnrollmentResponse(&records[i]))
	}
	return list, nil
}

func (s *courseService) ListStudentEnrollments(ctx context.Context, p Principal, studentID string) ([]dto.EnrollmentResponse, error) {
	ok, err := s.access.canViewStudent(ctx, p, studentID)
	if err != nil {
		s.logger.Error("failed to check student access", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	records, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to list enrollments", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.EnrollmentResponse, 0, len(records))
	for i := range records {
		list = append(list, *toEnrollmentResponse(&records[i]))
	}
	return list, nil
}

// ────────────────────── SetDefaultSlot ──────────────────────

// SetDefaultSlot a nil slot id clears the default; the weekly batch only binds records that carry one
func (s *courseService) SetDefaultSlot(ctx context.Context, p Principal, recordID string, req *dto.SetDefaultSlotRequest) (*dto.EnrollmentResponse, error) {
	rec, course, err := s.loadEnrollment(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return nil, err
	}

	if req.ClinicSlotID != nil {
		slot, err := s.repo.ClinicSlot.GetByID(ctx, *req.ClinicSlotID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrDefaultSlotInvalid
			}
			s.logger.Error("failed to load clinic slot", zap.String("clinic_slot_id", *req.ClinicSlotID), zap.Error(err))
			return nil, err
		}
		if !slot.IsActive || slot.TeacherID != course.TeacherID {
			return nil, ErrDefaultSlotInvalid
		}
	}

	if err := s.repo.Enrollment.UpdateDefaultSlot(ctx, recordID, req.ClinicSlotID); err != nil {
		s.logger.Error("failed to set default slot", zap.String("student_course_record_id", recordID), zap.Error(err))
		return nil, err
	}
	rec.DefaultClinicSlotID = req.ClinicSlotID

	return toEnrollmentResponse(rec), nil
}

// ────────────────────── Withdraw ──────────────────────

func (s *courseService) Withdraw(ctx context.Context, p Principal, recordID string) error {
	_, course, err := s.loadEnrollment(ctx, recordID)
	if err != nil {
		return err
	}
	if err := s.requireStaff(ctx, p, course.TeacherID); err != nil {
		return err
	}

	if err := s.repo.Enrollment.Delete(ctx, recordID); err != nil {
		s.logger.Error("failed to withdraw enrollment", zap.String("student_course_record_id", recordID), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *courseService) loadCourse(ctx context.Context, id string) (*model.Course, error) {
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

func (s *courseService) loadEnrollment(ctx context.Context, id string) (*model.StudentCourseRecord, *model.Course, error) {
	rec, err := s.repo.Enrollment.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrEnrollmentNotFound
		}
		s.logger.Error("failed to load enrollment", zap.String("student_course_record_id", id), zap.Error(err))
		return nil, nil, err
	}
	course := rec.Course
	if course == nil {
		if course, err = s.loadCourse(ctx, rec.CourseID); err != nil {
			return nil, nil, err
		}
		rec.Course = course
	}
	return rec, course, nil
}

func (s *courseService) requireStaff(ctx context.Context, p Principal, teacherID string) error {
	ok, err := s.access.isStaffOf(ctx, p, teacherID)
	if err != nil {
		s.logger.Error("failed to check staff access", zap.String("teacher_id", teacherID), zap.Error(err))
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func parseCourseDates(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := parseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidCourseDates
	}
	return start, end, nil
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:          c.CourseID,
		TeacherID:   c.TeacherID,
		BranchID:    c.BranchID,
		Name:        c.Name,
		Description: c.Description,
		StartDate:   formatDate(c.StartDate),
		EndDate:     formatDate(c.EndDate),
		Version:     c.Version,
	}
	if c.Teacher != nil {
		resp.Teacher = &dto.UserBrief{ID: c.Teacher.UserID, Name: c.Teacher.Name}
	}
	return resp
}

func toEnrollmentResponse(r *model.StudentCourseRecord) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{
		ID:                  r.StudentCourseRecordID,
		StudentID:           r.StudentID,
		CourseID:            r.CourseID,
		DefaultClinicSlotID: r.DefaultClinicSlotID,
		CreatedAt:           formatTime(r.CreatedAt),
	}
	if r.Student != nil {
		resp.Student = &dto.UserBrief{ID: r.Student.UserID, Name: r.Student.Name}
	}
	if r.Course != nil {
		resp.CourseName = r.Course.Name
	}
	return resp
}
