package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"classhub/backend/internal/dto"
)

func TestCourseCreate(t *testing.T) {
	fx := newFixture(t)
	svc := NewCourseService(fx.repo, fx.logger)
	req := &dto.CreateCourseRequest{
		BranchID:  fx.branch.BranchID,
		Name:      "Physics",
		StartDate: "2025-03-01",
		EndDate:   "2025-08-31",
	}

	resp, err := svc.Create(fx.ctx, fx.as(fx.teacher), req)
	require.NoError(t, err)
	assert.Equal(t, fx.teacher.UserID, resp.TeacherID)
	assert.Equal(t, "2025-08-31", resp.EndDate)

	_, err = svc.Create(fx.ctx, fx.as(fx.assistant), req)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Create(fx.ctx, fx.as(fx.student), req)
	assert.ErrorIs(t, err, ErrForbidden)

	bad := *req
	bad.EndDate = "2025-02-01"
	_, err = svc.Create(fx.ctx, fx.as(fx.teacher), &bad)
	assert.ErrorIs(t, err, ErrInvalidCourseDates)

	bad = *req
	bad.BranchID = newID()
	_, err = svc.Create(fx.ctx, fx.as(fx.teacher), &bad)
	assert.ErrorIs(t, err, ErrBranchNotFound)
}

func TestCourseUpdate(t *testing.T) {
	fx := newFixture(t)
	svc := NewCourseService(fx.repo, fx.logger)

	resp, err := svc.Update(fx.ctx, fx.as(fx.teacher), fx.course.CourseID, &dto.UpdateCourseRequest{
		Name:    strPtr("Math A+"),
		EndDate: strPtr("2025-07-31"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Math A+", resp.Name)
	assert.Equal(t, "2025-03-01", resp.StartDate)
	assert.Equal(t, "2025-07-31", resp.EndDate)

	_, err = svc.Update(fx.ctx, fx.as(fx.teacher), fx.course.CourseID, &dto.UpdateCourseRequest{
		StartDate: strPtr("2025-09-01"),
	})
	assert.ErrorIs(t, err, ErrInvalidCourseDates)

	_, err = svc.Update(fx.ctx, fx.as(fx.otherTeacher), fx.course.CourseID, &dto.UpdateCourseRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(fx.ctx, fx.as(fx.teacher), newID(), &dto.UpdateCourseRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseDelete(t *testing.T) {
	fx := newFixture(t)
	svc := NewCourseService(fx.repo, fx.logger)

	assert.ErrorIs(t, svc.Delete(fx.ctx, fx.as(fx.assistant), fx.course.CourseID), ErrForbidden)
	require.NoError(t, svc.Delete(fx.ctx, fx.as(fx.teacher), fx.course.CourseID))

	_, err := svc.GetByID(fx.ctx, fx.course.CourseID)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	list, err := svc.ListByTeacher(fx.ctx, fx.teacher.UserID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// enrollments are withdrawn with the course
	_, err = fx.repo.Enrollment.GetByID(fx.ctx, fx.enrollment.StudentCourseRecordID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	enrollments, err := svc.ListStudentEnrollments(fx.ctx, fx.as(fx.student), fx.student.UserID)
	require.NoError(t, err)
	assert.Empty(t, enrollments)
}

func TestCourseEnroll(t *testing.T) {
	fx := newFixture(t)
	svc := NewCourseService(fx.repo, fx.logger)

	resp, err := svc.Enroll(fx.ctx, fx.as(fx.assistant), fx.course.CourseID, &dto.EnrollRequest{StudentID: fx.otherStudent.UserID})
	require.NoError(t, err)
	assert.Equal(t, fx.otherStudent.UserID, resp.StudentID)
	assert.Equal(t, "Math A", resp.CourseName)
	require.NotNil(t, resp.Student)
	assert.Equal(t, "Student Jung", resp.Student.Name)

	_, err = svc.Enroll(fx.ctx, fx.as(fx.teacher), fx.course.CourseID, &dto.EnrollRequest{StudentID: fx.student.UserID})
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = svc.Enroll(fx.ctx, fx.as(fx.teacher), fx.course.CourseID, &dto.EnrollRequest{StudentID: fx.assistant.UserID})
	assert.ErrorIs(t, err, ErrNotAStudent)

	_, err = svc.Enroll(fx.ctx, fx.as(fx.teacher), fx.course.CourseID, &dto.EnrollRequest{StudentID: newID()})
	assert.ErrorIs(t, err, ErrStudentNotFound)

	_, err = svc.Enroll(fx.ctx, fx.as(fx.otherTeacher), fx.course.CourseID, &dto.EnrollRequest{StudentID: fx.otherStudent.UserID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCourseWithdrawThenReenroll(t *testing.T) {
	fx := newFixture(t)
	svc := NewCourseService(fx.repo, fx.logger)

	assert.ErrorIs(t, svc.Withdraw(fx.ctx, fx.as(fx.student), fx.enrollment.StudentCourseRecordID), ErrForbidden)
	require.NoError(t, svc.Withdraw(fx.ctx, fx.as(fx.teacher), fx.enrollment.StudentCourseRecordID))

	list, err := svc.ListEnrollments(fx.ctx, fx.as(fx.teacher), fx.course.CourseID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Enroll(fx.ctx, fx.as(fx.teacher), fx.course.CourseID, &dto.EnrollRequest{StudentID: fx.student.UserID})
	assert.NoError(t, err)
}

func TestCourseListStudentEnrollments(t *testing.T) {
	fx := newFixture(t)
	svc := NewCourseService(fx.repo, fx.logger)
	fx.enroll(fx.student, fx.addCourse(fx.otherTeacher, "Physics"))

	list, err := svc.ListStudentEnrollments(fx.ctx, fx.as(fx.student), fx.student.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// a teacher who teaches the student sees all of the student's enrollments
	list, err = svc.ListStudentEnrollments(fx.ctx, fx.as(fx.otherTeacher), fx.student.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListStudentEnrollments(fx.ctx, fx.as(fx.otherStudent), fx.student.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListEnrollments(fx.ctx, fx.as(fx.student), fx.course.CourseID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCourseSetDefaultSlot(t *testing.T) {
	fx := newFixture(t)
	svc := NewCourseService(fx.repo, fx.logger)
	slot := fx.addSlot(fx.teacher, 3, "18:00", "19:00", 4)
	recID := fx.enrollment.StudentCourseRecordID

	resp, err := svc.SetDefaultSlot(fx.ctx, fx.as(fx.teacher), recID, &dto.SetDefaultSlotRequest{ClinicSlotID: &slot.ClinicSlotID})
	require.NoError(t, err)
	require.NotNil(t, resp.DefaultClinicSlotID)
	assert.Equal(t, slot.ClinicSlotID, *resp.DefaultClinicSlotID)

	stored, err := fx.repo.Enrollment.GetByID(fx.ctx, recID)
	require.NoError(t, err)
	require.NotNil(t, stored.DefaultClinicSlotID)

	resp, err = svc.SetDefaultSlot(fx.ctx, fx.as(fx.teacher), recID, &dto.SetDefaultSlotRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.DefaultClinicSlotID)
}

func TestCourseSetDefaultSlot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		slot func(fx *fixture) string
	}{
		{"slot of another teacher", func(fx *fixture) string {
			return fx.addSlot(fx.otherTeacher, 3, "18:00", "19:00", 4).ClinicSlotID
		}},
		{"inactive slot", func(fx *fixture) string {
			s := fx.addSlot(fx.teacher, 3, "18:00", "19:00", 4)
			s.IsActive = false
			require.NoError(fx.t, fx.repo.ClinicSlot.Update(fx.ctx, s))
			return s.ClinicSlotID
		}},
		{"unknown slot", func(_ *fixture) string { return newID() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			svc := NewCourseService(fx.repo, fx.logger)
			id := tt.slot(fx)
			_, err := svc.SetDefaultSlot(fx.ctx, fx.as(fx.teacher), fx.enrollment.StudentCourseRecordID,
				&dto.SetDefaultSlotRequest{ClinicSlotID: &id})
			assert.ErrorIs(t, err, ErrDefaultSlotInvalid)
		})
	}
}

func TestCourseGetByID_IncludesTeacher(t *testing.T) {
	fx := newFixture(t)
	svc := NewCourseService(fx.repo, fx.logger)

	resp, err := svc.GetByID(fx.ctx, fx.course.CourseID)
	require.NoError(t, err)
	require.NotNil(t, resp.Teacher)
	assert.Equal(t, "Teacher Kim", resp.Teacher.Name)
}
