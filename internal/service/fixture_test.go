package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classhub/backend/config"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
)

// ── shared test fixture ──
//
// Clinic timezone Asia/Seoul, lock window 10m, move window 30m.
// "now" is Monday 2025-03-10 09:00 KST unless a test moves it.

var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		panic(err)
	}
	return loc
}()

type fixture struct {
	t      *testing.T
	ctx    context.Context
	repo   *repository.Repository
	st     *memStore
	now    time.Time
	policy *ClinicPolicy
	logger *zap.Logger

	admin        *model.User
	teacher      *model.User
	otherTeacher *model.User
	assistant    *model.User
	student      *model.User
	otherStudent *model.User

	branch     *model.Branch
	course     *model.Course
	enrollment *model.StudentCourseRecord
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, st := newMockRepository()
	fx := &fixture{
		t:      t,
		ctx:    context.Background(),
		repo:   repo,
		st:     st,
		now:    time.Date(2025, 3, 10, 9, 0, 0, 0, seoul),
		logger: zap.NewNop(),
	}
	fx.policy = NewClinicPolicy(&config.ClinicConfig{
		Timezone:   "Asia/Seoul",
		LockBefore: 10 * time.Minute,
		MoveBefore: 30 * time.Minute,
	}, func() time.Time { return fx.now })

	fx.admin = fx.addUser(model.RoleAdmin, "Admin")
	fx.teacher = fx.addUser(model.RoleTeacher, "Teacher Kim")
	fx.otherTeacher = fx.addUser(model.RoleTeacher, "Teacher Lee")
	fx.assistant = fx.addUser(model.RoleAssistant, "Assistant Park")
	fx.student = fx.addUser(model.RoleStudent, "Student Choi")
	fx.otherStudent = fx.addUser(model.RoleStudent, "Student Jung")

	require.NoError(t, repo.TeacherAssistant.Create(fx.ctx, &model.TeacherAssistant{
		TeacherID:   fx.teacher.UserID,
		AssistantID: fx.assistant.UserID,
	}))

	company := &model.Company{Name: "Academy", OwnerID: fx.teacher.UserID}
	require.NoError(t, repo.Company.Create(fx.ctx, company))
	fx.branch = &model.Branch{CompanyID: company.CompanyID, Name: "Gangnam"}
	require.NoError(t, repo.Branch.Create(fx.ctx, fx.branch))

	fx.course = fx.addCourse(fx.teacher, "Math A")
	fx.enrollment = fx.enroll(fx.student, fx.course)
	return fx
}

func (fx *fixture) as(u *model.User) Principal {
	return Principal{UserID: u.UserID, Role: u.Role}
}

func (fx *fixture) addUser(role, name string) *model.User {
	fx.t.Helper()
	u := &model.User{
		Name:         name,
		Email:        newID() + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(fx.t, fx.repo.User.Create(fx.ctx, u))
	return u
}

func (fx *fixture) addCourse(teacher *model.User, name string) *model.Course {
	fx.t.Helper()
	c := &model.Course{
		TeacherID: teacher.UserID,
		BranchID:  fx.branch.BranchID,
		Name:      name,
		StartDate: mustDate("2025-03-01"),
		EndDate:   mustDate("2025-06-30"),
	}
	require.NoError(fx.t, fx.repo.Course.Create(fx.ctx, c))
	return c
}

func (fx *fixture) enroll(student *model.User, course *model.Course) *model.StudentCourseRecord {
	fx.t.Helper()
	rec := &model.StudentCourseRecord{StudentID: student.UserID, CourseID: course.CourseID}
	require.NoError(fx.t, fx.repo.Enrollment.Create(fx.ctx, rec))
	return rec
}

func (fx *fixture) addSlot(teacher *model.User, dayOfWeek int, start, end string, capacity int) *model.ClinicSlot {
	fx.t.Helper()
	slot := &model.ClinicSlot{
		TeacherID:       teacher.UserID,
		BranchID:        fx.branch.BranchID,
		DayOfWeek:       dayOfWeek,
		StartTime:       start,
		EndTime:         end,
		DefaultCapacity: capacity,
		IsActive:        true,
	}
	require.NoError(fx.t, fx.repo.ClinicSlot.Create(fx.ctx, slot))
	return slot
}

// addSession emergency-type session of teacher on date at start-end
func (fx *fixture) addSession(teacher *model.User, date, start, end string, capacity int) *model.ClinicSession {
	fx.t.Helper()
	s := &model.ClinicSession{
		TeacherID:   teacher.UserID,
		BranchID:    fx.branch.BranchID,
		SessionType: model.SessionTypeEmergency,
		SessionDate: mustDate(date),
		StartTime:   start,
		EndTime:     end,
		Capacity:    capacity,
	}
	require.NoError(fx.t, fx.repo.ClinicSession.Create(fx.ctx, s))
	return s
}

func (fx *fixture) attend(session *model.ClinicSession, rec *model.StudentCourseRecord) *model.ClinicAttendance {
	fx.t.Helper()
	att := &model.ClinicAttendance{
		ClinicSessionID:       session.ClinicSessionID,
		StudentCourseRecordID: rec.StudentCourseRecordID,
	}
	require.NoError(fx.t, fx.repo.ClinicAttendance.Create(fx.ctx, att))
	return att
}

func (fx *fixture) attendanceCount(sessionID string) int64 {
	fx.t.Helper()
	n, err := fx.repo.ClinicAttendance.CountBySession(fx.ctx, sessionID)
	require.NoError(fx.t, err)
	return n
}

// setNow moves the clock to the given KST wall time
func (fx *fixture) setNow(date, hhmm string) {
	fx.t.Helper()
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, seoul)
	require.NoError(fx.t, err)
	fx.now = t
}

func mustDate(s string) time.Time {
	d, err := parseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
