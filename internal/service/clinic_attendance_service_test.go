package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	pkgerrors "classhub/backend/pkg/errors"
)

func setupAttendance(t *testing.T) (*fixture, ClinicAttendanceService) {
	fx := newFixture(t)
	return fx, NewClinicAttendanceService(fx.repo, fx.policy, fx.logger)
}

func bookReq(session *model.ClinicSession, rec *model.StudentCourseRecord) *dto.CreateAttendanceRequest {
	return &dto.CreateAttendanceRequest{
		ClinicSessionID:       session.ClinicSessionID,
		StudentCourseRecordID: rec.StudentCourseRecordID,
	}
}

// ── Create ──

func TestAttendanceCreate_StudentBooksOwnEnrollment(t *testing.T) {
	fx, svc := setupAttendance(t)
	session := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 2)

	resp, err := svc.Create(fx.ctx, fx.as(fx.student), bookReq(session, fx.enrollment))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, session.ClinicSessionID, resp.ClinicSessionID)
	assert.Equal(t, int64(1), fx.attendanceCount(session.ClinicSessionID))
}

func TestAttendanceCreate_StaffBooksForStudent(t *testing.T) {
	fx, svc := setupAttendance(t)
	session := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 2)

	_, err := svc.Create(fx.ctx, fx.as(fx.assistant), bookReq(session, fx.enrollment))
	require.NoError(t, err)
}

func TestAttendanceCreate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(fx *fixture) (Principal, *dto.CreateAttendanceRequest)
		wantErr error
	}{
		{
			name: "duplicate booking",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 5)
				fx.attend(s, fx.enrollment)
				return fx.as(fx.student), bookReq(s, fx.enrollment)
			},
			wantErr: ErrDuplicateAttendance,
		},
		{
			name: "session full",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 1)
				fx.attend(s, fx.enroll(fx.otherStudent, fx.course))
				return fx.as(fx.student), bookReq(s, fx.enrollment)
			},
			wantErr: ErrCapacityExceeded,
		},
		{
			name: "session locked",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.teacher, "2025-03-10", "09:05", "10:00", 5)
				return fx.as(fx.student), bookReq(s, fx.enrollment)
			},
			wantErr: ErrClinicSessionLocked,
		},
		{
			name: "session already started",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.teacher, "2025-03-09", "18:00", "19:00", 5)
				return fx.as(fx.student), bookReq(s, fx.enrollment)
			},
			wantErr: ErrClinicSessionLocked,
		},
		{
			name: "session canceled",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 5)
				require.NoError(fx.t, fx.repo.ClinicSession.Cancel(fx.ctx, s.ClinicSessionID, fx.now))
				return fx.as(fx.student), bookReq(s, fx.enrollment)
			},
			wantErr: ErrClinicSessionCanceled,
		},
		{
			name: "course of another teacher",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.otherTeacher, "2025-03-12", "18:00", "19:00", 5)
				return fx.as(fx.student), bookReq(s, fx.enrollment)
			},
			wantErr: ErrEnrollmentMismatch,
		},
		{
			name: "student books someone else",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 5)
				return fx.as(fx.otherStudent), bookReq(s, fx.enrollment)
			},
			wantErr: ErrForbidden,
		},
		{
			name: "teacher books into a foreign session",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 5)
				return fx.as(fx.otherTeacher), bookReq(s, fx.enrollment)
			},
			wantErr: ErrForbidden,
		},
		{
			name: "unknown session",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				return fx.as(fx.student), &dto.CreateAttendanceRequest{
					ClinicSessionID:       newID(),
					StudentCourseRecordID: fx.enrollment.StudentCourseRecordID,
				}
			},
			wantErr: ErrClinicSessionNotFound,
		},
		{
			name: "unknown enrollment",
			prepare: func(fx *fixture) (Principal, *dto.CreateAttendanceRequest) {
				s := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 5)
				return fx.as(fx.teacher), &dto.CreateAttendanceRequest{
					ClinicSessionID:       s.ClinicSessionID,
					StudentCourseRecordID: newID(),
				}
			},
			wantErr: ErrEnrollmentNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, svc := setupAttendance(t)
			p, req := tt.prepare(fx)
			before := fx.attendanceCount(req.ClinicSessionID)

			_, err := svc.Create(fx.ctx, p, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, fx.attendanceCount(req.ClinicSessionID))
		})
	}
}

func TestAttendanceCreate_ErrorKinds(t *testing.T) {
	assert.Equal(t, pkgerrors.KindDuplicateBinding, pkgerrors.KindOf(ErrDuplicateAttendance))
	assert.Equal(t, pkgerrors.KindCapacityExceeded, pkgerrors.KindOf(ErrCapacityExceeded))
	assert.Equal(t, pkgerrors.KindLockedSession, pkgerrors.KindOf(ErrClinicSessionLocked))
	assert.Equal(t, pkgerrors.KindMoveWindowExpired, pkgerrors.KindOf(ErrMoveWindowExpired))
}

// ── Cancel ──

func TestAttendanceCancel_RemovesRecordToo(t *testing.T) {
	fx, svc := setupAttendance(t)
	session := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 2)
	att := fx.attend(session, fx.enrollment)
	require.NoError(t, fx.repo.ClinicRecord.Create(fx.ctx, &model.ClinicRecord{
		ClinicAttendanceID: att.ClinicAttendanceID,
		WriterID:           fx.teacher.UserID,
		WriterRole:         model.RoleTeacher,
		Title:              "fractions",
	}))

	require.NoError(t, svc.Cancel(fx.ctx, fx.as(fx.student), att.ClinicAttendanceID))

	assert.Equal(t, int64(0), fx.attendanceCount(session.ClinicSessionID))
	_, err := fx.repo.ClinicRecord.GetByAttendance(fx.ctx, att.ClinicAttendanceID)
	assert.True(t, isNotFound(err))

	err = svc.Cancel(fx.ctx, fx.as(fx.student), att.ClinicAttendanceID)
	assert.ErrorIs(t, err, ErrAttendanceNotFound)
}

func TestAttendanceCancel_LockedSession(t *testing.T) {
	fx, svc := setupAttendance(t)
	session := fx.addSession(fx.teacher, "2025-03-10", "09:10", "10:00", 2)
	att := fx.attend(session, fx.enrollment)

	err := svc.Cancel(fx.ctx, fx.as(fx.teacher), att.ClinicAttendanceID)
	assert.ErrorIs(t, err, ErrClinicSessionLocked)
	assert.Equal(t, int64(1), fx.attendanceCount(session.ClinicSessionID))
}

func TestAttendanceCancel_AllowedAfterMoveCutoff(t *testing.T) {
	fx, svc := setupAttendance(t)
	// 20 minutes ahead: past the move cutoff, before the lock
	session := fx.addSession(fx.teacher, "2025-03-10", "09:20", "10:00", 2)
	att := fx.attend(session, fx.enrollment)

	require.NoError(t, svc.Cancel(fx.ctx, fx.as(fx.student), att.ClinicAttendanceID))
}

func TestAttendanceCancel_OtherStudentForbidden(t *testing.T) {
	fx, svc := setupAttendance(t)
	session := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 2)
	att := fx.attend(session, fx.enrollment)

	err := svc.Cancel(fx.ctx, fx.as(fx.otherStudent), att.ClinicAttendanceID)
	assert.ErrorIs(t, err, ErrForbidden)
}

// ── Move ──

func TestAttendanceMove_Success(t *testing.T) {
	fx, svc := setupAttendance(t)
	src := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 2)
	dst := fx.addSession(fx.teacher, "2025-03-13", "18:00", "19:00", 2)
	att := fx.attend(src, fx.enrollment)

	resp, err := svc.Move(fx.ctx, fx.as(fx.student), att.ClinicAttendanceID,
		&dto.MoveAttendanceRequest{TargetSessionID: dst.ClinicSessionID})
	require.NoError(t, err)
	assert.Equal(t, att.ClinicAttendanceID, resp.ID)
	assert.Equal(t, dst.ClinicSessionID, resp.ClinicSessionID)

	assert.Equal(t, int64(0), fx.attendanceCount(src.ClinicSessionID))
	assert.Equal(t, int64(1), fx.attendanceCount(dst.ClinicSessionID))
}

func TestAttendanceMove_WindowExpiredEvenWithFreeCapacity(t *testing.T) {
	fx, svc := setupAttendance(t)
	src := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 2)
	dst := fx.addSession(fx.teacher, "2025-03-13", "18:00", "19:00", 10)
	att := fx.attend(src, fx.enrollment)

	fx.setNow("2025-03-12", "17:30")
	_, err := svc.Move(fx.ctx, fx.as(fx.student), att.ClinicAttendanceID,
		&dto.MoveAttendanceRequest{TargetSessionID: dst.ClinicSessionID})
	assert.ErrorIs(t, err, ErrMoveWindowExpired)
	assert.Equal(t, int64(1), fx.attendanceCount(src.ClinicSessionID))

	// a minute earlier the window is still open
	fx.setNow("2025-03-12", "17:29")
	_, err = svc.Move(fx.ctx, fx.as(fx.student), att.ClinicAttendanceID,
		&dto.MoveAttendanceRequest{TargetSessionID: dst.ClinicSessionID})
	assert.NoError(t, err)
}

func TestAttendanceMove_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		target  func(fx *fixture, src *model.ClinicSession) string
		wantErr error
	}{
		{
			name:    "same session",
			target:  func(_ *fixture, src *model.ClinicSession) string { return src.ClinicSessionID },
			wantErr: ErrSameSession,
		},
		{
			name: "destination full",
			target: func(fx *fixture, _ *model.ClinicSession) string {
				dst := fx.addSession(fx.teacher, "2025-03-13", "18:00", "19:00", 1)
				fx.attend(dst, fx.enroll(fx.otherStudent, fx.course))
				return dst.ClinicSessionID
			},
			wantErr: ErrCapacityExceeded,
		},
		{
			name: "destination locked",
			target: func(fx *fixture, _ *model.ClinicSession) string {
				return fx.addSession(fx.teacher, "2025-03-10", "09:05", "10:00", 5).ClinicSessionID
			},
			wantErr: ErrClinicSessionLocked,
		},
		{
			name: "destination canceled",
			target: func(fx *fixture, _ *model.ClinicSession) string {
				dst := fx.addSession(fx.teacher, "2025-03-13", "18:00", "19:00", 5)
				require.NoError(fx.t, fx.repo.ClinicSession.Cancel(fx.ctx, dst.ClinicSessionID, fx.now))
				return dst.ClinicSessionID
			},
			wantErr: ErrClinicSessionCanceled,
		},
		{
			name: "destination of another teacher",
			target: func(fx *fixture, _ *model.ClinicSession) string {
				return fx.addSession(fx.otherTeacher, "2025-03-13", "18:00", "19:00", 5).ClinicSessionID
			},
			wantErr: ErrEnrollmentMismatch,
		},
		{
			name:    "unknown destination",
			target:  func(_ *fixture, _ *model.ClinicSession) string { return newID() },
			wantErr: ErrClinicSessionNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, svc := setupAttendance(t)
			src := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 2)
			att := fx.attend(src, fx.enrollment)

			_, err := svc.Move(fx.ctx, fx.as(fx.student), att.ClinicAttendanceID,
				&dto.MoveAttendanceRequest{TargetSessionID: tt.target(fx, src)})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int64(1), fx.attendanceCount(src.ClinicSessionID))
		})
	}
}

// ── List ──

func TestAttendanceListBySession(t *testing.T) {
	fx, svc := setupAttendance(t)
	session := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 5)
	fx.attend(session, fx.enrollment)
	fx.attend(session, fx.enroll(fx.otherStudent, fx.course))

	list, err := svc.ListBySession(fx.ctx, fx.as(fx.assistant), session.ClinicSessionID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Student)
	assert.Equal(t, "Student Choi", list[0].Student.Name)
	assert.Equal(t, "Student Jung", list[1].Student.Name)

	_, err = svc.ListBySession(fx.ctx, fx.as(fx.teacher), newID())
	assert.ErrorIs(t, err, ErrClinicSessionNotFound)
}

func TestAttendanceListBySession_OtherTeachersStaffForbidden(t *testing.T) {
	fx, svc := setupAttendance(t)
	session := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 5)
	fx.attend(session, fx.enrollment)

	// an assistant linked only to the other teacher
	other := fx.addUser(model.RoleAssistant, "Assistant Han")
	require.NoError(t, fx.repo.TeacherAssistant.Create(fx.ctx, &model.TeacherAssistant{
		TeacherID: fx.otherTeacher.UserID, AssistantID: other.UserID,
	}))

	for _, p := range []Principal{fx.as(other), fx.as(fx.otherTeacher), fx.as(fx.student)} {
		_, err := svc.ListBySession(fx.ctx, p, session.ClinicSessionID)
		assert.ErrorIs(t, err, ErrForbidden, p.Role)
	}

	list, err := svc.ListBySession(fx.ctx, fx.as(fx.admin), session.ClinicSessionID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAttendanceListByStudent(t *testing.T) {
	fx, svc := setupAttendance(t)
	late := fx.addSession(fx.teacher, "2025-03-14", "18:00", "19:00", 5)
	early := fx.addSession(fx.teacher, "2025-03-12", "18:00", "19:00", 5)
	outside := fx.addSession(fx.teacher, "2025-03-20", "18:00", "19:00", 5)
	fx.attend(late, fx.enrollment)
	fx.attend(early, fx.enrollment)
	fx.attend(outside, fx.enrollment)

	rng := &dto.DateRangeRequest{From: "2025-03-10", To: "2025-03-16"}
	events, err := svc.ListByStudent(fx.ctx, fx.as(fx.student), fx.student.UserID, rng)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "2025-03-12", events[0].Date)
	assert.Equal(t, "2025-03-14", events[1].Date)
	assert.Nil(t, events[0].RecordSummary)

	_, err = svc.ListByStudent(fx.ctx, fx.as(fx.otherStudent), fx.student.UserID, rng)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListByStudent(fx.ctx, fx.as(fx.student), fx.student.UserID,
		&dto.DateRangeRequest{From: "2025-03-16", To: "2025-03-10"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}
