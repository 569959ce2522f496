package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── calendar business errors ──

var (
	ErrInvalidMonth = pkgerrors.New(pkgerrors.KindBadRequest, 16001, "invalid year/month")
)

const (
	minCalendarYear = 2000
	maxCalendarYear = 2100
)

// CalendarService per-student monthly view over course progress, personal progress and clinic attendance
type CalendarService interface {
	GetStudentCalendar(ctx context.Context, p Principal, studentID string, year, month int) (*dto.StudentCalendarResponse, error)
	// ExportStudentCalendarICS the same month as an iCalendar document
	ExportStudentCalendarICS(ctx context.Context, p Principal, studentID string, year, month int) ([]byte, string, error)
}

type calendarService struct {
	repo   *repository.Repository
	access accessChecker
	policy *ClinicPolicy
	logger *zap.Logger
}

// NewCalendarService creates a CalendarService
func NewCalendarService(repo *repository.Repository, policy *ClinicPolicy, logger *zap.Logger) CalendarService {
	return &calendarService{
		repo:   repo,
		access: accessChecker{repo: repo},
		policy: policy,
		logger: logger,
	}
}

// ────────────────────── GetStudentCalendar ──────────────────────

// GetStudentCalendar read-only; the three lists are sorted by date independently and never merged
func (s *calendarService) GetStudentCalendar(ctx context.Context, p Principal, studentID string, year, month int) (*dto.StudentCalendarResponse, error) {
	if month < 1 || month > 12 || year < minCalendarYear || year > maxCalendarYear {
		return nil, ErrInvalidMonth
	}

	ok, err := s.access.canViewStudent(ctx, p, studentID)
	if err != nil {
		s.logger.Error("failed to check calendar access", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	from, to := MonthRange(year, month)

	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to list enrollments", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	courseIDs := make([]string, 0, len(enrollments))
	courseNames := make(map[string]string, len(enrollments))
	recordCourse := make(map[string]string, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
		if e.Course != nil {
			courseNames[e.CourseID] = e.Course.Name
		}
		recordCourse[e.StudentCourseRecordID] = e.CourseID
	}
	recordIDs := enrollmentIDs(enrollments)

	courseEvents, err := s.courseProgressEvents(ctx, courseIDs, courseNames, from, to)
	if err != nil {
		return nil, err
	}
	personalEvents, err := s.personalProgressEvents(ctx, recordIDs, recordCourse, courseNames, from, to)
	if err != nil {
		return nil, err
	}
	clinicEvents, err := collectClinicEvents(ctx, s.repo, recordIDs, from, to)
	if err != nil {
		s.logger.Error("failed to collect clinic events", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	return &dto.StudentCalendarResponse{
		StudentID:        studentID,
		Year:             year,
		Month:            month,
		From:             formatDate(from),
		To:               formatDate(to),
		CourseProgress:   courseEvents,
		PersonalProgress: personalEvents,
		Clinic:           clinicEvents,
	}, nil
}

func (s *calendarService) courseProgressEvents(ctx context.Context, courseIDs []string, names map[string]string, from, to time.Time) ([]dto.CourseProgressEvent, error) {
	list, err := s.repo.CourseProgress.ListByCourses(ctx, courseIDs, from, to)
	if err != nil {
		s.logger.Error("failed to list course progress", zap.Error(err))
		return nil, err
	}

	kept := make([]model.CourseProgress, 0, len(list))
	for _, cp := range list {
		if inDateRange(cp.ProgressDate, from, to) {
			kept = append(kept, cp)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].ProgressDate.Equal(kept[j].ProgressDate) {
			return kept[i].ProgressDate.Before(kept[j].ProgressDate)
		}
		return kept[i].CreatedAt.Before(kept[j].CreatedAt)
	})

	events := make([]dto.CourseProgressEvent, 0, len(kept))
	for _, cp := range kept {
		events = append(events, dto.CourseProgressEvent{
			ID:         cp.CourseProgressID,
			CourseID:   cp.CourseID,
			CourseName: names[cp.CourseID],
			Date:       formatDate(cp.ProgressDate),
			Title:      cp.Title,
			Content:    cp.Content,
		})
	}
	return events, nil
}

func (s *calendarService) personalProgressEvents(ctx context.Context, recordIDs []string, recordCourse, names map[string]string, from, to time.Time) ([]dto.PersonalProgressEvent, error) {
	list, err := s.repo.PersonalProgress.ListByRecords(ctx, recordIDs, from, to)
	if err != nil {
		s.logger.Error("failed to list personal progress", zap.Error(err))
		return nil, err
	}

	kept := make([]model.PersonalProgress, 0, len(list))
	for _, pp := range list {
		if inDateRange(pp.ProgressDate, from, to) {
			kept = append(kept, pp)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].ProgressDate.Equal(kept[j].ProgressDate) {
			return kept[i].ProgressDate.Before(kept[j].ProgressDate)
		}
		return kept[i].CreatedAt.Before(kept[j].CreatedAt)
	})

	events := make([]dto.PersonalProgressEvent, 0, len(kept))
	for _, pp := range kept {
		events = append(events, dto.PersonalProgressEvent{
			ID:                    pp.PersonalProgressID,
			StudentCourseRecordID: pp.StudentCourseRecordID,
			CourseName:            names[recordCourse[pp.StudentCourseRecordID]],
			Date:                  formatDate(pp.ProgressDate),
			Title:                 pp.Title,
			Content:               pp.Content,
		})
	}
	return events, nil
}

// collectClinicEvents attendances of the enrollments dated within [from, to], each with its
// session's cancel flag and the record summary (nil when no record was written)
func collectClinicEvents(ctx context.Context, repo *repository.Repository, recordIDs []string, from, to time.Time) ([]dto.ClinicEvent, error) {
	attendances, err := repo.ClinicAttendance.ListByRecordsInRange(ctx, recordIDs, from, to)
	if err != nil {
		return nil, err
	}

	kept := make([]model.ClinicAttendance, 0, len(attendances))
	for _, att := range attendances {
		if att.Session == nil || !inDateRange(att.Session.SessionDate, from, to) {
			continue
		}
		kept = append(kept, att)
	}

	attIDs := make([]string, 0, len(kept))
	for _, att := range kept {
		attIDs = append(attIDs, att.ClinicAttendanceID)
	}
	records, err := repo.ClinicRecord.ListByAttendances(ctx, attIDs)
	if err != nil {
		return nil, err
	}
	byAttendance := make(map[string]*model.ClinicRecord, len(records))
	for i := range records {
		byAttendance[records[i].ClinicAttendanceID] = &records[i]
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i].Session, kept[j].Session
		if !a.SessionDate.Equal(b.SessionDate) {
			return a.SessionDate.Before(b.SessionDate)
		}
		return a.StartTime < b.StartTime
	})

	events := make([]dto.ClinicEvent, 0, len(kept))
	for _, att := range kept {
		cs := att.Session
		ev := dto.ClinicEvent{
			AttendanceID: att.ClinicAttendanceID,
			SessionID:    cs.ClinicSessionID,
			SessionType:  cs.SessionType,
			Date:         formatDate(cs.SessionDate),
			StartTime:    cs.StartTime,
			EndTime:      cs.EndTime,
			Canceled:     cs.Canceled,
		}
		if rec, ok := byAttendance[att.ClinicAttendanceID]; ok {
			ev.RecordSummary = &dto.RecordSummary{
				ID:         rec.ClinicRecordID,
				Title:      rec.Title,
				Content:    rec.Content,
				WriterID:   rec.WriterID,
				WriterRole: rec.WriterRole,
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

func enrollmentIDs(enrollments []model.StudentCourseRecord) []string {
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentCourseRecordID)
	}
	return ids
}

// ────────────────────── ExportStudentCalendarICS ──────────────────────

func (s *calendarService) ExportStudentCalendarICS(ctx context.Context, p Principal, studentID string, year, month int) ([]byte, string, error) {
	view, err := s.GetStudentCalendar(ctx, p, studentID, year, month)
	if err != nil {
		return nil, "", err
	}

	stamp := s.policy.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ClassHub//Student Calendar//EN")
	cal.SetXWRCalName(fmt.Sprintf("ClassHub %04d-%02d", year, month))
	cal.SetXWRTimezone(s.policy.Location().String())

	for _, ev := range view.CourseProgress {
		date, _ := parseDate(ev.Date)
		e := cal.AddEvent("course-progress-" + ev.ID + "@classhub")
		e.SetDtStampTime(stamp)
		e.SetAllDayStartAt(date)
		e.SetAllDayEndAt(date.AddDate(0, 0, 1))
		e.SetSummary(joinNonEmpty(" - ", ev.CourseName, ev.Title))
		e.SetDescription(ev.Content)
	}

	for _, ev := range view.PersonalProgress {
		date, _ := parseDate(ev.Date)
		e := cal.AddEvent("personal-progress-" + ev.ID + "@classhub")
		e.SetDtStampTime(stamp)
		e.SetAllDayStartAt(date)
		e.SetAllDayEndAt(date.AddDate(0, 0, 1))
		e.SetSummary(joinNonEmpty(" - ", ev.CourseName, ev.Title))
		e.SetDescription(ev.Content)
	}

	for _, ev := range view.Clinic {
		date, _ := parseDate(ev.Date)
		session := &model.ClinicSession{SessionDate: date, StartTime: ev.StartTime, EndTime: ev.EndTime}
		start, err := s.policy.SessionStart(session)
		if err != nil {
			continue
		}
		end, err := s.policy.SessionEnd(session)
		if err != nil {
			continue
		}

		e := cal.AddEvent("clinic-" + ev.AttendanceID + "@classhub")
		e.SetDtStampTime(stamp)
		e.SetStartAt(start)
		e.SetEndAt(end)
		summary := "Clinic"
		if ev.SessionType == model.SessionTypeEmergency {
			summary = "Clinic (emergency)"
		}
		e.SetSummary(summary)
		if ev.RecordSummary != nil {
			e.SetDescription(joinNonEmpty("\n", ev.RecordSummary.Title, ev.RecordSummary.Content))
		}
		if ev.Canceled {
			e.SetStatus(ics.ObjectStatusCancelled)
		} else {
			e.SetStatus(ics.ObjectStatusConfirmed)
		}
	}

	filename := fmt.Sprintf("calendar_%s_%04d-%02d.ics", studentID, year, month)
	return []byte(cal.Serialize()), filename, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
