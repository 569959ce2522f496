package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── export business errors ──

var (
	ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindInternal, 16010, "failed to generate export file")
)

// ExportService roster export
//
// The xlsx is returned as a bytes.Buffer; the handler sets the download headers.
// Layout: one sheet per day of the resolved ISO week, one row per session.
type ExportService interface {
	ExportWeeklyRoster(ctx context.Context, p Principal, teacherID, date string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	access accessChecker
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, access: accessChecker{repo: repo}, logger: logger}
}

var rosterHeaders = []string{"Time", "Type", "Capacity", "Booked", "Canceled", "Students"}

// ═══════════════════════════════════════════════════════════
// ExportWeeklyRoster
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportWeeklyRoster(ctx context.Context, p Principal, teacherID, date string) (*bytes.Buffer, string, error) {
	ref, err := parseDate(date)
	if err != nil {
		return nil, "", err
	}

	ok, err := s.access.isStaffOf(ctx, p, teacherID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", ErrForbidden
	}

	weekStart, weekEnd := ResolveWeek(ref)

	sessions, err := s.repo.ClinicSession.List(ctx, repository.ClinicSessionFilter{
		TeacherID:       teacherID,
		From:            &weekStart,
		To:              &weekEnd,
		IncludeCanceled: true,
	})
	if err != nil {
		s.logger.Error("failed to list sessions for roster", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, "", err
	}

	ids := make([]string, 0, len(sessions))
	for _, cs := range sessions {
		ids = append(ids, cs.ClinicSessionID)
	}
	attendances, err := s.repo.ClinicAttendance.ListBySessions(ctx, ids)
	if err != nil {
		s.logger.Error("failed to list attendances for roster", zap.Error(err))
		return nil, "", err
	}

	names := make(map[string][]string, len(sessions))
	for _, att := range attendances {
		name := att.StudentCourseRecordID
		if att.StudentCourseRecord != nil && att.StudentCourseRecord.Student != nil {
			name = att.StudentCourseRecord.Student.Name
		}
		names[att.ClinicSessionID] = append(names[att.ClinicSessionID], name)
	}

	byDay := make(map[string][]model.ClinicSession, 7)
	for _, cs := range sessions {
		key := formatDate(cs.SessionDate)
		byDay[key] = append(byDay[key], cs)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	canceledStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Strike: true, Color: "#808080"},
	})

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		sheet := fmt.Sprintf("%s %s", day.Weekday().String()[:3], formatDate(day))
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, "", ErrExportGenerateFail.Wrap(err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, "", ErrExportGenerateFail.Wrap(err)
		}

		f.SetColWidth(sheet, "A", "A", 14)
		f.SetColWidth(sheet, "B", "E", 11)
		f.SetColWidth(sheet, "F", "F", 48)

		for c, h := range rosterHeaders {
			f.SetCellValue(sheet, cell(colName(c), 1), h)
		}
		f.SetCellStyle(sheet, "A1", cell(colName(len(rosterHeaders)-1), 1), headerStyle)

		daySessions := byDay[formatDate(day)]
		sort.SliceStable(daySessions, func(a, b int) bool {
			return daySessions[a].StartTime < daySessions[b].StartTime
		})

		row := 2
		for _, cs := range daySessions {
			students := names[cs.ClinicSessionID]
			sort.Strings(students)

			canceled := ""
			if cs.Canceled {
				canceled = "yes"
			}
			f.SetCellValue(sheet, cell("A", row), cs.StartTime+"-"+cs.EndTime)
			f.SetCellValue(sheet, cell("B", row), cs.SessionType)
			f.SetCellValue(sheet, cell("C", row), cs.Capacity)
			f.SetCellValue(sheet, cell("D", row), len(students))
			f.SetCellValue(sheet, cell("E", row), canceled)
			f.SetCellValue(sheet, cell("F", row), strings.Join(students, ", "))
			if cs.Canceled {
				f.SetCellStyle(sheet, cell("A", row), cell("F", row), canceledStyle)
			}
			row++
		}
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write roster xlsx", zap.Error(err))
		return nil, "", ErrExportGenerateFail.Wrap(err)
	}

	filename := fmt.Sprintf("clinic_roster_%s_%s.xlsx", formatDate(weekStart), formatDate(weekEnd))
	return buf, filename, nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
