package service

import (
	"fmt"
	"time"

	"classhub/backend/config"
	"classhub/backend/internal/model"
)

const dateLayout = "2006-01-02"

// Clock returns the current instant
type Clock func() time.Time

// ClinicPolicy lock and move windows evaluated against a session's start in the clinic timezone
type ClinicPolicy struct {
	loc        *time.Location
	lockBefore time.Duration
	moveBefore time.Duration
	clock      Clock
}

// NewClinicPolicy nil clock means time.Now
func NewClinicPolicy(cfg *config.ClinicConfig, clock Clock) *ClinicPolicy {
	if clock == nil {
		clock = time.Now
	}
	return &ClinicPolicy{
		loc:        cfg.Location(),
		lockBefore: cfg.LockBefore,
		moveBefore: cfg.MoveBefore,
		clock:      clock,
	}
}

// Now current instant from the injected clock
func (p *ClinicPolicy) Now() time.Time { return p.clock() }

// Location clinic timezone
func (p *ClinicPolicy) Location() *time.Location { return p.loc }

// Today current calendar date in the clinic timezone
func (p *ClinicPolicy) Today() time.Time {
	return civilDate(p.clock().In(p.loc))
}

// SessionStart session date + start time in the clinic timezone
func (p *ClinicPolicy) SessionStart(s *model.ClinicSession) (time.Time, error) {
	return p.at(s.SessionDate, s.StartTime)
}

// SessionEnd session date + end time in the clinic timezone
func (p *ClinicPolicy) SessionEnd(s *model.ClinicSession) (time.Time, error) {
	return p.at(s.SessionDate, s.EndTime)
}

func (p *ClinicPolicy) at(date time.Time, hhmm string) (time.Time, error) {
	h, m, err := parseHHMM(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, p.loc), nil
}

// IsLocked true iff now >= start - lockBefore. An unparsable start counts as locked.
func (p *ClinicPolicy) IsLocked(s *model.ClinicSession, now time.Time) bool {
	start, err := p.SessionStart(s)
	if err != nil {
		return true
	}
	return !now.Before(start.Add(-p.lockBefore))
}

// IsMoveAllowed true iff now < start - moveBefore
func (p *ClinicPolicy) IsMoveAllowed(s *model.ClinicSession, now time.Time) bool {
	start, err := p.SessionStart(s)
	if err != nil {
		return false
	}
	return now.Before(start.Add(-p.moveBefore))
}

// ── date helpers ──

// ResolveWeek ISO week [Monday, Sunday] containing the calendar date of d
func ResolveWeek(d time.Time) (time.Time, time.Time) {
	date := civilDate(d)
	start := date.AddDate(0, 0, -(isoWeekday(date) - 1))
	return start, start.AddDate(0, 0, 6)
}

// MonthRange [first day, last day] of the month
func MonthRange(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// isoWeekday 1=Monday .. 7=Sunday
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// civilDate strips the clock and zone, keeping y/m/d as a UTC midnight
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseHHMM(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// validTimeRange both HH:MM and start strictly before end
func validTimeRange(start, end string) bool {
	if _, _, err := parseHHMM(start); err != nil {
		return false
	}
	if _, _, err := parseHHMM(end); err != nil {
		return false
	}
	return start < end
}

func inDateRange(d, from, to time.Time) bool {
	d = civilDate(d)
	return !d.Before(from) && !d.After(to)
}
