package dto

// ── clinic slot ──

// CreateClinicSlotRequest create a weekly slot
type CreateClinicSlotRequest struct {
	BranchID        string `json:"branch_id"        binding:"required,uuid"`
	DayOfWeek       int    `json:"day_of_week"      binding:"required,min=1,max=7"` // ISO, 1=Monday
	StartTime       string `json:"start_time"       binding:"required,hhmm"`
	EndTime         string `json:"end_time"         binding:"required,hhmm"`
	DefaultCapacity int    `json:"default_capacity" binding:"required,min=1,max=500"`
}

// UpdateClinicSlotRequest partial update
type UpdateClinicSlotRequest struct {
	DayOfWeek       *int    `json:"day_of_week"      binding:"omitempty,min=1,max=7"`
	StartTime       *string `json:"start_time"       binding:"omitempty,hhmm"`
	EndTime         *string `json:"end_time"         binding:"omitempty,hhmm"`
	DefaultCapacity *int    `json:"default_capacity" binding:"omitempty,min=1,max=500"`
	IsActive        *bool   `json:"is_active"`
}

// ClinicSlotListRequest slot list query
type ClinicSlotListRequest struct {
	TeacherID  string `form:"teacher_id" binding:"omitempty,uuid"`
	BranchID   string `form:"branch_id"  binding:"omitempty,uuid"`
	ActiveOnly bool   `form:"active_only"`
}

// ClinicSlotResponse slot
type ClinicSlotResponse struct {
	ID              string `json:"id"`
	TeacherID       string `json:"teacher_id"`
	BranchID        string `json:"branch_id"`
	DayOfWeek       int    `json:"day_of_week"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DefaultCapacity int    `json:"default_capacity"`
	IsActive        bool   `json:"is_active"`
	Version         int    `json:"version"`
}

// ── clinic session ──

// CreateEmergencySessionRequest ad hoc session outside the weekly slots
type CreateEmergencySessionRequest struct {
	BranchID  string `json:"branch_id"  binding:"required,uuid"`
	Date      string `json:"date"       binding:"required,date"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time"   binding:"required,hhmm"`
	Capacity  int    `json:"capacity"   binding:"required,min=1,max=500"`
}

// ClinicSessionListRequest session list query
type ClinicSessionListRequest struct {
	TeacherID       string `form:"teacher_id" binding:"omitempty,uuid"`
	BranchID        string `form:"branch_id"  binding:"omitempty,uuid"`
	From            string `form:"from"       binding:"omitempty,date"`
	To              string `form:"to"         binding:"omitempty,date"`
	IncludeCanceled bool   `form:"include_canceled"`
}

// ClinicSessionResponse session with its current head count
type ClinicSessionResponse struct {
	ID              string  `json:"id"`
	ClinicSlotID    *string `json:"clinic_slot_id,omitempty"`
	TeacherID       string  `json:"teacher_id"`
	BranchID        string  `json:"branch_id"`
	SessionType     string  `json:"session_type"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Capacity        int     `json:"capacity"`
	AttendanceCount int     `json:"attendance_count"`
	Canceled        bool    `json:"canceled"`
	CanceledAt      string  `json:"canceled_at,omitempty"`
}

// ClinicSessionDetailResponse session plus attendees
type ClinicSessionDetailResponse struct {
	ClinicSessionResponse
	Attendees []ClinicAttendanceResponse `json:"attendees"`
}

// ── clinic attendance ──

// CreateAttendanceRequest bind an enrollment to a session
type CreateAttendanceRequest struct {
	ClinicSessionID       string `json:"clinic_session_id"        binding:"required,uuid"`
	StudentCourseRecordID string `json:"student_course_record_id" binding:"required,uuid"`
}

// MoveAttendanceRequest re-bind an attendance to another session
type MoveAttendanceRequest struct {
	TargetSessionID string `json:"target_session_id" binding:"required,uuid"`
}

// ClinicAttendanceResponse attendance
type ClinicAttendanceResponse struct {
	ID                    string     `json:"id"`
	ClinicSessionID       string     `json:"clinic_session_id"`
	StudentCourseRecordID string     `json:"student_course_record_id"`
	Student               *UserBrief `json:"student,omitempty"`
	CreatedAt             string     `json:"created_at"`
}

// ── clinic record ──

// CreateClinicRecordRequest write a teaching note for an attendance
type CreateClinicRecordRequest struct {
	ClinicAttendanceID string `json:"clinic_attendance_id" binding:"required,uuid"`
	Title              string `json:"title"                binding:"required,min=1,max=200"`
	Content            string `json:"content"              binding:"omitempty,max=10000"`
	HomeworkProgress   string `json:"homework_progress"    binding:"omitempty,max=2000"`
}

// UpdateClinicRecordRequest partial update
type UpdateClinicRecordRequest struct {
	Title            *string `json:"title"             binding:"omitempty,min=1,max=200"`
	Content          *string `json:"content"           binding:"omitempty,max=10000"`
	HomeworkProgress *string `json:"homework_progress" binding:"omitempty,max=2000"`
}

// ClinicRecordResponse record
type ClinicRecordResponse struct {
	ID                 string `json:"id"`
	ClinicAttendanceID string `json:"clinic_attendance_id"`
	WriterID           string `json:"writer_id"`
	WriterRole         string `json:"writer_role"`
	Title              string `json:"title"`
	Content            string `json:"content"`
	HomeworkProgress   string `json:"homework_progress"`
	Version            int    `json:"version"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// ── weekly batch ──

// RunWeeklyBatchRequest manual trigger; empty date means today
type RunWeeklyBatchRequest struct {
	Date string `json:"date" binding:"omitempty,date"`
}

// BatchFailure one entity that could not be generated
type BatchFailure struct {
	Stage    string `json:"stage"`
	EntityID string `json:"entity_id"`
	Date     string `json:"date,omitempty"`
	Reason   string `json:"reason"`
}

// BatchResult outcome of one generation stage
type BatchResult struct {
	Created  int            `json:"created"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Failures []BatchFailure `json:"failures"`
}

// WeeklyBatchResponse outcome of a full weekly run
type WeeklyBatchResponse struct {
	RunID       string      `json:"run_id,omitempty"`
	WeekStart   string      `json:"week_start"`
	WeekEnd     string      `json:"week_end"`
	Sessions    BatchResult `json:"sessions"`
	Attendances BatchResult `json:"attendances"`
}

// ClinicBatchRunResponse persisted run summary
type ClinicBatchRunResponse struct {
	ID                 string         `json:"id"`
	WeekStart          string         `json:"week_start"`
	WeekEnd            string         `json:"week_end"`
	TriggeredBy        string         `json:"triggered_by"`
	SessionsCreated    int            `json:"sessions_created"`
	SessionsSkipped    int            `json:"sessions_skipped"`
	AttendancesCreated int            `json:"attendances_created"`
	AttendancesSkipped int            `json:"attendances_skipped"`
	Failures           []BatchFailure `json:"failures"`
	StartedAt          string         `json:"started_at"`
	FinishedAt         string         `json:"finished_at"`
}

// ── calendar ──

// CalendarRequest month query
type CalendarRequest struct {
	Year  int `form:"year"  binding:"required"`
	Month int `form:"month" binding:"required"`
}

// CourseProgressEvent course journal entry on the calendar
type CourseProgressEvent struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	Date       string `json:"date"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

// PersonalProgressEvent personal journal entry on the calendar
type PersonalProgressEvent struct {
	ID                    string `json:"id"`
	StudentCourseRecordID string `json:"student_course_record_id"`
	CourseName            string `json:"course_name"`
	Date                  string `json:"date"`
	Title                 string `json:"title"`
	Content               string `json:"content"`
}

// RecordSummary teaching record attached to a clinic event
type RecordSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	WriterID   string `json:"writer_id"`
	WriterRole string `json:"writer_role"`
}

// ClinicEvent clinic attendance on the calendar
type ClinicEvent struct {
	AttendanceID  string         `json:"attendance_id"`
	SessionID     string         `json:"session_id"`
	SessionType   string         `json:"session_type"`
	Date          string         `json:"date"`
	StartTime     string         `json:"start_time"`
	EndTime       string         `json:"end_time"`
	Canceled      bool           `json:"canceled"`
	RecordSummary *RecordSummary `json:"record_summary"`
}

// StudentCalendarResponse three independently ordered event lists for one month
type StudentCalendarResponse struct {
	StudentID        string                  `json:"student_id"`
	Year             int                     `json:"year"`
	Month            int                     `json:"month"`
	From             string                  `json:"from"`
	To               string                  `json:"to"`
	CourseProgress   []CourseProgressEvent   `json:"course_progress"`
	PersonalProgress []PersonalProgressEvent `json:"personal_progress"`
	Clinic           []ClinicEvent           `json:"clinic"`
}
