package model

import (
	"time"

	"gorm.io/datatypes"
)

// Clinic session types
const (
	SessionTypeRegular   = "REGULAR"
	SessionTypeEmergency = "EMERGENCY"
)

// ClinicSlot recurring weekly clinic template owned by a teacher (clinic_slots)
type ClinicSlot struct {
	ClinicSlotID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"clinic_slot_id"`
	TeacherID       string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	BranchID        string `gorm:"type:uuid;not null"                             json:"branch_id"`
	DayOfWeek       int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // ISO 1=Mon .. 7=Sun
	StartTime       string `gorm:"type:varchar(5);not null"                       json:"start_time"`  // HH:MM
	EndTime         string `gorm:"type:varchar(5);not null"                       json:"end_time"`
	DefaultCapacity int    `gorm:"not null"                                       json:"default_capacity"`
	IsActive        bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName table name
func (ClinicSlot) TableName() string { return "clinic_slots" }

// ClinicSession concrete dated clinic occurrence (clinic_sessions)
type ClinicSession struct {
	ClinicSessionID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"clinic_session_id"`
	ClinicSlotID    *string    `gorm:"type:uuid"                                      json:"clinic_slot_id,omitempty"` // nil for EMERGENCY
	TeacherID       string     `gorm:"type:uuid;not null"                             json:"teacher_id"`
	BranchID        string     `gorm:"type:uuid;not null"                             json:"branch_id"`
	SessionType     string     `gorm:"type:varchar(20);not null"                      json:"session_type"`
	SessionDate     time.Time  `gorm:"type:date;not null"                             json:"session_date"`
	StartTime       string     `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime         string     `gorm:"type:varchar(5);not null"                       json:"end_time"`
	Capacity        int        `gorm:"not null"                                       json:"capacity"`
	Canceled        bool       `gorm:"not null;default:false"                         json:"canceled"`
	CanceledAt      *time.Time `json:"canceled_at,omitempty"`
	SoftDeleteModel
}

// TableName table name
func (ClinicSession) TableName() string { return "clinic_sessions" }

// ClinicAttendance binds a student's enrollment to a session (clinic_attendances)
type ClinicAttendance struct {
	ClinicAttendanceID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"clinic_attendance_id"`
	ClinicSessionID       string `gorm:"type:uuid;not null"                             json:"clinic_session_id"`
	StudentCourseRecordID string `gorm:"type:uuid;not null"                             json:"student_course_record_id"`
	SoftDeleteModel

	Session             *ClinicSession       `gorm:"foreignKey:ClinicSessionID;references:ClinicSessionID"             json:"session,omitempty"`
	StudentCourseRecord *StudentCourseRecord `gorm:"foreignKey:StudentCourseRecordID;references:StudentCourseRecordID" json:"student_course_record,omitempty"`
}

// TableName table name
func (ClinicAttendance) TableName() string { return "clinic_attendances" }

// ClinicRecord teaching note for one attendance (clinic_records)
type ClinicRecord struct {
	ClinicRecordID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"clinic_record_id"`
	ClinicAttendanceID string `gorm:"type:uuid;not null"                             json:"clinic_attendance_id"`
	WriterID           string `gorm:"type:uuid;not null"                             json:"writer_id"`
	WriterRole         string `gorm:"type:varchar(20);not null"                      json:"writer_role"`
	Title              string `gorm:"type:varchar(200);not null"                     json:"title"`
	Content            string `gorm:"type:text"                                      json:"content"`
	HomeworkProgress   string `gorm:"type:text"                                      json:"homework_progress"`
	VersionedModel
}

// TableName table name
func (ClinicRecord) TableName() string { return "clinic_records" }

// BatchFailure one entity the weekly batch could not process
type BatchFailure struct {
	Stage    string `json:"stage"` // sessions | attendances
	EntityID string `json:"entity_id"`
	Date     string `json:"date,omitempty"`
	Reason   string `json:"reason"`
}

// ClinicBatchRun summary of one weekly generation run (clinic_batch_runs)
type ClinicBatchRun struct {
	ClinicBatchRunID   string                             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"clinic_batch_run_id"`
	WeekStart          time.Time                          `gorm:"type:date;not null"                             json:"week_start"`
	WeekEnd            time.Time                          `gorm:"type:date;not null"                             json:"week_end"`
	TriggeredBy        string                             `gorm:"type:varchar(50);not null"                      json:"triggered_by"` // cron | cli | user id
	SessionsCreated    int                                `gorm:"not null;default:0"                             json:"sessions_created"`
	SessionsSkipped    int                                `gorm:"not null;default:0"                             json:"sessions_skipped"`
	AttendancesCreated int                                `gorm:"not null;default:0"                             json:"attendances_created"`
	AttendancesSkipped int                                `gorm:"not null;default:0"                             json:"attendances_skipped"`
	FailedCount        int                                `gorm:"not null;default:0"                             json:"failed_count"`
	Failures           datatypes.JSONType[[]BatchFailure] `gorm:"type:jsonb"                                     json:"failures"`
	StartedAt          time.Time                          `gorm:"not null"                                       json:"started_at"`
	FinishedAt         time.Time                          `gorm:"not null"                                       json:"finished_at"`
	CreatedAt          time.Time                          `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName table name
func (ClinicBatchRun) TableName() string { return "clinic_batch_runs" }
