package model

import "time"

// CourseProgress journal entry shared by everyone in a course (course_progresses)
type CourseProgress struct {
	CourseProgressID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_progress_id"`
	CourseID         string    `gorm:"type:uuid;not null"                             json:"course_id"`
	ProgressDate     time.Time `gorm:"type:date;not null"                             json:"progress_date"`
	Title            string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Content          string    `gorm:"type:text"                                      json:"content"`
	WriterID         string    `gorm:"type:uuid;not null"                             json:"writer_id"`
	SoftDeleteModel
}

// TableName table name
func (CourseProgress) TableName() string { return "course_progresses" }

// PersonalProgress journal entry for one enrollment (personal_progresses)
type PersonalProgress struct {
	PersonalProgressID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"personal_progress_id"`
	StudentCourseRecordID string    `gorm:"type:uuid;not null"                             json:"student_course_record_id"`
	ProgressDate          time.Time `gorm:"type:date;not null"                             json:"progress_date"`
	Title                 string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Content               string    `gorm:"type:text"                                      json:"content"`
	WriterID              string    `gorm:"type:uuid;not null"                             json:"writer_id"`
	SoftDeleteModel
}

// TableName table name
func (PersonalProgress) TableName() string { return "personal_progresses" }
