package model

import "time"

// Course a class taught by one teacher at a branch (courses)
type Course struct {
	CourseID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	TeacherID   string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	BranchID    string    `gorm:"type:uuid;not null"                             json:"branch_id"`
	Name        string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string    `gorm:"type:text"                                      json:"description"`
	StartDate   time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null"                             json:"end_date"`
	VersionedModel

	Teacher *User `gorm:"foreignKey:TeacherID;references:UserID" json:"teacher,omitempty"`
}

// TableName table name
func (Course) TableName() string { return "courses" }

// StudentCourseRecord enrollment of a student in a course (student_course_records)
type StudentCourseRecord struct {
	StudentCourseRecordID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_course_record_id"`
	StudentID             string  `gorm:"type:uuid;not null"                             json:"student_id"`
	CourseID              string  `gorm:"type:uuid;not null"                             json:"course_id"`
	DefaultClinicSlotID   *string `gorm:"type:uuid"                                      json:"default_clinic_slot_id,omitempty"`
	SoftDeleteModel

	Student *User   `gorm:"foreignKey:StudentID;references:UserID"  json:"student,omitempty"`
	Course  *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName table name
func (StudentCourseRecord) TableName() string { return "student_course_records" }
