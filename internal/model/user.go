package model

// User account of any role (users)
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone        string  `gorm:"type:varchar(30)"                               json:"phone"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null"                      json:"role"`
	BranchID     *string `gorm:"type:uuid"                                      json:"branch_id,omitempty"`
	VersionedModel
}

// TableName table name
func (User) TableName() string { return "users" }

// TeacherAssistant links an assistant to the teacher they work for (teacher_assistants)
type TeacherAssistant struct {
	TeacherAssistantID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_assistant_id"`
	TeacherID          string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	AssistantID        string `gorm:"type:uuid;not null"                             json:"assistant_id"`
	SoftDeleteModel
}

// TableName table name
func (TeacherAssistant) TableName() string { return "teacher_assistants" }
