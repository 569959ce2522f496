package model

import "time"

// Invitation one-time registration code issued by a teacher (invitations)
type Invitation struct {
	InvitationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invitation_id"`
	Code         string     `gorm:"type:varchar(50);not null"                      json:"code"`
	TeacherID    string     `gorm:"type:uuid;not null"                             json:"teacher_id"`
	BranchID     *string    `gorm:"type:uuid"                                      json:"branch_id,omitempty"`
	Role         string     `gorm:"type:varchar(20);not null"                      json:"role"` // ASSISTANT | STUDENT
	ExpiresAt    time.Time  `gorm:"not null"                                       json:"expires_at"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	UsedBy       *string    `gorm:"type:uuid"                                      json:"used_by,omitempty"`
	VersionedModel
}

// TableName table name
func (Invitation) TableName() string { return "invitations" }
