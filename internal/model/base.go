package model

import "time"

// BaseModel audit timestamps embedded by every entity
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// SoftDeleteModel adds an explicit deletion timestamp.
// Repositories filter "deleted_at IS NULL" themselves; gorm's implicit scope is not used.
type SoftDeleteModel struct {
	BaseModel
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the row was soft deleted
func (m SoftDeleteModel) IsDeleted() bool { return m.DeletedAt != nil }

// VersionedModel soft-deletable entity with optimistic locking
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}
