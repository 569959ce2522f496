package model

// Roles
const (
	RoleAdmin     = "ADMIN"
	RoleTeacher   = "TEACHER"
	RoleAssistant = "ASSISTANT"
	RoleStudent   = "STUDENT"
)

// IsValidRole reports whether r is a known role
func IsValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleAssistant, RoleStudent:
		return true
	}
	return false
}
