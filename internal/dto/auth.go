package dto

// ── auth DTO ──

// LoginRequest login
type LoginRequest struct {
	Email      string `json:"email"    binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest registration through an invitation code
type RegisterRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
	Name       string `json:"name"        binding:"required,min=2,max=100"`
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required,min=8,max=72"`
	Phone      string `json:"phone"       binding:"omitempty,max=30"`
}

// RefreshTokenRequest refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateInvitationRequest teacher invites an assistant or a student
type CreateInvitationRequest struct {
	Role        string  `json:"role"         binding:"required,oneof=ASSISTANT STUDENT"`
	BranchID    *string `json:"branch_id"    binding:"omitempty,uuid"`
	ExpiresDays int     `json:"expires_days" binding:"omitempty,min=1,max=90"` // default from config
}

// CreateUserRequest operator bootstrap of ADMIN or TEACHER accounts (CLI)
type CreateUserRequest struct {
	Name     string  `json:"name"      binding:"required,min=2,max=100"`
	Email    string  `json:"email"     binding:"required,email"`
	Password string  `json:"password"  binding:"required,min=8,max=72"`
	Role     string  `json:"role"      binding:"required,oneof=ADMIN TEACHER"`
	BranchID *string `json:"branch_id" binding:"omitempty,uuid"`
}
