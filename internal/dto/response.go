package dto

// ── auth responses ──

// TokenResponse token pair
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // access token lifetime in seconds
	User         UserResponse `json:"user"`
}

// UserResponse public user view
type UserResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone,omitempty"`
	Role     string  `json:"role"`
	BranchID *string `json:"branch_id,omitempty"`
}

// UserBrief name reference embedded in other responses
type UserBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InvitationResponse issued invitation
type InvitationResponse struct {
	Code      string  `json:"code"`
	Role      string  `json:"role"`
	BranchID  *string `json:"branch_id,omitempty"`
	ExpiresAt string  `json:"expires_at"`
	Used      bool    `json:"used"`
}

// InvitationValidateResponse result of checking a code
type InvitationValidateResponse struct {
	Valid     bool   `json:"valid"`
	Role      string `json:"role,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}
