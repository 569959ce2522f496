package dto

// ── company / branch DTO ──

// CreateCompanyRequest create a company
type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// CompanyResponse company
type CompanyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

// CreateBranchRequest create a branch under a company
type CreateBranchRequest struct {
	Name    string `json:"name"    binding:"required,min=2,max=100"`
	Address string `json:"address" binding:"omitempty,max=255"`
}

// BranchResponse branch
type BranchResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at"`
}
