package model

// Company academy operator (companies)
type Company struct {
	CompanyID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"company_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	OwnerID   string `gorm:"type:uuid;not null"                             json:"owner_id"`
	SoftDeleteModel
}

// TableName table name
func (Company) TableName() string { return "companies" }

// Branch physical campus of a company (branches)
type Branch struct {
	BranchID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"branch_id"`
	CompanyID string `gorm:"type:uuid;not null"                             json:"company_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Address   string `gorm:"type:varchar(255)"                              json:"address"`
	SoftDeleteModel

	Company *Company `gorm:"foreignKey:CompanyID;references:CompanyID" json:"company,omitempty"`
}

// TableName table name
func (Branch) TableName() string { return "branches" }
