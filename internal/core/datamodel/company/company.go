package company

import "time"

type Company struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Company) TableName() string {
	return "companies"
}

type Member struct {
	ID        int64     `gorm:"primaryKey"`
	CompanyID int64     `gorm:"column:company_id;not null;uniqueIndex:idx_company_members_company_user,priority:1"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_company_members_company_user,priority:2;index"`
	Role      string    `gorm:"column:role;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Member) TableName() string {
	return "company_members"
}

// Membership joins a member row with its company for listing.
type Membership struct {
	CompanyID   int64  `gorm:"column:company_id"`
	CompanyName string `gorm:"column:company_name"`
	CompanySlug string `gorm:"column:company_slug"`
	Role        string `gorm:"column:role"`
}
