package lead

import "time"

type Lead struct {
	ID        int64     `gorm:"primaryKey"`
	CompanyID int64     `gorm:"column:company_id;not null;uniqueIndex:idx_leads_company_email,priority:1;index"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:idx_leads_company_email,priority:2"`
	Phone     string    `gorm:"column:phone"`
	Company   string    `gorm:"column:company"`
	Status    string    `gorm:"column:status;not null;default:new;index"`
	Source    string    `gorm:"column:source;not null;default:manual"`
	Interests []string  `gorm:"column:interests;serializer:json"`
	Notes     string    `gorm:"column:notes"`
	CreatedBy string    `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

// StatusCount is a row of the per-status aggregate.
type StatusCount struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}
