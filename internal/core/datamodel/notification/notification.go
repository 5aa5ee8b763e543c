package notification

import "time"

type Notification struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	CompanyID int64     `gorm:"column:company_id;not null;index:idx_notifications_recipient,priority:1"`
	UserID    string    `gorm:"column:user_id;not null;index:idx_notifications_recipient,priority:2"`
	Type      string    `gorm:"column:type;not null"`
	Priority  string    `gorm:"column:priority;not null"`
	Title     string    `gorm:"column:title;not null"`
	Message   string    `gorm:"column:message;not null"`
	LeadID    int64     `gorm:"column:lead_id"`
	ActionURL string    `gorm:"column:action_url"`
	Read      bool      `gorm:"column:read;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
