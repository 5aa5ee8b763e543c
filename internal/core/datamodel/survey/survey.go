package survey

import "time"

type Question struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

type Survey struct {
	ID          int64      `gorm:"primaryKey"`
	CompanyID   int64      `gorm:"column:company_id;not null;index"`
	Title       string     `gorm:"column:title;not null"`
	Description string     `gorm:"column:description"`
	Questions   []Question `gorm:"column:questions;serializer:json"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	CreatedBy   string     `gorm:"column:created_by"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (Survey) TableName() string {
	return "surveys"
}

type Response struct {
	ID        int64               `gorm:"primaryKey"`
	SurveyID  int64               `gorm:"column:survey_id;not null;index"`
	CompanyID int64               `gorm:"column:company_id;not null"`
	LeadID    int64               `gorm:"column:lead_id;not null"`
	Answers   map[string][]string `gorm:"column:answers;serializer:json"`
	CreatedAt time.Time           `gorm:"column:created_at"`
}

func (Response) TableName() string {
	return "survey_responses"
}
