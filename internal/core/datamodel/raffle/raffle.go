package raffle

import "time"

type Raffle struct {
	ID           int64      `gorm:"primaryKey"`
	CompanyID    int64      `gorm:"column:company_id;not null;index"`
	Name         string     `gorm:"column:name;not null"`
	Prize        string     `gorm:"column:prize"`
	Status       string     `gorm:"column:status;not null;default:open"`
	WinnerLeadID *int64     `gorm:"column:winner_lead_id"`
	DrawnAt      *time.Time `gorm:"column:drawn_at"`
	CreatedBy    string     `gorm:"column:created_by"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (Raffle) TableName() string {
	return "raffles"
}

type Entry struct {
	ID        int64     `gorm:"primaryKey"`
	RaffleID  int64     `gorm:"column:raffle_id;not null;uniqueIndex:idx_raffle_entries_raffle_lead,priority:1"`
	LeadID    int64     `gorm:"column:lead_id;not null;uniqueIndex:idx_raffle_entries_raffle_lead,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "raffle_entries"
}

// EntryDetail is an entry joined with the entrant's lead.
type EntryDetail struct {
	ID        int64     `gorm:"column:id"`
	RaffleID  int64     `gorm:"column:raffle_id"`
	LeadID    int64     `gorm:"column:lead_id"`
	LeadName  string    `gorm:"column:lead_name"`
	LeadEmail string    `gorm:"column:lead_email"`
	CreatedAt time.Time `gorm:"column:created_at"`
}
