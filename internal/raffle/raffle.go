package raffle

import (
	"time"

	raffleDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/raffle"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
	StatusDrawn  = "drawn"
)

var Statuses = []string{StatusOpen, StatusClosed, StatusDrawn}

type Raffle struct {
	ID           int64      `json:"id"`
	CompanyID    int64      `json:"company_id"`
	Name         string     `json:"name"`
	Prize        string     `json:"prize,omitempty"`
	Status       string     `json:"status"`
	WinnerLeadID *int64     `json:"winner_lead_id,omitempty"`
	DrawnAt      *time.Time `json:"drawn_at,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Drawable reports whether a winner may still be picked.
func (r *Raffle) Drawable() bool {
	return r.Status == StatusOpen || r.Status == StatusClosed
}

type PublicRaffle struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Prize  string `json:"prize,omitempty"`
	Status string `json:"status"`
}

func (r *Raffle) Public() *PublicRaffle {
	return &PublicRaffle{ID: r.ID, Name: r.Name, Prize: r.Prize, Status: r.Status}
}

type Entry struct {
	ID        int64     `json:"id"`
	RaffleID  int64     `json:"raffle_id"`
	LeadID    int64     `json:"lead_id"`
	LeadName  string    `json:"lead_name"`
	LeadEmail string    `json:"lead_email"`
	CreatedAt time.Time `json:"created_at"`
}

func FromDataModel(m *raffleDatamodel.Raffle) *Raffle {
	return &Raffle{
		ID:           m.ID,
		CompanyID:    m.CompanyID,
		Name:         m.Name,
		Prize:        m.Prize,
		Status:       m.Status,
		WinnerLeadID: m.WinnerLeadID,
		DrawnAt:      m.DrawnAt,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func EntryFromDataModel(m *raffleDatamodel.EntryDetail) *Entry {
	return &Entry{
		ID:        m.ID,
		RaffleID:  m.RaffleID,
		LeadID:    m.LeadID,
		LeadName:  m.LeadName,
		LeadEmail: m.LeadEmail,
		CreatedAt: m.CreatedAt,
	}
}
