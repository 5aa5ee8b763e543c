package lead

import (
	"time"

	leadDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/lead"
)

type Lead struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Status    string    `json:"status"`
	Source    string    `json:"source"`
	Interests []string  `json:"interests"`
	Notes     string    `json:"notes,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

var Statuses = []string{StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost}

const (
	SourceWebForm  = "web_form"
	SourceSurvey   = "survey"
	SourceRaffle   = "raffle"
	SourceImport   = "import"
	SourceManual   = "manual"
	SourceReferral = "referral"
	SourceEvent    = "event"
)

var Sources = []string{SourceWebForm, SourceSurvey, SourceRaffle, SourceImport, SourceManual, SourceReferral, SourceEvent}

// CanTransition reports whether a lead may move from one status to another.
// Converted leads are final; lost leads can only be reopened.
func CanTransition(from, to string) bool {
	if from == to || !contains(Statuses, to) {
		return false
	}
	switch from {
	case StatusConverted:
		return false
	case StatusLost:
		return to == StatusNew || to == StatusContacted
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func FromDataModel(row *leadDatamodel.Lead) *Lead {
	interests := row.Interests
	if interests == nil {
		interests = []string{}
	}
	return &Lead{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Company:   row.Company,
		Status:    row.Status,
		Source:    row.Source,
		Interests: interests,
		Notes:     row.Notes,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func ToDataModel(l *Lead) *leadDatamodel.Lead {
	return &leadDatamodel.Lead{
		ID:        l.ID,
		CompanyID: l.CompanyID,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		Company:   l.Company,
		Status:    l.Status,
		Source:    l.Source,
		Interests: l.Interests,
		Notes:     l.Notes,
		CreatedBy: l.CreatedBy,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
