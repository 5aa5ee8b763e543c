package notification

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/frahmantamala/datascope/internal"
	notificationDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/notification"
)

type Type string

const (
	TypeLeadCreated       Type = "lead_created"
	TypeLeadUpdated       Type = "lead_updated"
	TypeLeadStatusChanged Type = "lead_status_changed"
	TypeLeadConverted     Type = "lead_converted"
	TypeLeadLost          Type = "lead_lost"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var ErrUnknownType = internal.NewValidationError("Unknown notification type", internal.ErrCodeUnknownNotification)

type Notification struct {
	ID        string    `json:"id"`
	CompanyID int64     `json:"company_id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Priority  Priority  `json:"priority"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	LeadID    int64     `json:"lead_id"`
	ActionURL string    `json:"action_url"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadRef is the part of a lead a notification talks about.
type LeadRef struct {
	ID        int64
	CompanyID int64
	Name      string
	Status    string
}

type Template struct {
	Priority Priority
	Title    string
	// Message may reference {name} and {status}.
	Message string
	Toast   bool
}

var templates = map[Type]Template{
	TypeLeadCreated: {
		Priority: PriorityMedium,
		Title:    "New lead captured",
		Message:  "{name} was added as a new lead",
		Toast:    true,
	},
	TypeLeadUpdated: {
		Priority: PriorityLow,
		Title:    "Lead updated",
		Message:  "{name} was updated",
	},
	TypeLeadStatusChanged: {
		Priority: PriorityMedium,
		Title:    "Lead status changed",
		Message:  "{name} moved to {status}",
	},
	TypeLeadConverted: {
		Priority: PriorityHigh,
		Title:    "Lead converted",
		Message:  "{name} was converted to a customer",
		Toast:    true,
	},
	TypeLeadLost: {
		Priority: PriorityHigh,
		Title:    "Lead lost",
		Message:  "{name} was marked as lost",
		Toast:    true,
	},
}

func TemplateFor(t Type) (Template, bool) {
	tpl, ok := templates[t]
	return tpl, ok
}

func Types() []Type {
	return []Type{TypeLeadCreated, TypeLeadUpdated, TypeLeadStatusChanged, TypeLeadConverted, TypeLeadLost}
}

var titleCaser = cases.Title(language.English)

// StatusLabel turns a status value such as "qualified" into "Qualified".
func StatusLabel(status string) string {
	return titleCaser.String(strings.ReplaceAll(status, "_", " "))
}

func ActionURL(leadID int64) string {
	return "/leads/" + strconv.FormatInt(leadID, 10)
}

// Compose builds an unsaved notification from the template table.
func Compose(lead LeadRef, t Type, userID string) (*Notification, Template, error) {
	tpl, ok := templates[t]
	if !ok {
		return nil, Template{}, ErrUnknownType
	}
	name := strings.TrimSpace(lead.Name)
	if name == "" {
		name = "A lead"
	}
	return &Notification{
		ID:        uuid.NewString(),
		CompanyID: lead.CompanyID,
		UserID:    userID,
		Type:      t,
		Priority:  tpl.Priority,
		Title:     tpl.Title,
		Message:   strings.NewReplacer("{name}", name, "{status}", StatusLabel(lead.Status)).Replace(tpl.Message),
		LeadID:    lead.ID,
		ActionURL: ActionURL(lead.ID),
		CreatedAt: time.Now().UTC(),
	}, tpl, nil
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:        n.ID,
		CompanyID: n.CompanyID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Priority:  string(n.Priority),
		Title:     n.Title,
		Message:   n.Message,
		LeadID:    n.LeadID,
		ActionURL: n.ActionURL,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func FromDataModel(row *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		UserID:    row.UserID,
		Type:      Type(row.Type),
		Priority:  Priority(row.Priority),
		Title:     row.Title,
		Message:   row.Message,
		LeadID:    row.LeadID,
		ActionURL: row.ActionURL,
		Read:      row.Read,
		CreatedAt: row.CreatedAt,
	}
}
