package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLeadCreated       = "lead.created"
	EventTypeLeadUpdated       = "lead.updated"
	EventTypeLeadStatusChanged = "lead.status_changed"
	EventTypeLeadConverted     = "lead.converted"
	EventTypeLeadLost          = "lead.lost"
)

// LeadEventTypes lists every lead event, in lifecycle order.
var LeadEventTypes = []string{
	EventTypeLeadCreated,
	EventTypeLeadUpdated,
	EventTypeLeadStatusChanged,
	EventTypeLeadConverted,
	EventTypeLeadLost,
}

type LeadEvent struct {
	BaseEvent
	CompanyID  int64  `json:"company_id"`
	LeadID     int64  `json:"lead_id"`
	LeadName   string `json:"lead_name"`
	ActorID    string `json:"actor_id"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
}

// NewLeadEvent builds a lead event. actorID is empty for public captures.
func NewLeadEvent(eventType string, companyID, leadID int64, leadName, actorID, fromStatus, toStatus string) *LeadEvent {
	return &LeadEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"company_id":  companyID,
				"lead_id":     leadID,
				"lead_name":   leadName,
				"actor_id":    actorID,
				"from_status": fromStatus,
				"to_status":   toStatus,
			},
		},
		CompanyID:  companyID,
		LeadID:     leadID,
		LeadName:   leadName,
		ActorID:    actorID,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
	}
}
