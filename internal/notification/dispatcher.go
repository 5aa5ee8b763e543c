package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/datascope/internal/core/events"
)

// RecipientResolver lists who hears about events nobody in the company caused,
// such as public form captures.
type RecipientResolver interface {
	MemberIDs(ctx context.Context, companyID int64) ([]string, error)
}

var eventTypes = map[string]Type{
	events.EventTypeLeadCreated:       TypeLeadCreated,
	events.EventTypeLeadUpdated:       TypeLeadUpdated,
	events.EventTypeLeadStatusChanged: TypeLeadStatusChanged,
	events.EventTypeLeadConverted:     TypeLeadConverted,
	events.EventTypeLeadLost:          TypeLeadLost,
}

// Recorder counts pushed notifications.
type Recorder interface {
	ObserveNotification(notificationType string)
}

type Dispatcher struct {
	store      Store
	toaster    Toaster
	recipients RecipientResolver
	recorder   Recorder
	logger     *slog.Logger
}

func NewDispatcher(store Store, toaster Toaster, recipients RecipientResolver, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		toaster:    toaster,
		recipients: recipients,
		logger:     logger,
	}
}

func (d *Dispatcher) WithRecorder(r Recorder) *Dispatcher {
	d.recorder = r
	return d
}

// Dispatch composes a notification for lead, pushes it into the store and raises a
// toast when the template asks for one. A failed toast is logged and ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, lead LeadRef, t Type, userID string) (*Notification, error) {
	n, tpl, err := Compose(lead, t, userID)
	if err != nil {
		return nil, err
	}

	if err := d.store.Push(ctx, n); err != nil {
		return nil, fmt.Errorf("push notification: %w", err)
	}
	if d.recorder != nil {
		d.recorder.ObserveNotification(string(n.Type))
	}

	if tpl.Toast && d.toaster != nil {
		if err := d.toaster.Toast(ctx, n); err != nil {
			d.logger.Warn("toast failed",
				"notification_id", n.ID,
				"type", n.Type,
				"error", err)
		}
	}

	d.logger.Debug("notification dispatched",
		"notification_id", n.ID,
		"company_id", n.CompanyID,
		"user_id", n.UserID,
		"type", n.Type)
	return n, nil
}

// HandleLeadEvent is the event bus handler for lead events.
func (d *Dispatcher) HandleLeadEvent(ctx context.Context, event events.Event) error {
	var le *events.LeadEvent
	switch e := event.(type) {
	case *events.LeadEvent:
		le = e
	case events.LeadEvent:
		le = &e
	default:
		return fmt.Errorf("unexpected event %T for %s", event, event.EventType())
	}

	t, ok := eventTypes[le.EventType()]
	if !ok {
		return ErrUnknownType
	}

	recipients := []string{le.ActorID}
	if le.ActorID == "" {
		if d.recipients == nil {
			d.logger.Debug("no recipients for anonymous lead event", "event_id", le.EventID())
			return nil
		}
		ids, err := d.recipients.MemberIDs(ctx, le.CompanyID)
		if err != nil {
			return fmt.Errorf("resolve recipients: %w", err)
		}
		recipients = ids
	}

	lead := LeadRef{ID: le.LeadID, CompanyID: le.CompanyID, Name: le.LeadName, Status: le.ToStatus}
	var errs []error
	for _, userID := range recipients {
		if _, err := d.Dispatch(ctx, lead, t, userID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Register subscribes the dispatcher to every lead event on the bus.
func (d *Dispatcher) Register(bus *events.EventBus) {
	for _, eventType := range events.LeadEventTypes {
		bus.Subscribe(eventType, d.HandleLeadEvent)
	}
}
