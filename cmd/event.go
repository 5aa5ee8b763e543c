package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/events"
	"github.com/frahmantamala/datascope/internal/notification"
	"github.com/frahmantamala/datascope/internal/notification/inmem"
	"github.com/frahmantamala/datascope/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish lead events through an in-process dispatcher to preview notifications`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a lead event and print the notifications it produces",
	Long:  `Publish one of ` + strings.Join(events.LeadEventTypes, ", ") + ` to an in-memory dispatcher`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishLeadEvent(cmd.Context(), args[0])
	},
}

var (
	eventCompanyID int64
	eventLeadID    int64
	eventLeadName  string
	eventActor     string
	eventRecipient string
	eventToStatus  string
)

type staticRecipients []string

func (s staticRecipients) MemberIDs(context.Context, int64) ([]string, error) {
	return s, nil
}

func publishLeadEvent(ctx context.Context, eventType string) error {
	log := logger.LoggerWrapper()

	store := inmem.NewStore(50)
	bus := events.NewEventBus(log)
	notification.NewDispatcher(store, notification.NewLogToaster(log), staticRecipients{eventRecipient}, log).Register(bus)

	if bus.Subscribers()[eventType] == 0 {
		return fmt.Errorf("unknown event type %q, expected one of %s", eventType, strings.Join(events.LeadEventTypes, ", "))
	}

	event := events.NewLeadEvent(eventType, eventCompanyID, eventLeadID, eventLeadName, eventActor, "", eventToStatus)
	log.Info("publishing lead event", "event_type", eventType, "event_id", event.EventID())
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := bus.PublishSync(pubCtx, event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	userID := eventActor
	if userID == "" {
		userID = eventRecipient
	}
	service := notification.NewService(store, 0, log)
	list, err := service.List(ctx, internal.Scope{CompanyID: eventCompanyID, UserID: userID}, false, 10, 0)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no notification produced")
		return nil
	}
	for _, n := range list {
		fmt.Printf("[%s] %s: %s (%s)\n", n.Priority, n.Title, n.Message, n.ActionURL)
	}
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventCompanyID, "company", 1, "company id")
	publishEventCmd.Flags().Int64Var(&eventLeadID, "lead", 1, "lead id")
	publishEventCmd.Flags().StringVar(&eventLeadName, "name", "Jane Doe", "lead name")
	publishEventCmd.Flags().StringVar(&eventActor, "actor", "", "user who caused the event; empty means a public capture")
	publishEventCmd.Flags().StringVar(&eventRecipient, "recipient", "dev-user", "member notified for public captures")
	publishEventCmd.Flags().StringVar(&eventToStatus, "to-status", "", "new status for status events")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
