package notification_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/events"
	"github.com/frahmantamala/datascope/internal/notification"
	"github.com/frahmantamala/datascope/internal/notification/inmem"
	applog "github.com/frahmantamala/datascope/pkg/logger"
)

type recordingToaster struct {
	mu     sync.Mutex
	toasts []*notification.Notification
	err    error
}

func (r *recordingToaster) Toast(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, n)
	return r.err
}

func (r *recordingToaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.toasts)
}

type staticMembers []string

func (s staticMembers) MemberIDs(context.Context, int64) ([]string, error) {
	return s, nil
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		store      *inmem.Store
		toaster    *recordingToaster
		dispatcher *notification.Dispatcher
		lead       notification.LeadRef
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmem.NewStore(10)
		toaster = &recordingToaster{}
		dispatcher = notification.NewDispatcher(store, toaster, staticMembers{"owner", "agent"}, applog.Discard())
		lead = notification.LeadRef{ID: 5, CompanyID: 1, Name: "Fox Mulder", Status: "new"}
	})

	list := func(userID string) []*notification.Notification {
		items, err := store.List(ctx, notification.ListFilter{CompanyID: 1, UserID: userID})
		Expect(err).NotTo(HaveOccurred())
		return items
	}

	It("pushes the notification into the shared list", func() {
		n, err := dispatcher.Dispatch(ctx, lead, notification.TypeLeadUpdated, "user-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(list("user-1")).To(HaveLen(1))
		Expect(list("user-1")[0].ID).To(Equal(n.ID))
	})

	It("toasts high-salience types only", func() {
		for _, t := range notification.Types() {
			_, err := dispatcher.Dispatch(ctx, lead, t, "user-1")
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(toaster.count()).To(Equal(3))
		var types []notification.Type
		for _, n := range toaster.toasts {
			types = append(types, n.Type)
		}
		Expect(types).To(ConsistOf(notification.TypeLeadCreated, notification.TypeLeadConverted, notification.TypeLeadLost))
	})

	It("keeps the notification when the toast fails", func() {
		toaster.err = errors.New("socket closed")
		_, err := dispatcher.Dispatch(ctx, lead, notification.TypeLeadConverted, "user-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(list("user-1")).To(HaveLen(1))
	})

	It("pushes nothing for an unknown type", func() {
		_, err := dispatcher.Dispatch(ctx, lead, "lead_archived", "user-1")
		Expect(err).To(MatchError(notification.ErrUnknownType))
		Expect(list("user-1")).To(BeEmpty())
		Expect(toaster.count()).To(BeZero())
	})

	Describe("HandleLeadEvent", func() {
		It("notifies the actor of the event", func() {
			ev := events.NewLeadEvent(events.EventTypeLeadStatusChanged, 1, 5, "Fox Mulder", "agent", "new", "contacted")
			Expect(dispatcher.HandleLeadEvent(ctx, ev)).To(Succeed())

			items := list("agent")
			Expect(items).To(HaveLen(1))
			Expect(items[0].Message).To(Equal("Fox Mulder moved to Contacted"))
			Expect(list("owner")).To(BeEmpty())
		})

		It("notifies every member for anonymous captures", func() {
			ev := events.NewLeadEvent(events.EventTypeLeadCreated, 1, 5, "Fox Mulder", "", "", "new")
			Expect(dispatcher.HandleLeadEvent(ctx, ev)).To(Succeed())

			Expect(list("owner")).To(HaveLen(1))
			Expect(list("agent")).To(HaveLen(1))
			Expect(toaster.count()).To(Equal(2))
		})

		It("rejects events that are not lead events", func() {
			ev := events.BaseEvent{ID: "x", Type: events.EventTypeLeadCreated}
			Expect(dispatcher.HandleLeadEvent(ctx, ev)).NotTo(Succeed())
		})

		It("is reached through the event bus", func() {
			bus := events.NewEventBus(applog.Discard())
			dispatcher.Register(bus)

			ev := events.NewLeadEvent(events.EventTypeLeadConverted, 1, 5, "Fox Mulder", "agent", "qualified", "converted")
			Expect(bus.Publish(ctx, ev)).To(Succeed())
			Expect(bus.Wait(ctx)).To(Succeed())

			items := list("agent")
			Expect(items).To(HaveLen(1))
			Expect(items[0].Type).To(Equal(notification.TypeLeadConverted))
			Expect(items[0].Priority).To(Equal(notification.PriorityHigh))
		})
	})
})

var _ = Describe("Service", func() {
	var (
		ctx   context.Context
		store *inmem.Store
		svc   *notification.Service
		scope internal.Scope
		first *notification.Notification
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmem.NewStore(0)
		svc = notification.NewService(store, 0, applog.Discard())
		scope = internal.Scope{CompanyID: 1, UserID: "u1"}
		d := notification.NewDispatcher(store, nil, nil, applog.Discard())

		var err error
		first, err = d.Dispatch(ctx, notification.LeadRef{ID: 1, CompanyID: 1, Name: "A"}, notification.TypeLeadCreated, "u1")
		Expect(err).NotTo(HaveOccurred())
		_, err = d.Dispatch(ctx, notification.LeadRef{ID: 2, CompanyID: 1, Name: "B"}, notification.TypeLeadCreated, "u1")
		Expect(err).NotTo(HaveOccurred())
		_, err = d.Dispatch(ctx, notification.LeadRef{ID: 3, CompanyID: 2, Name: "C"}, notification.TypeLeadCreated, "u1")
		Expect(err).NotTo(HaveOccurred())
	})

	It("lists only the scoped company, newest first", func() {
		items, err := svc.List(ctx, scope, false, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(2))
		Expect(items[0].LeadID).To(Equal(int64(2)))
	})

	It("tracks unread counts through MarkRead and MarkAllRead", func() {
		Expect(svc.MarkRead(ctx, scope, first.ID)).To(Succeed())
		count, err := svc.UnreadCount(ctx, scope)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))

		updated, err := svc.MarkAllRead(ctx, scope)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated).To(Equal(int64(1)))

		unread, err := svc.List(ctx, scope, true, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(unread).To(BeEmpty())
	})

	It("hides other recipients' notifications", func() {
		other := internal.Scope{CompanyID: 1, UserID: "u2"}
		Expect(svc.MarkRead(ctx, other, first.ID)).To(MatchError(internal.ErrNotificationNotFound))
		Expect(svc.Delete(ctx, other, first.ID)).To(MatchError(internal.ErrNotificationNotFound))
	})

	It("deletes a notification", func() {
		Expect(svc.Delete(ctx, scope, first.ID)).To(Succeed())
		items, err := svc.List(ctx, scope, false, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))
	})
})
