package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/notification"
	"github.com/frahmantamala/datascope/internal/notification/inmem"
	"github.com/frahmantamala/datascope/internal/transport"
	applog "github.com/frahmantamala/datascope/pkg/logger"
)

var _ = Describe("Notification Handler", func() {
	var (
		router http.Handler
		scope  internal.Scope
		n      *notification.Notification
	)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req = req.WithContext(internal.ContextWithScope(req.Context(), scope))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		scope = internal.Scope{CompanyID: 1, UserID: "u1", Role: "agent"}
		store := inmem.NewStore(0)
		d := notification.NewDispatcher(store, nil, nil, applog.Discard())
		var err error
		n, err = d.Dispatch(context.Background(), notification.LeadRef{ID: 8, CompanyID: 1, Name: "Monica"}, notification.TypeLeadCreated, "u1")
		Expect(err).NotTo(HaveOccurred())

		h := notification.NewHandler(transport.NewBaseHandler(applog.Discard()), notification.NewService(store, 0, applog.Discard()))
		r := chi.NewRouter()
		r.Get("/notifications", h.List)
		r.Get("/notifications/unread-count", h.UnreadCount)
		r.Patch("/notifications/{id}/read", h.MarkRead)
		r.Post("/notifications/read-all", h.MarkAllRead)
		r.Delete("/notifications/{id}", h.Delete)
		router = r
	})

	It("lists notifications", func() {
		rec := do(http.MethodGet, "/notifications?unread=true")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body struct {
			Notifications []notification.Notification `json:"notifications"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Notifications).To(HaveLen(1))
		Expect(body.Notifications[0].ActionURL).To(Equal("/leads/8"))
	})

	It("marks a notification read", func() {
		Expect(do(http.MethodPatch, "/notifications/"+n.ID+"/read").Code).To(Equal(http.StatusNoContent))

		rec := do(http.MethodGet, "/notifications/unread-count")
		Expect(rec.Body.String()).To(MatchJSON(`{"unread":0}`))
	})

	It("returns 404 for unknown ids", func() {
		rec := do(http.MethodPatch, "/notifications/nope/read")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeNotificationNotFound)))
	})

	It("marks all read", func() {
		rec := do(http.MethodPost, "/notifications/read-all")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"updated":1}`))
	})

	It("deletes a notification", func() {
		Expect(do(http.MethodDelete, "/notifications/"+n.ID).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodDelete, "/notifications/"+n.ID).Code).To(Equal(http.StatusNotFound))
	})
})
