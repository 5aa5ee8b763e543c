package lead_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/events"
	"github.com/frahmantamala/datascope/internal/lead"
)

var _ = Describe("Lead Service", func() {
	var (
		ctx   context.Context
		pub   *recordingPublisher
		svc   *lead.Service
		scope internal.Scope
	)

	BeforeEach(func() {
		ctx = context.Background()
		pub = &recordingPublisher{}
		svc = newService(pub)
		scope = internal.Scope{CompanyID: 1, UserID: "agent-1", Role: "agent"}
	})

	Describe("Create", func() {
		It("stores a new lead and announces it", func() {
			l, err := svc.Create(ctx, scope, validDTO("Ada Lovelace", "Ada@Example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ID).NotTo(BeZero())
			Expect(l.Email).To(Equal("ada@example.com"))
			Expect(l.Status).To(Equal(lead.StatusNew))
			Expect(l.Source).To(Equal(lead.SourceManual))
			Expect(l.CreatedBy).To(Equal("agent-1"))

			Expect(pub.types()).To(Equal([]string{events.EventTypeLeadCreated}))
			Expect(pub.last().ActorID).To(Equal("agent-1"))
			Expect(pub.last().CompanyID).To(Equal(int64(1)))
		})

		It("rejects a duplicate email in the same company regardless of case", func() {
			_, err := svc.Create(ctx, scope, validDTO("Ada", "ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Create(ctx, scope, validDTO("Ada again", "ADA@example.com"))
			Expect(err).To(MatchError(internal.ErrLeadAlreadyExists))
			Expect(pub.types()).To(HaveLen(1))
		})

		It("allows the same email in another company", func() {
			_, err := svc.Create(ctx, scope, validDTO("Ada", "ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			other := internal.Scope{CompanyID: 2, UserID: "agent-2"}
			_, err = svc.Create(ctx, other, validDTO("Ada", "ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("publishes nothing on validation failure", func() {
			_, err := svc.Create(ctx, scope, lead.CreateLeadDTO{Name: "No email"})
			Expect(err).To(HaveOccurred())
			Expect(pub.types()).To(BeEmpty())
		})
	})

	Describe("Capture", func() {
		It("records a web form lead without an actor", func() {
			l, err := svc.Capture(ctx, 1, validDTO("Grace", "grace@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Source).To(Equal(lead.SourceWebForm))
			Expect(pub.last().ActorID).To(BeEmpty())
		})

		It("rejects unknown companies", func() {
			_, err := svc.Capture(ctx, 99, validDTO("Grace", "grace@example.com"))
			Expect(err).To(MatchError(internal.ErrCompanyNotFound))
		})
	})

	Describe("FindOrCreate", func() {
		It("reuses an existing lead", func() {
			first, created, err := svc.FindOrCreate(ctx, 1, validDTO("Grace", "grace@example.com"), lead.SourceSurvey)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(first.Source).To(Equal(lead.SourceSurvey))

			again, created, err := svc.FindOrCreate(ctx, 1, validDTO("Grace H.", "GRACE@example.com"), lead.SourceRaffle)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(again.ID).To(Equal(first.ID))
			Expect(pub.types()).To(HaveLen(1))
		})
	})

	Describe("Get and scope isolation", func() {
		It("does not reveal leads from other companies", func() {
			l, err := svc.Create(ctx, scope, validDTO("Ada", "ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Get(ctx, internal.Scope{CompanyID: 2, UserID: "x"}, l.ID)
			Expect(err).To(MatchError(internal.ErrLeadNotFound))
			Expect(svc.Delete(ctx, internal.Scope{CompanyID: 2, UserID: "x"}, l.ID)).To(MatchError(internal.ErrLeadNotFound))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, dto := range []lead.CreateLeadDTO{
				{Name: "Alan Turing", Email: "alan@example.com", Company: "Bletchley"},
				{Name: "Grace Hopper", Email: "grace@navy.example", Source: lead.SourceReferral},
				{Name: "Ada Lovelace", Email: "ada@example.com"},
			} {
				_, err := svc.Create(ctx, scope, dto)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("filters by search text across name, email and company", func() {
			res, err := svc.List(ctx, scope, lead.ListFilter{Search: "bletch"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Total).To(Equal(int64(1)))
			Expect(res.Leads[0].Name).To(Equal("Alan Turing"))
		})

		It("filters by source", func() {
			res, err := svc.List(ctx, scope, lead.ListFilter{Source: lead.SourceReferral})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Leads).To(HaveLen(1))
		})

		It("pages while reporting the full total", func() {
			res, err := svc.List(ctx, scope, lead.ListFilter{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Leads).To(HaveLen(2))
			Expect(res.Total).To(Equal(int64(3)))
		})

		It("rejects unknown status filters", func() {
			_, err := svc.List(ctx, scope, lead.ListFilter{Status: "warm"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		var l *lead.Lead

		BeforeEach(func() {
			var err error
			l, err = svc.Create(ctx, scope, validDTO("Ada", "ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("applies only the given fields", func() {
			notes := "met at the expo"
			updated, err := svc.Update(ctx, scope, l.ID, lead.UpdateLeadDTO{Notes: &notes})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Notes).To(Equal(notes))
			Expect(updated.Name).To(Equal("Ada"))
			Expect(pub.types()).To(Equal([]string{events.EventTypeLeadCreated, events.EventTypeLeadUpdated}))
		})

		It("publishes nothing when nothing changed", func() {
			name := "Ada"
			_, err := svc.Update(ctx, scope, l.ID, lead.UpdateLeadDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(pub.types()).To(HaveLen(1))
		})

		It("refuses to take another lead's email", func() {
			_, err := svc.Create(ctx, scope, validDTO("Grace", "grace@example.com"))
			Expect(err).NotTo(HaveOccurred())
			email := "grace@example.com"
			_, err = svc.Update(ctx, scope, l.ID, lead.UpdateLeadDTO{Email: &email})
			Expect(err).To(MatchError(internal.ErrLeadAlreadyExists))
		})

		It("rejects a blank source", func() {
			source := " "
			_, err := svc.Update(ctx, scope, l.ID, lead.UpdateLeadDTO{Source: &source})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ChangeStatus", func() {
		var l *lead.Lead

		BeforeEach(func() {
			var err error
			l, err = svc.Create(ctx, scope, validDTO("Ada", "ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		change := func(status string) (*lead.Lead, error) {
			return svc.ChangeStatus(ctx, scope, l.ID, lead.ChangeStatusDTO{Status: status})
		}

		It("maps transitions to the matching event", func() {
			_, err := change(lead.StatusContacted)
			Expect(err).NotTo(HaveOccurred())
			Expect(pub.last().EventType()).To(Equal(events.EventTypeLeadStatusChanged))
			Expect(pub.last().FromStatus).To(Equal(lead.StatusNew))
			Expect(pub.last().ToStatus).To(Equal(lead.StatusContacted))

			_, err = change(lead.StatusLost)
			Expect(err).NotTo(HaveOccurred())
			Expect(pub.last().EventType()).To(Equal(events.EventTypeLeadLost))

			_, err = change(lead.StatusNew)
			Expect(err).NotTo(HaveOccurred())

			updated, err := change(lead.StatusConverted)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(lead.StatusConverted))
			Expect(pub.last().EventType()).To(Equal(events.EventTypeLeadConverted))
		})

		It("rejects setting the current status", func() {
			_, err := change(lead.StatusNew)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
		})

		It("keeps converted leads converted", func() {
			_, err := change(lead.StatusConverted)
			Expect(err).NotTo(HaveOccurred())
			_, err = change(lead.StatusContacted)
			Expect(err).To(HaveOccurred())
		})

		It("rejects unknown statuses as validation errors", func() {
			_, err := change("warm")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("Stats", func() {
		It("counts every status including empty ones", func() {
			a, _ := svc.Create(ctx, scope, validDTO("A", "a@example.com"))
			_, _ = svc.Create(ctx, scope, validDTO("B", "b@example.com"))
			_, err := svc.ChangeStatus(ctx, scope, a.ID, lead.ChangeStatusDTO{Status: lead.StatusQualified})
			Expect(err).NotTo(HaveOccurred())

			stats, err := svc.Stats(ctx, scope)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(2)))
			Expect(stats.ByStatus).To(HaveLen(len(lead.Statuses)))
			Expect(stats.ByStatus[lead.StatusNew]).To(Equal(int64(1)))
			Expect(stats.ByStatus[lead.StatusQualified]).To(Equal(int64(1)))
			Expect(stats.ByStatus[lead.StatusLost]).To(BeZero())
		})
	})

	Describe("Delete", func() {
		It("removes the lead", func() {
			l, err := svc.Create(ctx, scope, validDTO("Ada", "ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.Delete(ctx, scope, l.ID)).To(Succeed())
			_, err = svc.Get(ctx, scope, l.ID)
			Expect(err).To(MatchError(internal.ErrLeadNotFound))
		})
	})
})
