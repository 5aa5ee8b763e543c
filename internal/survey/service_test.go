package survey_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/events"
	"github.com/frahmantamala/datascope/internal/lead"
	"github.com/frahmantamala/datascope/internal/survey"
)

var _ = Describe("Survey Service", func() {
	var (
		ctx   context.Context
		f     *fixture
		acme  internal.Scope
		other internal.Scope
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
		acme = internal.Scope{CompanyID: 1, UserID: "owner-1", Role: "admin"}
		other = internal.Scope{CompanyID: 2, UserID: "owner-2", Role: "admin"}
	})

	create := func(scope internal.Scope) *survey.Survey {
		sv, err := f.service.Create(ctx, scope, sampleSurvey())
		Expect(err).NotTo(HaveOccurred())
		return sv
	}

	submission := func(email string) survey.SubmitDTO {
		return survey.SubmitDTO{
			Name:    "Grace",
			Email:   email,
			Answers: map[string][]string{"plan": {"pro"}, "features": {"api"}},
		}
	}

	Describe("Create", func() {
		It("stores an active survey with its questions", func() {
			sv := create(acme)
			Expect(sv.ID).NotTo(BeZero())
			Expect(sv.IsActive).To(BeTrue())
			Expect(sv.CreatedBy).To(Equal("owner-1"))

			loaded, err := f.service.Get(ctx, acme, sv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Questions).To(HaveLen(3))
			Expect(loaded.Questions[0].Options).To(Equal([]string{"starter", "pro"}))
		})

		It("returns validation errors", func() {
			_, err := f.service.Create(ctx, acme, survey.CreateSurveyDTO{Title: "No questions"})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("company scope", func() {
		It("hides other companies' surveys", func() {
			sv := create(acme)
			_, err := f.service.Get(ctx, other, sv.ID)
			Expect(err).To(MatchError(internal.ErrSurveyNotFound))

			list, err := f.service.List(ctx, other, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Surveys).To(BeEmpty())
			Expect(list.Total).To(BeZero())
		})
	})

	Describe("Submit", func() {
		It("creates a survey-sourced lead and stores the response", func() {
			sv := create(acme)
			result, err := f.service.Submit(ctx, sv.ID, submission("GRACE@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.LeadCreated).To(BeTrue())

			l, err := f.leads.Get(ctx, acme, result.LeadID)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Source).To(Equal(lead.SourceSurvey))
			Expect(l.Email).To(Equal("grace@example.com"))
			Expect(f.publisher.types).To(Equal([]string{events.EventTypeLeadCreated}))

			responses, err := f.service.Responses(ctx, acme, sv.ID, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(responses.Total).To(Equal(int64(1)))
			Expect(responses.Responses[0].LeadID).To(Equal(result.LeadID))
			Expect(responses.Responses[0].Answers).To(HaveKeyWithValue("plan", []string{"pro"}))
		})

		It("reuses an existing lead with the same email", func() {
			existing, err := f.leads.Create(ctx, acme, lead.CreateLeadDTO{Name: "Grace", Email: "grace@example.com"})
			Expect(err).NotTo(HaveOccurred())

			sv := create(acme)
			result, err := f.service.Submit(ctx, sv.ID, submission("grace@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.LeadCreated).To(BeFalse())
			Expect(result.LeadID).To(Equal(existing.ID))
		})

		It("rejects invalid answers before touching leads", func() {
			sv := create(acme)
			dto := submission("grace@example.com")
			dto.Answers = map[string][]string{"plan": {"enterprise"}}

			_, err := f.service.Submit(ctx, sv.ID, dto)
			Expect(err).To(HaveOccurred())
			Expect(f.publisher.types).To(BeEmpty())
		})

		It("requires valid contact details", func() {
			sv := create(acme)
			dto := submission("not-an-email")
			_, err := f.service.Submit(ctx, sv.ID, dto)
			Expect(err).To(HaveOccurred())
		})

		It("refuses responses once deactivated", func() {
			sv := create(acme)
			deactivated, err := f.service.Deactivate(ctx, acme, sv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deactivated.IsActive).To(BeFalse())

			_, err = f.service.Submit(ctx, sv.ID, submission("grace@example.com"))
			Expect(err).To(MatchError(internal.ErrSurveyInactive))

			_, err = f.service.GetPublic(ctx, sv.ID)
			Expect(err).To(MatchError(internal.ErrSurveyInactive))
		})

		It("reports unknown surveys", func() {
			_, err := f.service.Submit(ctx, 999, submission("grace@example.com"))
			Expect(err).To(MatchError(internal.ErrSurveyNotFound))
		})
	})

	Describe("Deactivate", func() {
		It("cannot reach into another company", func() {
			sv := create(acme)
			_, err := f.service.Deactivate(ctx, other, sv.ID)
			Expect(err).To(MatchError(internal.ErrSurveyNotFound))
		})
	})

	Describe("Responses", func() {
		It("is scoped to the survey's company", func() {
			sv := create(acme)
			_, err := f.service.Responses(ctx, other, sv.ID, 0, 0)
			Expect(err).To(MatchError(internal.ErrSurveyNotFound))
		})
	})
})
