package survey_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/survey"
	"github.com/frahmantamala/datascope/internal/transport"
	applog "github.com/frahmantamala/datascope/pkg/logger"
)

const surveyBody = `{"title":"Interest","questions":[` +
	`{"id":"plan","label":"Plan","kind":"single","options":["starter","pro"],"required":true}]}`

var _ = Describe("Survey Handler", func() {
	var router http.Handler

	BeforeEach(func() {
		h := survey.NewHandler(transport.NewBaseHandler(applog.Discard()), newFixture().service)
		r := chi.NewRouter()
		r.Route("/surveys", func(r chi.Router) {
			r.Post("/", h.CreateSurvey)
			r.Get("/", h.ListSurveys)
			r.Get("/{id}", h.GetSurvey)
			r.Post("/{id}/deactivate", h.DeactivateSurvey)
			r.Get("/{id}/responses", h.ListResponses)
		})
		r.Get("/public/surveys/{id}", h.GetPublicSurvey)
		r.Post("/public/surveys/{id}/responses", h.SubmitResponse)
		router = r
	})

	do := func(method, path, body string, scoped bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if scoped {
			req = req.WithContext(internal.ContextWithScope(req.Context(), internal.Scope{CompanyID: 1, UserID: "owner-1", Role: "admin"}))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	createSurvey := func() int64 {
		rec := do(http.MethodPost, "/surveys", surveyBody, true)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var sv survey.Survey
		Expect(json.Unmarshal(rec.Body.Bytes(), &sv)).To(Succeed())
		return sv.ID
	}

	It("requires a scope for management routes", func() {
		Expect(do(http.MethodGet, "/surveys", "", false).Code).To(Equal(http.StatusUnauthorized))
	})

	It("runs the public submission flow", func() {
		id := createSurvey()
		path := "/public/surveys/" + itoa(id)

		rec := do(http.MethodGet, path, "", false)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).NotTo(ContainSubstring("company_id"))

		rec = do(http.MethodPost, path+"/responses", `{"name":"Grace","email":"grace@example.com","answers":{"plan":["pro"]}}`, false)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"received"`))

		rec = do(http.MethodGet, "/surveys/"+itoa(id)+"/responses", "", true)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"total":1`))
	})

	It("returns 400 for invalid answers", func() {
		id := createSurvey()
		rec := do(http.MethodPost, "/public/surveys/"+itoa(id)+"/responses", `{"name":"Grace","email":"grace@example.com","answers":{"plan":["gold"]}}`, false)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidAnswer)))
	})

	It("returns 409 once the survey is deactivated", func() {
		id := createSurvey()
		Expect(do(http.MethodPost, "/surveys/"+itoa(id)+"/deactivate", "", true).Code).To(Equal(http.StatusOK))

		rec := do(http.MethodPost, "/public/surveys/"+itoa(id)+"/responses", `{"name":"Grace","email":"grace@example.com","answers":{"plan":["pro"]}}`, false)
		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("returns 404 for unknown surveys", func() {
		Expect(do(http.MethodGet, "/surveys/77", "", true).Code).To(Equal(http.StatusNotFound))
	})
})
