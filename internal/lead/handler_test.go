package lead_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/lead"
	"github.com/frahmantamala/datascope/internal/transport"
	applog "github.com/frahmantamala/datascope/pkg/logger"
)

var _ = Describe("Lead Handler", func() {
	var (
		router http.Handler
		scope  internal.Scope
	)

	send := func(req *http.Request, scoped bool) *httptest.ResponseRecorder {
		if scoped {
			req = req.WithContext(internal.ContextWithScope(req.Context(), scope))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return send(req, true)
	}

	BeforeEach(func() {
		scope = internal.Scope{CompanyID: 1, UserID: "agent-1", Role: "agent"}
		h := lead.NewHandler(transport.NewBaseHandler(applog.Discard()), newService(&recordingPublisher{}))

		r := chi.NewRouter()
		r.Post("/public/companies/{companyID}/leads", h.CaptureLead)
		r.Route("/leads", func(r chi.Router) {
			r.Post("/", h.CreateLead)
			r.Get("/", h.ListLeads)
			r.Get("/stats", h.Stats)
			r.Get("/export", h.Export)
			r.Post("/import", h.Import)
			r.Get("/{id}", h.GetLead)
			r.Patch("/{id}", h.UpdateLead)
			r.Patch("/{id}/status", h.ChangeStatus)
			r.Delete("/{id}", h.DeleteLead)
		})
		router = r
	})

	create := func(name, email string) lead.Lead {
		rec := do(http.MethodPost, "/leads", `{"name":"`+name+`","email":"`+email+`"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var l lead.Lead
		Expect(json.Unmarshal(rec.Body.Bytes(), &l)).To(Succeed())
		return l
	}

	It("creates and fetches a lead", func() {
		l := create("Ada", "ada@example.com")
		rec := do(http.MethodGet, "/leads/"+itoa(l.ID), "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"email":"ada@example.com"`))
	})

	It("returns field errors for invalid forms", func() {
		rec := do(http.MethodPost, "/leads", `{"name":"","email":"nope"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(`"field":"name"`))
		Expect(rec.Body.String()).To(ContainSubstring(`"code":"INVALID_EMAIL"`))
	})

	It("rejects unknown JSON fields", func() {
		rec := do(http.MethodPost, "/leads", `{"name":"Ada","email":"ada@example.com","vip":true}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 409 for duplicate emails", func() {
		create("Ada", "ada@example.com")
		rec := do(http.MethodPost, "/leads", `{"name":"Ada","email":"ada@example.com"}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("changes status and rejects invalid transitions", func() {
		l := create("Ada", "ada@example.com")
		Expect(do(http.MethodPatch, "/leads/"+itoa(l.ID)+"/status", `{"status":"converted"}`).Code).To(Equal(http.StatusOK))
		rec := do(http.MethodPatch, "/leads/"+itoa(l.ID)+"/status", `{"status":"new"}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidTransition)))
	})

	It("rejects empty patches", func() {
		l := create("Ada", "ada@example.com")
		Expect(do(http.MethodPatch, "/leads/"+itoa(l.ID), `{}`).Code).To(Equal(http.StatusBadRequest))
	})

	It("deletes a lead", func() {
		l := create("Ada", "ada@example.com")
		Expect(do(http.MethodDelete, "/leads/"+itoa(l.ID), "").Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, "/leads/"+itoa(l.ID), "").Code).To(Equal(http.StatusNotFound))
	})

	It("rejects malformed ids", func() {
		Expect(do(http.MethodGet, "/leads/abc", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("lists with pagination metadata", func() {
		create("Ada", "ada@example.com")
		create("Alan", "alan@example.com")
		rec := do(http.MethodGet, "/leads?limit=1", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var res lead.ListResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Leads).To(HaveLen(1))
		Expect(res.Total).To(Equal(int64(2)))
	})

	It("exports CSV as an attachment", func() {
		create("Ada", "ada@example.com")
		rec := do(http.MethodGet, "/leads/export", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(HavePrefix("text/csv"))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("attachment"))
		Expect(rec.Body.String()).To(ContainSubstring("ada@example.com"))
	})

	It("imports a multipart upload", func() {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "leads.csv")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("name,email\nAda,ada@example.com\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/leads/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := send(req, true)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var res lead.ImportResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Created).To(Equal(1))
	})

	It("accepts public captures without a scope", func() {
		req := httptest.NewRequest(http.MethodPost, "/public/companies/1/leads", strings.NewReader(`{"name":"Grace","email":"grace@example.com"}`))
		rec := send(req, false)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"received"`))
	})

	It("returns 404 for captures into unknown companies", func() {
		req := httptest.NewRequest(http.MethodPost, "/public/companies/42/leads", strings.NewReader(`{"name":"Grace","email":"grace@example.com"}`))
		Expect(send(req, false).Code).To(Equal(http.StatusNotFound))
	})
})
