package company_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/company"
	companyPostgres "github.com/frahmantamala/datascope/internal/company/postgres"
	"github.com/frahmantamala/datascope/internal/transport"
	applog "github.com/frahmantamala/datascope/pkg/logger"
)

var _ = Describe("Company scope middleware", func() {
	var (
		handler *company.Handler
		acme    *company.Company
		scoped  http.Handler
		seen    internal.Scope
	)

	BeforeEach(func() {
		ctx := context.Background()
		service := company.NewService(companyPostgres.NewCompanyRepository(openDB()), applog.Discard())
		var err error
		acme, err = service.CreateWithOwner(ctx, "Acme", "acme", "owner-1")
		Expect(err).NotTo(HaveOccurred())

		handler = company.NewHandler(transport.NewBaseHandler(applog.Discard()), service)
		scoped = handler.ScopeMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = internal.ScopeFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))
	})

	request := func(userID, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/leads", nil)
		if header != "" {
			req.Header.Set(company.HeaderCompanyID, header)
		}
		if userID != "" {
			req = req.WithContext(internal.ContextWithIdentity(req.Context(), internal.Identity{UserID: userID}))
		}
		rec := httptest.NewRecorder()
		scoped.ServeHTTP(rec, req)
		return rec
	}

	It("resolves the scope for a single-company user", func() {
		rec := request("owner-1", "")
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(seen.CompanyID).To(Equal(acme.ID))
	})

	It("rejects a malformed header", func() {
		rec := request("owner-1", "acme")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 403 for a foreign company", func() {
		rec := request("owner-1", "999")
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeNotCompanyMember)))
	})

	It("returns 401 without an identity", func() {
		rec := request("", "")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("lists the caller's companies", func() {
		req := httptest.NewRequest(http.MethodGet, "/companies", nil)
		req = req.WithContext(internal.ContextWithIdentity(req.Context(), internal.Identity{UserID: "owner-1"}))
		rec := httptest.NewRecorder()
		handler.ListCompanies(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp struct {
			Companies []company.Membership `json:"companies"`
		}
		Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Companies).To(HaveLen(1))
		Expect(resp.Companies[0].CompanySlug).To(Equal("acme"))
	})
})
