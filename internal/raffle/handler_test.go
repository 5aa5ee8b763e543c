package raffle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/raffle"
	"github.com/frahmantamala/datascope/internal/transport"
	applog "github.com/frahmantamala/datascope/pkg/logger"
)

var _ = Describe("Raffle Handler", func() {
	var router http.Handler

	BeforeEach(func() {
		h := raffle.NewHandler(transport.NewBaseHandler(applog.Discard()), newFixture().service)
		r := chi.NewRouter()
		r.Route("/raffles", func(r chi.Router) {
			r.Post("/", h.CreateRaffle)
			r.Get("/", h.ListRaffles)
			r.Get("/{id}", h.GetRaffle)
			r.Post("/{id}/close", h.CloseRaffle)
			r.Post("/{id}/draw", h.DrawRaffle)
			r.Get("/{id}/entries", h.ListEntries)
		})
		r.Get("/public/raffles/{id}", h.GetPublicRaffle)
		r.Post("/public/raffles/{id}/entries", h.EnterRaffle)
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

	createRaffle := func() int64 {
		rec := do(http.MethodPost, "/raffles", `{"name":"Giveaway","prize":"Mug"}`, true)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var rf raffle.Raffle
		Expect(json.Unmarshal(rec.Body.Bytes(), &rf)).To(Succeed())
		return rf.ID
	}

	It("runs entry and draw end to end", func() {
		id := createRaffle()
		public := "/public/raffles/" + itoa(id)

		rec := do(http.MethodGet, public, "", false)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"open"`))

		rec = do(http.MethodPost, public+"/entries", `{"name":"Grace","email":"grace@example.com"}`, false)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		rec = do(http.MethodPost, public+"/entries", `{"name":"Grace","email":"grace@example.com"}`, false)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeAlreadyEntered)))

		rec = do(http.MethodPost, "/raffles/"+itoa(id)+"/draw", "", true)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"email":"grace@example.com"`))

		rec = do(http.MethodGet, "/raffles/"+itoa(id)+"/entries", "", true)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"total":1`))
	})

	It("returns 409 when drawing without entries", func() {
		id := createRaffle()
		rec := do(http.MethodPost, "/raffles/"+itoa(id)+"/draw", "", true)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeRaffleNoEntries)))
	})

	It("returns 400 for malformed ids", func() {
		Expect(do(http.MethodGet, "/raffles/x", "", true).Code).To(Equal(http.StatusBadRequest))
	})

	It("requires a scope for management routes", func() {
		Expect(do(http.MethodGet, "/raffles", "", false).Code).To(Equal(http.StatusUnauthorized))
	})
})
