package permission_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/permission"
	applog "github.com/frahmantamala/datascope/pkg/logger"
)

type stubChecker struct {
	decision permission.Decision
	err      error
}

func (s stubChecker) Check(context.Context, internal.Scope, string, string) (permission.Decision, error) {
	return s.decision, s.err
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
	return body.Error.Code
}

var _ = Describe("Guard", func() {
	var reached bool

	serve := func(checker permission.Checker, withScope bool) *httptest.ResponseRecorder {
		reached = false
		guard := permission.NewGuard(checker, applog.Discard())
		h := guard.Require("leads", "view")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/leads", nil)
		if withScope {
			req = req.WithContext(internal.ContextWithScope(req.Context(), internal.Scope{CompanyID: 1, UserID: "u", Role: "agent"}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	It("passes granted requests through", func() {
		rec := serve(stubChecker{decision: permission.Decision{Allowed: true, State: permission.StateGranted}}, true)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})

	It("returns 403 PERMISSION_DENIED on denial", func() {
		rec := serve(stubChecker{decision: permission.Decision{State: permission.StateDenied}}, true)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(rec)).To(Equal(string(internal.ErrCodePermissionDenied)))
		Expect(reached).To(BeFalse())
	})

	It("returns 403 PERMISSIONS_LOADING with Retry-After while loading", func() {
		rec := serve(stubChecker{decision: permission.Decision{State: permission.StateLoading}}, true)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Header().Get("Retry-After")).To(Equal("1"))
		Expect(errorCode(rec)).To(Equal(string(internal.ErrCodePermissionsLoading)))
		Expect(reached).To(BeFalse())
	})

	It("returns 500 when the snapshot cannot be loaded", func() {
		rec := serve(stubChecker{err: errors.New("db down")}, true)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(reached).To(BeFalse())
	})

	It("returns 401 without a company scope", func() {
		rec := serve(stubChecker{decision: permission.Decision{Allowed: true, State: permission.StateGranted}}, false)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(reached).To(BeFalse())
	})
})

type recordedDecisions []string

func (r *recordedDecisions) ObserveDecision(module, perm, state string) {
	*r = append(*r, module+":"+perm+":"+state)
}

var _ = Describe("Guard recorder", func() {
	It("reports each outcome", func() {
		rec := &recordedDecisions{}
		for _, checker := range []stubChecker{
			{decision: permission.Decision{State: permission.StateGranted}},
			{decision: permission.Decision{State: permission.StateDenied}},
			{err: errors.New("db down")},
		} {
			guard := permission.NewGuard(checker, applog.Discard()).WithRecorder(rec)
			h := guard.Require("raffles", "draw")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			req := httptest.NewRequest(http.MethodPost, "/raffles/1/draw", nil)
			req = req.WithContext(internal.ContextWithScope(req.Context(), internal.Scope{CompanyID: 1, UserID: "u", Role: "agent"}))
			h.ServeHTTP(httptest.NewRecorder(), req)
		}
		Expect(*rec).To(Equal(recordedDecisions{"raffles:draw:granted", "raffles:draw:denied", "raffles:draw:error"}))
	})
})
