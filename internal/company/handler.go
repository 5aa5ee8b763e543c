package company

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/transport"
	"github.com/frahmantamala/datascope/pkg/logger"
)

const HeaderCompanyID = "X-Company-ID"

type ServiceAPI interface {
	ResolveScope(ctx context.Context, identity internal.Identity, requestedCompanyID int64) (internal.Scope, error)
	ListMemberships(ctx context.Context, userID string) ([]Membership, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ListCompanies handles GET /companies
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthorizedAccess)
		return
	}

	memberships, err := h.Service.ListMemberships(r.Context(), identity.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"companies": memberships,
	})
}

// ScopeMiddleware resolves exactly one company for every request it wraps.
func (h *Handler) ScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := internal.IdentityFromContext(r.Context())
		if !ok {
			h.WriteAppError(w, internal.ErrUnauthorizedAccess)
			return
		}

		requested, ok := RequestedCompanyID(r)
		if !ok {
			h.WriteError(w, http.StatusBadRequest, "invalid "+HeaderCompanyID+" header")
			return
		}

		scope, err := h.Service.ResolveScope(r.Context(), identity, requested)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		ctx := internal.ContextWithScope(r.Context(), scope)
		ctx = logger.With(ctx, "company_id", scope.CompanyID, "role", scope.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestedCompanyID reads the optional X-Company-ID header; 0 means none was sent.
func RequestedCompanyID(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get(HeaderCompanyID))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
