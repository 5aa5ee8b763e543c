package permission

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/company"
	"github.com/frahmantamala/datascope/internal/transport"
)

type ServiceAPI interface {
	Checker
	Snapshot(ctx context.Context, scope internal.Scope) (*Set, error)
	Forget(ctx context.Context, scope internal.Scope) error
	ListRolePermissions(ctx context.Context, companyID int64, role string) ([]RoleGrant, error)
	SetRolePermission(ctx context.Context, companyID int64, role string, grant RoleGrant) error
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

type SnapshotResponse struct {
	CompanyID int64               `json:"company_id"`
	Role      string              `json:"role"`
	State     State               `json:"state"`
	Allowed   map[string][]string `json:"allowed"`
}

// Me handles GET /permissions/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	resp := SnapshotResponse{CompanyID: scope.CompanyID, Role: scope.Role, Allowed: map[string][]string{}}
	set, err := h.Service.Snapshot(r.Context(), scope)
	switch {
	case err == nil:
		resp.State = StateGranted
		resp.Allowed = set.Allowed()
	case errors.Is(err, ErrSnapshotPending):
		resp.State = StateLoading
	default:
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Check handles GET /permissions/check?module=leads&permission=view
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	module := strings.TrimSpace(r.URL.Query().Get("module"))
	perm := strings.TrimSpace(r.URL.Query().Get("permission"))
	if module == "" || perm == "" {
		h.WriteError(w, http.StatusBadRequest, "module and permission are required")
		return
	}

	decision, err := h.Service.Check(r.Context(), scope, module, perm)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, decision)
}

// Refresh handles POST /permissions/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	if err := h.Service.Forget(r.Context(), scope); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

// ListRole handles GET /roles/{role}/permissions
func (h *Handler) ListRole(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	role, ok := h.roleParam(w, r)
	if !ok {
		return
	}
	grants, err := h.Service.ListRolePermissions(r.Context(), scope.CompanyID, role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"role":        role,
		"permissions": grants,
	})
}

// UpdateRole handles PUT /roles/{role}/permissions with a single {module, permission, allowed} grant.
// The grant applies to the caller's company only.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	role, ok := h.roleParam(w, r)
	if !ok {
		return
	}

	var req RoleGrant
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.SetRolePermission(r.Context(), scope.CompanyID, role, req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	// other sessions pick the change up when their cached snapshot expires
	if err := h.Service.Forget(r.Context(), scope); err != nil {
		h.Logger.Warn("failed to drop own permission snapshot", "error", err)
	}

	grants, err := h.Service.ListRolePermissions(r.Context(), scope.CompanyID, role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"role":        role,
		"permissions": grants,
	})
}

func (h *Handler) roleParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	role := strings.ToLower(chi.URLParam(r, "role"))
	if !company.IsValidRole(role) {
		h.WriteAppError(w, internal.NewValidationFieldError("role", "unknown role "+role, internal.ErrCodeValidationFailed))
		return "", false
	}
	return role, true
}
