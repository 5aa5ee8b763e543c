package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/company"
	"github.com/frahmantamala/datascope/internal/transport"
)

type ServiceAPI interface {
	Me(ctx context.Context, identity internal.Identity, requestedCompanyID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, identity internal.Identity, dto UpdateProfileDTO) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthorizedAccess)
		return
	}
	requested, ok := company.RequestedCompanyID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid "+company.HeaderCompanyID+" header")
		return
	}

	profile, err := h.Service.Me(r.Context(), identity, requested)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Debug("GetCurrentUser: sending profile", "user_id", identity.UserID, "companies", len(profile.Companies))
	h.WriteJSON(w, http.StatusOK, profile)
}

// UpdateCurrentUser handles PATCH /users/me
func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthorizedAccess)
		return
	}

	var dto UpdateProfileDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), identity, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}
