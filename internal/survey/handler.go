package survey

import (
	"context"
	"net/http"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, scope internal.Scope, dto CreateSurveyDTO) (*Survey, error)
	List(ctx context.Context, scope internal.Scope, limit, offset int) (*ListResult, error)
	Get(ctx context.Context, scope internal.Scope, id int64) (*Survey, error)
	GetPublic(ctx context.Context, id int64) (*PublicSurvey, error)
	Deactivate(ctx context.Context, scope internal.Scope, id int64) (*Survey, error)
	Responses(ctx context.Context, scope internal.Scope, surveyID int64, limit, offset int) (*ResponseList, error)
	Submit(ctx context.Context, surveyID int64, dto SubmitDTO) (*SubmitResult, error)
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

// CreateSurvey handles POST /surveys
func (h *Handler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	var dto CreateSurveyDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	sv, err := h.Service.Create(r.Context(), scope, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, sv)
}

// ListSurveys handles GET /surveys
func (h *Handler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	limit, offset := transport.Pagination(r)
	result, err := h.Service.List(r.Context(), scope, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// GetSurvey handles GET /surveys/{id}
func (h *Handler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	sv, err := h.Service.Get(r.Context(), scope, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sv)
}

// DeactivateSurvey handles POST /surveys/{id}/deactivate
func (h *Handler) DeactivateSurvey(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	sv, err := h.Service.Deactivate(r.Context(), scope, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sv)
}

// ListResponses handles GET /surveys/{id}/responses
func (h *Handler) ListResponses(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	limit, offset := transport.Pagination(r)
	result, err := h.Service.Responses(r.Context(), scope, id, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// GetPublicSurvey handles GET /public/surveys/{id}
func (h *Handler) GetPublicSurvey(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	sv, err := h.Service.GetPublic(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sv)
}

// SubmitResponse handles POST /public/surveys/{id}/responses
func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto SubmitDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	result, err := h.Service.Submit(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"response_id": result.ResponseID,
		"status":      "received",
	})
}
