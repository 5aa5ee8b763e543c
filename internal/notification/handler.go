package notification

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, scope internal.Scope, unreadOnly bool, limit, offset int) ([]*Notification, error)
	UnreadCount(ctx context.Context, scope internal.Scope) (int64, error)
	MarkRead(ctx context.Context, scope internal.Scope, id string) error
	MarkAllRead(ctx context.Context, scope internal.Scope) (int64, error)
	Delete(ctx context.Context, scope internal.Scope, id string) error
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

// List handles GET /notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	limit, offset := transport.Pagination(r)

	items, err := h.Service.List(r.Context(), scope, unreadOnly, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": items,
		"limit":         limit,
		"offset":        offset,
	})
}

// UnreadCount handles GET /notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	count, err := h.Service.UnreadCount(r.Context(), scope)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// MarkRead handles PATCH /notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	if err := h.Service.MarkRead(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

// MarkAllRead handles POST /notifications/read-all
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.MarkAllRead(r.Context(), scope)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// Delete handles DELETE /notifications/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}
