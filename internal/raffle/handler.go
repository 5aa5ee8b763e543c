package raffle

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, scope internal.Scope, dto CreateRaffleDTO) (*Raffle, error)
	List(ctx context.Context, scope internal.Scope, filter ListFilter) (*ListResult, error)
	Get(ctx context.Context, scope internal.Scope, id int64) (*Raffle, error)
	GetPublic(ctx context.Context, id int64) (*PublicRaffle, error)
	Enter(ctx context.Context, raffleID int64, dto EnterDTO) (*EnterResult, error)
	Close(ctx context.Context, scope internal.Scope, id int64) (*Raffle, error)
	Draw(ctx context.Context, scope internal.Scope, id int64) (*DrawResult, error)
	Entries(ctx context.Context, scope internal.Scope, id int64) ([]*Entry, error)
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

// CreateRaffle handles POST /raffles
func (h *Handler) CreateRaffle(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	var dto CreateRaffleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	rf, err := h.Service.Create(r.Context(), scope, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, rf)
}

// ListRaffles handles GET /raffles
func (h *Handler) ListRaffles(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	limit, offset := transport.Pagination(r)
	result, err := h.Service.List(r.Context(), scope, ListFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// GetRaffle handles GET /raffles/{id}
func (h *Handler) GetRaffle(w http.ResponseWriter, r *http.Request) {
	h.withRaffle(w, r, func(scope internal.Scope, id int64) (interface{}, error) {
		return h.Service.Get(r.Context(), scope, id)
	})
}

// CloseRaffle handles POST /raffles/{id}/close
func (h *Handler) CloseRaffle(w http.ResponseWriter, r *http.Request) {
	h.withRaffle(w, r, func(scope internal.Scope, id int64) (interface{}, error) {
		return h.Service.Close(r.Context(), scope, id)
	})
}

// DrawRaffle handles POST /raffles/{id}/draw
func (h *Handler) DrawRaffle(w http.ResponseWriter, r *http.Request) {
	h.withRaffle(w, r, func(scope internal.Scope, id int64) (interface{}, error) {
		return h.Service.Draw(r.Context(), scope, id)
	})
}

// ListEntries handles GET /raffles/{id}/entries
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	h.withRaffle(w, r, func(scope internal.Scope, id int64) (interface{}, error) {
		entries, err := h.Service.Entries(r.Context(), scope, id)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"entries": entries, "total": len(entries)}, nil
	})
}

func (h *Handler) withRaffle(w http.ResponseWriter, r *http.Request, fn func(internal.Scope, int64) (interface{}, error)) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	body, err := fn(scope, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, body)
}

// GetPublicRaffle handles GET /public/raffles/{id}
func (h *Handler) GetPublicRaffle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	rf, err := h.Service.GetPublic(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rf)
}

// EnterRaffle handles POST /public/raffles/{id}/entries
func (h *Handler) EnterRaffle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto EnterDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	result, err := h.Service.Enter(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"entry_id": result.EntryID,
		"status":   "entered",
	})
}
