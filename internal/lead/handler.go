package lead

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/transport"
)

const maxImportBytes = 5 << 20

type ServiceAPI interface {
	Create(ctx context.Context, scope internal.Scope, dto CreateLeadDTO) (*Lead, error)
	Capture(ctx context.Context, companyID int64, dto CreateLeadDTO) (*Lead, error)
	Get(ctx context.Context, scope internal.Scope, id int64) (*Lead, error)
	List(ctx context.Context, scope internal.Scope, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, scope internal.Scope, id int64, dto UpdateLeadDTO) (*Lead, error)
	ChangeStatus(ctx context.Context, scope internal.Scope, id int64, dto ChangeStatusDTO) (*Lead, error)
	Delete(ctx context.Context, scope internal.Scope, id int64) error
	Stats(ctx context.Context, scope internal.Scope) (*Stats, error)
	ExportCSV(ctx context.Context, scope internal.Scope, w io.Writer) (int, error)
	ImportCSV(ctx context.Context, scope internal.Scope, r io.Reader) (*ImportResult, error)
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

// CreateLead handles POST /leads
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	var dto CreateLeadDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	l, err := h.Service.Create(r.Context(), scope, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, l)
}

// CaptureLead handles POST /public/companies/{companyID}/leads
func (h *Handler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.ParseIDParam(w, r, "companyID")
	if !ok {
		return
	}

	var dto CreateLeadDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	l, err := h.Service.Capture(r.Context(), companyID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	// public callers only learn that the submission was accepted
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     l.ID,
		"status": "received",
	})
}

// ListLeads handles GET /leads
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	limit, offset := transport.Pagination(r)
	q := r.URL.Query()
	result, err := h.Service.List(r.Context(), scope, ListFilter{
		Status: strings.TrimSpace(q.Get("status")),
		Source: strings.TrimSpace(q.Get("source")),
		Search: q.Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// GetLead handles GET /leads/{id}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	l, err := h.Service.Get(r.Context(), scope, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

// UpdateLead handles PATCH /leads/{id}
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateLeadDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if dto.IsEmpty() {
		h.WriteError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	l, err := h.Service.Update(r.Context(), scope, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

// ChangeStatus handles PATCH /leads/{id}/status
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto ChangeStatusDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	l, err := h.Service.ChangeStatus(r.Context(), scope, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

// DeleteLead handles DELETE /leads/{id}
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), scope, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

// Stats handles GET /leads/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), scope)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

// Export handles GET /leads/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	// buffered so a failure can still become a JSON error
	var buf bytes.Buffer
	if _, err := h.Service.ExportCSV(r.Context(), scope, &buf); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filename := "leads-" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("failed to stream lead export", "error", err)
	}
}

// Import handles POST /leads/import with either a multipart "file" field or a raw CSV body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.ScopeOrFail(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}
		defer file.Close()
		body = file
	}

	result, err := h.Service.ImportCSV(r.Context(), scope, body)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}
