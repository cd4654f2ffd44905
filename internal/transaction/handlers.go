package transaction

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harumi-id/backend-parfum/internal/common"
)

// Handler exposes transaction history endpoints.
type Handler struct {
	service      *Service
	defaultLimit int
	maxLimit     int
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, defaultLimit, maxLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Handler{service: service, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// List handles GET /v1/transactions with outlet, status, and date filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.defaultLimit, h.maxLimit)
	params := ListParams{
		OutletID: r.URL.Query().Get("outlet"),
		Status:   r.URL.Query().Get("status"),
		Page:     page,
		Limit:    limit,
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.RenderError(w, common.BadRequest("from", "from must be RFC3339", err))
			return
		}
		params.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.RenderError(w, common.BadRequest("to", "to must be RFC3339", err))
			return
		}
		params.To = &to
	}
	list, total, err := h.service.List(r.Context(), params)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       list,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(total)},
	})
}

// Detail handles GET /v1/transactions/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// Void handles POST /v1/transactions/{id}/void.
func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	t, err := h.service.Void(r.Context(), chi.URLParam(r, "id"), in.Reason)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": t})
}

// PatchStatus handles PATCH /v1/transactions/{id}/status.
func (h *Handler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	t, err := h.service.PatchStatus(r.Context(), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": t})
}
