package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harumi-id/backend-parfum/internal/common"
)

// Handler exposes reporting endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts reporting endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/sales", h.Sales)
	r.Get("/top-products", h.TopProducts)
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, common.BadRequest("from", "from must be YYYY-MM-DD", err)
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, common.BadRequest("to", "to must be YYYY-MM-DD", err)
		}
		to = parsed
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, common.BadRequest("to", "to must not precede from", nil)
	}
	return from, to, nil
}

// Sales handles GET /v1/reports/sales.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	rows, err := h.service.SalesSummary(r.Context(), from, to)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// TopProducts handles GET /v1/reports/top-products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			common.RenderError(w, common.BadRequest("limit", "limit must be a positive integer", err))
			return
		}
		limit = parsed
	}
	rows, err := h.service.TopProducts(r.Context(), from, to, limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}
