package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/harumi-id/backend-parfum/internal/common"
)

// Handler exposes the settle endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Settle handles POST /v1/checkout. Callers should send an Idempotency-Key
// header so retried settles never double-charge.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	out, err := h.service.Settle(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}
