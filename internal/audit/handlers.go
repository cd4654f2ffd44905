package audit

import (
	"net/http"
	"strconv"

	"github.com/harumi-id/backend-parfum/internal/common"
)

// Handler exposes audit log endpoints for administrators.
type Handler struct {
	Service Service
}

// List handles GET /v1/audit-logs.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := h.Service.List(r.Context(), limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries})
}
