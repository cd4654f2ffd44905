package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harumi-id/backend-parfum/internal/common"
)

// Handler exposes cart endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts cart endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/items", h.AddProduct)
	r.Patch("/{id}/items/{itemId}", h.UpdateQty)
	r.Delete("/{id}/items/{itemId}", h.RemoveItem)
	r.Delete("/{id}/items", h.Clear)
	r.Post("/{id}/promotion", h.ApplyPromotion)
	r.Delete("/{id}/promotion", h.RemovePromotion)
}

// Create handles POST /v1/carts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OutletID *string `json:"outletId"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
			return
		}
	}
	cart, err := h.service.Create(r.Context(), in.OutletID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": cart})
}

// Get handles GET /v1/carts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// AddProduct handles POST /v1/carts/{id}/items.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	if in.ProductID == "" {
		common.RenderError(w, common.BadRequest("productId", "productId required", nil))
		return
	}
	view, err := h.service.AddProduct(r.Context(), chi.URLParam(r, "id"), in.ProductID, in.Qty)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// UpdateQty handles PATCH /v1/carts/{id}/items/{itemId}.
func (h *Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	view, err := h.service.UpdateQty(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), in.Qty)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// RemoveItem handles DELETE /v1/carts/{id}/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Clear handles DELETE /v1/carts/{id}/items.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// ApplyPromotion handles POST /v1/carts/{id}/promotion.
func (h *Handler) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	view, err := h.service.ApplyPromotion(r.Context(), chi.URLParam(r, "id"), in.Code)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// RemovePromotion handles DELETE /v1/carts/{id}/promotion.
func (h *Handler) RemovePromotion(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemovePromotion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}
