package promo

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/obs"
	"github.com/harumi-id/backend-parfum/internal/pricing"
)

// Handler exposes promotion management and preview endpoints.
type Handler struct {
	service *Service
	pricing pricing.Config
	lookup  func(ctx context.Context) pricing.CatalogLookup
}

// NewHandler constructs a Handler. lookup resolves free products for BOGO
// previews and may be nil in tests.
func NewHandler(service *Service, cfg pricing.Config, lookup func(ctx context.Context) pricing.CatalogLookup) *Handler {
	return &Handler{service: service, pricing: cfg, lookup: lookup}
}

// List handles GET /v1/promotions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.service.List(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": promos})
}

// Create handles POST /v1/promotions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	promo, err := h.service.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": promo})
}

// Update handles PUT /v1/promotions/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	promo, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": promo})
}

// Deactivate handles DELETE /v1/promotions/{id}.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"deactivated": true}})
}

type previewItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice" validate:"gte=0"`
	Qty       int    `json:"qty" validate:"gt=0"`
}

type previewRequest struct {
	Code  string        `json:"code" validate:"required"`
	Items []previewItem `json:"items" validate:"required,min=1,dive"`
}

// Preview handles POST /v1/promotions/preview: it prices a hypothetical cart
// under the named promotion without touching any stored cart.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in previewRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	if err := common.Validate(in); err != nil {
		common.RenderError(w, err)
		return
	}
	promo, err := h.service.ResolveActive(r.Context(), in.Code)
	if err != nil {
		obs.IncPromotionApplied("unknown", "rejected")
		common.RenderError(w, err)
		return
	}
	items := make([]pricing.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, pricing.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Kind:      pricing.KindProduct,
			UnitPrice: pricing.Money(it.UnitPrice),
			Qty:       it.Qty,
		})
	}
	evaluated := promo.ToPricing()
	if h.lookup != nil {
		items = pricing.ReconcileBogo(items, &evaluated, h.lookup(r.Context()))
	}
	summary := pricing.Quote(items, &evaluated, h.pricing)
	obs.IncPromotionApplied(string(promo.Kind), "previewed")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"items":   items,
		"summary": summary,
	}})
}
