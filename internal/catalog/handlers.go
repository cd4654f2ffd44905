package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harumi-id/backend-parfum/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts catalog endpoints. Write operations should be wrapped in a
// role guard by the caller.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.Products)
	r.Get("/products/{id}", h.ProductDetail)
	r.Get("/aromas", h.Aromas)
	r.Get("/bottle-sizes", h.BottleSizes)
	r.Get("/recipes", h.Recipes)
}

// AdminRoutes mounts catalog write endpoints.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Post("/aromas", h.CreateAroma)
	r.Put("/recipes", h.UpsertRecipe)
}

// Products handles GET /v1/products with filters and pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	result, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: int(result.Total)},
	})
}

// ProductDetail handles GET /v1/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// CreateProduct handles POST /v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": product})
}

// UpdateProduct handles PUT /v1/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// Aromas handles GET /v1/aromas.
func (h *Handler) Aromas(w http.ResponseWriter, r *http.Request) {
	aromas, err := h.service.ListAromas(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": aromas})
}

// CreateAroma handles POST /v1/aromas.
func (h *Handler) CreateAroma(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name   string `json:"name"`
		Family string `json:"family"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	aroma, err := h.service.CreateAroma(r.Context(), in.Name, in.Family)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": aroma})
}

// BottleSizes handles GET /v1/bottle-sizes.
func (h *Handler) BottleSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.service.ListBottleSizes(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sizes})
}

// Recipes handles GET /v1/recipes.
func (h *Handler) Recipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.ListRecipes(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": recipes})
}

// UpsertRecipe handles PUT /v1/recipes.
func (h *Handler) UpsertRecipe(w http.ResponseWriter, r *http.Request) {
	var in RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	if err := h.service.UpsertRecipe(r.Context(), in); err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"saved": true}})
}
