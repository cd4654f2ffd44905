package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/events"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type endpointStore interface {
	List(ctx context.Context, orgID string) ([]Endpoint, error)
	Get(ctx context.Context, orgID, id string) (Endpoint, error)
	Create(ctx context.Context, orgID string, ep Endpoint) (Endpoint, error)
	Update(ctx context.Context, orgID string, ep Endpoint) (Endpoint, error)
	Delete(ctx context.Context, orgID, id string) error
}

// AdminHandler manages webhook endpoint subscriptions.
type AdminHandler struct {
	Store endpointStore
}

// Routes mounts webhook admin endpoints.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type endpointInput struct {
	URL      string   `json:"url"`
	Secret   string   `json:"secret"`
	Topics   []string `json:"topics"`
	IsActive *bool    `json:"isActive"`
}

func (in endpointInput) validate() (Endpoint, error) {
	parsed, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return Endpoint{}, common.BadRequest("url", "url must be an absolute http(s) URL", err)
	}
	if len(in.Topics) == 0 {
		return Endpoint{}, common.BadRequest("topics", "at least one topic required", nil)
	}
	known := map[string]bool{}
	for _, topic := range events.DefaultTopics() {
		known[topic] = true
	}
	for _, topic := range in.Topics {
		if !known[topic] {
			return Endpoint{}, common.BadRequest("topics", "unknown topic: "+topic, nil)
		}
	}
	secret := in.Secret
	if secret == "" {
		secret = uuid.NewString()
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return Endpoint{URL: parsed.String(), Secret: secret, Topics: in.Topics, IsActive: active}, nil
}

// List handles GET /v1/webhooks.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.Store.List(r.Context(), tenant.From(r.Context()))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if endpoints == nil {
		endpoints = []Endpoint{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": endpoints})
}

// Create handles POST /v1/webhooks. The signing secret is returned once, on
// creation only.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in endpointInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	ep, err := in.validate()
	if err != nil {
		common.RenderError(w, err)
		return
	}
	created, err := h.Store.Create(r.Context(), tenant.From(r.Context()), ep)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created, "secret": created.Secret})
}

// Update handles PUT /v1/webhooks/{id}.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in endpointInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	ep, err := in.validate()
	if err != nil {
		common.RenderError(w, err)
		return
	}
	ep.ID = chi.URLParam(r, "id")
	updated, err := h.Store.Update(r.Context(), tenant.From(r.Context()), ep)
	if errors.Is(err, ErrNotFound) {
		common.RenderError(w, common.NotFound("webhook endpoint not found", err))
		return
	}
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete handles DELETE /v1/webhooks/{id}.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Store.Delete(r.Context(), tenant.From(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		common.RenderError(w, common.NotFound("webhook endpoint not found", err))
		return
	}
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"deleted": true}})
}
