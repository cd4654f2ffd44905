package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/pricing"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type store interface {
	ListAromas(ctx context.Context, orgID string) ([]Aroma, error)
	CreateAroma(ctx context.Context, orgID, name, family string) (Aroma, error)
	ListBottleSizes(ctx context.Context, orgID string) ([]BottleSize, error)
	ListRecipes(ctx context.Context, orgID string) ([]Recipe, error)
	UpsertRecipe(ctx context.Context, orgID string, r Recipe) error
	ListProducts(ctx context.Context, orgID string, p ListParams) ([]Product, int64, error)
	GetProduct(ctx context.Context, orgID, id string) (Product, error)
	CreateProduct(ctx context.Context, orgID string, p Product) (Product, error)
	UpdateProduct(ctx context.Context, orgID string, p Product) (Product, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	Store        store
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

func (s *Service) defaults() (int, int) {
	limit := s.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	max := s.MaxLimit
	if max <= 0 {
		max = 100
	}
	return limit, max
}

// ParseListParams extracts listing filters from query values.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	defLimit, maxLimit := s.defaults()
	p := ListParams{
		Query:   strings.TrimSpace(values.Get("q")),
		AromaID: strings.TrimSpace(values.Get("aroma")),
		Sort:    strings.TrimSpace(values.Get("sort")),
		Page:    1,
		Limit:   defLimit,
	}
	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return ListParams{}, common.BadRequest("page", "page must be a positive integer", err)
		}
		p.Page = page
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return ListParams{}, common.BadRequest("limit", "limit must be a positive integer", err)
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		p.Limit = limit
	}
	if raw := values.Get("inStock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return ListParams{}, common.BadRequest("inStock", "inStock must be a boolean", err)
		}
		p.InStock = &v
	}
	switch p.Sort {
	case "", "name", "price_asc", "price_desc", "newest":
	default:
		return ListParams{}, common.BadRequest("sort", "unsupported sort value", nil)
	}
	return p, nil
}

// ListProducts returns a product page, served from cache when the request
// carries no filters.
func (s *Service) ListProducts(ctx context.Context, p ListParams) (ListResult, error) {
	org := tenant.From(ctx)
	cacheable := p.Query == "" && p.AromaID == "" && p.InStock == nil
	key := ""
	if cacheable {
		key = tenant.PrefixKey(org, fmt.Sprintf("catalog:products:%s:%d:%d", p.Sort, p.Page, p.Limit))
		var cached ListResult
		if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	items, total, err := s.Store.ListProducts(ctx, org, p)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
	if result.Items == nil {
		result.Items = []Product{}
	}
	if cacheable {
		_ = s.Cache.SetJSON(ctx, key, result)
	}
	return result, nil
}

// GetProduct fetches one product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := s.Store.GetProduct(ctx, tenant.From(ctx), id)
	if err == ErrNotFound {
		return Product{}, common.NotFound("product not found", err)
	}
	return p, err
}

// ProductInput is the write payload for products.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=160"`
	Description string  `json:"description" validate:"max=2000"`
	AromaID     *string `json:"aromaId" validate:"omitempty,uuid4"`
	SizeMl      int     `json:"sizeMl" validate:"required,gt=0"`
	Price       int64   `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	IsActive    *bool   `json:"isActive"`
}

// CreateProduct validates and stores a product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	if err := common.Validate(in); err != nil {
		return Product{}, err
	}
	org := tenant.From(ctx)
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p, err := s.Store.CreateProduct(ctx, org, Product{
		Name:        in.Name,
		Slug:        Slugify(in.Name),
		Description: in.Description,
		AromaID:     in.AromaID,
		SizeMl:      in.SizeMl,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    active,
	})
	if err != nil {
		return Product{}, err
	}
	s.invalidateProductCache(ctx, org)
	return p, nil
}

// UpdateProduct validates and updates a product.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (Product, error) {
	if err := common.Validate(in); err != nil {
		return Product{}, err
	}
	org := tenant.From(ctx)
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p, err := s.Store.UpdateProduct(ctx, org, Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		AromaID:     in.AromaID,
		SizeMl:      in.SizeMl,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    active,
	})
	if err == ErrNotFound {
		return Product{}, common.NotFound("product not found", err)
	}
	if err != nil {
		return Product{}, err
	}
	s.invalidateProductCache(ctx, org)
	return p, nil
}

// ListAromas returns active aromas, cached per organization.
func (s *Service) ListAromas(ctx context.Context) ([]Aroma, error) {
	org := tenant.From(ctx)
	key := tenant.PrefixKey(org, "catalog:aromas")
	var cached []Aroma
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	aromas, err := s.Store.ListAromas(ctx, org)
	if err != nil {
		return nil, err
	}
	if aromas == nil {
		aromas = []Aroma{}
	}
	_ = s.Cache.SetJSON(ctx, key, aromas)
	return aromas, nil
}

// CreateAroma stores a new aroma.
func (s *Service) CreateAroma(ctx context.Context, name, family string) (Aroma, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Aroma{}, common.BadRequest("name", "aroma name required", nil)
	}
	org := tenant.From(ctx)
	aroma, err := s.Store.CreateAroma(ctx, org, name, strings.TrimSpace(family))
	if err != nil {
		return Aroma{}, err
	}
	s.Cache.Invalidate(ctx, tenant.PrefixKey(org, "catalog:aromas"))
	return aroma, nil
}

// ListBottleSizes returns the refill bottle sizes.
func (s *Service) ListBottleSizes(ctx context.Context) ([]BottleSize, error) {
	sizes, err := s.Store.ListBottleSizes(ctx, tenant.From(ctx))
	if err != nil {
		return nil, err
	}
	if sizes == nil {
		sizes = []BottleSize{}
	}
	return sizes, nil
}

// ListRecipes returns the refill recipes for admin screens.
func (s *Service) ListRecipes(ctx context.Context) ([]Recipe, error) {
	recipes, err := s.Store.ListRecipes(ctx, tenant.From(ctx))
	if err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []Recipe{}
	}
	return recipes, nil
}

// RecipeInput is the write payload for refill recipes.
type RecipeInput struct {
	AromaID           string `json:"aromaId" validate:"required,uuid4"`
	BottleSizeMl      int    `json:"bottleSizeMl" validate:"required,gt=0"`
	BasePrice         int64  `json:"basePrice" validate:"gte=0"`
	StandardEssenceMl int    `json:"standardEssenceMl" validate:"gte=0"`
}

// UpsertRecipe stores the refill recipe for an aroma at one bottle size.
func (s *Service) UpsertRecipe(ctx context.Context, in RecipeInput) error {
	if err := common.Validate(in); err != nil {
		return err
	}
	if in.StandardEssenceMl > in.BottleSizeMl {
		return common.BadRequest("standardEssenceMl", "standard essence cannot exceed bottle size", nil)
	}
	org := tenant.From(ctx)
	err := s.Store.UpsertRecipe(ctx, org, Recipe{
		AromaID:           in.AromaID,
		BottleSizeMl:      in.BottleSizeMl,
		BasePrice:         in.BasePrice,
		StandardEssenceMl: in.StandardEssenceMl,
	})
	if err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, tenant.PrefixKey(org, "catalog:recipes"))
	return nil
}

// RecipeTable loads the organization's recipes into the pricing lookup
// structure, cached per organization.
func (s *Service) RecipeTable(ctx context.Context) (pricing.RecipeTable, error) {
	org := tenant.From(ctx)
	key := tenant.PrefixKey(org, "catalog:recipes")
	var rows []Recipe
	ok, err := s.Cache.GetJSON(ctx, key, &rows)
	if err != nil || !ok {
		rows, err = s.Store.ListRecipes(ctx, org)
		if err != nil {
			return nil, err
		}
		_ = s.Cache.SetJSON(ctx, key, rows)
	}
	table := make(pricing.RecipeTable, len(rows))
	for _, r := range rows {
		sizes, ok := table[r.AromaID]
		if !ok {
			sizes = make(map[int]pricing.Recipe)
			table[r.AromaID] = sizes
		}
		sizes[r.BottleSizeMl] = pricing.Recipe{
			AromaID:           r.AromaID,
			BottleSizeMl:      r.BottleSizeMl,
			StandardEssenceMl: r.StandardEssenceMl,
			BasePrice:         pricing.Money(r.BasePrice),
		}
	}
	return table, nil
}

// FreeProductLookup returns a lookup closure for promotion reconciliation.
// Only active products qualify as a free line.
func (s *Service) FreeProductLookup(ctx context.Context) pricing.CatalogLookup {
	return func(productID string) (pricing.FreeProduct, bool) {
		p, err := s.Store.GetProduct(ctx, tenant.From(ctx), productID)
		if err != nil || !p.IsActive {
			return pricing.FreeProduct{}, false
		}
		return pricing.FreeProduct{ID: p.ID, Name: p.Name}, true
	}
}

// Slugify produces a URL-safe slug from a product name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
