package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type fakeStore struct {
	products map[string]Product
	aromas   []Aroma
	sizes    []BottleSize
	recipes  []Recipe
	created  []Product
}

func (f *fakeStore) ListAromas(_ context.Context, _ string) ([]Aroma, error) {
	return f.aromas, nil
}

func (f *fakeStore) CreateAroma(_ context.Context, _ string, name, family string) (Aroma, error) {
	a := Aroma{ID: "aroma-new", Name: name, Family: family, IsActive: true}
	f.aromas = append(f.aromas, a)
	return a, nil
}

func (f *fakeStore) ListBottleSizes(_ context.Context, _ string) ([]BottleSize, error) {
	return f.sizes, nil
}

func (f *fakeStore) ListRecipes(_ context.Context, _ string) ([]Recipe, error) {
	return f.recipes, nil
}

func (f *fakeStore) UpsertRecipe(_ context.Context, _ string, r Recipe) error {
	f.recipes = append(f.recipes, r)
	return nil
}

func (f *fakeStore) ListProducts(_ context.Context, _ string, _ ListParams) ([]Product, int64, error) {
	var out []Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) GetProduct(_ context.Context, _ string, id string) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, _ string, p Product) (Product, error) {
	p.ID = "product-new"
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, _ string, p Product) (Product, error) {
	if _, ok := f.products[p.ID]; !ok {
		return Product{}, ErrNotFound
	}
	f.products[p.ID] = p
	return p, nil
}

func newTestHandler(store *fakeStore) *Handler {
	return NewHandler(&Service{Store: store, Cache: NewCache(nil, 0)})
}

func testRequest(t *testing.T, h http.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := tenant.With(req.Context(), "org-1")
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for k, v := range params {
			rc.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

func TestProductsList(t *testing.T) {
	store := &fakeStore{products: map[string]Product{
		"p1": {ID: "p1", Name: "Vanilla Musk 30ml", Price: 95000, Stock: 4, IsActive: true},
	}}
	rec := testRequest(t, newTestHandler(store).Products, http.MethodGet, "/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	var payload struct {
		Data []Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
	require.Equal(t, "Vanilla Musk 30ml", payload.Data[0].Name)
}

func TestProductsBadPage(t *testing.T) {
	rec := testRequest(t, newTestHandler(&fakeStore{}).Products, http.MethodGet, "/v1/products?page=zero", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductDetailNotFound(t *testing.T) {
	rec := testRequest(t, newTestHandler(&fakeStore{products: map[string]Product{}}).ProductDetail,
		http.MethodGet, "/v1/products/missing", "", map[string]string{"id": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProduct(t *testing.T) {
	store := &fakeStore{}
	body := `{"name":"Amber Oud 50ml","sizeMl":50,"price":185000,"stock":10}`
	rec := testRequest(t, newTestHandler(store).CreateProduct, http.MethodPost, "/v1/products", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	require.Equal(t, "amber-oud-50ml", store.created[0].Slug)
	require.True(t, store.created[0].IsActive)
}

func TestCreateProductValidation(t *testing.T) {
	rec := testRequest(t, newTestHandler(&fakeStore{}).CreateProduct,
		http.MethodPost, "/v1/products", `{"name":"x","sizeMl":0}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertRecipeRejectsEssenceOverBottle(t *testing.T) {
	body := `{"aromaId":"1f1e9e9c-46db-4c6f-9d3c-2b8f6f1c9d11","bottleSizeMl":30,"basePrice":12000,"standardEssenceMl":45}`
	rec := testRequest(t, newTestHandler(&fakeStore{}).UpsertRecipe, http.MethodPut, "/v1/recipes", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecipeTableBuildsLookup(t *testing.T) {
	store := &fakeStore{recipes: []Recipe{
		{AromaID: "a1", AromaName: "Sandalwood Supreme", BottleSizeMl: 50, BasePrice: 15000, StandardEssenceMl: 15},
	}}
	svc := &Service{Store: store, Cache: NewCache(nil, 0)}
	table, err := svc.RecipeTable(tenant.With(context.Background(), "org-1"))
	require.NoError(t, err)
	recipe, ok := table.Lookup("a1", 50)
	require.True(t, ok)
	require.Equal(t, int64(15000), int64(recipe.BasePrice))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Amber Oud 50ml":    "amber-oud-50ml",
		"  Côte d'Azur  ":   "c-te-d-azur",
		"Vanilla -- Musk!!": "vanilla-musk",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "input %q", in)
	}
}
