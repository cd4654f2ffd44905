package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harumi-id/backend-parfum/internal/catalog"
	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/pricing"
	"github.com/harumi-id/backend-parfum/internal/promo"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type memStore struct {
	carts map[string]Cart
	items map[string][]Item
}

func newMemStore() *memStore {
	return &memStore{carts: map[string]Cart{}, items: map[string][]Item{}}
}

func (m *memStore) Create(_ context.Context, _ string, c Cart) (Cart, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = "active"
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.carts[c.ID] = c
	return c, nil
}

func (m *memStore) Get(_ context.Context, _ string, id string) (Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return Cart{}, ErrNotFound
	}
	return c, nil
}

func (m *memStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	c := m.carts[id]
	c.ExpiresAt = expiresAt
	m.carts[id] = c
	return nil
}

func (m *memStore) SetPromotion(_ context.Context, _ string, cartID string, promoID *string) error {
	c, ok := m.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	c.PromoID = promoID
	m.carts[cartID] = c
	return nil
}

func (m *memStore) ListItems(_ context.Context, cartID string) ([]Item, error) {
	return append([]Item(nil), m.items[cartID]...), nil
}

func (m *memStore) FindProductItem(_ context.Context, cartID, productID string) (Item, error) {
	for _, it := range m.items[cartID] {
		if it.ProductID != nil && *it.ProductID == productID && !it.Promotional && it.Kind == "product" {
			return it, nil
		}
	}
	return Item{}, ErrNotFound
}

func (m *memStore) InsertItem(_ context.Context, it Item) (Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	m.items[it.CartID] = append(m.items[it.CartID], it)
	return it, nil
}

func (m *memStore) UpdateItemQty(_ context.Context, cartID, itemID string, qty int) error {
	for i, it := range m.items[cartID] {
		if it.ID == itemID && !it.Promotional {
			m.items[cartID][i].Qty = qty
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) DeleteItem(_ context.Context, cartID, itemID string) error {
	items := m.items[cartID]
	for i, it := range items {
		if it.ID == itemID {
			m.items[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) DeleteAllItems(_ context.Context, cartID string) error {
	m.items[cartID] = nil
	return nil
}

func (m *memStore) DeletePromotionalItems(_ context.Context, cartID string) error {
	var kept []Item
	for _, it := range m.items[cartID] {
		if !it.Promotional {
			kept = append(kept, it)
		}
	}
	m.items[cartID] = kept
	return nil
}

type fakeCatalog struct {
	products map[string]catalog.Product
}

func (f fakeCatalog) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, common.NotFound("product not found", nil)
	}
	return p, nil
}

func (f fakeCatalog) FreeProductLookup(context.Context) pricing.CatalogLookup {
	return func(id string) (pricing.FreeProduct, bool) {
		p, ok := f.products[id]
		if !ok || !p.IsActive {
			return pricing.FreeProduct{}, false
		}
		return pricing.FreeProduct{ID: p.ID, Name: p.Name}, true
	}
}

type fakePromos struct {
	byCode map[string]promo.Promotion
}

func (f fakePromos) ResolveActive(_ context.Context, code string) (promo.Promotion, error) {
	p, ok := f.byCode[code]
	if !ok {
		return promo.Promotion{}, common.NotFound("promotion not found", nil)
	}
	return p, nil
}

func (f fakePromos) GetActive(_ context.Context, id string) (promo.Promotion, error) {
	for _, p := range f.byCode {
		if p.ID == id {
			return p, nil
		}
	}
	return promo.Promotion{}, common.NotFound("promotion not found", nil)
}

func testService() (*Service, *memStore) {
	store := newMemStore()
	free := "p-free"
	svc := &Service{
		Store: store,
		Catalog: fakeCatalog{products: map[string]catalog.Product{
			"p-1":    {ID: "p-1", Name: "Amber Oud 50ml", Price: 185000, Stock: 5, IsActive: true},
			"p-2":    {ID: "p-2", Name: "Citrus Bloom 30ml", Price: 95000, Stock: 3, IsActive: true},
			"p-free": {ID: "p-free", Name: "Mini Tester 5ml", Price: 25000, Stock: 10, IsActive: true},
		}},
		Promos: fakePromos{byCode: map[string]promo.Promotion{
			"HEMAT10": {ID: "pr-1", Code: "HEMAT10", Kind: pricing.KindPercentage, ValueBps: 1000, IsActive: true},
			"GRATIS": {ID: "pr-2", Code: "GRATIS", Kind: pricing.KindBuyOneGetOne, IsActive: true,
				FreeProductID: &free},
		}},
		Pricing: pricing.Config{TaxRateBps: 1100},
	}
	return svc, store
}

func ctxOrg() context.Context {
	return tenant.With(context.Background(), "org-1")
}

func TestAddProductSnapshotsPriceAndIncrements(t *testing.T) {
	svc, _ := testService()
	cart, err := svc.Create(ctxOrg(), nil)
	require.NoError(t, err)

	view, err := svc.AddProduct(ctxOrg(), cart.ID, "p-1", 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, int64(185000), view.Items[0].UnitPrice)

	view, err = svc.AddProduct(ctxOrg(), cart.ID, "p-1", 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, 3, view.Items[0].Qty)
	require.Equal(t, int64(555000), view.Summary.Subtotal)
}

func TestPercentagePromotionQuote(t *testing.T) {
	svc, _ := testService()
	cart, err := svc.Create(ctxOrg(), nil)
	require.NoError(t, err)
	_, err = svc.AddProduct(ctxOrg(), cart.ID, "p-2", 1)
	require.NoError(t, err)

	view, err := svc.ApplyPromotion(ctxOrg(), cart.ID, "HEMAT10")
	require.NoError(t, err)
	require.Equal(t, int64(95000), view.Summary.Subtotal)
	require.Equal(t, int64(9500), view.Summary.Discount)
	require.Equal(t, int64(9405), view.Summary.Tax)
	require.Equal(t, int64(94905), view.Summary.Total)
}

func TestBogoInjectsAndRetractsFreeLine(t *testing.T) {
	svc, _ := testService()
	cart, err := svc.Create(ctxOrg(), nil)
	require.NoError(t, err)
	view, err := svc.AddProduct(ctxOrg(), cart.ID, "p-1", 1)
	require.NoError(t, err)

	view, err = svc.ApplyPromotion(ctxOrg(), cart.ID, "GRATIS")
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	free := view.Items[1]
	require.True(t, free.Promotional)
	require.Equal(t, int64(0), free.UnitPrice)
	require.Equal(t, "Mini Tester 5ml", free.Name)
	// free line participates in the subtotal at zero price
	require.Equal(t, int64(185000), view.Summary.Subtotal)
	require.Equal(t, int64(0), view.Summary.Discount)

	// a second mutation must not duplicate the free line
	view, err = svc.AddProduct(ctxOrg(), cart.ID, "p-2", 1)
	require.NoError(t, err)
	promos := 0
	for _, it := range view.Items {
		if it.Promotional {
			promos++
		}
	}
	require.Equal(t, 1, promos)

	// removing every paid line retracts the free item
	for _, it := range view.Items {
		if !it.Promotional {
			view, err = svc.RemoveItem(ctxOrg(), cart.ID, it.ID)
			require.NoError(t, err)
		}
	}
	require.Empty(t, view.Items)
}

func TestBogoNotInjectedWithoutPaidItem(t *testing.T) {
	svc, _ := testService()
	cart, err := svc.Create(ctxOrg(), nil)
	require.NoError(t, err)

	view, err := svc.ApplyPromotion(ctxOrg(), cart.ID, "GRATIS")
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestRemovePromotionRetractsFreeLine(t *testing.T) {
	svc, _ := testService()
	cart, err := svc.Create(ctxOrg(), nil)
	require.NoError(t, err)
	_, err = svc.AddProduct(ctxOrg(), cart.ID, "p-1", 1)
	require.NoError(t, err)
	view, err := svc.ApplyPromotion(ctxOrg(), cart.ID, "GRATIS")
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	view, err = svc.RemovePromotion(ctxOrg(), cart.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.False(t, view.Items[0].Promotional)
	require.Nil(t, view.Promo)
}

func TestExpiredCartRejected(t *testing.T) {
	svc, store := testService()
	cart, err := svc.Create(ctxOrg(), nil)
	require.NoError(t, err)
	stored := store.carts[cart.ID]
	stored.ExpiresAt = time.Now().Add(-time.Minute)
	store.carts[cart.ID] = stored

	_, err = svc.AddProduct(ctxOrg(), cart.ID, "p-1", 1)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CART_EXPIRED", appErr.Code)
}

func TestAddProductRejectsNonPositiveQty(t *testing.T) {
	svc, _ := testService()
	cart, err := svc.Create(ctxOrg(), nil)
	require.NoError(t, err)
	_, err = svc.AddProduct(ctxOrg(), cart.ID, "p-1", 0)
	require.Error(t, err)
}
