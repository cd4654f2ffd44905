package cart

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/harumi-id/backend-parfum/internal/catalog"
	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/obs"
	"github.com/harumi-id/backend-parfum/internal/pricing"
	"github.com/harumi-id/backend-parfum/internal/promo"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type store interface {
	Create(ctx context.Context, orgID string, c Cart) (Cart, error)
	Get(ctx context.Context, orgID, id string) (Cart, error)
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	SetPromotion(ctx context.Context, orgID, cartID string, promoID *string) error
	ListItems(ctx context.Context, cartID string) ([]Item, error)
	FindProductItem(ctx context.Context, cartID, productID string) (Item, error)
	InsertItem(ctx context.Context, it Item) (Item, error)
	UpdateItemQty(ctx context.Context, cartID, itemID string, qty int) error
	DeleteItem(ctx context.Context, cartID, itemID string) error
	DeleteAllItems(ctx context.Context, cartID string) error
	DeletePromotionalItems(ctx context.Context, cartID string) error
}

type catalogProvider interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	FreeProductLookup(ctx context.Context) pricing.CatalogLookup
}

type promoProvider interface {
	ResolveActive(ctx context.Context, code string) (promo.Promotion, error)
	GetActive(ctx context.Context, id string) (promo.Promotion, error)
}

// Service encapsulates cart operations. Every mutation re-reconciles the
// promotional free line so BOGO items never go stale.
type Service struct {
	Store   store
	Catalog catalogProvider
	Promos  promoProvider
	Pricing pricing.Config
	TTL     time.Duration
	Now     func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// View is the assembled cart payload returned to clients.
type View struct {
	Cart    Cart             `json:"cart"`
	Items   []Item           `json:"items"`
	Summary pricing.Summary  `json:"summary"`
	Promo   *promo.Promotion `json:"promotion,omitempty"`
}

// Create opens a new active cart for the requesting cashier.
func (s *Service) Create(ctx context.Context, outletID *string) (Cart, error) {
	cashier, _ := common.UserID(ctx)
	return s.Store.Create(ctx, tenant.From(ctx), Cart{
		OutletID:  outletID,
		CashierID: cashier,
		ExpiresAt: s.now().Add(s.ttl()),
	})
}

// Get returns the cart with its items and current pricing summary.
func (s *Service) Get(ctx context.Context, cartID string) (View, error) {
	cart, err := s.load(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	return s.assemble(ctx, cart)
}

// AddProduct appends a catalog product to the cart or increments an
// existing line.
func (s *Service) AddProduct(ctx context.Context, cartID, productID string, qty int) (View, error) {
	if qty <= 0 {
		return View{}, common.BadRequest("qty", "qty must be positive", nil)
	}
	cart, err := s.active(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	existing, err := s.Store.FindProductItem(ctx, cart.ID, productID)
	switch {
	case err == nil:
		if err := s.Store.UpdateItemQty(ctx, cart.ID, existing.ID, existing.Qty+qty); err != nil {
			return View{}, err
		}
	case errors.Is(err, ErrNotFound):
		product, err := s.Catalog.GetProduct(ctx, productID)
		if err != nil {
			return View{}, err
		}
		if !product.IsActive {
			return View{}, common.NewAppError("PRODUCT_INACTIVE", "product is not for sale", http.StatusUnprocessableEntity, nil)
		}
		if _, err := s.Store.InsertItem(ctx, Item{
			CartID:    cart.ID,
			ProductID: &product.ID,
			Name:      product.Name,
			Kind:      string(pricing.KindProduct),
			UnitPrice: product.Price,
			Qty:       qty,
		}); err != nil {
			return View{}, err
		}
	default:
		return View{}, err
	}
	return s.finishMutation(ctx, cart)
}

// RefillLine is a priced custom blend ready to join the cart.
type RefillLine struct {
	AromaID      string
	AromaName    string
	BottleSizeMl int
	EssenceMl    int
	SolventMl    int
	UnitPrice    int64
	Qty          int
}

// AddRefill appends a priced custom blend line. Pricing happens in the
// refill service before this call.
func (s *Service) AddRefill(ctx context.Context, cartID string, line RefillLine) (View, error) {
	if line.Qty <= 0 {
		return View{}, common.BadRequest("qty", "qty must be positive", nil)
	}
	cart, err := s.active(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	name := line.AromaName
	if name == "" {
		name = "Custom blend"
	}
	if _, err := s.Store.InsertItem(ctx, Item{
		CartID:       cart.ID,
		Name:         name,
		Kind:         string(pricing.KindRefill),
		UnitPrice:    line.UnitPrice,
		Qty:          line.Qty,
		AromaID:      &line.AromaID,
		BottleSizeMl: &line.BottleSizeMl,
		EssenceMl:    &line.EssenceMl,
		SolventMl:    &line.SolventMl,
	}); err != nil {
		return View{}, err
	}
	return s.finishMutation(ctx, cart)
}

// UpdateQty changes a line's quantity.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID string, qty int) (View, error) {
	if qty <= 0 {
		return View{}, common.BadRequest("qty", "qty must be positive", nil)
	}
	cart, err := s.active(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	if err := s.Store.UpdateItemQty(ctx, cart.ID, itemID, qty); err != nil {
		if errors.Is(err, ErrNotFound) {
			return View{}, common.NotFound("cart item not found", err)
		}
		return View{}, err
	}
	return s.finishMutation(ctx, cart)
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (View, error) {
	cart, err := s.active(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	if err := s.Store.DeleteItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return View{}, common.NotFound("cart item not found", err)
		}
		return View{}, err
	}
	return s.finishMutation(ctx, cart)
}

// Clear removes every line and the applied promotion.
func (s *Service) Clear(ctx context.Context, cartID string) (View, error) {
	cart, err := s.active(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	if err := s.Store.DeleteAllItems(ctx, cart.ID); err != nil {
		return View{}, err
	}
	if cart.PromoID != nil {
		if err := s.Store.SetPromotion(ctx, tenant.From(ctx), cart.ID, nil); err != nil {
			return View{}, err
		}
		cart.PromoID = nil
	}
	return s.finishMutation(ctx, cart)
}

// ApplyPromotion attaches an active promotion by code. At most one promotion
// is applied per cart; applying a second replaces the first.
func (s *Service) ApplyPromotion(ctx context.Context, cartID, code string) (View, error) {
	cart, err := s.active(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	p, err := s.Promos.ResolveActive(ctx, code)
	if err != nil {
		obs.IncPromotionApplied("unknown", "rejected")
		return View{}, err
	}
	if err := s.Store.SetPromotion(ctx, tenant.From(ctx), cart.ID, &p.ID); err != nil {
		return View{}, err
	}
	cart.PromoID = &p.ID
	obs.IncPromotionApplied(string(p.Kind), "applied")
	return s.finishMutation(ctx, cart)
}

// RemovePromotion clears the applied promotion and retracts any free line.
func (s *Service) RemovePromotion(ctx context.Context, cartID string) (View, error) {
	cart, err := s.active(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	if err := s.Store.SetPromotion(ctx, tenant.From(ctx), cart.ID, nil); err != nil {
		return View{}, err
	}
	cart.PromoID = nil
	return s.finishMutation(ctx, cart)
}

// Snapshot returns the cart, its lines, and the evaluated promotion for
// settlement. The caller recomputes the authoritative quote inside its own
// transaction.
func (s *Service) Snapshot(ctx context.Context, cartID string) (Cart, []Item, *pricing.Promotion, error) {
	cart, err := s.active(ctx, cartID)
	if err != nil {
		return Cart{}, nil, nil, err
	}
	items, err := s.Store.ListItems(ctx, cart.ID)
	if err != nil {
		return Cart{}, nil, nil, err
	}
	evaluated, _ := s.promotionFor(ctx, cart)
	return cart, items, evaluated, nil
}

func (s *Service) load(ctx context.Context, cartID string) (Cart, error) {
	cart, err := s.Store.Get(ctx, tenant.From(ctx), cartID)
	if errors.Is(err, ErrNotFound) {
		return Cart{}, common.NotFound("cart not found", err)
	}
	return cart, err
}

func (s *Service) active(ctx context.Context, cartID string) (Cart, error) {
	cart, err := s.load(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	if cart.Status != "active" {
		return Cart{}, common.NewAppError("CART_CLOSED", "cart is no longer active", http.StatusConflict, nil)
	}
	if !cart.ExpiresAt.IsZero() && cart.ExpiresAt.Before(s.now()) {
		return Cart{}, common.NewAppError("CART_EXPIRED", "cart has expired", http.StatusConflict, nil)
	}
	return cart, nil
}

// promotionFor resolves the cart's applied promotion, returning nil when no
// promotion is set or the promotion has gone inactive since it was applied.
func (s *Service) promotionFor(ctx context.Context, cart Cart) (*pricing.Promotion, *promo.Promotion) {
	if cart.PromoID == nil {
		return nil, nil
	}
	p, err := s.Promos.GetActive(ctx, *cart.PromoID)
	if err != nil {
		return nil, nil
	}
	evaluated := p.ToPricing()
	return &evaluated, &p
}

// finishMutation reconciles the BOGO free line, extends the cart expiry, and
// returns the fresh view.
func (s *Service) finishMutation(ctx context.Context, cart Cart) (View, error) {
	if err := s.reconcile(ctx, cart); err != nil {
		return View{}, err
	}
	_ = s.Store.Touch(ctx, cart.ID, s.now().Add(s.ttl()))
	return s.assemble(ctx, cart)
}

// reconcile rebuilds the cart's promotional lines through the pricing
// engine: stale free lines are retracted, then the free line for an active
// buy-one-get-one promotion is re-derived before the result is persisted.
func (s *Service) reconcile(ctx context.Context, cart Cart) error {
	items, err := s.Store.ListItems(ctx, cart.ID)
	if err != nil {
		return err
	}
	lines := make([]pricing.LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.ToLine())
	}
	lines = pricing.RetractBogo(lines)
	if evaluated, _ := s.promotionFor(ctx, cart); evaluated != nil && pricing.HasPaidItem(lines) {
		lines = pricing.ReconcileBogo(lines, evaluated, s.Catalog.FreeProductLookup(ctx))
	}
	if err := s.Store.DeletePromotionalItems(ctx, cart.ID); err != nil {
		return err
	}
	for _, line := range lines {
		if !line.Promotional {
			continue
		}
		productID := line.ProductID
		if _, err := s.Store.InsertItem(ctx, Item{
			CartID:      cart.ID,
			ProductID:   &productID,
			Name:        line.Name,
			Kind:        string(line.Kind),
			UnitPrice:   0,
			Qty:         line.Qty,
			Promotional: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) assemble(ctx context.Context, cart Cart) (View, error) {
	items, err := s.Store.ListItems(ctx, cart.ID)
	if err != nil {
		return View{}, err
	}
	if items == nil {
		items = []Item{}
	}
	lines := make([]pricing.LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.ToLine())
	}
	evaluated, applied := s.promotionFor(ctx, cart)
	return View{
		Cart:    cart,
		Items:   items,
		Summary: pricing.Quote(lines, evaluated, s.Pricing),
		Promo:   applied,
	}, nil
}
