package pricing

import "github.com/google/uuid"

// PromotionKind tags the discount policy of a promotion.
type PromotionKind string

const (
	// KindPercentage discounts the subtotal by a basis-point fraction.
	KindPercentage PromotionKind = "percentage"
	// KindFixedAmount discounts a fixed rupiah amount, capped at the subtotal.
	KindFixedAmount PromotionKind = "fixed_amount"
	// KindBuyOneGetOne injects a zero-price line item instead of
	// reducing the subtotal.
	KindBuyOneGetOne PromotionKind = "bogo"
)

// Promotion is the tagged variant consumed by the evaluator. At most one
// promotion is active on a cart at a time.
type Promotion struct {
	ID            string
	Kind          PromotionKind
	ValueBps      int32
	Value         Money
	FreeProductID string
}

// FreeProduct is the catalog projection needed to materialise a BOGO line.
type FreeProduct struct {
	ID   string
	Name string
}

// CatalogLookup resolves a product id to its catalog entry. The second
// return reports whether the product exists.
type CatalogLookup func(productID string) (FreeProduct, bool)

// ApplyPromotion returns the discount amount for the given subtotal.
// A nil promotion, an empty cart, or a BOGO promotion yields zero: BOGO
// produces its effect through ReconcileBogo, not through the subtotal.
// The result never exceeds the subtotal and is never negative.
func ApplyPromotion(subtotal Money, promo *Promotion) Money {
	if promo == nil || subtotal <= 0 {
		return 0
	}
	var discount Money
	switch promo.Kind {
	case KindPercentage:
		if promo.ValueBps <= 0 {
			return 0
		}
		discount = (subtotal * Money(promo.ValueBps)) / 10000
	case KindFixedAmount:
		discount = promo.Value
	case KindBuyOneGetOne:
		return 0
	default:
		return 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// ReconcileBogo appends the promotional free line for an active
// buy-one-get-one promotion. It is idempotent: a second call never
// duplicates the free line. The promotion must name a free product that
// exists in the catalog and the cart must hold at least one paid line,
// otherwise the cart is returned unchanged. A BOGO promotion missing its
// free product id fails silently rather than breaking cart computation.
func ReconcileBogo(items []LineItem, promo *Promotion, lookup CatalogLookup) []LineItem {
	if promo == nil || promo.Kind != KindBuyOneGetOne || lookup == nil {
		return items
	}
	if promo.FreeProductID == "" {
		return items
	}
	if !HasPaidItem(items) {
		return items
	}
	for _, it := range items {
		if it.Promotional && it.ProductID == promo.FreeProductID {
			return items
		}
	}
	product, ok := lookup(promo.FreeProductID)
	if !ok {
		return items
	}
	return append(items, LineItem{
		ID:          uuid.NewString(),
		ProductID:   product.ID,
		Name:        product.Name,
		Kind:        KindProduct,
		UnitPrice:   0,
		Qty:         1,
		Promotional: true,
	})
}

// RetractBogo removes promotional free lines. Callers invoke it when the
// promotion is cleared or when the last qualifying paid item leaves the
// cart, so stale free items never linger.
func RetractBogo(items []LineItem) []LineItem {
	out := items[:0]
	for _, it := range items {
		if it.Promotional {
			continue
		}
		out = append(out, it)
	}
	return out
}

// HasPaidItem reports whether the cart holds at least one non-promotional
// line with positive quantity.
func HasPaidItem(items []LineItem) bool {
	for _, it := range items {
		if !it.Promotional && it.Qty > 0 {
			return true
		}
	}
	return false
}
