package pricing

// Money represents a monetary value in Indonesian rupiah stored as int64.
type Money = int64

// ItemKind distinguishes catalog products from made-to-order refills.
type ItemKind string

const (
	// KindProduct is a fixed-price catalog item.
	KindProduct ItemKind = "product"
	// KindRefill is a custom blend priced by composition.
	KindRefill ItemKind = "refill"
)

// LineItem describes one cart line used for pricing calculation.
type LineItem struct {
	ID          string
	ProductID   string
	Name        string
	Kind        ItemKind
	UnitPrice   Money
	Qty         int
	Promotional bool
}

// Config carries the pricing constants injected by the caller. They are
// never read from package state so different organizations can run with
// different rates.
type Config struct {
	TaxRateBps             int
	ExtraEssencePricePerMl Money
}

// Summary aggregates the computed pricing components for a cart.
type Summary struct {
	Subtotal Money `json:"subtotal"`
	Discount Money `json:"discount"`
	Tax      Money `json:"tax"`
	Total    Money `json:"total"`
}

// Subtotal sums unit price times quantity across all lines, including
// promotional free items whose unit price is zero. Lines with non-positive
// quantity or negative price contribute nothing.
func Subtotal(items []LineItem) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 || it.UnitPrice < 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	return subtotal
}

// ApplyTax computes tax on the post-discount amount using basis points with
// truncating integer division. Negative inputs yield zero.
func ApplyTax(amountAfterDiscount Money, rateBps int) Money {
	if amountAfterDiscount <= 0 || rateBps <= 0 {
		return 0
	}
	return (amountAfterDiscount * Money(rateBps)) / 10000
}

// Quote produces the full pricing breakdown for a cart. Tax is computed
// strictly on (subtotal - discount), never on the raw subtotal.
func Quote(items []LineItem, promo *Promotion, cfg Config) Summary {
	subtotal := Subtotal(items)
	discount := ApplyPromotion(subtotal, promo)
	taxable := subtotal - discount
	if taxable < 0 {
		taxable = 0
	}
	tax := ApplyTax(taxable, cfg.TaxRateBps)
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    taxable + tax,
	}
}
