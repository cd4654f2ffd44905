package pricing

import "testing"

func TestApplyPromotionPercentage(t *testing.T) {
	promo := &Promotion{Kind: KindPercentage, ValueBps: 2500}
	if got := ApplyPromotion(200_000, promo); got != 50_000 {
		t.Fatalf("expected 50000 discount, got %d", got)
	}
}

func TestApplyPromotionFixedCappedAtSubtotal(t *testing.T) {
	promo := &Promotion{Kind: KindFixedAmount, Value: 75_000}
	if got := ApplyPromotion(50_000, promo); got != 50_000 {
		t.Fatalf("expected discount capped at 50000, got %d", got)
	}
	if got := ApplyPromotion(100_000, promo); got != 75_000 {
		t.Fatalf("expected 75000, got %d", got)
	}
}

func TestApplyPromotionZeroCases(t *testing.T) {
	bogo := &Promotion{Kind: KindBuyOneGetOne, FreeProductID: "p1"}
	cases := []struct {
		name     string
		subtotal Money
		promo    *Promotion
	}{
		{"nil promotion", 100_000, nil},
		{"zero subtotal", 0, &Promotion{Kind: KindPercentage, ValueBps: 1000}},
		{"bogo never discounts subtotal", 100_000, bogo},
		{"negative fixed value", 100_000, &Promotion{Kind: KindFixedAmount, Value: -5_000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApplyPromotion(tc.subtotal, tc.promo); got != 0 {
				t.Fatalf("expected 0 discount, got %d", got)
			}
		})
	}
}

func fixedCatalog(products map[string]string) CatalogLookup {
	return func(id string) (FreeProduct, bool) {
		name, ok := products[id]
		if !ok {
			return FreeProduct{}, false
		}
		return FreeProduct{ID: id, Name: name}, true
	}
}

func TestReconcileBogoAppendsOnce(t *testing.T) {
	promo := &Promotion{Kind: KindBuyOneGetOne, FreeProductID: "vial-1"}
	lookup := fixedCatalog(map[string]string{"vial-1": "Vial Kenanga 5ml"})
	items := []LineItem{{ProductID: "edp-1", Name: "Eau de Harum", UnitPrice: 150_000, Qty: 1}}

	items = ReconcileBogo(items, promo, lookup)
	if len(items) != 2 {
		t.Fatalf("expected free line appended, got %d lines", len(items))
	}
	free := items[1]
	if !free.Promotional || free.UnitPrice != 0 || free.Qty != 1 || free.ProductID != "vial-1" {
		t.Fatalf("unexpected free line: %+v", free)
	}

	// Idempotent: a second reconcile never duplicates the free line.
	items = ReconcileBogo(items, promo, lookup)
	if len(items) != 2 {
		t.Fatalf("expected reconcile to be idempotent, got %d lines", len(items))
	}
}

func TestReconcileBogoNoOps(t *testing.T) {
	lookup := fixedCatalog(map[string]string{"vial-1": "Vial"})
	paid := []LineItem{{ProductID: "edp-1", UnitPrice: 100_000, Qty: 1}}

	t.Run("missing free product id", func(t *testing.T) {
		promo := &Promotion{Kind: KindBuyOneGetOne}
		if got := ReconcileBogo(paid, promo, lookup); len(got) != 1 {
			t.Fatalf("expected no-op, got %d lines", len(got))
		}
	})
	t.Run("free product absent from catalog", func(t *testing.T) {
		promo := &Promotion{Kind: KindBuyOneGetOne, FreeProductID: "ghost"}
		if got := ReconcileBogo(paid, promo, lookup); len(got) != 1 {
			t.Fatalf("expected no-op, got %d lines", len(got))
		}
	})
	t.Run("no paid line in cart", func(t *testing.T) {
		promo := &Promotion{Kind: KindBuyOneGetOne, FreeProductID: "vial-1"}
		onlyFree := []LineItem{{ProductID: "vial-1", Qty: 1, Promotional: true}}
		if got := ReconcileBogo(onlyFree, promo, lookup); len(got) != 1 {
			t.Fatalf("expected no-op, got %d lines", len(got))
		}
	})
	t.Run("non-bogo promotion", func(t *testing.T) {
		promo := &Promotion{Kind: KindPercentage, ValueBps: 1000}
		if got := ReconcileBogo(paid, promo, lookup); len(got) != 1 {
			t.Fatalf("expected no-op, got %d lines", len(got))
		}
	})
}

func TestRetractBogoRemovesFreeLines(t *testing.T) {
	items := []LineItem{
		{ProductID: "edp-1", UnitPrice: 150_000, Qty: 1},
		{ProductID: "vial-1", Qty: 1, Promotional: true},
	}
	items = RetractBogo(items)
	if len(items) != 1 || items[0].ProductID != "edp-1" {
		t.Fatalf("expected only the paid line to remain, got %+v", items)
	}
}

func TestHasPaidItem(t *testing.T) {
	if HasPaidItem(nil) {
		t.Fatal("empty cart must not count as paid")
	}
	onlyFree := []LineItem{{ProductID: "vial-1", Qty: 1, Promotional: true}}
	if HasPaidItem(onlyFree) {
		t.Fatal("a promotional-only cart must not count as paid")
	}
	zeroQty := []LineItem{{ProductID: "edp-1", UnitPrice: 150_000, Qty: 0}}
	if HasPaidItem(zeroQty) {
		t.Fatal("zero-quantity lines must not count as paid")
	}
	mixed := append(onlyFree, LineItem{ProductID: "edp-1", UnitPrice: 150_000, Qty: 1})
	if !HasPaidItem(mixed) {
		t.Fatal("expected a paid line to be detected")
	}
}
