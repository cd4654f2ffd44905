package pricing

import "testing"

func TestSubtotalSumsPaidAndFreeLines(t *testing.T) {
	items := []LineItem{
		{Name: "Eau de Harum 50ml", UnitPrice: 150_000, Qty: 2},
		{Name: "Refill Melati", Kind: KindRefill, UnitPrice: 32_500, Qty: 1},
		{Name: "Tester Vial", UnitPrice: 0, Qty: 1, Promotional: true},
	}
	if got := Subtotal(items); got != 332_500 {
		t.Fatalf("expected subtotal 332500, got %d", got)
	}
}

func TestSubtotalEmptyCart(t *testing.T) {
	if got := Subtotal(nil); got != 0 {
		t.Fatalf("expected 0 for empty cart, got %d", got)
	}
}

func TestSubtotalClampsInvalidLines(t *testing.T) {
	items := []LineItem{
		{UnitPrice: 10_000, Qty: -3},
		{UnitPrice: -500, Qty: 2},
		{UnitPrice: 25_000, Qty: 1},
	}
	if got := Subtotal(items); got != 25_000 {
		t.Fatalf("expected 25000, got %d", got)
	}
}

func TestApplyTaxOnDiscountedAmount(t *testing.T) {
	// subtotal 100000, discount 20000, 11% tax on the remainder.
	if got := ApplyTax(100_000-20_000, 1100); got != 8_800 {
		t.Fatalf("expected tax 8800, got %d", got)
	}
}

func TestQuoteTaxBase(t *testing.T) {
	items := []LineItem{{UnitPrice: 100_000, Qty: 1}}
	promo := &Promotion{Kind: KindFixedAmount, Value: 20_000}
	got := Quote(items, promo, Config{TaxRateBps: 1100})
	want := Summary{Subtotal: 100_000, Discount: 20_000, Tax: 8_800, Total: 88_800}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestQuoteEmptyCart(t *testing.T) {
	promo := &Promotion{Kind: KindPercentage, ValueBps: 5000}
	got := Quote(nil, promo, Config{TaxRateBps: 1100})
	if got != (Summary{}) {
		t.Fatalf("expected all-zero summary for empty cart, got %+v", got)
	}
}
