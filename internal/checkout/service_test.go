package checkout

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harumi-id/backend-parfum/internal/cart"
	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/events"
	"github.com/harumi-id/backend-parfum/internal/pricing"
	"github.com/harumi-id/backend-parfum/internal/tenant"
	"github.com/harumi-id/backend-parfum/internal/transaction"
)

type memOps struct {
	stock       map[string]int
	transaction *transaction.Transaction
	items       []transaction.Item
	checkedOut  []string
}

func (m *memOps) InsertTransaction(_ context.Context, _ string, t transaction.Transaction, items []transaction.Item) (transaction.Transaction, error) {
	t.ID = "tx-1"
	t.Status = "settled"
	m.transaction = &t
	m.items = items
	return t, nil
}

func (m *memOps) DecrementStock(_ context.Context, _ string, productID string, qty int) error {
	if m.stock[productID] < qty {
		return transaction.ErrNotFound
	}
	m.stock[productID] -= qty
	return nil
}

func (m *memOps) ProductStock(_ context.Context, _ string, productID string) (int, error) {
	return m.stock[productID], nil
}

func (m *memOps) MarkCartCheckedOut(_ context.Context, _ string, cartID string, _ time.Time) error {
	m.checkedOut = append(m.checkedOut, cartID)
	return nil
}

type memRunner struct {
	ops    *memOps
	failed bool
}

func (r *memRunner) Run(_ context.Context, fn func(ops TxOps) error) error {
	if err := fn(r.ops); err != nil {
		r.failed = true
		return err
	}
	return nil
}

type staticCart struct {
	cart  cart.Cart
	items []cart.Item
	promo *pricing.Promotion
}

func (s staticCart) Snapshot(context.Context, string) (cart.Cart, []cart.Item, *pricing.Promotion, error) {
	return s.cart, s.items, s.promo, nil
}

type memEventStore struct {
	topics []string
}

func (m *memEventStore) InsertEvent(_ context.Context, orgID, topic, aggregateID string, payload []byte) (events.Event, error) {
	m.topics = append(m.topics, topic)
	return events.Event{ID: "ev", Topic: topic}, nil
}

func strp(s string) *string { return &s }

func settleService(ops *memOps, items []cart.Item, promo *pricing.Promotion) (*Service, *memEventStore) {
	eventStore := &memEventStore{}
	svc := &Service{
		Runner: &memRunner{ops: ops},
		Carts: staticCart{
			cart:  cart.Cart{ID: "cart-1", CashierID: "user-1", Status: "active"},
			items: items,
			promo: promo,
		},
		Pricing:           pricing.Config{TaxRateBps: 1100},
		Events:            &events.Bus{Store: eventStore},
		LowStockThreshold: 2,
	}
	return svc, eventStore
}

func ctxOrg() context.Context {
	return tenant.With(context.Background(), "org-1")
}

func TestSettleCashComputesChange(t *testing.T) {
	ops := &memOps{stock: map[string]int{"p-1": 10}}
	items := []cart.Item{
		{ID: "i-1", ProductID: strp("p-1"), Name: "Amber Oud", Kind: "product", UnitPrice: 100000, Qty: 1},
	}
	svc, eventStore := settleService(ops, items, &pricing.Promotion{
		ID: "pr-1", Kind: pricing.KindFixedAmount, Value: 20000,
	})

	out, err := svc.Settle(ctxOrg(), Input{CartID: "cart-1", PaymentMethod: "cash", AmountPaid: 100000})
	require.NoError(t, err)
	require.Equal(t, int64(100000), out.Summary.Subtotal)
	require.Equal(t, int64(20000), out.Summary.Discount)
	require.Equal(t, int64(8800), out.Summary.Tax)
	require.Equal(t, int64(88800), out.Summary.Total)
	require.Equal(t, int64(11200), out.Transaction.ChangeDue)
	require.Equal(t, 9, ops.stock["p-1"])
	require.Equal(t, []string{"cart-1"}, ops.checkedOut)
	require.Contains(t, eventStore.topics, events.TopicTransactionSettled)
}

func TestSettleRejectsUnderpayment(t *testing.T) {
	ops := &memOps{stock: map[string]int{"p-1": 10}}
	items := []cart.Item{
		{ID: "i-1", ProductID: strp("p-1"), Name: "Amber Oud", Kind: "product", UnitPrice: 100000, Qty: 1},
	}
	svc, _ := settleService(ops, items, nil)

	_, err := svc.Settle(ctxOrg(), Input{CartID: "cart-1", PaymentMethod: "cash", AmountPaid: 50000})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INSUFFICIENT_PAYMENT", appErr.Code)
}

func TestSettleEmptyCart(t *testing.T) {
	svc, _ := settleService(&memOps{stock: map[string]int{}}, nil, nil)
	_, err := svc.Settle(ctxOrg(), Input{CartID: "cart-1", PaymentMethod: "qris"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
}

func TestSettleOutOfStockRollsBack(t *testing.T) {
	ops := &memOps{stock: map[string]int{"p-1": 0}}
	items := []cart.Item{
		{ID: "i-1", ProductID: strp("p-1"), Name: "Amber Oud", Kind: "product", UnitPrice: 100000, Qty: 1},
	}
	svc, eventStore := settleService(ops, items, nil)

	_, err := svc.Settle(ctxOrg(), Input{CartID: "cart-1", PaymentMethod: "qris"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "OUT_OF_STOCK", appErr.Code)
	require.Empty(t, eventStore.topics)
}

func TestSettleEmitsLowStock(t *testing.T) {
	ops := &memOps{stock: map[string]int{"p-1": 3}}
	items := []cart.Item{
		{ID: "i-1", ProductID: strp("p-1"), Name: "Amber Oud", Kind: "product", UnitPrice: 100000, Qty: 2},
	}
	svc, eventStore := settleService(ops, items, nil)

	_, err := svc.Settle(ctxOrg(), Input{CartID: "cart-1", PaymentMethod: "card"})
	require.NoError(t, err)
	require.Contains(t, eventStore.topics, events.TopicProductLowStock)
}

func TestSettleNonCashPaysExactTotal(t *testing.T) {
	ops := &memOps{stock: map[string]int{"p-1": 5}}
	items := []cart.Item{
		{ID: "i-1", ProductID: strp("p-1"), Name: "Amber Oud", Kind: "product", UnitPrice: 80000, Qty: 1},
	}
	svc, _ := settleService(ops, items, nil)

	out, err := svc.Settle(ctxOrg(), Input{CartID: "cart-1", PaymentMethod: "qris"})
	require.NoError(t, err)
	require.Equal(t, int64(8800), out.Summary.Tax)
	require.Equal(t, out.Summary.Total, out.Transaction.AmountPaid)
	require.Equal(t, int64(0), out.Transaction.ChangeDue)
}
