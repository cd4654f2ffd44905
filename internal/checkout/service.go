package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/harumi-id/backend-parfum/internal/cart"
	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/events"
	"github.com/harumi-id/backend-parfum/internal/obs"
	"github.com/harumi-id/backend-parfum/internal/pricing"
	"github.com/harumi-id/backend-parfum/internal/tenant"
	"github.com/harumi-id/backend-parfum/internal/transaction"
)

// TxOps is the set of storage operations the settle path performs inside a
// single database transaction.
type TxOps interface {
	InsertTransaction(ctx context.Context, orgID string, t transaction.Transaction, items []transaction.Item) (transaction.Transaction, error)
	DecrementStock(ctx context.Context, orgID, productID string, qty int) error
	ProductStock(ctx context.Context, orgID, productID string) (int, error)
	MarkCartCheckedOut(ctx context.Context, orgID, cartID string, at time.Time) error
}

// Runner executes fn atomically: all operations commit or none do.
type Runner interface {
	Run(ctx context.Context, fn func(ops TxOps) error) error
}

type cartProvider interface {
	Snapshot(ctx context.Context, cartID string) (cart.Cart, []cart.Item, *pricing.Promotion, error)
}

// Service settles carts into immutable transactions.
type Service struct {
	Runner  Runner
	Carts   cartProvider
	Pricing pricing.Config
	Events  *events.Bus
	// LowStockThreshold triggers a product.low_stock event when a sale
	// leaves stock at or below it. Zero disables the check.
	LowStockThreshold int
	Now               func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Input is the settle payload.
type Input struct {
	CartID        string `json:"cartId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash qris card transfer"`
	AmountPaid    int64  `json:"amountPaid" validate:"gte=0"`
}

// Output is the settle result: the stored transaction, its frozen lines, and
// the authoritative pricing summary.
type Output struct {
	Transaction transaction.Transaction `json:"transaction"`
	Items       []transaction.Item      `json:"items"`
	Summary     pricing.Summary         `json:"summary"`
}

// Settle recomputes the cart quote, records the transaction, decrements
// stock, and closes the cart, all in one database transaction. The quote
// computed here is authoritative; any summary the client displayed is
// ignored.
func (s *Service) Settle(ctx context.Context, in Input) (Output, error) {
	if err := common.Validate(in); err != nil {
		return Output{}, err
	}
	org := tenant.From(ctx)
	cartRow, items, promo, err := s.Carts.Snapshot(ctx, in.CartID)
	if err != nil {
		return Output{}, err
	}
	if len(items) == 0 {
		return Output{}, common.NewAppError("CART_EMPTY", "cannot settle an empty cart", http.StatusUnprocessableEntity, nil)
	}
	lines := make([]pricing.LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.ToLine())
	}
	summary := pricing.Quote(lines, promo, s.Pricing)

	amountPaid := in.AmountPaid
	changeDue := int64(0)
	if in.PaymentMethod == "cash" {
		if amountPaid < summary.Total {
			return Output{}, common.NewAppError("INSUFFICIENT_PAYMENT",
				fmt.Sprintf("amount paid %d is below total %d", amountPaid, summary.Total),
				http.StatusUnprocessableEntity, nil)
		}
		changeDue = amountPaid - summary.Total
	} else {
		amountPaid = summary.Total
	}

	txItems := make([]transaction.Item, 0, len(items))
	for _, it := range items {
		txItems = append(txItems, transaction.Item{
			ProductID:    it.ProductID,
			Name:         it.Name,
			Kind:         it.Kind,
			UnitPrice:    it.UnitPrice,
			Qty:          it.Qty,
			Promotional:  it.Promotional,
			AromaID:      it.AromaID,
			BottleSizeMl: it.BottleSizeMl,
			EssenceMl:    it.EssenceMl,
		})
	}
	record := transaction.Transaction{
		Code:          s.receiptCode(),
		OutletID:      cartRow.OutletID,
		CashierID:     cartRow.CashierID,
		CartID:        cartRow.ID,
		PromoID:       cartRow.PromoID,
		Subtotal:      summary.Subtotal,
		Discount:      summary.Discount,
		Tax:           summary.Tax,
		Total:         summary.Total,
		PaymentMethod: in.PaymentMethod,
		AmountPaid:    amountPaid,
		ChangeDue:     changeDue,
	}

	var (
		stored   transaction.Transaction
		lowStock []string
	)
	err = s.Runner.Run(ctx, func(ops TxOps) error {
		for _, it := range items {
			if it.ProductID == nil || it.Kind != string(pricing.KindProduct) {
				continue
			}
			if err := ops.DecrementStock(ctx, org, *it.ProductID, it.Qty); err != nil {
				return common.NewAppError("OUT_OF_STOCK",
					fmt.Sprintf("insufficient stock for %s", it.Name),
					http.StatusConflict, err)
			}
			if s.LowStockThreshold > 0 {
				if remaining, err := ops.ProductStock(ctx, org, *it.ProductID); err == nil && remaining <= s.LowStockThreshold {
					lowStock = append(lowStock, *it.ProductID)
				}
			}
		}
		var err error
		stored, err = ops.InsertTransaction(ctx, org, record, txItems)
		if err != nil {
			return err
		}
		return ops.MarkCartCheckedOut(ctx, org, cartRow.ID, s.now())
	})
	if err != nil {
		return Output{}, err
	}

	outlet := ""
	if stored.OutletID != nil {
		outlet = *stored.OutletID
	}
	obs.ObserveTransaction(outlet, "settled", stored.Total)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, org, events.TopicTransactionSettled, stored.ID, map[string]any{
			"transactionId": stored.ID,
			"code":          stored.Code,
			"total":         stored.Total,
			"paymentMethod": stored.PaymentMethod,
		})
		for _, productID := range lowStock {
			_, _ = s.Events.Emit(ctx, org, events.TopicProductLowStock, productID, map[string]any{
				"productId": productID,
			})
		}
	}
	return Output{Transaction: stored, Items: txItems, Summary: summary}, nil
}

// receiptCode builds a human-readable receipt number.
func (s *Service) receiptCode() string {
	return fmt.Sprintf("TRX-%s-%s", s.now().Format("20060102"), uuid.NewString()[:8])
}
