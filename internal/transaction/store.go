package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the transaction does not exist for the organization.
var ErrNotFound = errors.New("transaction: not found")

// ErrAlreadyVoided indicates the transaction was voided before.
var ErrAlreadyVoided = errors.New("transaction: already voided")

// Transaction is a settled POS sale.
type Transaction struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	OutletID      *string    `json:"outletId,omitempty"`
	CashierID     string     `json:"cashierId"`
	CartID        string     `json:"cartId"`
	PromoID       *string    `json:"promoId,omitempty"`
	Subtotal      int64      `json:"subtotal"`
	Discount      int64      `json:"discount"`
	Tax           int64      `json:"tax"`
	Total         int64      `json:"total"`
	PaymentMethod string     `json:"paymentMethod"`
	AmountPaid    int64      `json:"amountPaid"`
	ChangeDue     int64      `json:"changeDue"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	VoidedAt      *time.Time `json:"voidedAt,omitempty"`
	VoidReason    *string    `json:"voidReason,omitempty"`
}

// Item is a settled transaction line, a frozen copy of the cart line.
type Item struct {
	ID           string  `json:"id"`
	ProductID    *string `json:"productId,omitempty"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	UnitPrice    int64   `json:"unitPrice"`
	Qty          int     `json:"qty"`
	Promotional  bool    `json:"promotional"`
	AromaID      *string `json:"aromaId,omitempty"`
	BottleSizeMl *int    `json:"bottleSizeMl,omitempty"`
	EssenceMl    *int    `json:"essenceMl,omitempty"`
}

// ListParams filters the transaction list.
type ListParams struct {
	OutletID string
	Status   string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists transactions scoped by organization.
type Store struct {
	DB DBTX
}

// WithTx returns a store bound to the transaction.
func (s Store) WithTx(tx pgx.Tx) Store {
	return Store{DB: tx}
}

const txColumns = `id, code, outlet_id, cashier_id, cart_id, promo_id, subtotal, discount, tax, total, payment_method, amount_paid, change_due, status, created_at, voided_at, void_reason`

// Insert writes the transaction header and its lines.
func (s Store) Insert(ctx context.Context, orgID string, t Transaction, items []Item) (Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO transactions (id, org_id, code, outlet_id, cashier_id, cart_id, promo_id, subtotal, discount, tax, total, payment_method, amount_paid, change_due, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 'settled')
		RETURNING `+txColumns,
		t.ID, orgID, t.Code, t.OutletID, t.CashierID, t.CartID, t.PromoID,
		t.Subtotal, t.Discount, t.Tax, t.Total, t.PaymentMethod, t.AmountPaid, t.ChangeDue)
	created, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, err
	}
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if _, err := s.DB.Exec(ctx, `
			INSERT INTO transaction_items (id, transaction_id, product_id, name, kind, unit_price, qty, promotional, aroma_id, bottle_size_ml, essence_ml)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			it.ID, created.ID, it.ProductID, it.Name, it.Kind, it.UnitPrice, it.Qty,
			it.Promotional, it.AromaID, it.BottleSizeMl, it.EssenceMl); err != nil {
			return Transaction{}, err
		}
	}
	return created, nil
}

// List returns a filtered transaction page plus the total count.
func (s Store) List(ctx context.Context, orgID string, p ListParams) ([]Transaction, int64, error) {
	where := []string{"org_id = $1"}
	args := []any{orgID}
	if p.OutletID != "" {
		args = append(args, p.OutletID)
		where = append(where, fmt.Sprintf("outlet_id = $%d", len(args)))
	}
	if p.Status != "" {
		args = append(args, p.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if p.From != nil {
		args = append(args, *p.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if p.To != nil {
		args = append(args, *p.To)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, p.Limit, (p.Page-1)*p.Limit)
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		txColumns, cond, len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// Get fetches one transaction by id.
func (s Store) Get(ctx context.Context, orgID, id string) (Transaction, error) {
	row := s.DB.QueryRow(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE org_id = $1 AND id = $2", orgID, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return t, err
}

// ListItems returns the frozen lines of a transaction.
func (s Store) ListItems(ctx context.Context, transactionID string) ([]Item, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, product_id, name, kind, unit_price, qty, promotional, aroma_id, bottle_size_ml, essence_ml
		FROM transaction_items WHERE transaction_id = $1 ORDER BY created_at, id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Kind, &it.UnitPrice,
			&it.Qty, &it.Promotional, &it.AromaID, &it.BottleSizeMl, &it.EssenceMl); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Void marks a settled transaction as voided.
func (s Store) Void(ctx context.Context, orgID, id, reason string, at time.Time) (Transaction, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE transactions
		SET status = 'voided', voided_at = $3, void_reason = NULLIF($4, '')
		WHERE org_id = $1 AND id = $2 AND status = 'settled'
		RETURNING `+txColumns,
		orgID, id, at, reason)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := s.Get(ctx, orgID, id)
		if getErr != nil {
			return Transaction{}, getErr
		}
		if existing.Status == "voided" {
			return Transaction{}, ErrAlreadyVoided
		}
		return Transaction{}, ErrNotFound
	}
	return t, err
}

// UpdateStatus sets the transaction status without void bookkeeping.
func (s Store) UpdateStatus(ctx context.Context, orgID, id, status string) (Transaction, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE transactions SET status = $3
		WHERE org_id = $1 AND id = $2
		RETURNING `+txColumns,
		orgID, id, status)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return t, err
}

// RestoreStockRows returns the product lines of a transaction whose stock
// should be returned on void.
func (s Store) RestoreStockRows(ctx context.Context, transactionID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT product_id, SUM(qty) FROM transaction_items
		WHERE transaction_id = $1 AND product_id IS NOT NULL AND kind = 'product'
		GROUP BY product_id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var productID string
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Code, &t.OutletID, &t.CashierID, &t.CartID, &t.PromoID,
		&t.Subtotal, &t.Discount, &t.Tax, &t.Total, &t.PaymentMethod, &t.AmountPaid,
		&t.ChangeDue, &t.Status, &t.CreatedAt, &t.VoidedAt, &t.VoidReason)
	return t, err
}
