package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harumi-id/backend-parfum/internal/pricing"
)

// ErrNotFound indicates the requested cart or item could not be located.
var ErrNotFound = errors.New("cart: not found")

// Cart is the persisted cart header.
type Cart struct {
	ID        string     `json:"id"`
	OutletID  *string    `json:"outletId,omitempty"`
	CashierID string     `json:"cashierId"`
	PromoID   *string    `json:"promoId,omitempty"`
	Status    string     `json:"status"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	CheckedAt *time.Time `json:"checkedOutAt,omitempty"`
}

// Item is one persisted cart line. Refill lines carry the blend columns,
// product lines carry a product reference.
type Item struct {
	ID           string  `json:"id"`
	CartID       string  `json:"-"`
	ProductID    *string `json:"productId,omitempty"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	UnitPrice    int64   `json:"unitPrice"`
	Qty          int     `json:"qty"`
	Promotional  bool    `json:"promotional"`
	AromaID      *string `json:"aromaId,omitempty"`
	BottleSizeMl *int    `json:"bottleSizeMl,omitempty"`
	EssenceMl    *int    `json:"essenceMl,omitempty"`
	SolventMl    *int    `json:"solventMl,omitempty"`
}

// ToLine projects the row onto the pricing engine's line item.
func (it Item) ToLine() pricing.LineItem {
	line := pricing.LineItem{
		ID:          it.ID,
		Name:        it.Name,
		Kind:        pricing.ItemKind(it.Kind),
		UnitPrice:   pricing.Money(it.UnitPrice),
		Qty:         it.Qty,
		Promotional: it.Promotional,
	}
	if it.ProductID != nil {
		line.ProductID = *it.ProductID
	}
	return line
}

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists carts and cart items scoped by organization.
type Store struct {
	DB DBTX
}

// WithTx returns a store bound to the transaction.
func (s Store) WithTx(tx pgx.Tx) Store {
	return Store{DB: tx}
}

const cartColumns = `id, outlet_id, cashier_id, promo_id, status, expires_at, created_at, updated_at, checked_out_at`

// Create inserts an active cart.
func (s Store) Create(ctx context.Context, orgID string, c Cart) (Cart, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO carts (id, org_id, outlet_id, cashier_id, status, expires_at)
		VALUES ($1, $2, $3, $4, 'active', $5)
		RETURNING `+cartColumns,
		c.ID, orgID, c.OutletID, c.CashierID, c.ExpiresAt)
	return scanCart(row)
}

// Get fetches one cart by id.
func (s Store) Get(ctx context.Context, orgID, id string) (Cart, error) {
	row := s.DB.QueryRow(ctx,
		"SELECT "+cartColumns+" FROM carts WHERE org_id = $1 AND id = $2", orgID, id)
	c, err := scanCart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	return c, err
}

// Touch extends the cart expiry and bumps updated_at.
func (s Store) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := s.DB.Exec(ctx,
		"UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1", id, expiresAt)
	return err
}

// SetPromotion attaches or clears the applied promotion.
func (s Store) SetPromotion(ctx context.Context, orgID, cartID string, promoID *string) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE carts SET promo_id = $3, updated_at = now() WHERE org_id = $1 AND id = $2 AND status = 'active'",
		orgID, cartID, promoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCheckedOut closes the cart after settlement.
func (s Store) MarkCheckedOut(ctx context.Context, orgID, cartID string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE carts SET status = 'checked_out', checked_out_at = $3, updated_at = now()
		WHERE org_id = $1 AND id = $2 AND status = 'active'`,
		orgID, cartID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const itemColumns = `id, cart_id, product_id, name, kind, unit_price, qty, promotional, aroma_id, bottle_size_ml, essence_ml, solvent_ml`

// ListItems returns cart lines in insertion order.
func (s Store) ListItems(ctx context.Context, cartID string) ([]Item, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+itemColumns+" FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id", cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// FindProductItem locates a non-promotional product line in the cart.
func (s Store) FindProductItem(ctx context.Context, cartID, productID string) (Item, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM cart_items
		WHERE cart_id = $1 AND product_id = $2 AND kind = 'product' AND NOT promotional`,
		cartID, productID)
	it, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

// InsertItem adds a cart line.
func (s Store) InsertItem(ctx context.Context, it Item) (Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, name, kind, unit_price, qty, promotional, aroma_id, bottle_size_ml, essence_ml, solvent_ml)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		it.ID, it.CartID, it.ProductID, it.Name, it.Kind, it.UnitPrice, it.Qty,
		it.Promotional, it.AromaID, it.BottleSizeMl, it.EssenceMl, it.SolventMl)
	return it, err
}

// UpdateItemQty sets the quantity on a line.
func (s Store) UpdateItemQty(ctx context.Context, cartID, itemID string, qty int) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE cart_items SET qty = $3 WHERE cart_id = $1 AND id = $2 AND NOT promotional",
		cartID, itemID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes one line.
func (s Store) DeleteItem(ctx context.Context, cartID, itemID string) error {
	tag, err := s.DB.Exec(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1 AND id = $2", cartID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllItems clears the cart.
func (s Store) DeleteAllItems(ctx context.Context, cartID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	return err
}

// DeletePromotionalItems removes injected free lines.
func (s Store) DeletePromotionalItems(ctx context.Context, cartID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM cart_items WHERE cart_id = $1 AND promotional", cartID)
	return err
}

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.OutletID, &c.CashierID, &c.PromoID, &c.Status,
		&c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt, &c.CheckedAt)
	return c, err
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Name, &it.Kind,
		&it.UnitPrice, &it.Qty, &it.Promotional, &it.AromaID, &it.BottleSizeMl,
		&it.EssenceMl, &it.SolventMl)
	return it, err
}
