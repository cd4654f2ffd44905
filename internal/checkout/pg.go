package checkout

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harumi-id/backend-parfum/internal/cart"
	"github.com/harumi-id/backend-parfum/internal/catalog"
	"github.com/harumi-id/backend-parfum/internal/transaction"
)

// PGRunner runs settle operations inside a pgx transaction.
type PGRunner struct {
	Pool *pgxpool.Pool
}

// Run begins a transaction, executes fn against transaction-bound stores,
// and commits when fn succeeds.
func (r PGRunner) Run(ctx context.Context, fn func(ops TxOps) error) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(pgOps{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgOps struct {
	tx pgx.Tx
}

func (o pgOps) InsertTransaction(ctx context.Context, orgID string, t transaction.Transaction, items []transaction.Item) (transaction.Transaction, error) {
	return transaction.Store{DB: o.tx}.Insert(ctx, orgID, t, items)
}

func (o pgOps) DecrementStock(ctx context.Context, orgID, productID string, qty int) error {
	return catalog.Store{DB: o.tx}.DecrementStock(ctx, orgID, productID, qty)
}

func (o pgOps) ProductStock(ctx context.Context, orgID, productID string) (int, error) {
	var stock int
	err := o.tx.QueryRow(ctx,
		"SELECT stock FROM products WHERE org_id = $1 AND id = $2", orgID, productID).Scan(&stock)
	return stock, err
}

func (o pgOps) MarkCartCheckedOut(ctx context.Context, orgID, cartID string, at time.Time) error {
	return cart.Store{DB: o.tx}.MarkCheckedOut(ctx, orgID, cartID, at)
}

// StockRestorer returns voided product quantities to stock. It satisfies the
// transaction service's restorer dependency.
type StockRestorer struct {
	Pool *pgxpool.Pool
}

// RestoreStock re-adds the product quantities of a voided transaction.
func (r StockRestorer) RestoreStock(ctx context.Context, orgID, transactionID string) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	rows, err := transaction.Store{DB: tx}.RestoreStockRows(ctx, transactionID)
	if err != nil {
		return err
	}
	for productID, qty := range rows {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock + $3, updated_at = now()
			WHERE org_id = $1 AND id = $2`, orgID, productID, qty); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
