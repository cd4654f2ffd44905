package report

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DailySales aggregates settled transactions for one day.
type DailySales struct {
	Day          time.Time `json:"day"`
	Transactions int64     `json:"transactions"`
	GrossSales   int64     `json:"grossSales"`
	Discounts    int64     `json:"discounts"`
	Taxes        int64     `json:"taxes"`
	NetSales     int64     `json:"netSales"`
}

// TopProduct is one row of the best-seller report.
type TopProduct struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	QtySold   int64  `json:"qtySold"`
	Revenue   int64  `json:"revenue"`
}

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads report aggregates from PostgreSQL.
type Store struct {
	DB DBTX
}

// SalesRange aggregates settled transactions per day, inclusive of from and
// exclusive of to. Voided transactions are excluded.
func (s Store) SalesRange(ctx context.Context, orgID string, from, to time.Time) ([]DailySales, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*),
		       COALESCE(SUM(subtotal), 0),
		       COALESCE(SUM(discount), 0),
		       COALESCE(SUM(tax), 0),
		       COALESCE(SUM(total), 0)
		FROM transactions
		WHERE org_id = $1 AND status = 'settled' AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.Transactions, &d.GrossSales, &d.Discounts, &d.Taxes, &d.NetSales); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopProducts ranks product lines of settled transactions by quantity sold.
func (s Store) TopProducts(ctx context.Context, orgID string, from, to time.Time, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.DB.Query(ctx, `
		SELECT ti.product_id, MIN(ti.name), SUM(ti.qty), SUM(ti.qty * ti.unit_price)
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		WHERE t.org_id = $1 AND t.status = 'settled'
		  AND t.created_at >= $2 AND t.created_at < $3
		  AND ti.product_id IS NOT NULL AND NOT ti.promotional
		GROUP BY ti.product_id
		ORDER BY SUM(ti.qty) DESC, SUM(ti.qty * ti.unit_price) DESC
		LIMIT $4`, orgID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.QtySold, &p.Revenue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertDailyRollup stores the precomputed aggregate for one day so report
// reads stay cheap as history grows.
func (s Store) UpsertDailyRollup(ctx context.Context, orgID string, d DailySales) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO daily_sales (org_id, day, transactions, gross_sales, discounts, taxes, net_sales)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (org_id, day)
		DO UPDATE SET transactions = EXCLUDED.transactions,
		              gross_sales = EXCLUDED.gross_sales,
		              discounts = EXCLUDED.discounts,
		              taxes = EXCLUDED.taxes,
		              net_sales = EXCLUDED.net_sales,
		              rolled_up_at = now()`,
		orgID, d.Day, d.Transactions, d.GrossSales, d.Discounts, d.Taxes, d.NetSales)
	return err
}

// ListOrgIDs returns every organization id, used by the nightly rollup.
func (s Store) ListOrgIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM organizations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
