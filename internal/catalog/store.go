package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the requested catalog row does not exist for the
// organization.
var ErrNotFound = errors.New("catalog: not found")

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists catalog rows scoped by organization.
type Store struct {
	DB DBTX
}

// WithTx returns a store bound to the transaction.
func (s Store) WithTx(tx pgx.Tx) Store {
	return Store{DB: tx}
}

// ListAromas returns active aromas ordered by name.
func (s Store) ListAromas(ctx context.Context, orgID string) ([]Aroma, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, COALESCE(family, ''), is_active
		FROM aromas
		WHERE org_id = $1 AND is_active
		ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Aroma
	for rows.Next() {
		var a Aroma
		if err := rows.Scan(&a.ID, &a.Name, &a.Family, &a.IsActive); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateAroma inserts an aroma and returns it.
func (s Store) CreateAroma(ctx context.Context, orgID, name, family string) (Aroma, error) {
	a := Aroma{ID: uuid.NewString(), Name: name, Family: family, IsActive: true}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO aromas (id, org_id, name, family, is_active)
		VALUES ($1, $2, $3, NULLIF($4, ''), TRUE)`,
		a.ID, orgID, a.Name, a.Family)
	return a, err
}

// ListBottleSizes returns the refill bottle sizes offered by the organization.
func (s Store) ListBottleSizes(ctx context.Context, orgID string) ([]BottleSize, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT size_ml, label FROM bottle_sizes
		WHERE org_id = $1
		ORDER BY size_ml`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BottleSize
	for rows.Next() {
		var b BottleSize
		if err := rows.Scan(&b.SizeMl, &b.Label); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListRecipes returns every refill recipe for the organization.
func (s Store) ListRecipes(ctx context.Context, orgID string) ([]Recipe, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT r.aroma_id, a.name, r.bottle_size_ml, r.base_price, r.standard_essence_ml
		FROM recipes r
		JOIN aromas a ON a.id = r.aroma_id
		WHERE r.org_id = $1
		ORDER BY a.name, r.bottle_size_ml`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Recipe
	for rows.Next() {
		var r Recipe
		if err := rows.Scan(&r.AromaID, &r.AromaName, &r.BottleSizeMl, &r.BasePrice, &r.StandardEssenceMl); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertRecipe inserts or replaces the recipe for an aroma at one size.
func (s Store) UpsertRecipe(ctx context.Context, orgID string, r Recipe) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO recipes (org_id, aroma_id, bottle_size_ml, base_price, standard_essence_ml)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_id, aroma_id, bottle_size_ml)
		DO UPDATE SET base_price = EXCLUDED.base_price,
		              standard_essence_ml = EXCLUDED.standard_essence_ml`,
		orgID, r.AromaID, r.BottleSizeMl, r.BasePrice, r.StandardEssenceMl)
	return err
}

const productColumns = `id, name, slug, COALESCE(description, ''), aroma_id, size_ml, price, stock, is_active, created_at, updated_at`

// ListProducts returns a filtered product page plus the total row count.
func (s Store) ListProducts(ctx context.Context, orgID string, p ListParams) ([]Product, int64, error) {
	where := []string{"org_id = $1", "is_active"}
	args := []any{orgID}
	if p.Query != "" {
		args = append(args, "%"+strings.ToLower(p.Query)+"%")
		where = append(where, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
	}
	if p.AromaID != "" {
		args = append(args, p.AromaID)
		where = append(where, fmt.Sprintf("aroma_id = $%d", len(args)))
	}
	if p.InStock != nil {
		if *p.InStock {
			where = append(where, "stock > 0")
		} else {
			where = append(where, "stock <= 0")
		}
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "name ASC"
	switch p.Sort {
	case "price_asc":
		order = "price ASC, name ASC"
	case "price_desc":
		order = "price DESC, name ASC"
	case "newest":
		order = "created_at DESC"
	}
	args = append(args, p.Limit, (p.Page-1)*p.Limit)
	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, cond, order, len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, pr)
	}
	return out, total, rows.Err()
}

// GetProduct fetches one product by id.
func (s Store) GetProduct(ctx context.Context, orgID, id string) (Product, error) {
	row := s.DB.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM products WHERE org_id = $1 AND id = $2", productColumns),
		orgID, id)
	pr, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return pr, err
}

// CreateProduct inserts a product and returns the stored row.
func (s Store) CreateProduct(ctx context.Context, orgID string, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO products (id, org_id, name, slug, description, aroma_id, size_ml, price, stock, is_active)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)
		RETURNING `+productColumns,
		p.ID, orgID, p.Name, p.Slug, p.Description, p.AromaID, p.SizeMl, p.Price, p.Stock, p.IsActive)
	return scanProduct(row)
}

// UpdateProduct updates mutable product fields.
func (s Store) UpdateProduct(ctx context.Context, orgID string, p Product) (Product, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE products
		SET name = $3, description = NULLIF($4, ''), aroma_id = $5, size_ml = $6,
		    price = $7, stock = $8, is_active = $9, updated_at = now()
		WHERE org_id = $1 AND id = $2
		RETURNING `+productColumns,
		orgID, p.ID, p.Name, p.Description, p.AromaID, p.SizeMl, p.Price, p.Stock, p.IsActive)
	pr, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return pr, err
}

// DecrementStock reduces stock for a settled sale. It fails when the
// remaining stock would go negative.
func (s Store) DecrementStock(ctx context.Context, orgID, productID string, qty int) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $3, updated_at = now()
		WHERE org_id = $1 AND id = $2 AND stock >= $3`,
		orgID, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: insufficient stock", productID)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.AromaID, &p.SizeMl,
		&p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
