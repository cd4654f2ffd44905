package outlet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the outlet or organization does not exist.
var ErrNotFound = errors.New("outlet: not found")

// Organization is a tenant owning outlets, catalog, and transactions.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Outlet is a physical store location running POS terminals.
type Outlet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists organizations and outlets.
type Store struct {
	DB DBTX
}

// GetOrganization fetches the organization row by id or slug.
func (s Store) GetOrganization(ctx context.Context, idOrSlug string) (Organization, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, name, slug, created_at, updated_at
		FROM organizations WHERE id::text = $1 OR slug = $1`, idOrSlug)
	var org Organization
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, ErrNotFound
	}
	return org, err
}

// UpdateOrganization renames the organization.
func (s Store) UpdateOrganization(ctx context.Context, orgID, name string) (Organization, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE organizations SET name = $2, updated_at = now()
		WHERE id::text = $1 OR slug = $1
		RETURNING id, name, slug, created_at, updated_at`, orgID, name)
	var org Organization
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, ErrNotFound
	}
	return org, err
}

const outletColumns = `id, name, COALESCE(address, ''), COALESCE(phone, ''), is_active, created_at, updated_at`

// ListOutlets returns the organization's outlets, active first.
func (s Store) ListOutlets(ctx context.Context, orgID string) ([]Outlet, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+outletColumns+` FROM outlets
		WHERE org_id = $1 ORDER BY is_active DESC, name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Outlet
	for rows.Next() {
		o, err := scanOutlet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetOutlet fetches one outlet by id.
func (s Store) GetOutlet(ctx context.Context, orgID, id string) (Outlet, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+outletColumns+` FROM outlets WHERE org_id = $1 AND id = $2`, orgID, id)
	o, err := scanOutlet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Outlet{}, ErrNotFound
	}
	return o, err
}

// CreateOutlet inserts a new outlet.
func (s Store) CreateOutlet(ctx context.Context, orgID string, o Outlet) (Outlet, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO outlets (id, org_id, name, address, phone, is_active)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
		RETURNING `+outletColumns,
		o.ID, orgID, o.Name, o.Address, o.Phone, o.IsActive)
	return scanOutlet(row)
}

// UpdateOutlet rewrites the outlet's mutable fields.
func (s Store) UpdateOutlet(ctx context.Context, orgID string, o Outlet) (Outlet, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE outlets
		SET name = $3, address = NULLIF($4, ''), phone = NULLIF($5, ''), is_active = $6, updated_at = now()
		WHERE org_id = $1 AND id = $2
		RETURNING `+outletColumns,
		orgID, o.ID, o.Name, o.Address, o.Phone, o.IsActive)
	updated, err := scanOutlet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Outlet{}, ErrNotFound
	}
	return updated, err
}

// DeactivateOutlet soft-deletes the outlet. Transactions keep their
// outlet_id reference.
func (s Store) DeactivateOutlet(ctx context.Context, orgID, id string) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE outlets SET is_active = FALSE, updated_at = now()
		WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOutlet(row pgx.Row) (Outlet, error) {
	var o Outlet
	err := row.Scan(&o.ID, &o.Name, &o.Address, &o.Phone, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
