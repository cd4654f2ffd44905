package promo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harumi-id/backend-parfum/internal/pricing"
)

// ErrNotFound indicates the promotion does not exist for the organization.
var ErrNotFound = errors.New("promo: not found")

// ErrDuplicateCode indicates another promotion already uses the code.
var ErrDuplicateCode = errors.New("promo: duplicate code")

// Promotion is the stored promotion row.
type Promotion struct {
	ID            string                `json:"id"`
	Code          string                `json:"code"`
	Name          string                `json:"name"`
	Kind          pricing.PromotionKind `json:"kind"`
	ValueBps      int32                 `json:"valueBps,omitempty"`
	Value         int64                 `json:"value,omitempty"`
	FreeProductID *string               `json:"freeProductId,omitempty"`
	StartsAt      *time.Time            `json:"startsAt,omitempty"`
	EndsAt        *time.Time            `json:"endsAt,omitempty"`
	IsActive      bool                  `json:"isActive"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// ToPricing projects the row onto the evaluator's variant type.
func (p Promotion) ToPricing() pricing.Promotion {
	out := pricing.Promotion{
		ID:       p.ID,
		Kind:     p.Kind,
		ValueBps: p.ValueBps,
		Value:    pricing.Money(p.Value),
	}
	if p.FreeProductID != nil {
		out.FreeProductID = *p.FreeProductID
	}
	return out
}

// ActiveAt reports whether the promotion may be applied at the given instant.
func (p Promotion) ActiveAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists promotions scoped by organization.
type Store struct {
	DB DBTX
}

const promoColumns = `id, code, name, kind, COALESCE(value_bps, 0), COALESCE(value, 0), free_product_id, starts_at, ends_at, is_active, created_at`

// List returns all promotions ordered newest first.
func (s Store) List(ctx context.Context, orgID string) ([]Promotion, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+promoColumns+" FROM promotions WHERE org_id = $1 ORDER BY created_at DESC", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get fetches one promotion by id.
func (s Store) Get(ctx context.Context, orgID, id string) (Promotion, error) {
	row := s.DB.QueryRow(ctx,
		"SELECT "+promoColumns+" FROM promotions WHERE org_id = $1 AND id = $2", orgID, id)
	p, err := scanPromotion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Promotion{}, ErrNotFound
	}
	return p, err
}

// GetByCode fetches one promotion by its code.
func (s Store) GetByCode(ctx context.Context, orgID, code string) (Promotion, error) {
	row := s.DB.QueryRow(ctx,
		"SELECT "+promoColumns+" FROM promotions WHERE org_id = $1 AND code = $2", orgID, code)
	p, err := scanPromotion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Promotion{}, ErrNotFound
	}
	return p, err
}

// Create inserts a promotion.
func (s Store) Create(ctx context.Context, orgID string, p Promotion) (Promotion, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO promotions (id, org_id, code, name, kind, value_bps, value, free_product_id, starts_at, ends_at, is_active)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), NULLIF($7, 0), $8, $9, $10, $11)
		RETURNING `+promoColumns,
		p.ID, orgID, p.Code, p.Name, p.Kind, p.ValueBps, p.Value, p.FreeProductID, p.StartsAt, p.EndsAt, p.IsActive)
	created, err := scanPromotion(row)
	if isUniqueViolation(err) {
		return Promotion{}, ErrDuplicateCode
	}
	return created, err
}

// Update replaces mutable promotion fields.
func (s Store) Update(ctx context.Context, orgID string, p Promotion) (Promotion, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE promotions
		SET code = $3, name = $4, kind = $5, value_bps = NULLIF($6, 0), value = NULLIF($7, 0),
		    free_product_id = $8, starts_at = $9, ends_at = $10, is_active = $11
		WHERE org_id = $1 AND id = $2
		RETURNING `+promoColumns,
		orgID, p.ID, p.Code, p.Name, p.Kind, p.ValueBps, p.Value, p.FreeProductID, p.StartsAt, p.EndsAt, p.IsActive)
	updated, err := scanPromotion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Promotion{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return Promotion{}, ErrDuplicateCode
	}
	return updated, err
}

// Deactivate turns a promotion off.
func (s Store) Deactivate(ctx context.Context, orgID, id string) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE promotions SET is_active = FALSE WHERE org_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPromotion(row pgx.Row) (Promotion, error) {
	var p Promotion
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Kind, &p.ValueBps, &p.Value,
		&p.FreeProductID, &p.StartsAt, &p.EndsAt, &p.IsActive, &p.CreatedAt)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
