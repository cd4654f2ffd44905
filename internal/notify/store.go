package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the webhook endpoint does not exist for the
// organization.
var ErrNotFound = errors.New("notify: endpoint not found")

// Endpoint is a subscriber URL for domain events.
type Endpoint struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	Topics    []string  `json:"topics"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeliveryRecord logs one webhook delivery attempt outcome.
type DeliveryRecord struct {
	EndpointID string
	EventID    string
	Status     string
	HTTPStatus int
	Error      string
}

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists webhook endpoints and delivery logs.
type Store struct {
	DB DBTX
}

const endpointColumns = `id, url, secret, topics, is_active, created_at`

// List returns every endpoint for the organization.
func (s Store) List(ctx context.Context, orgID string) ([]Endpoint, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+endpointColumns+" FROM webhook_endpoints WHERE org_id = $1 ORDER BY created_at", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Endpoint
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// ListActiveForTopic returns active endpoints subscribed to the topic.
func (s Store) ListActiveForTopic(ctx context.Context, orgID, topic string) ([]Endpoint, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+endpointColumns+` FROM webhook_endpoints
		WHERE org_id = $1 AND is_active AND $2 = ANY(topics)
		ORDER BY created_at`, orgID, topic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Endpoint
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// Get fetches one endpoint by id.
func (s Store) Get(ctx context.Context, orgID, id string) (Endpoint, error) {
	row := s.DB.QueryRow(ctx,
		"SELECT "+endpointColumns+" FROM webhook_endpoints WHERE org_id = $1 AND id = $2", orgID, id)
	ep, err := scanEndpoint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Endpoint{}, ErrNotFound
	}
	return ep, err
}

// Create inserts an endpoint.
func (s Store) Create(ctx context.Context, orgID string, ep Endpoint) (Endpoint, error) {
	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO webhook_endpoints (id, org_id, url, secret, topics, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+endpointColumns,
		ep.ID, orgID, ep.URL, ep.Secret, ep.Topics, ep.IsActive)
	return scanEndpoint(row)
}

// Update replaces endpoint fields.
func (s Store) Update(ctx context.Context, orgID string, ep Endpoint) (Endpoint, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE webhook_endpoints
		SET url = $3, secret = $4, topics = $5, is_active = $6
		WHERE org_id = $1 AND id = $2
		RETURNING `+endpointColumns,
		orgID, ep.ID, ep.URL, ep.Secret, ep.Topics, ep.IsActive)
	updated, err := scanEndpoint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Endpoint{}, ErrNotFound
	}
	return updated, err
}

// Delete removes an endpoint.
func (s Store) Delete(ctx context.Context, orgID, id string) error {
	tag, err := s.DB.Exec(ctx,
		"DELETE FROM webhook_endpoints WHERE org_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LogDelivery records a delivery attempt outcome.
func (s Store) LogDelivery(ctx context.Context, rec DeliveryRecord) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO webhook_deliveries (id, endpoint_id, event_id, status, http_status, error)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, ''))`,
		uuid.NewString(), rec.EndpointID, rec.EventID, rec.Status, rec.HTTPStatus, rec.Error)
	return err
}

func scanEndpoint(row pgx.Row) (Endpoint, error) {
	var ep Endpoint
	err := row.Scan(&ep.ID, &ep.URL, &ep.Secret, &ep.Topics, &ep.IsActive, &ep.CreatedAt)
	return ep, err
}
