package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/obs"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

// Entry is one recorded audit row.
type Entry struct {
	ID           string          `json:"id"`
	ActorID      *string         `json:"actorId,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resourceType"`
	ResourceID   *string         `json:"resourceId,omitempty"`
	Method       string          `json:"method"`
	Route        string          `json:"route"`
	Status       int             `json:"status"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists audit rows.
type Store struct {
	DB DBTX
}

// Insert writes one audit row.
func (s Store) Insert(ctx context.Context, orgID string, e Entry) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO audit_logs (id, org_id, actor_id, action, resource_type, resource_id, method, route, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, '{}'::jsonb))`,
		uuid.NewString(), orgID, e.ActorID, e.Action, e.ResourceType, e.ResourceID,
		e.Method, e.Route, e.Status, e.Metadata)
	return err
}

// List returns the newest audit rows for the organization.
func (s Store) List(ctx context.Context, orgID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, actor_id, action, resource_type, resource_id, method, route, status, metadata, created_at
		FROM audit_logs WHERE org_id = $1
		ORDER BY created_at DESC LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Method, &e.Route, &e.Status, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type inserter interface {
	Insert(ctx context.Context, orgID string, e Entry) error
	List(ctx context.Context, orgID string, limit int) ([]Entry, error)
}

// Service records audit entries for write paths.
type Service struct {
	Store   inserter
	Enabled bool
}

// Record persists one audit entry when auditing is enabled.
func (s Service) Record(ctx context.Context, action, resourceType, resourceID string, r *http.Request, status int, metadata []byte) error {
	if !s.Enabled {
		return nil
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}
	route := obs.RoutePatternFromContext(ctx)
	if route == "" && r != nil {
		route = strings.TrimSpace(r.URL.Path)
	}
	method := ""
	if r != nil {
		method = r.Method
	}
	e := Entry{
		Action:       action,
		ResourceType: resourceType,
		Method:       method,
		Route:        route,
		Status:       status,
	}
	if resourceID != "" {
		e.ResourceID = &resourceID
	}
	if actor, ok := common.UserID(ctx); ok && actor != "" {
		e.ActorID = &actor
	}
	if len(metadata) > 0 {
		e.Metadata = json.RawMessage(metadata)
	}
	return s.Store.Insert(ctx, tenant.From(ctx), e)
}

// List returns recent audit rows for admin screens.
func (s Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if s.Store == nil {
		return nil, errors.New("audit: store not configured")
	}
	entries, err := s.Store.List(ctx, tenant.From(ctx), limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
