package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists domain events in PostgreSQL.
type Store struct {
	DB DBTX
}

// InsertEvent appends one event row.
func (s Store) InsertEvent(ctx context.Context, orgID, topic, aggregateID string, payload []byte) (Event, error) {
	ev := Event{ID: uuid.NewString(), OrgID: orgID, Topic: topic, AggregateID: aggregateID, Payload: payload}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO domain_events (id, org_id, topic, aggregate_id, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING occurred_at`,
		ev.ID, orgID, topic, aggregateID, payload)
	if err := row.Scan(&ev.OccurredAt); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// GetEvent fetches one event by id, used when a delivery task is processed.
func (s Store) GetEvent(ctx context.Context, id string) (Event, error) {
	var ev Event
	row := s.DB.QueryRow(ctx, `
		SELECT id, org_id, topic, aggregate_id, payload, occurred_at
		FROM domain_events WHERE id = $1`, id)
	err := row.Scan(&ev.ID, &ev.OrgID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}

// ListRecent returns the newest events for an organization, most recent
// first.
func (s Store) ListRecent(ctx context.Context, orgID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, org_id, topic, aggregate_id, payload, occurred_at
		FROM domain_events WHERE org_id = $1
		ORDER BY occurred_at DESC LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.OrgID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
