package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type store interface {
	SalesRange(ctx context.Context, orgID string, from, to time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, orgID string, from, to time.Time, limit int) ([]TopProduct, error)
	UpsertDailyRollup(ctx context.Context, orgID string, d DailySales) error
	ListOrgIDs(ctx context.Context) ([]string, error)
}

// Service provides cached access to sales reports.
type Service struct {
	Store        store
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) defaultRange() int {
	if s.DefaultRange <= 0 {
		return 7
	}
	return s.DefaultRange
}

// SalesSummary returns per-day aggregates between from (inclusive) and to
// (exclusive). Zero bounds default to the configured trailing window.
func (s *Service) SalesSummary(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -s.defaultRange())
	}
	org := tenant.From(ctx)
	key := tenant.PrefixKey(org, fmt.Sprintf("report:sales:%s:%s",
		from.Format("2006-01-02"), to.Format("2006-01-02")))
	var cached []DailySales
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Store.SalesRange(ctx, org, from, to)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []DailySales{}
	}
	s.toCache(ctx, key, rows)
	return rows, nil
}

// TopProducts returns the best sellers for the window.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -s.defaultRange())
	}
	if limit <= 0 {
		limit = 10
	}
	org := tenant.From(ctx)
	key := tenant.PrefixKey(org, fmt.Sprintf("report:top:%s:%s:%d",
		from.Format("2006-01-02"), to.Format("2006-01-02"), limit))
	var cached []TopProduct
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Store.TopProducts(ctx, org, from, to, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []TopProduct{}
	}
	s.toCache(ctx, key, rows)
	return rows, nil
}

// RollupDay recomputes and stores the aggregate for one organization and
// day.
func (s *Service) RollupDay(ctx context.Context, orgID string, day time.Time) error {
	day = day.Truncate(24 * time.Hour)
	rows, err := s.Store.SalesRange(ctx, orgID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	agg := DailySales{Day: day}
	if len(rows) > 0 {
		agg = rows[0]
		agg.Day = day
	}
	return s.Store.UpsertDailyRollup(ctx, orgID, agg)
}

// RollupAll runs the daily rollup for every organization.
func (s *Service) RollupAll(ctx context.Context, day time.Time) error {
	orgs, err := s.Store.ListOrgIDs(ctx)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		if err := s.RollupDay(ctx, org, day); err != nil {
			return fmt.Errorf("rollup org %s: %w", org, err)
		}
	}
	return nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) toCache(ctx context.Context, key string, v any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
