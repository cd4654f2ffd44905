package report

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type countingStore struct {
	salesCalls int
	sales      []DailySales
	top        []TopProduct
	rollups    map[string]DailySales
	orgs       []string
}

func (c *countingStore) SalesRange(_ context.Context, _ string, _, _ time.Time) ([]DailySales, error) {
	c.salesCalls++
	return c.sales, nil
}

func (c *countingStore) TopProducts(_ context.Context, _ string, _, _ time.Time, _ int) ([]TopProduct, error) {
	return c.top, nil
}

func (c *countingStore) UpsertDailyRollup(_ context.Context, orgID string, d DailySales) error {
	if c.rollups == nil {
		c.rollups = map[string]DailySales{}
	}
	c.rollups[orgID] = d
	return nil
}

func (c *countingStore) ListOrgIDs(context.Context) ([]string, error) {
	return c.orgs, nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func orgCtx() context.Context {
	return tenant.With(context.Background(), "org-1")
}

func TestSalesSummaryCaches(t *testing.T) {
	store := &countingStore{sales: []DailySales{
		{Day: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Transactions: 12, NetSales: 1_450_000},
	}}
	svc := &Service{Store: store, R: testRedis(t), TTL: time.Minute}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	first, err := svc.SalesSummary(orgCtx(), from, to)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.SalesSummary(orgCtx(), from, to)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, store.salesCalls, "second read should hit the cache")
}

func TestSalesSummaryDefaultsWindow(t *testing.T) {
	store := &countingStore{}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := &Service{Store: store, DefaultRange: 7, Now: func() time.Time { return now }}

	rows, err := svc.SalesSummary(orgCtx(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Equal(t, 1, store.salesCalls)
}

func TestRollupAll(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &countingStore{
		orgs: []string{"org-1", "org-2"},
		sales: []DailySales{
			{Day: day, Transactions: 3, GrossSales: 300000, Taxes: 33000, NetSales: 333000},
		},
	}
	svc := &Service{Store: store}

	require.NoError(t, svc.RollupAll(context.Background(), day))
	require.Len(t, store.rollups, 2)
	require.Equal(t, int64(3), store.rollups["org-1"].Transactions)
	require.Equal(t, day, store.rollups["org-2"].Day)
}

func TestRollupTaskResolvesPreviousDayAtRun(t *testing.T) {
	task, err := NewRollupTask(time.Time{})
	require.NoError(t, err)

	store := &countingStore{orgs: []string{"org-1"}}
	firstNight := time.Date(2026, 3, 10, 0, 10, 0, 0, time.UTC)
	handler := RollupHandler{Service: &Service{Store: store}, Now: func() time.Time { return firstNight }}

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	require.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), store.rollups["org-1"].Day)

	// the scheduler re-enqueues the identical payload; the next night must
	// roll up the next day, not the first one again
	handler.Now = func() time.Time { return firstNight.AddDate(0, 0, 1) }
	require.NoError(t, handler.ProcessTask(context.Background(), task))
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), store.rollups["org-1"].Day)
}

func TestRollupTaskHonorsExplicitDay(t *testing.T) {
	day := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	task, err := NewRollupTask(day)
	require.NoError(t, err)

	store := &countingStore{orgs: []string{"org-1"}}
	handler := RollupHandler{Service: &Service{Store: store}}

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	require.Equal(t, day, store.rollups["org-1"].Day)
}

func TestTopProductsLimitDefault(t *testing.T) {
	store := &countingStore{top: []TopProduct{{ProductID: "p-1", Name: "Amber Oud", QtySold: 40, Revenue: 7_400_000}}}
	svc := &Service{Store: store}

	rows, err := svc.TopProducts(orgCtx(), time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
