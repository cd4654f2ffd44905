package promo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/pricing"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type fakeStore struct {
	byCode map[string]Promotion
	byID   map[string]Promotion
}

func (f *fakeStore) List(context.Context, string) ([]Promotion, error) {
	var out []Promotion
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, _ string, id string) (Promotion, error) {
	p, ok := f.byID[id]
	if !ok {
		return Promotion{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetByCode(_ context.Context, _ string, code string) (Promotion, error) {
	p, ok := f.byCode[code]
	if !ok {
		return Promotion{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) Create(_ context.Context, _ string, p Promotion) (Promotion, error) {
	if _, exists := f.byCode[p.Code]; exists {
		return Promotion{}, ErrDuplicateCode
	}
	p.ID = "promo-new"
	p.CreatedAt = time.Now()
	if f.byCode == nil {
		f.byCode = map[string]Promotion{}
	}
	if f.byID == nil {
		f.byID = map[string]Promotion{}
	}
	f.byCode[p.Code] = p
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeStore) Update(_ context.Context, _ string, p Promotion) (Promotion, error) {
	if _, ok := f.byID[p.ID]; !ok {
		return Promotion{}, ErrNotFound
	}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeStore) Deactivate(_ context.Context, _ string, id string) error {
	p, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = false
	f.byID[id] = p
	return nil
}

func orgCtx() context.Context {
	return tenant.With(context.Background(), "org-1")
}

func TestCreateRequiresKindSpecificFields(t *testing.T) {
	svc := &Service{Store: &fakeStore{}}
	cases := []struct {
		name string
		in   Input
	}{
		{"percentage without bps", Input{Code: "DISC", Name: "Discount", Kind: "percentage"}},
		{"fixed without value", Input{Code: "CUT", Name: "Cut", Kind: "fixed_amount"}},
		{"bogo without product", Input{Code: "FREE", Name: "Free", Kind: "bogo"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(orgCtx(), tc.in)
			require.Error(t, err)
			require.True(t, common.IsAppError(err))
		})
	}
}

func TestCreateUppercasesCode(t *testing.T) {
	svc := &Service{Store: &fakeStore{}}
	p, err := svc.Create(orgCtx(), Input{Code: "hemat10", Name: "Hemat", Kind: "percentage", ValueBps: 1000})
	require.NoError(t, err)
	require.Equal(t, "HEMAT10", p.Code)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := &Service{Store: &fakeStore{}}
	_, err := svc.Create(orgCtx(), Input{Code: "TWICE", Name: "First", Kind: "percentage", ValueBps: 500})
	require.NoError(t, err)
	_, err = svc.Create(orgCtx(), Input{Code: "TWICE", Name: "Second", Kind: "percentage", ValueBps: 500})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
}

func TestResolveActiveWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	earlier := now.Add(-24 * time.Hour)
	store := &fakeStore{byCode: map[string]Promotion{
		"EXPIRED": {ID: "p1", Code: "EXPIRED", Kind: pricing.KindPercentage, ValueBps: 1000, IsActive: true, StartsAt: &past, EndsAt: &earlier},
		"LIVE":    {ID: "p2", Code: "LIVE", Kind: pricing.KindPercentage, ValueBps: 1000, IsActive: true},
		"OFF":     {ID: "p3", Code: "OFF", Kind: pricing.KindPercentage, ValueBps: 1000},
	}}
	svc := &Service{Store: store, Now: func() time.Time { return now }}

	_, err := svc.ResolveActive(orgCtx(), "LIVE")
	require.NoError(t, err)

	for _, code := range []string{"EXPIRED", "OFF"} {
		_, err := svc.ResolveActive(orgCtx(), code)
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr, "code %s", code)
		require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	store := &fakeStore{byCode: map[string]Promotion{
		"HEMAT11": {ID: "p1", Code: "HEMAT11", Kind: pricing.KindPercentage, ValueBps: 2000, IsActive: true},
	}}
	svc := &Service{Store: store}
	handler := NewHandler(svc, pricing.Config{TaxRateBps: 1100}, nil)

	body := `{"code":"hemat11","items":[{"productId":"p-1","name":"Citrus Bloom","unitPrice":50000,"qty":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/promotions/preview", strings.NewReader(body))
	req = req.WithContext(tenant.With(req.Context(), "org-1"))
	rec := httptest.NewRecorder()
	handler.Preview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"subtotal":100000`)
	require.Contains(t, rec.Body.String(), `"discount":20000`)
	require.Contains(t, rec.Body.String(), `"tax":8800`)
	require.Contains(t, rec.Body.String(), `"total":88800`)
}
