package outlet

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type memStore struct {
	org     Organization
	outlets map[string]Outlet
}

func (m *memStore) GetOrganization(_ context.Context, idOrSlug string) (Organization, error) {
	if m.org.ID != idOrSlug && m.org.Slug != idOrSlug {
		return Organization{}, ErrNotFound
	}
	return m.org, nil
}

func (m *memStore) UpdateOrganization(_ context.Context, orgID, name string) (Organization, error) {
	if m.org.ID != orgID && m.org.Slug != orgID {
		return Organization{}, ErrNotFound
	}
	m.org.Name = name
	return m.org, nil
}

func (m *memStore) ListOutlets(_ context.Context, _ string) ([]Outlet, error) {
	var out []Outlet
	for _, o := range m.outlets {
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) GetOutlet(_ context.Context, _ string, id string) (Outlet, error) {
	o, ok := m.outlets[id]
	if !ok {
		return Outlet{}, ErrNotFound
	}
	return o, nil
}

func (m *memStore) CreateOutlet(_ context.Context, _ string, o Outlet) (Outlet, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if m.outlets == nil {
		m.outlets = map[string]Outlet{}
	}
	m.outlets[o.ID] = o
	return o, nil
}

func (m *memStore) UpdateOutlet(_ context.Context, _ string, o Outlet) (Outlet, error) {
	if _, ok := m.outlets[o.ID]; !ok {
		return Outlet{}, ErrNotFound
	}
	m.outlets[o.ID] = o
	return o, nil
}

func (m *memStore) DeactivateOutlet(_ context.Context, _ string, id string) error {
	o, ok := m.outlets[id]
	if !ok {
		return ErrNotFound
	}
	o.IsActive = false
	m.outlets[id] = o
	return nil
}

func orgCtx() context.Context {
	return tenant.With(context.Background(), "org-1")
}

func TestCreateOutletDefaultsActive(t *testing.T) {
	svc := &Service{Store: &memStore{}}
	o, err := svc.Create(orgCtx(), Input{Name: "Harumi Senayan", Address: "Jl. Asia Afrika 8"})
	require.NoError(t, err)
	require.True(t, o.IsActive)
	require.Equal(t, "Harumi Senayan", o.Name)
}

func TestCreateOutletValidatesName(t *testing.T) {
	svc := &Service{Store: &memStore{}}
	_, err := svc.Create(orgCtx(), Input{Name: "x"})
	require.Error(t, err)
}

func TestDeactivateMissingOutlet(t *testing.T) {
	svc := &Service{Store: &memStore{outlets: map[string]Outlet{}}}
	err := svc.Deactivate(orgCtx(), "missing")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestRenameOrganization(t *testing.T) {
	store := &memStore{org: Organization{ID: "org-1", Name: "Harumi", Slug: "harumi"}}
	svc := &Service{Store: store}

	org, err := svc.RenameOrganization(orgCtx(), "Harumi Parfum")
	require.NoError(t, err)
	require.Equal(t, "Harumi Parfum", org.Name)

	_, err = svc.RenameOrganization(orgCtx(), "  ")
	require.Error(t, err)
}
