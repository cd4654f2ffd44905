package outlet

import (
	"context"
	"errors"
	"strings"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type store interface {
	GetOrganization(ctx context.Context, idOrSlug string) (Organization, error)
	UpdateOrganization(ctx context.Context, orgID, name string) (Organization, error)
	ListOutlets(ctx context.Context, orgID string) ([]Outlet, error)
	GetOutlet(ctx context.Context, orgID, id string) (Outlet, error)
	CreateOutlet(ctx context.Context, orgID string, o Outlet) (Outlet, error)
	UpdateOutlet(ctx context.Context, orgID string, o Outlet) (Outlet, error)
	DeactivateOutlet(ctx context.Context, orgID, id string) error
}

// Service manages the organization profile and its outlets.
type Service struct {
	Store store
}

// Input carries outlet create/update fields.
type Input struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Address  string `json:"address" validate:"max=300"`
	Phone    string `json:"phone" validate:"max=32"`
	IsActive *bool  `json:"isActive"`
}

// Organization returns the tenant profile.
func (s *Service) Organization(ctx context.Context) (Organization, error) {
	org, err := s.Store.GetOrganization(ctx, tenant.From(ctx))
	if errors.Is(err, ErrNotFound) {
		return Organization{}, common.NotFound("organization not found", err)
	}
	return org, err
}

// RenameOrganization updates the tenant display name.
func (s *Service) RenameOrganization(ctx context.Context, name string) (Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, common.BadRequest("name", "name required", nil)
	}
	org, err := s.Store.UpdateOrganization(ctx, tenant.From(ctx), name)
	if errors.Is(err, ErrNotFound) {
		return Organization{}, common.NotFound("organization not found", err)
	}
	return org, err
}

// List returns the organization's outlets.
func (s *Service) List(ctx context.Context) ([]Outlet, error) {
	outlets, err := s.Store.ListOutlets(ctx, tenant.From(ctx))
	if err != nil {
		return nil, err
	}
	if outlets == nil {
		outlets = []Outlet{}
	}
	return outlets, nil
}

// Get returns one outlet.
func (s *Service) Get(ctx context.Context, id string) (Outlet, error) {
	o, err := s.Store.GetOutlet(ctx, tenant.From(ctx), id)
	if errors.Is(err, ErrNotFound) {
		return Outlet{}, common.NotFound("outlet not found", err)
	}
	return o, err
}

// Create registers a new outlet, active by default.
func (s *Service) Create(ctx context.Context, in Input) (Outlet, error) {
	if err := common.Validate(in); err != nil {
		return Outlet{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return s.Store.CreateOutlet(ctx, tenant.From(ctx), Outlet{
		Name:     strings.TrimSpace(in.Name),
		Address:  strings.TrimSpace(in.Address),
		Phone:    strings.TrimSpace(in.Phone),
		IsActive: active,
	})
}

// Update rewrites an outlet.
func (s *Service) Update(ctx context.Context, id string, in Input) (Outlet, error) {
	if err := common.Validate(in); err != nil {
		return Outlet{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	o, err := s.Store.UpdateOutlet(ctx, tenant.From(ctx), Outlet{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		Address:  strings.TrimSpace(in.Address),
		Phone:    strings.TrimSpace(in.Phone),
		IsActive: active,
	})
	if errors.Is(err, ErrNotFound) {
		return Outlet{}, common.NotFound("outlet not found", err)
	}
	return o, err
}

// Deactivate soft-deletes an outlet.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	err := s.Store.DeactivateOutlet(ctx, tenant.From(ctx), id)
	if errors.Is(err, ErrNotFound) {
		return common.NotFound("outlet not found", err)
	}
	return err
}
