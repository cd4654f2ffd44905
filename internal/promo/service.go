package promo

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/pricing"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type store interface {
	List(ctx context.Context, orgID string) ([]Promotion, error)
	Get(ctx context.Context, orgID, id string) (Promotion, error)
	GetByCode(ctx context.Context, orgID, code string) (Promotion, error)
	Create(ctx context.Context, orgID string, p Promotion) (Promotion, error)
	Update(ctx context.Context, orgID string, p Promotion) (Promotion, error)
	Deactivate(ctx context.Context, orgID, id string) error
}

// Service manages promotion definitions.
type Service struct {
	Store store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Input is the write payload for promotions.
type Input struct {
	Code          string     `json:"code" validate:"required,min=2,max=40"`
	Name          string     `json:"name" validate:"required,min=2,max=160"`
	Kind          string     `json:"kind" validate:"required,oneof=percentage fixed_amount bogo"`
	ValueBps      int32      `json:"valueBps" validate:"gte=0,lte=10000"`
	Value         int64      `json:"value" validate:"gte=0"`
	FreeProductID *string    `json:"freeProductId" validate:"omitempty,uuid4"`
	StartsAt      *time.Time `json:"startsAt"`
	EndsAt        *time.Time `json:"endsAt"`
	IsActive      *bool      `json:"isActive"`
}

func (s *Service) fromInput(in Input) (Promotion, error) {
	if err := common.Validate(in); err != nil {
		return Promotion{}, err
	}
	kind := pricing.PromotionKind(in.Kind)
	switch kind {
	case pricing.KindPercentage:
		if in.ValueBps <= 0 {
			return Promotion{}, common.BadRequest("valueBps", "percentage promotions require valueBps between 1 and 10000", nil)
		}
	case pricing.KindFixedAmount:
		if in.Value <= 0 {
			return Promotion{}, common.BadRequest("value", "fixed amount promotions require a positive value", nil)
		}
	case pricing.KindBuyOneGetOne:
		if in.FreeProductID == nil || *in.FreeProductID == "" {
			return Promotion{}, common.BadRequest("freeProductId", "bogo promotions require a free product", nil)
		}
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		return Promotion{}, common.BadRequest("endsAt", "endsAt must not precede startsAt", nil)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return Promotion{
		Code:          strings.ToUpper(strings.TrimSpace(in.Code)),
		Name:          strings.TrimSpace(in.Name),
		Kind:          kind,
		ValueBps:      in.ValueBps,
		Value:         in.Value,
		FreeProductID: in.FreeProductID,
		StartsAt:      in.StartsAt,
		EndsAt:        in.EndsAt,
		IsActive:      active,
	}, nil
}

// List returns all promotions for the organization.
func (s *Service) List(ctx context.Context) ([]Promotion, error) {
	promos, err := s.Store.List(ctx, tenant.From(ctx))
	if err != nil {
		return nil, err
	}
	if promos == nil {
		promos = []Promotion{}
	}
	return promos, nil
}

// Create validates and stores a new promotion.
func (s *Service) Create(ctx context.Context, in Input) (Promotion, error) {
	p, err := s.fromInput(in)
	if err != nil {
		return Promotion{}, err
	}
	created, err := s.Store.Create(ctx, tenant.From(ctx), p)
	if errors.Is(err, ErrDuplicateCode) {
		return Promotion{}, common.NewAppError("CONFLICT", "promotion code already in use", http.StatusConflict, err)
	}
	return created, err
}

// Update validates and replaces a promotion.
func (s *Service) Update(ctx context.Context, id string, in Input) (Promotion, error) {
	p, err := s.fromInput(in)
	if err != nil {
		return Promotion{}, err
	}
	p.ID = id
	updated, err := s.Store.Update(ctx, tenant.From(ctx), p)
	switch {
	case errors.Is(err, ErrNotFound):
		return Promotion{}, common.NotFound("promotion not found", err)
	case errors.Is(err, ErrDuplicateCode):
		return Promotion{}, common.NewAppError("CONFLICT", "promotion code already in use", http.StatusConflict, err)
	}
	return updated, err
}

// Deactivate turns a promotion off.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	err := s.Store.Deactivate(ctx, tenant.From(ctx), id)
	if errors.Is(err, ErrNotFound) {
		return common.NotFound("promotion not found", err)
	}
	return err
}

// ResolveActive loads a promotion by code and checks its window. Carts apply
// promotions through this path only.
func (s *Service) ResolveActive(ctx context.Context, code string) (Promotion, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Promotion{}, common.BadRequest("code", "promotion code required", nil)
	}
	p, err := s.Store.GetByCode(ctx, tenant.From(ctx), code)
	if errors.Is(err, ErrNotFound) {
		return Promotion{}, common.NotFound("promotion not found", err)
	}
	if err != nil {
		return Promotion{}, err
	}
	if !p.ActiveAt(s.now()) {
		return Promotion{}, common.NewAppError("PROMO_INACTIVE", "promotion is not active", http.StatusUnprocessableEntity, nil)
	}
	return p, nil
}

// GetActive loads a promotion by id and checks its window.
func (s *Service) GetActive(ctx context.Context, id string) (Promotion, error) {
	p, err := s.Store.Get(ctx, tenant.From(ctx), id)
	if errors.Is(err, ErrNotFound) {
		return Promotion{}, common.NotFound("promotion not found", err)
	}
	if err != nil {
		return Promotion{}, err
	}
	if !p.ActiveAt(s.now()) {
		return Promotion{}, common.NewAppError("PROMO_INACTIVE", "promotion is not active", http.StatusUnprocessableEntity, nil)
	}
	return p, nil
}
