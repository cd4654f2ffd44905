package refill

import (
	"context"
	"errors"

	"github.com/harumi-id/backend-parfum/internal/cart"
	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/obs"
	"github.com/harumi-id/backend-parfum/internal/pricing"
)

type recipeProvider interface {
	RecipeTable(ctx context.Context) (pricing.RecipeTable, error)
}

type cartProvider interface {
	AddRefill(ctx context.Context, cartID string, line cart.RefillLine) (cart.View, error)
}

// Service prices custom blends against the organization's recipe table.
type Service struct {
	Recipes recipeProvider
	Carts   cartProvider
	Pricing pricing.Config
	// AromaNames resolves display names for cart lines; nil leaves the
	// generic label.
	AromaNames func(ctx context.Context, aromaID string) string
}

// QuoteInput is the blend quote payload.
type QuoteInput struct {
	AromaID      string `json:"aromaId" validate:"required"`
	BottleSizeMl int    `json:"bottleSizeMl" validate:"required,gt=0"`
	EssenceMl    int    `json:"essenceMl"`
}

// Quote prices a custom blend without persisting anything.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (pricing.BlendQuote, error) {
	if err := common.Validate(in); err != nil {
		return pricing.BlendQuote{}, err
	}
	table, err := s.Recipes.RecipeTable(ctx)
	if err != nil {
		return pricing.BlendQuote{}, err
	}
	quote, err := pricing.PriceBlend(pricing.BlendRequest{
		AromaID:            in.AromaID,
		BottleSizeMl:       in.BottleSizeMl,
		RequestedEssenceMl: in.EssenceMl,
	}, table, s.Pricing)
	if errors.Is(err, pricing.ErrRecipeNotFound) {
		obs.IncBlendQuote("recipe_missing")
		return pricing.BlendQuote{}, common.NotFound("no recipe for that aroma and bottle size", err)
	}
	if err != nil {
		obs.IncBlendQuote("error")
		return pricing.BlendQuote{}, err
	}
	obs.IncBlendQuote("ok")
	return quote, nil
}

// AddInput extends the quote payload with a quantity for cart insertion.
type AddInput struct {
	QuoteInput
	Qty int `json:"qty" validate:"gte=0"`
}

// AddToCart prices the blend and appends it to the cart. The price stored on
// the line is the authoritative quote at add time.
func (s *Service) AddToCart(ctx context.Context, cartID string, in AddInput) (cart.View, error) {
	quote, err := s.Quote(ctx, in.QuoteInput)
	if err != nil {
		return cart.View{}, err
	}
	qty := in.Qty
	if qty == 0 {
		qty = 1
	}
	line := cart.RefillLine{
		AromaID:      in.AromaID,
		BottleSizeMl: in.BottleSizeMl,
		EssenceMl:    quote.EssenceMl,
		SolventMl:    quote.SolventMl,
		UnitPrice:    quote.TotalPrice,
		Qty:          qty,
	}
	if s.AromaNames != nil {
		line.AromaName = s.AromaNames(ctx, in.AromaID)
	}
	return s.Carts.AddRefill(ctx, cartID, line)
}
