package refill

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harumi-id/backend-parfum/internal/cart"
	"github.com/harumi-id/backend-parfum/internal/pricing"
)

type staticRecipes struct {
	table pricing.RecipeTable
}

func (s staticRecipes) RecipeTable(context.Context) (pricing.RecipeTable, error) {
	return s.table, nil
}

type captureCarts struct {
	gotCartID string
	gotLine   cart.RefillLine
}

func (c *captureCarts) AddRefill(_ context.Context, cartID string, line cart.RefillLine) (cart.View, error) {
	c.gotCartID = cartID
	c.gotLine = line
	return cart.View{}, nil
}

func sandalwoodService(carts *captureCarts) *Service {
	return &Service{
		Recipes: staticRecipes{table: pricing.RecipeTable{
			"sandalwood": {50: {
				AromaID:           "sandalwood",
				BottleSizeMl:      50,
				StandardEssenceMl: 15,
				BasePrice:         15000,
			}},
		}},
		Carts:   carts,
		Pricing: pricing.Config{TaxRateBps: 1100, ExtraEssencePricePerMl: 3500},
	}
}

func TestQuoteWithExtraEssence(t *testing.T) {
	svc := sandalwoodService(nil)
	quote, err := svc.Quote(context.Background(), QuoteInput{
		AromaID: "sandalwood", BottleSizeMl: 50, EssenceMl: 20,
	})
	require.NoError(t, err)
	require.Equal(t, int64(17500), quote.ExtraCost)
	require.Equal(t, int64(32500), quote.TotalPrice)
	require.Equal(t, 20, quote.EssenceMl)
	require.Equal(t, 30, quote.SolventMl)
}

func TestQuoteClampsEssenceToBottle(t *testing.T) {
	svc := sandalwoodService(nil)
	quote, err := svc.Quote(context.Background(), QuoteInput{
		AromaID: "sandalwood", BottleSizeMl: 50, EssenceMl: 60,
	})
	require.NoError(t, err)
	require.Equal(t, 50, quote.EssenceMl)
	require.Equal(t, 0, quote.SolventMl)
}

func TestQuoteUnknownRecipe(t *testing.T) {
	svc := sandalwoodService(nil)
	_, err := svc.Quote(context.Background(), QuoteInput{
		AromaID: "sandalwood", BottleSizeMl: 100, EssenceMl: 10,
	})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/refill/quote",
		strings.NewReader(`{"aromaId":"rose","bottleSizeMl":50,"essenceMl":10}`))
	NewHandler(svc).Quote(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddToCartUsesQuotedPrice(t *testing.T) {
	carts := &captureCarts{}
	svc := sandalwoodService(carts)
	svc.AromaNames = func(_ context.Context, _ string) string { return "Sandalwood Supreme" }

	_, err := svc.AddToCart(context.Background(), "cart-1", AddInput{
		QuoteInput: QuoteInput{AromaID: "sandalwood", BottleSizeMl: 50, EssenceMl: 20},
		Qty:        2,
	})
	require.NoError(t, err)
	require.Equal(t, "cart-1", carts.gotCartID)
	require.Equal(t, int64(32500), carts.gotLine.UnitPrice)
	require.Equal(t, 2, carts.gotLine.Qty)
	require.Equal(t, "Sandalwood Supreme", carts.gotLine.AromaName)
	require.Equal(t, 30, carts.gotLine.SolventMl)
}
