package pricing

import "errors"

// ErrRecipeNotFound indicates no recipe exists for the requested aroma and
// bottle size pair. Blend pricing fails soft: callers receive a zero quote
// alongside this error.
var ErrRecipeNotFound = errors.New("pricing: recipe not found")

// Recipe is the read-only lookup entry for a custom blend: the standard
// essence volume and base price for one aroma at one bottle size.
type Recipe struct {
	AromaID           string
	BottleSizeMl      int
	StandardEssenceMl int
	BasePrice         Money
}

// RecipeTable maps aroma id and bottle size to a recipe.
type RecipeTable map[string]map[int]Recipe

// Lookup returns the recipe for the aroma/size pair if present.
func (t RecipeTable) Lookup(aromaID string, bottleSizeMl int) (Recipe, bool) {
	sizes, ok := t[aromaID]
	if !ok {
		return Recipe{}, false
	}
	recipe, ok := sizes[bottleSizeMl]
	return recipe, ok
}

// BlendRequest is the transient input to blend pricing. It is never
// persisted.
type BlendRequest struct {
	AromaID            string
	BottleSizeMl       int
	RequestedEssenceMl int
}

// BlendQuote is the priced composition of a custom blend.
type BlendQuote struct {
	TotalPrice Money `json:"totalPrice"`
	EssenceMl  int   `json:"essenceMl"`
	SolventMl  int   `json:"solventMl"`
	ExtraCost  Money `json:"extraCost"`
}

// PriceBlend computes the price of a custom blend. The requested essence is
// clamped to [0, bottleSizeMl] rather than rejected, the solvent fills the
// remainder of the bottle, and essence beyond the recipe standard is charged
// at cfg.ExtraEssencePricePerMl per millilitre on top of the base price.
func PriceBlend(req BlendRequest, recipes RecipeTable, cfg Config) (BlendQuote, error) {
	if req.BottleSizeMl <= 0 {
		return BlendQuote{}, ErrRecipeNotFound
	}
	recipe, ok := recipes.Lookup(req.AromaID, req.BottleSizeMl)
	if !ok {
		return BlendQuote{}, ErrRecipeNotFound
	}
	essence := req.RequestedEssenceMl
	if essence < 0 {
		essence = 0
	}
	if essence > req.BottleSizeMl {
		essence = req.BottleSizeMl
	}
	extra := essence - recipe.StandardEssenceMl
	if extra < 0 {
		extra = 0
	}
	extraCost := Money(extra) * cfg.ExtraEssencePricePerMl
	return BlendQuote{
		TotalPrice: recipe.BasePrice + extraCost,
		EssenceMl:  essence,
		SolventMl:  req.BottleSizeMl - essence,
		ExtraCost:  extraCost,
	}, nil
}
