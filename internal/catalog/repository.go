package catalog

import (
	"context"
	"time"
)

// Repository is the read contract the costing engine needs from the
// catalog & pricing store. Consumers depend on the narrower interfaces
// they declare themselves.
type Repository interface {

	// -------------------------------
	// Recipes
	// -------------------------------

	// GetRecipe returns ErrNotFound when no such recipe exists.
	GetRecipe(ctx context.Context, recipeID string) (*Recipe, error)

	// Rows in stored order.
	GetRecipeIngredients(ctx context.Context, recipeID string) ([]RecipeIngredient, error)

	// -------------------------------
	// Ingredients & prices
	// -------------------------------

	GetCommonIngredientAllergens(ctx context.Context, ingredientID string) (Allergens, error)

	// CheapestOfferPrice returns (nil, nil) when no mapped product has a
	// price effective for the outlet on or before asOf.
	CheapestOfferPrice(
		ctx context.Context,
		ingredientID string,
		outletID string,
		asOf time.Time,
	) (*OfferPrice, error)

	// -------------------------------
	// Conversions
	// -------------------------------

	ProductConversion(
		ctx context.Context,
		ingredientID, fromUnit, toUnit, organizationID string,
	) (factor float64, found bool, err error)

	ProductConversionsFrom(
		ctx context.Context,
		ingredientID, fromUnit, organizationID string,
	) ([]ProductConversion, error)

	ProductConversionsTo(
		ctx context.Context,
		ingredientID, toUnit, organizationID string,
	) ([]ProductConversion, error)

	// BaseConversion picks outlet, then organization, then system rows.
	BaseConversion(
		ctx context.Context,
		fromUnit, toUnit, organizationID, outletID string,
	) (factor float64, found bool, err error)
}
