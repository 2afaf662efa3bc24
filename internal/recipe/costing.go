package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"foodcost/internal/catalog"
	"foodcost/internal/conversion"
	"foodcost/internal/pricing"
)

// visited holds the recipe ids on the current call chain.
type visited map[string]struct{}

func (v visited) has(id string) bool {
	_, ok := v[id]
	return ok
}

// with returns a copy of v plus id, leaving v untouched for siblings.
func (v visited) with(id string) visited {
	out := make(visited, len(v)+1)
	for k := range v {
		out[k] = struct{}{}
	}
	out[id] = struct{}{}
	return out
}

type recipeReader interface {
	GetRecipe(ctx context.Context, recipeID string) (*catalog.Recipe, error)
	GetRecipeIngredients(ctx context.Context, recipeID string) ([]catalog.RecipeIngredient, error)
}

// costWalk evaluates one recipe tree. It is created per call and is not
// shared between goroutines.
type costWalk struct {
	recipes  recipeReader
	prices   *pricing.Lookup
	resolver *conversion.Resolver
	log      *zap.Logger
	asOf     time.Time

	diag Diagnostics
}

// --------------------------------------------------
// EVALUATE (RECURSIVE)
// --------------------------------------------------
func (w *costWalk) evaluate(
	ctx context.Context,
	recipeID, outletID, organizationID string,
	seen visited,
) ([]CostedIngredient, float64, error) {

	if seen.has(recipeID) {
		return nil, 0, nil
	}
	seen = seen.with(recipeID)

	rows, err := w.recipes.GetRecipeIngredients(ctx, recipeID)
	if err != nil {
		return nil, 0, fmt.Errorf("loading ingredients of recipe %s: %w", recipeID, err)
	}

	out := make([]CostedIngredient, 0, len(rows))
	var total float64

	for _, row := range rows {
		if row.Ref == nil {
			row.Ref = catalog.FreeText{Name: row.Name}
		}
		item := CostedIngredient{
			ID:              row.ID,
			Position:        row.Position,
			Name:            row.Name,
			Kind:            row.Ref.Kind(),
			Quantity:        row.Quantity,
			Unit:            row.Unit,
			YieldPercentage: effectiveYield(row.YieldPercentage),
		}

		switch ref := row.Ref.(type) {
		case catalog.CommonIngredientRef:
			item.ReferenceID = ref.ID
			err = w.costIngredient(ctx, &item, ref.ID, outletID, organizationID)
		case catalog.SubRecipeRef:
			item.ReferenceID = ref.ID
			err = w.costSubRecipe(ctx, &item, ref.ID, outletID, organizationID, seen)
		default:
			item.Source = "not mapped to a product"
			w.diag.UnmappedIngredients++
		}
		if err != nil {
			return nil, 0, err
		}

		if item.Cost != nil {
			total += *item.Cost
		}
		out = append(out, item)
	}

	if total > 0 {
		for i := range out {
			if out[i].Cost == nil {
				continue
			}
			pct := *out[i].Cost / total * 100
			out[i].CostPercentage = &pct
		}
	}

	return out, total, nil
}

func effectiveYield(pct float64) float64 {
	if pct <= 0 {
		return 100
	}
	return pct
}

// --------------------------------------------------
// COMMON INGREDIENT
// --------------------------------------------------
func (w *costWalk) costIngredient(
	ctx context.Context,
	item *CostedIngredient,
	ingredientID, outletID, organizationID string,
) error {

	price, err := w.prices.Cheapest(ctx, ingredientID, outletID, w.asOf)
	if err != nil {
		return err
	}
	if price == nil {
		item.Source = "not mapped to a priced product"
		item.Warnings = append(item.Warnings, Warning{
			Code:    UncostedIngredient,
			Message: fmt.Sprintf("%s has no price at this outlet", item.Name),
		})
		w.diag.UncostedIngredients++
		return nil
	}

	conv, err := w.resolver.Resolve(ctx, ingredientID, item.Unit, price.ProductUnit, organizationID, outletID)
	if err != nil {
		return fmt.Errorf("converting %s: %w", item.Name, err)
	}

	cost := item.Quantity * conv.Factor * price.UnitPrice * (100 / item.YieldPercentage)

	item.HasPrice = true
	item.UnitPrice = &price.UnitPrice
	item.ProductUnit = price.ProductUnit
	item.ConversionFactor = &conv.Factor
	item.ConversionStrategy = conv.Strategy
	item.Cost = &cost
	item.Source = price.Source

	if !conv.Reliable {
		item.Warnings = append(item.Warnings, Warning{
			Code:    UnreliableConversion,
			Message: fmt.Sprintf("no conversion from %s to %s, assumed 1:1", item.Unit, price.ProductUnit),
		})
		w.diag.UnreliableConversions++
		w.log.Debug("unit mismatch costed at 1:1",
			zap.String("ingredient_id", ingredientID),
			zap.String("from", item.Unit),
			zap.String("to", price.ProductUnit),
		)
	}
	return nil
}

// --------------------------------------------------
// SUB-RECIPE
// --------------------------------------------------
func (w *costWalk) costSubRecipe(
	ctx context.Context,
	item *CostedIngredient,
	childID, parentOutlet, parentOrg string,
	seen visited,
) error {

	// a recurring recipe adds nothing past the point of recurrence
	if seen.has(childID) {
		var zero float64
		item.HasPrice = true
		item.Cost = &zero
		item.Source = "cyclic sub-recipe reference"
		item.Warnings = append(item.Warnings, Warning{
			Code:    CyclicReference,
			Message: fmt.Sprintf("%s already appears above this row", item.Name),
		})
		w.diag.CyclicReferences++
		return nil
	}

	child, err := w.recipes.GetRecipe(ctx, childID)
	if errors.Is(err, catalog.ErrNotFound) {
		item.Source = "sub-recipe no longer exists"
		item.Warnings = append(item.Warnings, Warning{
			Code:    MissingSubRecipe,
			Message: fmt.Sprintf("sub-recipe %s not found", childID),
		})
		w.diag.MissingSubRecipes++
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading sub-recipe %s: %w", childID, err)
	}

	outletID := child.OutletID
	if outletID == "" {
		outletID = parentOutlet
	}
	organizationID := child.OrganizationID
	if organizationID == "" {
		organizationID = parentOrg
	}

	children, childTotal, err := w.evaluate(ctx, childID, outletID, organizationID, seen)
	if err != nil {
		return err
	}

	var cost float64
	if child.YieldAmount != nil && *child.YieldAmount > 0 {
		cost = childTotal / *child.YieldAmount * item.Quantity
		yield := strings.TrimSpace(fmt.Sprintf("%g %s", *child.YieldAmount, child.YieldUnit))
		item.Source = fmt.Sprintf("sub-recipe %s, per %s of yield", child.Name, yield)
	} else {
		cost = childTotal * item.Quantity
		item.Source = fmt.Sprintf("sub-recipe %s, per batch", child.Name)
	}

	item.HasPrice = true
	item.Cost = &cost
	item.Children = children
	return nil
}
