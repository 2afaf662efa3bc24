package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a thread-safe Repository backed by maps. It is
// used by tests and for local fixtures.
type InMemoryRepository struct {
	mu sync.RWMutex

	ingredients  map[string]CommonIngredient
	products     map[string]CatalogProduct
	distributors map[string]Distributor
	offers       map[string]DistributorOffer
	prices       []PriceRecord
	productConvs []ProductConversion
	baseConvs    []BaseConversion
	recipes      map[string]Recipe
	rows         map[string][]RecipeIngredient
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		ingredients:  make(map[string]CommonIngredient),
		products:     make(map[string]CatalogProduct),
		distributors: make(map[string]Distributor),
		offers:       make(map[string]DistributorOffer),
		recipes:      make(map[string]Recipe),
		rows:         make(map[string][]RecipeIngredient),
	}
}

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

// --------------------------------------------------
// Writes (fixtures)
// --------------------------------------------------

func (r *InMemoryRepository) AddCommonIngredient(ing CommonIngredient) CommonIngredient {
	r.mu.Lock()
	defer r.mu.Unlock()
	ing.ID = newID(ing.ID)
	r.ingredients[ing.ID] = ing
	return ing
}

func (r *InMemoryRepository) AddProduct(p CatalogProduct) CatalogProduct {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = newID(p.ID)
	r.products[p.ID] = p
	return p
}

func (r *InMemoryRepository) AddDistributor(d Distributor) Distributor {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = newID(d.ID)
	r.distributors[d.ID] = d
	return d
}

func (r *InMemoryRepository) AddOffer(o DistributorOffer) DistributorOffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = newID(o.ID)
	r.offers[o.ID] = o
	return o
}

func (r *InMemoryRepository) AddPrice(p PriceRecord) (PriceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.prices {
		if existing.OfferID == p.OfferID &&
			existing.OutletID == p.OutletID &&
			existing.EffectiveDate.Equal(p.EffectiveDate) {
			return PriceRecord{}, ErrDuplicatePrice
		}
	}

	p.ID = newID(p.ID)
	r.prices = append(r.prices, p)
	return p, nil
}

func (r *InMemoryRepository) AddProductConversion(c ProductConversion) ProductConversion {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = newID(c.ID)
	r.productConvs = append(r.productConvs, c)
	return c
}

func (r *InMemoryRepository) AddBaseConversion(c BaseConversion) BaseConversion {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = newID(c.ID)
	r.baseConvs = append(r.baseConvs, c)
	return c
}

// AddRecipe stores a recipe and replaces its ingredient rows. Positions
// follow slice order.
func (r *InMemoryRepository) AddRecipe(rec Recipe, rows ...RecipeIngredient) Recipe {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = newID(rec.ID)
	r.recipes[rec.ID] = rec

	stored := make([]RecipeIngredient, len(rows))
	for i, row := range rows {
		row.ID = newID(row.ID)
		row.RecipeID = rec.ID
		row.Position = i + 1
		if row.YieldPercentage == 0 {
			row.YieldPercentage = 100
		}
		stored[i] = row
	}
	r.rows[rec.ID] = stored
	return rec
}

// --------------------------------------------------
// Recipes
// --------------------------------------------------

func (r *InMemoryRepository) GetRecipe(ctx context.Context, recipeID string) (*Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recipes[recipeID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *InMemoryRepository) GetRecipeIngredients(ctx context.Context, recipeID string) ([]RecipeIngredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.rows[recipeID]
	out := make([]RecipeIngredient, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			row.Name = r.displayName(row.Ref)
		}
		out[i] = row
	}
	return out, nil
}

func (r *InMemoryRepository) displayName(ref IngredientRef) string {
	switch ref := ref.(type) {
	case CommonIngredientRef:
		return r.ingredients[ref.ID].Name
	case SubRecipeRef:
		return r.recipes[ref.ID].Name
	case FreeText:
		return ref.Name
	}
	return ""
}

// --------------------------------------------------
// Ingredients & prices
// --------------------------------------------------

func (r *InMemoryRepository) GetCommonIngredientAllergens(ctx context.Context, ingredientID string) (Allergens, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ing, ok := r.ingredients[ingredientID]
	if !ok {
		return Allergens{}, ErrNotFound
	}
	return ing.Allergens, nil
}

func (r *InMemoryRepository) CheapestOfferPrice(
	ctx context.Context,
	ingredientID string,
	outletID string,
	asOf time.Time,
) (*OfferPrice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var observed []OfferPrice
	for _, pr := range r.prices {
		if pr.OutletID != outletID {
			continue
		}
		offer, ok := r.offers[pr.OfferID]
		if !ok {
			continue
		}
		product, ok := r.products[offer.CatalogProductID]
		if !ok || product.CommonIngredientID != ingredientID {
			continue
		}

		observed = append(observed, OfferPrice{
			OfferID:         offer.ID,
			ProductID:       product.ID,
			ProductName:     product.Name,
			Brand:           product.Brand,
			DistributorName: r.distributors[offer.DistributorID].Name,
			DistributorSKU:  offer.DistributorSKU,
			Unit:            product.Unit,
			UnitPrice:       pr.UnitPrice,
			CasePrice:       pr.CasePrice,
			EffectiveDate:   pr.EffectiveDate,
		})
	}

	best, ok := CheapestLatest(observed, asOf)
	if !ok {
		return nil, nil
	}
	return &best, nil
}

// --------------------------------------------------
// Conversions
// --------------------------------------------------

func (r *InMemoryRepository) ProductConversion(
	ctx context.Context,
	ingredientID, fromUnit, toUnit, organizationID string,
) (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// newest first, as the Postgres store orders by created_at
	for i := len(r.productConvs) - 1; i >= 0; i-- {
		c := r.productConvs[i]
		if c.CommonIngredientID == ingredientID &&
			c.OrganizationID == organizationID &&
			c.FromUnit == fromUnit &&
			c.ToUnit == toUnit {
			return c.Factor, true, nil
		}
	}
	return 0, false, nil
}

func (r *InMemoryRepository) ProductConversionsFrom(
	ctx context.Context,
	ingredientID, fromUnit, organizationID string,
) ([]ProductConversion, error) {
	return r.productConversionsWhere(func(c ProductConversion) bool {
		return c.CommonIngredientID == ingredientID &&
			c.OrganizationID == organizationID &&
			c.FromUnit == fromUnit
	}), nil
}

func (r *InMemoryRepository) ProductConversionsTo(
	ctx context.Context,
	ingredientID, toUnit, organizationID string,
) ([]ProductConversion, error) {
	return r.productConversionsWhere(func(c ProductConversion) bool {
		return c.CommonIngredientID == ingredientID &&
			c.OrganizationID == organizationID &&
			c.ToUnit == toUnit
	}), nil
}

func (r *InMemoryRepository) productConversionsWhere(match func(ProductConversion) bool) []ProductConversion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ProductConversion
	for _, c := range r.productConvs {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *InMemoryRepository) BaseConversion(
	ctx context.Context,
	fromUnit, toUnit, organizationID, outletID string,
) (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// lower rank wins: outlet row, organization row, system row
	best, bestRank := 0.0, 3
	for _, c := range r.baseConvs {
		if c.FromUnit != fromUnit || c.ToUnit != toUnit {
			continue
		}

		rank := 3
		switch {
		case c.OutletID != "":
			if outletID != "" && c.OutletID == outletID {
				rank = 0
			}
		case c.OrganizationID != "":
			if c.OrganizationID == organizationID {
				rank = 1
			}
		default:
			rank = 2
		}

		if rank < bestRank {
			best, bestRank = c.Factor, rank
		}
	}

	if bestRank == 3 {
		return 0, false, nil
	}
	return best, true, nil
}
