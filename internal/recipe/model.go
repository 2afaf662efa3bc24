package recipe

import (
	"slices"
	"time"

	"foodcost/internal/catalog"
)

// Scope is the organization and outlets a caller may see. An empty
// OutletIDs grants every outlet of the organization.
type Scope struct {
	OrganizationID string
	OutletIDs      []string
}

func (s Scope) allows(rec *catalog.Recipe) bool {
	if s.OrganizationID == "" || rec.OrganizationID != s.OrganizationID {
		return false
	}
	if len(s.OutletIDs) == 0 || rec.OutletID == "" {
		return true
	}
	return slices.Contains(s.OutletIDs, rec.OutletID)
}

// defaultOutlet is used for recipes stored without an outlet.
func (s Scope) defaultOutlet() string {
	if len(s.OutletIDs) > 0 {
		return s.OutletIDs[0]
	}
	return ""
}

// --------------------------------------------------
// Diagnostics
// --------------------------------------------------

type WarningCode string

const (
	UncostedIngredient   WarningCode = "uncosted_ingredient"
	UnreliableConversion WarningCode = "unreliable_conversion"
	CyclicReference      WarningCode = "cyclic_reference"
	MissingSubRecipe     WarningCode = "missing_sub_recipe"
)

type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// Diagnostics counts warnings across the whole ingredient tree.
type Diagnostics struct {
	UncostedIngredients   int `json:"uncosted_ingredients"`
	UnmappedIngredients   int `json:"unmapped_ingredients"`
	UnreliableConversions int `json:"unreliable_conversions"`
	CyclicReferences      int `json:"cyclic_references"`
	MissingSubRecipes     int `json:"missing_sub_recipes"`
}

func (d Diagnostics) NeedsReview() bool {
	return d.UncostedIngredients+d.UnmappedIngredients+d.UnreliableConversions+d.CyclicReferences+d.MissingSubRecipes > 0
}

// --------------------------------------------------
// Cost results
// --------------------------------------------------

// CostedIngredient is one recipe row annotated with its cost. Cost is nil
// when HasPrice is false. A cyclic sub-recipe row costs zero.
type CostedIngredient struct {
	ID              string          `json:"id"`
	Position        int             `json:"position"`
	Name            string          `json:"name"`
	Kind            catalog.RefKind `json:"kind"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	Quantity        float64         `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	YieldPercentage float64         `json:"yield_percentage"`

	HasPrice           bool     `json:"has_price"`
	UnitPrice          *float64 `json:"unit_price,omitempty"`
	ProductUnit        string   `json:"product_unit,omitempty"`
	ConversionFactor   *float64 `json:"conversion_factor,omitempty"`
	ConversionStrategy string   `json:"conversion_strategy,omitempty"`
	Cost               *float64 `json:"cost"`
	CostPercentage     *float64 `json:"cost_percentage"`
	Source             string   `json:"source,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`

	// breakdown of a sub-recipe row
	Children []CostedIngredient `json:"children,omitempty"`
}

type RecipeCost struct {
	RecipeID       string             `json:"recipe_id"`
	Name           string             `json:"name"`
	OutletID       string             `json:"outlet_id,omitempty"`
	AsOf           time.Time          `json:"as_of"`
	TotalCost      float64            `json:"total_cost"`
	CostPerServing *float64           `json:"cost_per_serving"`
	Ingredients    []CostedIngredient `json:"ingredients"`
	Allergens      Summary            `json:"allergens"`
	Diagnostics    Diagnostics        `json:"diagnostics"`
}

// --------------------------------------------------
// Allergen results
// --------------------------------------------------

type IngredientAllergens struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       catalog.RefKind `json:"kind"`
	Known      bool            `json:"known"`
	Contains   []string        `json:"contains"`
	Vegan      bool            `json:"vegan"`
	Vegetarian bool            `json:"vegetarian"`
}

// Summary is the allergen union over a recipe tree. Vegan and Vegetarian
// are false when no ingredient was recognized.
type Summary struct {
	Contains      []string              `json:"contains"`
	Vegan         bool                  `json:"vegan"`
	Vegetarian    bool                  `json:"vegetarian"`
	PerIngredient []IngredientAllergens `json:"per_ingredient"`
}
