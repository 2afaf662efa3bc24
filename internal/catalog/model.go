package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrAmbiguousIngredientRef = errors.New("recipe ingredient references both a common ingredient and a sub-recipe")
	ErrDuplicatePrice         = errors.New("price record already exists for offer, outlet and effective date")
)

// --------------------------------------------------
// Allergen / dietary flags
// --------------------------------------------------

// Allergen names as reported in summaries.
const (
	Gluten    = "gluten"
	Dairy     = "dairy"
	Eggs      = "eggs"
	Soy       = "soy"
	Peanuts   = "peanuts"
	TreeNuts  = "tree_nuts"
	Fish      = "fish"
	Shellfish = "shellfish"
	Sesame    = "sesame"
	Mustard   = "mustard"
	Celery    = "celery"
	Lupin     = "lupin"
	Molluscs  = "molluscs"
	Sulphites = "sulphites"
)

// Allergens holds the sixteen independent flags carried by a common
// ingredient: fourteen allergens plus two dietary markers.
type Allergens struct {
	Gluten     bool `json:"gluten"`
	Dairy      bool `json:"dairy"`
	Eggs       bool `json:"eggs"`
	Soy        bool `json:"soy"`
	Peanuts    bool `json:"peanuts"`
	TreeNuts   bool `json:"tree_nuts"`
	Fish       bool `json:"fish"`
	Shellfish  bool `json:"shellfish"`
	Sesame     bool `json:"sesame"`
	Mustard    bool `json:"mustard"`
	Celery     bool `json:"celery"`
	Lupin      bool `json:"lupin"`
	Molluscs   bool `json:"molluscs"`
	Sulphites  bool `json:"sulphites"`
	Vegan      bool `json:"vegan"`
	Vegetarian bool `json:"vegetarian"`
}

// Contains lists the allergens that are set, in a fixed order.
func (a Allergens) Contains() []string {
	flags := []struct {
		set  bool
		name string
	}{
		{a.Gluten, Gluten},
		{a.Dairy, Dairy},
		{a.Eggs, Eggs},
		{a.Soy, Soy},
		{a.Peanuts, Peanuts},
		{a.TreeNuts, TreeNuts},
		{a.Fish, Fish},
		{a.Shellfish, Shellfish},
		{a.Sesame, Sesame},
		{a.Mustard, Mustard},
		{a.Celery, Celery},
		{a.Lupin, Lupin},
		{a.Molluscs, Molluscs},
		{a.Sulphites, Sulphites},
	}

	var out []string
	for _, f := range flags {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}

// --------------------------------------------------
// Catalog entities
// --------------------------------------------------

type CommonIngredient struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	PreferredUnit  string    `json:"preferred_unit,omitempty"`
	Allergens      Allergens `json:"allergens"`
}

type CatalogProduct struct {
	ID                 string  `json:"id"`
	OrganizationID     string  `json:"organization_id"`
	CommonIngredientID string  `json:"common_ingredient_id,omitempty"` // empty = unmapped
	Name               string  `json:"name"`
	Brand              string  `json:"brand,omitempty"`
	Pack               int     `json:"pack"`
	Size               float64 `json:"size"`
	Unit               string  `json:"unit"`
	CatchWeight        bool    `json:"catch_weight"`
}

type Distributor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DistributorOffer struct {
	ID               string `json:"id"`
	OrganizationID   string `json:"organization_id"`
	OutletID         string `json:"outlet_id,omitempty"`
	CatalogProductID string `json:"catalog_product_id"`
	DistributorID    string `json:"distributor_id"`
	DistributorSKU   string `json:"distributor_sku"`
}

// PriceRecord is unique per (offer, outlet, effective date).
type PriceRecord struct {
	ID            string    `json:"id"`
	OfferID       string    `json:"distributor_offer_id"`
	OutletID      string    `json:"outlet_id"`
	EffectiveDate time.Time `json:"effective_date"`
	CasePrice     float64   `json:"case_price"`
	UnitPrice     float64   `json:"unit_price"`
}

// OfferPrice is the latest effective price of one distributor offer,
// joined with enough product detail to describe where it came from.
type OfferPrice struct {
	OfferID         string
	ProductID       string
	ProductName     string
	Brand           string
	DistributorName string
	DistributorSKU  string
	Unit            string
	UnitPrice       float64
	CasePrice       float64
	EffectiveDate   time.Time
}

// --------------------------------------------------
// Conversions
// --------------------------------------------------

// ProductConversion states 1 FromUnit of one ingredient = Factor ToUnit.
type ProductConversion struct {
	ID                 string  `json:"id"`
	OrganizationID     string  `json:"organization_id"`
	CommonIngredientID string  `json:"common_ingredient_id"`
	FromUnit           string  `json:"from_unit"`
	ToUnit             string  `json:"to_unit"`
	Factor             float64 `json:"factor"`
}

// BaseConversion is ingredient independent. Empty OrganizationID and
// OutletID mark a system default row.
type BaseConversion struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id,omitempty"`
	OutletID       string  `json:"outlet_id,omitempty"`
	FromUnit       string  `json:"from_unit"`
	ToUnit         string  `json:"to_unit"`
	Factor         float64 `json:"factor"`
}

// --------------------------------------------------
// Recipes
// --------------------------------------------------

type Recipe struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	OutletID       string   `json:"outlet_id,omitempty"`
	Name           string   `json:"name"`
	YieldAmount    *float64 `json:"yield_amount,omitempty"`
	YieldUnit      string   `json:"yield_unit,omitempty"`
	Servings       *float64 `json:"servings,omitempty"`
	Method         []string `json:"method,omitempty"`
}

// RecipeIngredient is one row of a recipe. Ref is exactly one of
// CommonIngredientRef, SubRecipeRef or FreeText.
type RecipeIngredient struct {
	ID              string
	RecipeID        string
	Position        int
	Name            string
	Ref             IngredientRef
	Quantity        float64
	Unit            string
	YieldPercentage float64
}

type RefKind string

const (
	KindCommonIngredient RefKind = "common_ingredient"
	KindSubRecipe        RefKind = "sub_recipe"
	KindText             RefKind = "text"
)

type IngredientRef interface {
	Kind() RefKind
}

type CommonIngredientRef struct{ ID string }

type SubRecipeRef struct{ ID string }

type FreeText struct{ Name string }

func (CommonIngredientRef) Kind() RefKind { return KindCommonIngredient }
func (SubRecipeRef) Kind() RefKind        { return KindSubRecipe }
func (FreeText) Kind() RefKind            { return KindText }

// RefFromColumns builds the reference of a stored row from its two
// nullable foreign keys and the free-text name.
func RefFromColumns(commonIngredientID, subRecipeID *string, name string) (IngredientRef, error) {
	hasCommon := commonIngredientID != nil && *commonIngredientID != ""
	hasSub := subRecipeID != nil && *subRecipeID != ""

	switch {
	case hasCommon && hasSub:
		return nil, ErrAmbiguousIngredientRef
	case hasCommon:
		return CommonIngredientRef{ID: *commonIngredientID}, nil
	case hasSub:
		return SubRecipeRef{ID: *subRecipeID}, nil
	default:
		return FreeText{Name: name}, nil
	}
}
