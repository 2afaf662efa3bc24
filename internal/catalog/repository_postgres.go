package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// uuidParam returns the canonical form of an id bound to a UUID column,
// or nil when the id cannot be one. Callers treat nil as "matches nothing".
func uuidParam(s string) *string {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	out := id.String()
	return &out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --------------------------------------------------
// GET RECIPE
// --------------------------------------------------
func (r *PostgresRepository) GetRecipe(ctx context.Context, recipeID string) (*Recipe, error) {
	var (
		rec      Recipe
		outletID *string
		unit     *string
	)

	err := r.db.QueryRow(ctx, `
		SELECT
			id,
			organization_id,
			outlet_id,
			name,
			yield_amount,
			yield_unit,
			servings,
			method
		FROM recipes
		WHERE id = $1
	`, recipeID).Scan(
		&rec.ID,
		&rec.OrganizationID,
		&outletID,
		&rec.Name,
		&rec.YieldAmount,
		&unit,
		&rec.Servings,
		&rec.Method,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying recipe %s: %w", recipeID, err)
	}

	rec.OutletID = deref(outletID)
	rec.YieldUnit = deref(unit)
	return &rec, nil
}

// --------------------------------------------------
// RECIPE INGREDIENTS (STORED ORDER)
// --------------------------------------------------
func (r *PostgresRepository) GetRecipeIngredients(ctx context.Context, recipeID string) ([]RecipeIngredient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			ri.id,
			ri.recipe_id,
			ri.position,
			ri.common_ingredient_id,
			ri.sub_recipe_id,
			COALESCE(ci.name, sr.name, ri.ingredient_name, ''),
			COALESCE(ri.ingredient_name, ''),
			ri.quantity,
			ri.unit_id,
			ri.yield_percentage
		FROM recipe_ingredients ri
		LEFT JOIN common_ingredients ci
		  ON ci.id = ri.common_ingredient_id
		LEFT JOIN recipes sr
		  ON sr.id = ri.sub_recipe_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.position ASC, ri.id ASC
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("querying ingredients for recipe %s: %w", recipeID, err)
	}
	defer rows.Close()

	var out []RecipeIngredient
	for rows.Next() {
		var (
			row         RecipeIngredient
			commonID    *string
			subRecipeID *string
			freeText    string
			unit        *string
		)
		if err := rows.Scan(
			&row.ID,
			&row.RecipeID,
			&row.Position,
			&commonID,
			&subRecipeID,
			&row.Name,
			&freeText,
			&row.Quantity,
			&unit,
			&row.YieldPercentage,
		); err != nil {
			return nil, fmt.Errorf("scanning recipe ingredient row: %w", err)
		}

		row.Ref, err = RefFromColumns(commonID, subRecipeID, freeText)
		if err != nil {
			return nil, fmt.Errorf("recipe ingredient %s: %w", row.ID, err)
		}
		row.Unit = deref(unit)
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipe ingredient rows: %w", err)
	}
	return out, nil
}

// --------------------------------------------------
// ALLERGENS
// --------------------------------------------------
func (r *PostgresRepository) GetCommonIngredientAllergens(ctx context.Context, ingredientID string) (Allergens, error) {
	var a Allergens

	err := r.db.QueryRow(ctx, `
		SELECT
			contains_gluten,
			contains_dairy,
			contains_eggs,
			contains_soy,
			contains_peanuts,
			contains_tree_nuts,
			contains_fish,
			contains_shellfish,
			contains_sesame,
			contains_mustard,
			contains_celery,
			contains_lupin,
			contains_molluscs,
			contains_sulphites,
			is_vegan,
			is_vegetarian
		FROM common_ingredients
		WHERE id = $1
	`, ingredientID).Scan(
		&a.Gluten,
		&a.Dairy,
		&a.Eggs,
		&a.Soy,
		&a.Peanuts,
		&a.TreeNuts,
		&a.Fish,
		&a.Shellfish,
		&a.Sesame,
		&a.Mustard,
		&a.Celery,
		&a.Lupin,
		&a.Molluscs,
		&a.Sulphites,
		&a.Vegan,
		&a.Vegetarian,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Allergens{}, ErrNotFound
		}
		return Allergens{}, fmt.Errorf("querying allergens for ingredient %s: %w", ingredientID, err)
	}
	return a, nil
}

// --------------------------------------------------
// CHEAPEST LATEST OFFER PRICE
// Latest record per offer, then lowest unit price,
// ties broken by offer id.
// --------------------------------------------------
func (r *PostgresRepository) CheapestOfferPrice(
	ctx context.Context,
	ingredientID string,
	outletID string,
	asOf time.Time,
) (*OfferPrice, error) {

	// prices are always recorded against an outlet
	outlet := uuidParam(outletID)
	if outlet == nil {
		return nil, nil
	}

	var (
		p     OfferPrice
		brand *string
		unit  *string
	)

	err := r.db.QueryRow(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (o.id)
				o.id            AS offer_id,
				p.id            AS product_id,
				p.name          AS product_name,
				p.brand         AS brand,
				d.name          AS distributor_name,
				o.distributor_sku,
				p.unit_id,
				pr.unit_price,
				pr.case_price,
				pr.effective_date
			FROM catalog_products p
			JOIN distributor_offers o
			  ON o.catalog_product_id = p.id
			JOIN distributors d
			  ON d.id = o.distributor_id
			JOIN price_records pr
			  ON pr.distributor_offer_id = o.id
			WHERE p.common_ingredient_id = $1
			  AND pr.outlet_id = $2
			  AND pr.effective_date <= $3
			ORDER BY o.id, pr.effective_date DESC
		)
		SELECT
			offer_id,
			product_id,
			product_name,
			brand,
			distributor_name,
			distributor_sku,
			unit_id,
			unit_price,
			case_price,
			effective_date
		FROM latest
		ORDER BY unit_price ASC, offer_id ASC
		LIMIT 1
	`, ingredientID, *outlet, asOf).Scan(
		&p.OfferID,
		&p.ProductID,
		&p.ProductName,
		&brand,
		&p.DistributorName,
		&p.DistributorSKU,
		&unit,
		&p.UnitPrice,
		&p.CasePrice,
		&p.EffectiveDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying cheapest price for ingredient %s: %w", ingredientID, err)
	}

	p.Brand = deref(brand)
	p.Unit = deref(unit)
	return &p, nil
}

// --------------------------------------------------
// PRODUCT CONVERSIONS
// --------------------------------------------------
func (r *PostgresRepository) ProductConversion(
	ctx context.Context,
	ingredientID, fromUnit, toUnit, organizationID string,
) (float64, bool, error) {

	org := uuidParam(organizationID)
	if org == nil {
		return 0, false, nil
	}

	var factor float64
	err := r.db.QueryRow(ctx, `
		SELECT factor
		FROM product_conversions
		WHERE common_ingredient_id = $1
		  AND from_unit = $2
		  AND to_unit = $3
		  AND organization_id = $4
		ORDER BY created_at DESC
		LIMIT 1
	`, ingredientID, fromUnit, toUnit, *org).Scan(&factor)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("querying product conversion %s->%s: %w", fromUnit, toUnit, err)
	}
	return factor, true, nil
}

func (r *PostgresRepository) ProductConversionsFrom(
	ctx context.Context,
	ingredientID, fromUnit, organizationID string,
) ([]ProductConversion, error) {
	return r.listProductConversions(ctx, `
		SELECT id, organization_id, common_ingredient_id, from_unit, to_unit, factor
		FROM product_conversions
		WHERE common_ingredient_id = $1
		  AND from_unit = $2
		  AND organization_id = $3
		ORDER BY created_at ASC, id ASC
	`, ingredientID, fromUnit, organizationID)
}

func (r *PostgresRepository) ProductConversionsTo(
	ctx context.Context,
	ingredientID, toUnit, organizationID string,
) ([]ProductConversion, error) {
	return r.listProductConversions(ctx, `
		SELECT id, organization_id, common_ingredient_id, from_unit, to_unit, factor
		FROM product_conversions
		WHERE common_ingredient_id = $1
		  AND to_unit = $2
		  AND organization_id = $3
		ORDER BY created_at ASC, id ASC
	`, ingredientID, toUnit, organizationID)
}

func (r *PostgresRepository) listProductConversions(
	ctx context.Context,
	query string,
	ingredientID, unit, organizationID string,
) ([]ProductConversion, error) {

	org := uuidParam(organizationID)
	if org == nil {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, query, ingredientID, unit, *org)
	if err != nil {
		return nil, fmt.Errorf("querying product conversions: %w", err)
	}
	defer rows.Close()

	var out []ProductConversion
	for rows.Next() {
		var c ProductConversion
		if err := rows.Scan(
			&c.ID,
			&c.OrganizationID,
			&c.CommonIngredientID,
			&c.FromUnit,
			&c.ToUnit,
			&c.Factor,
		); err != nil {
			return nil, fmt.Errorf("scanning product conversion row: %w", err)
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product conversion rows: %w", err)
	}
	return out, nil
}

// --------------------------------------------------
// BASE CONVERSIONS (OUTLET > ORGANIZATION > SYSTEM)
// --------------------------------------------------
func (r *PostgresRepository) BaseConversion(
	ctx context.Context,
	fromUnit, toUnit, organizationID, outletID string,
) (float64, bool, error) {

	var factor float64
	err := r.db.QueryRow(ctx, `
		SELECT factor
		FROM base_conversions
		WHERE from_unit = $1
		  AND to_unit = $2
		  AND (
				(outlet_id IS NOT NULL AND outlet_id = $4)
			 OR (outlet_id IS NULL AND organization_id = $3)
			 OR (outlet_id IS NULL AND organization_id IS NULL)
		  )
		ORDER BY
			CASE
				WHEN outlet_id IS NOT NULL THEN 0
				WHEN organization_id IS NOT NULL THEN 1
				ELSE 2
			END
		LIMIT 1
	`, fromUnit, toUnit, uuidParam(organizationID), uuidParam(outletID)).Scan(&factor)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("querying base conversion %s->%s: %w", fromUnit, toUnit, err)
	}
	return factor, true, nil
}
