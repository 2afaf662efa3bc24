package catalog_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodcost/internal/catalog"
	"foodcost/internal/config"
	"foodcost/internal/db"
)

func setupPostgres(t *testing.T) (*pgxpool.Pool, context.Context) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	require.NoError(t, db.RunMigrations(ctx, dsn))

	pool, err := db.ConnectPostgres(ctx, config.Database{URL: dsn, MaxConns: 4, MinConns: 1, MaxConnLifetime: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool, ctx
}

func TestPostgresRepository(t *testing.T) {
	pool, ctx := setupPostgres(t)
	repo := catalog.NewPostgresRepository(pool)

	org := uuid.NewString()
	outlet := uuid.NewString()
	flour := uuid.NewString()
	distributor := uuid.NewString()
	product := uuid.NewString()
	cheapOffer := uuid.NewString()
	dearOffer := uuid.NewString()
	recipeID := uuid.NewString()

	exec := func(sql string, args ...any) {
		t.Helper()
		_, err := pool.Exec(ctx, sql, args...)
		require.NoError(t, err)
	}

	exec(`INSERT INTO common_ingredients (id, organization_id, name, contains_gluten, is_vegan, is_vegetarian)
		VALUES ($1, $2, 'Flour', TRUE, TRUE, TRUE)`, flour, org)
	exec(`INSERT INTO distributors (id, name) VALUES ($1, 'Sysco')`, distributor)
	exec(`INSERT INTO catalog_products (id, organization_id, common_ingredient_id, name, brand, unit_id)
		VALUES ($1, $2, $3, 'AP Flour', 'King', 'lb')`, product, org, flour)
	exec(`INSERT INTO distributor_offers (id, organization_id, catalog_product_id, distributor_id, distributor_sku)
		VALUES ($1, $2, $3, $4, 'F-1'), ($5, $2, $3, $4, 'F-2')`, cheapOffer, org, product, distributor, dearOffer)
	exec(`INSERT INTO price_records (id, distributor_offer_id, outlet_id, effective_date, case_price, unit_price) VALUES
		($1, $2, $3, '2024-03-01', 40, 0.80),
		($4, $5, $3, '2024-03-01', 30, 0.60),
		($6, $5, $3, '2024-03-05', 50, 1.00)`,
		uuid.NewString(), cheapOffer, outlet, uuid.NewString(), dearOffer, uuid.NewString())
	exec(`INSERT INTO product_conversions (id, organization_id, common_ingredient_id, from_unit, to_unit, factor)
		VALUES ($1, $2, $3, 'cup', 'oz', 4.25)`, uuid.NewString(), org, flour)
	exec(`INSERT INTO base_conversions (id, organization_id, outlet_id, from_unit, to_unit, factor)
		VALUES ($1, $2, NULL, 'lb', 'oz', 15.5)`, uuid.NewString(), org)
	exec(`INSERT INTO recipes (id, organization_id, outlet_id, name, servings, method)
		VALUES ($1, $2, $3, 'Bread', 4, ARRAY['mix', 'bake'])`, recipeID, org, outlet)
	exec(`INSERT INTO recipe_ingredients (id, recipe_id, position, common_ingredient_id, ingredient_name, quantity, unit_id) VALUES
		($1, $2, 1, $3, NULL, 2, 'lb'),
		($4, $2, 2, NULL, 'water', 1, 'cup')`, uuid.NewString(), recipeID, flour, uuid.NewString())

	t.Run("recipe and rows", func(t *testing.T) {
		rec, err := repo.GetRecipe(ctx, recipeID)
		require.NoError(t, err)
		assert.Equal(t, "Bread", rec.Name)
		assert.Equal(t, outlet, rec.OutletID)
		require.NotNil(t, rec.Servings)
		assert.Equal(t, 4.0, *rec.Servings)
		assert.Equal(t, []string{"mix", "bake"}, rec.Method)

		rows, err := repo.GetRecipeIngredients(ctx, recipeID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, catalog.CommonIngredientRef{ID: flour}, rows[0].Ref)
		assert.Equal(t, "Flour", rows[0].Name)
		assert.Equal(t, catalog.FreeText{Name: "water"}, rows[1].Ref)

		_, err = repo.GetRecipe(ctx, uuid.NewString())
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("allergens", func(t *testing.T) {
		a, err := repo.GetCommonIngredientAllergens(ctx, flour)
		require.NoError(t, err)
		assert.True(t, a.Gluten)
		assert.True(t, a.Vegan)
		assert.False(t, a.Dairy)
	})

	t.Run("cheapest uses latest record per offer", func(t *testing.T) {
		asOf := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
		p, err := repo.CheapestOfferPrice(ctx, flour, outlet, asOf)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, cheapOffer, p.OfferID)
		assert.Equal(t, 0.80, p.UnitPrice)
		assert.Equal(t, "lb", p.Unit)

		before := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
		p, err = repo.CheapestOfferPrice(ctx, flour, outlet, before)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, dearOffer, p.OfferID)

		p, err = repo.CheapestOfferPrice(ctx, flour, uuid.NewString(), asOf)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("cheapest without a usable outlet finds nothing", func(t *testing.T) {
		asOf := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

		for _, outletID := range []string{"", "outlet-1"} {
			p, err := repo.CheapestOfferPrice(ctx, flour, outletID, asOf)
			require.NoError(t, err, "outlet %q", outletID)
			assert.Nil(t, p, "outlet %q", outletID)
		}
	})

	t.Run("conversions", func(t *testing.T) {
		f, ok, err := repo.ProductConversion(ctx, flour, "cup", "oz", org)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 4.25, f)

		from, err := repo.ProductConversionsFrom(ctx, flour, "cup", org)
		require.NoError(t, err)
		assert.Len(t, from, 1)

		to, err := repo.ProductConversionsTo(ctx, flour, "oz", org)
		require.NoError(t, err)
		assert.Len(t, to, 1)

		f, ok, err = repo.BaseConversion(ctx, "lb", "oz", org, outlet)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 15.5, f)

		f, ok, err = repo.BaseConversion(ctx, "lb", "oz", uuid.NewString(), "")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 16.0, f)

		f, ok, err = repo.BaseConversion(ctx, "lb", "oz", "org-1", "outlet-1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 16.0, f)

		_, ok, err = repo.ProductConversion(ctx, flour, "cup", "oz", "org-1")
		require.NoError(t, err)
		assert.False(t, ok)

		from, err = repo.ProductConversionsFrom(ctx, flour, "cup", "org-1")
		require.NoError(t, err)
		assert.Empty(t, from)
	})

	t.Run("newest product conversion wins", func(t *testing.T) {
		exec(`INSERT INTO product_conversions (id, organization_id, common_ingredient_id, from_unit, to_unit, factor, created_at) VALUES
			($1, $3, $4, 'ea', 'oz', 1.50, '2024-01-01'),
			($2, $3, $4, 'ea', 'oz', 1.75, '2024-02-01')`,
			uuid.NewString(), uuid.NewString(), org, flour)

		f, ok, err := repo.ProductConversion(ctx, flour, "ea", "oz", org)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1.75, f)
	})
}
