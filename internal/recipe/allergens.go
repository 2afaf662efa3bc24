package recipe

import (
	"context"
	"errors"
	"fmt"

	"foodcost/internal/catalog"
)

type allergenReader interface {
	recipeReader
	GetCommonIngredientAllergens(ctx context.Context, ingredientID string) (catalog.Allergens, error)
}

// allergenWalk carries its own visited sets, independent of the cost walk.
type allergenWalk struct {
	store allergenReader
}

// tally is the running result of one recipe level. recognized counts the
// ingredients whose flags are known, directly or through a sub-recipe.
type tally struct {
	contains   map[string]bool
	vegan      bool
	vegetarian bool
	recognized int
	rows       []IngredientAllergens
}

func newTally() *tally {
	return &tally{contains: make(map[string]bool), vegan: true, vegetarian: true}
}

func (t *tally) add(contains []string, vegan, vegetarian bool) {
	for _, name := range contains {
		t.contains[name] = true
	}
	t.vegan = t.vegan && vegan
	t.vegetarian = t.vegetarian && vegetarian
	t.recognized++
}

// summary orders Contains the same way catalog.Allergens does.
func (t *tally) summary() Summary {
	s := Summary{
		Contains:      orderedAllergens(t.contains),
		PerIngredient: t.rows,
	}
	if t.recognized > 0 {
		s.Vegan = t.vegan
		s.Vegetarian = t.vegetarian
	}
	if s.PerIngredient == nil {
		s.PerIngredient = []IngredientAllergens{}
	}
	return s
}

var allergenOrder = []string{
	catalog.Gluten, catalog.Dairy, catalog.Eggs, catalog.Soy, catalog.Peanuts,
	catalog.TreeNuts, catalog.Fish, catalog.Shellfish, catalog.Sesame,
	catalog.Mustard, catalog.Celery, catalog.Lupin, catalog.Molluscs, catalog.Sulphites,
}

func orderedAllergens(set map[string]bool) []string {
	out := []string{}
	for _, name := range allergenOrder {
		if set[name] {
			out = append(out, name)
		}
	}
	return out
}

// --------------------------------------------------
// AGGREGATE (RECURSIVE)
// --------------------------------------------------
func (w *allergenWalk) aggregate(ctx context.Context, recipeID string, seen visited) (*tally, error) {
	t := newTally()
	if seen.has(recipeID) {
		return t, nil
	}
	seen = seen.with(recipeID)

	rows, err := w.store.GetRecipeIngredients(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("loading ingredients of recipe %s: %w", recipeID, err)
	}

	for _, row := range rows {
		entry := IngredientAllergens{ID: row.ID, Name: row.Name, Contains: []string{}}
		if row.Ref == nil {
			row.Ref = catalog.FreeText{Name: row.Name}
		}
		entry.Kind = row.Ref.Kind()

		switch ref := row.Ref.(type) {
		case catalog.CommonIngredientRef:
			flags, err := w.store.GetCommonIngredientAllergens(ctx, ref.ID)
			if errors.Is(err, catalog.ErrNotFound) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("loading allergens of ingredient %s: %w", ref.ID, err)
			}
			entry.Known = true
			entry.Contains = flags.Contains()
			if entry.Contains == nil {
				entry.Contains = []string{}
			}
			entry.Vegan = flags.Vegan
			entry.Vegetarian = flags.Vegetarian
			t.add(entry.Contains, entry.Vegan, entry.Vegetarian)

		case catalog.SubRecipeRef:
			if seen.has(ref.ID) {
				break
			}
			child, err := w.aggregate(ctx, ref.ID, seen)
			if err != nil {
				return nil, err
			}
			if child.recognized == 0 {
				break
			}
			entry.Known = true
			entry.Contains = orderedAllergens(child.contains)
			entry.Vegan = child.vegan
			entry.Vegetarian = child.vegetarian
			t.add(entry.Contains, entry.Vegan, entry.Vegetarian)
		}

		t.rows = append(t.rows, entry)
	}

	return t, nil
}
