package recipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"foodcost/internal/catalog"
	"foodcost/internal/conversion"
	"foodcost/internal/metrics"
	"foodcost/internal/pricing"
)

type Service struct {
	repo     catalog.Repository
	prices   *pricing.Lookup
	resolver *conversion.Resolver
	log      *zap.Logger
	metrics  *metrics.Registry
	now      func() time.Time
}

// NewService builds the engine over repo. m may be nil.
func NewService(repo catalog.Repository, log *zap.Logger, m *metrics.Registry) *Service {
	return &Service{
		repo:     repo,
		prices:   pricing.NewLookup(repo),
		resolver: conversion.NewResolver(repo, log, m),
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// load returns ErrNotFound for recipes outside scope as well as missing ones.
func (s *Service) load(ctx context.Context, recipeID string, scope Scope) (*catalog.Recipe, error) {
	rec, err := s.repo.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if !scope.allows(rec) {
		return nil, catalog.ErrNotFound
	}
	return rec, nil
}

// --------------------------------------------------
// GET RECIPE COST
// --------------------------------------------------
func (s *Service) GetRecipeCost(ctx context.Context, recipeID string, scope Scope) (*RecipeCost, error) {
	start := time.Now()

	result, err := s.getRecipeCost(ctx, recipeID, scope)
	s.observe("cost", start, err)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.UncostedIngredients.Add(float64(result.Diagnostics.UncostedIngredients))
		s.metrics.UnreliableConversion.Add(float64(result.Diagnostics.UnreliableConversions))
		s.metrics.CyclicReferences.Add(float64(result.Diagnostics.CyclicReferences))
		s.metrics.MissingSubRecipes.Add(float64(result.Diagnostics.MissingSubRecipes))
	}
	if result.Diagnostics.NeedsReview() {
		s.log.Info("recipe cost needs review",
			zap.String("recipe_id", recipeID),
			zap.Any("diagnostics", result.Diagnostics),
		)
	}
	return result, nil
}

func (s *Service) getRecipeCost(ctx context.Context, recipeID string, scope Scope) (*RecipeCost, error) {
	rec, err := s.load(ctx, recipeID, scope)
	if err != nil {
		return nil, err
	}

	outletID := rec.OutletID
	if outletID == "" {
		outletID = scope.defaultOutlet()
	}

	walk := &costWalk{
		recipes:  s.repo,
		prices:   s.prices,
		resolver: s.resolver,
		log:      s.log,
		asOf:     s.now(),
	}
	allergens := &allergenWalk{store: s.repo}

	var (
		ingredients []CostedIngredient
		total       float64
		summary     *tally
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ingredients, total, err = walk.evaluate(gctx, rec.ID, outletID, rec.OrganizationID, visited{})
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = allergens.aggregate(gctx, rec.ID, visited{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluating recipe %s: %w", rec.ID, err)
	}

	if ingredients == nil {
		ingredients = []CostedIngredient{}
	}
	roundIngredients(ingredients)

	return &RecipeCost{
		RecipeID:       rec.ID,
		Name:           rec.Name,
		OutletID:       outletID,
		AsOf:           walk.asOf,
		TotalCost:      roundCost(total),
		CostPerServing: perServing(rec, total),
		Ingredients:    ingredients,
		Allergens:      summary.summary(),
		Diagnostics:    walk.diag,
	}, nil
}

// --------------------------------------------------
// GET RECIPE ALLERGENS
// --------------------------------------------------
func (s *Service) GetRecipeAllergens(ctx context.Context, recipeID string, scope Scope) (*Summary, error) {
	start := time.Now()

	rec, err := s.load(ctx, recipeID, scope)
	if err == nil {
		var t *tally
		t, err = (&allergenWalk{store: s.repo}).aggregate(ctx, rec.ID, visited{})
		if err == nil {
			s.observe("allergens", start, nil)
			summary := t.summary()
			return &summary, nil
		}
		err = fmt.Errorf("aggregating allergens of recipe %s: %w", rec.ID, err)
	}

	s.observe("allergens", start, err)
	return nil, err
}

func (s *Service) observe(kind string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
		s.log.Error("recipe evaluation failed", zap.String("kind", kind), zap.Error(err))
	}

	if s.metrics == nil {
		return
	}
	s.metrics.Evaluations.WithLabelValues(kind, outcome).Inc()
	s.metrics.EvaluationSec.Observe(time.Since(start).Seconds())
}

// --------------------------------------------------
// Presentation
// --------------------------------------------------

// perServing divides by servings, or by yield amount for recipes that
// predate servings.
func perServing(rec *catalog.Recipe, total float64) *float64 {
	var divisor float64
	switch {
	case rec.Servings != nil && *rec.Servings > 0:
		divisor = *rec.Servings
	case rec.YieldAmount != nil && *rec.YieldAmount > 0:
		divisor = *rec.YieldAmount
	default:
		return nil
	}
	v := roundCost(total / divisor)
	return &v
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundCost(v float64) float64 { return round(v, 2) }

func roundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}

func roundIngredients(items []CostedIngredient) {
	for i := range items {
		items[i].Cost = roundPtr(items[i].Cost, 2)
		items[i].UnitPrice = roundPtr(items[i].UnitPrice, 4)
		items[i].CostPercentage = roundPtr(items[i].CostPercentage, 2)
		roundIngredients(items[i].Children)
	}
}
