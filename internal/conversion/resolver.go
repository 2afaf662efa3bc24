package conversion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"foodcost/internal/catalog"
	"foodcost/internal/metrics"
	"foodcost/internal/units"
)

// Strategy names reported on a Conversion.
const (
	StrategyIdentity       = "identity"
	StrategyProduct        = "product"
	StrategyProductReverse = "product_reverse"
	StrategyChained        = "chained"
	StrategyBase           = "base"
	StrategyFallback       = "fallback"
	StrategyNone           = "none"
)

// Store is the slice of the catalog the resolver reads.
type Store interface {
	ProductConversion(ctx context.Context, ingredientID, fromUnit, toUnit, organizationID string) (float64, bool, error)
	ProductConversionsFrom(ctx context.Context, ingredientID, fromUnit, organizationID string) ([]catalog.ProductConversion, error)
	ProductConversionsTo(ctx context.Context, ingredientID, toUnit, organizationID string) ([]catalog.ProductConversion, error)
	BaseConversion(ctx context.Context, fromUnit, toUnit, organizationID, outletID string) (float64, bool, error)
}

// Conversion is the number of toUnit in one fromUnit. Reliable is false
// only when no strategy matched and Factor is the 1.0 placeholder.
type Conversion struct {
	Factor   float64 `json:"factor"`
	Strategy string  `json:"strategy"`
	Reliable bool    `json:"reliable"`
}

type request struct {
	ingredientID   string
	from           string
	to             string
	organizationID string
	outletID       string
}

type strategy struct {
	name string
	fn   func(ctx context.Context, req request) (float64, bool, error)
}

type Resolver struct {
	store      Store
	log        *zap.Logger
	metrics    *metrics.Registry
	strategies []strategy
}

// NewResolver wires the five strategies in priority order. m may be nil.
func NewResolver(store Store, log *zap.Logger, m *metrics.Registry) *Resolver {
	r := &Resolver{store: store, log: log, metrics: m}
	r.strategies = []strategy{
		{StrategyProduct, r.product},
		{StrategyProductReverse, r.productReverse},
		{StrategyChained, r.chained},
		{StrategyBase, r.base},
		{StrategyFallback, r.fallback},
	}
	return r
}

// Resolve returns the factor converting fromUnit quantities of an
// ingredient to toUnit. Store failures are returned; a missing conversion
// is not an error.
func (r *Resolver) Resolve(
	ctx context.Context,
	ingredientID, fromUnit, toUnit, organizationID, outletID string,
) (Conversion, error) {

	if fromUnit == "" || toUnit == "" || units.Same(fromUnit, toUnit) {
		return Conversion{Factor: 1, Strategy: StrategyIdentity, Reliable: true}, nil
	}

	// stored conversion rows use catalog ids
	req := request{
		ingredientID:   ingredientID,
		from:           units.Canonical(fromUnit),
		to:             units.Canonical(toUnit),
		organizationID: organizationID,
		outletID:       outletID,
	}

	for _, s := range r.strategies {
		factor, ok, err := s.fn(ctx, req)
		if err != nil {
			return Conversion{}, fmt.Errorf("%s conversion %s->%s: %w", s.name, fromUnit, toUnit, err)
		}
		if ok {
			r.observe(s.name)
			return Conversion{Factor: factor, Strategy: s.name, Reliable: true}, nil
		}
	}

	r.observe(StrategyNone)
	r.log.Debug("no conversion found",
		zap.String("ingredient_id", ingredientID),
		zap.String("from", fromUnit),
		zap.String("to", toUnit),
	)
	return Conversion{Factor: 1, Strategy: StrategyNone, Reliable: false}, nil
}

func (r *Resolver) observe(name string) {
	if r.metrics != nil {
		r.metrics.ConversionStrategy.WithLabelValues(name).Inc()
	}
}

// --------------------------------------------------
// Strategies
// --------------------------------------------------

func (r *Resolver) product(ctx context.Context, req request) (float64, bool, error) {
	return r.store.ProductConversion(ctx, req.ingredientID, req.from, req.to, req.organizationID)
}

func (r *Resolver) productReverse(ctx context.Context, req request) (float64, bool, error) {
	f, ok, err := r.store.ProductConversion(ctx, req.ingredientID, req.to, req.from, req.organizationID)
	if err != nil || !ok || f == 0 {
		return 0, false, err
	}
	return 1 / f, true, nil
}

// chained tries product(from -> x) * base(x -> to), then
// base(from -> x) * product(x -> to).
func (r *Resolver) chained(ctx context.Context, req request) (float64, bool, error) {
	outgoing, err := r.store.ProductConversionsFrom(ctx, req.ingredientID, req.from, req.organizationID)
	if err != nil {
		return 0, false, err
	}
	for _, c := range outgoing {
		hop, ok, err := r.unitFactor(ctx, c.ToUnit, req.to, req)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return c.Factor * hop, true, nil
		}
	}

	incoming, err := r.store.ProductConversionsTo(ctx, req.ingredientID, req.to, req.organizationID)
	if err != nil {
		return 0, false, err
	}
	for _, c := range incoming {
		hop, ok, err := r.unitFactor(ctx, req.from, c.FromUnit, req)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return hop * c.Factor, true, nil
		}
	}

	return 0, false, nil
}

func (r *Resolver) base(ctx context.Context, req request) (float64, bool, error) {
	return r.baseFactor(ctx, req.from, req.to, req)
}

func (r *Resolver) fallback(_ context.Context, req request) (float64, bool, error) {
	f, ok := units.FallbackFactor(req.from, req.to)
	return f, ok, nil
}

// --------------------------------------------------
// Ingredient independent lookups
// --------------------------------------------------

// baseFactor reads a base conversion row, inverting a reverse row when
// only that one exists.
func (r *Resolver) baseFactor(ctx context.Context, from, to string, req request) (float64, bool, error) {
	f, ok, err := r.store.BaseConversion(ctx, from, to, req.organizationID, req.outletID)
	if err != nil || ok {
		return f, ok, err
	}

	f, ok, err = r.store.BaseConversion(ctx, to, from, req.organizationID, req.outletID)
	if err != nil || !ok || f == 0 {
		return 0, false, err
	}
	return 1 / f, true, nil
}

// unitFactor is the intermediate hop of a chained conversion.
func (r *Resolver) unitFactor(ctx context.Context, from, to string, req request) (float64, bool, error) {
	if units.Same(from, to) {
		return 1, true, nil
	}
	f, ok, err := r.baseFactor(ctx, from, to, req)
	if err != nil || ok {
		return f, ok, err
	}
	f, ok = units.FallbackFactor(from, to)
	return f, ok, nil
}
