package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Evaluations          *prometheus.CounterVec
	EvaluationSec        prometheus.Histogram
	UncostedIngredients  prometheus.Counter
	UnreliableConversion prometheus.Counter
	CyclicReferences     prometheus.Counter
	MissingSubRecipes    prometheus.Counter

	// hits per conversion strategy, "none" when nothing resolved
	ConversionStrategy *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodcost_recipe_evaluations_total",
		Help: "Recipe evaluations by kind (cost, allergens) and outcome.",
	}, []string{"kind", "outcome"})
	evalLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "foodcost_recipe_evaluation_seconds",
		Buckets: prometheus.DefBuckets,
	})
	uncosted := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcost_uncosted_ingredients_total"})
	unreliable := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcost_unreliable_conversions_total"})
	cycles := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcost_cyclic_references_total"})
	missing := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcost_missing_sub_recipes_total"})
	strategy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodcost_conversion_strategy_total",
	}, []string{"strategy"})

	r.MustRegister(evaluations, evalLatency, uncosted, unreliable, cycles, missing, strategy)
	return &Registry{
		reg:                  r,
		Evaluations:          evaluations,
		EvaluationSec:        evalLatency,
		UncostedIngredients:  uncosted,
		UnreliableConversion: unreliable,
		CyclicReferences:     cycles,
		MissingSubRecipes:    missing,
		ConversionStrategy:   strategy,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
