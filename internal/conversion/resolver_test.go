package conversion

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodcost/internal/catalog"
	"foodcost/internal/metrics"
)

const org = "org-1"

func newFixture() (*catalog.InMemoryRepository, *Resolver) {
	repo := catalog.NewInMemoryRepository()

	repo.AddProductConversion(catalog.ProductConversion{
		OrganizationID: org, CommonIngredientID: "flour", FromUnit: "cup", ToUnit: "oz", Factor: 4.25,
	})
	repo.AddProductConversion(catalog.ProductConversion{
		OrganizationID: org, CommonIngredientID: "egg", FromUnit: "ea", ToUnit: "oz", Factor: 1.75,
	})
	repo.AddBaseConversion(catalog.BaseConversion{FromUnit: "dz", ToUnit: "ea", Factor: 12})

	return repo, NewResolver(repo, zap.NewNop(), nil)
}

func TestResolve(t *testing.T) {
	_, r := newFixture()
	ctx := context.Background()

	tests := []struct {
		name       string
		ingredient string
		from, to   string
		want       float64
		strategy   string
		reliable   bool
	}{
		{"same unit", "flour", "oz", "OZ", 1, StrategyIdentity, true},
		{"unset unit", "flour", "", "lb", 1, StrategyIdentity, true},
		{"direct product", "flour", "cup", "oz", 4.25, StrategyProduct, true},
		{"unit keys matched case-insensitively", "egg", "EA", "OZ", 1.75, StrategyProduct, true},
		{"reverse product with upper-case keys", "flour", "OZ", "CUP", 1 / 4.25, StrategyProductReverse, true},
		{"reverse product", "flour", "oz", "cup", 1 / 4.25, StrategyProductReverse, true},
		{"chained forward through fallback hop", "flour", "cup", "lb", 4.25 / 16, StrategyChained, true},
		{"chained mirror through base hop", "egg", "dz", "oz", 21, StrategyChained, true},
		{"fallback table", "milk", "gal", "cup", 16, StrategyFallback, true},
		{"nothing matches", "flour", "lb", "bunch", 1, StrategyNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.ingredient, tt.from, tt.to, org, "")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.Factor, 1e-9)
			assert.Equal(t, tt.strategy, got.Strategy)
			assert.Equal(t, tt.reliable, got.Reliable)
		})
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	_, r := newFixture()
	ctx := context.Background()

	there, err := r.Resolve(ctx, "flour", "cup", "oz", org, "")
	require.NoError(t, err)
	back, err := r.Resolve(ctx, "flour", "oz", "cup", org, "")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, there.Factor*back.Factor, 1e-9)
}

func TestResolve_BaseConversionPriority(t *testing.T) {
	repo, r := newFixture()
	ctx := context.Background()

	repo.AddBaseConversion(catalog.BaseConversion{FromUnit: "lb", ToUnit: "oz", Factor: 16})
	repo.AddBaseConversion(catalog.BaseConversion{OrganizationID: org, FromUnit: "lb", ToUnit: "oz", Factor: 15})
	repo.AddBaseConversion(catalog.BaseConversion{OrganizationID: org, OutletID: "out-1", FromUnit: "lb", ToUnit: "oz", Factor: 14})

	got, err := r.Resolve(ctx, "butter", "lb", "oz", org, "out-1")
	require.NoError(t, err)
	assert.Equal(t, StrategyBase, got.Strategy)
	assert.Equal(t, 14.0, got.Factor)

	got, err = r.Resolve(ctx, "butter", "lb", "oz", org, "out-2")
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.Factor)

	got, err = r.Resolve(ctx, "butter", "lb", "oz", "org-2", "")
	require.NoError(t, err)
	assert.Equal(t, 16.0, got.Factor)
}

func TestResolve_BaseConversionReverseRow(t *testing.T) {
	repo, r := newFixture()
	repo.AddBaseConversion(catalog.BaseConversion{FromUnit: "cs", ToUnit: "ea", Factor: 24})

	got, err := r.Resolve(context.Background(), "napkins", "ea", "cs", org, "")
	require.NoError(t, err)
	assert.Equal(t, StrategyBase, got.Strategy)
	assert.InDelta(t, 1.0/24, got.Factor, 1e-12)
}

type failingStore struct {
	*catalog.InMemoryRepository
}

var errStore = errors.New("connection reset")

func (failingStore) ProductConversion(context.Context, string, string, string, string) (float64, bool, error) {
	return 0, false, errStore
}

func TestResolve_StoreErrorIsReturned(t *testing.T) {
	r := NewResolver(failingStore{catalog.NewInMemoryRepository()}, zap.NewNop(), nil)

	_, err := r.Resolve(context.Background(), "flour", "cup", "oz", org, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errStore)
}

func TestResolve_RecordsStrategyMetrics(t *testing.T) {
	repo, _ := newFixture()
	reg := metrics.NewRegistry()
	r := NewResolver(repo, zap.NewNop(), reg)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "flour", "cup", "oz", org, "")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "flour", "lb", "bunch", org, "")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "flour", "oz", "oz", org, "")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ConversionStrategy.WithLabelValues(StrategyProduct)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ConversionStrategy.WithLabelValues(StrategyNone)))
}
