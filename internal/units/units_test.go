package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	u, ok := Lookup("LB")
	require.True(t, ok)
	assert.Equal(t, "lb", u.ID)
	assert.Equal(t, Weight, u.Family)

	u, ok = Lookup("fl oz")
	require.True(t, ok)
	assert.Equal(t, "fl_oz", u.ID)

	_, ok = Lookup("furlong")
	assert.False(t, ok)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "ea", Canonical("EA"))
	assert.Equal(t, "fl_oz", Canonical("FL OZ"))
	assert.Equal(t, "furlong", Canonical("furlong"))
}

func TestSame(t *testing.T) {
	assert.True(t, Same("oz", "OZ"))
	assert.True(t, Same("FL OZ", "fl_oz"))
	assert.False(t, Same("oz", "fl_oz"))
	assert.True(t, Same("pinch", "Pinch"))
}

func TestFallbackFactor(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want float64
		ok   bool
	}{
		{"pound to ounce", "lb", "oz", 16, true},
		{"ounce to pound", "oz", "lb", 0.0625, true},
		{"gallon to cup", "gal", "cup", 16, true},
		{"kilogram to gram", "kg", "g", 1000, true},
		{"tablespoon to teaspoon", "tbsp", "tsp", 3, true},
		{"weight to volume", "lb", "cup", 0, false},
		{"count units", "ea", "dz", 0, false},
		{"unknown unit", "oz", "furlong", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FallbackFactor(tt.from, tt.to)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	all[0].ID = "changed"

	u, ok := Lookup("oz")
	require.True(t, ok)
	assert.Equal(t, "oz", u.ID)
}
