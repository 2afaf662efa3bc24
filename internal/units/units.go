package units

import "strings"

type Family string

const (
	Weight Family = "weight"
	Volume Family = "volume"
	Count  Family = "count"
)

// Unit is immutable reference data. ID is the value stored on ingredient,
// product and conversion rows.
type Unit struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	Family       Family `json:"family"`

	// size of one unit in the family's reference unit
	// (ounces for weight, fluid ounces for volume, zero for count)
	perReference float64
}

var catalog = []Unit{
	{ID: "oz", Abbreviation: "OZ", Family: Weight, perReference: 1},
	{ID: "lb", Abbreviation: "LB", Family: Weight, perReference: 16},
	{ID: "g", Abbreviation: "G", Family: Weight, perReference: 0.0352739619},
	{ID: "kg", Abbreviation: "KG", Family: Weight, perReference: 35.2739619},
	{ID: "mg", Abbreviation: "MG", Family: Weight, perReference: 0.0000352739619},

	{ID: "fl_oz", Abbreviation: "FL OZ", Family: Volume, perReference: 1},
	{ID: "tsp", Abbreviation: "TSP", Family: Volume, perReference: 1.0 / 6.0},
	{ID: "tbsp", Abbreviation: "TBSP", Family: Volume, perReference: 0.5},
	{ID: "cup", Abbreviation: "CUP", Family: Volume, perReference: 8},
	{ID: "pt", Abbreviation: "PT", Family: Volume, perReference: 16},
	{ID: "qt", Abbreviation: "QT", Family: Volume, perReference: 32},
	{ID: "gal", Abbreviation: "GAL", Family: Volume, perReference: 128},
	{ID: "ml", Abbreviation: "ML", Family: Volume, perReference: 0.0338140227},
	{ID: "l", Abbreviation: "L", Family: Volume, perReference: 33.8140227},

	{ID: "ea", Abbreviation: "EA", Family: Count},
	{ID: "dz", Abbreviation: "DZ", Family: Count},
	{ID: "cs", Abbreviation: "CS", Family: Count},
	{ID: "bunch", Abbreviation: "BUNCH", Family: Count},
}

var byKey = func() map[string]Unit {
	m := make(map[string]Unit, len(catalog)*2)
	for _, u := range catalog {
		m[u.ID] = u
		m[normalize(u.Abbreviation)] = u
	}
	return m
}()

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

// Lookup finds a unit by id or abbreviation, case-insensitively.
func Lookup(key string) (Unit, bool) {
	u, ok := byKey[normalize(key)]
	return u, ok
}

// Canonical returns the catalog id for key, or key unchanged when it is
// not a catalog unit.
func Canonical(key string) string {
	if u, ok := Lookup(key); ok {
		return u.ID
	}
	return key
}

// All returns a copy of the catalog in declaration order.
func All() []Unit {
	out := make([]Unit, len(catalog))
	copy(out, catalog)
	return out
}

// Same reports whether two unit keys name the same catalog unit.
// Unknown keys compare by their normalized text.
func Same(a, b string) bool {
	ua, okA := Lookup(a)
	ub, okB := Lookup(b)
	if okA && okB {
		return ua.ID == ub.ID
	}
	return normalize(a) == normalize(b)
}

// FallbackFactor is the hardcoded weight/volume table used when no
// base conversion rows exist. It returns how many `to` units make one
// `from` unit. Count units and cross-family pairs never convert.
func FallbackFactor(from, to string) (float64, bool) {
	uf, ok := Lookup(from)
	if !ok {
		return 0, false
	}
	ut, ok := Lookup(to)
	if !ok {
		return 0, false
	}
	if uf.Family != ut.Family || uf.Family == Count {
		return 0, false
	}
	return uf.perReference / ut.perReference, true
}
