package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodcost/internal/catalog"
)

// Store returns the cheapest latest-per-offer price for an ingredient at
// an outlet, or nil when nothing is priced.
type Store interface {
	CheapestOfferPrice(ctx context.Context, ingredientID, outletID string, asOf time.Time) (*catalog.OfferPrice, error)
}

type Price struct {
	UnitPrice     float64   `json:"unit_price"`
	ProductUnit   string    `json:"product_unit"`
	Source        string    `json:"source"`
	OfferID       string    `json:"offer_id"`
	EffectiveDate time.Time `json:"effective_date"`
}

type Lookup struct {
	store Store
}

func NewLookup(store Store) *Lookup {
	return &Lookup{store: store}
}

// Cheapest returns nil, nil for an uncosted ingredient.
func (l *Lookup) Cheapest(ctx context.Context, ingredientID, outletID string, asOf time.Time) (*Price, error) {
	op, err := l.store.CheapestOfferPrice(ctx, ingredientID, outletID, asOf)
	if err != nil {
		return nil, fmt.Errorf("looking up price for ingredient %s: %w", ingredientID, err)
	}
	if op == nil {
		return nil, nil
	}

	return &Price{
		UnitPrice:     op.UnitPrice,
		ProductUnit:   op.Unit,
		Source:        Describe(*op),
		OfferID:       op.OfferID,
		EffectiveDate: op.EffectiveDate,
	}, nil
}

// Describe renders where a price came from, e.g.
// "Sysco #F-100 (AP Flour, King) @ 2024-03-01".
func Describe(op catalog.OfferPrice) string {
	var b strings.Builder

	b.WriteString(op.DistributorName)
	if op.DistributorSKU != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("#" + op.DistributorSKU)
	}

	product := op.ProductName
	if op.Brand != "" {
		product += ", " + op.Brand
	}
	if product != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("(" + product + ")")
	}

	if !op.EffectiveDate.IsZero() {
		b.WriteString(" @ " + op.EffectiveDate.Format("2006-01-02"))
	}
	return strings.TrimSpace(b.String())
}
