package query

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Conditions is the pair of predicates derived from a filter: row filters
// for WHERE and aggregate filters for HAVING.
type Conditions struct {
	Where  Predicate
	Having Predicate
}

// Build folds every non-empty filter dimension into Conditions. A nil filter
// matches everything.
func Build(f *catalog.Filters) (Conditions, error) {
	if f == nil {
		return Conditions{Where: And(), Having: And()}, nil
	}

	wheels, err := numbers("wheels", f.Wheels)
	if err != nil {
		return Conditions{}, err
	}
	vendors := make([]string, len(f.Vendor))
	for i, v := range f.Vendor {
		vendors[i] = v.Vendor
	}
	colors := make([]string, len(f.Color))
	for i, c := range f.Color {
		colors[i] = c.Color
	}

	ranges := []struct {
		name   string
		col    Column
		ranges []catalog.Range
	}{
		{"price", Price, f.Price},
		{"groundClearance", GroundClearance, f.GroundClearance},
		{"weightCapacity", WeightCapacity, f.WeightCapacity},
		{"turningRadius", TurningRadius, f.TurningRadius},
		{"travelRange", TravelRange, f.TravelRange},
		{"maxSpeed", MaxSpeed, f.MaxSpeed},
	}

	where := []Predicate{
		ContainsFold(Title, f.Search),
		In(CategoryID, f.CategoryIDs),
		In(Wheels, wheels),
		In(Vendor, vendors),
	}
	for _, r := range ranges {
		p, err := RangeUnion(r.col, r.ranges)
		if err != nil {
			return Conditions{}, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, fmt.Sprintf("invalid %s filter", r.name))
		}
		where = append(where, p)
	}

	return Conditions{
		Where:  And(where...),
		Having: AggregateContainsAny(ColorValue, colors),
	}, nil
}

// RangeUnion ORs one AND-of-bounds predicate per range. Bounds are bound as
// numbers so string bounds compare numerically on every store.
func RangeUnion(col Column, ranges []catalog.Range) (Predicate, error) {
	alternatives := make([]Predicate, 0, len(ranges))
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		var bounds []Predicate
		if r.From != nil {
			bounds = append(bounds, Gte(col, mustFloat(*r.From)))
		}
		if r.To != nil {
			bounds = append(bounds, Lte(col, mustFloat(*r.To)))
		}
		alternatives = append(alternatives, And(bounds...))
	}
	return Or(alternatives...), nil
}

func numbers(name string, values []string) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, fmt.Sprintf("%s value %q is not a number", name, v))
		}
		out = append(out, d.InexactFloat64())
	}
	return out, nil
}

// mustFloat converts a bound already accepted by Range.Validate.
func mustFloat(s string) float64 {
	return decimal.RequireFromString(s).InexactFloat64()
}
