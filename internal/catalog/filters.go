package catalog

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type OrderBy string

const (
	OrderDefault         OrderBy = "default"
	OrderNewest          OrderBy = "newest"
	OrderBestSelling     OrderBy = "bestSelling"
	OrderPriceAscending  OrderBy = "priceAscending"
	OrderPriceDescending OrderBy = "priceDescending"
)

// ParseOrderBy maps a request value to an OrderBy. Empty means default.
func ParseOrderBy(value string) (OrderBy, error) {
	order := OrderBy(strings.TrimSpace(value))
	if order == "" {
		return OrderDefault, nil
	}
	if !order.Valid() {
		return "", pkgerrors.New(pkgerrors.CodeInvalidArgument, fmt.Sprintf("unknown order by key %q", value))
	}
	return order, nil
}

func (o OrderBy) Valid() bool {
	switch o {
	case OrderDefault, OrderNewest, OrderBestSelling, OrderPriceAscending, OrderPriceDescending:
		return true
	}
	return false
}

// Range is an inclusive interval. A nil bound is open on that side.
type Range struct {
	From *string `json:"from" yaml:"from"`
	To   *string `json:"to" yaml:"to"`
}

// NewRange builds a range from optional bounds; empty strings are open.
func NewRange(from, to string) Range {
	var r Range
	if from != "" {
		r.From = &from
	}
	if to != "" {
		r.To = &to
	}
	return r
}

// Validate requires at least one bound and numeric bounds.
func (r Range) Validate() error {
	if r.From == nil && r.To == nil {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, "range needs a from or to bound")
	}
	for _, bound := range []*string{r.From, r.To} {
		if bound == nil {
			continue
		}
		if _, err := decimal.NewFromString(*bound); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, fmt.Sprintf("range bound %q is not a number", *bound))
		}
	}
	return nil
}

// Equal compares bounds by value.
func (r Range) Equal(other Range) bool {
	return ptrEqual(r.From, other.From) && ptrEqual(r.To, other.To)
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type Filters struct {
	CategoryIDs     []string `json:"categoryIds"`
	Price           []Range  `json:"price"`
	Wheels          []string `json:"wheels"`
	Vendor          []Vendor `json:"vendor"`
	GroundClearance []Range  `json:"groundClearance"`
	Color           []Color  `json:"color"`
	WeightCapacity  []Range  `json:"weightCapacity"`
	TurningRadius   []Range  `json:"turningRadius"`
	TravelRange     []Range  `json:"travelRange"`
	MaxSpeed        []Range  `json:"maxSpeed"`
	Search          string   `json:"search"`
}

// CategoryFilters scopes a query to the given categories only.
func CategoryFilters(ids ...string) *Filters {
	return &Filters{CategoryIDs: ids}
}

// Validate checks every range and wheel value.
func (f *Filters) Validate() error {
	if f == nil {
		return nil
	}
	for name, ranges := range f.rangeFields() {
		for _, r := range ranges {
			if err := r.Validate(); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, fmt.Sprintf("invalid %s filter", name))
			}
		}
	}
	for _, w := range f.Wheels {
		if _, err := decimal.NewFromString(w); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, fmt.Sprintf("wheels value %q is not a number", w))
		}
	}
	return nil
}

func (f *Filters) rangeFields() map[string][]Range {
	return map[string][]Range{
		"price":           f.Price,
		"groundClearance": f.GroundClearance,
		"weightCapacity":  f.WeightCapacity,
		"turningRadius":   f.TurningRadius,
		"travelRange":     f.TravelRange,
		"maxSpeed":        f.MaxSpeed,
	}
}

// PageRequest selects one page of products.
type PageRequest struct {
	OrderBy    OrderBy
	PageSize   int
	PageNumber int
	Filters    *Filters
}

func (r PageRequest) Pagination() pagination.Params {
	return pagination.Params{PageSize: r.PageSize, PageNumber: r.PageNumber}
}

// Validate checks the order key, pagination and filters.
func (r PageRequest) Validate() error {
	if !r.OrderBy.Valid() {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, fmt.Sprintf("unknown order by key %q", r.OrderBy))
	}
	if err := r.Pagination().Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid pagination")
	}
	return r.Filters.Validate()
}

// CountRequest counts pages for a filter. OrderBy does not affect the count.
type CountRequest struct {
	OrderBy  OrderBy
	PageSize int
	Filters  *Filters
}

func (r CountRequest) Validate() error {
	if !r.OrderBy.Valid() {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, fmt.Sprintf("unknown order by key %q", r.OrderBy))
	}
	if r.PageSize <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, fmt.Sprintf("page size must be positive, got %d", r.PageSize))
	}
	return r.Filters.Validate()
}
