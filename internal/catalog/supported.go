package catalog

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SupportedFilters declares which filter dimensions a category enables and
// the ranges offered for each numeric one.
type SupportedFilters struct {
	Price           []Range  `json:"price" yaml:"price"`
	Wheels          []string `json:"wheels" yaml:"wheels"`
	Color           bool     `json:"color" yaml:"color"`
	Vendor          bool     `json:"vendor" yaml:"vendor"`
	GroundClearance []Range  `json:"groundClearance" yaml:"groundClearance"`
	WeightCapacity  []Range  `json:"weightCapacity" yaml:"weightCapacity"`
	TurningRadius   []Range  `json:"turningRadius" yaml:"turningRadius"`
	TravelRange     []Range  `json:"travelRange" yaml:"travelRange"`
	MaxSpeed        []Range  `json:"maxSpeed" yaml:"maxSpeed"`
}

func (f SupportedFilters) validate() error {
	fields := map[string][]Range{
		"price":           f.Price,
		"groundClearance": f.GroundClearance,
		"weightCapacity":  f.WeightCapacity,
		"turningRadius":   f.TurningRadius,
		"travelRange":     f.TravelRange,
		"maxSpeed":        f.MaxSpeed,
	}
	for name, ranges := range fields {
		for _, r := range ranges {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

type SupportedCategory struct {
	ID               string           `json:"id" yaml:"id"`
	Title            string           `json:"title" yaml:"title"`
	Image            string           `json:"image,omitempty" yaml:"image"`
	SupportedFilters SupportedFilters `json:"supportedFilters" yaml:"supportedFilters"`
}

type SupportedCategoryWithSubcategories struct {
	SupportedCategory `yaml:",inline"`
	Subcategories     []SupportedCategory `json:"subcategories" yaml:"subcategories"`
}

// SupportedCategories is the two-level category tree offered to shoppers.
// The catch-all category lists every product and is left out of primary
// category resolution.
type SupportedCategories struct {
	Categories []SupportedCategoryWithSubcategories `json:"categories" yaml:"categories"`
	CatchAllID string                               `json:"catchAllId,omitempty" yaml:"catchAllId"`
}

// LoadSupportedCategories reads the category tree from a YAML file.
func LoadSupportedCategories(path string) (*SupportedCategories, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read supported categories: %w", err)
	}
	return ParseSupportedCategories(raw)
}

func ParseSupportedCategories(raw []byte) (*SupportedCategories, error) {
	var sc SupportedCategories
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse supported categories: %w", err)
	}
	seen := map[string]struct{}{}
	for _, c := range sc.Flatten() {
		if c.ID == "" {
			return nil, fmt.Errorf("supported category %q has no id", c.Title)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("supported category id %q is declared twice", c.ID)
		}
		seen[c.ID] = struct{}{}
		if err := c.SupportedFilters.validate(); err != nil {
			return nil, fmt.Errorf("supported category %q: %w", c.ID, err)
		}
	}
	return &sc, nil
}

// WithoutCatchAll returns the top-level categories minus the catch-all one.
func (s *SupportedCategories) WithoutCatchAll() []SupportedCategoryWithSubcategories {
	out := make([]SupportedCategoryWithSubcategories, 0, len(s.Categories))
	for _, c := range s.Categories {
		if s.CatchAllID != "" && c.ID == s.CatchAllID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Flatten lists every category, each top-level one followed by its
// subcategories.
func (s *SupportedCategories) Flatten() []SupportedCategory {
	var out []SupportedCategory
	for _, c := range s.Categories {
		out = append(out, c.SupportedCategory)
		out = append(out, c.Subcategories...)
	}
	return out
}

func (s *SupportedCategories) CategoryByID(id string) (SupportedCategory, bool) {
	for _, c := range s.Flatten() {
		if c.ID == id {
			return c, true
		}
	}
	return SupportedCategory{}, false
}

// Subcategories returns the children of a top-level category, or nil.
func (s *SupportedCategories) Subcategories(categoryID string) []SupportedCategory {
	for _, c := range s.Categories {
		if c.ID == categoryID {
			return c.Subcategories
		}
	}
	return nil
}

// SupportedFiltersFor merges the filter declarations of every listed
// category found anywhere in the tree.
func (s *SupportedCategories) SupportedFiltersFor(categoryIDs []string) SupportedFilters {
	var all []SupportedFilters
	for _, c := range s.Flatten() {
		if slices.Contains(categoryIDs, c.ID) {
			all = append(all, c.SupportedFilters)
		}
	}
	return MergeSupportedFilters(all...)
}

// PrimaryCategory is the first of the product's categories that is a
// top-level category other than the catch-all.
func (s *SupportedCategories) PrimaryCategory(p Product) (Category, bool) {
	top := s.WithoutCatchAll()
	for _, c := range p.Categories {
		for _, supported := range top {
			if supported.ID == c.ID {
				return c, true
			}
		}
	}
	return Category{}, false
}

// MergeSupportedFilters unions several declarations: ranges are deduplicated
// and sorted by numeric lower bound (open counts as 0), enum values are
// deduplicated and sorted, flags are OR'd.
func MergeSupportedFilters(filters ...SupportedFilters) SupportedFilters {
	out := SupportedFilters{
		Price:           []Range{},
		Wheels:          []string{},
		GroundClearance: []Range{},
		WeightCapacity:  []Range{},
		TurningRadius:   []Range{},
		TravelRange:     []Range{},
		MaxSpeed:        []Range{},
	}
	for _, f := range filters {
		out = SupportedFilters{
			Price:           uniqueSortedRanges(out.Price, f.Price),
			Wheels:          uniqueSortedValues(out.Wheels, f.Wheels),
			Color:           out.Color || f.Color,
			Vendor:          out.Vendor || f.Vendor,
			GroundClearance: uniqueSortedRanges(out.GroundClearance, f.GroundClearance),
			WeightCapacity:  uniqueSortedRanges(out.WeightCapacity, f.WeightCapacity),
			TurningRadius:   uniqueSortedRanges(out.TurningRadius, f.TurningRadius),
			TravelRange:     uniqueSortedRanges(out.TravelRange, f.TravelRange),
			MaxSpeed:        uniqueSortedRanges(out.MaxSpeed, f.MaxSpeed),
		}
	}
	return out
}

func uniqueSortedValues(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Strings(out)
	return slices.Compact(out)
}

func uniqueSortedRanges(a, b []Range) []Range {
	out := make([]Range, 0, len(a)+len(b))
	for _, r := range append(slices.Clone(a), b...) {
		if !slices.ContainsFunc(out, r.Equal) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lowerBound(out[i]).LessThan(lowerBound(out[j]))
	})
	return out
}

func lowerBound(r Range) decimal.Decimal {
	if r.From == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*r.From)
	if err != nil {
		return decimal.Zero
	}
	return d
}
