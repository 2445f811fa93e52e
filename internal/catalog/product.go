package catalog

import (
	"fmt"
	"math"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// MissingSalesRank is assigned to products absent from the ranking so they
// sort after every ranked product.
const MissingSalesRank int64 = math.MaxInt64

// newProductWindow is how long after publication a product counts as new.
const newProductWindow = 31 * 24 * time.Hour

// SalesRanks maps product id to its zero-based best-selling position.
type SalesRanks map[string]int64

// Rank returns the product's rank or MissingSalesRank.
func (r SalesRanks) Rank(productID string) int64 {
	if rank, ok := r[productID]; ok {
		return rank
	}
	return MissingSalesRank
}

type UsdPrice struct {
	UsdAmount string `json:"usdAmount"`
}

type Vendor struct {
	Vendor string `json:"vendor"`
}

type Color struct {
	Color string `json:"color"`
}

type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

// Option is a named axis with its ordered possible values, e.g. Color.
type Option struct {
	OptionName   string   `json:"optionName"`
	OptionValues []string `json:"optionValues"`
}

type SelectedOption struct {
	OptionName  string `json:"optionName"`
	OptionValue string `json:"optionValue"`
}

type Variant struct {
	VariantID       string           `json:"variantId"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
	Price           UsdPrice         `json:"price"`
}

// Specifications holds numeric-as-string measurements. Nil means unknown.
type Specifications struct {
	GroundClearance *string `json:"groundClearance"`
	WeightCapacity  *string `json:"weightCapacity"`
	TurningRadius   *string `json:"turningRadius"`
	Range           *string `json:"range"`
	MaxSpeed        *string `json:"maxSpeed"`
	Wheels          *string `json:"wheels"`
}

// IsEmpty reports whether no specification is known.
func (s Specifications) IsEmpty() bool {
	return s.GroundClearance == nil && s.WeightCapacity == nil && s.TurningRadius == nil &&
		s.Range == nil && s.MaxSpeed == nil && s.Wheels == nil
}

// UnixMillis is a publication timestamp in milliseconds since the epoch.
type UnixMillis int64

func FromTime(t time.Time) UnixMillis {
	return UnixMillis(t.UnixMilli())
}

func (u UnixMillis) Time() time.Time {
	return time.UnixMilli(int64(u)).UTC()
}

type Product struct {
	ID              string         `json:"id"`
	SKU             string         `json:"sku"`
	Title           string         `json:"title"`
	Vendor          Vendor         `json:"vendor"`
	DescriptionHTML string         `json:"descriptionHtml"`
	Price           UsdPrice       `json:"price"`
	ListPrice       *UsdPrice      `json:"listPrice"`
	Options         []Option       `json:"options"`
	Variants        []Variant      `json:"variants"`
	Colors          []Color        `json:"colors"`
	Images          []Image        `json:"images"`
	Specifications  Specifications `json:"specifications"`
	// Categories is nil when the read path did not load them.
	Categories   []Category `json:"categories"`
	PublishedAt  UnixMillis `json:"publishedAtUnixMs"`
	Model        string     `json:"model"`
	ProductType  string     `json:"productType"`
	ModelImage   string     `json:"modelImage"`
	VendorFilter string     `json:"vendorFilter"`
}

// Validate checks the invariants every stored product must satisfy: an id,
// at least one variant, and variants that select a value for every option
// axis.
func (p Product) Validate() error {
	if p.ID == "" {
		return pkgerrors.New(pkgerrors.CodeUpstreamData, "product id is required")
	}
	if len(p.Variants) == 0 {
		return pkgerrors.New(pkgerrors.CodeUpstreamData, fmt.Sprintf("product %s has no variants", p.ID))
	}
	for _, variant := range p.Variants {
		for _, option := range p.Options {
			if _, ok := GetOption(variant.SelectedOptions, option.OptionName); !ok {
				return pkgerrors.New(pkgerrors.CodeUpstreamData,
					fmt.Sprintf("product %s variant %s has no value for option %q", p.ID, variant.VariantID, option.OptionName))
			}
		}
	}
	return nil
}

// IsOnSale reports whether a compare-at price is present.
func (p Product) IsOnSale() bool {
	return p.ListPrice != nil
}

// IsNew reports whether the product was published within the last 31 days.
func (p Product) IsNew(now time.Time) bool {
	return now.Sub(p.PublishedAt.Time()) < newProductWindow
}

// DefaultSelectedOptions picks the first value of every option axis.
func (p Product) DefaultSelectedOptions() []SelectedOption {
	out := make([]SelectedOption, 0, len(p.Options))
	for _, option := range p.Options {
		value := ""
		if len(option.OptionValues) > 0 {
			value = option.OptionValues[0]
		}
		out = append(out, SelectedOption{OptionName: option.OptionName, OptionValue: value})
	}
	return out
}

// SelectedVariant returns the variant matching every selected option, or the
// first variant when none does.
func (p Product) SelectedVariant(selected []SelectedOption) (Variant, bool) {
	if len(p.Variants) == 0 {
		return Variant{}, false
	}
	for _, variant := range p.Variants {
		if variantMatches(variant, selected) {
			return variant, true
		}
	}
	return p.Variants[0], true
}

func variantMatches(variant Variant, selected []SelectedOption) bool {
	for _, want := range selected {
		value, ok := GetOption(variant.SelectedOptions, want.OptionName)
		if !ok || value != want.OptionValue {
			return false
		}
	}
	return true
}

// SetOption returns a copy of selected with name set to value.
func SetOption(selected []SelectedOption, name, value string) []SelectedOption {
	out := make([]SelectedOption, len(selected))
	for i, option := range selected {
		if option.OptionName == name {
			option.OptionValue = value
		}
		out[i] = option
	}
	return out
}

// GetOption looks up the selected value for name.
func GetOption(selected []SelectedOption, name string) (string, bool) {
	for _, option := range selected {
		if option.OptionName == name {
			return option.OptionValue, true
		}
	}
	return "", false
}
