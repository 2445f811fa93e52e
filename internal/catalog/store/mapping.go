package store

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// formatPrice renders a stored amount with exactly two decimals, truncating
// any extra precision.
func formatPrice(d decimal.Decimal) string {
	return d.Truncate(2).StringFixed(2)
}

func rowToProduct(row productRow, categories []catalog.Category) catalog.Product {
	p := catalog.Product{
		ID:              row.Record.ID,
		SKU:             row.Record.SKU,
		Title:           row.Record.Title,
		Vendor:          catalog.Vendor{Vendor: row.Record.Vendor},
		DescriptionHTML: row.Record.DescriptionHTML,
		Price:           catalog.UsdPrice{UsdAmount: formatPrice(row.Record.Price)},
		Options:         nonNil([]catalog.Option(row.Record.Options)),
		Variants:        nonNil([]catalog.Variant(row.Record.Variants)),
		Colors:          splitColors(row.ProductColors.String),
		Images:          dedupeImages(row.Record.Images),
		Specifications: catalog.Specifications{
			GroundClearance: specString(row.Record.GroundClearance),
			WeightCapacity:  specString(row.Record.WeightCapacity),
			TurningRadius:   specString(row.Record.TurningRadius),
			Range:           specString(row.Record.TravelRange),
			MaxSpeed:        specString(row.Record.MaxSpeed),
			Wheels:          specString(row.Record.Wheels),
		},
		Categories:   categories,
		PublishedAt:  catalog.UnixMillis(row.Record.PublishedAtUnixMs),
		Model:        row.Record.Model,
		ProductType:  row.Record.ProductType,
		ModelImage:   row.Record.ModelImage,
		VendorFilter: row.Record.VendorFilter,
	}
	if row.Record.ListPrice.Valid {
		p.ListPrice = &catalog.UsdPrice{UsdAmount: formatPrice(row.Record.ListPrice.Decimal)}
	}
	return p
}

// splitColors turns a comma-joined aggregate into sorted colors.
func splitColors(aggregate string) []catalog.Color {
	var names []string
	for _, part := range strings.Split(aggregate, ",") {
		if part != "" {
			names = append(names, part)
		}
	}
	sort.Strings(names)
	names = slices.Compact(names)

	out := make([]catalog.Color, len(names))
	for i, name := range names {
		out[i] = catalog.Color{Color: name}
	}
	return out
}

// dedupeImages keeps one image per URL: the position of the first
// occurrence with the value of the last.
func dedupeImages(images []catalog.Image) []catalog.Image {
	index := make(map[string]int, len(images))
	out := make([]catalog.Image, 0, len(images))
	for _, img := range images {
		if i, ok := index[img.URL]; ok {
			out[i] = img
			continue
		}
		index[img.URL] = len(out)
		out = append(out, img)
	}
	return out
}

func specString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// productToRecord validates prices and canonicalizes specification numbers.
// Non-numeric specifications are stored as unknown.
func productToRecord(p catalog.Product, salesRank int64) (productRecord, error) {
	price, err := decimal.NewFromString(p.Price.UsdAmount)
	if err != nil {
		return productRecord{}, pkgerrors.Wrap(pkgerrors.CodeUpstreamData, err, fmt.Sprintf("product %s has malformed price %q", p.ID, p.Price.UsdAmount))
	}
	var listPrice decimal.NullDecimal
	if p.ListPrice != nil {
		lp, err := decimal.NewFromString(p.ListPrice.UsdAmount)
		if err != nil {
			return productRecord{}, pkgerrors.Wrap(pkgerrors.CodeUpstreamData, err, fmt.Sprintf("product %s has malformed list price %q", p.ID, p.ListPrice.UsdAmount))
		}
		listPrice = decimal.NewNullDecimal(lp)
	}

	return productRecord{
		ID:                p.ID,
		SKU:               p.SKU,
		Title:             p.Title,
		Vendor:            p.Vendor.Vendor,
		Price:             price,
		ListPrice:         listPrice,
		Options:           datatypes.NewJSONSlice(nonNil(p.Options)),
		Variants:          datatypes.NewJSONSlice(nonNil(p.Variants)),
		Images:            datatypes.NewJSONSlice(nonNil(p.Images)),
		GroundClearance:   specDecimal(p.Specifications.GroundClearance),
		WeightCapacity:    specDecimal(p.Specifications.WeightCapacity),
		TurningRadius:     specDecimal(p.Specifications.TurningRadius),
		TravelRange:       specDecimal(p.Specifications.Range),
		MaxSpeed:          specDecimal(p.Specifications.MaxSpeed),
		Wheels:            specDecimal(p.Specifications.Wheels),
		PublishedAtUnixMs: int64(p.PublishedAt),
		SalesRank:         salesRank,
		DescriptionHTML:   p.DescriptionHTML,
		Model:             p.Model,
		ProductType:       p.ProductType,
		ModelImage:        p.ModelImage,
		VendorFilter:      p.VendorFilter,
	}, nil
}

func specDecimal(s *string) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
