package shopify

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// titleOption is the placeholder axis Shopify adds to single-variant products.
const titleOption = "Title"

// isHidden matches products that only exist to back the product options app.
func isHidden(node productNode) bool {
	description := strings.ToLower(node.DescriptionHTML)
	return strings.Contains(description, "hidden product") &&
		strings.Contains(description, "product options application")
}

func toProduct(node productNode) (catalog.Product, error) {
	if len(node.Variants.Edges) == 0 {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeUpstreamData,
			fmt.Sprintf("expected at least one variant for product %s %s, but there were none", node.Title, node.Handle))
	}
	first := node.Variants.Edges[0].Node

	price, err := toPrice(first.PriceV2)
	if err != nil {
		return catalog.Product{}, err
	}
	if price == nil {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeUpstreamData, fmt.Sprintf("product %s has no price", node.Handle))
	}
	listPrice, err := toPrice(first.CompareAtPrice)
	if err != nil {
		return catalog.Product{}, err
	}
	variants, err := toVariants(node)
	if err != nil {
		return catalog.Product{}, err
	}
	publishedAt, err := time.Parse(time.RFC3339, node.PublishedAt)
	if err != nil {
		return catalog.Product{}, pkgerrors.Wrap(pkgerrors.CodeUpstreamData, err, fmt.Sprintf("product %s has malformed publishedAt", node.Handle))
	}

	metafields := make(map[string]string, len(node.Metafields.Edges))
	for _, edge := range node.Metafields.Edges {
		if edge.Node != nil {
			metafields[edge.Node.Key] = edge.Node.Value
		}
	}

	categories := make([]catalog.Category, 0, len(node.Collections.Edges))
	for _, edge := range node.Collections.Edges {
		categories = append(categories, catalog.Category{ID: edge.Node.Handle, Title: edge.Node.Title})
	}

	images := make([]catalog.Image, 0, len(node.Media.Edges))
	for _, edge := range node.Media.Edges {
		preview := edge.Node.PreviewImage
		if preview == nil || preview.Src == "" {
			continue
		}
		images = append(images, catalog.Image{URL: preview.Src, AltText: preview.AltText})
	}

	return catalog.Product{
		ID:              node.Handle,
		SKU:             node.ID,
		Title:           node.Title,
		Vendor:          catalog.Vendor{Vendor: node.Vendor},
		DescriptionHTML: node.DescriptionHTML,
		Price:           *price,
		ListPrice:       listPrice,
		Options:         toOptions(node.Options),
		Variants:        variants,
		Colors:          parseColors(node.Options),
		Images:          images,
		Specifications:  parseSpecifications(node.Tags),
		Categories:      categories,
		PublishedAt:     catalog.FromTime(publishedAt),
		Model:           metafields["model"],
		ProductType:     metafields["product_type"],
		ModelImage:      metafields["model_image"],
		VendorFilter:    metafields["brand"],
	}, nil
}

// toPrice accepts only USD amounts. A nil price maps to nil.
func toPrice(m *money) (*catalog.UsdPrice, error) {
	if m == nil {
		return nil, nil
	}
	if m.CurrencyCode != "USD" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamData, fmt.Sprintf("unexpected currency code %q, expected \"USD\"", m.CurrencyCode))
	}
	if _, err := decimal.NewFromString(m.Amount); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamData, err, fmt.Sprintf("malformed price %q", m.Amount))
	}
	return &catalog.UsdPrice{UsdAmount: m.Amount}, nil
}

func toOptions(options []optionNode) []catalog.Option {
	out := make([]catalog.Option, 0, len(options))
	for _, option := range options {
		if option.Name == titleOption {
			continue
		}
		out = append(out, catalog.Option{OptionName: option.Name, OptionValues: option.Values})
	}
	return out
}

func toVariants(node productNode) ([]catalog.Variant, error) {
	out := make([]catalog.Variant, 0, len(node.Variants.Edges))
	for _, edge := range node.Variants.Edges {
		v := edge.Node
		price, err := toPrice(v.PriceV2)
		if err != nil {
			return nil, err
		}
		if price == nil {
			return nil, pkgerrors.New(pkgerrors.CodeUpstreamData, fmt.Sprintf("variant %s of product %s has no price", v.ID, node.Handle))
		}
		selected := make([]catalog.SelectedOption, 0, len(v.SelectedOptions))
		for _, option := range v.SelectedOptions {
			selected = append(selected, catalog.SelectedOption{OptionName: option.Name, OptionValue: option.Value})
		}
		out = append(out, catalog.Variant{VariantID: v.ID, SelectedOptions: selected, Price: *price})
	}
	return out, nil
}

// parseColors reads the values of the color option, capitalizing each word.
func parseColors(options []optionNode) []catalog.Color {
	for _, option := range options {
		if strings.ToLower(option.Name) != "color" {
			continue
		}
		out := make([]catalog.Color, len(option.Values))
		for i, value := range option.Values {
			out[i] = catalog.Color{Color: capitalizeWords(value)}
		}
		return out
	}
	return []catalog.Color{}
}

func capitalizeWords(s string) string {
	words := strings.Split(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s), " ")
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// parseSpecifications reads "key:value" and "value-key" tags. Later tags
// win; non-numeric values are dropped.
func parseSpecifications(tags []string) catalog.Specifications {
	parsed := map[string]string{}
	for _, tag := range tags {
		var parts []string
		switch {
		case strings.Contains(tag, ":"):
			parts = strings.Split(tag, ":")
		case strings.Contains(tag, "-"):
			parts = strings.Split(tag, "-")
			if len(parts) == 2 {
				parts[0], parts[1] = parts[1], parts[0]
			}
		}
		if len(parts) != 2 {
			continue
		}
		parsed[parts[0]] = strings.TrimSpace(parts[1])
	}

	spec := func(key string) *string {
		value, ok := parsed[key]
		if !ok {
			return nil
		}
		if _, err := decimal.NewFromString(value); err != nil {
			return nil
		}
		return &value
	}
	return catalog.Specifications{
		GroundClearance: spec("groundclearance"),
		WeightCapacity:  spec("weightcapacity"),
		TurningRadius:   spec("turningradius"),
		Range:           spec("range"),
		MaxSpeed:        spec("speed"),
		Wheels:          spec("wheel"),
	}
}
