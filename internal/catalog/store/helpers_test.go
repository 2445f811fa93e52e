package store

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Driver:          config.DriverSQLite,
		DSN:             filepath.Join(t.TempDir(), "catalog.sqlite"),
		BusyRetryDelays: []time.Duration{time.Millisecond, 5 * time.Millisecond},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, sqlDB, config.DriverSQLite))
	return client
}

type testStore struct {
	client *db.Client
	repo   *Repository
	writer *Writer
}

func newTestStore(t *testing.T) testStore {
	t.Helper()
	client := newTestClient(t)
	return testStore{
		client: client,
		repo:   NewRepository(client, nil, nil),
		writer: NewWriter(client, nil, nil),
	}
}

func (s testStore) replace(t *testing.T, ranks catalog.SalesRanks, products ...catalog.Product) {
	t.Helper()
	_, err := s.writer.ReplaceData(context.Background(), seqOf(products...), ranks)
	require.NoError(t, err)
}

func seqOf(products ...catalog.Product) iter.Seq2[catalog.Product, error] {
	return func(yield func(catalog.Product, error) bool) {
		for _, p := range products {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// failingSeq yields products and then fails, like an upstream page fetch
// breaking mid-stream.
func failingSeq(products ...catalog.Product) iter.Seq2[catalog.Product, error] {
	return func(yield func(catalog.Product, error) bool) {
		for _, p := range products {
			if !yield(p, nil) {
				return
			}
		}
		yield(catalog.Product{}, errors.New("upstream page fetch failed"))
	}
}

func str(s string) *string { return &s }

type productOption func(*catalog.Product)

func withCategories(ids ...string) productOption {
	return func(p *catalog.Product) {
		p.Categories = nil
		for _, id := range ids {
			p.Categories = append(p.Categories, catalog.Category{ID: id, Title: "Title " + id})
		}
	}
}

func withColors(colors ...string) productOption {
	return func(p *catalog.Product) {
		p.Colors = nil
		for _, c := range colors {
			p.Colors = append(p.Colors, catalog.Color{Color: c})
		}
	}
}

func withVendor(v string) productOption {
	return func(p *catalog.Product) { p.Vendor = catalog.Vendor{Vendor: v} }
}

func withTitle(title string) productOption {
	return func(p *catalog.Product) { p.Title = title }
}

func withSpecs(specs catalog.Specifications) productOption {
	return func(p *catalog.Product) { p.Specifications = specs }
}

func withPublished(ms int64) productOption {
	return func(p *catalog.Product) { p.PublishedAt = catalog.UnixMillis(ms) }
}

func withListPrice(amount string) productOption {
	return func(p *catalog.Product) { p.ListPrice = &catalog.UsdPrice{UsdAmount: amount} }
}

func makeProduct(id, price string, opts ...productOption) catalog.Product {
	p := catalog.Product{
		ID:              id,
		SKU:             "gid://shopify/Product/" + id,
		Title:           "Product " + id,
		Vendor:          catalog.Vendor{Vendor: "Pride"},
		DescriptionHTML: "<p>" + id + "</p>",
		Price:           catalog.UsdPrice{UsdAmount: price},
		Options: []catalog.Option{
			{OptionName: "Color", OptionValues: []string{"Red", "Blue"}},
		},
		Variants: []catalog.Variant{
			{
				VariantID:       id + "-red",
				SelectedOptions: []catalog.SelectedOption{{OptionName: "Color", OptionValue: "Red"}},
				Price:           catalog.UsdPrice{UsdAmount: price},
			},
			{
				VariantID:       id + "-blue",
				SelectedOptions: []catalog.SelectedOption{{OptionName: "Color", OptionValue: "Blue"}},
				Price:           catalog.UsdPrice{UsdAmount: price},
			},
		},
		Colors:      []catalog.Color{{Color: "Red"}, {Color: "Blue"}},
		Images:      []catalog.Image{{URL: "https://cdn.example.com/" + id + ".jpg", AltText: id}},
		Categories:  []catalog.Category{{ID: "mobility", Title: "Mobility"}},
		PublishedAt: catalog.UnixMillis(1700000000000),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func ids(products []catalog.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
