package catalog

import (
	"context"
	"iter"
)

// Repository is the read side of the catalog.
type Repository interface {
	GetProductsPage(ctx context.Context, req PageRequest) ([]Product, error)
	CountProductsPages(ctx context.Context, req CountRequest) (int, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	GetRelatedProducts(ctx context.Context, category Category, productID string, price UsdPrice, count int) ([]Product, error)
	GetVendorsForCategories(ctx context.Context, categoryIDs []string) ([]Vendor, error)
	GetColorsForCategories(ctx context.Context, categoryIDs []string) ([]Color, error)
	CountProductsInCategory(ctx context.Context, categoryID string) (int64, error)
}

// ReplaceStats summarizes a committed catalog replace.
type ReplaceStats struct {
	Products   int
	Categories int
	Colors     int
}

// Writer atomically swaps the stored catalog for a new snapshot.
type Writer interface {
	ReplaceData(ctx context.Context, products iter.Seq2[Product, error], ranks SalesRanks) (ReplaceStats, error)
}

// Source is the upstream the catalog is synchronized from. The product
// sequence is lazy and may only be ranged over once.
type Source interface {
	GetProducts(ctx context.Context) iter.Seq2[Product, error]
	GetSalesRanks(ctx context.Context) (SalesRanks, error)
}
