package store

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/catalog/query"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

var _ catalog.Repository = (*Repository)(nil)

// Repository executes catalog reads against the shared store.
type Repository struct {
	client  *db.Client
	dialect query.Dialect
	logg    *logger.Logger
	metrics *metrics.CatalogMetrics
}

// NewRepository builds a repository tied to the provided client.
func NewRepository(client *db.Client, logg *logger.Logger, m *metrics.CatalogMetrics) *Repository {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Repository{
		client:  client,
		dialect: query.DialectFor(client.Dialect()),
		logg:    logg,
		metrics: m,
	}
}

func (r *Repository) GetProductsPage(ctx context.Context, req catalog.PageRequest) ([]catalog.Product, error) {
	stmt, err := query.ProductsPage(r.dialect, req)
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := r.scan(ctx, "products_page", stmt, &rows); err != nil {
		return nil, err
	}
	return rowsToProducts(rows), nil
}

func (r *Repository) CountProductsPages(ctx context.Context, req catalog.CountRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	stmt, err := query.CountMatching(r.dialect, req.Filters)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.scan(ctx, "count_products_pages", stmt, &count); err != nil {
		return 0, err
	}
	return pagination.PageCount(count, req.PageSize), nil
}

// GetProduct loads one product and, with a second query, its categories.
func (r *Repository) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var rows []productRow
	if err := r.scan(ctx, "product", query.ProductByID(r.dialect, id), &rows); err != nil {
		return catalog.Product{}, err
	}
	if len(rows) == 0 {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
	}

	var categoryRows []categoryRecord
	if err := r.scan(ctx, "product_categories", query.ProductCategories(id), &categoryRows); err != nil {
		return catalog.Product{}, err
	}
	categories := make([]catalog.Category, len(categoryRows))
	for i, c := range categoryRows {
		categories[i] = catalog.Category{ID: c.ID, Title: c.Title}
	}
	return rowToProduct(rows[0], categories), nil
}

func (r *Repository) GetRelatedProducts(ctx context.Context, category catalog.Category, productID string, price catalog.UsdPrice, count int) ([]catalog.Product, error) {
	stmt, err := query.RelatedProducts(r.dialect, category.ID, productID, price, count)
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := r.scan(ctx, "related_products", stmt, &rows); err != nil {
		return nil, err
	}
	return rowsToProducts(rows), nil
}

func (r *Repository) GetVendorsForCategories(ctx context.Context, categoryIDs []string) ([]catalog.Vendor, error) {
	var rows []vendorRow
	if err := r.scan(ctx, "vendors_for_categories", query.VendorsForCategories(r.dialect, categoryIDs), &rows); err != nil {
		return nil, err
	}
	out := make([]catalog.Vendor, len(rows))
	for i, row := range rows {
		out[i] = catalog.Vendor{Vendor: row.Vendor}
	}
	return out, nil
}

func (r *Repository) GetColorsForCategories(ctx context.Context, categoryIDs []string) ([]catalog.Color, error) {
	var rows []colorRow
	if err := r.scan(ctx, "colors_for_categories", query.ColorsForCategories(r.dialect, categoryIDs), &rows); err != nil {
		return nil, err
	}
	out := make([]catalog.Color, len(rows))
	for i, row := range rows {
		out[i] = catalog.Color{Color: row.Color}
	}
	return out, nil
}

func (r *Repository) CountProductsInCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	if err := r.scan(ctx, "count_products_in_category", query.CountInCategory(categoryID), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// scan runs stmt under the busy-retry policy and decodes the result into
// dest. Failures are logged with the statement and its parameters.
func (r *Repository) scan(ctx context.Context, op string, stmt query.Statement, dest any) error {
	started := time.Now()
	defer func() { r.metrics.ObserveQuery(op, time.Since(started)) }()

	return runStatement(ctx, r.client, r.logg, op, stmt, func(ctx context.Context) error {
		return r.client.DB().WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(dest).Error
	})
}

// runStatement is shared by the reader and the writer: debug-log the
// statement, retry while busy, classify and log what is left.
func runStatement(ctx context.Context, client *db.Client, logg *logger.Logger, op string, stmt query.Statement, fn func(context.Context) error) error {
	logg.Debug(ctx, "executing sql statement", map[string]any{"op": op, "sql": stmt.SQL, "params": stmt.Args})

	err := client.Retry().Do(ctx, op, fn)
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) == nil && ctx.Err() == nil {
		err = pkgerrors.Wrap(pkgerrors.CodeStorageFatal, err, op)
	}
	fields := map[string]any{"op": op, "sql": stmt.SQL, "params": stmt.Args, "error_dump": pkgerrors.Dump(err)}
	logg.Error(logg.WithFields(ctx, fields), "error while querying", err)
	return err
}

func rowsToProducts(rows []productRow) []catalog.Product {
	out := make([]catalog.Product, len(rows))
	for i, row := range rows {
		out[i] = rowToProduct(row, nil)
	}
	return out
}
