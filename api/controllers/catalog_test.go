package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const testCategoriesYAML = `
catchAllId: all
categories:
  - id: all
    title: All Products
  - id: mobility
    title: Mobility
    supportedFilters:
      color: true
    subcategories:
      - id: scooters
        title: Scooters
`

type stubCatalogRepo struct {
	products  map[string]catalog.Product
	page      []catalog.Product
	pageCount int
	err       error

	pageReqs    []catalog.PageRequest
	relatedArgs []int
}

func (s *stubCatalogRepo) GetProductsPage(_ context.Context, req catalog.PageRequest) ([]catalog.Product, error) {
	s.pageReqs = append(s.pageReqs, req)
	return s.page, s.err
}

func (s *stubCatalogRepo) CountProductsPages(context.Context, catalog.CountRequest) (int, error) {
	return s.pageCount, s.err
}

func (s *stubCatalogRepo) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product "+id+" not found")
	}
	return p, nil
}

func (s *stubCatalogRepo) GetRelatedProducts(_ context.Context, _ catalog.Category, _ string, _ catalog.UsdPrice, count int) ([]catalog.Product, error) {
	s.relatedArgs = append(s.relatedArgs, count)
	return s.page, s.err
}

func (s *stubCatalogRepo) GetVendorsForCategories(context.Context, []string) ([]catalog.Vendor, error) {
	return []catalog.Vendor{{Vendor: "Pride"}}, s.err
}

func (s *stubCatalogRepo) GetColorsForCategories(context.Context, []string) ([]catalog.Color, error) {
	return []catalog.Color{{Color: "Red"}}, s.err
}

func (s *stubCatalogRepo) CountProductsInCategory(context.Context, string) (int64, error) {
	return 12, s.err
}

func newCatalogService(t *testing.T, repo *stubCatalogRepo) *catalog.Service {
	t.Helper()
	supported, err := catalog.ParseSupportedCategories([]byte(testCategoriesYAML))
	require.NoError(t, err)
	svc, err := catalog.NewService(repo, supported, logger.Nop(), catalog.ServiceOptions{DefaultPageSize: 24, MaxPageSize: 50})
	require.NoError(t, err)
	return svc
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Error.Code
}

func sampleProduct(id string) catalog.Product {
	return catalog.Product{
		ID:         id,
		Title:      "Product " + id,
		Price:      catalog.UsdPrice{UsdAmount: "10.00"},
		Categories: []catalog.Category{{ID: "scooters", Title: "Scooters"}},
	}
}

func TestCatalogProducts_ParsesQuery(t *testing.T) {
	repo := &stubCatalogRepo{page: []catalog.Product{sampleProduct("p1")}, pageCount: 3}
	handler := CatalogProducts(newCatalogService(t, repo), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?order_by=priceAscending&page=2&page_size=10&category=scooters&vendor=Pride&color=Red&search=+fold+", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var page catalog.Page
	decodeData(t, rec, &page)
	assert.Equal(t, 3, page.PageCount)
	assert.Equal(t, 2, page.PageNumber)
	require.Len(t, page.Products, 1)

	require.Len(t, repo.pageReqs, 1)
	got := repo.pageReqs[0]
	assert.Equal(t, catalog.OrderPriceAscending, got.OrderBy)
	assert.Equal(t, 10, got.PageSize)
	assert.Equal(t, []string{"scooters"}, got.Filters.CategoryIDs)
	assert.Equal(t, []catalog.Vendor{{Vendor: "Pride"}}, got.Filters.Vendor)
	assert.Equal(t, []catalog.Color{{Color: "Red"}}, got.Filters.Color)
	assert.Equal(t, "fold", got.Filters.Search)
}

func TestCatalogProducts_DefaultsPageSize(t *testing.T) {
	repo := &stubCatalogRepo{}
	handler := CatalogProducts(newCatalogService(t, repo), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.pageReqs, 1)
	assert.Equal(t, 24, repo.pageReqs[0].PageSize)
	assert.Equal(t, 1, repo.pageReqs[0].PageNumber)
	assert.Equal(t, catalog.OrderDefault, repo.pageReqs[0].OrderBy)
}

func TestCatalogProducts_RejectsBadInput(t *testing.T) {
	cases := []string{
		"/api/v1/catalog/products?order_by=cheapest",
		"/api/v1/catalog/products?page=0",
		"/api/v1/catalog/products?page_size=abc",
	}
	for _, target := range cases {
		t.Run(target, func(t *testing.T) {
			repo := &stubCatalogRepo{}
			handler := CatalogProducts(newCatalogService(t, repo), nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.CodeInvalidArgument), errorCode(t, rec))
			assert.Empty(t, repo.pageReqs)
		})
	}
}

func TestCatalogSearch_MapsFilters(t *testing.T) {
	repo := &stubCatalogRepo{pageCount: 1}
	handler := CatalogSearch(newCatalogService(t, repo), nil)

	body := `{"orderBy":"newest","page":1,"pageSize":5,"filters":{"categoryIds":["mobility"],"price":[{"from":"100","to":"500"}],"wheels":["4"],"maxSpeed":[{"from":"5"}]}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products/search", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, repo.pageReqs, 1)
	got := repo.pageReqs[0]
	assert.Equal(t, catalog.OrderNewest, got.OrderBy)
	assert.Equal(t, 5, got.PageSize)
	require.NotNil(t, got.Filters)
	assert.Equal(t, []string{"mobility"}, got.Filters.CategoryIDs)
	require.Len(t, got.Filters.Price, 1)
	assert.Equal(t, "100", *got.Filters.Price[0].From)
	assert.Equal(t, "500", *got.Filters.Price[0].To)
	require.Len(t, got.Filters.MaxSpeed, 1)
	assert.Nil(t, got.Filters.MaxSpeed[0].To)
	assert.Equal(t, []string{"4"}, got.Filters.Wheels)
}

func TestCatalogSearch_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"unknown order":      `{"orderBy":"cheapest"}`,
		"non numeric range":  `{"filters":{"price":[{"from":"ten"}]}}`,
		"empty range":        `{"filters":{"price":[{}]}}`,
		"page size too big":  `{"pageSize":1000}`,
		"unknown field":      `{"sort":"newest"}`,
		"non numeric wheels": `{"filters":{"wheels":["four"]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &stubCatalogRepo{}
			handler := CatalogSearch(newCatalogService(t, repo), nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products/search", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, repo.pageReqs)
		})
	}
}

func TestCatalogProduct(t *testing.T) {
	repo := &stubCatalogRepo{products: map[string]catalog.Product{"p1": sampleProduct("p1")}}
	handler := CatalogProduct(newCatalogService(t, repo), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/p1", nil), "productID", "p1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var product catalog.Product
	decodeData(t, rec, &product)
	assert.Equal(t, "p1", product.ID)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/nope", nil), "productID", "nope"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeNotFound), errorCode(t, rec))
}

func TestCatalogRelatedProducts(t *testing.T) {
	repo := &stubCatalogRepo{
		products: map[string]catalog.Product{"p1": sampleProduct("p1")},
		page:     []catalog.Product{sampleProduct("p2")},
	}
	handler := CatalogRelatedProducts(newCatalogService(t, repo), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/p1/related?count=2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withURLParam(req, "productID", "p1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Products []catalog.Product `json:"products"`
	}
	decodeData(t, rec, &payload)
	require.Len(t, payload.Products, 1)
	assert.Equal(t, "p2", payload.Products[0].ID)
	assert.Equal(t, []int{2}, repo.relatedArgs)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/p1/related?count=500", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withURLParam(req, "productID", "p1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogCategories_HidesCatchAll(t *testing.T) {
	handler := CatalogCategories(newCatalogService(t, &stubCatalogRepo{}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Categories []catalog.SupportedCategoryWithSubcategories `json:"categories"`
	}
	decodeData(t, rec, &payload)
	require.Len(t, payload.Categories, 1)
	assert.Equal(t, "mobility", payload.Categories[0].ID)
	require.Len(t, payload.Categories[0].Subcategories, 1)
}

func TestCatalogCategory(t *testing.T) {
	handler := CatalogCategory(newCatalogService(t, &stubCatalogRepo{}), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "categoryID", "mobility"))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail catalog.CategoryDetail
	decodeData(t, rec, &detail)
	assert.Equal(t, "Mobility", detail.Category.Title)
	assert.EqualValues(t, 12, detail.ProductCount)
	require.Len(t, detail.Subcategories, 1)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "categoryID", "boats"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogFacets(t *testing.T) {
	handler := CatalogFacets(newCatalogService(t, &stubCatalogRepo{}), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/facets?category=scooters&category=mobility", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var facets catalog.Facets
	decodeData(t, rec, &facets)
	assert.Equal(t, []string{"mobility", "scooters"}, facets.CategoryIDs)
	assert.True(t, facets.SupportedFilters.Color)
	assert.Equal(t, []catalog.Vendor{{Vendor: "Pride"}}, facets.Vendors)
}

func TestCatalogFacets_StorageFailure(t *testing.T) {
	repo := &stubCatalogRepo{err: pkgerrors.Wrap(pkgerrors.CodeStorageFatal, errors.New("database is locked"), "query failed")}
	handler := CatalogFacets(newCatalogService(t, repo), logger.Nop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/facets", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeStorageFatal), errorCode(t, rec))
}
