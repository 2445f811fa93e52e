package catalog

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	products      map[string]Product
	page          []Product
	pageCount     int
	vendors       []Vendor
	colors        []Color
	categoryCount int64
	err           error

	pageReqs     []PageRequest
	countReqs    []CountRequest
	related      []relatedCall
	facetQueries int
}

type relatedCall struct {
	category  Category
	productID string
	price     UsdPrice
	count     int
}

func (s *stubRepo) GetProductsPage(_ context.Context, req PageRequest) ([]Product, error) {
	s.pageReqs = append(s.pageReqs, req)
	return s.page, s.err
}

func (s *stubRepo) CountProductsPages(_ context.Context, req CountRequest) (int, error) {
	s.countReqs = append(s.countReqs, req)
	return s.pageCount, s.err
}

func (s *stubRepo) GetProduct(_ context.Context, id string) (Product, error) {
	if s.err != nil {
		return Product{}, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func (s *stubRepo) GetRelatedProducts(_ context.Context, category Category, productID string, price UsdPrice, count int) ([]Product, error) {
	s.related = append(s.related, relatedCall{category, productID, price, count})
	return s.page, s.err
}

func (s *stubRepo) GetVendorsForCategories(context.Context, []string) ([]Vendor, error) {
	s.facetQueries++
	return s.vendors, s.err
}

func (s *stubRepo) GetColorsForCategories(context.Context, []string) ([]Color, error) {
	return s.colors, s.err
}

func (s *stubRepo) CountProductsInCategory(context.Context, string) (int64, error) {
	return s.categoryCount, s.err
}

func newTestService(t *testing.T, repo *stubRepo, cache *FacetCache) *Service {
	t.Helper()
	svc, err := NewService(repo, loadSupported(t), nil, ServiceOptions{
		DefaultPageSize: 24,
		MaxPageSize:     50,
		Cache:           cache,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil, nil, nil, ServiceOptions{})
	assert.Error(t, err)
}

func TestProductsPage_NormalizesRequest(t *testing.T) {
	repo := &stubRepo{page: []Product{{ID: "a"}}, pageCount: 3}
	svc := newTestService(t, repo, nil)

	page, err := svc.ProductsPage(context.Background(), PageRequest{PageSize: 500, Filters: CategoryFilters("mobility")})
	require.NoError(t, err)
	assert.Equal(t, Page{Products: []Product{{ID: "a"}}, PageNumber: 1, PageSize: 50, PageCount: 3}, page)

	require.Len(t, repo.pageReqs, 1)
	assert.Equal(t, OrderDefault, repo.pageReqs[0].OrderBy)
	assert.Equal(t, CountRequest{OrderBy: OrderDefault, PageSize: 50, Filters: CategoryFilters("mobility")}, repo.countReqs[0])

	_, err = svc.ProductsPage(context.Background(), PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 24, repo.pageReqs[1].PageSize)
}

func TestProductsPage_RejectsBadInput(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, nil)

	_, err := svc.ProductsPage(context.Background(), PageRequest{OrderBy: "random"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidArgument))

	_, err = svc.ProductsPage(context.Background(), PageRequest{Filters: &Filters{Price: []Range{{}}}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidArgument))
	assert.Empty(t, repo.pageReqs)
}

func TestProduct(t *testing.T) {
	repo := &stubRepo{products: map[string]Product{"a": {ID: "a"}}}
	svc := newTestService(t, repo, nil)

	p, err := svc.Product(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID)

	_, err = svc.Product(context.Background(), "")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidArgument))

	_, err = svc.Product(context.Background(), "b")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRelatedProducts_UsesPrimaryCategory(t *testing.T) {
	repo := &stubRepo{
		products: map[string]Product{
			"chair": {
				ID:         "chair",
				Price:      UsdPrice{UsdAmount: "19.00"},
				Categories: []Category{{ID: "all"}, {ID: "power-chairs"}, {ID: "mobility", Title: "Mobility"}},
			},
			"orphan": {ID: "orphan", Price: UsdPrice{UsdAmount: "5.00"}, Categories: []Category{{ID: "misc"}}},
			"bare":   {ID: "bare", Price: UsdPrice{UsdAmount: "5.00"}, Categories: []Category{}},
		},
		page: []Product{{ID: "x"}},
	}
	svc := newTestService(t, repo, nil)

	related, err := svc.RelatedProducts(context.Background(), "chair", 0)
	require.NoError(t, err)
	assert.Equal(t, []Product{{ID: "x"}}, related)
	assert.Equal(t, relatedCall{Category{ID: "mobility", Title: "Mobility"}, "chair", UsdPrice{UsdAmount: "19.00"}, 4}, repo.related[0])

	_, err = svc.RelatedProducts(context.Background(), "orphan", 2)
	require.NoError(t, err)
	assert.Equal(t, relatedCall{Category{ID: "misc"}, "orphan", UsdPrice{UsdAmount: "5.00"}, 2}, repo.related[1])

	related, err = svc.RelatedProducts(context.Background(), "bare", 2)
	require.NoError(t, err)
	assert.Empty(t, related)
	assert.Len(t, repo.related, 2)
}

func TestFacets(t *testing.T) {
	repo := &stubRepo{
		vendors: []Vendor{{Vendor: "Pride"}},
		colors:  []Color{{Color: "Red"}},
	}
	svc := newTestService(t, repo, nil)

	facets, err := svc.Facets(context.Background(), []string{"scooters", "mobility", "scooters"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mobility", "scooters"}, facets.CategoryIDs)
	assert.Equal(t, []Vendor{{Vendor: "Pride"}}, facets.Vendors)
	assert.Equal(t, []Color{{Color: "Red"}}, facets.Colors)
	assert.True(t, facets.SupportedFilters.Color)
	assert.Equal(t, []string{"3", "4"}, facets.SupportedFilters.Wheels)
}

func TestFacets_PropagatesRepositoryError(t *testing.T) {
	repo := &stubRepo{err: errors.New("boom")}
	svc := newTestService(t, repo, nil)
	_, err := svc.Facets(context.Background(), nil)
	assert.Error(t, err)
}

func TestCategoryDetail(t *testing.T) {
	repo := &stubRepo{categoryCount: 7}
	svc := newTestService(t, repo, nil)

	detail, err := svc.CategoryDetail(context.Background(), "mobility")
	require.NoError(t, err)
	assert.Equal(t, "Mobility", detail.Category.Title)
	assert.Len(t, detail.Subcategories, 2)
	assert.EqualValues(t, 7, detail.ProductCount)

	detail, err = svc.CategoryDetail(context.Background(), "scooters")
	require.NoError(t, err)
	assert.NotNil(t, detail.Subcategories)
	assert.Empty(t, detail.Subcategories)

	_, err = svc.CategoryDetail(context.Background(), "nope")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
