package catalog

import (
	"context"
	"fmt"
	"slices"
	"sort"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Page is one page of products plus the page count for the same filter.
type Page struct {
	Products   []Product `json:"products"`
	PageNumber int       `json:"pageNumber"`
	PageSize   int       `json:"pageSize"`
	PageCount  int       `json:"pageCount"`
}

// Facets drives the filter form for a set of categories.
type Facets struct {
	CategoryIDs      []string         `json:"categoryIds"`
	SupportedFilters SupportedFilters `json:"supportedFilters"`
	Vendors          []Vendor         `json:"vendors"`
	Colors           []Color          `json:"colors"`
}

// CategoryDetail describes a supported category and how many products it holds.
type CategoryDetail struct {
	Category      SupportedCategory   `json:"category"`
	Subcategories []SupportedCategory `json:"subcategories"`
	ProductCount  int64               `json:"productCount"`
}

type ServiceOptions struct {
	DefaultPageSize      int
	MaxPageSize          int
	RelatedProductsCount int
	Cache                *FacetCache
}

// Service answers storefront reads on top of the repository and the
// supported category tree.
type Service struct {
	repo      Repository
	supported *SupportedCategories
	logg      *logger.Logger
	opts      ServiceOptions
}

func NewService(repo Repository, supported *SupportedCategories, logg *logger.Logger, opts ServiceOptions) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if supported == nil {
		supported = &SupportedCategories{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if opts.RelatedProductsCount <= 0 {
		opts.RelatedProductsCount = 4
	}
	return &Service{repo: repo, supported: supported, logg: logg, opts: opts}, nil
}

func (s *Service) SupportedCategories() *SupportedCategories {
	return s.supported
}

// ProductsPage returns the requested page and the total page count.
func (s *Service) ProductsPage(ctx context.Context, req PageRequest) (Page, error) {
	req.PageSize = pagination.NormalizePageSize(req.PageSize, s.opts.DefaultPageSize, s.opts.MaxPageSize)
	if req.PageNumber <= 0 {
		req.PageNumber = 1
	}
	if req.OrderBy == "" {
		req.OrderBy = OrderDefault
	}
	if err := req.Validate(); err != nil {
		return Page{}, err
	}

	products, err := s.repo.GetProductsPage(ctx, req)
	if err != nil {
		return Page{}, err
	}
	count, err := s.repo.CountProductsPages(ctx, CountRequest{OrderBy: req.OrderBy, PageSize: req.PageSize, Filters: req.Filters})
	if err != nil {
		return Page{}, err
	}
	return Page{
		Products:   products,
		PageNumber: req.PageNumber,
		PageSize:   req.PageSize,
		PageCount:  count,
	}, nil
}

func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeInvalidArgument, "product id is required")
	}
	return s.repo.GetProduct(ctx, id)
}

// RelatedProducts finds products in the product's primary category with
// the closest prices. count <= 0 uses the configured default.
func (s *Service) RelatedProducts(ctx context.Context, productID string, count int) ([]Product, error) {
	product, err := s.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = s.opts.RelatedProductsCount
	}
	category, ok := s.supported.PrimaryCategory(product)
	if !ok {
		if len(product.Categories) == 0 {
			return []Product{}, nil
		}
		category = product.Categories[0]
	}
	return s.repo.GetRelatedProducts(ctx, category, product.ID, product.Price, count)
}

// Facets merges the supported filters of the categories with the vendors
// and colors actually present in them.
func (s *Service) Facets(ctx context.Context, categoryIDs []string) (Facets, error) {
	ids := slices.Clone(categoryIDs)
	sort.Strings(ids)
	ids = slices.Compact(ids)

	var cached Facets
	hit, err := s.opts.Cache.Load(ctx, "facets", ids, &cached)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_error", err.Error()), "facet cache read failed")
	}
	if hit {
		return cached, nil
	}

	vendors, err := s.repo.GetVendorsForCategories(ctx, ids)
	if err != nil {
		return Facets{}, err
	}
	colors, err := s.repo.GetColorsForCategories(ctx, ids)
	if err != nil {
		return Facets{}, err
	}
	facets := Facets{
		CategoryIDs:      ids,
		SupportedFilters: s.supported.SupportedFiltersFor(ids),
		Vendors:          vendors,
		Colors:           colors,
	}

	if err := s.opts.Cache.Store(ctx, "facets", ids, facets); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_error", err.Error()), "facet cache write failed")
	}
	return facets, nil
}

func (s *Service) CategoryDetail(ctx context.Context, categoryID string) (CategoryDetail, error) {
	category, ok := s.supported.CategoryByID(categoryID)
	if !ok {
		return CategoryDetail{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("category %s not found", categoryID))
	}
	count, err := s.repo.CountProductsInCategory(ctx, categoryID)
	if err != nil {
		return CategoryDetail{}, err
	}
	subs := s.supported.Subcategories(categoryID)
	if subs == nil {
		subs = []SupportedCategory{}
	}
	return CategoryDetail{Category: category, Subcategories: subs, ProductCount: count}, nil
}
