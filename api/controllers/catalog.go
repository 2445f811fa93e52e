package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	maxQueryPageSize = 250
	maxRelatedCount  = 24
)

// CatalogProducts lists a page of products filtered by the simple query
// parameters category, vendor, color and search.
func CatalogProducts(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		order, err := catalog.ParseOrderBy(r.URL.Query().Get("order_by"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", 0, 0, maxQueryPageSize)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ProductsPage(ctx, catalog.PageRequest{
			OrderBy:    order,
			PageNumber: page,
			PageSize:   pageSize,
			Filters:    filtersFromQuery(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func filtersFromQuery(r *http.Request) *catalog.Filters {
	filters := &catalog.Filters{
		CategoryIDs: validators.QueryValues(r, "category"),
		Search:      validators.SanitizeString(r.URL.Query().Get("search"), 200),
	}
	for _, v := range validators.QueryValues(r, "vendor") {
		filters.Vendor = append(filters.Vendor, catalog.Vendor{Vendor: v})
	}
	for _, c := range validators.QueryValues(r, "color") {
		filters.Color = append(filters.Color, catalog.Color{Color: c})
	}
	return filters
}

type rangeRequest struct {
	From *string `json:"from" validate:"omitempty,numeric"`
	To   *string `json:"to" validate:"omitempty,numeric"`
}

type filtersRequest struct {
	CategoryIDs     []string         `json:"categoryIds" validate:"omitempty,dive,required"`
	Price           []rangeRequest   `json:"price" validate:"omitempty,dive"`
	Wheels          []string         `json:"wheels" validate:"omitempty,dive,numeric"`
	Vendor          []catalog.Vendor `json:"vendor"`
	GroundClearance []rangeRequest   `json:"groundClearance" validate:"omitempty,dive"`
	Color           []catalog.Color  `json:"color"`
	WeightCapacity  []rangeRequest   `json:"weightCapacity" validate:"omitempty,dive"`
	TurningRadius   []rangeRequest   `json:"turningRadius" validate:"omitempty,dive"`
	TravelRange     []rangeRequest   `json:"travelRange" validate:"omitempty,dive"`
	MaxSpeed        []rangeRequest   `json:"maxSpeed" validate:"omitempty,dive"`
	Search          string           `json:"search" validate:"max=200"`
}

type searchRequest struct {
	OrderBy  string          `json:"orderBy" validate:"omitempty,oneof=default newest bestSelling priceAscending priceDescending"`
	Page     int             `json:"page" validate:"omitempty,min=1"`
	PageSize int             `json:"pageSize" validate:"omitempty,min=1,max=250"`
	Filters  *filtersRequest `json:"filters"`
}

func toRanges(in []rangeRequest) []catalog.Range {
	if len(in) == 0 {
		return nil
	}
	out := make([]catalog.Range, 0, len(in))
	for _, r := range in {
		out = append(out, catalog.Range{From: r.From, To: r.To})
	}
	return out
}

func (f *filtersRequest) toFilters() *catalog.Filters {
	if f == nil {
		return nil
	}
	return &catalog.Filters{
		CategoryIDs:     f.CategoryIDs,
		Price:           toRanges(f.Price),
		Wheels:          f.Wheels,
		Vendor:          f.Vendor,
		GroundClearance: toRanges(f.GroundClearance),
		Color:           f.Color,
		WeightCapacity:  toRanges(f.WeightCapacity),
		TurningRadius:   toRanges(f.TurningRadius),
		TravelRange:     toRanges(f.TravelRange),
		MaxSpeed:        toRanges(f.MaxSpeed),
		Search:          validators.SanitizeString(f.Search, 200),
	}
}

// CatalogSearch takes the full filter set as a JSON body.
func CatalogSearch(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload searchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := catalog.ParseOrderBy(payload.OrderBy)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ProductsPage(ctx, catalog.PageRequest{
			OrderBy:    order,
			PageNumber: payload.Page,
			PageSize:   payload.PageSize,
			Filters:    payload.Filters.toFilters(),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CatalogProduct(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.Product(r.Context(), chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CatalogRelatedProducts returns up to count products priced closest to
// the given product in its primary category.
func CatalogRelatedProducts(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		count, err := validators.ParseQueryInt(r, "count", 0, 0, maxRelatedCount)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		products, err := svc.RelatedProducts(ctx, chi.URLParam(r, "productID"), count)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}

func CatalogCategories(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"categories": svc.SupportedCategories().WithoutCatchAll()})
	}
}

func CatalogCategory(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.CategoryDetail(r.Context(), chi.URLParam(r, "categoryID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// CatalogFacets merges filter facets for every repeated category parameter.
func CatalogFacets(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		facets, err := svc.Facets(r.Context(), validators.QueryValues(r, "category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, facets)
	}
}
