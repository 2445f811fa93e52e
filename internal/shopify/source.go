package shopify

import (
	"context"
	"iter"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultPageSize     = 100
	bestSellingPageSize = 250
)

var _ catalog.Source = (*Source)(nil)

// Source streams the storefront catalog page by page.
type Source struct {
	client   *Client
	logg     *logger.Logger
	pageSize int
}

func NewSource(client *Client, logg *logger.Logger, pageSize int) *Source {
	if logg == nil {
		logg = logger.Nop()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Source{client: client, logg: logg, pageSize: pageSize}
}

// GetProducts lazily yields every visible product. A page is fetched only
// when the previous one is consumed; the first error ends the sequence.
func (s *Source) GetProducts(ctx context.Context) iter.Seq2[catalog.Product, error] {
	return func(yield func(catalog.Product, error) bool) {
		var cursor *string
		for page := 1; ; page++ {
			var data productsData
			vars := map[string]any{"first": s.pageSize, "cursor": cursor}
			if err := s.client.Execute(ctx, "products", productsQuery, vars, &data); err != nil {
				yield(catalog.Product{}, err)
				return
			}
			edges := data.Products.Edges
			s.logg.Debug(ctx, "fetched products page", map[string]any{"page": page, "products": len(edges)})

			for _, edge := range edges {
				if isHidden(edge.Node) {
					continue
				}
				product, err := toProduct(edge.Node)
				if err != nil {
					yield(catalog.Product{}, err)
					return
				}
				if !yield(product, nil) {
					return
				}
			}

			if !data.Products.PageInfo.HasNextPage || len(edges) == 0 {
				return
			}
			last := edges[len(edges)-1].Cursor
			cursor = &last
		}
	}
}

// GetSalesRanks numbers products by best-selling position across pages.
func (s *Source) GetSalesRanks(ctx context.Context) (catalog.SalesRanks, error) {
	ranks := catalog.SalesRanks{}
	var cursor *string
	var rank int64
	for {
		var data bestSellingData
		vars := map[string]any{"first": bestSellingPageSize, "cursor": cursor}
		if err := s.client.Execute(ctx, "best selling products", bestSellingQuery, vars, &data); err != nil {
			return nil, err
		}
		edges := data.Products.Edges
		for _, edge := range edges {
			ranks[edge.Node.Handle] = rank
			rank++
		}
		if !data.Products.PageInfo.HasNextPage || len(edges) == 0 {
			return ranks, nil
		}
		last := edges[len(edges)-1].Cursor
		cursor = &last
	}
}
