package shopify

const productsQuery = `query Products($first: Int!, $cursor: String) {
  products(first: $first, after: $cursor) {
    pageInfo { hasNextPage }
    edges {
      cursor
      node {
        id
        handle
        title
        vendor
        publishedAt
        descriptionHtml
        tags
        options { name values }
        variants(first: 100) {
          edges {
            node {
              id
              priceV2 { amount currencyCode }
              compareAtPriceV2 { amount currencyCode }
              selectedOptions { name value }
            }
          }
        }
        collections(first: 50) { edges { node { handle title } } }
        media(first: 50) { edges { node { previewImage { src altText } } } }
        metafields(first: 20) { edges { node { key value } } }
      }
    }
  }
}`

const bestSellingQuery = `query BestSellingProducts($first: Int!, $cursor: String) {
  products(first: $first, after: $cursor, sortKey: BEST_SELLING) {
    pageInfo { hasNextPage }
    edges { cursor node { handle } }
  }
}`

type pageInfo struct {
	HasNextPage bool `json:"hasNextPage"`
}

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type optionNode struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type variantNode struct {
	ID              string `json:"id"`
	PriceV2         *money `json:"priceV2"`
	CompareAtPrice  *money `json:"compareAtPriceV2"`
	SelectedOptions []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
}

type productNode struct {
	ID              string       `json:"id"`
	Handle          string       `json:"handle"`
	Title           string       `json:"title"`
	Vendor          string       `json:"vendor"`
	PublishedAt     string       `json:"publishedAt"`
	DescriptionHTML string       `json:"descriptionHtml"`
	Tags            []string     `json:"tags"`
	Options         []optionNode `json:"options"`
	Variants        struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
	Collections struct {
		Edges []struct {
			Node struct {
				Handle string `json:"handle"`
				Title  string `json:"title"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"collections"`
	Media struct {
		Edges []struct {
			Node struct {
				PreviewImage *struct {
					Src     string `json:"src"`
					AltText string `json:"altText"`
				} `json:"previewImage"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"media"`
	Metafields struct {
		Edges []struct {
			Node *struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"metafields"`
}

type productsData struct {
	Products struct {
		PageInfo pageInfo `json:"pageInfo"`
		Edges    []struct {
			Cursor string      `json:"cursor"`
			Node   productNode `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

type bestSellingData struct {
	Products struct {
		PageInfo pageInfo `json:"pageInfo"`
		Edges    []struct {
			Cursor string `json:"cursor"`
			Node   struct {
				Handle string `json:"handle"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}
