package query

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// OrderClause renders the ORDER BY for a sort key. Every order ends with a
// product id tiebreak so paging is deterministic.
func OrderClause(order catalog.OrderBy) (string, error) {
	switch order {
	case catalog.OrderDefault:
		return " ORDER BY " + ProductID.name, nil
	case catalog.OrderNewest:
		return " ORDER BY " + PublishedAt.name + " DESC, " + ProductID.name, nil
	case catalog.OrderBestSelling:
		return " ORDER BY " + SalesRank.name + " ASC, " + ProductID.name, nil
	case catalog.OrderPriceAscending:
		return " ORDER BY " + Price.name + " ASC, " + ProductID.name + " ASC", nil
	case catalog.OrderPriceDescending:
		return " ORDER BY " + Price.name + " DESC, " + ProductID.name + " DESC", nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeInvalidArgument, fmt.Sprintf("unknown order by key %q", order))
	}
}
