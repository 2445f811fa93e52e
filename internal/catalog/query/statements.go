package query

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Statement is SQL text with "?" placeholders and its parameters in order.
type Statement struct {
	SQL  string
	Args []any
}

var productColumns = strings.Join([]string{
	"product.id",
	"product.sku",
	"product.title",
	"product.vendor",
	"product.price",
	"product.list_price",
	"product.options",
	"product.variants",
	"product.images",
	"product.ground_clearance",
	"product.weight_capacity",
	"product.turning_radius",
	"product.travel_range",
	"product.max_speed",
	"product.wheels",
	"product.published_at_unix_ms",
	"product.sales_rank",
	"product.description_html",
	"product.model",
	"product.product_type",
	"product.model_image",
	"product.vendor_filter",
}, ", ")

const productJoins = " FROM product" +
	" LEFT JOIN product_category ON product.id = product_category.product_id" +
	" LEFT JOIN color ON product.id = color.product_id"

const groupByProduct = " GROUP BY product.id"

func selectProducts(d Dialect) string {
	return "SELECT " + productColumns + ", " + d.concatAggregate(ColorValue) + " AS product_colors" + productJoins
}

// ProductsPage selects one page of grouped products matching req.
func ProductsPage(d Dialect, req catalog.PageRequest) (Statement, error) {
	if err := req.Pagination().Validate(); err != nil {
		return Statement{}, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid pagination")
	}
	order, err := OrderClause(req.OrderBy)
	if err != nil {
		return Statement{}, err
	}
	cond, err := Build(req.Filters)
	if err != nil {
		return Statement{}, err
	}

	var sb strings.Builder
	var args []any
	sb.WriteString(selectProducts(d))
	args = appendClause(&sb, args, "WHERE", cond.Where, d)
	sb.WriteString(groupByProduct)
	args = appendClause(&sb, args, "HAVING", cond.Having, d)
	sb.WriteString(order)
	sb.WriteString(" LIMIT ? OFFSET ?")
	p := req.Pagination()
	args = append(args, p.Limit(), p.Offset())
	return Statement{SQL: sb.String(), Args: args}, nil
}

// CountMatching counts the grouped products matching f.
func CountMatching(d Dialect, f *catalog.Filters) (Statement, error) {
	cond, err := Build(f)
	if err != nil {
		return Statement{}, err
	}

	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT COUNT(*) FROM (SELECT product.id")
	sb.WriteString(productJoins)
	args = appendClause(&sb, args, "WHERE", cond.Where, d)
	sb.WriteString(groupByProduct)
	args = appendClause(&sb, args, "HAVING", cond.Having, d)
	sb.WriteString(") AS matched")
	return Statement{SQL: sb.String(), Args: args}, nil
}

// ProductByID selects a single product with its aggregated colors.
func ProductByID(d Dialect, id string) Statement {
	return Statement{
		SQL:  selectProducts(d) + " WHERE " + ProductID.name + " = ?" + groupByProduct,
		Args: []any{id},
	}
}

// ProductCategories lists a product's categories in upstream order.
func ProductCategories(productID string) Statement {
	return Statement{
		SQL: "SELECT category.id AS id, category.title AS title FROM product_category" +
			" JOIN category ON product_category.category_id = category.id" +
			" WHERE product_category.product_id = ?" +
			" ORDER BY product_category.position, category.id",
		Args: []any{productID},
	}
}

// RelatedProducts selects up to count products of a category other than
// excludeID, closest in price to referencePrice first.
func RelatedProducts(d Dialect, categoryID, excludeID string, referencePrice catalog.UsdPrice, count int) (Statement, error) {
	price, err := decimal.NewFromString(referencePrice.UsdAmount)
	if err != nil {
		return Statement{}, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, fmt.Sprintf("reference price %q is not a number", referencePrice.UsdAmount))
	}
	if count <= 0 {
		return Statement{}, pkgerrors.New(pkgerrors.CodeInvalidArgument, fmt.Sprintf("count must be positive, got %d", count))
	}

	var sb strings.Builder
	var args []any
	sb.WriteString(selectProducts(d))
	args = appendClause(&sb, args, "WHERE", And(Eq(CategoryID, categoryID), NotEq(ProductID, excludeID)), d)
	sb.WriteString(groupByProduct)
	sb.WriteString(" ORDER BY abs(? - " + Price.name + "), " + ProductID.name + " LIMIT ?")
	args = append(args, price.InexactFloat64(), count)
	return Statement{SQL: sb.String(), Args: args}, nil
}

// VendorsForCategories lists distinct vendors within the categories,
// alphabetically. No categories means the whole catalog.
func VendorsForCategories(d Dialect, categoryIDs []string) Statement {
	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT " + Vendor.name + " AS vendor FROM product")
	sb.WriteString(" LEFT JOIN product_category ON product.id = product_category.product_id")
	args := appendClause(&sb, nil, "WHERE", In(CategoryID, categoryIDs), d)
	sb.WriteString(" ORDER BY " + Vendor.name)
	return Statement{SQL: sb.String(), Args: args}
}

// ColorsForCategories lists distinct colors within the categories,
// alphabetically. No categories means the whole catalog.
func ColorsForCategories(d Dialect, categoryIDs []string) Statement {
	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT " + ColorValue.name + " AS color FROM color")
	sb.WriteString(" LEFT JOIN product_category ON color.product_id = product_category.product_id")
	args := appendClause(&sb, nil, "WHERE", In(CategoryID, categoryIDs), d)
	sb.WriteString(" ORDER BY " + ColorValue.name)
	return Statement{SQL: sb.String(), Args: args}
}

// CountInCategory counts distinct products linked to a category.
func CountInCategory(categoryID string) Statement {
	return Statement{
		SQL: "SELECT COUNT(DISTINCT product.id) FROM product" +
			" JOIN product_category ON product.id = product_category.product_id" +
			" WHERE " + CategoryID.name + " = ?",
		Args: []any{categoryID},
	}
}

func appendClause(sb *strings.Builder, args []any, keyword string, p Predicate, d Dialect) []any {
	text, clauseArgs := clause(keyword, p, d)
	sb.WriteString(text)
	return append(args, clauseArgs...)
}
