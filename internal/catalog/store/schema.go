package store

import (
	"database/sql"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// productRecord mirrors one row of the product table.
type productRecord struct {
	ID                string                               `gorm:"column:id;primaryKey"`
	SKU               string                               `gorm:"column:sku"`
	Title             string                               `gorm:"column:title"`
	Vendor            string                               `gorm:"column:vendor"`
	Price             decimal.Decimal                      `gorm:"column:price"`
	ListPrice         decimal.NullDecimal                  `gorm:"column:list_price"`
	Options           datatypes.JSONSlice[catalog.Option]  `gorm:"column:options"`
	Variants          datatypes.JSONSlice[catalog.Variant] `gorm:"column:variants"`
	Images            datatypes.JSONSlice[catalog.Image]   `gorm:"column:images"`
	GroundClearance   decimal.NullDecimal                  `gorm:"column:ground_clearance"`
	WeightCapacity    decimal.NullDecimal                  `gorm:"column:weight_capacity"`
	TurningRadius     decimal.NullDecimal                  `gorm:"column:turning_radius"`
	TravelRange       decimal.NullDecimal                  `gorm:"column:travel_range"`
	MaxSpeed          decimal.NullDecimal                  `gorm:"column:max_speed"`
	Wheels            decimal.NullDecimal                  `gorm:"column:wheels"`
	PublishedAtUnixMs int64                                `gorm:"column:published_at_unix_ms"`
	SalesRank         int64                                `gorm:"column:sales_rank"`
	DescriptionHTML   string                               `gorm:"column:description_html"`
	Model             string                               `gorm:"column:model"`
	ProductType       string                               `gorm:"column:product_type"`
	ModelImage        string                               `gorm:"column:model_image"`
	VendorFilter      string                               `gorm:"column:vendor_filter"`
}

func (productRecord) TableName() string { return "product" }

// productRow is a product read back with its aggregated colors.
type productRow struct {
	Record        productRecord  `gorm:"embedded"`
	ProductColors sql.NullString `gorm:"column:product_colors"`
}

type categoryRecord struct {
	ID    string `gorm:"column:id;primaryKey"`
	Title string `gorm:"column:title"`
}

func (categoryRecord) TableName() string { return "category" }

type productCategoryRecord struct {
	ProductID  string `gorm:"column:product_id;primaryKey"`
	CategoryID string `gorm:"column:category_id;primaryKey"`
	Position   int    `gorm:"column:position"`
}

func (productCategoryRecord) TableName() string { return "product_category" }

type colorRecord struct {
	Color     string `gorm:"column:color;primaryKey"`
	ProductID string `gorm:"column:product_id;primaryKey"`
}

func (colorRecord) TableName() string { return "color" }

type vendorRow struct {
	Vendor string `gorm:"column:vendor"`
}

type colorRow struct {
	Color string `gorm:"column:color"`
}

// tablesChildFirst is the delete order that keeps foreign keys satisfied.
var tablesChildFirst = []string{"color", "product_category", "category", "product"}
