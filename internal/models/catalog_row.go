package models

import "time"

type RowType string

const (
	RowCategory        RowType = "CATEGORY"
	RowProduct         RowType = "PRODUCT"
	RowVariationHeader RowType = "VARIATION_HEADER"
	RowVariationItem   RowType = "VARIATION_ITEM"
)

// CatalogRow is one denormalized row of a catalog mirror. The same shape is
// used for both sides (erp_catalog and marketplace_catalog tables); the
// repository decides the table. Every row carries the full chain of parent
// attributes so any row alone identifies its lineage and later pipeline
// stages can resolve ids by natural key without joins.
//
// Natural keys across systems: category code, product code, variation-name
// hash (see naturalkey package) and item code. The *ID columns hold the
// opaque ids assigned by the owning side.
type CatalogRow struct {
	ID        uint64  `gorm:"column:id;primaryKey"`
	CompanyID uint    `gorm:"column:company_id;index"`
	Type      RowType `gorm:"column:type;index"`

	CategoryID   string `gorm:"column:category_id"`
	CategoryCode string `gorm:"column:category_code"`
	CategoryName string `gorm:"column:category_name"`

	ProductID          string   `gorm:"column:product_id"`
	ProductCode        string   `gorm:"column:product_code"`
	ProductName        string   `gorm:"column:product_name"`
	ProductDescription string   `gorm:"column:product_description"`
	ProductPrice       float64  `gorm:"column:product_price"`
	ProductImageURLs   []string `gorm:"column:product_image_urls;serializer:json"`
	ProductAvailable   bool     `gorm:"column:product_available"`
	ProductStock       int      `gorm:"column:product_stock"`

	VariationID       string `gorm:"column:variation_id"`
	VariationName     string `gorm:"column:variation_name"`
	VariationHash     string `gorm:"column:variation_hash"`
	VariationRequired bool   `gorm:"column:variation_required"`
	VariationMin      int    `gorm:"column:variation_min"`
	VariationMax      int    `gorm:"column:variation_max"`
	VariationOrder    int    `gorm:"column:variation_order"`

	ItemID        string  `gorm:"column:item_id"`
	ItemCode      string  `gorm:"column:item_code"`
	ItemName      string  `gorm:"column:item_name"`
	ItemPrice     float64 `gorm:"column:item_price"`
	ItemStock     int     `gorm:"column:item_stock"`
	ItemAvailable bool    `gorm:"column:item_available"`

	CreatedAt time.Time `gorm:"column:created_at"`
}
