package models

import (
	"time"
)

// OrderLineItem is a priced snapshot of one product at checkout time.
// Name, SKU, and unit price are denormalized copies; ProductID is kept
// for stock compensation on cancel.
type OrderLineItem struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        int64     `gorm:"column:order_id;not null;index"`
	ProductID      int64     `gorm:"column:product_id;not null;index"`
	ProductName    string    `gorm:"column:product_name;not null"`
	ProductSKU     string    `gorm:"column:product_sku;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
