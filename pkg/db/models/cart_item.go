package models

import (
	"time"
)

// CartItem is one product line inside a cart.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CartID    int64     `gorm:"column:cart_id;not null;index:idx_cart_items_cart_product,unique"`
	ProductID int64     `gorm:"column:product_id;not null;index:idx_cart_items_cart_product,unique"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
