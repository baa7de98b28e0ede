package models

import (
	"time"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// StockMovement is an append-only journal row recording every quantity
// change, written in the same transaction as the change itself.
type StockMovement struct {
	ID            int64                     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID     int64                     `gorm:"column:product_id;not null;index"`
	OrderID       *int64                    `gorm:"column:order_id;index"`
	Reason        enums.StockMovementReason `gorm:"column:reason;not null"`
	Delta         int                       `gorm:"column:delta;not null"`
	QuantityAfter int                       `gorm:"column:quantity_after;not null"`
	Actor         string                    `gorm:"column:actor;not null"`
	Note          *string                   `gorm:"column:note"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
