package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// Product represents a purchasable listing. Quantity is the live on-hand
// count and is only ever mutated through the stock ledger's conditional
// updates, never through plain saves.
type Product struct {
	ID          int64               `gorm:"column:id;primaryKey;autoIncrement"`
	PublicID    *uuid.UUID          `gorm:"column:public_id;type:uuid;uniqueIndex"`
	CategoryID  *int64              `gorm:"column:category_id;index"`
	SKU         string              `gorm:"column:sku;not null;uniqueIndex"`
	Name        string              `gorm:"column:name;not null"`
	Description *string             `gorm:"column:description"`
	PriceCents  int64               `gorm:"column:price_cents;not null"`
	Quantity    int                 `gorm:"column:quantity;not null;default:0"`
	Status      enums.ProductStatus `gorm:"column:status;not null;default:'active'"`
	Tags        pq.StringArray      `gorm:"column:tags;type:text[]"`
	Category    *Category           `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time          `gorm:"column:deleted_at;index"`
}
