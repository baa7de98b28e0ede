package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// Order is the transactional record produced by checkout. Line items,
// prices, and the shipping address are snapshotted at creation time so
// later catalog edits never change what the buyer agreed to.
type Order struct {
	ID              int64                `gorm:"column:id;primaryKey;autoIncrement"`
	PublicID        *uuid.UUID           `gorm:"column:public_id;type:uuid;uniqueIndex"`
	UserID          int64                `gorm:"column:user_id;not null;index"`
	Status          enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	SubtotalCents   int64                `gorm:"column:subtotal_cents;not null"`
	TaxCents        int64                `gorm:"column:tax_cents;not null"`
	ShippingCents   int64                `gorm:"column:shipping_fee_cents;not null"`
	TotalCents      int64                `gorm:"column:total_cents;not null"`
	ShippingMethod  enums.ShippingMethod `gorm:"column:shipping_method;not null"`
	ShippingAddress json.RawMessage      `gorm:"column:shipping_address;type:jsonb;not null"`
	CancelReason    *string              `gorm:"column:cancel_reason"`
	CanceledAt      *time.Time           `gorm:"column:canceled_at"`
	LineItems       []OrderLineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentIntent   *PaymentIntent       `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       *time.Time           `gorm:"column:deleted_at;index"`
}
