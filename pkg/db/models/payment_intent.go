package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// PaymentIntent tracks payment progress for an order. Each order owns at
// most one intent; the unique index enforces that.
type PaymentIntent struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	PublicID      *uuid.UUID          `gorm:"column:public_id;type:uuid;uniqueIndex"`
	OrderID       int64               `gorm:"column:order_id;not null;uniqueIndex"`
	Method        enums.PaymentMethod `gorm:"column:method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	AmountCents   int64               `gorm:"column:amount_cents;not null"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at"`
	FailureReason *string             `gorm:"column:failure_reason"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
