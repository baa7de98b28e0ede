package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// CartRecord is the server-side copy of a user's cart. One active cart
// per user; checkout flips the status to converted.
type CartRecord struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement"`
	PublicID  *uuid.UUID       `gorm:"column:public_id;type:uuid;uniqueIndex"`
	UserID    int64            `gorm:"column:user_id;not null;index"`
	Status    enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time       `gorm:"column:deleted_at;index"`
}
