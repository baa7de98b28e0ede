package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// User represents an account that can own carts and place orders.
// The numeric ID never leaves the database layer; PublicID is the only
// identifier callers ever see, and it is nulled out on soft delete.
type User struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	PublicID     *uuid.UUID     `gorm:"column:public_id;type:uuid;uniqueIndex"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	Name         string         `gorm:"column:name;not null"`
	PasswordHash string         `gorm:"column:password_hash;not null;default:''"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'user'"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    *time.Time     `gorm:"column:deleted_at;index"`
}
