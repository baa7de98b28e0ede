package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for browsing.
type Category struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	PublicID    *uuid.UUID `gorm:"column:public_id;type:uuid;uniqueIndex"`
	Name        string     `gorm:"column:name;not null;uniqueIndex"`
	Description *string    `gorm:"column:description"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index"`
}
