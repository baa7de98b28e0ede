package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// OutboxEvent represents an append-only event emitted via the outbox
// pattern. The row is inserted in the same transaction as the domain
// change and published asynchronously by the outbox worker.
type OutboxEvent struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	EventID       uuid.UUID           `gorm:"column:event_id;type:uuid;not null;uniqueIndex"`
	EventType     enums.EventType     `gorm:"column:event_type;not null"`
	AggregateType enums.AggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID           `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload       json.RawMessage     `gorm:"column:payload;type:jsonb;not null"`
	Status        enums.OutboxStatus  `gorm:"column:status;not null;default:'pending';index"`
	AttemptCount  int                 `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string             `gorm:"column:last_error"`
	PublishedAt   *time.Time          `gorm:"column:published_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
