package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db/models"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

func (r *Repository) FetchPending(limit int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.Where("status = ?", enums.OutboxStatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CountPending() (int64, error) {
	var n int64
	err := r.db.Model(&models.OutboxEvent{}).
		Where("status = ?", enums.OutboxStatusPending).
		Count(&n).Error
	return n, err
}

func (r *Repository) MarkPublished(eventID uuid.UUID) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"status":       enums.OutboxStatusPublished,
			"published_at": time.Now(),
		}).Error
}

// DeletePublishedBefore prunes published events older than cutoff. Failed
// events that exhausted minAttempts tries are pruned on the same schedule.
func (r *Repository) DeletePublishedBefore(cutoff time.Time, minAttempts int) (int64, error) {
	res := r.db.
		Where("(status = ? AND published_at < ?) OR (status = ? AND attempt_count >= ? AND created_at < ?)",
			enums.OutboxStatusPublished, cutoff,
			enums.OutboxStatusFailed, minAttempts, cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

// MarkFailed records the attempt; after maxAttempts the event is parked
// as failed so the poller stops retrying it.
func (r *Repository) MarkFailed(eventID uuid.UUID, cause error, maxAttempts int) error {
	updates := map[string]any{
		"last_error":    cause.Error(),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	}
	if err := r.db.Model(&models.OutboxEvent{}).
		Where("event_id = ?", eventID).
		Updates(updates).Error; err != nil {
		return err
	}
	if maxAttempts <= 0 {
		return nil
	}
	return r.db.Model(&models.OutboxEvent{}).
		Where("event_id = ? AND attempt_count >= ?", eventID, maxAttempts).
		Update("status", enums.OutboxStatusFailed).Error
}
