package cart

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db/models"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// Repository defines persistence operations for server-side carts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByUser(ctx context.Context, userID int64) (*models.CartRecord, error)
	Create(ctx context.Context, cart *models.CartRecord) error
	ReplaceItems(ctx context.Context, cartID int64, items []models.CartItem) error
	UpdateStatus(ctx context.Context, cartID int64, status enums.CartStatus) error
	MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	FindProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByUser(ctx context.Context, userID int64) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, enums.CartStatusActive).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.CartRecord) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// ReplaceItems swaps the cart's lines wholesale. Sync is a full
// replacement, not a merge.
func (r *repository) ReplaceItems(ctx context.Context, cartID int64, items []models.CartItem) error {
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].CartID = cartID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateStatus(ctx context.Context, cartID int64, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

// MarkAbandonedBefore flips active carts untouched since cutoff to abandoned.
func (r *repository) MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("status = ? AND updated_at < ? AND deleted_at IS NULL", enums.CartStatusActive, cutoff).
		Update("status", enums.CartStatusAbandoned)
	return res.RowsAffected, res.Error
}

func (r *repository) FindProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
