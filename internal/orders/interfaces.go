package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db/models"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	CreatePaymentIntent(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error)
	FindOrder(ctx context.Context, id int64) (*models.Order, error)
	FindOrderForUpdate(ctx context.Context, id int64) (*models.Order, error)
	FindLineItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderLineItem, error)
	FindPaymentIntentByOrder(ctx context.Context, orderID int64) (*models.PaymentIntent, error)
	FindProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	ListByUser(ctx context.Context, userID int64, params pagination.Params, filters ListFilters) ([]models.Order, error)
	SumLineItemQuantities(ctx context.Context, orderIDs []int64) (map[int64]int, error)
	UpdateOrder(ctx context.Context, id int64, updates map[string]any) error
	UpdateOrderWhereStatus(ctx context.Context, id int64, allowed []enums.OrderStatus, updates map[string]any) (int64, error)
	UpdatePaymentIntent(ctx context.Context, orderID int64, updates map[string]any) error
}
