package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// Filters describe the inputs supported by the product list.
type Filters struct {
	Status     *enums.ProductStatus
	CategoryID *uuid.UUID
	Query      string
}

// ProductSummary is the public read model for listings.
type ProductSummary struct {
	PublicID   uuid.UUID           `json:"id"`
	SKU        string              `json:"sku"`
	Name       string              `json:"name"`
	PriceCents int64               `json:"price_cents"`
	Quantity   int                 `json:"quantity"`
	Status     enums.ProductStatus `json:"status"`
	Tags       []string            `json:"tags,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// ProductDetail adds the fields only the detail view returns.
type ProductDetail struct {
	ProductSummary
	Description *string    `json:"description,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProductList wraps the paginated products plus the next page cursor.
type ProductList struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// AdjustStockInput carries an administrative stock adjustment.
type AdjustStockInput struct {
	ProductID uuid.UUID
	Delta     int
	Reason    enums.StockMovementReason
	Actor     string
	Note      *string
}

// StockAdjustedEvent is emitted after an administrative adjustment.
type StockAdjustedEvent struct {
	ProductID   uuid.UUID                 `json:"product_id"`
	Delta       int                       `json:"delta"`
	NewQuantity int                       `json:"new_quantity"`
	Reason      enums.StockMovementReason `json:"reason"`
	Actor       string                    `json:"actor"`
}
