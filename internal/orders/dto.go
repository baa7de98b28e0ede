package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/types"
)

// OrderItemInput is one requested line at checkout, keyed by the
// product's public key.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput carries everything checkout needs.
type CreateOrderInput struct {
	UserID          uuid.UUID
	Items           []OrderItemInput
	ShippingMethod  enums.ShippingMethod
	ShippingAddress types.Address
	PaymentMethod   enums.PaymentMethod
}

// UpdateStatusInput moves an order along the forward state machine.
type UpdateStatusInput struct {
	OrderID      uuid.UUID
	TargetStatus enums.OrderStatus
	ActorUserID  uuid.UUID
}

// CancelOrderInput triggers the compensation flow.
type CancelOrderInput struct {
	OrderID     uuid.UUID
	Reason      string
	ActorUserID uuid.UUID
}

// ListFilters describe the inputs supported by the order list.
type ListFilters struct {
	Status *enums.OrderStatus
}

// LineItemView is the snapshot a client sees; it never exposes
// internal product ids.
type LineItemView struct {
	ProductName    string `json:"product_name"`
	ProductSKU     string `json:"product_sku"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// PaymentView summarizes the order's payment intent.
type PaymentView struct {
	PublicID    uuid.UUID           `json:"id"`
	Method      enums.PaymentMethod `json:"method"`
	Status      enums.PaymentStatus `json:"status"`
	AmountCents int64               `json:"amount_cents"`
	PaidAt      *time.Time          `json:"paid_at,omitempty"`
	RefundedAt  *time.Time          `json:"refunded_at,omitempty"`
}

// OrderSummary is the list read model.
type OrderSummary struct {
	PublicID       uuid.UUID            `json:"id"`
	Status         enums.OrderStatus    `json:"status"`
	TotalCents     int64                `json:"total_cents"`
	ItemCount      int                  `json:"item_count"`
	ShippingMethod enums.ShippingMethod `json:"shipping_method"`
	CreatedAt      time.Time            `json:"created_at"`
}

// OrderDetail is the full read model for one order.
type OrderDetail struct {
	PublicID        uuid.UUID            `json:"id"`
	Status          enums.OrderStatus    `json:"status"`
	SubtotalCents   int64                `json:"subtotal_cents"`
	TaxCents        int64                `json:"tax_cents"`
	ShippingCents   int64                `json:"shipping_fee_cents"`
	TotalCents      int64                `json:"total_cents"`
	ShippingMethod  enums.ShippingMethod `json:"shipping_method"`
	ShippingAddress types.Address        `json:"shipping_address"`
	LineItems       []LineItemView       `json:"line_items"`
	Payment         *PaymentView         `json:"payment,omitempty"`
	CancelReason    *string              `json:"cancel_reason,omitempty"`
	CanceledAt      *time.Time           `json:"canceled_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderCreatedEvent is emitted when checkout commits.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     uuid.UUID         `json:"user_id"`
	Status     enums.OrderStatus `json:"status"`
	TotalCents int64             `json:"total_cents"`
	ItemCount  int               `json:"item_count"`
}

// OrderStateChangedEvent is emitted on every forward transition.
type OrderStateChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}

// OrderCanceledEvent is emitted when compensation commits. Downstream
// money movement keys off PaymentStatus refunded.
type OrderCanceledEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Reason        string              `json:"reason"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	RefundCents   int64               `json:"refund_cents"`
}
