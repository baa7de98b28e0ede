package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
)

// SyncItemInput is one requested cart line, keyed by the product's
// public id.
type SyncItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// SyncCartInput replaces the user's active cart with the given lines,
// adjusted against live stock.
type SyncCartInput struct {
	UserID uuid.UUID
	Items  []SyncItemInput
}

// ItemView is the read model for one synchronized cart line.
type ItemView struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	ProductSKU     string    `json:"product_sku"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// Warning records a non-fatal adjustment made while syncing. Requested
// and Available are only meaningful for quantity clamps.
type Warning struct {
	ProductID uuid.UUID         `json:"product_id"`
	Kind      enums.CartWarning `json:"kind"`
	Requested int               `json:"requested,omitempty"`
	Available int               `json:"available,omitempty"`
}

// CartView is the full cart read model. Warnings are computed per sync
// and never persisted.
type CartView struct {
	PublicID      *uuid.UUID       `json:"id,omitempty"`
	Status        enums.CartStatus `json:"status"`
	Items         []ItemView       `json:"items"`
	Warnings      []Warning        `json:"warnings,omitempty"`
	SubtotalCents int64            `json:"subtotal_cents"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
