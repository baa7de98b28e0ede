package stock

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db/models"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	pkgerrors "github.com/JohnnyHuang0515/ecommerce-backend/pkg/errors"
)

// Ledger owns every mutation of product quantity. Each operation is a
// single conditional UPDATE, so two concurrent buyers can never both
// take the last unit, and each writes a journal row in the same
// transaction as the quantity change.
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger
	Reserve(ctx context.Context, productID int64, qty int, ref MovementRef) (int, error)
	Release(ctx context.Context, productID int64, qty int, ref MovementRef) (int, error)
	Adjust(ctx context.Context, productID int64, delta int, ref MovementRef) (int, error)
}

// MovementRef carries audit metadata for the journal row.
type MovementRef struct {
	Reason  enums.StockMovementReason
	Actor   string
	OrderID *int64
	Note    *string
}

type ledger struct {
	db *gorm.DB
}

// NewLedger builds a ledger bound to the provided DB handle.
func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) WithTx(tx *gorm.DB) Ledger {
	if tx == nil {
		return l
	}
	return &ledger{db: tx}
}

// Reserve takes qty units, failing the statement itself when fewer than
// qty remain. Zero rows updated with the product present means another
// buyer got there first.
func (l *ledger) Reserve(ctx context.Context, productID int64, qty int, ref MovementRef) (int, error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}

	var row struct{ Quantity int }
	res := l.db.WithContext(ctx).Raw(`
		UPDATE products
		SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity >= ? AND deleted_at IS NULL
		RETURNING quantity
	`, qty, productID, qty).Scan(&row)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return 0, l.classifyShortfall(ctx, productID, qty)
	}

	if err := l.journal(ctx, productID, -qty, row.Quantity, ref); err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// Release returns qty units unconditionally; compensation must never
// fail for lack of stock.
func (l *ledger) Release(ctx context.Context, productID int64, qty int, ref MovementRef) (int, error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive")
	}

	var row struct{ Quantity int }
	res := l.db.WithContext(ctx).Raw(`
		UPDATE products
		SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING quantity
	`, qty, productID).Scan(&row)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if err := l.journal(ctx, productID, qty, row.Quantity, ref); err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// Adjust applies a signed administrative delta. Negative deltas are
// guarded the same way Reserve is, so the count can never go below zero.
func (l *ledger) Adjust(ctx context.Context, productID int64, delta int, ref MovementRef) (int, error) {
	if delta == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}

	var row struct{ Quantity int }
	res := l.db.WithContext(ctx).Raw(`
		UPDATE products
		SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity + ? >= 0 AND deleted_at IS NULL
		RETURNING quantity
	`, delta, productID, delta).Scan(&row)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust stock")
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			return 0, l.classifyShortfall(ctx, productID, -delta)
		}
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if err := l.journal(ctx, productID, delta, row.Quantity, ref); err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// classifyShortfall tells a missing product apart from a guarded update
// that found too little stock.
func (l *ledger) classifyShortfall(ctx context.Context, productID int64, wanted int) error {
	var current struct{ Quantity int }
	err := l.db.WithContext(ctx).
		Table("products").
		Select("quantity").
		Where("id = ? AND deleted_at IS NULL", productID).
		Take(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inspect stock level")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("requested %d units, %d available", wanted, current.Quantity)).
		WithDetails(map[string]any{"requested": wanted, "available": current.Quantity})
}

func (l *ledger) journal(ctx context.Context, productID int64, delta, quantityAfter int, ref MovementRef) error {
	if !ref.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement reason required")
	}
	movement := models.StockMovement{
		ProductID:     productID,
		OrderID:       ref.OrderID,
		Reason:        ref.Reason,
		Delta:         delta,
		QuantityAfter: quantityAfter,
		Actor:         ref.Actor,
		Note:          ref.Note,
	}
	if err := l.db.WithContext(ctx).Create(&movement).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "journal stock movement")
	}
	return nil
}
