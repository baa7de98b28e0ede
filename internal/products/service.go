package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/internal/identity"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/stock"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db/models"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	pkgerrors "github.com/JohnnyHuang0515/ecommerce-backend/pkg/errors"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/outbox"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines catalog reads plus the administrative stock and
// lifecycle operations.
type Service interface {
	GetProduct(ctx context.Context, publicID uuid.UUID) (*ProductDetail, error)
	ListProducts(ctx context.Context, params pagination.Params, filters Filters) (*ProductList, error)
	ListLowStock(ctx context.Context, threshold int) ([]ProductSummary, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (int, error)
	RetireProduct(ctx context.Context, publicID uuid.UUID) error
	RestoreProduct(ctx context.Context, sku string) (uuid.UUID, error)
}

type service struct {
	repo     Repository
	resolver identity.Resolver
	ledger   stock.Ledger
	tx       txRunner
	outbox   outboxPublisher
}

// NewService builds a product service with the required dependencies.
func NewService(repo Repository, resolver identity.Resolver, ledger stock.Ledger, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		resolver: resolver,
		ledger:   ledger,
		tx:       tx,
		outbox:   ob,
	}, nil
}

func (s *service) GetProduct(ctx context.Context, publicID uuid.UUID) (*ProductDetail, error) {
	if publicID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	detail := toDetail(product)
	if product.CategoryID != nil {
		categoryKey, err := s.resolver.Publicize(ctx, enums.EntityCategory, *product.CategoryID)
		if err == nil {
			detail.CategoryID = &categoryKey
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			return nil, err
		}
	}
	return &detail, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params, filters Filters) (*ProductList, error) {
	rows, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &ProductList{Products: make([]ProductSummary, 0, len(rows))}
	for i, row := range rows {
		if i == limit {
			last := rows[limit-1]
			if last.PublicID != nil {
				list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
					CreatedAt: last.CreatedAt,
					PublicID:  *last.PublicID,
				})
			}
			break
		}
		list.Products = append(list.Products, toSummary(&row))
	}
	return list, nil
}

func (s *service) ListLowStock(ctx context.Context, threshold int) ([]ProductSummary, error) {
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be non-negative")
	}
	rows, err := s.repo.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	summaries := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, toSummary(&row))
	}
	return summaries, nil
}

// AdjustStock applies an administrative delta and records the event, all
// in one transaction.
func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (int, error) {
	if input.ProductID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Actor == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}
	if input.Reason != enums.StockMovementManualAdjust && input.Reason != enums.StockMovementRestock {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "reason must be manual_adjust or restock")
	}

	var newQty int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		internalID, err := s.resolver.WithTx(tx).Resolve(ctx, enums.EntityProduct, input.ProductID)
		if err != nil {
			return err
		}

		newQty, err = s.ledger.WithTx(tx).Adjust(ctx, internalID, input.Delta, stock.MovementRef{
			Reason: input.Reason,
			Actor:  input.Actor,
			Note:   input.Note,
		})
		if err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   input.ProductID,
			Version:       1,
			Data: StockAdjustedEvent{
				ProductID:   input.ProductID,
				Delta:       input.Delta,
				NewQuantity: newQty,
				Reason:      input.Reason,
				Actor:       input.Actor,
			},
		})
	})
	if err != nil {
		return 0, err
	}
	return newQty, nil
}

// RetireProduct soft-deletes the product and withdraws its public key.
func (s *service) RetireProduct(ctx context.Context, publicID uuid.UUID) error {
	if publicID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		resolver := s.resolver.WithTx(tx)
		internalID, err := resolver.Resolve(ctx, enums.EntityProduct, publicID)
		if err != nil {
			return err
		}
		return resolver.Retire(ctx, enums.EntityProduct, internalID)
	})
}

// RestoreProduct revives a soft-deleted product under a fresh public
// key. Lookup is by SKU since the retired key no longer exists.
func (s *service) RestoreProduct(ctx context.Context, sku string) (uuid.UUID, error) {
	if sku == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}

	var restored uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.repo.WithTx(tx).FindBySKUIncludingDeleted(ctx, sku)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.DeletedAt == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is not deleted")
		}

		restored, err = s.resolver.WithTx(tx).Restore(ctx, enums.EntityProduct, product.ID)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return restored, nil
}

func toSummary(product *models.Product) ProductSummary {
	summary := ProductSummary{
		SKU:        product.SKU,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Quantity:   product.Quantity,
		Status:     product.Status,
		Tags:       product.Tags,
		CreatedAt:  product.CreatedAt,
	}
	if product.PublicID != nil {
		summary.PublicID = *product.PublicID
	}
	return summary
}

func toDetail(product *models.Product) ProductDetail {
	detail := ProductDetail{
		ProductSummary: toSummary(product),
		Description:    product.Description,
		UpdatedAt:      product.UpdatedAt,
	}
	return detail
}
