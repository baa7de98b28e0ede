package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/internal/identity"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db/models"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	pkgerrors "github.com/JohnnyHuang0515/ecommerce-backend/pkg/errors"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service keeps the server-side cart in step with live catalog state.
// A cart is a draft: sync adjusts it to whatever is actually orderable
// and reports what changed, instead of rejecting the request.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	SyncCart(ctx context.Context, input SyncCartInput) (*CartView, error)
	ConvertActiveCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	resolver identity.Resolver
	tx       txRunner
	logg     *logger.Logger
}

// NewService builds a cart service with the required dependencies. The
// logger may be nil.
func NewService(repo Repository, resolver identity.Resolver, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, resolver: resolver, tx: tx, logg: logg}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	internalUserID, err := s.resolver.Resolve(ctx, enums.EntityUser, userID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindActiveByUser(ctx, internalUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CartView{Status: enums.CartStatusActive, Items: []ItemView{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	view, err := s.buildView(ctx, s.repo, record, nil)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SyncCart replaces the user's active cart with the requested lines,
// clamped to live stock. Unresolvable or inactive products are dropped
// with a warning rather than failing the request.
func (s *service) SyncCart(ctx context.Context, input SyncCartInput) (*CartView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	internalUserID, err := s.resolver.Resolve(ctx, enums.EntityUser, input.UserID)
	if err != nil {
		return nil, err
	}

	requested := mergeLines(input.Items)

	var view *CartView
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		resolver := s.resolver.WithTx(tx)

		record, err := repo.FindActiveByUser(ctx, internalUserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			key := identity.NewPublicKey()
			record = &models.CartRecord{
				PublicID: &key,
				UserID:   internalUserID,
				Status:   enums.CartStatusActive,
			}
			if err := repo.Create(ctx, record); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		} else if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		publicIDs := make([]uuid.UUID, 0, len(requested))
		for _, line := range requested {
			publicIDs = append(publicIDs, line.ProductID)
		}
		resolved, err := resolver.ResolveBatch(ctx, enums.EntityProduct, publicIDs)
		if err != nil {
			return err
		}

		internalIDs := make([]int64, 0, len(resolved))
		for _, id := range resolved {
			internalIDs = append(internalIDs, id)
		}
		productRows, err := repo.FindProductsByIDs(ctx, internalIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		productsByID := make(map[int64]models.Product, len(productRows))
		for _, p := range productRows {
			productsByID[p.ID] = p
		}

		warnings := make([]Warning, 0)
		items := make([]models.CartItem, 0, len(requested))
		for _, line := range requested {
			internalID, ok := resolved[line.ProductID]
			if !ok {
				warnings = append(warnings, Warning{
					ProductID: line.ProductID,
					Kind:      enums.CartWarningRemovedNotFound,
				})
				continue
			}
			product, ok := productsByID[internalID]
			if !ok {
				warnings = append(warnings, Warning{
					ProductID: line.ProductID,
					Kind:      enums.CartWarningRemovedNotFound,
				})
				continue
			}
			if product.Status != enums.ProductStatusActive {
				warnings = append(warnings, Warning{
					ProductID: line.ProductID,
					Kind:      enums.CartWarningRemovedInactive,
				})
				continue
			}
			quantity := line.Quantity
			if quantity > product.Quantity {
				warnings = append(warnings, Warning{
					ProductID: line.ProductID,
					Kind:      enums.CartWarningQuantityClamped,
					Requested: quantity,
					Available: product.Quantity,
				})
				quantity = product.Quantity
			}
			if quantity <= 0 {
				continue
			}
			items = append(items, models.CartItem{
				ProductID: internalID,
				Quantity:  quantity,
			})
		}

		if err := repo.ReplaceItems(ctx, record.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart items")
		}
		record.Items = items

		view, err = s.buildView(ctx, repo, record, warnings)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"items":    len(view.Items),
			"warnings": len(view.Warnings),
		})
		s.logg.Info(logCtx, "cart synchronized")
	}
	return view, nil
}

// ConvertActiveCart flips the user's active cart to converted after a
// successful checkout. A missing cart is not an error; checkout does
// not require one.
func (s *service) ConvertActiveCart(ctx context.Context, userID uuid.UUID) error {
	internalUserID, err := s.resolver.Resolve(ctx, enums.EntityUser, userID)
	if err != nil {
		return err
	}
	record, err := s.repo.FindActiveByUser(ctx, internalUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.UpdateStatus(ctx, record.ID, enums.CartStatusConverted); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
	}
	return nil
}

// mergeLines collapses duplicate product references by summing their
// quantities, dropping non-positive lines up front.
func mergeLines(lines []SyncItemInput) []SyncItemInput {
	merged := make([]SyncItemInput, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func (s *service) buildView(ctx context.Context, repo Repository, record *models.CartRecord, warnings []Warning) (*CartView, error) {
	ids := make([]int64, 0, len(record.Items))
	for _, item := range record.Items {
		ids = append(ids, item.ProductID)
	}
	productRows, err := repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	productsByID := make(map[int64]models.Product, len(productRows))
	for _, p := range productRows {
		productsByID[p.ID] = p
	}

	view := &CartView{
		PublicID:  record.PublicID,
		Status:    record.Status,
		Items:     make([]ItemView, 0, len(record.Items)),
		Warnings:  warnings,
		UpdatedAt: record.UpdatedAt,
	}
	for _, item := range record.Items {
		product, ok := productsByID[item.ProductID]
		if !ok || product.PublicID == nil {
			// The product vanished since the last sync; the next sync
			// will drop the line with a warning.
			continue
		}
		lineTotal := product.PriceCents * int64(item.Quantity)
		view.Items = append(view.Items, ItemView{
			ProductID:      *product.PublicID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: lineTotal,
		})
		view.SubtotalCents += lineTotal
	}
	return view, nil
}
