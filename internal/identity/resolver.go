package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	pkgerrors "github.com/JohnnyHuang0515/ecommerce-backend/pkg/errors"
)

// Resolver translates between public UUID keys and internal numeric ids.
// Internal ids stay inside the service boundary; public keys are the only
// handles clients ever hold. A soft-deleted row has no public key at all.
type Resolver interface {
	WithTx(tx *gorm.DB) Resolver
	Resolve(ctx context.Context, kind enums.EntityKind, publicID uuid.UUID) (int64, error)
	ResolveBatch(ctx context.Context, kind enums.EntityKind, publicIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	Publicize(ctx context.Context, kind enums.EntityKind, internalID int64) (uuid.UUID, error)
	Retire(ctx context.Context, kind enums.EntityKind, internalID int64) error
	Restore(ctx context.Context, kind enums.EntityKind, internalID int64) (uuid.UUID, error)
}

type resolver struct {
	db *gorm.DB
}

// NewResolver builds a resolver bound to the provided DB handle.
func NewResolver(db *gorm.DB) Resolver {
	return &resolver{db: db}
}

// NewPublicKey mints a fresh public key. Restore always mints rather than
// reusing the retired key, so stale references can never come back to life.
func NewPublicKey() uuid.UUID {
	return uuid.New()
}

func (r *resolver) WithTx(tx *gorm.DB) Resolver {
	if tx == nil {
		return r
	}
	return &resolver{db: tx}
}

func (r *resolver) Resolve(ctx context.Context, kind enums.EntityKind, publicID uuid.UUID) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	if publicID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "public id required")
	}

	var row struct{ ID int64 }
	err = r.db.WithContext(ctx).
		Table(table).
		Select("id").
		Where("public_id = ? AND deleted_at IS NULL", publicID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", kind))
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve public id")
	}
	return row.ID, nil
}

// ResolveBatch resolves every key in one query. Missing or retired keys
// are simply absent from the result map; the caller decides whether that
// is an error.
func (r *resolver) ResolveBatch(ctx context.Context, kind enums.EntityKind, publicIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	resolved := make(map[uuid.UUID]int64, len(publicIDs))
	if len(publicIDs) == 0 {
		return resolved, nil
	}

	var rows []struct {
		ID       int64
		PublicID uuid.UUID
	}
	err = r.db.WithContext(ctx).
		Table(table).
		Select("id, public_id").
		Where("public_id IN ? AND deleted_at IS NULL", publicIDs).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve public ids")
	}
	for _, row := range rows {
		resolved[row.PublicID] = row.ID
	}
	return resolved, nil
}

// Publicize returns the entity's public key, minting one lazily if the
// row has never been exposed before.
func (r *resolver) Publicize(ctx context.Context, kind enums.EntityKind, internalID int64) (uuid.UUID, error) {
	table, err := tableFor(kind)
	if err != nil {
		return uuid.Nil, err
	}

	var row struct{ PublicID *uuid.UUID }
	err = r.db.WithContext(ctx).
		Table(table).
		Select("public_id").
		Where("id = ? AND deleted_at IS NULL", internalID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", kind))
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load public id")
	}
	if row.PublicID != nil {
		return *row.PublicID, nil
	}

	minted := NewPublicKey()
	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND public_id IS NULL AND deleted_at IS NULL", internalID).
		Update("public_id", minted)
	if res.Error != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mint public id")
	}
	if res.RowsAffected == 0 {
		// Lost the race with a concurrent mint; reread the winner.
		return r.Publicize(ctx, kind, internalID)
	}
	return minted, nil
}

// Retire soft-deletes the row and withdraws its public key in one
// statement, so the key stops resolving at the same instant the row
// disappears.
func (r *resolver) Retire(ctx context.Context, kind enums.EntityKind, internalID int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND deleted_at IS NULL", internalID).
		Updates(map[string]any{
			"public_id":  nil,
			"deleted_at": time.Now(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "retire entity")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", kind))
	}
	return nil
}

// Restore brings a soft-deleted row back under a freshly minted public
// key. The old key is gone for good.
func (r *resolver) Restore(ctx context.Context, kind enums.EntityKind, internalID int64) (uuid.UUID, error) {
	table, err := tableFor(kind)
	if err != nil {
		return uuid.Nil, err
	}

	minted := NewPublicKey()
	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND deleted_at IS NOT NULL", internalID).
		Updates(map[string]any{
			"public_id":  minted,
			"deleted_at": nil,
		})
	if res.Error != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore entity")
	}
	if res.RowsAffected == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found or not deleted", kind))
	}
	return minted, nil
}

// tableFor maps the closed kind set onto table names. Unknown kinds are
// rejected before any SQL is built.
func tableFor(kind enums.EntityKind) (string, error) {
	if !kind.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity kind %q", kind))
	}
	return kind.Table(), nil
}
