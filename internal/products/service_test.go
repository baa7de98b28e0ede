package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/internal/identity"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/stock"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db/models"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	pkgerrors "github.com/JohnnyHuang0515/ecommerce-backend/pkg/errors"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/outbox"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/pagination"
)

type dbTxRunner struct {
	db *gorm.DB
}

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		panic("outbox emit outside transaction")
	}
	s.events = append(s.events, event)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Category{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *stubOutbox) {
	t.Helper()
	ob := &stubOutbox{}
	svc, err := NewService(
		NewRepository(db),
		identity.NewResolver(db),
		stock.NewLedger(db),
		dbTxRunner{db: db},
		ob,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, ob
}

func seedProduct(t *testing.T, db *gorm.DB, name string, qty int, status enums.ProductStatus) *models.Product {
	t.Helper()
	key := uuid.New()
	product := &models.Product{
		PublicID:   &key,
		SKU:        "SKU-" + uuid.NewString()[:8],
		Name:       name,
		PriceCents: 2500,
		Quantity:   qty,
		Status:     status,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	product := seedProduct(t, db, "Widget", 7, enums.ProductStatusActive)

	detail, err := svc.GetProduct(context.Background(), *product.PublicID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if detail.Name != "Widget" || detail.Quantity != 7 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if detail.PublicID != *product.PublicID {
		t.Fatalf("wrong public id")
	}
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	_, err := svc.GetProduct(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListProductsPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	for i := 0; i < 5; i++ {
		seedProduct(t, db, "Item", 3, enums.ProductStatusActive)
	}

	first, err := svc.ListProducts(context.Background(), pagination.Params{Limit: 3}, Filters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(first.Products))
	}
	if first.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	second, err := svc.ListProducts(context.Background(), pagination.Params{Limit: 3, Cursor: first.NextCursor}, Filters{})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Products) != 2 {
		t.Fatalf("expected 2 products on page 2, got %d", len(second.Products))
	}
	if second.NextCursor != "" {
		t.Fatal("expected no further cursor")
	}
}

func TestListLowStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	low := seedProduct(t, db, "Scarce", 2, enums.ProductStatusActive)
	seedProduct(t, db, "Plenty", 50, enums.ProductStatusActive)
	seedProduct(t, db, "Inactive", 1, enums.ProductStatusInactive)

	rows, err := svc.ListLowStock(context.Background(), 5)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 low stock row, got %d", len(rows))
	}
	if rows[0].PublicID != *low.PublicID {
		t.Fatalf("wrong product in low stock list")
	}
}

func TestAdjustStockEmitsEvent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	product := seedProduct(t, db, "Widget", 3, enums.ProductStatusActive)

	newQty, err := svc.AdjustStock(context.Background(), AdjustStockInput{
		ProductID: *product.PublicID,
		Delta:     7,
		Reason:    enums.StockMovementRestock,
		Actor:     "ops@example.com",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if newQty != 10 {
		t.Fatalf("expected quantity 10, got %d", newQty)
	}

	if len(ob.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(ob.events))
	}
	event := ob.events[0]
	if event.EventType != enums.EventStockAdjusted || event.AggregateID != *product.PublicID {
		t.Fatalf("unexpected event: %+v", event)
	}

	var movement models.StockMovement
	if err := db.Where("product_id = ?", product.ID).First(&movement).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Actor != "ops@example.com" || movement.Reason != enums.StockMovementRestock {
		t.Fatalf("unexpected movement: %+v", movement)
	}
}

func TestAdjustStockRejectsBadReason(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	product := seedProduct(t, db, "Widget", 3, enums.ProductStatusActive)

	_, err := svc.AdjustStock(context.Background(), AdjustStockInput{
		ProductID: *product.PublicID,
		Delta:     1,
		Reason:    enums.StockMovementReserve,
		Actor:     "ops",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRetireAndRestoreProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	product := seedProduct(t, db, "Widget", 3, enums.ProductStatusActive)
	oldKey := *product.PublicID

	if err := svc.RetireProduct(context.Background(), oldKey); err != nil {
		t.Fatalf("retire: %v", err)
	}

	_, err := svc.GetProduct(context.Background(), oldKey)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("retired product should be gone: %v", err)
	}

	restored, err := svc.RestoreProduct(context.Background(), product.SKU)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored == oldKey {
		t.Fatal("restore must mint a fresh public key")
	}

	detail, err := svc.GetProduct(context.Background(), restored)
	if err != nil {
		t.Fatalf("get restored: %v", err)
	}
	if detail.SKU != product.SKU {
		t.Fatalf("restored wrong product")
	}

	// Restoring a live product is a state conflict.
	_, err = svc.RestoreProduct(context.Background(), product.SKU)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}
