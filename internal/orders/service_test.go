package orders

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
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/types"
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
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderLineItem{},
		&models.PaymentIntent{},
		&models.StockMovement{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *stubOutbox) {
	t.Helper()
	policy, err := NewFlatRatePolicy(testPricingConfig())
	if err != nil {
		t.Fatalf("pricing policy: %v", err)
	}
	ob := &stubOutbox{}
	svc, err := NewService(
		NewRepository(db),
		identity.NewResolver(db),
		stock.NewLedger(db),
		policy,
		dbTxRunner{db: db},
		ob,
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, ob
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	key := uuid.New()
	user := &models.User{
		PublicID: &key,
		Email:    uuid.NewString()[:8] + "@example.com",
		Name:     "Test Buyer",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, priceCents int64, qty int, status enums.ProductStatus) *models.Product {
	t.Helper()
	key := uuid.New()
	product := &models.Product{
		PublicID:   &key,
		SKU:        "SKU-" + uuid.NewString()[:8],
		Name:       "Test Product",
		PriceCents: priceCents,
		Quantity:   qty,
		Status:     status,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func testAddress() types.Address {
	return types.Address{
		Recipient:  "Pat Doe",
		Line1:      "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
}

func createInput(user *models.User, items ...OrderItemInput) CreateOrderInput {
	return CreateOrderInput{
		UserID:          *user.PublicID,
		Items:           items,
		ShippingMethod:  enums.ShippingMethodStandard,
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCreditCard,
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 2000, 10, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID,
		Quantity:  3,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if detail.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", detail.Status)
	}
	if detail.SubtotalCents != 6000 {
		t.Fatalf("expected subtotal 6000, got %d", detail.SubtotalCents)
	}
	// 5% tax plus standard shipping.
	if detail.TaxCents != 300 || detail.ShippingCents != 500 || detail.TotalCents != 6800 {
		t.Fatalf("unexpected totals: %+v", detail)
	}
	if len(detail.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(detail.LineItems))
	}
	line := detail.LineItems[0]
	if line.ProductSKU != product.SKU || line.UnitPriceCents != 2000 || line.Quantity != 3 {
		t.Fatalf("unexpected line snapshot: %+v", line)
	}
	if detail.Payment == nil || detail.Payment.Status != enums.PaymentStatusPending || detail.Payment.AmountCents != 6800 {
		t.Fatalf("unexpected payment intent: %+v", detail.Payment)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Quantity != 7 {
		t.Fatalf("expected stock 7 after reserve, got %d", reloaded.Quantity)
	}

	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected order_created event, got %+v", ob.events)
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	user := seedUser(t, db)
	plenty := seedProduct(t, db, 1000, 10, enums.ProductStatusActive)
	scarce := seedProduct(t, db, 1000, 1, enums.ProductStatusActive)

	_, err := svc.CreateOrder(context.Background(), createInput(user,
		OrderItemInput{ProductID: *plenty.PublicID, Quantity: 5},
		OrderItemInput{ProductID: *scarce.PublicID, Quantity: 2},
	))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	// Everything rolls back, including the first reservation.
	var reloaded models.Product
	if err := db.First(&reloaded, plenty.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Quantity != 10 {
		t.Fatalf("first reservation not rolled back: %d", reloaded.Quantity)
	}
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders, got %d", orderCount)
	}
	var movementCount int64
	if err := db.Model(&models.StockMovement{}).Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movementCount != 0 {
		t.Fatalf("expected no journal rows, got %d", movementCount)
	}
	if len(ob.events) != 0 {
		t.Fatalf("expected no events, got %d", len(ob.events))
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)

	_, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: uuid.New(),
		Quantity:  1,
	}))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if typed.Details() == nil {
		t.Fatal("expected offending products in details")
	}
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	inactive := seedProduct(t, db, 1000, 5, enums.ProductStatusInactive)

	_, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *inactive.PublicID,
		Quantity:  1,
	}))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateOrderRejectsDuplicateLines(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	_, err := svc.CreateOrder(context.Background(), createInput(user,
		OrderItemInput{ProductID: *product.PublicID, Quantity: 1},
		OrderItemInput{ProductID: *product.PublicID, Quantity: 2},
	))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateStatusSettlesPayment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 1,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:      detail.PublicID,
		TargetStatus: enums.OrderStatusProcessing,
		ActorUserID:  *user.PublicID,
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
	if updated.Payment == nil || updated.Payment.Status != enums.PaymentStatusSuccess {
		t.Fatalf("entering processing should settle payment: %+v", updated.Payment)
	}
	if updated.Payment.PaidAt == nil {
		t.Fatal("expected paid_at to be stamped")
	}

	last := ob.events[len(ob.events)-1]
	if last.EventType != enums.EventOrderStateChanged {
		t.Fatalf("expected state change event, got %s", last.EventType)
	}
}

func TestUpdateStatusRejectsCancelledTarget(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 1,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:      detail.PublicID,
		TargetStatus: enums.OrderStatusCancelled,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateStatusRejectsSkippedState(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 1,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:      detail.PublicID,
		TargetStatus: enums.OrderStatusShipped,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCancelPaidOrderRefundsAndReleases(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 3,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:      detail.PublicID,
		TargetStatus: enums.OrderStatusPaid,
	}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	cancelled, err := svc.CancelOrder(context.Background(), CancelOrderInput{
		OrderID:     detail.PublicID,
		Reason:      "changed my mind",
		ActorUserID: *user.PublicID,
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "changed my mind" {
		t.Fatalf("cancel reason not recorded: %+v", cancelled)
	}
	if cancelled.CanceledAt == nil {
		t.Fatal("expected canceled_at to be stamped")
	}
	if cancelled.Payment == nil || cancelled.Payment.Status != enums.PaymentStatusRefunded {
		t.Fatalf("paid intent should refund: %+v", cancelled.Payment)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Quantity != 5 {
		t.Fatalf("stock not released: %d", reloaded.Quantity)
	}

	last := ob.events[len(ob.events)-1]
	if last.EventType != enums.EventOrderCanceled {
		t.Fatalf("expected order_canceled event, got %s", last.EventType)
	}
	payload, ok := last.Data.(OrderCanceledEvent)
	if !ok {
		t.Fatalf("unexpected event payload %T", last.Data)
	}
	if payload.PaymentStatus != enums.PaymentStatusRefunded || payload.RefundCents != cancelled.TotalCents {
		t.Fatalf("unexpected cancel payload: %+v", payload)
	}
}

func TestCancelPendingOrderVoidsPayment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 1,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	cancelled, err := svc.CancelOrder(context.Background(), CancelOrderInput{
		OrderID:     detail.PublicID,
		Reason:      "ordered by mistake",
		ActorUserID: *user.PublicID,
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Payment == nil || cancelled.Payment.Status != enums.PaymentStatusCancelled {
		t.Fatalf("pending intent should be cancelled, not refunded: %+v", cancelled.Payment)
	}
}

func TestCancelTwiceIsStateConflict(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 2,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	input := CancelOrderInput{OrderID: detail.PublicID, Reason: "dup", ActorUserID: *user.PublicID}
	if _, err := svc.CancelOrder(context.Background(), input); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	_, err = svc.CancelOrder(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	// Double cancel must not release stock twice.
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Quantity != 5 {
		t.Fatalf("stock released twice: %d", reloaded.Quantity)
	}
}

func TestCancelDeliveredOrderRejected(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 1,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	for _, status := range []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusShipped, enums.OrderStatusDelivered} {
		if _, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
			OrderID:      detail.PublicID,
			TargetStatus: status,
		}); err != nil {
			t.Fatalf("advance to %s: %v", status, err)
		}
	}

	_, err = svc.CancelOrder(context.Background(), CancelOrderInput{
		OrderID:     detail.PublicID,
		Reason:      "too late",
		ActorUserID: *user.PublicID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	owner := seedUser(t, db)
	stranger := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(owner, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 1,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := svc.GetOrder(context.Background(), *owner.PublicID, detail.PublicID); err != nil {
		t.Fatalf("owner fetch: %v", err)
	}

	_, err = svc.GetOrder(context.Background(), *stranger.PublicID, detail.PublicID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("stranger should see not found: %v", err)
	}
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 100, enums.ProductStatusActive)

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
			ProductID: *product.PublicID, Quantity: 2,
		})); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}

	list, err := svc.ListOrders(context.Background(), *user.PublicID, pagination.Params{Limit: 2}, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(list.Orders))
	}
	if list.NextCursor == "" {
		t.Fatal("expected next cursor")
	}
	if list.Orders[0].ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", list.Orders[0].ItemCount)
	}

	rest, err := svc.ListOrders(context.Background(), *user.PublicID, pagination.Params{Limit: 2, Cursor: list.NextCursor}, ListFilters{})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest.Orders) != 1 {
		t.Fatalf("expected 1 order on page 2, got %d", len(rest.Orders))
	}

	pending := enums.OrderStatusPending
	filtered, err := svc.ListOrders(context.Background(), *user.PublicID, pagination.Params{}, ListFilters{Status: &pending})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered.Orders) != 3 {
		t.Fatalf("expected 3 pending orders, got %d", len(filtered.Orders))
	}
}

func TestCreateOrderNeverOversells(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	if _, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 3,
	})); err != nil {
		t.Fatalf("first order: %v", err)
	}

	_, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 3,
	}))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("second order should hit insufficient stock, got %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Quantity != 2 {
		t.Fatalf("expected 2 units left, got %d", reloaded.Quantity)
	}
}

// staleOrderRepo hands back a fixed pre-transition snapshot from the
// locked read, simulating a reader that observed the order before a
// concurrent cancel committed.
type staleOrderRepo struct {
	Repository
	snapshot models.Order
}

func (r staleOrderRepo) WithTx(tx *gorm.DB) Repository {
	return staleOrderRepo{Repository: r.Repository.WithTx(tx), snapshot: r.snapshot}
}

func (r staleOrderRepo) FindOrderForUpdate(_ context.Context, _ int64) (*models.Order, error) {
	order := r.snapshot
	return &order, nil
}

func TestCancelConflictsWhenStatusFlipsUnderneath(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, 1000, 5, enums.ProductStatusActive)

	detail, err := svc.CreateOrder(context.Background(), createInput(user, OrderItemInput{
		ProductID: *product.PublicID, Quantity: 3,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	var snapshot models.Order
	if err := db.Where("public_id = ?", detail.PublicID).First(&snapshot).Error; err != nil {
		t.Fatalf("snapshot order: %v", err)
	}

	input := CancelOrderInput{OrderID: detail.PublicID, Reason: "dup click", ActorUserID: *user.PublicID}
	if _, err := svc.CancelOrder(context.Background(), input); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	// The second canceller sees the order as still pending, so the
	// in-memory guards pass and only the conditional update can stop
	// the double release.
	policy, err := NewFlatRatePolicy(testPricingConfig())
	if err != nil {
		t.Fatalf("pricing policy: %v", err)
	}
	racing, err := NewService(
		staleOrderRepo{Repository: NewRepository(db), snapshot: snapshot},
		identity.NewResolver(db),
		stock.NewLedger(db),
		policy,
		dbTxRunner{db: db},
		&stubOutbox{},
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = racing.CancelOrder(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Quantity != 5 {
		t.Fatalf("stock released twice: %d", reloaded.Quantity)
	}
	var movements int64
	if err := db.Model(&models.StockMovement{}).Count(&movements).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movements != 2 {
		t.Fatalf("expected reserve and one release only, got %d movements", movements)
	}
}
