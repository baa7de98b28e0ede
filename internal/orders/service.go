package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JohnnyHuang0515/ecommerce-backend/internal/identity"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/stock"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db/models"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/enums"
	pkgerrors "github.com/JohnnyHuang0515/ecommerce-backend/pkg/errors"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/metrics"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/outbox"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service coordinates the order lifecycle: checkout, forward status
// transitions, and the cancellation compensation flow.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetail, error)
	CancelOrder(ctx context.Context, input CancelOrderInput) (*OrderDetail, error)
}

type service struct {
	repo     Repository
	resolver identity.Resolver
	ledger   stock.Ledger
	pricing  PricingPolicy
	tx       txRunner
	outbox   outboxPublisher
	metrics  *metrics.OrderMetrics
}

// NewService builds the order coordinator with the required dependencies.
// Metrics may be nil; the recorder methods are nil-safe.
func NewService(repo Repository, resolver identity.Resolver, ledger stock.Ledger, pricing PricingPolicy, tx txRunner, ob outboxPublisher, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if pricing == nil {
		return nil, fmt.Errorf("pricing policy required")
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
		pricing:  pricing,
		tx:       tx,
		outbox:   ob,
		metrics:  m,
	}, nil
}

// CreateOrder runs the whole checkout as one atomic unit: resolve and
// validate every line, reserve stock, snapshot prices, open a payment
// intent, and queue the created event. Any failure rolls back all of it.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDetail, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.ShippingMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if seen[item.ProductID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		seen[item.ProductID] = true
	}

	started := time.Now()
	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		resolver := s.resolver.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		userID, err := resolver.Resolve(ctx, enums.EntityUser, input.UserID)
		if err != nil {
			return err
		}

		publicIDs := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			publicIDs = append(publicIDs, item.ProductID)
		}
		resolved, err := resolver.ResolveBatch(ctx, enums.EntityProduct, publicIDs)
		if err != nil {
			return err
		}
		var missing []uuid.UUID
		for _, id := range publicIDs {
			if _, ok := resolved[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "one or more products do not exist").
				WithDetails(map[string]any{"missing_products": missing})
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

		var inactive []uuid.UUID
		var subtotal int64
		lineItems := make([]models.OrderLineItem, 0, len(input.Items))
		for _, item := range input.Items {
			product := productsByID[resolved[item.ProductID]]
			if product.Status != enums.ProductStatusActive {
				inactive = append(inactive, item.ProductID)
				continue
			}
			lineTotal := product.PriceCents * int64(item.Quantity)
			subtotal += lineTotal
			lineItems = append(lineItems, models.OrderLineItem{
				ProductID:      product.ID,
				ProductName:    product.Name,
				ProductSKU:     product.SKU,
				UnitPriceCents: product.PriceCents,
				Quantity:       item.Quantity,
				LineTotalCents: lineTotal,
			})
		}
		if len(inactive) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "one or more products are not purchasable").
				WithDetails(map[string]any{"inactive_products": inactive})
		}

		quote, err := s.pricing.Price(subtotal, input.ShippingMethod)
		if err != nil {
			return err
		}

		addressJSON, err := json.Marshal(input.ShippingAddress)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipping address")
		}

		orderKey := identity.NewPublicKey()
		order := &models.Order{
			PublicID:        &orderKey,
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			SubtotalCents:   quote.SubtotalCents,
			TaxCents:        quote.TaxCents,
			ShippingCents:   quote.ShippingCents,
			TotalCents:      quote.TotalCents,
			ShippingMethod:  input.ShippingMethod,
			ShippingAddress: addressJSON,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for i := range lineItems {
			lineItems[i].OrderID = order.ID
		}
		if err := repo.CreateLineItems(ctx, lineItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line items")
		}

		for _, line := range lineItems {
			orderRef := order.ID
			if _, err := ledger.Reserve(ctx, line.ProductID, line.Quantity, stock.MovementRef{
				Reason:  enums.StockMovementReserve,
				Actor:   input.UserID.String(),
				OrderID: &orderRef,
			}); err != nil {
				return err
			}
		}

		intentKey := identity.NewPublicKey()
		intent := &models.PaymentIntent{
			PublicID:    &intentKey,
			OrderID:     order.ID,
			Method:      input.PaymentMethod,
			Status:      enums.PaymentStatusPending,
			AmountCents: quote.TotalCents,
		}
		if _, err := repo.CreatePaymentIntent(ctx, intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderKey,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: OrderCreatedEvent{
				OrderID:    orderKey,
				UserID:     input.UserID,
				Status:     order.Status,
				TotalCents: order.TotalCents,
				ItemCount:  len(lineItems),
			},
		}); err != nil {
			return err
		}

		detail = buildDetail(order, lineItems, intent)
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			s.metrics.IncInsufficientStock()
		}
		return nil, err
	}

	s.metrics.IncCreated(input.ShippingMethod.String())
	s.metrics.ObserveCreateDuration(time.Since(started))
	return detail, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	internalOrderID, err := s.resolver.Resolve(ctx, enums.EntityOrder, orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOwnedOrder(ctx, s.repo, internalOrderID, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.FindLineItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
	}
	intent, err := s.repo.FindPaymentIntentByOrder(ctx, order.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
	}
	return buildDetail(order, items, intent), nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	internalUserID, err := s.resolver.Resolve(ctx, enums.EntityUser, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, internalUserID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	itemCounts, err := s.lineItemCounts(ctx, rows)
	if err != nil {
		return nil, err
	}
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
		summary := OrderSummary{
			Status:         row.Status,
			TotalCents:     row.TotalCents,
			ItemCount:      itemCounts[row.ID],
			ShippingMethod: row.ShippingMethod,
			CreatedAt:      row.CreatedAt,
		}
		if row.PublicID != nil {
			summary.PublicID = *row.PublicID
		}
		list.Orders = append(list.Orders, summary)
	}
	return list, nil
}

// UpdateStatus moves an order along the forward state machine. The
// cancelled edge is rejected here; cancellation has its own flow with
// stock and payment compensation.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.TargetStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}
	if input.TargetStatus == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "use the cancel operation to cancel an order")
	}

	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		resolver := s.resolver.WithTx(tx)

		internalOrderID, err := resolver.Resolve(ctx, enums.EntityOrder, input.OrderID)
		if err != nil {
			return err
		}
		order, err := repo.FindOrderForUpdate(ctx, internalOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !canTransition(order.Status, input.TargetStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition from %s to %s", order.Status, input.TargetStatus))
		}

		fromStatus := order.Status
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": input.TargetStatus}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.TargetStatus

		// Entering a paid state settles the pending intent.
		if input.TargetStatus.IsPaidState() && !fromStatus.IsPaidState() {
			if err := repo.UpdatePaymentIntent(ctx, order.ID, map[string]any{
				"status":  enums.PaymentStatusSuccess,
				"paid_at": time.Now(),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment intent")
			}
		}

		if order.PublicID != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderStateChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   *order.PublicID,
				Version:       1,
				Data: OrderStateChangedEvent{
					OrderID:    *order.PublicID,
					FromStatus: fromStatus,
					ToStatus:   order.Status,
				},
			}); err != nil {
				return err
			}
		}

		items, err := repo.FindLineItemsByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
		}
		intent, err := repo.FindPaymentIntentByOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
		}
		detail = buildDetail(order, items, intent)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// CancelOrder runs the compensation flow: flip the status, return every
// reserved unit to stock, and settle the payment intent, all in one
// transaction. A successful payment becomes refunded; a pending one is
// simply cancelled.
func (s *service) CancelOrder(ctx context.Context, input CancelOrderInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancel reason required")
	}

	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		resolver := s.resolver.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		internalOrderID, err := resolver.Resolve(ctx, enums.EntityOrder, input.OrderID)
		if err != nil {
			return err
		}
		// The row lock serializes concurrent cancels and racing forward
		// transitions; without it two cancels could both observe a
		// cancellable status and double-release stock.
		order, err := repo.FindOrderForUpdate(ctx, internalOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if input.ActorUserID != uuid.Nil {
			ownerID, err := resolver.Resolve(ctx, enums.EntityUser, input.ActorUserID)
			if err != nil {
				return err
			}
			if order.UserID != ownerID {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already cancelled")
		}
		if !cancellable(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in state %s cannot be cancelled", order.Status))
		}

		now := time.Now()
		flipped, err := repo.UpdateOrderWhereStatus(ctx, order.ID, cancellableStatuses, map[string]any{
			"status":        enums.OrderStatusCancelled,
			"cancel_reason": input.Reason,
			"canceled_at":   now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if flipped == 0 {
			// Belt and suspenders for dialects without row locks: the
			// order left the cancellable set between read and write, so
			// no compensation may run.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}
		order.Status = enums.OrderStatusCancelled
		order.CancelReason = &input.Reason
		order.CanceledAt = &now

		items, err := repo.FindLineItemsByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
		}
		for _, line := range items {
			orderRef := order.ID
			if _, err := ledger.Release(ctx, line.ProductID, line.Quantity, stock.MovementRef{
				Reason:  enums.StockMovementRelease,
				Actor:   input.ActorUserID.String(),
				OrderID: &orderRef,
			}); err != nil {
				return err
			}
		}

		intent, err := repo.FindPaymentIntentByOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
		}
		paymentStatus := enums.PaymentStatusCancelled
		var refundCents int64
		if intent != nil {
			updates := map[string]any{"status": enums.PaymentStatusCancelled}
			if intent.Status == enums.PaymentStatusSuccess {
				paymentStatus = enums.PaymentStatusRefunded
				refundCents = intent.AmountCents
				updates["status"] = enums.PaymentStatusRefunded
				updates["refunded_at"] = now
			}
			if err := repo.UpdatePaymentIntent(ctx, order.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment intent")
			}
			intent.Status = paymentStatus
			if paymentStatus == enums.PaymentStatusRefunded {
				intent.RefundedAt = &now
			}
		}

		if order.PublicID != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCanceled,
				AggregateType: enums.AggregateOrder,
				AggregateID:   *order.PublicID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: input.ActorUserID},
				Data: OrderCanceledEvent{
					OrderID:       *order.PublicID,
					Reason:        input.Reason,
					PaymentStatus: paymentStatus,
					RefundCents:   refundCents,
				},
			}); err != nil {
				return err
			}
		}

		detail = buildDetail(order, items, intent)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCanceled()
	return detail, nil
}

// loadOwnedOrder loads the order and enforces that it belongs to the
// acting user when an actor is supplied.
func (s *service) loadOwnedOrder(ctx context.Context, repo Repository, orderID int64, actorID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if actorID != uuid.Nil {
		ownerID, err := s.resolver.Resolve(ctx, enums.EntityUser, actorID)
		if err != nil {
			return nil, err
		}
		if order.UserID != ownerID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	return order, nil
}

func (s *service) lineItemCounts(ctx context.Context, rows []models.Order) (map[int64]int, error) {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.repo.SumLineItemQuantities(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count line items")
	}
	return counts, nil
}

func buildDetail(order *models.Order, items []models.OrderLineItem, intent *models.PaymentIntent) *OrderDetail {
	detail := &OrderDetail{
		Status:         order.Status,
		SubtotalCents:  order.SubtotalCents,
		TaxCents:       order.TaxCents,
		ShippingCents:  order.ShippingCents,
		TotalCents:     order.TotalCents,
		ShippingMethod: order.ShippingMethod,
		CancelReason:   order.CancelReason,
		CanceledAt:     order.CanceledAt,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if order.PublicID != nil {
		detail.PublicID = *order.PublicID
	}
	if len(order.ShippingAddress) > 0 {
		_ = json.Unmarshal(order.ShippingAddress, &detail.ShippingAddress)
	}
	detail.LineItems = make([]LineItemView, 0, len(items))
	for _, item := range items {
		detail.LineItems = append(detail.LineItems, LineItemView{
			ProductName:    item.ProductName,
			ProductSKU:     item.ProductSKU,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: item.LineTotalCents,
		})
	}
	if intent != nil {
		payment := &PaymentView{
			Method:      intent.Method,
			Status:      intent.Status,
			AmountCents: intent.AmountCents,
			PaidAt:      intent.PaidAt,
			RefundedAt:  intent.RefundedAt,
		}
		if intent.PublicID != nil {
			payment.PublicID = *intent.PublicID
		}
		detail.Payment = payment
	}
	return detail
}
