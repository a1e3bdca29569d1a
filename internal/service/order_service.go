package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventory/internal/metrics"
	"inventory/internal/model"
	"inventory/internal/repository"
	"inventory/pkg/apperror"
	"inventory/pkg/logger"
	"inventory/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("inventory-service")

// DTOs
type OrderItemRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid"`
	Quantity  int     `json:"quantity" binding:"required,gte=1"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
}

type CreateOrderRequest struct {
	CustomerName  *string            `json:"customer_name"`
	CustomerPhone *string            `json:"customer_phone"`
	Notes         *string            `json:"notes"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type orderService struct {
	orderRepo   repository.OrderRepository
	ledger      InventoryLedger
	sequence    OrderSequence
	txManager   repository.TransactionManager
	reportCache ReportCache
	publisher   EventPublisher
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	ledger InventoryLedger,
	sequence OrderSequence,
	txManager repository.TransactionManager,
	reportCache ReportCache,
	publisher EventPublisher,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		ledger:      ledger,
		sequence:    sequence,
		txManager:   txManager,
		reportCache: reportCache,
		publisher:   publisher,
		now:         time.Now,
	}
}

type orderLine struct {
	productID uuid.UUID
	quantity  int
	size      *string
	color     *string
}

func parseOrderLines(items []OrderItemRequest) ([]orderLine, error) {
	if len(items) == 0 {
		return nil, apperror.Validation("order must contain at least one item")
	}
	lines := make([]orderLine, 0, len(items))
	for i, item := range items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apperror.Validation(fmt.Sprintf("items[%d].product_id is not a valid id", i))
		}
		if item.Quantity < 1 {
			return nil, apperror.Validation(fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
		lines = append(lines, orderLine{
			productID: pid,
			quantity:  item.Quantity,
			size:      item.Size,
			color:     item.Color,
		})
	}
	return lines, nil
}

// CreateOrder sells the requested items in one transaction: number the
// order, lock every product, check and decrement stock, snapshot prices and
// persist the order with its items. Any failure rolls everything back.
func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(attribute.Int("order.items", len(req.Items))),
	)
	defer span.End()

	lines, err := parseOrderLines(req.Items)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	var lowStock []model.Product
	err = withRetry(ctx, "create order", func() error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			var txErr error
			order, lowStock, txErr = s.createOrderTx(txCtx, req, lines)
			return txErr
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.number", order.OrderNumber),
	)
	metrics.OrdersCreatedTotal.Inc()
	logger.Info(ctx).
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Msg("order created")

	publish(ctx, s.publisher, model.NewEvent(model.EventOrderCreated, order.ID.String(), order))
	for _, p := range lowStock {
		metrics.LowStockEventsTotal.Inc()
		publish(ctx, s.publisher, model.NewEvent(model.EventLowStock, p.ID.String(), p))
	}

	return order, nil
}

func (s *orderService) createOrderTx(ctx context.Context, req CreateOrderRequest, lines []orderLine) (*model.Order, []model.Product, error) {
	now := s.now()

	orderNumber, err := s.sequence.Next(ctx, now)
	if err != nil {
		return nil, nil, err
	}

	// Lock in one global order so two orders over the same products cannot
	// wait on each other.
	products, err := s.lockProducts(ctx, lines)
	if err != nil {
		return nil, nil, err
	}

	order := &model.Order{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	totalAmount := decimal.Zero
	totalHPP := decimal.Zero
	items := make([]model.OrderItem, 0, len(lines))

	for i, line := range lines {
		product := products[line.productID]
		if product.Stock < line.quantity {
			return nil, nil, apperror.InsufficientStock(product.ID.String(), product.Name, product.Stock, line.quantity)
		}

		qty := decimal.NewFromInt(int64(line.quantity))
		subtotal := product.SellingPrice.Mul(qty)
		totalAmount = totalAmount.Add(subtotal)
		totalHPP = totalHPP.Add(product.HPP.Mul(qty))

		snapshot := model.SnapshotOf(product)
		if line.size != nil {
			snapshot.Size = *line.size
		}
		if line.color != nil {
			snapshot.Color = *line.color
		}

		updated, err := s.ledger.AdjustStock(ctx, product.ID, -line.quantity, MovementEntry{
			Type:          model.MovementOut,
			ReferenceType: model.ReferenceOrder,
			ReferenceID:   order.ID,
			Notes:         "Sale " + orderNumber,
		})
		if err != nil {
			return nil, nil, err
		}
		products[line.productID] = updated

		items = append(items, model.OrderItem{
			ID:              uuid.New(),
			OrderID:         order.ID,
			ProductSnapshot: snapshot,
			LineNo:          i + 1,
			Quantity:        line.quantity,
			Subtotal:        subtotal,
			CreatedAt:       now,
		})
	}

	order.Items = items
	order.TotalAmount = totalAmount
	order.TotalHPP = totalHPP
	order.Profit = totalAmount.Sub(totalHPP)

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	var lowStock []model.Product
	for _, id := range sortedProductIDs(lines) {
		if p := products[id]; p.IsLowStock() {
			lowStock = append(lowStock, *p)
		}
	}

	return order, lowStock, nil
}

func (s *orderService) lockProducts(ctx context.Context, lines []orderLine) (map[uuid.UUID]*model.Product, error) {
	products := make(map[uuid.UUID]*model.Product, len(lines))
	for _, id := range sortedProductIDs(lines) {
		product, err := s.ledger.LockAndGet(ctx, id)
		if err != nil {
			return nil, err
		}
		products[id] = product
	}
	return products, nil
}

// itemsByProduct returns a copy of items sorted by product id so restocking
// takes row locks in the same order as order creation.
func itemsByProduct(items []model.OrderItem) []model.OrderItem {
	sorted := append([]model.OrderItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ProductID.String() < sorted[j].ProductID.String()
	})
	return sorted
}

// sortedProductIDs returns the distinct product ids of lines in ascending
// order, which matches how Postgres orders uuid values.
func sortedProductIDs(lines []orderLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.productID]; ok {
			continue
		}
		seen[line.productID] = struct{}{}
		ids = append(ids, line.productID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid order id")
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("order", id)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	page := pagination.Normalize(filter.Page, filter.Limit)
	filter.Page, filter.Limit = page.Page, page.Limit
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.Validation("unknown order status " + string(filter.Status))
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, 0, apperror.Validation("start_date must not be after end_date")
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateOrderStatus moves a pending order to completed or cancelled.
// Cancelling gives every item's quantity back to its product.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateOrderStatus",
		trace.WithAttributes(
			attribute.String("order.id", id),
			attribute.String("order.target_status", string(status)),
		),
	)
	defer span.End()

	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid order id")
	}
	if !status.Valid() {
		return nil, apperror.Validation("unknown order status " + string(status))
	}

	var order *model.Order
	var previous model.OrderStatus
	err = withRetry(ctx, "update order status", func() error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			locked, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
			if err != nil {
				if repository.IsNotFound(err) {
					return apperror.NotFound("order", id)
				}
				return fmt.Errorf("failed to lock order: %w", err)
			}

			if !locked.Status.CanTransitionTo(status) {
				return apperror.InvalidTransition(string(locked.Status), string(status))
			}

			if status == model.OrderStatusCancelled {
				for _, item := range itemsByProduct(locked.Items) {
					if _, err := s.ledger.AdjustStock(txCtx, item.ProductID, item.Quantity, MovementEntry{
						Type:          model.MovementIn,
						ReferenceType: model.ReferenceOrder,
						ReferenceID:   locked.ID,
						Notes:         "Cancelled " + locked.OrderNumber,
					}); err != nil {
						return err
					}
				}
			}

			if err := s.orderRepo.UpdateStatus(txCtx, locked.ID, status); err != nil {
				return fmt.Errorf("failed to update order status: %w", err)
			}

			previous = locked.Status
			locked.Status = status
			locked.UpdatedAt = s.now()
			order = locked
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(previous), string(status)).Inc()
	logger.Info(ctx).
		Str("order_id", order.ID.String()).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("order status changed")

	if status == model.OrderStatusCompleted && s.reportCache != nil {
		if err := s.reportCache.Invalidate(ctx); err != nil {
			logger.Warn(ctx).Err(err).Msg("failed to invalidate report cache")
		}
	}

	publish(ctx, s.publisher, model.NewEvent(model.EventOrderStatusChanged, order.ID.String(), map[string]interface{}{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"from":         previous,
		"to":           status,
	}))

	return order, nil
}

// DeleteOrder removes a cancelled order and its items. Stock was already
// given back when it was cancelled, so other states are refused.
func (s *orderService) DeleteOrder(ctx context.Context, id string) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validation("invalid order id")
	}

	var orderNumber string
	err = withRetry(ctx, "delete order", func() error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			locked, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
			if err != nil {
				if repository.IsNotFound(err) {
					return apperror.NotFound("order", id)
				}
				return fmt.Errorf("failed to lock order: %w", err)
			}
			if locked.Status != model.OrderStatusCancelled {
				return apperror.InvalidTransition(string(locked.Status), "deleted")
			}
			if err := s.orderRepo.Delete(txCtx, locked.ID); err != nil {
				return fmt.Errorf("failed to delete order: %w", err)
			}
			orderNumber = locked.OrderNumber
			return nil
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx).Str("order_id", id).Str("order_number", orderNumber).Msg("order deleted")
	publish(ctx, s.publisher, model.NewEvent(model.EventOrderDeleted, id, map[string]interface{}{
		"order_id":     id,
		"order_number": orderNumber,
	}))
	return nil
}
