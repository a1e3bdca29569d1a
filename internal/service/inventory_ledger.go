package service

import (
	"context"
	"fmt"

	"inventory/internal/metrics"
	"inventory/internal/model"
	"inventory/internal/repository"
	"inventory/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementEntry describes the stock card line written alongside a stock
// change.
type MovementEntry struct {
	Type          model.MovementType
	ReferenceType model.ReferenceType
	ReferenceID   uuid.UUID
	Notes         string
}

// InventoryLedger is the only path that changes Product.Stock. Every method
// must run inside a transaction opened by the caller; row locks are held
// until that transaction ends.
type InventoryLedger interface {
	LockAndGet(ctx context.Context, productID uuid.UUID) (*model.Product, error)
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int, entry MovementEntry) (*model.Product, error)
	RecomputeWeightedCost(ctx context.Context, productID uuid.UUID, incomingQty int, incomingUnitCost decimal.Decimal) (decimal.Decimal, error)
}

type inventoryLedger struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

func NewInventoryLedger(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
) InventoryLedger {
	return &inventoryLedger{
		productRepo:  productRepo,
		movementRepo: movementRepo,
	}
}

// LockAndGet locks an active product row. Archived products are reported as
// not found.
func (l *inventoryLedger) LockAndGet(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	product, err := l.lock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, apperror.NotFound("product", productID.String())
	}
	return product, nil
}

// AdjustStock applies delta to the product's stock and appends exactly one
// movement. Archived products are still reachable so cancellations can give
// stock back to them.
func (l *inventoryLedger) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, entry MovementEntry) (*model.Product, error) {
	if delta == 0 {
		return nil, apperror.Validation("stock adjustment must not be zero")
	}

	product, err := l.lock(ctx, productID)
	if err != nil {
		return nil, err
	}

	stockAfter := product.Stock + delta
	if stockAfter < 0 {
		return nil, apperror.InsufficientStock(product.ID.String(), product.Name, product.Stock, -delta)
	}

	if err := l.productRepo.UpdateStock(ctx, product.ID, stockAfter); err != nil {
		return nil, fmt.Errorf("failed to update stock for product %s: %w", product.Name, err)
	}

	movement := &model.StockMovement{
		ProductID:  product.ID,
		Type:       entry.Type,
		Quantity:   delta,
		StockAfter: stockAfter,
	}
	if entry.ReferenceType != "" {
		refType := entry.ReferenceType
		refID := entry.ReferenceID
		movement.ReferenceType = &refType
		movement.ReferenceID = &refID
	}
	if entry.Notes != "" {
		notes := entry.Notes
		movement.Notes = &notes
	}
	if err := l.movementRepo.Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}
	metrics.StockMovementsTotal.WithLabelValues(string(entry.Type)).Inc()

	product.Stock = stockAfter
	return product, nil
}

// RecomputeWeightedCost blends the incoming unit cost into the product's
// HPP, weighting by the stock on hand before the incoming goods are added:
//
//	new = (old*oldStock + incoming*incomingQty) / (oldStock + incomingQty)
//
// The result is rounded to 2 decimals and persisted.
func (l *inventoryLedger) RecomputeWeightedCost(ctx context.Context, productID uuid.UUID, incomingQty int, incomingUnitCost decimal.Decimal) (decimal.Decimal, error) {
	product, err := l.lock(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}

	newCost := WeightedAverageCost(product.HPP, product.Stock, incomingUnitCost, incomingQty)
	if err := l.productRepo.UpdateHPP(ctx, product.ID, newCost); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update cost for product %s: %w", product.Name, err)
	}
	return newCost, nil
}

// WeightedAverageCost falls back to the incoming cost when there is no
// quantity to weight against.
func WeightedAverageCost(oldCost decimal.Decimal, oldStock int, incomingCost decimal.Decimal, incomingQty int) decimal.Decimal {
	totalQty := oldStock + incomingQty
	if totalQty <= 0 {
		return incomingCost.Round(2)
	}
	oldValue := oldCost.Mul(decimal.NewFromInt(int64(oldStock)))
	incomingValue := incomingCost.Mul(decimal.NewFromInt(int64(incomingQty)))
	return oldValue.Add(incomingValue).Div(decimal.NewFromInt(int64(totalQty))).Round(2)
}

func (l *inventoryLedger) lock(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	product, err := l.productRepo.FindByIDForUpdate(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("product", productID.String())
		}
		return nil, fmt.Errorf("failed to lock product %s: %w", productID, err)
	}
	return product, nil
}
