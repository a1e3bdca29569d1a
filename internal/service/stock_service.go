package service

import (
	"context"
	"fmt"

	"inventory/internal/model"
	"inventory/internal/repository"
	"inventory/pkg/apperror"
	"inventory/pkg/logger"
	"inventory/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type AddStockRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  int             `json:"quantity" binding:"required,gte=1"`
	UnitCost  decimal.Decimal `json:"unit_cost" swaggertype:"string"`
	Supplier  *string         `json:"supplier"`
	Notes     *string         `json:"notes"`
}

// StockInResult is the receiving record plus the product after the intake.
type StockInResult struct {
	StockIn *model.StockIn `json:"stock_in"`
	Product *model.Product `json:"product"`
}

type StockService interface {
	AddStock(ctx context.Context, req AddStockRequest) (*StockInResult, error)
	ListMovements(ctx context.Context, filter model.MovementFilter) ([]model.StockMovement, int64, error)
}

type stockService struct {
	stockInRepo  repository.StockInRepository
	movementRepo repository.StockMovementRepository
	ledger       InventoryLedger
	txManager    repository.TransactionManager
	publisher    EventPublisher
}

func NewStockService(
	stockInRepo repository.StockInRepository,
	movementRepo repository.StockMovementRepository,
	ledger InventoryLedger,
	txManager repository.TransactionManager,
	publisher EventPublisher,
) StockService {
	return &stockService{
		stockInRepo:  stockInRepo,
		movementRepo: movementRepo,
		ledger:       ledger,
		txManager:    txManager,
		publisher:    publisher,
	}
}

// AddStock receives goods: the cost is re-weighted against the stock on hand
// first, then stock is incremented with an "in" movement pointing at the
// receiving record.
func (s *stockService) AddStock(ctx context.Context, req AddStockRequest) (*StockInResult, error) {
	ctx, span := tracer.Start(ctx, "StockService.AddStock",
		trace.WithAttributes(
			attribute.String("product.id", req.ProductID),
			attribute.Int("stock_in.quantity", req.Quantity),
		),
	)
	defer span.End()

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apperror.Validation("invalid product id")
	}
	if req.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}
	if req.UnitCost.IsNegative() {
		return nil, apperror.Validation("unit_cost must not be negative")
	}

	var result *StockInResult
	err = withRetry(ctx, "add stock", func() error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if _, err := s.ledger.LockAndGet(txCtx, productID); err != nil {
				return err
			}

			stockIn := &model.StockIn{
				ID:        uuid.New(),
				ProductID: productID,
				Quantity:  req.Quantity,
				UnitCost:  req.UnitCost,
				Supplier:  req.Supplier,
				Notes:     req.Notes,
			}
			if err := s.stockInRepo.Create(txCtx, stockIn); err != nil {
				return fmt.Errorf("failed to record stock in: %w", err)
			}

			newCost, err := s.ledger.RecomputeWeightedCost(txCtx, productID, req.Quantity, req.UnitCost)
			if err != nil {
				return err
			}

			notes := "Stock in"
			if req.Supplier != nil && *req.Supplier != "" {
				notes = "Stock in from " + *req.Supplier
			}
			product, err := s.ledger.AdjustStock(txCtx, productID, req.Quantity, MovementEntry{
				Type:          model.MovementIn,
				ReferenceType: model.ReferenceStockIn,
				ReferenceID:   stockIn.ID,
				Notes:         notes,
			})
			if err != nil {
				return err
			}
			product.HPP = newCost

			result = &StockInResult{StockIn: stockIn, Product: product}
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.Info(ctx).
		Str("product_id", productID.String()).
		Int("quantity", req.Quantity).
		Int("stock_after", result.Product.Stock).
		Str("hpp", result.Product.HPP.StringFixed(2)).
		Msg("stock received")

	publish(ctx, s.publisher, model.NewEvent(model.EventStockAdded, productID.String(), result))
	return result, nil
}

func (s *stockService) ListMovements(ctx context.Context, filter model.MovementFilter) ([]model.StockMovement, int64, error) {
	page := pagination.Normalize(filter.Page, filter.Limit)
	filter.Page, filter.Limit = page.Page, page.Limit
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, 0, apperror.Validation("start_date must not be after end_date")
	}

	movements, total, err := s.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, total, nil
}
