package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory/internal/model"
	"inventory/internal/repository"
	"inventory/pkg/apperror"
	"inventory/pkg/logger"
	"inventory/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	SKU          string          `json:"sku" binding:"required"`
	Category     string          `json:"category"`
	Size         string          `json:"size"`
	Color        string          `json:"color"`
	Description  *string         `json:"description"`
	HPP          decimal.Decimal `json:"hpp" swaggertype:"string"`
	SellingPrice decimal.Decimal `json:"selling_price" swaggertype:"string"`
	Stock        int             `json:"stock" binding:"gte=0"`
	MinStock     *int            `json:"min_stock" binding:"omitempty,gte=0"`
}

// UpdateProductRequest edits catalogue fields. Nil fields are left as they
// are. Stock has no field here: it only moves through orders, stock-ins and
// adjustments.
type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	SKU          *string          `json:"sku"`
	Category     *string          `json:"category"`
	Size         *string          `json:"size"`
	Color        *string          `json:"color"`
	Description  *string          `json:"description"`
	HPP          *decimal.Decimal `json:"hpp" swaggertype:"string"`
	SellingPrice *decimal.Decimal `json:"selling_price" swaggertype:"string"`
	MinStock     *int             `json:"min_stock" binding:"omitempty,gte=0"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	ArchiveProduct(ctx context.Context, id string) error
	ListLowStock(ctx context.Context) ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	ledger      InventoryLedger
	txManager   repository.TransactionManager
	publisher   EventPublisher
}

func NewProductService(
	productRepo repository.ProductRepository,
	ledger InventoryLedger,
	txManager repository.TransactionManager,
	publisher EventPublisher,
) ProductService {
	return &productService{
		productRepo: productRepo,
		ledger:      ledger,
		txManager:   txManager,
		publisher:   publisher,
	}
}

// CreateProduct registers a product. Opening stock goes through the ledger
// as an adjustment so the stock card starts from zero.
func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error) {
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	if req.SKU == "" || req.Name == "" {
		return nil, apperror.Validation("name and sku are required")
	}
	if req.Stock < 0 {
		return nil, apperror.Validation("stock must not be negative")
	}
	if req.HPP.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, apperror.Validation("prices must not be negative")
	}

	minStock := model.DefaultMinStock
	if req.MinStock != nil {
		minStock = *req.MinStock
	}

	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.productRepo.FindActiveBySKU(txCtx, req.SKU); err == nil {
			return apperror.Conflict(fmt.Sprintf("an active product with sku %s already exists", req.SKU))
		} else if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to check sku: %w", err)
		}

		p := &model.Product{
			ID:           uuid.New(),
			Name:         req.Name,
			SKU:          req.SKU,
			Category:     req.Category,
			Size:         req.Size,
			Color:        req.Color,
			Description:  req.Description,
			HPP:          req.HPP.Round(2),
			SellingPrice: req.SellingPrice.Round(2),
			Stock:        0,
			MinStock:     minStock,
			Status:       model.ProductStatusActive,
		}
		if err := s.productRepo.Create(txCtx, p); err != nil {
			if repository.IsUniqueViolation(err, repository.ActiveSKUConstraint) {
				return apperror.Conflict(fmt.Sprintf("an active product with sku %s already exists", req.SKU))
			}
			return fmt.Errorf("failed to create product: %w", err)
		}

		if req.Stock > 0 {
			updated, err := s.ledger.AdjustStock(txCtx, p.ID, req.Stock, MovementEntry{
				Type:  model.MovementAdjustment,
				Notes: "Opening stock",
			})
			if err != nil {
				return err
			}
			p.Stock = updated.Stock
		}

		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("product_id", product.ID.String()).Str("sku", product.SKU).Msg("product created")
	publish(ctx, s.publisher, model.NewEvent(model.EventProductCreated, product.ID.String(), product))
	return product, nil
}

// UpdateProduct edits an active product. Orders already placed keep the
// snapshot taken at sale time, so they and the reports built from them do
// not change.
func (s *productService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid product id")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		req.Name = &name
	}
	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		if sku == "" {
			return nil, apperror.Validation("sku must not be empty")
		}
		req.SKU = &sku
	}
	if (req.HPP != nil && req.HPP.IsNegative()) || (req.SellingPrice != nil && req.SellingPrice.IsNegative()) {
		return nil, apperror.Validation("prices must not be negative")
	}
	if req.MinStock != nil && *req.MinStock < 0 {
		return nil, apperror.Validation("min_stock must not be negative")
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("product", id)
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}
		if !p.IsActive() {
			return apperror.NotFound("product", id)
		}

		if req.SKU != nil && *req.SKU != p.SKU {
			existing, err := s.productRepo.FindActiveBySKU(txCtx, *req.SKU)
			switch {
			case err == nil && existing.ID != p.ID:
				return apperror.Conflict(fmt.Sprintf("an active product with sku %s already exists", *req.SKU))
			case err != nil && !repository.IsNotFound(err):
				return fmt.Errorf("failed to check sku: %w", err)
			}
			p.SKU = *req.SKU
		}
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Category != nil {
			p.Category = *req.Category
		}
		if req.Size != nil {
			p.Size = *req.Size
		}
		if req.Color != nil {
			p.Color = *req.Color
		}
		if req.Description != nil {
			p.Description = req.Description
		}
		if req.HPP != nil {
			p.HPP = req.HPP.Round(2)
		}
		if req.SellingPrice != nil {
			p.SellingPrice = req.SellingPrice.Round(2)
		}
		if req.MinStock != nil {
			p.MinStock = *req.MinStock
		}
		p.UpdatedAt = time.Now()

		if err := s.productRepo.UpdateDetails(txCtx, p); err != nil {
			if repository.IsUniqueViolation(err, repository.ActiveSKUConstraint) {
				return apperror.Conflict(fmt.Sprintf("an active product with sku %s already exists", p.SKU))
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("product_id", product.ID.String()).Str("sku", product.SKU).Msg("product updated")
	publish(ctx, s.publisher, model.NewEvent(model.EventProductUpdated, product.ID.String(), product))
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid product id")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProductBySKU(ctx context.Context, sku string) (*model.Product, error) {
	product, err := s.productRepo.FindActiveBySKU(ctx, sku)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("product", sku)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	p := pagination.Normalize(page, limit)
	products, total, err := s.productRepo.List(ctx, p.Page, p.Limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// ArchiveProduct hides a product from sale. The row stays so past orders
// and movements keep resolving.
func (s *productService) ArchiveProduct(ctx context.Context, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validation("invalid product id")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("product", id)
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}
		if !product.IsActive() {
			return apperror.NotFound("product", id)
		}
		if err := s.productRepo.UpdateStatus(txCtx, productID, model.ProductStatusArchived); err != nil {
			return fmt.Errorf("failed to archive product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(ctx, s.publisher, model.NewEvent(model.EventProductArchived, id, map[string]string{"product_id": id}))
	return nil
}

func (s *productService) ListLowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}
