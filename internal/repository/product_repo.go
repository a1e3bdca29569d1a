package repository

import (
	"context"

	"inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindActiveBySKU(ctx context.Context, sku string) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	ListLowStock(ctx context.Context) ([]model.Product, error)
	UpdateDetails(ctx context.Context, product *model.Product) error
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
	UpdateHPP(ctx context.Context, id uuid.UUID, hpp decimal.Decimal) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProductStatus) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindActiveBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).
		Where("sku = ? AND status = ?", sku, model.ProductStatusActive).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
// Archived rows are returned too; callers decide whether that is allowed.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{}).Where("status = ?", model.ProductStatusActive)
	if search != "" {
		db = db.Where("name ILIKE ? OR sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) ListLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).
		Where("status = ? AND stock < min_stock", model.ProductStatusActive).
		Order("stock asc, name asc").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// editableColumns are the columns UpdateDetails writes. Stock only changes
// through the ledger and status through archiving.
var editableColumns = []string{
	"name", "sku", "category", "size", "color", "description",
	"hpp", "selling_price", "min_stock", "updated_at",
}

func (r *productRepository) UpdateDetails(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Model(product).Select(editableColumns).Updates(product).Error
}

func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("stock", stock).Error
}

func (r *productRepository) UpdateHPP(ctx context.Context, id uuid.UUID, hpp decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("hpp", hpp).Error
}

func (r *productRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProductStatus) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("status", status).Error
}
