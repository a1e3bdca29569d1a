package repository

import (
	"context"

	"inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementRepository is append-only: there is no update or delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	List(ctx context.Context, filter model.MovementFilter) ([]model.StockMovement, int64, error)
	ListByReference(ctx context.Context, refType model.ReferenceType, refID uuid.UUID) ([]model.StockMovement, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *stockMovementRepository) List(ctx context.Context, filter model.MovementFilter) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{})
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.StartDate != nil {
		db = db.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("created_at <= ?", *filter.EndDate)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

func (r *stockMovementRepository) ListByReference(ctx context.Context, refType model.ReferenceType, refID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	if err := GetDB(ctx, r.db).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
