package repository

import (
	"context"

	"inventory/internal/model"

	"gorm.io/gorm"
)

type StockInRepository interface {
	Create(ctx context.Context, stockIn *model.StockIn) error
}

type stockInRepository struct {
	db *gorm.DB
}

func NewStockInRepository(db *gorm.DB) StockInRepository {
	return &stockInRepository{db: db}
}

func (r *stockInRepository) Create(ctx context.Context, stockIn *model.StockIn) error {
	return GetDB(ctx, r.db).Create(stockIn).Error
}
