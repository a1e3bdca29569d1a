package repository

import (
	"context"
	"time"

	"inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
	ListCompleted(ctx context.Context, start, end time.Time) ([]model.Order, error)
	LockSequence(ctx context.Context, prefix string) error
	LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order and its items in one statement batch.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func itemsInLineOrder(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.line_no ASC")
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items", itemsInLineOrder).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row, then loads its items.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	db := GetDB(ctx, r.db)

	var order model.Order
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	if err := db.Where("order_id = ?", order.ID).
		Order("line_no ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes the order and its items. The foreign key cascades as well;
// items are removed explicitly so databases without the constraint agree.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Order{}).Error
}

func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
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
	if err := db.
		Preload("Items", itemsInLineOrder).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) ListCompleted(ctx context.Context, start, end time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items", itemsInLineOrder).
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.OrderStatusCompleted, start, end).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// LockSequence serializes order number generation for one day prefix until
// the surrounding transaction ends.
func (r *orderRepository) LockSequence(ctx context.Context, prefix string) error {
	return GetDB(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error
}

// LatestNumberWithPrefix returns the highest order number starting with
// prefix, or "" when there is none. Longer numbers sort first so a sequence
// past 9999 still wins over a shorter one.
func (r *orderRepository) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("LENGTH(order_number) DESC, order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error; err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}
