package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo allows pending -> completed and pending -> cancelled only.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != OrderStatusPending {
		return false
	}
	return next == OrderStatusCompleted || next == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Order is a sale. Its totals are fixed at creation from the item snapshots.
type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber   string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_orders_order_number" json:"order_number"`
	CustomerName  *string         `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	CustomerPhone *string         `gorm:"type:varchar(50)" json:"customer_phone,omitempty"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	TotalHPP      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_hpp"`
	Profit        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"profit"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	Notes         *string         `gorm:"type:text" json:"notes,omitempty"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ProductSnapshot freezes the product fields an order line was sold with.
// Later product edits never flow back into it.
type ProductSnapshot struct {
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductSKU  string          `gorm:"type:varchar(100);not null" json:"product_sku"`
	Size        string          `gorm:"type:varchar(50)" json:"size"`
	Color       string          `gorm:"type:varchar(50)" json:"color"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	UnitHPP     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_hpp"`
}

// SnapshotOf captures p as it is right now.
func SnapshotOf(p *Product) ProductSnapshot {
	return ProductSnapshot{
		ProductID:   p.ID,
		ProductName: p.Name,
		ProductSKU:  p.SKU,
		Size:        p.Size,
		Color:       p.Color,
		UnitPrice:   p.SellingPrice,
		UnitHPP:     p.HPP,
	}
}

// OrderItem is a line of an Order.
type OrderItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductSnapshot `gorm:"embedded"`
	// LineNo keeps the order in which items were submitted, starting at 1.
	LineNo          int             `gorm:"type:int;not null;default:0" json:"line_no"`
	Quantity        int             `gorm:"type:int;not null" json:"quantity"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Cost is the frozen unit cost times quantity.
func (i OrderItem) Cost() decimal.Decimal {
	return i.UnitHPP.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderFilter narrows order listings. Zero values mean no constraint.
type OrderFilter struct {
	Status    OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}
