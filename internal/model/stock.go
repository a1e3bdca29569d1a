package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

type ReferenceType string

const (
	ReferenceOrder   ReferenceType = "order"
	ReferenceStockIn ReferenceType = "stock_in"
)

// StockMovement is the append-only stock card. Rows are never updated or
// deleted; Quantity is the signed delta and StockAfter the resulting level.
type StockMovement struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Type          MovementType   `gorm:"type:varchar(20);not null" json:"type"`
	Quantity      int            `gorm:"type:int;not null" json:"quantity"`
	StockAfter    int            `gorm:"type:int;not null" json:"stock_after"`
	ReferenceType *ReferenceType `gorm:"type:varchar(20)" json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID     `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	Notes         *string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MovementFilter narrows stock history listings.
type MovementFilter struct {
	ProductID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// StockIn records goods received from a supplier.
type StockIn struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	Supplier  *string         `gorm:"type:varchar(255)" json:"supplier,omitempty"`
	Notes     *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (s *StockIn) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
