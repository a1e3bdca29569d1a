package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

const DefaultMinStock = 5

// Product represents a sellable item and its on-hand stock.
// SKU is unique among active products only; archived products keep their
// SKU so past orders and movements can still be traced.
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	SKU          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_sku_active,where:status = 'active'" json:"sku"`
	Category     string          `gorm:"type:varchar(100)" json:"category"`
	Size         string          `gorm:"type:varchar(50)" json:"size"`
	Color        string          `gorm:"type:varchar(50)" json:"color"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	HPP          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"hpp"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"selling_price"`
	Stock        int             `gorm:"type:int;not null;default:0;check:chk_products_stock_non_negative,stock >= 0" json:"stock"`
	MinStock     int             `gorm:"type:int;not null;default:5" json:"min_stock"`
	Status       ProductStatus   `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProductStatusActive
	}
	return nil
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsLowStock reports whether stock has fallen below the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock < p.MinStock
}
