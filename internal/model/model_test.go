package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusCompleted, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatus("shipped"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatus("shipped").Valid())
}

func TestSnapshotAndCost(t *testing.T) {
	p := &Product{
		ID:           uuid.New(),
		Name:         "Kaos Polos",
		SKU:          "KP-01",
		Size:         "L",
		Color:        "White",
		HPP:          decimal.NewFromInt(30000),
		SellingPrice: decimal.NewFromInt(50000),
	}
	snap := SnapshotOf(p)
	p.Name = "Renamed"
	p.SellingPrice = decimal.NewFromInt(1)

	assert.Equal(t, "Kaos Polos", snap.ProductName)
	assert.Equal(t, "50000", snap.UnitPrice.String())

	item := OrderItem{ProductSnapshot: snap, Quantity: 3}
	assert.Equal(t, "90000", item.Cost().String())
}

func TestProductLowStock(t *testing.T) {
	p := &Product{Stock: 4, MinStock: 5, Status: ProductStatusActive}
	assert.True(t, p.IsLowStock())
	p.Stock = 5
	assert.False(t, p.IsLowStock())
	assert.True(t, p.IsActive())
}
