package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inventory/internal/model"
	"inventory/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedOrder(createdAt time.Time, items ...model.OrderItem) model.Order {
	amount := decimal.Zero
	cost := decimal.Zero
	for _, item := range items {
		amount = amount.Add(item.Subtotal)
		cost = cost.Add(item.Cost())
	}
	return model.Order{
		ID:          uuid.New(),
		Status:      model.OrderStatusCompleted,
		TotalAmount: amount,
		TotalHPP:    cost,
		Profit:      amount.Sub(cost),
		Items:       items,
		CreatedAt:   createdAt,
	}
}

func soldItem(productID uuid.UUID, name string, qty int, price, hpp int64) model.OrderItem {
	return model.OrderItem{
		ProductSnapshot: model.ProductSnapshot{
			ProductID:   productID,
			ProductName: name,
			ProductSKU:  "SKU-" + name,
			UnitPrice:   decimal.NewFromInt(price),
			UnitHPP:     decimal.NewFromInt(hpp),
		},
		Quantity: qty,
		Subtotal: decimal.NewFromInt(price * int64(qty)),
	}
}

func TestBuildFinancialReport(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.Local)

	t.Run("empty input", func(t *testing.T) {
		report := BuildFinancialReport(nil, start, end)

		assert.True(t, report.Summary.TotalRevenue.IsZero())
		assert.True(t, report.Summary.TotalProfit.IsZero())
		assert.True(t, report.Summary.TotalCost.IsZero())
		assert.Equal(t, 0, report.Summary.TotalOrders)
		assert.True(t, report.Summary.AvgOrderValue.IsZero())
		assert.True(t, report.Summary.ProfitMargin.IsZero())
		assert.NotNil(t, report.TopProducts)
		assert.Empty(t, report.TopProducts)
		assert.NotNil(t, report.RevenueByDay)
		assert.Empty(t, report.RevenueByDay)
		assert.Equal(t, start, report.Summary.Period.StartDate)
		assert.Equal(t, end, report.Summary.Period.EndDate)
	})

	t.Run("summary top products and daily revenue", func(t *testing.T) {
		kaos := uuid.New()
		celana := uuid.New()
		day1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
		day2 := time.Date(2026, 3, 5, 15, 0, 0, 0, time.Local)

		orders := []model.Order{
			completedOrder(day2, soldItem(celana, "Celana", 1, 125000, 80000)),
			completedOrder(day1, soldItem(kaos, "Kaos", 3, 50000, 30000)),
			completedOrder(day1.Add(2*time.Hour), soldItem(kaos, "Kaos", 1, 50000, 30000), soldItem(celana, "Celana", 2, 125000, 80000)),
		}

		report := BuildFinancialReport(orders, start, end)
		s := report.Summary
		assert.Equal(t, "575000", s.TotalRevenue.String())
		assert.Equal(t, "215000", s.TotalProfit.String())
		assert.Equal(t, "360000", s.TotalCost.String())
		assert.Equal(t, 3, s.TotalOrders)
		assert.Equal(t, "191666.67", s.AvgOrderValue.StringFixed(2))
		assert.Equal(t, "37.39", s.ProfitMargin.StringFixed(2))

		require.Len(t, report.TopProducts, 2)
		assert.Equal(t, "Celana", report.TopProducts[0].ProductName)
		assert.Equal(t, 3, report.TopProducts[0].QuantitySold)
		assert.Equal(t, "375000", report.TopProducts[0].Revenue.String())
		assert.Equal(t, "135000", report.TopProducts[0].Profit.String())
		assert.Equal(t, "Kaos", report.TopProducts[1].ProductName)
		assert.Equal(t, 4, report.TopProducts[1].QuantitySold)
		assert.Equal(t, "80000", report.TopProducts[1].Profit.String())

		require.Len(t, report.RevenueByDay, 2)
		assert.Equal(t, "2026-03-02", report.RevenueByDay[0].Date)
		assert.Equal(t, 2, report.RevenueByDay[0].Orders)
		assert.Equal(t, "450000", report.RevenueByDay[0].Revenue.String())
		assert.Equal(t, "2026-03-05", report.RevenueByDay[1].Date)
		assert.Equal(t, 1, report.RevenueByDay[1].Orders)
	})

	t.Run("top products are capped at ten", func(t *testing.T) {
		var orders []model.Order
		for i := 1; i <= 12; i++ {
			orders = append(orders, completedOrder(start.Add(time.Hour),
				soldItem(uuid.New(), fmt.Sprintf("P%02d", i), 1, int64(i*1000), 500)))
		}

		report := BuildFinancialReport(orders, start, end)
		require.Len(t, report.TopProducts, 10)
		assert.Equal(t, "P12", report.TopProducts[0].ProductName)
		assert.Equal(t, "P03", report.TopProducts[9].ProductName)
	})
}

// racingOrderRepo runs hook after loading orders, before the caller can
// cache the report built from them.
type racingOrderRepo struct {
	*fakeOrderRepo
	hook func()
}

func (r *racingOrderRepo) ListCompleted(ctx context.Context, start, end time.Time) ([]model.Order, error) {
	orders, err := r.fakeOrderRepo.ListCompleted(ctx, start, end)
	if r.hook != nil {
		r.hook()
		r.hook = nil
	}
	return orders, err
}

func TestGetFinancialReport(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.Local)

	t.Run("only completed orders count and snapshots win", func(t *testing.T) {
		env := setup(t)
		env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local))
		p := env.addProduct("Kaos", "A", 20, 50000, 30000)

		completed, err := env.orderSvc.CreateOrder(ctx, CreateOrderRequest{Items: []OrderItemRequest{itemReq(p.ID, 3)}})
		require.NoError(t, err)
		_, err = env.orderSvc.UpdateOrderStatus(ctx, completed.ID.String(), model.OrderStatusCompleted)
		require.NoError(t, err)

		_, err = env.orderSvc.CreateOrder(ctx, CreateOrderRequest{Items: []OrderItemRequest{itemReq(p.ID, 2)}})
		require.NoError(t, err)

		// Later edits to the product never reach the order or the report.
		newPrice := decimal.NewFromInt(99000)
		newHPP := decimal.NewFromInt(60000)
		newName := "Kaos Baru"
		_, err = env.productSvc.UpdateProduct(ctx, p.ID.String(), UpdateProductRequest{
			Name:         &newName,
			SellingPrice: &newPrice,
			HPP:          &newHPP,
		})
		require.NoError(t, err)

		sold, err := env.orderSvc.GetOrder(ctx, completed.ID.String())
		require.NoError(t, err)
		require.Len(t, sold.Items, 1)
		assert.Equal(t, "Kaos", sold.Items[0].ProductName)
		assert.Equal(t, "50000", sold.Items[0].UnitPrice.String())
		assert.Equal(t, "30000", sold.Items[0].UnitHPP.String())
		assert.Equal(t, "150000", sold.TotalAmount.String())
		assert.Equal(t, "60000", sold.Profit.String())

		report, err := env.reportSvc.GetFinancialReport(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Summary.TotalOrders)
		assert.Equal(t, "150000", report.Summary.TotalRevenue.String())
		require.Len(t, report.TopProducts, 1)
		assert.Equal(t, "Kaos", report.TopProducts[0].ProductName)
		assert.Equal(t, "150000", report.TopProducts[0].Revenue.String())
		assert.Equal(t, "60000", report.Summary.TotalProfit.String())
	})

	t.Run("period bounds are inclusive", func(t *testing.T) {
		env := setup(t)
		env.st.orders[uuid.New()] = completedOrder(start, soldItem(uuid.New(), "A", 1, 1000, 500))
		env.st.orders[uuid.New()] = completedOrder(end, soldItem(uuid.New(), "B", 1, 1000, 500))
		env.st.orders[uuid.New()] = completedOrder(end.Add(time.Second), soldItem(uuid.New(), "C", 1, 1000, 500))

		report, err := env.reportSvc.GetFinancialReport(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Summary.TotalOrders)
	})

	t.Run("served from cache until an order completes", func(t *testing.T) {
		env := setup(t)
		env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local))
		p := env.addProduct("Kaos", "A", 20, 50000, 30000)

		first, err := env.reportSvc.GetFinancialReport(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, 0, first.Summary.TotalOrders)

		order, err := env.orderSvc.CreateOrder(ctx, CreateOrderRequest{Items: []OrderItemRequest{itemReq(p.ID, 1)}})
		require.NoError(t, err)

		cached, err := env.reportSvc.GetFinancialReport(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, 0, cached.Summary.TotalOrders)

		_, err = env.orderSvc.UpdateOrderStatus(ctx, order.ID.String(), model.OrderStatusCompleted)
		require.NoError(t, err)

		fresh, err := env.reportSvc.GetFinancialReport(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, 1, fresh.Summary.TotalOrders)
		assert.Equal(t, 3, env.cache.gets)
	})

	t.Run("completion during a cache miss is not masked", func(t *testing.T) {
		env := setup(t)
		env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local))
		p := env.addProduct("Kaos", "A", 20, 50000, 30000)
		order, err := env.orderSvc.CreateOrder(ctx, CreateOrderRequest{Items: []OrderItemRequest{itemReq(p.ID, 1)}})
		require.NoError(t, err)

		repo := &racingOrderRepo{fakeOrderRepo: env.orders}
		repo.hook = func() {
			_, err := env.orderSvc.UpdateOrderStatus(ctx, order.ID.String(), model.OrderStatusCompleted)
			require.NoError(t, err)
		}
		svc := NewReportService(repo, env.cache)

		stale, err := svc.GetFinancialReport(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, 0, stale.Summary.TotalOrders)
		assert.Equal(t, 1, env.cache.invalidations)

		fresh, err := svc.GetFinancialReport(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, 1, fresh.Summary.TotalOrders)
	})

	t.Run("start after end", func(t *testing.T) {
		env := setup(t)
		_, err := env.reportSvc.GetFinancialReport(ctx, end, start)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("works without a cache", func(t *testing.T) {
		env := setup(t)
		svc := NewReportService(env.orders, nil)
		report, err := svc.GetFinancialReport(ctx, start, end)
		require.NoError(t, err)
		assert.Empty(t, report.TopProducts)
	})
}
