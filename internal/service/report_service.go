package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventory/internal/metrics"
	"inventory/internal/model"
	"inventory/internal/repository"
	"inventory/pkg/apperror"
	"inventory/pkg/logger"

	"github.com/shopspring/decimal"
)

const topProductsLimit = 10

// ReportCache stores computed reports keyed by period. Invalidate drops
// every cached report at once. Get reports the generation it looked in and
// Set writes into that generation, so a report computed before an
// Invalidate can never be served after it.
type ReportCache interface {
	Get(ctx context.Context, start, end time.Time) (report *model.FinancialReport, generation int64, ok bool, err error)
	Set(ctx context.Context, generation int64, start, end time.Time, report *model.FinancialReport) error
	Invalidate(ctx context.Context) error
}

type ReportService interface {
	GetFinancialReport(ctx context.Context, start, end time.Time) (*model.FinancialReport, error)
}

type reportService struct {
	orderRepo repository.OrderRepository
	cache     ReportCache
}

// NewReportService accepts a nil cache.
func NewReportService(orderRepo repository.OrderRepository, cache ReportCache) ReportService {
	return &reportService{orderRepo: orderRepo, cache: cache}
}

func (s *reportService) GetFinancialReport(ctx context.Context, start, end time.Time) (*model.FinancialReport, error) {
	if start.After(end) {
		return nil, apperror.Validation("start_date must not be after end_date")
	}

	cacheable := false
	var generation int64
	if s.cache != nil {
		cached, gen, ok, err := s.cache.Get(ctx, start, end)
		switch {
		case err != nil:
			logger.Warn(ctx).Err(err).Msg("report cache lookup failed")
		case ok:
			metrics.ReportCacheRequestsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.ReportCacheRequestsTotal.WithLabelValues("miss").Inc()
			cacheable = true
			generation = gen
		}
	}

	orders, err := s.orderRepo.ListCompleted(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed orders: %w", err)
	}

	report := BuildFinancialReport(orders, start, end)

	if cacheable {
		if err := s.cache.Set(ctx, generation, start, end, &report); err != nil {
			logger.Warn(ctx).Err(err).Msg("failed to cache financial report")
		}
	}
	return &report, nil
}

// BuildFinancialReport aggregates completed orders. Product figures come from
// the item snapshots only, never from the live product.
func BuildFinancialReport(orders []model.Order, start, end time.Time) model.FinancialReport {
	revenue := decimal.Zero
	profit := decimal.Zero

	type productAgg struct {
		sales model.ProductSales
		first int
	}
	byProduct := make(map[string]*productAgg)
	byDay := make(map[string]*model.DailyRevenue)

	for _, order := range orders {
		revenue = revenue.Add(order.TotalAmount)
		profit = profit.Add(order.Profit)

		day := order.CreatedAt.Local().Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &model.DailyRevenue{Date: day, Revenue: decimal.Zero}
			byDay[day] = d
		}
		d.Revenue = d.Revenue.Add(order.TotalAmount)
		d.Orders++

		for _, item := range order.Items {
			key := item.ProductID.String()
			agg, ok := byProduct[key]
			if !ok {
				agg = &productAgg{
					sales: model.ProductSales{
						ProductID:   key,
						ProductName: item.ProductName,
						ProductSKU:  item.ProductSKU,
						Revenue:     decimal.Zero,
						Profit:      decimal.Zero,
					},
					first: len(byProduct),
				}
				byProduct[key] = agg
			}
			agg.sales.QuantitySold += item.Quantity
			agg.sales.Revenue = agg.sales.Revenue.Add(item.Subtotal)
			agg.sales.Profit = agg.sales.Profit.Add(item.Subtotal.Sub(item.Cost()))
		}
	}

	aggs := make([]*productAgg, 0, len(byProduct))
	for _, agg := range byProduct {
		aggs = append(aggs, agg)
	}
	sort.Slice(aggs, func(i, j int) bool {
		if c := aggs[i].sales.Revenue.Cmp(aggs[j].sales.Revenue); c != 0 {
			return c > 0
		}
		return aggs[i].first < aggs[j].first
	})
	if len(aggs) > topProductsLimit {
		aggs = aggs[:topProductsLimit]
	}
	topProducts := make([]model.ProductSales, 0, len(aggs))
	for _, agg := range aggs {
		topProducts = append(topProducts, agg.sales)
	}

	revenueByDay := make([]model.DailyRevenue, 0, len(byDay))
	for _, d := range byDay {
		revenueByDay = append(revenueByDay, *d)
	}
	sort.Slice(revenueByDay, func(i, j int) bool {
		return revenueByDay[i].Date < revenueByDay[j].Date
	})

	totalOrders := len(orders)
	avgOrderValue := decimal.Zero
	if totalOrders > 0 {
		avgOrderValue = revenue.Div(decimal.NewFromInt(int64(totalOrders))).Round(2)
	}
	margin := decimal.Zero
	if !revenue.IsZero() {
		margin = profit.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return model.FinancialReport{
		Summary: model.ReportSummary{
			TotalRevenue:  revenue,
			TotalProfit:   profit,
			TotalCost:     revenue.Sub(profit),
			TotalOrders:   totalOrders,
			AvgOrderValue: avgOrderValue,
			ProfitMargin:  margin,
			Period: model.ReportPeriod{
				StartDate: start,
				EndDate:   end,
			},
		},
		TopProducts:  topProducts,
		RevenueByDay: revenueByDay,
	}
}
