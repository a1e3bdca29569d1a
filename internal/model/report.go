package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialReport aggregates completed orders over a period
type FinancialReport struct {
	Summary      ReportSummary  `json:"summary"`
	TopProducts  []ProductSales `json:"top_products"`
	RevenueByDay []DailyRevenue `json:"revenue_by_day"`
}

type ReportSummary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalOrders   int             `json:"total_orders"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	ProfitMargin  decimal.Decimal `json:"profit_margin"`
	Period        ReportPeriod    `json:"period"`
}

type ReportPeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ProductSales ranks a product by revenue, built from order item snapshots
type ProductSales struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
}

type DailyRevenue struct {
	Date    string          `json:"date"` // YYYY-MM-DD, server-local
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}
