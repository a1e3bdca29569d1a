package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_orders_created_total",
			Help: "Total number of orders committed",
		},
	)

	OrderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_order_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"from", "to"},
	)

	StockMovementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_stock_movements_total",
			Help: "Total number of stock movements written",
		},
		[]string{"type"},
	)

	TransactionRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_transaction_retries_total",
			Help: "Transactions retried after a transient database failure",
		},
		[]string{"operation"},
	)

	TransactionConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_transaction_conflicts_total",
			Help: "Transactions that still failed after the retry",
		},
		[]string{"operation"},
	)

	ReportCacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_report_cache_requests_total",
			Help: "Financial report cache lookups",
		},
		[]string{"result"},
	)

	LowStockEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_low_stock_events_total",
			Help: "Sales that left a product below its minimum stock",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(OrdersCreatedTotal)
	prometheus.MustRegister(OrderTransitionsTotal)
	prometheus.MustRegister(StockMovementsTotal)
	prometheus.MustRegister(TransactionRetriesTotal)
	prometheus.MustRegister(TransactionConflictsTotal)
	prometheus.MustRegister(ReportCacheRequestsTotal)
	prometheus.MustRegister(LowStockEventsTotal)
}
