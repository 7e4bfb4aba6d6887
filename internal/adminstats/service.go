package adminstats

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neumaticos/tirestore/internal/catalog"
	"github.com/neumaticos/tirestore/pkg/enums"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalOrders        int64                       `json:"total_orders"`
	TotalRevenue       decimal.Decimal             `json:"total_revenue"`
	PendingOrders      int64                       `json:"pending_orders"`
	CompletedOrders    int64                       `json:"completed_orders"`
	OrdersByStatus     map[enums.OrderStatus]int64 `json:"orders_by_status"`
	TotalProducts      int64                       `json:"total_products"`
	LowStockProducts   int64                       `json:"low_stock_products"`
	OutOfStockProducts int64                       `json:"out_of_stock_products"`
	Year               int                         `json:"year"`
	MonthlySales       [12]decimal.Decimal         `json:"monthly_sales"`
}

type orderAggregates interface {
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	Totals(ctx context.Context) ([]OrderTotal, error)
}

type stockSummarizer interface {
	SummarizeStock(ctx context.Context) (catalog.StockSummary, error)
}

type Service interface {
	Compute(ctx context.Context) (*Stats, error)
}

type service struct {
	orders   orderAggregates
	products stockSummarizer
	now      func() time.Time
}

func NewService(orders orderAggregates, products stockSummarizer) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order aggregates required")
	}
	if products == nil {
		return nil, fmt.Errorf("stock summarizer required")
	}
	return &service{orders: orders, products: products, now: time.Now}, nil
}

// Compute builds the dashboard. Revenue counts every order regardless of
// status; monthly sales cover the current UTC calendar year.
func (s *service) Compute(ctx context.Context) (*Stats, error) {
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	totals, err := s.orders.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order totals")
	}
	stock, err := s.products.SummarizeStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize stock")
	}

	stats := &Stats{
		TotalRevenue:       decimal.Zero,
		OrdersByStatus:     make(map[enums.OrderStatus]int64, len(enums.OrderStatuses())),
		TotalProducts:      stock.Total,
		LowStockProducts:   stock.LowStock,
		OutOfStockProducts: stock.OutOfStock,
		Year:               s.now().UTC().Year(),
	}
	for _, status := range enums.OrderStatuses() {
		stats.OrdersByStatus[status] = 0
	}
	for _, c := range counts {
		stats.OrdersByStatus[c.Status] += c.Count
		stats.TotalOrders += c.Count
	}
	stats.PendingOrders = stats.OrdersByStatus[enums.OrderStatusPendiente]
	stats.CompletedOrders = stats.OrdersByStatus[enums.OrderStatusEntregado]

	for i := range stats.MonthlySales {
		stats.MonthlySales[i] = decimal.Zero
	}
	for _, t := range totals {
		stats.TotalRevenue = stats.TotalRevenue.Add(t.Total)
		created := t.CreatedAt.UTC()
		if created.Year() == stats.Year {
			m := created.Month() - 1
			stats.MonthlySales[m] = stats.MonthlySales[m].Add(t.Total)
		}
	}
	return stats, nil
}
