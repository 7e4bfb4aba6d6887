package adminstats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/enums"
)

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status enums.OrderStatus
	Count  int64
}

// OrderTotal is the slice of an order the revenue figures need.
type OrderTotal struct {
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Repository reads order aggregates for the dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountByStatus groups every order by status.
func (r *Repository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// Totals returns the total and creation time of every order.
func (r *Repository) Totals(ctx context.Context) ([]OrderTotal, error) {
	var rows []OrderTotal
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("total, created_at").
		Scan(&rows).Error
	return rows, err
}
