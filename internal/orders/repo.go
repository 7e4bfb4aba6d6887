package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/enums"
	"github.com/neumaticos/tirestore/pkg/pagination"
)

// Repository defines the persistence surface required by the order service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// Create inserts the order and its line items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, starting after cursor.
func (r *repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items", orderItems)
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
