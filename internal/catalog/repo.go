package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/enums"
)

// ListFilter narrows catalog listings. Zero values mean no filter.
type ListFilter struct {
	Category *enums.ProductCategory
	OnSale   bool
}

// Repository persists catalog products.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns products newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.OnSale {
		query = query.Where("on_sale = ?", true)
	}

	var rows []models.Product
	err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// FindByID loads one product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves every column of an existing product.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID and reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// StockSummary counts products by stock level.
type StockSummary struct {
	Total      int64
	LowStock   int64
	OutOfStock int64
}

// SummarizeStock counts the catalog, low-stock (below models.LowStockThreshold)
// and out-of-stock products.
func (r *Repository) SummarizeStock(ctx context.Context) (StockSummary, error) {
	var summary StockSummary
	base := r.db.WithContext(ctx).Model(&models.Product{})
	if err := base.Session(&gorm.Session{}).Count(&summary.Total).Error; err != nil {
		return StockSummary{}, err
	}
	if err := base.Session(&gorm.Session{}).Where("stock < ?", models.LowStockThreshold).Count(&summary.LowStock).Error; err != nil {
		return StockSummary{}, err
	}
	if err := base.Session(&gorm.Session{}).Where("stock = 0").Count(&summary.OutOfStock).Error; err != nil {
		return StockSummary{}, err
	}
	return summary, nil
}
