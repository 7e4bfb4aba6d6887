package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neumaticos/tirestore/pkg/enums"
)

// LowStockThreshold marks products that should be restocked soon.
const LowStockThreshold = 10

// Product represents a tire listed in the catalog.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string                `gorm:"column:name;not null" json:"name"`
	Description string                `gorm:"column:description;not null;default:''" json:"description"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Image       string                `gorm:"column:image;not null;default:''" json:"image"`
	Stock       int                   `gorm:"column:stock;not null;default:0" json:"stock"`
	Category    enums.ProductCategory `gorm:"column:category;not null;index" json:"category"`
	Brand       string                `gorm:"column:brand;not null;default:''" json:"brand"`
	OnSale      bool                  `gorm:"column:on_sale;not null;default:false" json:"on_sale"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns an id when the caller did not.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
