package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderLineItem snapshots one cart line at the moment the order was placed.
type OrderLineItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID string          `gorm:"column:product_id;not null" json:"product_id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Image     string          `gorm:"column:image;not null;default:''" json:"image"`
	Position  int             `gorm:"column:position;not null" json:"-"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns an id when the caller did not.
func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Subtotal is unit price times quantity.
func (i OrderLineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
