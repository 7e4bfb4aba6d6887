package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neumaticos/tirestore/pkg/enums"
	"github.com/neumaticos/tirestore/pkg/types"
)

// Order is a submitted purchase together with its line items.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	UserEmail       string                `gorm:"column:user_email;not null" json:"user_email"`
	UserName        string                `gorm:"column:user_name;not null" json:"user_name"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pendiente';index" json:"status"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;not null" json:"payment_method"`
	TransactionID   string                `gorm:"column:transaction_id;not null" json:"transaction_id"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:text;not null" json:"shipping_address"`
	Items           []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns an id when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
