package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neumaticos/tirestore/pkg/enums"
	"github.com/neumaticos/tirestore/pkg/types"
)

// Identity is the authenticated shopper placing the order.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// Input carries the shipping block and the chosen payment method.
type Input struct {
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method"`
}

// Result describes a submitted order.
type Result struct {
	OrderID       uuid.UUID           `json:"order_id"`
	TransactionID string              `json:"transaction_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	ItemCount     int                 `json:"item_count"`
	Total         decimal.Decimal     `json:"total"`
}
