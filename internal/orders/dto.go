package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/enums"
	"github.com/neumaticos/tirestore/pkg/types"
)

// LineItemDraft is one cart line handed to Submit.
type LineItemDraft struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Image     string
}

// Draft is a finalized cart plus buyer, shipping and payment metadata.
type Draft struct {
	UserID          uuid.UUID
	UserEmail       string
	UserName        string
	Items           []LineItemDraft
	Total           decimal.Decimal
	ShippingAddress types.ShippingAddress
	PaymentMethod   enums.PaymentMethod
	TransactionID   string
}

// ListFilter narrows order listings.
type ListFilter struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
}

// OrderList wraps a page of orders plus the cursor of the next page.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Actor identifies who is reading an order.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the actor may see every order.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}
