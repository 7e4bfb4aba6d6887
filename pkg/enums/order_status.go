package enums

import "fmt"

// OrderStatus tracks the lifecycle of a storefront order.
type OrderStatus string

const (
	OrderStatusPendiente  OrderStatus = "pendiente"
	OrderStatusConfirmado OrderStatus = "confirmado"
	OrderStatusEnviado    OrderStatus = "enviado"
	OrderStatusEntregado  OrderStatus = "entregado"
	OrderStatusCancelado  OrderStatus = "cancelado"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendiente,
	OrderStatusConfirmado,
	OrderStatusEnviado,
	OrderStatusEntregado,
	OrderStatusCancelado,
}

// OrderStatuses returns every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
