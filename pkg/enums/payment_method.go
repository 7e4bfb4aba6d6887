package enums

import "fmt"

// PaymentMethod describes how a buyer intends to settle an order.
type PaymentMethod string

const (
	PaymentMethodWebpay        PaymentMethod = "webpay"
	PaymentMethodTransferencia PaymentMethod = "transferencia"
)

// DefaultPaymentMethod is applied when checkout omits a payment method.
const DefaultPaymentMethod = PaymentMethodWebpay

var validPaymentMethods = []PaymentMethod{
	PaymentMethodWebpay,
	PaymentMethodTransferencia,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
