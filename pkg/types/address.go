package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the delivery block captured at checkout and stored as a
// JSON column on the order.
type ShippingAddress struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
}

// Validate reports the first missing required field.
func (a ShippingAddress) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"name", a.Name},
		{"email", a.Email},
		{"phone", a.Phone},
		{"address", a.Address},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("shipping address: missing %s", r.field)
		}
	}
	return nil
}

// Value serializes the address to JSON.
func (a ShippingAddress) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes the JSON column into the address.
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return fmt.Errorf("shipping address: %w", err)
	}
	return json.Unmarshal(raw, a)
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
