package enums

import "fmt"

// ProductCategory groups tires by the kind of vehicle they fit.
type ProductCategory string

const (
	ProductCategoryAutomovil ProductCategory = "automovil"
	ProductCategoryCamioneta ProductCategory = "camioneta"
	ProductCategoryMoto      ProductCategory = "moto"
)

var validProductCategories = []ProductCategory{
	ProductCategoryAutomovil,
	ProductCategoryCamioneta,
	ProductCategoryMoto,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
