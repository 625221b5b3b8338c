package enums

import "fmt"

// ProductCategory represents the machinery categories used by the catalog.
type ProductCategory string

const (
	ProductCategoryForklift    ProductCategory = "forklift"
	ProductCategoryStacker     ProductCategory = "stacker"
	ProductCategoryPalletTruck ProductCategory = "pallet_truck"
	ProductCategoryCrane       ProductCategory = "crane"
	ProductCategoryWarehouse   ProductCategory = "warehouse"
	ProductCategoryTyres       ProductCategory = "tyres"
	ProductCategorySpareParts  ProductCategory = "spare_parts"
	ProductCategoryOther       ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryForklift,
	ProductCategoryStacker,
	ProductCategoryPalletTruck,
	ProductCategoryCrane,
	ProductCategoryWarehouse,
	ProductCategoryTyres,
	ProductCategorySpareParts,
	ProductCategoryOther,
}

// StandardProductCategories are always offered as filters, even before any product uses them.
var StandardProductCategories = []ProductCategory{
	ProductCategoryForklift,
	ProductCategoryStacker,
	ProductCategoryPalletTruck,
	ProductCategoryCrane,
	ProductCategoryWarehouse,
	ProductCategorySpareParts,
	ProductCategoryTyres,
}

// CategoryAll disables category filtering on list queries.
const CategoryAll = "all"

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
