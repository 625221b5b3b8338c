package enums

import "fmt"

// ResourceCategory groups i-School learning resources.
type ResourceCategory string

const (
	ResourceCategoryForklift    ResourceCategory = "forklift"
	ResourceCategoryStacker     ResourceCategory = "stacker"
	ResourceCategoryPalletTruck ResourceCategory = "pallet_truck"
	ResourceCategoryVideo       ResourceCategory = "video"
	ResourceCategoryManual      ResourceCategory = "manual"
)

var validResourceCategories = []ResourceCategory{
	ResourceCategoryForklift,
	ResourceCategoryStacker,
	ResourceCategoryPalletTruck,
	ResourceCategoryVideo,
	ResourceCategoryManual,
}

func (c ResourceCategory) String() string {
	return string(c)
}

func (c ResourceCategory) IsValid() bool {
	for _, candidate := range validResourceCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseResourceCategory converts raw input into a ResourceCategory.
func ParseResourceCategory(value string) (ResourceCategory, error) {
	for _, candidate := range validResourceCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resource category %q", value)
}

// ResourceType is the media kind behind a resource link.
type ResourceType string

const (
	ResourceTypeVideo ResourceType = "video"
	ResourceTypePDF   ResourceType = "pdf"
)

func (t ResourceType) IsValid() bool {
	return t == ResourceTypeVideo || t == ResourceTypePDF
}
