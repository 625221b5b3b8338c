package types

// Specifications are the technical attributes shown on product cards and detail pages.
type Specifications struct {
	LoadCapacity     string `json:"load_capacity,omitempty"`
	PowerType        string `json:"power_type,omitempty"`
	LiftHeight       string `json:"lift_height,omitempty"`
	TyreSize         string `json:"tyre_size,omitempty"`
	TyreType         string `json:"tyre_type,omitempty"`
	CompatibleBrands string `json:"compatible_brands,omitempty"`
	BatteryVoltage   string `json:"battery_voltage,omitempty"`
}

// CardSubset drops attributes that only appear on the detail page.
func (s Specifications) CardSubset() Specifications {
	s.BatteryVoltage = ""
	return s
}

// IsZero reports whether no attribute is set.
func (s Specifications) IsZero() bool {
	return s == Specifications{}
}
