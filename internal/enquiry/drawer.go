package enquiry

const (
	CheckoutPath       = "/enquiry"
	CatalogPath        = "/products"
	DrawerEmptyMessage = "Your Quote Cart is Empty"
)

// Drawer is the companion list view. It holds nothing beyond the snapshot.
type Drawer struct {
	Title        string `json:"title"`
	Items        []Item `json:"items"`
	Count        int    `json:"count"`
	Open         bool   `json:"open"`
	Empty        bool   `json:"empty"`
	EmptyMessage string `json:"emptyMessage,omitempty"`
	CheckoutPath string `json:"checkoutPath,omitempty"`
	BrowsePath   string `json:"browsePath"`
}

func DrawerView(s Snapshot) Drawer {
	d := Drawer{
		Title:      "Enquiry List",
		Items:      s.Items,
		Count:      s.Count,
		Open:       s.Open,
		Empty:      s.Count == 0,
		BrowsePath: CatalogPath,
	}
	if d.Items == nil {
		d.Items = []Item{}
	}
	if d.Empty {
		d.EmptyMessage = DrawerEmptyMessage
	} else {
		d.CheckoutPath = CheckoutPath
	}
	return d
}
