package enquiry

import (
	"github.com/shopspring/decimal"
)

// Item is a lightweight reference to a catalog product captured when the
// visitor showed interest in it.
type Item struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Slug     string           `json:"slug"`
	ImageURL string           `json:"imageUrl"`
	Category string           `json:"category"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// Op names the store operation that produced a snapshot.
type Op string

const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
	OpToggle Op = "toggle"
	OpClose  Op = "close"
)

// Snapshot is an immutable view of the store taken under its lock.
type Snapshot struct {
	Items     []Item `json:"items"`
	Count     int    `json:"count"`
	Open      bool   `json:"open"`
	Persisted bool   `json:"persisted"`
	Op        Op     `json:"op"`
	Version   uint64 `json:"version"`
}

// Contains reports whether the snapshot holds the product id.
func (s Snapshot) Contains(id string) bool {
	return indexOf(s.Items, id) >= 0
}

func indexOf(items []Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneItem(item Item) Item {
	if item.Price != nil {
		price := *item.Price
		item.Price = &price
	}
	return item
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i := range items {
		out[i] = cloneItem(items[i])
	}
	return out
}
