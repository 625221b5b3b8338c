package enquiry

import (
	"context"
	"strings"
)

const (
	LabelInList  = "In Quote List"
	LabelAddable = "Add to Enquiry List"
)

// IndicatorAction is what a press on the per-product control did.
type IndicatorAction string

const (
	ActionAdded  IndicatorAction = "added"
	ActionOpened IndicatorAction = "opened"
)

// IndicatorState drives one product's add control.
type IndicatorState struct {
	ProductID string `json:"productId"`
	InList    bool   `json:"inList"`
	Label     string `json:"label"`
}

type IndicatorResult struct {
	IndicatorState
	Action   IndicatorAction `json:"action"`
	Snapshot Snapshot        `json:"cart"`
}

// Indicator is the membership-aware add control shared by every product card.
type Indicator struct {
	store *Store
}

func NewIndicator(store *Store) *Indicator {
	return &Indicator{store: store}
}

// State re-derives membership on every call.
func (i *Indicator) State(productID string) IndicatorState {
	return indicatorState(strings.TrimSpace(productID), i.store.Contains(productID))
}

// Press adds the product when absent; a member product opens the drawer instead.
func (i *Indicator) Press(ctx context.Context, rec CatalogRecord) IndicatorResult {
	item := Normalize(rec)
	snap, added := i.store.AddOrToggle(ctx, item)
	action := ActionOpened
	if added {
		action = ActionAdded
	}
	return IndicatorResult{
		IndicatorState: indicatorState(item.ID, snap.Contains(item.ID)),
		Action:         action,
		Snapshot:       snap,
	}
}

func indicatorState(productID string, inList bool) IndicatorState {
	label := LabelAddable
	if inList {
		label = LabelInList
	}
	return IndicatorState{ProductID: productID, InList: inList, Label: label}
}
