package diff

import (
	"strings"

	"github.com/sw33tLie/shopwatch/pkg/items"
)

type ChangeType string

const (
	Added   ChangeType = "added"
	Updated ChangeType = "updated"
	Removed ChangeType = "removed"
)

// Change is one rendered report produced by a reconciliation.
type Change struct {
	Type     ChangeType
	ItemID   string
	ItemName string
	Report   string
}

// DiffItems compares two items sharing the same identity. It returns false
// when both are value-equal.
func DiffItems(old, new items.Item, prices PriceLookup) (string, bool) {
	if old.Equal(new) {
		return "", false
	}

	lines := []string{nameLine(old.Name, new.Name)}
	if l, ok := priceLine(old.Price, new.Price, realPriceSuffix(prices, new.ID)); ok {
		lines = append(lines, l)
	}
	if l, ok := optionalLine(labelDescription, old.Description, new.Description); ok {
		lines = append(lines, l)
	}
	if l, ok := optionalLine(labelFulfillment, old.FulfillmentInfo, new.FulfillmentInfo); ok {
		lines = append(lines, l)
	}
	if l, ok := stockLine(old.Stock, new.Stock); ok {
		lines = append(lines, l)
	}
	return strings.Join(lines, "\n"), true
}

// Reconcile matches both catalogs by identity and returns the updates and
// additions in new-catalog order, followed by the deletions in old-catalog
// order. Only the first occurrence of a duplicated identity is considered.
func Reconcile(old, new items.Catalog, prices PriceLookup) []Change {
	oldByID := make(map[string]items.Item, len(old))
	for _, it := range old {
		if _, ok := oldByID[it.ID]; !ok {
			oldByID[it.ID] = it
		}
	}

	var changes []Change
	newIDs := make(map[string]struct{}, len(new))
	for _, it := range new {
		if _, seen := newIDs[it.ID]; seen {
			continue
		}
		newIDs[it.ID] = struct{}{}

		prev, ok := oldByID[it.ID]
		if !ok {
			changes = append(changes, Change{Type: Added, ItemID: it.ID, ItemName: it.Name, Report: FormatNewItem(it, prices)})
			continue
		}
		if report, ok := DiffItems(prev, it, prices); ok {
			changes = append(changes, Change{Type: Updated, ItemID: it.ID, ItemName: it.Name, Report: report})
		}
	}

	removed := make(map[string]struct{})
	for _, it := range old {
		if _, ok := newIDs[it.ID]; ok {
			continue
		}
		if _, done := removed[it.ID]; done {
			continue
		}
		removed[it.ID] = struct{}{}
		changes = append(changes, Change{Type: Removed, ItemID: it.ID, ItemName: it.Name, Report: FormatDeletedItem(it, prices)})
	}

	return changes
}

// Reports extracts the rendered text of every change, preserving order.
func Reports(changes []Change) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Report)
	}
	return out
}
