package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sw33tLie/shopwatch/pkg/items"
)

const (
	NotSet    = "_not set_"
	Unlimited = "Unlimited"

	ArrowUp   = "⬆️"
	ArrowDown = "⬇️"
)

const (
	labelName        = "*Name:*"
	labelPrice       = "*Price:*"
	labelDescription = "*Description:*"
	labelFulfillment = "*Fulfillment Info:*"
	labelStock       = "*Stock:*"

	labelNewItem     = "*New item added:*"
	labelDeletedItem = "*Item DELETED:*"
)

// PriceLookup resolves the real price of an item by identity.
type PriceLookup interface {
	RealPrice(id string) (float64, bool)
}

func orNotSet(s *string) string {
	if s == nil {
		return NotSet
	}
	return *s
}

func formatStock(s *int) string {
	if s == nil {
		return Unlimited
	}
	return strconv.Itoa(*s)
}

func direction(old, new int) string {
	if new < old {
		return ArrowDown
	}
	return ArrowUp
}

func realPriceSuffix(prices PriceLookup, id string) string {
	if prices == nil {
		return ""
	}
	v, ok := prices.RealPrice(id)
	if !ok {
		return ""
	}
	return fmt.Sprintf(" (real price: $%.2f)", v)
}

func changed(label, old, new string) string {
	return fmt.Sprintf("%s %s → %s", label, old, new)
}

// nameLine is always emitted so every report starts with the item name.
func nameLine(old, new string) string {
	if old != new {
		return changed(labelName, old, new)
	}
	return labelName + " " + new
}

func priceLine(old, new int, suffix string) (string, bool) {
	if old == new {
		return "", false
	}
	return changed(labelPrice, strconv.Itoa(old), strconv.Itoa(new)) + " " + direction(old, new) + suffix, true
}

func optionalLine(label string, old, new *string) (string, bool) {
	if (old == nil && new == nil) || (old != nil && new != nil && *old == *new) {
		return "", false
	}
	return changed(label, orNotSet(old), orNotSet(new)), true
}

// stockLine only carries a marker when both sides are finite.
func stockLine(old, new *int) (string, bool) {
	switch {
	case old == nil && new == nil:
		return "", false
	case old != nil && new != nil:
		if *old == *new {
			return "", false
		}
		return changed(labelStock, formatStock(old), formatStock(new)) + " " + direction(*old, *new), true
	default:
		return changed(labelStock, formatStock(old), formatStock(new)), true
	}
}

// FormatNewItem renders the report for an item missing from the old catalog.
func FormatNewItem(item items.Item, prices PriceLookup) string {
	return strings.Join([]string{
		labelNewItem + " " + item.Name,
		labelDescription + " " + orNotSet(item.Description),
		labelFulfillment + " " + orNotSet(item.FulfillmentInfo),
		labelPrice + " " + strconv.Itoa(item.Price) + realPriceSuffix(prices, item.ID),
		labelStock + " " + formatStock(item.Stock),
	}, "\n")
}

// FormatDeletedItem renders the report for an item missing from the new catalog.
func FormatDeletedItem(item items.Item, prices PriceLookup) string {
	return strings.Join([]string{
		labelDeletedItem + " " + item.Name,
		labelDescription + " " + orNotSet(item.Description),
		labelPrice + " " + strconv.Itoa(item.Price) + realPriceSuffix(prices, item.ID),
	}, "\n")
}
