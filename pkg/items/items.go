package items

import (
	"errors"
	"fmt"
)

// Item is a single purchasable entry of the shop catalog. The JSON names
// follow the upstream feed and are reused for the persisted snapshot.
type Item struct {
	ID              string  `json:"id"`
	Name            string  `json:"Full Name"`
	Description     *string `json:"Description"`
	FulfillmentInfo *string `json:"Fulfillment Description"`
	Price           int     `json:"Cost Hours"`
	// Stock is nil when the item has unlimited availability.
	Stock *int `json:"Stock"`
}

// Catalog is an ordered snapshot of the shop's items.
type Catalog []Item

// Ptr returns a pointer to v. Handy for building optional fields.
func Ptr[T any](v T) *T {
	return &v
}

// Equal reports whether every field of both items matches. Optional fields
// are compared by presence first, then by value.
func (it Item) Equal(other Item) bool {
	return it.ID == other.ID &&
		it.Name == other.Name &&
		it.Price == other.Price &&
		equalPtr(it.Description, other.Description) &&
		equalPtr(it.FulfillmentInfo, other.FulfillmentInfo) &&
		equalPtr(it.Stock, other.Stock)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Duplicates returns every identity that appears more than once, in order of
// first appearance.
func (c Catalog) Duplicates() []string {
	seen := make(map[string]int, len(c))
	var dups []string
	for _, it := range c {
		seen[it.ID]++
		if seen[it.ID] == 2 {
			dups = append(dups, it.ID)
		}
	}
	return dups
}

var ErrInvalidItem = errors.New("invalid catalog item")

// Validate checks that every item satisfies the catalog schema.
func (c Catalog) Validate() error {
	var errs []error
	for i, it := range c {
		switch {
		case it.ID == "":
			errs = append(errs, fmt.Errorf("%w: item %d has no id", ErrInvalidItem, i))
		case it.Name == "":
			errs = append(errs, fmt.Errorf("%w: item %s has no name", ErrInvalidItem, it.ID))
		case it.Price < 0:
			errs = append(errs, fmt.Errorf("%w: item %s has negative price %d", ErrInvalidItem, it.ID, it.Price))
		case it.Stock != nil && *it.Stock < 0:
			errs = append(errs, fmt.Errorf("%w: item %s has negative stock %d", ErrInvalidItem, it.ID, *it.Stock))
		}
	}
	return errors.Join(errs...)
}
