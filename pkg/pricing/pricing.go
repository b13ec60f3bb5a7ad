package pricing

import (
	"fmt"
	"os"
	"strings"

	"github.com/sw33tLie/shopwatch/pkg/diff"
	"gopkg.in/yaml.v3"
)

// Table maps item identities to their real-world price.
type Table map[string]float64

// RealPrice implements diff.PriceLookup.
func (t Table) RealPrice(id string) (float64, bool) {
	v, ok := t[id]
	return v, ok
}

// LoadFile reads a YAML document of the form `<item id>: <price>`.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := Table{}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing real prices file %s: %w", path, err)
	}
	for id, v := range t {
		if v < 0 {
			return nil, fmt.Errorf("real price for %s is negative: %v", id, v)
		}
	}
	return t, nil
}

// Folded matches identities case-insensitively. Viper lowercases map keys,
// so the inline real_prices config section is looked up through it.
type Folded Table

func (f Folded) RealPrice(id string) (float64, bool) {
	v, ok := f[strings.ToLower(id)]
	return v, ok
}

// Chain asks each lookup in turn; the first hit wins.
type Chain []diff.PriceLookup

func (c Chain) RealPrice(id string) (float64, bool) {
	for _, l := range c {
		if l == nil {
			continue
		}
		if v, ok := l.RealPrice(id); ok {
			return v, true
		}
	}
	return 0, false
}
