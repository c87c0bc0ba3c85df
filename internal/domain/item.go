package domain

import (
	"sort"
	"strings"
)

// PropertyValue is one selectable value of a property, e.g. "M" for a
// size property. Position orders values inside their property.
type PropertyValue struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	Position int64  `json:"position"`
}

// Property is one axis along which an item varies (size, color, ...).
// An item with no properties is sold as-is; an item with properties is
// sold through its variations.
type Property struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Position int64           `json:"position"`
	Values   []PropertyValue `json:"values"`
}

// Variation is a concrete purchasable combination of property values.
// It may override the item's base price and may draw from its own
// quotas in addition to the parent item's.
type Variation struct {
	ID         string          `json:"id"`
	ItemID     string          `json:"item_id"`
	Values     []PropertyValue `json:"values"`
	PriceCents *int64          `json:"price_cents,omitempty"`
}

// Empty reports whether this variation carries no property-value
// distinctions, i.e. it is the implicit variation of an item that has
// no properties configured.
func (v *Variation) Empty() bool {
	return len(v.Values) == 0
}

// OrderedValues returns the variation's values sorted by property-value
// position, ties broken by the value string. Used for deterministic
// display ordering.
func (v *Variation) OrderedValues() []string {
	vals := make([]PropertyValue, len(v.Values))
	copy(vals, v.Values)
	sort.Slice(vals, func(i, j int) bool {
		if vals[i].Position != vals[j].Position {
			return vals[i].Position < vals[j].Position
		}
		return vals[i].Value < vals[j].Value
	})

	out := make([]string, len(vals))
	for i, val := range vals {
		out[i] = val.Value
	}
	return out
}

// SortKey returns a single comparable string for ordering variations.
func (v *Variation) SortKey() string {
	return strings.Join(v.OrderedValues(), "\x00")
}

// Price returns the effective price of the variation: its own override
// when set, the item's base price otherwise.
func (v *Variation) Price(item *Item) int64 {
	if v.PriceCents != nil {
		return *v.PriceCents
	}
	return item.BasePriceCents
}

// Item is a sellable product scoped to one event. CategoryID may be
// empty for uncategorized items.
type Item struct {
	Meta
	EventID        string      `json:"event_id"`
	CategoryID     string      `json:"category_id,omitempty"`
	Name           string      `json:"name"`
	BasePriceCents int64       `json:"base_price_cents"`
	Active         bool        `json:"active"`
	Properties     []Property  `json:"properties,omitempty"`
	Variations     []Variation `json:"variations,omitempty"`
}

// HasProperties reports whether the item is configured with at least
// one variation axis.
func (i *Item) HasProperties() bool {
	return len(i.Properties) > 0
}
