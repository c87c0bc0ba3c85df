package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
)

// Store is the read surface the builder needs from the catalog storage
// layer. ItemsWithQuotas must return only items that participate in at
// least one quota (directly or via a variation), already ordered by
// (category position, category ID, item name).
type Store interface {
	ItemsWithQuotas(ctx context.Context, eventID string) ([]domain.Item, error)
	CategoriesByID(ctx context.Context, eventID string) (map[string]domain.Category, error)
	QuotasForItem(ctx context.Context, itemID string) ([]domain.Quota, error)
	QuotasForVariation(ctx context.Context, itemID, variationID string) ([]domain.Quota, error)
}

// VariationView is one purchasable variation with its resolved price
// and availability.
type VariationView struct {
	Variation    domain.Variation `json:"variation"`
	PriceCents   int64            `json:"price_cents"`
	Availability Availability     `json:"availability"`
}

// ItemView is one item ready for display. When HasVariations is false
// the item is sold as a single-price unit and Availability is set; when
// true the per-variation views carry their own availability instead.
type ItemView struct {
	Item          domain.Item     `json:"item"`
	HasVariations bool            `json:"has_variations"`
	PriceCents    int64           `json:"price_cents"`
	Availability  *Availability   `json:"availability,omitempty"`
	Variations    []VariationView `json:"variations,omitempty"`
}

// Group is one category together with its items, in display order.
type Group struct {
	Category domain.Category `json:"category"`
	Items    []ItemView      `json:"items"`
}

// Builder assembles the event shop page from catalog storage.
type Builder struct {
	store Store
}

// NewBuilder creates a catalog builder over the given store.
func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

// Build returns the category-grouped, availability-annotated catalog of
// an event.
//
// Items with no quota anywhere are excluded by the store query; they
// are not purchasable and must not render. Items whose property data
// yields no valid variation render with an empty variation list; hiding
// them is the display layer's call.
func (b *Builder) Build(ctx context.Context, event *domain.Event) ([]Group, error) {
	items, err := b.store.ItemsWithQuotas(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	views := make([]ItemView, 0, len(items))
	for i := range items {
		view, err := b.buildItem(ctx, event, &items[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return b.regroup(ctx, event.ID, views)
}

// buildItem expands one item into its display view.
func (b *Builder) buildItem(ctx context.Context, event *domain.Event, item *domain.Item) (ItemView, error) {
	variations := expandVariations(item)

	// A lone empty variation means the item has no configured
	// properties and is sold as a single unit.
	hasVariations := len(variations) != 1 || !variations[0].Empty()

	view := ItemView{Item: *item, HasVariations: hasVariations}

	if !hasVariations {
		quotas, err := b.store.QuotasForItem(ctx, item.ID)
		if err != nil {
			return ItemView{}, fmt.Errorf("quotas for item %s: %w", item.ID, err)
		}
		avail := Cap(ResolveQuotas(quotas), event.Settings.MaxItemsPerOrder)
		view.Availability = &avail
		view.PriceCents = variations[0].Price(item)
		return view, nil
	}

	view.Variations = make([]VariationView, 0, len(variations))
	for i := range variations {
		quotas, err := b.store.QuotasForVariation(ctx, item.ID, variations[i].ID)
		if err != nil {
			return ItemView{}, fmt.Errorf("quotas for variation %s: %w", variations[i].ID, err)
		}
		view.Variations = append(view.Variations, VariationView{
			Variation:    variations[i],
			PriceCents:   variations[i].Price(item),
			Availability: Cap(ResolveQuotas(quotas), event.Settings.MaxItemsPerOrder),
		})
	}
	return view, nil
}

// expandVariations returns the item's sellable variations in stable
// display order. An item without properties gets the single implicit
// "empty" variation representing the item itself; an item with
// properties but no declared variations gets the full cross-product of
// its property values.
func expandVariations(item *domain.Item) []domain.Variation {
	if !item.HasProperties() {
		return []domain.Variation{{ItemID: item.ID}}
	}

	var variations []domain.Variation
	if len(item.Variations) > 0 {
		for _, v := range item.Variations {
			if !v.Empty() {
				variations = append(variations, v)
			}
		}
	} else {
		variations = crossProduct(item)
	}

	sort.SliceStable(variations, func(i, j int) bool {
		return variations[i].SortKey() < variations[j].SortKey()
	})
	return variations
}

// crossProduct synthesizes one variation per combination of property
// values for items whose variations were never materialized by the
// organizer tooling. IDs are derived from the value IDs so quota
// membership lookups stay deterministic.
func crossProduct(item *domain.Item) []domain.Variation {
	combos := [][]domain.PropertyValue{{}}
	for _, prop := range item.Properties {
		if len(prop.Values) == 0 {
			// A property with no values admits no valid combination.
			return nil
		}
		next := make([][]domain.PropertyValue, 0, len(combos)*len(prop.Values))
		for _, combo := range combos {
			for _, val := range prop.Values {
				extended := make([]domain.PropertyValue, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, val))
			}
		}
		combos = next
	}

	variations := make([]domain.Variation, 0, len(combos))
	for _, combo := range combos {
		ids := make([]string, len(combo))
		for i, val := range combo {
			ids[i] = val.ID
		}
		variations = append(variations, domain.Variation{
			ID:     item.ID + ":" + strings.Join(ids, "+"),
			ItemID: item.ID,
			Values: combo,
		})
	}
	return variations
}

// regroup buckets the flat item list by category. Categories are
// deduplicated through a map keyed by ID, groups are sorted by
// (position, ID), and items keep the relative order the store query
// established.
func (b *Builder) regroup(ctx context.Context, eventID string, views []ItemView) ([]Group, error) {
	categories, err := b.store.CategoriesByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	byCategory := make(map[string]*Group)
	order := make([]string, 0)
	for _, view := range views {
		catID := view.Item.CategoryID
		group, ok := byCategory[catID]
		if !ok {
			cat, found := categories[catID]
			if !found {
				// Uncategorized items collect under a zero-value
				// category that sorts after every configured one.
				cat = domain.Category{Position: int64(^uint64(0) >> 1)}
			}
			group = &Group{Category: cat}
			byCategory[catID] = group
			order = append(order, catID)
		}
		group.Items = append(group.Items, view)
	}

	groups := make([]Group, 0, len(order))
	for _, catID := range order {
		groups = append(groups, *byCategory[catID])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Category.Position != groups[j].Category.Position {
			return groups[i].Category.Position < groups[j].Category.Position
		}
		return groups[i].Category.ID < groups[j].Category.ID
	})
	return groups, nil
}
