package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
)

// fakeStore is an in-memory catalog store for builder tests. Items are
// returned in insertion order, which stands in for the query ordering
// the real store guarantees.
type fakeStore struct {
	items      []domain.Item
	categories map[string]domain.Category
	// quota membership keyed by item ID and variation ID
	itemQuotas      map[string][]domain.Quota
	variationQuotas map[string][]domain.Quota
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories:      make(map[string]domain.Category),
		itemQuotas:      make(map[string][]domain.Quota),
		variationQuotas: make(map[string][]domain.Quota),
	}
}

func (f *fakeStore) ItemsWithQuotas(_ context.Context, _ string) ([]domain.Item, error) {
	var out []domain.Item
	for _, item := range f.items {
		if len(f.itemQuotas[item.ID]) > 0 {
			out = append(out, item)
			continue
		}
		for _, v := range item.Variations {
			if len(f.variationQuotas[v.ID]) > 0 {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CategoriesByID(_ context.Context, _ string) (map[string]domain.Category, error) {
	return f.categories, nil
}

func (f *fakeStore) QuotasForItem(_ context.Context, itemID string) ([]domain.Quota, error) {
	return f.itemQuotas[itemID], nil
}

func (f *fakeStore) QuotasForVariation(_ context.Context, itemID, variationID string) ([]domain.Quota, error) {
	// A variation draws from its own quotas plus the parent item's.
	return append(f.variationQuotas[variationID], f.itemQuotas[itemID]...), nil
}

func testEvent(maxPerOrder int64) *domain.Event {
	e := &domain.Event{
		Slug:     "megacon",
		Name:     "MegaCon",
		Settings: domain.EventSettings{MaxItemsPerOrder: maxPerOrder},
	}
	e.ID = "evt-1"
	return e
}

func TestBuild_SimpleItemCapsAfterResolving(t *testing.T) {
	store := newFakeStore()
	store.categories["cat-1"] = domain.Category{Meta: domain.Meta{ID: "cat-1"}, Name: "Tickets", Position: 1}

	shirt := domain.Item{Name: "T-Shirt", CategoryID: "cat-1", BasePriceCents: 2500}
	shirt.ID = "itm-shirt"
	store.items = []domain.Item{shirt}
	store.itemQuotas["itm-shirt"] = []domain.Quota{{Size: sized(5)}}

	groups, err := NewBuilder(store).Build(context.Background(), testEvent(3))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Items, 1)

	view := groups[0].Items[0]
	assert.False(t, view.HasVariations)
	assert.Equal(t, int64(2500), view.PriceCents)
	require.NotNil(t, view.Availability)
	assert.Equal(t, StatusInStock, view.Availability.Status)
	assert.Equal(t, int64(3), view.Availability.DisplayCount)

	// Scarce quota wins over the cap.
	store.itemQuotas["itm-shirt"] = []domain.Quota{{Size: sized(2)}}
	groups, err = NewBuilder(store).Build(context.Background(), testEvent(3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), groups[0].Items[0].Availability.DisplayCount)
	assert.Equal(t, StatusInStock, groups[0].Items[0].Availability.Status)

	// Exhausted quota shows sold out.
	store.itemQuotas["itm-shirt"] = []domain.Quota{{Size: sized(0)}}
	groups, err = NewBuilder(store).Build(context.Background(), testEvent(3))
	require.NoError(t, err)
	assert.Equal(t, int64(0), groups[0].Items[0].Availability.DisplayCount)
	assert.Equal(t, StatusSoldOut, groups[0].Items[0].Availability.Status)
}

func TestBuild_ExcludesItemsWithoutQuotas(t *testing.T) {
	store := newFakeStore()
	ghost := domain.Item{Name: "Ghost"}
	ghost.ID = "itm-ghost"
	store.items = []domain.Item{ghost}

	groups, err := NewBuilder(store).Build(context.Background(), testEvent(3))
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestBuild_VariationsCarryOwnAvailabilityAndPrice(t *testing.T) {
	store := newFakeStore()
	store.categories["cat-1"] = domain.Category{Meta: domain.Meta{ID: "cat-1"}, Name: "Merch", Position: 1}

	override := int64(2900)
	hoodie := domain.Item{
		Name:           "Hoodie",
		CategoryID:     "cat-1",
		BasePriceCents: 2500,
		Properties: []domain.Property{{
			ID:   "prp-size",
			Name: "Size",
			Values: []domain.PropertyValue{
				{ID: "val-s", Value: "S", Position: 1},
				{ID: "val-m", Value: "M", Position: 2},
			},
		}},
		Variations: []domain.Variation{
			{ID: "var-m", ItemID: "itm-hoodie", Values: []domain.PropertyValue{{ID: "val-m", Value: "M", Position: 2}}, PriceCents: &override},
			{ID: "var-s", ItemID: "itm-hoodie", Values: []domain.PropertyValue{{ID: "val-s", Value: "S", Position: 1}}},
		},
	}
	hoodie.ID = "itm-hoodie"
	store.items = []domain.Item{hoodie}
	store.itemQuotas["itm-hoodie"] = []domain.Quota{{Size: sized(10)}}
	store.variationQuotas["var-s"] = []domain.Quota{{Size: sized(1)}}

	groups, err := NewBuilder(store).Build(context.Background(), testEvent(4))
	require.NoError(t, err)
	require.Len(t, groups, 1)

	view := groups[0].Items[0]
	assert.True(t, view.HasVariations)
	assert.Nil(t, view.Availability)
	require.Len(t, view.Variations, 2)

	// Sorted by value tuple: "M" < "S" lexicographically.
	assert.Equal(t, "var-m", view.Variations[0].Variation.ID)
	assert.Equal(t, int64(2900), view.Variations[0].PriceCents)
	assert.Equal(t, int64(4), view.Variations[0].Availability.DisplayCount)

	// var-s is bound by its own scarcer quota in addition to the
	// item-level one.
	assert.Equal(t, "var-s", view.Variations[1].Variation.ID)
	assert.Equal(t, int64(2500), view.Variations[1].PriceCents)
	assert.Equal(t, int64(1), view.Variations[1].Availability.DisplayCount)
}

func TestBuild_CrossProductWhenVariationsNotMaterialized(t *testing.T) {
	store := newFakeStore()
	tee := domain.Item{
		Name:           "Tee",
		BasePriceCents: 1500,
		Properties: []domain.Property{
			{ID: "prp-size", Name: "Size", Position: 1, Values: []domain.PropertyValue{
				{ID: "val-s", Value: "S", Position: 1},
				{ID: "val-m", Value: "M", Position: 2},
			}},
			{ID: "prp-color", Name: "Color", Position: 2, Values: []domain.PropertyValue{
				{ID: "val-red", Value: "red", Position: 1},
			}},
		},
	}
	tee.ID = "itm-tee"
	store.items = []domain.Item{tee}
	store.itemQuotas["itm-tee"] = []domain.Quota{{Size: sized(8)}}

	groups, err := NewBuilder(store).Build(context.Background(), testEvent(10))
	require.NoError(t, err)
	require.Len(t, groups, 1)

	view := groups[0].Items[0]
	assert.True(t, view.HasVariations)
	require.Len(t, view.Variations, 2) // S×red, M×red
	for _, v := range view.Variations {
		assert.Equal(t, int64(8), v.Availability.DisplayCount)
		assert.Equal(t, int64(1500), v.PriceCents)
	}
}

func TestBuild_ItemWithInvalidPropertiesRendersEmpty(t *testing.T) {
	store := newFakeStore()
	broken := domain.Item{
		Name:       "Broken",
		Properties: []domain.Property{{ID: "prp-x", Name: "X"}}, // no values
	}
	broken.ID = "itm-broken"
	store.items = []domain.Item{broken}
	store.itemQuotas["itm-broken"] = []domain.Quota{{Size: sized(5)}}

	groups, err := NewBuilder(store).Build(context.Background(), testEvent(3))
	require.NoError(t, err)
	require.Len(t, groups, 1)

	view := groups[0].Items[0]
	assert.True(t, view.HasVariations)
	assert.Empty(t, view.Variations)
}

func TestBuild_GroupOrderingAndStability(t *testing.T) {
	store := newFakeStore()
	store.categories["cat-b"] = domain.Category{Meta: domain.Meta{ID: "cat-b"}, Name: "B", Position: 1}
	store.categories["cat-a"] = domain.Category{Meta: domain.Meta{ID: "cat-a"}, Name: "A", Position: 1}
	store.categories["cat-c"] = domain.Category{Meta: domain.Meta{ID: "cat-c"}, Name: "C", Position: 0}

	mk := func(id, name, cat string) domain.Item {
		item := domain.Item{Name: name, CategoryID: cat}
		item.ID = id
		store.itemQuotas[id] = []domain.Quota{{Size: sized(5)}}
		return item
	}
	// Insertion order emulates the store's (category position,
	// category ID, item name) query ordering.
	store.items = []domain.Item{
		mk("itm-1", "Day Pass", "cat-c"),
		mk("itm-2", "Aisle Seat", "cat-a"),
		mk("itm-3", "Balcony Seat", "cat-a"),
		mk("itm-4", "Backstage", "cat-b"),
	}

	build := func() []Group {
		groups, err := NewBuilder(store).Build(context.Background(), testEvent(3))
		require.NoError(t, err)
		return groups
	}

	groups := build()
	require.Len(t, groups, 3)
	// Position 0 first, then position-1 tie broken by category ID.
	assert.Equal(t, "cat-c", groups[0].Category.ID)
	assert.Equal(t, "cat-a", groups[1].Category.ID)
	assert.Equal(t, "cat-b", groups[2].Category.ID)

	// Items keep their relative order inside each group.
	require.Len(t, groups[1].Items, 2)
	assert.Equal(t, "Aisle Seat", groups[1].Items[0].Item.Name)
	assert.Equal(t, "Balcony Seat", groups[1].Items[1].Item.Name)

	// Building twice on unchanged data yields identical output.
	assert.Equal(t, groups, build())
}

func TestBuild_UncategorizedItemsSortLast(t *testing.T) {
	store := newFakeStore()
	store.categories["cat-1"] = domain.Category{Meta: domain.Meta{ID: "cat-1"}, Name: "Tickets", Position: 99}

	loose := domain.Item{Name: "Loose"}
	loose.ID = "itm-loose"
	ticket := domain.Item{Name: "Ticket", CategoryID: "cat-1"}
	ticket.ID = "itm-ticket"
	store.items = []domain.Item{loose, ticket}
	store.itemQuotas["itm-loose"] = []domain.Quota{{Size: sized(1)}}
	store.itemQuotas["itm-ticket"] = []domain.Quota{{Size: sized(1)}}

	groups, err := NewBuilder(store).Build(context.Background(), testEvent(3))
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "cat-1", groups[0].Category.ID)
	assert.Equal(t, "", groups[1].Category.ID)
}
