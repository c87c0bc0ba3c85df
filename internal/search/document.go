// Package search provides full-text search over the presale catalog
// using Bleve. Items and events share one index with type
// discrimination, so a single query covers both and results can be
// filtered down to one event's shop.
package search

import (
	"strings"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	"github.com/boxofficeapp/boxoffice-server/internal/normalize"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeItem  DocType = "item"
	DocTypeEvent DocType = "event"
)

// Document is the unified document structure for the Bleve index.
//
// Category and variation names are denormalized into item documents so
// that "early bird" finds the item whether the words live on the item
// itself or on one of its variations. The extra storage is cheap next
// to wanting instant results during a presale rush.
type Document struct {
	// Identity
	ID   string  `json:"id"`   // Original entity ID (itm-xxx, evt-xxx)
	Type DocType `json:"type"` // Discriminator for result grouping

	// Primary searchable text. Item: name, Event: name.
	Name string `json:"name"`
	// Folded form of Name for accent-insensitive matching.
	NameFolded string `json:"name_folded"`

	// Item-specific fields (empty for events)
	EventID    string `json:"event_id,omitempty"` // Scope filter
	Category   string `json:"category,omitempty"` // Denormalized for search
	Variations string `json:"variations,omitempty"`

	// Event-specific fields
	Organizer string `json:"organizer,omitempty"` // Denormalized for search
	Slug      string `json:"slug,omitempty"`

	// Numeric fields for range queries and sorting
	PriceCents int64 `json:"price_cents,omitempty"`

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":          d.ID,
		"type":        string(d.Type),
		"name":        d.Name,
		"name_folded": d.NameFolded,
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
	}

	if d.EventID != "" {
		m["event_id"] = d.EventID
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	if d.Variations != "" {
		m["variations"] = d.Variations
	}
	if d.Organizer != "" {
		m["organizer"] = d.Organizer
	}
	if d.Slug != "" {
		m["slug"] = d.Slug
	}
	if d.PriceCents > 0 {
		m["price_cents"] = d.PriceCents
	}

	return m
}

// ItemToDocument converts a domain Item to a search Document. The
// category name is provided by the caller since the search package
// doesn't depend on the store.
func ItemToDocument(item *domain.Item, categoryName string) *Document {
	name := normalize.Sanitize(item.Name)

	// Flatten variation value labels into one searchable blob.
	var values []string
	for _, v := range item.Variations {
		for _, pv := range v.Values {
			values = append(values, normalize.Sanitize(pv.Value))
		}
	}

	return &Document{
		ID:         item.ID,
		Type:       DocTypeItem,
		Name:       name,
		NameFolded: normalize.Fold(name),
		EventID:    item.EventID,
		Category:   normalize.Sanitize(categoryName),
		Variations: strings.Join(values, " "),
		PriceCents: item.BasePriceCents,
		CreatedAt:  item.CreatedAt.UnixMilli(),
		UpdatedAt:  item.UpdatedAt.UnixMilli(),
	}
}

// EventToDocument converts a domain Event to a search Document.
func EventToDocument(event *domain.Event, organizerName string) *Document {
	name := normalize.Sanitize(event.Name)

	return &Document{
		ID:         event.ID,
		Type:       DocTypeEvent,
		Name:       name,
		NameFolded: normalize.Fold(name),
		Organizer:  normalize.Sanitize(organizerName),
		Slug:       event.Slug,
		CreatedAt:  event.CreatedAt.UnixMilli(),
		UpdatedAt:  event.UpdatedAt.UnixMilli(),
	}
}
