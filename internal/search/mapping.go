package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for search documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on item and event names with English stemming
//  2. Accent-insensitive matching via the pre-folded name field
//  3. Exact keyword matching for type and event scope filters
//  4. Numeric range queries for price
//  5. Term vectors enabled on key fields for highlighting
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	// Use English analyzer as default for text fields
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Name field - primary search target, boosted at query time
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Folded name - accent-stripped, simple analyzer so no stemming
	// interferes with prefix matching
	foldedFieldMapping := bleve.NewTextFieldMapping()
	foldedFieldMapping.Analyzer = simple.Name
	foldedFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("name_folded", foldedFieldMapping)

	// Category name - searchable, shown in results
	categoryFieldMapping := bleve.NewTextFieldMapping()
	categoryFieldMapping.Analyzer = en.AnalyzerName
	categoryFieldMapping.Store = true
	categoryFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("category", categoryFieldMapping)

	// Variation value labels - searchable but not stored
	variationsFieldMapping := bleve.NewTextFieldMapping()
	variationsFieldMapping.Analyzer = en.AnalyzerName
	variationsFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("variations", variationsFieldMapping)

	// Organizer name - simple analyzer, organizer names aren't prose
	organizerFieldMapping := bleve.NewTextFieldMapping()
	organizerFieldMapping.Analyzer = simple.Name
	organizerFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("organizer", organizerFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	// Type - for filtering by document type
	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	// ID - stored but not analyzed
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Event ID - scopes item results to one shop
	eventIDFieldMapping := bleve.NewTextFieldMapping()
	eventIDFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("event_id", eventIDFieldMapping)

	// Event slug - exact lookup, stored for linking results
	slugFieldMapping := bleve.NewTextFieldMapping()
	slugFieldMapping.Analyzer = keyword.Name
	slugFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("slug", slugFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	// Price - for range filtering
	priceFieldMapping := bleve.NewNumericFieldMapping()
	priceFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("price_cents", priceFieldMapping)

	// Timestamps - for sorting by recency
	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
