package search

import (
	"context"
	"fmt"
	"math"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/boxofficeapp/boxoffice-server/internal/normalize"
)

// Params configures a search query.
type Params struct {
	Query string   // User's search query
	Types []string // Document types to include (empty = all)

	// Filters
	EventID       string // Restrict item results to one event's shop
	MinPriceCents int64  // Minimum price (items only)
	MaxPriceCents int64  // Maximum price (items only)

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "name", "price", "recent"
	SortOrder string // "asc", "desc"

	// Options
	Highlight bool // Include match highlighting
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:     20,
		Offset:    0,
		SortBy:    "relevance",
		SortOrder: "desc",
		Highlight: true,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single search result.
type Hit struct {
	ID         string            `json:"id"`
	Type       DocType           `json:"type"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Category   string            `json:"category,omitempty"`
	Organizer  string            `json:"organizer,omitempty"`
	Slug       string            `json:"slug,omitempty"`
	PriceCents int64             `json:"price_cents,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("category")
	}

	searchRequest.Fields = []string{
		"id", "type", "name", "category", "organizer", "slug", "price_cents",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["type"].(string); ok {
			searchHit.Type = DocType(t)
		}
		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if c, ok := hit.Fields["category"].(string); ok {
			searchHit.Category = c
		}
		if o, ok := hit.Fields["organizer"].(string); ok {
			searchHit.Organizer = o
		}
		if sl, ok := hit.Fields["slug"].(string); ok {
			searchHit.Slug = sl
		}
		if p, ok := hit.Fields["price_cents"].(float64); ok {
			searchHit.PriceCents = int64(p)
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// ItemIDsForEvent lists the IDs of every item document currently
// indexed for one event. Reindexing diffs this against its fresh batch
// to find stale entries to delete.
func (s *Index) ItemIDsForEvent(ctx context.Context, eventID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typeQuery := bleve.NewTermQuery(string(DocTypeItem))
	typeQuery.SetField("type")
	eventQuery := bleve.NewTermQuery(eventID)
	eventQuery.SetField("event_id")
	scope := bleve.NewConjunctionQuery(typeQuery, eventQuery)

	const pageSize = 500
	var ids []string
	for offset := 0; ; offset += pageSize {
		req := bleve.NewSearchRequestOptions(scope, pageSize, offset, false)
		res, err := s.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("list item documents: %w", err)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) == 0 || uint64(len(ids)) >= res.Total {
			return ids, nil
		}
	}
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	// Main text query. Name matches rank highest; category and
	// variation labels catch "t-shirt size" style queries; the folded
	// field and a fuzzy variant absorb accents and typos.
	if params.Query != "" {
		textQueries := []query.Query{}

		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		foldedMatch := bleve.NewMatchQuery(normalize.Fold(params.Query))
		foldedMatch.SetField("name_folded")
		foldedMatch.SetBoost(2.0)
		textQueries = append(textQueries, foldedMatch)

		categoryMatch := bleve.NewMatchQuery(params.Query)
		categoryMatch.SetField("category")
		categoryMatch.SetBoost(1.5)
		textQueries = append(textQueries, categoryMatch)

		variationMatch := bleve.NewMatchQuery(params.Query)
		variationMatch.SetField("variations")
		variationMatch.SetBoost(1.2)
		textQueries = append(textQueries, variationMatch)

		// Fuzzy matching for typo tolerance on name
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(normalize.Fold(params.Query))
			prefixQuery.SetField("name_folded")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Type filter
	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	// Event scope filter
	if params.EventID != "" {
		eq := bleve.NewTermQuery(params.EventID)
		eq.SetField("event_id")
		queries = append(queries, eq)
	}

	// Price range filter
	if params.MinPriceCents > 0 || params.MaxPriceCents > 0 {
		min := float64(params.MinPriceCents)
		max := float64(params.MaxPriceCents)
		if params.MaxPriceCents == 0 {
			max = math.MaxFloat64
		}
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("price_cents")
		queries = append(queries, rangeQuery)
	}

	// Combine all queries with AND
	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params Params) {
	switch params.SortBy {
	case "name":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-name"})
		} else {
			req.SortBy([]string{"name"})
		}
	case "price":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-price_cents"})
		} else {
			req.SortBy([]string{"price_cents"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	default:
		// Relevance (score) is default - Bleve handles this
		req.SortBy([]string{"-_score"})
	}
}
