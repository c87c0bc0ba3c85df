package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-event-shop",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{organizer}/{event}/search",
		Summary:     "Search the event shop",
		Description: "Full-text search over the event's purchasable items",
		Tags:        []string{"Search"},
	}, s.handleSearchShop)
}

// === DTOs ===

// ShopSearchInput contains parameters for searching an event's shop.
type ShopSearchInput struct {
	Organizer string `path:"organizer" maxLength:"100" doc:"Organizer slug"`
	Event     string `path:"event" maxLength:"100" doc:"Event slug"`
	Query     string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search query"`
	Limit     int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" minimum:"0" doc:"Pagination offset (default 0)"`
}

// ShopSearchHit is a single item match.
type ShopSearchHit struct {
	ID         string            `json:"id" doc:"Item ID"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Name       string            `json:"name" doc:"Item name"`
	Category   string            `json:"category,omitempty" doc:"Category name"`
	PriceCents int64             `json:"price_cents,omitempty" doc:"Base price in cents"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// ShopSearchResponse contains search results for the event shop.
type ShopSearchResponse struct {
	Query  string          `json:"query" doc:"Original search query"`
	Total  uint64          `json:"total" doc:"Total matches"`
	TookMs int64           `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []ShopSearchHit `json:"hits" doc:"Search results"`
}

// ShopSearchOutput wraps the search response for Huma.
type ShopSearchOutput struct {
	Body ShopSearchResponse
}

// === Handlers ===

func (s *Server) handleSearchShop(ctx context.Context, input *ShopSearchInput) (*ShopSearchOutput, error) {
	event, err := s.services.Catalog.GetEvent(ctx, input.Organizer, input.Event)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Search.SearchShop(ctx, event, input.Query, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return &ShopSearchOutput{Body: mapSearchResult(result)}, nil
}

func mapSearchResult(result *search.Result) ShopSearchResponse {
	resp := ShopSearchResponse{
		Query:  result.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   make([]ShopSearchHit, 0, len(result.Hits)),
	}
	for _, hit := range result.Hits {
		resp.Hits = append(resp.Hits, ShopSearchHit{
			ID:         hit.ID,
			Score:      hit.Score,
			Name:       hit.Name,
			Category:   hit.Category,
			PriceCents: hit.PriceCents,
			Highlights: hit.Highlights,
		})
	}
	return resp
}
