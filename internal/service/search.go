package service

import (
	"context"
	"fmt"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	"github.com/boxofficeapp/boxoffice-server/internal/logger"
	"github.com/boxofficeapp/boxoffice-server/internal/search"
	"github.com/boxofficeapp/boxoffice-server/internal/store/sqlite"
)

// SearchService answers shop search queries from the Bleve index. The
// catalog store is the source of truth; the index is rebuilt from it
// whenever an event's catalog changes.
type SearchService struct {
	index   *search.Index
	catalog *sqlite.Store
	logger  *logger.Logger
}

// NewSearchService creates the shop search service.
func NewSearchService(index *search.Index, catalogStore *sqlite.Store, log *logger.Logger) *SearchService {
	return &SearchService{
		index:   index,
		catalog: catalogStore,
		logger:  log,
	}
}

// SearchShop runs a search scoped to one event's purchasable items.
func (s *SearchService) SearchShop(ctx context.Context, event *domain.Event, query string, limit, offset int) (*search.Result, error) {
	params := search.DefaultParams()
	params.Query = query
	params.EventID = event.ID
	params.Types = []string{string(search.DocTypeItem)}
	if limit > 0 {
		params.Limit = limit
	}
	if offset > 0 {
		params.Offset = offset
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search shop: %w", err)
	}
	return result, nil
}

// ReindexEvent rebuilds the index entries for one event: the event
// document itself plus every purchasable item. Indexed items absent
// from the fresh batch, such as items that lost their last quota since
// the previous pass, have their stale entries deleted.
func (s *SearchService) ReindexEvent(ctx context.Context, event *domain.Event, organizer *domain.Organizer) error {
	items, err := s.catalog.ItemsWithQuotas(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}

	categories, err := s.catalog.CategoriesByID(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	indexed, err := s.index.ItemIDsForEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("list indexed items: %w", err)
	}

	docs := make([]*search.Document, 0, len(items)+1)
	docs = append(docs, search.EventToDocument(event, organizer.Name))
	fresh := make(map[string]bool, len(items))
	for i := range items {
		item := &items[i]
		categoryName := ""
		if c, ok := categories[item.CategoryID]; ok {
			categoryName = c.Name
		}
		docs = append(docs, search.ItemToDocument(item, categoryName))
		fresh[item.ID] = true
	}

	var stale []string
	for _, id := range indexed {
		if !fresh[id] {
			stale = append(stale, id)
		}
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index event %s: %w", event.ID, err)
	}
	if len(stale) > 0 {
		if err := s.index.DeleteDocuments(stale); err != nil {
			return fmt.Errorf("drop stale items for event %s: %w", event.ID, err)
		}
	}

	if s.logger != nil {
		s.logger.WithEvent(event.ID).Info("reindexed event", "documents", len(docs), "removed", len(stale))
	}

	return nil
}
