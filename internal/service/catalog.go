package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boxofficeapp/boxoffice-server/internal/catalog"
	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	domainerrors "github.com/boxofficeapp/boxoffice-server/internal/errors"
	"github.com/boxofficeapp/boxoffice-server/internal/logger"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
	"github.com/boxofficeapp/boxoffice-server/internal/store/sqlite"
)

// CatalogService assembles the event shop page. Availability is
// recomputed from current quota state on every call; nothing derived is
// cached or persisted.
type CatalogService struct {
	catalog *sqlite.Store
	users   *store.Store
	builder *catalog.Builder
	logger  *logger.Logger
}

// NewCatalogService creates the shop page service.
func NewCatalogService(catalogStore *sqlite.Store, users *store.Store, log *logger.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalogStore,
		users:   users,
		builder: catalog.NewBuilder(catalogStore),
		logger:  log,
	}
}

// EventSummary is the public slice of an event attached to shop
// responses.
type EventSummary struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// ShopView is the full render state of an event's shop index: the
// availability-annotated catalog groups plus, for authenticated
// visitors, a read-only snapshot of their pending cart.
type ShopView struct {
	Event  EventSummary    `json:"event"`
	Groups []catalog.Group `json:"groups"`
	Cart   *domain.Cart    `json:"cart,omitempty"`
}

// GetEvent resolves an event by organizer and event slug. Events that
// are not live yet are hidden; the visitor sees the same not-found as
// for a slug that never existed.
func (s *CatalogService) GetEvent(ctx context.Context, organizerSlug, eventSlug string) (*domain.Event, error) {
	event, err := s.catalog.GetEventBySlug(ctx, organizerSlug, eventSlug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.Live {
		return nil, domainerrors.NotFound("event not found")
	}
	return event, nil
}

// ShopView builds the shop index for an event. currentUser may be nil
// for anonymous visitors; their view simply carries no cart.
func (s *CatalogService) ShopView(ctx context.Context, event *domain.Event, currentUser *domain.User) (*ShopView, error) {
	groups, err := s.builder.Build(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	view := &ShopView{
		Event: EventSummary{
			ID:       event.ID,
			Slug:     event.Slug,
			Name:     event.Name,
			Currency: event.Currency,
		},
		Groups: groups,
	}

	if currentUser != nil {
		cart, err := s.users.GetActiveCart(ctx, currentUser.ID, event.ID)
		if err != nil {
			if !errors.Is(err, store.ErrCartNotFound) {
				return nil, fmt.Errorf("get cart: %w", err)
			}
		} else {
			view.Cart = cart
		}
	}

	return view, nil
}
