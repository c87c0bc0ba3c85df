package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/service"
)

func (s *Server) registerShopRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-event-shop",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{organizer}/{event}/shop",
		Summary:     "Event shop index",
		Description: "Availability-annotated catalog groups for an event, with the visitor's pending cart when authenticated",
		Tags:        []string{"Shop"},
	}, s.handleGetShop)
}

// === DTOs ===

// ShopInput identifies an event by organizer and event slug.
type ShopInput struct {
	Organizer string `path:"organizer" maxLength:"100" doc:"Organizer slug"`
	Event     string `path:"event" maxLength:"100" doc:"Event slug"`
}

// ShopOutput wraps the shop view for Huma.
type ShopOutput struct {
	Body service.ShopView
}

// === Handlers ===

func (s *Server) handleGetShop(ctx context.Context, input *ShopInput) (*ShopOutput, error) {
	event, err := s.services.Catalog.GetEvent(ctx, input.Organizer, input.Event)
	if err != nil {
		return nil, err
	}

	// Anonymous visitors see the catalog without a cart.
	user := s.optionalUser(ctx)

	view, err := s.services.Catalog.ShopView(ctx, event, user)
	if err != nil {
		return nil, err
	}

	return &ShopOutput{Body: *view}, nil
}
