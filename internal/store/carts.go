package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
)

// ErrCartNotFound is returned when a user has no active cart for an event.
var ErrCartNotFound = errors.New("cart not found")

// GetActiveCart returns the user's active cart for an event.
func (s *Store) GetActiveCart(ctx context.Context, userID, eventID string) (*domain.Cart, error) {
	cart, err := s.Carts.GetByIndex(ctx, "owner", userID+"/"+eventID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active cart: %w", err)
	}
	return cart, nil
}

// SaveCart persists a cart, creating it on first write.
func (s *Store) SaveCart(ctx context.Context, cart *domain.Cart) error {
	cart.Touch()
	for i := range cart.Positions {
		if cart.Positions[i].ID == "" {
			cart.Positions[i].ID = uuid.New().String()
		}
	}

	err := s.Carts.Update(ctx, cart.ID, cart)
	if errors.Is(err, ErrNotFound) {
		err = s.Carts.Create(ctx, cart.ID, cart)
	}
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// DeleteCart removes a cart, typically after checkout or expiry.
func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	if err := s.Carts.Delete(ctx, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
