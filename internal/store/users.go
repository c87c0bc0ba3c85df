package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
)

var (
	// ErrUserNotFound is returned when a user cannot be found by ID or identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrIdentifierExists is returned when attempting to create a user whose
	// resolved identifier is already taken.
	ErrIdentifierExists = errors.New("identifier already in use")
	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when attempting to use an expired session.
	ErrSessionExpired = errors.New("session expired")
)

// CreateUser creates a new user account.
// Returns ErrIdentifierExists if the resolved identifier is already taken.
// The identifier index check runs in the same transaction as the write, so
// two registrations racing on the same username or email cannot both win.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	err := s.Users.Create(ctx, user.ID, user)
	if errors.Is(err, ErrAlreadyExists) {
		return ErrIdentifierExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.Users.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByIdentifier retrieves a user by their canonical identifier.
// The identifier must already be in canonical form: global emails lowercased,
// local identifiers exactly as resolved ({username}@{event}.event.boxoffice).
func (s *Store) GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.Users.GetByIndex(ctx, "identifier", identifier)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by identifier: %w", err)
	}
	return user, nil
}

// IdentifierExists reports whether an account with the given canonical
// identifier already exists. Used for pre-write validation; the Create
// transaction remains the authority under concurrency.
func (s *Store) IdentifierExists(ctx context.Context, identifier string) (bool, error) {
	_, err := s.GetUserByIdentifier(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateUser updates an existing user.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	user.Touch()

	err := s.Users.Update(ctx, user.ID, user)
	if errors.Is(err, ErrNotFound) {
		return ErrUserNotFound
	}
	if errors.Is(err, ErrAlreadyExists) {
		return ErrIdentifierExists
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ListEventUsers returns all users registered for a specific event.
func (s *Store) ListEventUsers(ctx context.Context, eventID string) ([]*domain.User, error) {
	var users []*domain.User
	for user, err := range s.Users.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list event users: %w", err)
		}
		if user.EventID == eventID {
			users = append(users, user)
		}
	}
	return users, nil
}
