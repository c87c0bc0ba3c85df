// Package store provides the Badger-backed persistence layer for accounts,
// sessions, and carts. Relational catalog data lives in store/sqlite.
package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	Users    *Entity[domain.User]
	Sessions *Entity[domain.Session]
	Carts    *Entity[domain.Cart]
}

// New creates a new Store instance at the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	// Initialize generic entities
	store.initUsers()
	store.initSessions()
	store.initCarts()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initUsers initializes the Users entity on the store.
//
// The identifier index is the single uniqueness authority for accounts.
// Local identifiers embed the event ID ({username}@{event}.event.boxoffice),
// so one globally unique index enforces both per-event username uniqueness
// and global email uniqueness. Identifiers arrive here already in canonical
// form, so no lookup transform is applied.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndex("identifier", func(u *domain.User) []string {
			return []string{u.Identifier}
		})
}

// initCarts initializes the Carts entity on the store.
// One active cart per user per event, enforced by the owner index.
func (s *Store) initCarts() {
	s.Carts = NewEntity[domain.Cart](s, "cart:").
		WithIndex("owner", func(c *domain.Cart) []string {
			return []string{c.UserID + "/" + c.EventID}
		})
}
