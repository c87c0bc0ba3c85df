package sqlite

import (
	"context"
	"strings"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
)

// CreateCategory inserts a new category.
func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, created_at, updated_at, event_id, name, position)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
		c.EventID,
		c.Name,
		c.Position,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// CategoriesByID returns all categories of an event keyed by ID.
func (s *Store) CategoriesByID(ctx context.Context, eventID string) (map[string]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, updated_at, event_id, name, position
		FROM categories WHERE event_id = ?`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make(map[string]domain.Category)
	for rows.Next() {
		var c domain.Category
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &createdAt, &updatedAt, &c.EventID, &c.Name, &c.Position); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		categories[c.ID] = c
	}
	return categories, rows.Err()
}
