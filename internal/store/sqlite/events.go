package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
)

// eventColumns is the ordered list of columns selected in event queries.
// Must match the scan order in scanEvent.
const eventColumns = `id, created_at, updated_at, organizer_id, slug, name, currency,
	live, max_items_per_order, user_mail_required`

// scanEvent scans a sql.Row (or sql.Rows via its Scan method) into a domain.Event.
func scanEvent(scanner interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	var e domain.Event

	var (
		createdAt        string
		updatedAt        string
		live             int
		userMailRequired int
	)

	err := scanner.Scan(
		&e.ID,
		&createdAt,
		&updatedAt,
		&e.OrganizerID,
		&e.Slug,
		&e.Name,
		&e.Currency,
		&live,
		&e.Settings.MaxItemsPerOrder,
		&userMailRequired,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	// Boolean fields.
	e.Live = live != 0
	e.Settings.UserMailRequired = userMailRequired != 0

	return &e, nil
}

// CreateOrganizer inserts a new organizer.
// Returns store.ErrAlreadyExists if the slug is already taken.
func (s *Store) CreateOrganizer(ctx context.Context, o *domain.Organizer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizers (id, created_at, updated_at, slug, name)
		VALUES (?, ?, ?, ?, ?)`,
		o.ID,
		formatTime(o.CreatedAt),
		formatTime(o.UpdatedAt),
		o.Slug,
		o.Name,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetOrganizerBySlug retrieves an organizer by slug.
// Returns store.ErrNotFound if no organizer with that slug exists.
func (s *Store) GetOrganizerBySlug(ctx context.Context, slug string) (*domain.Organizer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, slug, name
		FROM organizers WHERE slug = ?`, slug)

	var o domain.Organizer
	var createdAt, updatedAt string
	err := row.Scan(&o.ID, &createdAt, &updatedAt, &o.Slug, &o.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &o, nil
}

// CreateEvent inserts a new event.
// Returns store.ErrAlreadyExists if the (organizer, slug) pair is taken.
func (s *Store) CreateEvent(ctx context.Context, e *domain.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (
			id, created_at, updated_at, organizer_id, slug, name, currency,
			live, max_items_per_order, user_mail_required
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
		e.OrganizerID,
		e.Slug,
		e.Name,
		e.Currency,
		boolToInt(e.Live),
		e.Settings.MaxItemsPerOrder,
		boolToInt(e.Settings.UserMailRequired),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// GetEventBySlug retrieves an event by organizer slug and event slug.
// This is the lookup behind /{organizer}/{event}/ URLs.
func (s *Store) GetEventBySlug(ctx context.Context, organizerSlug, eventSlug string) (*domain.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE slug = ? AND organizer_id = (SELECT id FROM organizers WHERE slug = ?)`,
		eventSlug, organizerSlug)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEventSettings persists the order and registration settings of an event.
func (s *Store) UpdateEventSettings(ctx context.Context, eventID string, settings domain.EventSettings) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET max_items_per_order = ?, user_mail_required = ?
		WHERE id = ?`,
		settings.MaxItemsPerOrder,
		boolToInt(settings.UserMailRequired),
		eventID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
