package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
)

// CreateItem inserts an item together with its properties, property values,
// and declared variations in one transaction.
func (s *Store) CreateItem(ctx context.Context, item *domain.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items (id, created_at, updated_at, event_id, category_id, name, base_price_cents, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
		item.EventID,
		nullString(item.CategoryID),
		item.Name,
		item.BasePriceCents,
		boolToInt(item.Active),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	for _, prop := range item.Properties {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO item_properties (id, item_id, name, position)
			VALUES (?, ?, ?, ?)`,
			prop.ID, item.ID, prop.Name, prop.Position)
		if err != nil {
			return fmt.Errorf("insert property %s: %w", prop.ID, err)
		}

		for _, val := range prop.Values {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO property_values (id, property_id, value, position)
				VALUES (?, ?, ?, ?)`,
				val.ID, prop.ID, val.Value, val.Position)
			if err != nil {
				return fmt.Errorf("insert property value %s: %w", val.ID, err)
			}
		}
	}

	for _, variation := range item.Variations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO variations (id, item_id, price_cents)
			VALUES (?, ?, ?)`,
			variation.ID, item.ID, nullableInt64(variation.PriceCents))
		if err != nil {
			return fmt.Errorf("insert variation %s: %w", variation.ID, err)
		}

		for _, val := range variation.Values {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO variation_values (variation_id, value_id)
				VALUES (?, ?)`,
				variation.ID, val.ID)
			if err != nil {
				return fmt.Errorf("insert variation value %s/%s: %w", variation.ID, val.ID, err)
			}
		}
	}

	return tx.Commit()
}

// GetItem retrieves a single item with its properties and variations.
func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, event_id, category_id, name, base_price_cents, active
		FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadItemDetails(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ItemsWithQuotas returns all active items of an event that participate in at
// least one quota, either directly or through one of their variations. Items
// outside every quota are not purchasable and are excluded at the source.
//
// Ordering matches the shop page: categorized items first by category
// position then category ID, items by name within their category.
func (s *Store) ItemsWithQuotas(ctx context.Context, eventID string) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.created_at, i.updated_at, i.event_id, i.category_id, i.name, i.base_price_cents, i.active
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.event_id = ?
		  AND i.active = 1
		  AND (
			EXISTS (SELECT 1 FROM quota_items qi WHERE qi.item_id = i.id)
			OR EXISTS (
				SELECT 1 FROM quota_variations qv
				JOIN variations v ON v.id = qv.variation_id
				WHERE v.item_id = i.id
			)
		  )
		ORDER BY (i.category_id IS NULL), COALESCE(c.position, 0), COALESCE(i.category_id, ''), i.name`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		if err := s.loadItemDetails(ctx, &items[i]); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// scanItem scans a sql.Row (or sql.Rows via its Scan method) into a domain.Item.
func scanItem(scanner interface{ Scan(dest ...any) error }) (*domain.Item, error) {
	var item domain.Item

	var (
		createdAt  string
		updatedAt  string
		categoryID sql.NullString
		active     int
	)

	err := scanner.Scan(
		&item.ID,
		&createdAt,
		&updatedAt,
		&item.EventID,
		&categoryID,
		&item.Name,
		&item.BasePriceCents,
		&active,
	)
	if err != nil {
		return nil, err
	}

	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if categoryID.Valid {
		item.CategoryID = categoryID.String
	}
	item.Active = active != 0

	return &item, nil
}

// loadItemDetails populates an item's properties and variations.
func (s *Store) loadItemDetails(ctx context.Context, item *domain.Item) error {
	properties, err := s.loadProperties(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("load properties for %s: %w", item.ID, err)
	}
	item.Properties = properties

	variations, err := s.loadVariations(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("load variations for %s: %w", item.ID, err)
	}
	item.Variations = variations

	return nil
}

// loadProperties returns an item's properties with their values, both in
// position order.
func (s *Store) loadProperties(ctx context.Context, itemID string) ([]domain.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, position FROM item_properties
		WHERE item_id = ? ORDER BY position, id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []domain.Property
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.ID, &p.Name, &p.Position); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range properties {
		valueRows, err := s.db.QueryContext(ctx, `
			SELECT id, value, position FROM property_values
			WHERE property_id = ? ORDER BY position, value`, properties[i].ID)
		if err != nil {
			return nil, err
		}

		var values []domain.PropertyValue
		for valueRows.Next() {
			var v domain.PropertyValue
			if err := valueRows.Scan(&v.ID, &v.Value, &v.Position); err != nil {
				valueRows.Close()
				return nil, err
			}
			values = append(values, v)
		}
		if err := valueRows.Err(); err != nil {
			valueRows.Close()
			return nil, err
		}
		valueRows.Close()
		properties[i].Values = values
	}

	return properties, nil
}

// loadVariations returns an item's declared variations with their value tuples.
func (s *Store) loadVariations(ctx context.Context, itemID string) ([]domain.Variation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, price_cents FROM variations
		WHERE item_id = ? ORDER BY id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variations []domain.Variation
	for rows.Next() {
		var v domain.Variation
		var priceCents sql.NullInt64
		if err := rows.Scan(&v.ID, &v.ItemID, &priceCents); err != nil {
			return nil, err
		}
		if priceCents.Valid {
			price := priceCents.Int64
			v.PriceCents = &price
		}
		variations = append(variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range variations {
		valueRows, err := s.db.QueryContext(ctx, `
			SELECT pv.id, pv.value, pv.position
			FROM variation_values vv
			JOIN property_values pv ON pv.id = vv.value_id
			WHERE vv.variation_id = ?
			ORDER BY pv.position, pv.value`, variations[i].ID)
		if err != nil {
			return nil, err
		}

		var values []domain.PropertyValue
		for valueRows.Next() {
			var v domain.PropertyValue
			if err := valueRows.Scan(&v.ID, &v.Value, &v.Position); err != nil {
				valueRows.Close()
				return nil, err
			}
			values = append(values, v)
		}
		if err := valueRows.Err(); err != nil {
			valueRows.Close()
			return nil, err
		}
		valueRows.Close()
		variations[i].Values = values
	}

	return variations, nil
}
