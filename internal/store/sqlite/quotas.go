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

// CreateQuota inserts a quota together with its item and variation memberships.
func (s *Store) CreateQuota(ctx context.Context, q *domain.Quota) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT INTO quotas (id, created_at, updated_at, event_id, name, size, consumed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID,
		formatTime(q.CreatedAt),
		formatTime(q.UpdatedAt),
		q.EventID,
		q.Name,
		nullableInt64(q.Size),
		q.Consumed,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	for _, itemID := range q.ItemIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quota_items (quota_id, item_id) VALUES (?, ?)`,
			q.ID, itemID); err != nil {
			return fmt.Errorf("insert quota item %s: %w", itemID, err)
		}
	}

	for _, variationID := range q.VariationIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quota_variations (quota_id, variation_id) VALUES (?, ?)`,
			q.ID, variationID); err != nil {
			return fmt.Errorf("insert quota variation %s: %w", variationID, err)
		}
	}

	return tx.Commit()
}

// DeleteQuota removes a quota and its memberships. Items covered only
// by this quota become unpurchasable until another quota picks them up.
// Returns store.ErrNotFound for unknown IDs.
func (s *Store) DeleteQuota(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM quota_items WHERE quota_id = ?`, id); err != nil {
		return fmt.Errorf("delete quota items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quota_variations WHERE quota_id = ?`, id); err != nil {
		return fmt.Errorf("delete quota variations: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM quotas WHERE id = ?`, id)
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

	return tx.Commit()
}

// quotaColumns is the ordered list of columns selected in quota queries.
// Must match the scan order in scanQuota.
const quotaColumns = `q.id, q.created_at, q.updated_at, q.event_id, q.name, q.size, q.consumed`

// scanQuota scans a sql.Row (or sql.Rows via its Scan method) into a domain.Quota.
// Memberships are not populated here.
func scanQuota(scanner interface{ Scan(dest ...any) error }) (*domain.Quota, error) {
	var q domain.Quota

	var (
		createdAt string
		updatedAt string
		size      sql.NullInt64
	)

	err := scanner.Scan(
		&q.ID,
		&createdAt,
		&updatedAt,
		&q.EventID,
		&q.Name,
		&size,
		&q.Consumed,
	)
	if err != nil {
		return nil, err
	}

	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if q.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if size.Valid {
		v := size.Int64
		q.Size = &v
	}

	return &q, nil
}

// GetQuota retrieves a quota by ID, without memberships.
func (s *Store) GetQuota(ctx context.Context, id string) (*domain.Quota, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+quotaColumns+` FROM quotas q WHERE q.id = ?`, id)

	quota, err := scanQuota(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return quota, nil
}

// QuotasForItem returns all quotas the item itself belongs to.
func (s *Store) QuotasForItem(ctx context.Context, itemID string) ([]domain.Quota, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+quotaColumns+`
		FROM quotas q
		JOIN quota_items qi ON qi.quota_id = q.id
		WHERE qi.item_id = ?
		ORDER BY q.id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectQuotas(rows)
}

// QuotasForVariation returns the quotas constraining a variation: its own
// memberships plus every quota its parent item belongs to. The caller takes
// the minimum over the union, so a variation can never be more available
// than its parent item.
func (s *Store) QuotasForVariation(ctx context.Context, itemID, variationID string) ([]domain.Quota, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+quotaColumns+`
		FROM quotas q
		JOIN quota_variations qv ON qv.quota_id = q.id
		WHERE qv.variation_id = ?
		UNION
		SELECT `+quotaColumns+`
		FROM quotas q
		JOIN quota_items qi ON qi.quota_id = q.id
		WHERE qi.item_id = ?
		ORDER BY 1`, variationID, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectQuotas(rows)
}

// AddQuotaConsumed adjusts a quota's consumed counter, e.g. when carts are
// converted to orders. Negative deltas release capacity.
func (s *Store) AddQuotaConsumed(ctx context.Context, quotaID string, delta int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE quotas SET consumed = MAX(0, consumed + ?) WHERE id = ?`,
		delta, quotaID)
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

// collectQuotas drains rows into quota values.
func collectQuotas(rows *sql.Rows) ([]domain.Quota, error) {
	var quotas []domain.Quota
	for rows.Next() {
		quota, err := scanQuota(rows)
		if err != nil {
			return nil, err
		}
		quotas = append(quotas, *quota)
	}
	return quotas, rows.Err()
}
