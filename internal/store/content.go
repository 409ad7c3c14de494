package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mohammad-safakhou/contentagent/models"
)

const contentItemColumns = `id, org_id, module_id, title, form_data, status, created_at, updated_at`

func scanContentItem(row rowScanner) (models.ContentItem, error) {
	var (
		it       models.ContentItem
		formData []byte
		status   string
	)
	if err := row.Scan(&it.ID, &it.OrgID, &it.ModuleID, &it.Title, &formData, &status, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return models.ContentItem{}, err
	}
	it.Status = models.ContentStatus(status)
	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &it.FormData); err != nil {
			return models.ContentItem{}, fmt.Errorf("decode form_data: %w", err)
		}
	}
	return it, nil
}

// CreateContentItem inserts a new job in the writing state. The title is taken from the form data.
func (s *Store) CreateContentItem(ctx context.Context, orgID string, moduleID int64, formData models.FormData) (models.ContentItem, error) {
	if err := formData.Validate(); err != nil {
		return models.ContentItem{}, err
	}
	payload, err := json.Marshal(formData)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("encode form_data: %w", err)
	}
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO content_items (org_id, module_id, title, form_data, status)
VALUES ($1,$2,$3,$4,'writing')
RETURNING `+contentItemColumns, orgID, moduleID, formData.Title(), payload)
	return scanContentItem(row)
}

// GetContentItem loads an item with its articles.
func (s *Store) GetContentItem(ctx context.Context, orgID string, id int64) (models.ContentItem, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+contentItemColumns+` FROM content_items WHERE id = $1 AND org_id = $2`, id, orgID)
	it, err := scanContentItem(row)
	if err != nil {
		return models.ContentItem{}, notFound(err, fmt.Sprintf("content item %d", id))
	}
	it.Articles, err = s.listArticlesForItem(ctx, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	return it, nil
}

// ListContentItems returns the non-deleted items of one module, newest first. Items of
// the organization stuck in writing since before staleBefore are failed first so the
// listing never shows abandoned jobs as in progress.
func (s *Store) ListContentItems(ctx context.Context, orgID string, moduleID int64, staleBefore time.Time) ([]models.ContentItem, error) {
	if _, err := s.sweep(ctx, orgID, staleBefore); err != nil {
		return nil, fmt.Errorf("sweep before list: %w", err)
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+contentItemColumns+`
FROM content_items
WHERE org_id = $1 AND module_id = $2 AND status <> 'deleted'
ORDER BY created_at DESC, id DESC`, orgID, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.ContentItem
	for rows.Next() {
		it, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SoftDeleteContentItem marks the item and all its articles deleted. Deleting twice is a no-op.
func (s *Store) SoftDeleteContentItem(ctx context.Context, orgID string, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM content_items WHERE id = $1 AND org_id = $2 FOR UPDATE`, id, orgID).Scan(&status)
		if err != nil {
			return notFound(err, fmt.Sprintf("content item %d", id))
		}
		if models.ContentStatus(status) == models.StatusDeleted {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE content_items SET status = 'deleted', updated_at = NOW() WHERE id = $1`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE articles SET status = 'deleted' WHERE content_item_id = $1`, id)
		return err
	})
}

// SweepStale marks every item still writing and created before cutoff as failed, cascading
// to its articles, and returns the ids it touched. Running it again is harmless.
func (s *Store) SweepStale(ctx context.Context, cutoff time.Time) ([]int64, error) {
	return s.sweep(ctx, "", cutoff)
}

func (s *Store) sweep(ctx context.Context, orgID string, cutoff time.Time) ([]int64, error) {
	var ids []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ids = ids[:0]
		rows, err := tx.QueryContext(ctx, `
UPDATE content_items SET status = 'failed', updated_at = NOW()
WHERE status = 'writing' AND created_at < $1 AND ($2 = '' OR org_id = $2)
RETURNING id`, cutoff, orgID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
		if len(ids) == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `UPDATE articles SET status = 'failed' WHERE content_item_id = ANY($1)`, pq.Array(ids))
		return err
	})
	if err != nil {
		return nil, err
	}
	if sweptCounter != nil && len(ids) > 0 {
		sweptCounter.Add(ctx, int64(len(ids)))
	}
	return ids, nil
}
