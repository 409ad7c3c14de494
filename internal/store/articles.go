package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mohammad-safakhou/contentagent/models"
)

const articleColumns = `id, org_id, content_item_id, text, output_format, status, pagepath, created_at`

func scanArticle(row rowScanner) (models.Article, error) {
	var (
		a      models.Article
		format string
		status string
	)
	if err := row.Scan(&a.ID, &a.OrgID, &a.ContentItemID, &a.Text, &format, &status, &a.PagePath, &a.CreatedAt); err != nil {
		return models.Article{}, err
	}
	a.OutputFormat = models.OutputFormat(format)
	a.Status = models.ContentStatus(status)
	return a, nil
}

// SaveArticle attaches text to a content item and publishes the item. The item row is
// locked for the duration so a concurrent delete or sweep cannot interleave.
func (s *Store) SaveArticle(ctx context.Context, orgID string, contentItemID int64, text string, format models.OutputFormat) (models.Article, error) {
	var saved models.Article
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var title, status string
		err := tx.QueryRowContext(ctx, `SELECT title, status FROM content_items WHERE id = $1 AND org_id = $2 FOR UPDATE`, contentItemID, orgID).Scan(&title, &status)
		if err != nil {
			return notFound(err, fmt.Sprintf("content item %d", contentItemID))
		}
		if models.ContentStatus(status) == models.StatusDeleted {
			return models.ErrContentItemDeleted
		}
		saved = models.Article{
			OrgID:         orgID,
			ContentItemID: contentItemID,
			Text:          text,
			OutputFormat:  format.Normalize(),
			Status:        models.StatusPublished,
			PagePath:      models.Slug(title, contentItemID),
		}
		err = tx.QueryRowContext(ctx, `
INSERT INTO articles (org_id, content_item_id, text, output_format, status, pagepath)
VALUES ($1,$2,$3,$4,'published',$5)
RETURNING id, created_at`, orgID, contentItemID, text, string(saved.OutputFormat), saved.PagePath).Scan(&saved.ID, &saved.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE content_items SET status = 'published', updated_at = NOW() WHERE id = $1`, contentItemID)
		return err
	})
	if err != nil {
		return models.Article{}, err
	}
	if articlesCounter != nil {
		articlesCounter.Add(ctx, 1)
	}
	return saved, nil
}

// GetArticleBySlug returns the newest published article with the given pagepath.
func (s *Store) GetArticleBySlug(ctx context.Context, orgID, pagepath string) (models.Article, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+articleColumns+`
FROM articles
WHERE org_id = $1 AND pagepath = $2 AND status = 'published'
ORDER BY id DESC
LIMIT 1`, orgID, pagepath)
	a, err := scanArticle(row)
	if err != nil {
		return models.Article{}, notFound(err, "article "+pagepath)
	}
	return a, nil
}

// ListPublishedArticles returns the organization's published articles, newest first.
func (s *Store) ListPublishedArticles(ctx context.Context, orgID string, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+articleColumns+`
FROM articles
WHERE org_id = $1 AND status = 'published'
ORDER BY created_at DESC, id DESC
LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) listArticlesForItem(ctx context.Context, contentItemID int64) ([]models.Article, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE content_item_id = $1 ORDER BY id`, contentItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
