package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gaudesp/noxbot/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// GetByTrackedItem returns the stored article of an item, or nil when the
// item has none yet.
func (s *ArticleStore) GetByTrackedItem(ctx context.Context, trackedItemID int64) (*domain.Article, error) {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`
		SELECT id, tracked_item_id, external_id, title, body, teaser, url,
			image_url, author, feed_name, published_at, updated_at
		FROM articles
		WHERE tracked_item_id = ?`)

	var article domain.Article
	err := sqlx.GetContext(ctx, exec, &article, query, trackedItemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article of item %d: %w", trackedItemID, err)
	}
	return &article, nil
}

// Upsert replaces the current article of the item.
func (s *ArticleStore) Upsert(ctx context.Context, article *domain.Article) (int64, error) {
	exec := GetExecutor(ctx, s.db)
	article.UpdatedAt = time.Now().UTC()

	query := exec.Rebind(`
		INSERT INTO articles (
			tracked_item_id, external_id, title, body, teaser, url,
			image_url, author, feed_name, published_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tracked_item_id) DO UPDATE SET
			external_id = excluded.external_id,
			title = excluded.title,
			body = excluded.body,
			teaser = excluded.teaser,
			url = excluded.url,
			image_url = excluded.image_url,
			author = excluded.author,
			feed_name = excluded.feed_name,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at
		RETURNING id`)

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		article.TrackedItemID,
		article.ExternalID,
		article.Title,
		article.Body,
		article.Teaser,
		article.URL,
		article.ImageURL,
		article.Author,
		article.FeedName,
		article.PublishedAt.UTC(),
		article.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert article %s: %w", article.ExternalID, err)
	}

	article.ID = id
	return id, nil
}
