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

type TrackedItemStore struct {
	db *sqlx.DB
}

func NewTrackedItemStore(db *sqlx.DB) *TrackedItemStore {
	return &TrackedItemStore{db: db}
}

// Upsert creates the item or refreshes its name and image.
func (s *TrackedItemStore) Upsert(ctx context.Context, meta *domain.ItemMetadata) (*domain.TrackedItem, error) {
	exec := GetExecutor(ctx, s.db)
	now := time.Now().UTC()

	query := exec.Rebind(`
		INSERT INTO tracked_items (external_id, name, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO UPDATE SET
			name = excluded.name,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
		RETURNING id, external_id, name, image_url, created_at, updated_at`)

	var item domain.TrackedItem
	if err := sqlx.GetContext(ctx, exec, &item, query, meta.ExternalID, meta.Name, meta.ImageURL, now, now); err != nil {
		return nil, fmt.Errorf("upsert tracked item %d: %w", meta.ExternalID, err)
	}
	return &item, nil
}

func (s *TrackedItemStore) GetByExternalID(ctx context.Context, externalID int64) (*domain.TrackedItem, error) {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`
		SELECT id, external_id, name, image_url, created_at, updated_at
		FROM tracked_items
		WHERE external_id = ?`)

	var item domain.TrackedItem
	err := sqlx.GetContext(ctx, exec, &item, query, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tracked item %d: %w", externalID, err)
	}
	return &item, nil
}

// DeleteOrphans removes items no subscription references, with their
// articles. It returns the number of items removed.
func (s *TrackedItemStore) DeleteOrphans(ctx context.Context) (int64, error) {
	exec := GetExecutor(ctx, s.db)

	if _, err := exec.ExecContext(ctx, `
		DELETE FROM articles
		WHERE tracked_item_id NOT IN (SELECT tracked_item_id FROM subscriptions)`); err != nil {
		return 0, fmt.Errorf("delete orphan articles: %w", err)
	}

	res, err := exec.ExecContext(ctx, `
		DELETE FROM tracked_items
		WHERE id NOT IN (SELECT tracked_item_id FROM subscriptions)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphan items: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete orphan items: %w", err)
	}
	return n, nil
}
