package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gaudesp/noxbot/internal/domain"
)

const selectSubscriptions = `
	SELECT s.id, s.tenant_id, s.channel_id, s.tracked_item_id,
		s.last_delivered_article_id, s.created_at,
		t.id AS "item.id",
		t.external_id AS "item.external_id",
		t.name AS "item.name",
		t.image_url AS "item.image_url",
		t.created_at AS "item.created_at",
		t.updated_at AS "item.updated_at"
	FROM subscriptions s
	JOIN tracked_items t ON t.id = s.tracked_item_id`

type SubscriptionStore struct {
	db *sqlx.DB
}

func NewSubscriptionStore(db *sqlx.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// ListAll returns every subscription joined to its item, in creation order.
func (s *SubscriptionStore) ListAll(ctx context.Context) ([]domain.Subscription, error) {
	exec := GetExecutor(ctx, s.db)

	var subs []domain.Subscription
	if err := sqlx.SelectContext(ctx, exec, &subs, selectSubscriptions+` ORDER BY s.id`); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *SubscriptionStore) ListByTenant(ctx context.Context, tenantID string) ([]domain.Subscription, error) {
	exec := GetExecutor(ctx, s.db)

	var subs []domain.Subscription
	query := exec.Rebind(selectSubscriptions + ` WHERE s.tenant_id = ? ORDER BY s.id`)
	if err := sqlx.SelectContext(ctx, exec, &subs, query, tenantID); err != nil {
		return nil, fmt.Errorf("list subscriptions of tenant %s: %w", tenantID, err)
	}
	return subs, nil
}

// Create inserts a subscription. A duplicate (tenant, item) pair yields
// domain.ErrAlreadyFollowed.
func (s *SubscriptionStore) Create(ctx context.Context, sub *domain.Subscription) error {
	exec := GetExecutor(ctx, s.db)
	sub.CreatedAt = time.Now().UTC()

	query := exec.Rebind(`
		INSERT INTO subscriptions (tenant_id, channel_id, tracked_item_id, last_delivered_article_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	err := exec.QueryRowxContext(ctx, query,
		sub.TenantID,
		sub.ChannelID,
		sub.TrackedItemID,
		sub.LastDeliveredArticleID,
		sub.CreatedAt,
	).Scan(&sub.ID)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyFollowed
	}
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// UpdateLastDelivered records articleID as delivered to the subscription.
func (s *SubscriptionStore) UpdateLastDelivered(ctx context.Context, subscriptionID int64, articleID string) error {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`UPDATE subscriptions SET last_delivered_article_id = ? WHERE id = ?`)
	if _, err := exec.ExecContext(ctx, query, articleID, subscriptionID); err != nil {
		return fmt.Errorf("update subscription %d: %w", subscriptionID, err)
	}
	return nil
}

// Delete removes the tenant's subscription to an item. It returns
// domain.ErrNotFollowed when there is none.
func (s *SubscriptionStore) Delete(ctx context.Context, tenantID string, trackedItemID int64) error {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`DELETE FROM subscriptions WHERE tenant_id = ? AND tracked_item_id = ?`)
	res, err := exec.ExecContext(ctx, query, tenantID, trackedItemID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFollowed
	}
	return nil
}

// DeleteByTenant removes all subscriptions of the tenant and returns them.
func (s *SubscriptionStore) DeleteByTenant(ctx context.Context, tenantID string) ([]domain.Subscription, error) {
	subs, err := s.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	exec := GetExecutor(ctx, s.db)
	query := exec.Rebind(`DELETE FROM subscriptions WHERE tenant_id = ?`)
	if _, err := exec.ExecContext(ctx, query, tenantID); err != nil {
		return nil, fmt.Errorf("delete subscriptions of tenant %s: %w", tenantID, err)
	}
	return subs, nil
}
