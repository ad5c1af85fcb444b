package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gaudesp/noxbot/internal/domain"
)

// FollowService manages which items a tenant follows.
type FollowService struct {
	catalog       Catalog
	searcher      CatalogSearcher
	items         TrackedItemStore
	subscriptions SubscriptionStore
	txManager     TransactionManager
	logger        *slog.Logger
}

func NewFollowService(
	catalog Catalog,
	searcher CatalogSearcher,
	items TrackedItemStore,
	subscriptions SubscriptionStore,
	txManager TransactionManager,
	logger *slog.Logger,
) *FollowService {
	return &FollowService{
		catalog:       catalog,
		searcher:      searcher,
		items:         items,
		subscriptions: subscriptions,
		txManager:     txManager,
		logger:        logger,
	}
}

// Follow subscribes the tenant's channel to the item. The subscription starts
// with no delivered article, so the next cycle delivers the current one.
func (s *FollowService) Follow(ctx context.Context, tenantID, channelID string, externalID int64) (*domain.Subscription, error) {
	meta, err := s.catalog.FetchItemMetadata(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetch item metadata: %w", err)
	}

	var sub *domain.Subscription
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err := s.items.Upsert(txCtx, meta)
		if err != nil {
			return fmt.Errorf("upsert item: %w", err)
		}

		sub = &domain.Subscription{
			TenantID:      tenantID,
			ChannelID:     channelID,
			TrackedItemID: item.ID,
			Item:          *item,
		}
		return s.subscriptions.Create(txCtx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item followed",
		"tenant_id", tenantID,
		"channel_id", channelID,
		"external_id", externalID,
		"name", meta.Name,
	)
	return sub, nil
}

// Unfollow removes the tenant's subscription to the item and prunes items
// nobody follows anymore.
func (s *FollowService) Unfollow(ctx context.Context, tenantID string, externalID int64) error {
	item, err := s.items.GetByExternalID(ctx, externalID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFollowed
	}
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.subscriptions.Delete(txCtx, tenantID, item.ID); err != nil {
			return err
		}
		if _, err := s.items.DeleteOrphans(txCtx); err != nil {
			return fmt.Errorf("prune items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("item unfollowed", "tenant_id", tenantID, "external_id", externalID)
	return nil
}

// Reset removes every subscription of the tenant and returns them.
func (s *FollowService) Reset(ctx context.Context, tenantID string) ([]domain.Subscription, error) {
	var removed []domain.Subscription

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		removed, err = s.subscriptions.DeleteByTenant(txCtx, tenantID)
		if err != nil {
			return err
		}
		if _, err := s.items.DeleteOrphans(txCtx); err != nil {
			return fmt.Errorf("prune items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tenant reset", "tenant_id", tenantID, "removed", len(removed))
	return removed, nil
}

// Tracked lists the tenant's subscriptions ordered by item name.
func (s *FollowService) Tracked(ctx context.Context, tenantID string) ([]domain.Subscription, error) {
	subs, err := s.subscriptions.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return strings.ToLower(subs[i].Item.Name) < strings.ToLower(subs[j].Item.Name)
	})
	return subs, nil
}

// Search looks up catalog entries matching query.
func (s *FollowService) Search(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	entries, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	return entries, nil
}
