package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gaudesp/noxbot/internal/config"
	"github.com/gaudesp/noxbot/internal/domain"
	"github.com/gaudesp/noxbot/internal/markup"
)

type SyncService struct {
	catalog       Catalog
	subscriptions SubscriptionStore
	articles      ArticleStore
	syncState     SyncStateStore
	dispatcher    Dispatcher
	images        ImageInspector
	logger        *slog.Logger
	config        config.SyncConfig
}

func NewSyncService(
	catalog Catalog,
	subscriptions SubscriptionStore,
	articles ArticleStore,
	syncState SyncStateStore,
	dispatcher Dispatcher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		catalog:       catalog,
		subscriptions: subscriptions,
		articles:      articles,
		syncState:     syncState,
		dispatcher:    dispatcher,
		logger:        logger.With("source", catalog.ID()),
		config:        cfg,
	}
}

// WithImageInspector enables the minimum size check of body images set in
// the sync config.
func (s *SyncService) WithImageInspector(images ImageInspector) *SyncService {
	s.images = images
	return s
}

type itemGroup struct {
	item domain.TrackedItem
	subs []domain.Subscription
}

type itemOutcome struct {
	fetchFailed    int
	notFound       int
	updated        int
	dispatched     int
	dispatchFailed int
	errors         int
}

// Sync runs one reconciliation cycle. Per-item and per-subscription failures
// are logged and counted; only a failure to load subscriptions is returned.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	s.logger.Info("starting sync")

	subs, err := s.subscriptions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	groups := groupByItem(subs)
	stats := &domain.SyncStats{
		SourceID:      s.catalog.ID(),
		Subscriptions: len(subs),
		ItemsChecked:  len(groups),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(max(1, s.config.Concurrency))

	for _, group := range groups {
		g.Go(func() error {
			out := s.syncItem(ctx, group)

			mu.Lock()
			defer mu.Unlock()
			stats.FetchFailed += out.fetchFailed
			stats.NotFound += out.notFound
			stats.ArticlesUpdated += out.updated
			stats.Dispatched += out.dispatched
			stats.DispatchFailed += out.dispatchFailed
			stats.Errors += out.errors
			return nil
		})
	}
	_ = g.Wait()

	stats.Duration = time.Since(startTime)
	s.updateSyncState(ctx, stats)

	s.logger.Info("sync completed",
		"subscriptions", stats.Subscriptions,
		"items", stats.ItemsChecked,
		"updated", stats.ArticlesUpdated,
		"dispatched", stats.Dispatched,
		"dispatch_failed", stats.DispatchFailed,
		"fetch_failed", stats.FetchFailed,
		"not_found", stats.NotFound,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

func groupByItem(subs []domain.Subscription) []*itemGroup {
	index := make(map[int64]*itemGroup)
	var groups []*itemGroup

	for _, sub := range subs {
		g, ok := index[sub.TrackedItemID]
		if !ok {
			g = &itemGroup{item: sub.Item}
			g.item.ID = sub.TrackedItemID
			index[sub.TrackedItemID] = g
			groups = append(groups, g)
		}
		g.subs = append(g.subs, sub)
	}

	return groups
}

func (s *SyncService) syncItem(ctx context.Context, group *itemGroup) itemOutcome {
	var out itemOutcome
	item := group.item
	logger := s.logger.With("external_id", item.ExternalID)

	latest, err := s.catalog.FetchLatestArticle(ctx, item.ExternalID)
	switch {
	case errors.Is(err, domain.ErrNotFound), err == nil && latest == nil:
		logger.Debug("no article available")
		out.notFound++
		return out
	case err != nil:
		logger.Warn("failed to fetch latest article", "error", err)
		out.fetchFailed++
		return out
	}

	article, updated, err := s.reconcile(ctx, item, latest)
	if err != nil {
		logger.Error("failed to store article", "error", err)
		out.errors++
		return out
	}
	if updated {
		logger.Info("article updated", "article_id", article.ExternalID)
		out.updated++
	}

	for _, sub := range group.subs {
		if !sub.Behind(article.ExternalID) {
			continue
		}

		subLogger := logger.With("subscription_id", sub.ID, "channel_id", sub.ChannelID)
		if err := s.dispatch(ctx, NewNotification(sub, item, article)); err != nil {
			subLogger.Warn("failed to dispatch notification", "error", err)
			out.dispatchFailed++
			continue
		}
		out.dispatched++

		if err := s.subscriptions.UpdateLastDelivered(ctx, sub.ID, article.ExternalID); err != nil {
			subLogger.Error("failed to record delivery", "error", err)
			out.errors++
		}
	}

	return out
}

// reconcile returns the current article of the item, storing latest when it
// differs from the known one.
func (s *SyncService) reconcile(ctx context.Context, item domain.TrackedItem, latest *domain.Article) (*domain.Article, bool, error) {
	stored, err := s.articles.GetByTrackedItem(ctx, item.ID)
	if err != nil {
		return nil, false, fmt.Errorf("get stored article: %w", err)
	}
	if stored != nil && stored.ExternalID == latest.ExternalID {
		return stored, false, nil
	}

	normalized := markup.Normalize(latest.Body)
	latest.Teaser = markup.Limit(normalized.Text, s.config.Teaser.MaxChars, s.config.Teaser.MaxLines)
	if !nonEmpty(latest.ImageURL) {
		if img := s.bodyImage(ctx, item, normalized); img != "" {
			latest.ImageURL = &img
		}
	}
	latest.TrackedItemID = item.ID

	if _, err := s.articles.Upsert(ctx, latest); err != nil {
		return nil, false, fmt.Errorf("upsert article: %w", err)
	}
	return latest, true, nil
}

// bodyImage picks the image of an article from its body. When a minimum size
// is configured, candidates are measured in order and the first one large
// enough wins; unreadable candidates are skipped.
func (s *SyncService) bodyImage(ctx context.Context, item domain.TrackedItem, normalized markup.Result) string {
	minimum := s.config.Image
	if s.images == nil || !minimum.Enabled() {
		return normalized.Image()
	}

	for _, src := range normalized.Images {
		width, height, err := s.images.ImageSize(ctx, src)
		if err != nil {
			s.logger.Debug("skipping unreadable image", "external_id", item.ExternalID, "image_url", src, "error", err)
			continue
		}
		if width >= minimum.MinWidth && height >= minimum.MinHeight {
			return src
		}
	}
	return ""
}

func (s *SyncService) dispatch(ctx context.Context, n *domain.Notification) error {
	if s.config.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.DispatchTimeout)
		defer cancel()
	}
	return s.dispatcher.Dispatch(ctx, n)
}

func (s *SyncService) updateSyncState(ctx context.Context, stats *domain.SyncStats) {
	if s.syncState == nil {
		return
	}

	state, err := s.syncState.Get(ctx, stats.SourceID)
	if err != nil {
		s.logger.Warn("failed to load sync state", "error", err)
		return
	}

	state.SourceID = stats.SourceID
	state.LastSyncedAt = time.Now()
	state.TotalUpdated += int64(stats.ArticlesUpdated)
	state.TotalDispatched += int64(stats.Dispatched)

	if err := s.syncState.Update(ctx, state); err != nil {
		s.logger.Warn("failed to update sync state", "error", err)
	}
}
