package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/gaudesp/noxbot/internal/domain"
)

type SubscriptionStore interface {
	ListAll(ctx context.Context) ([]domain.Subscription, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Subscription, error)
	Create(ctx context.Context, sub *domain.Subscription) error
	UpdateLastDelivered(ctx context.Context, subscriptionID int64, articleID string) error
	Delete(ctx context.Context, tenantID string, trackedItemID int64) error
	DeleteByTenant(ctx context.Context, tenantID string) ([]domain.Subscription, error)
}

type ArticleStore interface {
	GetByTrackedItem(ctx context.Context, trackedItemID int64) (*domain.Article, error)
	Upsert(ctx context.Context, article *domain.Article) (int64, error)
}

type TrackedItemStore interface {
	Upsert(ctx context.Context, meta *domain.ItemMetadata) (*domain.TrackedItem, error)
	GetByExternalID(ctx context.Context, externalID int64) (*domain.TrackedItem, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type Catalog interface {
	ID() string
	FetchLatestArticle(ctx context.Context, externalID int64) (*domain.Article, error)
	FetchItemMetadata(ctx context.Context, externalID int64) (*domain.ItemMetadata, error)
}

type CatalogSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error)
}

type ImageInspector interface {
	ImageSize(ctx context.Context, src string) (width, height int, err error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, notification *domain.Notification) error
	Close() error
}
