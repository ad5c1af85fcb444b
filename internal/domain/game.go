package domain

import "time"

// TrackedItem is a catalog entry (a Steam app) that at least one channel follows.
type TrackedItem struct {
	ID         int64     `db:"id"`
	ExternalID int64     `db:"external_id"`
	Name       string    `db:"name"`
	ImageURL   *string   `db:"image_url"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Article is the latest known announcement for a tracked item.
// ExternalID is opaque and only compared for equality.
type Article struct {
	ID            int64     `db:"id"`
	TrackedItemID int64     `db:"tracked_item_id"`
	ExternalID    string    `db:"external_id"`
	Title         string    `db:"title"`
	Body          string    `db:"body"`
	Teaser        string    `db:"teaser"`
	URL           string    `db:"url"`
	ImageURL      *string   `db:"image_url"`
	Author        *string   `db:"author"`
	FeedName      string    `db:"feed_name"`
	PublishedAt   time.Time `db:"published_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Subscription binds a tenant channel to a tracked item.
type Subscription struct {
	ID                     int64     `db:"id"`
	TenantID               string    `db:"tenant_id"`
	ChannelID              string    `db:"channel_id"`
	TrackedItemID          int64     `db:"tracked_item_id"`
	LastDeliveredArticleID *string   `db:"last_delivered_article_id"`
	CreatedAt              time.Time `db:"created_at"`

	Item TrackedItem `db:"item"`
}

// Behind reports whether the subscription has not received articleID yet.
func (s *Subscription) Behind(articleID string) bool {
	return s.LastDeliveredArticleID == nil || *s.LastDeliveredArticleID != articleID
}

// ItemMetadata is the catalog description of an item.
type ItemMetadata struct {
	ExternalID int64
	Name       string
	ImageURL   *string
}

// CatalogEntry is one row of the bulk catalog listing.
type CatalogEntry struct {
	ExternalID int64  `json:"appid"`
	Name       string `json:"name"`
}

// Notification is a rendered article addressed to one channel.
type Notification struct {
	TenantID       string     `json:"tenant_id"`
	ChannelID      string     `json:"channel_id"`
	SubscriptionID int64      `json:"subscription_id"`
	ArticleID      string     `json:"article_id"`
	Author         string     `json:"author"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Description    string     `json:"description"`
	ImageURL       *string    `json:"image_url,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}
