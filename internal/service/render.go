package service

import "github.com/gaudesp/noxbot/internal/domain"

// NewNotification renders article for one subscription. The item image
// stands in when the article has none.
func NewNotification(sub domain.Subscription, item domain.TrackedItem, article *domain.Article) *domain.Notification {
	n := &domain.Notification{
		TenantID:       sub.TenantID,
		ChannelID:      sub.ChannelID,
		SubscriptionID: sub.ID,
		ArticleID:      article.ExternalID,
		Author:         item.Name,
		Title:          article.Title,
		URL:            article.URL,
		Description:    article.Teaser,
	}
	if n.Title == "" {
		n.Title = item.Name
	}

	switch {
	case nonEmpty(article.ImageURL):
		n.ImageURL = article.ImageURL
	case nonEmpty(item.ImageURL):
		n.ImageURL = item.ImageURL
	}

	if !article.PublishedAt.IsZero() {
		published := article.PublishedAt
		n.PublishedAt = &published
	}

	return n
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
