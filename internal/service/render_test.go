package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaudesp/noxbot/internal/domain"
	"github.com/gaudesp/noxbot/testdata/utils"
)

func TestNewNotification(t *testing.T) {
	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sub := domain.Subscription{ID: 7, TenantID: "guild-1", ChannelID: "chan-1"}
	item := domain.TrackedItem{Name: "Dota 2", ImageURL: utils.Ptr("https://cdn.test/item.jpg")}

	tests := []struct {
		name      string
		article   *domain.Article
		wantTitle string
		wantImage *string
		wantDate  bool
	}{
		{
			name:      "article image wins",
			article:   &domain.Article{ExternalID: "1", Title: "Patch", ImageURL: utils.Ptr("https://cdn.test/a.png"), PublishedAt: published},
			wantTitle: "Patch",
			wantImage: utils.Ptr("https://cdn.test/a.png"),
			wantDate:  true,
		},
		{
			name:      "item image fallback",
			article:   &domain.Article{ExternalID: "1", Title: "Patch", ImageURL: utils.Ptr("")},
			wantTitle: "Patch",
			wantImage: utils.Ptr("https://cdn.test/item.jpg"),
		},
		{
			name:      "title falls back to item name",
			article:   &domain.Article{ExternalID: "1"},
			wantTitle: "Dota 2",
			wantImage: utils.Ptr("https://cdn.test/item.jpg"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotification(sub, item, tt.article)

			assert.Equal(t, "chan-1", n.ChannelID)
			assert.Equal(t, "guild-1", n.TenantID)
			assert.Equal(t, int64(7), n.SubscriptionID)
			assert.Equal(t, "Dota 2", n.Author)
			assert.Equal(t, tt.wantTitle, n.Title)
			require.NotNil(t, n.ImageURL)
			assert.Equal(t, *tt.wantImage, *n.ImageURL)
			assert.Equal(t, tt.wantDate, n.PublishedAt != nil)
		})
	}
}

func TestNewNotification_NoImage(t *testing.T) {
	n := NewNotification(domain.Subscription{}, domain.TrackedItem{Name: "x"}, &domain.Article{Title: "t"})
	assert.Nil(t, n.ImageURL)
	assert.Nil(t, n.PublishedAt)
}
