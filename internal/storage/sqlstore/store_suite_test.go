package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"github.com/gaudesp/noxbot/internal/domain"
	"github.com/gaudesp/noxbot/testdata/utils"
)

// StoreSuite exercises every store against an already migrated database.
// It is run against SQLite in the default build and against PostgreSQL in
// the integration build.
type StoreSuite struct {
	suite.Suite
	ctx context.Context
	db  *sqlx.DB

	items    *TrackedItemStore
	articles *ArticleStore
	subs     *SubscriptionStore
	state    *SyncStateStore
	tm       *TransactionManager
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	for _, table := range []string{"subscriptions", "articles", "tracked_items", "sync_state"} {
		_, err := s.db.ExecContext(s.ctx, "DELETE FROM "+table)
		s.Require().NoError(err)
	}

	s.items = NewTrackedItemStore(s.db)
	s.articles = NewArticleStore(s.db)
	s.subs = NewSubscriptionStore(s.db)
	s.state = NewSyncStateStore(s.db)
	s.tm = NewTransactionManager(s.db)
}

func (s *StoreSuite) createItem(externalID int64, name string) *domain.TrackedItem {
	item, err := s.items.Upsert(s.ctx, &domain.ItemMetadata{
		ExternalID: externalID,
		Name:       name,
		ImageURL:   utils.Ptr("https://cdn.test/" + name + ".jpg"),
	})
	s.Require().NoError(err)
	return item
}

func (s *StoreSuite) follow(tenant, channel string, item *domain.TrackedItem) *domain.Subscription {
	sub := &domain.Subscription{TenantID: tenant, ChannelID: channel, TrackedItemID: item.ID}
	s.Require().NoError(s.subs.Create(s.ctx, sub))
	return sub
}

func (s *StoreSuite) TestTrackedItemStore_Upsert() {
	created := s.createItem(440, "Team Fortress 2")
	s.Greater(created.ID, int64(0))
	s.Equal(int64(440), created.ExternalID)

	updated, err := s.items.Upsert(s.ctx, &domain.ItemMetadata{ExternalID: 440, Name: "TF2"})
	s.Require().NoError(err)

	s.Equal(created.ID, updated.ID)
	s.Equal("TF2", updated.Name)
	s.Nil(updated.ImageURL)
}

func (s *StoreSuite) TestTrackedItemStore_GetByExternalID() {
	created := s.createItem(570, "Dota 2")

	found, err := s.items.GetByExternalID(s.ctx, 570)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.Equal("Dota 2", found.Name)

	_, err = s.items.GetByExternalID(s.ctx, 1)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreSuite) TestSubscriptionStore_CreateAndList() {
	tf2 := s.createItem(440, "Team Fortress 2")
	dota := s.createItem(570, "Dota 2")

	first := s.follow("guild-1", "chan-1", tf2)
	s.follow("guild-2", "chan-2", tf2)
	s.follow("guild-1", "chan-1", dota)

	s.Greater(first.ID, int64(0))
	s.False(first.CreatedAt.IsZero())

	all, err := s.subs.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(first.ID, all[0].ID)
	s.Equal("guild-1", all[0].TenantID)
	s.Equal("chan-1", all[0].ChannelID)
	s.Nil(all[0].LastDeliveredArticleID)
	s.Equal(tf2.ID, all[0].Item.ID)
	s.Equal(int64(440), all[0].Item.ExternalID)
	s.Equal("Team Fortress 2", all[0].Item.Name)
	s.Require().NotNil(all[0].Item.ImageURL)
	s.Equal(dota.ID, all[2].Item.ID)

	tenant, err := s.subs.ListByTenant(s.ctx, "guild-1")
	s.Require().NoError(err)
	s.Len(tenant, 2)
}

func (s *StoreSuite) TestSubscriptionStore_CreateDuplicate() {
	item := s.createItem(440, "Team Fortress 2")
	s.follow("guild-1", "chan-1", item)

	err := s.subs.Create(s.ctx, &domain.Subscription{TenantID: "guild-1", ChannelID: "chan-9", TrackedItemID: item.ID})

	s.ErrorIs(err, domain.ErrAlreadyFollowed)
}

func (s *StoreSuite) TestSubscriptionStore_UpdateLastDelivered() {
	item := s.createItem(440, "Team Fortress 2")
	sub := s.follow("guild-1", "chan-1", item)

	s.Require().NoError(s.subs.UpdateLastDelivered(s.ctx, sub.ID, "gid-1"))

	all, err := s.subs.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Require().NotNil(all[0].LastDeliveredArticleID)
	s.Equal("gid-1", *all[0].LastDeliveredArticleID)
}

func (s *StoreSuite) TestSubscriptionStore_Delete() {
	item := s.createItem(440, "Team Fortress 2")
	s.follow("guild-1", "chan-1", item)

	s.Require().NoError(s.subs.Delete(s.ctx, "guild-1", item.ID))
	s.ErrorIs(s.subs.Delete(s.ctx, "guild-1", item.ID), domain.ErrNotFollowed)

	all, err := s.subs.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *StoreSuite) TestSubscriptionStore_DeleteByTenant() {
	tf2 := s.createItem(440, "Team Fortress 2")
	dota := s.createItem(570, "Dota 2")
	s.follow("guild-1", "chan-1", tf2)
	s.follow("guild-1", "chan-1", dota)
	s.follow("guild-2", "chan-2", dota)

	removed, err := s.subs.DeleteByTenant(s.ctx, "guild-1")
	s.Require().NoError(err)
	s.Len(removed, 2)

	all, err := s.subs.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("guild-2", all[0].TenantID)
}

func (s *StoreSuite) TestArticleStore_GetMissing() {
	item := s.createItem(440, "Team Fortress 2")

	article, err := s.articles.GetByTrackedItem(s.ctx, item.ID)

	s.NoError(err)
	s.Nil(article)
}

func (s *StoreSuite) TestArticleStore_UpsertReplaces() {
	item := s.createItem(440, "Team Fortress 2")
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &domain.Article{
		TrackedItemID: item.ID,
		ExternalID:    "gid-1",
		Title:         "Patch 1",
		Body:          "[b]one[/b]",
		Teaser:        "one",
		URL:           "https://steam.test/1",
		Author:        utils.Ptr("Dev"),
		FeedName:      "steam_community_announcements",
		PublishedAt:   published,
	}
	id, err := s.articles.Upsert(s.ctx, first)
	s.Require().NoError(err)
	s.Greater(id, int64(0))

	second := &domain.Article{
		TrackedItemID: item.ID,
		ExternalID:    "gid-2",
		Title:         "Patch 2",
		Body:          "two",
		Teaser:        "two",
		URL:           "https://steam.test/2",
		ImageURL:      utils.Ptr("https://cdn.test/2.png"),
		FeedName:      "steam_community_announcements",
		PublishedAt:   published.Add(time.Hour),
	}
	id2, err := s.articles.Upsert(s.ctx, second)
	s.Require().NoError(err)
	s.Equal(id, id2)

	stored, err := s.articles.GetByTrackedItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal("gid-2", stored.ExternalID)
	s.Equal("Patch 2", stored.Title)
	s.Equal("two", stored.Teaser)
	s.Nil(stored.Author)
	s.Require().NotNil(stored.ImageURL)
	s.Equal("https://cdn.test/2.png", *stored.ImageURL)
	s.True(published.Add(time.Hour).Equal(stored.PublishedAt))
}

func (s *StoreSuite) TestTrackedItemStore_DeleteOrphans() {
	kept := s.createItem(440, "Team Fortress 2")
	orphan := s.createItem(570, "Dota 2")
	s.follow("guild-1", "chan-1", kept)

	_, err := s.articles.Upsert(s.ctx, &domain.Article{
		TrackedItemID: orphan.ID,
		ExternalID:    "gid-1",
		FeedName:      "steam_community_announcements",
		PublishedAt:   time.Now(),
	})
	s.Require().NoError(err)

	n, err := s.items.DeleteOrphans(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	_, err = s.items.GetByExternalID(s.ctx, 570)
	s.ErrorIs(err, domain.ErrNotFound)
	article, err := s.articles.GetByTrackedItem(s.ctx, orphan.ID)
	s.NoError(err)
	s.Nil(article)

	_, err = s.items.GetByExternalID(s.ctx, 440)
	s.NoError(err)
}

func (s *StoreSuite) TestSyncStateStore_GetNew() {
	state, err := s.state.Get(s.ctx, "steam")

	s.Require().NoError(err)
	s.Equal("steam", state.SourceID)
	s.True(state.LastSyncedAt.IsZero())
	s.Zero(state.TotalUpdated)
}

func (s *StoreSuite) TestSyncStateStore_UpdateAndGet() {
	now := time.Now().UTC().Truncate(time.Second)

	s.Require().NoError(s.state.Update(s.ctx, &domain.SyncState{
		SourceID:        "steam",
		LastSyncedAt:    now,
		TotalUpdated:    3,
		TotalDispatched: 7,
	}))
	s.Require().NoError(s.state.Update(s.ctx, &domain.SyncState{
		SourceID:        "steam",
		LastSyncedAt:    now.Add(time.Minute),
		TotalUpdated:    4,
		TotalDispatched: 9,
	}))

	state, err := s.state.Get(s.ctx, "steam")
	s.Require().NoError(err)
	s.True(now.Add(time.Minute).Equal(state.LastSyncedAt))
	s.Equal(int64(4), state.TotalUpdated)
	s.Equal(int64(9), state.TotalDispatched)
}

func (s *StoreSuite) TestTransaction_Commit() {
	err := s.tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		item, err := s.items.Upsert(ctx, &domain.ItemMetadata{ExternalID: 440, Name: "Team Fortress 2"})
		if err != nil {
			return err
		}
		return s.subs.Create(ctx, &domain.Subscription{TenantID: "guild-1", ChannelID: "chan-1", TrackedItemID: item.ID})
	})
	s.Require().NoError(err)

	all, err := s.subs.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *StoreSuite) TestTransaction_Rollback() {
	boom := errors.New("boom")

	err := s.tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := s.items.Upsert(ctx, &domain.ItemMetadata{ExternalID: 440, Name: "Team Fortress 2"}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.items.GetByExternalID(s.ctx, 440)
	s.ErrorIs(err, domain.ErrNotFound)
}
