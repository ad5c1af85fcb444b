package steam

import (
	"context"
	"strings"

	"github.com/gaudesp/noxbot/internal/domain"
	"github.com/gaudesp/noxbot/internal/match"
)

// DefaultSearchLimit caps search results when the caller passes no limit.
const DefaultSearchLimit = 25

// CatalogEntries returns the full app list. The first successful download is
// kept for the lifetime of the source.
func (s *Source) CatalogEntries(ctx context.Context) ([]domain.CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		return s.catalog, nil
	}

	var resp appListResponse
	if err := s.fetch(ctx, "fetch app list", 0, s.appListURL, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.CatalogEntry, 0, len(resp.AppList.Apps))
	for _, app := range resp.AppList.Apps {
		if strings.TrimSpace(app.Name) == "" {
			continue
		}
		entries = append(entries, domain.CatalogEntry{ExternalID: app.AppID, Name: app.Name})
	}

	s.catalog = entries
	s.logger.Info("catalog loaded", "entries", len(entries))

	return entries, nil
}

// Search ranks catalog entries by similarity to query.
func (s *Source) Search(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	entries, err := s.CatalogEntries(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	ranked := match.SearchAndRank(query, entries, func(e domain.CatalogEntry) string {
		return e.Name
	}, match.DefaultThreshold)

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
