package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaudesp/noxbot/internal/domain"
)

const (
	SourceID   = "steam"
	SourceName = "Steam"

	DefaultFeed = "steam_community_announcements"
)

// Config holds Steam client configuration.
type Config struct {
	NewsURL        string
	StoreURL       string
	AppListURL     string
	Feed           string
	NewsCount      int
	Timeout        time.Duration
	RatePerSecond  float64
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source talks to the Steam Web API and the storefront API.
type Source struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	newsURL    string
	storeURL   string
	appListURL string
	feed       string
	newsCount  int

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu      sync.Mutex
	catalog []domain.CatalogEntry

	logger *slog.Logger
}

// New creates a new Steam source.
func New(cfg Config, logger *slog.Logger) *Source {
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}
	if cfg.Feed == "" {
		cfg.Feed = DefaultFeed
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(limit, burst),
		newsURL:        cfg.NewsURL,
		storeURL:       cfg.StoreURL,
		appListURL:     cfg.AppListURL,
		feed:           cfg.Feed,
		newsCount:      cfg.NewsCount,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchLatestArticle returns the newest announcement of the app.
// It returns domain.ErrNotFound when the app has none.
func (s *Source) FetchLatestArticle(ctx context.Context, appID int64) (*domain.Article, error) {
	q := url.Values{}
	q.Set("appid", strconv.FormatInt(appID, 10))
	q.Set("format", "json")
	q.Set("feeds", s.feed)
	if s.newsCount > 0 {
		q.Set("count", strconv.Itoa(s.newsCount))
	}

	var resp newsResponse
	if err := s.fetch(ctx, "fetch news", appID, withQuery(s.newsURL, q), &resp); err != nil {
		return nil, err
	}

	for _, item := range resp.AppNews.NewsItems {
		if item.FeedName != s.feed || item.GID == "" {
			continue
		}
		return toArticle(item), nil
	}

	return nil, domain.ErrNotFound
}

// FetchItemMetadata returns the store name and header image of the app.
func (s *Source) FetchItemMetadata(ctx context.Context, appID int64) (*domain.ItemMetadata, error) {
	id := strconv.FormatInt(appID, 10)
	q := url.Values{}
	q.Set("appids", id)

	var resp appDetailsResponse
	if err := s.fetch(ctx, "fetch app details", appID, withQuery(s.storeURL, q), &resp); err != nil {
		return nil, err
	}

	details, ok := resp[id]
	if !ok || !details.Success {
		return nil, domain.ErrNotFound
	}

	var data appData
	if err := json.Unmarshal(details.Data, &data); err != nil {
		return nil, &domain.FetchError{Op: "decode app details", ExternalID: appID, Err: err}
	}
	if data.Name == "" {
		return nil, domain.ErrNotFound
	}

	meta := &domain.ItemMetadata{ExternalID: appID, Name: data.Name}
	if data.HeaderImage != "" {
		meta.ImageURL = &data.HeaderImage
	}
	return meta, nil
}

func toArticle(item newsItem) *domain.Article {
	article := &domain.Article{
		ExternalID:  item.GID,
		Title:       item.Title,
		Body:        item.Contents,
		URL:         item.URL,
		FeedName:    item.FeedName,
		PublishedAt: time.Unix(item.Date, 0).UTC(),
	}
	if item.Author != "" {
		author := item.Author
		article.Author = &author
	}
	return article
}

// fetch GETs endpoint into v, retrying transient failures with backoff.
func (s *Source) fetch(ctx context.Context, op string, id int64, endpoint string, v any) error {
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.doRequest(ctx, op, id, endpoint, v)
		if err == nil {
			return nil
		}

		var fetchErr *domain.FetchError
		if !errors.As(err, &fetchErr) || attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"op", op,
			"external_id", id,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return &domain.FetchError{Op: op, ExternalID: id, Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}

	return err
}

func (s *Source) doRequest(ctx context.Context, op string, id int64, endpoint string, v any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &domain.FetchError{Op: op, ExternalID: id, Err: fmt.Errorf("wait for rate limit: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "noxbot/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &domain.FetchError{Op: op, ExternalID: id, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &domain.FetchError{Op: op, ExternalID: id, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &domain.FetchError{Op: op, ExternalID: id, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if s.maxBackoff > 0 && backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func withQuery(base string, q url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	merged := u.Query()
	for k, vs := range q {
		merged[k] = vs
	}
	u.RawQuery = merged.Encode()
	return u.String()
}
