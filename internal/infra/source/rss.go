package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/resilience/circuitbreaker"
	"interlocutor/internal/resilience/retry"
	"interlocutor/internal/usecase/ingest"
)

// RSSSource lists articles from an RSS/Atom feed and retrieves bodies from
// the linked pages. It includes rate limiting, circuit breaker, and retry
// logic for improved reliability.
type RSSSource struct {
	name      string
	feedURL   string
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *circuitbreaker.CircuitBreaker
	retryCfg  retry.Config
	extractor *ContentExtractor
	userAgent string
	logger    *slog.Logger
}

// NewRSSSource creates an adapter for one publication's feed. The name
// becomes the source field of every article the adapter yields; keep it
// stable, it keys the incremental checkpoint.
func NewRSSSource(name, feedURL string, cfg FetchConfig, logger *slog.Logger) *RSSSource {
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.httpClient()
	return &RSSSource{
		name:      name,
		feedURL:   feedURL,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:   circuitbreaker.New(circuitbreaker.SourceFetchConfig(name)),
		retryCfg:  retry.SourceFetchConfig(),
		extractor: NewContentExtractor(client, cfg),
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Name identifies the publication.
func (s *RSSSource) Name() string {
	return s.name
}

// FetchMetadata lists feed entries published after the checkpoint. A nil
// checkpoint means everything currently in the feed.
func (s *RSSSource) FetchMetadata(ctx context.Context, since *time.Time) ([]ingest.MetadataInput, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var items []ingest.MetadataInput
	retryErr := retry.WithBackoff(ctx, s.retryCfg, func() error {
		cbResult, err := s.breaker.Execute(func() (interface{}, error) {
			return s.doFetch(ctx, since)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				s.logger.Warn("source fetch circuit breaker open, request rejected",
					slog.String("source", s.name),
					slog.String("url", s.feedURL),
					slog.String("state", s.breaker.State().String()))
			}
			return err
		}
		items = cbResult.([]ingest.MetadataInput)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return items, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (s *RSSSource) doFetch(ctx context.Context, since *time.Time) ([]ingest.MetadataInput, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = s.userAgent
	fp.Client = s.client

	feed, err := fp.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %q: %w", s.feedURL, err)
	}

	items := make([]ingest.MetadataInput, 0, len(feed.Items))
	for _, it := range feed.Items {
		naturalKey := it.GUID
		if naturalKey == "" {
			naturalKey = it.Link
		}
		if naturalKey == "" || it.Title == "" {
			// Entries with no stable key or no title cannot be ingested.
			continue
		}

		pubAt := time.Now().UTC()
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pubAt = *it.UpdatedParsed
		}
		if since != nil && !pubAt.After(*since) {
			continue
		}

		section := ""
		if len(it.Categories) > 0 {
			section = strings.ToLower(strings.TrimSpace(it.Categories[0]))
		}

		items = append(items, ingest.MetadataInput{
			Source:      s.name,
			NaturalKey:  naturalKey,
			Section:     section,
			Title:       it.Title,
			PublishedAt: pubAt,
			WebURL:      it.Link,
		})
	}
	return items, nil
}

// FetchContent retrieves the body text for one article. Articles without a
// web URL yield an empty body rather than an error.
func (s *RSSSource) FetchContent(ctx context.Context, meta *entity.ArticleMetadata) (string, error) {
	if meta.WebURL == "" {
		return "", nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return s.extractor.Extract(ctx, meta.WebURL)
}
