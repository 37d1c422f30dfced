// Package feedsource serves articles from RSS and Atom feeds through the same
// interface as the NewsAPI client, for deployments without an API key.
package feedsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pevans/technews/collection"
	"github.com/pevans/technews/newsapi"
)

// ErrNoFeeds is returned when a language has no feeds configured.
var ErrNoFeeds = errors.New("no feeds configured")

const (
	userAgent    = "technews/1.0 (RSS/Atom reader)"
	maxErrorBody = 4096
	// maxParallel bounds concurrent feed downloads per request.
	maxParallel = 4
)

// Source fetches and filters feed items per language.
type Source struct {
	feeds        map[newsapi.Lang][]string
	client       *http.Client
	defaultQuery string
	logger       *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient replaces the default HTTP client (10 second timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Source) {
		s.client = hc
	}
}

// WithDefaultQuery sets the filter term used when a query has none. Without
// it an empty term keeps every item.
func WithDefaultQuery(q string) Option {
	return func(s *Source) {
		s.defaultQuery = q
	}
}

// WithLogger sets the logger used for per-feed failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Source reading the given feed URLs per language.
func New(feeds map[newsapi.Lang][]string, opts ...Option) *Source {
	s := &Source{
		feeds:  feeds,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Everything fetches every feed of q.Language, keeps the items matching q.Q
// and returns at most q.PageSize of them, newest first. A failing feed is
// skipped as long as another one answers; when all of them fail the first
// error is returned.
func (s *Source) Everything(ctx context.Context, q newsapi.Query) (*newsapi.Response, error) {
	if q.Language == "" {
		q.Language = newsapi.LangPT
	}
	if q.Q == "" {
		q.Q = s.defaultQuery
	}

	urls := s.feeds[q.Language]
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w for language %s", ErrNoFeeds, q.Language)
	}

	var (
		mu       sync.Mutex
		articles []newsapi.Article
		answered int
		errs     = make([]error, len(urls))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, u := range urls {
		g.Go(func() error {
			feed, err := s.fetchFeed(gctx, u)
			if err != nil {
				errs[i] = err
				s.logger.Warn("feed fetch failed", zap.String("url", u), zap.Error(err))
				return nil
			}

			converted := FeedToArticles(feed)
			mu.Lock()
			articles = append(articles, converted...)
			answered++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if answered == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	matched := make([]newsapi.Article, 0, len(articles))
	for _, a := range articles {
		if collection.Matches(a, q.Q) {
			matched = append(matched, a)
		}
	}
	slices.SortStableFunc(matched, func(a, b newsapi.Article) int {
		return strings.Compare(b.PublishedAt, a.PublishedAt)
	})

	total := len(matched)
	if q.PageSize > 0 && len(matched) > q.PageSize {
		matched = matched[:q.PageSize]
	}

	return &newsapi.Response{Status: "ok", TotalResults: total, Articles: matched}, nil
}

func (s *Source) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &newsapi.UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", url, err)
	}
	return feed, nil
}
