// Package collection builds the article collection shown to a reader:
// fetching one or two language scopes, merging, sorting, searching and
// paginating.
package collection

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pevans/technews/metrics"
	"github.com/pevans/technews/newsapi"
)

// Collection is an ordered set of articles, newest first, unique by URL.
type Collection []newsapi.Article

// Fetcher is the upstream article source.
type Fetcher interface {
	Everything(ctx context.Context, q newsapi.Query) (*newsapi.Response, error)
}

// Scopes names the two languages of a combined fetch. Primary entries win
// when both scopes return the same URL.
type Scopes struct {
	Primary   newsapi.Lang
	Secondary newsapi.Lang
}

// DefaultScopes is the combined scope used for the "ALL" country.
var DefaultScopes = Scopes{Primary: newsapi.LangPT, Secondary: newsapi.LangEN}

// Pipeline fetches collections from a Fetcher.
type Pipeline struct {
	fetcher  Fetcher
	query    string
	pageSize int
	logger   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithQuery sets the search term sent upstream. Empty leaves the fetcher's
// default in place.
func WithQuery(q string) Option {
	return func(p *Pipeline) {
		p.query = q
	}
}

// WithPageSize sets how many articles are requested per scope.
func WithPageSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a pipeline over f.
func NewPipeline(f Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:  f,
		pageSize: newsapi.DefaultPageSize,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchSingle fetches one language scope, sorted newest first. Upstream
// failures are wrapped; callers reach *newsapi.UpstreamError with errors.As.
func (p *Pipeline) FetchSingle(ctx context.Context, lang newsapi.Lang) (Collection, error) {
	articles, err := p.fetch(ctx, lang)
	if err != nil {
		return nil, err
	}

	c := Collection(articles)
	SortByPublished(c)
	return c, nil
}

// FetchCombined fetches both scopes concurrently and merges them. If either
// request fails the whole fetch fails.
func (p *Pipeline) FetchCombined(ctx context.Context, scopes Scopes) (Collection, error) {
	var primary, secondary []newsapi.Article

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primary, err = p.fetch(gctx, scopes.Primary)
		return err
	})
	g.Go(func() error {
		var err error
		secondary, err = p.fetch(gctx, scopes.Secondary)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(primary, secondary), nil
}

// FetchCountry fetches the collection for a country selector: "ALL" is the
// combined default scopes, anything else a single language.
func (p *Pipeline) FetchCountry(ctx context.Context, country string) (Collection, error) {
	if country == CountryAll {
		return p.FetchCombined(ctx, DefaultScopes)
	}
	return p.FetchSingle(ctx, newsapi.MapCountryToLang(country))
}

func (p *Pipeline) fetch(ctx context.Context, lang newsapi.Lang) ([]newsapi.Article, error) {
	start := time.Now()
	resp, err := p.fetcher.Everything(ctx, newsapi.Query{
		Q:        p.query,
		Language: lang,
		SortBy:   newsapi.DefaultSortBy,
		PageSize: p.pageSize,
	})
	if err != nil {
		metrics.UpstreamFetchesTotal.WithLabelValues(string(lang), "error").Inc()
		p.logger.Warn("upstream fetch failed", zap.String("language", string(lang)), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch %s articles: %w", lang, err)
	}

	metrics.UpstreamFetchesTotal.WithLabelValues(string(lang), "ok").Inc()
	metrics.ArticlesFetched.WithLabelValues(string(lang)).Add(float64(len(resp.Articles)))
	p.logger.Debug("upstream fetch complete",
		zap.String("language", string(lang)),
		zap.Int("articles", len(resp.Articles)),
		zap.Duration("took", time.Since(start)))

	return resp.Articles, nil
}

// Merge concatenates primary and secondary, keeps the first article seen for
// each URL (dropping articles without one), and sorts the result newest
// first.
func Merge(primary, secondary []newsapi.Article) Collection {
	merged := make(Collection, 0, len(primary)+len(secondary))
	seen := make(map[string]bool, len(primary)+len(secondary))

	for _, a := range slices.Concat(primary, secondary) {
		if a.URL == "" || seen[a.URL] {
			continue
		}
		seen[a.URL] = true
		merged = append(merged, a)
	}

	SortByPublished(merged)
	return merged
}

// SortByPublished sorts c newest first by PublishedAt. The sort is stable;
// timestamps that don't parse sort as the oldest.
func SortByPublished(c Collection) {
	slices.SortStableFunc(c, func(a, b newsapi.Article) int {
		return publishedAt(b).Compare(publishedAt(a))
	})
}

func publishedAt(a newsapi.Article) time.Time {
	t, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
