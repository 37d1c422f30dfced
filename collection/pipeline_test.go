package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pevans/technews/newsapi"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeFetcher answers per language. A language listed in block waits for
// the matching channel to close before answering.
type fakeFetcher struct {
	mu       sync.Mutex
	articles map[newsapi.Lang][]newsapi.Article
	errs     map[newsapi.Lang]error
	block    map[newsapi.Lang]chan struct{}
	queries  []newsapi.Query
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeFetcher) Everything(ctx context.Context, q newsapi.Query) (*newsapi.Response, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	f.mu.Lock()
	f.queries = append(f.queries, q)
	wait := f.block[q.Language]
	f.mu.Unlock()

	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := f.errs[q.Language]; err != nil {
		return nil, err
	}
	articles := f.articles[q.Language]
	return &newsapi.Response{Status: "ok", TotalResults: len(articles), Articles: articles}, nil
}

func article(url, publishedAt, title string) newsapi.Article {
	return newsapi.Article{
		Title:       title,
		URL:         url,
		PublishedAt: publishedAt,
		Source:      newsapi.Source{Name: "Source"},
	}
}

func urlsOf(c Collection) []string {
	out := make([]string, 0, len(c))
	for _, a := range c {
		out = append(out, a.URL)
	}
	return out
}

func TestFetchSingle_SortsNewestFirst(t *testing.T) {
	f := &fakeFetcher{articles: map[newsapi.Lang][]newsapi.Article{
		newsapi.LangEN: {
			article("a", "2024-05-01T08:00:00Z", "A"),
			article("b", "2024-05-01T10:00:00Z", "B"),
			article("c", "2024-05-01T09:00:00Z", "C"),
		},
	}}

	c, err := NewPipeline(f, WithQuery("golang"), WithPageSize(50)).FetchSingle(context.Background(), newsapi.LangEN)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"b", "c", "a"}, urlsOf(c)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, f.queries, 1)
	assert.Equal(t, newsapi.Query{Q: "golang", Language: newsapi.LangEN, SortBy: "publishedAt", PageSize: 50}, f.queries[0])
}

func TestFetchSingle_UpstreamError(t *testing.T) {
	f := &fakeFetcher{errs: map[newsapi.Lang]error{
		newsapi.LangPT: &newsapi.UpstreamError{Status: 429, Body: "rate limited"},
	}}

	_, err := NewPipeline(f).FetchSingle(context.Background(), newsapi.LangPT)
	require.Error(t, err)

	var upstream *newsapi.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 429, upstream.Status)
	assert.Equal(t, "rate limited", upstream.Body)
}

func TestFetchCombined_MergesDedupsAndSorts(t *testing.T) {
	f := &fakeFetcher{articles: map[newsapi.Lang][]newsapi.Article{
		newsapi.LangPT: {
			article("shared", "2024-05-01T09:00:00Z", "primary copy"),
			article("pt-only", "2024-05-01T11:00:00Z", "PT"),
			article("", "2024-05-01T12:00:00Z", "no url"),
		},
		newsapi.LangEN: {
			article("shared", "2024-05-01T13:00:00Z", "secondary copy"),
			article("en-only", "2024-05-01T10:00:00Z", "EN"),
			article("en-only", "2024-05-01T10:00:00Z", "EN dup"),
		},
	}}

	c, err := NewPipeline(f).FetchCombined(context.Background(), Scopes{Primary: newsapi.LangPT, Secondary: newsapi.LangEN})
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"pt-only", "en-only", "shared"}, urlsOf(c)); diff != "" {
		t.Errorf("merged order mismatch (-want +got):\n%s", diff)
	}

	for _, a := range c {
		if a.URL == "shared" {
			assert.Equal(t, "primary copy", a.Title, "primary scope must win url conflicts")
		}
		if a.URL == "en-only" {
			assert.Equal(t, "EN", a.Title, "first occurrence wins")
		}
	}
}

func TestFetchCombined_RunsConcurrently(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{
		articles: map[newsapi.Lang][]newsapi.Article{
			newsapi.LangPT: {article("p", "2024-05-01T09:00:00Z", "P")},
			newsapi.LangEN: {article("e", "2024-05-01T10:00:00Z", "E")},
		},
		block: map[newsapi.Lang]chan struct{}{
			newsapi.LangPT: release,
			newsapi.LangEN: release,
		},
	}

	done := make(chan struct{})
	var c Collection
	var err error
	go func() {
		defer close(done)
		c, err = NewPipeline(f).FetchCombined(context.Background(), DefaultScopes)
	}()

	require.Eventually(t, func() bool { return f.inFlight.Load() == 2 }, defaultWait, tick,
		"both requests should be in flight at once")
	close(release)
	<-done

	require.NoError(t, err)
	assert.Equal(t, []string{"e", "p"}, urlsOf(c))
	assert.Equal(t, int32(2), f.maxSeen.Load())
}

func TestFetchCombined_EitherFailureFailsAll(t *testing.T) {
	tests := []struct {
		name    string
		failing newsapi.Lang
	}{
		{name: "primary fails", failing: newsapi.LangPT},
		{name: "secondary fails", failing: newsapi.LangEN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{
				articles: map[newsapi.Lang][]newsapi.Article{
					newsapi.LangPT: {article("p", "2024-05-01T09:00:00Z", "P")},
					newsapi.LangEN: {article("e", "2024-05-01T10:00:00Z", "E")},
				},
				errs: map[newsapi.Lang]error{
					tt.failing: &newsapi.UpstreamError{Status: 500, Body: "boom"},
				},
			}

			c, err := NewPipeline(f).FetchCombined(context.Background(), DefaultScopes)
			assert.Nil(t, c, "no partial result")

			var upstream *newsapi.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, 500, upstream.Status)
		})
	}
}

func TestFetchCountry(t *testing.T) {
	f := &fakeFetcher{articles: map[newsapi.Lang][]newsapi.Article{
		newsapi.LangPT: {article("p", "2024-05-01T09:00:00Z", "P")},
		newsapi.LangEN: {article("e", "2024-05-01T10:00:00Z", "E")},
	}}
	p := NewPipeline(f)
	ctx := context.Background()

	c, err := p.FetchCountry(ctx, CountryBR)
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, urlsOf(c))

	c, err = p.FetchCountry(ctx, CountryUS)
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, urlsOf(c))

	c, err = p.FetchCountry(ctx, CountryAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "p"}, urlsOf(c))
}

func TestMerge_PrimaryWinsRegardlessOfTimestamp(t *testing.T) {
	primary := []newsapi.Article{article("u", "2020-01-01T00:00:00Z", "old primary")}
	secondary := []newsapi.Article{article("u", "2024-01-01T00:00:00Z", "new secondary")}

	merged := Merge(primary, secondary)
	require.Len(t, merged, 1)
	assert.Equal(t, "old primary", merged[0].Title)
}

func TestSortByPublished_UnparsableSortsLast(t *testing.T) {
	c := Collection{
		article("bad", "yesterday", "bad"),
		article("new", "2024-05-02T00:00:00Z", "new"),
		article("old", "2024-05-01T00:00:00Z", "old"),
		article("offset", "2024-05-01T23:00:00-03:00", "offset"),
	}

	SortByPublished(c)

	// 23:00-03:00 is 02:00Z on the 2nd, newer than midnight.
	assert.Equal(t, []string{"offset", "new", "old", "bad"}, urlsOf(c))
}

func TestSortByPublished_Stable(t *testing.T) {
	var c Collection
	for i := range 5 {
		c = append(c, article(fmt.Sprintf("u%d", i), "2024-05-01T00:00:00Z", ""))
	}

	SortByPublished(c)
	assert.Equal(t, []string{"u0", "u1", "u2", "u3", "u4"}, urlsOf(c))
}

func TestFetch_ContextCanceledPropagates(t *testing.T) {
	f := &fakeFetcher{block: map[newsapi.Lang]chan struct{}{newsapi.LangPT: make(chan struct{})}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(f).FetchSingle(ctx, newsapi.LangPT)
	assert.True(t, errors.Is(err, context.Canceled))
}
