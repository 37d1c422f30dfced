package recent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/technews/newsapi"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantValid  bool
		wantReason string
	}{
		{name: "full object", raw: `{"title":"T","url":"u","urlToImage":"i","publishedAt":"p","source":"S"}`, wantValid: true},
		{name: "only url", raw: `{"url":"u"}`, wantValid: true},
		{name: "empty url", raw: `{"url":""}`, wantReason: "url is empty"},
		{name: "numeric url", raw: `{"url":42}`, wantReason: "url missing or not a string"},
		{name: "missing url", raw: `{"title":"T"}`, wantReason: "url missing or not a string"},
		{name: "string", raw: `"u"`, wantReason: "not an object"},
		{name: "null", raw: `null`, wantReason: "not an object"},
		{name: "array", raw: `[{"url":"u"}]`, wantReason: "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(decode(t, tt.raw))
			assert.Equal(t, tt.wantValid, v.Valid())
			assert.Equal(t, tt.wantReason, v.Reason)
		})
	}
}

func TestValidate_CopiesFields(t *testing.T) {
	v := Validate(decode(t, `{"title":"T","url":"u","urlToImage":"i","publishedAt":"2024-05-01T00:00:00Z","source":"S"}`))
	require.True(t, v.Valid())

	require.NotNil(t, v.Item.URLToImage)
	assert.Equal(t, "i", *v.Item.URLToImage)
	assert.Equal(t, Item{
		Title:       "T",
		URL:         "u",
		URLToImage:  v.Item.URLToImage,
		PublishedAt: "2024-05-01T00:00:00Z",
		Source:      "S",
	}, v.Item)
}

func TestValidate_IgnoresMistypedOptionalFields(t *testing.T) {
	v := Validate(decode(t, `{"url":"u","title":7,"urlToImage":null,"source":{"name":"S"}}`))
	require.True(t, v.Valid())
	assert.Equal(t, Item{URL: "u"}, v.Item)
}

func TestFromArticle(t *testing.T) {
	a := newsapi.Article{
		Source:      newsapi.Source{ID: "folha", Name: "Folha"},
		Author:      "A",
		Title:       "Title",
		URL:         "https://example.com/a",
		URLToImage:  "https://example.com/a.jpg",
		PublishedAt: "2024-05-01T00:00:00Z",
	}

	item := FromArticle(a)
	assert.Equal(t, "Title", item.Title)
	assert.Equal(t, "https://example.com/a", item.URL)
	assert.Equal(t, "Folha", item.Source)
	assert.Equal(t, "2024-05-01T00:00:00Z", item.PublishedAt)
	require.NotNil(t, item.URLToImage)
	assert.Equal(t, "https://example.com/a.jpg", *item.URLToImage)

	a.URLToImage = ""
	assert.Nil(t, FromArticle(a).URLToImage)
}

func TestFromArticle_OmitsEmptyImageInJSON(t *testing.T) {
	data, err := json.Marshal(FromArticle(newsapi.Article{Title: "T", URL: "u"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"T","url":"u","source":""}`, string(data))
}

func items(urls ...string) List {
	l := make(List, 0, len(urls))
	for _, u := range urls {
		l = append(l, Item{URL: u})
	}
	return l
}

func TestSidebar(t *testing.T) {
	tests := []struct {
		name       string
		stored     List
		fallback   List
		want       List
		wantStored bool
	}{
		{name: "stored wins", stored: items("a", "b"), fallback: items("x", "y", "z"), want: items("a", "b"), wantStored: true},
		{name: "stored is capped", stored: items("a", "b", "c", "d", "e"), fallback: items("x"), want: items("a", "b", "c"), wantStored: true},
		{name: "empty stored uses fallback", stored: List{}, fallback: items("x", "y", "z", "w"), want: items("x", "y", "z")},
		{name: "nothing at all", stored: nil, fallback: nil, want: List{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fromStored := Sidebar(tt.stored, tt.fallback)
			assert.Equal(t, tt.wantStored, fromStored)
			assert.Equal(t, len(tt.want), len(got))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].URL, got[i].URL)
			}
		})
	}
}

func TestFallbackFromArticles(t *testing.T) {
	arts := []newsapi.Article{{URL: "featured"}, {URL: "1"}, {URL: "2"}, {URL: "3"}, {URL: "4"}}

	assert.Equal(t, items("1", "2", "3"), FallbackFromArticles(arts))
	assert.Equal(t, items("1"), FallbackFromArticles(arts[:2]))
	assert.Empty(t, FallbackFromArticles(arts[:1]))
	assert.Empty(t, FallbackFromArticles(nil))
}
