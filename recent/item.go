// Package recent keeps the bounded, most-recent-first list of articles a
// browser has opened, persisted in a storage.Storage that is allowed to be
// missing, full, or broken.
package recent

import (
	"github.com/pevans/technews/newsapi"
)

// Key is the only storage key this package reads or writes.
const Key = "wt_recent"

// MaxItems bounds the persisted list.
const MaxItems = 6

// SidebarSize is how many entries the recent-items sidebar shows.
const SidebarSize = 3

// Item is a previously visited article. URL is its identity.
type Item struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage,omitempty"`
	PublishedAt string  `json:"publishedAt,omitempty"`
	Source      string  `json:"source"`
}

// List is ordered most recent first and holds at most MaxItems entries with
// distinct URLs.
type List []Item

// Validation is the outcome of checking one decoded value: either a usable
// Item (Reason empty) or the reason it was rejected.
type Validation struct {
	Item   Item
	Reason string
}

// Valid reports whether the value produced a usable Item.
func (v Validation) Valid() bool {
	return v.Reason == ""
}

// Validate checks a value decoded from persisted JSON. It must be an object
// with a non-empty string "url"; other known fields are copied when they
// carry the expected JSON type and ignored otherwise.
func Validate(raw any) Validation {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Validation{Reason: "not an object"}
	}

	url, ok := obj["url"].(string)
	if !ok {
		return Validation{Reason: "url missing or not a string"}
	}
	if url == "" {
		return Validation{Reason: "url is empty"}
	}

	item := Item{URL: url}
	if title, ok := obj["title"].(string); ok {
		item.Title = title
	}
	if img, ok := obj["urlToImage"].(string); ok {
		item.URLToImage = &img
	}
	if publishedAt, ok := obj["publishedAt"].(string); ok {
		item.PublishedAt = publishedAt
	}
	if source, ok := obj["source"].(string); ok {
		item.Source = source
	}

	return Validation{Item: item}
}

// FromArticle builds the Item recorded when an article is opened.
func FromArticle(a newsapi.Article) Item {
	item := Item{
		Title:       a.Title,
		URL:         a.URL,
		PublishedAt: a.PublishedAt,
		Source:      a.Source.Name,
	}
	if a.URLToImage != "" {
		img := a.URLToImage
		item.URLToImage = &img
	}
	return item
}

// Sidebar picks what the "recently visited" panel shows: up to SidebarSize
// stored items, or, when nothing is stored, up to SidebarSize fallback
// items. The boolean reports whether the stored list was used.
func Sidebar(stored, fallback List) (List, bool) {
	if len(stored) > 0 {
		return stored[:min(SidebarSize, len(stored))], true
	}
	return fallback[:min(SidebarSize, len(fallback))], false
}

// FallbackFromArticles turns the articles after the featured one (indexes
// 1 to 3) into sidebar fallback items.
func FallbackFromArticles(articles []newsapi.Article) List {
	if len(articles) <= 1 {
		return List{}
	}

	end := min(1+SidebarSize, len(articles))
	fallback := make(List, 0, end-1)
	for _, a := range articles[1:end] {
		fallback = append(fallback, FromArticle(a))
	}
	return fallback
}
