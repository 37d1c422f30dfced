package feedsource

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/pevans/technews/newsapi"
)

// FeedItemToArticle converts an RSS or Atom item. gofeed normalizes both
// formats, so Link, Description and the parsed dates cover either one.
func FeedItemToArticle(item *gofeed.Item, feedTitle string) newsapi.Article {
	description := StripHTML(item.Description)
	content := StripHTML(item.Content)
	if description == "" {
		description = content
	}

	var publishedAt string
	switch {
	case item.PublishedParsed != nil:
		publishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		publishedAt = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	return newsapi.Article{
		Source:      newsapi.Source{Name: feedTitle},
		Author:      strings.Join(authors(item), ", "),
		Title:       strings.Join(strings.Fields(item.Title), " "),
		Description: description,
		URL:         item.Link,
		URLToImage:  imageURL(item),
		PublishedAt: publishedAt,
		Content:     content,
	}
}

// FeedToArticles converts every item of feed.
func FeedToArticles(feed *gofeed.Feed) []newsapi.Article {
	articles := make([]newsapi.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, FeedItemToArticle(item, feed.Title))
	}
	return articles
}

// StripHTML returns the text content of an HTML fragment with whitespace
// collapsed. Input that fails to parse is returned trimmed.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// authors gathers <author>, Atom authors and dc:creator, without repeats.
func authors(item *gofeed.Item) []string {
	var names []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		for _, n := range names {
			if strings.EqualFold(n, name) {
				return
			}
		}
		names = append(names, name)
	}

	if item.Author != nil {
		add(item.Author.Name)
	}
	for _, a := range item.Authors {
		if a != nil {
			add(a.Name)
		}
	}
	if item.DublinCoreExt != nil {
		for _, c := range item.DublinCoreExt.Creator {
			add(c)
		}
	}
	return names
}

func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
