package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pevans/technews/collection"
	"github.com/pevans/technews/recent"
)

// printArticlesTable prints a page of articles in human-readable format
func printArticlesTable(w io.Writer, p collection.Page) {
	if p.Total == 0 {
		fmt.Fprintln(w, "No articles to display.")
		return
	}

	fmt.Fprintf(w, "Showing %d-%d of %d articles (page %d of %d)\n\n",
		p.Start+1, p.End, p.Total, p.Page, p.TotalPages)

	for _, a := range p.Items {
		source := a.Source.Name
		if source == "" {
			source = "Unknown"
		}

		fmt.Fprintf(w, "%s\n", truncate(a.Title, 70))
		fmt.Fprintf(w, "   %s | Published: %s\n", source, formatPublished(a.PublishedAt))
		if a.Description != "" {
			fmt.Fprintf(w, "   %s\n", truncate(a.Description, 150))
		}
		fmt.Fprintf(w, "   URL: %s\n\n", a.URL)
	}

	fmt.Fprintf(w, "Pages: %s\n", formatPager(p.Page, collection.PageList(p.Page, p.TotalPages)))
}

// printRecentTable prints recent items, most recent first
func printRecentTable(w io.Writer, list recent.List) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No recent items.")
		return
	}

	for i, item := range list {
		title := item.Title
		if title == "" {
			title = "(No title)"
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, truncate(title, 70))
		if item.Source != "" {
			fmt.Fprintf(w, "   %s\n", item.Source)
		}
		fmt.Fprintf(w, "   URL: %s\n", item.URL)
	}
}

// printJSON prints v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// formatPager renders a page list like "1 … 4 [5] 6 … 10".
func formatPager(current int, pages []int) string {
	parts := make([]string, 0, len(pages))
	for _, n := range pages {
		switch n {
		case collection.Ellipsis:
			parts = append(parts, "…")
		case current:
			parts = append(parts, fmt.Sprintf("[%d]", n))
		default:
			parts = append(parts, fmt.Sprint(n))
		}
	}
	return strings.Join(parts, " ")
}

func formatPublished(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
