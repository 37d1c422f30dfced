package collection

import (
	"strings"

	"github.com/pevans/technews/newsapi"
	"github.com/pevans/technews/textnorm"
)

// Country selectors accepted by FetchCountry.
const (
	CountryAll = "ALL"
	CountryBR  = "BR"
	CountryUS  = "US"
)

// DefaultPerPage is the page size of the search view.
const DefaultPerPage = 6

// Ellipsis marks a gap in the list returned by PageList.
const Ellipsis = 0

// Page is one window of a (possibly filtered) collection.
type Page struct {
	Items      Collection `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	Total      int        `json:"total"`
	// Start and End are the zero-based half-open bounds of Items within the
	// full result.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Matches reports whether a contains term in its title, description,
// source name or author, ignoring case and diacritics. A blank term matches
// every article.
func Matches(a newsapi.Article, term string) bool {
	haystack := strings.Join([]string{a.Title, a.Description, a.Source.Name, a.Author}, " ")
	return textnorm.Contains(haystack, term)
}

// Search returns the articles of c matching term, in their original order.
func Search(c Collection, term string) Collection {
	if strings.TrimSpace(term) == "" {
		return c
	}

	found := make(Collection, 0, len(c))
	for _, a := range c {
		if Matches(a, term) {
			found = append(found, a)
		}
	}
	return found
}

// Paginate cuts page requestedPage out of c. The page is clamped to
// [1, TotalPages]; TotalPages is at least 1 even for an empty collection.
// A pageSize below 1 uses DefaultPerPage.
func Paginate(c Collection, pageSize, requestedPage int) Page {
	if pageSize < 1 {
		pageSize = DefaultPerPage
	}

	total := len(c)
	totalPages := max(1, (total+pageSize-1)/pageSize)
	page := min(max(requestedPage, 1), totalPages)

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return Page{
		Items:      c[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Start:      start,
		End:        end,
	}
}

// PageList returns the page numbers a compact pager shows for page out of
// totalPages. Up to seven pages are listed in full; beyond that the first
// and last pages and the neighbours of page are kept, with Ellipsis
// standing in for each gap.
func PageList(page, totalPages int) []int {
	if totalPages <= 7 {
		pages := make([]int, 0, totalPages)
		for i := 1; i <= totalPages; i++ {
			pages = append(pages, i)
		}
		return pages
	}

	pages := []int{1}
	if page > 3 {
		pages = append(pages, Ellipsis)
	}
	for i := max(2, page-1); i <= min(totalPages-1, page+1); i++ {
		pages = append(pages, i)
	}
	if page < totalPages-2 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, totalPages)
}
