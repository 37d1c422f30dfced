// Package newsapi is a client for the /everything endpoint of a
// NewsAPI.org-compatible service.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query defaults, applied by Query.withDefaults.
const (
	DefaultQuery    = "tecnologia"
	DefaultSortBy   = "publishedAt"
	DefaultPageSize = 100
	DefaultBaseURL  = "https://newsapi.org/v2"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// Query selects the articles requested from /everything.
type Query struct {
	Q        string
	Language Lang
	SortBy   string // "relevancy", "popularity" or "publishedAt"
	PageSize int
}

func (q Query) withDefaults(defaultQ string) Query {
	if q.Q == "" {
		q.Q = defaultQ
	}
	if q.Language == "" {
		q.Language = LangPT
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// UpstreamError is returned when the upstream answers with a failure. Status
// is the HTTP status and Body the response text, suitable for display.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("NewsAPI %d: %s", e.Status, e.Body)
}

// Client calls the upstream API.
type Client struct {
	baseURL      string
	apiKey       string
	defaultQuery string
	client       *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30 second timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithDefaultQuery sets the search term used when a Query leaves Q empty.
func WithDefaultQuery(q string) Option {
	return func(c *Client) {
		if q != "" {
			c.defaultQuery = q
		}
	}
}

// NewClient creates a client for the API rooted at baseURL (for example
// "https://newsapi.org/v2").
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		defaultQuery: DefaultQuery,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Everything fetches one page of articles for q. A non-2xx reply, or a 2xx
// reply whose status is not "ok", yields an *UpstreamError.
func (c *Client) Everything(ctx context.Context, q Query) (*Response, error) {
	q = q.withDefaults(c.defaultQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.everythingURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}
	if result.Status != "" && result.Status != "ok" {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: result.Message}
	}
	if result.Articles == nil {
		result.Articles = []Article{}
	}

	return &result, nil
}

func (c *Client) everythingURL(q Query) string {
	params := url.Values{}
	params.Set("q", q.Q)
	params.Set("language", string(q.Language))
	params.Set("sortBy", q.SortBy)
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	if c.apiKey != "" {
		params.Set("apiKey", c.apiKey)
	}
	return c.baseURL + "/everything?" + params.Encode()
}
