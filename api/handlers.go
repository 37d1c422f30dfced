package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pevans/technews/collection"
	"github.com/pevans/technews/newsapi"
	"github.com/pevans/technews/recent"
	"github.com/pevans/technews/storage"
)

// maxPerPage bounds the per_page query parameter.
const maxPerPage = 100

// maxVitalBody bounds a web-vital report body.
const maxVitalBody = 64 << 10

// NewsResponse is the body of GET /api/v1/news.
type NewsResponse struct {
	Country string `json:"country"`
	Query   string `json:"q"`
	collection.Page
	// Pages lists the page numbers a pager shows; 0 marks a gap.
	Pages []int `json:"pages"`
}

// RecentResponse is the body of the recent-items endpoints.
type RecentResponse struct {
	OK    bool        `json:"ok"`
	Items recent.List `json:"items"`
}

// SidebarResponse is the body of GET /api/v1/sidebar. FromRecent is false
// when the items are the fallback taken from the current articles.
type SidebarResponse struct {
	Items      recent.List `json:"items"`
	FromRecent bool        `json:"fromRecent"`
}

// HandleHealth handles GET /health.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "technews",
	})
}

// HandleNews handles GET /api/v1/news. The country's collection is fetched
// once and reused; paging and searching run over it.
func (s *Server) HandleNews(c *gin.Context) {
	country := strings.ToUpper(c.DefaultQuery("country", collection.CountryAll))
	term := c.Query("q")
	page := queryInt(c, "page", 1)
	perPage := min(queryInt(c, "per_page", collection.DefaultPerPage), maxPerPage)

	articles, err := s.cache.Get(c.Request.Context(), country)
	if err != nil {
		s.fetchError(c, err)
		return
	}

	p := collection.Paginate(collection.Search(articles, term), perPage, page)
	c.JSON(http.StatusOK, NewsResponse{
		Country: country,
		Query:   term,
		Page:    p,
		Pages:   collection.PageList(p.Page, p.TotalPages),
	})
}

func (s *Server) fetchError(c *gin.Context, err error) {
	var upstream *newsapi.UpstreamError
	if errors.As(err, &upstream) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": gin.H{
				"code":            "upstream_error",
				"message":         upstream.Error(),
				"upstream_status": upstream.Status,
			},
		})
		return
	}

	s.logger.Error("failed to fetch articles", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to fetch articles"))
}

// recentStore returns the recent-items store of the calling browser.
func (s *Server) recentStore(c *gin.Context) *recent.Store {
	var st storage.Storage
	if s.storage != nil {
		st = storage.NewScoped(s.storage, s.browserID(c))
	}
	return recent.NewStore(st, recent.WithLogger(s.logger))
}

// HandleListRecent handles GET /api/v1/recent.
func (s *Server) HandleListRecent(c *gin.Context) {
	store := s.recentStore(c)
	c.JSON(http.StatusOK, RecentResponse{OK: true, Items: store.Read(c.Request.Context())})
}

// HandleAddRecent handles POST /api/v1/recent. The body is one item; the
// response carries the list after the write. A write the storage refused
// still answers 200, with ok set to false.
func (s *Server) HandleAddRecent(c *gin.Context) {
	var raw any
	if err := json.NewDecoder(c.Request.Body).Decode(&raw); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid JSON body"))
		return
	}

	v := recent.Validate(raw)
	if !v.Valid() {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", v.Reason))
		return
	}

	ctx := c.Request.Context()
	store := s.recentStore(c)
	ok := store.Write(ctx, v.Item)
	c.JSON(http.StatusOK, RecentResponse{OK: ok, Items: store.Read(ctx)})
}

// HandleClearRecent handles DELETE /api/v1/recent.
func (s *Server) HandleClearRecent(c *gin.Context) {
	ok := s.recentStore(c).Clear(c.Request.Context())
	c.JSON(http.StatusOK, RecentResponse{OK: ok, Items: recent.List{}})
}

// HandleSidebar handles GET /api/v1/sidebar. When the browser has no recent
// items, articles 2 to 4 of the country's collection stand in.
func (s *Server) HandleSidebar(c *gin.Context) {
	ctx := c.Request.Context()
	stored := s.recentStore(c).Read(ctx)

	var fallback recent.List
	if len(stored) == 0 {
		country := strings.ToUpper(c.DefaultQuery("country", collection.CountryAll))
		articles, err := s.cache.Get(ctx, country)
		if err != nil {
			s.logger.Warn("sidebar fallback unavailable", zap.String("country", country), zap.Error(err))
		}
		fallback = recent.FallbackFromArticles(articles)
	}

	items, fromRecent := recent.Sidebar(stored, fallback)
	c.JSON(http.StatusOK, SidebarResponse{Items: items, FromRecent: fromRecent})
}

// HandleRecordVital handles POST /api/web-vitals.
func (s *Server) HandleRecordVital(c *gin.Context) {
	if s.recorder == nil {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Telemetry is disabled"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxVitalBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "failed to read body"})
		return
	}

	if _, err := s.recorder.Record(c.Request.Context(), body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HandleListVitals handles GET /api/web-vitals.
func (s *Server) HandleListVitals(c *gin.Context) {
	if s.reader == nil {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Telemetry is disabled"))
		return
	}

	data, err := s.reader.ReadAll()
	if err != nil {
		s.logger.Error("failed to read measurements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to read measurements"))
		return
	}
	c.Data(http.StatusOK, "application/x-ndjson", data)
}

// queryInt parses an integer query parameter, using def when it is missing
// or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
