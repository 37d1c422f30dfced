// Package api exposes the news collection, the per-browser recent-items
// list and web-vitals collection over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pevans/technews/collection"
	"github.com/pevans/technews/storage"
	"github.com/pevans/technews/telemetry"
)

// BrowserCookie identifies the browser whose recent items are served.
const BrowserCookie = "wt_browser"

// browserCookieMaxAge is one year, in seconds.
const browserCookieMaxAge = 365 * 24 * 60 * 60

// MeasurementReader returns stored web-vital reports as NDJSON.
type MeasurementReader interface {
	ReadAll() ([]byte, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	cache       *collection.Cache
	cacheTTL    time.Duration
	storage     storage.Storage
	recorder    *telemetry.Recorder
	reader      MeasurementReader
	corsOrigins []string
	logger      *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTelemetry enables the web-vitals endpoints.
func WithTelemetry(recorder *telemetry.Recorder, reader MeasurementReader) Option {
	return func(s *Server) {
		s.recorder = recorder
		s.reader = reader
	}
}

// WithCORSOrigins restricts cross-origin requests to origins. "*" or an
// empty list allows all.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithCacheTTL sets how long a country's collection is reused across
// requests. Zero fetches on every request.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.cacheTTL = ttl
	}
}

// WithLogger sets the request and handler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server fetching articles through pipeline and keeping
// recent items in store. store may be nil, in which case recent items are
// never remembered.
func NewServer(pipeline *collection.Pipeline, store storage.Storage, opts ...Option) *Server {
	s := &Server{
		storage:  store,
		cacheTTL: collection.DefaultCacheTTL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = pipeline.NewCache(s.cacheTTL)
	return s
}

// Close drops the cached collections.
func (s *Server) Close() {
	s.cache.Close()
}

// SetupRouter configures the Gin router with all routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.Use(PrometheusMiddleware())
	router.Use(cors.New(s.corsConfig()))

	router.GET("/health", s.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/news", s.HandleNews)
		v1.GET("/recent", s.HandleListRecent)
		v1.POST("/recent", s.HandleAddRecent)
		v1.DELETE("/recent", s.HandleClearRecent)
		v1.GET("/sidebar", s.HandleSidebar)
	}

	router.POST("/api/web-vitals", s.HandleRecordVital)
	router.GET("/api/web-vitals", s.HandleListVitals)

	return router
}

func (s *Server) corsConfig() cors.Config {
	config := cors.DefaultConfig()
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}

	if len(s.corsOrigins) == 0 || (len(s.corsOrigins) == 1 && s.corsOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.corsOrigins
		config.AllowCredentials = true
	}
	return config
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// browserID returns the caller's browser id, minting one and setting the
// cookie when the request carries none.
func (s *Server) browserID(c *gin.Context) string {
	if id, err := c.Cookie(BrowserCookie); err == nil && id != "" {
		return id
	}

	id := newBrowserID()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(BrowserCookie, id, browserCookieMaxAge, "/", "", false, true)
	return id
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
