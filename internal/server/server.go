package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cbcsl/cbcsl/internal/core/api"
	"github.com/cbcsl/cbcsl/internal/core/identifier"
	"github.com/cbcsl/cbcsl/internal/core/pipeline"
	"github.com/cbcsl/cbcsl/internal/core/playlist"
	"github.com/cbcsl/cbcsl/internal/core/version"
)

// Response is the standard API response structure
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// StreamInfo is the JSON form of a resolved stream.
type StreamInfo struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Bandwidth int               `json:"bandwidth,omitempty"`
}

// ItemInfo is the JSON form of one listing entry.
type ItemInfo struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	WatchURL string    `json:"watch_url"`
	AiredAt  time.Time `json:"aired_at"`
	Duration int64     `json:"duration_seconds,omitempty"`
	State    string    `json:"state"`
	When     string    `json:"when"`
}

// Server exposes the pipeline over HTTP so IPTV players can open CBC
// streams without running cbcsl themselves.
type Server struct {
	port     int
	apiKey   string
	pipeline *pipeline.Pipeline
	log      *zap.SugaredLogger
	server   *http.Server
	engine   *gin.Engine
}

// NewServer creates a new HTTP server
func NewServer(port int, apiKey string, p *pipeline.Pipeline, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		port:     port,
		apiKey:   apiKey,
		pipeline: p,
		log:      log,
	}
	s.engine = s.routes()
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     s.engine,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	return s
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.loggingMiddleware())
	if s.apiKey != "" {
		engine.Use(s.authMiddleware())
	}

	group := engine.Group("/api")
	group.GET("/health", s.handleHealth)
	group.GET("/resolve", s.handleResolve)
	group.GET("/live", s.handleListing(true))
	group.GET("/replays", s.handleListing(false))

	engine.GET("/play/:id", s.handlePlay)
	engine.GET("/live.m3u", s.handlePlaylist)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "not found",
		})
	})
	return engine
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Infow("starting cbcsl server", "port", s.port, "backend", s.pipeline.Client.Name())
	if s.apiKey != "" {
		s.log.Infow("API key authentication enabled")
	}

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Middleware

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Health endpoint doesn't require auth
		if c.Request.URL.Path == "/api/health" {
			c.Next()
			return
		}

		// Players opening /live.m3u entries cannot set headers
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("key")
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, Response{
				Code:    401,
				Data:    nil,
				Message: "invalid or missing API key",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"status":  "ok",
			"version": version.Version,
			"backend": s.pipeline.Client.Name(),
		},
		Message: "everything is good",
	})
}

func (s *Server) handleResolve(c *gin.Context) {
	input := c.Query("id")
	if input == "" {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: "id is required",
		})
		return
	}

	res, err := s.pipeline.Resolve(c.Request.Context(), input)
	if err != nil {
		s.fail(c, input, err)
		return
	}

	info := StreamInfo{ID: res.ID, URL: res.URL, Headers: res.Headers}
	if res.Variant != nil {
		info.Bandwidth = res.Variant.Bandwidth
	}
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    info,
		Message: "resolved",
	})
}

// handlePlay redirects to the stream so players can use /play/:id as a
// stable channel URL.
func (s *Server) handlePlay(c *gin.Context) {
	id := c.Param("id")
	res, err := s.pipeline.Resolve(c.Request.Context(), id)
	if err != nil {
		s.fail(c, id, err)
		return
	}
	c.Redirect(http.StatusFound, res.URL)
}

func (s *Server) handleListing(live bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := s.pipeline.Entries(c.Request.Context(), live)
		if err != nil {
			s.fail(c, "", err)
			return
		}

		items := make([]ItemInfo, len(entries))
		for i, e := range entries {
			items[i] = ItemInfo{
				ID:       e.Item.ID,
				Title:    e.Item.Title,
				WatchURL: api.WatchURL(s.pipeline.Client, e.Item.ID),
				AiredAt:  e.Item.AiredAt,
				Duration: int64(e.Item.Duration / time.Second),
				State:    e.State.Kind.String(),
				When:     e.State.When,
			}
		}
		c.JSON(http.StatusOK, Response{
			Code:    200,
			Data:    items,
			Message: fmt.Sprintf("%d items", len(items)),
		})
	}
}

// handlePlaylist renders the live listing as an extended M3U whose entries
// point back at /play/:id. The referrer and user agent travel as VLC
// options since the redirect target checks them.
func (s *Server) handlePlaylist(c *gin.Context) {
	entries, err := s.pipeline.Entries(c.Request.Context(), true)
	if err != nil {
		s.fail(c, "", err)
		return
	}

	base := baseURL(c.Request)
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "#EXTINF:-1 tvg-id=%q group-title=%q,%s\n", e.Item.ID, e.State.Kind.String(), e.Item.Title)
		fmt.Fprintf(&b, "#EXTVLCOPT:http-referrer=%s\n", api.WatchURL(s.pipeline.Client, e.Item.ID))
		fmt.Fprintf(&b, "#EXTVLCOPT:http-user-agent=%s\n", api.UserAgent)
		b.WriteString(s.playURL(base, e.Item.ID))
		b.WriteString("\n")
	}

	c.Data(http.StatusOK, "audio/x-mpegurl", []byte(b.String()))
}

func (s *Server) playURL(base, id string) string {
	u := base + "/play/" + url.PathEscape(id)
	if s.apiKey != "" {
		u += "?key=" + url.QueryEscape(s.apiKey)
	}
	return u
}

// fail maps pipeline errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, input string, err error) {
	status := http.StatusInternalServerError
	var (
		upstream *api.UpstreamError
		schema   *api.SchemaError
	)
	switch {
	case errors.Is(err, identifier.ErrInvalid):
		status = http.StatusBadRequest
	case errors.As(err, &upstream), errors.As(err, &schema), errors.Is(err, playlist.ErrNoVariants):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		status = 499
	}

	s.log.Warnw("request failed", "input", input, "status", status, "error", err)
	c.JSON(status, Response{
		Code:    status,
		Data:    nil,
		Message: err.Error(),
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
