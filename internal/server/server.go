// Package server exposes the material API over HTTP.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/materialbox/internal/export"
	"github.com/hyperifyio/materialbox/internal/ingest"
	"github.com/hyperifyio/materialbox/internal/store"
)

// Uploader runs the ingestion pipeline.
type Uploader interface {
	UploadFile(ctx context.Context, filename string, data []byte) (ingest.Result, error)
	UploadText(ctx context.Context, text, kind string) (ingest.Result, error)
}

// Assistant runs the prose operations.
type Assistant interface {
	Analyze(ctx context.Context, content string) string
	Imitate(ctx context.Context, sample string) string
	Chat(ctx context.Context, prompt string, system string) string
}

// Documents is the persisted document set.
type Documents interface {
	Get(ctx context.Context, id int64) (store.Document, bool, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f store.Filter) ([]store.Document, error)
}

// Options configures the HTTP surface.
type Options struct {
	// AllowOrigins lists CORS origins; "*" or empty allows any origin.
	AllowOrigins []string
	// MaxUploadBytes caps multipart uploads. Zero means 32 MiB.
	MaxUploadBytes int64
	// Export configures PDF rendering.
	Export  export.Options
	Version string
	Commit  string
}

// Server holds the router and its collaborators.
type Server struct {
	uploads   Uploader
	assistant Assistant
	docs      Documents
	opts      Options
	router    *gin.Engine
}

// New builds a Server with routes and middleware installed.
func New(uploads Uploader, assistant Assistant, docs Documents, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	r := gin.New()
	r.MaxMultipartMemory = opts.MaxUploadBytes
	r.Use(requestLogger(), gin.Recovery(), corsMiddleware(opts.AllowOrigins))
	s := &Server{
		uploads:   uploads,
		assistant: assistant,
		docs:      docs,
		opts:      opts,
		router:    r,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/upload", s.handleUploadFile)
	api.POST("/upload/text", s.handleUploadText)
	api.POST("/material/analyze", s.handleAnalyze)
	api.POST("/material/imitate", s.handleImitate)
	api.POST("/chat", s.handleChat)
	api.GET("/taxonomy", s.handleTaxonomy)

	api.GET("/documents", s.handleListDocuments)
	api.GET("/documents/:id", s.handleGetDocument)
	api.PUT("/documents/:id", s.handleUpdateDocument)
	api.DELETE("/documents/:id", s.handleDeleteDocument)
	api.GET("/documents/:id/export.pdf", s.handleExportPDF)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"},
		MaxAge:       12 * time.Hour,
	}
	var explicit []string
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" && o != "*" {
			explicit = append(explicit, o)
		}
	}
	if len(explicit) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = explicit
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		started := time.Now()
		c.Next()
		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(started)).
			Msg("http request")
	}
}
