// Package app assembles the service from its configuration and runs the
// HTTP listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/materialbox/internal/cache"
	"github.com/hyperifyio/materialbox/internal/export"
	"github.com/hyperifyio/materialbox/internal/extract"
	"github.com/hyperifyio/materialbox/internal/fetch"
	"github.com/hyperifyio/materialbox/internal/ingest"
	"github.com/hyperifyio/materialbox/internal/llm"
	"github.com/hyperifyio/materialbox/internal/normalize"
	"github.com/hyperifyio/materialbox/internal/ocr"
	"github.com/hyperifyio/materialbox/internal/server"
	"github.com/hyperifyio/materialbox/internal/store"
)

// App owns the long-lived resources of a running service.
type App struct {
	cfg    Config
	store  *store.Store
	ocr    ocr.Recognizer
	server *server.Server
}

// New builds every component from cfg. Defaults are applied to a copy.
func New(ctx context.Context, cfg Config) (*App, error) {
	ApplyDefaults(&cfg)

	httpClient := newHTTPClient()

	oc := openai.DefaultConfig(cfg.LLMAPIKey)
	oc.BaseURL = cfg.LLMBaseURL
	oc.HTTPClient = httpClient
	provider := &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(oc)}
	if cfg.LLMAPIKey == "" {
		log.Warn().Msg("no LLM API key configured; model-backed operations will return fallbacks")
	} else if cfg.LLMPreflight {
		preflight(ctx, provider, cfg.LLMModel)
	}
	caller := &llm.Caller{Client: provider, Model: cfg.LLMModel, APIKey: cfg.LLMAPIKey, Timeout: cfg.LLMTimeout}

	var pages *cache.PageCache
	var replies *cache.ReplyCache
	if cfg.CacheDir != "" {
		httpDir := filepath.Join(cfg.CacheDir, "http")
		llmDir := filepath.Join(cfg.CacheDir, "llm")
		prepareCacheDir(httpDir, cfg)
		prepareCacheDir(llmDir, cfg)
		pages = &cache.PageCache{Dir: httpDir, StrictPerms: cfg.CacheStrictPerms}
		replies = &cache.ReplyCache{Dir: llmDir, StrictPerms: cfg.CacheStrictPerms}
	}

	recognizer, err := ocr.New(ctx, ocr.Options{
		Engine:            cfg.OCREngine,
		TesseractPath:     cfg.TesseractPath,
		TesseractLang:     cfg.TesseractLang,
		VisionCredentials: cfg.VisionCredentials,
	})
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	if recognizer != nil {
		log.Info().Str("engine", recognizer.Name()).Msg("ocr ready")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		closeRecognizer(recognizer)
		return nil, err
	}

	fetcher := &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         fetch.BrowserUserAgent,
		PerRequestTimeout: cfg.FetchTimeout,
		Cache:             pages,
	}
	norm := &normalize.Normalizer{LLM: caller, Model: cfg.LLMModel, Cache: replies}
	svc := &ingest.Service{
		Extractor:  &extract.Extractor{OCR: recognizer},
		URLs:       &extract.URLReader{Fetch: fetcher, BlockedHosts: cfg.BlockedHosts},
		Normalizer: norm,
		Store:      st,
	}
	srv := server.New(svc, norm, st, server.Options{
		AllowOrigins:   cfg.AllowOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Export:         export.Options{FontPath: cfg.PDFFontPath},
		Version:        BuildVersion,
		Commit:         BuildCommit,
	})

	log.Info().Str("db", cfg.DBPath).Str("model", cfg.LLMModel).Str("base_url", cfg.LLMBaseURL).Msg("service assembled")
	return &App{cfg: cfg, store: st, ocr: recognizer, server: srv}, nil
}

func prepareCacheDir(dir string, cfg Config) {
	if cfg.CacheClear {
		if err := cache.ClearDir(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cache clear failed")
		}
		return
	}
	if cfg.CacheMaxAge > 0 {
		n, err := cache.PurgeByAge(dir, cfg.CacheMaxAge)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cache purge failed")
			return
		}
		if n > 0 {
			log.Info().Int("removed", n).Str("dir", dir).Msg("purged stale cache entries")
		}
	}
}

// preflight lists models and logs whether the configured one is served.
// Failures never block startup.
func preflight(ctx context.Context, lister llm.ModelLister, model string) {
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(pctx)
	if err != nil {
		log.Warn().Err(err).Msg("model preflight failed")
		return
	}
	for _, m := range models.Models {
		if m.ID == model {
			log.Debug().Str("model", model).Msg("model available")
			return
		}
	}
	log.Warn().Str("model", model).Int("listed", len(models.Models)).Msg("configured model not listed by provider")
}

// Handler exposes the HTTP surface, mainly for tests.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	hs := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.cfg.Addr).Msg("listening")
		errc <- hs.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := hs.Shutdown(sctx); err != nil {
		return err
	}
	return nil
}

// Close releases the database and the OCR engine.
func (a *App) Close() {
	if a == nil {
		return
	}
	closeRecognizer(a.ocr)
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}
}

func closeRecognizer(r ocr.Recognizer) {
	if c, ok := r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close ocr")
		}
	}
}
