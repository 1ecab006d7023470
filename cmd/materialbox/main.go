package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/materialbox/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath   string
		envFiles     string
		showVersion  bool
		allowOrigins string
		blockedHosts string
		cfg          app.Config
	)

	flag.StringVar(&configPath, "config", os.Getenv("MATERIALBOX_CONFIG"), "Path to a YAML or JSON config file")
	flag.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files loaded before reading the environment")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&cfg.Addr, "addr", "", "Listen address (default :8000)")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database path (default materials.db)")
	flag.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&cfg.LLMModel, "llm.model", "", "Model name")
	flag.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the model endpoint")
	flag.DurationVar(&cfg.LLMTimeout, "llm.timeout", 0, "Timeout per model call (default 60s)")
	flag.BoolVar(&cfg.LLMPreflight, "llm.preflight", false, "List models at startup and warn when the configured one is missing")
	flag.DurationVar(&cfg.FetchTimeout, "fetch.timeout", 0, "Timeout per URL fetch (default 10s)")
	flag.StringVar(&blockedHosts, "fetch.blocked", "", "Comma-separated host substrings that are never fetched")
	flag.StringVar(&cfg.OCREngine, "ocr.engine", "", "OCR engine: auto, tesseract, vision or none")
	flag.StringVar(&cfg.TesseractPath, "ocr.tesseract", "", "Path to the tesseract binary")
	flag.StringVar(&cfg.TesseractLang, "ocr.lang", "", "Tesseract languages (default chi_sim+eng)")
	flag.StringVar(&cfg.VisionCredentials, "ocr.vision.credentials", "", "Google Cloud Vision credentials file or inline JSON")
	flag.StringVar(&allowOrigins, "cors.origins", "", "Comma-separated CORS origins; * allows any")
	flag.Int64Var(&cfg.MaxUploadBytes, "upload.maxBytes", 0, "Maximum multipart upload size in bytes")
	flag.StringVar(&cfg.PDFFontPath, "pdf.font", "", "UTF-8 TrueType font for PDF export; required to export Chinese cards (e.g. NotoSansSC-Regular.ttf)")
	flag.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory for fetched pages and analyses; empty disables")
	flag.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this at startup; 0 disables")
	flag.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory at startup")
	flag.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.Parse()

	if showVersion {
		fmt.Printf("materialbox %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	if s := strings.TrimSpace(allowOrigins); s != "" {
		cfg.AllowOrigins = app.SplitList(s)
	}
	if s := strings.TrimSpace(blockedHosts); s != "" {
		cfg.BlockedHosts = app.SplitList(s)
	}

	if err := loadConfig(&cfg, configPath, envFiles); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// loadConfig layers env files, environment and the config file under the
// values already set from flags.
func loadConfig(cfg *app.Config, configPath, envFiles string) error {
	if err := app.LoadEnvFiles(app.SplitList(envFiles)...); err != nil {
		return err
	}
	app.ApplyEnvToConfig(cfg)
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		app.ApplyFileConfig(cfg, fc)
	}
	app.ApplyDefaults(cfg)
	return nil
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return a.Run(ctx)
}
