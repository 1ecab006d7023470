package app

import "time"

// Config holds the service configuration after flags, environment, config
// file and defaults have been layered, in that order of precedence.
type Config struct {
	// HTTP
	Addr           string
	AllowOrigins   []string
	MaxUploadBytes int64

	// Storage
	DBPath string

	// Model endpoint
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	LLMTimeout time.Duration
	// LLMPreflight lists models at startup and logs the outcome.
	LLMPreflight bool

	// URL reading
	FetchTimeout time.Duration
	BlockedHosts []string

	// OCR
	OCREngine         string
	TesseractPath     string
	TesseractLang     string
	VisionCredentials string

	// Export
	PDFFontPath string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// Defaults used when no layer supplies a value.
const (
	DefaultAddr       = ":8000"
	DefaultDBPath     = "materials.db"
	DefaultLLMBaseURL = "https://ap-gate-z0.qiniuapi.com/v1"
	DefaultLLMModel   = "deepseek/deepseek-v3.2-251201"
	DefaultOCREngine  = "auto"
)

// ApplyDefaults fills every field still unset.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = DefaultLLMBaseURL
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultLLMModel
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.BlockedHosts == nil {
		cfg.BlockedHosts = []string{"xiaohongshu"}
	}
	if cfg.OCREngine == "" {
		cfg.OCREngine = DefaultOCREngine
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
}
