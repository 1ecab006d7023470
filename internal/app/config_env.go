package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env. The LLM_* names win over
// the provider-specific QINIU_* names.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, keys ...string) {
		if *dst == "" {
			*dst = firstEnv(keys...)
		}
	}
	setStr(&cfg.Addr, "LISTEN_ADDR")
	setStr(&cfg.DBPath, "DB_PATH")
	setStr(&cfg.LLMBaseURL, "LLM_BASE_URL", "QINIU_BASE_URL")
	setStr(&cfg.LLMModel, "LLM_MODEL", "QINIU_MODEL_NAME")
	setStr(&cfg.LLMAPIKey, "LLM_API_KEY", "QINIU_API_KEY")
	setStr(&cfg.OCREngine, "OCR_ENGINE")
	setStr(&cfg.TesseractPath, "TESSERACT_PATH")
	setStr(&cfg.TesseractLang, "TESSERACT_LANG")
	setStr(&cfg.VisionCredentials, "GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS")
	setStr(&cfg.PDFFontPath, "PDF_FONT")
	setStr(&cfg.CacheDir, "CACHE_DIR")

	setDur := func(dst *time.Duration, key string) {
		if *dst != 0 {
			return
		}
		if s := firstEnv(key); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDur(&cfg.LLMTimeout, "LLM_TIMEOUT")
	setDur(&cfg.FetchTimeout, "FETCH_TIMEOUT")
	setDur(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	if cfg.BlockedHosts == nil {
		if s := firstEnv("BLOCKED_HOSTS"); s != "" {
			cfg.BlockedHosts = SplitList(s)
		}
	}
	if cfg.AllowOrigins == nil {
		if s := firstEnv("CORS_ORIGINS"); s != "" {
			cfg.AllowOrigins = SplitList(s)
		}
	}
	if cfg.MaxUploadBytes == 0 {
		if n, err := strconv.ParseInt(firstEnv("MAX_UPLOAD_BYTES"), 10, 64); err == nil && n > 0 {
			cfg.MaxUploadBytes = n
		}
	}

	setBool := func(dst *bool, key string) {
		if *dst {
			return
		}
		switch strings.ToLower(firstEnv(key)) {
		case "1", "true", "yes", "on":
			*dst = true
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.LLMPreflight, "LLM_PREFLIGHT")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
