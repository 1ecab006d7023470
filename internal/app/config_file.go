package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	Addr   string `yaml:"addr" json:"addr"`
	DBPath string `yaml:"db" json:"db"`

	LLM struct {
		BaseURL   string        `yaml:"base" json:"base"`
		Model     string        `yaml:"model" json:"model"`
		APIKey    string        `yaml:"key" json:"key"`
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
		Preflight bool          `yaml:"preflight" json:"preflight"`
	} `yaml:"llm" json:"llm"`

	Fetch struct {
		Timeout      time.Duration `yaml:"timeout" json:"timeout"`
		BlockedHosts []string      `yaml:"blockedHosts" json:"blockedHosts"`
	} `yaml:"fetch" json:"fetch"`

	OCR struct {
		Engine            string `yaml:"engine" json:"engine"`
		TesseractPath     string `yaml:"tesseractPath" json:"tesseractPath"`
		TesseractLang     string `yaml:"tesseractLang" json:"tesseractLang"`
		VisionCredentials string `yaml:"visionCredentials" json:"visionCredentials"`
	} `yaml:"ocr" json:"ocr"`

	Server struct {
		AllowOrigins   []string `yaml:"allowOrigins" json:"allowOrigins"`
		MaxUploadBytes int64    `yaml:"maxUploadBytes" json:"maxUploadBytes"`
	} `yaml:"server" json:"server"`

	Export struct {
		FontPath string `yaml:"font" json:"font"`
	} `yaml:"export" json:"export"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays file values onto fields still unset in cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}
	str(&cfg.Addr, fc.Addr)
	str(&cfg.DBPath, fc.DBPath)
	str(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	str(&cfg.LLMModel, fc.LLM.Model)
	str(&cfg.LLMAPIKey, fc.LLM.APIKey)
	dur(&cfg.LLMTimeout, fc.LLM.Timeout)
	cfg.LLMPreflight = cfg.LLMPreflight || fc.LLM.Preflight

	dur(&cfg.FetchTimeout, fc.Fetch.Timeout)
	if cfg.BlockedHosts == nil && fc.Fetch.BlockedHosts != nil {
		cfg.BlockedHosts = fc.Fetch.BlockedHosts
	}

	str(&cfg.OCREngine, fc.OCR.Engine)
	str(&cfg.TesseractPath, fc.OCR.TesseractPath)
	str(&cfg.TesseractLang, fc.OCR.TesseractLang)
	str(&cfg.VisionCredentials, fc.OCR.VisionCredentials)

	if cfg.AllowOrigins == nil && fc.Server.AllowOrigins != nil {
		cfg.AllowOrigins = fc.Server.AllowOrigins
	}
	if cfg.MaxUploadBytes == 0 && fc.Server.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = fc.Server.MaxUploadBytes
	}
	str(&cfg.PDFFontPath, fc.Export.FontPath)

	str(&cfg.CacheDir, fc.Cache.Dir)
	dur(&cfg.CacheMaxAge, fc.Cache.MaxAge)
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	cfg.CacheStrictPerms = cfg.CacheStrictPerms || fc.Cache.StrictPerms
	cfg.Verbose = cfg.Verbose || fc.Verbose
}
