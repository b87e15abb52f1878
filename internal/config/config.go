// Package config handles loading and resolving bbcompare configuration.
// Resolution order (later layers win):
//  1. built-in defaults
//  2. config.json in the current working directory
//  3. environment variables (BROADBAND_BASE_URL, BBCOMPARE_*)
//  4. CLI flags (--base-url and friends, applied by the cmd package)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	DefaultConfigFile  = "config.json"
	DefaultBaseURL     = "https://broadband.justmovein.co/packages"
	DefaultFormat      = "table"
	DefaultLogLevel    = "info"
	DefaultListenAddr  = ":8080"
	DefaultConcurrency = 8
	DefaultRate        = 5.0
	DefaultBurst       = 10
	DefaultCacheSize   = 1024

	EnvBaseURL        = "BROADBAND_BASE_URL"
	EnvDBPath         = "BBCOMPARE_DB_PATH"
	EnvLogLevel       = "BBCOMPARE_LOG_LEVEL"
	EnvInteractionLog = "BBCOMPARE_INTERACTION_LOG"
)

// Formats lists the accepted values for default_format and --format.
var Formats = []string{"table", "json", "jsonl", "yaml", "md", "url"}

// File is the on-disk representation of config.json.
type File struct {
	BaseURL        string  `json:"base_url"`
	DefaultFormat  string  `json:"default_format"`
	DBPath         string  `json:"db_path"`
	LogLevel       string  `json:"log_level"`
	InteractionLog string  `json:"interaction_log"`
	ListenAddr     string  `json:"listen_addr"`
	Rate           float64 `json:"rate"`
	Burst          int     `json:"burst"`
	CacheSize      *int    `json:"cache_size,omitempty"`
	Concurrency    int     `json:"concurrency"`
	RecordHistory  *bool   `json:"record_history,omitempty"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	BaseURL        string
	Format         string
	DBPath         string
	LogLevel       string
	InteractionLog string // JSONL interaction log path; empty disables it
	ListenAddr     string
	Rate           float64 // per-client requests per second for `serve`
	Burst          int
	CacheSize      int // result cache entries; 0 disables the cache
	Concurrency    int
	RecordHistory  bool
	ConfigPath     string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from defaults, config.json and the
// environment. flagBaseURL is the value of --base-url (empty if not set).
func Load(flagBaseURL string) (*Config, error) {
	cfg := &Config{
		BaseURL:       DefaultBaseURL,
		Format:        DefaultFormat,
		LogLevel:      DefaultLogLevel,
		ListenAddr:    DefaultListenAddr,
		Rate:          DefaultRate,
		Burst:         DefaultBurst,
		CacheSize:     DefaultCacheSize,
		Concurrency:   DefaultConcurrency,
		RecordHistory: true,
	}

	// Layer 1: config.json (lowest priority)
	f, path, err := loadFile()
	switch {
	case err == nil:
		applyFile(cfg, f, path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// Layer 2: environment
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvInteractionLog); v != "" {
		cfg.InteractionLog = v
	}

	// Layer 3: CLI flag (highest priority)
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".bbcompare", "bbcompare.db")
		}
	}

	return cfg, nil
}

// Validate returns an error describing every setting that cannot work.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.BaseURL)
	switch {
	case c.BaseURL == "":
		errs = append(errs, errors.New("base_url is empty"))
	case err != nil:
		errs = append(errs, fmt.Errorf("base_url %q: %w", c.BaseURL, err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("base_url %q: scheme must be http or https", c.BaseURL))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("base_url %q: missing host", c.BaseURL))
	}
	if c.Format != "" && !slices.Contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("format %q: must be one of %s", c.Format, strings.Join(Formats, ", ")))
	}
	if c.Rate <= 0 {
		errs = append(errs, fmt.Errorf("rate must be positive, got %g", c.Rate))
	}
	if c.Burst < 1 {
		errs = append(errs, fmt.Errorf("burst must be at least 1, got %d", c.Burst))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	return errors.Join(errs...)
}

// loadFile attempts to read config.json from the current working directory.
// A missing file is reported with an error wrapping os.ErrNotExist.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s: %w", path, os.ErrNotExist)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// ReadFile parses the config.json at path; used by `config set`.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.InteractionLog != "" {
		cfg.InteractionLog = f.InteractionLog
	}
	if f.ListenAddr != "" {
		cfg.ListenAddr = f.ListenAddr
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.Burst > 0 {
		cfg.Burst = f.Burst
	}
	if f.CacheSize != nil {
		cfg.CacheSize = *f.CacheSize
	}
	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.RecordHistory != nil {
		cfg.RecordHistory = *f.RecordHistory
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `bbcompare config init`.
func Template() File {
	record := true
	cacheSize := DefaultCacheSize
	return File{
		BaseURL:       DefaultBaseURL,
		DefaultFormat: DefaultFormat,
		LogLevel:      DefaultLogLevel,
		ListenAddr:    DefaultListenAddr,
		Rate:          DefaultRate,
		Burst:         DefaultBurst,
		CacheSize:     &cacheSize,
		Concurrency:   DefaultConcurrency,
		RecordHistory: &record,
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
