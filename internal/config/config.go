// Package config loads nhutils settings from environment variables, with
// an optional .env file, and validates them on startup.
package config

import (
	"path/filepath"
	"time"
)

// Config holds all nhutils configuration.
// Command-line flags override these values.
type Config struct {
	Cache   CacheConfig
	Source  SourceConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// CacheConfig holds the local artifact cache settings.
type CacheConfig struct {
	// Dir is the cache root (default: downloaded)
	Dir string `env:"NHUTILS_CACHE_DIR" default:"downloaded"`

	// Ledger is the SQLite ledger path (default: <Dir>/ledger.db)
	Ledger string `env:"NHUTILS_LEDGER"`

	// KeepRaw keeps downloaded XPT payloads beside the artifacts (default: true)
	KeepRaw bool `env:"NHUTILS_KEEP_RAW" default:"true"`
}

// SourceConfig holds where files and the catalog come from.
type SourceConfig struct {
	// BaseURL is the NHANES download root
	BaseURL string `env:"NHUTILS_BASE_URL" default:"https://wwwn.cdc.gov/Nchs/Nhanes/"`

	// Catalog is an optional catalog file (.yaml, .json or .cue).
	// The built-in catalog is used when empty.
	Catalog string `env:"NHUTILS_CATALOG"`

	// Timeout bounds one download (default: 5m)
	Timeout time.Duration `env:"NHUTILS_HTTP_TIMEOUT" default:"5m"`

	// UserAgent is sent with every download
	UserAgent string `env:"NHUTILS_USER_AGENT" default:"nhutils"`
}

// ServerConfig holds `nhutils serve` settings.
type ServerConfig struct {
	// Addr is the listen address (default: :8080)
	Addr string `env:"SERVER_ADDR" envAlt:"NHUTILS_ADDR" default:":8080"`

	// ReadHeaderTimeout bounds reading request headers (default: 10s)
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" default:"10s"`

	// ShutdownTimeout is how long in-flight requests may finish (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// LedgerPath returns the ledger location, defaulting to a file in the
// cache root.
func (c *Config) LedgerPath() string {
	if c.Cache.Ledger != "" {
		return c.Cache.Ledger
	}
	return filepath.Join(c.Cache.Dir, "ledger.db")
}
