// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Flow    FlowConfig
	Upload  UploadConfig
	Report  ReportConfig
	Catalog CatalogConfig
	CORS    CORSConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is disabled by default: a batch blocks on one flow call per row.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 2m)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"2m"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP / X-Forwarded-For
	// headers are believed. Empty trusts no one.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
}

// FlowConfig holds settings for the outbound workflow endpoint.
type FlowConfig struct {
	// URL receives one POST per spreadsheet row (required)
	URL string `env:"FLOW_URL"`

	// Timeout bounds a single flow call. Zero keeps the transport default (no timeout).
	Timeout time.Duration `env:"FLOW_TIMEOUT" default:"0s"`
}

// UploadConfig holds spreadsheet upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the number of batches allowed to run at once (default: 1).
	// Batches share one failure report path, so values above 1 let them race on it.
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long an upload waits for a batch slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// ReportConfig holds failure report settings.
type ReportConfig struct {
	// Path is the fixed location of the failure report workbook
	Path string `env:"REPORT_PATH" default:"/tmp/failures.xlsx"`
}

// CatalogConfig selects where the product map is loaded from.
// Precedence: database, then file, then the embedded default catalog.
type CatalogConfig struct {
	// File is a YAML or JSON product map
	File string `env:"PRODUCT_MAP_FILE"`

	// DatabaseURL is a PostgreSQL connection string for the products table
	DatabaseURL string `env:"PRODUCT_DB_URL" envAlt:"DATABASE_URL"`

	// Query must return (name, product_id) rows
	Query string `env:"PRODUCT_DB_QUERY" default:"SELECT name, product_id FROM products"`
}

// CORSConfig holds cross-origin settings for the upload page.
type CORSConfig struct {
	// AllowedOrigins is a comma-separated origin list; "*" allows any origin
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File enables rotating file output in addition to stdout
	File string `env:"LOG_FILE"`

	// MaxSizeMB is the size at which the log file is rotated (default: 100)
	MaxSizeMB int `env:"LOG_MAX_SIZE_MB" default:"100"`

	// MaxBackups is the number of rotated files kept (default: 5)
	MaxBackups int `env:"LOG_MAX_BACKUPS" default:"5"`

	// MaxAgeDays is how long rotated files are kept (default: 28)
	MaxAgeDays int `env:"LOG_MAX_AGE_DAYS" default:"28"`

	// Compress gzips rotated files
	Compress bool `env:"LOG_COMPRESS" default:"false"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
