package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Routing snapshots. Exactly one is active per process.
const (
	RoutesAuth     = "auth"
	RoutesGreeting = "greeting"
)

// Defaults applied by Validate when a value is left empty.
const (
	DefaultAPIPrefix       = "/api"
	DefaultBackendTimeout  = "15s"
	DefaultTokenStorageKey = "sfp-acim-token-jwt"
	DefaultTokenMaxAge     = "720h"
	DefaultTimezone        = "America/Sao_Paulo"
	DefaultServiceName     = "authportal"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Backend   BackendConfig   `koanf:"backend"`
	Token     TokenConfig     `koanf:"token"`
	Dialog    DialogConfig    `koanf:"dialog"`
	Journal   JournalConfig   `koanf:"journal"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	Mode           string `koanf:"mode"`
	CSRFSecret     string `koanf:"csrf_secret"`
	Timeout        string `koanf:"timeout"`
	Routes         string `koanf:"routes"`
	TrustRequestID bool   `koanf:"trust_request_id"`
}

// BackendConfig describes the API the portal talks to.
type BackendConfig struct {
	BaseURL   string `koanf:"base_url"`
	APIPrefix string `koanf:"api_prefix"`
	Timeout   string `koanf:"timeout"`
}

// TokenConfig controls where the session token is kept in the browser.
type TokenConfig struct {
	StorageKey string `koanf:"storage_key"`
	MaxAge     string `koanf:"max_age"`
}

// DialogConfig controls how synthesized error dialogs are stamped.
type DialogConfig struct {
	Timezone string `koanf:"timezone"`
}

// JournalConfig controls the persistent incident journal.
type JournalConfig struct {
	Enabled  bool           `koanf:"enabled"`
	Database DatabaseConfig `koanf:"database"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// TelemetryConfig controls OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator; single underscores stay part of the key name.
// For example, APP__BACKEND__BASE_URL overrides backend.base_url and
// APP__JOURNAL__DATABASE__POOL__MAX_IDLE_CONNS overrides
// journal.database.pool.max_idle_conns.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every section, fills defaults and normalizes values.
func (c *Config) Validate() error {
	for _, validate := range []func() error{
		c.validateServer,
		c.validateBackend,
		c.validateToken,
		c.validateDialog,
		c.validateJournal,
		c.validateTelemetry,
		c.validateLog,
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	routes := strings.ToLower(strings.TrimSpace(c.Server.Routes))
	switch routes {
	case "":
		routes = RoutesAuth
	case RoutesAuth, RoutesGreeting:
	default:
		return fmt.Errorf("invalid server.routes %q: must be one of %q, %q", c.Server.Routes, RoutesAuth, RoutesGreeting)
	}
	c.Server.Routes = routes

	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	if c.Server.Timeout != "" {
		if _, err := positiveDuration("server.timeout", c.Server.Timeout); err != nil {
			return err
		}
	}

	if c.Server.Mode == gin.ReleaseMode {
		if secret := strings.TrimSpace(c.Server.CSRFSecret); secret != "" && CountSecretClasses(secret) < 3 {
			return fmt.Errorf("server.csrf_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
		}
	}
	return nil
}

func (c *Config) validateBackend() error {
	raw := strings.TrimSpace(c.Backend.BaseURL)
	if raw == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid backend.base_url %q: %w", c.Backend.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend.base_url %q: must be an absolute http(s) URL", c.Backend.BaseURL)
	}
	c.Backend.BaseURL = strings.TrimRight(raw, "/")

	prefix := strings.TrimSpace(c.Backend.APIPrefix)
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("invalid backend.api_prefix %q: must start with '/'", c.Backend.APIPrefix)
	}
	c.Backend.APIPrefix = prefix

	c.Backend.Timeout = strings.TrimSpace(c.Backend.Timeout)
	if c.Backend.Timeout == "" {
		c.Backend.Timeout = DefaultBackendTimeout
	}
	_, err = positiveDuration("backend.timeout", c.Backend.Timeout)
	return err
}

func (c *Config) validateToken() error {
	key := strings.TrimSpace(c.Token.StorageKey)
	if key == "" {
		key = DefaultTokenStorageKey
	}
	if strings.ContainsAny(key, " ;,=\t\r\n\"") {
		return fmt.Errorf("invalid token.storage_key %q: not a valid cookie name", c.Token.StorageKey)
	}
	c.Token.StorageKey = key

	c.Token.MaxAge = strings.TrimSpace(c.Token.MaxAge)
	if c.Token.MaxAge == "" {
		c.Token.MaxAge = DefaultTokenMaxAge
	}
	_, err := positiveDuration("token.max_age", c.Token.MaxAge)
	return err
}

func (c *Config) validateDialog() error {
	tz := strings.TrimSpace(c.Dialog.Timezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid dialog.timezone %q: %w", c.Dialog.Timezone, err)
	}
	c.Dialog.Timezone = tz
	return nil
}

func (c *Config) validateJournal() error {
	if !c.Journal.Enabled {
		return nil
	}
	db := &c.Journal.Database

	switch db.Driver {
	case "sqlite":
		path := strings.TrimSpace(db.SQLite.Path)
		if path == "" {
			return fmt.Errorf("journal.database.sqlite.path is required when driver is sqlite")
		}
		db.SQLite.Path = path
	case "postgres":
		if err := c.validatePostgres(&db.Postgres); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid journal.database.driver %q: must be one of %q, %q", db.Driver, "sqlite", "postgres")
	}

	db.Pool.ConnMaxLifetime = strings.TrimSpace(db.Pool.ConnMaxLifetime)
	if lm := db.Pool.ConnMaxLifetime; lm != "" {
		if _, err := positiveDuration("journal.database.pool.conn_max_lifetime", lm); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validatePostgres(pg *PostgresConfig) error {
	pg.Host = strings.TrimSpace(pg.Host)
	if pg.Host == "" {
		return fmt.Errorf("journal.database.postgres.host is required when driver is postgres")
	}
	if pg.Port < 1 || pg.Port > 65535 {
		return fmt.Errorf("invalid journal.database.postgres.port %d: must be between 1 and 65535", pg.Port)
	}
	pg.User = strings.TrimSpace(pg.User)
	if pg.User == "" {
		return fmt.Errorf("journal.database.postgres.user is required when driver is postgres")
	}
	pg.DBName = strings.TrimSpace(pg.DBName)
	if pg.DBName == "" {
		return fmt.Errorf("journal.database.postgres.dbname is required when driver is postgres")
	}

	pg.SSLMode = strings.TrimSpace(pg.SSLMode)
	switch pg.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid journal.database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", pg.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
	}
	if c.Server.Mode == gin.ReleaseMode {
		switch pg.SSLMode {
		case "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid journal.database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", pg.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
		}
	}
	return nil
}

func (c *Config) validateTelemetry() error {
	t := &c.Telemetry
	t.ServiceName = strings.TrimSpace(t.ServiceName)
	if t.ServiceName == "" {
		t.ServiceName = DefaultServiceName
	}
	if !t.Enabled {
		return nil
	}
	t.Endpoint = strings.TrimSpace(t.Endpoint)
	if t.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		return fmt.Errorf("invalid telemetry.sample_ratio %v: must be between 0 and 1", t.SampleRatio)
	}
	return nil
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}
	return nil
}

// BackendTimeout returns backend.timeout as a duration. Call after Validate.
func (c *Config) BackendTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Backend.Timeout)
	return d
}

// TokenMaxAge returns token.max_age as a duration. Call after Validate.
func (c *Config) TokenMaxAge() time.Duration {
	d, _ := time.ParseDuration(c.Token.MaxAge)
	return d
}

// DialogLocation loads dialog.timezone. Call after Validate.
func (c *Config) DialogLocation() (*time.Location, error) {
	return time.LoadLocation(c.Dialog.Timezone)
}

func positiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be greater than 0", name, value)
	}
	return d, nil
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) appear in secret.
func CountSecretClasses(secret string) int {
	var lower, upper, digit, symbol int
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			lower = 1
		case unicode.IsUpper(r):
			upper = 1
		case unicode.IsDigit(r):
			digit = 1
		default:
			symbol = 1
		}
	}
	return lower + upper + digit + symbol
}
