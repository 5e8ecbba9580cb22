// ABOUTME: Configuration loading and parsing for coven-account
// ABOUTME: Reads YAML or TOML with environment variable expansion, defaults, and validation

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Session backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Trace exporters
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Defaults applied when a field is omitted
const (
	DefaultHTTPAddr      = "127.0.0.1:8080"
	DefaultSessionTTL    = 24 * time.Hour
	DefaultSweepInterval = 10 * time.Minute
	DefaultRedisPrefix   = "coven-account:"
	DefaultRegion        = "US"
	DefaultServiceName   = "coven-account"
)

// Config represents the complete coven-account configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Sessions SessionsConfig `yaml:"sessions" toml:"sessions"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Accounts AccountsConfig `yaml:"accounts" toml:"accounts"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing" toml:"tracing"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	// BaseURL prefixes the links in serialized documents
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// SessionsConfig selects and tunes the user session store
type SessionsConfig struct {
	Backend string      `yaml:"backend" toml:"backend"`
	Redis   RedisConfig `yaml:"redis" toml:"redis"`

	TTL           time.Duration `yaml:"-" toml:"-"`
	SweepInterval time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	TTLRaw           string `yaml:"ttl" toml:"ttl"`
	SweepIntervalRaw string `yaml:"sweep_interval" toml:"sweep_interval"`
}

// RedisConfig holds the Redis connection used by the redis session backend
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Prefix   string `yaml:"prefix" toml:"prefix"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// JWTSecret enables HS256 admin tokens when set
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
}

// AccountsConfig holds account creation settings
type AccountsConfig struct {
	BcryptCost    int    `yaml:"bcrypt_cost" toml:"bcrypt_cost"`
	DefaultRegion string `yaml:"default_region" toml:"default_region"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// TracingConfig selects where finished spans are exported
type TracingConfig struct {
	Exporter    string `yaml:"exporter" toml:"exporter"`
	ServiceName string `yaml:"service_name" toml:"service_name"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(expandEnvVars(string(data)), formatFor(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes, defaults and validates configuration text in the given
// format ("yaml" or "toml").
func Parse(text, format string) (*Config, error) {
	var cfg Config
	switch format {
	case "toml":
		if _, err := toml.Decode(text, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(text), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://" + c.Server.HTTPAddr
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")

	if c.Sessions.Backend == "" {
		c.Sessions.Backend = BackendSQLite
	}
	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = DefaultSessionTTL
	}
	if c.Sessions.SweepInterval == 0 {
		c.Sessions.SweepInterval = DefaultSweepInterval
	}
	if c.Sessions.Redis.Prefix == "" {
		c.Sessions.Redis.Prefix = DefaultRedisPrefix
	}

	if c.Accounts.DefaultRegion == "" {
		c.Accounts.DefaultRegion = DefaultRegion
	}
	c.Accounts.DefaultRegion = strings.ToUpper(c.Accounts.DefaultRegion)

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = ExporterNone
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q must be an absolute URL", c.Server.BaseURL)
	}

	switch c.Sessions.Backend {
	case BackendSQLite:
	case BackendRedis:
		if c.Sessions.Redis.Addr == "" {
			return fmt.Errorf("sessions.redis.addr is required when sessions.backend is redis")
		}
	default:
		return fmt.Errorf("sessions.backend must be %q or %q, got %q", BackendSQLite, BackendRedis, c.Sessions.Backend)
	}

	if c.Sessions.TTL < 0 || c.Sessions.SweepInterval < 0 {
		return fmt.Errorf("sessions durations must be positive")
	}

	// bcrypt accepts costs 4..31
	if c.Accounts.BcryptCost != 0 && (c.Accounts.BcryptCost < 4 || c.Accounts.BcryptCost > 31) {
		return fmt.Errorf("accounts.bcrypt_cost must be between 4 and 31, got %d", c.Accounts.BcryptCost)
	}

	if len(c.Auth.JWTSecret) > 0 && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	switch c.Tracing.Exporter {
	case ExporterNone, ExporterStdout:
	default:
		return fmt.Errorf("tracing.exporter must be %q or %q, got %q", ExporterNone, ExporterStdout, c.Tracing.Exporter)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Sessions.TTLRaw != "" {
		cfg.Sessions.TTL, err = time.ParseDuration(cfg.Sessions.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing ttl %q: %w", cfg.Sessions.TTLRaw, err)
		}
	}

	if cfg.Sessions.SweepIntervalRaw != "" {
		cfg.Sessions.SweepInterval, err = time.ParseDuration(cfg.Sessions.SweepIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing sweep_interval %q: %w", cfg.Sessions.SweepIntervalRaw, err)
		}
	}

	return nil
}

// DefaultPath returns the config file location used when none is given.
// Priority: COVEN_ACCOUNT_CONFIG env var > XDG_CONFIG_HOME/coven/account.yaml > ~/.config/coven/account.yaml
func DefaultPath() string {
	if envPath := os.Getenv("COVEN_ACCOUNT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "account.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "coven", "account.yaml")
}

// DataDir returns the coven data directory.
// Priority: XDG_DATA_HOME/coven > ~/.local/share/coven
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "coven")
}
