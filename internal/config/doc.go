// Package config handles configuration loading for coven-account.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path given with --config
//  2. Path from COVEN_ACCOUNT_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/coven/account.yaml (or ~/.config/coven/account.yaml)
//
// Files ending in .toml are decoded as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${COVEN_ACCOUNT_JWT_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Example
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	  base_url: "https://accounts.example.com"
//
//	database:
//	  path: "/var/lib/coven/account.db"
//
//	sessions:
//	  backend: "sqlite"        # or "redis"
//	  ttl: "24h"
//	  sweep_interval: "10m"
//	  redis:
//	    addr: "localhost:6379"
//	    prefix: "coven-account:"
//
//	accounts:
//	  bcrypt_cost: 10
//	  default_region: "US"
//
//	logging:
//	  level: "info"            # debug, info, warn, error
//	  format: "text"           # text or json
//
//	tracing:
//	  exporter: "none"         # none or stdout
//	  service_name: "coven-account"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax ("30s", "10m", "24h").
package config
