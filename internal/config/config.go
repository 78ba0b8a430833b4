// Package config loads the generator YAML file: generation parameters,
// storage and the websocket service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungeongen/internal/database"
	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

// Config is the whole generator configuration file.
type Config struct {
	Generation dungeon.Params `yaml:"generation"`
	Storage    StorageConfig  `yaml:"storage"`
	Server     ServerConfig   `yaml:"server"`
}

// StorageConfig decides whether and where generated dungeons are saved.
type StorageConfig struct {
	// Enabled turns persistence on. When false nothing touches the database.
	Enabled         bool `yaml:"enabled"`
	database.Config `yaml:",inline"`
}

// ServerConfig holds the generation service settings.
type ServerConfig struct {
	Listen          string            `yaml:"listen"`
	WebSocket       WebSocketConfig   `yaml:"websocket"`
	Connections     ConnectionsConfig `yaml:"connections"`
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum inbound WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns the reference generation settings, SQLite storage
// switched off and a same-origin service on :4000.
func DefaultConfig() *Config {
	return &Config{
		Generation: dungeon.DefaultParams(),
		Storage: StorageConfig{
			Enabled: false,
			Config:  database.DefaultConfig("data/dungeons.db"),
		},
		Server: ServerConfig{
			Listen: ":4000",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 4,
				MaxTotal: 64,
			},
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return config, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, config); err != nil {
				return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(config); err != nil {
		return config, err
	}
	return config, nil
}

// applyEnv overrides file values from DUNGEON_* variables.
func applyEnv(config *Config) error {
	if seed := os.Getenv("DUNGEON_SEED"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("DUNGEON_SEED: %w", err)
		}
		config.Generation.Seed = v
	}
	if random := os.Getenv("DUNGEON_RANDOM_SEED"); random != "" {
		v, err := strconv.ParseBool(random)
		if err != nil {
			return fmt.Errorf("DUNGEON_RANDOM_SEED: %w", err)
		}
		config.Generation.RandomSeed = v
	}
	if driver := os.Getenv("DUNGEON_DB_DRIVER"); driver != "" {
		config.Storage.Driver = strings.ToLower(driver)
		config.Storage.Enabled = true
	}
	if path := os.Getenv("DUNGEON_SQLITE_PATH"); path != "" {
		config.Storage.SQLitePath = path
	}
	if listen := os.Getenv("DUNGEON_LISTEN"); listen != "" {
		config.Server.Listen = listen
	}
	return nil
}

// Validate checks the generation parameters and the storage driver.
func (c *Config) Validate() error {
	if err := c.Generation.Validate(); err != nil {
		return err
	}
	if c.Storage.Enabled {
		switch database.DialectType(c.Storage.Driver) {
		case database.DialectSQLite, database.DialectPostgres:
		default:
			return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
		}
	}
	return nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	// If no origins configured, enforce same-origin policy
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means a non-browser client
	}

	// Extract host from origin URL (e.g., "http://localhost:3000" -> "localhost:3000")
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
