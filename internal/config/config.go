// Package config loads the citygen YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/lawnchairsociety/citygen/internal/wfc"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the top-level citygen configuration.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
}

// GeneratorConfig holds defaults for a generation run.
type GeneratorConfig struct {
	// Dimensions is the side length of the square grid.
	Dimensions int `yaml:"dimensions"`

	// Seed for the random source. 0 picks a time-based seed.
	Seed int64 `yaml:"seed"`

	// MaxSteps caps collapse steps. 0 means dimensions².
	MaxSteps int `yaml:"max_steps"`

	// Propagation is "intersect" or "recompute".
	Propagation string `yaml:"propagation"`

	// StepIntervalMS paces collapses; 0 runs as fast as possible.
	StepIntervalMS int `yaml:"step_interval_ms"`

	// Tileset is a path to a tileset file. Empty selects the built-in city set.
	Tileset string `yaml:"tileset"`
}

// StepInterval returns the pacing interval as a duration.
func (g GeneratorConfig) StepInterval() time.Duration {
	return time.Duration(g.StepIntervalMS) * time.Millisecond
}

// PropagationPolicy parses the configured propagation policy.
func (g GeneratorConfig) PropagationPolicy() (wfc.Policy, error) {
	return wfc.ParsePolicy(g.Propagation)
}

// DatabaseConfig selects where run history is stored.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`

	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds"`
}

// ServerConfig holds settings for the live generation server.
type ServerConfig struct {
	Address   string          `yaml:"address"`
	WebSocket WebSocketConfig `yaml:"websocket"`

	// MaxConcurrentGenerations bounds simultaneous websocket runs.
	MaxConcurrentGenerations int `yaml:"max_concurrent_generations"`

	// MaxGenerationsPerIP bounds runs per client address. 0 means unlimited.
	MaxGenerationsPerIP int `yaml:"max_generations_per_ip"`

	// MaxDimensions rejects larger grids requested over HTTP.
	MaxDimensions int `yaml:"max_dimensions"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins lists origins allowed to connect. Empty enforces
	// same-origin; "*" allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum inbound message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a Config with working defaults.
func DefaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Dimensions:  16,
			Propagation: wfc.PolicyIntersect.String(),
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/citygen.db",
			Postgres: PostgresConfig{
				Host:                   "localhost",
				Port:                   5432,
				User:                   "citygen",
				Database:               "citygen",
				SSLMode:                "disable",
				MaxOpenConns:           25,
				MaxIdleConns:           5,
				ConnMaxLifetimeSeconds: 300,
			},
		},
		Server: ServerConfig{
			Address: ":4080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{},
				MaxMessageSize: 4096,
			},
			MaxConcurrentGenerations: 8,
			MaxGenerationsPerIP:      2,
			MaxDimensions:            64,
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(config)
	return config, nil
}

// applyEnv keeps secrets and deployment settings out of the YAML file
func applyEnv(c *Config) {
	if v := os.Getenv("CITYGEN_DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("CITYGEN_SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("CITYGEN_POSTGRES_HOST"); v != "" {
		c.Database.Postgres.Host = v
	}
	if v := os.Getenv("CITYGEN_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Postgres.Port = port
		}
	}
	if v := os.Getenv("CITYGEN_POSTGRES_USER"); v != "" {
		c.Database.Postgres.User = v
	}
	if v := os.Getenv("CITYGEN_POSTGRES_PASSWORD"); v != "" {
		c.Database.Postgres.Password = v
	}
	if v := os.Getenv("CITYGEN_POSTGRES_DATABASE"); v != "" {
		c.Database.Postgres.Database = v
	}
	if v := os.Getenv("CITYGEN_LISTEN_ADDRESS"); v != "" {
		c.Server.Address = v
	}
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	g := c.Generator
	if g.Dimensions < 1 {
		return fmt.Errorf("%w: generator.dimensions must be at least 1, got %d", ErrInvalidConfig, g.Dimensions)
	}
	if g.MaxSteps < 0 {
		return fmt.Errorf("%w: generator.max_steps must not be negative", ErrInvalidConfig)
	}
	if g.StepIntervalMS < 0 {
		return fmt.Errorf("%w: generator.step_interval_ms must not be negative", ErrInvalidConfig)
	}
	if _, err := g.PropagationPolicy(); err != nil {
		return fmt.Errorf("%w: generator.propagation: %v", ErrInvalidConfig, err)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("%w: database.sqlite_path is required for sqlite", ErrInvalidConfig)
		}
	case "postgres":
		if c.Database.Postgres.Host == "" || c.Database.Postgres.Database == "" {
			return fmt.Errorf("%w: database.postgres host and database are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Server.MaxConcurrentGenerations < 1 {
		return fmt.Errorf("%w: server.max_concurrent_generations must be at least 1", ErrInvalidConfig)
	}
	if c.Server.MaxGenerationsPerIP < 0 {
		return fmt.Errorf("%w: server.max_generations_per_ip must not be negative", ErrInvalidConfig)
	}
	if c.Server.MaxDimensions < 1 {
		return fmt.Errorf("%w: server.max_dimensions must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// IsOriginAllowed reports whether a websocket handshake from origin may
// proceed for a request addressed to requestHost.
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
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

// isSameOrigin treats a missing Origin header as a non-browser client
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == requestHost
}
