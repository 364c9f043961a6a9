// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and provides sensible defaults.
// A .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "APP".
// Example: APP_PORT=8080, APP_LOG_LEVEL=debug
type Config struct {
	// Server configuration (embedded to flatten env vars)
	Server ServerConfig

	// Database configuration (embedded to flatten env vars)
	Database DatabaseConfig

	// Logging configuration (embedded to flatten env vars)
	Log LogConfig

	// Game rules
	Game GameConfig

	// Admin configuration
	Admin AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// Host is the HTTP server host (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// ReadTimeout is the maximum duration for reading the entire request (default: 10s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`

	// WriteTimeout is the maximum duration before timing out writes of the response (default: 30s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// AllowedOrigins restricts CORS and websocket origins; empty allows any.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
}

// DatabaseConfig holds statistics store settings.
type DatabaseConfig struct {
	// Driver selects the store: postgres or sqlite (default: sqlite)
	Driver string `envconfig:"DB_DRIVER" default:"sqlite"`

	// SQLitePath is the database file used by the sqlite driver
	SQLitePath string `envconfig:"DB_SQLITE_PATH" default:"mindscale.db"`

	// Host is the database host (default: localhost)
	Host string `envconfig:"DB_HOST" default:"localhost"`

	// Port is the database port (default: 5432)
	Port int `envconfig:"DB_PORT" default:"5432"`

	// User is the database user (default: postgres)
	User string `envconfig:"DB_USER" default:"postgres"`

	// Password is the database password (required in production)
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`

	// Name is the database name (default: mindscale)
	Name string `envconfig:"DB_NAME" default:"mindscale"`

	// SSLMode is the SSL mode for the connection (default: disable)
	SSLMode string `envconfig:"DB_SSLMODE" default:"disable"`

	// MaxOpenConns is the maximum number of open connections (default: 25)
	MaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`

	// MaxIdleConns is the maximum number of idle connections (default: 5)
	MaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	// ConnMaxLifetime is the maximum lifetime of a connection (default: 5m)
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: json, text, plain (default: plain)
	Format string `envconfig:"LOG_FORMAT" default:"plain"`
}

// GameConfig holds the rules that are fixed for the process lifetime.
type GameConfig struct {
	JoinWindow    time.Duration `envconfig:"JOIN_WINDOW" default:"120s"`
	PickWindow    time.Duration `envconfig:"PICK_WINDOW" default:"90s"`
	MinPlayers    int           `envconfig:"MIN_PLAYERS" default:"2"`
	MaxPlayers    int           `envconfig:"MAX_PLAYERS" default:"15"`
	ExtendCap     time.Duration `envconfig:"EXTEND_CAP" default:"240s"`
	ExtendDefault time.Duration `envconfig:"EXTEND_DEFAULT" default:"30s"`

	// CallTimeout bounds every message, membership and persistence call.
	CallTimeout time.Duration `envconfig:"CALL_TIMEOUT" default:"10s"`
}

// AdminConfig lists the users allowed to force-start and force-end games.
type AdminConfig struct {
	UserIDs []int64 `envconfig:"ADMIN_USER_IDS"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("APP_DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver))
	}

	g := c.Game
	if g.JoinWindow <= 0 {
		errs = append(errs, errors.New("APP_JOIN_WINDOW must be positive"))
	}
	if g.PickWindow <= 0 {
		errs = append(errs, errors.New("APP_PICK_WINDOW must be positive"))
	}
	if g.MinPlayers < 2 {
		errs = append(errs, errors.New("APP_MIN_PLAYERS must be at least 2"))
	}
	if g.MaxPlayers < g.MinPlayers {
		errs = append(errs, errors.New("APP_MAX_PLAYERS must not be below APP_MIN_PLAYERS"))
	}
	if g.ExtendCap <= 0 {
		errs = append(errs, errors.New("APP_EXTEND_CAP must be positive"))
	}
	if g.ExtendDefault <= 0 || g.ExtendDefault > g.ExtendCap {
		errs = append(errs, errors.New("APP_EXTEND_DEFAULT must be positive and within APP_EXTEND_CAP"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables.
// It returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Load each config section separately to flatten env var names
	// This allows env vars like APP_PORT instead of APP_SERVER_PORT
	if err := envconfig.Process("APP", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Game); err != nil {
		return nil, fmt.Errorf("failed to load game config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Admin); err != nil {
		return nil, fmt.Errorf("failed to load admin config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
