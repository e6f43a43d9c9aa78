package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultFileName is the settings store file inside the user data directory
const DefaultFileName = "etcher-ng.db"

// parseBoolEnv reads an environment variable and parses it as a boolean.
// The second return value reports whether the variable held a recognised value.
func parseBoolEnv(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}

	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, true
	}

	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// Config holds the settings store connection options
type Config struct {
	Path                  string        `json:"path" yaml:"path"`                                   // Database file path
	MaxConnections        int           `json:"maxConnections" yaml:"maxConnections"`               // Maximum number of open connections
	MaxIdleConns          int           `json:"maxIdleConns" yaml:"maxIdleConns"`                   // Maximum number of idle connections
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`             // Maximum connection lifetime
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime"`             // Maximum connection idle time
	ForceSingleConnection bool          `json:"forceSingleConnection" yaml:"forceSingleConnection"` // Force single connection mode
	AutoMigrate           bool          `json:"autoMigrate" yaml:"autoMigrate"`                     // Run migrations on startup

	JournalMode     string `json:"journalMode" yaml:"journalMode"`         // SQLite journal mode (WAL, DELETE, etc.)
	SynchronousMode string `json:"synchronousMode" yaml:"synchronousMode"` // SQLite synchronous mode (FULL, NORMAL, OFF)
	CacheSize       int    `json:"cacheSize" yaml:"cacheSize"`             // SQLite cache size in KB
	BusyTimeout     int    `json:"busyTimeout" yaml:"busyTimeout"`         // SQLite busy timeout in milliseconds

	Environment string `json:"environment" yaml:"environment"` // development, production, test
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:            DefaultFileName,
		MaxConnections:  4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 24 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		AutoMigrate:     true,

		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSize:       512,
		// The settings file may be touched by a second process for a moment
		// while it forwards its arguments, keep waiting short.
		BusyTimeout: 5000,

		Environment: "production",
	}
}

// DevelopmentConfig keeps the store next to the working directory
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Path = "etcher-ng_dev.db"
	config.Environment = "development"
	return config
}

// TestConfig returns an in-memory configuration
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.Environment = "test"
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.BusyTimeout = 1000
	// Every new connection to :memory: is a fresh database
	config.ForceSingleConnection = true
	return config
}

// LoadFromEnvironment applies ETCHER_DB_* overrides
func (c *Config) LoadFromEnvironment() error {
	if path := os.Getenv("ETCHER_DB_PATH"); path != "" {
		c.Path = path
	}

	if maxConns := os.Getenv("ETCHER_DB_MAX_CONNECTIONS"); maxConns != "" {
		if val, err := strconv.Atoi(maxConns); err == nil && val > 0 {
			c.MaxConnections = val
		}
	}

	if maxIdle := os.Getenv("ETCHER_DB_MAX_IDLE_CONNECTIONS"); maxIdle != "" {
		if val, err := strconv.Atoi(maxIdle); err == nil && val >= 0 {
			c.MaxIdleConns = val
		}
	}

	if journalMode := os.Getenv("ETCHER_DB_JOURNAL_MODE"); journalMode != "" {
		c.JournalMode = journalMode
	}

	if syncMode := os.Getenv("ETCHER_DB_SYNCHRONOUS_MODE"); syncMode != "" {
		c.SynchronousMode = syncMode
	}

	if busyTimeout := os.Getenv("ETCHER_DB_BUSY_TIMEOUT"); busyTimeout != "" {
		if val, err := strconv.Atoi(busyTimeout); err == nil && val >= 0 {
			c.BusyTimeout = val
		}
	}

	if autoMigrate, present := parseBoolEnv("ETCHER_DB_AUTO_MIGRATE"); present {
		c.AutoMigrate = autoMigrate
	}

	if forceSingle, present := parseBoolEnv("ETCHER_DB_FORCE_SINGLE_CONNECTION"); present {
		c.ForceSingleConnection = forceSingle
	}

	return nil
}

// Validate validates the configuration and creates the parent directory of Path
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}

	if c.MaxIdleConns < 0 {
		return fmt.Errorf("maxIdleConns cannot be negative, got %d", c.MaxIdleConns)
	}

	if c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns (%d) cannot be greater than maxConnections (%d)", c.MaxIdleConns, c.MaxConnections)
	}

	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("connMaxLifetime cannot be negative, got %v", c.ConnMaxLifetime)
	}

	if c.ConnMaxIdleTime < 0 {
		return fmt.Errorf("connMaxIdleTime cannot be negative, got %v", c.ConnMaxIdleTime)
	}

	switch strings.ToUpper(c.JournalMode) {
	case "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
	default:
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}

	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}

	switch c.SynchronousMode {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}

	if c.CacheSize <= 0 {
		return fmt.Errorf("cacheSize must be positive, got %d", c.CacheSize)
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("busyTimeout cannot be negative, got %d", c.BusyTimeout)
	}

	switch c.Environment {
	case "development", "test", "production":
	default:
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	return nil
}

// GetConnectionString builds the mattn/go-sqlite3 DSN for this configuration
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	values.Set("_foreign_keys", "on")
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	// negative value makes SQLite read it as KiB
	values.Set("_cache_size", fmt.Sprintf("%d", -c.CacheSize))
	values.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout))

	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}

	return path + "?" + values.Encode()
}

// IsInMemory returns true if the database is configured to use in-memory storage
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}

// ConfigForEnvironment returns the configuration for env with the store
// placed in dataDir (ignored for the in-memory test store).
func ConfigForEnvironment(env, dataDir string) *Config {
	var config *Config
	switch env {
	case "development":
		config = DevelopmentConfig()
	case "test":
		return TestConfig()
	default:
		config = DefaultConfig()
	}
	if dataDir != "" {
		config.Path = filepath.Join(dataDir, filepath.Base(config.Path))
	}
	return config
}
